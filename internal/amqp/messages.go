package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budgetly/internal/core"
)

const EventTransactionCreated = "transaction.created"

// TransactionCreatedMessage carries a newly stored transaction. The payload
// is complete so consumers never read back from the store.
type TransactionCreatedMessage struct {
	Event       string           `json:"event"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewTransactionCreatedMessage wraps t in a transaction.created event
func NewTransactionCreatedMessage(t core.Transaction) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		Event:       EventTransactionCreated,
		Transaction: t,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes and checks a message body
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event != EventTransactionCreated {
		return nil, errors.New("unexpected event " + msg.Event)
	}
	if err := msg.Transaction.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
