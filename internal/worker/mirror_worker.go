package worker

import (
	"context"
	"fmt"

	"budgetly/internal/amqp"
	"budgetly/internal/log"
	"budgetly/internal/sheets"
)

// MirrorWorker copies every created transaction into the spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.TransactionMirror
	logger *log.Logger
}

func NewMirrorWorker(mirror sheets.TransactionMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleTransactionCreated processes a single transaction.created message.
// A returned error makes the consumer requeue the delivery.
func (w *MirrorWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	t := msg.Transaction
	w.logger.DebugContext(ctx, "Mirroring transaction",
		log.FieldTxID, t.ID.String(),
		log.FieldKind, string(t.Kind),
		log.FieldOperation, log.OpMirror)

	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("mirror transaction %s: %w", t.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldTxID, t.ID.String(),
		log.FieldUserID, t.UserID.String(),
		"row_ref", ref,
		"published_at", msg.Timestamp)
	return nil
}
