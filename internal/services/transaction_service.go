package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"budgetly/internal/core"
	"budgetly/internal/loader"
	"budgetly/internal/log"
	"budgetly/internal/storage"
)

// ErrIncomplete rejects a submission without a title or an amount. It is
// returned before the store is touched.
var ErrIncomplete = errors.New("title and amount are required")

// Publisher announces stored transactions. *amqp.Client implements it.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
}

// TransactionInput holds raw form values.
type TransactionInput struct {
	Title       string `json:"title"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// TransactionService orchestrates transaction writes across the store, the
// event publisher and the snapshot loader.
type TransactionService struct {
	store     storage.TransactionStore
	loader    *loader.Loader
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
	logger    *log.Logger

	expenses atomic.Int64
	income   atomic.Int64
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(store storage.TransactionStore, ld *loader.Loader, publisher Publisher, loc *time.Location, logger *log.Logger) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		store:     store,
		loader:    ld,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentTransaction),
	}
}

// Defaults returns the initial form values for kind.
func (s *TransactionService) Defaults(kind core.Kind) TransactionInput {
	return TransactionInput{
		Category: core.DefaultCategory(kind),
		Date:     core.DateOf(s.now().In(s.loc)).String(),
	}
}

// Create validates and stores one transaction, then publishes it and
// refreshes the owner's snapshot. Publish and refresh failures are logged;
// the transaction is already stored.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, kind core.Kind, in TransactionInput) (core.Transaction, error) {
	tx, err := s.build(userID, kind, in)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithUser(userID).
		WithTransaction(tx.ID, string(kind), tx.Category, core.Cents(tx.Amount), tx.Date.String()).
		ToSlice()...)
	if kind == core.KindIncome {
		s.income.Add(1)
	} else {
		s.expenses.Add(1)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, tx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish transaction event",
				log.FieldTxID, tx.ID.String(),
				log.FieldOperation, log.OpPublish,
				log.FieldError, err.Error())
		}
	}

	if s.loader != nil {
		// a cached snapshot without tx must not outlive a failed refetch
		if _, err := s.loader.Refresh(ctx, userID); err != nil && !errors.Is(err, loader.ErrSuperseded) {
			s.loader.Invalidate(userID)
		}
	}
	return tx, nil
}

// Created reports how many transactions of each kind were stored since start.
func (s *TransactionService) Created() map[core.Kind]int64 {
	return map[core.Kind]int64{
		core.KindExpense: s.expenses.Load(),
		core.KindIncome:  s.income.Load(),
	}
}

func (s *TransactionService) build(userID uuid.UUID, kind core.Kind, in TransactionInput) (core.Transaction, error) {
	if !kind.Valid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Amount) == "" {
		return core.Transaction{}, ErrIncomplete
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = core.DefaultCategory(kind)
	}

	now := s.now()
	date := core.DateOf(now.In(s.loc))
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(strings.TrimSpace(in.Date)); err != nil {
			return core.Transaction{}, err
		}
	}

	tx := core.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		Title:       title,
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		CreatedAt:   now.UTC().Truncate(time.Millisecond),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}
