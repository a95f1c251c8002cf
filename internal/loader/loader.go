// Package loader fetches a user's expense and income lists and keeps the
// latest snapshot per user in a ristretto cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/storage"
)

// ErrSuperseded is returned by Refresh when a refresh that started later
// has already stored its snapshot, or the user was invalidated, while it
// was fetching. The superseded result is not cached.
var ErrSuperseded = errors.New("refresh superseded")

// Snapshot is an immutable view of a user's transactions. Both lists are
// ordered by date, newest first.
type Snapshot struct {
	UserID   uuid.UUID          `json:"user_id"`
	Expenses []core.Transaction `json:"expenses"`
	Income   []core.Transaction `json:"income"`
	LoadedAt time.Time          `json:"loaded_at"`
}

type Loader struct {
	store  storage.TransactionStore
	cache  *ristretto.Cache[string, *Snapshot]
	ttl    time.Duration
	logger *log.Logger

	// started hands out a ticket per refresh; committed is the newest
	// ticket whose snapshot was stored, or the invalidation point.
	mu        sync.Mutex
	started   map[uuid.UUID]uint64
	committed map[uuid.UUID]uint64
}

// Stats reports snapshot cache effectiveness.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// New creates a loader over store. A ttl of zero disables caching.
func New(store storage.TransactionStore, ttl time.Duration, logger *log.Logger) (*Loader, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *Snapshot]{
		NumCounters: 100_000, // keys to track frequency of
		MaxCost:     10_000,  // one unit per snapshot
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader{
		store:     store,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.WithComponent(log.ComponentLoader),
		started:   make(map[uuid.UUID]uint64),
		committed: make(map[uuid.UUID]uint64),
	}, nil
}

func (l *Loader) Close() {
	l.cache.Close()
}

// Stats returns cache hit and miss counters since start.
func (l *Loader) Stats() Stats {
	if l.cache.Metrics == nil {
		return Stats{}
	}
	return Stats{Hits: l.cache.Metrics.Hits(), Misses: l.cache.Metrics.Misses()}
}

// Load returns the cached snapshot for userID, fetching it on a miss.
func (l *Loader) Load(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	if snap, ok := l.cache.Get(userID.String()); ok {
		return *snap, nil
	}
	snap, err := l.refresh(ctx, userID)
	if errors.Is(err, ErrSuperseded) {
		// still the freshest data this caller has seen
		return snap, nil
	}
	return snap, err
}

// Refresh refetches and caches the snapshot for userID. On failure the
// previously cached snapshot stays in place.
func (l *Loader) Refresh(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	return l.refresh(ctx, userID)
}

// Invalidate drops the cached snapshot and supersedes in-flight refreshes.
func (l *Loader) Invalidate(userID uuid.UUID) {
	l.mu.Lock()
	l.started[userID]++
	l.committed[userID] = l.started[userID]
	l.mu.Unlock()
	l.cache.Del(userID.String())
}

func (l *Loader) refresh(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	l.mu.Lock()
	l.started[userID]++
	ticket := l.started[userID]
	l.mu.Unlock()

	snap, err := Fetch(ctx, l.store, userID)
	if err != nil {
		l.logger.WarnContext(ctx, "Transaction fetch failed, keeping cached snapshot",
			log.FieldUserID, userID.String(),
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err.Error())
		return Snapshot{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if ticket <= l.committed[userID] {
		l.logger.DebugContext(ctx, "Discarding superseded snapshot", log.FieldUserID, userID.String())
		return snap, ErrSuperseded
	}
	l.committed[userID] = ticket
	if l.ttl > 0 {
		l.cache.SetWithTTL(userID.String(), &snap, 1, l.ttl)
		l.cache.Wait()
	}
	l.logger.DebugContext(ctx, "Snapshot loaded",
		log.FieldUserID, userID.String(),
		"expenses", len(snap.Expenses),
		"income", len(snap.Income))
	return snap, nil
}

// Fetch retrieves both lists concurrently without touching any cache. The
// first failing fetch cancels the other.
func Fetch(ctx context.Context, store storage.TransactionStore, userID uuid.UUID) (Snapshot, error) {
	var expenses, income []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = store.ListTransactions(gctx, userID, core.KindExpense)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		income, err = store.ListTransactions(gctx, userID, core.KindIncome)
		if err != nil {
			return fmt.Errorf("fetch income: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	// empty lists encode as [] rather than null
	if expenses == nil {
		expenses = []core.Transaction{}
	}
	if income == nil {
		income = []core.Transaction{}
	}
	sortNewestFirst(expenses)
	sortNewestFirst(income)
	return Snapshot{
		UserID:   userID,
		Expenses: expenses,
		Income:   income,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// sortNewestFirst orders by date descending; equal dates keep store order.
func sortNewestFirst(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
}
