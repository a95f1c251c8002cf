package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"budgetly/internal/core"
	"budgetly/internal/loader"
	"budgetly/internal/storage/memory"
)

type countingStore struct {
	*memory.Store
	mu      sync.Mutex
	inserts int
	// failLists makes that many upcoming list calls fail
	failLists int
}

func (s *countingStore) ListTransactions(ctx context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error) {
	s.mu.Lock()
	if s.failLists > 0 {
		s.failLists--
		s.mu.Unlock()
		return nil, errors.New("store unavailable")
	}
	s.mu.Unlock()
	return s.Store.ListTransactions(ctx, userID, kind)
}

func (s *countingStore) InsertTransaction(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	return s.Store.InsertTransaction(ctx, t)
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []core.Transaction
	err  error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, t)
	return nil
}

var fixedNow = time.Date(2025, 5, 15, 23, 30, 0, 0, time.UTC)

func newTransactionService(t *testing.T, pub Publisher) (*TransactionService, *DashboardService, *countingStore) {
	t.Helper()
	store := &countingStore{Store: memory.New()}
	ld, err := loader.New(store, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(ld.Close)

	svc := NewTransactionService(store, ld, pub, time.UTC, nil)
	svc.now = func() time.Time { return fixedNow }
	dash := NewDashboardService(ld, time.UTC)
	dash.now = func() time.Time { return fixedNow }
	return svc, dash, store
}

func TestCreateRejectsMissingFieldsBeforeStore(t *testing.T) {
	svc, _, store := newTransactionService(t, nil)
	user := uuid.New()

	for name, in := range map[string]TransactionInput{
		"no title":  {Amount: "12.00"},
		"blank":     {Title: "   ", Amount: "12.00"},
		"no amount": {Title: "Lunch"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user, core.KindExpense, in)
			assert.ErrorIs(t, err, ErrIncomplete)
		})
	}
	assert.Zero(t, store.inserts)
}

func TestCreateValidation(t *testing.T) {
	svc, _, store := newTransactionService(t, nil)
	user := uuid.New()

	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"negative amount", TransactionInput{Title: "x", Amount: "-3"}, core.ErrInvalidAmount},
		{"zero amount", TransactionInput{Title: "x", Amount: "0"}, core.ErrInvalidAmount},
		{"bad category", TransactionInput{Title: "x", Amount: "3", Category: "Salary"}, core.ErrInvalidCategory},
		{"bad date", TransactionInput{Title: "x", Amount: "3", Date: "15/05/2025"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user, core.KindExpense, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, store.inserts)
}

func TestCreateAppliesDefaultsAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := newTransactionService(t, pub)
	user := uuid.New()

	tx, err := svc.Create(context.Background(), user, core.KindIncome, TransactionInput{
		Title:  "  Paycheck ",
		Amount: "$2,000.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Paycheck", tx.Title)
	assert.Equal(t, string(core.Salary), tx.Category)
	assert.Equal(t, "2025-05-15", tx.Date.String())
	assert.Equal(t, "2000", tx.Amount.String())

	require.Len(t, pub.sent, 1)
	assert.Equal(t, tx.ID, pub.sent[0].ID)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, dash, _ := newTransactionService(t, pub)
	user := uuid.New()

	_, err := svc.Create(context.Background(), user, core.KindExpense, TransactionInput{Title: "Bus", Amount: "2.50", Category: "Transport"})
	require.NoError(t, err)

	snap, err := dash.Snapshot(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)
}

func TestCreateRefreshesSnapshot(t *testing.T) {
	svc, dash, _ := newTransactionService(t, nil)
	ctx := context.Background()
	user := uuid.New()

	// prime the cache with an empty snapshot
	snap, err := dash.Snapshot(ctx, user)
	require.NoError(t, err)
	require.Empty(t, snap.Expenses)

	_, err = svc.Create(ctx, user, core.KindExpense, TransactionInput{Title: "Groceries", Amount: "50", Date: "2025-05-02"})
	require.NoError(t, err)

	snap, err = dash.Snapshot(ctx, user)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "Groceries", snap.Expenses[0].Title)
}

func TestCreateDropsStaleSnapshotWhenRefreshFails(t *testing.T) {
	svc, dash, store := newTransactionService(t, nil)
	ctx := context.Background()
	user := uuid.New()

	snap, err := dash.Snapshot(ctx, user)
	require.NoError(t, err)
	require.Empty(t, snap.Expenses)

	store.mu.Lock()
	store.failLists = 1
	store.mu.Unlock()

	_, err = svc.Create(ctx, user, core.KindExpense, TransactionInput{Title: "Rent", Amount: "800", Date: "2025-05-01"})
	require.NoError(t, err)

	snap, err = dash.Snapshot(ctx, user)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, "Rent", snap.Expenses[0].Title)
}

func TestCreatedCountsPerKind(t *testing.T) {
	svc, _, _ := newTransactionService(t, nil)
	ctx := context.Background()
	user := uuid.New()

	for _, title := range []string{"Coffee", "Lunch"} {
		_, err := svc.Create(ctx, user, core.KindExpense, TransactionInput{Title: title, Amount: "3"})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, user, core.KindIncome, TransactionInput{Title: "Salary", Amount: "2000"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user, core.KindIncome, TransactionInput{Title: "", Amount: "1"})
	require.ErrorIs(t, err, ErrIncomplete)

	assert.Equal(t, map[core.Kind]int64{core.KindExpense: 2, core.KindIncome: 1}, svc.Created())
}

func TestDefaults(t *testing.T) {
	svc, _, _ := newTransactionService(t, nil)
	assert.Equal(t, TransactionInput{Category: "Food", Date: "2025-05-15"}, svc.Defaults(core.KindExpense))
	assert.Equal(t, "Salary", svc.Defaults(core.KindIncome).Category)
}

func TestDashboardReport(t *testing.T) {
	svc, dash, _ := newTransactionService(t, nil)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Create(ctx, user, core.KindExpense, TransactionInput{Title: "Groceries", Amount: "50", Date: "2025-05-02"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user, core.KindIncome, TransactionInput{Title: "Pay", Amount: "2000", Date: "2025-05-01"})
	require.NoError(t, err)

	rep, _, err := dash.Report(ctx, user, core.InitialView(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "2000", rep.Summary.Income.String())
	assert.Equal(t, "50", rep.Summary.Expense.String())
	assert.Equal(t, "97.5", rep.SavingsRate.String())
	assert.Equal(t, []int{2025}, rep.Years)

	var buf bytes.Buffer
	require.NoError(t, dash.Export(ctx, &buf, user, core.InitialView(fixedNow)))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Transactions")
}
