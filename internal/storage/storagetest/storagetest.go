// Package storagetest holds the behavior every storage.Store backend must
// share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("Profile", func(t *testing.T) { testProfile(t, newStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

// NewUser builds a user with a matching profile.
func NewUser(email string) (core.User, core.Profile) {
	u := core.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: []byte("$2a$10$hash"),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	return u, core.Profile{UserID: u.ID, FirstName: "Test", LastName: "User", Email: email}
}

// NewTransaction builds a valid transaction for userID.
func NewTransaction(userID uuid.UUID, kind core.Kind, title, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Amount:    decimal.RequireFromString(amount),
		Category:  core.DefaultCategory(kind),
		Date:      date,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testUserLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, p := NewUser("ada@example.com")
	require.NoError(t, s.CreateUser(ctx, u, p))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	got, err = s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, []byte("new-hash")))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("new-hash"), got.PasswordHash)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, uuid.New(), []byte("x")), storage.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u1, p1 := NewUser("dup@example.com")
	require.NoError(t, s.CreateUser(ctx, u1, p1))
	u2, p2 := NewUser("dup@example.com")
	assert.ErrorIs(t, s.CreateUser(ctx, u2, p2), storage.ErrConflict)
}

func testProfile(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, p := NewUser("grace@example.com")
	require.NoError(t, s.CreateUser(ctx, u, p))

	got, err := s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.FirstName, p.LastName = "Grace", "Hopper"
	p.Email = "hopper@example.com"
	p.AvatarURL = "https://example.com/grace.png"
	require.NoError(t, s.UpdateProfile(ctx, p))

	got, err = s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byEmail, err := s.GetUserByEmail(ctx, "hopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	other, op := NewUser("other@example.com")
	require.NoError(t, s.CreateUser(ctx, other, op))
	op.Email = "hopper@example.com"
	assert.ErrorIs(t, s.UpdateProfile(ctx, op), storage.ErrConflict)

	_, err = s.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	missing := core.Profile{UserID: uuid.New(), FirstName: "x", Email: "x@example.com"}
	assert.ErrorIs(t, s.UpdateProfile(ctx, missing), storage.ErrNotFound)
}

func testSessions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, p := NewUser("sess@example.com")
	require.NoError(t, s.CreateUser(ctx, u, p))

	now := time.Now().UTC().Truncate(time.Millisecond)
	sess := core.Session{ID: uuid.New(), UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.DeleteSession(ctx, sess.ID))
	_, err = s.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, s.DeleteSession(ctx, sess.ID))
}

func testTransactions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u, p := NewUser("tx@example.com")
	require.NoError(t, s.CreateUser(ctx, u, p))
	other, op := NewUser("tx2@example.com")
	require.NoError(t, s.CreateUser(ctx, other, op))

	older := NewTransaction(u.ID, core.KindExpense, "rent", "900", core.NewDate(2025, 1, 1))
	newer := NewTransaction(u.ID, core.KindExpense, "lunch", "12.34", core.NewDate(2025, 3, 9))
	newer.Description = "with team"
	salary := NewTransaction(u.ID, core.KindIncome, "salary", "2500.00", core.NewDate(2025, 2, 1))
	foreign := NewTransaction(other.ID, core.KindExpense, "not mine", "1", core.NewDate(2025, 4, 1))

	for _, tx := range []core.Transaction{older, newer, salary, foreign} {
		require.NoError(t, s.InsertTransaction(ctx, tx))
	}
	assert.ErrorIs(t, s.InsertTransaction(ctx, older), storage.ErrConflict)

	expenses, err := s.ListTransactions(ctx, u.ID, core.KindExpense)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, newer.ID, expenses[0].ID)
	assert.Equal(t, older.ID, expenses[1].ID)
	assert.Equal(t, "lunch", expenses[0].Title)
	assert.Equal(t, "with team", expenses[0].Description)
	assert.True(t, expenses[0].Amount.Equal(decimal.RequireFromString("12.34")), expenses[0].Amount.String())
	assert.Equal(t, "2025-03-09", expenses[0].Date.String())
	assert.Equal(t, core.KindExpense, expenses[0].Kind)
	assert.Equal(t, u.ID, expenses[0].UserID)

	income, err := s.ListTransactions(ctx, u.ID, core.KindIncome)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "Salary", income[0].Category)

	none, err := s.ListTransactions(ctx, uuid.New(), core.KindIncome)
	require.NoError(t, err)
	assert.Empty(t, none)
}
