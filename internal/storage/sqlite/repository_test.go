package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetly/internal/core"
	"budgetly/internal/storage"
	"budgetly/internal/storage/storagetest"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "budgetly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return newRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetly.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestAmountsRoundTripAsCents(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	u, p := storagetest.NewUser("cents@example.com")
	require.NoError(t, repo.CreateUser(ctx, u, p))

	tx := storagetest.NewTransaction(u.ID, core.KindIncome, "bonus", "1234567.89", core.NewDate(2024, 12, 24))
	require.NoError(t, repo.InsertTransaction(ctx, tx))

	got, err := repo.ListTransactions(ctx, u.ID, core.KindIncome)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1234567.89", got[0].Amount.StringFixed(2))
	assert.True(t, tx.CreatedAt.Equal(got[0].CreatedAt))
}
