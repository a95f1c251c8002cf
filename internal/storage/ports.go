// Package storage defines the persistence ports and the errors shared by
// every backend (memory, sqlite, postgres, mongo).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"budgetly/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Ports for persistence adapters.
type (
	TransactionStore interface {
		// InsertTransaction stores t in the collection of its kind.
		InsertTransaction(ctx context.Context, t core.Transaction) error
		// ListTransactions returns every transaction of kind owned by userID,
		// newest date first.
		ListTransactions(ctx context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error)
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, userID uuid.UUID) (core.Profile, error)
		// UpdateProfile replaces the profile and keeps the login email in sync.
		UpdateProfile(ctx context.Context, p core.Profile) error
	}

	UserStore interface {
		// CreateUser stores the user and its initial profile atomically.
		// A duplicate email yields ErrConflict.
		CreateUser(ctx context.Context, u core.User, p core.Profile) error
		GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, id uuid.UUID) (core.Session, error)
		DeleteSession(ctx context.Context, id uuid.UUID) error
	}

	// Store is implemented by every backend.
	Store interface {
		TransactionStore
		ProfileStore
		UserStore
		SessionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
