// Package postgres stores users, sessions and transactions in PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Repository)(nil)

// Connect migrates the database at url and opens a pool on it.
func Connect(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	if !t.Kind.Valid() {
		return core.ErrInvalidKind
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, amount, category, description, date, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
	`, t.Kind.Collection())
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.UserID, t.Title, t.Amount.StringFixed(2),
		t.Category, t.Description, t.Date.Time, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.Kind, mapErr(err))
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	query := fmt.Sprintf(`
		SELECT id, title, amount::text, category, description, date, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY date DESC, seq ASC
	`, kind.Collection())
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			amount string
			date   time.Time
			t      = core.Transaction{UserID: userID, Kind: kind}
		)
		if err := rows.Scan(&t.ID, &t.Title, &amount, &t.Category, &t.Description, &date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		t.Date = core.DateOf(date)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (core.Profile, error) {
	p := core.Profile{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT first_name, last_name, email, avatar_url
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.FirstName, &p.LastName, &p.Email, &p.AvatarURL)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", userID, mapErr(err))
	}
	return p, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, p core.Profile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET email = $1 WHERE id = $2`, p.Email, p.UserID)
		if err != nil {
			return fmt.Errorf("update user email: %w", mapErr(err))
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("profile %s: %w", p.UserID, storage.ErrNotFound)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (user_id, first_name, last_name, email, avatar_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				avatar_url = EXCLUDED.avatar_url
		`, p.UserID, p.FirstName, p.LastName, p.Email, p.AvatarURL)
		if err != nil {
			return fmt.Errorf("update profile: %w", mapErr(err))
		}
		return nil
	})
}

func (r *Repository) CreateUser(ctx context.Context, u core.User, p core.Profile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
		`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", mapErr(err))
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (user_id, first_name, last_name, email, avatar_url)
			VALUES ($1, $2, $3, $4, $5)
		`, u.ID, p.FirstName, p.LastName, p.Email, p.AvatarURL)
		if err != nil {
			return fmt.Errorf("insert profile: %w", mapErr(err))
		}
		return nil
	})
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	u, err := r.scanUser(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.scanUser(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", mapErr(err))
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (core.Session, error) {
	s := core.Session{ID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(&s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session %s: %w", id, mapErr(err))
	}
	return s, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) scanUser(ctx context.Context, query string, arg any) (core.User, error) {
	var u core.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return core.User{}, mapErr(err)
	}
	return u, nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
