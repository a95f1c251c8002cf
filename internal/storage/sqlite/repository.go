// Package sqlite is the default durable storage backend, a single SQLite
// file migrated on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

const driverName = "sqlite"

type Repository struct {
	db *sql.DB
}

var _ storage.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	if !t.Kind.Valid() {
		return core.ErrInvalidKind
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, title, amount_cents, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, t.Kind.Collection())
	_, err := r.db.ExecContext(ctx, query,
		t.ID.String(), t.UserID.String(), t.Title, core.Cents(t.Amount),
		t.Category, t.Description, t.Date.String(), t.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.Kind, mapErr(err))
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"kind", t.Kind,
		"category", t.Category,
		"date", t.Date.String())
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	query := fmt.Sprintf(`SELECT id, title, amount_cents, category, description, date, created_at
		FROM %s WHERE user_id = ? ORDER BY date DESC, rowid ASC`, kind.Collection())
	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			id, date  string
			cents     int64
			createdAt int64
			t         = core.Transaction{UserID: userID, Kind: kind}
		)
		if err := rows.Scan(&id, &t.Title, &cents, &t.Category, &t.Description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		if t.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse %s id: %w", kind, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, err
		}
		t.Amount = core.AmountFromCents(cents)
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (core.Profile, error) {
	p := core.Profile{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT first_name, last_name, email, avatar_url FROM profiles WHERE user_id = ?`,
		userID.String(),
	).Scan(&p.FirstName, &p.LastName, &p.Email, &p.AvatarURL)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", userID, mapErr(err))
	}
	return p, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, p core.Profile) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, p.Email, p.UserID.String())
		if err != nil {
			return fmt.Errorf("update user email: %w", mapErr(err))
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("profile %s: %w", p.UserID, err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO profiles (user_id, first_name, last_name, email, avatar_url)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				email = excluded.email,
				avatar_url = excluded.avatar_url`,
			p.UserID.String(), p.FirstName, p.LastName, p.Email, p.AvatarURL)
		if err != nil {
			return fmt.Errorf("update profile: %w", mapErr(err))
		}
		return nil
	})
}

func (r *Repository) CreateUser(ctx context.Context, u core.User, p core.Profile) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			u.ID.String(), u.Email, u.PasswordHash, u.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert user: %w", mapErr(err))
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (user_id, first_name, last_name, email, avatar_url) VALUES (?, ?, ?, ?, ?)`,
			u.ID.String(), p.FirstName, p.LastName, p.Email, p.AvatarURL)
		if err != nil {
			return fmt.Errorf("insert profile: %w", mapErr(err))
		}
		return nil
	})
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id.String())
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id.String())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := requireRow(res); err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.CreatedAt.UnixMilli(), s.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", mapErr(err))
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (core.Session, error) {
	var (
		userID             string
		created, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, created_at, expires_at FROM sessions WHERE id = ?`, id.String(),
	).Scan(&userID, &created, &expiresAt)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session %s: %w", id, mapErr(err))
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return core.Session{}, fmt.Errorf("parse session user: %w", err)
	}
	return core.Session{
		ID:        id,
		UserID:    uid,
		CreatedAt: time.UnixMilli(created).UTC(),
		ExpiresAt: time.UnixMilli(expiresAt).UTC(),
	}, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		id      string
		created int64
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &created); err != nil {
		return core.User{}, mapErr(err)
	}
	var err error
	if u.ID, err = uuid.Parse(id); err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// mapErr translates driver errors into storage sentinels.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", storage.ErrConflict, err)
		}
	}
	return err
}
