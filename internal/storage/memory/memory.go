// Package memory is an in-process storage backend, used for local runs and
// tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	txs      map[core.Kind][]core.Transaction
	users    map[uuid.UUID]core.User
	profiles map[uuid.UUID]core.Profile
	sessions map[uuid.UUID]core.Session
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:      make(map[core.Kind][]core.Transaction),
		users:    make(map[uuid.UUID]core.User),
		profiles: make(map[uuid.UUID]core.Profile),
		sessions: make(map[uuid.UUID]core.Session),
	}
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) error {
	if !t.Kind.Valid() {
		return core.ErrInvalidKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txs[t.Kind] {
		if existing.ID == t.ID {
			return fmt.Errorf("%s %s: %w", t.Kind, t.ID, storage.ErrConflict)
		}
	}
	s.txs[t.Kind] = append(s.txs[t.Kind], t)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs[kind] {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, userID uuid.UUID) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[p.UserID]
	if !ok {
		return fmt.Errorf("profile %s: %w", p.UserID, storage.ErrNotFound)
	}
	if other, taken := s.userByEmail(p.Email); taken && other.ID != p.UserID {
		return fmt.Errorf("email %s: %w", p.Email, storage.ErrConflict)
	}
	u.Email = p.Email
	s.users[u.ID] = u
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, storage.ErrConflict)
	}
	if _, taken := s.userByEmail(u.Email); taken {
		return fmt.Errorf("email %s: %w", u.Email, storage.ErrConflict)
	}
	u.PasswordHash = slices.Clone(u.PasswordHash)
	s.users[u.ID] = u
	p.UserID = u.ID
	s.profiles[u.ID] = p
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.userByEmail(email)
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	u.PasswordHash = slices.Clone(hash)
	s.users[id] = u
	return nil
}

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, storage.ErrConflict)
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) userByEmail(email string) (core.User, bool) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return core.User{}, false
}
