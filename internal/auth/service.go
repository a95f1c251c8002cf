// Package auth implements email/password accounts and revocable sessions.
//
// Tokens are HS256 JWTs whose jti is the id of a stored session, so signing
// out deletes the session and invalidates the token before it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/storage"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Store is the subset of storage.Store the service needs.
type Store interface {
	storage.UserStore
	storage.ProfileStore
	storage.SessionStore
}

type Claims struct {
	jwt.RegisteredClaims
}

// Token is returned by SignUp and SignIn.
type Token struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type PasswordChange struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *log.Logger
}

func NewService(store Store, secret string, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the user with its profile and opens a session.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (Token, error) {
	email := normalizeEmail(req.Email)
	profile := core.Profile{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
	}
	if err := profile.Validate(); err != nil {
		return Token{}, err
	}
	if err := core.ValidatePassword(req.Password); err != nil {
		return Token{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return Token{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	profile.UserID = user.ID
	if err := s.store.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Token{}, ErrEmailTaken
		}
		return Token{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID.String())
	return s.issue(ctx, user.ID)
}

// SignIn checks the credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Token, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Invalid password attempt", log.FieldUserID, user.ID.String())
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user.ID)
}

func (s *Service) issue(ctx context.Context, userID uuid.UUID) (Token, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	session := core.Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return Token{}, fmt.Errorf("create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: signed, UserID: userID, ExpiresAt: session.ExpiresAt}, nil
}

// Session resolves a token to its active session. Every way a token can
// fail to name a live session yields ErrNoSession; store failures are
// returned wrapped.
func (s *Service) Session(ctx context.Context, token string) (core.Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: bad session id", ErrNoSession)
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Session{}, ErrNoSession
		}
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	if !session.Active(s.now()) || session.UserID.String() != claims.Subject {
		return core.Session{}, ErrNoSession
	}
	return session, nil
}

// SignOut revokes the session named by token. Signing out twice is not an
// error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	session, err := s.Session(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "User signed out", log.FieldUserID, session.UserID.String())
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req PasswordChange) error {
	if err := core.ValidatePasswordChange(req.New, req.Confirm); err != nil {
		return err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password changed", log.FieldUserID, userID.String())
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (core.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces name, email and avatar URL. The login email
// follows the profile email.
func (s *Service) UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = normalizeEmail(p.Email)
	p.AvatarURL = strings.TrimSpace(p.AvatarURL)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return core.Profile{}, ErrEmailTaken
		}
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
