package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"budgetly/internal/core"
	"budgetly/internal/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := NewService(store, testSecret, time.Hour, nil)
	s.cost = bcrypt.MinCost
	return s, store
}

func signUp(t *testing.T, s *Service) Token {
	t.Helper()
	tok, err := s.SignUp(context.Background(), SignUpRequest{
		Email:     "  Jane@Example.com ",
		Password:  "correct-horse",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	return tok
}

func TestSignUpCreatesUserProfileAndSession(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	tok := signUp(t, s)

	session, err := s.Session(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, session.UserID)

	profile, err := store.GetProfile(ctx, tok.UserID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "Jane Doe", profile.DisplayName())
}

func TestSignUpValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SignUpRequest
		want error
	}{
		{"bad email", SignUpRequest{Email: "nope", Password: "longenough", FirstName: "A"}, core.ErrInvalidEmail},
		{"short password", SignUpRequest{Email: "a@b.co", Password: "short", FirstName: "A"}, core.ErrPasswordTooShort},
		{"no name", SignUpRequest{Email: "a@b.co", Password: "longenough"}, core.ErrEmptyName},
		{"long password", SignUpRequest{Email: "a@b.co", Password: strings.Repeat("p", 73), FirstName: "A"}, core.ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	s, _ := newService(t)
	signUp(t, s)
	_, err := s.SignUp(context.Background(), SignUpRequest{
		Email: "JANE@example.com", Password: "another-pass", FirstName: "J",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	signUp(t, s)

	tok, err := s.SignIn(ctx, "JANE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)

	_, err = s.SignIn(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionRejectsBadTokens(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tok := signUp(t, s)

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Session(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(memory.New(), "ffffffffffffffffffffffffffffffff", time.Hour, nil)
		_, err := other.Session(ctx, tok.Token)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("unknown session id", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   tok.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		signed, err := forged.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.Session(ctx, signed)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("expired", func(t *testing.T) {
		s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { s.now = time.Now }()
		_, err := s.Session(ctx, tok.Token)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSignOutRevokesSession(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tok := signUp(t, s)

	require.NoError(t, s.SignOut(ctx, tok.Token))
	_, err := s.Session(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, s.SignOut(ctx, tok.Token))
}

func TestChangePassword(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tok := signUp(t, s)

	err := s.ChangePassword(ctx, tok.UserID, PasswordChange{Current: "correct-horse", New: "new-password", Confirm: "other"})
	assert.ErrorIs(t, err, core.ErrPasswordMismatch)

	err = s.ChangePassword(ctx, tok.UserID, PasswordChange{Current: "correct-horse", New: "short", Confirm: "short"})
	assert.ErrorIs(t, err, core.ErrPasswordTooShort)

	long := strings.Repeat("x", core.MaxPasswordBytes+1)
	err = s.ChangePassword(ctx, tok.UserID, PasswordChange{Current: "correct-horse", New: long, Confirm: long})
	assert.ErrorIs(t, err, core.ErrPasswordTooLong)

	err = s.ChangePassword(ctx, tok.UserID, PasswordChange{Current: "wrong", New: "new-password", Confirm: "new-password"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, s.ChangePassword(ctx, tok.UserID, PasswordChange{Current: "correct-horse", New: "new-password", Confirm: "new-password"}))
	_, err = s.SignIn(ctx, "jane@example.com", "new-password")
	assert.NoError(t, err)
}

func TestUpdateProfileSyncsLoginEmail(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	tok := signUp(t, s)

	updated, err := s.UpdateProfile(ctx, core.Profile{
		UserID:    tok.UserID,
		FirstName: " Janet ",
		LastName:  "Doe",
		Email:     "Janet@Example.com",
		AvatarURL: "https://example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "janet@example.com", updated.Email)
	assert.Equal(t, "Janet", updated.FirstName)

	_, err = s.SignIn(ctx, "janet@example.com", "correct-horse")
	assert.NoError(t, err)

	got, err := s.GetProfile(ctx, tok.UserID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", got.AvatarURL)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	signUp(t, s)
	other, err := s.SignUp(ctx, SignUpRequest{Email: "bob@example.com", Password: "bob-password", FirstName: "Bob"})
	require.NoError(t, err)

	_, err = s.UpdateProfile(ctx, core.Profile{UserID: other.UserID, FirstName: "Bob", Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}
