package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetly/internal/auth"
	"budgetly/internal/core"
	"budgetly/internal/log"
)

type ctxKey int

const sessionKey ctxKey = iota

// requireSession rejects requests without an active session with 401 and
// a redirect to the sign-in page.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("no active session").Write(w)
			return
		}
		session, err := s.auth.Session(ctx, token)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				s.logger.LogError(ctx, "Session lookup failed", err, log.ComponentAuth, log.OpRead, nil)
			}
			UnauthorizedError("no active session").Write(w)
			return
		}
		ctx = context.WithValue(ctx, sessionKey, session)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, session.UserID.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) core.Session {
	session, _ := ctx.Value(sessionKey).(core.Session)
	return session
}

func userFrom(ctx context.Context) uuid.UUID {
	return sessionFrom(ctx).UserID
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate, "")
		return
	}
	token, err := s.auth.SignUp(r.Context(), auth.SignUpRequest{
		Email:     p.Get("email"),
		Password:  p.Secret("password"),
		FirstName: p.Get("first_name"),
		LastName:  p.Get("last_name"),
	})
	if err != nil {
		s.writeError(w, r, err, log.OpCreate, "Could not create the account. Please try again.")
		return
	}
	setSessionCookie(w, r, token)
	NewJSONResponse().Status(http.StatusCreated).Data(token).NotifySuccess("Welcome to Budgetly").Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.writeError(w, r, err, log.OpRead, "")
		return
	}
	token, err := s.auth.SignIn(r.Context(), p.Get("email"), p.Secret("password"))
	if err != nil {
		s.writeError(w, r, err, log.OpRead, "Sign-in failed. Please try again.")
		return
	}
	setSessionCookie(w, r, token)
	NewJSONResponse().Data(token).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			s.writeError(w, r, err, log.OpUpdate, "Sign-out failed. Please try again.")
			return
		}
	}
	clearSessionCookie(w)
	NewJSONResponse().Redirect(loginPath).Write(w)
}

type sessionView struct {
	UserID      uuid.UUID    `json:"user_id"`
	ExpiresAt   time.Time    `json:"expires_at"`
	DisplayName string       `json:"display_name"`
	Profile     core.Profile `json:"profile"`
}

// handleSession returns the current session with its profile. A profile
// that cannot be read is treated as a missing session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := sessionFrom(ctx)
	profile, err := s.auth.GetProfile(ctx, session.UserID)
	if err != nil {
		s.logger.LogError(ctx, "Profile lookup failed", err, log.ComponentAuth, log.OpRead,
			log.NewFields().WithUser(session.UserID))
		UnauthorizedError("no active session").Write(w)
		return
	}
	NewJSONResponse().Data(sessionView{
		UserID:      session.UserID,
		ExpiresAt:   session.ExpiresAt,
		DisplayName: profile.DisplayName(),
		Profile:     profile,
	}).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.auth.GetProfile(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.OpRead, "Could not load the profile.")
		return
	}
	NewJSONResponse().Data(profile).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate, "")
		return
	}
	profile, err := s.auth.UpdateProfile(r.Context(), core.Profile{
		UserID:    userFrom(r.Context()),
		FirstName: p.Get("first_name"),
		LastName:  p.Get("last_name"),
		Email:     p.Get("email"),
		AvatarURL: p.Get("avatar_url"),
	})
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate, "Could not update the profile. Please try again.")
		return
	}
	NewJSONResponse().Data(profile).NotifySuccess("Profile updated").Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate, "")
		return
	}
	err = s.auth.ChangePassword(r.Context(), userFrom(r.Context()), auth.PasswordChange{
		Current: p.Secret("current_password"),
		New:     p.Secret("new_password"),
		Confirm: p.Secret("confirm_password"),
	})
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate, "Could not change the password. Please try again.")
		return
	}
	NewJSONResponse().NotifySuccess("Password changed").Write(w)
}
