package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"budgetly/internal/auth"
	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/middleware/trace"
	"budgetly/internal/services"
	"budgetly/internal/storage"
)

const (
	loginPath         = "/login"
	sessionCookieName = "budgetly_session"
)

var (
	errBadBody     = errors.New("malformed request body")
	errInvalidYear = errors.New("invalid year")
	errInvalidView = errors.New("invalid view mode")
)

// validationErrors are reported to the client verbatim with 422.
var validationErrors = []error{
	services.ErrIncomplete,
	core.ErrInvalidKind,
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrDescTooLong,
	core.ErrInvalidCategory,
	core.ErrInvalidDate,
	core.ErrEmptyName,
	core.ErrInvalidEmail,
	core.ErrPasswordTooShort,
	core.ErrPasswordMismatch,
	core.ErrPasswordTooLong,
}

// writeError maps err to a status code and writes the envelope. failMsg is
// the notification shown when the failure is ours.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op, failMsg string) {
	ctx := r.Context()
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
	}

	switch {
	case errors.Is(err, errBadBody), errors.Is(err, errInvalidYear), errors.Is(err, errInvalidView):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, auth.ErrNoSession):
		UnauthorizedError("no active session").Write(w)
	case errors.Is(err, auth.ErrInvalidCredentials):
		ErrorResponse(http.StatusUnauthorized, err.Error()).Write(w)
	case errors.Is(err, auth.ErrWrongPassword):
		// the session is still valid
		ErrorResponse(http.StatusForbidden, err.Error()).Write(w)
	case errors.Is(err, auth.ErrEmailTaken):
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	case errors.Is(err, context.Canceled):
		// client went away
		w.WriteHeader(499)
	default:
		s.logger.LogError(ctx, "Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithRequestID(trace.GetRequestID(ctx)))
		InternalServerError(failMsg).Write(w)
	}
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token auth.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sanitizeInput removes control characters except tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseBody reads r as JSON or form data.
func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, errBadBody
	}
	return p, nil
}
