package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budgetly/internal/auth"
	"budgetly/internal/log"
	"budgetly/internal/middleware/ratelimit"
	"budgetly/internal/middleware/security"
	"budgetly/internal/middleware/trace"
	"budgetly/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Store        Pinger
	Auth         *auth.Service
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Logger       *log.Logger

	// RateLimitPerMinute applies per client IP to /api. Zero uses the
	// limiter default.
	RateLimitPerMinute int
	// TrustedProxies extends the proxy ranges whose forwarding headers
	// name the client IP.
	TrustedProxies []string
}

type Server struct {
	http.Server

	store        Pinger
	auth         *auth.Service
	transactions *services.TransactionService
	dashboard    *services.DashboardService

	log      *log.Logger
	logger   *log.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	rlConfig := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = deps.RateLimitPerMinute
		rlConfig.Burst = 0
	}

	s := &Server{
		store:        deps.Store,
		auth:         deps.Auth,
		transactions: deps.Transactions,
		dashboard:    deps.Dashboard,
		log:          logger,
		logger:       log.NewStructuredLogger(logger),
		limiter:      ratelimit.NewLimiter(rlConfig),
		detector:     security.NewDetector(),
		started:      time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.WithComponent(log.ComponentSecurity).Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.log))
	r.Use(s.tracer.Middleware)
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(headers.Middleware)
	r.Use(s.detector.Middleware(s.log))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))
		r.Use(middleware.Compress(5, "application/json"))

		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signout", s.handleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/auth/session", s.handleSession)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/profile/password", s.handleChangePassword)

			r.Get("/categories", s.handleCategories)
			r.Get("/categories/{kind}", s.handleCategoriesOf)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/expenses", s.handleCreateExpense)
			r.Post("/income", s.handleCreateIncome)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/dashboard/export", s.handleExport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.log.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
