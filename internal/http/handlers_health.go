package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"budgetly/internal/core"
	"budgetly/internal/log"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.log.WithComponent(log.ComponentStorage).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric(w, "budgetly_http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric(w, "budgetly_http_last_duration_ms", "gauge", "Duration of the last completed request", traceMetrics.LastDurationMs)

	metric(w, "budgetly_security_suspicious_requests_total", "counter", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	metric(w, "budgetly_security_invalid_ip_total", "counter", "Forwarded headers carrying an invalid IP", securityMetrics.InvalidIPAttempts)

	metric(w, "budgetly_ratelimit_active_clients", "gauge", "Clients tracked by the rate limiter", int64(s.limiter.ActiveClients()))
	metric(w, "budgetly_ratelimit_rejected_total", "counter", "Requests rejected by the rate limiter", s.limiter.Rejected())

	if s.transactions != nil {
		created := s.transactions.Created()
		fmt.Fprintf(w, "# HELP budgetly_transactions_created_total Transactions stored since start\n")
		fmt.Fprintf(w, "# TYPE budgetly_transactions_created_total counter\n")
		for _, kind := range []core.Kind{core.KindExpense, core.KindIncome} {
			fmt.Fprintf(w, "budgetly_transactions_created_total{kind=%q} %d\n", kind, created[kind])
		}
		fmt.Fprintln(w)
	}

	if s.dashboard != nil {
		stats := s.dashboard.CacheStats()
		metric(w, "budgetly_snapshot_cache_hits_total", "counter", "Snapshot cache hits", int64(stats.Hits))
		metric(w, "budgetly_snapshot_cache_misses_total", "counter", "Snapshot cache misses", int64(stats.Misses))
	}

	metric(w, "budgetly_uptime_seconds", "gauge", "Process uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func metric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
