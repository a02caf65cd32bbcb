// Package http exposes the plan and the simulation over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"debtplan/internal/cache"
	"debtplan/internal/services"
	"debtplan/internal/simulation"
)

// simulationCacheKey is the single cache key for the simulation
// response; every mutation clears it.
const simulationCacheKey = "simulation"

type Server struct {
	http.Server
	plans       *services.PlanService
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	simCache     *cache.LRUCache[*simulation.Result]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, plans *services.PlanService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		plans:        plans,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		simCache:     cache.NewLRUCache[*simulation.Result](8, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.simCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/settings", s.withSecurityHeaders(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.withSecurityHeaders(s.handleUpdateSettings))

	mux.HandleFunc("GET /api/debts", s.withSecurityHeaders(s.handleListDebts))
	mux.HandleFunc("POST /api/debts", s.withSecurityHeaders(s.handleCreateDebt))
	mux.HandleFunc("PUT /api/debts/{id}", s.withSecurityHeaders(s.handleUpdateDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withSecurityHeaders(s.handleDeleteDebt))
	mux.HandleFunc("POST /api/debts/reorder", s.withSecurityHeaders(s.handleReorderDebts))

	mux.HandleFunc("GET /api/schedule-overrides", s.withSecurityHeaders(s.handleListScheduleOverrides))
	mux.HandleFunc("PUT /api/schedule-overrides/{monthIndex}", s.withSecurityHeaders(s.handleSetScheduleOverride))

	mux.HandleFunc("GET /api/payment-overrides", s.withSecurityHeaders(s.handleListPaymentOverrides))
	mux.HandleFunc("PUT /api/payment-overrides/bulk", s.withSecurityHeaders(s.handleReplacePaymentOverrides))
	mux.HandleFunc("DELETE /api/payment-overrides/{monthIndex}/{debtId}", s.withSecurityHeaders(s.handleDeletePaymentOverride))

	mux.HandleFunc("GET /api/simulation", s.withSecurityHeaders(s.handleSimulation))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID,
				"client_ip", clientIP,
				"url", r.URL.String())
		}

		// Rate limit mutations; reads stay cheap through the cache.
		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateSimulation drops the cached result after any write.
func (s *Server) invalidateSimulation() {
	s.simCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
