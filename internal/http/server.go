// Package http exposes the JSON API for accounts, transactions,
// categories, budgets, reports and backups.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"domfin/internal/cache"
	"domfin/internal/ledger"
	"domfin/internal/middleware/trace"
	"domfin/internal/services"
)

type Server struct {
	http.Server
	service     *services.TrackerService
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// LRU cache for monthly reports, purged on every write
	reportCache  *cache.LRUCache[ledger.Report]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.TrackerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:     service,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		reportCache: cache.NewLRUCache[ledger.Report](100, 5*time.Minute),
	}

	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/snapshot", s.handleGetSnapshot)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleSaveAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /api/accounts/reorder", s.handleReorderAccounts)
	mux.HandleFunc("GET /api/groups", s.handleGroupTotals)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleSaveTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/categories", s.handleSaveCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/categories/reorder", s.handleReorderCategories)
	mux.HandleFunc("PUT /api/categories/{id}/budget", s.handleSetBudget)

	mux.HandleFunc("GET /api/reports", s.handleMonthlyReport)

	mux.HandleFunc("PUT /api/rates", s.handleUpdateRates)
	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	traceMW := trace.NewMiddleware(extractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traceMW.Middleware(s.withSecurity(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// withSecurity adds response headers and rate limits mutating requests.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateReports drops cached reports after any write. Balances and
// reports both derive from transactions, so a coarse purge is simpler
// than tracking which months a write touched.
func (s *Server) invalidateReports() {
	s.reportCache.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.Snapshot(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
