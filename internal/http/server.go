// Package http exposes the expense tracker as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sabilulmuttaqin/myuang/internal/cache"
	"github.com/sabilulmuttaqin/myuang/internal/core"
	"github.com/sabilulmuttaqin/myuang/internal/log"
	"github.com/sabilulmuttaqin/myuang/internal/services"
)

// Parser turns free text or receipt images into expense candidates.
// A nil Parser disables the parse endpoints.
type Parser interface {
	ParseFreeText(ctx context.Context, text string, available []string) (*core.ParsedExpense, error)
	ParseReceiptImage(ctx context.Context, image []byte, mimeType string, available []string, splitItems bool) ([]core.ParsedExpense, error)
}

// Options tunes server-side caching and listing limits.
type Options struct {
	CacheSize   int
	CacheTTL    time.Duration
	RecentLimit int
}

func (o *Options) withDefaults() {
	if o.CacheSize <= 0 {
		o.CacheSize = 128
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = 20
	}
}

type Server struct {
	http.Server

	expenses *services.ExpenseService
	bills    *services.SplitBillService
	parser   Parser
	logger   *log.Logger

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Summaries are recomputed from the full transaction set, so they are
	// memoized between writes. Any write flushes the cache.
	summaryCache *cache.LRUCache[core.RangeSummary]
	cacheManager *cache.Manager

	recentLimit  int
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, bills *services.SplitBillService, parser Parser, opts Options) *Server {
	opts.withDefaults()

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		expenses:     expenses,
		bills:        bills,
		parser:       parser,
		logger:       log.New(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		summaryCache: cache.NewLRUCache[core.RangeSummary](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(),
		recentLimit:  opts.RecentLimit,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.secured(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.secured(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secured(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.secured(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.secured(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secured(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/summary/month", s.secured(s.handleMonthSummary))
	mux.HandleFunc("GET /api/summary/week", s.secured(s.handleWeekTotal))
	mux.HandleFunc("GET /api/summary/range", s.secured(s.handleRangeSummary))

	mux.HandleFunc("GET /api/split-bills", s.secured(s.handleListSplitBills))
	mux.HandleFunc("POST /api/split-bills", s.secured(s.handleCreateSplitBill))
	mux.HandleFunc("GET /api/split-bills/{id}", s.secured(s.handleGetSplitBill))
	mux.HandleFunc("DELETE /api/split-bills/{id}", s.secured(s.handleDeleteSplitBill))

	mux.HandleFunc("POST /api/parse/text", s.secured(s.handleParseText))
	mux.HandleFunc("POST /api/parse/receipt", s.secured(s.handleParseReceipt))

	return s
}

// secured adds request logging, rate limiting on writes, and security
// headers around a handler.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := uuid.NewString()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.IntoContext(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// flushSummaries drops memoized summaries after any write.
func (s *Server) flushSummaries() {
	s.summaryCache.Flush()
}

// Shutdown stops background cleanup before the listener drains.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness hinges on the store answering a cheap query.
	if _, err := s.expenses.Categories(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
