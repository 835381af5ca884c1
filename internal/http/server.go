package http

import (
	"context"
	"net/http"
	"time"

	applog "casa/internal/log"
	"casa/internal/metrics"
	"casa/internal/middleware/ratelimit"
	"casa/internal/middleware/security"
	"casa/internal/middleware/trace"
	"casa/internal/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	maxBodyBytes      = 64 << 10
)

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	// Ready reports readiness; nil means always ready.
	Ready func(context.Context) error
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	Now           func() time.Time
}

// Server exposes the household API over JSON.
type Server struct {
	http.Server
	sessions    *session.Registry
	metrics     *metrics.Metrics
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	clientIP    *security.ClientIPResolver
	ready       func(context.Context) error
	secure      bool
	now         func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, sessions *session.Registry, m *metrics.Metrics, logger *applog.Logger) (*Server, error) {
	resolver, err := security.NewClientIPResolver()
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		sessions:    sessions,
		metrics:     m,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIP:    resolver,
		ready:       opts.Ready,
		secure:      opts.SecureCookies,
		now:         opts.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.clientIP.ClientIP, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.logger, s.clientIP.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle(mux, "GET /api/dashboard", s.handleDashboard)
	s.handle(mux, "GET /api/users", s.handleUsers)

	s.handle(mux, "GET /api/expenses", s.handleListExpenses)
	s.handle(mux, "POST /api/expenses", s.handleCreateExpense)
	s.handle(mux, "GET /api/expenses/recurring", s.handleListRecurring)
	s.handle(mux, "POST /api/expenses/analysis", s.handleAnalyzeExpenses)

	s.handle(mux, "GET /api/chores", s.handleListChores)
	s.handle(mux, "POST /api/chores", s.handleCreateChore)
	s.handle(mux, "POST /api/chores/auto-assign", s.handleAutoAssign)
	s.handle(mux, "POST /api/chores/{id}/toggle", s.handleToggleChore)

	s.handle(mux, "GET /api/shopping", s.handleListShopping)
	s.handle(mux, "POST /api/shopping", s.handleCreateShoppingItem)
	s.handle(mux, "POST /api/shopping/{id}/toggle", s.handleToggleShoppingItem)
	s.handle(mux, "DELETE /api/shopping/{id}", s.handleDeleteShoppingItem)

	s.handle(mux, "GET /api/calendar", s.handleListEvents)
	s.handle(mux, "POST /api/calendar", s.handleCreateEvent)

	s.handle(mux, "GET /api/board", s.handleBoard)
	s.handle(mux, "POST /api/board/notes", s.handleCreateNote)
	s.handle(mux, "POST /api/board/polls", s.handleCreatePoll)
	s.handle(mux, "POST /api/board/polls/{id}/votes", s.handleVote)
	s.handle(mux, "POST /api/board/items/{kind}/{id}/front", s.handleBringToFront)
	s.handle(mux, "POST /api/board/drag", s.handleBeginDrag)
	s.handle(mux, "POST /api/board/drag/move", s.handleDragMove)
	s.handle(mux, "POST /api/board/drag/end", s.handleDragEnd)
	s.handle(mux, "POST /api/board/drag/abort", s.handleDragAbort)
	s.handle(mux, "POST /api/board/drafts/announcement", s.handleDraftAnnouncement)
	s.handle(mux, "POST /api/board/drafts/poll", s.handleRewritePoll)
}

// householdHandler serves one request against the caller's household.
type householdHandler func(w http.ResponseWriter, r *http.Request, h *session.Household)

// handle registers an API route: the body is size-limited, the household is
// resolved from the session cookie and the request is counted under its
// route pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn householdHandler) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &trace.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		r.Body = http.MaxBytesReader(rw, r.Body, maxBodyBytes)

		h := s.household(rw, r)
		ctx := applog.IntoContext(r.Context(), applog.FromContext(r.Context()).With(applog.FieldHousehold, h.ID))
		fn(rw, r.WithContext(ctx), h)

		s.metrics.HTTPRequest(r.Method, pattern, rw.Status, time.Since(start))
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
