package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"registros/internal/identity"
	applog "registros/internal/log"
	"registros/internal/middleware/ratelimit"
	"registros/internal/middleware/security"
	"registros/internal/middleware/trace"
	"registros/internal/records"
	"registros/internal/session"
	appweb "registros/web"
)

// Server serves the bookkeeping UI for one record store.
type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Manager
	issuer    *identity.Issuer
	pinger    records.Pinger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	logger    *applog.Logger
	now       func() time.Time
	loc       *time.Location
	keepAlive time.Duration
	started   time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock used for form defaults and new records.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLocation sets the time zone of dates shown and exported.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithPinger makes /readyz check the record store.
func WithPinger(p records.Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithRateLimit limits writes per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
	}
}

// WithKeepAlive sets the interval of comment frames on event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) { s.keepAlive = d }
}

// NewServer parses the embedded templates and configures routes.
func NewServer(addr string, sessions *session.Manager, issuer *identity.Issuer, opts ...Option) (*Server, error) {
	s := &Server{
		sessions:  sessions,
		issuer:    issuer,
		now:       time.Now,
		loc:       time.Local,
		keepAlive: 25 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.OrDefault().WithComponent(applog.ComponentHTTP)
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.started = s.now()

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = t

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /form", s.handleForm)
	app.HandleFunc("GET /records", s.handleList)
	app.HandleFunc("POST /records", s.handleCreate)
	app.HandleFunc("GET /records/stream", s.handleStream)
	app.HandleFunc("POST /records/{id}/delete", s.handleDelete)
	app.HandleFunc("DELETE /records/{id}", s.handleDelete)
	app.HandleFunc("GET /records/{id}/receipt", s.handleReceipt)
	app.HandleFunc("GET /export.csv", s.handleExport)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		root.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}
	root.Handle("/", issuer.Middleware(app))

	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost, http.MethodDelete)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.detector.Middleware(s.tracer.Middleware(security.Headers(security.DefaultHeadersConfig())(limit(root)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No write timeout: event streams stay open for the life of the page.
		IdleTimeout: 60 * time.Second,
	}
	return s, nil
}

// RunLimiterCleanup drops idle rate limit clients until ctx is done.
func (s *Server) RunLimiterCleanup(ctx context.Context) error {
	return s.limiter.Run(ctx, 5*time.Minute)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes. Intente de nuevo en un momento.").Write(w)
}
