package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	appweb "expenses/web"
)

// ExpenseService is what the handlers need from the service layer.
type ExpenseService interface {
	AddExpense(ctx context.Context, e core.Entry) (core.Record, error)
	DeleteLast(ctx context.Context) (core.Record, error)
	Dashboard(ctx context.Context, month core.Month) (core.Dashboard, error)
	Comparison(ctx context.Context) (core.Comparison, bool, error)
	Ping(ctx context.Context) error
}

// Settings carries presentation options.
type Settings struct {
	CurrencySymbol string

	// FirstYear is the earliest year offered by the month selector.
	FirstYear int

	// WriteRequestsPerMinute limits entry submissions per client; zero
	// disables the limit.
	WriteRequestsPerMinute int

	Now    func() time.Time
	Logger *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	svc       ExpenseService
	settings  Settings
	money     amountFormatter
	logger    *applog.Logger
	access    *applog.StructuredLogger
	startedAt time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc ExpenseService, settings Settings) *Server {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.CurrencySymbol == "" {
		settings.CurrencySymbol = "₹"
	}
	if settings.Logger == nil {
		settings.Logger = applog.New(applog.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:       svc,
		settings:  settings,
		money:     newAmountFormatter(settings.CurrencySymbol),
		logger:    settings.Logger.WithComponent(applog.ComponentHTTP),
		access:    applog.NewStructuredLogger(settings.Logger),
		startedAt: time.Now(),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(applog.ComponentTemplate).WarnContext(context.Background(), "Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	writes := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if settings.WriteRequestsPerMinute > 0 {
		limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: settings.WriteRequestsPerMinute})
		s.RegisterOnShutdown(limiter.Stop)
		writes = func(h http.HandlerFunc) http.HandlerFunc {
			return limiter.Wrap(h, extractClientIP, func(w http.ResponseWriter, _ *http.Request) {
				ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a moment.").Write(w)
			})
		}
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/expenses", s.withSecurityHeaders(writes(s.handleCreateExpense)))
	mux.HandleFunc("/expenses/last", s.withSecurityHeaders(writes(s.handleDeleteLast)))
	mux.HandleFunc("/summary.csv", s.withSecurityHeaders(s.handleSummaryCSV))
	mux.HandleFunc("/api/series", s.withSecurityHeaders(s.handleSeries))
	mux.HandleFunc("/api/comparison", s.withSecurityHeaders(s.handleComparison))

	return s
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": s.money.Format,
		"delta": s.money.FormatDelta,
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"lower": strings.ToLower,
	}
}

// withSecurityHeaders adds security headers, a request ID and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}

		reqLogger := s.logger.With(applog.FieldRequestID, requestID)
		r = r.WithContext(applog.WithLogger(r.Context(), reqLogger))

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w.Header())

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.access.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
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

func (s *Server) now() time.Time {
	return s.settings.Now()
}

// logError logs through the request logger when one is attached.
func (s *Server) logError(ctx context.Context, msg string, err error, args ...any) {
	applog.FromContext(ctx).ErrorContext(ctx, msg, append([]any{applog.FieldError, err}, args...)...)
}
