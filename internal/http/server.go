package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	"expenses/internal/sheets"
	appweb "expenses/web"
)

const (
	entriesKey     = "entries"
	loadTimeout    = 10 * time.Second
	defaultTTL     = 5 * time.Minute
	maxUploads     = 32
	defaultMaxBody = 10 << 20
)

// Options wires the dashboard to its data. Entries is required; Importer and
// SettleUp are optional.
type Options struct {
	Addr    string
	Entries sheets.EntryReader
	// Importer stores uploaded entries; uploads are view-only when nil.
	Importer *services.ImportService
	// SettleUp reshapes uploaded Settle Up exports for User.
	SettleUp *services.SettleUpService
	User     string

	RentCategory  string
	CurrentRent   decimal.Decimal
	SavingsTarget decimal.Decimal

	CacheTTL       time.Duration
	MaxUploadBytes int64
	UploadRate     int

	// Ready, when set, is checked by /readyz.
	Ready  func(context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	opts      Options
	logger    *log.Logger
	templates *template.Template

	entries *cache.Loader[[]core.Entry]
	uploads *cache.LRUCache[*uploadTable]
	caches  *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and configures routes, returning
// a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Entries == nil {
		return nil, fmt.Errorf("entries reader is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.FromContext(context.Background())
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxBody
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	entryCache := cache.NewLRUCache[[]core.Entry](1, opts.CacheTTL)
	uploads := cache.NewLRUCache[*uploadTable](maxUploads, time.Hour)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache))
	caches.Register(entryCache)
	caches.Register(uploads)
	caches.StartCleanup(10 * time.Minute)

	s := &Server{
		opts:      opts,
		logger:    logger,
		templates: t,
		entries:   cache.NewLoader[[]core.Entry](entryCache),
		uploads:   uploads,
		caches:    caches,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.UploadRate}),
		detector:  security.NewDetector(),
		started:   time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /table", s.handleTable)
	mux.HandleFunc("POST /table/upload", s.handleUpload)
	mux.HandleFunc("GET /predict", s.handlePredict)
	mux.HandleFunc("GET /charts/{name}", s.handleChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// loadEntries returns every entry of the backend, cached for CacheTTL.
func (s *Server) loadEntries(ctx context.Context) ([]core.Entry, error) {
	return s.entries.Load(ctx, entriesKey, func(ctx context.Context) ([]core.Entry, error) {
		cctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()
		entries, err := s.opts.Entries.ListEntries(cctx)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		log.FromContext(ctx).DebugContext(ctx, "Entries loaded", log.FieldRows, len(entries))
		return entries, nil
	})
}

func (s *Server) invalidateEntries() {
	s.entries.Invalidate(entriesKey)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many uploads. Please try again later.").
		Header("Retry-After", "60").
		Write(w)
}

// render executes a page, or only its partial for htmx requests.
func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, page, partial string, data any) {
	name := page
	if partial != "" && isHTMX(r) {
		name = partial
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name)
	}
}
