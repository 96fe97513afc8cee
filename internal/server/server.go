package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fileshare/internal/audit"
	"fileshare/internal/auth"
	"fileshare/internal/fileops"
	"fileshare/internal/logger"
	"fileshare/internal/policy"
)

type Config struct {
	Addr string // e.g. ":5000"

	// SecureCookies marks the session cookie Secure; set when serving TLS.
	SecureCookies bool

	// MaxUploadBytes caps a multipart request body; 0 means no cap.
	MaxUploadBytes int64
}

// Deps are the components the request adapter delegates to.
type Deps struct {
	Credentials *auth.Credentials
	Sessions    *auth.SessionStore
	Policy      *policy.Policy
	Gateway     *fileops.Gateway
	Audit       audit.Store
	Logger      *logger.Logger
	Metrics     *Metrics
}

type Server struct {
	cfg        Config
	creds      *auth.Credentials
	sessions   *auth.SessionStore
	policy     *policy.Policy
	gateway    *fileops.Gateway
	audit      audit.Store
	log        *logger.Logger
	metrics    *Metrics
	httpServer *http.Server
}

func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		creds:    deps.Credentials,
		sessions: deps.Sessions,
		policy:   deps.Policy,
		gateway:  deps.Gateway,
		audit:    deps.Audit,
		log:      deps.Logger,
		metrics:  deps.Metrics,
	}
	if s.audit == nil {
		s.audit = audit.NewMemoryStore(audit.DefaultCapacity)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// routes is the full route table of both surfaces.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// requestID -> logging -> security headers -> recoverer -> handler
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	// session surface
	r.Get("/login", s.handleLogin)
	r.Post("/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/", s.handleIndex)
		r.Get("/logout", s.handleLogout)
		r.Post("/upload", s.handleWebUpload)
		r.Post("/fetch", s.handleWebFetch)
		r.Get("/files/{name}", s.handleWebDownload)
		r.Post("/delete/{name}", s.handleWebDelete)
	})

	// key surface
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(s.handleNotFound)
		r.MethodNotAllowed(s.handleMethodNotAllowed)

		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Post("/upload", s.handleAPIUpload)
			r.Get("/files", s.handleAPIList)
			r.Get("/files/{name}", s.handleAPIDownload)
			r.Post("/delete/{name}", s.handleAPIDelete)
			r.Post("/fetch", s.handleAPIFetch)
			r.Get("/audit", s.handleAPIAudit)
			r.Get("/metrics", s.handleMetrics)
		})
	})

	return r
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) StartTLS(certFile, keyFile string) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.ServeTLS(ln, certFile, keyFile)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// record writes an audit entry. Failures are logged and swallowed.
func (s *Server) record(r *http.Request, action audit.Action, surface audit.Surface, resource string, err error) {
	e := audit.Entry{
		Action:    action,
		Surface:   surface,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Resource:  resource,
		Success:   err == nil,
	}
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	if recErr := s.audit.Record(r.Context(), e); recErr != nil {
		s.requestLogger(r).Error("audit record failed", recErr)
	}
}
