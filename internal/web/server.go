// Package web serves the intake form, the compiled panels and a JSON API over
// the compiler service.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"identity-compiler/internal/common/config"
	"identity-compiler/internal/common/logger"
	"identity-compiler/internal/compiler"
)

// Options wires a Server. Service and Logger are required.
type Options struct {
	Config           config.ServerConfig
	DefaultMode      compiler.Mode
	APIKeyConfigured bool
	Service          *compiler.Service
	Logger           logger.Logger
	// Ready reports dependency health for /ready. Nil means always ready.
	Ready   func(ctx context.Context) error
	Metrics http.Handler
}

type Server struct {
	cfg              config.ServerConfig
	defaultMode      compiler.Mode
	apiKeyConfigured bool
	service          *compiler.Service
	logger           logger.Logger
	ready            func(ctx context.Context) error
	metrics          http.Handler
	templates        *template.Template
	httpServer       *http.Server
}

func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("web: compiler service is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("web: logger is required")
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:              opts.Config,
		defaultMode:      opts.DefaultMode,
		apiKeyConfigured: opts.APIKeyConfigured,
		service:          opts.Service,
		logger:           logger.ForComponent(opts.Logger, "web"),
		ready:            opts.Ready,
		metrics:          opts.Metrics,
		templates:        tmpl,
	}
	if s.defaultMode == "" {
		s.defaultMode = compiler.ModePaste
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = 1 << 20
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  config.GetDuration(s.cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.WriteTimeout),
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router builds the chi router for all endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)

		r.Get("/", s.handleIndex)
		r.Post("/compile", s.handleCompile)
		r.Get("/prompt", s.handlePrompt)
		r.Post("/prompt", s.handlePrompt)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/compile", s.handleAPICompile)
			r.Get("/schema", s.handleAPISchema)
		})
	})

	return r
}

// Start serves in a goroutine until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.cfg.Address})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", map[string]interface{}{"error": err})
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server", nil)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request served", map[string]interface{}{
			"requestId":  middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
