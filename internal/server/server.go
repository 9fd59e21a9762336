// Package server exposes audits over HTTP.
//
// Routes:
//
//	GET  /healthz                      liveness and build information
//	POST /graphs                       upload a graph document (JSON or TOML)
//	GET  /graphs/{hash}                document summary
//	GET  /graphs/{hash}/render         node-link diagram (dot, svg, pdf, png)
//	POST /audit                        audit events of an uploaded or inline graph
//	GET  /reports                      report summaries, optionally ?event=
//	GET  /reports/{id}                 full report
//	GET  /reports/{id}/contigs.bed     contig path intervals
//	GET  /reports/{id}/scaffolds.bed   scaffold intervals
//
// Uploaded documents are kept in the runner's cache under their content
// hash, so an audit request can name a graph instead of resending it.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/hapaudit/internal/config"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/report"
	"github.com/matzehuels/hapaudit/pkg/store"
)

// graphCacheSize bounds the number of built graphs kept in memory.
const graphCacheSize = 16

// Server serves the audit API.
type Server struct {
	runner   *report.Runner
	store    report.Store
	defaults *config.Config
	logger   *log.Logger
	graphs   *lru.Cache[string, *flower.Graph]
}

// New creates a server. When the runner has no store, reports are kept in
// memory for the life of the process.
func New(runner *report.Runner, cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = runner.Logger
	}
	if runner.Store == nil {
		runner.Store = store.NewMemoryStore()
	}
	graphs, err := lru.New[string, *flower.Graph](graphCacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create graph cache")
	}
	return &Server{
		runner:   runner,
		store:    runner.Store,
		defaults: cfg,
		logger:   logger,
		graphs:   graphs,
	}, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/graphs", func(r chi.Router) {
		r.Post("/", s.handleUploadGraph)
		r.Get("/{hash}", s.handleGetGraph)
		r.Get("/{hash}/render", s.handleRenderGraph)
	})
	r.Post("/audit", s.handleAudit)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleListReports)
		r.Get("/{id}", s.handleGetReport)
		r.Get("/{id}/contigs.bed", s.handleReportBED(contigIntervals))
		r.Get("/{id}/scaffolds.bed", s.handleReportBED(scaffoldIntervals))
	})
	return r
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.defaults.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.defaults.Server.ReadTimeout,
		WriteTimeout: s.defaults.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve %s", srv.Addr)
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}
