// Package server exposes the career analysis engines over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/dedupe"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/store"
	"github.com/scottgpt/career-cli/internal/temporal"
)

// PositionLister supplies the stored positions the GET endpoints analyze.
type PositionLister interface {
	ListPositions(ctx context.Context, filter store.PositionFilter) ([]model.Position, error)
}

// Deps wires the server to its engines and persistence.
type Deps struct {
	Positions PositionLister
	Grouper   *company.Engine
	Detector  *dedupe.Detector
	Merges    *mergeops.Service
	Temporal  *temporal.Analyzer
}

// Server handles the HTTP API.
type Server struct {
	cfg  config.ServerConfig
	deps Deps
}

// New creates a Server.
func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Temporal == nil {
		deps.Temporal = temporal.NewAnalyzer()
	}
	return &Server{cfg: cfg, deps: deps}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
	}
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/companies", s.listCompanies)
		r.Post("/companies/group", s.groupCompanies)

		r.Get("/duplicates", s.listDuplicates)
		r.Post("/duplicates/detect", s.detectDuplicates)

		r.Post("/merge/preview", s.previewMerge)
		r.Post("/merge", s.merge)
		r.Get("/merge/{mergeID}/status", s.mergeStatus)
		r.Delete("/merge/{mergeID}", s.forgetMerge)

		r.Get("/report", s.report)
	})

	return r
}
