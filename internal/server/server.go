// Package server exposes the eligibility engine as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/scoring"
)

const shutdownTimeout = 10 * time.Second

// Config holds listener settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// APIKey enables bearer authentication on /api/v1 when set.
	APIKey string
}

// Deps are the engine components served over HTTP.
type Deps struct {
	Evaluator *eligibility.Evaluator
	Catalog   eligibility.Source
	// Tables are point tables keyed by system name, e.g. "crs".
	Tables   map[string]*scoring.Table
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	cfg  Config
	deps Deps
	app  *fiber.App
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{cfg: cfg, deps: deps}
	s.app = fiber.New(fiber.Config{
		AppName:               "pr-pathways",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(requestID())
	s.app.Use(requestLogger(deps.Logger))

	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.app.Group("/api/v1")
	if cfg.APIKey != "" {
		api.Use(bearerAuth(cfg.APIKey))
	}
	api.Get("/programs", s.listPrograms)
	api.Post("/evaluate", s.evaluate)
	api.Post("/language/convert", s.convertLanguage)
	api.Post("/score", s.score)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("listening", zap.String("address", s.cfg.Address))
		errCh <- s.app.Listen(s.cfg.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
