// Package app assembles the application: repository, Orion gateway,
// reference data, services and the HTTP surface.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/config"
	"github.com/TheIgorMC/mysite/internal/handlers"
	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/internal/metrics"
	"github.com/TheIgorMC/mysite/internal/refdata"
	"github.com/TheIgorMC/mysite/internal/repository"
	"github.com/TheIgorMC/mysite/internal/services"
	"github.com/TheIgorMC/mysite/internal/websocket"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	handlers *handlers.Handlers
	repo     *repository.Repository
	server   *http.Server
}

// New creates and initializes a new application instance.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	orionClient := orion.NewHTTPClient(
		cfg.API.BaseURL,
		cfg.API.ClientID,
		cfg.API.ClientSecret,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second,
		log,
	)
	orionClient.SetObserver(m)

	// Reference tables load eagerly so a bad file shows up in the startup
	// log instead of on the first request.
	types := refdata.NewCompetitionTypes(cfg.Data.CompetitionTypesPath, log)
	types.Load()
	rankings := refdata.NewRankingPositions(cfg.Data.RankingPositionsPath, log)
	m.SetRankingEntries(rankings.Count())

	sessionAuth := auth.New()
	hub := websocket.New(log)
	hub.SetClientCountListener(m.SetDashboardClients)
	hub.Start()

	dispatcher := services.NewDispatcher(repo, orionClient, log)
	h := handlers.New(
		services.NewArcheryService(orionClient, types, rankings, log),
		services.NewCompetitionService(orionClient, dispatcher, log),
		orionClient,
		repo,
		rankings,
		sessionAuth,
		hub,
		m,
		log,
	)

	return &App{
		log:      log,
		cfg:      cfg,
		handlers: h,
		repo:     repo,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then drains in-flight requests before returning.
func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", a.cfg.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// Close releases app resources.
func (a *App) Close() {
	if a.repo != nil {
		a.repo.Close()
	}
}
