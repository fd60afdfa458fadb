// Package handlers wires the HTTP surface: public archery queries,
// member subscription workflows, the electronics and materials proxy,
// and the admin dashboard API.
package handlers

import (
	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/internal/metrics"
	"github.com/TheIgorMC/mysite/internal/refdata"
	"github.com/TheIgorMC/mysite/internal/repository"
	"github.com/TheIgorMC/mysite/internal/services"
	"github.com/TheIgorMC/mysite/internal/websocket"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Archery      *services.ArcheryService
	Competitions *services.CompetitionService
	Orion        orion.Client
	Repo         repository.Store
	Rankings     *refdata.RankingPositions
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Metrics      *metrics.Metrics
	Log          logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(
	archery *services.ArcheryService,
	competitions *services.CompetitionService,
	orionClient orion.Client,
	repo repository.Store,
	rankings *refdata.RankingPositions,
	sessionAuth *auth.Auth,
	hub *websocket.Hub,
	m *metrics.Metrics,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Archery:      archery,
		Competitions: competitions,
		Orion:        orionClient,
		Repo:         repo,
		Rankings:     rankings,
		Auth:         sessionAuth,
		Hub:          hub,
		Metrics:      m,
		Log:          log,
	}
}
