package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
	}

	// Operational endpoints
	r.Get("/healthz", h.handleHealthz)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	// Auth (public)
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)

	// Archery queries (public)
	r.Get("/api/archery/athletes", h.handleSearchAthletes)
	r.Get("/api/archery/athlete/{tessera}/results", h.handleAthleteResults)
	r.Get("/api/archery/athlete/{tessera}/statistics", h.handleAthleteStatistics)
	r.Get("/api/archery/athlete/{tessera}/rankings", h.handleAthleteRankings)
	r.Get("/api/archery/stats", h.handleChartStatistics)
	r.Get("/api/archery/event-types", h.handleEventTypes)
	r.Get("/api/archery/categories", h.handleCategories)
	r.Get("/api/archery/ranking-positions", h.handleListRankingPositions)

	// Competition calendar (public)
	r.Get("/api/competitions", h.handleCompetitions)
	r.Get("/api/competitions/{codice}/turns", h.handleTurns)
	r.Get("/api/competitions/invitations", h.handleInvitations)
	r.Get("/api/competitions/{codice}/invite-qr", h.handleInviteQR)

	// Member API (session required)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireUser)

		r.Get("/api/user/me", h.handleMe)
		r.Patch("/api/user/me", h.handleUpdateMe)
		r.Get("/api/user/athletes", h.handleMyAthletes)
		r.Patch("/api/user/athletes/{id}", h.handleUpdateMyAthlete)

		r.Get("/api/user/subscriptions", h.handleMySubscriptions)
		r.Post("/api/competitions/subscribe", h.handleSubscribe)
		r.Patch("/api/subscriptions/{id}", h.handleUpdateSubscription)
		r.Delete("/api/subscriptions/{id}", h.handleCancelSubscription)

		r.Get("/api/interests", h.handleInterests)
		r.Post("/api/interests", h.handleExpressInterest)
		r.Delete("/api/interests/{id}", h.handleRemoveInterest)
	})

	// Club inventory API (club-member session required)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireClubMember)

		r.Get("/api/materials", h.handleListMaterials)
		r.Post("/api/materials", h.handleCreateMaterial)
		r.Patch("/api/materials/{id}", h.handleUpdateMaterial)
		r.Post("/api/materials/{id}/consume", h.handleConsumeMaterial)
		r.Delete("/api/materials/{id}", h.handleDeleteMaterial)

		r.Route("/api/electronics", func(r chi.Router) {
			r.Get("/components", h.handleElecComponents)
			r.Get("/components/search", h.handleElecComponentSearch)
			r.Post("/components", h.handleElecCreateComponent)
			r.Patch("/components/{id}", h.handleElecUpdateComponent)
			r.Delete("/components/{id}", h.handleElecDeleteComponent)

			r.Get("/boards", h.handleElecBoards)
			r.Post("/boards", h.handleElecCreateBoard)
			r.Patch("/boards/{id}", h.handleElecUpdateBoard)
			r.Delete("/boards/{id}", h.handleElecDeleteBoard)
			r.Get("/boards/{id}/bom", h.handleElecBoardBOM)
			r.Get("/boards/{id}/stock-check", h.handleElecStockCheck)
			r.Post("/boards/{id}/reserve", h.handleElecReserveStock)

			r.Get("/jobs", h.handleElecJobs)
			r.Post("/jobs", h.handleElecCreateJob)
			r.Patch("/jobs/{id}", h.handleElecUpdateJob)
			r.Delete("/jobs/{id}", h.handleElecDeleteJob)

			r.Get("/files", h.handleElecFiles)
			r.Delete("/files/{id}", h.handleElecDeleteFile)
		})
	})

	// Admin API (admin session required)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)

		r.Get("/ws", h.Hub.ServeWs)

		r.Get("/api/admin/users", h.handleListUsers)
		r.Patch("/api/admin/users/{id}", h.handleUpdateUser)
		r.Delete("/api/admin/users/{id}", h.handleDeleteUser)

		r.Get("/api/admin/athletes", h.handleListAssignments)
		r.Post("/api/admin/athletes", h.handleAddAssignment)
		r.Delete("/api/admin/athletes/{id}", h.handleRemoveAssignment)

		r.Get("/api/admin/subscriptions", h.handleAllSubscriptions)

		r.Get("/api/admin/ranking-positions/download", h.handleDownloadRankingPositions)
		r.Post("/api/admin/ranking-positions/upload", h.handleUploadRankingPositions)
		r.Post("/api/admin/ranking-positions/reload", h.handleReloadRankingPositions)

		r.Get("/api/admin/settings/{key}", h.handleGetSetting)
		r.Put("/api/admin/settings/{key}", h.handleSetSetting)
	})

	return r
}

// handleHealthz reports process and database liveness.
func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
		return
	}
	respondOK(w, map[string]string{"status": "ok"})
}
