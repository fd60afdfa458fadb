package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TheIgorMC/mysite/internal/services"
)

// handleSearchAthletes searches the registry by name or tessera.
func (h *Handlers) handleSearchAthletes(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, BadRequest("Missing q parameter"))
		return
	}
	athletes, err := h.Archery.Search(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, athletes)
}

func resultsQuery(r *http.Request) services.ResultsQuery {
	return services.ResultsQuery{
		EventType: r.URL.Query().Get("event_type"),
		Category:  r.URL.Query().Get("category"),
		Limit:     queryInt(r, "limit", 0),
	}
}

// handleAthleteResults returns the normalized competition results of one
// athlete.
func (h *Handlers) handleAthleteResults(w http.ResponseWriter, r *http.Request) {
	tessera := chi.URLParam(r, "tessera")
	results, err := h.Archery.Results(r.Context(), tessera, resultsQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, results)
}

// handleAthleteStatistics returns the locally computed summary block.
func (h *Handlers) handleAthleteStatistics(w http.ResponseWriter, r *http.Request) {
	tessera := chi.URLParam(r, "tessera")
	summary, err := h.Archery.Statistics(r.Context(), tessera, resultsQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summary)
}

// handleChartStatistics proxies the upstream chart-format blob.
func (h *Handlers) handleChartStatistics(w http.ResponseWriter, r *http.Request) {
	tessera := r.URL.Query().Get("athletes")
	if tessera == "" {
		respondError(w, BadRequest("Missing athletes parameter"))
		return
	}
	blob, err := h.Archery.ChartStatistics(r.Context(), tessera)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, blob)
}

// handleAthleteRankings returns the enriched ranking standings.
func (h *Handlers) handleAthleteRankings(w http.ResponseWriter, r *http.Request) {
	tessera := chi.URLParam(r, "tessera")
	rankings, err := h.Archery.Rankings(r.Context(), tessera)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rankings)
}

// handleEventTypes lists the competition type names known upstream.
func (h *Handlers) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Archery.EventTypes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, types)
}

// handleCategories lists the local categories, or the types within one
// category when ?category= is given.
func (h *Handlers) handleCategories(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		respondOK(w, h.Archery.TypesInCategory(category))
		return
	}
	respondOK(w, h.Archery.Categories())
}

// handleListRankingPositions lists the configured ranking position
// limits, publicly readable.
func (h *Handlers) handleListRankingPositions(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Rankings.All())
}
