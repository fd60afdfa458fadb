package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/models"
)

// maxUploadBytes caps ranking-positions uploads. The real file is a few
// kilobytes.
const maxUploadBytes = 1 << 20

// handleListUsers lists every account.
func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repo.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, users)
}

// handleUpdateUser changes the role flags of an account.
func (h *Handlers) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Repo.UpdateUserFlags(r.Context(), id, req.IsAdmin, req.IsClubMember); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "User updated")
}

// handleDeleteUser removes an account and its athlete assignments.
func (h *Handlers) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Repo.DeleteUser(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleListAssignments lists every user-to-athlete assignment.
func (h *Handlers) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Repo.ListAuthorizedAthletes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, assignments)
}

// handleAddAssignment links an athlete to a user account.
func (h *Handlers) handleAddAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignAthleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.UserID == 0 || req.Tessera == "" {
		respondError(w, BadRequest("user_id and tessera are required"))
		return
	}

	id, err := h.Repo.AddAuthorizedAthlete(r.Context(), models.AuthorizedAthlete{
		UserID:    req.UserID,
		Tessera:   req.Tessera,
		Nome:      req.Nome,
		Cognome:   req.Cognome,
		Categoria: req.Categoria,
		Classe:    req.Classe,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, map[string]interface{}{"id": id})
}

// handleRemoveAssignment unlinks an athlete from a user account.
func (h *Handlers) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Repo.RemoveAuthorizedAthlete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleAllSubscriptions exports every registration.
func (h *Handlers) handleAllSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Competitions.AllSubscriptions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, subs)
}

// handleDownloadRankingPositions serves the live ranking positions file.
func (h *Handlers) handleDownloadRankingPositions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="ranking_positions.csv"`)
	http.ServeFile(w, r, h.Rankings.Path())
}

// handleUploadRankingPositions replaces the ranking positions file.
// Accepts a multipart form with a "file" field, validates the extension,
// persists and reloads, then reports the new entry count.
func (h *Handlers) handleUploadRankingPositions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, BadRequest("Invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, BadRequest("Missing file field"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, err)
		return
	}

	count, err := h.Rankings.SaveUpload(header.Filename, content)
	if err != nil {
		respondError(w, err)
		return
	}

	h.Log.Info("ranking positions replaced", "filename", header.Filename, "entries", count)
	if h.Metrics != nil {
		h.Metrics.SetRankingEntries(count)
	}
	h.Hub.BroadcastRankingReload(count)
	respondOK(w, map[string]interface{}{"entries": count})
}

// handleReloadRankingPositions re-reads the file without replacing it.
func (h *Handlers) handleReloadRankingPositions(w http.ResponseWriter, r *http.Request) {
	count := h.Rankings.Reload()
	if h.Metrics != nil {
		h.Metrics.SetRankingEntries(count)
	}
	h.Hub.BroadcastRankingReload(count)
	respondOK(w, map[string]interface{}{"entries": count})
}

// handleUpdateMyAthlete changes the stored division/class defaults of an
// assignment owned by the session user.
func (h *Handlers) handleUpdateMyAthlete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req athletePrefsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Repo.UpdateAthleteDetails(r.Context(), id, req.Categoria, req.Classe); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Athlete updated")
}

// handleMyAthletes lists the athletes the session user manages.
func (h *Handlers) handleMyAthletes(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	athletes, err := h.Repo.ListAthletesForUser(r.Context(), session.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, athletes)
}

// handleGetSetting returns one site setting.
func (h *Handlers) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.Repo.GetSetting(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]string{"key": key, "value": value})
}

// handleSetSetting stores one site setting.
func (h *Handlers) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Repo.SetSetting(r.Context(), key, req.Value); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Setting saved")
}
