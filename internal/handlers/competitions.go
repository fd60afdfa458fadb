package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/services"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

// handleCompetitions lists the competition calendar.
func (h *Handlers) handleCompetitions(w http.ResponseWriter, r *http.Request) {
	gare, err := h.Competitions.Competitions(r.Context(), queryBool(r, "future"), queryInt(r, "limit", 100))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, gare)
}

// handleTurns lists the shooting shifts of one competition.
func (h *Handlers) handleTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.Competitions.Turns(r.Context(), chi.URLParam(r, "codice"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, turns)
}

// handleInvitations lists published invitations.
func (h *Handlers) handleInvitations(w http.ResponseWriter, r *http.Request) {
	inviti, err := h.Competitions.Invitations(r.Context(), orion.InvitiOptions{
		Codice:    r.URL.Query().Get("codice"),
		OnlyOpen:  queryBool(r, "only_open"),
		OnlyYouth: queryBool(r, "only_youth"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, inviti)
}

// handleInviteQR renders a QR code pointing at a competition's published
// invitation, for club noticeboards and printed flyers.
func (h *Handlers) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	codice := chi.URLParam(r, "codice")
	inviti, err := h.Competitions.Invitations(r.Context(), orion.InvitiOptions{Codice: codice})
	if err != nil {
		respondError(w, err)
		return
	}
	if len(inviti) == 0 || inviti[0].URL == "" {
		respondError(w, NotFound("No published invitation for this competition"))
		return
	}

	size := queryInt(r, "size", 256)
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(inviti[0].URL, qrcode.Medium, size)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleMySubscriptions lists the registrations of every athlete the
// logged-in user manages.
func (h *Handlers) handleMySubscriptions(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	athletes, err := h.Repo.ListAthletesForUser(r.Context(), session.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	subscriptions := make([]orion.Iscrizione, 0)
	for _, athlete := range athletes {
		subs, err := h.Competitions.Subscriptions(r.Context(), athlete.Tessera)
		if err != nil {
			respondError(w, err)
			return
		}
		subscriptions = append(subscriptions, subs...)
	}
	respondOK(w, subscriptions)
}

// requireAthleteOwnership verifies the session user manages the athlete.
// Admins bypass the check.
func (h *Handlers) requireAthleteOwnership(r *http.Request, tessera string) error {
	session, _ := auth.FromContext(r.Context())
	if session.IsAdmin {
		return nil
	}
	manages, err := h.Repo.UserManagesAthlete(r.Context(), session.UserID, tessera)
	if err != nil {
		return err
	}
	if !manages {
		return Forbidden(fmt.Sprintf("You are not authorized to manage athlete %s", tessera))
	}
	return nil
}

// handleSubscribe registers athletes for a competition turn and fans out
// notifications.
func (h *Handlers) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CodiceGara == "" || req.Turno == "" || len(req.Athletes) == 0 {
		respondError(w, BadRequest("codice_gara, turno and at least one athlete are required"))
		return
	}

	athletes := make([]services.SubscriptionAthlete, 0, len(req.Athletes))
	for _, a := range req.Athletes {
		if err := h.requireAthleteOwnership(r, a.Tessera); err != nil {
			respondError(w, err)
			return
		}
		athletes = append(athletes, services.SubscriptionAthlete(a))
	}

	created, report, err := h.Competitions.Subscribe(r.Context(), services.SubscriptionRequest{
		CodiceGara: req.CodiceGara,
		NomeGara:   req.NomeGara,
		Turno:      req.Turno,
		Note:       req.Note,
		Athletes:   athletes,
	})
	if h.Metrics != nil {
		h.Metrics.CountNotifications(report.Sent, report.Failed)
	}
	for _, sub := range created {
		h.Hub.BroadcastSubscription(req.CodiceGara, req.NomeGara, sub.TesseraAtleta.String())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, map[string]interface{}{"subscriptions": created, "notifications": report})
}

// handleUpdateSubscription patches a registration.
func (h *Handlers) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var patch map[string]interface{}
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	if tessera, ok := patch["tessera_atleta"].(string); ok {
		if err := h.requireAthleteOwnership(r, tessera); err != nil {
			respondError(w, err)
			return
		}
	}

	updated, err := h.Competitions.UpdateSubscription(r.Context(), id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, updated)
}

// handleCancelSubscription removes a registration and notifies.
func (h *Handlers) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.requireAthleteOwnership(r, req.Tessera); err != nil {
		respondError(w, err)
		return
	}

	report, err := h.Competitions.CancelSubscription(r.Context(), id, req.Tessera, req.NomeGara, req.CodiceGara)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CountNotifications(report.Sent, report.Failed)
	}
	h.Hub.BroadcastCancellation(req.CodiceGara, req.Tessera)
	respondOK(w, map[string]interface{}{"notifications": report})
}

// handleInterests lists interest expressions.
func (h *Handlers) handleInterests(w http.ResponseWriter, r *http.Request) {
	interests, err := h.Competitions.Interests(r.Context(),
		r.URL.Query().Get("tessera"),
		r.URL.Query().Get("codice_gara"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, interests)
}

// handleExpressInterest records a non-binding interest and notifies.
func (h *Handlers) handleExpressInterest(w http.ResponseWriter, r *http.Request) {
	var req interestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CodiceGara == "" || req.Tessera == "" {
		respondError(w, BadRequest("codice_gara and tessera are required"))
		return
	}
	if err := h.requireAthleteOwnership(r, req.Tessera); err != nil {
		respondError(w, err)
		return
	}

	created, report, err := h.Competitions.ExpressInterest(r.Context(), orion.Interesse{
		CodiceGara:    orion.FlexString(req.CodiceGara),
		TesseraAtleta: orion.FlexString(req.Tessera),
		Categoria:     req.Categoria,
		Classe:        req.Classe,
		Note:          req.Note,
	}, req.NomeGara)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CountNotifications(report.Sent, report.Failed)
	}
	respondCreated(w, map[string]interface{}{"interest": created, "notifications": report})
}

// handleRemoveInterest deletes an interest expression.
func (h *Handlers) handleRemoveInterest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Competitions.RemoveInterest(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
