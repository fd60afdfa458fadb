package handlers

import (
	"net/http"
	"strconv"

	"github.com/TheIgorMC/mysite/pkg/orion"
)

// handleListMaterials lists stringmaking stock.
func (h *Handlers) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	filter := orion.MaterialFilter{
		Query:  r.URL.Query().Get("q"),
		Tipo:   r.URL.Query().Get("tipo"),
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}
	if low := r.URL.Query().Get("low_stock_lt"); low != "" {
		threshold, err := strconv.ParseFloat(low, 64)
		if err != nil {
			respondError(w, BadRequest("Invalid low_stock_lt parameter"))
			return
		}
		filter.LowStockLT = &threshold
	}

	materials, err := h.Orion.Materials(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, materials)
}

// handleCreateMaterial adds a stock entry.
func (h *Handlers) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var m orion.Material
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, err)
		return
	}
	if m.Materiale == "" {
		respondError(w, BadRequest("materiale is required"))
		return
	}
	created, err := h.Orion.CreateMaterial(r.Context(), m)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, created)
}

// handleUpdateMaterial patches a stock entry.
func (h *Handlers) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
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
	updated, err := h.Orion.UpdateMaterial(r.Context(), id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, updated)
}

// handleConsumeMaterial decrements stock. An upstream 409 (insufficient
// stock) propagates as-is.
func (h *Handlers) handleConsumeMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req struct {
		Quantita float64 `json:"quantita"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Quantita <= 0 {
		respondError(w, BadRequest("quantita must be positive"))
		return
	}
	updated, err := h.Orion.ConsumeMaterial(r.Context(), id, req.Quantita)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, updated)
}

// handleDeleteMaterial removes a stock entry.
func (h *Handlers) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Orion.DeleteMaterial(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
