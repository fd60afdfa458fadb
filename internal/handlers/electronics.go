package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheIgorMC/mysite/pkg/orion"
)

// The electronics inventory schema is owned by the upstream service and
// changes independently of this site, so every payload passes through as
// raw JSON instead of being modeled here.

func (h *Handlers) handleElecComponents(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orion.ElecComponents(r.Context(), orion.ElecFilter{
		Query:       r.URL.Query().Get("q"),
		ProductType: r.URL.Query().Get("product_type"),
		Package:     r.URL.Query().Get("package"),
		Limit:       queryInt(r, "limit", 100),
		Offset:      queryInt(r, "offset", 0),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleElecComponentSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, BadRequest("Missing q parameter"))
		return
	}
	items, err := h.Orion.ElecComponentSearch(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

// decodeRawBody reads the request body as an arbitrary JSON document.
func decodeRawBody(r *http.Request) (json.RawMessage, error) {
	var body json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (h *Handlers) handleElecCreateComponent(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := h.Orion.ElecCreateComponent(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusCreated, created)
}

func (h *Handlers) handleElecUpdateComponent(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := h.Orion.ElecUpdateComponent(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, updated)
}

func (h *Handlers) handleElecDeleteComponent(w http.ResponseWriter, r *http.Request) {
	if err := h.Orion.ElecDeleteComponent(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleElecBoards(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orion.ElecBoards(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleElecCreateBoard(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := h.Orion.ElecCreateBoard(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusCreated, created)
}

func (h *Handlers) handleElecUpdateBoard(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := h.Orion.ElecUpdateBoard(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, updated)
}

func (h *Handlers) handleElecDeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.Orion.ElecDeleteBoard(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleElecBoardBOM(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orion.ElecBoardBOM(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleElecStockCheck(w http.ResponseWriter, r *http.Request) {
	quantity := queryInt(r, "quantity", 1)
	if quantity < 1 {
		respondError(w, BadRequest("quantity must be positive"))
		return
	}
	result, err := h.Orion.ElecStockCheck(r.Context(), chi.URLParam(r, "id"), quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, result)
}

func (h *Handlers) handleElecReserveStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Quantity < 1 {
		respondError(w, BadRequest("quantity must be positive"))
		return
	}
	result, err := h.Orion.ElecReserveStock(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, result)
}

func (h *Handlers) handleElecJobs(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orion.ElecJobs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleElecCreateJob(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := h.Orion.ElecCreateJob(r.Context(), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusCreated, created)
}

func (h *Handlers) handleElecUpdateJob(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRawBody(r)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := h.Orion.ElecUpdateJob(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, updated)
}

func (h *Handlers) handleElecDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.Orion.ElecDeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleElecFiles(w http.ResponseWriter, r *http.Request) {
	boardID := r.URL.Query().Get("board_id")
	if boardID == "" {
		respondError(w, BadRequest("Missing board_id parameter"))
		return
	}
	items, err := h.Orion.ElecFiles(r.Context(), boardID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleElecDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.Orion.ElecDeleteFile(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
