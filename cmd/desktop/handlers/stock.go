package handlers

import (
	"net/http"

	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
)

// StockHandler serves the stock endpoints.
type StockHandler struct {
	store    *store.Store
	recorder *syncpkg.Recorder
}

// NewStockHandler creates a StockHandler.
func NewStockHandler(st *store.Store, recorder *syncpkg.Recorder) *StockHandler {
	return &StockHandler{store: st, recorder: recorder}
}

// Get handles GET /api/stock.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stock())
}

// Update handles PUT /api/stock with absolute counter values.
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawChicken    *int64 `json:"rawChicken" validate:"omitempty,gte=0"`
		FriedPlanning *int64 `json:"friedPlanning" validate:"omitempty,gte=0"`
		CookedChicken *int64 `json:"cookedChicken" validate:"omitempty,gte=0"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := models.StockFields{
		RawChicken:    req.RawChicken,
		FriedPlanning: req.FriedPlanning,
		CookedChicken: req.CookedChicken,
	}
	stock, err := h.recorder.RecordStockSet(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// Fry handles POST /api/stock/fry: moves raw chickens into the frying
// stage.
func (h *StockHandler) Fry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int64 `json:"count" validate:"required,gt=0"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	stock, err := h.recorder.RecordTransferToFrying(r.Context(), req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// CompleteFrying handles POST /api/stock/complete-frying: moves the whole
// frying batch into cooked stock.
func (h *StockHandler) CompleteFrying(w http.ResponseWriter, r *http.Request) {
	stock, err := h.recorder.RecordCompleteFrying(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}
