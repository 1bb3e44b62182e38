package handlers

import (
	"net/http"
	"strings"

	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
)

// SalesHandler serves the sales endpoints.
type SalesHandler struct {
	store    *store.Store
	recorder *syncpkg.Recorder
}

// NewSalesHandler creates a SalesHandler.
func NewSalesHandler(st *store.Store, recorder *syncpkg.Recorder) *SalesHandler {
	return &SalesHandler{store: st, recorder: recorder}
}

// List handles GET /api/sales. ?today=true narrows to the current day.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("today") == "true" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sales":      h.store.SalesToday(),
			"total":      h.store.TotalSalesToday(),
			"items_sold": h.store.ItemsSoldToday(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sales": h.store.Sales(),
	})
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId" validate:"required"`
		Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sale, err := h.recorder.RecordSale(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// Update handles PATCH /api/sales/{id}.
func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/sales/")
	if id == "" {
		http.Error(w, "sale id is required", http.StatusBadRequest)
		return
	}

	var req struct {
		Price    *int64 `json:"price" validate:"omitempty,gte=0"`
		Quantity *int64 `json:"quantity" validate:"omitempty,gt=0"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := models.SaleFields{Price: req.Price, Quantity: req.Quantity}
	if err := h.recorder.RecordSaleUpdate(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete handles DELETE /api/sales/{id}.
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/sales/")
	if id == "" {
		http.Error(w, "sale id is required", http.StatusBadRequest)
		return
	}
	if err := h.recorder.RecordSaleDelete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Products handles GET /api/products.
func (h *SalesHandler) Products(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": h.store.Products(),
	})
}

// pathTail extracts the final path segment after a prefix.
func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	return strings.Trim(tail, "/")
}
