package handlers

import (
	"net/http"

	"github.com/hotshotfinger/geprekpos/backend/internal/export"
	"github.com/hotshotfinger/geprekpos/backend/internal/notes"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
)

// NotesHandler serves the financial and general notes endpoints, the
// calculator, and backup export/import.
type NotesHandler struct {
	store    *store.Store
	recorder *syncpkg.Recorder
	backup   *export.Service
}

// NewNotesHandler creates a NotesHandler.
func NewNotesHandler(st *store.Store, recorder *syncpkg.Recorder, backup *export.Service) *NotesHandler {
	return &NotesHandler{store: st, recorder: recorder, backup: backup}
}

// ListFinancial handles GET /api/notes/financial.
func (h *NotesHandler) ListFinancial(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": h.store.FinancialNotes(),
	})
}

// CreateFinancial handles POST /api/notes/financial. The result stored is
// always derived from the expression server-side.
func (h *NotesHandler) CreateFinancial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression  string `json:"expression" validate:"required"`
		Category    string `json:"category" validate:"required"`
		SubCategory string `json:"subCategory"`
		Description string `json:"description"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.recorder.RecordFinancialNote(r.Context(), req.Expression, req.Category, req.SubCategory, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// DeleteFinancial handles DELETE /api/notes/financial/{id}.
func (h *NotesHandler) DeleteFinancial(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/notes/financial/")
	if id == "" {
		http.Error(w, "note id is required", http.StatusBadRequest)
		return
	}
	if err := h.recorder.RecordFinancialNoteDelete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListGeneral handles GET /api/notes/general.
func (h *NotesHandler) ListGeneral(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": h.store.GeneralNotes(),
	})
}

// CreateGeneral handles POST /api/notes/general.
func (h *NotesHandler) CreateGeneral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title" validate:"required"`
		Content string `json:"content"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.recorder.RecordGeneralNote(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// DeleteGeneral handles DELETE /api/notes/general/{id}.
func (h *NotesHandler) DeleteGeneral(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/notes/general/")
	if id == "" {
		http.Error(w, "note id is required", http.StatusBadRequest)
		return
	}
	if err := h.recorder.RecordGeneralNoteDelete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Evaluate handles POST /api/notes/calculate: runs the calculator without
// recording anything, for live preview in the UI.
func (h *NotesHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression string `json:"expression" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := notes.Evaluate(req.Expression)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expression": req.Expression,
		"result":     result,
	})
}

// Categories handles GET /api/notes/categories.
func (h *NotesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": notes.Categories(),
	})
}

// AddCategory handles POST /api/notes/categories.
func (h *NotesHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name" validate:"required"`
		Color   string `json:"color"`
		Variant string `json:"variant"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	notes.Register(notes.CategoryConfig{Name: req.Name, Color: req.Color, Variant: req.Variant})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// DeleteCategory handles DELETE /api/notes/categories/{name}. Built-in
// categories cannot be removed.
func (h *NotesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := pathTail(r.URL.Path, "/api/notes/categories/")
	if name == "" {
		http.Error(w, "category name is required", http.StatusBadRequest)
		return
	}
	if !notes.Unregister(name) {
		http.Error(w, "category not found or built-in", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Export handles POST /api/notes/export.
func (h *NotesHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OutputPath string `json:"outputPath"`
	}
	// Body is optional; an empty path picks the default location.
	decodeAndValidate(r, &req)

	result, err := h.backup.Export(req.OutputPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Import handles POST /api/notes/import with the backup document as the
// request body.
func (h *NotesHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
		Data []byte `json:"data"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *export.ImportResult
	var err error
	if req.Path != "" {
		result, err = h.backup.ImportFile(req.Path)
	} else {
		result, err = h.backup.Import(req.Data)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
