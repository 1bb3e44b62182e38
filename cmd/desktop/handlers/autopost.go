package handlers

import (
	"net/http"

	"github.com/hotshotfinger/geprekpos/backend/internal/autopost"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
)

// AutoPostHandler serves the scheduled-posting control panel endpoints.
type AutoPostHandler struct {
	service *autopost.Service
}

// NewAutoPostHandler creates an AutoPostHandler.
func NewAutoPostHandler(service *autopost.Service) *AutoPostHandler {
	return &AutoPostHandler{service: service}
}

// Get handles GET /api/autopost.
func (h *AutoPostHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, status := h.service.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config": cfg,
		"status": status,
	})
}

// SetConfig handles PUT /api/autopost.
func (h *AutoPostHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caption   string `json:"caption" validate:"required"`
		Interval  int    `json:"interval" validate:"required,gte=10,lte=3600"`
		StartTime string `json:"startTime" validate:"required"`
		EndTime   string `json:"endTime" validate:"required"`
		GroupLink string `json:"groupLink" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg := models.AutoPostConfig{
		Caption:   req.Caption,
		Interval:  req.Interval,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		GroupLink: req.GroupLink,
	}
	if err := h.service.SetConfig(cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Start handles POST /api/autopost/start.
func (h *AutoPostHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.AutoPostRunning)})
}

// Stop handles POST /api/autopost/stop.
func (h *AutoPostHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.AutoPostStopped)})
}
