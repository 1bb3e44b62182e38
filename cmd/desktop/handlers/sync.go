package handlers

import (
	"net/http"

	syncpkg "github.com/hotshotfinger/geprekpos/backend/internal/sync"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/queue"
	"github.com/hotshotfinger/geprekpos/backend/internal/telemetry"
)

// ConnectivityStatus is the slice of the monitor the status endpoint reads.
type ConnectivityStatus interface {
	IsOnline() bool
}

// SyncHandler serves queue status and manual sync control.
type SyncHandler struct {
	queue     *queue.DurableQueue
	processor *syncpkg.Processor
	conn      ConnectivityStatus
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(q *queue.DurableQueue, processor *syncpkg.Processor, conn ConnectivityStatus) *SyncHandler {
	return &SyncHandler{queue: q, processor: processor, conn: conn}
}

// Status handles GET /api/sync/status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"online":  h.conn.IsOnline(),
		"state":   h.processor.State(),
		"pending": h.queue.Len(),
		"failed":  h.queue.FailedCount(),
		"metrics": telemetry.Snapshot(),
	})
}

// Trigger handles POST /api/sync/trigger: starts a drain pass immediately
// instead of waiting for the next connectivity probe.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.processor.Drain(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RetryFailed handles POST /api/sync/retry-failed: resets dead-lettered
// mutations to pending.
func (h *SyncHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	count := h.queue.RetryFailed()
	writeJSON(w, http.StatusOK, map[string]int{"reset": count})
}

// Clear handles POST /api/sync/clear: drops the whole queue. Destructive,
// exposed for explicit user resets only.
func (h *SyncHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.queue.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
