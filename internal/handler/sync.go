package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmceachern/rebook/internal/sync"
)

type SyncHandler struct {
	scheduler *sync.Scheduler
	logger    *slog.Logger
}

func NewSyncHandler(sched *sync.Scheduler, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{scheduler: sched, logger: logger}
}

// Run triggers the pending-instance sweep on demand.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	created, err := h.scheduler.Run()
	if err != nil {
		h.logger.Error("manual sync", "error", err)
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}
