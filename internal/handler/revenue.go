package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmceachern/rebook/internal/revenue"
)

type RevenueHandler struct {
	estimator *revenue.Estimator
	logger    *slog.Logger
}

func NewRevenueHandler(est *revenue.Estimator, logger *slog.Logger) *RevenueHandler {
	return &RevenueHandler{estimator: est, logger: logger}
}

func (h *RevenueHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	report, err := h.estimator.ForMonth(year, time.Month(month))
	if err != nil {
		h.logger.Error("revenue report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
