package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/model"
	ws "github.com/dmceachern/rebook/internal/websocket"
)

type AppointmentHandler struct {
	svc    *family.Service
	hub    *ws.Hub
	logger *slog.Logger
}

func NewAppointmentHandler(svc *family.Service, hub *ws.Hub, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, hub: hub, logger: logger}
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "confirmed", h.svc.Confirm)
}

func (h *AppointmentHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "skipped", h.svc.Skip)
}

func (h *AppointmentHandler) settle(w http.ResponseWriter, r *http.Request, action string, op func(int64) (*model.Appointment, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	appt, err := op(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// A settle against a stopped family resolves the instance without
	// generating a successor.
	if appt == nil {
		h.hub.Broadcast(ws.AppointmentEvent(action, 0, id, "", ""))
		writeJSON(w, http.StatusOK, map[string]string{"status": action})
		return
	}

	h.hub.Broadcast(ws.AppointmentEvent(action, appt.FamilyID, appt.ID, appt.Date, string(appt.Status)))
	writeJSON(w, http.StatusOK, appt)
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	appt, err := h.svc.Reschedule(id, req.Date, req.Time)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.AppointmentEvent("rescheduled", appt.FamilyID, appt.ID, appt.Date, string(appt.Status)))
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Complete(id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.AppointmentEvent("completed", 0, id, "", string(model.StatusCompleted)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
