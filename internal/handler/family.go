package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmceachern/rebook/internal/auth"
	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/ics"
	"github.com/dmceachern/rebook/internal/model"
	ws "github.com/dmceachern/rebook/internal/websocket"
)

type FamilyHandler struct {
	svc    *family.Service
	feed   *ics.Feed
	hub    *ws.Hub
	logger *slog.Logger
}

func NewFamilyHandler(svc *family.Service, feed *ics.Feed, hub *ws.Hub, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{svc: svc, feed: feed, hub: hub, logger: logger}
}

type createFamilyRequest struct {
	ClientID    int64           `json:"client_id"`
	TemplateID  int64           `json:"template_id"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Rule        json.RawMessage `json:"rule"`
	ConfirmSeed bool            `json:"confirm_seed"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rule, err := recurrenceFromJSON(req.Rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.svc.Create(req.ClientID, req.TemplateID, auth.AdminID(r.Context()), req.Date, req.Time, rule, req.ConfirmSeed)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.FamilyEvent("created", f.ID, string(f.Status)))
	writeJSON(w, http.StatusCreated, f)
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.FamilyStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.FamilyActive
	}
	if status != model.FamilyActive && status != model.FamilyStopped {
		writeError(w, http.StatusBadRequest, "status must be active or stopped")
		return
	}

	families, err := h.svc.List(status)
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list families")
		return
	}
	if families == nil {
		families = []model.FamilySummary{}
	}
	writeJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	detail, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type updateRuleRequest struct {
	Rule json.RawMessage `json:"rule"`
}

func (h *FamilyHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rule, err := recurrenceFromJSON(req.Rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.svc.UpdateRule(id, rule)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.FamilyEvent("rule_updated", f.ID, string(f.Status)))
	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Stop(id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.FamilyEvent("stopped", id, string(model.FamilyStopped)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

type restartRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *FamilyHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req restartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	appt, err := h.svc.Restart(id, req.Date, req.Time)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.FamilyEvent("restarted", id, string(model.FamilyActive)))
	writeJSON(w, http.StatusOK, appt)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.Delete(id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.FamilyEvent("deleted", id, string(model.FamilyDeleted)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Occurrences projects the family's rule into a target month.
func (h *FamilyHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	year, month, ok := monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year and month are required")
		return
	}
	excludeExisting := r.URL.Query().Get("excludeExisting") == "true"

	proj, err := h.svc.Project(id, year, time.Month(month), excludeExisting)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// CalendarFeed serves the family schedule as an iCalendar subscription.
func (h *FamilyHandler) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	body, err := h.feed.ForFamily(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.Write([]byte(body))
}
