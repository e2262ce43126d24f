package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/model"
	"github.com/dmceachern/rebook/internal/store"
)

// CalendarHandler renders the dispatcher's month view: everything that is
// booked plus the dates each active family's rule would land on that have
// no instance yet.
type CalendarHandler struct {
	svc          *family.Service
	families     *store.FamilyStore
	appointments *store.AppointmentStore
	logger       *slog.Logger
}

func NewCalendarHandler(svc *family.Service, fs *store.FamilyStore, as *store.AppointmentStore, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, families: fs, appointments: as, logger: logger}
}

type projectedLine struct {
	FamilyID    int64    `json:"family_id"`
	ClientName  string   `json:"client_name"`
	ServiceName string   `json:"service_name"`
	Dates       []string `json:"dates"`
}

type monthView struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	Appointments []model.Appointment `json:"appointments"`
	Projected    []projectedLine     `json:"projected"`
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, month, ok := monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	appts, err := h.appointments.ListByMonth(year, time.Month(month))
	if err != nil {
		h.logger.Error("list month appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	view := monthView{
		Year:         year,
		Month:        month,
		Appointments: appts,
		Projected:    []projectedLine{},
	}
	if view.Appointments == nil {
		view.Appointments = []model.Appointment{}
	}

	summaries, err := h.families.ListByStatus(model.FamilyActive)
	if err != nil {
		h.logger.Error("list active families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	for _, f := range summaries {
		proj, err := h.svc.Project(f.ID, year, time.Month(month), true)
		if err != nil {
			if errors.Is(err, family.ErrAnchorMissing) || errors.Is(err, family.ErrInvalidRule) {
				continue
			}
			h.logger.Error("project family", "family_id", f.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load calendar")
			return
		}
		if proj.Count == 0 {
			continue
		}

		line := projectedLine{
			FamilyID:    f.ID,
			ClientName:  f.ClientName,
			ServiceName: f.ServiceName,
			Dates:       make([]string, 0, len(proj.Dates)),
		}
		for _, d := range proj.Dates {
			line.Dates = append(line.Dates, d.Format(time.DateOnly))
		}
		view.Projected = append(view.Projected, line)
	}

	writeJSON(w, http.StatusOK, view)
}
