// Package revenue estimates monthly income from recurring service families.
//
// Two figures are reported per month: booked revenue, summed from
// materialized appointments that are confirmed or completed, and projected
// revenue, computed from each active family's raw rule grid for the month
// multiplied by its per-visit price. Projected revenue deliberately ignores
// which occurrences already exist so that it reflects the full earning
// potential of the schedule.
package revenue

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/model"
	"github.com/dmceachern/rebook/internal/store"
)

// Report is the revenue summary for a single month.
type Report struct {
	Year           int          `json:"year"`
	Month          int          `json:"month"`
	BookedCents    int64        `json:"bookedCents"`
	ProjectedCents int64        `json:"projectedCents"`
	Families       []FamilyLine `json:"families"`
}

// FamilyLine breaks the projection down per family.
type FamilyLine struct {
	FamilyID       int64  `json:"familyId"`
	ClientName     string `json:"clientName"`
	ServiceName    string `json:"serviceName"`
	Visits         int    `json:"visits"`
	ProjectedCents int64  `json:"projectedCents"`
}

type Estimator struct {
	families     *store.FamilyStore
	appointments *store.AppointmentStore
	svc          *family.Service
	logger       *slog.Logger
}

func NewEstimator(fs *store.FamilyStore, as *store.AppointmentStore, svc *family.Service, logger *slog.Logger) *Estimator {
	return &Estimator{
		families:     fs,
		appointments: as,
		svc:          svc,
		logger:       logger.With("component", "revenue"),
	}
}

// ForMonth builds the revenue report for the given month.
func (e *Estimator) ForMonth(year int, month time.Month) (*Report, error) {
	report := &Report{
		Year:     year,
		Month:    int(month),
		Families: []FamilyLine{},
	}

	appts, err := e.appointments.ListByMonth(year, month)
	if err != nil {
		return nil, err
	}
	for _, a := range appts {
		if a.Status == model.StatusConfirmed || a.Status == model.StatusCompleted {
			report.BookedCents += a.PriceCents
		}
	}

	summaries, err := e.families.ListByStatus(model.FamilyActive)
	if err != nil {
		return nil, err
	}
	for _, f := range summaries {
		proj, err := e.svc.Project(f.ID, year, month, false)
		if err != nil {
			// A family created and immediately stopped can lack an anchor.
			// Leave it out of the estimate rather than failing the report.
			if errors.Is(err, family.ErrAnchorMissing) || errors.Is(err, family.ErrInvalidRule) {
				e.logger.Warn("skipping family in revenue projection", "family_id", f.ID, "error", err)
				continue
			}
			return nil, err
		}

		line := FamilyLine{
			FamilyID:       f.ID,
			ClientName:     f.ClientName,
			ServiceName:    f.ServiceName,
			Visits:         proj.Count,
			ProjectedCents: int64(proj.Count) * f.PriceCents,
		}
		report.ProjectedCents += line.ProjectedCents
		report.Families = append(report.Families, line)
	}

	return report, nil
}
