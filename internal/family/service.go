package family

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmceachern/rebook/internal/model"
	"github.com/dmceachern/rebook/internal/recurrence"
	"github.com/dmceachern/rebook/internal/store"
)

// Service owns the recurrence-family lifecycle: the active/stopped status of
// a family and the invariant that an active family has at most one pending
// (unconfirmed) instance at a time. All state transitions go through here.
//
// Confirm and Skip are guarded by a conditional status update in the store:
// two racing calls against the same pending instance resolve to exactly one
// winner and exactly one generated successor; the loser is rejected with
// ErrPrecondition. The engine never retries — idempotency for network-level
// resends rests on that guarantee.
type Service struct {
	families     *store.FamilyStore
	appointments *store.AppointmentStore
	clients      *store.ClientStore
	templates    *store.TemplateStore
	logger       *slog.Logger

	// now is replaceable in tests; defaults to time.Now.
	now func() time.Time
}

func NewService(fs *store.FamilyStore, as *store.AppointmentStore, cs *store.ClientStore, ts *store.TemplateStore, logger *slog.Logger) *Service {
	return &Service{
		families:     fs,
		appointments: as,
		clients:      cs,
		templates:    ts,
		logger:       logger,
		now:          time.Now,
	}
}

// Detail is a family with its full instance history.
type Detail struct {
	Family       model.Family        `json:"family"`
	Appointments []model.Appointment `json:"appointments"`
	RuleText     string              `json:"rule_text"`
}

// Create books the first occurrence of a new repeating job: an active family
// with one seed instance. confirmSeed books the seed as confirmed directly;
// otherwise it starts unconfirmed.
func (s *Service) Create(clientID, templateID, adminID int64, date, timeOfDay string, rule recurrence.Rule, confirmSeed bool) (*model.Family, error) {
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	anchor, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrPrecondition, date)
	}
	if !validTime(timeOfDay) {
		return nil, fmt.Errorf("%w: bad time %q", ErrPrecondition, timeOfDay)
	}

	client, err := s.clients.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	}
	template, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("%w: template %d", ErrNotFound, templateID)
	}

	status := model.StatusUnconfirmed
	if confirmSeed {
		status = model.StatusConfirmed
	}

	f, err := s.families.Create(clientID, templateID, adminID, rule.String(), anchor.Day(),
		template.Name, template.PriceCents, client.Address,
		store.SeedInstance{Date: date, Time: timeOfDay, Status: status})
	if err != nil {
		return nil, err
	}

	s.logger.Info("family created", "family_id", f.ID, "client_id", clientID, "rule", rule.Describe())
	return f, nil
}

// UpdateRule replaces the rule used for all future occurrence computation.
// Past instances are not altered.
func (s *Service) UpdateRule(familyID int64, rule recurrence.Rule) (*model.Family, error) {
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	f, err := s.getLiveFamily(familyID)
	if err != nil {
		return nil, err
	}
	return s.families.UpdateRule(f.ID, rule.String())
}

// Confirm books the family's pending instance and materializes the next one
// a rule-period later. A second confirm of the same instance is rejected,
// not reprocessed.
func (s *Service) Confirm(instanceID int64) (*model.Appointment, error) {
	return s.settle(instanceID, model.StatusConfirmed)
}

// Skip cancels the pending instance and materializes the next one exactly as
// Confirm does.
func (s *Service) Skip(instanceID int64) (*model.Appointment, error) {
	return s.settle(instanceID, model.StatusCancelled)
}

// settle resolves the pending instance to the given terminal status. While
// the family is active the status flip and the successor insert are one
// atomic store transition; on a stopped family the instance is settled
// without generating anything new.
func (s *Service) settle(instanceID int64, to model.AppointmentStatus) (*model.Appointment, error) {
	inst, err := s.appointments.GetByID(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, instanceID)
	}
	if inst.Status != model.StatusUnconfirmed {
		return nil, fmt.Errorf("%w: appointment %d is %s, not pending", ErrPrecondition, instanceID, inst.Status)
	}

	f, err := s.families.GetByID(inst.FamilyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, inst.FamilyID)
	}

	if f.Status != model.FamilyActive {
		ok, err := s.appointments.UpdateStatusIf(instanceID, model.StatusUnconfirmed, to)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: appointment %d already settled", ErrPrecondition, instanceID)
		}
		s.logger.Info("instance settled on stopped family", "appointment_id", instanceID, "status", to)
		return nil, nil
	}

	nextDate, err := s.nextDate(f, *inst)
	if err != nil {
		return nil, err
	}

	succ, ok, err := s.appointments.TransitionWithSuccessor(instanceID, model.StatusUnconfirmed, to, store.Successor{
		FamilyID:   f.ID,
		Date:       nextDate,
		Time:       inst.Time,
		PriceCents: f.PriceCents,
		Status:     model.StatusUnconfirmed,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: someone settled this instance between our read and
		// the conditional update.
		return nil, fmt.Errorf("%w: appointment %d already settled", ErrPrecondition, instanceID)
	}

	s.logger.Info("instance settled", "appointment_id", instanceID, "status", to,
		"next_appointment_id", succ.ID, "next_date", succ.Date)
	return succ, nil
}

// Reschedule moves a confirmed instance to a new date and time. The old
// instance is kept as rescheduled_old; the replacement is rescheduled_new
// and counts as booked.
func (s *Service) Reschedule(instanceID int64, date, timeOfDay string) (*model.Appointment, error) {
	if _, err := parseDate(date); err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrPrecondition, date)
	}
	if !validTime(timeOfDay) {
		return nil, fmt.Errorf("%w: bad time %q", ErrPrecondition, timeOfDay)
	}
	inst, err := s.appointments.GetByID(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, instanceID)
	}
	if inst.Status != model.StatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed appointments can be rescheduled, got %s", ErrPrecondition, inst.Status)
	}

	succ, ok, err := s.appointments.TransitionWithSuccessor(instanceID, model.StatusConfirmed, model.StatusRescheduledOld, store.Successor{
		FamilyID:   inst.FamilyID,
		Date:       date,
		Time:       timeOfDay,
		PriceCents: inst.PriceCents,
		Status:     model.StatusRescheduledNew,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: appointment %d already moved", ErrPrecondition, instanceID)
	}
	s.logger.Info("instance rescheduled", "appointment_id", instanceID, "new_appointment_id", succ.ID, "date", date)
	return succ, nil
}

// Complete marks a confirmed instance as done.
func (s *Service) Complete(instanceID int64) error {
	ok, err := s.appointments.UpdateStatusIf(instanceID, model.StatusConfirmed, model.StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		inst, err := s.appointments.GetByID(instanceID)
		if err != nil {
			return err
		}
		if inst == nil {
			return fmt.Errorf("%w: appointment %d", ErrNotFound, instanceID)
		}
		return fmt.Errorf("%w: appointment %d is %s, not confirmed", ErrPrecondition, instanceID, inst.Status)
	}
	return nil
}

// Stop freezes the family: existing instances are untouched, and no new
// instances are generated until a restart.
func (s *Service) Stop(familyID int64) error {
	ok, err := s.families.UpdateStatusIf(familyID, model.FamilyActive, model.FamilyStopped)
	if err != nil {
		return err
	}
	if !ok {
		return s.rejectForStatus(familyID, model.FamilyActive)
	}
	s.logger.Info("family stopped", "family_id", familyID)
	return nil
}

// Restart re-activates a stopped family with a fresh pending instance at the
// caller-supplied date, which becomes the new anchor for future computation.
// Dates before the current calendar day are rejected.
func (s *Service) Restart(familyID int64, date, timeOfDay string) (*model.Appointment, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrPrecondition, date)
	}
	if !validTime(timeOfDay) {
		return nil, fmt.Errorf("%w: bad time %q", ErrPrecondition, timeOfDay)
	}
	today := s.now()
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(todayStart) {
		return nil, fmt.Errorf("%w: restart date %s is in the past", ErrPrecondition, date)
	}

	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}

	ok, err := s.families.UpdateStatusIf(familyID, model.FamilyStopped, model.FamilyActive)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: family %d is %s, not stopped", ErrPrecondition, familyID, f.Status)
	}

	// A pending instance left over from before the stop is superseded by the
	// new anchor rather than kept alongside it.
	if pending, err := s.appointments.PendingByFamily(familyID); err != nil {
		return nil, err
	} else if pending != nil {
		if _, err := s.appointments.UpdateStatusIf(pending.ID, model.StatusUnconfirmed, model.StatusCancelled); err != nil {
			return nil, err
		}
	}

	if err := s.families.UpdateAnchorDay(familyID, d.Day()); err != nil {
		return nil, err
	}

	inst, err := s.appointments.Create(familyID, date, timeOfDay, f.PriceCents, model.StatusUnconfirmed)
	if err != nil {
		return nil, err
	}
	s.logger.Info("family restarted", "family_id", familyID, "anchor", date)
	return inst, nil
}

// Delete retires a stopped family. The pending instance is removed; settled
// history is retained under the family row, which is flagged deleted instead
// of being dropped, so past revenue and audit data survive.
func (s *Service) Delete(familyID int64) error {
	ok, err := s.families.UpdateStatusIf(familyID, model.FamilyStopped, model.FamilyDeleted)
	if err != nil {
		return err
	}
	if !ok {
		return s.rejectForStatus(familyID, model.FamilyStopped)
	}
	if err := s.appointments.DeleteUnconfirmedByFamily(familyID); err != nil {
		return err
	}
	s.logger.Info("family deleted", "family_id", familyID)
	return nil
}

// Get returns a family with its full instance history.
func (s *Service) Get(familyID int64) (*Detail, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}
	appts, err := s.appointments.ListByFamily(familyID)
	if err != nil {
		return nil, err
	}

	ruleText := ""
	if rule, err := recurrence.Parse([]byte(f.RuleJSON)); err == nil {
		ruleText = rule.Describe()
	}
	return &Detail{Family: *f, Appointments: appts, RuleText: ruleText}, nil
}

// List returns family summaries in the given status.
func (s *Service) List(status model.FamilyStatus) ([]model.FamilySummary, error) {
	return s.families.ListByStatus(status)
}

// Project enumerates the family's occurrence dates inside the target month.
// excludeExisting removes dates that already have a materialized instance
// (calendar rendering); without it the projection is the raw rule grid
// (revenue estimation).
func (s *Service) Project(familyID int64, year int, month time.Month, excludeExisting bool) (recurrence.Projection, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return recurrence.Projection{}, err
	}
	if f == nil {
		return recurrence.Projection{}, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}
	rule, err := recurrence.Parse([]byte(f.RuleJSON))
	if err != nil {
		return recurrence.Projection{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	anchor, err := s.appointments.LatestAnchor(familyID)
	if err != nil {
		return recurrence.Projection{}, err
	}
	if anchor == nil {
		return recurrence.Projection{}, fmt.Errorf("%w: family %d", ErrAnchorMissing, familyID)
	}
	ref, err := anchor.DateValue()
	if err != nil {
		return recurrence.Projection{}, fmt.Errorf("anchor date: %w", err)
	}

	var existing recurrence.DateSet
	if excludeExisting {
		dates, err := s.appointments.FamilyDatesInMonth(familyID, year, month)
		if err != nil {
			return recurrence.Projection{}, err
		}
		existing = make(recurrence.DateSet, len(dates))
		for _, d := range dates {
			if t, err := time.Parse(time.DateOnly, d); err == nil {
				existing.Add(t)
			}
		}
	}

	return recurrence.OccurrencesInMonthAnchored(rule, ref, f.AnchorDay, year, month, existing), nil
}

// EnsurePending sweeps active families and materializes a pending instance
// for any family that has none, anchored one rule-period after its latest
// instance. Invoked by the nightly sync job and the manual sync endpoint.
// Returns the number of instances created.
func (s *Service) EnsurePending() (int, error) {
	ids, err := s.families.ListActiveIDs()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, id := range ids {
		pending, err := s.appointments.PendingByFamily(id)
		if err != nil {
			return created, err
		}
		if pending != nil {
			continue
		}

		f, err := s.families.GetByID(id)
		if err != nil {
			return created, err
		}
		anchor, err := s.appointments.LatestAnchor(id)
		if err != nil {
			return created, err
		}
		if anchor == nil {
			s.logger.Warn("active family has no anchor, skipping", "family_id", id)
			continue
		}

		nextDate, err := s.nextDate(f, *anchor)
		if err != nil {
			s.logger.Warn("cannot compute next instance", "family_id", id, "error", err)
			continue
		}
		if _, err := s.appointments.Create(id, nextDate, anchor.Time, f.PriceCents, model.StatusUnconfirmed); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		s.logger.Info("sync materialized pending instances", "created", created)
	}
	return created, nil
}

// nextDate computes the date one rule-period after the given instance,
// re-anchored to the family's original anchor day.
func (s *Service) nextDate(f *model.Family, inst model.Appointment) (string, error) {
	rule, err := recurrence.Parse([]byte(f.RuleJSON))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	d, err := inst.DateValue()
	if err != nil {
		return "", fmt.Errorf("%w: appointment %d has no usable date", ErrAnchorMissing, inst.ID)
	}
	next := recurrence.NextAnchored(rule, d, f.AnchorDay)
	if next.IsZero() {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, f.RuleJSON)
	}
	return next.Format(time.DateOnly), nil
}

// getLiveFamily loads a family that has not been deleted.
func (s *Service) getLiveFamily(familyID int64) (*model.Family, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Status == model.FamilyDeleted {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}
	return f, nil
}

func (s *Service) rejectForStatus(familyID int64, want model.FamilyStatus) error {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}
	return fmt.Errorf("%w: family %d is %s, not %s", ErrPrecondition, familyID, f.Status, want)
}

func parseDate(date string) (time.Time, error) {
	return time.Parse(time.DateOnly, date)
}

// validTime accepts an empty slot or a wall-clock "15:04" value.
func validTime(t string) bool {
	if t == "" {
		return true
	}
	_, err := time.Parse("15:04", t)
	return err == nil
}
