// Package ics renders a family's schedule as an iCalendar feed that can be
// subscribed to from a phone or desktop calendar. The feed carries every
// materialized appointment plus the projected occurrences for the next few
// months, so the technician sees upcoming visits before they are confirmed.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/model"
)

// projectionMonths is how far past the current month the feed looks ahead.
const projectionMonths = 3

// visitDuration is the block reserved for a timed visit. Appointments carry
// a start time only, so the feed assumes a one-hour slot.
const visitDuration = time.Hour

type Feed struct {
	svc *family.Service
	now func() time.Time
}

func NewFeed(svc *family.Service) *Feed {
	return &Feed{svc: svc, now: time.Now}
}

// ForFamily serializes the family's calendar. Deleted instances and the
// superseded halves of reschedules are left out; skipped visits are included
// with a CANCELLED status so subscribed calendars drop them in place.
func (f *Feed) ForFamily(familyID int64) (string, error) {
	detail, err := f.svc.Get(familyID)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//rebook//schedule//EN")
	cal.SetName(detail.Family.ServiceName)
	cal.SetDescription(detail.RuleText)

	stamp := f.now().UTC()
	for _, a := range detail.Appointments {
		if a.Status == model.StatusDeleted || a.Status == model.StatusRescheduledOld {
			continue
		}
		ev, err := f.appointmentEvent(detail, a, stamp)
		if err != nil {
			continue
		}
		cal.AddVEvent(ev)
	}

	if detail.Family.Status == model.FamilyActive {
		if err := f.addProjected(cal, detail, stamp); err != nil {
			return "", err
		}
	}

	return cal.Serialize(), nil
}

func (f *Feed) appointmentEvent(d *family.Detail, a model.Appointment, stamp time.Time) (*ical.VEvent, error) {
	start, err := a.DateValue()
	if err != nil {
		return nil, err
	}

	ev := ical.NewEvent(fmt.Sprintf("rebook-appt-%d@rebook", a.ID))
	ev.SetDtStampTime(stamp)
	ev.SetSummary(d.Family.ServiceName)
	if d.Family.Address != "" {
		ev.SetLocation(d.Family.Address)
	}

	if a.Time != "" {
		if clock, perr := time.Parse("15:04", a.Time); perr == nil {
			start = start.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(visitDuration))
		} else {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		}
	} else {
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
	}

	switch a.Status {
	case model.StatusCancelled:
		ev.SetStatus(ical.ObjectStatusCancelled)
		ev.SetSummary(d.Family.ServiceName + " (skipped)")
	case model.StatusUnconfirmed:
		ev.SetStatus(ical.ObjectStatusTentative)
	default:
		ev.SetStatus(ical.ObjectStatusConfirmed)
	}
	return ev, nil
}

// addProjected appends tentative all-day events for rule occurrences in the
// upcoming months that have no materialized instance yet.
func (f *Feed) addProjected(cal *ical.Calendar, d *family.Detail, stamp time.Time) error {
	base := f.now()
	for i := 0; i < projectionMonths; i++ {
		cursor := time.Date(base.Year(), base.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		proj, err := f.svc.Project(d.Family.ID, cursor.Year(), cursor.Month(), true)
		if err != nil {
			return err
		}
		for _, date := range proj.Dates {
			if date.Before(stamp.Truncate(24 * time.Hour)) {
				continue
			}
			ev := ical.NewEvent(uuid.NewString() + "@rebook")
			ev.SetDtStampTime(stamp)
			ev.SetSummary(d.Family.ServiceName + " (projected)")
			if d.Family.Address != "" {
				ev.SetLocation(d.Family.Address)
			}
			ev.SetAllDayStartAt(date)
			ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
			ev.SetStatus(ical.ObjectStatusTentative)
			cal.AddVEvent(ev)
		}
	}
	return nil
}
