package model

import "time"

// AppointmentStatus is the per-instance lifecycle state.
type AppointmentStatus string

const (
	// StatusUnconfirmed is a recurring instance awaiting confirm-or-skip.
	// At most one instance per active family may hold this status.
	StatusUnconfirmed AppointmentStatus = "unconfirmed"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	// StatusCancelled covers both skipped instances and manual cancellation.
	StatusCancelled AppointmentStatus = "cancelled"
	// StatusRescheduledOld marks an instance superseded by a reschedule.
	StatusRescheduledOld AppointmentStatus = "rescheduled_old"
	StatusRescheduledNew AppointmentStatus = "rescheduled_new"
	StatusDeleted        AppointmentStatus = "deleted"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusUnconfirmed, StatusConfirmed, StatusCompleted, StatusCancelled,
		StatusRescheduledOld, StatusRescheduledNew, StatusDeleted:
		return true
	}
	return false
}

// Booked reports whether the instance counts as real booked work for
// calendar and revenue purposes.
func (s AppointmentStatus) Booked() bool {
	return s == StatusConfirmed || s == StatusCompleted || s == StatusRescheduledNew
}

// Appointment is a single materialized instance generated from a family.
// Date is a naive calendar date ("2006-01-02"); Time is the wall-clock slot
// ("15:04"). The engine does no timezone conversion.
type Appointment struct {
	ID         int64             `json:"id"`
	FamilyID   int64             `json:"family_id"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	PriceCents int64             `json:"price_cents"`
	Status     AppointmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// DateValue parses the appointment's calendar date.
func (a Appointment) DateValue() (time.Time, error) {
	return time.Parse(time.DateOnly, a.Date)
}
