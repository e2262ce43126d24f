package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmceachern/rebook/internal/model"
)

type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

func scanAppointment(scanner interface{ Scan(...any) error }) (*model.Appointment, error) {
	var a model.Appointment
	err := scanner.Scan(
		&a.ID, &a.FamilyID, &a.Date, &a.Time, &a.PriceCents, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const appointmentCols = `id, family_id, date, time, price_cents, status, created_at, updated_at`

func (s *AppointmentStore) Create(familyID int64, date, timeOfDay string, priceCents int64, status model.AppointmentStatus) (*model.Appointment, error) {
	result, err := s.db.Exec(
		`INSERT INTO appointments (family_id, date, time, price_cents, status) VALUES (?, ?, ?, ?, ?)`,
		familyID, date, timeOfDay, priceCents, status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AppointmentStore) GetByID(id int64) (*model.Appointment, error) {
	row := s.db.QueryRow(`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *AppointmentStore) ListByFamily(familyID int64) ([]model.Appointment, error) {
	rows, err := s.db.Query(
		`SELECT `+appointmentCols+` FROM appointments WHERE family_id = ? ORDER BY date ASC, id ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListByMonth returns every appointment dated inside the given month,
// regardless of status, ordered by date.
func (s *AppointmentStore) ListByMonth(year int, month time.Month) ([]model.Appointment, error) {
	start, end := monthBounds(year, month)
	rows, err := s.db.Query(
		`SELECT `+appointmentCols+` FROM appointments WHERE date >= ? AND date < ? ORDER BY date ASC, time ASC, id ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments by month: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// FamilyDatesInMonth returns the dates inside the month on which the family
// already has a materialized instance. Deleted instances do not count;
// everything else (including cancelled) does, so a skipped date is not
// re-offered by projection.
func (s *AppointmentStore) FamilyDatesInMonth(familyID int64, year int, month time.Month) ([]string, error) {
	start, end := monthBounds(year, month)
	rows, err := s.db.Query(
		`SELECT DISTINCT date FROM appointments
		 WHERE family_id = ? AND date >= ? AND date < ? AND status != 'deleted'
		 ORDER BY date ASC`,
		familyID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("family dates in month: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// PendingByFamily returns the family's single unconfirmed instance, or nil.
func (s *AppointmentStore) PendingByFamily(familyID int64) (*model.Appointment, error) {
	row := s.db.QueryRow(
		`SELECT `+appointmentCols+` FROM appointments WHERE family_id = ? AND status = 'unconfirmed'`,
		familyID,
	)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending appointment: %w", err)
	}
	return a, nil
}

// LatestAnchor returns the most recent instance usable as a recurrence
// anchor: the pending instance if one exists, otherwise the latest booked or
// cancelled instance. Returns nil when the family has nothing to anchor on.
func (s *AppointmentStore) LatestAnchor(familyID int64) (*model.Appointment, error) {
	pending, err := s.PendingByFamily(familyID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return pending, nil
	}

	row := s.db.QueryRow(
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE family_id = ? AND status != 'deleted' AND status != 'rescheduled_old'
		 ORDER BY date DESC, id DESC LIMIT 1`,
		familyID,
	)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest anchor: %w", err)
	}
	return a, nil
}

// UpdateStatusIf transitions an instance's status only if it currently holds
// the expected one (compare-and-swap). Returns false when the guard did not
// match: the caller lost a race or the instance was never in that state.
func (s *AppointmentStore) UpdateStatusIf(id int64, from, to model.AppointmentStatus) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE appointments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Successor describes the next instance created by a confirm, skip, or
// reschedule transition.
type Successor struct {
	FamilyID   int64
	Date       string
	Time       string
	PriceCents int64
	Status     model.AppointmentStatus
}

// TransitionWithSuccessor performs the CAS status transition and the
// creation of the next instance atomically. Exactly one caller can win the
// transition for a given instance; losers get ok=false with the row
// untouched and no successor created.
func (s *AppointmentStore) TransitionWithSuccessor(id int64, from, to model.AppointmentStatus, succ Successor) (*model.Appointment, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE appointments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return nil, false, fmt.Errorf("transition appointment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}

	created, err := tx.Exec(
		`INSERT INTO appointments (family_id, date, time, price_cents, status) VALUES (?, ?, ?, ?, ?)`,
		succ.FamilyID, succ.Date, succ.Time, succ.PriceCents, succ.Status,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert successor: %w", err)
	}
	succID, err := created.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	a, err := s.GetByID(succID)
	if err != nil {
		return nil, true, err
	}
	return a, true, nil
}

// DeleteUnconfirmedByFamily removes the family's pending instance, used when
// a stopped family is deleted. History statuses are never touched here.
func (s *AppointmentStore) DeleteUnconfirmedByFamily(familyID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM appointments WHERE family_id = ? AND status = 'unconfirmed'`,
		familyID,
	)
	if err != nil {
		return fmt.Errorf("delete pending appointments: %w", err)
	}
	return nil
}

func collectAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

func monthBounds(year int, month time.Month) (string, string) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start.Format(time.DateOnly), start.AddDate(0, 1, 0).Format(time.DateOnly)
}
