package store

import (
	"database/sql"
	"fmt"

	"github.com/dmceachern/rebook/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(
		&f.ID, &f.ClientID, &f.TemplateID, &f.AdminID, &f.Status, &f.RuleJSON,
		&f.AnchorDay, &f.ServiceName, &f.PriceCents, &f.Address, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, client_id, template_id, admin_id, status, rule, anchor_day, service_name, price_cents, address, created_at, updated_at`

// SeedInstance describes the first appointment created together with a
// family, or the instance created by a restart.
type SeedInstance struct {
	Date   string
	Time   string
	Status model.AppointmentStatus
}

// Create inserts a family and its seed appointment in one transaction so a
// family can never exist without its first instance.
func (s *FamilyStore) Create(clientID, templateID, adminID int64, ruleJSON string, anchorDay int, serviceName string, priceCents int64, address string, seed SeedInstance) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO families (client_id, template_id, admin_id, status, rule, anchor_day, service_name, price_cents, address)
		 VALUES (?, ?, ?, 'active', ?, ?, ?, ?, ?)`,
		clientID, templateID, adminID, ruleJSON, anchorDay, serviceName, priceCents, address,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO appointments (family_id, date, time, price_cents, status) VALUES (?, ?, ?, ?, ?)`,
		id, seed.Date, seed.Time, priceCents, seed.Status,
	); err != nil {
		return nil, fmt.Errorf("insert seed appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

// ListByStatus returns families in the given status with client name and
// appointment counts for list views.
func (s *FamilyStore) ListByStatus(status model.FamilyStatus) ([]model.FamilySummary, error) {
	rows, err := s.db.Query(
		`SELECT f.id, f.client_id, f.template_id, f.admin_id, f.status, f.rule,
		        f.anchor_day, f.service_name, f.price_cents, f.address, f.created_at, f.updated_at,
		        c.name,
		        COUNT(a.id),
		        COALESCE(SUM(CASE WHEN a.status IN ('confirmed', 'completed', 'rescheduled_new') THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN a.status = 'unconfirmed' THEN 1 ELSE 0 END), 0)
		 FROM families f
		 JOIN clients c ON c.id = f.client_id
		 LEFT JOIN appointments a ON a.family_id = f.id
		 WHERE f.status = ?
		 GROUP BY f.id
		 ORDER BY c.name ASC, f.id ASC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.FamilySummary
	for rows.Next() {
		var fs model.FamilySummary
		err := rows.Scan(
			&fs.ID, &fs.ClientID, &fs.TemplateID, &fs.AdminID, &fs.Status, &fs.RuleJSON,
			&fs.AnchorDay, &fs.ServiceName, &fs.PriceCents, &fs.Address, &fs.CreatedAt, &fs.UpdatedAt,
			&fs.ClientName, &fs.TotalCount, &fs.ConfirmedCount, &fs.PendingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan family summary: %w", err)
		}
		families = append(families, fs)
	}
	return families, rows.Err()
}

// UpdateRule replaces the rule used for future occurrence computation. Past
// instances are untouched.
func (s *FamilyStore) UpdateRule(id int64, ruleJSON string) (*model.Family, error) {
	_, err := s.db.Exec(
		`UPDATE families SET rule = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ruleJSON, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return s.GetByID(id)
}

// UpdateAnchorDay re-anchors month-based computation, used by restart.
func (s *FamilyStore) UpdateAnchorDay(id int64, anchorDay int) error {
	_, err := s.db.Exec(
		`UPDATE families SET anchor_day = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		anchorDay, id,
	)
	if err != nil {
		return fmt.Errorf("update anchor day: %w", err)
	}
	return nil
}

// UpdateStatusIf transitions the family's status only if it currently holds
// the expected one. Returns false when the guard did not match, which is how
// concurrent stop/restart/delete races lose.
func (s *FamilyStore) UpdateStatusIf(id int64, from, to model.FamilyStatus) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE families SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("update family status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListActiveIDs returns the ids of all active families, for projection and
// sync sweeps.
func (s *FamilyStore) ListActiveIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM families WHERE status = 'active' ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active family ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
