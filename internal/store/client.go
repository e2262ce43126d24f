package store

import (
	"database/sql"
	"fmt"

	"github.com/dmceachern/rebook/internal/model"
)

type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

func scanClient(scanner interface{ Scan(...any) error }) (*model.Client, error) {
	var c model.Client
	err := scanner.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const clientCols = `id, name, phone, address, created_at, updated_at`

func (s *ClientStore) Create(name, phone, address string) (*model.Client, error) {
	result, err := s.db.Exec(
		`INSERT INTO clients (name, phone, address) VALUES (?, ?, ?)`,
		name, phone, address,
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ClientStore) GetByID(id int64) (*model.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientCols+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *ClientStore) List() ([]model.Client, error) {
	rows, err := s.db.Query(`SELECT ` + clientCols + ` FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (s *ClientStore) Update(id int64, name, phone, address string) (*model.Client, error) {
	_, err := s.db.Exec(
		`UPDATE clients SET name = ?, phone = ?, address = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, phone, address, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.GetByID(id)
}

func (s *ClientStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// --- Service template methods ---

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.ServiceTemplate, error) {
	var t model.ServiceTemplate
	err := scanner.Scan(&t.ID, &t.Name, &t.PriceCents, &t.DurationMin, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const templateCols = `id, name, price_cents, duration_min, created_at, updated_at`

func (s *TemplateStore) Create(name string, priceCents int64, durationMin int) (*model.ServiceTemplate, error) {
	result, err := s.db.Exec(
		`INSERT INTO service_templates (name, price_cents, duration_min) VALUES (?, ?, ?)`,
		name, priceCents, durationMin,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id int64) (*model.ServiceTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM service_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) List() ([]model.ServiceTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateCols + ` FROM service_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ServiceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Update(id int64, name string, priceCents int64, durationMin int) (*model.ServiceTemplate, error) {
	_, err := s.db.Exec(
		`UPDATE service_templates SET name = ?, price_cents = ?, duration_min = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, priceCents, durationMin, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM service_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
