package revenue

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dmceachern/rebook/internal/database"
	"github.com/dmceachern/rebook/internal/family"
	"github.com/dmceachern/rebook/internal/recurrence"
	"github.com/dmceachern/rebook/internal/store"
)

func setupEstimator(t *testing.T) (*Estimator, *family.Service, int64, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	appointments := store.NewAppointmentStore(db)
	clients := store.NewClientStore(db)
	templates := store.NewTemplateStore(db)

	c, err := clients.Create("Maple Street HOA", "", "12 Maple St")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	tmpl, err := templates.Create("Lawn Care", 8500, 60)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	admin, err := store.NewAdminStore(db).Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	logger := slog.Default()
	svc := family.NewService(families, appointments, clients, templates, logger)
	return NewEstimator(families, appointments, svc, logger), svc, c.ID, tmpl.ID, admin.ID
}

func TestForMonthBookedAndProjected(t *testing.T) {
	est, svc, clientID, templateID, adminID := setupEstimator(t)

	// Weekly family with a confirmed seed on a January Monday.
	rule := recurrence.Rule{Kind: recurrence.Weekly}
	f, err := svc.Create(clientID, templateID, adminID, "2026-01-05", "09:00", rule, true)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	report, err := est.ForMonth(2026, time.January)
	if err != nil {
		t.Fatalf("for month: %v", err)
	}

	if report.BookedCents != 8500 {
		t.Errorf("booked = %d, want 8500", report.BookedCents)
	}
	// Mondays in January 2026: 5, 12, 19, 26.
	if report.ProjectedCents != 4*8500 {
		t.Errorf("projected = %d, want %d", report.ProjectedCents, 4*8500)
	}
	if len(report.Families) != 1 {
		t.Fatalf("family lines = %d, want 1", len(report.Families))
	}
	line := report.Families[0]
	if line.FamilyID != f.ID || line.Visits != 4 || line.ClientName != "Maple Street HOA" {
		t.Errorf("line = %+v", line)
	}
}

func TestForMonthSkipsStoppedFamilies(t *testing.T) {
	est, svc, clientID, templateID, adminID := setupEstimator(t)

	rule := recurrence.Rule{Kind: recurrence.Weekly}
	f, err := svc.Create(clientID, templateID, adminID, "2026-01-05", "", rule, false)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	if err := svc.Stop(f.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	report, err := est.ForMonth(2026, time.January)
	if err != nil {
		t.Fatalf("for month: %v", err)
	}
	if report.BookedCents != 0 || report.ProjectedCents != 0 || len(report.Families) != 0 {
		t.Errorf("stopped family should not contribute: %+v", report)
	}
}

func TestForMonthEmptyMonth(t *testing.T) {
	est, _, _, _, _ := setupEstimator(t)

	report, err := est.ForMonth(2026, time.June)
	if err != nil {
		t.Fatalf("for month: %v", err)
	}
	if report.BookedCents != 0 || report.ProjectedCents != 0 {
		t.Errorf("empty month report = %+v", report)
	}
	if report.Families == nil {
		t.Error("families should be an empty slice, not nil")
	}
}
