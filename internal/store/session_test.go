package store

import (
	"testing"
	"time"

	"github.com/dmceachern/rebook/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *AdminStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewAdminStore(db)
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	admin, err := as.Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	sess, err := ss.Create("tok-abc", admin.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.AdminID != admin.ID {
		t.Errorf("admin id = %d, want %d", sess.AdminID, admin.ID)
	}

	got, err := ss.GetByToken("tok-abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestSessionGetByTokenExpired(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	admin, err := as.Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := ss.Create("tok-old", admin.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := ss.GetByToken("tok-old")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionGetByTokenMissing(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionDeleteByToken(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	admin, err := as.Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := ss.Create("tok-abc", admin.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ss.DeleteByToken("tok-abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ss.GetByToken("tok-abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected session to be gone")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	admin, err := as.Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := ss.Create("tok-live", admin.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := ss.Create("tok-old", admin.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	live, err := ss.GetByToken("tok-live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if live == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestAdminCountAndGetByID(t *testing.T) {
	_, as := setupSessionTestDB(t)

	n, err := as.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	admin, err := as.Create("dispatch", "$2a$10$hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	n, err = as.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	got, err := as.GetByID(admin.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Username != "dispatch" {
		t.Fatalf("got %+v", got)
	}

	missing, err := as.GetByID(999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing admin")
	}
}
