package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with an event buffer but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		events: make(chan []byte, eventBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	ev := AppointmentEvent("confirmed", 7, 42, "2026-03-02", "confirmed")
	hub.Broadcast(ev)

	// Check both clients received the event
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.events:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Kind != "appointment_confirmed" {
				t.Errorf("expected kind appointment_confirmed, got %s", got.Kind)
			}
			if got.FamilyID != 7 {
				t.Errorf("expected family 7, got %d", got.FamilyID)
			}
			if got.AppointmentID != 42 {
				t.Errorf("expected appointment 42, got %d", got.AppointmentID)
			}
			if got.Date != "2026-03-02" {
				t.Errorf("expected date 2026-03-02, got %s", got.Date)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(FamilyEvent("stopped", 1, "stopped"))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub)
	hub.Register(c)

	// Fill the event buffer
	for i := 0; i < eventBufferSize; i++ {
		hub.Broadcast(AppointmentEvent("confirmed", 1, int64(i), "2026-01-05", "confirmed"))
	}

	// This should drop the event, not panic or block
	hub.Broadcast(AppointmentEvent("confirmed", 1, 999, "2026-01-05", "confirmed"))

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.events:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("expected %d events, got %d", eventBufferSize, count)
	}

	hub.Unregister(c)
}

func TestEventConstructors(t *testing.T) {
	ev := FamilyEvent("restarted", 5, "active")
	if ev.Kind != "family_restarted" {
		t.Errorf("expected kind family_restarted, got %s", ev.Kind)
	}
	if ev.FamilyID != 5 {
		t.Errorf("expected family 5, got %d", ev.FamilyID)
	}
	if ev.Status != "active" {
		t.Errorf("expected status active, got %s", ev.Status)
	}

	ev = AppointmentEvent("skipped", 5, 9, "2026-02-27", "cancelled")
	if ev.Kind != "appointment_skipped" {
		t.Errorf("expected kind appointment_skipped, got %s", ev.Kind)
	}
	if ev.Date != "2026-02-27" {
		t.Errorf("expected date 2026-02-27, got %s", ev.Date)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(FamilyEvent("created", 0, "active"))
			// Drain any messages
			for {
				select {
				case <-c.events:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
