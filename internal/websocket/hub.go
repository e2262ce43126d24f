package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is a real-time schedule notification broadcast to all clients.
// Kind is "<entity>_<action>", e.g. "appointment_confirmed" or
// "family_stopped". AppointmentID and Date are set for appointment events.
type Event struct {
	Kind          string `json:"kind"`
	FamilyID      int64  `json:"familyId,omitempty"`
	AppointmentID int64  `json:"appointmentId,omitempty"`
	Date          string `json:"date,omitempty"`
	Status        string `json:"status,omitempty"`
}

// FamilyEvent builds an event about a recurrence family.
func FamilyEvent(action string, familyID int64, status string) Event {
	return Event{
		Kind:     "family_" + action,
		FamilyID: familyID,
		Status:   status,
	}
}

// AppointmentEvent builds an event about a single appointment instance.
func AppointmentEvent(action string, familyID, appointmentID int64, date, status string) Event {
	return Event{
		Kind:          "appointment_" + action,
		FamilyID:      familyID,
		AppointmentID: appointmentID,
		Date:          date,
		Status:        status,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its event channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.events)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.events <- data:
		default:
			// Subscriber buffer full — drop the event rather than block
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
