package model

import "time"

// FamilyStatus is the lifecycle state of a recurrence family.
type FamilyStatus string

const (
	FamilyActive  FamilyStatus = "active"
	FamilyStopped FamilyStatus = "stopped"
	// FamilyDeleted marks a family whose definition was deleted while its
	// appointment history is retained for revenue and audit queries.
	FamilyDeleted FamilyStatus = "deleted"
)

// Family is the persistent definition of a repeating appointment: the client,
// a snapshot of the booked service, and the recurrence rule that generates
// appointment instances. RuleJSON holds the serialized recurrence rule in its
// wire shape.
type Family struct {
	ID         int64        `json:"id"`
	ClientID   int64        `json:"client_id"`
	TemplateID int64        `json:"template_id"`
	AdminID    int64        `json:"admin_id"`
	Status     FamilyStatus `json:"status"`
	RuleJSON   string       `json:"rule"`
	// AnchorDay is the day of month of the family's original anchor date
	// (seed or last restart). Month-based rules re-anchor to it on every
	// step instead of sticking to a previously clamped day.
	AnchorDay   int       `json:"anchor_day"`
	ServiceName string    `json:"service_name"`
	PriceCents  int64     `json:"price_cents"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FamilySummary is a family with appointment counts, for list views.
type FamilySummary struct {
	Family
	ClientName     string `json:"client_name"`
	TotalCount     int    `json:"total_appointments"`
	ConfirmedCount int    `json:"confirmed_appointments"`
	PendingCount   int    `json:"pending_appointments"`
}
