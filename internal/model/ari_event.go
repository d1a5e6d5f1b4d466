package model

import "time"

// AriEvent type values, one per mutable ARI axis.
const (
	AriEventAvailability = "AVAILABILITY"
	AriEventRate         = "RATE"
	AriEventRestriction  = "RESTRICTION"
)

// AriEvent status values.
const (
	AriEventStatusApplied = "APPLIED"
)

// AriEvent is one append-only audit row per ARI mutation, including
// cascade-derived child updates.  Events are history only and are never read
// back as a source of truth for current state.
type AriEvent struct {
	ID         uint64    // ari_events.id
	PropertyID uint64    // ari_events.property_id
	RoomTypeID uint64    // ari_events.room_type_id
	EventType  string    // ari_events.event_type
	DateFrom   time.Time // ari_events.date_from
	DateTo     time.Time // ari_events.date_to
	Payload    string    // ari_events.payload (JSON)
	Status     string    // ari_events.status
	CreatedAt  time.Time // ari_events.created_at
}
