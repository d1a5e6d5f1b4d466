// Package queue defines message payloads exchanged over the message broker.
package queue

// AriBroadcastEvent is published whenever an availability, rate or
// restriction write is applied. It carries enough information for downstream
// consumers to log, sync channel managers, or trigger analytics without
// querying the primary database.
type AriBroadcastEvent struct {
	EventID    uint64 `json:"event_id"`
	PropertyID uint64 `json:"property_id"`
	RoomTypeID uint64 `json:"room_type_id"`
	EventType  string `json:"event_type"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	Payload    string `json:"payload"`
	OccurredAt string `json:"occurred_at"`
}
