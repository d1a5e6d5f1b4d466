package model

import "time"

// Inventory is one ledger row per (property, room type, stay date).  Rows are
// created lazily on the first mutation that touches a date and are never
// deleted.  Every write path resynchronizes Total to the physical room count
// and clamps Available into [0, Total].
//
// Fields:
//  ID         – primary key identifier.
//  PropertyID – owning property.
//  RoomTypeID – room type this row counts.
//  StayDate   – calendar day (normalized, no time component).
//  Total      – physical room count at last write.
//  Available  – units still sellable for the date.
//  Booked     – units consumed by reservations.
//  Price      – optional sell price cached on the ledger row (nullable).
type Inventory struct {
	ID         uint64    // inventory.id
	PropertyID uint64    // inventory.property_id
	RoomTypeID uint64    // inventory.room_type_id
	StayDate   time.Time // inventory.stay_date
	Total      int       // inventory.total
	Available  int       // inventory.available
	Booked     int       // inventory.booked
	Price      *float64  // inventory.price (nullable)
	CreatedAt  time.Time // inventory.created_at
	UpdatedAt  time.Time // inventory.updated_at
}
