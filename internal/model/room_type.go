package model

import "time"

// RoomType groups physically interchangeable rooms that are sold as one
// inventory pool.  Availability, rates and restrictions are all keyed per
// room type and stay date, never per individual room.
//
// Fields:
//  ID         – primary key identifier.
//  PropertyID – owning property.
//  Code       – short code unique within the property (e.g. "DLX").
//  Name       – display name.
//  MaxGuests  – occupancy ceiling used when validating party composition.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type RoomType struct {
	ID         uint64    // room_types.id
	PropertyID uint64    // room_types.property_id
	Code       string    // room_types.code
	Name       string    // room_types.name
	MaxGuests  uint32    // room_types.max_guests
	CreatedAt  time.Time // room_types.created_at
	UpdatedAt  time.Time // room_types.updated_at
}

// Room status values.  A room counts toward sellable capacity unless it has
// been withdrawn from service.
const (
	RoomStatusInService  = "IN_SERVICE"
	RoomStatusOutOfOrder = "OUT_OF_ORDER"
)

// Room is a physical unit.  The count of non-out-of-order rooms of a type is
// the hard ceiling for that type's availability on every date.
type Room struct {
	ID         uint64    // rooms.id
	PropertyID uint64    // rooms.property_id
	RoomTypeID uint64    // rooms.room_type_id
	Number     string    // rooms.room_number
	Status     string    // rooms.status (IN_SERVICE, OUT_OF_ORDER)
	CreatedAt  time.Time // rooms.created_at
	UpdatedAt  time.Time // rooms.updated_at
}
