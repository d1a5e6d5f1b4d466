package model

import "time"

// Reservation status values.
const (
	ReservationStatusPending    = "PENDING"
	ReservationStatusConfirmed  = "CONFIRMED"
	ReservationStatusCancelled  = "CANCELLED"
	ReservationStatusCheckedIn  = "CHECKED_IN"
	ReservationStatusCheckedOut = "CHECKED_OUT"
)

// Reservation records a confirmed stay.  It is created only by the
// reservation committer, inside the same transaction that decrements the
// inventory ledger and opens the folio.
//
// Fields:
//  ID           – primary key identifier.
//  PNR          – human-facing reservation reference code.
//  PropertyID   – owning property.
//  RoomTypeID   – room type booked.
//  RatePlanCode – plan the stay was priced under.
//  CheckIn      – arrival date (inclusive).
//  CheckOut     – departure date (exclusive).
//  Adults       – adult count in the party.
//  Children     – child count in the party.
//  TotalAmount  – agreed total for the stay.
//  Currency     – ISO currency code.
//  Status       – reservation state.
type Reservation struct {
	ID           uint64    // reservations.id
	PNR          string    // reservations.pnr
	PropertyID   uint64    // reservations.property_id
	RoomTypeID   uint64    // reservations.room_type_id
	RatePlanCode string    // reservations.rate_plan_code
	CheckIn      time.Time // reservations.check_in
	CheckOut     time.Time // reservations.check_out
	Adults       int       // reservations.adults
	Children     int       // reservations.children
	TotalAmount  float64   // reservations.total_amount
	Currency     string    // reservations.currency
	Status       string    // reservations.status
	CreatedAt    time.Time // reservations.created_at
	UpdatedAt    time.Time // reservations.updated_at
}

// Folio is a reservation's running financial ledger, opened at booking time
// with the agreed total as the opening balance.
type Folio struct {
	ID            uint64    // folios.id
	ReservationID uint64    // folios.reservation_id
	Balance       float64   // folios.balance
	Currency      string    // folios.currency
	CreatedAt     time.Time // folios.created_at
	UpdatedAt     time.Time // folios.updated_at
}

// ReservationGuest is one occupant attached to a reservation.  Every
// reservation carries at least one guest row; when the booking request names
// nobody, a single default occupant is written.
type ReservationGuest struct {
	ID            uint64    // reservation_guests.id
	ReservationID uint64    // reservation_guests.reservation_id
	FirstName     string    // reservation_guests.first_name
	LastName      string    // reservation_guests.last_name
	Email         string    // reservation_guests.email
	IsPrimary     bool      // reservation_guests.is_primary
	CreatedAt     time.Time // reservation_guests.created_at
}
