package model

import "time"

// RatePlan is a node in the rate graph.  A plan with no parent is
// authoritative ("BASE"); a plan with a parent derives its price from the
// parent's price via DerivedType/DerivedValue plus a rounding rule.
//
// Fields:
//  ID               – primary key identifier.
//  PropertyID       – owning property.
//  Code             – plan code unique within the property (e.g. "BAR", "AAA").
//  Name             – display name.
//  ParentRatePlanID – parent plan forming the derivation tree (nil for roots).
//  DerivedType      – PERCENTAGE or FIXED_AMOUNT (nil for roots).
//  DerivedValue     – signed adjustment applied to the parent amount.
//  RoundingRule     – rounding applied after derivation.
type RatePlan struct {
	ID               uint64    // rate_plans.id
	PropertyID       uint64    // rate_plans.property_id
	Code             string    // rate_plans.code
	Name             string    // rate_plans.name
	ParentRatePlanID *uint64   // rate_plans.parent_rate_plan_id (nullable)
	DerivedType      *string   // rate_plans.derived_type (nullable)
	DerivedValue     *float64  // rate_plans.derived_value (nullable)
	RoundingRule     string    // rate_plans.rounding_rule
	CreatedAt        time.Time // rate_plans.created_at
	UpdatedAt        time.Time // rate_plans.updated_at
}

// IsDerived reports whether the plan takes its price from a parent plan.
func (p *RatePlan) IsDerived() bool { return p.ParentRatePlanID != nil }

// Rate stores an explicit amount for (property, room type, stay date, plan).
// Once IsManualOverride is set, cascade writes from the parent must leave
// Amount untouched until the override is cleared.
type Rate struct {
	ID               uint64    // rates.id
	PropertyID       uint64    // rates.property_id
	RoomTypeID       uint64    // rates.room_type_id
	StayDate         time.Time // rates.stay_date
	RatePlanCode     string    // rates.rate_plan_code
	Amount           float64   // rates.amount
	IsManualOverride bool      // rates.is_manual_override
	CreatedAt        time.Time // rates.created_at
	UpdatedAt        time.Time // rates.updated_at
}

// Restriction controls sellability for (property, room type, stay date, plan).
// Zero values mean "no restriction" for the length-of-stay fields.
type Restriction struct {
	ID                uint64    // restrictions.id
	PropertyID        uint64    // restrictions.property_id
	RoomTypeID        uint64    // restrictions.room_type_id
	StayDate          time.Time // restrictions.stay_date
	RatePlanCode      string    // restrictions.rate_plan_code
	MinLOS            int       // restrictions.min_los
	MaxLOS            int       // restrictions.max_los
	ClosedToArrival   bool      // restrictions.closed_to_arrival
	ClosedToDeparture bool      // restrictions.closed_to_departure
	Closed            bool      // restrictions.closed
	CreatedAt         time.Time // restrictions.created_at
	UpdatedAt         time.Time // restrictions.updated_at
}
