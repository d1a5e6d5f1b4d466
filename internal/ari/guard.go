package ari

// Availability update types accepted by the availability write paths.
const (
	UpdateSet       = "SET"
	UpdateIncrement = "INCREMENT"
	UpdateDecrement = "DECREMENT"
)

// ClampAvailability bounds a requested available count into [0, physical].
// Over-requests are silently truncated rather than rejected; callers that
// care can compare the requested and applied values.
func ClampAvailability(requested, physical int) int {
	if requested > physical {
		return physical
	}
	if requested < 0 {
		return 0
	}
	return requested
}

// ResolveAvailability computes the availability to store for one ledger row.
// existing is the row's current available count, or nil when the row does not
// exist yet; in that case INCREMENT starts from zero and DECREMENT starts
// from the physical count.  The result is always clamped into [0, physical].
func ResolveAvailability(updateType string, value int, existing *int, physical int) int {
	var requested int
	switch updateType {
	case UpdateIncrement:
		base := 0
		if existing != nil {
			base = *existing
		}
		requested = base + value
	case UpdateDecrement:
		base := physical
		if existing != nil {
			base = *existing
		}
		requested = base - value
	default: // SET
		requested = value
	}
	return ClampAvailability(requested, physical)
}
