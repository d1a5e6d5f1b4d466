// Package repository implements raw-SQL data access for the property
// management core.  Methods whose names end in Tx operate inside a caller
// supplied transaction; the caller must commit or roll back.  This file
// defines the sentinel errors shared across repositories so that services
// and handlers can branch on failure class without string matching.
package repository

import "errors"

// ErrRoomTypeNotFound is returned when a room type code or id does not
// resolve within the request's property.  Handlers translate it to 404.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrRatePlanNotFound is returned when a rate plan code does not resolve
// within the request's property.  Handlers translate it to 404.
var ErrRatePlanNotFound = errors.New("rate plan not found")

// ErrInventoryUnavailable is returned by the reservation committer when the
// conditional decrement touched fewer rows than the stay has nights.  The
// whole transaction is rolled back; no partial decrement survives.
var ErrInventoryUnavailable = errors.New("inventory unavailable")

// ErrIdempotencyInProgress is returned when a booking key already holds a
// PENDING record.  The original request is still running; callers should
// retry later.
var ErrIdempotencyInProgress = errors.New("request already in progress")

// ErrIdempotencyFailed is returned when a booking key was previously marked
// FAILED.  Failed keys stay failed; callers must send a fresh key.
var ErrIdempotencyFailed = errors.New("previous request with this key failed")

// ErrPricingMismatch is returned when the quote signature or cached quote no
// longer matches the submitted price.  Handlers translate it to 409 and the
// caller must re-quote.
var ErrPricingMismatch = errors.New("quote price mismatch")
