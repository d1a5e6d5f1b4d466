package model

import "time"

// Idempotency record status values.  A record is created as PENDING on the
// first attempt for a key and transitions to SUCCESS or FAILED exactly once.
const (
	IdempotencyStatusPending = "PENDING"
	IdempotencyStatusSuccess = "SUCCESS"
	IdempotencyStatusFailed  = "FAILED"
)

// IdempotencyRecord deduplicates booking attempts keyed by a client-supplied
// idempotency key.  Holding the PENDING row is the lock: a second attempt for
// the same key hits the unique index and is rejected until the first attempt
// reaches a terminal state.
type IdempotencyRecord struct {
	ID        uint64    // idempotency_records.id
	Key       string    // idempotency_records.idempotency_key
	Status    string    // idempotency_records.status
	Result    *string   // idempotency_records.result (JSON payload, nullable)
	RequestID string    // idempotency_records.request_id
	CreatedAt time.Time // idempotency_records.created_at
	UpdatedAt time.Time // idempotency_records.updated_at
}
