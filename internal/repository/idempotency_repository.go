package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/stayloop/pms/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique-key violation.
const mysqlDuplicateEntry = 1062

// IdempotencyRepo persists the booking idempotency ledger.  Inserting the
// PENDING row is the lock: the unique index on idempotency_key guarantees
// at most one in-flight attempt per key.  There is no lease or timeout on
// the lock — a crashed process leaves its key PENDING until operators
// intervene — and FAILED keys are terminal by design; retries need a fresh
// key.
type IdempotencyRepo struct {
	db *sql.DB
}

// NewIdempotencyRepo returns a new IdempotencyRepo bound to the database.
func NewIdempotencyRepo(db *sql.DB) *IdempotencyRepo { return &IdempotencyRepo{db: db} }

// Acquire attempts to create the PENDING record for a key.  On success it
// returns (nil, nil): the caller now owns the key.  When the key already
// exists, the existing record is returned so the saga can branch on its
// status (SUCCESS → replay cached result, PENDING → in progress, FAILED →
// permanently failed).
func (r *IdempotencyRepo) Acquire(ctx context.Context, key, requestID string) (*model.IdempotencyRecord, error) {
	const ins = `INSERT INTO idempotency_records (idempotency_key, status, request_id) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, ins, key, model.IdempotencyStatusPending, requestID)
	if err == nil {
		return nil, nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return nil, err
	}
	return r.Get(ctx, key)
}

// Get loads the record for a key.  Returns sql.ErrNoRows when absent.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*model.IdempotencyRecord, error) {
	const q = `SELECT id, idempotency_key, status, result, request_id, created_at, updated_at
	           FROM idempotency_records WHERE idempotency_key = ?`
	var rec model.IdempotencyRecord
	var result sql.NullString
	err := r.db.QueryRowContext(ctx, q, key).Scan(
		&rec.ID, &rec.Key, &rec.Status, &result, &rec.RequestID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		s := result.String
		rec.Result = &s
	}
	return &rec, nil
}

// MarkSuccess transitions a PENDING record to SUCCESS with the cached
// result payload.  The status guard keeps the transition one-shot.
func (r *IdempotencyRepo) MarkSuccess(ctx context.Context, key, resultJSON string) error {
	const q = `UPDATE idempotency_records SET status = ?, result = ?
	           WHERE idempotency_key = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, q, model.IdempotencyStatusSuccess, resultJSON, key, model.IdempotencyStatusPending)
	return err
}

// MarkFailed transitions a PENDING record to FAILED with the error message.
// Callers treat this as best-effort: a failure to record the failure is
// logged and swallowed, never re-thrown.
func (r *IdempotencyRepo) MarkFailed(ctx context.Context, key, errMsg string) error {
	const q = `UPDATE idempotency_records SET status = ?, result = ?
	           WHERE idempotency_key = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, q, model.IdempotencyStatusFailed, errMsg, key, model.IdempotencyStatusPending)
	return err
}
