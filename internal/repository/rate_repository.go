package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayloop/pms/internal/model"
)

// RateRepo persists explicit rate amounts.  The override invariant — a
// manual override must never be clobbered by a cascade — is enforced in the
// cascade engine as an explicit read-then-branch, so the write methods here
// stay unconditional and the invariant is visible in application code
// rather than hidden in an upsert clause.
type RateRepo struct {
	db *sql.DB
}

// NewRateRepo returns a new RateRepo bound to the given database.
func NewRateRepo(db *sql.DB) *RateRepo { return &RateRepo{db: db} }

const rateColumns = `id, property_id, room_type_id, stay_date, rate_plan_code, amount, is_manual_override, created_at, updated_at`

func scanRate(row interface{ Scan(...interface{}) error }) (*model.Rate, error) {
	var rt model.Rate
	err := row.Scan(
		&rt.ID, &rt.PropertyID, &rt.RoomTypeID, &rt.StayDate,
		&rt.RatePlanCode, &rt.Amount, &rt.IsManualOverride,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// GetTx loads the explicit rate row for one (room type, date, plan) tuple
// inside a transaction, or nil when no explicit row exists.
func (r *RateRepo) GetTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM rates
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?`
	rt, err := scanRate(tx.QueryRowContext(ctx, q, propertyID, roomTypeID, date, planCode))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rt, err
}

// Get is the non-transactional variant used by read paths (quotes, grid).
func (r *RateRepo) Get(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM rates
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?`
	rt, err := scanRate(r.db.QueryRowContext(ctx, q, propertyID, roomTypeID, date, planCode))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rt, err
}

// UpsertTx writes an amount for one (room type, date, plan) tuple, creating
// the row when absent.  isManualOverride records whether this write was an
// explicit administrator price (true for direct writes on derived plans,
// false for cascade-computed values).
func (r *RateRepo) UpsertTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string, amount float64, isManualOverride bool) error {
	const q = `INSERT INTO rates (property_id, room_type_id, stay_date, rate_plan_code, amount, is_manual_override)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE amount = VALUES(amount), is_manual_override = VALUES(is_manual_override)`
	_, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date, planCode, amount, isManualOverride)
	return err
}

// DeleteTx removes the explicit rate row for one tuple.  Used when clearing
// a manual override before the eager recompute runs.
func (r *RateRepo) DeleteTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string) error {
	const q = `DELETE FROM rates
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?`
	_, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date, planCode)
	return err
}

// ListForDate returns all explicit rate rows for one (room type, date),
// keyed by plan code.  Used by the admin grid.
func (r *RateRepo) ListForDate(ctx context.Context, propertyID, roomTypeID uint64, from, to time.Time) ([]model.Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM rates
	           WHERE property_id = ? AND room_type_id = ? AND stay_date >= ? AND stay_date <= ?
	           ORDER BY stay_date, rate_plan_code`
	rows, err := r.db.QueryContext(ctx, q, propertyID, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Rate, 0)
	for rows.Next() {
		rt, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
