package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stayloop/pms/internal/model"
)

// InventoryRepo persists the inventory ledger: one row per (property, room
// type, stay date).  All mutation methods are Tx-scoped because every ledger
// write must share a transaction with the physical-count snapshot that
// produced its clamp value.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *InventoryRepo) DB() *sql.DB { return r.db }

// GetForDateTx loads the ledger row for one date, or nil when the row has
// not been created yet.  Rows are created lazily on first mutation.
func (r *InventoryRepo) GetForDateTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time) (*model.Inventory, error) {
	const q = `SELECT id, property_id, room_type_id, stay_date, total, available, booked, price, created_at, updated_at
	           FROM inventory WHERE property_id = ? AND room_type_id = ? AND stay_date = ?`
	var inv model.Inventory
	var price sql.NullFloat64
	err := tx.QueryRowContext(ctx, q, propertyID, roomTypeID, date).Scan(
		&inv.ID, &inv.PropertyID, &inv.RoomTypeID, &inv.StayDate,
		&inv.Total, &inv.Available, &inv.Booked, &price, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if price.Valid {
		p := price.Float64
		inv.Price = &p
	}
	return &inv, nil
}

// UpsertAvailabilityTx writes total and available for one date, creating the
// row when absent.  Booked is preserved on update.  The caller supplies
// already-clamped values; total must be the physical count snapshotted in
// this same transaction.
func (r *InventoryRepo) UpsertAvailabilityTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, total, available int) error {
	const q = `INSERT INTO inventory (property_id, room_type_id, stay_date, total, available, booked)
	           VALUES (?, ?, ?, ?, ?, 0)
	           ON DUPLICATE KEY UPDATE total = VALUES(total), available = VALUES(available)`
	_, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date, total, available)
	return err
}

// UpsertPriceTx writes the cached sell price for one date.  A fresh row is
// created closed for sale (available 0): pricing a date does not open its
// inventory, which keeps the read path's missing-row-means-unopened rule
// honest.  On an existing row total is resynchronized to the physical count
// and available is clamped down to it, so a price write can never leave
// available above capacity after rooms go out of order.
func (r *InventoryRepo) UpsertPriceTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, total int, price float64) error {
	const q = `INSERT INTO inventory (property_id, room_type_id, stay_date, total, available, booked, price)
	           VALUES (?, ?, ?, ?, 0, 0, ?)
	           ON DUPLICATE KEY UPDATE total = VALUES(total), available = LEAST(available, VALUES(total)), price = VALUES(price)`
	_, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date, total, price)
	return err
}

// DecrementRangeTx conditionally consumes quantity units for every night in
// [checkIn, checkOut).  Only rows with enough availability are touched; the
// returned count is the number of nights actually decremented.  The caller
// compares it against the nights requested and rolls back on mismatch — this
// conditional update is the sole mutual-exclusion point for competing
// bookings.
func (r *InventoryRepo) DecrementRangeTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, checkIn, checkOut time.Time, quantity int) (int64, error) {
	const q = `UPDATE inventory
	           SET available = available - ?, booked = booked + ?
	           WHERE property_id = ? AND room_type_id = ?
	             AND stay_date >= ? AND stay_date < ?
	             AND available >= ?`
	res, err := tx.ExecContext(ctx, q, quantity, quantity, propertyID, roomTypeID, checkIn, checkOut, quantity)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MinAvailable returns the availability of the tightest night in
// [checkIn, checkOut).  A night with no ledger row has never been opened
// for sale, so any missing row makes the whole range read as zero.
func (r *InventoryRepo) MinAvailable(ctx context.Context, propertyID, roomTypeID uint64, checkIn, checkOut time.Time) (int, error) {
	const q = `SELECT COUNT(*), COALESCE(MIN(available), 0)
	           FROM inventory
	           WHERE property_id = ? AND room_type_id = ?
	             AND stay_date >= ? AND stay_date < ?`
	var count, minAvail int
	if err := r.db.QueryRowContext(ctx, q, propertyID, roomTypeID, checkIn, checkOut).Scan(&count, &minAvail); err != nil {
		return 0, err
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if count < nights {
		return 0, nil
	}
	return minAvail, nil
}

// ListRange returns ledger rows for a date range ordered by date.  Used by
// the admin grid; absent dates simply have no row.
func (r *InventoryRepo) ListRange(ctx context.Context, propertyID, roomTypeID uint64, from, to time.Time) ([]model.Inventory, error) {
	const q = `SELECT id, property_id, room_type_id, stay_date, total, available, booked, price, created_at, updated_at
	           FROM inventory
	           WHERE property_id = ? AND room_type_id = ? AND stay_date >= ? AND stay_date <= ?
	           ORDER BY stay_date`
	rows, err := r.db.QueryContext(ctx, q, propertyID, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Inventory, 0)
	for rows.Next() {
		var inv model.Inventory
		var price sql.NullFloat64
		if err := rows.Scan(
			&inv.ID, &inv.PropertyID, &inv.RoomTypeID, &inv.StayDate,
			&inv.Total, &inv.Available, &inv.Booked, &price, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Float64
			inv.Price = &p
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
