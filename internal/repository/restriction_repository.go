package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stayloop/pms/internal/model"
)

// RestrictionField is the closed set of single-cell restriction columns.
// Each field maps to a fixed upsert statement; no column name is ever
// interpolated into SQL from request input.
type RestrictionField string

const (
	FieldClosed            RestrictionField = "closed"
	FieldClosedToArrival   RestrictionField = "closedToArrival"
	FieldClosedToDeparture RestrictionField = "closedToDeparture"
	FieldMinLOS            RestrictionField = "minLOS"
	FieldMaxLOS            RestrictionField = "maxLOS"
)

// ErrUnknownRestrictionField is returned for a field outside the closed set.
var ErrUnknownRestrictionField = errors.New("unknown restriction field")

const (
	upsertClosed = `INSERT INTO restrictions (property_id, room_type_id, stay_date, rate_plan_code, closed)
	                VALUES (?, ?, ?, ?, ?)
	                ON DUPLICATE KEY UPDATE closed = VALUES(closed)`
	upsertClosedToArrival = `INSERT INTO restrictions (property_id, room_type_id, stay_date, rate_plan_code, closed_to_arrival)
	                VALUES (?, ?, ?, ?, ?)
	                ON DUPLICATE KEY UPDATE closed_to_arrival = VALUES(closed_to_arrival)`
	upsertClosedToDeparture = `INSERT INTO restrictions (property_id, room_type_id, stay_date, rate_plan_code, closed_to_departure)
	                VALUES (?, ?, ?, ?, ?)
	                ON DUPLICATE KEY UPDATE closed_to_departure = VALUES(closed_to_departure)`
	upsertMinLOS = `INSERT INTO restrictions (property_id, room_type_id, stay_date, rate_plan_code, min_los)
	                VALUES (?, ?, ?, ?, ?)
	                ON DUPLICATE KEY UPDATE min_los = VALUES(min_los)`
	upsertMaxLOS = `INSERT INTO restrictions (property_id, room_type_id, stay_date, rate_plan_code, max_los)
	                VALUES (?, ?, ?, ?, ?)
	                ON DUPLICATE KEY UPDATE max_los = VALUES(max_los)`
)

// RestrictionRepo persists sell restrictions per (property, room type, date,
// plan).
type RestrictionRepo struct {
	db *sql.DB
}

// NewRestrictionRepo returns a new RestrictionRepo bound to the database.
func NewRestrictionRepo(db *sql.DB) *RestrictionRepo { return &RestrictionRepo{db: db} }

// SetFieldTx upserts exactly one restriction field, creating the row with
// defaults when absent.  Boolean fields expect value 0 or 1; LOS fields take
// the night count.
func (r *RestrictionRepo) SetFieldTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string, field RestrictionField, value int) error {
	var q string
	switch field {
	case FieldClosed:
		q = upsertClosed
	case FieldClosedToArrival:
		q = upsertClosedToArrival
	case FieldClosedToDeparture:
		q = upsertClosedToDeparture
	case FieldMinLOS:
		q = upsertMinLOS
	case FieldMaxLOS:
		q = upsertMaxLOS
	default:
		return ErrUnknownRestrictionField
	}
	_, err := tx.ExecContext(ctx, q, propertyID, roomTypeID, date, planCode, value)
	return err
}

// Get loads the restriction row for one tuple, or nil when absent (meaning
// fully unrestricted).
func (r *RestrictionRepo) Get(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Restriction, error) {
	const q = `SELECT id, property_id, room_type_id, stay_date, rate_plan_code,
	                  min_los, max_los, closed_to_arrival, closed_to_departure, closed,
	                  created_at, updated_at
	           FROM restrictions
	           WHERE property_id = ? AND room_type_id = ? AND stay_date = ? AND rate_plan_code = ?`
	var rs model.Restriction
	err := r.db.QueryRowContext(ctx, q, propertyID, roomTypeID, date, planCode).Scan(
		&rs.ID, &rs.PropertyID, &rs.RoomTypeID, &rs.StayDate, &rs.RatePlanCode,
		&rs.MinLOS, &rs.MaxLOS, &rs.ClosedToArrival, &rs.ClosedToDeparture, &rs.Closed,
		&rs.CreatedAt, &rs.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// ListRange returns restriction rows for a date range ordered by date.
func (r *RestrictionRepo) ListRange(ctx context.Context, propertyID, roomTypeID uint64, from, to time.Time) ([]model.Restriction, error) {
	const q = `SELECT id, property_id, room_type_id, stay_date, rate_plan_code,
	                  min_los, max_los, closed_to_arrival, closed_to_departure, closed,
	                  created_at, updated_at
	           FROM restrictions
	           WHERE property_id = ? AND room_type_id = ? AND stay_date >= ? AND stay_date <= ?
	           ORDER BY stay_date, rate_plan_code`
	rows, err := r.db.QueryContext(ctx, q, propertyID, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Restriction, 0)
	for rows.Next() {
		var rs model.Restriction
		if err := rows.Scan(
			&rs.ID, &rs.PropertyID, &rs.RoomTypeID, &rs.StayDate, &rs.RatePlanCode,
			&rs.MinLOS, &rs.MaxLOS, &rs.ClosedToArrival, &rs.ClosedToDeparture, &rs.Closed,
			&rs.CreatedAt, &rs.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
