package repository

import (
	"context"
	"database/sql"

	"github.com/stayloop/pms/internal/model"
)

// RoomTypeRepo provides lookups on room types and their physical rooms.
// Room type CRUD itself lives in the admin surfaces; the core only reads.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo returns a new RoomTypeRepo bound to the given database.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span multiple repositories.
func (r *RoomTypeRepo) DB() *sql.DB { return r.db }

// GetByCode resolves a room type by its property-scoped code.  Returns
// ErrRoomTypeNotFound when no such row exists.
func (r *RoomTypeRepo) GetByCode(ctx context.Context, propertyID uint64, code string) (*model.RoomType, error) {
	const q = `SELECT id, property_id, code, name, max_guests, created_at, updated_at
	           FROM room_types WHERE property_id = ? AND code = ?`
	var rt model.RoomType
	err := r.db.QueryRowContext(ctx, q, propertyID, code).Scan(
		&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.MaxGuests, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRoomTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// GetByID resolves a room type by id within a property.  Returns
// ErrRoomTypeNotFound when the id does not exist or belongs to another
// property.
func (r *RoomTypeRepo) GetByID(ctx context.Context, propertyID, id uint64) (*model.RoomType, error) {
	const q = `SELECT id, property_id, code, name, max_guests, created_at, updated_at
	           FROM room_types WHERE property_id = ? AND id = ?`
	var rt model.RoomType
	err := r.db.QueryRowContext(ctx, q, propertyID, id).Scan(
		&rt.ID, &rt.PropertyID, &rt.Code, &rt.Name, &rt.MaxGuests, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRoomTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// PhysicalCountTx counts the rooms of a type that are not withdrawn from
// service.  It runs inside the caller's transaction so the clamp value and
// the ledger write observe the same snapshot; a room going out of order
// concurrently cannot slip between the count and the write.
func (r *RoomTypeRepo) PhysicalCountTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rooms
	           WHERE property_id = ? AND room_type_id = ? AND status <> ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, propertyID, roomTypeID, model.RoomStatusOutOfOrder).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
