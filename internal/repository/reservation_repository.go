package repository

import (
	"context"
	"database/sql"

	"github.com/stayloop/pms/internal/model"
)

// ReservationRepo provides persistence for reservations, folios and their
// guests.  All write methods are Tx-scoped: a reservation only ever comes
// into existence inside the committer's transaction, together with its
// folio and at least one guest row.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new reservation and populates its generated ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(pnr, property_id, room_type_id, rate_plan_code, check_in, check_out, adults, children, total_amount, currency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.PNR, res.PropertyID, res.RoomTypeID, res.RatePlanCode,
		res.CheckIn, res.CheckOut, res.Adults, res.Children,
		res.TotalAmount, res.Currency, res.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// CreateFolioTx opens the reservation's folio with the agreed total as the
// opening balance.
func (r *ReservationRepo) CreateFolioTx(ctx context.Context, tx *sql.Tx, f *model.Folio) error {
	const q = `INSERT INTO folios (reservation_id, balance, currency) VALUES (?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, f.ReservationID, f.Balance, f.Currency)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// CreateGuestsTx inserts the occupant rows for a reservation in a single
// statement.  Passing an empty slice has no effect and returns nil; callers
// are expected to supply a default occupant instead.
func (r *ReservationRepo) CreateGuestsTx(ctx context.Context, tx *sql.Tx, guests []model.ReservationGuest) error {
	if len(guests) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_guests (reservation_id, first_name, last_name, email, is_primary) VALUES `
	args := make([]interface{}, 0, len(guests)*5)
	for i, g := range guests {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, g.ReservationID, g.FirstName, g.LastName, g.Email, g.IsPrimary)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByPNR loads a reservation by its reference code within a property.
// Returns sql.ErrNoRows when absent.
func (r *ReservationRepo) GetByPNR(ctx context.Context, propertyID uint64, pnr string) (*model.Reservation, error) {
	const q = `SELECT id, pnr, property_id, room_type_id, rate_plan_code, check_in, check_out,
	                  adults, children, total_amount, currency, status, created_at, updated_at
	           FROM reservations WHERE property_id = ? AND pnr = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, propertyID, pnr).Scan(
		&res.ID, &res.PNR, &res.PropertyID, &res.RoomTypeID, &res.RatePlanCode,
		&res.CheckIn, &res.CheckOut, &res.Adults, &res.Children,
		&res.TotalAmount, &res.Currency, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
