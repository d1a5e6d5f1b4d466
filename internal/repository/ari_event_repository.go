package repository

import (
	"context"
	"database/sql"

	"github.com/stayloop/pms/internal/model"
)

// AriEventRepo appends to the audit trail.  Rows are append-only: there is
// no update or delete method on purpose.
type AriEventRepo struct {
	db *sql.DB
}

// NewAriEventRepo returns a new AriEventRepo bound to the given database.
func NewAriEventRepo(db *sql.DB) *AriEventRepo { return &AriEventRepo{db: db} }

const insertAriEvent = `INSERT INTO ari_events
	(property_id, room_type_id, event_type, date_from, date_to, payload, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// AppendTx appends one audit row inside the caller's transaction so the
// event commits or rolls back together with the mutation it records.
func (r *AriEventRepo) AppendTx(ctx context.Context, tx *sql.Tx, ev *model.AriEvent) error {
	res, err := tx.ExecContext(ctx, insertAriEvent,
		ev.PropertyID, ev.RoomTypeID, ev.EventType, ev.DateFrom, ev.DateTo, ev.Payload, ev.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// Append appends one audit row outside any transaction.  Used by paths
// where an audit failure must not roll back the underlying state change;
// callers log the error and continue.
func (r *AriEventRepo) Append(ctx context.Context, ev *model.AriEvent) error {
	res, err := r.db.ExecContext(ctx, insertAriEvent,
		ev.PropertyID, ev.RoomTypeID, ev.EventType, ev.DateFrom, ev.DateTo, ev.Payload, ev.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}
