// Package service implements the ARI core orchestration: the reservation
// committer, the rate cascade engine, the quote service and the booking
// saga.  Services own the business invariants; repositories only move rows.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
)

// GuestInput names one occupant on a booking request.
type GuestInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// BookParams carries everything the committer needs to create a stay.
type BookParams struct {
	Context      model.RequestContext
	RoomTypeID   uint64
	RatePlanCode string
	CheckIn      time.Time
	CheckOut     time.Time
	Quantity     int
	Adults       int
	Children     int
	TotalAmount  float64
	Currency     string
	Guests       []GuestInput
}

// CommitResult is returned when a reservation was created.
type CommitResult struct {
	ReservationID uint64 `json:"reservationId"`
	PNR           string `json:"pnr"`
}

// Committer atomically turns a validated booking into persisted state: it
// decrements every night's availability, then creates the reservation, its
// folio and its guest rows, all inside one transaction.  Either every night
// is consumed and all rows exist, or nothing is observable.
type Committer struct {
	inventory    *repository.InventoryRepo
	reservations *repository.ReservationRepo
	events       *repository.AriEventRepo
}

// NewCommitter constructs a Committer over the given repositories.
func NewCommitter(inventory *repository.InventoryRepo, reservations *repository.ReservationRepo, events *repository.AriEventRepo) *Committer {
	if inventory == nil || reservations == nil || events == nil {
		panic("nil repository passed to NewCommitter")
	}
	return &Committer{inventory: inventory, reservations: reservations, events: events}
}

// newPNR builds a short human-facing reference code.
func newPNR() string {
	return "PNR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Commit performs the all-or-nothing reservation write.  It returns
// repository.ErrInventoryUnavailable when any night in the stay lacks the
// requested quantity; in that case the transaction is rolled back and no
// partial decrement survives.
func (cm *Committer) Commit(ctx context.Context, p BookParams) (*CommitResult, error) {
	nights := ari.Nights(p.CheckIn, p.CheckOut)
	if nights == 0 {
		return nil, fmt.Errorf("stay has no nights: %w", repository.ErrInventoryUnavailable)
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}

	tx, err := cm.inventory.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Conditional decrement: only rows with available >= quantity move.  A
	// row count short of the night count means at least one night lost the
	// race (or was never opened for sale) and the whole attempt aborts.
	rows, err := cm.inventory.DecrementRangeTx(ctx, tx, p.Context.PropertyID, p.RoomTypeID, p.CheckIn, p.CheckOut, p.Quantity)
	if err != nil {
		return nil, fmt.Errorf("decrement inventory: %w", err)
	}
	if rows != int64(nights) {
		return nil, fmt.Errorf("%d of %d nights available: %w", rows, nights, repository.ErrInventoryUnavailable)
	}

	res := &model.Reservation{
		PNR:          newPNR(),
		PropertyID:   p.Context.PropertyID,
		RoomTypeID:   p.RoomTypeID,
		RatePlanCode: p.RatePlanCode,
		CheckIn:      p.CheckIn,
		CheckOut:     p.CheckOut,
		Adults:       max(p.Adults, 1),
		Children:     p.Children,
		TotalAmount:  p.TotalAmount,
		Currency:     p.Currency,
		Status:       model.ReservationStatusConfirmed,
	}
	if err := cm.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	folio := &model.Folio{ReservationID: res.ID, Balance: p.TotalAmount, Currency: p.Currency}
	if err := cm.reservations.CreateFolioTx(ctx, tx, folio); err != nil {
		return nil, fmt.Errorf("create folio: %w", err)
	}

	guests := guestRows(res.ID, p.Guests)
	if err := cm.reservations.CreateGuestsTx(ctx, tx, guests); err != nil {
		return nil, fmt.Errorf("create reservation guests: %w", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"action":    "BOOKING_DECREMENT",
		"pnr":       res.PNR,
		"quantity":  p.Quantity,
		"nights":    nights,
		"requestId": p.Context.RequestID,
	})
	ev := &model.AriEvent{
		PropertyID: p.Context.PropertyID,
		RoomTypeID: p.RoomTypeID,
		EventType:  model.AriEventAvailability,
		DateFrom:   p.CheckIn,
		DateTo:     p.CheckOut,
		Payload:    string(payload),
		Status:     model.AriEventStatusApplied,
	}
	if err := cm.events.AppendTx(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("append booking audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	_ = PublishAriEvent(ctx, ev)
	return &CommitResult{ReservationID: res.ID, PNR: res.PNR}, nil
}

// guestRows maps request occupants to rows, substituting a single default
// occupant when the request names nobody.
func guestRows(reservationID uint64, in []GuestInput) []model.ReservationGuest {
	if len(in) == 0 {
		return []model.ReservationGuest{{
			ReservationID: reservationID,
			FirstName:     "Guest",
			LastName:      "Primary",
			IsPrimary:     true,
		}}
	}
	out := make([]model.ReservationGuest, 0, len(in))
	for i, g := range in {
		out = append(out, model.ReservationGuest{
			ReservationID: reservationID,
			FirstName:     g.FirstName,
			LastName:      g.LastName,
			Email:         g.Email,
			IsPrimary:     i == 0,
		})
	}
	return out
}
