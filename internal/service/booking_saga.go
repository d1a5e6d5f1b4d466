package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/utils"
)

// Booking saga states, in the order a successful booking passes through
// them.  FAILED is reachable from every state.
const (
	SagaStateInit                = "INIT"
	SagaStateContextValidated    = "CONTEXT_VALIDATED"
	SagaStateIdempotencyChecked  = "IDEMPOTENCY_CHECKED"
	SagaStateQuoteValidated      = "QUOTE_VALIDATED"
	SagaStateAvailabilityRecheck = "AVAILABILITY_RECHECKED"
	SagaStateReservationCreated  = "RESERVATION_CREATED"
	SagaStateConfirmed           = "CONFIRMED"
	SagaStateFailed              = "FAILED"
)

// idempotencyStore is the slice of the idempotency ledger the saga uses.
type idempotencyStore interface {
	Acquire(ctx context.Context, key, requestID string) (*model.IdempotencyRecord, error)
	MarkSuccess(ctx context.Context, key, resultJSON string) error
	MarkFailed(ctx context.Context, key, errMsg string) error
}

// quoteVerifier validates a signed quote against the submitted booking.
type quoteVerifier interface {
	Verify(ctx context.Context, token string, propertyID uint64, submittedTotal float64, currency string) (*utils.QuoteClaims, error)
}

// reservationCommitter performs the atomic inventory-and-reservation write.
type reservationCommitter interface {
	Commit(ctx context.Context, p BookParams) (*CommitResult, error)
}

// availabilityChecker rechecks sellable inventory right before committing.
type availabilityChecker interface {
	MinAvailable(ctx context.Context, propertyID, roomTypeID uint64, from, to time.Time) (int, error)
}

// BookingRequest is one attempt to create a reservation.
type BookingRequest struct {
	Context        model.RequestContext
	IdempotencyKey string
	RoomTypeID     uint64
	RatePlanCode   string
	CheckIn        time.Time
	CheckOut       time.Time
	Quantity       int
	Adults         int
	Children       int
	QuoteToken     string
	TotalAmount    float64
	Currency       string
	Guests         []GuestInput
}

// BookingResult reports the outcome of one saga run.
type BookingResult struct {
	Success       bool   `json:"success"`
	State         string `json:"state"`
	ReservationID uint64 `json:"reservationId,omitempty"`
	PNR           string `json:"pnr,omitempty"`
	Replayed      bool   `json:"replayed,omitempty"`
}

// BookingSaga drives a booking through its state machine.  Every side
// effect happens after the idempotency key is acquired, so a replayed key
// never double-books; the committer itself is transactional, so a crash
// between states leaves at most a PENDING ledger row and no inventory
// change.
type BookingSaga struct {
	ledger    idempotencyStore
	quotes    quoteVerifier
	committer reservationCommitter
	inventory availabilityChecker
}

// NewBookingSaga constructs a BookingSaga.
func NewBookingSaga(ledger idempotencyStore, quotes quoteVerifier, committer reservationCommitter, inventory availabilityChecker) *BookingSaga {
	if ledger == nil || quotes == nil || committer == nil || inventory == nil {
		panic("nil dependency passed to NewBookingSaga")
	}
	return &BookingSaga{ledger: ledger, quotes: quotes, committer: committer, inventory: inventory}
}

// Book runs the saga.  On success the returned state is CONFIRMED; any
// failure yields FAILED with the causing error, and keys that already
// reached a terminal state keep their recorded outcome.
func (s *BookingSaga) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	state := SagaStateInit

	if !req.Context.Valid() {
		return &BookingResult{State: SagaStateFailed}, fmt.Errorf("booking context incomplete: property and request ids are required")
	}
	if req.IdempotencyKey == "" {
		return &BookingResult{State: SagaStateFailed}, fmt.Errorf("idempotency key is required")
	}
	if req.QuoteToken == "" {
		return &BookingResult{State: SagaStateFailed}, fmt.Errorf("quote token is required")
	}
	state = SagaStateContextValidated

	existing, err := s.ledger.Acquire(ctx, req.IdempotencyKey, req.Context.RequestID)
	if err != nil {
		return &BookingResult{State: SagaStateFailed}, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case model.IdempotencyStatusSuccess:
			return s.replay(existing)
		case model.IdempotencyStatusPending:
			return &BookingResult{State: SagaStateFailed}, repository.ErrIdempotencyInProgress
		default:
			return &BookingResult{State: SagaStateFailed}, repository.ErrIdempotencyFailed
		}
	}
	state = SagaStateIdempotencyChecked

	claims, err := s.quotes.Verify(ctx, req.QuoteToken, req.Context.PropertyID, req.TotalAmount, req.Currency)
	if err != nil {
		return s.fail(ctx, req.IdempotencyKey, state, err)
	}
	state = SagaStateQuoteValidated

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	avail, err := s.inventory.MinAvailable(ctx, req.Context.PropertyID, req.RoomTypeID, req.CheckIn, req.CheckOut)
	if err != nil {
		return s.fail(ctx, req.IdempotencyKey, state, err)
	}
	if avail < quantity {
		return s.fail(ctx, req.IdempotencyKey, state,
			fmt.Errorf("%d rooms left on the tightest night: %w", avail, repository.ErrInventoryUnavailable))
	}
	state = SagaStateAvailabilityRecheck

	result, err := s.committer.Commit(ctx, BookParams{
		Context:      req.Context,
		RoomTypeID:   req.RoomTypeID,
		RatePlanCode: claims.RatePlanCode,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		Quantity:     quantity,
		Adults:       req.Adults,
		Children:     req.Children,
		TotalAmount:  req.TotalAmount,
		Currency:     claims.Currency,
		Guests:       req.Guests,
	})
	if err != nil {
		return s.fail(ctx, req.IdempotencyKey, state, err)
	}
	state = SagaStateReservationCreated

	payload, err := json.Marshal(result)
	if err == nil {
		err = s.ledger.MarkSuccess(ctx, req.IdempotencyKey, string(payload))
	}
	if err != nil {
		// The reservation exists; a stuck PENDING key is the lesser
		// evil than failing a booked stay.
		log.Printf("booking: could not record success for key %s: %v", req.IdempotencyKey, err)
	}
	state = SagaStateConfirmed

	return &BookingResult{
		Success:       true,
		State:         state,
		ReservationID: result.ReservationID,
		PNR:           result.PNR,
	}, nil
}

// replay reconstructs the original result from the ledger row.
func (s *BookingSaga) replay(rec *model.IdempotencyRecord) (*BookingResult, error) {
	if rec.Result == nil {
		return nil, errors.New("idempotency record has no stored result")
	}
	var stored CommitResult
	if err := json.Unmarshal([]byte(*rec.Result), &stored); err != nil {
		return nil, fmt.Errorf("decode stored booking result: %w", err)
	}
	return &BookingResult{
		Success:       true,
		State:         SagaStateConfirmed,
		ReservationID: stored.ReservationID,
		PNR:           stored.PNR,
		Replayed:      true,
	}, nil
}

// fail marks the key FAILED best-effort and returns the causing error.
// The key stays FAILED for good; retrying a failed booking needs a fresh
// key and a fresh quote.
func (s *BookingSaga) fail(ctx context.Context, key, state string, cause error) (*BookingResult, error) {
	if err := s.ledger.MarkFailed(ctx, key, cause.Error()); err != nil {
		log.Printf("booking: could not mark key %s failed (reached %s): %v", key, state, err)
	}
	return &BookingResult{State: SagaStateFailed}, cause
}
