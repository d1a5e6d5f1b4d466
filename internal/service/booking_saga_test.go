package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/utils"
)

// memLedger mimics the idempotency table: first Acquire for a key claims
// it, later ones return the stored record.
type memLedger struct {
	records map[string]*model.IdempotencyRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[string]*model.IdempotencyRecord{}}
}

func (m *memLedger) Acquire(_ context.Context, key, requestID string) (*model.IdempotencyRecord, error) {
	if rec, ok := m.records[key]; ok {
		cp := *rec
		return &cp, nil
	}
	m.records[key] = &model.IdempotencyRecord{Key: key, Status: model.IdempotencyStatusPending, RequestID: requestID}
	return nil, nil
}

func (m *memLedger) MarkSuccess(_ context.Context, key, resultJSON string) error {
	rec, ok := m.records[key]
	if !ok || rec.Status != model.IdempotencyStatusPending {
		return errors.New("no pending record")
	}
	rec.Status = model.IdempotencyStatusSuccess
	rec.Result = &resultJSON
	return nil
}

func (m *memLedger) MarkFailed(_ context.Context, key, errMsg string) error {
	rec, ok := m.records[key]
	if !ok || rec.Status != model.IdempotencyStatusPending {
		return errors.New("no pending record")
	}
	rec.Status = model.IdempotencyStatusFailed
	rec.Result = &errMsg
	return nil
}

type stubQuotes struct {
	claims *utils.QuoteClaims
	err    error
}

func (s *stubQuotes) Verify(_ context.Context, _ string, _ uint64, _ float64, _ string) (*utils.QuoteClaims, error) {
	return s.claims, s.err
}

type stubCommitter struct {
	result *CommitResult
	err    error
	calls  int
}

func (s *stubCommitter) Commit(_ context.Context, _ BookParams) (*CommitResult, error) {
	s.calls++
	return s.result, s.err
}

type stubInventory struct {
	available int
	err       error
}

func (s *stubInventory) MinAvailable(_ context.Context, _, _ uint64, _, _ time.Time) (int, error) {
	return s.available, s.err
}

func validClaims() *utils.QuoteClaims {
	return &utils.QuoteClaims{
		QuoteID:      "q-1",
		PropertyID:   7,
		RoomTypeCode: "DLX",
		RatePlanCode: "BAR",
		CheckIn:      "2026-06-01",
		CheckOut:     "2026-06-04",
		Total:        540,
		Currency:     "USD",
	}
}

func validRequest() BookingRequest {
	return BookingRequest{
		Context:        model.RequestContext{PropertyID: 7, RequestID: "req-1"},
		IdempotencyKey: "key-1",
		RoomTypeID:     11,
		RatePlanCode:   "BAR",
		CheckIn:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC),
		QuoteToken:     "token",
		TotalAmount:    540,
		Currency:       "USD",
		Adults:         2,
	}
}

func TestBookingSagaHappyPath(t *testing.T) {
	ledger := newMemLedger()
	committer := &stubCommitter{result: &CommitResult{ReservationID: 42, PNR: "PNR-ABCD1234"}}
	saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, committer, &stubInventory{available: 3})

	res, err := saga.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !res.Success || res.State != SagaStateConfirmed {
		t.Fatalf("result = %+v, want confirmed success", res)
	}
	if res.ReservationID != 42 || res.PNR != "PNR-ABCD1234" {
		t.Errorf("result ids = %d/%s, want 42/PNR-ABCD1234", res.ReservationID, res.PNR)
	}
	rec := ledger.records["key-1"]
	if rec == nil || rec.Status != model.IdempotencyStatusSuccess {
		t.Fatalf("ledger record = %+v, want SUCCESS", rec)
	}
	if rec.Result == nil {
		t.Fatal("ledger record should carry the stored result")
	}
}

func TestBookingSagaReplaysCompletedKey(t *testing.T) {
	ledger := newMemLedger()
	stored := `{"reservationId":42,"pnr":"PNR-ABCD1234"}`
	ledger.records["key-1"] = &model.IdempotencyRecord{
		Key:    "key-1",
		Status: model.IdempotencyStatusSuccess,
		Result: &stored,
	}
	committer := &stubCommitter{result: &CommitResult{ReservationID: 99, PNR: "PNR-OTHER"}}
	saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, committer, &stubInventory{available: 3})

	res, err := saga.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !res.Replayed {
		t.Fatal("expected a replayed result")
	}
	if res.ReservationID != 42 || res.PNR != "PNR-ABCD1234" {
		t.Errorf("replayed ids = %d/%s, want the original 42/PNR-ABCD1234", res.ReservationID, res.PNR)
	}
	if committer.calls != 0 {
		t.Errorf("committer called %d times on replay, want 0", committer.calls)
	}
}

func TestBookingSagaKeyConflicts(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"in flight", model.IdempotencyStatusPending, repository.ErrIdempotencyInProgress},
		{"previously failed", model.IdempotencyStatusFailed, repository.ErrIdempotencyFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newMemLedger()
			ledger.records["key-1"] = &model.IdempotencyRecord{Key: "key-1", Status: tc.status}
			committer := &stubCommitter{}
			saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, committer, &stubInventory{available: 3})

			_, err := saga.Book(context.Background(), validRequest())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if committer.calls != 0 {
				t.Errorf("committer called %d times, want 0", committer.calls)
			}
		})
	}
}

func TestBookingSagaPricingMismatchFailsKey(t *testing.T) {
	ledger := newMemLedger()
	committer := &stubCommitter{}
	quotes := &stubQuotes{err: repository.ErrPricingMismatch}
	saga := NewBookingSaga(ledger, quotes, committer, &stubInventory{available: 3})

	res, err := saga.Book(context.Background(), validRequest())
	if !errors.Is(err, repository.ErrPricingMismatch) {
		t.Fatalf("err = %v, want pricing mismatch", err)
	}
	if res.State != SagaStateFailed {
		t.Errorf("state = %s, want %s", res.State, SagaStateFailed)
	}
	if committer.calls != 0 {
		t.Errorf("committer called %d times, want 0", committer.calls)
	}
	if rec := ledger.records["key-1"]; rec == nil || rec.Status != model.IdempotencyStatusFailed {
		t.Fatalf("ledger record = %+v, want FAILED", rec)
	}
}

func TestBookingSagaInventoryUnavailable(t *testing.T) {
	ledger := newMemLedger()
	committer := &stubCommitter{}
	saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, committer, &stubInventory{available: 0})

	_, err := saga.Book(context.Background(), validRequest())
	if !errors.Is(err, repository.ErrInventoryUnavailable) {
		t.Fatalf("err = %v, want inventory unavailable", err)
	}
	if committer.calls != 0 {
		t.Errorf("committer called %d times, want 0", committer.calls)
	}
	if rec := ledger.records["key-1"]; rec == nil || rec.Status != model.IdempotencyStatusFailed {
		t.Fatalf("ledger record = %+v, want FAILED", rec)
	}
}

func TestBookingSagaCommitFailureFailsKey(t *testing.T) {
	ledger := newMemLedger()
	committer := &stubCommitter{err: repository.ErrInventoryUnavailable}
	saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, committer, &stubInventory{available: 3})

	_, err := saga.Book(context.Background(), validRequest())
	if !errors.Is(err, repository.ErrInventoryUnavailable) {
		t.Fatalf("err = %v, want inventory unavailable", err)
	}
	if rec := ledger.records["key-1"]; rec == nil || rec.Status != model.IdempotencyStatusFailed {
		t.Fatalf("ledger record = %+v, want FAILED", rec)
	}
}

func TestBookingSagaRejectsIncompleteRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"missing property", func(r *BookingRequest) { r.Context.PropertyID = 0 }},
		{"missing idempotency key", func(r *BookingRequest) { r.IdempotencyKey = "" }},
		{"missing quote token", func(r *BookingRequest) { r.QuoteToken = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newMemLedger()
			saga := NewBookingSaga(ledger, &stubQuotes{claims: validClaims()}, &stubCommitter{}, &stubInventory{available: 3})

			req := validRequest()
			tc.mutate(&req)
			if _, err := saga.Book(context.Background(), req); err == nil {
				t.Fatal("expected a validation error")
			}
			if len(ledger.records) != 0 {
				t.Errorf("ledger touched before validation passed: %d records", len(ledger.records))
			}
		})
	}
}
