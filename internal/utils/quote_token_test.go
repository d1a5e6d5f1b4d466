package utils

import (
	"errors"
	"testing"
	"time"
)

func sampleClaims() QuoteClaims {
	return QuoteClaims{
		QuoteID:      "q-123",
		PropertyID:   7,
		RoomTypeCode: "DLX",
		RatePlanCode: "BAR",
		CheckIn:      "2026-06-01",
		CheckOut:     "2026-06-04",
		Total:        540.99,
		Currency:     "USD",
	}
}

func TestQuoteTokenRoundTrip(t *testing.T) {
	raw, err := SignQuoteToken("secret", sampleClaims(), time.Minute)
	if err != nil {
		t.Fatalf("SignQuoteToken: %v", err)
	}
	qc, err := ParseQuoteToken("secret", raw)
	if err != nil {
		t.Fatalf("ParseQuoteToken: %v", err)
	}
	want := sampleClaims()
	if *qc != want {
		t.Errorf("claims = %+v, want %+v", *qc, want)
	}
}

func TestQuoteTokenRejectsWrongSecret(t *testing.T) {
	raw, err := SignQuoteToken("secret", sampleClaims(), time.Minute)
	if err != nil {
		t.Fatalf("SignQuoteToken: %v", err)
	}
	if _, err := ParseQuoteToken("other-secret", raw); !errors.Is(err, ErrInvalidQuoteToken) {
		t.Fatalf("err = %v, want ErrInvalidQuoteToken", err)
	}
}

func TestQuoteTokenRejectsExpired(t *testing.T) {
	raw, err := SignQuoteToken("secret", sampleClaims(), -time.Minute)
	if err != nil {
		t.Fatalf("SignQuoteToken: %v", err)
	}
	if _, err := ParseQuoteToken("secret", raw); !errors.Is(err, ErrInvalidQuoteToken) {
		t.Fatalf("err = %v, want ErrInvalidQuoteToken", err)
	}
}

func TestQuoteTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseQuoteToken("secret", "not.a.token"); !errors.Is(err, ErrInvalidQuoteToken) {
		t.Fatalf("err = %v, want ErrInvalidQuoteToken", err)
	}
}
