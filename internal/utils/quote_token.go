package utils // utils provides token helpers shared by the quote service and booking saga

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// QuoteClaims is the priced offer carried inside a signed quote token.  The
// booking saga verifies the signature and compares these claims against the
// submitted booking; any drift means the caller must re-quote.
type QuoteClaims struct {
	QuoteID      string  // unique quote identifier, also the redis cache key suffix
	PropertyID   uint64  // property the quote was priced for
	RoomTypeCode string  // room type code
	RatePlanCode string  // rate plan code
	CheckIn      string  // arrival date, YYYY-MM-DD
	CheckOut     string  // departure date, YYYY-MM-DD
	Total        float64 // quoted total for the stay
	Currency     string  // ISO currency code
}

// ErrInvalidQuoteToken is returned when a quote token fails signature or
// structural validation (including expiry).
var ErrInvalidQuoteToken = errors.New("invalid quote token")

// SignQuoteToken builds an HS256 JWT for a priced quote.  The expiry bounds
// how long the guest may sit on the price before booking.
func SignQuoteToken(secret string, qc QuoteClaims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"qid":  qc.QuoteID,
		"prop": qc.PropertyID,
		"rt":   qc.RoomTypeCode,
		"rp":   qc.RatePlanCode,
		"ci":   qc.CheckIn,
		"co":   qc.CheckOut,
		"amt":  qc.Total,
		"cur":  qc.Currency,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseQuoteToken verifies the signature and expiry of a quote token and
// returns its claims.  Expired or tampered tokens yield
// ErrInvalidQuoteToken.
func ParseQuoteToken(secret, raw string) (*QuoteClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidQuoteToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidQuoteToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidQuoteToken
	}
	qc := &QuoteClaims{}
	if v, ok := claims["qid"].(string); ok {
		qc.QuoteID = v
	}
	if v, ok := claims["prop"].(float64); ok {
		qc.PropertyID = uint64(v)
	}
	if v, ok := claims["rt"].(string); ok {
		qc.RoomTypeCode = v
	}
	if v, ok := claims["rp"].(string); ok {
		qc.RatePlanCode = v
	}
	if v, ok := claims["ci"].(string); ok {
		qc.CheckIn = v
	}
	if v, ok := claims["co"].(string); ok {
		qc.CheckOut = v
	}
	if v, ok := claims["amt"].(float64); ok {
		qc.Total = v
	}
	if v, ok := claims["cur"].(string); ok {
		qc.Currency = v
	}
	if qc.QuoteID == "" || qc.PropertyID == 0 {
		return nil, ErrInvalidQuoteToken
	}
	return qc, nil
}
