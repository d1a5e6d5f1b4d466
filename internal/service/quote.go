package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/utils"
)

// ErrNoRateAvailable is returned when neither the plan nor any ancestor has
// a stored amount for a date.
var ErrNoRateAvailable = errors.New("no rate available for date")

// ErrStayRestricted is returned when a restriction blocks the requested
// stay (closed date, closed to arrival, or length-of-stay bounds).
var ErrStayRestricted = errors.New("stay violates sell restrictions")

// priceEpsilon tolerates decimal representation noise when comparing quoted
// and submitted totals.
const priceEpsilon = 0.005

// rateReadStore is the non-transactional rate read the quote path needs.
type rateReadStore interface {
	Get(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Rate, error)
}

// planReadStore resolves plans by code and id for the synthesis walk.
type planReadStore interface {
	GetByCode(ctx context.Context, propertyID uint64, code string) (*model.RatePlan, error)
	GetByID(ctx context.Context, propertyID, id uint64) (*model.RatePlan, error)
}

// restrictionReadStore loads sell restrictions per night.
type restrictionReadStore interface {
	Get(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Restriction, error)
}

// Quote is a priced offer for a stay.
type Quote struct {
	ID        string    `json:"quoteId"`
	Total     float64   `json:"total"`
	Currency  string    `json:"currency"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QuoteService prices stays and validates quote signatures at booking time.
// Issued quotes are cached in redis under quote:<id> with the same TTL as
// the token; when redis is unavailable the service degrades to
// signature-only verification.
type QuoteService struct {
	rates        rateReadStore
	plans        planReadStore
	restrictions restrictionReadStore
	rdb          *redis.Client
	secret       string
	ttl          time.Duration
	currency     string
}

// NewQuoteService constructs a QuoteService.  rdb may be nil.
func NewQuoteService(rates rateReadStore, plans planReadStore, restrictions restrictionReadStore, rdb *redis.Client, secret, currency string, ttl time.Duration) *QuoteService {
	if rates == nil || plans == nil || restrictions == nil {
		panic("nil store passed to NewQuoteService")
	}
	return &QuoteService{
		rates:        rates,
		plans:        plans,
		restrictions: restrictions,
		rdb:          rdb,
		secret:       secret,
		ttl:          ttl,
		currency:     currency,
	}
}

// ResolveNightlyRate returns the effective amount for one plan and night.
// An explicit rate row wins; otherwise the amount is synthesized by walking
// the parent chain and applying the derivation math on the way back down.
// This is the read path that backs lazy recomputation after override clears.
func (s *QuoteService) ResolveNightlyRate(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, plan *model.RatePlan) (float64, error) {
	return s.resolve(ctx, propertyID, roomTypeID, date, plan, 0)
}

func (s *QuoteService) resolve(ctx context.Context, propertyID, roomTypeID uint64, date time.Time, plan *model.RatePlan, depth int) (float64, error) {
	if depth > maxDerivationDepth {
		return 0, fmt.Errorf("derivation chain deeper than %d for plan %s", maxDerivationDepth, plan.Code)
	}
	row, err := s.rates.Get(ctx, propertyID, roomTypeID, date, plan.Code)
	if err != nil {
		return 0, err
	}
	if row != nil {
		return row.Amount, nil
	}
	if !plan.IsDerived() || plan.DerivedType == nil || plan.DerivedValue == nil {
		return 0, ErrNoRateAvailable
	}
	parent, err := s.plans.GetByID(ctx, propertyID, *plan.ParentRatePlanID)
	if err != nil {
		return 0, err
	}
	parentAmount, err := s.resolve(ctx, propertyID, roomTypeID, date, parent, depth+1)
	if err != nil {
		return 0, err
	}
	return ari.ChildAmount(parentAmount, *plan.DerivedType, *plan.DerivedValue, plan.RoundingRule), nil
}

// BuildQuote prices a stay night by night, enforces sell restrictions, and
// returns a signed quote.  The quote is cached in redis best-effort.
func (s *QuoteService) BuildQuote(ctx context.Context, rc model.RequestContext, rt *model.RoomType, planCode string, checkIn, checkOut time.Time) (*Quote, error) {
	plan, err := s.plans.GetByCode(ctx, rc.PropertyID, planCode)
	if err != nil {
		return nil, err
	}
	nights := ari.Nights(checkIn, checkOut)
	if nights == 0 {
		return nil, fmt.Errorf("%w: no nights in stay", ErrStayRestricted)
	}

	total := 0.0
	for i, date := range ari.StayDates(checkIn, checkOut) {
		rs, err := s.restrictions.Get(ctx, rc.PropertyID, rt.ID, date, plan.Code)
		if err != nil {
			return nil, err
		}
		if rs != nil {
			if rs.Closed {
				return nil, fmt.Errorf("%w: %s closed", ErrStayRestricted, date.Format(ari.DateLayout))
			}
			if i == 0 {
				if rs.ClosedToArrival {
					return nil, fmt.Errorf("%w: closed to arrival", ErrStayRestricted)
				}
				if rs.MinLOS > 0 && nights < rs.MinLOS {
					return nil, fmt.Errorf("%w: minimum stay %d nights", ErrStayRestricted, rs.MinLOS)
				}
				if rs.MaxLOS > 0 && nights > rs.MaxLOS {
					return nil, fmt.Errorf("%w: maximum stay %d nights", ErrStayRestricted, rs.MaxLOS)
				}
			}
		}
		amount, err := s.ResolveNightlyRate(ctx, rc.PropertyID, rt.ID, date, plan)
		if err != nil {
			return nil, err
		}
		total += amount
	}
	// Departure-day restriction applies to the checkout date itself.
	if rs, err := s.restrictions.Get(ctx, rc.PropertyID, rt.ID, ari.NormalizeDate(checkOut), plan.Code); err != nil {
		return nil, err
	} else if rs != nil && rs.ClosedToDeparture {
		return nil, fmt.Errorf("%w: closed to departure", ErrStayRestricted)
	}

	q := &Quote{
		ID:        uuid.NewString(),
		Total:     math.Round(total*100) / 100,
		Currency:  s.currency,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	token, err := utils.SignQuoteToken(s.secret, utils.QuoteClaims{
		QuoteID:      q.ID,
		PropertyID:   rc.PropertyID,
		RoomTypeCode: rt.Code,
		RatePlanCode: plan.Code,
		CheckIn:      checkIn.Format(ari.DateLayout),
		CheckOut:     checkOut.Format(ari.DateLayout),
		Total:        q.Total,
		Currency:     q.Currency,
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign quote: %w", err)
	}
	q.Token = token

	if s.rdb != nil {
		if payload, err := json.Marshal(q); err == nil {
			if err := s.rdb.SetEx(ctx, "quote:"+q.ID, payload, s.ttl).Err(); err != nil {
				log.Printf("quote: cache write failed for %s: %v", q.ID, err)
			}
		}
	}
	return q, nil
}

// Verify checks a quote token against the submitted booking.  Signature or
// price drift yields repository.ErrPricingMismatch.  A missing redis entry
// with a valid signature is accepted: the token itself carries the price
// and expiry.
func (s *QuoteService) Verify(ctx context.Context, token string, propertyID uint64, submittedTotal float64, currency string) (*utils.QuoteClaims, error) {
	qc, err := utils.ParseQuoteToken(s.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrPricingMismatch, err)
	}
	if qc.PropertyID != propertyID {
		return nil, fmt.Errorf("%w: quote was priced for another property", repository.ErrPricingMismatch)
	}
	if currency != "" && qc.Currency != currency {
		return nil, fmt.Errorf("%w: currency drift", repository.ErrPricingMismatch)
	}
	if math.Abs(qc.Total-submittedTotal) > priceEpsilon {
		return nil, fmt.Errorf("%w: quoted %.2f, submitted %.2f", repository.ErrPricingMismatch, qc.Total, submittedTotal)
	}
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, "quote:"+qc.QuoteID).Bytes()
		if err == nil {
			var cached Quote
			if err := json.Unmarshal(raw, &cached); err == nil && math.Abs(cached.Total-submittedTotal) > priceEpsilon {
				return nil, fmt.Errorf("%w: cached quote drifted", repository.ErrPricingMismatch)
			}
		} else if err != redis.Nil {
			log.Printf("quote: cache read failed for %s: %v", qc.QuoteID, err)
		}
	}
	return qc, nil
}
