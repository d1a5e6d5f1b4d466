package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
)

// quotePlans resolves plans by code and id over the shared test graph.
type quotePlans struct {
	graph *memPlans
}

func (q *quotePlans) GetByCode(_ context.Context, _ uint64, code string) (*model.RatePlan, error) {
	for _, p := range q.graph.plans {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, repository.ErrRatePlanNotFound
}

func (q *quotePlans) GetByID(ctx context.Context, propertyID, id uint64) (*model.RatePlan, error) {
	return q.graph.GetByID(ctx, propertyID, id)
}

// quoteRates keys rows by date and plan code.
type quoteRates struct {
	rows map[string]*model.Rate
}

func rateKey(date time.Time, planCode string) string {
	return date.Format("2006-01-02") + "|" + planCode
}

func (q *quoteRates) Get(_ context.Context, _, _ uint64, date time.Time, planCode string) (*model.Rate, error) {
	r, ok := q.rows[rateKey(date, planCode)]
	if !ok {
		return nil, nil
	}
	return r, nil
}

type quoteRestrictions struct {
	rows map[string]*model.Restriction
}

func (q *quoteRestrictions) Get(_ context.Context, _, _ uint64, date time.Time, planCode string) (*model.Restriction, error) {
	return q.rows[rateKey(date, planCode)], nil
}

func newQuoteFixture() (*QuoteService, *quoteRates, *quoteRestrictions) {
	rates := &quoteRates{rows: map[string]*model.Rate{}}
	restrictions := &quoteRestrictions{rows: map[string]*model.Restriction{}}
	svc := NewQuoteService(rates, &quotePlans{graph: newTestGraph()}, restrictions, nil, "test-secret", "USD", time.Minute)
	return svc, rates, restrictions
}

var quoteRoomType = &model.RoomType{ID: 11, PropertyID: 7, Code: "DLX"}

func TestResolveNightlyRateSynthesizesFromAncestors(t *testing.T) {
	svc, rates, _ := newQuoteFixture()
	rates.rows[rateKey(testDate, "BASE")] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
	graph := newTestGraph()

	tests := []struct {
		plan *model.RatePlan
		want float64
	}{
		{graph.plans[1], 200},
		{graph.plans[2], 180.99},
		{graph.plans[3], 176},
	}
	for _, tc := range tests {
		got, err := svc.ResolveNightlyRate(context.Background(), 7, 11, testDate, tc.plan)
		if err != nil {
			t.Fatalf("ResolveNightlyRate(%s): %v", tc.plan.Code, err)
		}
		if got != tc.want {
			t.Errorf("ResolveNightlyRate(%s) = %v, want %v", tc.plan.Code, got, tc.want)
		}
	}
}

func TestResolveNightlyRateExplicitRowWins(t *testing.T) {
	svc, rates, _ := newQuoteFixture()
	rates.rows[rateKey(testDate, "BASE")] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
	rates.rows[rateKey(testDate, "AAA")] = &model.Rate{RatePlanCode: "AAA", Amount: 150, IsManualOverride: true}

	got, err := svc.ResolveNightlyRate(context.Background(), 7, 11, testDate, newTestGraph().plans[2])
	if err != nil {
		t.Fatalf("ResolveNightlyRate: %v", err)
	}
	if got != 150 {
		t.Errorf("ResolveNightlyRate = %v, want the stored 150", got)
	}
}

func TestResolveNightlyRateNoSource(t *testing.T) {
	svc, _, _ := newQuoteFixture()
	_, err := svc.ResolveNightlyRate(context.Background(), 7, 11, testDate, newTestGraph().plans[3])
	if !errors.Is(err, ErrNoRateAvailable) {
		t.Fatalf("err = %v, want ErrNoRateAvailable", err)
	}
}

func TestBuildQuoteSumsNightsAndSigns(t *testing.T) {
	svc, rates, _ := newQuoteFixture()
	checkIn := testDate
	checkOut := testDate.AddDate(0, 0, 3)
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		rates.rows[rateKey(d, "BASE")] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
	}
	rc := model.RequestContext{PropertyID: 7, RequestID: "req-1"}

	q, err := svc.BuildQuote(context.Background(), rc, quoteRoomType, "BASE", checkIn, checkOut)
	if err != nil {
		t.Fatalf("BuildQuote: %v", err)
	}
	if q.Total != 600 {
		t.Errorf("total = %v, want 600", q.Total)
	}
	if q.Currency != "USD" || q.ID == "" || q.Token == "" {
		t.Errorf("quote = %+v, want currency, id and token populated", q)
	}

	claims, err := svc.Verify(context.Background(), q.Token, 7, 600, "USD")
	if err != nil {
		t.Fatalf("Verify of a fresh quote: %v", err)
	}
	if claims.RoomTypeCode != "DLX" || claims.RatePlanCode != "BASE" {
		t.Errorf("claims = %+v, want DLX/BASE", claims)
	}
}

func TestBuildQuoteEnforcesRestrictions(t *testing.T) {
	checkIn := testDate
	checkOut := testDate.AddDate(0, 0, 3)

	tests := []struct {
		name string
		seed func(*quoteRestrictions)
	}{
		{"closed night", func(r *quoteRestrictions) {
			r.rows[rateKey(checkIn.AddDate(0, 0, 1), "BASE")] = &model.Restriction{Closed: true}
		}},
		{"closed to arrival", func(r *quoteRestrictions) {
			r.rows[rateKey(checkIn, "BASE")] = &model.Restriction{ClosedToArrival: true}
		}},
		{"closed to departure", func(r *quoteRestrictions) {
			r.rows[rateKey(checkOut, "BASE")] = &model.Restriction{ClosedToDeparture: true}
		}},
		{"minimum stay", func(r *quoteRestrictions) {
			r.rows[rateKey(checkIn, "BASE")] = &model.Restriction{MinLOS: 4}
		}},
		{"maximum stay", func(r *quoteRestrictions) {
			r.rows[rateKey(checkIn, "BASE")] = &model.Restriction{MaxLOS: 2}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, rates, restrictions := newQuoteFixture()
			for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
				rates.rows[rateKey(d, "BASE")] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
			}
			tc.seed(restrictions)
			rc := model.RequestContext{PropertyID: 7, RequestID: "req-1"}
			if _, err := svc.BuildQuote(context.Background(), rc, quoteRoomType, "BASE", checkIn, checkOut); !errors.Is(err, ErrStayRestricted) {
				t.Fatalf("err = %v, want ErrStayRestricted", err)
			}
		})
	}
}

func TestVerifyRejectsPriceDrift(t *testing.T) {
	svc, rates, _ := newQuoteFixture()
	rates.rows[rateKey(testDate, "BASE")] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
	rc := model.RequestContext{PropertyID: 7, RequestID: "req-1"}

	q, err := svc.BuildQuote(context.Background(), rc, quoteRoomType, "BASE", testDate, testDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("BuildQuote: %v", err)
	}

	if _, err := svc.Verify(context.Background(), q.Token, 7, 199, "USD"); !errors.Is(err, repository.ErrPricingMismatch) {
		t.Errorf("total drift err = %v, want pricing mismatch", err)
	}
	if _, err := svc.Verify(context.Background(), q.Token, 8, 200, "USD"); !errors.Is(err, repository.ErrPricingMismatch) {
		t.Errorf("property drift err = %v, want pricing mismatch", err)
	}
	if _, err := svc.Verify(context.Background(), "not-a-token", 7, 200, "USD"); !errors.Is(err, repository.ErrPricingMismatch) {
		t.Errorf("garbage token err = %v, want pricing mismatch", err)
	}
}
