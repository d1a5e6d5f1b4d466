package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stayloop/pms/internal/model"
)

// memPlans is an in-memory rate-plan graph.
type memPlans struct {
	plans map[uint64]*model.RatePlan
}

func (g *memPlans) GetByID(_ context.Context, _ uint64, id uint64) (*model.RatePlan, error) {
	p, ok := g.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d not found", id)
	}
	return p, nil
}

func (g *memPlans) ListChildren(_ context.Context, _ uint64, parentID uint64) ([]model.RatePlan, error) {
	out := []model.RatePlan{}
	for _, p := range g.plans {
		if p.ParentRatePlanID != nil && *p.ParentRatePlanID == parentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// memRates stores rate rows keyed by plan code; every test works on a
// single date so the code alone is a sufficient key.
type memRates struct {
	rows map[string]*model.Rate
}

func (m *memRates) GetTx(_ context.Context, _ *sql.Tx, _, _ uint64, _ time.Time, planCode string) (*model.Rate, error) {
	r, ok := m.rows[planCode]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRates) UpsertTx(_ context.Context, _ *sql.Tx, _, _ uint64, _ time.Time, planCode string, amount float64, isManualOverride bool) error {
	m.rows[planCode] = &model.Rate{RatePlanCode: planCode, Amount: amount, IsManualOverride: isManualOverride}
	return nil
}

func (m *memRates) DeleteTx(_ context.Context, _ *sql.Tx, _, _ uint64, _ time.Time, planCode string) error {
	delete(m.rows, planCode)
	return nil
}

type memEvents struct {
	appended []*model.AriEvent
}

func (m *memEvents) AppendTx(_ context.Context, _ *sql.Tx, ev *model.AriEvent) error {
	m.appended = append(m.appended, ev)
	return nil
}

func strp(s string) *string   { return &s }
func f64p(f float64) *float64 { return &f }
func u64p(u uint64) *uint64   { return &u }

// newTestGraph builds BASE (1) <- AAA (2, -10% ENDING_99) <- AAA_PROMO
// (3, -5 fixed NEAREST_WHOLE).
func newTestGraph() *memPlans {
	return &memPlans{plans: map[uint64]*model.RatePlan{
		1: {ID: 1, PropertyID: 7, Code: "BASE", RoundingRule: "NONE"},
		2: {ID: 2, PropertyID: 7, Code: "AAA", ParentRatePlanID: u64p(1),
			DerivedType: strp("PERCENTAGE"), DerivedValue: f64p(-10), RoundingRule: "ENDING_99"},
		3: {ID: 3, PropertyID: 7, Code: "AAA_PROMO", ParentRatePlanID: u64p(2),
			DerivedType: strp("FIXED_AMOUNT"), DerivedValue: f64p(-5), RoundingRule: "NEAREST_WHOLE"},
	}}
}

func newTestEngine(plans *memPlans) (*CascadeEngine, *memRates, *memEvents) {
	rates := &memRates{rows: map[string]*model.Rate{}}
	events := &memEvents{}
	return NewCascadeEngine(plans, rates, events), rates, events
}

var (
	testCtx  = model.RequestContext{PropertyID: 7, RequestID: "req-1"}
	testDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
)

func TestApplyRateChangeCascadesMultiLevel(t *testing.T) {
	plans := newTestGraph()
	engine, rates, events := newTestEngine(plans)

	appended, err := engine.ApplyRateChange(context.Background(), nil, testCtx, 11, testDate, plans.plans[1], 200)
	if err != nil {
		t.Fatalf("ApplyRateChange: %v", err)
	}
	if len(appended) != 3 {
		t.Fatalf("returned events = %d, want 3", len(appended))
	}
	checks := []struct {
		code     string
		amount   float64
		override bool
	}{
		{"BASE", 200, false},
		{"AAA", 180.99, false},
		{"AAA_PROMO", 176, false},
	}
	for _, c := range checks {
		row, ok := rates.rows[c.code]
		if !ok {
			t.Fatalf("no rate row for %s", c.code)
		}
		if row.Amount != c.amount {
			t.Errorf("%s amount = %v, want %v", c.code, row.Amount, c.amount)
		}
		if row.IsManualOverride != c.override {
			t.Errorf("%s override = %v, want %v", c.code, row.IsManualOverride, c.override)
		}
	}
	if len(events.appended) != 3 {
		t.Errorf("audit events = %d, want 3", len(events.appended))
	}
	for _, ev := range events.appended {
		if ev.EventType != model.AriEventRate {
			t.Errorf("event type = %s, want %s", ev.EventType, model.AriEventRate)
		}
	}
	// The returned slice is what callers broadcast after commit; it must be
	// exactly the set appended inside the transaction, direct write first.
	for i, ev := range events.appended {
		if appended[i] != ev {
			t.Errorf("returned event %d is not the appended audit row", i)
		}
	}
}

func TestApplyRateChangeStopsAtManualOverride(t *testing.T) {
	plans := newTestGraph()
	engine, rates, _ := newTestEngine(plans)
	rates.rows["AAA"] = &model.Rate{RatePlanCode: "AAA", Amount: 150, IsManualOverride: true}
	rates.rows["AAA_PROMO"] = &model.Rate{RatePlanCode: "AAA_PROMO", Amount: 145}

	appended, err := engine.ApplyRateChange(context.Background(), nil, testCtx, 11, testDate, plans.plans[1], 200)
	if err != nil {
		t.Fatalf("ApplyRateChange: %v", err)
	}
	if len(appended) != 1 {
		t.Fatalf("returned events = %d, want 1 (override subtree skipped)", len(appended))
	}
	if got := rates.rows["AAA"].Amount; got != 150 {
		t.Errorf("override amount = %v, want 150 (untouched)", got)
	}
	if got := rates.rows["AAA_PROMO"].Amount; got != 145 {
		t.Errorf("descendant of override = %v, want 145 (untouched)", got)
	}
}

func TestApplyRateChangeOnDerivedPlanIsOverride(t *testing.T) {
	plans := newTestGraph()
	engine, rates, _ := newTestEngine(plans)

	appended, err := engine.ApplyRateChange(context.Background(), nil, testCtx, 11, testDate, plans.plans[2], 175)
	if err != nil {
		t.Fatalf("ApplyRateChange: %v", err)
	}
	if len(appended) != 2 {
		t.Fatalf("returned events = %d, want 2", len(appended))
	}
	if !rates.rows["AAA"].IsManualOverride {
		t.Error("direct write on derived plan should be flagged as manual override")
	}
	// Descendants still recompute from the overridden amount.
	if got := rates.rows["AAA_PROMO"].Amount; got != 170 {
		t.Errorf("AAA_PROMO = %v, want 170", got)
	}
}

func TestApplyRateChangeSkipsChildrenWithoutRule(t *testing.T) {
	plans := newTestGraph()
	plans.plans[4] = &model.RatePlan{ID: 4, PropertyID: 7, Code: "ORPHAN", ParentRatePlanID: u64p(1), RoundingRule: "NONE"}
	engine, rates, _ := newTestEngine(plans)

	appended, err := engine.ApplyRateChange(context.Background(), nil, testCtx, 11, testDate, plans.plans[1], 200)
	if err != nil {
		t.Fatalf("ApplyRateChange: %v", err)
	}
	if len(appended) != 3 {
		t.Fatalf("returned events = %d, want 3", len(appended))
	}
	if _, ok := rates.rows["ORPHAN"]; ok {
		t.Error("child without derivation rule must not receive a cascaded rate")
	}
}

func TestClearOverrideRecomputesFromParent(t *testing.T) {
	plans := newTestGraph()
	engine, rates, _ := newTestEngine(plans)
	rates.rows["BASE"] = &model.Rate{RatePlanCode: "BASE", Amount: 200}
	rates.rows["AAA"] = &model.Rate{RatePlanCode: "AAA", Amount: 150, IsManualOverride: true}
	rates.rows["AAA_PROMO"] = &model.Rate{RatePlanCode: "AAA_PROMO", Amount: 145}

	appended, err := engine.ClearOverride(context.Background(), nil, testCtx, 11, testDate, plans.plans[2])
	if err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if len(appended) != 2 {
		t.Fatalf("returned events = %d, want 2 (clear marker plus cascade)", len(appended))
	}
	row := rates.rows["AAA"]
	if row == nil || row.Amount != 180.99 || row.IsManualOverride {
		t.Fatalf("AAA after clear = %+v, want amount 180.99 and no override", row)
	}
	if got := rates.rows["AAA_PROMO"].Amount; got != 176 {
		t.Errorf("AAA_PROMO after clear = %v, want 176", got)
	}
}

func TestClearOverridePrunesWhenNoSource(t *testing.T) {
	plans := newTestGraph()
	engine, rates, _ := newTestEngine(plans)
	rates.rows["AAA"] = &model.Rate{RatePlanCode: "AAA", Amount: 150, IsManualOverride: true}
	rates.rows["AAA_PROMO"] = &model.Rate{RatePlanCode: "AAA_PROMO", Amount: 145}

	appended, err := engine.ClearOverride(context.Background(), nil, testCtx, 11, testDate, plans.plans[2])
	if err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if len(appended) != 1 {
		t.Fatalf("returned events = %d, want 1 (clear marker only)", len(appended))
	}
	if _, ok := rates.rows["AAA"]; ok {
		t.Error("cleared plan row should be gone")
	}
	if _, ok := rates.rows["AAA_PROMO"]; ok {
		t.Error("stale derived descendant should be pruned when no recompute source exists")
	}
}
