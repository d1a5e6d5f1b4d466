package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/model"
)

// maxDerivationDepth bounds parent-chain walks; a deeper chain indicates a
// corrupted graph rather than a legitimate configuration.
const maxDerivationDepth = 8

// ratePlanStore is the slice of the rate-plan repository the engine needs.
type ratePlanStore interface {
	GetByID(ctx context.Context, propertyID, id uint64) (*model.RatePlan, error)
	ListChildren(ctx context.Context, propertyID, parentID uint64) ([]model.RatePlan, error)
}

// rateStore is the slice of the rate repository the engine needs.  All
// writes run inside the caller's transaction.
type rateStore interface {
	GetTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string) (*model.Rate, error)
	UpsertTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string, amount float64, isManualOverride bool) error
	DeleteTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planCode string) error
}

// eventAppender appends audit rows inside the caller's transaction.
type eventAppender interface {
	AppendTx(ctx context.Context, tx *sql.Tx, ev *model.AriEvent) error
}

// CascadeEngine keeps derived rate plans consistent with their parents
// without clobbering manual overrides.  The walk is breadth-first from the
// changed plan outward, so multi-level derivation chains settle in one
// trigger instead of relying on re-invocation per level.
type CascadeEngine struct {
	plans  ratePlanStore
	rates  rateStore
	events eventAppender
}

// NewCascadeEngine constructs a CascadeEngine over the given stores.
func NewCascadeEngine(plans ratePlanStore, rates rateStore, events eventAppender) *CascadeEngine {
	if plans == nil || rates == nil || events == nil {
		panic("nil store passed to NewCascadeEngine")
	}
	return &CascadeEngine{plans: plans, rates: rates, events: events}
}

// ApplyRateChange writes an explicit amount for a plan on one date and
// cascades the change through every dependent descendant.  A direct write
// on a derived plan is recorded as a manual override; cascade-computed
// values never are.  It returns the audit events appended inside the
// transaction, one per rate row written, changed plan first; callers
// broadcast them once the transaction commits.
func (e *CascadeEngine) ApplyRateChange(ctx context.Context, tx *sql.Tx, rc model.RequestContext, roomTypeID uint64, date time.Time, plan *model.RatePlan, amount float64) ([]*model.AriEvent, error) {
	isOverride := plan.IsDerived()
	if err := e.rates.UpsertTx(ctx, tx, rc.PropertyID, roomTypeID, date, plan.Code, amount, isOverride); err != nil {
		return nil, fmt.Errorf("write rate %s: %w", plan.Code, err)
	}
	ev, err := e.appendRateEvent(ctx, tx, rc, roomTypeID, date, plan.Code, amount, isOverride, "direct")
	if err != nil {
		return nil, err
	}
	cascaded, err := e.cascade(ctx, tx, rc, roomTypeID, date, plan, amount)
	if err != nil {
		return nil, err
	}
	return append([]*model.AriEvent{ev}, cascaded...), nil
}

// cascade recomputes every dependent descendant of the changed plan.  It
// skips children with no derivation rule and stops beneath manual overrides:
// an override's stored amount did not change, so its own subtree needs no
// recompute.  A visited set guards against pathological parent cycles.
func (e *CascadeEngine) cascade(ctx context.Context, tx *sql.Tx, rc model.RequestContext, roomTypeID uint64, date time.Time, from *model.RatePlan, fromAmount float64) ([]*model.AriEvent, error) {
	type node struct {
		plan   *model.RatePlan
		amount float64
	}
	queue := []node{{plan: from, amount: fromAmount}}
	visited := map[uint64]bool{from.ID: true}
	var events []*model.AriEvent

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children, err := e.plans.ListChildren(ctx, rc.PropertyID, cur.plan.ID)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", cur.plan.Code, err)
		}
		for i := range children {
			child := children[i]
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			if child.DerivedType == nil || child.DerivedValue == nil {
				continue
			}

			existing, err := e.rates.GetTx(ctx, tx, rc.PropertyID, roomTypeID, date, child.Code)
			if err != nil {
				return nil, fmt.Errorf("read rate %s: %w", child.Code, err)
			}
			if existing != nil && existing.IsManualOverride {
				// Manual override wins; its amount is unchanged, so its own
				// descendants stay consistent without a recompute.
				continue
			}

			computed := ari.ChildAmount(cur.amount, *child.DerivedType, *child.DerivedValue, child.RoundingRule)
			if err := e.rates.UpsertTx(ctx, tx, rc.PropertyID, roomTypeID, date, child.Code, computed, false); err != nil {
				return nil, fmt.Errorf("write cascaded rate %s: %w", child.Code, err)
			}
			formula := ari.Formula(cur.plan.Code, *child.DerivedType, *child.DerivedValue, child.RoundingRule)
			ev, err := e.appendRateEvent(ctx, tx, rc, roomTypeID, date, child.Code, computed, false, formula)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
			queue = append(queue, node{plan: &children[i], amount: computed})
		}
	}
	return events, nil
}

// ClearOverride removes the explicit rate row for a plan on one date and
// eagerly recomputes the plan and its dependents from the parent chain, so
// no stale manual amount can ever be served afterwards.  When no ancestor
// carries a resolvable amount, the subtree's non-override rows are deleted
// instead and the read path synthesizes on demand.  Like ApplyRateChange it
// returns the audit events appended for post-commit broadcast.
func (e *CascadeEngine) ClearOverride(ctx context.Context, tx *sql.Tx, rc model.RequestContext, roomTypeID uint64, date time.Time, plan *model.RatePlan) ([]*model.AriEvent, error) {
	if err := e.rates.DeleteTx(ctx, tx, rc.PropertyID, roomTypeID, date, plan.Code); err != nil {
		return nil, fmt.Errorf("delete rate %s: %w", plan.Code, err)
	}
	cleared, err := e.appendRateEvent(ctx, tx, rc, roomTypeID, date, plan.Code, 0, false, "override-cleared")
	if err != nil {
		return nil, err
	}
	events := []*model.AriEvent{cleared}

	if plan.IsDerived() {
		if parentAmount, ok, err := e.resolveAmountTx(ctx, tx, rc.PropertyID, roomTypeID, date, *plan.ParentRatePlanID, 0); err != nil {
			return nil, err
		} else if ok {
			computed := ari.ChildAmount(parentAmount, deref(plan.DerivedType), derefF(plan.DerivedValue), plan.RoundingRule)
			if err := e.rates.UpsertTx(ctx, tx, rc.PropertyID, roomTypeID, date, plan.Code, computed, false); err != nil {
				return nil, fmt.Errorf("recompute rate %s: %w", plan.Code, err)
			}
			cascaded, err := e.cascade(ctx, tx, rc, roomTypeID, date, plan, computed)
			if err != nil {
				return nil, err
			}
			return append(events, cascaded...), nil
		}
	}
	// Nothing to derive from: fall back to pruning stale derived rows.
	return events, e.deleteDerivedDescendants(ctx, tx, rc, roomTypeID, date, plan)
}

// resolveAmountTx climbs the parent chain until it finds an explicit rate
// row, deriving back down as it returns.  ok is false when no ancestor has
// a stored amount.
func (e *CascadeEngine) resolveAmountTx(ctx context.Context, tx *sql.Tx, propertyID, roomTypeID uint64, date time.Time, planID uint64, depth int) (float64, bool, error) {
	if depth > maxDerivationDepth {
		return 0, false, fmt.Errorf("derivation chain deeper than %d for plan %d", maxDerivationDepth, planID)
	}
	plan, err := e.plans.GetByID(ctx, propertyID, planID)
	if err != nil {
		return 0, false, err
	}
	row, err := e.rates.GetTx(ctx, tx, propertyID, roomTypeID, date, plan.Code)
	if err != nil {
		return 0, false, err
	}
	if row != nil {
		return row.Amount, true, nil
	}
	if !plan.IsDerived() || plan.DerivedType == nil || plan.DerivedValue == nil {
		return 0, false, nil
	}
	parentAmount, ok, err := e.resolveAmountTx(ctx, tx, propertyID, roomTypeID, date, *plan.ParentRatePlanID, depth+1)
	if err != nil || !ok {
		return 0, ok, err
	}
	return ari.ChildAmount(parentAmount, *plan.DerivedType, *plan.DerivedValue, plan.RoundingRule), true, nil
}

// deleteDerivedDescendants prunes the non-override rate rows beneath a plan
// so nothing stale survives when no recompute source exists.
func (e *CascadeEngine) deleteDerivedDescendants(ctx context.Context, tx *sql.Tx, rc model.RequestContext, roomTypeID uint64, date time.Time, from *model.RatePlan) error {
	queue := []*model.RatePlan{from}
	visited := map[uint64]bool{from.ID: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := e.plans.ListChildren(ctx, rc.PropertyID, cur.ID)
		if err != nil {
			return fmt.Errorf("list children of %s: %w", cur.Code, err)
		}
		for i := range children {
			child := children[i]
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			existing, err := e.rates.GetTx(ctx, tx, rc.PropertyID, roomTypeID, date, child.Code)
			if err != nil {
				return fmt.Errorf("read rate %s: %w", child.Code, err)
			}
			if existing != nil && existing.IsManualOverride {
				continue
			}
			if existing != nil {
				if err := e.rates.DeleteTx(ctx, tx, rc.PropertyID, roomTypeID, date, child.Code); err != nil {
					return fmt.Errorf("prune rate %s: %w", child.Code, err)
				}
			}
			queue = append(queue, &children[i])
		}
	}
	return nil
}

// appendRateEvent writes one RATE audit row carrying the formula applied
// and returns it so the caller can broadcast it after commit.
func (e *CascadeEngine) appendRateEvent(ctx context.Context, tx *sql.Tx, rc model.RequestContext, roomTypeID uint64, date time.Time, planCode string, amount float64, manual bool, formula string) (*model.AriEvent, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"ratePlanCode": planCode,
		"amount":       amount,
		"manual":       manual,
		"formula":      formula,
		"requestId":    rc.RequestID,
	})
	ev := &model.AriEvent{
		PropertyID: rc.PropertyID,
		RoomTypeID: roomTypeID,
		EventType:  model.AriEventRate,
		DateFrom:   date,
		DateTo:     date,
		Payload:    string(payload),
		Status:     model.AriEventStatusApplied,
	}
	if err := e.events.AppendTx(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("append rate audit event: %w", err)
	}
	return ev, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
