package repository

import (
	"context"
	"database/sql"

	"github.com/stayloop/pms/internal/model"
)

// RatePlanRepo reads the rate graph: plans, their parents and their
// children.  Plan CRUD is an admin surface; the cascade engine only walks
// the tree.
type RatePlanRepo struct {
	db *sql.DB
}

// NewRatePlanRepo returns a new RatePlanRepo bound to the given database.
func NewRatePlanRepo(db *sql.DB) *RatePlanRepo { return &RatePlanRepo{db: db} }

const ratePlanColumns = `id, property_id, code, name, parent_rate_plan_id, derived_type, derived_value, rounding_rule, created_at, updated_at`

func scanRatePlan(row interface{ Scan(...interface{}) error }) (*model.RatePlan, error) {
	var p model.RatePlan
	var parentID sql.NullInt64
	var derivedType sql.NullString
	var derivedValue sql.NullFloat64
	err := row.Scan(
		&p.ID, &p.PropertyID, &p.Code, &p.Name,
		&parentID, &derivedType, &derivedValue, &p.RoundingRule,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := uint64(parentID.Int64)
		p.ParentRatePlanID = &id
	}
	if derivedType.Valid {
		dt := derivedType.String
		p.DerivedType = &dt
	}
	if derivedValue.Valid {
		dv := derivedValue.Float64
		p.DerivedValue = &dv
	}
	return &p, nil
}

// GetByCode resolves a plan by its property-scoped code.  Returns
// ErrRatePlanNotFound when absent.
func (r *RatePlanRepo) GetByCode(ctx context.Context, propertyID uint64, code string) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND code = ?`
	p, err := scanRatePlan(r.db.QueryRowContext(ctx, q, propertyID, code))
	if err == sql.ErrNoRows {
		return nil, ErrRatePlanNotFound
	}
	return p, err
}

// GetByID resolves a plan by id within a property.
func (r *RatePlanRepo) GetByID(ctx context.Context, propertyID, id uint64) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND id = ?`
	p, err := scanRatePlan(r.db.QueryRowContext(ctx, q, propertyID, id))
	if err == sql.ErrNoRows {
		return nil, ErrRatePlanNotFound
	}
	return p, err
}

// GetRoot returns the single authoritative plan of a property (parent IS
// NULL).  When a property carries several roots the caller must name a plan
// code explicitly; ErrRatePlanNotFound is returned here so the handler can
// surface that requirement.
func (r *RatePlanRepo) GetRoot(ctx context.Context, propertyID uint64) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND parent_rate_plan_id IS NULL`
	rows, err := r.db.QueryContext(ctx, q, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roots []*model.RatePlan
	for rows.Next() {
		p, err := scanRatePlan(rows)
		if err != nil {
			return nil, err
		}
		roots = append(roots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, ErrRatePlanNotFound
	}
	return roots[0], nil
}

// ListChildren returns the direct children of a plan.  The cascade engine
// walks these level by level to keep deep derivation chains consistent.
func (r *RatePlanRepo) ListChildren(ctx context.Context, propertyID, parentID uint64) ([]model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE property_id = ? AND parent_rate_plan_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, propertyID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RatePlan, 0)
	for rows.Next() {
		p, err := scanRatePlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
