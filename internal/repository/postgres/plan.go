package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/types"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

const planColumns = `id, name, deliveries_per_month, space_limit_cbm, over_space_rate_eur,
	operations_rate_eur, promotional_price_eur, status, created_at, updated_at, created_by, updated_by`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	span := StartRepositorySpan(ctx, "plan", "create", map[string]interface{}{
		"plan_id": p.ID,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO plans (
			id,
			name,
			deliveries_per_month,
			space_limit_cbm,
			over_space_rate_eur,
			operations_rate_eur,
			promotional_price_eur,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		)
		VALUES (
			:id,
			:name,
			:deliveries_per_month,
			:space_limit_cbm,
			:over_space_rate_eur,
			:operations_rate_eur,
			:promotional_price_eur,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)`

	r.logger.Debugw("creating plan", "plan_id", p.ID, "name", p.Name)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Failed to create plan")
	}

	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	span := StartRepositorySpan(ctx, "plan", "get", map[string]interface{}{
		"plan_id": id,
	})
	defer FinishSpan(span)

	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	var p plan.Plan
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, fmt.Sprintf("Plan with ID %s was not found", id))
	}

	return &p, nil
}

// planConditions builds the WHERE clause shared by List and Count
func planConditions(filter *types.PlanFilter) (string, []interface{}) {
	var (
		conditions = []string{"status = ?"}
		args       = []interface{}{filter.GetStatus()}
	)
	if len(filter.PlanIDs) > 0 {
		conditions = append(conditions, "id IN (?)")
		args = append(args, filter.PlanIDs)
	}
	return strings.Join(conditions, " AND "), args
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	span := StartRepositorySpan(ctx, "plan", "list", nil)
	defer FinishSpan(span)

	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := planConditions(filter)

	// sort and order are restricted by PlanFilter.Validate
	query := fmt.Sprintf(`SELECT %s FROM plans WHERE %s ORDER BY %s %s, id ASC`,
		planColumns, where, filter.GetSort(), strings.ToUpper(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.GetLimit(), filter.GetOffset())
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, postgres.ClassifyError(err, "Failed to build plan query")
	}

	plans := make([]*plan.Plan, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &plans, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, "Failed to list plans")
	}

	return plans, nil
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	span := StartRepositorySpan(ctx, "plan", "count", nil)
	defer FinishSpan(span)

	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	where, args := planConditions(filter)
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM plans WHERE `+where, args...)
	if err != nil {
		return 0, postgres.ClassifyError(err, "Failed to build plan query")
	}

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		SetSpanError(span, err)
		return 0, postgres.ClassifyError(err, "Failed to count plans")
	}

	return count, nil
}

func (r *planRepository) UpdateRates(ctx context.Context, p *plan.Plan) error {
	span := StartRepositorySpan(ctx, "plan", "update_rates", map[string]interface{}{
		"plan_id": p.ID,
	})
	defer FinishSpan(span)

	query := `
		UPDATE plans
		SET operations_rate_eur = :operations_rate_eur,
			promotional_price_eur = :promotional_price_eur,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	r.logger.Debugw("updating plan rates",
		"plan_id", p.ID,
		"operations_rate_eur", p.OperationsRateEur,
		"promotional_price_eur", p.PromotionalPriceEur)

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Failed to update plan rates")
	}

	return expectOneRow(result, fmt.Sprintf("Plan with ID %s was not found", p.ID))
}
