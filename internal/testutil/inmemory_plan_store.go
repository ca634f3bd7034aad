package testutil

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	c := *p
	if p.PromotionalPriceEur != nil {
		c.PromotionalPriceEur = lo.ToPtr(*p.PromotionalPriceEur)
	}
	return &c
}

func planFilterFn(ids []string) FilterFunc[*plan.Plan] {
	return func(ctx context.Context, p *plan.Plan, filter interface{}) bool {
		f, ok := filter.(*types.QueryFilter)
		if ok && f != nil && string(p.Status) != f.GetStatus() {
			return false
		}
		return len(ids) == 0 || lo.Contains(ids, p.ID)
	}
}

func planSortFn(sort, order string) SortFunc[*plan.Plan] {
	return func(i, j *plan.Plan) bool {
		var less bool
		switch sort {
		case "name":
			less = strings.Compare(i.Name, j.Name) < 0
		case "operations_rate_eur":
			less = i.OperationsRateEur.LessThan(j.OperationsRateEur)
		case "updated_at":
			less = i.UpdatedAt.Before(j.UpdatedAt)
		default:
			less = i.CreatedAt.Before(j.CreatedAt)
		}
		if order == types.OrderDesc {
			return !less
		}
		return less
	}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	plans, err := s.InMemoryStore.List(ctx, filter.QueryFilter,
		planFilterFn(filter.PlanIDs),
		planSortFn(filter.GetSort(), filter.GetOrder()))
	if err != nil {
		return nil, err
	}
	return lo.Map(plans, func(p *plan.Plan, _ int) *plan.Plan { return copyPlan(p) }), nil
}

func (s *InMemoryPlanStore) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	unpaged := *filter.QueryFilter
	unpaged.Limit = nil
	plans, err := s.InMemoryStore.List(ctx, &unpaged, planFilterFn(filter.PlanIDs), nil)
	if err != nil {
		return 0, err
	}
	return len(plans), nil
}

func (s *InMemoryPlanStore) UpdateRates(ctx context.Context, p *plan.Plan) error {
	existing, err := s.InMemoryStore.Get(ctx, p.ID)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}

	updated := copyPlan(existing)
	updated.OperationsRateEur = p.OperationsRateEur
	updated.PromotionalPriceEur = nil
	if p.PromotionalPriceEur != nil {
		updated.PromotionalPriceEur = lo.ToPtr(*p.PromotionalPriceEur)
	}
	updated.UpdatedAt = p.UpdatedAt
	updated.UpdatedBy = p.UpdatedBy
	return s.InMemoryStore.Update(ctx, p.ID, updated)
}
