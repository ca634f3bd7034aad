package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/api/dto"
	"github.com/shipdesk/shipdesk/internal/cache"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/shipdesk/shipdesk/internal/types"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error)

	// UpdatePlanRate sets the operations rate of a plan and replaces or clears its promotional price
	UpdatePlanRate(ctx context.Context, id string, req dto.UpdatePlanRateRequest) (*dto.PlanResponse, error)

	// GetPlanQuote returns the monthly price currently charged for a plan
	GetPlanQuote(ctx context.Context, id string) (*dto.PlanQuoteResponse, error)
}

type planService struct {
	ServiceParams
	now func() time.Time
}

func NewPlanService(params ServiceParams) PlanService {
	return &planService{
		ServiceParams: params,
		now:           time.Now,
	}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToPlan(ctx)
	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created plan",
		"plan_id", p.ID,
		"name", p.Name,
		"operations_rate_eur", p.OperationsRateEur)

	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	p, err := getPlan(ctx, s.ServiceParams, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) ListPlans(ctx context.Context, filter *types.PlanFilter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.PlanRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(plans, func(p *plan.Plan, _ int) *dto.PlanResponse {
		return dto.NewPlanResponse(p)
	})
	response := types.NewListResponse(items, count, filter.QueryFilter)
	return &response, nil
}

func (s *planService) UpdatePlanRate(ctx context.Context, id string, req dto.UpdatePlanRateRequest) (*dto.PlanResponse, error) {
	if id == "" {
		return nil, ierr.NewError("plan id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rate, promo, err := req.Parse()
	if err != nil {
		return nil, err
	}

	span, ctx := s.Sentry.StartTransaction(ctx, "plan.update_rate")
	defer sentry.FinishSpan(span)

	// read the row itself, the cached copy may be stale
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previousRate, previousPromo := p.OperationsRateEur, p.PromotionalPriceEur

	p.OperationsRateEur = rate
	p.PromotionalPriceEur = promo
	p.Touch(ctx, s.now())

	if err := s.PlanRepo.UpdateRates(ctx, p); err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, id))

	s.Logger.Infow("updated plan rates",
		"plan_id", id,
		"operations_rate_eur", rate,
		"previous_operations_rate_eur", previousRate,
		"promotional_price_eur", promo,
		"previous_promotional_price_eur", previousPromo,
		"updated_by", p.UpdatedBy)

	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlanQuote(ctx context.Context, id string) (*dto.PlanQuoteResponse, error) {
	p, err := getPlan(ctx, s.ServiceParams, id)
	if err != nil {
		return nil, err
	}

	price, promotional := p.EffectivePrice()
	return &dto.PlanQuoteResponse{
		PlanID:             p.ID,
		Name:               p.Name,
		DeliveriesPerMonth: p.DeliveriesPerMonth,
		SpaceLimitCbm:      p.SpaceLimitCbm,
		OperationsRateEur:  p.OperationsRateEur,
		PriceEur:           price,
		IsPromotional:      promotional,
		Currency:           types.CurrencyEUR,
	}, nil
}

// getPlan reads a plan through the catalog cache
func getPlan(ctx context.Context, params ServiceParams, id string) (*plan.Plan, error) {
	if id == "" {
		return nil, ierr.NewError("plan id is required").
			WithHint("Plan ID is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixPlan, id)
	if cached, found := params.Cache.Get(ctx, key); found {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	p, err := params.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	params.Cache.Set(ctx, key, p, 0)
	return p, nil
}
