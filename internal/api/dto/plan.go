package dto

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/domain/plan"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shipdesk/shipdesk/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name                string           `json:"name" validate:"required,max=255"`
	DeliveriesPerMonth  int              `json:"deliveries_per_month" validate:"min=0"`
	SpaceLimitCbm       decimal.Decimal  `json:"space_limit_cbm" swaggertype:"string"`
	OverSpaceRateEur    decimal.Decimal  `json:"over_space_rate_eur" swaggertype:"string"`
	OperationsRateEur   decimal.Decimal  `json:"operations_rate_eur" swaggertype:"string"`
	PromotionalPriceEur *decimal.Decimal `json:"promotional_price_eur,omitempty" swaggertype:"string"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	amounts := map[string]decimal.Decimal{
		"space_limit_cbm":     r.SpaceLimitCbm,
		"over_space_rate_eur": r.OverSpaceRateEur,
		"operations_rate_eur": r.OperationsRateEur,
	}
	if r.PromotionalPriceEur != nil {
		amounts["promotional_price_eur"] = *r.PromotionalPriceEur
	}
	for field, amount := range amounts {
		if amount.IsNegative() {
			return ierr.NewErrorf("%s is negative", field).
				WithHintf("%s must be greater than or equal to 0", field).
				WithReportableDetails(map[string]any{
					field: amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	p := &plan.Plan{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:               r.Name,
		DeliveriesPerMonth: r.DeliveriesPerMonth,
		SpaceLimitCbm:      r.SpaceLimitCbm,
		OverSpaceRateEur:   types.RoundAmount(r.OverSpaceRateEur),
		OperationsRateEur:  types.RoundAmount(r.OperationsRateEur),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if r.PromotionalPriceEur != nil {
		promo := types.RoundAmount(*r.PromotionalPriceEur)
		p.PromotionalPriceEur = &promo
	}
	return p
}

// UpdatePlanRateRequest changes the prices of a plan. Amounts are decimal strings.
// A missing or empty promotional price clears the promotion.
type UpdatePlanRateRequest struct {
	OperationsRateEur   string  `json:"operations_rate_eur" validate:"required"`
	PromotionalPriceEur *string `json:"promotional_price_eur,omitempty"`
}

func (r *UpdatePlanRateRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	_, _, err := r.Parse()
	return err
}

// Parse returns the operations rate and the promotional price, nil when cleared
func (r *UpdatePlanRateRequest) Parse() (decimal.Decimal, *decimal.Decimal, error) {
	rate, err := types.ParseAmount("operations_rate_eur", r.OperationsRateEur)
	if err != nil {
		return decimal.Zero, nil, err
	}

	if r.PromotionalPriceEur == nil || *r.PromotionalPriceEur == "" {
		return types.RoundAmount(rate), nil, nil
	}

	promo, err := types.ParseAmount("promotional_price_eur", *r.PromotionalPriceEur)
	if err != nil {
		return decimal.Zero, nil, err
	}
	promo = types.RoundAmount(promo)
	return types.RoundAmount(rate), &promo, nil
}

type PlanResponse struct {
	*plan.Plan
	EffectivePriceEur decimal.Decimal `json:"effective_price_eur" swaggertype:"string"`
	IsPromotional     bool            `json:"is_promotional"`
}

func NewPlanResponse(p *plan.Plan) *PlanResponse {
	price, promotional := p.EffectivePrice()
	return &PlanResponse{
		Plan:              p,
		EffectivePriceEur: price,
		IsPromotional:     promotional,
	}
}

// ListPlansResponse represents the response for listing plans
type ListPlansResponse = types.ListResponse[*PlanResponse]

// PlanQuoteResponse is the public price of a plan
type PlanQuoteResponse struct {
	PlanID             string          `json:"plan_id"`
	Name               string          `json:"name"`
	DeliveriesPerMonth int             `json:"deliveries_per_month"`
	SpaceLimitCbm      decimal.Decimal `json:"space_limit_cbm" swaggertype:"string"`
	OperationsRateEur  decimal.Decimal `json:"operations_rate_eur" swaggertype:"string"`
	PriceEur           decimal.Decimal `json:"price_eur" swaggertype:"string"`
	IsPromotional      bool            `json:"is_promotional"`
	Currency           string          `json:"currency"`
}
