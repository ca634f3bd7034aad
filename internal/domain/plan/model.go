package plan

import (
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a subscription tier clients are billed against
type Plan struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// DeliveriesPerMonth is the number of deliveries included every month
	DeliveriesPerMonth int `db:"deliveries_per_month" json:"deliveries_per_month"`

	// SpaceLimitCbm is the storage volume included, in cubic metres
	SpaceLimitCbm decimal.Decimal `db:"space_limit_cbm" json:"space_limit_cbm" swaggertype:"string"`

	// OverSpaceRateEur is charged per cubic metre above SpaceLimitCbm
	OverSpaceRateEur decimal.Decimal `db:"over_space_rate_eur" json:"over_space_rate_eur" swaggertype:"string"`

	// OperationsRateEur is the base monthly fee
	OperationsRateEur decimal.Decimal `db:"operations_rate_eur" json:"operations_rate_eur" swaggertype:"string"`

	// PromotionalPriceEur overrides OperationsRateEur when set
	PromotionalPriceEur *decimal.Decimal `db:"promotional_price_eur" json:"promotional_price_eur,omitempty" swaggertype:"string"`

	types.BaseModel
}

// EffectivePrice returns the monthly fee currently charged for the plan and
// whether it is below the list operations rate
func (p *Plan) EffectivePrice() (decimal.Decimal, bool) {
	if p.PromotionalPriceEur == nil {
		return p.OperationsRateEur, false
	}
	return *p.PromotionalPriceEur, p.PromotionalPriceEur.LessThan(p.OperationsRateEur)
}

// OverSpaceCharge prices the volume stored above the plan allowance, rounded to cents
func (p *Plan) OverSpaceCharge(usedCbm decimal.Decimal) decimal.Decimal {
	excess := usedCbm.Sub(p.SpaceLimitCbm)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return types.RoundAmount(excess.Mul(p.OverSpaceRateEur))
}
