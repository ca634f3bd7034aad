package dto

import (
	"time"

	"github.com/shipdesk/shipdesk/internal/domain/charges"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shipdesk/shipdesk/internal/validator"
	"github.com/shopspring/decimal"
)

// RecordSpaceUsageRequest reports the volume a client stored during a month
type RecordSpaceUsageRequest struct {
	ClientID string          `json:"client_id" validate:"required"`
	PlanID   string          `json:"plan_id" validate:"required"`
	Month    int             `json:"month" validate:"required,min=1,max=12"`
	Year     int             `json:"year" validate:"required"`
	UsedCbm  decimal.Decimal `json:"used_cbm" swaggertype:"string"`
}

func (r *RecordSpaceUsageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.UsedCbm.IsNegative() {
		return ierr.NewError("used_cbm is negative").
			WithHint("Used volume must be greater than or equal to 0").
			Mark(ierr.ErrValidation)
	}
	return r.Period().Validate()
}

func (r *RecordSpaceUsageRequest) Period() types.BillingPeriod {
	return types.BillingPeriod{Month: r.Month, Year: r.Year}
}

// AddServiceChargeRequest adds an additional service to a client month.
// Requests carrying the same idempotency key are applied once.
type AddServiceChargeRequest struct {
	ClientID       string          `json:"client_id" validate:"required"`
	Month          int             `json:"month" validate:"required,min=1,max=12"`
	Year           int             `json:"year" validate:"required"`
	AmountEur      decimal.Decimal `json:"amount_eur" swaggertype:"string"`
	Description    string          `json:"description" validate:"required,max=500"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" validate:"omitempty,max=64"`
}

func (r *AddServiceChargeRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.AmountEur.IsPositive() {
		return ierr.NewError("amount_eur must be positive").
			WithHint("Service charge amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	return r.Period().Validate()
}

func (r *AddServiceChargeRequest) Period() types.BillingPeriod {
	return types.BillingPeriod{Month: r.Month, Year: r.Year}
}

type MonthlyChargesResponse struct {
	*charges.MonthlyCharges
	Lines []*charges.Line `json:"lines,omitempty"`
}

// MonthlyBillResponse is the full amount owed by a client for a month
type MonthlyBillResponse struct {
	ClientID                    string          `json:"client_id"`
	PlanID                      string          `json:"plan_id"`
	Month                       int             `json:"month"`
	Year                        int             `json:"year"`
	PeriodStart                 time.Time       `json:"period_start"`
	PeriodEnd                   time.Time       `json:"period_end"`
	BasePriceEur                decimal.Decimal `json:"base_price_eur" swaggertype:"string"`
	IsPromotional               bool            `json:"is_promotional"`
	OverSpaceAmountEur          decimal.Decimal `json:"over_space_amount_eur" swaggertype:"string"`
	AdditionalServicesAmountEur decimal.Decimal `json:"additional_services_amount_eur" swaggertype:"string"`
	ChargesTotalEur             decimal.Decimal `json:"charges_total_eur" swaggertype:"string"`
	TotalAmountEur              decimal.Decimal `json:"total_amount_eur" swaggertype:"string"`
	Currency                    string          `json:"currency"`
	Closed                      bool            `json:"closed"`
}
