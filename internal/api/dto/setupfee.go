package dto

import (
	"context"
	"time"

	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shipdesk/shipdesk/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateSetupFeeRequest struct {
	SuggestedAmountEur decimal.Decimal  `json:"suggested_amount_eur" swaggertype:"string"`
	CurrentAmountEur   *decimal.Decimal `json:"current_amount_eur,omitempty" swaggertype:"string"`
	ValidUntil         *time.Time       `json:"valid_until,omitempty"`
}

func (r *CreateSetupFeeRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SuggestedAmountEur.IsNegative() {
		return ierr.NewError("suggested_amount_eur is negative").
			WithHint("Suggested amount must be greater than or equal to 0").
			Mark(ierr.ErrValidation)
	}
	if r.CurrentAmountEur != nil && r.CurrentAmountEur.IsNegative() {
		return ierr.NewError("current_amount_eur is negative").
			WithHint("Current amount must be greater than or equal to 0").
			Mark(ierr.ErrValidation)
	}
	if r.ValidUntil != nil && r.CurrentAmountEur == nil {
		return ierr.NewError("valid_until without current_amount_eur").
			WithHint("A validity date needs a promotional amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateSetupFeeRequest) ToSetupFee(ctx context.Context) *setupfee.SetupFee {
	fee := &setupfee.SetupFee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SETUP_FEE),
		SuggestedAmountEur: types.RoundAmount(r.SuggestedAmountEur),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if r.CurrentAmountEur != nil {
		current := types.RoundAmount(*r.CurrentAmountEur)
		fee.CurrentAmountEur = &current
	}
	if r.ValidUntil != nil {
		validUntil := r.ValidUntil.UTC()
		fee.ValidUntil = &validUntil
	}
	return fee
}

type SetupFeeResponse struct {
	*setupfee.SetupFee
}

// EffectiveSetupFeeResponse is the setup fee amount charged at EvaluatedAt
type EffectiveSetupFeeResponse struct {
	setupfee.EffectiveFee
	SetupFeeID  string    `json:"setup_fee_id"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
