package setupfee

import (
	"time"

	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
)

// SetupFee is the one-off onboarding charge. Only the most recently created
// record is authoritative.
type SetupFee struct {
	ID string `db:"id" json:"id"`

	// SuggestedAmountEur is the list price
	SuggestedAmountEur decimal.Decimal `db:"suggested_amount_eur" json:"suggested_amount_eur" swaggertype:"string"`

	// CurrentAmountEur is a promotional override of the list price
	CurrentAmountEur *decimal.Decimal `db:"current_amount_eur" json:"current_amount_eur,omitempty" swaggertype:"string"`

	// ValidUntil is the last instant the promotional amount applies, nil means open ended
	ValidUntil *time.Time `db:"valid_until" json:"valid_until,omitempty"`

	types.BaseModel
}

// State describes which amount of a setup fee applies
type State string

const (
	// StateSuggestedOnly has no promotional amount configured
	StateSuggestedOnly State = "suggested_only"
	// StatePromotionPending has a promotional amount that is still valid
	StatePromotionPending State = "promotion_pending"
	// StatePromotionExpired has a promotional amount past its validity
	StatePromotionExpired State = "promotion_expired"
)

// EffectiveFee is the amount charged for a setup fee at a given instant
type EffectiveFee struct {
	AmountEur          decimal.Decimal `json:"amount_eur" swaggertype:"string"`
	IsPromotional      bool            `json:"is_promotional"`
	SuggestedAmountEur decimal.Decimal `json:"suggested_amount_eur" swaggertype:"string"`
	ValidUntil         *time.Time      `json:"valid_until,omitempty"`
	State              State           `json:"state"`
}

// Effective resolves the amount charged at now. A current amount equal to the
// suggested one is not a promotion. The validity bound is inclusive and is
// reported as stored whatever the resulting state.
func (f *SetupFee) Effective(now time.Time) EffectiveFee {
	result := EffectiveFee{
		AmountEur:          f.SuggestedAmountEur,
		SuggestedAmountEur: f.SuggestedAmountEur,
		ValidUntil:         f.ValidUntil,
		State:              StateSuggestedOnly,
	}

	if f.CurrentAmountEur == nil || f.CurrentAmountEur.Equal(f.SuggestedAmountEur) {
		return result
	}

	if f.ValidUntil != nil && f.ValidUntil.Before(now) {
		result.State = StatePromotionExpired
		return result
	}

	result.AmountEur = *f.CurrentAmountEur
	result.IsPromotional = f.CurrentAmountEur.LessThan(f.SuggestedAmountEur)
	result.State = StatePromotionPending
	return result
}
