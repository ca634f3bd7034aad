package charges

import (
	"time"

	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
)

// MonthlyCharges aggregates what a client owes on top of the plan price for a month
type MonthlyCharges struct {
	ID                          string          `db:"id" json:"id"`
	ClientID                    string          `db:"client_id" json:"client_id"`
	Month                       int             `db:"month" json:"month"`
	Year                        int             `db:"year" json:"year"`
	OverSpaceAmountEur          decimal.Decimal `db:"over_space_amount_eur" json:"over_space_amount_eur" swaggertype:"string"`
	AdditionalServicesAmountEur decimal.Decimal `db:"additional_services_amount_eur" json:"additional_services_amount_eur" swaggertype:"string"`
	TotalAmountEur              decimal.Decimal `db:"total_amount_eur" json:"total_amount_eur" swaggertype:"string"`

	// Version is bumped by every persisted mutation
	Version  int64      `db:"version" json:"version"`
	ClosedAt *time.Time `db:"closed_at" json:"closed_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Persisted is false for the zero record returned when no row exists yet
	Persisted bool `db:"-" json:"persisted"`
}

// NewZero returns the logical zero record of a period. It is not stored.
func NewZero(clientID string, period types.BillingPeriod) *MonthlyCharges {
	return &MonthlyCharges{
		ClientID:                    clientID,
		Month:                       period.Month,
		Year:                        period.Year,
		OverSpaceAmountEur:          decimal.Zero,
		AdditionalServicesAmountEur: decimal.Zero,
		TotalAmountEur:              decimal.Zero,
	}
}

// Period returns the billing period of the record
func (c *MonthlyCharges) Period() types.BillingPeriod {
	return types.BillingPeriod{Month: c.Month, Year: c.Year}
}

// Recalculate derives the total from the itemized amounts
func (c *MonthlyCharges) Recalculate() {
	c.OverSpaceAmountEur = types.RoundAmount(c.OverSpaceAmountEur)
	c.AdditionalServicesAmountEur = types.RoundAmount(c.AdditionalServicesAmountEur)
	c.TotalAmountEur = c.OverSpaceAmountEur.Add(c.AdditionalServicesAmountEur)
}

func (c *MonthlyCharges) IsClosed() bool {
	return c.ClosedAt != nil
}

// LineKind tells which component of the record a line contributed to
type LineKind string

const (
	LineKindOverSpace LineKind = "over_space"
	LineKindService   LineKind = "service"
)

// Line is an append-only audit entry of a usage fact applied to a record
type Line struct {
	ID             string          `db:"id" json:"id"`
	ChargesID      string          `db:"charges_id" json:"charges_id"`
	Kind           LineKind        `db:"kind" json:"kind"`
	Description    string          `db:"description" json:"description"`
	AmountEur      decimal.Decimal `db:"amount_eur" json:"amount_eur" swaggertype:"string"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
}
