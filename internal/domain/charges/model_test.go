package charges

import (
	"testing"

	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewZero(t *testing.T) {
	c := NewZero("client_1", types.BillingPeriod{Month: 3, Year: 2025})

	assert.Equal(t, "client_1", c.ClientID)
	assert.Equal(t, 3, c.Month)
	assert.Equal(t, 2025, c.Year)
	assert.True(t, c.TotalAmountEur.IsZero())
	assert.False(t, c.Persisted)
	assert.False(t, c.IsClosed())
	assert.Empty(t, c.ID)
}

func TestRecalculate(t *testing.T) {
	c := &MonthlyCharges{
		OverSpaceAmountEur:          decimal.RequireFromString("10.005"),
		AdditionalServicesAmountEur: decimal.RequireFromString("4.5"),
		TotalAmountEur:              decimal.NewFromInt(999),
	}

	c.Recalculate()

	assert.Equal(t, "10.01", c.OverSpaceAmountEur.StringFixed(2))
	assert.Equal(t, "14.51", c.TotalAmountEur.StringFixed(2))
	assert.True(t, c.TotalAmountEur.Equal(c.OverSpaceAmountEur.Add(c.AdditionalServicesAmountEur)))
}
