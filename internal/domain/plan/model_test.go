package plan

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	p := &Plan{OperationsRateEur: decimal.NewFromInt(120)}

	price, promo := p.EffectivePrice()
	assert.True(t, price.Equal(decimal.NewFromInt(120)))
	assert.False(t, promo)

	p.PromotionalPriceEur = lo.ToPtr(decimal.NewFromInt(99))
	price, promo = p.EffectivePrice()
	assert.True(t, price.Equal(decimal.NewFromInt(99)))
	assert.True(t, promo)

	p.PromotionalPriceEur = lo.ToPtr(decimal.NewFromInt(150))
	price, promo = p.EffectivePrice()
	assert.True(t, price.Equal(decimal.NewFromInt(150)))
	assert.False(t, promo)
}

func TestOverSpaceCharge(t *testing.T) {
	p := &Plan{
		SpaceLimitCbm:    decimal.NewFromInt(10),
		OverSpaceRateEur: decimal.RequireFromString("12.5"),
	}

	tests := []struct {
		used     string
		expected string
	}{
		{"0", "0.00"},
		{"10", "0.00"},
		{"10.5", "6.25"},
		{"13.333", "41.66"},
	}

	for _, tt := range tests {
		t.Run(tt.used, func(t *testing.T) {
			got := p.OverSpaceCharge(decimal.RequireFromString(tt.used))
			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}
