package types

import (
	"strings"

	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	// CurrencyEUR is the only billing currency of the back office
	CurrencyEUR = "eur"

	// CurrencyPrecision is the number of decimal places of persisted amounts
	CurrencyPrecision int32 = 2
)

// RoundAmount rounds an amount half away from zero to cents
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CurrencyPrecision)
}

// ParseAmount parses a non negative decimal amount.
// field names the input in the validation error.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHintf("%s must be a valid decimal amount", field).
			WithReportableDetails(map[string]any{
				field: value,
			}).
			Mark(ierr.ErrValidation)
	}
	if amount.IsNegative() {
		return decimal.Zero, ierr.NewErrorf("%s is negative", field).
			WithHintf("%s must be greater than or equal to 0", field).
			WithReportableDetails(map[string]any{
				field: value,
			}).
			Mark(ierr.ErrValidation)
	}
	return amount, nil
}
