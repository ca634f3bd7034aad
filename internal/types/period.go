package types

import (
	"fmt"
	"time"

	ierr "github.com/shipdesk/shipdesk/internal/errors"
)

// BillingPeriod is a calendar month for which a client is charged
type BillingPeriod struct {
	Month int `json:"month" db:"month"`
	Year  int `json:"year" db:"year"`
}

// NewBillingPeriod validates and builds a billing period
func NewBillingPeriod(month, year int) (BillingPeriod, error) {
	p := BillingPeriod{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return BillingPeriod{}, err
	}
	return p, nil
}

// CurrentBillingPeriod returns the billing period containing now
func CurrentBillingPeriod(now time.Time) BillingPeriod {
	now = now.UTC()
	return BillingPeriod{Month: int(now.Month()), Year: now.Year()}
}

func (p BillingPeriod) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ierr.NewError("invalid billing month").
			WithHintf("Month must be between 1 and 12, got %d", p.Month).
			Mark(ierr.ErrValidation)
	}
	if p.Year < 2000 || p.Year > 9999 {
		return ierr.NewError("invalid billing year").
			WithHintf("Year must be between 2000 and 9999, got %d", p.Year).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Start returns the first instant of the period in UTC
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period
func (p BillingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
