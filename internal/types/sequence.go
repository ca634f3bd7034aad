package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ierr "github.com/shipdesk/shipdesk/internal/errors"
)

// SeriesTag is the human readable prefix of a numbering series
type SeriesTag string

const (
	SeriesTagDelivery         SeriesTag = "DEL"
	SeriesTagInternalTracking SeriesTag = "TRK"
	SeriesTagInvoice          SeriesTag = "INV"
	SeriesTagProforma         SeriesTag = "PRO"
)

const (
	// DefaultSequenceWidth is the minimum number of digits of the sequence part.
	// Wider sequences are never truncated.
	DefaultSequenceWidth = 3

	// DefaultFallbackDigits is how many trailing digits of the epoch milliseconds
	// are used when a sequence cannot be read from the store.
	DefaultFallbackDigits = 6

	// MaxSequenceDigits bounds the numeric suffix so it always fits a bigint.
	// Stored values with longer or non digit suffixes are not part of the series.
	MaxSequenceDigits = 18
)

var sqlIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Series binds a tag to the record column that holds the identifiers it issued
type Series struct {
	Name   string    `json:"name"`
	Tag    SeriesTag `json:"tag"`
	Table  string    `json:"table"`
	Column string    `json:"column"`
}

var (
	SeriesDelivery = Series{
		Name:   "delivery",
		Tag:    SeriesTagDelivery,
		Table:  "deliveries",
		Column: "delivery_number",
	}
	SeriesInternalTracking = Series{
		Name:   "internal-tracking",
		Tag:    SeriesTagInternalTracking,
		Table:  "deliveries",
		Column: "internal_tracking_number",
	}
	SeriesInvoice = Series{
		Name:   "invoice",
		Tag:    SeriesTagInvoice,
		Table:  "invoices",
		Column: "invoice_number",
	}
	SeriesProforma = Series{
		Name:   "proforma",
		Tag:    SeriesTagProforma,
		Table:  "invoices",
		Column: "proforma_number",
	}
)

// KnownSeries returns the series issued by the back office keyed by name
func KnownSeries() map[string]Series {
	return map[string]Series{
		SeriesDelivery.Name:         SeriesDelivery,
		SeriesInternalTracking.Name: SeriesInternalTracking,
		SeriesInvoice.Name:          SeriesInvoice,
		SeriesProforma.Name:         SeriesProforma,
	}
}

// Validate checks the series can be safely interpolated into a query
func (s Series) Validate() error {
	if s.Tag == "" {
		return ierr.NewError("series tag is required").
			WithHint("Series tag can not be empty").
			Mark(ierr.ErrValidation)
	}
	if strings.Contains(string(s.Tag), "-") {
		return ierr.NewError("series tag must not contain a dash").
			WithHintf("Series tag %q can not contain '-'", s.Tag).
			Mark(ierr.ErrValidation)
	}
	if !sqlIdentifier.MatchString(s.Table) || !sqlIdentifier.MatchString(s.Column) {
		return ierr.NewError("invalid series storage").
			WithHint("Series table and column must be plain identifiers").
			WithReportableDetails(map[string]any{
				"table":  s.Table,
				"column": s.Column,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SequencePrefix returns the identifier prefix shared by every value of a series period
func SequencePrefix(tag SeriesTag, periodKey string) string {
	return fmt.Sprintf("%s-%s-", tag, periodKey)
}

// FormatIdentifier renders TAG-PERIOD-SEQ, zero padding seq to at least width digits
func FormatIdentifier(tag SeriesTag, periodKey string, seq int64, width int) string {
	if width <= 0 {
		width = DefaultSequenceWidth
	}
	return fmt.Sprintf("%s%0*d", SequencePrefix(tag, periodKey), width, seq)
}

// ParseSequence extracts the numeric sequence from an identifier carrying prefix
func ParseSequence(identifier, prefix string) (int64, error) {
	suffix, ok := strings.CutPrefix(identifier, prefix)
	if !ok {
		return 0, ierr.NewErrorf("identifier %q does not start with %q", identifier, prefix).
			Mark(ierr.ErrValidation)
	}
	if suffix == "" || len(suffix) > MaxSequenceDigits || strings.TrimLeft(suffix, "0123456789") != "" {
		return 0, ierr.NewErrorf("identifier %q has a non numeric sequence", identifier).
			Mark(ierr.ErrValidation)
	}

	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHintf("identifier %q has an invalid sequence", identifier).
			Mark(ierr.ErrValidation)
	}
	return seq, nil
}

// TimestampSequence derives a sequence from the trailing digits of the epoch milliseconds
func TimestampSequence(now time.Time, digits int) int64 {
	if digits <= 0 {
		digits = DefaultFallbackDigits
	}
	mod := int64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return now.UnixMilli() % mod
}

// YearPeriodKey returns the calendar year bucket of t, e.g. 2025
func YearPeriodKey(t time.Time) string {
	return t.Format("2006")
}

// MonthPeriodKey returns the calendar month bucket of t, e.g. 202503
func MonthPeriodKey(t time.Time) string {
	return t.Format("200601")
}
