package sequence

import (
	"time"

	"github.com/shipdesk/shipdesk/internal/types"
)

// Counter is the persisted last value issued for a series period
type Counter struct {
	SeriesTag types.SeriesTag `db:"series_tag" json:"series_tag"`
	PeriodKey string          `db:"period_key" json:"period_key"`
	LastValue int64           `db:"last_value" json:"last_value"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Source tells how an allocated identifier was produced
type Source string

const (
	// SourceCounter identifiers come from the atomic document_sequences counter
	SourceCounter Source = "counter"
	// SourceScan identifiers were derived from the greatest identifier already stored
	SourceScan Source = "scan"
	// SourceTimestamp identifiers were derived from the clock because the store failed
	SourceTimestamp Source = "timestamp"
	// SourceUnavailable means the series column is not provisioned, no identifier was issued
	SourceUnavailable Source = "unavailable"
)

// Allocation is the result of issuing a number from a series
type Allocation struct {
	Identifier string          `json:"identifier"`
	Sequence   int64           `json:"sequence"`
	SeriesTag  types.SeriesTag `json:"series_tag"`
	PeriodKey  string          `json:"period_key"`
	Source     Source          `json:"source"`
}

// Available is false when no identifier could be issued and the caller has to proceed without one
func (a *Allocation) Available() bool {
	return a != nil && a.Source != SourceUnavailable && a.Identifier != ""
}

// Degraded is true for identifiers that are not guaranteed to continue the series
func (a *Allocation) Degraded() bool {
	return a != nil && a.Source == SourceTimestamp
}
