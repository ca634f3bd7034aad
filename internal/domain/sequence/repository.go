package sequence

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/types"
)

// Repository is the record store view used to issue document numbers
type Repository interface {
	// FindMaxIdentifier returns the greatest identifier stored in the series column that
	// starts with prefix. Identifiers are ordered by the numeric value of their suffix.
	// It fails with ErrNotFound when nothing matches and ErrSchemaMissing when the
	// owning table or column does not exist.
	FindMaxIdentifier(ctx context.Context, series types.Series, prefix string) (string, error)

	// GetCounter returns the counter of a series period, ErrNotFound when none was issued yet
	GetCounter(ctx context.Context, tag types.SeriesTag, periodKey string) (*Counter, error)

	// NextValue atomically increments the counter of a series period and returns the
	// new value. A missing counter is created holding seed.
	NextValue(ctx context.Context, tag types.SeriesTag, periodKey string, seed int64) (int64, error)
}
