package charges

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/types"
)

// Repository defines the interface for monthly charges persistence
type Repository interface {
	// Get returns the record of a client period, ErrNotFound when absent
	Get(ctx context.Context, clientID string, period types.BillingPeriod) (*MonthlyCharges, error)

	// Create inserts a new record with version 1. ErrAlreadyExists is returned
	// when another writer created the period first.
	Create(ctx context.Context, c *MonthlyCharges) error

	// Update writes the record only if its stored version is still expectedVersion.
	// It fails with ErrVersionConflict otherwise and bumps c.Version on success.
	Update(ctx context.Context, c *MonthlyCharges, expectedVersion int64) error

	// AddLine appends an audit line, ErrAlreadyExists when its idempotency key was used
	AddLine(ctx context.Context, line *Line) error
	ListLines(ctx context.Context, chargesID string) ([]*Line, error)
	HasLine(ctx context.Context, idempotencyKey string) (bool, error)
}
