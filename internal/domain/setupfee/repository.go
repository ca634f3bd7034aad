package setupfee

import "context"

// Repository defines the interface for setup fee persistence
type Repository interface {
	Create(ctx context.Context, fee *SetupFee) error
	// GetLatest returns the most recently created published setup fee,
	// ErrNotFound when none was configured
	GetLatest(ctx context.Context) (*SetupFee, error)
}
