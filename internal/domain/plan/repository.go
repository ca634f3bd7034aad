package plan

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/types"
)

// Repository defines the interface for plan persistence
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, filter *types.PlanFilter) ([]*Plan, error)
	Count(ctx context.Context, filter *types.PlanFilter) (int, error)
	// UpdateRates persists the operations rate and promotional price of the plan
	// together with its updated_at/updated_by stamp
	UpdateRates(ctx context.Context, plan *Plan) error
}
