package testutil

import (
	"context"
	"strings"

	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
)

// InMemorySetupFeeStore implements setupfee.Repository
type InMemorySetupFeeStore struct {
	*InMemoryStore[*setupfee.SetupFee]
}

func NewInMemorySetupFeeStore() *InMemorySetupFeeStore {
	return &InMemorySetupFeeStore{
		InMemoryStore: NewInMemoryStore[*setupfee.SetupFee](),
	}
}

func (s *InMemorySetupFeeStore) Create(ctx context.Context, fee *setupfee.SetupFee) error {
	if fee == nil {
		return ierr.NewError("setup fee cannot be nil").Mark(ierr.ErrValidation)
	}
	c := *fee
	return s.InMemoryStore.Create(ctx, fee.ID, &c)
}

func (s *InMemorySetupFeeStore) GetLatest(ctx context.Context) (*setupfee.SetupFee, error) {
	fees, err := s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, f *setupfee.SetupFee, _ interface{}) bool {
			return f.Status == types.StatusPublished
		},
		func(i, j *setupfee.SetupFee) bool {
			if i.CreatedAt.Equal(j.CreatedAt) {
				return strings.Compare(i.ID, j.ID) > 0
			}
			return i.CreatedAt.After(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	if len(fees) == 0 {
		return nil, ierr.NewError("no setup fee").
			WithHint("No setup fee has been configured").
			Mark(ierr.ErrNotFound)
	}

	c := *fees[0]
	return &c, nil
}
