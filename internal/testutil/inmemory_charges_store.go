package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/domain/charges"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
)

// InMemoryChargesStore implements charges.Repository with the same versioned write
// semantics as the database
type InMemoryChargesStore struct {
	mu      sync.Mutex
	records map[string]*charges.MonthlyCharges
	lines   map[string]*charges.Line
	failure error
}

func NewInMemoryChargesStore() *InMemoryChargesStore {
	return &InMemoryChargesStore{
		records: make(map[string]*charges.MonthlyCharges),
		lines:   make(map[string]*charges.Line),
	}
}

func periodKey(clientID string, period types.BillingPeriod) string {
	return fmt.Sprintf("%s|%s", clientID, period)
}

func copyCharges(c *charges.MonthlyCharges) *charges.MonthlyCharges {
	cp := *c
	if c.ClosedAt != nil {
		cp.ClosedAt = lo.ToPtr(*c.ClosedAt)
	}
	return &cp
}

// SetFailure makes every operation fail with an infrastructural error, nil restores the store
func (s *InMemoryChargesStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *InMemoryChargesStore) fail() error {
	if s.failure == nil {
		return nil
	}
	return ierr.WithError(s.failure).
		WithHint("Database is unavailable").
		Mark(ierr.ErrDatabase)
}

func (s *InMemoryChargesStore) Get(ctx context.Context, clientID string, period types.BillingPeriod) (*charges.MonthlyCharges, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return nil, err
	}

	c, ok := s.records[periodKey(clientID, period)]
	if !ok {
		return nil, ierr.NewErrorf("no charges for %s in %s", clientID, period).
			WithHint("Monthly charges not found").
			Mark(ierr.ErrNotFound)
	}
	return copyCharges(c), nil
}

func (s *InMemoryChargesStore) Create(ctx context.Context, c *charges.MonthlyCharges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return err
	}

	key := periodKey(c.ClientID, c.Period())
	if _, ok := s.records[key]; ok {
		return ierr.NewErrorf("charges for %s in %s already exist", c.ClientID, c.Period()).
			Mark(ierr.ErrAlreadyExists)
	}

	c.Version = 1
	c.Persisted = true
	s.records[key] = copyCharges(c)
	return nil
}

func (s *InMemoryChargesStore) Update(ctx context.Context, c *charges.MonthlyCharges, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return err
	}

	key := periodKey(c.ClientID, c.Period())
	stored, ok := s.records[key]
	if !ok || stored.ID != c.ID || stored.Version != expectedVersion {
		return ierr.NewErrorf("monthly charges %s moved past version %d", c.ID, expectedVersion).
			Mark(ierr.ErrVersionConflict)
	}

	c.Version = expectedVersion + 1
	s.records[key] = copyCharges(c)
	return nil
}

func (s *InMemoryChargesStore) AddLine(ctx context.Context, line *charges.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return err
	}

	for _, l := range s.lines {
		if l.IdempotencyKey == line.IdempotencyKey {
			return ierr.NewErrorf("charge line %s already recorded", line.IdempotencyKey).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	cp := *line
	s.lines[line.ID] = &cp
	return nil
}

func (s *InMemoryChargesStore) ListLines(ctx context.Context, chargesID string) ([]*charges.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return nil, err
	}

	lines := make([]*charges.Line, 0)
	for _, l := range s.lines {
		if l.ChargesID == chargesID {
			cp := *l
			lines = append(lines, &cp)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].ID < lines[j].ID
		}
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})
	return lines, nil
}

func (s *InMemoryChargesStore) HasLine(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return false, err
	}

	for _, l := range s.lines {
		if l.IdempotencyKey == idempotencyKey {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of persisted records
func (s *InMemoryChargesStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *InMemoryChargesStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*charges.MonthlyCharges)
	s.lines = make(map[string]*charges.Line)
	s.failure = nil
}
