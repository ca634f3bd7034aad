package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/types"
)

// InMemorySequenceStore implements sequence.Repository. It keeps the identifiers
// stored in each series column and the document_sequences counters, and can be
// told to behave as if tables are not migrated or the database is down.
type InMemorySequenceStore struct {
	mu          sync.Mutex
	identifiers map[string][]string
	counters    map[string]*sequence.Counter

	counterTableMissing bool
	missingColumns      map[string]bool
	failure             error
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		identifiers:    make(map[string][]string),
		counters:       make(map[string]*sequence.Counter),
		missingColumns: make(map[string]bool),
	}
}

func columnKey(series types.Series) string {
	return series.Table + "." + series.Column
}

func counterKey(tag types.SeriesTag, periodKey string) string {
	return string(tag) + "|" + periodKey
}

// AddIdentifiers stores identifiers in the series column as the owning records would
func (s *InMemorySequenceStore) AddIdentifiers(series types.Series, identifiers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := columnKey(series)
	s.identifiers[key] = append(s.identifiers[key], identifiers...)
}

// SetCounterTableMissing makes counter operations fail with ErrSchemaMissing
func (s *InMemorySequenceStore) SetCounterTableMissing(missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterTableMissing = missing
}

// SetColumnMissing makes lookups on the series column fail with ErrSchemaMissing
func (s *InMemorySequenceStore) SetColumnMissing(series types.Series, missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missingColumns[columnKey(series)] = missing
}

// SetFailure makes every operation fail with an infrastructural error, nil restores the store
func (s *InMemorySequenceStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *InMemorySequenceStore) fail() error {
	if s.failure == nil {
		return nil
	}
	return ierr.WithError(s.failure).
		WithHint("Database is unavailable").
		Mark(ierr.ErrDatabase)
}

func (s *InMemorySequenceStore) FindMaxIdentifier(ctx context.Context, series types.Series, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return "", err
	}
	if s.missingColumns[columnKey(series)] {
		return "", ierr.NewErrorf("column %s does not exist", columnKey(series)).
			Mark(ierr.ErrSchemaMissing)
	}

	// same selection as the database scan: numeric suffixes only, largest value wins
	var max string
	var maxSeq int64
	for _, identifier := range s.identifiers[columnKey(series)] {
		seq, err := types.ParseSequence(identifier, prefix)
		if err != nil {
			continue
		}
		if max == "" || seq > maxSeq || (seq == maxSeq && identifier > max) {
			max, maxSeq = identifier, seq
		}
	}
	if max == "" {
		return "", ierr.NewErrorf("no identifier starts with %s", prefix).
			Mark(ierr.ErrNotFound)
	}
	return max, nil
}

func (s *InMemorySequenceStore) GetCounter(ctx context.Context, tag types.SeriesTag, periodKey string) (*sequence.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return nil, err
	}
	if s.counterTableMissing {
		return nil, ierr.NewError(`relation "document_sequences" does not exist`).
			Mark(ierr.ErrSchemaMissing)
	}

	counter, ok := s.counters[counterKey(tag, periodKey)]
	if !ok {
		return nil, ierr.NewErrorf("no counter for %s %s", tag, periodKey).
			Mark(ierr.ErrNotFound)
	}
	c := *counter
	return &c, nil
}

func (s *InMemorySequenceStore) NextValue(ctx context.Context, tag types.SeriesTag, periodKey string, seed int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(); err != nil {
		return 0, err
	}
	if s.counterTableMissing {
		return 0, ierr.NewError(`relation "document_sequences" does not exist`).
			Mark(ierr.ErrSchemaMissing)
	}

	now := time.Now().UTC()
	key := counterKey(tag, periodKey)
	counter, ok := s.counters[key]
	if !ok {
		if seed < 1 {
			seed = 1
		}
		s.counters[key] = &sequence.Counter{
			SeriesTag: tag,
			PeriodKey: periodKey,
			LastValue: seed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return seed, nil
	}

	counter.LastValue++
	counter.UpdatedAt = now
	return counter.LastValue, nil
}

func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identifiers = make(map[string][]string)
	s.counters = make(map[string]*sequence.Counter)
	s.missingColumns = make(map[string]bool)
	s.counterTableMissing = false
	s.failure = nil
}
