package service

import (
	"context"
	"regexp"
	"time"

	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/shipdesk/shipdesk/internal/types"
)

// SequenceService issues human readable document numbers TAG-PERIOD-SEQ
type SequenceService interface {
	// Allocate issues the next identifier of a series period. It never fails because
	// the store is degraded: an unreachable store yields a timestamp derived identifier
	// and a series column that is not migrated yields an unavailable allocation.
	Allocate(ctx context.Context, series types.Series, periodKey string) (*sequence.Allocation, error)

	// Peek returns the identifier Allocate would issue next without consuming it
	Peek(ctx context.Context, series types.Series, periodKey string) (*sequence.Allocation, error)
}

type sequenceService struct {
	ServiceParams
	locks  *keyedMutex
	issued *highWater
	now    func() time.Time
}

func NewSequenceService(params ServiceParams) SequenceService {
	return &sequenceService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
		issued:        newHighWater(),
		now:           time.Now,
	}
}

var periodKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func validateAllocation(series types.Series, periodKey string) error {
	if err := series.Validate(); err != nil {
		return err
	}
	if !periodKeyPattern.MatchString(periodKey) {
		return ierr.NewErrorf("invalid period key %q", periodKey).
			WithHint("Period key must be a non empty alphanumeric value such as 2025").
			WithReportableDetails(map[string]any{
				"period_key": periodKey,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s *sequenceService) Allocate(ctx context.Context, series types.Series, periodKey string) (*sequence.Allocation, error) {
	if err := validateAllocation(series, periodKey); err != nil {
		return nil, err
	}

	span, ctx := s.Sentry.StartTransaction(ctx, "sequence.allocate")
	defer sentry.FinishSpan(span)

	key := types.SequencePrefix(series.Tag, periodKey)
	unlock := s.locks.Lock(key)
	defer unlock()

	if s.Config.Sequence.CounterEnabled {
		counter, err := s.SequenceRepo.GetCounter(ctx, series.Tag, periodKey)
		switch {
		case err == nil:
			seq, err := s.SequenceRepo.NextValue(ctx, series.Tag, periodKey, counter.LastValue+1)
			if err != nil {
				return s.degrade(ctx, series, periodKey, err), nil
			}
			s.issued.record(key, seq)
			return s.allocation(series, periodKey, seq, sequence.SourceCounter), nil

		case ierr.IsNotFound(err):
			// first number of the period, continue whatever the record table already holds
			seed, err := s.scanNext(ctx, series, periodKey)
			if err != nil {
				return s.degrade(ctx, series, periodKey, err), nil
			}
			seq, err := s.SequenceRepo.NextValue(ctx, series.Tag, periodKey, s.issued.next(key, seed))
			if err != nil {
				return s.degrade(ctx, series, periodKey, err), nil
			}
			s.issued.record(key, seq)
			return s.allocation(series, periodKey, seq, sequence.SourceCounter), nil

		case ierr.IsSchemaMissing(err):
			s.Logger.Debugw("sequence counter table is not migrated, scanning records",
				"series", series.Name,
				"period_key", periodKey)

		default:
			return s.degrade(ctx, series, periodKey, err), nil
		}
	}

	seq, err := s.scanNext(ctx, series, periodKey)
	if err != nil {
		return s.degrade(ctx, series, periodKey, err), nil
	}
	// numbers issued here but not yet stored by their callers are invisible to the scan
	seq = s.issued.next(key, seq)
	s.issued.record(key, seq)
	return s.allocation(series, periodKey, seq, sequence.SourceScan), nil
}

func (s *sequenceService) Peek(ctx context.Context, series types.Series, periodKey string) (*sequence.Allocation, error) {
	if err := validateAllocation(series, periodKey); err != nil {
		return nil, err
	}

	if s.Config.Sequence.CounterEnabled {
		counter, err := s.SequenceRepo.GetCounter(ctx, series.Tag, periodKey)
		if err == nil {
			return s.allocation(series, periodKey, counter.LastValue+1, sequence.SourceCounter), nil
		}
		if !ierr.IsNotFound(err) && !ierr.IsSchemaMissing(err) {
			return nil, err
		}
	}

	seq, err := s.scanNext(ctx, series, periodKey)
	if ierr.IsSchemaMissing(err) {
		return s.unavailable(series, periodKey), nil
	}
	if err != nil {
		return nil, err
	}
	seq = s.issued.next(types.SequencePrefix(series.Tag, periodKey), seq)
	return s.allocation(series, periodKey, seq, sequence.SourceScan), nil
}

// scanNext derives the next sequence from the greatest identifier stored in the series column
func (s *sequenceService) scanNext(ctx context.Context, series types.Series, periodKey string) (int64, error) {
	prefix := types.SequencePrefix(series.Tag, periodKey)

	latest, err := s.SequenceRepo.FindMaxIdentifier(ctx, series, prefix)
	if ierr.IsNotFound(err) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	previous, err := types.ParseSequence(latest, prefix)
	if err != nil {
		s.Logger.Warnw("latest identifier has a foreign format, restarting the sequence",
			"series", series.Name,
			"identifier", latest,
			"error", err)
		return 1, nil
	}

	return previous + 1, nil
}

// degrade resolves a store failure: a missing series column means no identifier can
// be stored at all, anything else gets a timestamp derived identifier
func (s *sequenceService) degrade(ctx context.Context, series types.Series, periodKey string, err error) *sequence.Allocation {
	if ierr.IsSchemaMissing(err) {
		s.Logger.Warnw("series column is not migrated, no identifier issued",
			"series", series.Name,
			"table", series.Table,
			"column", series.Column)
		s.Sentry.AddBreadcrumb(ctx, "sequence", "series column missing", map[string]interface{}{
			"series": series.Name,
			"table":  series.Table,
			"column": series.Column,
		})
		return s.unavailable(series, periodKey)
	}

	digits := s.Config.Sequence.FallbackDigits
	if digits <= 0 {
		digits = types.DefaultFallbackDigits
	}
	seq := types.TimestampSequence(s.now(), digits)

	s.Logger.Errorw("sequence store unavailable, issuing timestamp identifier",
		"series", series.Name,
		"period_key", periodKey,
		"sequence", seq,
		"error", err)
	s.Sentry.AddBreadcrumb(ctx, "sequence", "timestamp fallback", map[string]interface{}{
		"series":     series.Name,
		"period_key": periodKey,
		"sequence":   seq,
	})
	s.Sentry.CaptureException(ctx, err)

	alloc := s.allocation(series, periodKey, seq, sequence.SourceTimestamp)
	alloc.Identifier = types.FormatIdentifier(series.Tag, periodKey, seq, max(digits, s.width()))
	return alloc
}

func (s *sequenceService) width() int {
	if s.Config.Sequence.MinWidth <= 0 {
		return types.DefaultSequenceWidth
	}
	return s.Config.Sequence.MinWidth
}

func (s *sequenceService) allocation(series types.Series, periodKey string, seq int64, source sequence.Source) *sequence.Allocation {
	return &sequence.Allocation{
		Identifier: types.FormatIdentifier(series.Tag, periodKey, seq, s.width()),
		Sequence:   seq,
		SeriesTag:  series.Tag,
		PeriodKey:  periodKey,
		Source:     source,
	}
}

func (s *sequenceService) unavailable(series types.Series, periodKey string) *sequence.Allocation {
	return &sequence.Allocation{
		SeriesTag: series.Tag,
		PeriodKey: periodKey,
		Source:    sequence.SourceUnavailable,
	}
}
