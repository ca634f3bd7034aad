package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/testutil"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

type SequenceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service *sequenceService
	store   *testutil.InMemorySequenceStore
}

func TestSequenceService(t *testing.T) {
	suite.Run(t, new(SequenceServiceSuite))
}

func (s *SequenceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.store = s.GetStores().SequenceRepo.(*testutil.InMemorySequenceStore)
	s.service = NewSequenceService(newTestServiceParams(&s.BaseServiceTestSuite)).(*sequenceService)
}

// reset empties the store and starts a fresh service, as after a process restart
func (s *SequenceServiceSuite) reset() {
	s.store.Clear()
	s.service = NewSequenceService(newTestServiceParams(&s.BaseServiceTestSuite)).(*sequenceService)
}

func (s *SequenceServiceSuite) allocate(series types.Series, periodKey string) *sequence.Allocation {
	alloc, err := s.service.Allocate(s.GetContext(), series, periodKey)
	s.Require().NoError(err)
	s.Require().NotNil(alloc)
	return alloc
}

func (s *SequenceServiceSuite) TestAllocateFreshSeries() {
	alloc := s.allocate(types.SeriesDelivery, "2025")

	s.Equal("DEL-2025-001", alloc.Identifier)
	s.Equal(int64(1), alloc.Sequence)
	s.Equal(sequence.SourceCounter, alloc.Source)
	s.True(alloc.Available())
	s.False(alloc.Degraded())
}

func (s *SequenceServiceSuite) TestAllocateSequentialHasNoGaps() {
	for _, counterEnabled := range []bool{true, false} {
		s.Run(fmt.Sprintf("counter_enabled=%t", counterEnabled), func() {
			s.reset()
			s.GetConfig().Sequence.CounterEnabled = counterEnabled

			for i := 1; i <= 12; i++ {
				alloc := s.allocate(types.SeriesInvoice, "2025")
				s.Equal(int64(i), alloc.Sequence)
				s.Equal(fmt.Sprintf("INV-2025-%03d", i), alloc.Identifier)
				// the caller stores the identifier on its record
				s.store.AddIdentifiers(types.SeriesInvoice, alloc.Identifier)
			}
		})
	}
}

func (s *SequenceServiceSuite) TestAllocateScanPathWhenCounterTableMissing() {
	s.store.SetCounterTableMissing(true)

	alloc := s.allocate(types.SeriesDelivery, "2025")
	s.Equal("DEL-2025-001", alloc.Identifier)
	s.Equal(sequence.SourceScan, alloc.Source)

	s.store.AddIdentifiers(types.SeriesDelivery, alloc.Identifier)
	alloc = s.allocate(types.SeriesDelivery, "2025")
	s.Equal("DEL-2025-002", alloc.Identifier)
}

func (s *SequenceServiceSuite) TestCounterContinuesExistingRecords() {
	s.store.AddIdentifiers(types.SeriesDelivery, "DEL-2025-005", "DEL-2025-007", "DEL-2024-120")

	alloc := s.allocate(types.SeriesDelivery, "2025")
	s.Equal("DEL-2025-008", alloc.Identifier)
	s.Equal(sequence.SourceCounter, alloc.Source)

	alloc = s.allocate(types.SeriesDelivery, "2025")
	s.Equal("DEL-2025-009", alloc.Identifier)
}

func (s *SequenceServiceSuite) TestAllocateWidensPastPadding() {
	s.Run("scan", func() {
		s.reset()
		s.store.SetCounterTableMissing(true)
		s.store.AddIdentifiers(types.SeriesInternalTracking, "TRK-2025-998", "TRK-2025-999")

		alloc := s.allocate(types.SeriesInternalTracking, "2025")
		s.Equal("TRK-2025-1000", alloc.Identifier)

		s.store.AddIdentifiers(types.SeriesInternalTracking, alloc.Identifier)
		alloc = s.allocate(types.SeriesInternalTracking, "2025")
		s.Equal("TRK-2025-1001", alloc.Identifier)
	})

	s.Run("counter", func() {
		s.reset()
		s.store.AddIdentifiers(types.SeriesInternalTracking, "TRK-2025-999")

		alloc := s.allocate(types.SeriesInternalTracking, "2025")
		s.Equal("TRK-2025-1000", alloc.Identifier)
		alloc = s.allocate(types.SeriesInternalTracking, "2025")
		s.Equal("TRK-2025-1001", alloc.Identifier)
	})
}

func (s *SequenceServiceSuite) TestAllocateForeignFormatRestarts() {
	s.store.SetCounterTableMissing(true)
	s.store.AddIdentifiers(types.SeriesProforma, "PRO-2025-ABC")

	alloc := s.allocate(types.SeriesProforma, "2025")
	s.Equal("PRO-2025-001", alloc.Identifier)
}

func (s *SequenceServiceSuite) TestScanIgnoresForeignSuffixes() {
	for _, counterEnabled := range []bool{true, false} {
		s.Run(fmt.Sprintf("counter_enabled=%t", counterEnabled), func() {
			s.reset()
			s.GetConfig().Sequence.CounterEnabled = counterEnabled
			s.store.AddIdentifiers(types.SeriesDelivery,
				"DEL-2025-001-R", "DEL-2025-048", "DEL-2025-049", "DEL-2025-050")

			peeked, err := s.service.Peek(s.GetContext(), types.SeriesDelivery, "2025")
			s.NoError(err)
			s.Equal("DEL-2025-051", peeked.Identifier)

			alloc := s.allocate(types.SeriesDelivery, "2025")
			s.Equal("DEL-2025-051", alloc.Identifier)
			s.store.AddIdentifiers(types.SeriesDelivery, alloc.Identifier)

			alloc = s.allocate(types.SeriesDelivery, "2025")
			s.Equal("DEL-2025-052", alloc.Identifier)
		})
	}
}

func (s *SequenceServiceSuite) TestAllocateFallsBackToTimestamp() {
	s.service.now = func() time.Time { return time.UnixMilli(1_700_000_123_456) }
	s.store.SetFailure(errors.New("connection refused"))

	for _, counterEnabled := range []bool{true, false} {
		s.GetConfig().Sequence.CounterEnabled = counterEnabled

		alloc := s.allocate(types.SeriesDelivery, "2025")
		s.Equal("DEL-2025-123456", alloc.Identifier)
		s.Equal(int64(123456), alloc.Sequence)
		s.Equal(sequence.SourceTimestamp, alloc.Source)
		s.True(alloc.Available())
		s.True(alloc.Degraded())
	}
}

func (s *SequenceServiceSuite) TestAllocateUnavailableWhenColumnMissing() {
	s.store.SetColumnMissing(types.SeriesProforma, true)

	for _, counterEnabled := range []bool{true, false} {
		s.GetConfig().Sequence.CounterEnabled = counterEnabled

		alloc := s.allocate(types.SeriesProforma, "2025")
		s.Equal(sequence.SourceUnavailable, alloc.Source)
		s.Empty(alloc.Identifier)
		s.False(alloc.Available())
	}

	// other series of the same table keep working
	alloc := s.allocate(types.SeriesInvoice, "2025")
	s.Equal("INV-2025-001", alloc.Identifier)
}

func (s *SequenceServiceSuite) TestAllocateValidation() {
	tests := []struct {
		name      string
		series    types.Series
		periodKey string
	}{
		{"empty period", types.SeriesDelivery, ""},
		{"period with separator", types.SeriesDelivery, "2025-03"},
		{"empty tag", types.Series{Name: "x", Table: "deliveries", Column: "delivery_number"}, "2025"},
		{"unsafe column", types.Series{Name: "x", Tag: "X", Table: "deliveries", Column: "n; drop"}, "2025"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Allocate(s.GetContext(), tt.series, tt.periodKey)
			s.Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *SequenceServiceSuite) TestPeriodsAndSeriesAreIndependent() {
	s.Equal("DEL-2025-001", s.allocate(types.SeriesDelivery, "2025").Identifier)
	s.Equal("DEL-2025-002", s.allocate(types.SeriesDelivery, "2025").Identifier)
	s.Equal("DEL-2026-001", s.allocate(types.SeriesDelivery, "2026").Identifier)
	s.Equal("INV-2025-001", s.allocate(types.SeriesInvoice, "2025").Identifier)
	s.Equal("INV-202503-001", s.allocate(types.SeriesInvoice, types.MonthPeriodKey(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))).Identifier)
}

func (s *SequenceServiceSuite) TestPeekDoesNotConsume() {
	for _, counterEnabled := range []bool{true, false} {
		s.Run(fmt.Sprintf("counter_enabled=%t", counterEnabled), func() {
			s.reset()
			s.GetConfig().Sequence.CounterEnabled = counterEnabled

			peeked, err := s.service.Peek(s.GetContext(), types.SeriesDelivery, "2025")
			s.NoError(err)
			s.Equal("DEL-2025-001", peeked.Identifier)

			alloc := s.allocate(types.SeriesDelivery, "2025")
			s.Equal(peeked.Identifier, alloc.Identifier)
			s.store.AddIdentifiers(types.SeriesDelivery, alloc.Identifier)

			peeked, err = s.service.Peek(s.GetContext(), types.SeriesDelivery, "2025")
			s.NoError(err)
			s.Equal("DEL-2025-002", peeked.Identifier)
		})
	}
}

func (s *SequenceServiceSuite) TestConcurrentAllocationsAreDistinct() {
	const n = 64

	identifiers := make([]string, n)
	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			alloc, err := s.service.Allocate(s.GetContext(), types.SeriesDelivery, "2025")
			if err == nil {
				identifiers[i] = alloc.Identifier
			}
		})
	}
	wg.Wait()

	s.Len(lo.Uniq(identifiers), n)
	s.NotContains(identifiers, "")
	for i := 1; i <= n; i++ {
		s.Contains(identifiers, fmt.Sprintf("DEL-2025-%03d", i))
	}
	s.Equal(0, s.service.locks.size())
}

func (s *SequenceServiceSuite) TestConcurrentScanAllocationsAreDistinct() {
	const n = 32
	s.store.SetCounterTableMissing(true)
	s.store.AddIdentifiers(types.SeriesDelivery, "DEL-2025-007")

	identifiers := make([]string, n)
	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			alloc, err := s.service.Allocate(s.GetContext(), types.SeriesDelivery, "2025")
			if err != nil {
				return
			}
			identifiers[i] = alloc.Identifier
			// the owning record is written some time after the number is issued
			time.Sleep(time.Millisecond)
			s.store.AddIdentifiers(types.SeriesDelivery, alloc.Identifier)
		})
	}
	wg.Wait()

	s.Len(lo.Uniq(identifiers), n)
	s.NotContains(identifiers, "")
	for i := 8; i < 8+n; i++ {
		s.Contains(identifiers, fmt.Sprintf("DEL-2025-%03d", i))
	}

	// a restarted process relies on the stored records again
	s.service = NewSequenceService(newTestServiceParams(&s.BaseServiceTestSuite)).(*sequenceService)
	s.Equal(fmt.Sprintf("DEL-2025-%03d", 8+n), s.allocate(types.SeriesDelivery, "2025").Identifier)
}
