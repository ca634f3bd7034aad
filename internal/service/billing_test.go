package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/api/dto"
	"github.com/shipdesk/shipdesk/internal/domain/charges"
	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/testutil"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      *billingService
	planService  PlanService
	chargesStore *testutil.InMemoryChargesStore
	planID       string
	now          time.Time
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewBillingService(params).(*billingService)
	s.planService = NewPlanService(params)
	s.chargesStore = s.GetStores().ChargesRepo.(*testutil.InMemoryChargesStore)

	s.now = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.now }

	p, err := s.planService.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:                "Growth",
		DeliveriesPerMonth:  500,
		SpaceLimitCbm:       decimal.NewFromInt(10),
		OverSpaceRateEur:    decimal.RequireFromString("12.5"),
		OperationsRateEur:   decimal.NewFromInt(120),
		PromotionalPriceEur: lo.ToPtr(decimal.NewFromInt(99)),
	})
	s.Require().NoError(err)
	s.planID = p.ID
}

func (s *BillingServiceSuite) addService(clientID string, amount string, key string) (*charges.MonthlyCharges, error) {
	return s.service.AddServiceCharge(s.GetContext(), dto.AddServiceChargeRequest{
		ClientID:       clientID,
		Month:          3,
		Year:           2025,
		AmountEur:      decimal.RequireFromString(amount),
		Description:    "pallet wrapping",
		IdempotencyKey: key,
	})
}

func (s *BillingServiceSuite) TestGetMonthlyChargesWithoutRow() {
	c, err := s.service.GetMonthlyCharges(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)

	s.False(c.Persisted)
	s.Equal("client_1", c.ClientID)
	s.Equal(3, c.Month)
	s.Equal(2025, c.Year)
	s.True(c.OverSpaceAmountEur.IsZero())
	s.True(c.AdditionalServicesAmountEur.IsZero())
	s.True(c.TotalAmountEur.IsZero())
	s.Equal(0, s.chargesStore.Count())
}

func (s *BillingServiceSuite) TestGetMonthlyChargesDefaultsToCurrentPeriod() {
	c, err := s.service.GetMonthlyCharges(s.GetContext(), "client_1", 0, 0)
	s.Require().NoError(err)
	s.Equal(3, c.Month)
	s.Equal(2025, c.Year)
}

func (s *BillingServiceSuite) TestGetMonthlyChargesValidation() {
	_, err := s.service.GetMonthlyCharges(s.GetContext(), "", 3, 2025)
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetMonthlyCharges(s.GetContext(), "client_1", 13, 2025)
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetMonthlyCharges(s.GetContext(), "client_1", 3, 0)
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestGetMonthlyChargesSurfacesStoreFailure() {
	s.chargesStore.SetFailure(errors.New("connection reset"))

	_, err := s.service.GetMonthlyCharges(s.GetContext(), "client_1", 3, 2025)
	s.Error(err)
	s.True(ierr.IsDatabase(err))
	s.False(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestRecordSpaceUsageReplacesOverSpace() {
	c, err := s.service.RecordSpaceUsage(s.GetContext(), dto.RecordSpaceUsageRequest{
		ClientID: "client_1",
		PlanID:   s.planID,
		Month:    3,
		Year:     2025,
		UsedCbm:  decimal.NewFromInt(13),
	})
	s.Require().NoError(err)
	s.Equal("37.50", c.OverSpaceAmountEur.StringFixed(2))
	s.Equal("37.50", c.TotalAmountEur.StringFixed(2))
	s.True(c.Persisted)

	_, err = s.addService("client_1", "5", "")
	s.Require().NoError(err)

	c, err = s.service.RecordSpaceUsage(s.GetContext(), dto.RecordSpaceUsageRequest{
		ClientID: "client_1",
		PlanID:   s.planID,
		Month:    3,
		Year:     2025,
		UsedCbm:  decimal.NewFromInt(12),
	})
	s.Require().NoError(err)
	s.Equal("25.00", c.OverSpaceAmountEur.StringFixed(2))
	s.Equal("5.00", c.AdditionalServicesAmountEur.StringFixed(2))
	s.Equal("30.00", c.TotalAmountEur.StringFixed(2))

	c, err = s.service.RecordSpaceUsage(s.GetContext(), dto.RecordSpaceUsageRequest{
		ClientID: "client_1",
		PlanID:   s.planID,
		Month:    3,
		Year:     2025,
		UsedCbm:  decimal.NewFromInt(4),
	})
	s.Require().NoError(err)
	s.True(c.OverSpaceAmountEur.IsZero())
	s.Equal("5.00", c.TotalAmountEur.StringFixed(2))

	detail, err := s.service.GetMonthlyChargesDetail(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.Len(detail.Lines, 4)
}

func (s *BillingServiceSuite) TestRecordSpaceUsageUnknownPlan() {
	_, err := s.service.RecordSpaceUsage(s.GetContext(), dto.RecordSpaceUsageRequest{
		ClientID: "client_1",
		PlanID:   "plan_missing",
		Month:    3,
		Year:     2025,
		UsedCbm:  decimal.NewFromInt(13),
	})
	s.True(ierr.IsNotFound(err))
	s.Equal(0, s.chargesStore.Count())
}

func (s *BillingServiceSuite) TestAddServiceChargeIsIdempotent() {
	c, err := s.addService("client_1", "12.40", "wrap-1")
	s.Require().NoError(err)
	s.Equal("12.40", c.AdditionalServicesAmountEur.StringFixed(2))

	c, err = s.addService("client_1", "12.40", "wrap-1")
	s.Require().NoError(err)
	s.Equal("12.40", c.AdditionalServicesAmountEur.StringFixed(2))

	c, err = s.addService("client_1", "12.40", "wrap-2")
	s.Require().NoError(err)
	s.Equal("24.80", c.AdditionalServicesAmountEur.StringFixed(2))
	s.Equal("24.80", c.TotalAmountEur.StringFixed(2))

	// the same key on another client is a different charge
	c, err = s.addService("client_2", "1", "wrap-1")
	s.Require().NoError(err)
	s.Equal("1.00", c.TotalAmountEur.StringFixed(2))

	detail, err := s.service.GetMonthlyChargesDetail(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.Len(detail.Lines, 2)
	for _, line := range detail.Lines {
		s.Equal(charges.LineKindService, line.Kind)
		s.Equal(detail.ID, line.ChargesID)
	}
}

func (s *BillingServiceSuite) TestAddServiceChargeValidation() {
	_, err := s.addService("client_1", "0", "")
	s.True(ierr.IsValidation(err))

	_, err = s.addService("client_1", "-4", "")
	s.True(ierr.IsValidation(err))

	_, err = s.service.AddServiceCharge(s.GetContext(), dto.AddServiceChargeRequest{
		ClientID:  "client_1",
		Month:     3,
		Year:      2025,
		AmountEur: decimal.NewFromInt(3),
	})
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestConcurrentServiceChargesAreAllKept() {
	const n = 20

	var wg conc.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Go(func() {
			_, errs[i] = s.addService("client_1", "5", "")
		})
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}

	c, err := s.service.GetMonthlyCharges(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.Equal("100.00", c.AdditionalServicesAmountEur.StringFixed(2))
	s.Equal("100.00", c.TotalAmountEur.StringFixed(2))
	s.Equal(int64(n+1), c.Version)
	s.Equal(1, s.chargesStore.Count())
}

func (s *BillingServiceSuite) TestClosedPeriodRejectsChanges() {
	_, err := s.addService("client_1", "5", "")
	s.Require().NoError(err)

	closed, err := s.service.ClosePeriod(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.True(closed.IsClosed())
	s.Equal(s.now, *closed.ClosedAt)

	// closing twice is a no-op
	again, err := s.service.ClosePeriod(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.Equal(closed.Version, again.Version)

	_, err = s.addService("client_1", "5", "")
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.RecordSpaceUsage(s.GetContext(), dto.RecordSpaceUsageRequest{
		ClientID: "client_1",
		PlanID:   s.planID,
		Month:    3,
		Year:     2025,
		UsedCbm:  decimal.NewFromInt(30),
	})
	s.True(ierr.IsInvalidOperation(err))

	c, err := s.service.GetMonthlyCharges(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)
	s.Equal("5.00", c.TotalAmountEur.StringFixed(2))

	// other months stay open
	_, err = s.service.AddServiceCharge(s.GetContext(), dto.AddServiceChargeRequest{
		ClientID:    "client_1",
		Month:       4,
		Year:        2025,
		AmountEur:   decimal.NewFromInt(5),
		Description: "labels",
	})
	s.NoError(err)
}

func (s *BillingServiceSuite) TestClosedPeriodUnlockedByConfig() {
	s.GetConfig().Billing.LockClosedPeriods = false

	_, err := s.service.ClosePeriod(s.GetContext(), "client_1", 3, 2025)
	s.Require().NoError(err)

	c, err := s.addService("client_1", "5", "")
	s.Require().NoError(err)
	s.True(c.IsClosed())
	s.Equal("5.00", c.TotalAmountEur.StringFixed(2))
}

func (s *BillingServiceSuite) TestComputeMonthlyBill() {
	_, err := s.addService("client_1", "15.50", "")
	s.Require().NoError(err)

	bill, err := s.service.ComputeMonthlyBill(s.GetContext(), "client_1", s.planID, 3, 2025)
	s.Require().NoError(err)
	s.Equal("99.00", bill.BasePriceEur.StringFixed(2))
	s.True(bill.IsPromotional)
	s.Equal("15.50", bill.ChargesTotalEur.StringFixed(2))
	s.Equal("114.50", bill.TotalAmountEur.StringFixed(2))
	s.Equal(types.CurrencyEUR, bill.Currency)
	s.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), bill.PeriodStart)
	s.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), bill.PeriodEnd)

	// month and year 0 bill the current month
	bill, err = s.service.ComputeMonthlyBill(s.GetContext(), "client_1", s.planID, 0, 0)
	s.Require().NoError(err)
	s.Equal(3, bill.Month)
	s.Equal(2025, bill.Year)
	s.Equal("114.50", bill.TotalAmountEur.StringFixed(2))

	// a month without charges is the plan price alone and nothing is written
	bill, err = s.service.ComputeMonthlyBill(s.GetContext(), "client_1", s.planID, 4, 2025)
	s.Require().NoError(err)
	s.Equal("99.00", bill.TotalAmountEur.StringFixed(2))
	s.Equal(1, s.chargesStore.Count())

	_, err = s.service.ComputeMonthlyBill(s.GetContext(), "client_1", "plan_missing", 3, 2025)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestEffectiveSetupFee() {
	_, err := s.service.GetEffectiveSetupFee(s.GetContext(), s.now)
	s.True(ierr.IsNotFound(err))

	validUntil := s.now.Add(72 * time.Hour)
	_, err = s.service.CreateSetupFee(s.GetContext(), dto.CreateSetupFeeRequest{
		SuggestedAmountEur: decimal.NewFromInt(99),
		CurrentAmountEur:   lo.ToPtr(decimal.NewFromInt(49)),
		ValidUntil:         &validUntil,
	})
	s.Require().NoError(err)

	fee, err := s.service.GetEffectiveSetupFee(s.GetContext(), time.Time{})
	s.Require().NoError(err)
	s.True(fee.AmountEur.Equal(decimal.NewFromInt(49)))
	s.True(fee.IsPromotional)
	s.True(fee.SuggestedAmountEur.Equal(decimal.NewFromInt(99)))
	s.Equal(setupfee.StatePromotionPending, fee.State)
	s.Equal(s.now, fee.EvaluatedAt)

	// expiry needs no write, the cached row is evaluated against the new clock
	fee, err = s.service.GetEffectiveSetupFee(s.GetContext(), validUntil.Add(time.Minute))
	s.Require().NoError(err)
	s.True(fee.AmountEur.Equal(decimal.NewFromInt(99)))
	s.False(fee.IsPromotional)
	s.Equal(setupfee.StatePromotionExpired, fee.State)
	s.Require().NotNil(fee.ValidUntil)
	s.True(validUntil.Equal(*fee.ValidUntil))

	// the most recent setup fee wins
	s.now = s.now.Add(time.Hour)
	created, err := s.service.CreateSetupFee(s.GetContext(), dto.CreateSetupFeeRequest{
		SuggestedAmountEur: decimal.NewFromInt(120),
	})
	s.Require().NoError(err)

	fee, err = s.service.GetEffectiveSetupFee(s.GetContext(), s.now)
	s.Require().NoError(err)
	s.Equal(created.ID, fee.SetupFeeID)
	s.True(fee.AmountEur.Equal(decimal.NewFromInt(120)))
	s.Equal(setupfee.StateSuggestedOnly, fee.State)
}

func (s *BillingServiceSuite) TestCreateSetupFeeValidation() {
	validUntil := s.now
	_, err := s.service.CreateSetupFee(s.GetContext(), dto.CreateSetupFeeRequest{
		SuggestedAmountEur: decimal.NewFromInt(99),
		ValidUntil:         &validUntil,
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateSetupFee(s.GetContext(), dto.CreateSetupFeeRequest{
		SuggestedAmountEur: decimal.NewFromInt(-1),
	})
	s.True(ierr.IsValidation(err))
}
