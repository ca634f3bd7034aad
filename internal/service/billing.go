package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shipdesk/shipdesk/internal/api/dto"
	"github.com/shipdesk/shipdesk/internal/cache"
	"github.com/shipdesk/shipdesk/internal/domain/charges"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/idempotency"
	"github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/shipdesk/shipdesk/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// BillingService resolves what a client is charged: the monthly additional charges,
// the setup fee currently in force and the full monthly bill
type BillingService interface {
	// GetMonthlyCharges returns the stored charges of a client month or a zero record
	// that is not persisted when none exist. Month and year 0 resolve to the current month.
	GetMonthlyCharges(ctx context.Context, clientID string, month, year int) (*charges.MonthlyCharges, error)

	// GetMonthlyChargesDetail is GetMonthlyCharges with the lines that built the totals
	GetMonthlyChargesDetail(ctx context.Context, clientID string, month, year int) (*dto.MonthlyChargesResponse, error)

	// RecordSpaceUsage prices the volume stored above the plan allowance and replaces
	// the over-space component of the client month
	RecordSpaceUsage(ctx context.Context, req dto.RecordSpaceUsageRequest) (*charges.MonthlyCharges, error)

	// AddServiceCharge adds an additional service to the client month
	AddServiceCharge(ctx context.Context, req dto.AddServiceChargeRequest) (*charges.MonthlyCharges, error)

	// ClosePeriod stamps the client month as closed
	ClosePeriod(ctx context.Context, clientID string, month, year int) (*charges.MonthlyCharges, error)

	// ComputeMonthlyBill adds the effective plan price to the monthly charges
	ComputeMonthlyBill(ctx context.Context, clientID, planID string, month, year int) (*dto.MonthlyBillResponse, error)

	CreateSetupFee(ctx context.Context, req dto.CreateSetupFeeRequest) (*dto.SetupFeeResponse, error)

	// GetEffectiveSetupFee evaluates the latest setup fee at the given instant, now when zero
	GetEffectiveSetupFee(ctx context.Context, at time.Time) (*dto.EffectiveSetupFeeResponse, error)
}

type billingService struct {
	ServiceParams
	idempotency *idempotency.Generator
	now         func() time.Time
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
		idempotency:   idempotency.NewGenerator(),
		now:           time.Now,
	}
}

func (s *billingService) resolvePeriod(clientID string, month, year int) (types.BillingPeriod, error) {
	if clientID == "" {
		return types.BillingPeriod{}, ierr.NewError("client id is required").
			WithHint("Client ID is required").
			Mark(ierr.ErrValidation)
	}
	if month == 0 && year == 0 {
		return types.CurrentBillingPeriod(s.now()), nil
	}
	return types.NewBillingPeriod(month, year)
}

func (s *billingService) GetMonthlyCharges(ctx context.Context, clientID string, month, year int) (*charges.MonthlyCharges, error) {
	period, err := s.resolvePeriod(clientID, month, year)
	if err != nil {
		return nil, err
	}

	c, err := s.ChargesRepo.Get(ctx, clientID, period)
	if ierr.IsNotFound(err) {
		return charges.NewZero(clientID, period), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *billingService) GetMonthlyChargesDetail(ctx context.Context, clientID string, month, year int) (*dto.MonthlyChargesResponse, error) {
	c, err := s.GetMonthlyCharges(ctx, clientID, month, year)
	if err != nil {
		return nil, err
	}

	response := &dto.MonthlyChargesResponse{MonthlyCharges: c}
	if !c.Persisted {
		return response, nil
	}

	lines, err := s.ChargesRepo.ListLines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	response.Lines = lines
	return response, nil
}

func (s *billingService) RecordSpaceUsage(ctx context.Context, req dto.RecordSpaceUsageRequest) (*charges.MonthlyCharges, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := getPlan(ctx, s.ServiceParams, req.PlanID)
	if err != nil {
		return nil, err
	}

	overSpace := p.OverSpaceCharge(req.UsedCbm)

	c, err := s.mutateCharges(ctx, req.ClientID, req.Period(), "", func(c *charges.MonthlyCharges) *charges.Line {
		c.OverSpaceAmountEur = overSpace
		return &charges.Line{
			Kind:      charges.LineKindOverSpace,
			AmountEur: overSpace,
			Description: fmt.Sprintf("%s cbm stored, %s cbm included in %s",
				req.UsedCbm.String(), p.SpaceLimitCbm.String(), p.Name),
			IdempotencyKey: s.idempotency.OverSpaceKey(c.ID, c.Version, p.ID, req.UsedCbm),
		}
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded space usage",
		"client_id", req.ClientID,
		"period", req.Period().String(),
		"plan_id", p.ID,
		"used_cbm", req.UsedCbm,
		"over_space_amount_eur", overSpace)

	return c, nil
}

func (s *billingService) AddServiceCharge(ctx context.Context, req dto.AddServiceChargeRequest) (*charges.MonthlyCharges, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// without a caller key every request is a distinct charge
	key := types.GenerateUUIDWithPrefix(string(idempotency.ScopeServiceCharge))
	if req.IdempotencyKey != "" {
		key = s.idempotency.ServiceChargeKey(req.ClientID, req.Period(), req.IdempotencyKey)
	}

	amount := types.RoundAmount(req.AmountEur)
	c, err := s.mutateCharges(ctx, req.ClientID, req.Period(), key, func(c *charges.MonthlyCharges) *charges.Line {
		c.AdditionalServicesAmountEur = c.AdditionalServicesAmountEur.Add(amount)
		return &charges.Line{
			Kind:           charges.LineKindService,
			AmountEur:      amount,
			Description:    req.Description,
			IdempotencyKey: key,
		}
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("added service charge",
		"client_id", req.ClientID,
		"period", req.Period().String(),
		"amount_eur", amount,
		"additional_services_amount_eur", c.AdditionalServicesAmountEur)

	return c, nil
}

func (s *billingService) ClosePeriod(ctx context.Context, clientID string, month, year int) (*charges.MonthlyCharges, error) {
	period, err := s.resolvePeriod(clientID, month, year)
	if err != nil {
		return nil, err
	}

	span, ctx := s.Sentry.StartTransaction(ctx, "billing.close_period")
	defer sentry.FinishSpan(span)

	var result *charges.MonthlyCharges
	err = s.retryOnConflict(ctx, func() error {
		return s.DB.WithTx(ctx, func(ctx context.Context) error {
			c, err := s.getOrCreateCharges(ctx, clientID, period)
			if err != nil {
				return err
			}
			if c.IsClosed() {
				result = c
				return nil
			}

			now := s.now().UTC()
			c.ClosedAt = &now
			c.UpdatedAt = now
			if err := s.ChargesRepo.Update(ctx, c, c.Version); err != nil {
				return err
			}
			result = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("closed billing period",
		"client_id", clientID,
		"period", period.String(),
		"total_amount_eur", result.TotalAmountEur)

	return result, nil
}

func (s *billingService) ComputeMonthlyBill(ctx context.Context, clientID, planID string, month, year int) (*dto.MonthlyBillResponse, error) {
	period, err := s.resolvePeriod(clientID, month, year)
	if err != nil {
		return nil, err
	}

	span, ctx := s.Sentry.StartTransaction(ctx, "billing.compute_monthly_bill")
	defer sentry.FinishSpan(span)

	var (
		p *plan.Plan
		c *charges.MonthlyCharges
	)

	loaders := pool.New().WithContext(ctx).WithFirstError().WithCancelOnError()
	loaders.Go(func(ctx context.Context) error {
		var err error
		p, err = getPlan(ctx, s.ServiceParams, planID)
		return err
	})
	loaders.Go(func(ctx context.Context) error {
		var err error
		c, err = s.GetMonthlyCharges(ctx, clientID, period.Month, period.Year)
		return err
	})
	if err := loaders.Wait(); err != nil {
		return nil, err
	}

	base, promotional := p.EffectivePrice()
	return &dto.MonthlyBillResponse{
		ClientID:                    clientID,
		PlanID:                      p.ID,
		Month:                       period.Month,
		Year:                        period.Year,
		PeriodStart:                 period.Start(),
		PeriodEnd:                   period.End(),
		BasePriceEur:                base,
		IsPromotional:               promotional,
		OverSpaceAmountEur:          c.OverSpaceAmountEur,
		AdditionalServicesAmountEur: c.AdditionalServicesAmountEur,
		ChargesTotalEur:             c.TotalAmountEur,
		TotalAmountEur:              types.RoundAmount(base.Add(c.TotalAmountEur)),
		Currency:                    types.CurrencyEUR,
		Closed:                      c.IsClosed(),
	}, nil
}

func (s *billingService) CreateSetupFee(ctx context.Context, req dto.CreateSetupFeeRequest) (*dto.SetupFeeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fee := req.ToSetupFee(ctx)
	if err := s.SetupFeeRepo.Create(ctx, fee); err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixSetupFee, "latest"))

	s.Logger.Infow("created setup fee",
		"setup_fee_id", fee.ID,
		"suggested_amount_eur", fee.SuggestedAmountEur,
		"current_amount_eur", fee.CurrentAmountEur,
		"valid_until", fee.ValidUntil)

	return &dto.SetupFeeResponse{SetupFee: fee}, nil
}

func (s *billingService) GetEffectiveSetupFee(ctx context.Context, at time.Time) (*dto.EffectiveSetupFeeResponse, error) {
	if at.IsZero() {
		at = s.now()
	}

	// the row is cached, the effective amount is always derived from the clock
	key := cache.GenerateKey(cache.PrefixSetupFee, "latest")
	var fee *setupfee.SetupFee
	if cached, found := s.Cache.Get(ctx, key); found {
		fee, _ = cached.(*setupfee.SetupFee)
	}
	if fee == nil {
		latest, err := s.SetupFeeRepo.GetLatest(ctx)
		if err != nil {
			return nil, err
		}
		fee = latest
		s.Cache.Set(ctx, key, fee, 0)
	}

	return &dto.EffectiveSetupFeeResponse{
		EffectiveFee: fee.Effective(at),
		SetupFeeID:   fee.ID,
		EvaluatedAt:  at.UTC(),
	}, nil
}

// mutateCharges applies a change to the client month with an optimistic version check,
// retrying when another writer got there first. A non empty idempotencyKey that was
// already recorded makes the call a no-op returning the current record.
func (s *billingService) mutateCharges(
	ctx context.Context,
	clientID string,
	period types.BillingPeriod,
	idempotencyKey string,
	mutate func(c *charges.MonthlyCharges) *charges.Line,
) (*charges.MonthlyCharges, error) {
	span, ctx := s.Sentry.StartTransaction(ctx, "billing.mutate_charges")
	defer sentry.FinishSpan(span)

	var result *charges.MonthlyCharges
	err := s.retryOnConflict(ctx, func() error {
		return s.DB.WithTx(ctx, func(ctx context.Context) error {
			if idempotencyKey != "" {
				exists, err := s.ChargesRepo.HasLine(ctx, idempotencyKey)
				if err != nil {
					return err
				}
				if exists {
					s.Logger.Debugw("charge already recorded, skipping",
						"client_id", clientID,
						"period", period.String(),
						"idempotency_key", idempotencyKey)
					result, err = s.ChargesRepo.Get(ctx, clientID, period)
					return err
				}
			}

			c, err := s.getOrCreateCharges(ctx, clientID, period)
			if err != nil {
				return err
			}

			if c.IsClosed() {
				if s.Config.Billing.LockClosedPeriods {
					return ierr.NewErrorf("billing period %s of client %s is closed", period, clientID).
						WithHintf("Charges for %s are closed and can no longer change", period).
						WithReportableDetails(map[string]any{
							"client_id": clientID,
							"period":    period.String(),
						}).
						Mark(ierr.ErrInvalidOperation)
				}
				s.Logger.Warnw("changing charges of a closed period",
					"client_id", clientID,
					"period", period.String())
			}

			expected := c.Version
			line := mutate(c)
			c.Recalculate()
			c.UpdatedAt = s.now().UTC()

			if err := s.ChargesRepo.Update(ctx, c, expected); err != nil {
				return err
			}

			if line != nil {
				line.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MONTHLY_CHARGE_LINE)
				line.ChargesID = c.ID
				line.CreatedAt = c.UpdatedAt
				line.CreatedBy = types.GetUserID(ctx)
				if err := s.ChargesRepo.AddLine(ctx, line); err != nil {
					return err
				}
			}

			result = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *billingService) getOrCreateCharges(ctx context.Context, clientID string, period types.BillingPeriod) (*charges.MonthlyCharges, error) {
	c, err := s.ChargesRepo.Get(ctx, clientID, period)
	if err == nil {
		return c, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	now := s.now().UTC()
	c = charges.NewZero(clientID, period)
	c.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_MONTHLY_CHARGES)
	c.CreatedAt = now
	c.UpdatedAt = now

	// a concurrent first write surfaces as ErrAlreadyExists and is retried
	if err := s.ChargesRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// retryOnConflict runs op again with exponential backoff while it loses a race
// against another writer. Other errors are returned at once.
func (s *billingService) retryOnConflict(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	if s.Config.Billing.RetryInitialInterval > 0 {
		policy.InitialInterval = s.Config.Billing.RetryInitialInterval
	}
	if s.Config.Billing.RetryMaxInterval > 0 {
		policy.MaxInterval = s.Config.Billing.RetryMaxInterval
	}
	policy.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if ierr.IsRetryable(err) {
			s.Logger.Debugw("monthly charges changed concurrently, retrying",
				"attempt", attempt,
				"error", err)
			s.Sentry.AddBreadcrumb(ctx, "billing", "monthly charges conflict", map[string]interface{}{
				"attempt": attempt,
			})
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, s.Config.Billing.MaxRetries), ctx))

	if ierr.IsRetryable(err) {
		s.Logger.Errorw("giving up on monthly charges update",
			"attempts", attempt,
			"error", err)
		return ierr.WithError(err).
			WithHint("Monthly charges are being updated by another request, please retry").
			Mark(ierr.ErrVersionConflict)
	}
	return err
}
