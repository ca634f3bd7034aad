package postgres

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/domain/charges"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/types"
)

type chargesRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewChargesRepository(db *postgres.DB, logger *logger.Logger) charges.Repository {
	return &chargesRepository{db: db, logger: logger}
}

func (r *chargesRepository) Get(ctx context.Context, clientID string, period types.BillingPeriod) (*charges.MonthlyCharges, error) {
	span := StartRepositorySpan(ctx, "charges", "get", map[string]interface{}{
		"client_id": clientID,
		"period":    period.String(),
	})
	defer FinishSpan(span)

	query := `
		SELECT id, client_id, month, year, over_space_amount_eur, additional_services_amount_eur,
			total_amount_eur, version, closed_at, created_at, updated_at
		FROM monthly_additional_charges
		WHERE client_id = $1 AND month = $2 AND year = $3`

	var c charges.MonthlyCharges
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, clientID, period.Month, period.Year); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, "Monthly charges not found")
	}

	c.Persisted = true
	return &c, nil
}

func (r *chargesRepository) Create(ctx context.Context, c *charges.MonthlyCharges) error {
	span := StartRepositorySpan(ctx, "charges", "create", map[string]interface{}{
		"client_id": c.ClientID,
		"period":    c.Period().String(),
	})
	defer FinishSpan(span)

	c.Version = 1
	query := `
		INSERT INTO monthly_additional_charges (
			id,
			client_id,
			month,
			year,
			over_space_amount_eur,
			additional_services_amount_eur,
			total_amount_eur,
			version,
			closed_at,
			created_at,
			updated_at
		)
		VALUES (
			:id,
			:client_id,
			:month,
			:year,
			:over_space_amount_eur,
			:additional_services_amount_eur,
			:total_amount_eur,
			:version,
			:closed_at,
			:created_at,
			:updated_at
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, c); err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Monthly charges for this period already exist")
	}

	c.Persisted = true
	return nil
}

func (r *chargesRepository) Update(ctx context.Context, c *charges.MonthlyCharges, expectedVersion int64) error {
	span := StartRepositorySpan(ctx, "charges", "update", map[string]interface{}{
		"charges_id": c.ID,
		"version":    expectedVersion,
	})
	defer FinishSpan(span)

	query := `
		UPDATE monthly_additional_charges
		SET over_space_amount_eur = $1,
			additional_services_amount_eur = $2,
			total_amount_eur = $3,
			closed_at = $4,
			updated_at = $5,
			version = version + 1
		WHERE id = $6 AND version = $7`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		c.OverSpaceAmountEur,
		c.AdditionalServicesAmountEur,
		c.TotalAmountEur,
		c.ClosedAt,
		c.UpdatedAt,
		c.ID,
		expectedVersion,
	)
	if err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Failed to update monthly charges")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to update monthly charges").Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewErrorf("monthly charges %s moved past version %d", c.ID, expectedVersion).
			WithHint("Monthly charges were modified concurrently").
			WithReportableDetails(map[string]any{
				"charges_id": c.ID,
				"version":    expectedVersion,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	c.Version = expectedVersion + 1
	return nil
}

func (r *chargesRepository) AddLine(ctx context.Context, line *charges.Line) error {
	span := StartRepositorySpan(ctx, "charges", "add_line", map[string]interface{}{
		"charges_id":      line.ChargesID,
		"idempotency_key": line.IdempotencyKey,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO monthly_charge_lines (
			id,
			charges_id,
			kind,
			description,
			amount_eur,
			idempotency_key,
			created_at,
			created_by
		)
		VALUES (
			:id,
			:charges_id,
			:kind,
			:description,
			:amount_eur,
			:idempotency_key,
			:created_at,
			:created_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, line); err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Charge was already recorded")
	}

	return nil
}

func (r *chargesRepository) ListLines(ctx context.Context, chargesID string) ([]*charges.Line, error) {
	span := StartRepositorySpan(ctx, "charges", "list_lines", map[string]interface{}{
		"charges_id": chargesID,
	})
	defer FinishSpan(span)

	query := `
		SELECT id, charges_id, kind, description, amount_eur, idempotency_key, created_at, created_by
		FROM monthly_charge_lines
		WHERE charges_id = $1
		ORDER BY created_at ASC, id ASC`

	lines := make([]*charges.Line, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &lines, query, chargesID); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, "Failed to list charge lines")
	}

	return lines, nil
}

func (r *chargesRepository) HasLine(ctx context.Context, idempotencyKey string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM monthly_charge_lines WHERE idempotency_key = $1)`

	var exists bool
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, query, idempotencyKey); err != nil {
		return false, postgres.ClassifyError(err, "Failed to look up charge line")
	}

	return exists, nil
}
