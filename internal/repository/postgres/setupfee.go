package postgres

import (
	"context"

	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/types"
)

type setupFeeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSetupFeeRepository(db *postgres.DB, logger *logger.Logger) setupfee.Repository {
	return &setupFeeRepository{db: db, logger: logger}
}

func (r *setupFeeRepository) Create(ctx context.Context, fee *setupfee.SetupFee) error {
	span := StartRepositorySpan(ctx, "setup_fee", "create", map[string]interface{}{
		"setup_fee_id": fee.ID,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO setup_fees (
			id,
			suggested_amount_eur,
			current_amount_eur,
			valid_until,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		)
		VALUES (
			:id,
			:suggested_amount_eur,
			:current_amount_eur,
			:valid_until,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, fee); err != nil {
		SetSpanError(span, err)
		return postgres.ClassifyError(err, "Failed to create setup fee")
	}

	r.logger.Debugw("created setup fee", "setup_fee_id", fee.ID)
	return nil
}

func (r *setupFeeRepository) GetLatest(ctx context.Context) (*setupfee.SetupFee, error) {
	span := StartRepositorySpan(ctx, "setup_fee", "get_latest", nil)
	defer FinishSpan(span)

	query := `
		SELECT id, suggested_amount_eur, current_amount_eur, valid_until,
			status, created_at, updated_at, created_by, updated_by
		FROM setup_fees
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var fee setupfee.SetupFee
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &fee, query, types.StatusPublished); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, "No setup fee has been configured")
	}

	return &fee, nil
}
