package postgres

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/types"
)

type sequenceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSequenceRepository(db *postgres.DB, logger *logger.Logger) sequence.Repository {
	return &sequenceRepository{db: db, logger: logger}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *sequenceRepository) FindMaxIdentifier(ctx context.Context, series types.Series, prefix string) (string, error) {
	span := StartRepositorySpan(ctx, "sequence", "find_max_identifier", map[string]interface{}{
		"series": series.Name,
		"prefix": prefix,
	})
	defer FinishSpan(span)

	// table and column are checked against a plain identifier pattern before interpolation
	if err := series.Validate(); err != nil {
		return "", err
	}

	// only all digit suffixes belong to the series; they are ordered by numeric value
	// so neither a longer foreign value nor a wider number sorts wrongly
	query := fmt.Sprintf(`
		SELECT %[2]s FROM %[1]s
		WHERE %[2]s LIKE $1 ESCAPE '\'
		AND substr(%[2]s, $2) ~ '^[0-9]{1,%[3]d}$'
		ORDER BY substr(%[2]s, $2)::bigint DESC, %[2]s DESC
		LIMIT 1`, series.Table, series.Column, types.MaxSequenceDigits)

	var identifier string
	err := r.db.GetQuerier(ctx).GetContext(ctx, &identifier, query,
		likeEscaper.Replace(prefix)+"%",
		utf8.RuneCountInString(prefix)+1,
	)
	if err != nil {
		SetSpanError(span, err)
		return "", postgres.ClassifyError(err, fmt.Sprintf("Failed to read the latest %s number", series.Name))
	}

	return identifier, nil
}

func (r *sequenceRepository) GetCounter(ctx context.Context, tag types.SeriesTag, periodKey string) (*sequence.Counter, error) {
	span := StartRepositorySpan(ctx, "sequence", "get_counter", map[string]interface{}{
		"series_tag": tag,
		"period_key": periodKey,
	})
	defer FinishSpan(span)

	query := `
		SELECT series_tag, period_key, last_value, created_at, updated_at
		FROM document_sequences
		WHERE series_tag = $1 AND period_key = $2`

	var counter sequence.Counter
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &counter, query, tag, periodKey); err != nil {
		SetSpanError(span, err)
		return nil, postgres.ClassifyError(err, "Sequence counter not found")
	}

	return &counter, nil
}

func (r *sequenceRepository) NextValue(ctx context.Context, tag types.SeriesTag, periodKey string, seed int64) (int64, error) {
	span := StartRepositorySpan(ctx, "sequence", "next_value", map[string]interface{}{
		"series_tag": tag,
		"period_key": periodKey,
	})
	defer FinishSpan(span)

	if seed < 1 {
		seed = 1
	}

	query := `
		INSERT INTO document_sequences (series_tag, period_key, last_value, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (series_tag, period_key) DO UPDATE
		SET last_value = document_sequences.last_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`

	var lastValue int64
	if err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, tag, periodKey, seed).Scan(&lastValue); err != nil {
		SetSpanError(span, err)
		return 0, postgres.ClassifyError(err, "Sequence number generation failed")
	}

	if lastValue < 1 {
		return 0, ierr.NewErrorf("sequence %s-%s returned %d", tag, periodKey, lastValue).
			WithHint("Sequence number generation failed").
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("generated sequence value",
		"series_tag", tag,
		"period_key", periodKey,
		"sequence", lastValue)

	return lastValue, nil
}
