package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	sentrysvc "github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositorySpanWithoutHub(t *testing.T) {
	span := StartRepositorySpan(context.Background(), "plan", "get", nil)
	assert.Nil(t, span)
	SetSpanError(span, errors.New("ignored"))
	FinishSpan(span)
}

func TestRepositorySpanJoinsServiceTransaction(t *testing.T) {
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		EnableTracing:    true,
		TracesSampleRate: 1,
	}))

	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = true
	svc := sentrysvc.NewSentryService(cfg, logger.NewNopLogger())

	transaction, ctx := svc.StartTransaction(context.Background(), "sequence.allocate")
	require.NotNil(t, transaction)
	defer sentrysvc.FinishSpan(transaction)

	span := StartRepositorySpan(ctx, "sequence", "find_max_identifier", map[string]interface{}{
		"series": "delivery",
	})
	require.NotNil(t, span)
	assert.Equal(t, transaction.SpanID, span.ParentSpanID)
	assert.Equal(t, "db.postgres", span.Op)
	assert.Equal(t, "delivery", span.Data["series"])

	SetSpanError(span, errors.New("connection refused"))
	assert.Equal(t, sentry.SpanStatusInternalError, span.Status)
	FinishSpan(span)
}
