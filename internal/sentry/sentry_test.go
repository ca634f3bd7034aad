package sentry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledServiceIsNoop(t *testing.T) {
	svc := NewSentryService(config.GetDefaultConfig(), logger.NewNopLogger())
	assert.False(t, svc.Enabled())

	ctx := context.Background()
	span, spanCtx := svc.StartTransaction(ctx, "sequence.allocate")
	assert.Nil(t, span)
	assert.Equal(t, ctx, spanCtx)
	assert.Nil(t, sentry.GetHubFromContext(spanCtx))

	svc.CaptureException(ctx, errors.New("ignored"))
	svc.AddBreadcrumb(ctx, "sequence", "ignored", nil)
	FinishSpan(span)
}

func TestNilServiceIsDisabled(t *testing.T) {
	var svc *Service
	assert.False(t, svc.Enabled())
	svc.CaptureException(context.Background(), errors.New("ignored"))

	span, _ := svc.StartTransaction(context.Background(), "plan.update_rate")
	assert.Nil(t, span)
}

func TestStartTransactionBindsHub(t *testing.T) {
	// no DSN: events are built but never sent
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		EnableTracing:    true,
		TracesSampleRate: 1,
	}))

	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = true
	svc := NewSentryService(cfg, logger.NewNopLogger())

	transaction, ctx := svc.StartTransaction(context.Background(), "billing.mutate_charges")
	require.NotNil(t, transaction)
	defer FinishSpan(transaction)

	hub := sentry.GetHubFromContext(ctx)
	require.NotNil(t, hub)
	assert.NotSame(t, sentry.CurrentHub(), hub)
	assert.Equal(t, "billing.mutate_charges", transaction.Name)

	child := sentry.StartSpan(ctx, "repository.charges.get")
	assert.Equal(t, transaction.SpanID, child.ParentSpanID)
	assert.Equal(t, transaction.TraceID, child.TraceID)
	child.Finish()

	// a nested operation joins the hub already bound
	nested, nestedCtx := svc.StartTransaction(ctx, "billing.close_period")
	defer FinishSpan(nested)
	assert.Same(t, hub, sentry.GetHubFromContext(nestedCtx))

	svc.AddBreadcrumb(ctx, "billing", "monthly charges conflict", map[string]interface{}{"attempt": 1})
	svc.CaptureException(ctx, errors.New("captured without a transport"))
}
