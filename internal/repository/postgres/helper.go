package postgres

import (
	"context"
	"database/sql"

	"github.com/getsentry/sentry-go"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
)

// StartRepositorySpan starts a sentry span for a repository operation when a hub is bound to ctx
func StartRepositorySpan(ctx context.Context, repository, operation string, params map[string]interface{}) *sentry.Span {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "repository."+repository+"."+operation)
	if span != nil {
		span.Description = "repository." + repository + "." + operation
		span.Op = "db.postgres"

		span.SetData("repository", repository)
		span.SetData("operation", operation)
		for k, v := range params {
			span.SetData(k, v)
		}
	}

	return span
}

// FinishSpan finishes a span, nil spans are ignored
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}

// SetSpanError marks the span as failed
func SetSpanError(span *sentry.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.Status = sentry.SpanStatusInternalError
	span.SetData("error", err.Error())
}

// expectOneRow turns an update that matched nothing into ErrNotFound
func expectOneRow(result sql.Result, hint string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("no rows affected").WithHint(hint).Mark(ierr.ErrNotFound)
	}
	return nil
}
