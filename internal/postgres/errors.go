package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	ierr "github.com/shipdesk/shipdesk/internal/errors"
)

// Postgres SQLSTATE codes the application reacts to
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUndefinedTable       = "42P01"
	codeUndefinedColumn      = "42703"
)

// ClassifyError marks a driver error with the domain sentinel callers branch on:
// no rows is ErrNotFound, a missing table or column is ErrSchemaMissing, a unique
// violation is ErrAlreadyExists, serialization failures are ErrVersionConflict and
// everything else is an infrastructural ErrDatabase.
func ClassifyError(err error, hint string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		details := map[string]any{
			"sqlstate": string(pqErr.Code),
			"table":    pqErr.Table,
			"column":   pqErr.Column,
		}
		switch pqErr.Code {
		case codeUndefinedTable, codeUndefinedColumn:
			return ierr.WithError(err).WithHint(hint).WithReportableDetails(details).Mark(ierr.ErrSchemaMissing)
		case codeUniqueViolation:
			return ierr.WithError(err).WithHint(hint).WithReportableDetails(details).Mark(ierr.ErrAlreadyExists)
		case codeSerializationFailure, codeDeadlockDetected:
			return ierr.WithError(err).WithHint(hint).WithReportableDetails(details).Mark(ierr.ErrVersionConflict)
		}
		return ierr.WithError(err).WithHint(hint).WithReportableDetails(details).Mark(ierr.ErrDatabase)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ierr.WithError(err).WithHint("Request was cancelled").Mark(ierr.ErrDatabase)
	}

	return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrDatabase)
}
