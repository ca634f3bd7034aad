package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"
	ErrCodeSchemaMissing    = "schema_missing"
)

var (
	// ErrNotFound is returned when no row matches, never for an unreachable store
	ErrNotFound = new(ErrCodeNotFound, "resource not found")
	// ErrAlreadyExists is a unique key violation
	ErrAlreadyExists = new(ErrCodeAlreadyExists, "resource already exists")
	// ErrVersionConflict is an optimistic write that lost against a concurrent writer
	ErrVersionConflict = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation      = new(ErrCodeValidation, "validation error")
	// ErrInvalidOperation rejects a well formed request the current state does not allow,
	// such as changing a closed billing period
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	// ErrDatabase is an infrastructural failure of the record store
	ErrDatabase = new(ErrCodeDatabase, "database error")
	// ErrSchemaMissing reports a table or column that is not migrated yet
	ErrSchemaMissing = new(ErrCodeSchemaMissing, "schema not provisioned")
)

// statusCodes is checked in order, the first sentinel an error is marked with wins
var statusCodes = []struct {
	sentinel error
	status   int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrInvalidOperation, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrVersionConflict, http.StatusConflict},
	{ErrSchemaMissing, http.StatusServiceUnavailable},
	{ErrDatabase, http.StatusInternalServerError},
}

// InternalError is a sentinel identified by its code
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsDatabase reports an infrastructural failure, a missing row is not one
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsSchemaMissing(err error) bool {
	return errors.Is(err, ErrSchemaMissing)
}

// IsRetryable reports a write that lost a race and may succeed when repeated
// against fresh state
func IsRetryable(err error) bool {
	return IsVersionConflict(err) || IsAlreadyExists(err)
}

// HTTPStatusFromErr maps a marked error to the status an external transport should answer with
func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.sentinel) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}
