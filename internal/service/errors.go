package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Typed domain errors returned by services. Handlers inspect them with
// errors.As to decide the HTTP status; nothing below the handler layer
// ever writes a response.

// ValidationError signals malformed input the caller must fix before
// retrying (empty item list, non-positive quantity, bad identifier).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// BusinessRuleError signals well-formed input that violates a domain
// invariant. For over-return rejections it carries the offending product
// and the maximum quantity still returnable so the caller can correct
// and resubmit.
type BusinessRuleError struct {
	Msg       string
	ProductID uuid.UUID
	Requested int
	MaxAllowed int
}

func (e *BusinessRuleError) Error() string { return e.Msg }

// ConcurrencyError signals a transaction aborted by lock contention or a
// serialization conflict. The whole operation may be retried from scratch,
// but not blindly: the first attempt's outcome must be confirmed first
// since RecordReturn is not idempotent.
type ConcurrencyError struct {
	Err error
}

func (e *ConcurrencyError) Error() string {
	return "operation aborted due to a concurrent conflict: " + e.Err.Error()
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// translateTxError maps low-level transaction failures onto the domain
// taxonomy. Domain errors raised inside the transaction pass through
// untouched; Postgres serialization failures, deadlocks and lock
// timeouts become ConcurrencyError so the caller knows the operation is
// retryable after confirming state.
func translateTxError(err error) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		br *BusinessRuleError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &br) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return &ConcurrencyError{Err: err}
		}
	}
	return err
}
