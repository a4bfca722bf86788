package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories care about.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsTransient reports whether err is a failure the caller may retry:
// lock wait timeouts, deadlocks and serialization failures.
func IsTransient(err error) bool {
	switch pgCode(err) {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return false
}

// Classify marks transient database failures with common.ErrorUnavailable
// and leaves every other error untouched.
func Classify(err error) error {
	if err == nil || errors.Is(err, common.ErrorUnavailable) {
		return err
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", common.ErrorUnavailable, err)
	}
	return err
}
