package database

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperation is returned when a backend cannot perform an operation.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrNotConnected is returned by statement methods before Connect succeeded.
	ErrNotConnected = errors.New("driver is not connected")

	// ErrMapping is returned when result rows cannot be projected.
	ErrMapping = errors.New("row mapping failed")

	// ErrRecordNotFound is returned when a lookup matches nothing.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is matched by statement failures that violate a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrForeignKey is matched by statement failures that violate a foreign key.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrRetryable is matched by failures that may succeed when retried, such as
	// deadlocks, serialization failures and busy embedded databases.
	ErrRetryable = errors.New("retryable failure")
)

// StatementError wraps a failed statement. Err is the backend error and Class,
// when set, is one of the sentinel errors above.
type StatementError struct {
	Statement string
	Err       error
	Class     error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %v [%s]", e.Err, e.Statement)
}

// Unwrap exposes both the backend error and the classification to errors.Is/As.
func (e *StatementError) Unwrap() []error {
	if e.Class == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Class}
}

// Unsupported builds an ErrUnsupportedOperation naming the driver and operation.
func Unsupported(d Driver, operation string) error {
	return fmt.Errorf("%w: %s driver %q does not support %s", ErrUnsupportedOperation, d.Kind(), d.Name(), operation)
}

// IsRetryable reports whether err was classified as retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
