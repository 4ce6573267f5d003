package domain

import "github.com/pkg/errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("already exists")
	ErrTransaction       = errors.New("transaction failure")
)

// TxError reports a begin/commit/rollback failure of the datastore.
// It matches ErrTransaction and unwraps to the driver error.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string { return "transaction " + e.Op + ": " + e.Err.Error() }

func (e *TxError) Unwrap() error { return e.Err }

func (e *TxError) Is(target error) bool { return target == ErrTransaction }

// Invalid builds a validation error with a caller facing message.
func Invalid(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}
