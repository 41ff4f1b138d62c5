package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyExists          = errors.New("resource already exists")
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrInternalError          = errors.New("internal error")
	ErrUserNotFound           = errors.New("user not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTemplateNotFound       = errors.New("recurring template not found")
	ErrBillNotFound           = errors.New("bill not found")
	ErrShareNotFound          = errors.New("data share not found")
	ErrShareWithSelf          = errors.New("cannot share data with yourself")
	ErrShareExists            = errors.New("data is already shared with this user")
	ErrInvalidPermission      = errors.New("invalid permission level")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrCategoryRequired       = errors.New("category is required")
	ErrCategoryTooLong        = errors.New("category exceeds maximum length")
	ErrDescriptionTooLong     = errors.New("description exceeds maximum length")
	ErrInvalidCurrency        = errors.New("unsupported currency")
	ErrInvalidBillFrequency   = errors.New("invalid bill frequency")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrReportEmpty            = errors.New("no transactions in month")
)

// Validation constants
const (
	MaxCategoryLength    = 100
	MaxDescriptionLength = 500
)

// UnknownFrequencyError is returned when a template carries a frequency the
// recurrence engine does not know
type UnknownFrequencyError struct {
	Frequency string
}

func (e *UnknownFrequencyError) Error() string {
	return fmt.Sprintf("unknown frequency %q", e.Frequency)
}

// InvalidDateError is returned for missing, unparseable or out-of-order dates
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of the backing store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for operation op. A nil err stays nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidationError reports whether err is caused by bad client input
func IsValidationError(err error) bool {
	var freqErr *UnknownFrequencyError
	var dateErr *InvalidDateError
	switch {
	case errors.As(err, &freqErr), errors.As(err, &dateErr):
		return true
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTransactionType),
		errors.Is(err, ErrCategoryRequired),
		errors.Is(err, ErrCategoryTooLong),
		errors.Is(err, ErrDescriptionTooLong),
		errors.Is(err, ErrInvalidCurrency),
		errors.Is(err, ErrInvalidPermission),
		errors.Is(err, ErrInvalidBillFrequency),
		errors.Is(err, ErrDescriptionRequired),
		errors.Is(err, ErrShareWithSelf):
		return true
	}
	return false
}
