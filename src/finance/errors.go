package finance

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of engine failures. Callers branch on
// the kind, never on message text.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindCurrencyMismatch  ErrorKind = "CURRENCY_MISMATCH"
	KindDivisionByZero    ErrorKind = "DIVISION_BY_ZERO"
	KindUnpayableDebt     ErrorKind = "UNPAYABLE_DEBT"
	KindInsufficientData  ErrorKind = "INSUFFICIENT_DATA"
	KindPrecisionOverflow ErrorKind = "PRECISION_OVERFLOW"
)

// Error is the typed error returned by every engine operation. Field is
// set for validation failures so the caller can point at the offending
// input; it is empty for computation-level failures.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches two engine errors on kind, and on field when the target
// specifies one.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// KindOf extracts the error kind from an error chain. The second return
// is false when the chain carries no engine error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err (or anything it wraps) is an engine error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NewCurrencyMismatchError(expected, actual Currency) *Error {
	return &Error{
		Kind:    KindCurrencyMismatch,
		Message: fmt.Sprintf("expected %s, got %s", expected, actual),
	}
}

func NewDivisionByZeroError() *Error {
	return &Error{Kind: KindDivisionByZero, Message: "division by zero in financial calculation"}
}

func NewUnpayableDebtError(debtName, message string) *Error {
	return &Error{Kind: KindUnpayableDebt, Field: debtName, Message: message}
}

func NewInsufficientDataError(message string) *Error {
	return &Error{Kind: KindInsufficientData, Message: message}
}

func NewPrecisionOverflowError(field, message string) *Error {
	return &Error{Kind: KindPrecisionOverflow, Field: field, Message: message}
}
