package core

import "errors"

var (
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidNumber        = errors.New("invalid number")
	ErrMissingPaymentMode   = errors.New("amount due payment mode is required when a paid bill still has an amount due")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidPaymentStatus = errors.New("payment status must be PAID or NOT PAID")
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateSerial      = errors.New("could not allocate a unique serial number")
	ErrStorage              = errors.New("storage failure")
)

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + e.Field
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidNumber) ||
		errors.Is(err, ErrMissingPaymentMode) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPaymentStatus)
}
