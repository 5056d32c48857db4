package service

import "errors"

// Domain errors. Resolution misses are ordinary nil results, not errors;
// these cover the cases the caller must act on.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrBillNotFound      = errors.New("bill not found")
	ErrValidation        = errors.New("validation failed")
	ErrNoOutstandingDebt = errors.New("no outstanding debt")
)
