// Package domain contains the core business entities and interfaces for the
// donation service.
package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrInvalidDonation is returned when the donation input fails validation.
	ErrInvalidDonation = errors.New("invalid donation data")

	// ErrDonationNotFound is returned when a donation cannot be found.
	// This is an expected condition, not an operation failure.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrDuplicateDonation is returned when an insert collides with an
	// existing donation for the same external payment or subscription id.
	ErrDuplicateDonation = errors.New("donation already exists")

	// ErrPaymentGatewayError is returned when there's an error communicating
	// with Mercado Pago.
	ErrPaymentGatewayError = errors.New("payment gateway error")

	// ErrWebhookValidationFailed is returned when webhook signature validation fails.
	ErrWebhookValidationFailed = errors.New("webhook signature validation failed")
)

// DonationError wraps a domain error with additional context.
type DonationError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *DonationError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with DonationError.
func (e *DonationError) Unwrap() error {
	return e.Err
}

// NewDonationError creates a new DonationError with the given error and message.
func NewDonationError(err error, message, code string) *DonationError {
	return &DonationError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
