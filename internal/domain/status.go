// Package domain contains the core business entities and interfaces for the
// donation service.
package domain

import "strings"

// PaymentStatus is the internal payment status vocabulary. It is a closed
// enumeration: values are produced only by NormalizeStatus, never taken
// directly from a provider response.
type PaymentStatus string

const (
	StatusPending     PaymentStatus = "pending"
	StatusApproved    PaymentStatus = "approved"
	StatusRejected    PaymentStatus = "rejected"
	StatusCancelled   PaymentStatus = "cancelled"
	StatusRefunded    PaymentStatus = "refunded"
	StatusChargedBack PaymentStatus = "charged_back"
	StatusUnknown     PaymentStatus = "unknown"
)

// providerStatusTable maps raw Mercado Pago status strings to the internal
// vocabulary. Anything not listed here normalizes to StatusUnknown.
var providerStatusTable = map[string]PaymentStatus{
	"pending":      StatusPending,
	"approved":     StatusApproved,
	"authorized":   StatusApproved,
	"in_process":   StatusPending,
	"in_mediation": StatusPending,
	"rejected":     StatusRejected,
	"cancelled":    StatusCancelled,
	"canceled":     StatusCancelled,
	"refunded":     StatusRefunded,
	"charged_back": StatusChargedBack,
}

// NormalizeStatus maps a raw provider status string to the internal
// vocabulary. Matching is case-insensitive and ignores surrounding
// whitespace. Unrecognized input, including the empty string, yields
// StatusUnknown - never an error.
func NormalizeStatus(providerStatus string) PaymentStatus {
	if status, ok := providerStatusTable[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return status
	}
	return StatusUnknown
}
