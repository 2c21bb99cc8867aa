// Package domain contains the core business entities and interfaces for the
// donation service.
package domain

import "context"

// DonationRepository defines the persistence operations the donation core
// depends on. This is a "port" in hexagonal architecture - the domain defines
// what it needs, and infrastructure provides the implementation.
type DonationRepository interface {
	// Create inserts a new donation. Returns ErrDuplicateDonation if a
	// donation with the same external payment or subscription id already
	// exists (the storage layer enforces uniqueness).
	Create(ctx context.Context, donation *Donation) error

	// Update persists all mutable fields of an existing donation.
	Update(ctx context.Context, donation *Donation) error

	// UpdateStatus overwrites the normalized status and the raw provider
	// status of the donation with the given internal id.
	UpdateStatus(ctx context.Context, id string, status PaymentStatus, providerStatus string) error

	// FindByID retrieves a donation by its internal id.
	// Returns ErrDonationNotFound if it doesn't exist.
	FindByID(ctx context.Context, id string) (*Donation, error)

	// FindByExternalPaymentID retrieves a donation by the provider's payment
	// preference id. Returns ErrDonationNotFound if it doesn't exist.
	FindByExternalPaymentID(ctx context.Context, externalID string) (*Donation, error)

	// FindBySubscriptionID retrieves a donation by the provider's
	// subscription id. Returns ErrDonationNotFound if it doesn't exist.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Donation, error)

	// ExistsByExternalPaymentID reports whether a donation with the given
	// external payment id is already stored.
	ExistsByExternalPaymentID(ctx context.Context, externalID string) (bool, error)

	// ExistsBySubscriptionID reports whether a donation with the given
	// subscription id is already stored.
	ExistsBySubscriptionID(ctx context.Context, subscriptionID string) (bool, error)

	// List returns donations ordered by creation time, newest first.
	// When publicOnly is set, donations flagged non-public are omitted.
	List(ctx context.Context, publicOnly bool) ([]Donation, error)

	// Delete removes a donation permanently. Administrative use only;
	// normal flows never hard-delete.
	Delete(ctx context.Context, id string) error
}

// WebhookEventRepository records provider webhook events that have already
// been processed, so duplicate deliveries can be skipped.
type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

// PaymentGateway defines the interface for interacting with the payment
// provider. This abstracts away the details of the Mercado Pago SDK usage.
type PaymentGateway interface {
	// CreatePreference creates a one-time checkout preference.
	// A failure is a hard failure for the request; there is no retry.
	CreatePreference(ctx context.Context, input DonationInput, externalReference string) (*CheckoutPreference, error)

	// CreateSubscription creates a recurring preapproval, preferring the
	// two-step plan flow and falling back to a direct preapproval.
	CreateSubscription(ctx context.Context, input DonationInput, externalReference string) (*Subscription, error)

	// GetPaymentStatus returns the raw provider status for a payment id.
	GetPaymentStatus(ctx context.Context, externalID string) (string, error)

	// GetSubscriptionStatus returns the raw provider status for a
	// subscription id.
	GetSubscriptionStatus(ctx context.Context, externalID string) (string, error)

	// CancelSubscription sets the provider-side subscription to cancelled.
	CancelSubscription(ctx context.Context, externalID string) error

	// ProcessWebhook re-fetches the referenced resource and returns a
	// normalized event. Unknown notification types come back with
	// Type == EventUnknown and no error.
	ProcessWebhook(ctx context.Context, notification WebhookNotification) (*WebhookEvent, error)
}

// StatusNotifier pushes donation status changes to an external backoffice.
// Implementations are best-effort: callers log failures and move on.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, donation *Donation) error
}

// WebhookValidator validates provider webhook signatures.
type WebhookValidator interface {
	// ValidateSignature validates the x-signature header from Mercado Pago.
	ValidateSignature(xSignature, xRequestID, dataID, secret string) bool
}
