// Package domain contains the core business entities and interfaces for the
// donation service. This is the innermost layer of the Clean Architecture -
// it has no dependencies on external frameworks or infrastructure.
package domain

import "time"

// DonationKind distinguishes one-time pledges from recurring subscriptions.
type DonationKind string

const (
	DonationSingle    DonationKind = "single"
	DonationRecurring DonationKind = "recurring"
)

// Frequency is the billing cadence for recurring donations.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is one of the supported billing cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyWeekly, FrequencyYearly:
		return true
	}
	return false
}

// Donation represents one pledge of money, single or recurring.
//
// Exactly one of ExternalPaymentID / SubscriptionID is authoritative,
// depending on Kind. Status is always a normalized value from the closed
// PaymentStatus vocabulary; ProviderStatus keeps the raw provider string for
// diagnostics only.
type Donation struct {
	ID               string       `json:"id"`
	OrganizationID   string       `json:"organization_id"`
	OrganizationName string       `json:"organization_name"`
	Amount           float64      `json:"amount"`
	Currency         string       `json:"currency"`
	Kind             DonationKind `json:"kind"`
	Frequency        Frequency    `json:"frequency,omitempty"`

	DonorName     string `json:"donor_name"`
	DonorEmail    string `json:"donor_email"`
	DonorPhone    string `json:"donor_phone,omitempty"`
	DonorDocument string `json:"donor_document,omitempty"`
	DonorCity     string `json:"donor_city,omitempty"`
	DonorState    string `json:"donor_state,omitempty"`

	Anonymous bool `json:"anonymous"`
	Public    bool `json:"public"`

	ExternalPaymentID string `json:"external_payment_id,omitempty"`
	SubscriptionID    string `json:"subscription_id,omitempty"`
	PlanID            string `json:"plan_id,omitempty"`

	Status         PaymentStatus `json:"status"`
	ProviderStatus string        `json:"provider_status,omitempty"`
	NextChargeDate *time.Time    `json:"next_charge_date,omitempty"`

	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DonationInput carries the caller-supplied data for creating a donation.
type DonationInput struct {
	OrganizationID   string
	OrganizationName string
	Amount           float64
	Currency         string
	Frequency        Frequency // recurring only

	DonorName     string
	DonorEmail    string
	DonorPhone    string
	DonorDocument string
	DonorCity     string
	DonorState    string

	Anonymous bool
	Public    bool
	Message   string
}

// CheckoutPreference is a created one-time checkout preference at the
// payment provider.
type CheckoutPreference struct {
	ExternalID string `json:"external_id"`
	PaymentURL string `json:"payment_url"`
	SandboxURL string `json:"sandbox_url,omitempty"`
}

// Subscription references a recurring preapproval at the payment provider.
// PlanID is set when the two-step plan flow was used. ProviderStatus is the
// raw provider string, kept for diagnostics but never trusted as the
// internal status.
type Subscription struct {
	ExternalID      string     `json:"external_id"`
	SubscriptionURL string     `json:"subscription_url"`
	PlanID          string     `json:"plan_id,omitempty"`
	ProviderStatus  string     `json:"provider_status,omitempty"`
	NextChargeDate  *time.Time `json:"next_charge_date,omitempty"`
}

// WebhookNotification represents an incoming webhook from the payment
// provider.
type WebhookNotification struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`   // "payment", "preapproval", etc.
	Action      string `json:"action"` // "payment.created", "payment.updated", etc.
	DataID      string `json:"data_id"`
	LiveMode    bool   `json:"live_mode"`
	DateCreated string `json:"date_created"`
}

// Webhook event types produced by the gateway adapter.
const (
	EventPayment      = "payment"
	EventSubscription = "subscription"
	EventUnknown      = "unknown"
)

// WebhookEvent is the normalized result of processing a provider webhook.
// The adapter always re-fetches the resource by id; the webhook payload
// itself is not trusted as authoritative.
type WebhookEvent struct {
	EventID           string  `json:"event_id"`
	Type              string  `json:"type"`
	ResourceID        string  `json:"resource_id"`
	ProviderStatus    string  `json:"provider_status,omitempty"`
	Amount            float64 `json:"amount,omitempty"`
	ExternalReference string  `json:"external_reference,omitempty"`
}
