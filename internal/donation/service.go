// Package donation implements the core business logic for donation
// processing. This is the service/use-case layer in Clean Architecture.
package donation

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
	"github.com/google/uuid"
)

// Service orchestrates donation operations between the payment gateway and
// the repositories.
type Service struct {
	repo     domain.DonationRepository
	events   domain.WebhookEventRepository
	gateway  domain.PaymentGateway
	notifier domain.StatusNotifier
}

// NewService creates a new donation service with the required dependencies.
// notifier may be nil when no backoffice endpoint is configured.
func NewService(
	repo domain.DonationRepository,
	events domain.WebhookEventRepository,
	gateway domain.PaymentGateway,
	notifier domain.StatusNotifier,
) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		gateway:  gateway,
		notifier: notifier,
	}
}

// SingleResult is returned after creating a one-time donation.
type SingleResult struct {
	Donation   *domain.Donation `json:"donation"`
	PaymentURL string           `json:"payment_url"`
	ExternalID string           `json:"external_id"`
}

// RecurringResult is returned after creating a recurring donation.
type RecurringResult struct {
	Donation        *domain.Donation `json:"donation"`
	SubscriptionURL string           `json:"subscription_url"`
	ExternalID      string           `json:"external_id"`
}

// CreateSingleDonation handles the one-time donation flow:
// 1. Validates the input before any external call
// 2. Creates a checkout preference at the payment provider
// 3. Returns the existing donation if one is already stored for the
//    returned external id (idempotency)
// 4. Persists a new donation in pending status
func (s *Service) CreateSingleDonation(ctx context.Context, input domain.DonationInput) (*SingleResult, error) {
	if err := validateInput(input, false); err != nil {
		return nil, err
	}

	externalRef := uuid.New().String()
	pref, err := s.gateway.CreatePreference(ctx, input, externalRef)
	if err != nil {
		log.Printf("failed to create preference for org %s: %v", input.OrganizationID, err)
		return nil, domain.NewDonationError(domain.ErrPaymentGatewayError,
			"failed to create payment preference", "GATEWAY_ERROR")
	}

	if existing, err := s.repo.FindByExternalPaymentID(ctx, pref.ExternalID); err == nil {
		log.Printf("donation already exists for payment %s, returning existing", pref.ExternalID)
		return &SingleResult{Donation: existing, PaymentURL: pref.PaymentURL, ExternalID: pref.ExternalID}, nil
	} else if !errors.Is(err, domain.ErrDonationNotFound) {
		return nil, err
	}

	d := newDonation(input, domain.DonationSingle)
	d.ExternalPaymentID = pref.ExternalID

	if err := s.repo.Create(ctx, d); err != nil {
		// A concurrent request may have won the insert; the unique index on
		// the external id makes the race safe, so return the winner.
		if errors.Is(err, domain.ErrDuplicateDonation) {
			if existing, ferr := s.repo.FindByExternalPaymentID(ctx, pref.ExternalID); ferr == nil {
				return &SingleResult{Donation: existing, PaymentURL: pref.PaymentURL, ExternalID: pref.ExternalID}, nil
			}
		}
		return nil, err
	}

	log.Printf("created donation %s for org %s, amount: %.2f, payment: %s",
		d.ID, d.OrganizationID, d.Amount, pref.ExternalID)

	return &SingleResult{Donation: d, PaymentURL: pref.PaymentURL, ExternalID: pref.ExternalID}, nil
}

// CreateRecurringDonation handles the recurring donation flow. Same shape as
// the single flow, with frequency validation and idempotency keyed by the
// provider subscription id.
func (s *Service) CreateRecurringDonation(ctx context.Context, input domain.DonationInput) (*RecurringResult, error) {
	if err := validateInput(input, true); err != nil {
		return nil, err
	}

	externalRef := uuid.New().String()
	sub, err := s.gateway.CreateSubscription(ctx, input, externalRef)
	if err != nil {
		log.Printf("failed to create subscription for org %s: %v", input.OrganizationID, err)
		return nil, domain.NewDonationError(domain.ErrPaymentGatewayError,
			"failed to create subscription", "GATEWAY_ERROR")
	}

	if existing, err := s.repo.FindBySubscriptionID(ctx, sub.ExternalID); err == nil {
		log.Printf("donation already exists for subscription %s, returning existing", sub.ExternalID)
		return &RecurringResult{Donation: existing, SubscriptionURL: sub.SubscriptionURL, ExternalID: sub.ExternalID}, nil
	} else if !errors.Is(err, domain.ErrDonationNotFound) {
		return nil, err
	}

	d := newDonation(input, domain.DonationRecurring)
	d.SubscriptionID = sub.ExternalID
	d.PlanID = sub.PlanID
	d.ProviderStatus = sub.ProviderStatus
	d.NextChargeDate = sub.NextChargeDate

	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicateDonation) {
			if existing, ferr := s.repo.FindBySubscriptionID(ctx, sub.ExternalID); ferr == nil {
				return &RecurringResult{Donation: existing, SubscriptionURL: sub.SubscriptionURL, ExternalID: sub.ExternalID}, nil
			}
		}
		return nil, err
	}

	log.Printf("created recurring donation %s for org %s, amount: %.2f %s, subscription: %s",
		d.ID, d.OrganizationID, d.Amount, d.Frequency, sub.ExternalID)

	return &RecurringResult{Donation: d, SubscriptionURL: sub.SubscriptionURL, ExternalID: sub.ExternalID}, nil
}

// ProcessPaymentWebhook routes a provider notification to a local status
// update. Events without a matching donation are dropped and logged, never
// retried or queued. The returned error is for operator logging only; the
// HTTP layer always answers success so the provider does not retry.
func (s *Service) ProcessPaymentWebhook(ctx context.Context, n domain.WebhookNotification) error {
	event, err := s.gateway.ProcessWebhook(ctx, n)
	if err != nil {
		return err
	}

	if event.Type == domain.EventUnknown {
		log.Printf("ignoring webhook type %q", n.Type)
		return nil
	}

	if event.EventID != "" {
		if seen, err := s.events.Exists(ctx, event.EventID); err == nil && seen {
			log.Printf("webhook event %s already processed, skipping", event.EventID)
			return nil
		}
	}

	var d *domain.Donation
	switch event.Type {
	case domain.EventPayment:
		d, err = s.repo.FindByExternalPaymentID(ctx, event.ResourceID)
	case domain.EventSubscription:
		d, err = s.repo.FindBySubscriptionID(ctx, event.ResourceID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrDonationNotFound) {
			log.Printf("no donation for %s %s, dropping event", event.Type, event.ResourceID)
			return nil
		}
		return err
	}

	status := domain.NormalizeStatus(event.ProviderStatus)
	if err := s.repo.UpdateStatus(ctx, d.ID, status, event.ProviderStatus); err != nil {
		return err
	}

	if event.EventID != "" {
		if err := s.events.MarkProcessed(ctx, event.EventID, event.Type); err != nil {
			log.Printf("warning: failed to record webhook event %s: %v", event.EventID, err)
		}
	}

	log.Printf("webhook processed: %s %s, status %s -> %s",
		event.Type, event.ResourceID, d.Status, status)

	d.Status = status
	d.ProviderStatus = event.ProviderStatus
	if s.notifier != nil {
		if err := s.notifier.NotifyStatusChange(ctx, d); err != nil {
			log.Printf("warning: failed to notify status change for donation %s: %v", d.ID, err)
		}
	}

	return nil
}

// CancelSubscription cancels the provider-side subscription and then makes a
// best-effort update to the local donation. The provider is the source of
// truth: a failure to reflect the cancellation locally is only logged.
func (s *Service) CancelSubscription(ctx context.Context, externalID string) error {
	if err := s.gateway.CancelSubscription(ctx, externalID); err != nil {
		return domain.NewDonationError(domain.ErrPaymentGatewayError,
			"failed to cancel subscription", "GATEWAY_ERROR")
	}

	d, err := s.repo.FindBySubscriptionID(ctx, externalID)
	if err != nil {
		log.Printf("warning: subscription %s cancelled at provider but no local donation found: %v", externalID, err)
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, d.ID, domain.StatusCancelled, "cancelled"); err != nil {
		log.Printf("warning: subscription %s cancelled at provider but local update failed: %v", externalID, err)
	}

	return nil
}

// GetDonation retrieves a donation by its internal id.
func (s *Service) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	return s.repo.FindByID(ctx, id)
}

// ListDonations returns stored donations, optionally restricted to the
// publicly visible ones.
func (s *Service) ListDonations(ctx context.Context, publicOnly bool) ([]domain.Donation, error) {
	return s.repo.List(ctx, publicOnly)
}

// DeleteDonation removes a donation permanently. Administrative use only.
func (s *Service) DeleteDonation(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func newDonation(input domain.DonationInput, kind domain.DonationKind) *domain.Donation {
	now := time.Now()
	currency := input.Currency
	if currency == "" {
		currency = "BRL"
	}

	d := &domain.Donation{
		ID:               uuid.New().String(),
		OrganizationID:   input.OrganizationID,
		OrganizationName: input.OrganizationName,
		Amount:           input.Amount,
		Currency:         currency,
		Kind:             kind,
		DonorName:        input.DonorName,
		DonorEmail:       input.DonorEmail,
		DonorPhone:       input.DonorPhone,
		DonorDocument:    input.DonorDocument,
		DonorCity:        input.DonorCity,
		DonorState:       input.DonorState,
		Anonymous:        input.Anonymous,
		Public:           input.Public,
		Status:           domain.StatusPending,
		Message:          input.Message,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if kind == domain.DonationRecurring {
		d.Frequency = input.Frequency
	}
	return d
}

// validateInput checks the caller-supplied data before any external call.
func validateInput(input domain.DonationInput, recurring bool) error {
	if input.Amount <= 0 {
		return domain.NewDonationError(domain.ErrInvalidDonation,
			"amount must be greater than 0", "VALIDATION_ERROR")
	}
	if strings.TrimSpace(input.DonorName) == "" {
		return domain.NewDonationError(domain.ErrInvalidDonation,
			"donor_name is required", "VALIDATION_ERROR")
	}
	if _, err := mail.ParseAddress(input.DonorEmail); err != nil {
		return domain.NewDonationError(domain.ErrInvalidDonation,
			"donor_email is not a valid email address", "VALIDATION_ERROR")
	}
	if recurring && !input.Frequency.Valid() {
		return domain.NewDonationError(domain.ErrInvalidDonation,
			"frequency must be monthly, weekly or yearly", "VALIDATION_ERROR")
	}
	return nil
}
