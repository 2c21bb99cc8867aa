// Package mercadopago implements the domain.PaymentGateway interface using
// the official Mercado Pago SDK.
package mercadopago

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preapproval"
	"github.com/mercadopago/sdk-go/pkg/preapprovalplan"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

// planBackoff is the wait before each preapproval attempt against a freshly
// created plan. The provider needs a moment to propagate new plans, so the
// first attempt is immediate and the rest back off.
var planBackoff = []time.Duration{
	0,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// Narrow views of the SDK clients, covering only the calls the adapter
// makes. The SDK's own client types satisfy these; tests substitute stubs.
type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type preapprovalAPI interface {
	Create(ctx context.Context, request preapproval.Request) (*preapproval.Response, error)
	Get(ctx context.Context, id string) (*preapproval.Response, error)
	Update(ctx context.Context, id string, request preapproval.UpdateRequest) (*preapproval.Response, error)
}

type planAPI interface {
	Create(ctx context.Context, request preapprovalplan.Request) (*preapprovalplan.Response, error)
}

// Adapter implements domain.PaymentGateway using the Mercado Pago SDK.
// The service serves a single nonprofit, so one access token is held for the
// lifetime of the adapter instead of being passed per request.
type Adapter struct {
	preferences  preferenceAPI
	payments     paymentAPI
	preapprovals preapprovalAPI
	plans        planAPI

	backURLBase     string
	notificationURL string
	currency        string

	sleep func(time.Duration)
}

// NewAdapter creates a new Mercado Pago adapter with the given credentials.
func NewAdapter(accessToken, backURLBase, notificationURL, currency string) (*Adapter, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create config: %w", err)
	}

	if currency == "" {
		currency = "BRL"
	}

	return &Adapter{
		preferences:     preference.NewClient(cfg),
		payments:        payment.NewClient(cfg),
		preapprovals:    preapproval.NewClient(cfg),
		plans:           preapprovalplan.NewClient(cfg),
		backURLBase:     strings.TrimRight(backURLBase, "/"),
		notificationURL: notificationURL,
		currency:        currency,
		sleep:           time.Sleep,
	}, nil
}

// CreatePreference creates a one-time checkout preference.
// A failure here is a hard failure for the request; there is no retry.
func (a *Adapter) CreatePreference(ctx context.Context, input domain.DonationInput, externalReference string) (*domain.CheckoutPreference, error) {
	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:       donationTitle(input),
				Description: input.Message,
				Quantity:    1,
				UnitPrice:   input.Amount,
				CurrencyID:  a.currency,
			},
		},
		Payer: &preference.PayerRequest{
			Name:  input.DonorName,
			Email: input.DonorEmail,
		},
		ExternalReference: externalReference,
		AutoReturn:        "approved",
		BackURLs: &preference.BackURLsRequest{
			Success: a.backURLBase + "/donation/success",
			Failure: a.backURLBase + "/donation/failure",
			Pending: a.backURLBase + "/donation/pending",
		},
		NotificationURL: a.notificationURL,
	}

	result, err := a.preferences.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create preference: %w", err)
	}

	return &domain.CheckoutPreference{
		ExternalID: result.ID,
		PaymentURL: result.InitPoint,
		SandboxURL: result.SandboxInitPoint,
	}, nil
}

// CreateSubscription creates a recurring preapproval. The preferred path is
// the two-step flow (create a subscription plan, then a preapproval that
// references it). If that path fails entirely, a legacy direct preapproval
// with inline auto-recurring terms is attempted; if both fail, the error
// from the plan path is surfaced.
func (a *Adapter) CreateSubscription(ctx context.Context, input domain.DonationInput, externalReference string) (*domain.Subscription, error) {
	freq, unit, err := frequencyTerms(input.Frequency)
	if err != nil {
		return nil, err
	}

	sub, planErr := a.createWithPlan(ctx, input, externalReference, freq, unit)
	if planErr == nil {
		return sub, nil
	}
	log.Printf("mercadopago: plan flow failed, trying direct preapproval: %v", planErr)

	sub, directErr := a.createDirect(ctx, input, externalReference, freq, unit)
	if directErr == nil {
		return sub, nil
	}
	log.Printf("mercadopago: direct preapproval also failed: %v", directErr)

	return nil, planErr
}

// createWithPlan runs the two-step plan -> preapproval flow. A freshly
// created plan may not be visible to the preapproval endpoint yet, so that
// specific condition is retried on the planBackoff schedule; any other
// error is surfaced immediately.
func (a *Adapter) createWithPlan(ctx context.Context, input domain.DonationInput, externalReference string, freq int, unit string) (*domain.Subscription, error) {
	planResult, err := a.plans.Create(ctx, preapprovalplan.Request{
		Reason:  donationTitle(input),
		BackURL: a.backURLBase + "/donation/success",
		AutoRecurring: &preapprovalplan.AutoRecurringRequest{
			Frequency:         freq,
			FrequencyType:     unit,
			TransactionAmount: input.Amount,
			CurrencyID:        a.currency,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create subscription plan: %w", err)
	}

	var lastErr error
	for _, wait := range planBackoff {
		if wait > 0 {
			a.sleep(wait)
		}

		result, err := a.preapprovals.Create(ctx, preapproval.Request{
			PreapprovalPlanID: planResult.ID,
			Reason:            donationTitle(input),
			ExternalReference: externalReference,
			PayerEmail:        input.DonorEmail,
			BackURL:           a.backURLBase + "/donation/success",
		})
		if err == nil {
			sub := subscriptionFromResponse(result)
			sub.PlanID = planResult.ID
			return sub, nil
		}

		if !isPlanPropagationError(err) {
			return nil, fmt.Errorf("mercadopago: failed to create preapproval: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("mercadopago: plan %s not visible after %d attempts: %w",
		planResult.ID, len(planBackoff), lastErr)
}

// createDirect is the legacy single-step flow: a preapproval carrying its
// auto-recurring terms inline, with no plan. When the provider rejects the
// request because payer and merchant accounts live in different billing
// countries, it is retried once without the payer email so the payer can
// pick an account at checkout.
func (a *Adapter) createDirect(ctx context.Context, input domain.DonationInput, externalReference string, freq int, unit string) (*domain.Subscription, error) {
	request := preapproval.Request{
		Reason:            donationTitle(input),
		ExternalReference: externalReference,
		PayerEmail:        input.DonorEmail,
		BackURL:           a.backURLBase + "/donation/success",
		AutoRecurring: &preapproval.AutoRecurringRequest{
			Frequency:         freq,
			FrequencyType:     unit,
			TransactionAmount: input.Amount,
			CurrencyID:        a.currency,
		},
	}

	result, err := a.preapprovals.Create(ctx, request)
	if err != nil && isCrossCountryError(err) {
		log.Printf("mercadopago: cross-country payer rejected, retrying without payer email")
		request.PayerEmail = ""
		result, err = a.preapprovals.Create(ctx, request)
	}
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create preapproval: %w", err)
	}

	return subscriptionFromResponse(result), nil
}

// GetPaymentStatus returns the raw provider status for a payment id.
func (a *Adapter) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	id, err := strconv.Atoi(externalID)
	if err != nil {
		return "", fmt.Errorf("mercadopago: invalid payment id %q: %w", externalID, err)
	}

	result, err := a.payments.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("mercadopago: failed to get payment %s: %w", externalID, err)
	}
	return result.Status, nil
}

// GetSubscriptionStatus returns the raw provider status for a subscription id.
func (a *Adapter) GetSubscriptionStatus(ctx context.Context, externalID string) (string, error) {
	result, err := a.preapprovals.Get(ctx, externalID)
	if err != nil {
		return "", fmt.Errorf("mercadopago: failed to get preapproval %s: %w", externalID, err)
	}
	return result.Status, nil
}

// CancelSubscription sets the provider-side subscription status to cancelled.
// Cancelling an already-cancelled subscription relies on provider semantics.
func (a *Adapter) CancelSubscription(ctx context.Context, externalID string) error {
	_, err := a.preapprovals.Update(ctx, externalID, preapproval.UpdateRequest{
		Status: "cancelled",
	})
	if err != nil {
		return fmt.Errorf("mercadopago: failed to cancel preapproval %s: %w", externalID, err)
	}
	return nil
}

// ProcessWebhook dispatches on the notification type and re-fetches the
// referenced resource by id; the webhook payload itself is not trusted as
// authoritative. Unknown types pass through as EventUnknown without error.
func (a *Adapter) ProcessWebhook(ctx context.Context, n domain.WebhookNotification) (*domain.WebhookEvent, error) {
	switch n.Type {
	case "payment":
		id, err := strconv.Atoi(n.DataID)
		if err != nil {
			return nil, fmt.Errorf("mercadopago: invalid payment id in webhook %q: %w", n.DataID, err)
		}
		result, err := a.payments.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("mercadopago: failed to get payment %s: %w", n.DataID, err)
		}
		return &domain.WebhookEvent{
			EventID:           eventID(n),
			Type:              domain.EventPayment,
			ResourceID:        n.DataID,
			ProviderStatus:    result.Status,
			Amount:            result.TransactionAmount,
			ExternalReference: result.ExternalReference,
		}, nil

	case "preapproval", "subscription_preapproval":
		result, err := a.preapprovals.Get(ctx, n.DataID)
		if err != nil {
			return nil, fmt.Errorf("mercadopago: failed to get preapproval %s: %w", n.DataID, err)
		}
		return &domain.WebhookEvent{
			EventID:           eventID(n),
			Type:              domain.EventSubscription,
			ResourceID:        n.DataID,
			ProviderStatus:    result.Status,
			Amount:            result.AutoRecurring.TransactionAmount,
			ExternalReference: result.ExternalReference,
		}, nil

	default:
		return &domain.WebhookEvent{
			EventID:    eventID(n),
			Type:       domain.EventUnknown,
			ResourceID: n.DataID,
		}, nil
	}
}

// frequencyTerms maps an internal billing cadence to the provider's
// {frequency, frequency_type} pair.
func frequencyTerms(f domain.Frequency) (int, string, error) {
	switch f {
	case domain.FrequencyWeekly:
		return 7, "days", nil
	case domain.FrequencyMonthly:
		return 1, "months", nil
	case domain.FrequencyYearly:
		return 12, "months", nil
	}
	return 0, "", fmt.Errorf("mercadopago: unsupported frequency %q", f)
}

func donationTitle(input domain.DonationInput) string {
	if input.OrganizationName == "" {
		return "Donation"
	}
	return fmt.Sprintf("Donation to %s", input.OrganizationName)
}

func subscriptionFromResponse(result *preapproval.Response) *domain.Subscription {
	sub := &domain.Subscription{
		ExternalID:      result.ID,
		SubscriptionURL: result.InitPoint,
		ProviderStatus:  result.Status,
	}
	if !result.NextPaymentDate.IsZero() {
		next := result.NextPaymentDate
		sub.NextChargeDate = &next
	}
	return sub
}

// eventID builds a stable identifier for webhook deduplication. The
// provider's numeric envelope id is preferred; without one the resource id
// still makes retries of the same notification collapse.
func eventID(n domain.WebhookNotification) string {
	if n.ID != 0 {
		return fmt.Sprintf("%s-%d", n.Type, n.ID)
	}
	if n.DataID != "" {
		return fmt.Sprintf("%s-%s-%s", n.Type, n.Action, n.DataID)
	}
	return ""
}

// isPlanPropagationError matches the provider's transient "plan not yet
// visible" response. Only this condition is retried.
func isPlanPropagationError(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "plan") {
		return false
	}
	return strings.Contains(msg, "not found") || strings.Contains(msg, "cannot be found")
}

// isCrossCountryError matches the provider's rejection of preapprovals where
// payer and merchant accounts are registered in different billing countries.
func isCrossCountryError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "different countr")
}
