package donation

import (
	"context"
	"errors"
	"testing"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
)

// fakeRepo is an in-memory domain.DonationRepository.
type fakeRepo struct {
	donations     map[string]*domain.Donation // keyed by internal id
	statusUpdates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{donations: make(map[string]*domain.Donation)}
}

func (r *fakeRepo) Create(_ context.Context, d *domain.Donation) error {
	for _, existing := range r.donations {
		if d.ExternalPaymentID != "" && existing.ExternalPaymentID == d.ExternalPaymentID {
			return domain.ErrDuplicateDonation
		}
		if d.SubscriptionID != "" && existing.SubscriptionID == d.SubscriptionID {
			return domain.ErrDuplicateDonation
		}
	}
	copied := *d
	r.donations[d.ID] = &copied
	return nil
}

func (r *fakeRepo) Update(_ context.Context, d *domain.Donation) error {
	if _, ok := r.donations[d.ID]; !ok {
		return domain.ErrDonationNotFound
	}
	copied := *d
	r.donations[d.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.PaymentStatus, providerStatus string) error {
	d, ok := r.donations[id]
	if !ok {
		return domain.ErrDonationNotFound
	}
	d.Status = status
	d.ProviderStatus = providerStatus
	r.statusUpdates++
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*domain.Donation, error) {
	if d, ok := r.donations[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrDonationNotFound
}

func (r *fakeRepo) FindByExternalPaymentID(_ context.Context, externalID string) (*domain.Donation, error) {
	for _, d := range r.donations {
		if d.ExternalPaymentID == externalID && externalID != "" {
			copied := *d
			return &copied, nil
		}
	}
	return nil, domain.ErrDonationNotFound
}

func (r *fakeRepo) FindBySubscriptionID(_ context.Context, subscriptionID string) (*domain.Donation, error) {
	for _, d := range r.donations {
		if d.SubscriptionID == subscriptionID && subscriptionID != "" {
			copied := *d
			return &copied, nil
		}
	}
	return nil, domain.ErrDonationNotFound
}

func (r *fakeRepo) ExistsByExternalPaymentID(ctx context.Context, externalID string) (bool, error) {
	_, err := r.FindByExternalPaymentID(ctx, externalID)
	if errors.Is(err, domain.ErrDonationNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeRepo) ExistsBySubscriptionID(ctx context.Context, subscriptionID string) (bool, error) {
	_, err := r.FindBySubscriptionID(ctx, subscriptionID)
	if errors.Is(err, domain.ErrDonationNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeRepo) List(_ context.Context, publicOnly bool) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range r.donations {
		if publicOnly && !d.Public {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.donations[id]; !ok {
		return domain.ErrDonationNotFound
	}
	delete(r.donations, id)
	return nil
}

// fakeEvents is an in-memory domain.WebhookEventRepository.
type fakeEvents struct {
	seen map[string]string
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{seen: make(map[string]string)}
}

func (e *fakeEvents) Exists(_ context.Context, eventID string) (bool, error) {
	_, ok := e.seen[eventID]
	return ok, nil
}

func (e *fakeEvents) MarkProcessed(_ context.Context, eventID, eventType string) error {
	e.seen[eventID] = eventType
	return nil
}

// fakeGateway is a scripted domain.PaymentGateway.
type fakeGateway struct {
	preference *domain.CheckoutPreference
	prefErr    error
	prefCalls  int

	subscription *domain.Subscription
	subErr       error
	subCalls     int

	webhookEvent *domain.WebhookEvent
	webhookErr   error

	cancelErr   error
	cancelCalls int
}

func (g *fakeGateway) CreatePreference(_ context.Context, _ domain.DonationInput, _ string) (*domain.CheckoutPreference, error) {
	g.prefCalls++
	return g.preference, g.prefErr
}

func (g *fakeGateway) CreateSubscription(_ context.Context, _ domain.DonationInput, _ string) (*domain.Subscription, error) {
	g.subCalls++
	return g.subscription, g.subErr
}

func (g *fakeGateway) GetPaymentStatus(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (g *fakeGateway) GetSubscriptionStatus(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, _ string) error {
	g.cancelCalls++
	return g.cancelErr
}

func (g *fakeGateway) ProcessWebhook(_ context.Context, _ domain.WebhookNotification) (*domain.WebhookEvent, error) {
	return g.webhookEvent, g.webhookErr
}

func singleInput() domain.DonationInput {
	return domain.DonationInput{
		OrganizationID:   "org-1",
		OrganizationName: "Casa da Esperanca",
		Amount:           25,
		DonorName:        "Maria",
		DonorEmail:       "maria@x.com",
		Public:           true,
	}
}

func TestCreateSingleDonation(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{preference: &domain.CheckoutPreference{
		ExternalID: "pay-1",
		PaymentURL: "https://pay/1",
	}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	result, err := svc.CreateSingleDonation(context.Background(), singleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExternalID != "pay-1" || result.PaymentURL != "https://pay/1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Donation.Status != domain.StatusPending {
		t.Errorf("expected pending status, got %q", result.Donation.Status)
	}
	if result.Donation.ExternalPaymentID != "pay-1" {
		t.Errorf("expected external payment id pay-1, got %q", result.Donation.ExternalPaymentID)
	}
	if result.Donation.Kind != domain.DonationSingle {
		t.Errorf("expected single kind, got %q", result.Donation.Kind)
	}
}

func TestCreateSingleDonation_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{preference: &domain.CheckoutPreference{
		ExternalID: "pay-1",
		PaymentURL: "https://pay/1",
	}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	first, err := svc.CreateSingleDonation(context.Background(), singleInput())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreateSingleDonation(context.Background(), singleInput())
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if len(repo.donations) != 1 {
		t.Errorf("expected exactly one stored donation, got %d", len(repo.donations))
	}
	if first.Donation.ID != second.Donation.ID {
		t.Errorf("expected both calls to return the same donation, got %q and %q",
			first.Donation.ID, second.Donation.ID)
	}
	if second.ExternalID != "pay-1" {
		t.Errorf("expected external id pay-1, got %q", second.ExternalID)
	}
}

func TestCreateSingleDonation_ValidationBeforeGateway(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.DonationInput)
	}{
		{"zero amount", func(in *domain.DonationInput) { in.Amount = 0 }},
		{"negative amount", func(in *domain.DonationInput) { in.Amount = -5 }},
		{"missing name", func(in *domain.DonationInput) { in.DonorName = "  " }},
		{"bad email", func(in *domain.DonationInput) { in.DonorEmail = "not-an-email" }},
		{"empty email", func(in *domain.DonationInput) { in.DonorEmail = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &fakeGateway{}
			svc := NewService(newFakeRepo(), newFakeEvents(), gateway, nil)

			input := singleInput()
			tc.mutate(&input)

			_, err := svc.CreateSingleDonation(context.Background(), input)
			if !errors.Is(err, domain.ErrInvalidDonation) {
				t.Errorf("expected ErrInvalidDonation, got %v", err)
			}
			if gateway.prefCalls != 0 {
				t.Errorf("validation must happen before any external call, got %d calls", gateway.prefCalls)
			}
		})
	}
}

func TestCreateSingleDonation_GatewayFailurePersistsNothing(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{prefErr: errors.New("provider down")}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	_, err := svc.CreateSingleDonation(context.Background(), singleInput())
	if !errors.Is(err, domain.ErrPaymentGatewayError) {
		t.Errorf("expected ErrPaymentGatewayError, got %v", err)
	}
	if len(repo.donations) != 0 {
		t.Errorf("expected no persisted donation on gateway failure, got %d", len(repo.donations))
	}
}

func TestCreateRecurringDonation(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{subscription: &domain.Subscription{
		ExternalID:      "sub-1",
		SubscriptionURL: "https://pay/sub-1",
		PlanID:          "plan-1",
		ProviderStatus:  "pending",
	}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	input := singleInput()
	input.Frequency = domain.FrequencyMonthly

	result, err := svc.CreateRecurringDonation(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Donation.SubscriptionID != "sub-1" || result.Donation.PlanID != "plan-1" {
		t.Errorf("unexpected donation: %+v", result.Donation)
	}
	if result.Donation.Kind != domain.DonationRecurring || result.Donation.Frequency != domain.FrequencyMonthly {
		t.Errorf("unexpected kind/frequency: %+v", result.Donation)
	}
	if result.Donation.Status != domain.StatusPending {
		t.Errorf("expected pending status, got %q", result.Donation.Status)
	}
}

func TestCreateRecurringDonation_InvalidFrequency(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewService(newFakeRepo(), newFakeEvents(), gateway, nil)

	input := singleInput()
	input.Frequency = "daily"

	_, err := svc.CreateRecurringDonation(context.Background(), input)
	if !errors.Is(err, domain.ErrInvalidDonation) {
		t.Errorf("expected ErrInvalidDonation, got %v", err)
	}
	if gateway.subCalls != 0 {
		t.Errorf("expected no gateway call, got %d", gateway.subCalls)
	}
}

func TestProcessPaymentWebhook_Convergence(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{preference: &domain.CheckoutPreference{
		ExternalID: "pay-1",
		PaymentURL: "https://pay/1",
	}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	created, err := svc.CreateSingleDonation(context.Background(), singleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	gateway.webhookEvent = &domain.WebhookEvent{
		EventID:        "payment-42",
		Type:           domain.EventPayment,
		ResourceID:     "pay-1",
		ProviderStatus: "approved",
	}
	err = svc.ProcessPaymentWebhook(context.Background(), domain.WebhookNotification{
		ID: 42, Type: "payment", DataID: "pay-1",
	})
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}

	got, err := svc.GetDonation(context.Background(), created.Donation.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %q", got.Status)
	}
	// Everything else unchanged.
	if got.Amount != 25 || got.DonorEmail != "maria@x.com" || got.ExternalPaymentID != "pay-1" {
		t.Errorf("webhook must only update status, got %+v", got)
	}
}

func TestProcessPaymentWebhook_UnknownTargetDropped(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{webhookEvent: &domain.WebhookEvent{
		EventID:        "payment-7",
		Type:           domain.EventPayment,
		ResourceID:     "pay-missing",
		ProviderStatus: "approved",
	}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	err := svc.ProcessPaymentWebhook(context.Background(), domain.WebhookNotification{
		ID: 7, Type: "payment", DataID: "pay-missing",
	})
	if err != nil {
		t.Fatalf("unmatched webhook must not error, got %v", err)
	}
	if len(repo.donations) != 0 || repo.statusUpdates != 0 {
		t.Error("unmatched webhook must leave the datastore unchanged")
	}
}

func TestProcessPaymentWebhook_DuplicateEventSkipped(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{preference: &domain.CheckoutPreference{ExternalID: "pay-1"}}
	events := newFakeEvents()
	svc := NewService(repo, events, gateway, nil)

	if _, err := svc.CreateSingleDonation(context.Background(), singleInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	gateway.webhookEvent = &domain.WebhookEvent{
		EventID:        "payment-42",
		Type:           domain.EventPayment,
		ResourceID:     "pay-1",
		ProviderStatus: "approved",
	}
	notification := domain.WebhookNotification{ID: 42, Type: "payment", DataID: "pay-1"}

	if err := svc.ProcessPaymentWebhook(context.Background(), notification); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.ProcessPaymentWebhook(context.Background(), notification); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if repo.statusUpdates != 1 {
		t.Errorf("expected a single status update across duplicate deliveries, got %d", repo.statusUpdates)
	}
}

func TestProcessPaymentWebhook_UnknownTypeIgnored(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{webhookEvent: &domain.WebhookEvent{Type: domain.EventUnknown}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	err := svc.ProcessPaymentWebhook(context.Background(), domain.WebhookNotification{Type: "merchant_order"})
	if err != nil {
		t.Fatalf("unknown type must not error, got %v", err)
	}
}

func TestCancelSubscription_BestEffortLocalUpdate(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{subscription: &domain.Subscription{ExternalID: "sub-1"}}
	svc := NewService(repo, newFakeEvents(), gateway, nil)

	input := singleInput()
	input.Frequency = domain.FrequencyMonthly
	created, err := svc.CreateRecurringDonation(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.CancelSubscription(context.Background(), "sub-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := svc.GetDonation(context.Background(), created.Donation.ID)
	if got.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled, got %q", got.Status)
	}
}

func TestCancelSubscription_NoLocalDonationIsSwallowed(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewService(newFakeRepo(), newFakeEvents(), gateway, nil)

	// Provider-side cancellation succeeded; the missing local record is a
	// logged warning, not a failure.
	if err := svc.CancelSubscription(context.Background(), "sub-unknown"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if gateway.cancelCalls != 1 {
		t.Errorf("expected one provider cancel call, got %d", gateway.cancelCalls)
	}
}

func TestCancelSubscription_GatewayFailure(t *testing.T) {
	gateway := &fakeGateway{cancelErr: errors.New("provider down")}
	svc := NewService(newFakeRepo(), newFakeEvents(), gateway, nil)

	if err := svc.CancelSubscription(context.Background(), "sub-1"); !errors.Is(err, domain.ErrPaymentGatewayError) {
		t.Errorf("expected ErrPaymentGatewayError, got %v", err)
	}
}
