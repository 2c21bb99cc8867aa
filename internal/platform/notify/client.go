// Package notify implements the domain.StatusNotifier interface by posting
// donation status changes to an optional backoffice endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
)

// Client posts donation status changes over HTTP. With an empty base URL the
// client is disabled and every notification is a no-op.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new status notifier client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// statusChangeRequest is the JSON payload posted to the backoffice.
type statusChangeRequest struct {
	DonationID       string  `json:"donation_id"`
	OrganizationID   string  `json:"organization_id"`
	OrganizationName string  `json:"organization_name"`
	Kind             string  `json:"kind"`
	Status           string  `json:"status"`
	ProviderStatus   string  `json:"provider_status"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	ExternalID       string  `json:"external_id"`
	Timestamp        string  `json:"timestamp"`
}

// NotifyStatusChange posts the donation's new status to the backoffice.
// Callers treat failures as best-effort and only log them.
func (c *Client) NotifyStatusChange(ctx context.Context, donation *domain.Donation) error {
	if c.baseURL == "" {
		return nil
	}

	externalID := donation.ExternalPaymentID
	if donation.Kind == domain.DonationRecurring {
		externalID = donation.SubscriptionID
	}

	payload := statusChangeRequest{
		DonationID:       donation.ID,
		OrganizationID:   donation.OrganizationID,
		OrganizationName: donation.OrganizationName,
		Kind:             string(donation.Kind),
		Status:           string(donation.Status),
		ProviderStatus:   donation.ProviderStatus,
		Amount:           donation.Amount,
		Currency:         donation.Currency,
		ExternalID:       externalID,
		Timestamp:        time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal payload: %w", err)
	}

	url := c.baseURL + "/api/internal/donations/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: failed to create request: %w", err)
	}
	req.Header.Set("X-Internal-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify: backoffice returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
