// Package api contains the HTTP handlers and routing for the donation service.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
	"github.com/caiorafaeldop/colab-ongs-backend/internal/donation"
	"github.com/gin-gonic/gin"
)

// DonationService is the slice of the donation service the handlers use.
type DonationService interface {
	CreateSingleDonation(ctx context.Context, input domain.DonationInput) (*donation.SingleResult, error)
	CreateRecurringDonation(ctx context.Context, input domain.DonationInput) (*donation.RecurringResult, error)
	ProcessPaymentWebhook(ctx context.Context, n domain.WebhookNotification) error
	CancelSubscription(ctx context.Context, externalID string) error
	GetDonation(ctx context.Context, id string) (*domain.Donation, error)
	ListDonations(ctx context.Context, publicOnly bool) ([]domain.Donation, error)
	DeleteDonation(ctx context.Context, id string) error
}

// Handler contains the HTTP handlers for the donation API.
type Handler struct {
	service       DonationService
	validator     domain.WebhookValidator
	webhookSecret string
}

// NewHandler creates a new API handler. An empty webhookSecret disables
// signature verification on the webhook endpoint.
func NewHandler(service DonationService, validator domain.WebhookValidator, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		validator:     validator,
		webhookSecret: webhookSecret,
	}
}

// DonationRequest represents the JSON body for the donation endpoints.
type DonationRequest struct {
	OrganizationID   string  `json:"organization_id" binding:"required"`
	OrganizationName string  `json:"organization_name"`
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	Currency         string  `json:"currency"`
	Frequency        string  `json:"frequency"`

	DonorName     string `json:"donor_name" binding:"required"`
	DonorEmail    string `json:"donor_email" binding:"required,email"`
	DonorPhone    string `json:"donor_phone"`
	DonorDocument string `json:"donor_document"`
	DonorCity     string `json:"donor_city"`
	DonorState    string `json:"donor_state"`

	Anonymous bool   `json:"anonymous"`
	Public    *bool  `json:"public"`
	Message   string `json:"message"`
}

func (r *DonationRequest) toInput() domain.DonationInput {
	public := true
	if r.Public != nil {
		public = *r.Public
	}
	return domain.DonationInput{
		OrganizationID:   r.OrganizationID,
		OrganizationName: r.OrganizationName,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Frequency:        domain.Frequency(r.Frequency),
		DonorName:        r.DonorName,
		DonorEmail:       r.DonorEmail,
		DonorPhone:       r.DonorPhone,
		DonorDocument:    r.DonorDocument,
		DonorCity:        r.DonorCity,
		DonorState:       r.DonorState,
		Anonymous:        r.Anonymous,
		Public:           public,
		Message:          r.Message,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateDonation handles POST /api/donations
func (h *Handler) CreateDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	result, err := h.service.CreateSingleDonation(c.Request.Context(), req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"donation":    donationView(result.Donation),
		"payment_url": result.PaymentURL,
		"external_id": result.ExternalID,
	})
}

// CreateRecurringDonation handles POST /api/donations/recurring
func (h *Handler) CreateRecurringDonation(c *gin.Context) {
	var req DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	result, err := h.service.CreateRecurringDonation(c.Request.Context(), req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":          true,
		"donation":         donationView(result.Donation),
		"subscription_url": result.SubscriptionURL,
		"external_id":      result.ExternalID,
	})
}

// WebhookRequest represents the JSON body sent by Mercado Pago.
type WebhookRequest struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
	LiveMode    bool   `json:"live_mode"`
	DateCreated string `json:"date_created"`
}

// HandleWebhook handles POST /api/donations/webhook
// Always responds 200 once the request is authenticated, so the provider
// does not retry; processing failures are logged only.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The provider sends a few payload variants; log and accept.
		log.Printf("webhook parse error: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	if h.webhookSecret != "" {
		xSignature := c.GetHeader("x-signature")
		xRequestID := c.GetHeader("x-request-id")
		if !h.validator.ValidateSignature(xSignature, xRequestID, req.Data.ID, h.webhookSecret) {
			log.Printf("webhook signature validation failed for %s %s", req.Type, req.Data.ID)
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "invalid webhook signature",
				Code:    "INVALID_SIGNATURE",
			})
			return
		}
	}

	notification := domain.WebhookNotification{
		ID:          req.ID,
		Type:        req.Type,
		Action:      req.Action,
		DataID:      req.Data.ID,
		LiveMode:    req.LiveMode,
		DateCreated: req.DateCreated,
	}

	if err := h.service.ProcessPaymentWebhook(c.Request.Context(), notification); err != nil {
		log.Printf("webhook processing error for %s %s: %v", req.Type, req.Data.ID, err)
		// Still 200 so the provider does not retry.
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// GetDonation handles GET /api/donations/:id
func (h *Handler) GetDonation(c *gin.Context) {
	d, err := h.service.GetDonation(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "donation": donationView(d)})
}

// ListDonations handles GET /api/donations
// Without the all=true query parameter only publicly visible donations are
// returned, and anonymous donors stay anonymous.
func (h *Handler) ListDonations(c *gin.Context) {
	publicOnly := c.Query("all") != "true"

	donations, err := h.service.ListDonations(c.Request.Context(), publicOnly)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	views := make([]gin.H, len(donations))
	for i := range donations {
		views[i] = donationView(&donations[i])
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "donations": views})
}

// CancelSubscription handles POST /api/donations/subscription/:id/cancel
func (h *Handler) CancelSubscription(c *gin.Context) {
	if err := h.service.CancelSubscription(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "cancelled"})
}

// DeleteDonation handles DELETE /api/donations/:id (administrative).
func (h *Handler) DeleteDonation(c *gin.Context) {
	if err := h.service.DeleteDonation(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "deleted"})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "colab-ongs-backend",
	})
}

// donationView shapes a donation for API responses. Anonymous donations keep
// their donor identity out of the payload.
func donationView(d *domain.Donation) gin.H {
	view := gin.H{
		"id":                d.ID,
		"organization_id":   d.OrganizationID,
		"organization_name": d.OrganizationName,
		"amount":            d.Amount,
		"currency":          d.Currency,
		"kind":              d.Kind,
		"status":            d.Status,
		"anonymous":         d.Anonymous,
		"public":            d.Public,
		"message":           d.Message,
		"created_at":        d.CreatedAt,
		"updated_at":        d.UpdatedAt,
	}
	if d.Kind == domain.DonationRecurring {
		view["frequency"] = d.Frequency
		view["subscription_id"] = d.SubscriptionID
		if d.NextChargeDate != nil {
			view["next_charge_date"] = d.NextChargeDate
		}
	} else {
		view["external_payment_id"] = d.ExternalPaymentID
	}
	if !d.Anonymous {
		view["donor_name"] = d.DonorName
	}
	return view
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidDonation):
		statusCode = http.StatusBadRequest
		code = "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrDonationNotFound):
		statusCode = http.StatusNotFound
		code = "NOT_FOUND"
	case errors.Is(err, domain.ErrPaymentGatewayError):
		statusCode = http.StatusBadGateway
		code = "GATEWAY_ERROR"
	}

	var donationErr *domain.DonationError
	if errors.As(err, &donationErr) {
		message = donationErr.Message
		if donationErr.Code != "" {
			code = donationErr.Code
		}
	} else if statusCode != http.StatusInternalServerError {
		message = err.Error()
	} else {
		log.Printf("unhandled service error: %v", err)
	}

	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}
