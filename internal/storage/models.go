// Package storage implements the persistence ports with GORM over sqlite.
package storage

import (
	"time"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
)

// Donation is the persisted form of domain.Donation.
//
// ExternalPaymentID and SubscriptionID are nullable with unique indexes:
// the index closes the check-then-insert race between concurrent webhook
// deliveries or duplicate client submissions, and NULL keeps rows of the
// other kind out of the constraint.
type Donation struct {
	ID               string `gorm:"primaryKey;size:36"`
	OrganizationID   string `gorm:"size:64;index"`
	OrganizationName string `gorm:"size:255"`
	Amount           float64
	Currency         string `gorm:"size:8"`
	Kind             string `gorm:"size:16;not null"`
	Frequency        string `gorm:"size:16"`

	DonorName     string `gorm:"size:255"`
	DonorEmail    string `gorm:"size:255"`
	DonorPhone    string `gorm:"size:32"`
	DonorDocument string `gorm:"size:32"`
	DonorCity     string `gorm:"size:128"`
	DonorState    string `gorm:"size:64"`

	Anonymous bool
	Public    bool

	ExternalPaymentID *string `gorm:"size:64;uniqueIndex"`
	SubscriptionID    *string `gorm:"size:64;uniqueIndex"`
	PlanID            string  `gorm:"size:64"`

	Status         string `gorm:"size:16;index;not null"`
	ProviderStatus string `gorm:"size:64"`
	NextChargeDate *time.Time

	Message   string `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookEvent records a processed provider webhook delivery so duplicate
// deliveries of the same event can be skipped.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

func donationToModel(d *domain.Donation) *Donation {
	m := &Donation{
		ID:               d.ID,
		OrganizationID:   d.OrganizationID,
		OrganizationName: d.OrganizationName,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Kind:             string(d.Kind),
		Frequency:        string(d.Frequency),
		DonorName:        d.DonorName,
		DonorEmail:       d.DonorEmail,
		DonorPhone:       d.DonorPhone,
		DonorDocument:    d.DonorDocument,
		DonorCity:        d.DonorCity,
		DonorState:       d.DonorState,
		Anonymous:        d.Anonymous,
		Public:           d.Public,
		PlanID:           d.PlanID,
		Status:           string(d.Status),
		ProviderStatus:   d.ProviderStatus,
		NextChargeDate:   d.NextChargeDate,
		Message:          d.Message,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.ExternalPaymentID != "" {
		id := d.ExternalPaymentID
		m.ExternalPaymentID = &id
	}
	if d.SubscriptionID != "" {
		id := d.SubscriptionID
		m.SubscriptionID = &id
	}
	return m
}

func donationToDomain(m *Donation) *domain.Donation {
	d := &domain.Donation{
		ID:               m.ID,
		OrganizationID:   m.OrganizationID,
		OrganizationName: m.OrganizationName,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Kind:             domain.DonationKind(m.Kind),
		Frequency:        domain.Frequency(m.Frequency),
		DonorName:        m.DonorName,
		DonorEmail:       m.DonorEmail,
		DonorPhone:       m.DonorPhone,
		DonorDocument:    m.DonorDocument,
		DonorCity:        m.DonorCity,
		DonorState:       m.DonorState,
		Anonymous:        m.Anonymous,
		Public:           m.Public,
		PlanID:           m.PlanID,
		Status:           domain.PaymentStatus(m.Status),
		ProviderStatus:   m.ProviderStatus,
		NextChargeDate:   m.NextChargeDate,
		Message:          m.Message,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.ExternalPaymentID != nil {
		d.ExternalPaymentID = *m.ExternalPaymentID
	}
	if m.SubscriptionID != nil {
		d.SubscriptionID = *m.SubscriptionID
	}
	return d
}
