package storage

import (
	"context"
	"errors"
	"time"

	"github.com/caiorafaeldop/colab-ongs-backend/internal/domain"
	"gorm.io/gorm"
)

// DonationRepository implements domain.DonationRepository with GORM.
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a donation repository on the given database.
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	err := r.db.WithContext(ctx).Create(donationToModel(donation)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateDonation
	}
	return err
}

func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	donation.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ?", donation.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(donationToModel(donation))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, providerStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          string(status),
			"provider_status": providerStatus,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

func (r *DonationRepository) FindByID(ctx context.Context, id string) (*domain.Donation, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *DonationRepository) FindByExternalPaymentID(ctx context.Context, externalID string) (*domain.Donation, error) {
	return r.findOne(ctx, "external_payment_id = ?", externalID)
}

func (r *DonationRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.Donation, error) {
	return r.findOne(ctx, "subscription_id = ?", subscriptionID)
}

func (r *DonationRepository) ExistsByExternalPaymentID(ctx context.Context, externalID string) (bool, error) {
	return r.exists(ctx, "external_payment_id = ?", externalID)
}

func (r *DonationRepository) ExistsBySubscriptionID(ctx context.Context, subscriptionID string) (bool, error) {
	return r.exists(ctx, "subscription_id = ?", subscriptionID)
}

func (r *DonationRepository) List(ctx context.Context, publicOnly bool) ([]domain.Donation, error) {
	query := r.db.WithContext(ctx).Model(&Donation{}).Order("created_at DESC")
	if publicOnly {
		query = query.Where("public = ?", true)
	}

	var models []Donation
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	donations := make([]domain.Donation, len(models))
	for i := range models {
		donations[i] = *donationToDomain(&models[i])
	}
	return donations, nil
}

func (r *DonationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Donation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

func (r *DonationRepository) findOne(ctx context.Context, condition string, value string) (*domain.Donation, error) {
	var model Donation
	err := r.db.WithContext(ctx).Where(condition, value).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDonationNotFound
	}
	if err != nil {
		return nil, err
	}
	return donationToDomain(&model), nil
}

func (r *DonationRepository) exists(ctx context.Context, condition string, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where(condition, value).
		Count(&count).Error
	return count > 0, err
}
