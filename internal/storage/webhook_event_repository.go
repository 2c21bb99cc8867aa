package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// WebhookEventRepository implements domain.WebhookEventRepository with GORM.
type WebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a webhook event repository.
func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	err := r.db.WithContext(ctx).Create(&WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}).Error
	// A concurrent delivery may have recorded the event first; that is fine.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
