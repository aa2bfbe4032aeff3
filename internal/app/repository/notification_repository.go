package repository

import (
	"context"

	"github.com/promoit/shortlink/internal/app/model"
	"gorm.io/gorm"
)

// NotificationRepository defines the data access contract for unavailability notices.
type NotificationRepository interface {
	Create(ctx context.Context, notice *model.Notification) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a GORM-backed NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notice *model.Notification) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *notificationRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var result []model.Notification
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
