package repository

import (
	"context"
	"time"

	"anoa.com/moodquest/internal/entity"
	"anoa.com/moodquest/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []entity.Notification) error
	Pending(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]entity.Notification, error)
	Dismiss(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("User").Create(&notifications).Error
}

func (r *notificationRepository) Pending(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND dismissed_at IS NULL AND expires_at > ?", userID, now).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) Dismiss(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("dismissed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR dismissed_at IS NOT NULL", now).
		Delete(&entity.Notification{})
	return res.RowsAffected, res.Error
}
