package repositories

import (
	"context"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
)

// notificationBatchSize bounds a single multi-row INSERT.
const notificationBatchSize = 500

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	GetByRecipientID(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID uint) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&notifications, notificationBatchSize).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&count).Error
	return count, err
}

// MarkAsRead only touches notifications owned by recipientID.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).Update("is_read", true).Error
}
