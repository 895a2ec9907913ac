package models

import "time"

// NotificationType tells which audience a notification was created for.
type NotificationType string

const (
	NotificationFollowingTip NotificationType = "FOLLOWING_TIP_UPLOAD"
	NotificationGroupTip     NotificationType = "GROUP_TIP_UPLOAD"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:30;index;uniqueIndex:idx_notification_receiver_tip_type"`
	ActorID     uint             `json:"actor_id" gorm:"index"`
	RecipientID uint             `json:"recipient_id" gorm:"index;uniqueIndex:idx_notification_receiver_tip_type"`
	TipID       uint             `json:"tip_id" gorm:"index;uniqueIndex:idx_notification_receiver_tip_type"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}
