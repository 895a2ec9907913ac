package models

import "time"

// Storage is a named collection of tips. GroupID nil means a personal storage.
type Storage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// IsGroupOwned reports whether group membership governs access.
func (s *Storage) IsGroupOwned() bool {
	return s.GroupID != nil
}

type StorageTip struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StorageID uint      `json:"storage_id" gorm:"index;uniqueIndex:idx_storage_tip"`
	TipID     uint      `json:"tip_id" gorm:"index;uniqueIndex:idx_storage_tip"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GroupID   uint      `json:"group_id" gorm:"index;uniqueIndex:idx_group_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_group_user"`
	CreatedAt time.Time `json:"created_at"`
}
