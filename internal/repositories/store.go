package repositories

import (
	"context"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
)

// Store groups the repositories that share one *gorm.DB, so a transaction
// can hand every repository the same tx handle.
type Store struct {
	db            *gorm.DB
	Users         UserRepository
	Follows       FollowRepository
	Groups        GroupRepository
	Storages      StorageRepository
	Tags          TagRepository
	Tips          TipRepository
	Notifications NotificationRepository
}

// NewStore wires every repository onto db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewPostgresUserRepository(db),
		Follows:       NewPostgresFollowRepository(db),
		Groups:        NewPostgresGroupRepository(db),
		Storages:      NewPostgresStorageRepository(db),
		Tags:          NewPostgresTagRepository(db),
		Tips:          NewPostgresTipRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// AutoMigrate creates or updates the tables this service owns or reads.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Group{},
		&models.GroupMember{},
		&models.Storage{},
		&models.Tag{},
		&models.Tip{},
		&models.TipTag{},
		&models.StorageTip{},
		&models.Notification{},
	)
}
