package repositories

import (
	"context"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the follow lookups used for notification fan-out
type FollowRepository interface {
	GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// GetFollowerIDs returns the ids of users following userID, ascending
func (r *PostgresFollowRepository) GetFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Order("follower_id").
		Pluck("follower_id", &ids).Error
	return ids, err
}
