package repositories

import (
	"context"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository defines group and membership lookups
type GroupRepository interface {
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID uint) (bool, error)
	CoMemberIDsForTip(ctx context.Context, tipID, excludeUserID uint) ([]uint, error)
}

type postgresGroupRepository struct {
	db *gorm.DB
}

func NewPostgresGroupRepository(db *gorm.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *postgresGroupRepository) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// CoMemberIDsForTip returns the distinct members of every group that owns a
// storage holding tipID, excluding excludeUserID. Computed from current rows
// on every call.
func (r *postgresGroupRepository) CoMemberIDsForTip(ctx context.Context, tipID, excludeUserID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Distinct("group_members.user_id").
		Joins("JOIN storages ON storages.group_id = group_members.group_id").
		Joins("JOIN storage_tips ON storage_tips.storage_id = storages.id").
		Where("storage_tips.tip_id = ? AND group_members.user_id <> ?", tipID, excludeUserID).
		Order("group_members.user_id").
		Pluck("group_members.user_id", &ids).Error
	return ids, err
}
