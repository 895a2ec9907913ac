package repositories

import (
	"context"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageRepository defines storage lookups and storage/tip linking
type StorageRepository interface {
	GetStorageByID(ctx context.Context, id uint) (*models.Storage, error)
	HasTip(ctx context.Context, storageID, tipID uint) (bool, error)
	LinkTip(ctx context.Context, storageID, tipID uint) (bool, error)
}

type postgresStorageRepository struct {
	db *gorm.DB
}

func NewPostgresStorageRepository(db *gorm.DB) StorageRepository {
	return &postgresStorageRepository{db: db}
}

func (r *postgresStorageRepository) GetStorageByID(ctx context.Context, id uint) (*models.Storage, error) {
	var storage models.Storage
	if err := r.db.WithContext(ctx).First(&storage, id).Error; err != nil {
		return nil, err
	}
	return &storage, nil
}

func (r *postgresStorageRepository) HasTip(ctx context.Context, storageID, tipID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StorageTip{}).
		Where("storage_id = ? AND tip_id = ?", storageID, tipID).
		Count(&count).Error
	return count > 0, err
}

// LinkTip adds tipID to storageID unless the link already exists. It reports
// whether a new row was written.
func (r *postgresStorageRepository) LinkTip(ctx context.Context, storageID, tipID uint) (bool, error) {
	exists, err := r.HasTip(ctx, storageID, tipID)
	if err != nil || exists {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.StorageTip{StorageID: storageID, TipID: tipID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
