package repositories

import (
	"context"
	"time"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
)

// TipRepository defines the interface for tip data operations
type TipRepository interface {
	CreateTip(ctx context.Context, tip *models.Tip) error
	GetTipByID(ctx context.Context, id uint) (*models.Tip, error)
	UpdateTip(ctx context.Context, tip *models.Tip) error
	DeleteTip(ctx context.Context, id uint) error
	AddTag(ctx context.Context, tipID, tagID uint) error
	ClearTags(ctx context.Context, tipID uint) error
	Search(ctx context.Context, q TipQuery) ([]models.Tip, error)
}

type postgresTipRepository struct {
	db *gorm.DB
}

func NewPostgresTipRepository(db *gorm.DB) TipRepository {
	return &postgresTipRepository{db: db}
}

func (r *postgresTipRepository) CreateTip(ctx context.Context, tip *models.Tip) error {
	return r.db.WithContext(ctx).Omit("User", "TipTags", "StorageTips").Create(tip).Error
}

// GetTipByID loads the tip with its author and tags
func (r *postgresTipRepository) GetTipByID(ctx context.Context, id uint) (*models.Tip, error) {
	var tip models.Tip
	err := withDetails(r.db.WithContext(ctx)).First(&tip, id).Error
	if err != nil {
		return nil, err
	}
	return &tip, nil
}

// UpdateTip writes the mutable columns of tip
func (r *postgresTipRepository) UpdateTip(ctx context.Context, tip *models.Tip) error {
	tip.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&models.Tip{ID: tip.ID}).Updates(map[string]any{
		"title":      tip.Title,
		"summary":    tip.Summary,
		"is_public":  tip.IsPublic,
		"updated_at": tip.UpdatedAt,
	}).Error
}

// DeleteTip removes the tip and every row that references it
func (r *postgresTipRepository) DeleteTip(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	for _, model := range []any{&models.TipTag{}, &models.StorageTip{}, &models.Notification{}} {
		if err := db.Where("tip_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	res := db.Delete(&models.Tip{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresTipRepository) AddTag(ctx context.Context, tipID, tagID uint) error {
	return r.db.WithContext(ctx).Omit("Tag").Create(&models.TipTag{TipID: tipID, TagID: tagID}).Error
}

func (r *postgresTipRepository) ClearTags(ctx context.Context, tipID uint) error {
	return r.db.WithContext(ctx).Where("tip_id = ?", tipID).Delete(&models.TipTag{}).Error
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("TipTags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tip_tags.id")
	}).Preload("TipTags.Tag")
}
