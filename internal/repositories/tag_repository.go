package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/tipbox/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines tag lookup and lazy creation
type TagRepository interface {
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	Upsert(ctx context.Context, name string) (*models.Tag, error)
}

type postgresTagRepository struct {
	db *gorm.DB
}

func NewPostgresTagRepository(db *gorm.DB) TagRepository {
	return &postgresTagRepository{db: db}
}

func (r *postgresTagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Upsert returns the tag called name, creating it when absent. Creation is
// INSERT ... ON CONFLICT DO NOTHING followed by a read, so a concurrent
// insert of the same name resolves to the winner's row instead of failing.
func (r *postgresTagRepository) Upsert(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := r.GetByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&models.Tag{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByName(ctx, name)
}
