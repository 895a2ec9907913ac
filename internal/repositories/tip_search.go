package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/search"
	"gorm.io/gorm"
)

// keywordColumns are matched by every keyword token
var keywordColumns = []string{"tips.title", "tips.summary", "tips.url"}

// TipQuery describes one search over tips. Authorization is the caller's job.
type TipQuery struct {
	Scope   search.Scope
	ScopeID uint // group or storage id
	ActorID uint // owner for ScopeMine
	Keyword search.Keyword
	Page    search.Page
}

// Search returns matching tips newest first
func (r *postgresTipRepository) Search(ctx context.Context, q TipQuery) ([]models.Tip, error) {
	db := r.db.WithContext(ctx).Model(&models.Tip{})

	db, err := r.scoped(db, q)
	if err != nil {
		return nil, err
	}
	if expr := q.Keyword.Expression(keywordColumns...); expr != nil {
		db = db.Where(expr)
	}
	db = q.Page.Apply(db.Order("tips.created_at DESC").Order("tips.id DESC"))

	var tips []models.Tip
	if err := withDetails(db).Find(&tips).Error; err != nil {
		return nil, err
	}
	return tips, nil
}

func (r *postgresTipRepository) scoped(db *gorm.DB, q TipQuery) (*gorm.DB, error) {
	linked := r.db.Model(&models.StorageTip{}).Select("storage_tips.tip_id")

	switch q.Scope {
	case search.ScopePublic:
		return db.Where("tips.is_public = ?", true), nil
	case search.ScopeMine:
		sub := linked.Joins("JOIN storages ON storages.id = storage_tips.storage_id").
			Where("storages.user_id = ?", q.ActorID)
		return db.Where("tips.id IN (?)", sub), nil
	case search.ScopeGroup:
		sub := linked.Joins("JOIN storages ON storages.id = storage_tips.storage_id").
			Where("storages.group_id = ?", q.ScopeID)
		return db.Where("tips.id IN (?)", sub), nil
	case search.ScopeStorage:
		return db.Where("tips.id IN (?)", linked.Where("storage_tips.storage_id = ?", q.ScopeID)), nil
	default:
		return nil, fmt.Errorf("unknown search scope %q", q.Scope)
	}
}
