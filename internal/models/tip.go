package models

import "time"

// UntitledTip replaces a blank tip title.
const UntitledTip = "Untitled"

// Tip is a shared link with its metadata.
type Tip struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Title        string       `json:"title" gorm:"size:255;not null"`
	URL          string       `json:"url" gorm:"size:2048;not null"`
	Summary      string       `json:"summary" gorm:"type:text"`
	ThumbnailURL string       `json:"thumbnail_url"`
	IsPublic     bool         `json:"is_public" gorm:"index"`
	UserID       uint         `json:"user_id" gorm:"index;not null"`
	User         User         `json:"-"`
	TipTags      []TipTag     `json:"-"`
	StorageTips  []StorageTip `json:"-"`
	CreatedAt    time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TagNames returns the names of the loaded tag links in link order.
func (t *Tip) TagNames() []string {
	names := make([]string, 0, len(t.TipTags))
	for _, tt := range t.TipTags {
		names = append(names, tt.Tag.Name)
	}
	return names
}

// Tag names are unique and case-sensitive.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type TipTag struct {
	ID    uint `json:"id" gorm:"primaryKey"`
	TipID uint `json:"tip_id" gorm:"index;uniqueIndex:idx_tip_tag"`
	TagID uint `json:"tag_id" gorm:"index;uniqueIndex:idx_tip_tag"`
	Tag   Tag  `json:"tag"`
}

// TipDetail is the API view of a tip.
type TipDetail struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	URL          string    `json:"url"`
	UserID       uint      `json:"user_id"`
	Nickname     string    `json:"nickname"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsPublic     bool      `json:"is_public"`
	Tags         []string  `json:"tags"`
	StorageID    uint      `json:"storage_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToDetail expects User and TipTags.Tag to be loaded.
func (t *Tip) ToDetail() TipDetail {
	return TipDetail{
		ID:           t.ID,
		Title:        t.Title,
		Summary:      t.Summary,
		URL:          t.URL,
		UserID:       t.UserID,
		Nickname:     t.User.Nickname,
		ThumbnailURL: t.ThumbnailURL,
		IsPublic:     t.IsPublic,
		Tags:         t.TagNames(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// GenerateTipRequest defines the request body for an enrichment preview
type GenerateTipRequest struct {
	URL   string   `json:"url" validate:"required,url"`
	Title string   `json:"title" validate:"omitempty,max=255"`
	Tags  []string `json:"tags" validate:"omitempty,dive,max=100"`
}

// GenerateTipResponse is the merged enrichment draft
type GenerateTipResponse struct {
	URL               string   `json:"url"`
	Title             string   `json:"title"`
	Tags              []string `json:"tags"`
	Summary           string   `json:"summary"`
	ThumbnailImageURL string   `json:"thumbnail_image_url"`
}

// RegisterTipRequest defines the request body for registering a tip
type RegisterTipRequest struct {
	URL               string   `json:"url" validate:"required,url"`
	Title             string   `json:"title" validate:"omitempty,max=255"`
	Summary           string   `json:"summary"`
	ThumbnailImageURL string   `json:"thumbnail_image_url" validate:"omitempty,url"`
	Tags              []string `json:"tags" validate:"omitempty,dive,max=100"`
	StorageID         uint     `json:"storage_id" validate:"required"`
	IsPublic          *bool    `json:"is_public" validate:"required"`
}

// UpdateTipRequest defines the request body for updating a tip; nil fields are left unchanged
type UpdateTipRequest struct {
	Title    *string   `json:"title,omitempty" validate:"omitempty,max=255"`
	Summary  *string   `json:"summary,omitempty"`
	IsPublic *bool     `json:"is_public,omitempty"`
	Tags     *[]string `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
}
