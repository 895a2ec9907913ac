package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/tipbox/backend/internal/repositories"
)

// NormalizeTags returns the distinct non-blank names in first-seen order.
// Names are trimmed; comparison is case-sensitive.
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// TagNormalizer links tips to canonical tags, creating tags on first use.
type TagNormalizer struct {
	tags repositories.TagRepository
	tips repositories.TipRepository
}

func NewTagNormalizer(store *repositories.Store) *TagNormalizer {
	return &TagNormalizer{tags: store.Tags, tips: store.Tips}
}

// Attach links tipID to every normalized name and returns the names linked.
func (n *TagNormalizer) Attach(ctx context.Context, tipID uint, names []string) ([]string, error) {
	normalized := NormalizeTags(names)
	for _, name := range normalized {
		tag, err := n.tags.Upsert(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if err := n.tips.AddTag(ctx, tipID, tag.ID); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return normalized, nil
}

// Replace drops every tag link of tipID and attaches names instead.
func (n *TagNormalizer) Replace(ctx context.Context, tipID uint, names []string) ([]string, error) {
	if err := n.tips.ClearTags(ctx, tipID); err != nil {
		return nil, fmt.Errorf("clear tags: %w", err)
	}
	return n.Attach(ctx, tipID, names)
}
