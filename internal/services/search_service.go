package services

import (
	"context"
	"fmt"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/anonto42/tipbox/backend/internal/search"
)

// SearchRequest is one tip search. ActorID 0 means anonymous.
type SearchRequest struct {
	Scope   search.Scope
	ScopeID uint
	ActorID uint
	Keyword string
	Mode    string
	Page    int
	Size    int
}

// SearchService authorizes a scope and runs the tip query.
type SearchService struct {
	store *repositories.Store
	guard *Guard
}

func NewSearchService(store *repositories.Store) *SearchService {
	return &SearchService{store: store, guard: NewGuard(store)}
}

// Search returns the matching tips newest first.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]models.TipDetail, error) {
	if req.Scope != search.ScopePublic && req.ActorID == 0 {
		return nil, apperrors.AccessDenied("%s search requires an authenticated user", req.Scope)
	}

	switch req.Scope {
	case search.ScopePublic, search.ScopeMine:
	case search.ScopeGroup:
		if err := s.guard.AuthorizeGroup(ctx, req.ActorID, req.ScopeID); err != nil {
			return nil, err
		}
	case search.ScopeStorage:
		if _, err := s.guard.AuthorizeStorage(ctx, req.ActorID, req.ScopeID, AccessRead); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.Validation("unknown search scope %q", req.Scope)
	}

	tips, err := s.store.Tips.Search(ctx, repositories.TipQuery{
		Scope:   req.Scope,
		ScopeID: req.ScopeID,
		ActorID: req.ActorID,
		Keyword: search.NewKeyword(req.Keyword, req.Mode),
		Page:    search.Page{Index: req.Page, Size: req.Size},
	})
	if err != nil {
		return nil, fmt.Errorf("search tips: %w", err)
	}

	details := make([]models.TipDetail, len(tips))
	for i := range tips {
		details[i] = tips[i].ToDetail()
	}
	return details, nil
}
