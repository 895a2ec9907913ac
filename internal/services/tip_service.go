package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
	"github.com/anonto42/tipbox/backend/internal/enrichment"
	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/realtime"
	"github.com/anonto42/tipbox/backend/internal/repositories"
)

// Enricher produces a draft tip from a URL. It may block for a long time.
type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (*enrichment.Draft, error)
}

// TipService previews, registers, updates and deletes tips.
type TipService struct {
	store     *repositories.Store
	enricher  Enricher
	notifier  *Notifier
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewTipService(store *repositories.Store, enricher Enricher, notifier *Notifier, publisher realtime.Publisher, logger *slog.Logger) *TipService {
	return &TipService{
		store:     store,
		enricher:  enricher,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// Preview runs enrichment for req. Nothing is persisted.
func (s *TipService) Preview(ctx context.Context, req models.GenerateTipRequest) (*models.GenerateTipResponse, error) {
	draft, err := s.enricher.Enrich(ctx, enrichment.Request{URL: req.URL, Title: req.Title, Tags: req.Tags})
	if err != nil {
		return nil, err
	}
	return &models.GenerateTipResponse{
		URL:               draft.URL,
		Title:             draft.Title,
		Tags:              draft.Tags,
		Summary:           draft.Summary,
		ThumbnailImageURL: draft.ThumbnailURL,
	}, nil
}

// Register stores a tip with its tags and storage link in one transaction.
// For a public tip the notifications are written in the same transaction;
// realtime events go out only after commit.
func (s *TipService) Register(ctx context.Context, actorID uint, req models.RegisterTipRequest) (*models.TipDetail, error) {
	var (
		detail models.TipDetail
		events []realtime.Event
	)

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		author, err := tx.Users.GetUserByID(ctx, actorID)
		if err != nil {
			return lookupErr(err, "user", actorID)
		}

		tip := &models.Tip{
			Title:        titleOrPlaceholder(req.Title),
			URL:          req.URL,
			Summary:      req.Summary,
			ThumbnailURL: req.ThumbnailImageURL,
			IsPublic:     req.IsPublic != nil && *req.IsPublic,
			UserID:       author.ID,
		}
		if err := tx.Tips.CreateTip(ctx, tip); err != nil {
			return fmt.Errorf("create tip: %w", err)
		}

		if _, err := NewTagNormalizer(tx).Attach(ctx, tip.ID, req.Tags); err != nil {
			return err
		}

		storage, err := NewGuard(tx).AuthorizeStorage(ctx, author.ID, req.StorageID, AccessWrite)
		if err != nil {
			return err
		}
		if _, err := tx.Storages.LinkTip(ctx, storage.ID, tip.ID); err != nil {
			return fmt.Errorf("link tip to storage: %w", err)
		}

		if tip.IsPublic {
			events, err = s.notifier.FanOut(ctx, tx, tip, author)
			if err != nil {
				return err
			}
		}

		saved, err := tx.Tips.GetTipByID(ctx, tip.ID)
		if err != nil {
			return fmt.Errorf("reload tip: %w", err)
		}
		detail = saved.ToDetail()
		detail.StorageID = storage.ID

		if tip.IsPublic {
			events = append(events, feedEvent(realtime.EventTipNew, saved, author))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events...)
	s.logger.Info("tip registered",
		slog.Uint64("tip_id", uint64(detail.ID)),
		slog.Uint64("user_id", uint64(actorID)),
		slog.Uint64("storage_id", uint64(detail.StorageID)),
		slog.Bool("public", detail.IsPublic),
		slog.Int("events", len(events)))
	return &detail, nil
}

// Update changes the fields set in req on a tip owned by actorID. Tags,
// when given, replace the tip's tag links wholesale.
func (s *TipService) Update(ctx context.Context, actorID, tipID uint, req models.UpdateTipRequest) (*models.TipDetail, error) {
	var (
		detail models.TipDetail
		event  *realtime.Event
	)

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		tip, err := s.ownedTip(ctx, tx, actorID, tipID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			tip.Title = titleOrPlaceholder(*req.Title)
		}
		if req.Summary != nil {
			tip.Summary = *req.Summary
		}
		if req.IsPublic != nil {
			tip.IsPublic = *req.IsPublic
		}
		if err := tx.Tips.UpdateTip(ctx, tip); err != nil {
			return fmt.Errorf("update tip: %w", err)
		}

		if req.Tags != nil {
			if _, err := NewTagNormalizer(tx).Replace(ctx, tip.ID, *req.Tags); err != nil {
				return err
			}
		}

		saved, err := tx.Tips.GetTipByID(ctx, tip.ID)
		if err != nil {
			return fmt.Errorf("reload tip: %w", err)
		}
		detail = saved.ToDetail()

		if saved.IsPublic {
			e := feedEvent(realtime.EventTipUpdate, saved, &saved.User)
			event = &e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		s.publisher.Publish(*event)
	}
	return &detail, nil
}

// Delete removes a tip owned by actorID along with its links and notifications.
func (s *TipService) Delete(ctx context.Context, actorID, tipID uint) error {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := s.ownedTip(ctx, tx, actorID, tipID); err != nil {
			return err
		}
		if err := tx.Tips.DeleteTip(ctx, tipID); err != nil {
			return lookupErr(err, "tip", tipID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("tip deleted", slog.Uint64("tip_id", uint64(tipID)), slog.Uint64("user_id", uint64(actorID)))
	return nil
}

func (s *TipService) ownedTip(ctx context.Context, tx *repositories.Store, actorID, tipID uint) (*models.Tip, error) {
	tip, err := tx.Tips.GetTipByID(ctx, tipID)
	if err != nil {
		return nil, lookupErr(err, "tip", tipID)
	}
	if tip.UserID != actorID {
		return nil, apperrors.AccessDenied("user %d does not own tip %d", actorID, tipID)
	}
	return tip, nil
}

func titleOrPlaceholder(title string) string {
	if strings.TrimSpace(title) == "" {
		return models.UntitledTip
	}
	return title
}

func feedEvent(typ realtime.EventType, tip *models.Tip, author *models.User) realtime.Event {
	return realtime.NewFeedEvent(typ, tip.ID, author.DisplayName(), tip.TagNames(), tip.CreatedAt)
}
