package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/realtime"
	"github.com/anonto42/tipbox/backend/internal/repositories"
)

// Notifier persists notifications for the two audiences of a public tip
// and builds the realtime events that go with them.
type Notifier struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger, now: time.Now}
}

type audience struct {
	typ        models.NotificationType
	phrase     string
	recipients []uint
}

// FanOut writes one notification per recipient per audience through tx and
// returns the events to publish once tx commits. Private tips yield nothing.
// Audiences are resolved from current rows, so tip must already be linked
// to its storages.
func (n *Notifier) FanOut(ctx context.Context, tx *repositories.Store, tip *models.Tip, author *models.User) ([]realtime.Event, error) {
	if !tip.IsPublic {
		return nil, nil
	}

	followers, err := tx.Follows.GetFollowerIDs(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("load followers: %w", err)
	}
	coMembers, err := tx.Groups.CoMemberIDsForTip(ctx, tip.ID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}

	audiences := []audience{
		{typ: models.NotificationFollowingTip, phrase: "posted a new tip", recipients: without(followers, author.ID)},
		{typ: models.NotificationGroupTip, phrase: "posted a tip to a group storage", recipients: coMembers},
	}

	var events []realtime.Event
	for _, a := range audiences {
		if len(a.recipients) == 0 {
			continue
		}

		message := fmt.Sprintf("%s %s: %s", author.DisplayName(), a.phrase, tip.Title)
		rows := make([]models.Notification, 0, len(a.recipients))
		for _, id := range a.recipients {
			rows = append(rows, models.Notification{
				Type:        a.typ,
				ActorID:     author.ID,
				RecipientID: id,
				TipID:       tip.ID,
				Message:     message,
			})
		}
		if err := tx.Notifications.CreateBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("save %s notifications: %w", a.typ, err)
		}

		emittedAt := n.now()
		for _, id := range a.recipients {
			events = append(events, realtime.NewNotificationEvent(id, tip.ID, message, emittedAt))
		}

		n.logger.Debug("notifications created",
			slog.Uint64("tip_id", uint64(tip.ID)),
			slog.String("type", string(a.typ)),
			slog.Int("recipients", len(a.recipients)))
	}
	return events, nil
}

// without returns ids minus exclude, dropping repeats.
func without(ids []uint, exclude uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
