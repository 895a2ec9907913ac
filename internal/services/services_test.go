package services_test

import (
	"context"
	"testing"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
	"github.com/anonto42/tipbox/backend/internal/enrichment"
	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/realtime"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/anonto42/tipbox/backend/internal/services"
	"github.com/anonto42/tipbox/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type capturePublisher struct {
	events []realtime.Event
}

func (p *capturePublisher) Publish(events ...realtime.Event) {
	p.events = append(p.events, events...)
}

func (p *capturePublisher) ofType(typ realtime.EventType) []realtime.Event {
	var out []realtime.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type stubEnricher struct {
	draft *enrichment.Draft
	err   error
	calls int
}

func (s *stubEnricher) Enrich(_ context.Context, req enrichment.Request) (*enrichment.Draft, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	d := *s.draft
	d.URL = req.URL
	return &d, nil
}

type env struct {
	db        *gorm.DB
	f         *testutil.Fixtures
	store     *repositories.Store
	publisher *capturePublisher
	enricher  *stubEnricher
	tips      *services.TipService
	search    *services.SearchService
}

func newEnv(t *testing.T) *env {
	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	e := &env{
		db:        db,
		f:         testutil.NewFixtures(t, db),
		store:     store,
		publisher: &capturePublisher{},
		enricher:  &stubEnricher{draft: &enrichment.Draft{Title: "Generated", Tags: []string{"ai"}}},
	}
	e.tips = services.NewTipService(store, e.enricher, services.NewNotifier(testutil.Logger()), e.publisher, testutil.Logger())
	e.search = services.NewSearchService(store)
	return e
}

func boolPtr(b bool) *bool { return &b }

func registerReq(storage *models.Storage, title string, public bool, tags ...string) models.RegisterTipRequest {
	return models.RegisterTipRequest{
		URL:       "https://example.com/" + title,
		Title:     title,
		Tags:      tags,
		StorageID: storage.ID,
		IsPublic:  boolPtr(public),
	}
}

func TestRegister_AliceAndBob(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "Alice")
	bob := e.f.User("bob", "")
	e.f.Follow(bob, alice)
	storage := e.f.PersonalStorage(alice, "mine")

	detail, err := e.tips.Register(ctx, alice.ID, models.RegisterTipRequest{
		URL:       "https://example.com/grep",
		Title:     "Use grep -r",
		Tags:      []string{"shell", "tips"},
		StorageID: storage.ID,
		IsPublic:  boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "Use grep -r", detail.Title)
	assert.Equal(t, []string{"shell", "tips"}, detail.Tags)
	assert.Equal(t, "Alice", detail.Nickname)
	assert.Equal(t, storage.ID, detail.StorageID)

	assert.Equal(t, int64(1), e.f.Count(&models.Tip{}, ""))
	assert.Equal(t, int64(2), e.f.Count(&models.Tag{}, "name IN ?", []string{"shell", "tips"}))
	assert.Equal(t, int64(2), e.f.Count(&models.TipTag{}, "tip_id = ?", detail.ID))
	assert.Equal(t, int64(1), e.f.Count(&models.StorageTip{}, "tip_id = ?", detail.ID))

	var notes []models.Notification
	require.NoError(t, e.db.Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, bob.ID, notes[0].RecipientID)
	assert.Equal(t, models.NotificationFollowingTip, notes[0].Type)
	assert.Equal(t, "Alice posted a new tip: Use grep -r", notes[0].Message)
	assert.False(t, notes[0].IsRead)

	private := e.publisher.ofType(realtime.EventNotification)
	require.Len(t, private, 1)
	assert.Equal(t, realtime.PrivateChannel(bob.ID), private[0].Channel)
	assert.Equal(t, detail.ID, private[0].TipID)
	assert.Equal(t, "Alice posted a new tip: Use grep -r", private[0].Message)
	assert.False(t, private[0].EmittedAt.IsZero())

	feed := e.publisher.ofType(realtime.EventTipNew)
	require.Len(t, feed, 1)
	assert.Equal(t, realtime.PublicChannel, feed[0].Channel)
	assert.Equal(t, "Alice", feed[0].Author)
	assert.Equal(t, []string{"shell", "tips"}, feed[0].Tags)

	t.Run("grep shell search", func(t *testing.T) {
		or, err := e.search.Search(ctx, services.SearchRequest{Scope: "public", Keyword: "grep shell", Mode: "OR", Page: 0, Size: 20})
		require.NoError(t, err)
		require.Len(t, or, 1)
		assert.Equal(t, detail.ID, or[0].ID)

		and, err := e.search.Search(ctx, services.SearchRequest{Scope: "public", Keyword: "grep shell", Mode: "AND", Page: 0, Size: 20})
		require.NoError(t, err)
		assert.Empty(t, and)
	})
}

func TestRegister_DeduplicatesTags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "")
	storage := e.f.PersonalStorage(alice, "mine")

	detail, err := e.tips.Register(ctx, alice.ID, registerReq(storage, "t", false, "go", " go", "", "Go", "go", "   "))
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "Go"}, detail.Tags)

	second, err := e.tips.Register(ctx, alice.ID, registerReq(storage, "u", false, "Go", "go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "go"}, second.Tags)

	assert.Equal(t, int64(2), e.f.Count(&models.Tag{}, ""))
	assert.Equal(t, int64(2), e.f.Count(&models.TipTag{}, "tip_id = ?", detail.ID))
	assert.Equal(t, int64(2), e.f.Count(&models.TipTag{}, "tip_id = ?", second.ID))
}

func TestRegister_BlankTitleUsesPlaceholder(t *testing.T) {
	e := newEnv(t)
	alice := e.f.User("alice", "")
	storage := e.f.PersonalStorage(alice, "mine")

	detail, err := e.tips.Register(context.Background(), alice.ID, registerReq(storage, "  ", false))
	require.NoError(t, err)
	assert.Equal(t, models.UntitledTip, detail.Title)
	assert.Empty(t, detail.Tags)
}

func TestRegister_BothAudiences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "Alice")
	bob := e.f.User("bob", "")     // follower and co-member
	carol := e.f.User("carol", "") // co-member
	dave := e.f.User("dave", "")   // follower
	e.f.Follow(bob, alice)
	e.f.Follow(dave, alice)
	group := e.f.Group("team", alice, bob, carol)
	storage := e.f.GroupStorage(carol, group, "shared")

	detail, err := e.tips.Register(ctx, alice.ID, registerReq(storage, "Deploy", true))
	require.NoError(t, err)

	count := func(u *models.User, typ models.NotificationType) int64 {
		return e.f.Count(&models.Notification{}, "recipient_id = ? AND type = ? AND tip_id = ?", u.ID, typ, detail.ID)
	}
	assert.Equal(t, int64(1), count(bob, models.NotificationFollowingTip))
	assert.Equal(t, int64(1), count(bob, models.NotificationGroupTip))
	assert.Equal(t, int64(1), count(carol, models.NotificationGroupTip))
	assert.Equal(t, int64(0), count(carol, models.NotificationFollowingTip))
	assert.Equal(t, int64(1), count(dave, models.NotificationFollowingTip))
	assert.Equal(t, int64(0), count(dave, models.NotificationGroupTip))
	assert.Equal(t, int64(0), e.f.Count(&models.Notification{}, "recipient_id = ?", alice.ID))

	var groupNote models.Notification
	require.NoError(t, e.db.Where("recipient_id = ? AND type = ?", carol.ID, models.NotificationGroupTip).First(&groupNote).Error)
	assert.Equal(t, "Alice posted a tip to a group storage: Deploy", groupNote.Message)

	assert.Len(t, e.publisher.ofType(realtime.EventNotification), 4)
}

func TestRegister_PrivateTipNotifiesNobody(t *testing.T) {
	e := newEnv(t)
	alice := e.f.User("alice", "")
	bob := e.f.User("bob", "")
	e.f.Follow(bob, alice)
	group := e.f.Group("team", alice, bob)
	storage := e.f.GroupStorage(alice, group, "shared")

	_, err := e.tips.Register(context.Background(), alice.ID, registerReq(storage, "secret", false))
	require.NoError(t, err)

	assert.Zero(t, e.f.Count(&models.Notification{}, ""))
	assert.Empty(t, e.publisher.events)
}

func TestRegister_FailuresRollBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "")
	bob := e.f.User("bob", "")
	e.f.Follow(bob, alice)
	bobs := e.f.PersonalStorage(bob, "bobs")
	outsiders := e.f.GroupStorage(bob, e.f.Group("others", bob), "others")

	tests := []struct {
		name    string
		actor   uint
		storage uint
		want    error
	}{
		{"unknown actor", 999, bobs.ID, apperrors.ErrNotFound},
		{"unknown storage", alice.ID, 999, apperrors.ErrNotFound},
		{"someone else's personal storage", alice.ID, bobs.ID, apperrors.ErrAccessDenied},
		{"group storage of a group the actor is not in", alice.ID, outsiders.ID, apperrors.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerReq(&models.Storage{ID: tt.storage}, "t", true, "shell")
			_, err := e.tips.Register(ctx, tt.actor, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, e.f.Count(&models.Tip{}, ""))
	assert.Zero(t, e.f.Count(&models.Tag{}, ""))
	assert.Zero(t, e.f.Count(&models.TipTag{}, ""))
	assert.Zero(t, e.f.Count(&models.Notification{}, ""))
	assert.Empty(t, e.publisher.events)
}

func TestPreview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.tips.Preview(ctx, models.GenerateTipRequest{URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, &models.GenerateTipResponse{URL: "https://example.com/a", Title: "Generated", Tags: []string{"ai"}}, resp)

	e.enricher.err = enrichment.ErrTimeout
	_, err = e.tips.Preview(ctx, models.GenerateTipRequest{URL: "https://example.com/b"})
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentTimeout)

	assert.Equal(t, 2, e.enricher.calls)
	assert.Zero(t, e.f.Count(&models.Tip{}, ""), "preview never persists")
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "Alice")
	bob := e.f.User("bob", "")
	storage := e.f.PersonalStorage(alice, "mine")

	created, err := e.tips.Register(ctx, alice.ID, registerReq(storage, "Old", false, "a", "b"))
	require.NoError(t, err)

	title := "New"
	tags := []string{"b", "c", "c"}
	updated, err := e.tips.Update(ctx, alice.ID, created.ID, models.UpdateTipRequest{
		Title:    &title,
		IsPublic: boolPtr(true),
		Tags:     &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, []string{"b", "c"}, updated.Tags)
	assert.Equal(t, int64(2), e.f.Count(&models.TipTag{}, "tip_id = ?", created.ID))
	assert.Equal(t, int64(3), e.f.Count(&models.Tag{}, ""), "tags are never deleted")

	feed := e.publisher.ofType(realtime.EventTipUpdate)
	require.Len(t, feed, 1)
	assert.Equal(t, created.ID, feed[0].TipID)

	// nil tags leave links alone
	summary := "s"
	updated, err = e.tips.Update(ctx, alice.ID, created.ID, models.UpdateTipRequest{Summary: &summary})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, updated.Tags)
	assert.Equal(t, "s", updated.Summary)

	_, err = e.tips.Update(ctx, bob.ID, created.ID, models.UpdateTipRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	_, err = e.tips.Update(ctx, alice.ID, 999, models.UpdateTipRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.f.User("alice", "")
	bob := e.f.User("bob", "")
	e.f.Follow(bob, alice)
	storage := e.f.PersonalStorage(alice, "mine")

	created, err := e.tips.Register(ctx, alice.ID, registerReq(storage, "t", true, "x"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.tips.Delete(ctx, bob.ID, created.ID), apperrors.ErrAccessDenied)
	require.NoError(t, e.tips.Delete(ctx, alice.ID, created.ID))
	assert.ErrorIs(t, e.tips.Delete(ctx, alice.ID, created.ID), apperrors.ErrNotFound)

	assert.Zero(t, e.f.Count(&models.Tip{}, ""))
	assert.Zero(t, e.f.Count(&models.StorageTip{}, ""))
	assert.Zero(t, e.f.Count(&models.Notification{}, ""))
}
