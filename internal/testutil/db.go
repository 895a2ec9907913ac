// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:tipbox_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

// Logger discards everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Fixtures seeds rows directly, bypassing the services under test.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) User(loginID, nickname string) *models.User {
	f.t.Helper()
	u := &models.User{LoginID: loginID, Nickname: nickname, Email: loginID + "@example.com"}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *Fixtures) Follow(follower, following *models.User) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error)
}

func (f *Fixtures) Group(name string, members ...*models.User) *models.Group {
	f.t.Helper()
	g := &models.Group{Name: name}
	require.NoError(f.t, f.db.Create(g).Error)
	for _, m := range members {
		require.NoError(f.t, f.db.Create(&models.GroupMember{GroupID: g.ID, UserID: m.ID}).Error)
	}
	return g
}

func (f *Fixtures) PersonalStorage(owner *models.User, name string) *models.Storage {
	f.t.Helper()
	s := &models.Storage{Name: name, UserID: owner.ID}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

func (f *Fixtures) GroupStorage(owner *models.User, group *models.Group, name string) *models.Storage {
	f.t.Helper()
	s := &models.Storage{Name: name, UserID: owner.ID, GroupID: &group.ID}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

// Tip inserts a tip linked to storage with an explicit creation time.
func (f *Fixtures) Tip(owner *models.User, storage *models.Storage, title, summary, url string, public bool, createdAt time.Time) *models.Tip {
	f.t.Helper()
	tip := &models.Tip{
		Title:     title,
		Summary:   summary,
		URL:       url,
		IsPublic:  public,
		UserID:    owner.ID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(f.t, f.db.Omit("User").Create(tip).Error)
	require.NoError(f.t, f.db.Create(&models.StorageTip{StorageID: storage.ID, TipID: tip.ID}).Error)
	return tip
}

// Count returns the number of rows of model matching the optional condition.
func (f *Fixtures) Count(model any, query string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(f.t, q.Count(&n).Error)
	return n
}
