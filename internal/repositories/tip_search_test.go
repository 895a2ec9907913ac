package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/anonto42/tipbox/backend/internal/search"
	"github.com/anonto42/tipbox/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	store              *repositories.Store
	alice, bob         *models.User
	group              *models.Group
	personal, shared   *models.Storage
	grep, awk, private *models.Tip
	groupTip           *models.Tip
}

func newSearchFixture(t *testing.T) *searchFixture {
	db := testutil.NewDB(t)
	f := testutil.NewFixtures(t, db)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sf := &searchFixture{store: repositories.NewStore(db)}
	sf.alice = f.User("alice", "Alice")
	sf.bob = f.User("bob", "")
	sf.group = f.Group("ops", sf.alice, sf.bob)
	sf.personal = f.PersonalStorage(sf.alice, "mine")
	sf.shared = f.GroupStorage(sf.bob, sf.group, "team")

	sf.grep = f.Tip(sf.alice, sf.personal, "Use grep -r", "recursive search", "https://example.com/grep", true, base)
	sf.awk = f.Tip(sf.alice, sf.personal, "awk one-liners", "Shell text processing", "https://example.com/awk", true, base.Add(time.Hour))
	sf.private = f.Tip(sf.alice, sf.personal, "grep secrets", "", "https://example.com/private", false, base.Add(2*time.Hour))
	sf.groupTip = f.Tip(sf.bob, sf.shared, "100% coverage_tricks", "", "https://example.com/cov", false, base.Add(3*time.Hour))
	return sf
}

func (sf *searchFixture) run(t *testing.T, q repositories.TipQuery) []uint {
	t.Helper()
	if q.Page == (search.Page{}) {
		q.Page = search.Page{Index: -1}
	}
	tips, err := sf.store.Tips.Search(context.Background(), q)
	require.NoError(t, err)
	ids := make([]uint, len(tips))
	for i, tip := range tips {
		ids[i] = tip.ID
	}
	return ids
}

func TestSearch_ScopesAndOrdering(t *testing.T) {
	sf := newSearchFixture(t)

	tests := []struct {
		name string
		q    repositories.TipQuery
		want []uint
	}{
		{"public excludes private", repositories.TipQuery{Scope: search.ScopePublic}, []uint{sf.awk.ID, sf.grep.ID}},
		{"mine includes own private", repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.alice.ID}, []uint{sf.private.ID, sf.awk.ID, sf.grep.ID}},
		{"mine of bob", repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.bob.ID}, []uint{sf.groupTip.ID}},
		{"group", repositories.TipQuery{Scope: search.ScopeGroup, ScopeID: sf.group.ID}, []uint{sf.groupTip.ID}},
		{"storage", repositories.TipQuery{Scope: search.ScopeStorage, ScopeID: sf.personal.ID}, []uint{sf.private.ID, sf.awk.ID, sf.grep.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sf.run(t, tt.q))
		})
	}
}

func TestSearch_KeywordModes(t *testing.T) {
	sf := newSearchFixture(t)

	or := sf.run(t, repositories.TipQuery{Scope: search.ScopePublic, Keyword: search.NewKeyword("grep shell", "OR")})
	and := sf.run(t, repositories.TipQuery{Scope: search.ScopePublic, Keyword: search.NewKeyword("grep shell", "AND")})
	both := sf.run(t, repositories.TipQuery{Scope: search.ScopePublic, Keyword: search.NewKeyword("AWK shell", "AND")})

	assert.Equal(t, []uint{sf.awk.ID, sf.grep.ID}, or, "summary match is case-insensitive")
	assert.Empty(t, and)
	assert.Equal(t, []uint{sf.awk.ID}, both)
	assert.Subset(t, or, and)
}

func TestSearch_SingleTokenKeepsScope(t *testing.T) {
	sf := newSearchFixture(t)

	ids := sf.run(t, repositories.TipQuery{Scope: search.ScopePublic, Keyword: search.NewKeyword("grep", "OR")})
	assert.Equal(t, []uint{sf.grep.ID}, ids, "private grep tip must stay hidden")
}

func TestSearch_MatchesURLAndEscapesWildcards(t *testing.T) {
	sf := newSearchFixture(t)

	byURL := sf.run(t, repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.alice.ID, Keyword: search.NewKeyword("example.com/private", "")})
	assert.Equal(t, []uint{sf.private.ID}, byURL)

	literal := sf.run(t, repositories.TipQuery{Scope: search.ScopeGroup, ScopeID: sf.group.ID, Keyword: search.NewKeyword("100%", "")})
	assert.Equal(t, []uint{sf.groupTip.ID}, literal)

	wildcard := sf.run(t, repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.alice.ID, Keyword: search.NewKeyword("%", "")})
	assert.Empty(t, wildcard, "a bare % must not match everything")

	underscore := sf.run(t, repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.alice.ID, Keyword: search.NewKeyword("use_grep", "")})
	assert.Empty(t, underscore, "_ must not match a single character")
}

func TestSearch_Pagination(t *testing.T) {
	sf := newSearchFixture(t)
	mine := repositories.TipQuery{Scope: search.ScopeMine, ActorID: sf.alice.ID}

	mine.Page = search.Page{Index: 0, Size: 2}
	assert.Equal(t, []uint{sf.private.ID, sf.awk.ID}, sf.run(t, mine))

	mine.Page = search.Page{Index: 1, Size: 2}
	assert.Equal(t, []uint{sf.grep.ID}, sf.run(t, mine))

	mine.Page = search.Page{Index: 0, Size: 0}
	assert.Len(t, sf.run(t, mine), 3)

	mine.Page = search.Page{Index: -3, Size: 2}
	assert.Len(t, sf.run(t, mine), 3)
}

func TestSearch_LoadsAuthorAndTags(t *testing.T) {
	sf := newSearchFixture(t)
	ctx := context.Background()
	tag, err := sf.store.Tags.Upsert(ctx, "shell")
	require.NoError(t, err)
	require.NoError(t, sf.store.Tips.AddTag(ctx, sf.grep.ID, tag.ID))

	tips, err := sf.store.Tips.Search(ctx, repositories.TipQuery{Scope: search.ScopePublic, Keyword: search.NewKeyword("grep", ""), Page: search.Page{Index: 0, Size: 20}})
	require.NoError(t, err)
	require.Len(t, tips, 1)

	detail := tips[0].ToDetail()
	assert.Equal(t, "Alice", detail.Nickname)
	assert.Equal(t, []string{"shell"}, detail.Tags)
}
