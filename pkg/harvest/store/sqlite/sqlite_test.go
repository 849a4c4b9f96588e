package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := corpus.Post{
		ID: "a1", Subreddit: "r/privacy", CreatedUTC: 1700000000,
		Title: "title", Selftext: "body", URL: "https://example.test",
		Upvotes: 12, NumComments: 3, Source: "community/base",
		FetchedAt: "2026-08-29T00:00:00Z",
	}
	require.NoError(t, s.InsertPost(ctx, p))

	got, ok, err := s.GetPost(ctx, "a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestInsertConflictKeepsFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertPost(ctx, corpus.Post{ID: "a", Title: "first"}))
	require.NoError(t, s.InsertPost(ctx, corpus.Post{ID: "a", Title: "second"}))

	got, ok, err := s.GetPost(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", got.Title)

	n, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetMissingPost(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetPost(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPostsFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seedPosts := []corpus.Post{
		{ID: "a", Subreddit: "r/privacy", CreatedUTC: 100, Upvotes: 20, Source: "community/base"},
		{ID: "b", Subreddit: "r/androidapps", CreatedUTC: 300, Upvotes: 3, Source: "keyword/base"},
		{ID: "c", Subreddit: "r/privacy", CreatedUTC: 200, Upvotes: 8, Source: "keyword/broad"},
	}
	for _, p := range seedPosts {
		require.NoError(t, s.InsertPost(ctx, p))
	}

	all, err := s.ListPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "c", "a"}, all.IDs())

	bySub, err := s.ListPosts(ctx, store.PostFilter{Subreddits: []string{"r/privacy"}})
	require.NoError(t, err)
	assert.Len(t, bySub, 2)

	combined, err := s.ListPosts(ctx, store.PostFilter{
		Subreddits: []string{"r/privacy", "r/androidapps"},
		Since:      150,
		MinUpvotes: 5,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "c", combined[0].ID)

	bySource, err := s.ListPosts(ctx, store.PostFilter{Sources: []string{"keyword/base"}})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "b", bySource[0].ID)
}

func TestRunRecordUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	started := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	run := store.Run{
		ID: "01JXRUN", Prompt: "p", Months: 12, MinUpvotes: 5,
		TargetVolume: 50, Posts: 0, StartedAt: started, FinishedAt: started,
	}
	require.NoError(t, s.RecordRun(ctx, run))

	// Re-recording the same run updates the outcome fields.
	run.Posts = 42
	run.FinishedAt = started.Add(time.Minute)
	require.NoError(t, s.RecordRun(ctx, run))

	got, ok, err := s.GetRun(ctx, "01JXRUN")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, got.Posts)
	assert.True(t, got.FinishedAt.Equal(started.Add(time.Minute)))
	assert.Equal(t, "p", got.Prompt)

	_, ok, err = s.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
