package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
)

func TestInsertFirstOccurrenceWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	require.NoError(t, s.InsertPost(ctx, corpus.Post{ID: "a", Title: "first"}))
	require.NoError(t, s.InsertPost(ctx, corpus.Post{ID: "a", Title: "second"}))

	p, ok, err := s.GetPost(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", p.Title)

	n, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetMissing(t *testing.T) {
	s := New()
	defer s.Close()

	_, ok, err := s.GetPost(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPostsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	posts := []corpus.Post{
		{ID: "a", Subreddit: "r/privacy", CreatedUTC: 100, Upvotes: 20, Source: "community/base"},
		{ID: "b", Subreddit: "r/androidapps", CreatedUTC: 300, Upvotes: 3, Source: "keyword/base"},
		{ID: "c", Subreddit: "r/privacy", CreatedUTC: 200, Upvotes: 8, Source: "keyword/broad"},
	}
	for _, p := range posts {
		require.NoError(t, s.InsertPost(ctx, p))
	}

	// Newest first with no filter.
	all, err := s.ListPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
	assert.Equal(t, "a", all[2].ID)

	bySub, err := s.ListPosts(ctx, store.PostFilter{Subreddits: []string{"r/privacy"}})
	require.NoError(t, err)
	require.Len(t, bySub, 2)

	byScore, err := s.ListPosts(ctx, store.PostFilter{MinUpvotes: 10})
	require.NoError(t, err)
	require.Len(t, byScore, 1)
	assert.Equal(t, "a", byScore[0].ID)

	since, err := s.ListPosts(ctx, store.PostFilter{Since: 150})
	require.NoError(t, err)
	require.Len(t, since, 2)

	limited, err := s.ListPosts(ctx, store.PostFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].ID)

	bySource, err := s.ListPosts(ctx, store.PostFilter{Sources: []string{"keyword/base", "keyword/broad"}})
	require.NoError(t, err)
	require.Len(t, bySource, 2)
}

func TestRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	run := store.Run{ID: "01JX", Prompt: "p", Months: 12, TargetVolume: 50, Posts: 42}
	require.NoError(t, s.RecordRun(ctx, run))

	got, ok, err := s.GetRun(ctx, "01JX")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, got)

	_, ok, err = s.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
