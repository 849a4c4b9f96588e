// Package memstore is an in-memory Store used by tests and short-lived
// runs that do not want a database file.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
)

type memStore struct {
	mu    sync.RWMutex
	posts map[string]corpus.Post
	order []string
	runs  map[string]store.Run
}

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		posts: make(map[string]corpus.Post),
		runs:  make(map[string]store.Run),
	}
}

func (m *memStore) Close() error { return nil }

func (m *memStore) InsertPost(ctx context.Context, p corpus.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; ok {
		return nil
	}
	m.posts[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memStore) GetPost(ctx context.Context, id string) (corpus.Post, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok, nil
}

func (m *memStore) ListPosts(ctx context.Context, f store.PostFilter) (corpus.Corpus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := toSet(f.Subreddits)
	sources := toSet(f.Sources)

	var out corpus.Corpus
	for _, id := range m.order {
		p := m.posts[id]
		if subs != nil && !subs[p.Subreddit] {
			continue
		}
		if sources != nil && !sources[p.Source] {
			continue
		}
		if f.Since > 0 && p.CreatedUTC < f.Since {
			continue
		}
		if f.MinUpvotes > 0 && p.Upvotes < f.MinUpvotes {
			continue
		}
		out = append(out, p)
	}

	// Newest first, like the SQL store.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedUTC > out[j].CreatedUTC
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) CountPosts(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.posts)), nil
}

func (m *memStore) RecordRun(ctx context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = r
	return nil
}

func (m *memStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok, nil
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}
