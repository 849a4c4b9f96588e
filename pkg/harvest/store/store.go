// Package store persists acquired corpora and acquisition run records.
package store

import (
	"context"
	"time"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
)

// Store is the persistence interface for corpora and runs.
type Store interface {
	Close() error

	// Posts. Insert keeps the first occurrence of an id: the dedup
	// invariant holds at the persistence layer too.
	InsertPost(ctx context.Context, p corpus.Post) error
	GetPost(ctx context.Context, id string) (corpus.Post, bool, error)
	ListPosts(ctx context.Context, f PostFilter) (corpus.Corpus, error)
	CountPosts(ctx context.Context) (int64, error)

	// Runs.
	RecordRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
}

// PostFilter narrows a listing. Zero-valued fields are ignored.
type PostFilter struct {
	Subreddits []string
	Sources    []string
	Since      int64 // minimum created_utc
	MinUpvotes int
	Limit      int
}

// Run records one acquisition run.
type Run struct {
	ID           string // ULID
	Prompt       string
	Months       int
	MinUpvotes   int
	TargetVolume int
	Posts        int
	StartedAt    time.Time
	FinishedAt   time.Time
}
