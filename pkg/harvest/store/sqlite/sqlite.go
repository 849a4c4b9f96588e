// Package sqlite implements the corpus store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite corpus database with WAL mode
// enabled.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers unblocked while an acquisition run writes.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	subreddit TEXT NOT NULL,
	created_utc INTEGER NOT NULL,
	title TEXT,
	selftext TEXT,
	url TEXT,
	upvotes INTEGER DEFAULT 0,
	num_comments INTEGER DEFAULT 0,
	source TEXT,
	fetched_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_utc);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	prompt TEXT,
	months INTEGER,
	min_upvotes INTEGER,
	target_volume INTEGER,
	posts INTEGER,
	started_at TEXT,
	finished_at TEXT
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// InsertPost stores a post unless its id is already present; the first
// occurrence wins, matching the corpus dedup invariant.
func (s *sqliteStore) InsertPost(ctx context.Context, p corpus.Post) error {
	const stmt = `
INSERT INTO posts (id, subreddit, created_utc, title, selftext, url, upvotes, num_comments, source, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	_, err := s.db.ExecContext(ctx, stmt,
		p.ID, p.Subreddit, p.CreatedUTC, p.Title, p.Selftext, p.URL,
		p.Upvotes, p.NumComments, p.Source, p.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", p.ID, err)
	}
	return nil
}

func (s *sqliteStore) GetPost(ctx context.Context, id string) (corpus.Post, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, subreddit, created_utc, title, selftext, url, upvotes, num_comments, source, fetched_at
FROM posts WHERE id = ?`, id)

	var p corpus.Post
	err := row.Scan(&p.ID, &p.Subreddit, &p.CreatedUTC, &p.Title, &p.Selftext,
		&p.URL, &p.Upvotes, &p.NumComments, &p.Source, &p.FetchedAt)
	if err == sql.ErrNoRows {
		return corpus.Post{}, false, nil
	}
	if err != nil {
		return corpus.Post{}, false, err
	}
	return p, true, nil
}

// ListPosts returns posts matching the filter, newest first.
func (s *sqliteStore) ListPosts(ctx context.Context, f store.PostFilter) (corpus.Corpus, error) {
	q := sq.Select("id", "subreddit", "created_utc", "title", "selftext", "url",
		"upvotes", "num_comments", "source", "fetched_at").
		From("posts").
		OrderBy("created_utc DESC")

	if len(f.Subreddits) > 0 {
		q = q.Where(sq.Eq{"subreddit": f.Subreddits})
	}
	if len(f.Sources) > 0 {
		q = q.Where(sq.Eq{"source": f.Sources})
	}
	if f.Since > 0 {
		q = q.Where(sq.GtOrEq{"created_utc": f.Since})
	}
	if f.MinUpvotes > 0 {
		q = q.Where(sq.GtOrEq{"upvotes": f.MinUpvotes})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out corpus.Corpus
	for rows.Next() {
		var p corpus.Post
		if err := rows.Scan(&p.ID, &p.Subreddit, &p.CreatedUTC, &p.Title, &p.Selftext,
			&p.URL, &p.Upvotes, &p.NumComments, &p.Source, &p.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	const stmt = `
INSERT INTO runs (id, prompt, months, min_upvotes, target_volume, posts, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	posts=excluded.posts,
	finished_at=excluded.finished_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		r.ID, r.Prompt, r.Months, r.MinUpvotes, r.TargetVolume, r.Posts,
		r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, prompt, months, min_upvotes, target_volume, posts, started_at, finished_at
FROM runs WHERE id = ?`, id)

	var r store.Run
	var started, finished string
	err := row.Scan(&r.ID, &r.Prompt, &r.Months, &r.MinUpvotes, &r.TargetVolume, &r.Posts, &started, &finished)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		r.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finished); err == nil {
		r.FinishedAt = t
	}
	return r, true, nil
}
