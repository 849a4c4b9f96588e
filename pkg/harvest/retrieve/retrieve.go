// Package retrieve executes paginated, retried queries against the
// historical submission search endpoint. The client never surfaces
// transport errors to callers: a page that cannot be fetched after the
// retry budget degrades to an empty page, which callers treat as
// end-of-results.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
)

// DefaultBaseURL is the public PullPush submission search endpoint.
const DefaultBaseURL = "https://api.pullpush.io/reddit/search/submission/"

// Item is one raw submission as returned by the search endpoint.
// created_utc arrives float-encoded from some mirrors; cursors derived from
// it are always integers.
type Item struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	FullLink    string  `json:"full_link"`
}

// Created returns the creation timestamp in whole epoch seconds.
func (it Item) Created() int64 {
	return int64(it.CreatedUTC)
}

// Post converts the raw item into a corpus record with the given
// provenance tag, cleaning text, canonicalizing the community name and
// synthesizing a permalink when the API omitted one.
func (it Item) Post(source string) corpus.Post {
	sub := corpus.CanonicalSubreddit(it.Subreddit)
	link := it.FullLink
	if link == "" {
		link = corpus.Permalink(sub, it.ID)
	}
	return corpus.Post{
		ID:          it.ID,
		Subreddit:   sub,
		CreatedUTC:  it.Created(),
		Title:       corpus.CleanText(it.Title),
		Selftext:    corpus.CleanText(it.Selftext),
		URL:         link,
		Upvotes:     it.Score,
		NumComments: it.NumComments,
		Source:      source,
		FetchedAt:   corpus.NowISO(),
	}
}

// Query describes one search request. Either Q (an OR-joined term
// expression) or Subreddit is set, never both.
type Query struct {
	Q         string
	Subreddit string // without the r/ prefix
	After     int64
	Before    int64
	Size      int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Subreddit != "" {
		v.Set("subreddit", q.Subreddit)
	}
	if q.After > 0 {
		v.Set("after", strconv.FormatInt(q.After, 10))
	}
	if q.Before > 0 {
		v.Set("before", strconv.FormatInt(q.Before, 10))
	}
	size := q.Size
	if size <= 0 {
		size = 100
	}
	v.Set("size", strconv.Itoa(size))
	v.Set("sort", "desc")
	v.Set("sort_type", "created_utc")
	return v
}

// Client fetches pages from the search endpoint under retry, backoff and
// politeness delays.
type Client struct {
	baseURL string
	http    *http.Client
	tun     config.Tunables
	logger  *log.Logger
}

// NewClient builds a client. Empty baseURL selects DefaultBaseURL, nil
// logger a stderr logger.
func NewClient(baseURL string, tun config.Tunables, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[retrieve] ", log.LstdFlags)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: tun.HTTPTimeout},
		tun:     tun,
		logger:  logger,
	}
}

// page performs a single request attempt.
func (c *Client) page(ctx context.Context, q Query) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.values().Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Data []Item `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Data, nil
}

// Page fetches one page, retrying up to the configured bound with linearly
// increasing backoff. On exhaustion the last error is logged and an empty
// page returned; callers cannot distinguish that from a genuine end of
// results, which is the accepted degradation for this endpoint.
func (c *Client) Page(ctx context.Context, q Query) []Item {
	retries := c.tun.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		items, err := c.page(ctx, q)
		if err == nil {
			return items
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < retries {
			if !sleepCtx(ctx, c.tun.BackoffBase*time.Duration(attempt)) {
				break
			}
		}
	}
	c.logger.Printf("search request failed, returning empty page: %v", lastErr)
	return nil
}

// Pages drives the cursor loop: each page's last item timestamp becomes the
// next request's before bound. The loop stops on an empty page, a missing
// cursor, the page cap, a false return from visit, or context cancellation.
// A politeness sleep separates successive pages.
func (c *Client) Pages(ctx context.Context, q Query, maxPages int, visit func([]Item) bool) {
	pages := 0
	for {
		if ctx.Err() != nil {
			return
		}
		items := c.Page(ctx, q)
		if len(items) == 0 {
			return
		}
		if !visit(items) {
			return
		}
		pages++
		if maxPages > 0 && pages >= maxPages {
			return
		}
		cursor := items[len(items)-1].Created()
		if cursor == 0 {
			return
		}
		q.Before = cursor
		if !sleepCtx(ctx, c.tun.PageSleep) {
			return
		}
	}
}

// FetchOptions bounds a Fetch call.
type FetchOptions struct {
	MaxItems int    // stop after this many raw items have been scanned
	MaxPages int    // 0 means unbounded
	MinScore int    // client-side upvote threshold
	Source   string // provenance tag stamped onto produced posts
}

// Fetch runs the full pagination loop and converts qualifying items into
// corpus posts. Degrades to an empty (possibly nil) slice, never an error.
func (c *Client) Fetch(ctx context.Context, q Query, opts FetchOptions) []corpus.Post {
	if q.Size <= 0 {
		q.Size = c.tun.PageSize
	}
	var out []corpus.Post
	scanned := 0
	c.Pages(ctx, q, opts.MaxPages, func(items []Item) bool {
		for _, it := range items {
			if it.Score < opts.MinScore {
				continue
			}
			out = append(out, it.Post(opts.Source))
		}
		scanned += len(items)
		return opts.MaxItems <= 0 || scanned < opts.MaxItems
	})
	return out
}

// sleepCtx sleeps unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// MonthsAgo returns the epoch timestamp of now minus the given number of
// 30-day months; the after bound of every attempt.
func MonthsAgo(months int) int64 {
	return time.Now().UTC().Add(-time.Duration(months) * 30 * 24 * time.Hour).Unix()
}
