package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
)

func fastTunables() config.Tunables {
	tun := config.DefaultTunables()
	tun.BackoffBase = time.Millisecond
	tun.PageSleep = 0
	tun.HTTPTimeout = 5 * time.Second
	return tun
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func serveItems(w http.ResponseWriter, items []Item) {
	_ = json.NewEncoder(w).Encode(map[string][]Item{"data": items})
}

func makeItems(n int, startTS int64) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:         fmt.Sprintf("id%d-%d", startTS, i),
			Subreddit:  "privacy",
			CreatedUTC: float64(startTS - int64(i)),
			Title:      "t",
			Score:      10,
		}
	}
	return items
}

func TestPageRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		serveItems(w, makeItems(2, 1000))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	items := c.Page(context.Background(), Query{Q: "x"})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if calls != 3 {
		t.Errorf("made %d calls, want 3", calls)
	}
}

func TestPageExhaustionReturnsEmpty(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	items := c.Page(context.Background(), Query{Q: "x"})
	if items != nil {
		t.Errorf("got %v, want nil", items)
	}
	if calls != 3 {
		t.Errorf("made %d calls, want the full retry budget of 3", calls)
	}
}

func TestQueryValues(t *testing.T) {
	v := Query{Q: "a OR b", After: 100, Before: 200, Size: 50}.values()
	if v.Get("q") != "a OR b" || v.Get("after") != "100" || v.Get("before") != "200" {
		t.Errorf("values = %v", v)
	}
	if v.Get("size") != "50" || v.Get("sort") != "desc" || v.Get("sort_type") != "created_utc" {
		t.Errorf("values = %v", v)
	}

	// Size defaults to 100, zero bounds are omitted.
	v = Query{Subreddit: "privacy"}.values()
	if v.Get("size") != "100" || v.Has("after") || v.Has("before") || v.Has("q") {
		t.Errorf("values = %v", v)
	}
	if v.Get("subreddit") != "privacy" {
		t.Errorf("values = %v", v)
	}
}

func TestPagesCursorFollowsLastTimestamp(t *testing.T) {
	var befores []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		befores = append(befores, r.URL.Query().Get("before"))
		switch len(befores) {
		case 1:
			serveItems(w, makeItems(100, 5000))
		case 2:
			serveItems(w, makeItems(3, 4000))
		default:
			serveItems(w, nil)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	var total int
	c.Pages(context.Background(), Query{Q: "x"}, 0, func(items []Item) bool {
		total += len(items)
		return true
	})

	if total != 103 {
		t.Errorf("visited %d items, want 103", total)
	}
	// First request has no cursor; the second carries the last timestamp
	// of the first page as an integer; the third likewise.
	want := []string{"", strconv.Itoa(5000 - 99), strconv.Itoa(4000 - 2)}
	if len(befores) != 3 {
		t.Fatalf("made %d requests, want 3 (%v)", len(befores), befores)
	}
	for i := range want {
		if befores[i] != want[i] {
			t.Errorf("request %d before=%q, want %q", i, befores[i], want[i])
		}
	}
}

func TestPagesStopsAtPageCap(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		serveItems(w, makeItems(10, int64(10000-calls*100)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	c.Pages(context.Background(), Query{Q: "x"}, 2, func([]Item) bool { return true })
	if calls != 2 {
		t.Errorf("made %d requests, want 2", calls)
	}
}

func TestPagesStopsWhenVisitDeclines(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		serveItems(w, makeItems(10, 9000))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	c.Pages(context.Background(), Query{Q: "x"}, 0, func([]Item) bool { return false })
	if calls != 1 {
		t.Errorf("made %d requests, want 1", calls)
	}
}

func TestFetchAppliesScoreFilterAndCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := makeItems(4, 3000)
		items[1].Score = 1
		items[3].Score = 0
		serveItems(w, items)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	posts := c.Fetch(context.Background(), Query{Q: "x"}, FetchOptions{
		MaxItems: 4,
		MinScore: 5,
		Source:   "keyword/base",
	})
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	for _, p := range posts {
		if p.Source != "keyword/base" {
			t.Errorf("source = %q", p.Source)
		}
		if p.Subreddit != "r/privacy" {
			t.Errorf("subreddit = %q", p.Subreddit)
		}
		if p.URL == "" {
			t.Error("missing synthesized permalink")
		}
	}
}

func TestFetchContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveItems(w, makeItems(10, 8000))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	posts := c.Fetch(ctx, Query{Q: "x"}, FetchOptions{})
	if len(posts) != 0 {
		t.Errorf("got %d posts after cancellation, want 0", len(posts))
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveItems(w, makeItems(5, 2000))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	res := c.Probe(context.Background(), "strategy/primary", Query{Q: "x", Size: 5})
	if !res.OK || res.Items != 5 || res.Status != 200 {
		t.Errorf("probe = %+v", res)
	}
	if res.Label != "strategy/primary" {
		t.Errorf("label = %q", res.Label)
	}
}

func TestProbeFailureCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate   limited\nslow down")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fastTunables(), quietLogger())
	res := c.Probe(context.Background(), "x", Query{Q: "x"})
	if res.OK || res.Status != 429 {
		t.Errorf("probe = %+v", res)
	}
	if res.Detail != "rate limited slow down" {
		t.Errorf("detail = %q", res.Detail)
	}
}

func TestMonthsAgo(t *testing.T) {
	got := MonthsAgo(1)
	want := time.Now().UTC().Add(-30 * 24 * time.Hour).Unix()
	if got < want-5 || got > want+5 {
		t.Errorf("MonthsAgo(1) = %d, want about %d", got, want)
	}
}
