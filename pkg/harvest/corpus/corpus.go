// Package corpus defines the acquired post records and the corpus-level
// helpers shared by the acquisition components.
package corpus

import (
	"strings"
	"time"
)

// Post is one acquired submission. ID is the corpus-wide uniqueness key;
// a Post is never mutated after insertion into a Corpus.
type Post struct {
	ID          string `json:"id"`
	Subreddit   string `json:"subreddit"`
	CreatedUTC  int64  `json:"created_utc"`
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	URL         string `json:"url"`
	Upvotes     int    `json:"upvotes"`
	NumComments int    `json:"num_comments"`
	Source      string `json:"source"`
	FetchedAt   string `json:"fetched_at"`
}

// Corpus is the accumulated, deduplicated set of posts, in accumulation
// order.
type Corpus []Post

// IDs returns the post IDs in corpus order.
func (c Corpus) IDs() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.ID
	}
	return out
}

// Text returns the casefolded title+body of a post for containment checks.
func (p Post) Text() string {
	return strings.ToLower(p.Title + " " + p.Selftext)
}

// NowISO formats the current time as a second-precision ISO-8601 UTC stamp.
func NowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

// CanonicalSubreddit normalizes a community name to the "r/<name>" form.
// Accepts bare names, "r/name" and path-like inputs; the last path segment
// wins.
func CanonicalSubreddit(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return ""
	}
	return "r/" + name
}

// Permalink synthesizes a canonical reddit URL for items whose API record
// carries no link field.
func Permalink(subreddit, id string) string {
	sub := strings.TrimPrefix(subreddit, "r/")
	if sub != "" {
		return "https://www.reddit.com/r/" + sub + "/comments/" + id + "/"
	}
	return "https://www.reddit.com/comments/" + id + "/"
}
