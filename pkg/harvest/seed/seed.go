// Package seed consumes the research plan produced by the LLM-seeding
// collaborator. The engine only reads the lists out of it; producing the
// plan is out of scope. A missing or malformed seed is never fatal — the
// acquisition run simply proceeds without one.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/filter"
)

// Filters carries the include/exclude vocabulary of a plan.
type Filters struct {
	MustInclude   []string `json:"must_include"`
	ShouldInclude []string `json:"should_include"`
	Exclude       []string `json:"exclude"`
}

// Plan is the seeding collaborator's JSON schema.
type Plan struct {
	Prompt          string           `json:"prompt"`
	Subreddits      []SubredditEntry `json:"subreddits"`
	Keywords        []string         `json:"keywords"`
	Filters         Filters          `json:"filters"`
	SearchQueries   []string         `json:"search_queries"`
	TimeframeMonths int              `json:"timeframe_months"`
	MinUpvotes      int              `json:"min_upvotes"`
	Confidence      string           `json:"confidence"`
	Notes           string           `json:"notes"`
}

// SubredditEntry accepts both the bare-string and the annotated object form
// the collaborator emits.
type SubredditEntry struct {
	Name string `json:"name"`
	Why  string `json:"why"`
}

// UnmarshalJSON accepts "r/foo" as well as {"name": "r/foo", "why": "..."}.
func (e *SubredditEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Name = s
		return nil
	}
	type entry SubredditEntry
	var obj entry
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name == "" {
		// Older plans used "subreddit" as the key.
		var alt struct {
			Subreddit string `json:"subreddit"`
			Why       string `json:"why"`
		}
		if err := json.Unmarshal(data, &alt); err == nil && alt.Subreddit != "" {
			e.Name = alt.Subreddit
			e.Why = alt.Why
			return nil
		}
	}
	*e = SubredditEntry(obj)
	return nil
}

// Parse decodes a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse seed plan: %w", err)
	}
	return &p, nil
}

// Load reads a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Communities returns the plan's subreddits in canonical "r/<name>" form,
// case-insensitively deduplicated in order.
func (p *Plan) Communities() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range p.Subreddits {
		name := corpus.CanonicalSubreddit(entry.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// CombinedKeywords merges keywords with the must- and should-include
// filter terms, order-preserving and case-insensitively deduplicated.
func (p *Plan) CombinedKeywords() []string {
	return Dedupe(append(append(append([]string{}, p.Keywords...), p.Filters.MustInclude...), p.Filters.ShouldInclude...))
}

// FilterSpec converts the plan's filters for the finalize step.
func (p *Plan) FilterSpec(mode filter.Mode) filter.Spec {
	return filter.Spec{
		Must:    Dedupe(p.Filters.MustInclude),
		Should:  Dedupe(p.Filters.ShouldInclude),
		Exclude: Dedupe(p.Filters.Exclude),
		Mode:    mode,
	}
}

// Dedupe trims entries and removes case-insensitive duplicates, keeping
// first-seen order.
func Dedupe(items []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ParseKeywordList accepts the collaborator-facing keyword forms: a JSON
// string array, or a plain string split on whitespace and commas.
func ParseKeywordList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return Dedupe(list)
	}
	return Dedupe(strings.Fields(strings.ReplaceAll(raw, ",", " ")))
}
