// Package strategy turns normalized keywords into the ordered list of
// OR-query term sets the retrieval components execute. The layered
// fallback guarantees a non-empty strategy list for any non-empty input:
// specificity degrades in order primary → basic → static.
package strategy

import (
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/normalize"
)

// Strategy is one ordered term set for a single OR-query.
type Strategy struct {
	Name  string
	Terms []string
}

// Query renders the OR-joined query string, quoting multi-word terms.
func (s Strategy) Query() string {
	quoted := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		if strings.ContainsRune(t, ' ') {
			quoted[i] = `"` + t + `"`
		} else {
			quoted[i] = t
		}
	}
	return strings.Join(quoted, " OR ")
}

// key identifies a strategy by its term tuple for deduplication.
func (s Strategy) key() string {
	return strings.Join(s.Terms, "\x00")
}

// Builder derives strategies from prompts and keyword lists.
type Builder struct {
	norm     *normalize.Normalizer
	fallback []string
}

// NewBuilder wires a builder over the given normalizer and tables.
func NewBuilder(norm *normalize.Normalizer, tables *config.Tables) *Builder {
	return &Builder{norm: norm, fallback: tables.FallbackTerms}
}

// Build returns the prioritized strategies for the input. maxTerms caps
// every strategy's term count; values <= 0 fall back to 16.
//
// Strategy order:
//  1. "primary": synonym-expanded ASCII terms.
//  2. "basic": folded pre-synonym tokens, so a query exists even when the
//     synonym table has no coverage.
//  3. "fallback": the static generic term set, only when 1 and 2 are empty.
//
// Duplicate term tuples collapse to the first occurrence; empty strategies
// are dropped.
func (b *Builder) Build(prompt, keywords string, maxTerms int) []Strategy {
	if maxTerms <= 0 {
		maxTerms = 16
	}

	candidates := []Strategy{
		{Name: "primary", Terms: capTerms(b.norm.Expand(prompt, keywords), maxTerms)},
		{Name: "basic", Terms: capTerms(b.norm.FoldedBase(prompt, keywords), maxTerms)},
	}

	var out []Strategy
	seen := make(map[string]struct{})
	for _, s := range candidates {
		if len(s.Terms) == 0 {
			continue
		}
		if _, dup := seen[s.key()]; dup {
			continue
		}
		seen[s.key()] = struct{}{}
		out = append(out, s)
	}

	if len(out) == 0 && len(b.fallback) > 0 {
		out = append(out, Strategy{Name: "fallback", Terms: capTerms(b.fallback, maxTerms)})
	}
	return out
}

func capTerms(terms []string, max int) []string {
	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}
