// Package filter deduplicates the accumulated posts and applies the
// keyword containment filters. The include pass carries an escalating
// leniency valve: rather than ever returning an empty corpus from a
// non-empty input, it widens the match vocabulary and finally abandons the
// filter altogether.
package filter

import (
	"log"
	"os"
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/normalize"
)

// Mode selects how include terms combine.
type Mode string

const (
	// ModeAny keeps a post containing at least one include term.
	ModeAny Mode = "any"
	// ModeAll keeps a post only when every must term (or, lacking must
	// terms, every should term) is present.
	ModeAll Mode = "all"
)

// Spec is the filter configuration, typically sourced from the seeding
// collaborator.
type Spec struct {
	Must    []string
	Should  []string
	Exclude []string
	Mode    Mode
}

func (s Spec) hasInclude() bool {
	return len(s.Must) > 0 || len(s.Should) > 0
}

// Finalizer applies dedup and filtering with configured leniency.
type Finalizer struct {
	tun    config.Tunables
	logger *log.Logger
}

// New builds a Finalizer. nil logger selects a stderr logger.
func New(tun config.Tunables, logger *log.Logger) *Finalizer {
	if logger == nil {
		logger = log.New(os.Stderr, "[filter] ", log.LstdFlags)
	}
	return &Finalizer{tun: tun, logger: logger}
}

// Finalize produces the output corpus: id-dedup (first occurrence wins,
// accumulation order preserved), exclude pass, then the include pass with
// its leniency ladder. For any non-empty post-exclude set the result is
// never empty: phrases first, then split-out words with folded variants,
// then the filter is dropped entirely.
func (f *Finalizer) Finalize(posts []corpus.Post, spec Spec) corpus.Corpus {
	base := dedupe(posts)

	if len(spec.Exclude) > 0 {
		kept := base[:0:0]
		for _, p := range base {
			if containsAny(p.Text(), spec.Exclude) {
				continue
			}
			kept = append(kept, p)
		}
		if removed := len(base) - len(kept); removed > 0 {
			f.logger.Printf("exclude pass removed %d posts", removed)
		}
		base = kept
	}

	if !spec.hasInclude() || len(base) == 0 {
		return base
	}

	strict := applyInclude(base, lowerAll(spec.Must), lowerAll(spec.Should), spec.Mode)
	f.logger.Printf("include pass (%s) kept %d of %d posts", spec.Mode, len(strict), len(base))
	if len(strict) >= f.tun.LeniencyThreshold {
		return strict
	}

	broadMust := broaden(spec.Must)
	broadShould := broaden(spec.Should)
	broad := applyInclude(base, broadMust, broadShould, spec.Mode)
	f.logger.Printf("lenient include pass kept %d of %d posts", len(broad), len(base))
	if len(broad) > 0 {
		return broad
	}

	// Both tiers emptied a non-empty set: returning some data beats
	// returning none, so the filter is abandoned.
	f.logger.Printf("include filter abandoned, returning %d unfiltered posts", len(base))
	return base
}

func dedupe(posts []corpus.Post) corpus.Corpus {
	out := make(corpus.Corpus, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func applyInclude(posts corpus.Corpus, must, should []string, mode Mode) corpus.Corpus {
	var out corpus.Corpus
	for _, p := range posts {
		if matches(p.Text(), must, should, mode) {
			out = append(out, p)
		}
	}
	return out
}

func matches(text string, must, should []string, mode Mode) bool {
	if mode == ModeAll {
		required := must
		if len(required) == 0 {
			required = should
		}
		for _, term := range required {
			if term != "" && !strings.Contains(text, term) {
				return false
			}
		}
		return true
	}
	return containsAny(text, must) || containsAny(text, should)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// broaden splits multi-word terms into their individual words and adds the
// ASCII-folded variant of each, deduplicated case-insensitively.
func broaden(terms []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(w string) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return
		}
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	for _, term := range terms {
		for _, word := range strings.Fields(term) {
			add(word)
			add(normalize.Fold(word))
		}
	}
	return out
}
