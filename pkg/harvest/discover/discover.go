// Package discover finds the communities most likely to carry on-topic
// posts by frequency-counting search results, with a curated static table
// as the last resort when the live index yields nothing.
package discover

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/normalize"
	"github.com/esaXD/reddit-scraping/pkg/harvest/retrieve"
	"github.com/esaXD/reddit-scraping/pkg/harvest/strategy"
)

// Discoverer ranks candidate communities for a prompt.
type Discoverer struct {
	builder *strategy.Builder
	client  *retrieve.Client
	norm    *normalize.Normalizer
	tables  *config.Tables
	tun     config.Tunables
	logger  *log.Logger

	deny map[string]struct{}
}

// New wires a Discoverer. nil logger selects a stderr logger.
func New(builder *strategy.Builder, client *retrieve.Client, norm *normalize.Normalizer, tables *config.Tables, tun config.Tunables, logger *log.Logger) *Discoverer {
	if logger == nil {
		logger = log.New(os.Stderr, "[discover] ", log.LstdFlags)
	}
	deny := make(map[string]struct{}, len(tables.DenyCommunities))
	for _, d := range tables.DenyCommunities {
		deny[strings.ToLower(corpus.CanonicalSubreddit(d))] = struct{}{}
	}
	return &Discoverer{
		builder: builder,
		client:  client,
		norm:    norm,
		tables:  tables,
		tun:     tun,
		logger:  logger,
		deny:    deny,
	}
}

// Discover returns up to maxSubs ranked community identifiers in canonical
// "r/<name>" form. Strategies are tried in priority order and the first one
// that returns any data wins; later strategies are not merged in. When
// every strategy comes back empty the curated table takes over, and an
// empty result means no curated entry matched either.
func (d *Discoverer) Discover(ctx context.Context, prompt, keywords string, months, maxSubs int) []string {
	if maxSubs <= 0 {
		maxSubs = 8
	}

	for _, strat := range d.builder.Build(prompt, keywords, d.tun.MaxTerms) {
		counts := d.countCommunities(ctx, strat, months)
		if len(counts) == 0 {
			continue
		}
		d.logger.Printf("strategy %q matched %d distinct communities", strat.Name, len(counts))
		return d.rank(counts, maxSubs)
	}

	d.logger.Printf("no strategy yielded data, falling back to curated communities")
	return d.curated(prompt, keywords, maxSubs)
}

type communityCount struct {
	name  string
	count int
	first int // arrival order, the tie-break
}

// countCommunities runs one paginated query for the strategy and tallies
// the community field of every returned item.
func (d *Discoverer) countCommunities(ctx context.Context, strat strategy.Strategy, months int) map[string]*communityCount {
	q := retrieve.Query{
		Q:     strat.Query(),
		After: retrieve.MonthsAgo(months),
		Size:  d.tun.DiscoverPageSize,
	}
	counts := make(map[string]*communityCount)
	d.client.Pages(ctx, q, d.tun.DiscoverPages, func(items []retrieve.Item) bool {
		for _, it := range items {
			if it.Subreddit == "" {
				continue
			}
			if c, ok := counts[it.Subreddit]; ok {
				c.count++
			} else {
				counts[it.Subreddit] = &communityCount{name: it.Subreddit, count: 1, first: len(counts)}
			}
		}
		return true
	})
	return counts
}

// rank orders communities by descending frequency (arrival order breaks
// ties), canonicalizes, drops deny-listed and duplicate names, and caps the
// result.
func (d *Discoverer) rank(counts map[string]*communityCount, maxSubs int) []string {
	ranked := make([]*communityCount, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	var top []string
	seen := make(map[string]struct{})
	for _, c := range ranked {
		candidate := corpus.CanonicalSubreddit(c.name)
		key := strings.ToLower(candidate)
		if _, denied := d.deny[key]; denied {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		top = append(top, candidate)
		if len(top) >= maxSubs {
			break
		}
	}
	return top
}

// curated matches normalized prompt tokens against the static topic table.
func (d *Discoverer) curated(prompt, keywords string, maxSubs int) []string {
	tokens := d.norm.FoldedBase(prompt, keywords)

	var picked []string
	for _, entry := range d.tables.Curated {
		topic := strings.ToLower(normalize.Fold(entry.Topic))
		for _, tok := range tokens {
			if strings.Contains(tok, topic) {
				picked = append(picked, entry.Communities...)
				break
			}
		}
	}
	if len(picked) == 0 {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, name := range picked {
		candidate := corpus.CanonicalSubreddit(name)
		key := strings.ToLower(candidate)
		if _, denied := d.deny[key]; denied {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
		if len(out) >= maxSubs {
			break
		}
	}
	return out
}
