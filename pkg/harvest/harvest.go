// Package harvest ties the acquisition components into a single engine:
// prompt normalization, search strategies, community discovery, the
// escalation ladder and final filtering, with optional persistence.
package harvest

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/discover"
	"github.com/esaXD/reddit-scraping/pkg/harvest/escalate"
	"github.com/esaXD/reddit-scraping/pkg/harvest/filter"
	"github.com/esaXD/reddit-scraping/pkg/harvest/internalerr"
	"github.com/esaXD/reddit-scraping/pkg/harvest/normalize"
	"github.com/esaXD/reddit-scraping/pkg/harvest/retrieve"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
	"github.com/esaXD/reddit-scraping/pkg/harvest/strategy"
)

// Options configure an Engine. Zero-valued fields take the compiled-in
// defaults; Store is optional.
type Options struct {
	BaseURL  string
	Tables   *config.Tables
	Tunables *config.Tunables
	Store    store.Store
	Logger   *log.Logger
}

// Engine is the acquisition facade.
type Engine struct {
	tables     *config.Tables
	tun        config.Tunables
	builder    *strategy.Builder
	client     *retrieve.Client
	discoverer *discover.Discoverer
	controller *escalate.Controller
	finalizer  *filter.Finalizer
	store      store.Store
	logger     *log.Logger
}

// New wires an Engine from the options.
func New(opts Options) *Engine {
	tables := opts.Tables
	if tables == nil {
		tables = config.DefaultTables()
	}
	tun := config.DefaultTunables()
	if opts.Tunables != nil {
		tun = *opts.Tunables
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[harvest] ", log.LstdFlags)
	}

	norm := normalize.New(tables)
	builder := strategy.NewBuilder(norm, tables)
	client := retrieve.NewClient(opts.BaseURL, tun, logger)

	return &Engine{
		tables:     tables,
		tun:        tun,
		builder:    builder,
		client:     client,
		discoverer: discover.New(builder, client, norm, tables, tun, logger),
		controller: escalate.New(client, tun, logger),
		finalizer:  filter.New(tun, logger),
		store:      opts.Store,
		logger:     logger,
	}
}

// DiscoverCommunities ranks candidate communities for the prompt. Empty
// only when even the curated fallback finds nothing.
func (e *Engine) DiscoverCommunities(ctx context.Context, prompt, keywords string, months, maxSubs int) []string {
	return e.discoverer.Discover(ctx, prompt, keywords, months, maxSubs)
}

// AcquireRequest carries one acquisition run's parameters.
type AcquireRequest struct {
	Prompt          string
	Keywords        string
	Communities     []string
	Months          int
	MinUpvotes      int
	PerAttemptLimit int
	TargetVolume    int
	Filter          filter.Spec
}

// AcquireResult is the outcome of a run.
type AcquireResult struct {
	RunID      string
	Strategies []strategy.Strategy
	Raw        int // corpus size before final filtering
	Posts      corpus.Corpus
}

// Acquire runs the full pipeline: build strategies, walk the escalation
// ladder, finalize the corpus, and persist the result when a store is
// configured. A run that yields zero posts is a valid outcome, not an
// error.
func (e *Engine) Acquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error) {
	if req.Prompt == "" && req.Keywords == "" && len(req.Communities) == 0 {
		return nil, fmt.Errorf("%w: prompt, keywords or communities required", internalerr.ErrInvalidInput)
	}

	strategies := e.builder.Build(req.Prompt, req.Keywords, e.tun.MaxTerms)
	if len(strategies) == 0 && len(req.Communities) == 0 {
		return nil, fmt.Errorf("%w: no usable terms in %q", internalerr.ErrNoStrategies, req.Prompt)
	}
	for _, s := range strategies {
		e.logger.Printf("strategy %s: %s", s.Name, s.Query())
	}

	started := time.Now().UTC()
	acc := e.controller.Acquire(ctx, escalate.Request{
		Communities:     req.Communities,
		Strategies:      strategies,
		BaseMonths:      req.Months,
		BaseMinUpvotes:  req.MinUpvotes,
		PerAttemptLimit: req.PerAttemptLimit,
		TargetVolume:    req.TargetVolume,
	})

	final := e.finalizer.Finalize(acc, req.Filter)
	res := &AcquireResult{
		Strategies: strategies,
		Raw:        len(acc),
		Posts:      final,
	}

	if e.store != nil {
		res.RunID = ulid.Make().String()
		for _, p := range final {
			if err := e.store.InsertPost(ctx, p); err != nil {
				return res, fmt.Errorf("persist corpus: %w", err)
			}
		}
		run := store.Run{
			ID:           res.RunID,
			Prompt:       req.Prompt,
			Months:       req.Months,
			MinUpvotes:   req.MinUpvotes,
			TargetVolume: req.TargetVolume,
			Posts:        len(final),
			StartedAt:    started,
			FinishedAt:   time.Now().UTC(),
		}
		if err := e.store.RecordRun(ctx, run); err != nil {
			return res, fmt.Errorf("record run: %w", err)
		}
	}
	return res, nil
}

// Check probes the upstream endpoint with the run's strategies and
// communities and reports per-probe diagnostics. Strategy probes stop at
// the first one that both succeeds and returns items.
func (e *Engine) Check(ctx context.Context, prompt, keywords string, communities []string, months int) []retrieve.ProbeResult {
	var results []retrieve.ProbeResult
	after := retrieve.MonthsAgo(months)

	for _, s := range e.builder.Build(prompt, keywords, e.tun.MaxTerms) {
		r := e.client.Probe(ctx, "strategy/"+s.Name, retrieve.Query{
			Q:     s.Query(),
			After: after,
			Size:  5,
		})
		results = append(results, r)
		if r.OK && r.Items > 0 {
			break
		}
	}
	for _, community := range communities {
		label := corpus.CanonicalSubreddit(community)
		results = append(results, e.client.Probe(ctx, label, retrieve.Query{
			Subreddit: trimCommunity(label),
			After:     after,
			Size:      5,
		}))
	}
	return results
}

func trimCommunity(label string) string {
	if len(label) > 2 && label[:2] == "r/" {
		return label[2:]
	}
	return label
}
