package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/esaXD/reddit-scraping/pkg/harvest"
	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/filter"
	"github.com/esaXD/reddit-scraping/pkg/harvest/seed"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store"
	"github.com/esaXD/reddit-scraping/pkg/harvest/store/sqlite"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "scrapectl",
		Usage:   "Reddit corpus acquisition engine",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "Search endpoint base URL (default: PullPush submissions)"},
			&cli.StringFlag{Name: "tables", Usage: "YAML file overriding the built-in language tables"},
			&cli.StringFlag{Name: "tunables", Usage: "YAML file overriding the operational constants"},
		},
		Commands: []*cli.Command{
			discoverCmd(),
			scrapeCmd(),
			checkCmd(),
		},
	}
}

func discoverCmd() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Rank candidate subreddits for a prompt",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Research prompt"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Extra keywords (comma or space separated, or a JSON array)"},
			&cli.IntFlag{Name: "months", Aliases: []string{"m"}, Value: 12, Usage: "Lookback window in months"},
			&cli.IntFlag{Name: "subs", Value: 8, Usage: "Maximum subreddits to return"},
		},
		Action: func(c *cli.Context) error {
			if c.String("prompt") == "" && c.String("keywords") == "" {
				return cli.Exit("a prompt or keywords are required", 1)
			}
			eng, closeStore, err := buildEngine(c, "")
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer closeStore()

			subs := eng.DiscoverCommunities(c.Context, c.String("prompt"),
				joinKeywords(c.String("keywords")), c.Int("months"), c.Int("subs"))
			return outputJSON(map[string]any{"subreddits": subs})
		},
	}
}

func scrapeCmd() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Acquire a corpus and write it as JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Research prompt"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Extra keywords (comma or space separated, or a JSON array)"},
			&cli.StringFlag{Name: "seed", Usage: "Seed plan JSON file (collaborator output)"},
			&cli.StringFlag{Name: "subs", Usage: "Comma-separated subreddits; discovered from the prompt when empty"},
			&cli.IntFlag{Name: "months", Aliases: []string{"m"}, Value: 12, Usage: "Lookback window in months"},
			&cli.IntFlag{Name: "min-upvotes", Value: 0, Usage: "Upvote threshold for the base attempt"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 500, Usage: "Raw item cap per query"},
			&cli.IntFlag{Name: "target", Aliases: []string{"t"}, Value: 0, Usage: "Stop escalating once the corpus reaches this size (0 runs the full ladder)"},
			&cli.StringFlag{Name: "must", Usage: "Comma-separated terms every kept post must contain"},
			&cli.StringFlag{Name: "should", Usage: "Comma-separated terms at least one of which a kept post should contain"},
			&cli.StringFlag{Name: "exclude", Usage: "Comma-separated terms that disqualify a post"},
			&cli.StringFlag{Name: "mode", Value: "any", Usage: "Include-filter mode: any|all"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "reddit_corpus.jsonl", Usage: "Output JSONL path (- for stdout)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database to persist the run into (optional)"},
		},
		Action: func(c *cli.Context) error {
			req, err := buildRequest(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			eng, closeStore, err := buildEngine(c, c.String("db"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer closeStore()

			if len(req.Communities) == 0 && req.Prompt != "" {
				req.Communities = eng.DiscoverCommunities(c.Context, req.Prompt, req.Keywords, req.Months, 8)
			}

			res, err := eng.Acquire(c.Context, *req)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			out := c.String("out")
			if out == "-" {
				if err := corpus.WriteJSONL(os.Stdout, res.Posts); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			} else if err := corpus.SaveJSONL(out, res.Posts); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			english := 0
			for _, p := range res.Posts {
				if corpus.HeuristicEnglish(p.Title + " " + p.Selftext) {
					english++
				}
			}

			summary := map[string]any{
				"posts":      len(res.Posts),
				"raw":        res.Raw,
				"english":    english,
				"subreddits": req.Communities,
				"strategies": len(res.Strategies),
				"output":     out,
			}
			if res.RunID != "" {
				summary["run_id"] = res.RunID
			}
			return outputJSONTo(os.Stderr, summary)
		},
	}
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Probe the upstream endpoint and report per-query diagnostics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Research prompt"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Extra keywords"},
			&cli.StringFlag{Name: "subs", Usage: "Comma-separated subreddits to probe"},
			&cli.IntFlag{Name: "months", Aliases: []string{"m"}, Value: 12, Usage: "Lookback window in months"},
		},
		Action: func(c *cli.Context) error {
			eng, closeStore, err := buildEngine(c, "")
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer closeStore()

			results := eng.Check(c.Context, c.String("prompt"),
				joinKeywords(c.String("keywords")), splitList(c.String("subs")), c.Int("months"))
			return outputJSON(map[string]any{"probes": results})
		},
	}
}

// buildEngine assembles the engine from the global flags, opening the
// SQLite store when a db path is given.
func buildEngine(c *cli.Context, dbPath string) (*harvest.Engine, func(), error) {
	opts := harvest.Options{BaseURL: c.String("base-url")}

	if path := c.String("tables"); path != "" {
		tables, err := config.LoadTables(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load tables: %w", err)
		}
		opts.Tables = tables
	}
	if path := c.String("tunables"); path != "" {
		tun, err := config.LoadTunables(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load tunables: %w", err)
		}
		opts.Tunables = &tun
	}

	var st store.Store
	if dbPath != "" {
		var err error
		st, err = sqlite.Open(c.Context, dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		opts.Store = st
	}

	closeStore := func() {
		if st != nil {
			st.Close()
		}
	}
	return harvest.New(opts), closeStore, nil
}

// buildRequest merges the scrape flags with the seed plan, when one is
// given. Explicit flags win over plan values.
func buildRequest(c *cli.Context) (*harvest.AcquireRequest, error) {
	req := &harvest.AcquireRequest{
		Prompt:          c.String("prompt"),
		Keywords:        joinKeywords(c.String("keywords")),
		Communities:     canonicalAll(splitList(c.String("subs"))),
		Months:          c.Int("months"),
		MinUpvotes:      c.Int("min-upvotes"),
		PerAttemptLimit: c.Int("limit"),
		TargetVolume:    c.Int("target"),
		Filter: filter.Spec{
			Must:    splitList(c.String("must")),
			Should:  splitList(c.String("should")),
			Exclude: splitList(c.String("exclude")),
			Mode:    filter.Mode(c.String("mode")),
		},
	}

	if path := c.String("seed"); path != "" {
		plan, err := seed.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load seed plan: %w", err)
		}
		if req.Prompt == "" {
			req.Prompt = plan.Prompt
		}
		if req.Keywords == "" {
			req.Keywords = joinKeywordSlice(plan.CombinedKeywords())
		}
		if len(req.Communities) == 0 {
			req.Communities = plan.Communities()
		}
		if !c.IsSet("months") && plan.TimeframeMonths > 0 {
			req.Months = plan.TimeframeMonths
		}
		if !c.IsSet("min-upvotes") && plan.MinUpvotes > 0 {
			req.MinUpvotes = plan.MinUpvotes
		}
		if !hasFilterFlags(c) {
			req.Filter = plan.FilterSpec(filter.Mode(c.String("mode")))
		}
	}

	if req.Filter.Mode != filter.ModeAny && req.Filter.Mode != filter.ModeAll {
		return nil, fmt.Errorf("invalid mode %q: want any or all", req.Filter.Mode)
	}
	return req, nil
}

func hasFilterFlags(c *cli.Context) bool {
	return c.IsSet("must") || c.IsSet("should") || c.IsSet("exclude")
}

func canonicalAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if canon := corpus.CanonicalSubreddit(n); canon != "" {
			out = append(out, canon)
		}
	}
	return out
}

// joinKeywords normalizes the flag's accepted forms into one
// space-separated string for the tokenizer. Multi-word entries are quoted
// so they survive as phrases.
func joinKeywords(raw string) string {
	return joinKeywordSlice(seed.ParseKeywordList(raw))
}

func joinKeywordSlice(list []string) string {
	quoted := make([]string, len(list))
	for i, kw := range list {
		if strings.ContainsAny(kw, " \t") {
			kw = `"` + kw + `"`
		}
		quoted[i] = kw
	}
	return strings.Join(quoted, " ")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func outputJSON(v any) error {
	return outputJSONTo(os.Stdout, v)
}

func outputJSONTo(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
