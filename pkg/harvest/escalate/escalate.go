// Package escalate orchestrates the acquisition ladder: precise parameters
// first, then progressively wider time windows and lower upvote thresholds
// until the target volume is reached or the ladder runs out. Escalation
// trades precision for recall only when the narrow attempts under-deliver,
// so a prompt with plenty of recent data never triggers a broad scrape.
package escalate

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/esaXD/reddit-scraping/pkg/harvest/config"
	"github.com/esaXD/reddit-scraping/pkg/harvest/corpus"
	"github.com/esaXD/reddit-scraping/pkg/harvest/retrieve"
	"github.com/esaXD/reddit-scraping/pkg/harvest/strategy"
)

// Attempt is one rung of the ladder.
type Attempt struct {
	Label      string
	Months     int
	MinUpvotes int
}

// Ladder builds the attempt sequence for the given base parameters:
//
//  1. base window, base threshold
//  2. same window, threshold halved (skipped when the base threshold is
//     already at or below the floor)
//  3. window doubled (floored), threshold halved again
//  4. window tripled (higher floor), threshold zero
func Ladder(baseMonths, baseMinUpvotes int, tun config.Tunables) []Attempt {
	if baseMonths < 1 {
		baseMonths = 1
	}
	if baseMinUpvotes < 0 {
		baseMinUpvotes = 0
	}

	attempts := []Attempt{{Label: "base", Months: baseMonths, MinUpvotes: baseMinUpvotes}}

	upvotes := baseMinUpvotes
	if baseMinUpvotes > tun.MinUpvoteFloor {
		upvotes = baseMinUpvotes / 2
		attempts = append(attempts, Attempt{Label: "lower-upvotes", Months: baseMonths, MinUpvotes: upvotes})
	}

	olderMonths := baseMonths * 2
	if olderMonths < tun.EscalationMonthFloor {
		olderMonths = tun.EscalationMonthFloor
	}
	attempts = append(attempts, Attempt{Label: "older-window", Months: olderMonths, MinUpvotes: upvotes / 2})

	broadMonths := baseMonths * 3
	if broadMonths < tun.BroadMonthFloor {
		broadMonths = tun.BroadMonthFloor
	}
	attempts = append(attempts, Attempt{Label: "broad", Months: broadMonths, MinUpvotes: 0})

	return attempts
}

// Request carries the acquisition parameters.
type Request struct {
	Communities     []string
	Strategies      []strategy.Strategy
	BaseMonths      int
	BaseMinUpvotes  int
	PerAttemptLimit int // raw item cap per query
	TargetVolume    int // ladder stops once the corpus reaches this size
}

// Controller runs the ladder against the retrieval client.
type Controller struct {
	client *retrieve.Client
	tun    config.Tunables
	logger *log.Logger
}

// New wires a Controller. nil logger selects a stderr logger.
func New(client *retrieve.Client, tun config.Tunables, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(os.Stderr, "[escalate] ", log.LstdFlags)
	}
	return &Controller{client: client, tun: tun, logger: logger}
}

// Acquire executes the ladder and returns the accumulated, id-deduplicated
// corpus. Running out of attempts below target is not an error: whatever
// accumulated is the final corpus. Within each attempt the community pass
// runs before the keyword pass, which is why community-sourced posts win
// ties in the final ordering.
func (c *Controller) Acquire(ctx context.Context, req Request) corpus.Corpus {
	var acc corpus.Corpus
	seen := make(map[string]struct{})

	merge := func(posts []corpus.Post) int {
		added := 0
		for _, p := range posts {
			if p.ID == "" {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			acc = append(acc, p)
			added++
		}
		return added
	}

	for _, attempt := range Ladder(req.BaseMonths, req.BaseMinUpvotes, c.tun) {
		if ctx.Err() != nil {
			break
		}
		after := retrieve.MonthsAgo(attempt.Months)

		added := c.communityPass(ctx, req, attempt, after, merge)
		if len(req.Strategies) > 0 && (req.TargetVolume <= 0 || len(acc) < req.TargetVolume) {
			added += c.keywordPass(ctx, req, attempt, after, merge)
		}

		c.logger.Printf("attempt %s: months=%d min_upvotes=%d added=%d total=%d",
			attempt.Label, attempt.Months, attempt.MinUpvotes, added, len(acc))

		if req.TargetVolume > 0 && len(acc) >= req.TargetVolume {
			c.logger.Printf("target volume %d reached after attempt %s", req.TargetVolume, attempt.Label)
			break
		}
	}
	return acc
}

// communityPass runs one paginated query per community.
func (c *Controller) communityPass(ctx context.Context, req Request, attempt Attempt, after int64, merge func([]corpus.Post) int) int {
	added := 0
	for _, community := range req.Communities {
		if ctx.Err() != nil {
			break
		}
		name := strings.TrimPrefix(corpus.CanonicalSubreddit(community), "r/")
		if name == "" {
			continue
		}
		posts := c.client.Fetch(ctx, retrieve.Query{Subreddit: name, After: after}, retrieve.FetchOptions{
			MaxItems: req.PerAttemptLimit,
			MinScore: attempt.MinUpvotes,
			Source:   "community/" + attempt.Label,
		})
		n := merge(posts)
		added += n
		c.logger.Printf("attempt %s community r/%s: fetched=%d kept=%d", attempt.Label, name, len(posts), n)
	}
	return added
}

// keywordPass tries each strategy in priority order and stops at the first
// that yields data for this attempt, or once enough has accumulated.
func (c *Controller) keywordPass(ctx context.Context, req Request, attempt Attempt, after int64, merge func([]corpus.Post) int) int {
	added := 0
	for _, strat := range req.Strategies {
		if ctx.Err() != nil {
			break
		}
		posts := c.client.Fetch(ctx, retrieve.Query{Q: strat.Query(), After: after}, retrieve.FetchOptions{
			MaxItems: req.PerAttemptLimit,
			MinScore: attempt.MinUpvotes,
			Source:   "keyword/" + attempt.Label,
		})
		n := merge(posts)
		added += n
		c.logger.Printf("attempt %s strategy %s: fetched=%d kept=%d", attempt.Label, strat.Name, len(posts), n)
		if len(posts) > 0 {
			break
		}
	}
	return added
}
