package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tunables carries the operational constants of the engine. The leniency
// threshold and the escalation floors were fixed numbers in early versions;
// they are configuration now so substitute values can be tested.
type Tunables struct {
	// Retriever
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	PageSleep   time.Duration `yaml:"page_sleep"`
	PageSize    int           `yaml:"page_size"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Discovery
	DiscoverPages    int `yaml:"discover_pages"`
	DiscoverPageSize int `yaml:"discover_page_size"`

	// Query building
	MaxTerms int `yaml:"max_terms"`

	// Escalation ladder
	MinUpvoteFloor       int `yaml:"min_upvote_floor"`
	EscalationMonthFloor int `yaml:"escalation_month_floor"`
	BroadMonthFloor      int `yaml:"broad_month_floor"`

	// Filtering
	LeniencyThreshold int `yaml:"leniency_threshold"`
}

// DefaultTunables returns production values.
func DefaultTunables() Tunables {
	return Tunables{
		MaxRetries:           3,
		BackoffBase:          600 * time.Millisecond,
		PageSleep:            300 * time.Millisecond,
		PageSize:             100,
		HTTPTimeout:          30 * time.Second,
		DiscoverPages:        8,
		DiscoverPageSize:     100,
		MaxTerms:             16,
		MinUpvoteFloor:       5,
		EscalationMonthFloor: 24,
		BroadMonthFloor:      36,
		LeniencyThreshold:    15,
	}
}

// LoadTunables reads a YAML tunables file over the defaults; zero-valued
// fields keep their defaults.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}

	var loaded Tunables
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return t, fmt.Errorf("parse tunables %s: %w", path, err)
	}

	if loaded.MaxRetries > 0 {
		t.MaxRetries = loaded.MaxRetries
	}
	if loaded.BackoffBase > 0 {
		t.BackoffBase = loaded.BackoffBase
	}
	if loaded.PageSleep > 0 {
		t.PageSleep = loaded.PageSleep
	}
	if loaded.PageSize > 0 {
		t.PageSize = loaded.PageSize
	}
	if loaded.HTTPTimeout > 0 {
		t.HTTPTimeout = loaded.HTTPTimeout
	}
	if loaded.DiscoverPages > 0 {
		t.DiscoverPages = loaded.DiscoverPages
	}
	if loaded.DiscoverPageSize > 0 {
		t.DiscoverPageSize = loaded.DiscoverPageSize
	}
	if loaded.MaxTerms > 0 {
		t.MaxTerms = loaded.MaxTerms
	}
	if loaded.MinUpvoteFloor > 0 {
		t.MinUpvoteFloor = loaded.MinUpvoteFloor
	}
	if loaded.EscalationMonthFloor > 0 {
		t.EscalationMonthFloor = loaded.EscalationMonthFloor
	}
	if loaded.BroadMonthFloor > 0 {
		t.BroadMonthFloor = loaded.BroadMonthFloor
	}
	if loaded.LeniencyThreshold > 0 {
		t.LeniencyThreshold = loaded.LeniencyThreshold
	}
	return t, nil
}
