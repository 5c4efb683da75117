package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"arq/internal/ratelimit/models"
)

// DefaultSweepInterval is how often expired window entries are reaped.
const DefaultSweepInterval = 60 * time.Second

// Config holds the policy table and sweep cadence.
type Config struct {
	Policies      map[models.EndpointClass]models.Policy
	SweepInterval time.Duration
}

// DefaultConfig returns the built-in policy table.
func DefaultConfig() *Config {
	return &Config{
		Policies: map[models.EndpointClass]models.Policy{
			models.ClassAuth:      {MaxRequests: 5, Window: 15 * time.Minute},
			models.ClassChat:      {MaxRequests: 20, Window: time.Minute},
			models.ClassAPI:       {MaxRequests: 60, Window: time.Minute},
			models.ClassSensitive: {MaxRequests: 10, Window: time.Hour},
		},
		SweepInterval: DefaultSweepInterval,
	}
}

// Policy returns the policy for class.
func (c *Config) Policy(class models.EndpointClass) (models.Policy, bool) {
	p, ok := c.Policies[class]
	return p, ok
}

// ApplyOverrides parses "class=N/window,..." (e.g. "auth=3/10m,chat=40/1m")
// and replaces the matching defaults. Unknown classes and malformed entries
// are errors; the table is left untouched on error.
func (c *Config) ApplyOverrides(raw string) error {
	overrides, err := ParsePolicies(raw)
	if err != nil {
		return err
	}
	for class, p := range overrides {
		c.Policies[class] = p
	}
	return nil
}

// ParsePolicies parses the override syntax without applying it.
func ParsePolicies(raw string) (map[models.EndpointClass]models.Policy, error) {
	out := make(map[models.EndpointClass]models.Policy)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rule, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("rate limit policy %q: expected class=N/window", entry)
		}
		class := models.EndpointClass(strings.TrimSpace(name))
		if !class.IsValid() {
			return nil, fmt.Errorf("rate limit policy %q: unknown class %q", entry, class)
		}
		countStr, windowStr, ok := strings.Cut(strings.TrimSpace(rule), "/")
		if !ok {
			return nil, fmt.Errorf("rate limit policy %q: expected N/window", entry)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return nil, fmt.Errorf("rate limit policy %q: %w", entry, err)
		}
		window, err := time.ParseDuration(strings.TrimSpace(windowStr))
		if err != nil {
			return nil, fmt.Errorf("rate limit policy %q: %w", entry, err)
		}
		p := models.Policy{MaxRequests: count, Window: window}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("rate limit policy %q: %w", entry, err)
		}
		out[class] = p
	}
	return out, nil
}

// Sorted returns the classes of the table in a stable order, for display.
func (c *Config) Sorted() []models.EndpointClass {
	classes := make([]models.EndpointClass, 0, len(c.Policies))
	for class := range c.Policies {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
