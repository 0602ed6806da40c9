package simcache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeShared      Mode = "shared"
	ModePerCustomer Mode = "per_customer"
	ModeDisabled    Mode = "disabled"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// ExhaustedPolicy decides what happens when every cached candidate was already viewed.
type ExhaustedPolicy string

const (
	PolicyNotFound ExhaustedPolicy = "not_found"
	PolicyRefresh  ExhaustedPolicy = "refresh"
)

const (
	DefaultTTL    = 24 * time.Hour
	DefaultPrefix = "movierec:similar"
)

type Config struct {
	Mode            Mode            `yaml:"mode"`
	Backend         Backend         `yaml:"backend"`
	TTL             time.Duration   `yaml:"ttl"`
	Prefix          string          `yaml:"prefix"`
	ExhaustedPolicy ExhaustedPolicy `yaml:"exhausted_policy"`
}

func DefaultConfig() Config {
	return Config{
		Mode:            ModeShared,
		Backend:         BackendPostgres,
		TTL:             DefaultTTL,
		Prefix:          DefaultPrefix,
		ExhaustedPolicy: PolicyNotFound,
	}
}

func (c Config) Enabled() bool {
	return c.Mode != ModeDisabled
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeShared, ModePerCustomer, ModeDisabled:
	default:
		return fmt.Errorf("similarity cache: unknown mode %q", c.Mode)
	}
	switch c.Backend {
	case BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("similarity cache: unknown backend %q", c.Backend)
	}
	switch c.ExhaustedPolicy {
	case PolicyNotFound, PolicyRefresh:
	default:
		return fmt.Errorf("similarity cache: unknown exhausted policy %q", c.ExhaustedPolicy)
	}
	if c.Enabled() && c.TTL <= 0 {
		return fmt.Errorf("similarity cache: ttl must be > 0")
	}
	// the movie row holds one list per favourite, so it cannot key by customer
	if c.Mode == ModePerCustomer && c.Backend != BackendRedis {
		return fmt.Errorf("similarity cache: mode %q requires the %q backend", c.Mode, BackendRedis)
	}
	return nil
}

// Result of a lookup. Candidates is only set on a hit.
type Result struct {
	Hit        bool
	Candidates []string
}

type Cache interface {
	Lookup(ctx context.Context, key string) (Result, error)
	// Store overwrites the entry for key, stamped with the current time.
	Store(ctx context.Context, key string, candidates []string) error
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

// Key builds the cache key for a favourite under the given mode.
func Key(mode Mode, customerID, favouriteID string) string {
	if mode == ModePerCustomer {
		return strings.TrimSpace(customerID) + "|" + strings.TrimSpace(favouriteID)
	}
	return strings.TrimSpace(favouriteID)
}

// fresh reports whether an entry stamped at lastUpdated is still valid.
// An entry exactly ttl old is expired.
func fresh(candidates []string, lastUpdated, now time.Time, ttl time.Duration) bool {
	if len(candidates) == 0 || lastUpdated.IsZero() {
		return false
	}
	return now.Sub(lastUpdated) < ttl
}
