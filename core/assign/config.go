package assign

import (
	"errors"
	"fmt"
	"time"
)

// PoolGrowth selects what happens to a trip no car can take.
type PoolGrowth string

const (
	// PoolFixed drops the trip. The pool never grows.
	PoolFixed PoolGrowth = "fixed"
	// PoolDynamic opens a new overflow car, as in classic interval
	// partitioning.
	PoolDynamic PoolGrowth = "dynamic"
)

var (
	// ErrNegativeMinDuration is returned for a negative minimum trip duration.
	ErrNegativeMinDuration = errors.New("min duration must not be negative")
	// ErrUnknownPoolGrowth is returned for an unsupported pool growth mode.
	ErrUnknownPoolGrowth = errors.New("unknown pool growth")
)

// Config defines assignment settings.
type Config struct {
	// MinDuration drops trips strictly shorter than it. Zero keeps every trip.
	MinDuration time.Duration `json:"min_duration"`
	// PoolGrowth defaults to PoolFixed.
	PoolGrowth PoolGrowth `json:"pool_growth"`
	// OverflowPrefix names cars opened with PoolDynamic.
	OverflowPrefix string `json:"overflow_prefix"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PoolGrowth == "" {
		c.PoolGrowth = PoolFixed
	}
	if c.OverflowPrefix == "" {
		c.OverflowPrefix = "overflow"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.MinDuration < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeMinDuration, c.MinDuration)
	}
	switch c.PoolGrowth {
	case PoolFixed, PoolDynamic:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPoolGrowth, c.PoolGrowth)
	}
	return nil
}
