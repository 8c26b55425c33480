package solver

import (
	"fmt"
	"time"
)

// TimerPolicy decides what happens when a PWM requirement lands on a pin
// whose hardware counter was taken over by a servo, tone or radio library.
type TimerPolicy int

const (
	// TimerAdvisory assigns freely and reports conflicts as advisories.
	TimerAdvisory TimerPolicy = iota
	// TimerStrict removes hijacked pins from PWM candidates.
	TimerStrict
)

func (p TimerPolicy) String() string {
	switch p {
	case TimerAdvisory:
		return "advisory"
	case TimerStrict:
		return "strict"
	}
	return fmt.Sprintf("TimerPolicy(%d)", int(p))
}

// DefaultMaxBacktracks bounds the search when no budget is configured.
const DefaultMaxBacktracks = 10000

// Config controls the behavior of the solver.
type Config struct {
	// Search budget
	MaxBacktracks int           // Undone candidate placements before giving up (default: 10000)
	Timeout       time.Duration // Wall-clock budget for one Solve (default: 0, none)

	// Rule settings
	TimerPolicy TimerPolicy // Hijacked-counter handling (default: advisory)
}

// DefaultConfig returns a Config with the reference search budget.
func DefaultConfig() *Config {
	return &Config{
		MaxBacktracks: DefaultMaxBacktracks,
		Timeout:       0,
		TimerPolicy:   TimerAdvisory,
	}
}

// Validate normalizes out-of-range values.
func (c *Config) Validate() error {
	if c.MaxBacktracks < 1 {
		c.MaxBacktracks = DefaultMaxBacktracks
	}
	if c.Timeout < 0 {
		return fmt.Errorf("solver: negative timeout %s", c.Timeout)
	}
	switch c.TimerPolicy {
	case TimerAdvisory, TimerStrict:
	default:
		return fmt.Errorf("solver: unknown timer policy %d", int(c.TimerPolicy))
	}
	return nil
}
