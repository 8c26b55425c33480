package pinout

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/solver"
)

// Config controls the planner.
type Config struct {
	Solver *solver.Config // Search budget and timer policy
	Rules  inject.Rules   // Support-part rules

	// PlanAll settings
	Parallelism int // Requests planned at once (default: 4)
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() *Config {
	return &Config{
		Solver:      solver.DefaultConfig(),
		Rules:       inject.DefaultRules(),
		Parallelism: 4,
	}
}

// Validate fills unset values and rejects invalid ones.
func (c *Config) Validate() error {
	if c.Solver == nil {
		c.Solver = solver.DefaultConfig()
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if c.Rules.MotorType == "" {
		c.Rules = inject.DefaultRules()
	}
	if c.Rules.MaxParts < 1 {
		return fmt.Errorf("pinout: max parts must be at least 1, got %d", c.Rules.MaxParts)
	}
	if c.Parallelism < 1 {
		c.Parallelism = 4
	}
	return nil
}
