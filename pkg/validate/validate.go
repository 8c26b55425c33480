// Package validate re-checks a finished pin mapping against the board and
// the component definitions. It never looks at solver state: every rule is
// derived again from the board, the instances and the mapping alone.
package validate

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/erc"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// ErrInvalid is wrapped by Report.Err.
var ErrInvalid = errors.New("validate: mapping rejected")

// Report collects every problem found in one pass.
type Report struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the mapping passed.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns nil when the mapping passed, otherwise ErrInvalid joined with
// one error per problem.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := []error{ErrInvalid}
	for _, e := range r.Errors {
		errs = append(errs, errors.New(e))
	}
	return errors.Join(errs...)
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validator checks mappings. It is stateless apart from its logger.
type Validator struct {
	logger *log.Logger
}

// New creates a validator. ERC warnings are written to logger; nil discards.
func New(logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Validator{logger: logger}
}

// entry is one mapping key resolved against the instance list.
type entry struct {
	key    string
	target string
	req    hw.PinRequirement
	known  bool
}

// Validate runs every check and returns the accumulated report.
func (v *Validator) Validate(board *hw.Board, instances []hw.Instance, mapping hw.PinMapping) *Report {
	rep := &Report{}
	if board == nil {
		rep.errorf("no board")
		return rep
	}

	byID := make(map[string]*hw.Component, len(instances))
	for _, inst := range instances {
		byID[inst.ID] = inst.Component
	}

	entries := make([]entry, 0, len(mapping))
	for _, key := range mapping.Keys() {
		e := entry{key: key, target: mapping[key]}
		id, pin, ok := hw.SplitKey(key)
		c, exists := byID[id]
		if !ok || !exists {
			rep.errorf("%s does not belong to any instance", key)
		} else if c != nil {
			// Terminals without a requirement (motor leads) are wiring only.
			e.req, e.known = c.Requirement(pin)
		}
		entries = append(entries, e)
	}

	v.checkCompleteness(rep, instances, mapping)
	v.checkTargets(rep, board, entries)
	v.checkExclusive(rep, board, entries)
	v.checkI2C(rep, board, entries)
	v.checkCurrent(rep, board, instances)
	v.checkElectrical(rep, board, byID, entries)

	for _, w := range rep.Warnings {
		v.logger.Printf("warning: %s", w)
	}
	return rep
}

// checkCompleteness requires every mandatory pin of every instance to be
// mapped.
func (v *Validator) checkCompleteness(rep *Report, instances []hw.Instance, mapping hw.PinMapping) {
	for _, inst := range instances {
		if inst.Component == nil {
			continue
		}
		for _, r := range inst.Component.Pins {
			if _, ok := mapping[hw.Key(inst.ID, r.Name)]; !ok && !r.Optional {
				rep.errorf("%s is not connected", hw.Key(inst.ID, r.Name))
			}
		}
	}
}

// checkTargets looks at each entry on its own: the target must exist, must
// offer the required capability, must not be a UART pin, and a PWM
// requirement must land on a PWM pin.
func (v *Validator) checkTargets(rep *Report, board *hw.Board, entries []entry) {
	for _, e := range entries {
		if hw.IsComponentTarget(board, e.target) {
			continue
		}
		pin, ok := board.Pin(e.target)
		if !ok {
			rep.errorf("%s -> %s: no such pin on %s", e.key, e.target, board.ID)
			continue
		}
		if pin.Has(hw.UartTx) || pin.Has(hw.UartRx) {
			rep.errorf("%s -> %s: UART pins are reserved for the serial console", e.key, e.target)
		}
		if !e.known {
			continue
		}
		if e.req.Capability == hw.Pwm && !pin.Has(hw.Pwm) {
			rep.errorf("%s -> %s: PWM requirement on a pin without PWM", e.key, e.target)
		} else if !pin.Has(e.req.Capability) {
			rep.errorf("%s -> %s: pin offers %s, requirement needs %s", e.key, e.target, pin.Caps, e.req.Capability)
		}
	}
}

// checkExclusive rejects any board pin shared by two entries unless every
// entry on it is a shared-bus requirement.
func (v *Validator) checkExclusive(rep *Report, board *hw.Board, entries []entry) {
	users := make(map[string][]entry)
	for _, e := range entries {
		if hw.IsComponentTarget(board, e.target) {
			continue
		}
		users[e.target] = append(users[e.target], e)
	}

	pins := make([]string, 0, len(users))
	for p := range users {
		pins = append(pins, p)
	}
	sort.Strings(pins)

	for _, p := range pins {
		es := users[p]
		if len(es) < 2 {
			continue
		}
		shared := true
		keys := make([]string, len(es))
		for i, e := range es {
			keys[i] = e.key
			if !e.known || !e.req.Capability.IsSharedBus() {
				shared = false
			}
		}
		if !shared {
			rep.errorf("pin %s is driven by %d connections: %s", p, len(es), strings.Join(keys, ", "))
		}
	}
}

// checkI2C requires both bus lines to appear once any I2C requirement does.
func (v *Validator) checkI2C(rep *Report, board *hw.Board, entries []entry) {
	present := false
	targets := make(map[string]bool, len(entries))
	for _, e := range entries {
		targets[e.target] = true
		if e.known && e.req.Capability.IsI2C() {
			present = true
		}
	}
	if !present {
		return
	}
	for _, c := range []hw.Capability{hw.I2cSda, hw.I2cScl} {
		pin, ok := board.FirstWith(c)
		if !ok {
			rep.errorf("I2C in use but %s has no %s pin", board.ID, c)
			continue
		}
		if !targets[pin.ID] {
			rep.errorf("I2C in use but %s (%s) is not connected", pin.ID, c)
		}
	}
}

func (v *Validator) checkCurrent(rep *Report, board *hw.Board, instances []hw.Instance) {
	var total float64
	for _, inst := range instances {
		if inst.Component != nil && !inst.Component.ExternalPower {
			total += inst.Component.CurrentMA
		}
	}
	if total > board.MaxCurrentMA {
		rep.errorf("board-powered draw %.0fmA exceeds %s budget of %.0fmA", total, board.ID, board.MaxCurrentMA)
	}
}

// checkElectrical runs the rule checker over every connection. A
// component-to-component entry is checked against the other requirement's
// type when both ends declare one.
func (v *Validator) checkElectrical(rep *Report, board *hw.Board, byID map[string]*hw.Component, entries []entry) {
	for _, e := range entries {
		var (
			other    hw.ElectricalType
			toGround bool
		)
		if hw.IsComponentTarget(board, e.target) {
			id, name, _ := hw.SplitKey(e.target)
			c, exists := byID[id]
			if !exists {
				rep.errorf("%s -> %s: no such instance", e.key, e.target)
				continue
			}
			if c == nil || !e.known {
				continue
			}
			r, ok := c.Requirement(name)
			if !ok {
				continue
			}
			other, toGround = r.Type, r.Capability == hw.Ground
		} else {
			if !e.known {
				continue
			}
			pin, ok := board.Pin(e.target)
			if !ok {
				continue
			}
			other, toGround = pin.Type, pin.Has(hw.Ground)
		}

		if e.req.Capability == hw.Ground && toGround {
			continue
		}
		switch erc.Check(e.req.Type, other) {
		case erc.Error:
			rep.errorf("%s -> %s: %s", e.key, e.target, erc.Explain(e.req.Type, other))
		case erc.Warning:
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s -> %s: %s", e.key, e.target, erc.Explain(e.req.Type, other)))
		}
	}
}
