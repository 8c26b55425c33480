// Package timer tracks which shared hardware counters are taken over by
// servo, tone and bit-banged radio libraries, and therefore which PWM pins
// stop producing analogWrite output.
package timer

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Counters names the counter each library class claims.
type Counters struct {
	Servo string
	Tone  string
	Radio string
}

// DefaultCounters matches the AVR Servo, tone() and VirtualWire libraries.
func DefaultCounters() Counters {
	return Counters{Servo: "TIMER1", Tone: "TIMER2", Radio: "TIMER1"}
}

// Registry records hijacked counters for one resolved component set. A
// Registry is request-local.
type Registry struct {
	table    map[string]string // pin id -> counter
	counters Counters
	reasons  map[string][]string // counter -> instance ids
	owners   map[string]string   // instance id -> counter
}

// NewRegistry builds a registry over a pin -> counter table.
func NewRegistry(table map[string]string, counters Counters) *Registry {
	t := make(map[string]string, len(table))
	for pin, counter := range table {
		t[pin] = counter
	}
	return &Registry{
		table:    t,
		counters: counters,
		reasons:  make(map[string][]string),
		owners:   make(map[string]string),
	}
}

// FromBoard uses the timer declarations of the board.
func FromBoard(board *hw.Board) *Registry {
	return NewRegistry(board.TimerTable(), DefaultCounters())
}

// Claim marks the counters hijacked by the given instances. Several
// instances may claim the same counter.
func (r *Registry) Claim(instances []hw.Instance) {
	for _, inst := range instances {
		if inst.Component == nil {
			continue
		}
		counter := r.counterFor(inst.Component)
		if counter == "" {
			continue
		}
		r.reasons[counter] = append(r.reasons[counter], inst.ID)
		r.owners[inst.ID] = counter
	}
}

func (r *Registry) counterFor(c *hw.Component) string {
	switch c.Role {
	case hw.RoleServo:
		return r.counters.Servo
	case hw.RoleBuzzer:
		return r.counters.Tone
	case hw.RoleRadio:
		if c.Protocol == hw.ProtocolBitBang {
			return r.counters.Radio
		}
	}
	return ""
}

// IsPinSafeForPwm reports whether analogWrite on pinID still works. Pins not
// in the table are always safe.
func (r *Registry) IsPinSafeForPwm(pinID string) bool {
	counter, ok := r.table[pinID]
	if !ok {
		return true
	}
	return len(r.reasons[counter]) == 0
}

// CounterOf returns the counter driving pinID.
func (r *Registry) CounterOf(pinID string) (string, bool) {
	c, ok := r.table[pinID]
	return c, ok
}

// Hijacked returns the claimed counters in sorted order.
func (r *Registry) Hijacked() []string {
	out := make([]string, 0, len(r.reasons))
	for counter := range r.reasons {
		out = append(out, counter)
	}
	sort.Strings(out)
	return out
}

// Reasons lists the instances that claimed counter.
func (r *Registry) Reasons(counter string) []string {
	return append([]string(nil), r.reasons[counter]...)
}

// Owns reports whether instanceID hijacks a counter itself.
func (r *Registry) Owns(instanceID string) bool {
	_, ok := r.owners[instanceID]
	return ok
}

// Warnings describes every hijacked counter that drives at least one pin.
func (r *Registry) Warnings() []string {
	var out []string
	for _, counter := range r.Hijacked() {
		var pins []string
		for pin, c := range r.table {
			if c == counter {
				pins = append(pins, pin)
			}
		}
		if len(pins) == 0 {
			continue
		}
		sort.Strings(pins)
		out = append(out, fmt.Sprintf("%s claimed by %v: PWM unavailable on %v", counter, r.reasons[counter], pins))
	}
	return out
}
