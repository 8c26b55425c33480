// Package inject infers the support parts a build needs before pins are
// assigned: drive motors and their driver, a battery, current-limiting
// resistors and flyback diodes, along with the wiring those parts imply.
package inject

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Lookup resolves catalog component types. The catalog satisfies it.
type Lookup interface {
	Component(typeID string) (*hw.Component, bool)
}

// Injection is one support part added by a rule.
type Injection struct {
	Type       string  `json:"type"`
	InstanceID string  `json:"instance_id"`
	Role       hw.Role `json:"role"`
	Reason     string  `json:"reason"`
}

// Result is the outcome of running every rule once.
type Result struct {
	Injected        []Injection   `json:"injected"`
	PreAssigned     hw.PinMapping `json:"pre_assigned"`
	NeedsBreadboard bool          `json:"needs_breadboard"`
	Advisories      []string      `json:"advisories,omitempty"`
}

// Injector applies the dependency rules. It holds no per-request state and
// may be shared between goroutines.
type Injector struct {
	lookup   Lookup
	rules    Rules
	mobility *regexp.Regexp
}

// New creates an injector. lookup may be nil, in which case injected parts
// contribute no current and no pins to the projections.
func New(lookup Lookup, rules Rules) *Injector {
	inj := &Injector{lookup: lookup, rules: rules}
	if len(rules.MobilityKeywords) > 0 {
		words := make([]string, len(rules.MobilityKeywords))
		for i, w := range rules.MobilityKeywords {
			words[i] = regexp.QuoteMeta(w)
		}
		inj.mobility = regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	}
	return inj
}

// part is one entry of the projected component set.
type part struct {
	id   string
	typ  string
	role hw.Role
	comp *hw.Component
}

// run carries the projected set while the rules are applied.
type run struct {
	inj    *Injector
	board  *hw.Board
	parts  []part
	ords   hw.Ordinals
	result *Result
}

// Inject runs the rules in order over board and instances. The instances
// slice is not modified.
func (inj *Injector) Inject(board *hw.Board, instances []hw.Instance, hint string, mobility Mobility) *Result {
	r := &run{
		inj:   inj,
		board: board,
		parts: make([]part, 0, len(instances)+4),
		ords:  hw.OrdinalsOf(instances),
		result: &Result{
			PreAssigned: make(hw.PinMapping),
		},
	}
	for _, inst := range instances {
		p := part{id: inst.ID, typ: inst.Type(), comp: inst.Component}
		if inst.Component != nil {
			p.role = inst.Component.Role
		}
		r.parts = append(r.parts, p)
	}

	r.mobilityRule(hint, mobility)
	r.driverRule()
	r.powerRule()
	r.passiveRules()
	r.breadboardRule()
	return r.result
}

// WheeledHint reports whether hint reads like a wheeled chassis.
func (inj *Injector) WheeledHint(hint string) bool {
	return inj.mobility != nil && inj.mobility.MatchString(hint)
}

func (r *run) add(typ string, role hw.Role, reason string) part {
	p := part{id: r.ords.Next(typ), typ: typ, role: role}
	if r.inj.lookup != nil {
		if c, ok := r.inj.lookup.Component(typ); ok {
			p.comp = c
		}
	}
	r.parts = append(r.parts, p)
	r.result.Injected = append(r.result.Injected, Injection{
		Type:       typ,
		InstanceID: p.id,
		Role:       role,
		Reason:     reason,
	})
	return p
}

func (r *run) withRole(role hw.Role) []part {
	var out []part
	for _, p := range r.parts {
		if p.role == role {
			out = append(out, p)
		}
	}
	return out
}

func (r *run) advise(format string, args ...any) {
	r.result.Advisories = append(r.result.Advisories, fmt.Sprintf(format, args...))
}

func (r *run) mobilityRule(hint string, mobility Mobility) {
	wheeled := mobility == MobilityWheeled ||
		(mobility == MobilityUnknown && r.inj.WheeledHint(hint))
	if !wheeled {
		return
	}
	for n := len(r.withRole(hw.RoleMotor)); n < r.inj.rules.DriveMotors; n++ {
		r.add(r.inj.rules.MotorType, hw.RoleMotor, "wheeled chassis needs drive motors")
	}
}

func (r *run) driverRule() {
	if len(r.withRole(hw.RoleMotor)) == 0 || len(r.withRole(hw.RoleMotorDriver)) > 0 {
		return
	}
	r.add(r.inj.rules.DriverType, hw.RoleMotorDriver, "drive motors need an H-bridge driver")
}

func (r *run) powerRule() {
	var draw float64
	heavy := false
	for _, p := range r.parts {
		switch p.role {
		case hw.RoleMotor, hw.RoleMotorDriver, hw.RoleServo:
			heavy = true
		}
		if p.comp != nil && !p.comp.ExternalPower {
			draw += p.comp.CurrentMA
		}
	}
	if draw <= r.board.MaxCurrentMA && !heavy {
		return
	}

	var battery part
	if existing := r.withRole(hw.RoleBattery); len(existing) > 0 {
		battery = existing[0]
	} else {
		reason := "actuators need an external supply"
		if draw > r.board.MaxCurrentMA {
			reason = fmt.Sprintf("board-powered draw %.0fmA exceeds %s budget %.0fmA",
				draw, r.board.ID, r.board.MaxCurrentMA)
		}
		battery = r.add(r.inj.rules.BatteryType, hw.RoleBattery, reason)
	}

	rules := r.inj.rules
	pre := r.result.PreAssigned
	gnd, hasGround := r.board.FirstWith(hw.Ground)
	if hasGround {
		pre[hw.Key(battery.id, rules.BatteryNegative)] = gnd.ID
	} else {
		r.advise("%s has no ground pin: wire %s.%s manually", r.board.ID, battery.id, rules.BatteryNegative)
	}

	drivers := r.withRole(hw.RoleMotorDriver)
	if len(drivers) == 0 {
		if vin, ok := r.board.FirstWith(hw.PowerVin); ok {
			pre[hw.Key(battery.id, rules.BatteryPositive)] = vin.ID
		} else {
			r.advise("%s has no unregulated input: wire %s.%s manually", r.board.ID, battery.id, rules.BatteryPositive)
		}
		return
	}

	driver := drivers[0]
	pre[hw.Key(battery.id, rules.BatteryPositive)] = hw.Key(driver.id, rules.DriverSupply)
	if hasGround {
		pre[hw.Key(driver.id, rules.DriverGround)] = gnd.ID
	}
	for n, motor := range r.withRole(hw.RoleMotor) {
		if 2*n+1 >= len(rules.DriverOutputs) {
			break
		}
		pre[hw.Key(motor.id, rules.MotorTerminals[0])] = hw.Key(driver.id, rules.DriverOutputs[2*n])
		pre[hw.Key(motor.id, rules.MotorTerminals[1])] = hw.Key(driver.id, rules.DriverOutputs[2*n+1])
	}
}

func (r *run) passiveRules() {
	missing := len(r.withRole(hw.RoleLED)) - len(r.withRole(hw.RoleResistor))
	for i := 0; i < missing; i++ {
		r.add(r.inj.rules.ResistorType, hw.RoleResistor, "LED needs a current-limiting resistor")
	}

	rules := r.inj.rules
	motors := r.withRole(hw.RoleMotor)
	diodes := len(r.withRole(hw.RoleDiode))
	for i := diodes; i < len(motors); i++ {
		motor := motors[i]
		d := r.add(rules.DiodeType, hw.RoleDiode, "flyback protection for "+motor.id)
		r.result.PreAssigned[hw.Key(d.id, rules.DiodeAnode)] = hw.Key(motor.id, rules.MotorTerminals[0])
		r.result.PreAssigned[hw.Key(d.id, rules.DiodeCathode)] = hw.Key(motor.id, rules.MotorTerminals[1])
	}
}

func (r *run) breadboardRule() {
	fiveVoltLimit, groundLimit := r.board.RailLimits()
	fiveVolt, ground := 0, 0
	for _, p := range r.parts {
		if p.comp == nil {
			continue
		}
		if p.comp.Needs(hw.Power5V) {
			fiveVolt++
		}
		if p.comp.Needs(hw.Ground) {
			ground++
		}
	}

	var why []string
	if fiveVolt > fiveVoltLimit {
		why = append(why, fmt.Sprintf("%d parts need 5V but %s has %d 5V pin(s)", fiveVolt, r.board.ID, fiveVoltLimit))
	}
	if ground > groundLimit {
		why = append(why, fmt.Sprintf("%d parts need ground but %s has %d GND pin(s)", ground, r.board.ID, groundLimit))
	}
	if r.inj.rules.MaxParts > 0 && len(r.parts) > r.inj.rules.MaxParts {
		why = append(why, fmt.Sprintf("%d parts exceed %d", len(r.parts), r.inj.rules.MaxParts))
	}
	if len(why) == 0 {
		return
	}
	r.result.NeedsBreadboard = true
	r.advise("breadboard recommended: %s", strings.Join(why, "; "))
}
