// Package solver assigns component pin requirements to board pins.
//
// Solve runs the cheap pre-checks first (current budget, supply and logic
// voltage, per-capability pin counts), resolves shared-bus requirements
// directly, and then places the exclusive requirements with a depth-first
// backtracking search ordered by tier and by the number of candidate pins.
// The search is bounded by a backtrack budget and by the context; running
// out of either is reported as KindSearchExhausted, never as a partial
// mapping.
package solver

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/timer"
)

// Solution is a complete, conflict-free mapping.
type Solution struct {
	Mapping         hw.PinMapping `json:"mapping"`
	Backtracks      int           `json:"backtracks"`
	NeedsBreadboard bool          `json:"needs_breadboard"`
	Advisories      []string      `json:"advisories,omitempty"`
}

// Solver holds configuration only; every Solve call builds its own state,
// so one Solver may serve concurrent requests.
type Solver struct {
	cfg    Config
	logger *log.Logger
}

// New creates a solver. A nil cfg uses DefaultConfig and a nil logger
// discards output.
func New(cfg *Config, logger *log.Logger) *Solver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Solver{cfg: *cfg, logger: logger}
}

// slot is one requirement waiting for a board pin.
type slot struct {
	key      string
	instance hw.Instance
	req      hw.PinRequirement
}

// state is the per-request view of the board: which pins are reserved and
// which requirements are still open.
type state struct {
	cfg    *Config
	board  *hw.Board
	timers *timer.Registry

	slots    []slot
	reserved []bool // board pins already taken by pre-assignments, by index

	i2cPresent bool
	spiPresent bool
}

// usable reports whether board pin idx may carry capability c at all.
// UART pins are never usable; I2C and SPI pins are held back for their bus
// when a component on that bus is present.
func (st *state) usable(idx int, c hw.Capability) bool {
	p := st.board.Pins[idx]
	if !p.Has(c) {
		return false
	}
	if p.Has(hw.UartTx) || p.Has(hw.UartRx) {
		return false
	}
	if st.i2cPresent && !c.IsI2C() && (p.Has(hw.I2cSda) || p.Has(hw.I2cScl)) {
		return false
	}
	if st.spiPresent && !c.IsSPI() && (p.Has(hw.SpiMosi) || p.Has(hw.SpiMiso) || p.Has(hw.SpiSck)) {
		return false
	}
	return true
}

// candidates lists the board pins a slot may take, in board order.
func (st *state) candidates(sl slot) []int {
	var out []int
	for i := range st.board.Pins {
		if st.reserved[i] || !st.usable(i, sl.req.Capability) {
			continue
		}
		if st.cfg.TimerPolicy == TimerStrict && sl.req.Capability == hw.Pwm &&
			!st.timers.IsPinSafeForPwm(st.board.Pins[i].ID) && !st.timers.Owns(sl.instance.ID) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Solve assigns every requirement not already covered by pre. The returned
// mapping contains pre as well as the solved entries.
func (s *Solver) Solve(ctx context.Context, board *hw.Board, instances []hw.Instance, pre hw.PinMapping) (*Solution, error) {
	if board == nil {
		return nil, fmt.Errorf("solver: nil board")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if f := checkCurrent(board, instances); f != nil {
		return nil, f
	}
	if f := checkVoltage(board, instances); f != nil {
		return nil, f
	}

	st := &state{
		cfg:    &cfg,
		board:  board,
		timers: timer.FromBoard(board),
	}
	st.timers.Claim(instances)
	st.reserve(instances, pre)
	for _, inst := range instances {
		if inst.Component == nil {
			continue
		}
		if inst.Component.UsesI2C() {
			st.i2cPresent = true
		}
		if inst.Component.UsesSPI() {
			st.spiPresent = true
		}
		for _, r := range inst.Component.Pins {
			key := hw.Key(inst.ID, r.Name)
			if _, done := pre[key]; done {
				continue
			}
			st.slots = append(st.slots, slot{key: key, instance: inst, req: r})
		}
	}

	if f := st.checkSufficiency(); f != nil {
		return nil, f
	}

	sol := &Solution{Mapping: pre.Clone()}
	if sol.Mapping == nil {
		sol.Mapping = make(hw.PinMapping)
	}

	var exclusive, optional []slot
	for _, sl := range st.slots {
		switch {
		case sl.req.Capability.IsSharedBus():
			p, ok := st.firstUsable(sl.req.Capability)
			if !ok {
				// Only optional requirements get here; mandatory ones failed the sufficiency check.
				sol.advise(s.logger, "optional %s left unconnected: no %s pin", sl.key, sl.req.Capability)
				continue
			}
			sol.Mapping[sl.key] = p.ID
		case sl.req.Optional:
			optional = append(optional, sl)
		default:
			exclusive = append(exclusive, sl)
		}
	}

	srch := newSearch(ctx, st, exclusive, cfg.MaxBacktracks)
	ok, err := srch.place(0)
	sol.Backtracks = srch.backtracks
	if err != nil {
		return nil, srch.exhausted(err)
	}
	if !ok {
		return nil, srch.noFit()
	}
	for i, sl := range srch.slots {
		sol.Mapping[sl.key] = board.Pins[srch.assign[i]].ID
	}
	s.logger.Printf("solved %d exclusive requirement(s) on %s with %d backtrack(s)",
		len(srch.slots), board.ID, srch.backtracks)

	for _, sl := range optional {
		placed := false
		for _, idx := range st.candidates(sl) {
			if srch.used[idx] {
				continue
			}
			srch.used[idx] = true
			sol.Mapping[sl.key] = board.Pins[idx].ID
			placed = true
			break
		}
		if !placed {
			sol.advise(s.logger, "optional %s left unconnected: no free %s pin", sl.key, sl.req.Capability)
		}
	}

	s.advisories(st, instances, sol)
	return sol, nil
}

// reserve marks the board pins pre-assigned to exclusive requirements, and
// to wiring-only terminals, so the search never hands them out again.
func (st *state) reserve(instances []hw.Instance, pre hw.PinMapping) {
	st.reserved = make([]bool, len(st.board.Pins))
	byID := make(map[string]*hw.Component, len(instances))
	for _, inst := range instances {
		byID[inst.ID] = inst.Component
	}
	for _, key := range pre.Keys() {
		idx := st.board.PinIndex(pre[key])
		if idx < 0 {
			continue
		}
		if id, name, ok := hw.SplitKey(key); ok && byID[id] != nil {
			if r, ok := byID[id].Requirement(name); ok && r.Capability.IsSharedBus() {
				continue
			}
		}
		st.reserved[idx] = true
	}
}

func (st *state) firstUsable(c hw.Capability) (hw.Pin, bool) {
	for i, p := range st.board.Pins {
		if st.usable(i, c) {
			return p, true
		}
	}
	return hw.Pin{}, false
}

func (sol *Solution) advise(logger *log.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Print(msg)
	sol.Advisories = append(sol.Advisories, msg)
}

// advisories runs the non-fatal checks on a successful mapping.
func (s *Solver) advisories(st *state, instances []hw.Instance, sol *Solution) {
	board := st.board

	fiveVoltLimit, groundLimit := board.RailLimits()
	var fiveVolt, ground int
	for _, inst := range instances {
		if inst.Component == nil {
			continue
		}
		if inst.Component.Needs(hw.Power5V) {
			fiveVolt++
		}
		if inst.Component.Needs(hw.Ground) {
			ground++
		}
	}
	if fiveVolt > fiveVoltLimit {
		sol.NeedsBreadboard = true
		sol.advise(s.logger, "breadboard recommended: %d components share %d 5V pin(s)", fiveVolt, fiveVoltLimit)
	}
	if ground > groundLimit {
		sol.NeedsBreadboard = true
		sol.advise(s.logger, "breadboard recommended: %d components share %d GND pin(s)", ground, groundLimit)
	}

	var spike, other float64
	var servos []string
	for _, inst := range instances {
		c := inst.Component
		if c == nil || c.ExternalPower {
			continue
		}
		if c.Role == hw.RoleServo {
			spike += c.Peak()
			servos = append(servos, inst.ID)
		} else {
			other += c.CurrentMA
		}
	}
	if len(servos) > 0 && spike+other > board.MaxCurrentMA {
		sol.advise(s.logger, "brownout risk: servo spike %.0fmA (%s) plus %.0fmA other draw exceeds %s budget %.0fmA",
			spike, strings.Join(servos, ", "), other, board.ID, board.MaxCurrentMA)
	}

	if st.cfg.TimerPolicy == TimerAdvisory {
		for _, sl := range st.slots {
			if sl.req.Capability != hw.Pwm || st.timers.Owns(sl.instance.ID) {
				continue
			}
			pin, ok := sol.Mapping[sl.key]
			if !ok || st.timers.IsPinSafeForPwm(pin) {
				continue
			}
			counter, _ := st.timers.CounterOf(pin)
			sol.advise(s.logger, "timer conflict: %s on %s shares %s with %v; PWM output will not work",
				sl.key, pin, counter, st.timers.Reasons(counter))
		}
	}
}
