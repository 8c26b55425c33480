package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

type consumer struct {
	id      string
	current float64
}

// checkCurrent sums the draw of every part powered from the board.
func checkCurrent(board *hw.Board, instances []hw.Instance) *Failure {
	var total float64
	var consumers []consumer
	for _, inst := range instances {
		c := inst.Component
		if c == nil || c.ExternalPower {
			continue
		}
		total += c.CurrentMA
		consumers = append(consumers, consumer{id: inst.ID, current: c.CurrentMA})
	}
	if total <= board.MaxCurrentMA {
		return nil
	}

	sort.SliceStable(consumers, func(i, j int) bool {
		return consumers[i].current > consumers[j].current
	})
	if len(consumers) > 3 {
		consumers = consumers[:3]
	}
	ids := make([]string, len(consumers))
	parts := make([]string, len(consumers))
	for i, c := range consumers {
		ids[i] = c.id
		parts[i] = fmt.Sprintf("%s %.0fmA", c.id, c.current)
	}
	return &Failure{
		Kind: KindPowerBudget,
		Message: fmt.Sprintf("board-powered draw %.0fmA exceeds %s budget of %.0fmA (top consumers: %s)",
			total, board.ID, board.MaxCurrentMA, strings.Join(parts, ", ")),
		Components: ids,
	}
}

// checkVoltage verifies the supply range first and the signal level second,
// so a part that cannot be powered at all is reported as such.
func checkVoltage(board *hw.Board, instances []hw.Instance) *Failure {
	var ids, parts []string
	for _, inst := range instances {
		c := inst.Component
		if c == nil || c.ExternalPower || c.Passive() {
			continue
		}
		if board.SupplyVoltage < c.MinVoltage || board.SupplyVoltage > c.MaxVoltage {
			ids = append(ids, inst.ID)
			parts = append(parts, fmt.Sprintf("%s needs %.1f-%.1fV", inst.ID, c.MinVoltage, c.MaxVoltage))
		}
	}
	if len(ids) > 0 {
		return &Failure{
			Kind: KindVoltage,
			Message: fmt.Sprintf("%s supplies %.1fV: %s",
				board.ID, board.SupplyVoltage, strings.Join(parts, "; ")),
			Components: ids,
		}
	}

	for _, inst := range instances {
		c := inst.Component
		if c == nil || c.ExternalPower || c.Passive() {
			continue
		}
		if limit := c.LogicLimit(); board.LogicVoltage > limit {
			ids = append(ids, inst.ID)
			parts = append(parts, fmt.Sprintf("%s tolerates %.1fV signals", inst.ID, limit))
		}
	}
	if len(ids) > 0 {
		return &Failure{
			Kind: KindLogicLevel,
			Message: fmt.Sprintf("%s drives %.1fV logic: %s (add a level shifter)",
				board.ID, board.LogicVoltage, strings.Join(parts, "; ")),
			Components: ids,
		}
	}
	return nil
}

// checkSufficiency compares, per capability, the mandatory requirements
// against the usable board pins. It is a necessary condition only: pins with
// several capabilities are counted once per capability.
func (st *state) checkSufficiency() *Failure {
	needed := make(map[hw.Capability][]string)
	for _, sl := range st.slots {
		if sl.req.Optional {
			continue
		}
		needed[sl.req.Capability] = append(needed[sl.req.Capability], sl.key)
	}

	for _, c := range hw.Capabilities {
		keys := needed[c]
		if len(keys) == 0 {
			continue
		}
		var avail []string
		for i, p := range st.board.Pins {
			if !st.usable(i, c) {
				continue
			}
			if st.reserved[i] && !c.IsSharedBus() {
				continue
			}
			avail = append(avail, p.ID)
		}
		if c.IsSharedBus() {
			if len(avail) == 0 {
				return &Failure{
					Kind:         KindPinShortage,
					Message:      fmt.Sprintf("%s has no %s pin for %s", st.board.ID, c, strings.Join(keys, ", ")),
					Capability:   c.String(),
					Requirements: keys,
					Components:   instancesOf(keys),
				}
			}
			continue
		}
		if len(keys) > len(avail) {
			return &Failure{
				Kind: KindPinShortage,
				Message: fmt.Sprintf("%d requirement(s) need %s but %s has %d usable %s pin(s) %v: %s",
					len(keys), c, st.board.ID, len(avail), c, avail, strings.Join(keys, ", ")),
				Capability:   c.String(),
				Requirements: keys,
				Components:   instancesOf(keys),
				Pins:         avail,
			}
		}
	}
	return nil
}

func instancesOf(keys []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		id, _, ok := hw.SplitKey(k)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
