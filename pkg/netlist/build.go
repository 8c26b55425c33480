package netlist

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Build wires a finished mapping into nets. Board ground pins are tied
// together since they share the board's ground plane, and nets that touch a
// board pin are named after it.
func Build(board *hw.Board, instances []hw.Instance, mapping hw.PinMapping) (*Netlist, error) {
	if board == nil {
		return nil, fmt.Errorf("netlist: nil board")
	}

	var nodes []Node
	for _, p := range board.Pins {
		nodes = append(nodes, Node{Ref: board.ID, Pin: p.ID})
	}
	known := make(map[string]bool, len(instances))
	for _, inst := range instances {
		known[inst.ID] = true
		if inst.Component == nil {
			continue
		}
		for _, r := range inst.Component.Pins {
			nodes = append(nodes, Node{Ref: inst.ID, Pin: r.Name})
		}
	}
	nl := NewNetlist(nodes)

	name := board.Name
	if name == "" {
		name = board.ID
	}
	nl.AddPart(board.ID, name)
	for _, inst := range instances {
		nl.AddPart(inst.ID, inst.Type())
	}

	var ground *Node
	for _, p := range board.Pins {
		n := Node{Ref: board.ID, Pin: p.ID}
		if p.Has(hw.Ground) {
			if ground == nil {
				ground = &n
				nl.Name(n, "GND")
			} else {
				nl.Connect(*ground, n)
			}
			continue
		}
		nl.Name(n, p.ID)
	}

	for _, key := range mapping.Keys() {
		id, pin, ok := hw.SplitKey(key)
		if !ok || !known[id] {
			return nil, fmt.Errorf("netlist: mapping key %s names no instance", key)
		}
		from := Node{Ref: id, Pin: pin}
		target := mapping[key]

		var to Node
		if hw.IsComponentTarget(board, target) {
			tid, tpin, _ := hw.SplitKey(target)
			if !known[tid] {
				return nil, fmt.Errorf("netlist: %s -> %s: no such instance", key, target)
			}
			to = Node{Ref: tid, Pin: tpin}
		} else {
			if _, ok := board.Pin(target); !ok {
				return nil, fmt.Errorf("netlist: %s -> %s: no such pin on %s", key, target, board.ID)
			}
			to = Node{Ref: board.ID, Pin: target}
		}
		nl.Connect(from, to)
	}

	nl.Finalize()
	return nl, nil
}
