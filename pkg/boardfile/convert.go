package boardfile

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// ToBoards converts every board in the file. Board ids must be unique
// within one file.
func (f *File) ToBoards() ([]*hw.Board, error) {
	seen := make(map[string]bool, len(f.Boards))
	boards := make([]*hw.Board, 0, len(f.Boards))
	for _, decl := range f.Boards {
		if seen[decl.ID] {
			return nil, fmt.Errorf("boardfile: %s: board %s declared twice", decl.Pos, decl.ID)
		}
		seen[decl.ID] = true
		b, err := decl.ToBoard()
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// ToBoard checks the declaration and builds the board. Logic voltage
// defaults to the supply voltage.
func (d *BoardDecl) ToBoard() (*hw.Board, error) {
	if d.EndID != "" && d.EndID != d.ID {
		return nil, fmt.Errorf("boardfile: %s: board %s closed by end %s", d.Pos, d.ID, d.EndID)
	}

	b := &hw.Board{ID: d.ID, Name: d.ID}
	pins := make(map[string]bool)
	timed := make(map[string]string)
	for _, s := range d.Statements {
		switch {
		case s.Name != nil:
			b.Name = *s.Name
		case s.Supply != nil:
			b.SupplyVoltage = *s.Supply
		case s.Logic != nil:
			b.LogicVoltage = *s.Logic
		case s.MaxCurrent != nil:
			b.MaxCurrentMA = *s.MaxCurrent
		case s.Pin != nil:
			p, err := s.Pin.toPin()
			if err != nil {
				return nil, fmt.Errorf("boardfile: %s: %w", s.Pos, err)
			}
			if pins[p.ID] {
				return nil, fmt.Errorf("boardfile: %s: pin %s declared twice", s.Pos, p.ID)
			}
			pins[p.ID] = true
			b.Pins = append(b.Pins, p)
		case s.Timer != nil:
			for _, pin := range s.Timer.Pins {
				if other, dup := timed[pin]; dup {
					return nil, fmt.Errorf("boardfile: %s: pin %s already driven by %s", s.Pos, pin, other)
				}
				timed[pin] = s.Timer.Name
			}
			b.Timers = append(b.Timers, hw.Timer{Name: s.Timer.Name, Pins: append([]string(nil), s.Timer.Pins...)})
		}
	}

	for _, t := range b.Timers {
		for _, pin := range t.Pins {
			if !pins[pin] {
				return nil, fmt.Errorf("boardfile: %s: timer %s names unknown pin %s", d.Pos, t.Name, pin)
			}
		}
	}
	if b.SupplyVoltage <= 0 {
		return nil, fmt.Errorf("boardfile: %s: board %s has no supply voltage", d.Pos, d.ID)
	}
	if b.MaxCurrentMA <= 0 {
		return nil, fmt.Errorf("boardfile: %s: board %s has no max_current", d.Pos, d.ID)
	}
	if b.LogicVoltage == 0 {
		b.LogicVoltage = b.SupplyVoltage
	}
	if len(b.Pins) == 0 {
		return nil, fmt.Errorf("boardfile: %s: board %s declares no pins", d.Pos, d.ID)
	}
	return b, nil
}

func (p *PinDecl) toPin() (hw.Pin, error) {
	typ, err := hw.ParseElectricalType(p.Type)
	if err != nil {
		return hw.Pin{}, fmt.Errorf("pin %s: %w", p.ID, err)
	}
	var caps hw.CapabilitySet
	for _, name := range p.Caps {
		c, err := hw.ParseCapability(name)
		if err != nil {
			return hw.Pin{}, fmt.Errorf("pin %s: %w", p.ID, err)
		}
		caps = caps.With(c)
	}
	return hw.Pin{ID: p.ID, Type: typ, Caps: caps}, nil
}
