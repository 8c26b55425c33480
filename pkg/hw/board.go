package hw

// Pin is a physical connection point on a board.
type Pin struct {
	ID   string         `json:"id"`
	Type ElectricalType `json:"type"`
	Caps CapabilitySet  `json:"caps"`
}

// Has reports whether the pin offers capability c.
func (p Pin) Has(c Capability) bool {
	return p.Caps.Has(c)
}

// Timer declares a hardware counter and the PWM pins it drives.
type Timer struct {
	Name string   `json:"name"`
	Pins []string `json:"pins"`
}

// Board is a microcontroller target. Boards are catalog data and must not be
// modified once loaded.
type Board struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	SupplyVoltage float64 `json:"supply_voltage"`
	LogicVoltage  float64 `json:"logic_voltage"`
	MaxCurrentMA  float64 `json:"max_current_ma"`
	Pins          []Pin   `json:"pins"`
	Timers        []Timer `json:"timers,omitempty"`
}

// Pin returns the pin with the given identifier.
func (b *Board) Pin(id string) (Pin, bool) {
	for _, p := range b.Pins {
		if p.ID == id {
			return p, true
		}
	}
	return Pin{}, false
}

// PinIndex returns the position of the pin in Pins, or -1.
func (b *Board) PinIndex(id string) int {
	for i, p := range b.Pins {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PinsWith returns every pin offering c, in board order.
func (b *Board) PinsWith(c Capability) []Pin {
	var out []Pin
	for _, p := range b.Pins {
		if p.Has(c) {
			out = append(out, p)
		}
	}
	return out
}

// FirstWith returns the first pin offering c.
func (b *Board) FirstWith(c Capability) (Pin, bool) {
	for _, p := range b.Pins {
		if p.Has(c) {
			return p, true
		}
	}
	return Pin{}, false
}

// CountWith returns how many pins offer c.
func (b *Board) CountWith(c Capability) int {
	n := 0
	for _, p := range b.Pins {
		if p.Has(c) {
			n++
		}
	}
	return n
}

// TimerTable flattens the timer declarations into pin id -> counter name.
func (b *Board) TimerTable() map[string]string {
	table := make(map[string]string)
	for _, t := range b.Timers {
		for _, pin := range t.Pins {
			table[pin] = t.Name
		}
	}
	return table
}

// RailLimits returns how many five-volt and ground consumers the board
// headers can take directly before a breadboard is needed.
func (b *Board) RailLimits() (fiveVolt, ground int) {
	return b.CountWith(Power5V), b.CountWith(Ground)
}
