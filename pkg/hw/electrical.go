package hw

import (
	"fmt"
	"strings"
)

// ElectricalType is the electrical role of a pin, used by the rule checker.
// The declaration order is the total order used to normalise pairs.
type ElectricalType int

const (
	Unspecified ElectricalType = iota
	Input
	Output
	Bidirectional
	PowerIn
	PowerOut
	Passive
)

// ElectricalTypes lists every electrical type in total order.
var ElectricalTypes = []ElectricalType{
	Unspecified, Input, Output, Bidirectional, PowerIn, PowerOut, Passive,
}

func (t ElectricalType) String() string {
	switch t {
	case Unspecified:
		return "unspecified"
	case Input:
		return "input"
	case Output:
		return "output"
	case Bidirectional:
		return "bidirectional"
	case PowerIn:
		return "power_in"
	case PowerOut:
		return "power_out"
	case Passive:
		return "passive"
	}
	return fmt.Sprintf("ElectricalType(%d)", int(t))
}

// ParseElectricalType accepts the canonical names plus the port-mode style
// aliases (in, out, inout, bidir).
func ParseElectricalType(s string) (ElectricalType, error) {
	switch normalizeName(s) {
	case "", "unspecified":
		return Unspecified, nil
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	case "bidirectional", "bidir", "inout":
		return Bidirectional, nil
	case "powerin":
		return PowerIn, nil
	case "powerout":
		return PowerOut, nil
	case "passive":
		return Passive, nil
	}
	return Unspecified, fmt.Errorf("hw: unknown electrical type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ElectricalType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ElectricalType) UnmarshalText(text []byte) error {
	v, err := ParseElectricalType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// normalizeName lowercases and strips separators so "Power_In", "power-in"
// and "powerin" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
