package hw

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Capability is one function a board pin can perform.
type Capability int

const (
	Digital Capability = iota
	Analog
	Pwm
	I2cSda
	I2cScl
	SpiMosi
	SpiMiso
	SpiSck
	UartTx
	UartRx
	Power5V
	Power3V3
	PowerVin
	Ground

	numCapabilities
)

// Capabilities lists every capability in declaration order.
var Capabilities = []Capability{
	Digital, Analog, Pwm, I2cSda, I2cScl, SpiMosi, SpiMiso, SpiSck,
	UartTx, UartRx, Power5V, Power3V3, PowerVin, Ground,
}

func (c Capability) String() string {
	switch c {
	case Digital:
		return "Digital"
	case Analog:
		return "Analog"
	case Pwm:
		return "Pwm"
	case I2cSda:
		return "I2cSda"
	case I2cScl:
		return "I2cScl"
	case SpiMosi:
		return "SpiMosi"
	case SpiMiso:
		return "SpiMiso"
	case SpiSck:
		return "SpiSck"
	case UartTx:
		return "UartTx"
	case UartRx:
		return "UartRx"
	case Power5V:
		return "Power5V"
	case Power3V3:
		return "Power3V3"
	case PowerVin:
		return "PowerVin"
	case Ground:
		return "Ground"
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// ParseCapability is case-insensitive and ignores '_' and '-', so "i2c_sda",
// "I2C-SDA" and "I2cSda" are equivalent. "gnd" and "vin" are accepted aliases.
func ParseCapability(s string) (Capability, error) {
	switch normalizeName(s) {
	case "digital", "gpio":
		return Digital, nil
	case "analog", "adc":
		return Analog, nil
	case "pwm":
		return Pwm, nil
	case "i2csda", "sda":
		return I2cSda, nil
	case "i2cscl", "scl":
		return I2cScl, nil
	case "spimosi", "mosi":
		return SpiMosi, nil
	case "spimiso", "miso":
		return SpiMiso, nil
	case "spisck", "sck":
		return SpiSck, nil
	case "uarttx", "tx":
		return UartTx, nil
	case "uartrx", "rx":
		return UartRx, nil
	case "power5v", "5v":
		return Power5V, nil
	case "power3v3", "3v3":
		return Power3V3, nil
	case "powervin", "vin":
		return PowerVin, nil
	case "ground", "gnd":
		return Ground, nil
	}
	return Digital, fmt.Errorf("hw: unknown capability %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capability) UnmarshalText(text []byte) error {
	v, err := ParseCapability(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// IsSharedBus reports whether many component pins may land on the same board
// pin for this capability.
func (c Capability) IsSharedBus() bool {
	switch c {
	case Power5V, Power3V3, PowerVin, Ground, I2cSda, I2cScl:
		return true
	case Digital, Analog, Pwm, SpiMosi, SpiMiso, SpiSck, UartTx, UartRx:
		return false
	}
	return false
}

// IsPower reports power rails and ground.
func (c Capability) IsPower() bool {
	switch c {
	case Power5V, Power3V3, PowerVin, Ground:
		return true
	}
	return false
}

// IsI2C reports the two I2C bus lines.
func (c Capability) IsI2C() bool {
	return c == I2cSda || c == I2cScl
}

// IsSPI reports the three SPI bus lines.
func (c Capability) IsSPI() bool {
	return c == SpiMosi || c == SpiMiso || c == SpiSck
}

// IsUART reports the hardware serial lines.
func (c Capability) IsUART() bool {
	return c == UartTx || c == UartRx
}

// Tier orders exclusive requirements for the search: hard bus-protocol
// signal lines first, then PWM, analog and plain digital. Shared-bus
// capabilities never enter the search and report 0.
func (c Capability) Tier() int {
	switch c {
	case SpiMosi, SpiMiso, SpiSck, UartTx, UartRx:
		return 1
	case Pwm:
		return 2
	case Analog:
		return 3
	case Digital:
		return 4
	case Power5V, Power3V3, PowerVin, Ground, I2cSda, I2cScl:
		return 0
	}
	return 4
}

// CapabilitySet is a bit set of capabilities.
type CapabilitySet uint32

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	if c < 0 || c >= numCapabilities {
		return false
	}
	return s&(1<<uint(c)) != 0
}

// With returns the set with c added.
func (s CapabilitySet) With(c Capability) CapabilitySet {
	if c < 0 || c >= numCapabilities {
		return s
	}
	return s | 1<<uint(c)
}

// List returns the members in declaration order.
func (s CapabilitySet) List() []Capability {
	var out []Capability
	for _, c := range Capabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	caps := s.List()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// MarshalJSON writes the set as a list of capability names.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	caps := s.List()
	if caps == nil {
		caps = []Capability{}
	}
	return json.Marshal(caps)
}

// UnmarshalJSON reads a list of capability names.
func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var caps []Capability
	if err := json.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("hw: capability set: %w", err)
	}
	*s = NewCapabilitySet(caps...)
	return nil
}
