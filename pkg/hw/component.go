package hw

import "fmt"

// Role classifies a component for the injection and timer rules.
type Role int

const (
	RoleGeneric Role = iota
	RoleLED
	RoleResistor
	RoleDiode
	RoleMotor
	RoleMotorDriver
	RoleServo
	RoleBuzzer
	RoleRadio
	RoleBattery
	RoleSensor
	RoleDisplay
)

func (r Role) String() string {
	switch r {
	case RoleGeneric:
		return "generic"
	case RoleLED:
		return "led"
	case RoleResistor:
		return "resistor"
	case RoleDiode:
		return "diode"
	case RoleMotor:
		return "motor"
	case RoleMotorDriver:
		return "motor_driver"
	case RoleServo:
		return "servo"
	case RoleBuzzer:
		return "buzzer"
	case RoleRadio:
		return "radio"
	case RoleBattery:
		return "battery"
	case RoleSensor:
		return "sensor"
	case RoleDisplay:
		return "display"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps a role name to its value.
func ParseRole(s string) (Role, error) {
	switch normalizeName(s) {
	case "", "generic":
		return RoleGeneric, nil
	case "led":
		return RoleLED, nil
	case "resistor":
		return RoleResistor, nil
	case "diode":
		return RoleDiode, nil
	case "motor":
		return RoleMotor, nil
	case "motordriver", "driver":
		return RoleMotorDriver, nil
	case "servo":
		return RoleServo, nil
	case "buzzer":
		return RoleBuzzer, nil
	case "radio":
		return RoleRadio, nil
	case "battery":
		return RoleBattery, nil
	case "sensor":
		return RoleSensor, nil
	case "display":
		return RoleDisplay, nil
	}
	return RoleGeneric, fmt.Errorf("hw: unknown role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	v, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Protocol is the communication protocol a component speaks.
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolI2C
	ProtocolSPI
	ProtocolUART
	ProtocolOneWire
	ProtocolBitBang
)

func (p Protocol) String() string {
	switch p {
	case ProtocolNone:
		return "none"
	case ProtocolI2C:
		return "i2c"
	case ProtocolSPI:
		return "spi"
	case ProtocolUART:
		return "uart"
	case ProtocolOneWire:
		return "onewire"
	case ProtocolBitBang:
		return "bitbang"
	}
	return fmt.Sprintf("Protocol(%d)", int(p))
}

// ParseProtocol maps a protocol name to its value.
func ParseProtocol(s string) (Protocol, error) {
	switch normalizeName(s) {
	case "", "none":
		return ProtocolNone, nil
	case "i2c":
		return ProtocolI2C, nil
	case "spi":
		return ProtocolSPI, nil
	case "uart", "serial":
		return ProtocolUART, nil
	case "onewire":
		return ProtocolOneWire, nil
	case "bitbang":
		return ProtocolBitBang, nil
	}
	return ProtocolNone, fmt.Errorf("hw: unknown protocol %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Protocol) UnmarshalText(text []byte) error {
	v, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// PinRequirement is one named connection a component needs.
type PinRequirement struct {
	Name       string         `json:"name" yaml:"name"`
	Capability Capability     `json:"capability" yaml:"capability"`
	Type       ElectricalType `json:"type" yaml:"type"`
	Optional   bool           `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Component is a catalog part definition.
type Component struct {
	Type          string           `json:"type" yaml:"type"`
	Name          string           `json:"name,omitempty" yaml:"name,omitempty"`
	Role          Role             `json:"role" yaml:"role"`
	Protocol      Protocol         `json:"protocol" yaml:"protocol"`
	CurrentMA     float64          `json:"current_ma" yaml:"current_ma"`
	PeakCurrentMA float64          `json:"peak_current_ma,omitempty" yaml:"peak_current_ma,omitempty"`
	MinVoltage    float64          `json:"min_voltage" yaml:"min_voltage"`
	MaxVoltage    float64          `json:"max_voltage" yaml:"max_voltage"`
	LogicVoltage  float64          `json:"logic_voltage,omitempty" yaml:"logic_voltage,omitempty"`
	ExternalPower bool             `json:"external_power,omitempty" yaml:"external_power,omitempty"`
	Pins          []PinRequirement `json:"pins" yaml:"pins"`
}

// Passive reports parts that carry no supply-voltage constraint: resistors,
// diodes, batteries and anything without a declared range.
func (c *Component) Passive() bool {
	switch c.Role {
	case RoleResistor, RoleDiode, RoleBattery:
		return true
	}
	return c.MinVoltage == 0 && c.MaxVoltage == 0
}

// LogicLimit is the highest signal voltage the component tolerates.
func (c *Component) LogicLimit() float64 {
	if c.LogicVoltage > 0 {
		return c.LogicVoltage
	}
	return c.MaxVoltage
}

// Peak returns the worst-case spike current.
func (c *Component) Peak() float64 {
	if c.PeakCurrentMA > c.CurrentMA {
		return c.PeakCurrentMA
	}
	return c.CurrentMA
}

// Requirement looks up a pin requirement by name.
func (c *Component) Requirement(name string) (PinRequirement, bool) {
	for _, r := range c.Pins {
		if r.Name == name {
			return r, true
		}
	}
	return PinRequirement{}, false
}

// Needs reports whether any requirement asks for capability cap.
func (c *Component) Needs(cap Capability) bool {
	for _, r := range c.Pins {
		if r.Capability == cap {
			return true
		}
	}
	return false
}

// UsesI2C reports an I2C component by protocol or by pin needs.
func (c *Component) UsesI2C() bool {
	return c.Protocol == ProtocolI2C || c.Needs(I2cSda) || c.Needs(I2cScl)
}

// UsesSPI reports an SPI component by protocol or by pin needs.
func (c *Component) UsesSPI() bool {
	if c.Protocol == ProtocolSPI {
		return true
	}
	for _, r := range c.Pins {
		if r.Capability.IsSPI() {
			return true
		}
	}
	return false
}
