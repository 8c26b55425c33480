package inject

import (
	"fmt"
	"strings"
)

// Mobility is the caller's classification of the build.
type Mobility int

const (
	// MobilityUnknown defers to the hint text.
	MobilityUnknown Mobility = iota
	// MobilityStatic never triggers drive-motor injection.
	MobilityStatic
	// MobilityWheeled is a chassis with drive wheels.
	MobilityWheeled
)

func (m Mobility) String() string {
	switch m {
	case MobilityUnknown:
		return "unknown"
	case MobilityStatic:
		return "static"
	case MobilityWheeled:
		return "wheeled"
	}
	return fmt.Sprintf("Mobility(%d)", int(m))
}

// ParseMobility maps "unknown", "static" or "wheeled" to a Mobility.
func ParseMobility(s string) (Mobility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown", "auto":
		return MobilityUnknown, nil
	case "static", "stationary":
		return MobilityStatic, nil
	case "wheeled", "mobile", "vehicle":
		return MobilityWheeled, nil
	}
	return MobilityUnknown, fmt.Errorf("inject: unknown mobility %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mobility) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mobility) UnmarshalText(text []byte) error {
	v, err := ParseMobility(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Rules names the catalog parts and pins the injector wires up.
type Rules struct {
	MotorType    string
	DriverType   string
	BatteryType  string
	ResistorType string
	DiodeType    string

	BatteryPositive string
	BatteryNegative string
	DriverSupply    string
	DriverGround    string
	DriverOutputs   []string // two per motor channel
	MotorTerminals  [2]string
	DiodeAnode      string
	DiodeCathode    string

	DriveMotors int // motors a wheeled build needs
	MaxParts    int // parts before a breadboard is recommended

	MobilityKeywords []string
}

// DefaultRules wires an L298N, a 9V battery and 1N4007 flyback diodes.
func DefaultRules() Rules {
	return Rules{
		MotorType:    "dc_motor",
		DriverType:   "l298n",
		BatteryType:  "battery_9v",
		ResistorType: "resistor_220",
		DiodeType:    "diode_1n4007",

		BatteryPositive: "POS",
		BatteryNegative: "NEG",
		DriverSupply:    "VS",
		DriverGround:    "GND",
		DriverOutputs:   []string{"OUT1", "OUT2", "OUT3", "OUT4"},
		MotorTerminals:  [2]string{"T1", "T2"},
		DiodeAnode:      "ANODE",
		DiodeCathode:    "CATHODE",

		DriveMotors: 2,
		MaxParts:    5,

		MobilityKeywords: []string{
			"car", "cars", "rover", "chassis", "wheel", "wheels", "wheeled",
			"vehicle", "tank", "buggy", "drive", "driving", "4wd", "2wd",
		},
	}
}
