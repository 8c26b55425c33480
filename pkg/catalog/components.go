package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// ComponentFile is the YAML form of a set of part definitions.
type ComponentFile struct {
	Version    string         `yaml:"version"`
	Components []hw.Component `yaml:"components"`
}

// LoadComponentFile loads and parses a YAML component file from the given path.
func LoadComponentFile(path string) (*ComponentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read component file %s: %w", path, err)
	}
	return ParseComponents(data)
}

// ParseComponents parses YAML data into a ComponentFile.
func ParseComponents(data []byte) (*ComponentFile, error) {
	var cf ComponentFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse component YAML: %w", err)
	}

	applyDefaults(&cf)

	if err := cf.validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cf *ComponentFile) {
	if cf.Version == "" {
		cf.Version = "1"
	}
	for i := range cf.Components {
		c := &cf.Components[i]
		if c.Name == "" {
			c.Name = c.Type
		}
	}
}

func (cf *ComponentFile) validate() error {
	if cf.Version != "1" {
		return fmt.Errorf("catalog: unsupported component file version %q", cf.Version)
	}
	seen := make(map[string]bool, len(cf.Components))
	for i := range cf.Components {
		c := &cf.Components[i]
		if c.Type == "" {
			return fmt.Errorf("catalog: component #%d has no type", i)
		}
		if seen[c.Type] {
			return fmt.Errorf("catalog: component %s defined twice", c.Type)
		}
		seen[c.Type] = true

		if c.CurrentMA < 0 || c.PeakCurrentMA < 0 {
			return fmt.Errorf("catalog: component %s: negative current", c.Type)
		}
		if c.MaxVoltage < c.MinVoltage {
			return fmt.Errorf("catalog: component %s: max_voltage %.1f below min_voltage %.1f", c.Type, c.MaxVoltage, c.MinVoltage)
		}
		pins := make(map[string]bool, len(c.Pins))
		for _, p := range c.Pins {
			if p.Name == "" {
				return fmt.Errorf("catalog: component %s: pin without name", c.Type)
			}
			if pins[p.Name] {
				return fmt.Errorf("catalog: component %s: pin %s defined twice", c.Type, p.Name)
			}
			pins[p.Name] = true
		}
	}
	return nil
}

// MarshalComponents serializes a ComponentFile to YAML.
func MarshalComponents(cf *ComponentFile) ([]byte, error) {
	return yaml.Marshal(cf)
}
