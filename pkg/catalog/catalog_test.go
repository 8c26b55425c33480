package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
)

var _ inject.Lookup = (*Catalog)(nil)
var _ Repository = (*Catalog)(nil)
var _ Repository = (*MemoryRepository)(nil)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	uno, ok := cat.Board("UNO_R3")
	require.True(t, ok)
	assert.Equal(t, "Arduino Uno R3", uno.Name)
	assert.Equal(t, 500.0, uno.MaxCurrentMA)
	assert.Equal(t, 5.0, uno.LogicVoltage)
	assert.Len(t, uno.PinsWith(hw.Pwm), 6)
	assert.Equal(t, 20, uno.CountWith(hw.Digital))

	five, ground := uno.RailLimits()
	assert.Equal(t, 1, five)
	assert.Equal(t, 3, ground)
	assert.Equal(t, "TIMER1", uno.TimerTable()["D10"])

	nano, ok := cat.Board("NANO")
	require.True(t, ok)
	a7, ok := nano.Pin("A7")
	require.True(t, ok)
	assert.False(t, a7.Has(hw.Digital))
	assert.Equal(t, 5.0, nano.LogicVoltage, "logic defaults to supply")

	// Every part the injector may add must be present.
	rules := inject.DefaultRules()
	for _, typ := range []string{rules.MotorType, rules.DriverType, rules.BatteryType, rules.ResistorType, rules.DiodeType} {
		_, ok := cat.Component(typ)
		assert.True(t, ok, "missing injected type %s", typ)
	}

	servo, ok := cat.Component("sg90")
	require.True(t, ok)
	assert.Equal(t, hw.RoleServo, servo.Role)
	assert.Equal(t, 650.0, servo.Peak())

	oled, ok := cat.Component("ssd1306")
	require.True(t, ok)
	assert.True(t, oled.UsesI2C())
	sda, ok := oled.Requirement("SDA")
	require.True(t, ok)
	assert.Equal(t, hw.I2cSda, sda.Capability)
	assert.Equal(t, hw.Bidirectional, sda.Type)

	driver, ok := cat.Component("l298n")
	require.True(t, ok)
	assert.True(t, driver.Needs(hw.Power5V), "5V pin name parses as a string")

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, cat, again)
}

func TestDefaultConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	cats := make([]*Catalog, 8)
	for i := range cats {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cats[i], _ = Default()
		}(i)
	}
	wg.Wait()
	for _, c := range cats {
		assert.Same(t, cats[0], c)
	}
}

func TestResolve(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	comps, err := cat.Resolve([]string{"led", "ir_sensor", "led"})
	require.NoError(t, err)
	require.Len(t, comps, 3)
	assert.Same(t, comps[0], comps[2])

	_, err = cat.Resolve([]string{"led", "flux_capacitor", "warp_core"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownComponent))
	assert.Contains(t, err.Error(), "flux_capacitor")
	assert.Contains(t, err.Error(), "warp_core")

	_, err = cat.LookupBoard("ESP32")
	assert.ErrorIs(t, err, ErrUnknownBoard)
	assert.Contains(t, err.Error(), "UNO_R3")
}

func TestParseComponents(t *testing.T) {
	data := []byte(`
components:
  - type: relay
    role: generic
    current_ma: 70
    min_voltage: 4.5
    max_voltage: 5.5
    pins:
      - {name: IN, capability: digital, type: in}
      - {name: VCC, capability: 5v, type: power_in}
      - {name: GND, capability: gnd, type: power_in}
`)
	cf, err := ParseComponents(data)
	require.NoError(t, err)
	assert.Equal(t, "1", cf.Version)
	require.Len(t, cf.Components, 1)

	relay := cf.Components[0]
	assert.Equal(t, "relay", relay.Name, "name defaults to type")
	require.Len(t, relay.Pins, 3)
	assert.Equal(t, hw.Input, relay.Pins[0].Type)
	assert.Equal(t, hw.Power5V, relay.Pins[1].Capability)
	assert.Equal(t, hw.Ground, relay.Pins[2].Capability)

	out, err := MarshalComponents(cf)
	require.NoError(t, err)
	back, err := ParseComponents(out)
	require.NoError(t, err)
	assert.Equal(t, cf, back)
}

func TestParseComponentsErrors(t *testing.T) {
	cases := map[string]string{
		"unknown capability": "components:\n  - type: x\n    pins:\n      - {name: A, capability: warp}\n",
		"duplicate type":     "components:\n  - type: x\n  - type: x\n",
		"duplicate pin":      "components:\n  - type: x\n    pins:\n      - {name: A}\n      - {name: A}\n",
		"missing type":       "components:\n  - role: led\n",
		"inverted voltage":   "components:\n  - type: x\n    min_voltage: 5\n    max_voltage: 3\n",
		"bad version":        "version: \"2\"\ncomponents: []\n",
		"unknown role":       "components:\n  - type: x\n    role: wizard\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseComponents([]byte(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "catalog: ")
		})
	}
}

func TestMemoryRepositoryLoadDir(t *testing.T) {
	dir := t.TempDir()
	board := `board TINY is supply 3.3; max_current 100; pin P1 : bidirectional (digital, pwm); pin G : power_out (ground); end TINY;`
	parts := "components:\n  - type: led\n    name: override\n    pins:\n      - {name: A, capability: digital, type: input}\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.board"), []byte(board), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "parts.yml"), []byte(parts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	repo := NewMemoryRepository()
	require.NoError(t, repo.LoadDefaults())
	require.NoError(t, repo.LoadDir(dir))

	b, ok := repo.Board("TINY")
	require.True(t, ok)
	assert.Equal(t, 3.3, b.LogicVoltage)

	led, ok := repo.Component("led")
	require.True(t, ok)
	assert.Equal(t, "override", led.Name, "later files replace earlier definitions")

	cat, err := repo.Catalog()
	require.NoError(t, err)
	boards := cat.Boards()
	require.NotEmpty(t, boards)
	assert.Equal(t, "UNO_R3", boards[0].ID, "load order is kept")
	assert.Equal(t, "TINY", boards[len(boards)-1].ID)
	assert.Equal(t, "led", cat.Components()[0].Type)
}

func TestLoadFilesErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.board")
	require.NoError(t, os.WriteFile(bad, []byte("board X is"), 0o644))

	repo := NewMemoryRepository()
	err := repo.LoadFiles(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.board")

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	assert.Error(t, repo.LoadFiles(txt))
	assert.Error(t, repo.LoadFiles(filepath.Join(dir, "missing.yaml")))
}

func TestNewRejectsDuplicates(t *testing.T) {
	b := &hw.Board{ID: "B"}
	_, err := New([]*hw.Board{b, b}, nil)
	assert.Error(t, err)

	c := &hw.Component{Type: "c"}
	_, err = New(nil, []*hw.Component{c, c})
	assert.Error(t, err)
}
