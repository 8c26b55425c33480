package pinout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/catalog"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/netlist"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/solver"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/validate"
)

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	p, err := New(cat, nil, nil)
	require.NoError(t, err)
	return p
}

func injectedTypes(res *Result) []string {
	var out []string
	for _, in := range res.Injected {
		out = append(out, in.Type)
	}
	return out
}

func TestPlanLED(t *testing.T) {
	res, err := newPlanner(t).Plan(context.Background(), Request{
		Board:      "UNO_R3",
		Components: []string{"led"},
	})
	require.NoError(t, err)

	assert.Equal(t, "UNO_R3", res.Board)
	assert.Equal(t, []string{"resistor_220"}, injectedTypes(res))
	assert.Equal(t, "GND", res.Mapping["led_0.CATHODE"])

	anode := res.Mapping["led_0.ANODE"]
	require.NotEmpty(t, anode)
	assert.NotContains(t, []string{"D0", "D1"}, anode)
	assert.False(t, res.NeedsBreadboard)

	net, ok := res.Netlist.NetOf(netlist.Node{Ref: "UNO_R3", Pin: anode})
	require.True(t, ok)
	assert.Equal(t, anode, net.Name)
	assert.Contains(t, net.Nodes, netlist.Node{Ref: "led_0", Pin: "ANODE"})
}

func TestPlanRobotCar(t *testing.T) {
	res, err := newPlanner(t).Plan(context.Background(), Request{
		Board:      "UNO_R3",
		Components: []string{"hc_sr04"},
		Hint:       "obstacle avoiding robot car",
	})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"dc_motor", "dc_motor", "l298n", "battery_9v", "diode_1n4007", "diode_1n4007"},
		injectedTypes(res))
	assert.True(t, res.NeedsBreadboard)
	assert.Len(t, res.Instances, 7)

	m := res.Mapping
	assert.Equal(t, "l298n_0.VS", m["battery_9v_0.POS"])
	assert.Equal(t, "GND", m["battery_9v_0.NEG"])
	assert.Equal(t, "l298n_0.OUT1", m["dc_motor_0.T1"])
	assert.Equal(t, "dc_motor_1.T2", m["diode_1n4007_1.CATHODE"])

	uno, err := mustCatalog(t).LookupBoard("UNO_R3")
	require.NoError(t, err)
	for _, key := range []string{"l298n_0.ENA", "l298n_0.ENB"} {
		pin, ok := uno.Pin(m[key])
		require.True(t, ok, key)
		assert.True(t, pin.Has(hw.Pwm), "%s on %s", key, pin.ID)
	}
	assert.NotEqual(t, m["hc_sr04_0.TRIG"], m["hc_sr04_0.ECHO"])

	// Battery, driver supply and motors share nets through the driver.
	net, ok := res.Netlist.NetOf(netlist.Node{Ref: "battery_9v_0", Pin: "POS"})
	require.True(t, ok)
	assert.Contains(t, net.Nodes, netlist.Node{Ref: "l298n_0", Pin: "VS"})

	gnd, ok := res.Netlist.NetOf(netlist.Node{Ref: "UNO_R3", Pin: "GND"})
	require.True(t, ok)
	assert.Equal(t, "GND", gnd.Name)
	assert.Contains(t, gnd.Nodes, netlist.Node{Ref: "hc_sr04_0", Pin: "GND"})
	assert.Contains(t, gnd.Nodes, netlist.Node{Ref: "battery_9v_0", Pin: "NEG"})
}

func TestPlanStaticMobilityOverridesHint(t *testing.T) {
	res, err := newPlanner(t).Plan(context.Background(), Request{
		Board:      "UNO_R3",
		Components: []string{"hc_sr04"},
		Hint:       "robot car",
		Mobility:   inject.MobilityStatic,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Injected)
}

func TestPlanPreAssigned(t *testing.T) {
	p := newPlanner(t)
	res, err := p.Plan(context.Background(), Request{
		Board:       "UNO_R3",
		Components:  []string{"led", "led"},
		PreAssigned: hw.PinMapping{"led_1.ANODE": "D7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "D7", res.Mapping["led_1.ANODE"])
	assert.NotEqual(t, "D7", res.Mapping["led_0.ANODE"])

	// D2 is the first pin the search would try for led_0.
	res, err = p.Plan(context.Background(), Request{
		Board:       "UNO_R3",
		Components:  []string{"led", "led"},
		PreAssigned: hw.PinMapping{"led_1.ANODE": "D2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "D2", res.Mapping["led_1.ANODE"])
	assert.NotEqual(t, "D2", res.Mapping["led_0.ANODE"])

	_, err = p.Plan(context.Background(), Request{
		Board:       "UNO_R3",
		Components:  []string{"led"},
		PreAssigned: hw.PinMapping{"ghost_0.X": "D2", "led_0.GATE": "D3"},
	})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "pre-assignment", cerr.What)
	assert.Equal(t, []string{"ghost_0.X", "led_0.GATE"}, cerr.IDs)

	// The injector already grounds the driver on GND.
	_, err = p.Plan(context.Background(), Request{
		Board:       "UNO_R3",
		Components:  []string{"hc_sr04"},
		Mobility:    inject.MobilityWheeled,
		PreAssigned: hw.PinMapping{"l298n_0.GND": "GND2"},
	})
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"l298n_0.GND"}, cerr.IDs)
}

func TestPlanUnknownDefinitions(t *testing.T) {
	p := newPlanner(t)

	_, err := p.Plan(context.Background(), Request{Board: "MEGA", Components: []string{"led"}})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "board", cerr.What)
	assert.True(t, errors.Is(err, catalog.ErrUnknownBoard))

	_, err = p.Plan(context.Background(), Request{Board: "UNO_R3", Components: []string{"led", "lidar", "flux", "lidar"}})
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"lidar", "flux"}, cerr.IDs)
	assert.True(t, errors.Is(err, catalog.ErrUnknownComponent))
	assert.Contains(t, err.Error(), "lidar, flux")
}

func TestPlanMissingInjectedType(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.Rules.DriverType = "tb6612"
	p, err := New(cat, cfg, nil)
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), Request{Board: "UNO_R3", Components: []string{"dc_motor"}})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "injected component", cerr.What)
	assert.Equal(t, []string{"tb6612"}, cerr.IDs)
}

func TestPlanSolverFailure(t *testing.T) {
	buzzers := make([]string, 7)
	for i := range buzzers {
		buzzers[i] = "buzzer"
	}
	_, err := newPlanner(t).Plan(context.Background(), Request{Board: "UNO_R3", Components: buzzers})
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrPinShortage))
	f, ok := solver.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, solver.KindPinShortage, f.Kind)
	assert.False(t, errors.Is(err, validate.ErrInvalid))
}

func TestPlanAll(t *testing.T) {
	p := newPlanner(t)
	reqs := []Request{
		{Board: "UNO_R3", Components: []string{"ssd1306", "dht11"}},
		{Board: "NANO", Components: []string{"nrf24l01"}},
		{Board: "PRO_MINI_3V3", Components: []string{"pushbutton"}},
	}
	results, err := p.PlanAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, reqs[i].Board, res.Board)
	}
	assert.Equal(t, "A4", results[0].Mapping["ssd1306_0.SDA"])
	assert.Equal(t, "D13", results[1].Mapping["nrf24l01_0.SCK"])

	reqs = append(reqs, Request{Board: "MEGA"})
	_, err = p.PlanAll(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request 3 (MEGA)")
}

func TestRequestJSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{
		"board": "UNO_R3",
		"components": ["led"],
		"mobility": "wheeled",
		"pre_assigned": {"led_0.ANODE": "D8"}
	}`), &req))
	assert.Equal(t, inject.MobilityWheeled, req.Mobility)
	assert.Equal(t, "D8", req.PreAssigned["led_0.ANODE"])

	res, err := newPlanner(t).Plan(context.Background(), req)
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	for _, key := range []string{"board", "mapping", "injected", "parts", "nets", "needs_breadboard"} {
		assert.Contains(t, out, key)
	}
	assert.NotContains(t, out, "Instances")
	assert.True(t, strings.Contains(string(data), `"l298n"`))
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "dc_motor", cfg.Rules.MotorType)
	assert.Equal(t, solver.DefaultMaxBacktracks, cfg.Solver.MaxBacktracks)

	cfg = DefaultConfig()
	cfg.Rules.MaxParts = 0
	assert.Error(t, cfg.Validate())

	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestNewLeavesCallerConfig(t *testing.T) {
	shared := &solver.Config{MaxBacktracks: 0, TimerPolicy: solver.TimerStrict}
	cfg := &Config{Solver: shared, Rules: inject.DefaultRules()}
	_, err := New(mustCatalog(t), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, shared.MaxBacktracks, "caller's solver config must not be normalized in place")
	assert.Same(t, shared, cfg.Solver)
	assert.Equal(t, 0, cfg.Parallelism)
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}
