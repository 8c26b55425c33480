package inject

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

type mapLookup map[string]*hw.Component

func (m mapLookup) Component(typ string) (*hw.Component, bool) {
	c, ok := m[typ]
	return c, ok
}

func req(name string, c hw.Capability, t hw.ElectricalType) hw.PinRequirement {
	return hw.PinRequirement{Name: name, Capability: c, Type: t}
}

func testCatalog() mapLookup {
	return mapLookup{
		"led": {Type: "led", Role: hw.RoleLED, CurrentMA: 20, MinVoltage: 1.8, MaxVoltage: 5.5,
			Pins: []hw.PinRequirement{req("ANODE", hw.Digital, hw.Input), req("CATHODE", hw.Ground, hw.PowerIn)}},
		"resistor_220": {Type: "resistor_220", Role: hw.RoleResistor},
		"dc_motor":     {Type: "dc_motor", Role: hw.RoleMotor, CurrentMA: 250, ExternalPower: true},
		"l298n": {Type: "l298n", Role: hw.RoleMotorDriver, CurrentMA: 36, MinVoltage: 4.5, MaxVoltage: 7,
			Pins: []hw.PinRequirement{
				req("ENA", hw.Pwm, hw.Input), req("ENB", hw.Pwm, hw.Input),
				req("IN1", hw.Digital, hw.Input), req("IN2", hw.Digital, hw.Input),
				req("IN3", hw.Digital, hw.Input), req("IN4", hw.Digital, hw.Input),
				req("VS", hw.PowerVin, hw.PowerIn), req("GND", hw.Ground, hw.PowerIn),
				req("5V", hw.Power5V, hw.PowerIn),
			}},
		"battery_9v": {Type: "battery_9v", Role: hw.RoleBattery, ExternalPower: true,
			Pins: []hw.PinRequirement{req("POS", hw.PowerVin, hw.PowerOut), req("NEG", hw.Ground, hw.PowerOut)}},
		"diode_1n4007": {Type: "diode_1n4007", Role: hw.RoleDiode,
			Pins: []hw.PinRequirement{req("ANODE", hw.Digital, hw.Passive), req("CATHODE", hw.Digital, hw.Passive)}},
		"sg90": {Type: "sg90", Role: hw.RoleServo, CurrentMA: 100, PeakCurrentMA: 650, MinVoltage: 4.8, MaxVoltage: 6,
			Pins: []hw.PinRequirement{req("SIG", hw.Pwm, hw.Input), req("VCC", hw.Power5V, hw.PowerIn), req("GND", hw.Ground, hw.PowerIn)}},
		"ir_sensor": {Type: "ir_sensor", Role: hw.RoleSensor, CurrentMA: 20, MinVoltage: 3.3, MaxVoltage: 5,
			Pins: []hw.PinRequirement{req("OUT", hw.Digital, hw.Output), req("VCC", hw.Power5V, hw.PowerIn), req("GND", hw.Ground, hw.PowerIn)}},
	}
}

func testBoard() *hw.Board {
	return &hw.Board{
		ID: "UNO", SupplyVoltage: 5, LogicVoltage: 5, MaxCurrentMA: 500,
		Pins: []hw.Pin{
			{ID: "D2", Type: hw.Bidirectional, Caps: hw.NewCapabilitySet(hw.Digital)},
			{ID: "5V", Type: hw.PowerOut, Caps: hw.NewCapabilitySet(hw.Power5V)},
			{ID: "GND", Type: hw.PowerOut, Caps: hw.NewCapabilitySet(hw.Ground)},
			{ID: "GND2", Type: hw.PowerOut, Caps: hw.NewCapabilitySet(hw.Ground)},
			{ID: "GND3", Type: hw.PowerOut, Caps: hw.NewCapabilitySet(hw.Ground)},
			{ID: "VIN", Type: hw.PowerIn, Caps: hw.NewCapabilitySet(hw.PowerVin)},
		},
	}
}

func instances(cat mapLookup, types ...string) []hw.Instance {
	comps := make([]*hw.Component, len(types))
	for i, typ := range types {
		comps[i] = cat[typ]
	}
	insts, _ := hw.AssignInstanceIDs(comps)
	return insts
}

func injectedTypes(res *Result) []string {
	out := make([]string, len(res.Injected))
	for i, inj := range res.Injected {
		out[i] = inj.InstanceID
	}
	return out
}

func TestWheeledHintInjectsFullDrivetrain(t *testing.T) {
	cat := testCatalog()
	inj := New(cat, DefaultRules())

	res := inj.Inject(testBoard(), instances(cat, "ir_sensor"), "build me a line following robot car", MobilityUnknown)

	want := []string{"dc_motor_0", "dc_motor_1", "l298n_0", "battery_9v_0", "diode_1n4007_0", "diode_1n4007_1"}
	if got := injectedTypes(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("injected = %v, want %v", got, want)
	}

	pre := res.PreAssigned
	expect := map[string]string{
		"battery_9v_0.NEG":       "GND",
		"battery_9v_0.POS":       "l298n_0.VS",
		"l298n_0.GND":            "GND",
		"dc_motor_0.T1":          "l298n_0.OUT1",
		"dc_motor_0.T2":          "l298n_0.OUT2",
		"dc_motor_1.T1":          "l298n_0.OUT3",
		"dc_motor_1.T2":          "l298n_0.OUT4",
		"diode_1n4007_0.ANODE":   "dc_motor_0.T1",
		"diode_1n4007_0.CATHODE": "dc_motor_0.T2",
		"diode_1n4007_1.ANODE":   "dc_motor_1.T1",
		"diode_1n4007_1.CATHODE": "dc_motor_1.T2",
	}
	if !reflect.DeepEqual(map[string]string(pre), expect) {
		t.Errorf("pre-assignments = %v\nwant %v", pre, expect)
	}
}

func TestStaticMobilityIgnoresHint(t *testing.T) {
	cat := testCatalog()
	res := New(cat, DefaultRules()).Inject(testBoard(), instances(cat, "led"), "a car dashboard light", MobilityStatic)
	for _, inj := range res.Injected {
		if inj.Role == hw.RoleMotor {
			t.Fatalf("static build got motor %s", inj.InstanceID)
		}
	}
}

func TestExistingMotorCountsTowardsTwo(t *testing.T) {
	cat := testCatalog()
	res := New(cat, DefaultRules()).Inject(testBoard(), instances(cat, "dc_motor"), "", MobilityWheeled)
	motors := 0
	for _, inj := range res.Injected {
		if inj.Role == hw.RoleMotor {
			motors++
			if inj.InstanceID != "dc_motor_1" {
				t.Errorf("injected motor id = %s", inj.InstanceID)
			}
		}
	}
	if motors != 1 {
		t.Errorf("injected %d motors, want 1", motors)
	}
}

func TestServoWithoutDriverWiresBatteryToVin(t *testing.T) {
	cat := testCatalog()
	res := New(cat, DefaultRules()).Inject(testBoard(), instances(cat, "sg90"), "pan tilt camera", MobilityUnknown)

	if got := injectedTypes(res); !reflect.DeepEqual(got, []string{"battery_9v_0"}) {
		t.Fatalf("injected = %v", got)
	}
	if res.PreAssigned["battery_9v_0.POS"] != "VIN" || res.PreAssigned["battery_9v_0.NEG"] != "GND" {
		t.Errorf("battery wiring = %v", res.PreAssigned)
	}
}

func TestPowerBudgetTriggersBattery(t *testing.T) {
	cat := testCatalog()
	board := testBoard()
	board.MaxCurrentMA = 30
	res := New(cat, DefaultRules()).Inject(board, instances(cat, "led", "led"), "", MobilityUnknown)

	found := false
	for _, inj := range res.Injected {
		if inj.Role == hw.RoleBattery {
			found = true
			if !strings.Contains(inj.Reason, "exceeds") {
				t.Errorf("reason = %q", inj.Reason)
			}
		}
	}
	if !found {
		t.Fatal("expected battery injection")
	}
}

func TestResistorPerUnpairedLED(t *testing.T) {
	cat := testCatalog()
	res := New(cat, DefaultRules()).Inject(testBoard(), instances(cat, "led", "led", "resistor_220", "led"), "", MobilityUnknown)

	want := []string{"resistor_220_1", "resistor_220_2"}
	if got := injectedTypes(res); !reflect.DeepEqual(got, want) {
		t.Errorf("injected = %v, want %v", got, want)
	}
	if len(res.PreAssigned) != 0 {
		t.Errorf("resistors carry no fixed wiring, got %v", res.PreAssigned)
	}
}

func TestBreadboardThresholds(t *testing.T) {
	cat := testCatalog()
	inj := New(cat, DefaultRules())

	res := inj.Inject(testBoard(), instances(cat, "ir_sensor"), "", MobilityStatic)
	if res.NeedsBreadboard {
		t.Errorf("one sensor should fit the headers: %v", res.Advisories)
	}

	res = inj.Inject(testBoard(), instances(cat, "ir_sensor", "ir_sensor"), "", MobilityStatic)
	if !res.NeedsBreadboard {
		t.Fatal("two 5V consumers on a single 5V pin need a breadboard")
	}
	if len(res.Advisories) != 1 || !strings.Contains(res.Advisories[0], "5V") {
		t.Errorf("advisories = %v", res.Advisories)
	}
}

func TestInjectIsIdempotentAndPure(t *testing.T) {
	cat := testCatalog()
	inj := New(cat, DefaultRules())
	insts := instances(cat, "led", "sg90")
	before := append([]hw.Instance(nil), insts...)

	first := inj.Inject(testBoard(), insts, "robot car", MobilityUnknown)
	second := inj.Inject(testBoard(), insts, "robot car", MobilityUnknown)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(insts, before) {
		t.Error("input instances were modified")
	}
}

func TestMissingCatalogTypeStillReported(t *testing.T) {
	cat := testCatalog()
	delete(cat, "l298n")
	res := New(cat, DefaultRules()).Inject(testBoard(), instances(cat, "dc_motor"), "", MobilityStatic)

	found := false
	for _, inj := range res.Injected {
		if inj.Type == "l298n" {
			found = true
		}
	}
	if !found {
		t.Error("driver type should still be listed for the caller to reject")
	}
}

func TestParseMobility(t *testing.T) {
	for in, want := range map[string]Mobility{"": MobilityUnknown, "Wheeled": MobilityWheeled, "static": MobilityStatic} {
		got, err := ParseMobility(in)
		if err != nil || got != want {
			t.Errorf("ParseMobility(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMobility("flying"); err == nil {
		t.Error("expected error")
	}
}
