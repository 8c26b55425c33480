package solver

import (
	"errors"
	"fmt"
)

// Kind classifies a solver failure.
type Kind int

const (
	KindPowerBudget Kind = iota + 1
	KindVoltage
	KindLogicLevel
	KindPinShortage
	KindSearchExhausted
)

func (k Kind) String() string {
	switch k {
	case KindPowerBudget:
		return "power-budget-exceeded"
	case KindVoltage:
		return "voltage-mismatch"
	case KindLogicLevel:
		return "logic-level-mismatch"
	case KindPinShortage:
		return "pin-shortage"
	case KindSearchExhausted:
		return "search-exhausted"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels matched with errors.Is against a *Failure.
var (
	ErrPowerBudget     = errors.New("power budget exceeded")
	ErrVoltage         = errors.New("supply voltage out of range")
	ErrLogicLevel      = errors.New("logic level out of range")
	ErrPinShortage     = errors.New("not enough pins")
	ErrSearchExhausted = errors.New("search exhausted")
)

func (k Kind) sentinel() error {
	switch k {
	case KindPowerBudget:
		return ErrPowerBudget
	case KindVoltage:
		return ErrVoltage
	case KindLogicLevel:
		return ErrLogicLevel
	case KindPinShortage:
		return ErrPinShortage
	case KindSearchExhausted:
		return ErrSearchExhausted
	}
	return nil
}

// Failure explains why no mapping was produced.
type Failure struct {
	Kind         Kind     `json:"kind"`
	Message      string   `json:"message"`
	Capability   string   `json:"capability,omitempty"`   // deficient capability, pin shortages only
	Components   []string `json:"components,omitempty"`   // offending instance ids
	Requirements []string `json:"requirements,omitempty"` // offending "instance.pin" keys
	Pins         []string `json:"pins,omitempty"`         // board pins involved
	Backtracks   int      `json:"backtracks,omitempty"`

	cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("solver: %s: %s", f.Kind, f.Message)
}

// Unwrap exposes the kind sentinel and, for cancelled searches, the context
// error.
func (f *Failure) Unwrap() []error {
	var errs []error
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.cause != nil {
		errs = append(errs, f.cause)
	}
	return errs
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
