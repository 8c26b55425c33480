// Package erc implements the pairwise electrical rule check used to keep
// drivers from fighting each other and power rails from being shorted.
package erc

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Result is the verdict for one pair of electrical types.
type Result int

const (
	Valid Result = iota
	Warning
	Error
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Check returns the verdict for connecting a pin of type a to a pin of type
// b. The check is symmetric.
func Check(a, b hw.ElectricalType) Result {
	if a > b {
		a, b = b, a
	}

	switch a {
	case hw.Unspecified, hw.Input:
		return Valid
	case hw.Output:
		switch b {
		case hw.Output, hw.PowerOut:
			return Error
		case hw.Bidirectional, hw.PowerIn:
			return Warning
		case hw.Passive:
			return Valid
		}
	case hw.Bidirectional:
		switch b {
		case hw.Bidirectional, hw.PowerIn:
			return Warning
		case hw.PowerOut:
			return Error
		case hw.Passive:
			return Valid
		}
	case hw.PowerIn:
		switch b {
		case hw.PowerIn, hw.PowerOut, hw.Passive:
			return Valid
		}
	case hw.PowerOut:
		switch b {
		case hw.PowerOut:
			return Error
		case hw.Passive:
			return Valid
		}
	case hw.Passive:
		return Valid
	}
	return Valid
}

// Explain describes why a pair is not plainly valid. It returns "" for
// valid pairs.
func Explain(a, b hw.ElectricalType) string {
	if a > b {
		a, b = b, a
	}
	switch Check(a, b) {
	case Error:
		switch {
		case a == hw.PowerOut && b == hw.PowerOut:
			return "two power sources shorted together"
		case b == hw.PowerOut:
			return fmt.Sprintf("%s pin driven straight into a power source", a)
		default:
			return fmt.Sprintf("two %s drivers fighting on one net", a)
		}
	case Warning:
		if b == hw.PowerIn {
			return fmt.Sprintf("%s pin feeding a power input", a)
		}
		return fmt.Sprintf("%s and %s may contend without direction control", a, b)
	}
	return ""
}
