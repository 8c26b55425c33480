package pinout

import (
	"fmt"
	"strings"
)

// ConfigError reports a request that names definitions the catalog does
// not have, or pre-assignments that do not fit the request. It is a caller
// problem, unlike a solver failure.
type ConfigError struct {
	What string   // "board", "component", "injected component", "pre-assignment"
	IDs  []string // offending ids or keys
	Err  error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("pinout: invalid %s: %s", e.What, strings.Join(e.IDs, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
