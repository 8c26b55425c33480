package hw

import (
	"fmt"
	"sort"
	"strings"
)

// Instance is one placed copy of a catalog component.
type Instance struct {
	ID        string     `json:"id"`
	Component *Component `json:"-"`
}

// Type returns the catalog type of the instance.
func (i Instance) Type() string {
	if i.Component == nil {
		return ""
	}
	return i.Component.Type
}

// Ordinals hands out "{type}_{ordinal}" identifiers. Ordinals are 0-based and
// counted per type in the order types are first seen.
type Ordinals map[string]int

// Next returns the identifier for the next instance of typ.
func (o Ordinals) Next(typ string) string {
	n := o[typ]
	o[typ] = n + 1
	return fmt.Sprintf("%s_%d", typ, n)
}

// AssignInstanceIDs builds instances for the given components in order and
// returns the ordinal state so callers can keep numbering appended parts.
func AssignInstanceIDs(components []*Component) ([]Instance, Ordinals) {
	ords := make(Ordinals)
	out := make([]Instance, 0, len(components))
	for _, c := range components {
		out = append(out, Instance{ID: ords.Next(c.Type), Component: c})
	}
	return out, ords
}

// OrdinalsOf rebuilds the ordinal state implied by an existing instance list.
func OrdinalsOf(instances []Instance) Ordinals {
	ords := make(Ordinals)
	for _, inst := range instances {
		ords[inst.Type()]++
	}
	return ords
}

// Key joins an instance id and pin name into a mapping key.
func Key(instanceID, pin string) string {
	return instanceID + "." + pin
}

// SplitKey splits "instance.pin" at the last dot.
func SplitKey(key string) (instanceID, pin string, ok bool) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// PinMapping maps "instance.pin" keys to a board pin id or to another
// component's "instance.pin".
type PinMapping map[string]string

// Keys returns the mapping keys in sorted order.
func (m PinMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m PinMapping) Clone() PinMapping {
	out := make(PinMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m PinMapping) Merge(other PinMapping) {
	for k, v := range other {
		m[k] = v
	}
}

// IsComponentTarget reports whether a mapping value names another
// component's pin rather than a board pin.
func IsComponentTarget(board *Board, value string) bool {
	if board != nil {
		if _, ok := board.Pin(value); ok {
			return false
		}
	}
	_, _, ok := SplitKey(value)
	return ok
}
