// Package catalog holds the board and component definitions the planner
// works from.
//
// Definitions are collected in a MemoryRepository (from files, directories
// or the embedded defaults) and frozen into a Catalog. A Catalog is an
// immutable, index-based table: it is built once and then shared read-only
// by any number of concurrent requests.
package catalog

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

// Lookup errors, matched with errors.Is.
var (
	ErrUnknownBoard     = errors.New("unknown board")
	ErrUnknownComponent = errors.New("unknown component")
)

// Catalog is a frozen set of boards and components.
type Catalog struct {
	boards     []*hw.Board
	components []*hw.Component

	boardIndex     map[string]int
	componentIndex map[string]int
}

// New builds a catalog. Ids must be unique; the slices keep their order.
func New(boards []*hw.Board, components []*hw.Component) (*Catalog, error) {
	c := &Catalog{
		boards:         make([]*hw.Board, 0, len(boards)),
		components:     make([]*hw.Component, 0, len(components)),
		boardIndex:     make(map[string]int, len(boards)),
		componentIndex: make(map[string]int, len(components)),
	}
	for _, b := range boards {
		if b == nil || b.ID == "" {
			return nil, fmt.Errorf("catalog: board without id")
		}
		if _, dup := c.boardIndex[b.ID]; dup {
			return nil, fmt.Errorf("catalog: board %s defined twice", b.ID)
		}
		c.boardIndex[b.ID] = len(c.boards)
		c.boards = append(c.boards, b)
	}
	for _, comp := range components {
		if comp == nil || comp.Type == "" {
			return nil, fmt.Errorf("catalog: component without type")
		}
		if _, dup := c.componentIndex[comp.Type]; dup {
			return nil, fmt.Errorf("catalog: component %s defined twice", comp.Type)
		}
		c.componentIndex[comp.Type] = len(c.components)
		c.components = append(c.components, comp)
	}
	return c, nil
}

// Board returns the board with the given id.
func (c *Catalog) Board(id string) (*hw.Board, bool) {
	i, ok := c.boardIndex[id]
	if !ok {
		return nil, false
	}
	return c.boards[i], true
}

// Component returns the component with the given type id.
func (c *Catalog) Component(typ string) (*hw.Component, bool) {
	i, ok := c.componentIndex[typ]
	if !ok {
		return nil, false
	}
	return c.components[i], true
}

// Boards returns every board in load order.
func (c *Catalog) Boards() []*hw.Board {
	return append([]*hw.Board(nil), c.boards...)
}

// Components returns every component in load order.
func (c *Catalog) Components() []*hw.Component {
	return append([]*hw.Component(nil), c.components...)
}

// LookupBoard is Board with an error naming the known ids.
func (c *Catalog) LookupBoard(id string) (*hw.Board, error) {
	if b, ok := c.Board(id); ok {
		return b, nil
	}
	ids := make([]string, len(c.boards))
	for i, b := range c.boards {
		ids[i] = b.ID
	}
	return nil, fmt.Errorf("catalog: %w %q (known: %v)", ErrUnknownBoard, id, ids)
}

// Resolve maps type ids to components in order. Every unknown id is
// reported.
func (c *Catalog) Resolve(types []string) ([]*hw.Component, error) {
	out := make([]*hw.Component, 0, len(types))
	var missing []string
	for _, t := range types {
		comp, ok := c.Component(t)
		if !ok {
			missing = append(missing, t)
			continue
		}
		out = append(out, comp)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog: %w: %v", ErrUnknownComponent, missing)
	}
	return out, nil
}
