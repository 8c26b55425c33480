// Package netlist turns a pin mapping into electrical nets for the
// downstream schematic renderer and for KiCad import.
package netlist

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"
)

// Node is one pin of one part. Ref is an instance id or the board id.
type Node struct {
	Ref string `json:"ref"`
	Pin string `json:"pin"`
}

func (n Node) String() string {
	return n.Ref + "." + n.Pin
}

// Net is a connected set of nodes.
type Net struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

// Part is a placed footprint: the board or one component instance.
type Part struct {
	Ref   string `json:"ref"`
	Value string `json:"value"`
}

// Netlist tracks connectivity with a union-find structure.
type Netlist struct {
	parent map[string]string // node key -> parent node key
	rank   map[string]int
	nodes  map[string]Node
	order  []string // node keys in insertion order

	parts []Part
	names map[string]string // node key -> preferred net name

	// Final nets after calling Finalize()
	Nets []*Net
}

// NewNetlist creates a netlist where every node starts in its own net.
func NewNetlist(nodes []Node) *Netlist {
	nl := &Netlist{
		parent: make(map[string]string),
		rank:   make(map[string]int),
		nodes:  make(map[string]Node),
		names:  make(map[string]string),
	}
	for _, n := range nodes {
		nl.add(n)
	}
	return nl
}

func (nl *Netlist) add(n Node) string {
	key := n.String()
	if _, ok := nl.parent[key]; !ok {
		nl.parent[key] = key
		nl.rank[key] = 0
		nl.nodes[key] = n
		nl.order = append(nl.order, key)
	}
	return key
}

// AddPart records a footprint for the KiCad components section.
func (nl *Netlist) AddPart(ref, value string) {
	nl.parts = append(nl.parts, Part{Ref: ref, Value: value})
}

// Name prefers name for the net that ends up containing n.
func (nl *Netlist) Name(n Node, name string) {
	nl.names[nl.add(n)] = name
}

// Connect merges the nets of a and b. Unknown nodes are added.
func (nl *Netlist) Connect(a, b Node) {
	keyA := nl.find(nl.add(a))
	keyB := nl.find(nl.add(b))
	if keyA == keyB {
		return
	}

	// Union by rank
	switch {
	case nl.rank[keyA] < nl.rank[keyB]:
		nl.parent[keyA] = keyB
	case nl.rank[keyA] > nl.rank[keyB]:
		nl.parent[keyB] = keyA
	default:
		nl.parent[keyB] = keyA
		nl.rank[keyA]++
	}
	nl.Nets = nil
}

// Find returns the representative node of the net containing n.
func (nl *Netlist) Find(n Node) Node {
	key := n.String()
	if _, ok := nl.parent[key]; !ok {
		return n
	}
	return nl.nodes[nl.find(key)]
}

func (nl *Netlist) find(key string) string {
	root := key
	for nl.parent[root] != root {
		root = nl.parent[root]
	}
	// Path compression
	for key != root {
		next := nl.parent[key]
		nl.parent[key] = root
		key = next
	}
	return root
}

// Finalize builds Nets. Single-node nets are dropped. Nets are ordered by
// name and numbered from 1, the way KiCad numbers net codes.
func (nl *Netlist) Finalize() {
	groups := make(map[string][]string)
	var roots []string
	for _, key := range nl.order {
		root := nl.find(key)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], key)
	}

	nl.Nets = make([]*Net, 0, len(roots))
	for _, root := range roots {
		keys := groups[root]
		if len(keys) < 2 {
			continue
		}
		sort.Strings(keys)
		net := &Net{Nodes: make([]Node, len(keys))}
		for i, k := range keys {
			net.Nodes[i] = nl.nodes[k]
			if name, ok := nl.names[k]; ok && net.Name == "" {
				net.Name = name
			}
		}
		if net.Name == "" {
			net.Name = fmt.Sprintf("Net-(%s-%s)", net.Nodes[0].Ref, net.Nodes[0].Pin)
		}
		nl.Nets = append(nl.Nets, net)
	}
	sort.SliceStable(nl.Nets, func(i, j int) bool {
		return nl.Nets[i].Name < nl.Nets[j].Name
	})
	for i, net := range nl.Nets {
		net.Code = i + 1
	}
}

// NetCount returns the number of nets. Only valid after Finalize.
func (nl *Netlist) NetCount() int {
	return len(nl.Nets)
}

// NetOf returns the finalized net containing n.
func (nl *Netlist) NetOf(n Node) (*Net, bool) {
	for _, net := range nl.Nets {
		for _, m := range net.Nodes {
			if m == n {
				return net, true
			}
		}
	}
	return nil, false
}

// Parts returns the recorded footprints in insertion order.
func (nl *Netlist) Parts() []Part {
	return append([]Part(nil), nl.parts...)
}

// ExportJSON exports the netlist in the renderer's JSON format.
func (nl *Netlist) ExportJSON() ([]byte, error) {
	if nl.Nets == nil {
		return nil, fmt.Errorf("netlist: not finalized")
	}

	output := struct {
		Version     string `json:"version"`
		NetCount    int    `json:"net_count"`
		Parts       []Part `json:"parts"`
		Nets        []*Net `json:"nets"`
		GeneratedBy string `json:"generated_by"`
	}{
		Version:     "1.0",
		NetCount:    nl.NetCount(),
		Parts:       nl.parts,
		Nets:        nl.Nets,
		GeneratedBy: "pinmap",
	}
	return json.MarshalIndent(output, "", "  ")
}

// ExportKiCad exports the netlist in KiCad's s-expression netlist format.
// The result is parsed back before it is returned.
func (nl *Netlist) ExportKiCad() (string, error) {
	if nl.Nets == nil {
		return "", fmt.Errorf("netlist: not finalized")
	}

	var b strings.Builder
	b.WriteString("(export (version \"E\")\n")
	b.WriteString("  (design\n")
	b.WriteString("    (source \"pinmap\")\n")
	b.WriteString("    (tool \"pinmap\"))\n")
	b.WriteString("  (components")
	for _, p := range nl.parts {
		fmt.Fprintf(&b, "\n    (comp (ref %s) (value %s))", strconv.Quote(p.Ref), strconv.Quote(p.Value))
	}
	b.WriteString(")\n")
	b.WriteString("  (nets")
	for _, net := range nl.Nets {
		fmt.Fprintf(&b, "\n    (net (code \"%d\") (name %s)", net.Code, strconv.Quote(net.Name))
		for _, n := range net.Nodes {
			fmt.Fprintf(&b, "\n      (node (ref %s) (pin %s))", strconv.Quote(n.Ref), strconv.Quote(n.Pin))
		}
		b.WriteString(")")
	}
	b.WriteString("))\n")

	out := b.String()
	if err := Verify(out); err != nil {
		return "", err
	}
	return out, nil
}

// Verify checks that text is exactly one well-formed s-expression list.
func Verify(text string) error {
	exprs, err := sexp.ParseString(text)
	if err != nil {
		return fmt.Errorf("netlist: malformed s-expression: %w", err)
	}
	if len(exprs) != 1 {
		return fmt.Errorf("netlist: expected one top-level expression, got %d", len(exprs))
	}
	if exprs[0].IsLeaf() {
		return fmt.Errorf("netlist: top-level expression is an atom")
	}
	return nil
}
