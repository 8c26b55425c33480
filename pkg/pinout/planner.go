// Package pinout runs the whole planning pipeline for one board: resolve
// the requested parts, add support parts, assign pins, re-check the result
// and build the netlist.
package pinout

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/catalog"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/netlist"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/solver"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/validate"
)

// Request is one board to plan.
type Request struct {
	Board       string          `json:"board"`
	Components  []string        `json:"components"`
	Hint        string          `json:"hint,omitempty"`
	Mobility    inject.Mobility `json:"mobility"`
	PreAssigned hw.PinMapping   `json:"pre_assigned,omitempty"`
}

// Result is a validated plan.
type Result struct {
	Board           string             `json:"board"`
	Mapping         hw.PinMapping      `json:"mapping"`
	Backtracks      int                `json:"backtracks"`
	NeedsBreadboard bool               `json:"needs_breadboard"`
	Advisories      []string           `json:"advisories,omitempty"`
	Warnings        []string           `json:"warnings,omitempty"`
	Injected        []inject.Injection `json:"injected,omitempty"`
	Parts           []netlist.Part     `json:"parts"`
	Nets            []*netlist.Net     `json:"nets"`

	Instances []hw.Instance    `json:"-"`
	Netlist   *netlist.Netlist `json:"-"`
}

// Planner is safe for concurrent use; all per-request state lives in Plan.
type Planner struct {
	catalog   *catalog.Catalog
	cfg       Config
	injector  *inject.Injector
	solver    *solver.Solver
	validator *validate.Validator
	logger    *log.Logger
}

// New creates a planner over cat. A nil cfg uses DefaultConfig and a nil
// logger discards output.
func New(cat *catalog.Catalog, cfg *Config, logger *log.Logger) (*Planner, error) {
	if cat == nil {
		return nil, fmt.Errorf("pinout: nil catalog")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Solver != nil {
		sc := *c.Solver
		c.Solver = &sc
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Planner{
		catalog:   cat,
		cfg:       c,
		injector:  inject.New(cat, c.Rules),
		solver:    solver.New(c.Solver, logger),
		validator: validate.New(logger),
		logger:    logger,
	}, nil
}

// Plan runs the pipeline for one request. Solver failures are returned as
// *solver.Failure, unknown definitions as *ConfigError and rejected
// mappings wrap validate.ErrInvalid.
func (p *Planner) Plan(ctx context.Context, req Request) (*Result, error) {
	board, err := p.catalog.LookupBoard(req.Board)
	if err != nil {
		return nil, &ConfigError{What: "board", IDs: []string{req.Board}, Err: err}
	}
	comps, err := p.catalog.Resolve(req.Components)
	if err != nil {
		return nil, &ConfigError{What: "component", IDs: p.unknown(req.Components), Err: err}
	}
	instances, _ := hw.AssignInstanceIDs(comps)

	inj := p.injector.Inject(board, instances, req.Hint, req.Mobility)
	var missing []string
	for _, in := range inj.Injected {
		c, ok := p.catalog.Component(in.Type)
		if !ok {
			missing = append(missing, in.Type)
			continue
		}
		instances = append(instances, hw.Instance{ID: in.InstanceID, Component: c})
		p.logger.Printf("inject %s: %s", in.InstanceID, in.Reason)
	}
	if len(missing) > 0 {
		return nil, &ConfigError{What: "injected component", IDs: missing, Err: catalog.ErrUnknownComponent}
	}

	pre, err := mergePreAssigned(instances, inj.PreAssigned, req.PreAssigned)
	if err != nil {
		return nil, err
	}

	sol, err := p.solver.Solve(ctx, board, instances, pre)
	if err != nil {
		return nil, err
	}

	rep := p.validator.Validate(board, instances, sol.Mapping)
	if err := rep.Err(); err != nil {
		return nil, fmt.Errorf("pinout: %s: %w", board.ID, err)
	}

	nl, err := netlist.Build(board, instances, sol.Mapping)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Board:           board.ID,
		Mapping:         sol.Mapping,
		Backtracks:      sol.Backtracks,
		NeedsBreadboard: inj.NeedsBreadboard || sol.NeedsBreadboard,
		Advisories:      dedupe(inj.Advisories, sol.Advisories),
		Warnings:        rep.Warnings,
		Injected:        inj.Injected,
		Parts:           nl.Parts(),
		Nets:            nl.Nets,
		Instances:       instances,
		Netlist:         nl,
	}
	return res, nil
}

// PlanAll plans independent requests in parallel. Results keep request
// order. The first failure cancels the remaining requests and is returned.
func (p *Planner) PlanAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := p.Plan(ctx, req)
			if err != nil {
				return fmt.Errorf("pinout: request %d (%s): %w", i, req.Board, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Planner) unknown(types []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range types {
		if _, ok := p.catalog.Component(t); !ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// mergePreAssigned combines the injector's wiring with the caller's. Caller
// keys must name a pin of a known instance and may not contradict the
// injector.
func mergePreAssigned(instances []hw.Instance, injected, caller hw.PinMapping) (hw.PinMapping, error) {
	out := injected.Clone()
	byID := make(map[string]*hw.Component, len(instances))
	for _, inst := range instances {
		byID[inst.ID] = inst.Component
	}

	var bad []string
	for _, key := range caller.Keys() {
		id, pin, ok := hw.SplitKey(key)
		c := byID[id]
		if !ok || c == nil {
			bad = append(bad, key)
			continue
		}
		if _, ok := c.Requirement(pin); !ok {
			bad = append(bad, key)
			continue
		}
		if prev, ok := out[key]; ok && prev != caller[key] {
			bad = append(bad, key)
			continue
		}
		out[key] = caller[key]
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, &ConfigError{What: "pre-assignment", IDs: bad}
	}
	return out, nil
}

// dedupe concatenates advisory lists, dropping repeats.
func dedupe(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, s := range l {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
