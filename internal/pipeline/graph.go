// Package pipeline runs one pronunciation evaluation as a directed acyclic
// graph of named stages over a shared keyed [State].
//
// Stages declare explicit dependency edges; stages with no path between them
// (the two tutor-evaluation branches) run in parallel, everything else is a
// sequential join. Stage functions return a [Delta] rather than mutating
// state, and the graph applies each delta under lock while recording a
// [MergeDecision] per key. Stage failures are state values, not aborts: the
// graph always runs to completion so the caller receives a full, possibly
// degraded, response.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// StageFunc is one unit of pipeline work. It reads what it needs from the
// state and returns its writes as a delta. Failures are reported inside the
// delta under [ErrorKey], never as a returned error; a nil delta is valid.
type StageFunc func(ctx context.Context, st *State) Delta

type stage struct {
	name string
	deps []string
	fn   StageFunc
	done chan struct{}
}

// Graph is a DAG of named stages. Build it with [New] and [Graph.AddStage],
// then execute with [Graph.Run]. A Graph is reusable: each Run operates on
// its own State and fresh completion channels.
type Graph struct {
	stages []*stage
	byName map[string]*stage
	logger *slog.Logger
}

// New creates an empty Graph. logger may be nil.
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		byName: make(map[string]*stage),
		logger: logger,
	}
}

// AddStage registers a stage and its dependency edges. fn may be nil for
// virtual stages (start, end) that only shape the graph. Dependencies must be
// registered first, which also guarantees acyclicity by construction.
func (g *Graph) AddStage(name string, fn StageFunc, deps ...string) error {
	if name == "" {
		return fmt.Errorf("pipeline: stage name must not be empty")
	}
	if _, exists := g.byName[name]; exists {
		return fmt.Errorf("pipeline: stage %q already registered", name)
	}
	for _, d := range deps {
		if _, ok := g.byName[d]; !ok {
			return fmt.Errorf("pipeline: stage %q depends on unregistered stage %q", name, d)
		}
	}
	st := &stage{name: name, deps: deps, fn: fn}
	g.stages = append(g.stages, st)
	g.byName[name] = st
	return nil
}

// Run executes every stage exactly once, respecting dependency order and
// running independent stages concurrently. It returns only when all stages
// finished or ctx was cancelled; ctx cancellation is the only error source,
// since stage failures live in the state.
func (g *Graph) Run(ctx context.Context, st *State) error {
	for _, s := range g.stages {
		s.done = make(chan struct{})
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range g.stages {
		eg.Go(func() error {
			defer close(s.done)

			for _, dep := range s.deps {
				select {
				case <-g.byName[dep].done:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if s.fn == nil {
				return nil
			}

			start := time.Now()
			delta := s.fn(ctx, st)
			if len(delta) > 0 {
				st.Apply(s.name, delta)
			}
			g.logger.Debug("pipeline stage finished",
				"stage", s.name,
				"duration", time.Since(start),
				"writes", len(delta),
			)
			return nil
		})
	}
	return eg.Wait()
}

// StageNames returns the registered stage names in registration order.
func (g *Graph) StageNames() []string {
	names := make([]string, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.name
	}
	return names
}
