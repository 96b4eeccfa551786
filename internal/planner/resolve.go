// SPDX-License-Identifier: MPL-2.0

// Package planner resolves a dependency graph into a deterministic build
// plan: cycle detection, topological ordering with ascending-name
// tie-breaking, and bottom-up propagation of include paths and dependency
// visibility.
//
// Resolution is pure. A plan is either complete or not produced at all.
package planner

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modgraph/modgraph/internal/dag"
	"github.com/modgraph/modgraph/internal/depgraph"
	"github.com/modgraph/modgraph/internal/registry"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

// DependencyCycleError reports a cycle among static dependencies. Path
// follows "depends on" edges and starts and ends at the same module.
type DependencyCycleError struct {
	Path []descriptor.ModuleName
}

// Error implements the error interface.
func (e *DependencyCycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = string(n)
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}

// Unwrap returns dag.ErrCycle for errors.Is() compatibility.
func (e *DependencyCycleError) Unwrap() error { return dag.ErrCycle }

// Resolve orders g and propagates visibility. It fails with
// *DependencyCycleError if the static edges contain a cycle.
func Resolve(g *depgraph.Graph) (*BuildPlan, error) {
	precedence := g.DAG()

	// Depth-first over "depends on" edges so the reported path reads the
	// way descriptors declare it.
	if cycle := precedence.Reverse().FindCycle(); cycle != nil {
		return nil, &DependencyCycleError{Path: toNames(cycle)}
	}

	sorted, err := precedence.TopologicalSort()
	if err != nil {
		return nil, err
	}
	order := toNames(sorted)

	plan := &BuildPlan{
		Order:    order,
		Modules:  make([]ModulePlan, 0, len(order)),
		edges:    g.Edges(),
		position: make(map[descriptor.ModuleName]int, len(order)),
	}
	for i, n := range order {
		plan.position[n] = i
	}

	byName := make(map[descriptor.ModuleName]ModulePlan, len(order))
	for _, name := range order {
		d, _ := g.Descriptor(name)
		mp := propagate(d, g.EdgesFrom(name), byName, plan.position)
		mp.DynamicDependencies = g.Dynamic(name)
		plan.Modules = append(plan.Modules, mp)
		byName[name] = mp
	}
	return plan, nil
}

// propagate computes one module's plan from its already planned dependencies.
func propagate(d *descriptor.Descriptor, edges []depgraph.Edge, done map[descriptor.ModuleName]ModulePlan, position map[descriptor.ModuleName]int) ModulePlan {
	var (
		publicPaths   = newOrderedSet[string]()
		compilePaths  = newOrderedSet[string]()
		publicClosure = newOrderedSet[descriptor.ModuleName]()
		compileDeps   = newOrderedSet[descriptor.ModuleName]()
		link          = newOrderedSet[descriptor.ModuleName]()
	)

	publicPaths.add(d.PublicIncludePaths...)
	compilePaths.add(d.PublicIncludePaths...)
	compilePaths.add(d.PrivateIncludePaths...)

	for _, e := range edges {
		dep := done[e.To]
		compilePaths.add(dep.PublicIncludePaths...)
		compileDeps.add(e.To)
		compileDeps.add(dep.PublicDependencyClosure...)
		link.add(e.To)
		link.add(dep.LinkDependencies...)

		if e.Visibility == descriptor.Public {
			publicPaths.add(dep.PublicIncludePaths...)
			publicClosure.add(e.To)
			publicClosure.add(dep.PublicDependencyClosure...)
		}
	}

	linkOrder := link.items
	slices.SortFunc(linkOrder, func(a, b descriptor.ModuleName) int { return position[a] - position[b] })

	return ModulePlan{
		Name:                    d.Name,
		Version:                 d.Version,
		Source:                  d.Source,
		PublicIncludePaths:      publicPaths.items,
		CompileIncludePaths:     compilePaths.items,
		PublicDependencyClosure: publicClosure.items,
		CompileDependencies:     compileDeps.items,
		LinkDependencies:        linkOrder,
	}
}

// ResolveTarget builds an independent registry snapshot of descs for t,
// then the graph, then the plan.
func ResolveTarget(t Target, descs []*descriptor.Descriptor) (*BuildPlan, error) {
	reg, err := registry.FromDescriptors(descs, t.Platform)
	if err != nil {
		return nil, err
	}
	g, err := depgraph.Build(reg)
	if err != nil {
		return nil, err
	}
	plan, err := Resolve(g)
	if err != nil {
		return nil, err
	}
	plan.Target = t.Name
	plan.Platform = t.Platform
	return plan, nil
}

type (
	// Observer is notified after each target resolution in ResolveTargets.
	// plan is nil when err is non-nil. Observers may be called concurrently.
	Observer func(t Target, plan *BuildPlan, err error, elapsed time.Duration)

	// Option configures ResolveTargets.
	Option func(*resolveOptions)

	resolveOptions struct {
		observers []Observer
		limit     int
	}
)

// WithObserver registers an observer for every resolved target.
func WithObserver(o Observer) Option {
	return func(opts *resolveOptions) { opts.observers = append(opts.observers, o) }
}

// WithConcurrency caps the number of targets resolved at once. n <= 0 means no limit.
func WithConcurrency(n int) Option {
	return func(opts *resolveOptions) { opts.limit = n }
}

// ResolveTargets resolves every target in parallel, each over its own
// registry snapshot. Plans are returned in target order. The first failure
// cancels the remaining work and is returned annotated with its target.
func ResolveTargets(ctx context.Context, targets []Target, descs []*descriptor.Descriptor, opts ...Option) ([]*BuildPlan, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	plans := make([]*BuildPlan, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	if o.limit > 0 {
		eg.SetLimit(o.limit)
	}
	for i, t := range targets {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			plan, err := ResolveTarget(t, descs)
			for _, observe := range o.observers {
				observe(t, plan, err, time.Since(start))
			}
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Name, err)
			}
			plans[i] = plan
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func toNames(s []string) []descriptor.ModuleName {
	return descriptor.Names(s...)
}

// orderedSet keeps the first occurrence of each item.
type orderedSet[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{items: []T{}, seen: make(map[T]struct{})}
}

func (s *orderedSet[T]) add(items ...T) {
	for _, it := range items {
		if _, ok := s.seen[it]; ok {
			continue
		}
		s.seen[it] = struct{}{}
		s.items = append(s.items, it)
	}
}
