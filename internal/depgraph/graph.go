// SPDX-License-Identifier: MPL-2.0

// Package depgraph turns a registry of descriptors into a visibility-tagged
// dependency graph. Static (public and private) dependencies become edges;
// dynamic dependencies are kept as per-module metadata and never influence
// build order.
package depgraph

import (
	"errors"
	"slices"

	"github.com/modgraph/modgraph/internal/dag"
	"github.com/modgraph/modgraph/internal/registry"
	"github.com/modgraph/modgraph/pkg/descriptor"
	"github.com/modgraph/modgraph/pkg/semver"
)

type (
	// Edge is a static dependency: From depends on To with the given visibility.
	Edge struct {
		From       descriptor.ModuleName `json:"from" yaml:"from" toml:"from"`
		To         descriptor.ModuleName `json:"to" yaml:"to" toml:"to"`
		Visibility descriptor.Visibility `json:"visibility" yaml:"visibility" toml:"visibility"`
	}

	// DynamicEdge records a run-time dependency. Available says whether the
	// target is registered; a missing dynamic target is not an error.
	DynamicEdge struct {
		From      descriptor.ModuleName `json:"from" yaml:"from" toml:"from"`
		To        descriptor.ModuleName `json:"to" yaml:"to" toml:"to"`
		Available bool                  `json:"available" yaml:"available" toml:"available"`
	}

	// Graph is an index-addressed adjacency structure over every registered
	// module. It is immutable once built.
	Graph struct {
		nodes []node
		index map[descriptor.ModuleName]int
	}

	node struct {
		desc    *descriptor.Descriptor
		out     []Edge
		dynamic []DynamicEdge
	}
)

// Build constructs the graph for every module in reg.
//
// Every static dependency must be registered; all missing targets are
// reported together, in registration then declaration order, as
// *UnresolvedDependencyError values joined with errors.Join. Version
// constraints on registered dependencies are checked afterwards and
// reported as *IncompatibleVersionError. No graph is returned on failure.
func Build(reg *registry.Registry) (*Graph, error) {
	g := &Graph{
		nodes: make([]node, 0, reg.Len()),
		index: make(map[descriptor.ModuleName]int, reg.Len()),
	}
	for d := range reg.All() {
		g.index[d.Name] = len(g.nodes)
		g.nodes = append(g.nodes, node{desc: d})
	}

	var errs []error
	for i := range g.nodes {
		n := &g.nodes[i]
		d := n.desc
		for _, vis := range []descriptor.Visibility{descriptor.Public, descriptor.Private} {
			for _, to := range d.Dependencies(vis) {
				if !reg.Has(to) {
					errs = append(errs, &UnresolvedDependencyError{Module: d.Name, Missing: to, Visibility: vis})
					continue
				}
				n.out = append(n.out, Edge{From: d.Name, To: to, Visibility: vis})
			}
		}
		for _, to := range d.DynamicDependencies {
			n.dynamic = append(n.dynamic, DynamicEdge{From: d.Name, To: to, Available: reg.Has(to)})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := g.checkVersions(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) checkVersions() error {
	var errs []error
	for _, n := range g.nodes {
		deps := n.desc.DependencyVersions
		if len(deps) == 0 {
			continue
		}
		names := make([]descriptor.ModuleName, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, dep := range names {
			target, ok := g.Descriptor(dep)
			if !ok {
				// unregistered dynamic dependency
				continue
			}
			raw := deps[dep]
			constraint, err := semver.ParseConstraint(raw)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			incompatible := &IncompatibleVersionError{Module: n.desc.Name, Dependency: dep, Constraint: raw, Version: target.Version}
			if target.Version == "" {
				errs = append(errs, incompatible)
				continue
			}
			v, err := semver.ParseVersion(target.Version)
			if err != nil || !semver.Satisfies(v, constraint) {
				errs = append(errs, incompatible)
			}
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of modules in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name descriptor.ModuleName) bool {
	_, ok := g.index[name]
	return ok
}

// Nodes returns every module name in registration order.
func (g *Graph) Nodes() []descriptor.ModuleName {
	out := make([]descriptor.ModuleName, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.desc.Name
	}
	return out
}

// Descriptor returns the descriptor of name.
func (g *Graph) Descriptor(name descriptor.ModuleName) (*descriptor.Descriptor, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[i].desc, true
}

// EdgesFrom returns the static edges leaving name: public edges first, then
// private, each in declaration order.
func (g *Graph) EdgesFrom(name descriptor.ModuleName) []Edge {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return slices.Clone(g.nodes[i].out)
}

// Edges returns every static edge, grouped by source module in registration order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, n := range g.nodes {
		out = append(out, n.out...)
	}
	return out
}

// Dynamic returns the dynamic dependencies of name in declaration order.
func (g *Graph) Dynamic(name descriptor.ModuleName) []DynamicEdge {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return slices.Clone(g.nodes[i].dynamic)
}

// DynamicEdges returns every dynamic dependency, grouped by source module.
func (g *Graph) DynamicEdges() []DynamicEdge {
	var out []DynamicEdge
	for _, n := range g.nodes {
		out = append(out, n.dynamic...)
	}
	return out
}

// DAG exports the static edges as precedence edges: each dependency is
// ordered before its dependents. Dynamic dependencies are not included.
func (g *Graph) DAG() *dag.Graph {
	d := dag.New()
	for _, n := range g.nodes {
		d.AddNode(string(n.desc.Name))
	}
	for _, n := range g.nodes {
		for _, e := range n.out {
			d.AddEdge(string(e.To), string(e.From))
		}
	}
	return d
}
