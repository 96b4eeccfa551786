// SPDX-License-Identifier: MPL-2.0

package planner

import (
	"slices"

	"github.com/modgraph/modgraph/internal/depgraph"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

type (
	// Target names one resolution: a label plus the platform whose
	// conditional rules apply. An empty Platform uses the base rules only.
	Target struct {
		Name     string `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
		Platform string `json:"platform,omitempty" yaml:"platform,omitempty" toml:"platform,omitempty" mapstructure:"platform"`
	}

	// BuildPlan is the ordered result of resolving one target. Every module
	// appears after all of its static dependencies.
	BuildPlan struct {
		Target   string                  `json:"target" yaml:"target" toml:"target"`
		Platform string                  `json:"platform,omitempty" yaml:"platform,omitempty" toml:"platform,omitempty"`
		Order    []descriptor.ModuleName `json:"order" yaml:"order" toml:"order"`
		Modules  []ModulePlan            `json:"modules" yaml:"modules" toml:"modules"`

		edges    []depgraph.Edge
		position map[descriptor.ModuleName]int
	}

	// ModulePlan is the effective build interface of one module after
	// visibility propagation.
	ModulePlan struct {
		Name    descriptor.ModuleName `json:"name" yaml:"name" toml:"name"`
		Version string                `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
		Source  string                `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`

		// PublicIncludePaths is what dependents see: the module's own public
		// paths followed by the public surface of each public dependency.
		PublicIncludePaths []string `json:"public_include_paths" yaml:"public_include_paths" toml:"public_include_paths"`
		// CompileIncludePaths is what the module itself compiles with: own
		// public and private paths plus the public surface of every direct
		// static dependency.
		CompileIncludePaths []string `json:"compile_include_paths" yaml:"compile_include_paths" toml:"compile_include_paths"`

		// PublicDependencyClosure lists the modules re-exported to dependents.
		PublicDependencyClosure []descriptor.ModuleName `json:"public_dependency_closure" yaml:"public_dependency_closure" toml:"public_dependency_closure"`
		// CompileDependencies lists the modules visible while compiling.
		CompileDependencies []descriptor.ModuleName `json:"compile_dependencies" yaml:"compile_dependencies" toml:"compile_dependencies"`
		// LinkDependencies lists every statically reachable module in plan order.
		LinkDependencies []descriptor.ModuleName `json:"link_dependencies" yaml:"link_dependencies" toml:"link_dependencies"`

		DynamicDependencies []depgraph.DynamicEdge `json:"dynamic_dependencies,omitempty" yaml:"dynamic_dependencies,omitempty" toml:"dynamic_dependencies,omitempty"`
	}
)

// Module returns the plan entry for name.
func (p *BuildPlan) Module(name descriptor.ModuleName) (ModulePlan, bool) {
	i := p.Position(name)
	if i < 0 {
		return ModulePlan{}, false
	}
	return p.Modules[i], true
}

// Position returns the index of name in the build order, or -1. Plans from
// Resolve answer from an index built during resolution; plans assembled by
// hand or decoded from output scan Order. Position never mutates p, so it is
// safe for concurrent use.
func (p *BuildPlan) Position(name descriptor.ModuleName) int {
	if p.position == nil {
		return slices.Index(p.Order, name)
	}
	if i, ok := p.position[name]; ok {
		return i
	}
	return -1
}

// Edges returns the static edges the plan was built from.
func (p *BuildPlan) Edges() []depgraph.Edge { return slices.Clone(p.edges) }

// Dependents returns the modules with a direct static dependency on name,
// in build order.
func (p *BuildPlan) Dependents(name descriptor.ModuleName) []descriptor.ModuleName {
	var out []descriptor.ModuleName
	for _, e := range p.edges {
		if e.To == name && !slices.Contains(out, e.From) {
			out = append(out, e.From)
		}
	}
	slices.SortFunc(out, func(a, b descriptor.ModuleName) int { return p.Position(a) - p.Position(b) })
	return out
}
