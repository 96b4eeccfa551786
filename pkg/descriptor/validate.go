// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modgraph/modgraph/pkg/semver"
)

var (
	// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrSelfDependency is the sentinel error wrapped by SelfDependencyError.
	ErrSelfDependency = errors.New("module depends on itself")
	// ErrOverlappingDependency is the sentinel error wrapped by OverlappingDependencyError.
	ErrOverlappingDependency = errors.New("dependency declared both public and private")
	// ErrUndeclaredVersionedDependency is the sentinel error wrapped by UndeclaredVersionedDependencyError.
	ErrUndeclaredVersionedDependency = errors.New("version constraint for undeclared dependency")
)

type (
	// InvalidDescriptorError collects every problem found in one descriptor.
	InvalidDescriptorError struct {
		Module   ModuleName
		Source   string
		Problems []error
	}

	// SelfDependencyError is reported when a module lists itself as a dependency.
	SelfDependencyError struct {
		Module ModuleName
		// List is "public", "private" or "dynamic".
		List string
	}

	// OverlappingDependencyError is reported when a dependency appears in
	// both the public and the private list.
	OverlappingDependencyError struct {
		Module     ModuleName
		Dependency ModuleName
	}

	// UndeclaredVersionedDependencyError is reported when a version
	// constraint names a module that is not a declared dependency.
	UndeclaredVersionedDependencyError struct {
		Module     ModuleName
		Dependency ModuleName
	}
)

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	var b strings.Builder
	name := string(e.Module)
	if name == "" {
		name = "<unnamed>"
	}
	fmt.Fprintf(&b, "invalid descriptor for module %s", name)
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	b.WriteString(":")
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Unwrap returns ErrInvalidDescriptor followed by the collected problems, so
// errors.Is and errors.As reach both the sentinel and each problem.
func (e *InvalidDescriptorError) Unwrap() []error {
	return append([]error{ErrInvalidDescriptor}, e.Problems...)
}

// Error implements the error interface.
func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("module %s lists itself as a %s dependency", e.Module, e.List)
}

// Unwrap returns ErrSelfDependency for errors.Is() compatibility.
func (e *SelfDependencyError) Unwrap() error { return ErrSelfDependency }

// Error implements the error interface.
func (e *OverlappingDependencyError) Error() string {
	return fmt.Sprintf("module %s declares %s as both a public and a private dependency", e.Module, e.Dependency)
}

// Unwrap returns ErrOverlappingDependency for errors.Is() compatibility.
func (e *OverlappingDependencyError) Unwrap() error { return ErrOverlappingDependency }

// Error implements the error interface.
func (e *UndeclaredVersionedDependencyError) Error() string {
	return fmt.Sprintf("module %s constrains the version of %s, which it does not depend on", e.Module, e.Dependency)
}

// Unwrap returns ErrUndeclaredVersionedDependency for errors.Is() compatibility.
func (e *UndeclaredVersionedDependencyError) Unwrap() error { return ErrUndeclaredVersionedDependency }

// Validate checks the descriptor on its own, without looking at other
// modules. It returns nil or an *InvalidDescriptorError listing every
// problem. Platform rules are checked as if they were applied.
func (d *Descriptor) Validate() error {
	var problems []error

	if ok, errs := d.Name.IsValid(); !ok {
		problems = append(problems, errs...)
	}
	if d.Version != "" {
		if _, err := semver.ParseVersion(d.Version); err != nil {
			problems = append(problems, err)
		}
	}

	base := d.validateLists()
	problems = append(problems, base...)
	reported := make(map[string]struct{}, len(base))
	for _, p := range base {
		reported[p.Error()] = struct{}{}
	}
	for _, platform := range d.PlatformNames() {
		for _, p := range d.ForPlatform(platform).validateLists() {
			if _, ok := reported[p.Error()]; ok {
				continue
			}
			problems = append(problems, fmt.Errorf("platform %s: %w", platform, p))
		}
	}

	// a constraint may name a dependency any platform declares
	declared := make(map[ModuleName]struct{})
	for _, n := range slices.Concat(d.StaticDependencies(), d.DynamicDependencies) {
		declared[n] = struct{}{}
	}
	for _, rules := range d.Platforms {
		for _, n := range slices.Concat(rules.PublicDependencies, rules.PrivateDependencies, rules.DynamicDependencies) {
			declared[n] = struct{}{}
		}
	}
	for _, dep := range sortedKeys(d.DependencyVersions) {
		if _, ok := declared[dep]; !ok {
			problems = append(problems, &UndeclaredVersionedDependencyError{Module: d.Name, Dependency: dep})
		}
		if _, err := semver.ParseConstraint(d.DependencyVersions[dep]); err != nil {
			problems = append(problems, err)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &InvalidDescriptorError{Module: d.Name, Source: d.Source, Problems: problems}
}

// validateLists checks the dependency lists of an already flattened descriptor.
func (d *Descriptor) validateLists() []error {
	var problems []error
	lists := []struct {
		label string
		names []ModuleName
	}{
		{"public", d.PublicDependencies},
		{"private", d.PrivateDependencies},
		{"dynamic", d.DynamicDependencies},
	}
	for _, l := range lists {
		for _, n := range l.names {
			if ok, errs := n.IsValid(); !ok {
				problems = append(problems, errs...)
				continue
			}
			if n == d.Name {
				problems = append(problems, &SelfDependencyError{Module: d.Name, List: l.label})
			}
		}
	}

	public := make(map[ModuleName]struct{}, len(d.PublicDependencies))
	for _, n := range d.PublicDependencies {
		public[n] = struct{}{}
	}
	for _, n := range d.PrivateDependencies {
		if _, ok := public[n]; ok {
			problems = append(problems, &OverlappingDependencyError{Module: d.Name, Dependency: n})
		}
	}
	return problems
}

func sortedKeys[V any](m map[ModuleName]V) []ModuleName {
	keys := make([]ModuleName, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
