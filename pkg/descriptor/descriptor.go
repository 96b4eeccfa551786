// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"maps"
	"slices"
)

type (
	// Descriptor is the declared build interface of one module.
	//
	// List order is significant: include paths and dependencies are
	// propagated in declaration order.
	Descriptor struct {
		// Name is the module's unique identifier.
		Name ModuleName
		// Version is an optional semantic version of the module.
		Version string
		// PublicIncludePaths are exposed to the module and its dependents.
		PublicIncludePaths []string
		// PrivateIncludePaths are used to compile the module only.
		PrivateIncludePaths []string
		// PublicDependencies are re-exported to dependents.
		PublicDependencies []ModuleName
		// PrivateDependencies are compiled and linked against but not re-exported.
		PrivateDependencies []ModuleName
		// DynamicDependencies are loaded at run time. They never impose
		// build order and never contribute include paths.
		DynamicDependencies []ModuleName
		// DependencyVersions maps a declared dependency to a semver
		// constraint its version must satisfy.
		DependencyVersions map[ModuleName]string
		// Platforms holds rules appended to the base lists when the
		// descriptor is resolved for a given platform.
		Platforms map[string]PlatformRules
		// Source is the file the descriptor was loaded from. It is
		// informational and not part of the module's identity.
		Source string
	}

	// PlatformRules are platform-conditional additions to a Descriptor.
	PlatformRules struct {
		PublicIncludePaths  []string
		PrivateIncludePaths []string
		PublicDependencies  []ModuleName
		PrivateDependencies []ModuleName
		DynamicDependencies []ModuleName
	}
)

// Dependencies returns the static dependencies declared with visibility v.
func (d *Descriptor) Dependencies(v Visibility) []ModuleName {
	if v == Private {
		return d.PrivateDependencies
	}
	return d.PublicDependencies
}

// StaticDependencies returns the public dependencies followed by the private
// ones, in declaration order.
func (d *Descriptor) StaticDependencies() []ModuleName {
	out := make([]ModuleName, 0, len(d.PublicDependencies)+len(d.PrivateDependencies))
	out = append(out, d.PublicDependencies...)
	return append(out, d.PrivateDependencies...)
}

// PlatformNames returns the platforms with conditional rules, sorted.
func (d *Descriptor) PlatformNames() []string {
	return slices.Sorted(maps.Keys(d.Platforms))
}

// Normalize removes repeated names inside each dependency list, keeping the
// first occurrence. Include paths are left untouched.
func (d *Descriptor) Normalize() {
	d.PublicDependencies = dedupe(d.PublicDependencies)
	d.PrivateDependencies = dedupe(d.PrivateDependencies)
	d.DynamicDependencies = dedupe(d.DynamicDependencies)
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	c.PublicIncludePaths = slices.Clone(d.PublicIncludePaths)
	c.PrivateIncludePaths = slices.Clone(d.PrivateIncludePaths)
	c.PublicDependencies = slices.Clone(d.PublicDependencies)
	c.PrivateDependencies = slices.Clone(d.PrivateDependencies)
	c.DynamicDependencies = slices.Clone(d.DynamicDependencies)
	c.DependencyVersions = maps.Clone(d.DependencyVersions)
	if d.Platforms != nil {
		c.Platforms = make(map[string]PlatformRules, len(d.Platforms))
		for name, rules := range d.Platforms {
			c.Platforms[name] = rules.clone()
		}
	}
	return &c
}

// ForPlatform returns a normalized copy of d with the rules for platform
// appended to the base lists. The copy carries no platform rules of its own,
// and version constraints on dependencies only other platforms declare are
// dropped. An empty or unknown platform yields the base lists.
func (d *Descriptor) ForPlatform(platform string) *Descriptor {
	c := d.Clone()
	if rules, ok := d.Platforms[platform]; ok && platform != "" {
		c.PublicIncludePaths = append(c.PublicIncludePaths, rules.PublicIncludePaths...)
		c.PrivateIncludePaths = append(c.PrivateIncludePaths, rules.PrivateIncludePaths...)
		c.PublicDependencies = append(c.PublicDependencies, rules.PublicDependencies...)
		c.PrivateDependencies = append(c.PrivateDependencies, rules.PrivateDependencies...)
		c.DynamicDependencies = append(c.DynamicDependencies, rules.DynamicDependencies...)
	}
	c.Platforms = nil
	c.Normalize()
	c.DependencyVersions = c.declaredVersions()
	return c
}

// declaredVersions returns the constraints whose dependency d declares in its
// own lists, or nil when none remain.
func (d *Descriptor) declaredVersions() map[ModuleName]string {
	var out map[ModuleName]string
	for _, dep := range slices.Concat(d.StaticDependencies(), d.DynamicDependencies) {
		if c, ok := d.DependencyVersions[dep]; ok {
			if out == nil {
				out = make(map[ModuleName]string, len(d.DependencyVersions))
			}
			out[dep] = c
		}
	}
	return out
}

func (r PlatformRules) clone() PlatformRules {
	return PlatformRules{
		PublicIncludePaths:  slices.Clone(r.PublicIncludePaths),
		PrivateIncludePaths: slices.Clone(r.PrivateIncludePaths),
		PublicDependencies:  slices.Clone(r.PublicDependencies),
		PrivateDependencies: slices.Clone(r.PrivateDependencies),
		DynamicDependencies: slices.Clone(r.DynamicDependencies),
	}
}

func dedupe(names []ModuleName) []ModuleName {
	if len(names) < 2 {
		return names
	}
	seen := make(map[ModuleName]struct{}, len(names))
	out := make([]ModuleName, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
