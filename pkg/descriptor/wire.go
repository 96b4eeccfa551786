// SPDX-License-Identifier: MPL-2.0

package descriptor

// fileDescriptor is the on-disk shape shared by the CUE, JSON, TOML and
// YAML decoders.
type (
	fileDescriptor struct {
		Name                string               `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
		Version             string               `json:"version,omitempty" toml:"version,omitempty" yaml:"version,omitempty"`
		PublicIncludePaths  []string             `json:"public_include_paths,omitempty" toml:"public_include_paths,omitempty" yaml:"public_include_paths,omitempty"`
		PrivateIncludePaths []string             `json:"private_include_paths,omitempty" toml:"private_include_paths,omitempty" yaml:"private_include_paths,omitempty"`
		PublicDependencies  []string             `json:"public_dependencies,omitempty" toml:"public_dependencies,omitempty" yaml:"public_dependencies,omitempty"`
		PrivateDependencies []string             `json:"private_dependencies,omitempty" toml:"private_dependencies,omitempty" yaml:"private_dependencies,omitempty"`
		DynamicDependencies []string             `json:"dynamic_dependencies,omitempty" toml:"dynamic_dependencies,omitempty" yaml:"dynamic_dependencies,omitempty"`
		DependencyVersions  map[string]string    `json:"dependency_versions,omitempty" toml:"dependency_versions,omitempty" yaml:"dependency_versions,omitempty"`
		Platforms           map[string]fileRules `json:"platforms,omitempty" toml:"platforms,omitempty" yaml:"platforms,omitempty"`
	}

	fileRules struct {
		PublicIncludePaths  []string `json:"public_include_paths,omitempty" toml:"public_include_paths,omitempty" yaml:"public_include_paths,omitempty"`
		PrivateIncludePaths []string `json:"private_include_paths,omitempty" toml:"private_include_paths,omitempty" yaml:"private_include_paths,omitempty"`
		PublicDependencies  []string `json:"public_dependencies,omitempty" toml:"public_dependencies,omitempty" yaml:"public_dependencies,omitempty"`
		PrivateDependencies []string `json:"private_dependencies,omitempty" toml:"private_dependencies,omitempty" yaml:"private_dependencies,omitempty"`
		DynamicDependencies []string `json:"dynamic_dependencies,omitempty" toml:"dynamic_dependencies,omitempty" yaml:"dynamic_dependencies,omitempty"`
	}
)

func (f *fileDescriptor) toDescriptor() *Descriptor {
	d := &Descriptor{
		Name:                ModuleName(f.Name),
		Version:             f.Version,
		PublicIncludePaths:  f.PublicIncludePaths,
		PrivateIncludePaths: f.PrivateIncludePaths,
		PublicDependencies:  Names(f.PublicDependencies...),
		PrivateDependencies: Names(f.PrivateDependencies...),
		DynamicDependencies: Names(f.DynamicDependencies...),
	}
	if len(f.DependencyVersions) > 0 {
		d.DependencyVersions = make(map[ModuleName]string, len(f.DependencyVersions))
		for k, v := range f.DependencyVersions {
			d.DependencyVersions[ModuleName(k)] = v
		}
	}
	if len(f.Platforms) > 0 {
		d.Platforms = make(map[string]PlatformRules, len(f.Platforms))
		for name, r := range f.Platforms {
			d.Platforms[name] = r.toRules()
		}
	}
	return d
}

func (r fileRules) toRules() PlatformRules {
	return PlatformRules{
		PublicIncludePaths:  r.PublicIncludePaths,
		PrivateIncludePaths: r.PrivateIncludePaths,
		PublicDependencies:  Names(r.PublicDependencies...),
		PrivateDependencies: Names(r.PrivateDependencies...),
		DynamicDependencies: Names(r.DynamicDependencies...),
	}
}

func fromDescriptor(d *Descriptor) *fileDescriptor {
	f := &fileDescriptor{
		Name:                string(d.Name),
		Version:             d.Version,
		PublicIncludePaths:  d.PublicIncludePaths,
		PrivateIncludePaths: d.PrivateIncludePaths,
		PublicDependencies:  namesToStrings(d.PublicDependencies),
		PrivateDependencies: namesToStrings(d.PrivateDependencies),
		DynamicDependencies: namesToStrings(d.DynamicDependencies),
	}
	if len(d.DependencyVersions) > 0 {
		f.DependencyVersions = make(map[string]string, len(d.DependencyVersions))
		for k, v := range d.DependencyVersions {
			f.DependencyVersions[string(k)] = v
		}
	}
	if len(d.Platforms) > 0 {
		f.Platforms = make(map[string]fileRules, len(d.Platforms))
		for name, r := range d.Platforms {
			f.Platforms[name] = fileRules{
				PublicIncludePaths:  r.PublicIncludePaths,
				PrivateIncludePaths: r.PrivateIncludePaths,
				PublicDependencies:  namesToStrings(r.PublicDependencies),
				PrivateDependencies: namesToStrings(r.PrivateDependencies),
				DynamicDependencies: namesToStrings(r.DynamicDependencies),
			}
		}
	}
	return f
}

func namesToStrings(names []ModuleName) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
