// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/modgraph/modgraph/pkg/cueutil"
)

//go:embed descriptor_schema.cue
var schemaSource []byte

var schema = cueutil.MustCompile(schemaSource, "#Descriptor")

// Schema returns the compiled schema CUE and JSON descriptors are checked
// against.
func Schema() *cueutil.Schema { return schema }

func decodeCUE(data []byte, filename string) (*Descriptor, error) {
	f, err := cueutil.Decode[fileDescriptor](schema, data, cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	return f.toDescriptor(), nil
}

func decodeTOML(data []byte) (*Descriptor, error) {
	var f fileDescriptor
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown fields:\n%s", strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}
	return f.toDescriptor(), nil
}

func decodeYAML(data []byte) (*Descriptor, error) {
	var f fileDescriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f.toDescriptor(), nil
}

type (
	hclFile struct {
		Modules []*hclModule `hcl:"module,block"`
	}

	hclModule struct {
		Name                string            `hcl:"name,label"`
		Version             string            `hcl:"version,optional"`
		PublicIncludePaths  []string          `hcl:"public_include_paths,optional"`
		PrivateIncludePaths []string          `hcl:"private_include_paths,optional"`
		PublicDependencies  []string          `hcl:"public_dependencies,optional"`
		PrivateDependencies []string          `hcl:"private_dependencies,optional"`
		DynamicDependencies []string          `hcl:"dynamic_dependencies,optional"`
		DependencyVersions  map[string]string `hcl:"dependency_versions,optional"`
		Platforms           []*hclPlatform    `hcl:"platform,block"`
	}

	hclPlatform struct {
		Name                string   `hcl:"name,label"`
		PublicIncludePaths  []string `hcl:"public_include_paths,optional"`
		PrivateIncludePaths []string `hcl:"private_include_paths,optional"`
		PublicDependencies  []string `hcl:"public_dependencies,optional"`
		PrivateDependencies []string `hcl:"private_dependencies,optional"`
		DynamicDependencies []string `hcl:"dynamic_dependencies,optional"`
	}
)

func decodeHCL(data []byte, filename string) (*Descriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}
	if len(root.Modules) != 1 {
		return nil, fmt.Errorf("expected exactly one module block, found %d", len(root.Modules))
	}

	m := root.Modules[0]
	f := fileDescriptor{
		Name:                m.Name,
		Version:             m.Version,
		PublicIncludePaths:  m.PublicIncludePaths,
		PrivateIncludePaths: m.PrivateIncludePaths,
		PublicDependencies:  m.PublicDependencies,
		PrivateDependencies: m.PrivateDependencies,
		DynamicDependencies: m.DynamicDependencies,
		DependencyVersions:  m.DependencyVersions,
	}
	for _, p := range m.Platforms {
		if f.Platforms == nil {
			f.Platforms = make(map[string]fileRules, len(m.Platforms))
		}
		if _, dup := f.Platforms[p.Name]; dup {
			return nil, fmt.Errorf("platform %q declared more than once", p.Name)
		}
		f.Platforms[p.Name] = fileRules{
			PublicIncludePaths:  p.PublicIncludePaths,
			PrivateIncludePaths: p.PrivateIncludePaths,
			PublicDependencies:  p.PublicDependencies,
			PrivateDependencies: p.PrivateDependencies,
			DynamicDependencies: p.DynamicDependencies,
		}
	}
	return f.toDescriptor(), nil
}

// Marshal encodes d in the given format. HCL and CUE output are not
// supported; CUE readers accept the JSON form.
func Marshal(d *Descriptor, format Format) ([]byte, error) {
	f := fromDescriptor(d)
	switch format {
	case FormatJSON, FormatCUE:
		out, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatTOML:
		return toml.Marshal(f)
	case FormatYAML:
		return yaml.Marshal(f)
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedFormat, format)
	}
}
