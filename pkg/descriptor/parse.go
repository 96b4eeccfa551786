// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modgraph/modgraph/pkg/cueutil"
)

// FileMarker separates the module name from the format extension in
// descriptor file names.
const FileMarker = ".build."

var (
	// ErrParseDescriptor is the sentinel error wrapped by ParseError.
	ErrParseDescriptor = errors.New("cannot parse descriptor")
	// ErrUnsupportedFormat is returned for files that are not descriptor files.
	ErrUnsupportedFormat = errors.New("unsupported descriptor format")
	// ErrNameMismatch is the sentinel error wrapped by NameMismatchError.
	ErrNameMismatch = errors.New("descriptor name does not match file name")
)

// Format is a descriptor file encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

var formatByExt = map[string]Format{
	"cue":  FormatCUE,
	"json": FormatJSON,
	"toml": FormatTOML,
	"yaml": FormatYAML,
	"yml":  FormatYAML,
	"hcl":  FormatHCL,
}

type (
	// ParseError wraps a decoding failure with the offending file.
	ParseError struct {
		Path string
		Err  error
	}

	// NameMismatchError is returned when a descriptor's name field differs
	// from the name encoded in its file name.
	NameMismatchError struct {
		Path     string
		Declared ModuleName
		Expected ModuleName
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse descriptor %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrParseDescriptor and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrParseDescriptor, e.Err} }

// Error implements the error interface.
func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("%s declares module %q but its file name implies %q", e.Path, e.Declared, e.Expected)
}

// Unwrap returns ErrNameMismatch for errors.Is() compatibility.
func (e *NameMismatchError) Unwrap() error { return ErrNameMismatch }

// SplitFileName splits a descriptor file name such as "Engine.build.cue"
// into its module name and format. ok is false for any other file.
func SplitFileName(path string) (name ModuleName, format Format, ok bool) {
	base := filepath.Base(path)
	idx := strings.LastIndex(base, FileMarker)
	if idx <= 0 {
		return "", "", false
	}
	format, ok = formatByExt[strings.ToLower(base[idx+len(FileMarker):])]
	if !ok {
		return "", "", false
	}
	return ModuleName(base[:idx]), format, true
}

// IsDescriptorFile reports whether path names a descriptor file.
func IsDescriptorFile(path string) bool {
	_, _, ok := SplitFileName(path)
	return ok
}

// Extensions returns the recognized descriptor file extensions.
func Extensions() []string {
	return []string{"cue", "json", "toml", "yaml", "yml", "hcl"}
}

// ParseFile reads and decodes the descriptor at path.
func ParseFile(path string) (*Descriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := cueutil.CheckSize(path, info.Size()); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes data using the format implied by filename. The resulting
// descriptor is normalized but not validated.
func Parse(data []byte, filename string) (*Descriptor, error) {
	expected, format, ok := SplitFileName(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s (want <Name>%s{%s})", ErrUnsupportedFormat, filename, FileMarker, strings.Join(Extensions(), ","))
	}
	if err := cueutil.CheckSize(filename, int64(len(data))); err != nil {
		return nil, &ParseError{Path: filename, Err: err}
	}

	var (
		d   *Descriptor
		err error
	)
	switch format {
	case FormatCUE, FormatJSON:
		d, err = decodeCUE(data, filename)
	case FormatTOML:
		d, err = decodeTOML(data)
	case FormatYAML:
		d, err = decodeYAML(data)
	case FormatHCL:
		d, err = decodeHCL(data, filename)
	}
	if err != nil {
		return nil, &ParseError{Path: filename, Err: err}
	}

	if d.Name == "" {
		d.Name = expected
	} else if d.Name != expected {
		return nil, &NameMismatchError{Path: filename, Declared: d.Name, Expected: expected}
	}
	d.Source = filename
	d.Normalize()
	return d, nil
}
