// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"bytes"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema is one definition of an embedded CUE schema. It is immutable and
// safe for concurrent use; every Decode runs in its own CUE context.
type Schema struct {
	source     []byte
	definition string
}

// Compile checks that source compiles and defines definition.
func Compile(source []byte, definition string) (*Schema, error) {
	s := &Schema{source: bytes.Clone(source), definition: definition}
	if _, err := s.root(cuecontext.New()); err != nil {
		return nil, err
	}
	return s, nil
}

// MustCompile is Compile for package-level schemas embedded at build time.
func MustCompile(source []byte, definition string) *Schema {
	s, err := Compile(source, definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the schema text.
func (s *Schema) Source() []byte { return bytes.Clone(s.source) }

func (s *Schema) root(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileBytes(s.source)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema %s: %w", s.definition, err)
	}
	def := v.LookupPath(cue.ParsePath(s.definition))
	if err := def.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("schema definition %s: %w", s.definition, err)
	}
	return def, nil
}

// Decode unifies data with s and decodes the result into a T. Documents
// larger than DefaultMaxFileSize are refused before compiling.
func Decode[T any](s *Schema, data []byte, opts ...Option) (*T, error) {
	o := decodeOptions{filename: "<input>", concrete: true}
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckSize(o.filename, int64(len(data))); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schema, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	doc := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := doc.Err(); err != nil {
		return nil, newValidationError(o.filename, err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, newValidationError(o.filename, err)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, newValidationError(o.filename, err)
	}
	return &out, nil
}
