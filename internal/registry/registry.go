// SPDX-License-Identifier: MPL-2.0

// Package registry holds the set of module descriptors taking part in one
// resolution run, keyed by module name.
//
// A Registry is not safe for concurrent mutation. It is filled once and then
// only read; parallel resolutions each build their own Registry.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/modgraph/modgraph/pkg/descriptor"
)

var (
	// ErrDuplicateModule is the sentinel error wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("duplicate module")
	// ErrUnknownModule is the sentinel error wrapped by UnknownModuleError.
	ErrUnknownModule = errors.New("unknown module")
)

type (
	// Registry maps module names to validated, normalized descriptors and
	// remembers registration order.
	Registry struct {
		byName map[descriptor.ModuleName]*descriptor.Descriptor
		order  []descriptor.ModuleName
	}

	// DuplicateModuleError is returned when a name is registered twice.
	DuplicateModuleError struct {
		Name           descriptor.ModuleName
		ExistingSource string
		Source         string
	}

	// UnknownModuleError is returned by Lookup for a name that was never registered.
	UnknownModuleError struct {
		Name descriptor.ModuleName
	}
)

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	msg := fmt.Sprintf("module %s is already registered", e.Name)
	switch {
	case e.ExistingSource != "" && e.Source != "":
		msg += fmt.Sprintf(" (from %s, again in %s)", e.ExistingSource, e.Source)
	case e.ExistingSource != "":
		msg += fmt.Sprintf(" (from %s)", e.ExistingSource)
	}
	return msg
}

// Unwrap returns ErrDuplicateModule for errors.Is() compatibility.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// Error implements the error interface.
func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("module %s is not registered", e.Name)
}

// Unwrap returns ErrUnknownModule for errors.Is() compatibility.
func (e *UnknownModuleError) Unwrap() error { return ErrUnknownModule }

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[descriptor.ModuleName]*descriptor.Descriptor)}
}

// FromDescriptors builds a Registry from descs flattened for platform.
// It stops at the first descriptor that fails to register.
func FromDescriptors(descs []*descriptor.Descriptor, platform string) (*Registry, error) {
	r := New()
	for _, d := range descs {
		if err := r.Register(d.ForPlatform(platform)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register stores a normalized copy of d. A name that is already registered
// fails with *DuplicateModuleError before d itself is validated. Later
// changes to d do not affect the registry.
func (r *Registry) Register(d *descriptor.Descriptor) error {
	if d == nil {
		return errors.New("register: nil descriptor")
	}
	if existing, ok := r.byName[d.Name]; ok {
		return &DuplicateModuleError{Name: d.Name, ExistingSource: existing.Source, Source: d.Source}
	}
	if err := d.Validate(); err != nil {
		return err
	}

	stored := d.Clone()
	stored.Normalize()
	r.byName[stored.Name] = stored
	r.order = append(r.order, stored.Name)
	return nil
}

// Lookup returns the descriptor registered under name. The returned value
// must be treated as read-only.
func (r *Registry) Lookup(name descriptor.ModuleName) (*descriptor.Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, &UnknownModuleError{Name: name}
	}
	return d, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name descriptor.ModuleName) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.order) }

// Names returns the registered names in registration order.
func (r *Registry) Names() []descriptor.ModuleName { return slices.Clone(r.order) }

// All yields every descriptor in registration order. The sequence may be
// ranged over any number of times.
func (r *Registry) All() iter.Seq[*descriptor.Descriptor] {
	return func(yield func(*descriptor.Descriptor) bool) {
		for _, name := range r.order {
			if !yield(r.byName[name]) {
				return
			}
		}
	}
}
