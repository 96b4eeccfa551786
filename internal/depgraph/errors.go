// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"errors"
	"fmt"

	"github.com/modgraph/modgraph/pkg/descriptor"
)

var (
	// ErrUnresolvedDependency is the sentinel error wrapped by UnresolvedDependencyError.
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	// ErrIncompatibleVersion is the sentinel error wrapped by IncompatibleVersionError.
	ErrIncompatibleVersion = errors.New("incompatible dependency version")
)

type (
	// UnresolvedDependencyError is returned when a static dependency names a
	// module that is not registered.
	UnresolvedDependencyError struct {
		Module     descriptor.ModuleName
		Missing    descriptor.ModuleName
		Visibility descriptor.Visibility
	}

	// IncompatibleVersionError is returned when a registered dependency does
	// not satisfy the version constraint declared for it.
	IncompatibleVersionError struct {
		Module     descriptor.ModuleName
		Dependency descriptor.ModuleName
		Constraint string
		// Version is empty when the dependency declares no version.
		Version string
	}
)

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("module %s has a %s dependency on %s, which is not registered", e.Module, e.Visibility, e.Missing)
}

// Unwrap returns ErrUnresolvedDependency for errors.Is() compatibility.
func (e *UnresolvedDependencyError) Unwrap() error { return ErrUnresolvedDependency }

// Error implements the error interface.
func (e *IncompatibleVersionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("module %s requires %s %s, but %s declares no version", e.Module, e.Dependency, e.Constraint, e.Dependency)
	}
	return fmt.Sprintf("module %s requires %s %s, found %s", e.Module, e.Dependency, e.Constraint, e.Version)
}

// Unwrap returns ErrIncompatibleVersion for errors.Is() compatibility.
func (e *IncompatibleVersionError) Unwrap() error { return ErrIncompatibleVersion }
