// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidModuleName is the sentinel error wrapped by InvalidModuleNameError.
var ErrInvalidModuleName = errors.New("invalid module name")

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(\.[A-Za-z][A-Za-z0-9_-]*)*$`)

// MaxModuleNameLength bounds module names; anything longer is almost
// certainly a pasted path.
const MaxModuleNameLength = 256

type (
	// ModuleName uniquely identifies a module within a registry. Names start
	// with a letter and may contain letters, digits, '_' and '-', optionally
	// split into '.'-separated segments (e.g. "Engine", "Brett.Editor").
	ModuleName string

	// InvalidModuleNameError is returned when a ModuleName does not match
	// the expected format.
	InvalidModuleNameError struct {
		Value ModuleName
	}
)

// String returns the string representation of the ModuleName.
func (n ModuleName) String() string { return string(n) }

// IsValid returns whether the ModuleName is well formed,
// and a list of validation errors if it is not.
func (n ModuleName) IsValid() (bool, []error) {
	if len(n) == 0 || len(n) > MaxModuleNameLength || !moduleNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidModuleNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: must start with a letter and contain only letters, digits, '_', '-' or '.'-separated segments", e.Value)
}

// Unwrap returns ErrInvalidModuleName for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }

// Names converts a list of strings to module names.
func Names(values ...string) []ModuleName {
	if len(values) == 0 {
		return nil
	}
	out := make([]ModuleName, len(values))
	for i, v := range values {
		out[i] = ModuleName(v)
	}
	return out
}
