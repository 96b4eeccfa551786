// SPDX-License-Identifier: MPL-2.0

// Package semver wraps github.com/Masterminds/semver/v3 with the small surface
// modgraph needs for descriptor versions and dependency constraints.
package semver

import (
	"errors"
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
// ErrInvalidConstraint is the sentinel error wrapped by InvalidConstraintError.
var (
	ErrInvalidVersion    = errors.New("invalid semver")
	ErrInvalidConstraint = errors.New("invalid semver constraint")
)

type (
	// Version is a parsed semantic version. The zero value is "no version"
	// and satisfies no constraint.
	Version struct {
		v *mm.Version
	}

	// Constraint is a parsed version constraint such as ">=1.2.0 <2.0.0",
	// "^1.0.0" or "~1.4".
	Constraint struct {
		c   *mm.Constraints
		raw string
	}

	// InvalidVersionError is returned when a version string does not parse.
	InvalidVersionError struct {
		Value string
		Cause error
	}

	// InvalidConstraintError is returned when a constraint string does not parse.
	InvalidConstraintError struct {
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid semver %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Error implements the error interface.
func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid semver constraint %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidConstraint so callers can use errors.Is for programmatic detection.
func (e *InvalidConstraintError) Unwrap() error { return ErrInvalidConstraint }

// ParseVersion parses raw as a semantic version. A leading "v" is accepted.
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, &InvalidVersionError{Value: raw, Cause: err}
	}
	return Version{v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses raw as a version constraint.
func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, &InvalidConstraintError{Value: raw, Cause: err}
	}
	return Constraint{c: c, raw: raw}, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

// String returns the normalized version string, or "" for the zero Version.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// String returns the constraint as written.
func (c Constraint) String() string { return c.raw }

// Satisfies reports whether v meets c. The zero Version satisfies nothing.
func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// The zero Version sorts before every other version.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
