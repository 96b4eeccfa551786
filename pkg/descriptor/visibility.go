// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"errors"
	"fmt"
)

// ErrInvalidVisibility is returned when a visibility string is not recognized.
var ErrInvalidVisibility = errors.New("invalid visibility")

// Visibility says whether a dependency is re-exported to dependents (Public)
// or only used to build the declaring module (Private).
type Visibility int

const (
	// Public dependencies are visible to the declaring module and,
	// transitively, to every module that depends on it.
	Public Visibility = iota
	// Private dependencies are visible to the declaring module only.
	Private
)

// String returns "public" or "private".
func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) {
	switch v {
	case Public, Private:
		return []byte(v.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidVisibility, int(v))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Visibility) UnmarshalText(text []byte) error {
	parsed, err := ParseVisibility(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVisibility parses "public" or "private".
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "public":
		return Public, nil
	case "private":
		return Private, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVisibility, s)
	}
}
