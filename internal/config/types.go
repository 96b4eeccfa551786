// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

const (
	// OutputText renders plans as a styled table.
	OutputText OutputFormat = "text"
	// OutputJSON renders plans as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders plans as YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputTOML renders plans as TOML.
	OutputTOML OutputFormat = "toml"
	// OutputDOT renders the dependency graph as Graphviz dot.
	OutputDOT OutputFormat = "dot"

	// LogLevelDebug enables debug logging.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn only logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only logs errors.
	LogLevelError LogLevel = "error"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidRoot is returned when a discovery root is blank.
	ErrInvalidRoot = errors.New("invalid discovery root")
	// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	allOutputFormats = []OutputFormat{OutputText, OutputJSON, OutputYAML, OutputTOML, OutputDOT}
	allLogLevels     = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
	allColorSchemes  = []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight}
)

type (
	// OutputFormat selects how plans are rendered.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// ColorScheme specifies the color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidRootError is returned for a blank discovery root entry.
	InvalidRootError struct {
		Index int
	}

	// InvalidTargetError is returned when a configured target cannot be resolved.
	InvalidTargetError struct {
		Index int
		Cause error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Roots are the directories scanned for descriptor files.
		Roots []string `json:"roots" mapstructure:"roots"`
		// Targets are the resolutions performed by the plan command.
		Targets []planner.Target `json:"targets" mapstructure:"targets"`
		// Output configures plan rendering.
		Output OutputConfig `json:"output" mapstructure:"output"`
		// UI configures the terminal output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Log configures diagnostics written to stderr.
		Log LogConfig `json:"log" mapstructure:"log"`
		// Metrics configures the resolution metrics textfile.
		Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
		// Dynamic configures handling of dynamically loaded dependencies.
		Dynamic DynamicConfig `json:"dynamic" mapstructure:"dynamic"`
	}

	// OutputConfig configures plan rendering.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
	}

	// UIConfig configures the terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose forces debug logging and detailed error output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// LogConfig configures diagnostics written to stderr.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// MetricsConfig configures the resolution metrics textfile.
	MetricsConfig struct {
		// Textfile is the path of the node-exporter textfile. Empty disables it.
		Textfile string `json:"textfile" mapstructure:"textfile"`
	}

	// DynamicConfig configures handling of dynamically loaded dependencies.
	DynamicConfig struct {
		// WarnMissing logs a warning for every dynamic dependency that is not registered.
		WarnMissing bool `json:"warn_missing" mapstructure:"warn_missing"`
	}
)

// OutputFormats returns every supported output format.
func OutputFormats() []OutputFormat {
	return append([]OutputFormat(nil), allOutputFormats...)
}

// ParseOutputFormat converts s into an OutputFormat, rejecting unknown names.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if ok, errs := f.IsValid(); !ok {
		return "", errs[0]
	}
	return f, nil
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: %s)", e.Value, joinValues(allOutputFormats))
}

// Unwrap returns ErrInvalidOutputFormat so callers can use errors.Is for programmatic detection.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the OutputFormat is one of the defined formats,
// and a list of validation errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	for _, known := range allOutputFormats {
		if f == known {
			return true, nil
		}
	}
	return false, []error{&InvalidOutputFormatError{Value: f}}
}

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// ParseLogLevel converts s into a LogLevel, rejecting unknown names.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if ok, errs := l.IsValid(); !ok {
		return "", errs[0]
	}
	return l, nil
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: %s)", e.Value, joinValues(allLogLevels))
}

// Unwrap returns ErrInvalidLogLevel so callers can use errors.Is for programmatic detection.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	for _, known := range allLogLevels {
		if l == known {
			return true, nil
		}
	}
	return false, []error{&InvalidLogLevelError{Value: l}}
}

// SlogLevel maps the level onto its log/slog equivalent. Unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: %s)", e.Value, joinValues(allColorSchemes))
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is for programmatic detection.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	for _, known := range allColorSchemes {
		if cs == known {
			return true, nil
		}
	}
	return false, []error{&InvalidColorSchemeError{Value: cs}}
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("roots[%d]: discovery root must not be empty", e.Index)
}

// Unwrap returns ErrInvalidRoot.
func (e *InvalidRootError) Unwrap() error { return ErrInvalidRoot }

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("targets[%d]: %v", e.Index, e.Cause)
}

// Unwrap returns both ErrInvalidTarget and the underlying cause.
func (e *InvalidTargetError) Unwrap() []error { return []error{ErrInvalidTarget, e.Cause} }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
// It delegates to every typed field and collects the failures.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	for i, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			errs = append(errs, &InvalidRootError{Index: i})
		}
	}
	for i, t := range c.Targets {
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, &InvalidTargetError{Index: i, Cause: errors.New("target name must not be empty")})
			continue
		}
		if ok, nameErrs := descriptor.ModuleName(t.Name).IsValid(); !ok {
			errs = append(errs, &InvalidTargetError{Index: i, Cause: nameErrs[0]})
		}
	}
	if c.Output.Format != "" {
		if ok, fieldErrs := c.Output.Format.IsValid(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.Log.Level != "" {
		if ok, fieldErrs := c.Log.Level.IsValid(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.UI.ColorScheme != "" {
		if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid in error-returning form.
func (c *Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Roots:   []string{"Source", "Plugins"},
		Targets: []planner.Target{{Name: "default"}},
		Output:  OutputConfig{Format: OutputText},
		UI:      UIConfig{ColorScheme: ColorSchemeAuto},
		Log:     LogConfig{Level: LogLevelInfo},
		Dynamic: DynamicConfig{WarnMissing: true},
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
