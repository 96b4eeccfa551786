// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize is the largest descriptor or config file accepted (5 MiB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// ErrSchemaViolation is wrapped by ValidationError.
// ErrFileTooLarge is wrapped by FileTooLargeError.
var (
	ErrSchemaViolation = errors.New("schema violation")
	ErrFileTooLarge    = errors.New("file too large")
)

type (
	// FieldError is one violation at a field path such as
	// "targets[0].platform". Path is empty for document-level errors like
	// syntax errors.
	FieldError struct {
		Path    string
		Message string
	}

	// ValidationError lists every schema violation found in one document.
	ValidationError struct {
		File   string
		Fields []FieldError
	}

	// FileTooLargeError is returned for documents above DefaultMaxFileSize.
	FileTooLargeError struct {
		File string
		Size int64
		Max  int64
	}
)

// Error renders "<file>: <path>: <message>", or a bulleted list when the
// document has several violations.
func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	if len(lines) == 1 {
		return e.File + ": " + lines[0]
	}
	return fmt.Sprintf("%s: %d schema violations:\n  %s", e.File, len(lines), strings.Join(lines, "\n  "))
}

func (e *ValidationError) Unwrap() error { return ErrSchemaViolation }

// Paths returns the field paths with violations, in report order.
func (e *ValidationError) Paths() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Path != "" {
			out = append(out, f.Path)
		}
	}
	return out
}

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.File, e.Size, e.Max)
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// CheckSize refuses files above DefaultMaxFileSize.
func CheckSize(file string, size int64) error {
	if size > DefaultMaxFileSize {
		return &FileTooLargeError{File: file, Size: size, Max: DefaultMaxFileSize}
	}
	return nil
}

// newValidationError splits a CUE error into one FieldError per reported
// problem. Errors that did not come from CUE are wrapped with the file name.
func newValidationError(file string, err error) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	v := &ValidationError{File: file}
	for _, e := range list {
		path := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" {
			if rest, ok := strings.CutPrefix(msg, path); ok {
				msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			}
		}
		v.Fields = append(v.Fields, FieldError{Path: path, Message: msg})
	}
	return v
}

// fieldPath renders CUE selectors the way users write them in descriptor and
// config files: ["targets" "0" "name"] becomes "targets[0].name".
func fieldPath(selectors []string) string {
	var b strings.Builder
	for i, sel := range selectors {
		switch {
		case i > 0 && isIndex(sel):
			b.WriteString("[" + sel + "]")
		case i > 0:
			b.WriteString("." + sel)
		default:
			b.WriteString(sel)
		}
	}
	return b.String()
}

func isIndex(sel string) bool {
	return sel != "" && strings.Trim(sel, "0123456789") == ""
}
