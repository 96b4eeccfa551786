// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a failure at the CLI boundary: what modgraph was
	// doing, which file, root or target it was doing it to, and what the user
	// can try next. It may name a catalogue entry explicitly; otherwise the
	// entry is derived from the cause chain.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("resolve build plan").
	//		WithResource("server").
	//		WithSuggestion("Break the loop by making one edge dynamic").
	//		Wrap(err).
	//		Build()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration".
		Operation string
		// Resource is the file, root or target involved, if any.
		Resource string
		// Suggestions are printed as bullets under the message.
		Suggestions []string
		// Cause is the domain error being reported.
		Cause error
		// IssueId pins the catalogue entry; zero means derive it from Cause.
		IssueId Id
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext starts an empty ActionableError builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets the operation that failed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the file, root or target involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends one hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

// WithSuggestions appends several hints.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sugs...)
	return c
}

// WithIssue links the error to a catalogue entry shown by 'modgraph explain'.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.IssueId = id
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the accumulated error, or a nil error interface when no
// operation was set.
func (c *ErrorContext) Build() error {
	if c.err.Operation == "" {
		return nil
	}
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}

// Error returns "failed to <operation>: <resource>: <cause>".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Issue returns the catalogue entry for e: the pinned IssueId if set,
// otherwise whatever the cause chain maps to, nested ActionableErrors
// included.
func (e *ActionableError) Issue() (*Issue, bool) {
	if e.IssueId != 0 {
		if i, ok := issues[e.IssueId]; ok {
			return i, true
		}
	}
	return ForError(e.Cause)
}

// Format renders the message followed by the suggestions and a pointer to
// the matching catalogue entry. Verbose output appends the numbered cause
// chain.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}
	if i, ok := e.Issue(); ok {
		b.WriteString("\n")
		b.WriteString(explainHint(i))
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err.Error())
		}
	}
	return b.String()
}

// Describe renders any error for the terminal. The outermost ActionableError
// in the chain is rendered with Format; other errors print their message and,
// when the catalogue knows them, the explain pointer.
func Describe(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	if i, ok := forCause(err); ok {
		return err.Error() + "\n" + explainHint(i)
	}
	return err.Error()
}

func explainHint(i *Issue) string {
	return "  run 'modgraph explain " + i.Slug() + "' for details"
}
