// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/modgraph/modgraph/internal/dag"
	"github.com/modgraph/modgraph/internal/depgraph"
	"github.com/modgraph/modgraph/internal/registry"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

func passthroughRender(in, _ string) (string, error) { return in, nil }

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{DescriptorParseErrorId, false, "Failed to parse a module descriptor"},
		{InvalidDescriptorId, false, "Invalid module descriptor"},
		{DuplicateModuleId, false, "Duplicate module"},
		{UnknownModuleId, false, "Unknown module"},
		{UnresolvedDependencyId, false, "Unresolved dependency"},
		{DependencyCycleId, false, "Dependency cycle"},
		{IncompatibleVersionId, false, "Incompatible dependency version"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{NoDescriptorsFoundId, false, "No module descriptors found"},
		{PermissionDeniedId, false, "Permission denied"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.id), func(t *testing.T) {
			t.Parallel()

			issue := Get(tt.id)
			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValuesOrderedAndUnique(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(PermissionDeniedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), PermissionDeniedId)
	}
	slugs := map[string]bool{}
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
		if issue.Slug() == "" || slugs[issue.Slug()] {
			t.Errorf("issue %d has empty or duplicate slug %q", issue.Id(), issue.Slug())
		}
		slugs[issue.Slug()] = true

		found, ok := Lookup(issue.Slug())
		if !ok || found != issue {
			t.Errorf("Lookup(%q) did not return issue %d", issue.Slug(), issue.Id())
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
}

func TestRenderGlamour(t *testing.T) {
	t.Parallel()

	out, err := Get(DependencyCycleId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(out, "Dependency cycle detected") {
		t.Errorf("rendered output lost the heading:\n%s", out)
	}
}

func TestIssue_RenderLinks(t *testing.T) {
	// Swaps the package-level renderer, so not parallel.
	original := render
	defer func() { render = original }()
	render = passthroughRender

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	rendered, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "## See also") || !strings.Contains(rendered, "- <https://external.example.com>") {
		t.Errorf("Render() with links missing See also section:\n%s", rendered)
	}
	if len(withLinks.DocLinks()) != 1 || len(withLinks.ExtLinks()) != 1 {
		t.Error("link accessors lost entries")
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil || rendered == "" {
			t.Errorf("issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.Contains(rendered, "See also") {
			t.Errorf("issue %d has no links and should not render See also", issue.Id())
		}
	}
}

func TestForError(t *testing.T) {
	t.Parallel()

	unresolved := &depgraph.UnresolvedDependencyError{Module: "Game", Missing: "Engine"}
	tests := []struct {
		name string
		err  error
		want Id
	}{
		{"parse", &descriptor.ParseError{Path: "Core.build.cue", Err: errors.New("bad")}, DescriptorParseErrorId},
		{"name mismatch", &descriptor.NameMismatchError{Path: "Core.build.cue", Declared: "X", Expected: "Core"}, DescriptorParseErrorId},
		{"invalid", (&descriptor.Descriptor{Name: "A", PublicDependencies: descriptor.Names("A")}).Validate(), InvalidDescriptorId},
		{"duplicate", &registry.DuplicateModuleError{Name: "Core"}, DuplicateModuleId},
		{"unknown", fmt.Errorf("show: %w", &registry.UnknownModuleError{Name: "Ghost"}), UnknownModuleId},
		{"unresolved joined", errors.Join(unresolved, unresolved), UnresolvedDependencyId},
		{"cycle", &dag.CycleError{Cycle: []string{"A", "B", "A"}}, DependencyCycleId},
		{"incompatible", &depgraph.IncompatibleVersionError{Module: "A", Dependency: "B"}, IncompatibleVersionId},
		{"no descriptors", fmt.Errorf("scan: %w", ErrNoDescriptors), NoDescriptorsFoundId},
		{"permission", &fs.PathError{Op: "open", Path: "/root", Err: fs.ErrPermission}, PermissionDeniedId},
		{"explicit issue id wins", NewErrorContext().WithOperation("load configuration").WithIssue(ConfigLoadFailedId).Wrap(fs.ErrPermission).Build(), ConfigLoadFailedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ForError(tt.err)
			if !ok {
				t.Fatalf("ForError(%v) found no issue", tt.err)
			}
			if got.Id() != tt.want {
				t.Errorf("ForError(%v) = %d, want %d", tt.err, got.Id(), tt.want)
			}
		})
	}

	if _, ok := ForError(nil); ok {
		t.Error("ForError(nil) should find nothing")
	}
	if _, ok := ForError(errors.New("plain")); ok {
		t.Error("ForError(plain) should find nothing")
	}
}
