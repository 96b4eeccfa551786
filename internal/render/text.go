// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

const (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorMuted     = lipgloss.Color("#6B7280")
	colorHighlight = lipgloss.Color("#3B82F6")
	colorWarning   = lipgloss.Color("#F59E0B")

	labelWidth = 18
	none       = "(none)"
)

type styles struct {
	title   lipgloss.Style
	index   lipgloss.Style
	module  lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
}

// newStyles binds the palette to w so color is only emitted to terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(colorPrimary),
		index:   r.NewStyle().Foreground(colorMuted).Width(4).Align(lipgloss.Right).PaddingRight(1),
		module:  r.NewStyle().Bold(true).Foreground(colorHighlight),
		label:   r.NewStyle().Foreground(colorMuted).Width(labelWidth),
		muted:   r.NewStyle().Foreground(colorMuted),
		warning: r.NewStyle().Foreground(colorWarning),
	}
}

func writeText(w io.Writer, plans []*planner.BuildPlan) error {
	st := newStyles(w)
	var sb strings.Builder
	for i, plan := range plans {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(st.title.Render(planTitle(plan)))
		sb.WriteString("\n")
		if len(plan.Modules) == 0 {
			sb.WriteString(st.muted.Render("  no modules registered"))
			sb.WriteString("\n")
			continue
		}
		for n, m := range plan.Modules {
			sb.WriteString(st.index.Render(fmt.Sprintf("%d.", n+1)))
			sb.WriteString(moduleHeading(st, m))
			sb.WriteString("\n")
			writeField(&sb, st, "     ", "public includes", m.PublicIncludePaths)
			writeField(&sb, st, "     ", "compile deps", namesToStrings(m.CompileDependencies))
			writeField(&sb, st, "     ", "link deps", namesToStrings(m.LinkDependencies))
			if dyn := dynamicSummary(st, m); dyn != "" {
				sb.WriteString("     ")
				sb.WriteString(st.label.Render("dynamic"))
				sb.WriteString(dyn)
				sb.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteModule writes every resolved surface of one module, as shown by
// 'modgraph show'.
func WriteModule(w io.Writer, plan *planner.BuildPlan, name descriptor.ModuleName) error {
	m, ok := plan.Module(name)
	if !ok {
		return fmt.Errorf("module %s is not part of target %s", name, plan.Target)
	}

	st := newStyles(w)
	var sb strings.Builder
	sb.WriteString(st.title.Render(planTitle(plan)))
	sb.WriteString("\n")
	sb.WriteString(moduleHeading(st, m))
	sb.WriteString(st.muted.Render(fmt.Sprintf("  (position %d of %d)", plan.Position(name)+1, len(plan.Order))))
	sb.WriteString("\n")
	if m.Source != "" {
		writeField(&sb, st, "  ", "source", []string{m.Source})
	}
	writeField(&sb, st, "  ", "public includes", m.PublicIncludePaths)
	writeField(&sb, st, "  ", "compile includes", m.CompileIncludePaths)
	writeField(&sb, st, "  ", "public closure", namesToStrings(m.PublicDependencyClosure))
	writeField(&sb, st, "  ", "compile deps", namesToStrings(m.CompileDependencies))
	writeField(&sb, st, "  ", "link deps", namesToStrings(m.LinkDependencies))
	writeField(&sb, st, "  ", "dependents", namesToStrings(plan.Dependents(name)))
	if dyn := dynamicSummary(st, m); dyn != "" {
		sb.WriteString("  ")
		sb.WriteString(st.label.Render("dynamic"))
		sb.WriteString(dyn)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func planTitle(plan *planner.BuildPlan) string {
	title := "target " + plan.Target
	if plan.Platform != "" {
		title += " (" + plan.Platform + ")"
	}
	return fmt.Sprintf("%s: %d modules", title, len(plan.Order))
}

func moduleHeading(st styles, m planner.ModulePlan) string {
	heading := st.module.Render(string(m.Name))
	if m.Version != "" {
		heading += " " + st.muted.Render(m.Version)
	}
	return heading
}

func writeField(sb *strings.Builder, st styles, indent, label string, values []string) {
	sb.WriteString(indent)
	sb.WriteString(st.label.Render(label))
	if len(values) == 0 {
		sb.WriteString(st.muted.Render(none))
	} else {
		sb.WriteString(strings.Join(values, ", "))
	}
	sb.WriteString("\n")
}

func dynamicSummary(st styles, m planner.ModulePlan) string {
	if len(m.DynamicDependencies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.DynamicDependencies))
	for _, d := range m.DynamicDependencies {
		if d.Available {
			parts = append(parts, string(d.To))
		} else {
			parts = append(parts, st.warning.Render(string(d.To)+" (missing)"))
		}
	}
	return strings.Join(parts, ", ")
}

func namesToStrings(names []descriptor.ModuleName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
