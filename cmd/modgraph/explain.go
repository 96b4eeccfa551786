// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/issue"
)

func newExplainCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var plain bool

	explainCmd := &cobra.Command{
		Use:   "explain [ISSUE]",
		Short: "Explain an error category and how to fix it",
		Long: `Render the help page for an error category. Without an argument, list
every category.

` + SubtitleStyle.Render("Examples:") + `
  modgraph explain
  modgraph explain dependency-cycle`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.run(rootFlags, func(_ context.Context, inv *invocation, args []string) error {
			if len(args) == 0 {
				return app.listIssues()
			}
			style := issueStyle(inv.cfg.UI.ColorScheme)
			if plain {
				style = "notty"
			}
			return app.explain(args[0], style)
		}),
	}

	explainCmd.Flags().BoolVar(&plain, "plain", false, "render without colors or terminal styling")

	return explainCmd
}

func (a *App) explain(slug, style string) error {
	iss, ok := issue.Lookup(slug)
	if !ok {
		return usageError("unknown issue %q (run 'modgraph explain' to list them)", slug)
	}
	rendered, err := iss.Render(style)
	if err != nil {
		return fmt.Errorf("render issue %s: %w", slug, err)
	}
	fmt.Fprint(a.stdout, rendered)
	return nil
}

func (a *App) listIssues() error {
	fmt.Fprintln(a.stdout, TitleStyle.Render("Issues"))
	fmt.Fprintln(a.stdout)
	for _, iss := range issue.Values() {
		fmt.Fprintf(a.stdout, "  %-24s %s\n", CmdStyle.Render(iss.Slug()), SubtitleStyle.Render(issueTitle(iss)))
	}
	return nil
}

// issueTitle returns the first markdown heading of iss without its marker.
func issueTitle(iss *issue.Issue) string {
	for line := range strings.Lines(string(iss.MarkdownMsg())) {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSuffix(title, "!")
		}
	}
	return ""
}

// issueStyle maps the configured color scheme to a glamour style.
func issueStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(scheme)
	default:
		return "auto"
	}
}
