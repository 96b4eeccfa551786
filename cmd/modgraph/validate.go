// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/planner"
)

func newValidateCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var targets []string

	validateCmd := &cobra.Command{
		Use:   "validate [ROOT...]",
		Short: "Check descriptors and dependency graphs without printing plans",
		Long: `Discover module descriptors and check every target: unique module names,
well-formed descriptors, resolvable dependencies, compatible versions and an
acyclic static graph. Every target is checked even after a failure.

` + SubtitleStyle.Render("Examples:") + `
  modgraph validate
  modgraph validate --target server=Linux Source`,
		RunE: app.run(rootFlags, func(ctx context.Context, inv *invocation, args []string) error {
			return app.validate(ctx, inv, targets, args)
		}),
	}

	validateCmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "target to check as NAME or NAME=PLATFORM (repeatable)")

	return validateCmd
}

func (a *App) validate(ctx context.Context, inv *invocation, targetValues, args []string) error {
	targets, err := selectTargets(targetValues, inv.cfg.Targets)
	if err != nil {
		return err
	}
	descs, err := a.discover(ctx, inv, inv.roots(args))
	if err != nil {
		return err
	}

	var failures []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		plan, err := planner.ResolveTarget(t, descs)
		if err != nil {
			fmt.Fprintf(a.stdout, "%s %s\n", ErrorStyle.Render("✗"), targetLabel(t))
			renderError(a.stderr, fmt.Errorf("target %s: %w", t.Name, err), inv.verbose)
			failures = append(failures, err)
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s %s\n", SuccessStyle.Render("✓"), targetLabel(t),
			SubtitleStyle.Render(fmt.Sprintf("%d modules, %d static edges", len(plan.Order), len(plan.Edges()))))
		inv.warnMissingDynamic([]*planner.BuildPlan{plan})
	}

	if len(failures) > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Err:      errors.Join(failures...),
			Reported: true,
		}
	}
	fmt.Fprintf(a.stdout, "\n%s %d descriptors, %d targets\n", SuccessStyle.Render("All checks passed:"), len(descs), len(targets))
	return nil
}

func targetLabel(t planner.Target) string {
	if t.Platform == "" {
		return CmdStyle.Render(t.Name)
	}
	return CmdStyle.Render(t.Name) + " (" + t.Platform + ")"
}
