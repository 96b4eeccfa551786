// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/issue"
	"github.com/modgraph/modgraph/internal/metrics"
	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/internal/render"
	"github.com/modgraph/modgraph/internal/watch"
)

// planFlagValues holds the flags of 'modgraph plan' and 'modgraph graph'.
type planFlagValues struct {
	targets         []string
	format          string
	watch           bool
	metricsTextfile string
}

func newPlanCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &planFlagValues{}

	planCmd := &cobra.Command{
		Use:   "plan [ROOT...]",
		Short: "Resolve every target into a build plan",
		Long: `Discover module descriptors under ROOT (or the configured roots), resolve
each target, and print the build order with every module's effective include
paths and dependencies.

` + SubtitleStyle.Render("Examples:") + `
  modgraph plan
  modgraph plan --target editor --target server=Linux --format json
  modgraph plan --watch Source Plugins`,
		RunE: app.run(rootFlags, func(ctx context.Context, inv *invocation, args []string) error {
			format, err := planFormat(flags.format, inv.cfg)
			if err != nil {
				return err
			}
			if flags.watch {
				return app.watchPlans(ctx, inv, flags, format, args)
			}
			return app.writePlans(ctx, inv, flags, format, args)
		}),
	}

	planCmd.Flags().StringArrayVarP(&flags.targets, "target", "t", nil, "target to resolve as NAME or NAME=PLATFORM (repeatable, default: configured targets)")
	planCmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format (text, json, yaml, toml, dot)")
	planCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-plan whenever a descriptor changes")
	planCmd.Flags().StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write resolution metrics in node-exporter textfile format")

	return planCmd
}

func newGraphCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &planFlagValues{}

	graphCmd := &cobra.Command{
		Use:   "graph [ROOT...]",
		Short: "Print the dependency graph in Graphviz dot format",
		Long: `Print the dependency graph of each target in Graphviz dot format.

Public dependencies are solid edges, private dependencies dashed, dynamic
dependencies dotted. Dynamic dependencies on unregistered modules are gray.

` + SubtitleStyle.Render("Examples:") + `
  modgraph graph | dot -Tsvg > modules.svg
  modgraph graph --target server=Linux`,
		RunE: app.run(rootFlags, func(ctx context.Context, inv *invocation, args []string) error {
			return app.writePlans(ctx, inv, flags, config.OutputDOT, args)
		}),
	}

	graphCmd.Flags().StringArrayVarP(&flags.targets, "target", "t", nil, "target to graph as NAME or NAME=PLATFORM (repeatable)")

	return graphCmd
}

// planFormat picks the --format value over the configured output format.
func planFormat(flagValue string, cfg *config.Config) (config.OutputFormat, error) {
	if flagValue == "" {
		if cfg.Output.Format == "" {
			return config.OutputText, nil
		}
		return cfg.Output.Format, nil
	}
	format, err := config.ParseOutputFormat(flagValue)
	if err != nil {
		return "", &ExitError{Code: ExitUsage, Err: err}
	}
	return format, nil
}

// resolvePlans runs discovery and resolves every selected target. Metrics
// are written even when resolution fails so failures are counted.
func (a *App) resolvePlans(ctx context.Context, inv *invocation, flags *planFlagValues, args []string) ([]*planner.BuildPlan, error) {
	targets, err := selectTargets(flags.targets, inv.cfg.Targets)
	if err != nil {
		return nil, err
	}
	descs, err := a.discover(ctx, inv, inv.roots(args))
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	plans, err := planner.ResolveTargets(ctx, targets, descs,
		planner.WithObserver(recorder.Observer()),
		planner.WithObserver(logResolution(inv.logger)),
	)

	textfile := flags.metricsTextfile
	if textfile == "" {
		textfile = inv.cfg.Metrics.Textfile
	}
	if textfile != "" {
		if writeErr := recorder.WriteTextfile(textfile); writeErr != nil {
			writeErr = issue.NewErrorContext().
				WithOperation("write metrics textfile").
				WithResource(textfile).
				WithSuggestion("Check that the directory is writable").
				Wrap(writeErr).
				Build()
			if err == nil {
				return nil, writeErr
			}
			inv.logger.Error(writeErr.Error())
		} else {
			inv.logger.Debug("metrics written", "path", textfile)
		}
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve build plan").
			Wrap(err).
			Build()
	}

	inv.warnMissingDynamic(plans)
	return plans, nil
}

func (a *App) writePlans(ctx context.Context, inv *invocation, flags *planFlagValues, format config.OutputFormat, args []string) error {
	plans, err := a.resolvePlans(ctx, inv, flags, args)
	if err != nil {
		return err
	}
	return render.Encode(a.stdout, plans, format)
}

// watchPlans plans once, then re-plans on every descriptor change until
// the context is canceled. Failed re-plans are reported and watching continues.
func (a *App) watchPlans(ctx context.Context, inv *invocation, flags *planFlagValues, format config.OutputFormat, args []string) error {
	roots, err := a.absRoots(inv.roots(args))
	if err != nil {
		return err
	}

	replan := func(ctx context.Context) {
		if planErr := a.writePlans(ctx, inv, flags, format, args); planErr != nil && !errors.Is(planErr, context.Canceled) {
			renderError(a.stderr, planErr, inv.verbose)
		}
	}

	replan(ctx)

	w, err := watch.New(watch.Config{
		Roots: roots,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stderr, "%s Detected %d change(s), re-planning...\n", CmdStyle.Render("→"), len(changed))
			for _, path := range changed {
				inv.logger.Debug("changed", "path", path)
			}
			replan(ctx)
			fmt.Fprintf(a.stderr, "\n%s Watching for changes...\n\n", CmdStyle.Render("→"))
			return nil
		},
		Stdout: a.stdout,
		Logger: inv.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(a.stderr, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", CmdStyle.Render("→"))
	return w.Run(ctx)
}

// logResolution logs each target resolution at debug level.
func logResolution(logger *slog.Logger) planner.Observer {
	return func(t planner.Target, plan *planner.BuildPlan, err error, elapsed time.Duration) {
		if err != nil {
			logger.Debug("target failed", "target", t.Name, "platform", t.Platform, "elapsed", elapsed, "error", err)
			return
		}
		logger.Debug("target resolved", "target", t.Name, "platform", t.Platform, "modules", len(plan.Order), "elapsed", elapsed)
	}
}
