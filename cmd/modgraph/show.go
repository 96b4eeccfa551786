// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/issue"
	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/internal/registry"
	"github.com/modgraph/modgraph/internal/render"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

type showFlagValues struct {
	target           string
	descriptor       bool
	descriptorFormat string
}

func newShowCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &showFlagValues{}

	showCmd := &cobra.Command{
		Use:   "show MODULE [ROOT...]",
		Short: "Show one module's resolved build interface",
		Long: `Show the position, include paths, dependency closures and dependents of
one module after resolving its target.

With --descriptor, print the module's descriptor with the target platform's
rules applied instead.

` + SubtitleStyle.Render("Examples:") + `
  modgraph show Engine
  modgraph show Renderer --target server=Linux
  modgraph show Renderer --descriptor --descriptor-format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.run(rootFlags, func(ctx context.Context, inv *invocation, args []string) error {
			return app.show(ctx, inv, flags, descriptor.ModuleName(args[0]), args[1:])
		}),
	}

	showCmd.Flags().StringVarP(&flags.target, "target", "t", "", "target to resolve as NAME or NAME=PLATFORM (default: first configured target)")
	showCmd.Flags().BoolVar(&flags.descriptor, "descriptor", false, "print the platform-resolved descriptor instead of the plan entry")
	showCmd.Flags().StringVar(&flags.descriptorFormat, "descriptor-format", string(descriptor.FormatJSON), "descriptor encoding (json, yaml, toml)")

	return showCmd
}

func (a *App) show(ctx context.Context, inv *invocation, flags *showFlagValues, name descriptor.ModuleName, args []string) error {
	target, err := selectTarget(flags.target, inv.cfg.Targets)
	if err != nil {
		return err
	}
	descs, err := a.discover(ctx, inv, inv.roots(args))
	if err != nil {
		return err
	}

	if flags.descriptor {
		return a.showDescriptor(descs, target, name, descriptor.Format(flags.descriptorFormat))
	}

	plan, err := planner.ResolveTarget(target, descs)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("resolve build plan").
			WithResource(target.Name).
			Wrap(err).
			Build()
	}
	if _, ok := plan.Module(name); !ok {
		return unknownModule(name, target)
	}
	return render.WriteModule(a.stdout, plan, name)
}

func (a *App) showDescriptor(descs []*descriptor.Descriptor, target planner.Target, name descriptor.ModuleName, format descriptor.Format) error {
	reg, err := registry.FromDescriptors(descs, target.Platform)
	if err != nil {
		return err
	}
	d, err := reg.Lookup(name)
	if err != nil {
		return unknownModule(name, target)
	}

	out, err := descriptor.Marshal(d, format)
	if err != nil {
		if errors.Is(err, descriptor.ErrUnsupportedFormat) {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		return err
	}
	_, err = a.stdout.Write(out)
	return err
}

func unknownModule(name descriptor.ModuleName, target planner.Target) error {
	return issue.NewErrorContext().
		WithOperation("show module").
		WithResource(target.Name).
		WithSuggestion("Run 'modgraph plan --target " + target.Name + "' to list the modules of this target").
		Wrap(&registry.UnknownModuleError{Name: name}).
		Build()
}
