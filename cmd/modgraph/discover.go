// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modgraph/modgraph/internal/discovery"
	"github.com/modgraph/modgraph/internal/issue"
	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

const defaultTargetName = "default"

// roots returns the positional roots when given, otherwise the configured ones.
func (inv *invocation) roots(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return inv.cfg.Roots
}

// discover scans roots and returns their descriptors. Warnings are logged;
// error diagnostics and an empty result fail the command.
func (a *App) discover(ctx context.Context, inv *invocation, roots []string) ([]*descriptor.Descriptor, error) {
	res, err := a.Discovery.Discover(ctx, roots, inv.logger)
	if err != nil {
		return nil, err
	}

	for _, diag := range res.Diagnostics {
		if diag.Severity == discovery.SeverityWarning {
			inv.logger.Warn(diag.Message, "code", string(diag.Code), "path", diag.Path)
		} else {
			inv.logger.Debug("descriptor error", "code", string(diag.Code), "path", diag.Path)
		}
	}

	if res.HasErrors() {
		return nil, issue.NewErrorContext().
			WithOperation("discover module descriptors").
			WithSuggestion("Fix the descriptor files listed above and run the command again").
			Wrap(errors.Join(res.Errors()...)).
			Build()
	}
	if len(res.Descriptors) == 0 {
		return nil, issue.NewErrorContext().
			WithOperation("discover module descriptors").
			WithResource(strings.Join(roots, ", ")).
			WithSuggestions(
				"Pass the directories that contain *.build.* files as arguments",
				"Set 'roots' in modgraph.cue",
			).
			Wrap(issue.ErrNoDescriptors).
			Build()
	}

	inv.logger.Debug("descriptors discovered", "count", len(res.Descriptors), "files", len(res.Files))
	return res.Descriptors, nil
}

// selectTargets turns --target values into targets. A value is NAME or
// NAME=PLATFORM; a bare NAME that matches a configured target takes its
// platform. Without values every configured target is selected.
func selectTargets(values []string, configured []planner.Target) ([]planner.Target, error) {
	if len(values) == 0 {
		if len(configured) == 0 {
			return []planner.Target{{Name: defaultTargetName}}, nil
		}
		return slices.Clone(configured), nil
	}

	targets := make([]planner.Target, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		name, platform, hasPlatform := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if ok, errs := descriptor.ModuleName(name).IsValid(); !ok {
			return nil, usageError("invalid --target %q: %v", v, errs[0])
		}
		if seen[name] {
			return nil, usageError("target %q selected more than once", name)
		}
		seen[name] = true

		t := planner.Target{Name: name, Platform: strings.TrimSpace(platform)}
		if !hasPlatform {
			if i := slices.IndexFunc(configured, func(c planner.Target) bool { return c.Name == name }); i >= 0 {
				t.Platform = configured[i].Platform
			}
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// selectTarget is selectTargets for commands that work on exactly one target.
func selectTarget(value string, configured []planner.Target) (planner.Target, error) {
	var values []string
	if value != "" {
		values = []string{value}
	}
	targets, err := selectTargets(values, configured)
	if err != nil {
		return planner.Target{}, err
	}
	return targets[0], nil
}

// warnMissingDynamic logs every dynamic dependency whose module is not registered.
func (inv *invocation) warnMissingDynamic(plans []*planner.BuildPlan) {
	if !inv.cfg.Dynamic.WarnMissing {
		return
	}
	for _, plan := range plans {
		for _, m := range plan.Modules {
			for _, dyn := range m.DynamicDependencies {
				if !dyn.Available {
					inv.logger.Warn("dynamic dependency is not registered",
						"target", plan.Target, "module", string(dyn.From), "dependency", string(dyn.To))
				}
			}
		}
	}
}

// absRoots resolves roots against the App working directory.
func (a *App) absRoots(roots []string) ([]string, error) {
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if !filepath.IsAbs(root) && a.workDir != "" {
			root = filepath.Join(a.workDir, root)
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
