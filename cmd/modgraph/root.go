// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// rootFlagValues holds the persistent flags shared by every subcommand.
	rootFlagValues struct {
		configPath string
		verbose    bool
		logLevel   string
	}

	// invocation is the per-run state built from configuration and flags.
	invocation struct {
		cfg     *config.Config
		logger  *slog.Logger
		verbose bool
	}

	runFunc func(ctx context.Context, inv *invocation, args []string) error
)

// NewRootCommand builds the full command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "modgraph",
		Short: "Resolve module dependency graphs into build plans",
		Long: TitleStyle.Render("modgraph") + SubtitleStyle.Render(" - resolve module dependency graphs into build plans") + `

modgraph discovers module descriptors (*.build.cue, .json, .toml, .yaml, .hcl),
checks that every dependency exists and that static dependencies form no cycle,
then prints a deterministic build order with the include paths and link
dependencies each module sees.

` + SubtitleStyle.Render("Examples:") + `
  modgraph plan                      Plan every configured target
  modgraph plan --target win=Win64   Plan one target for a platform
  modgraph validate Source Plugins   Check descriptors without planning
  modgraph show Engine               Show one module's effective surfaces
  modgraph explain dependency-cycle  Explain an error category`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./modgraph.cue, then the user config directory)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newPlanCommand(app, flags),
		newValidateCommand(app, flags),
		newGraphCommand(app, flags),
		newShowCommand(app, flags),
		newExplainCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// versionString returns a formatted version string for display.
func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI against os.Args and returns the process exit code.
func Execute() int {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+err.Error())
		return ExitFailure
	}

	err = fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	return exitCode(err)
}

// errorHandler lets fang style errors the commands did not render themselves.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// exitCode maps a command error to the process exit code. Errors that never
// reached a handler come from flag or argument parsing.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// run adapts fn into a cobra RunE: it loads configuration, sets up logging
// and renders any returned error once on stderr.
func (a *App) run(flags *rootFlagValues, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		inv, err := a.prepare(ctx, flags)
		if err == nil {
			err = fn(ctx, inv, args)
		}
		if err == nil {
			return nil
		}

		verbose := flags.verbose || (inv != nil && inv.verbose)
		return a.report(err, verbose)
	}
}

func (a *App) prepare(ctx context.Context, flags *rootFlagValues) (*invocation, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions(flags.configPath))
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	level, err := logLevel(flags.logLevel, verbose, cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	return &invocation{cfg: cfg, logger: newLogger(a.stderr, level), verbose: verbose}, nil
}

// report renders err on stderr and marks it so fang does not print it again.
func (a *App) report(err error, verbose bool) error {
	code := ExitFailure
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Reported {
			return exitErr
		}
		code = exitErr.Code
		if exitErr.Err != nil {
			err = exitErr.Err
		}
	}

	renderError(a.stderr, err, verbose)
	return &ExitError{Code: code, Err: err, Reported: true}
}

// renderError writes err with its suggestions, plus a pointer to the issue
// catalogue entry when one explains it.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ ")+issue.Describe(err, verbose))
}
