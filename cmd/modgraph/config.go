// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/issue"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

// newConfigCommand creates the `modgraph config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modgraph configuration",
		Long: `Manage modgraph configuration.

Configuration is read from the first file that exists:
  - the --config flag
  - ./modgraph.cue
  - Linux: ~/.config/modgraph/config.cue
  - macOS: ~/Library/Application Support/modgraph/config.cue
  - Windows: %APPDATA%\modgraph\config.cue

Every key can be overridden with a MODGRAPH_ environment variable,
e.g. MODGRAPH_LOG_LEVEL=debug or MODGRAPH_OUTPUT_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: app.run(rootFlags, func(_ context.Context, inv *invocation, _ []string) error {
			return app.showConfig(inv, rootFlags.configPath)
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: app.run(rootFlags, func(_ context.Context, _ *invocation, _ []string) error {
			return app.showConfigPath(rootFlags.configPath)
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: app.run(rootFlags, func(_ context.Context, inv *invocation, _ []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(inv.cfg))
			return nil
		}),
	})

	var descriptorSchema bool
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Output the CUE schema configuration files are checked against",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := config.Schema()
			if descriptorSchema {
				schema = descriptor.Schema()
			}
			_, err := app.stdout.Write(schema.Source())
			return err
		},
	}
	schemaCmd.Flags().BoolVar(&descriptorSchema, "descriptor", false, "print the schema for <Name>.build.cue and .json descriptors instead")
	cfgCmd.AddCommand(schemaCmd)

	var local bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.initConfig(local); err != nil {
				return app.report(err, rootFlags.verbose)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&local, "local", false, "write ./modgraph.cue instead of the user config file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func (a *App) showConfig(inv *invocation, configPath string) error {
	path, err := a.Config.Locate(a.loadOptions(configPath))
	if err != nil {
		return err
	}

	cfg := inv.cfg
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if path != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("roots"))
	if len(cfg.Roots) == 0 {
		fmt.Fprintf(a.stdout, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, root := range cfg.Roots {
		fmt.Fprintf(a.stdout, "  - %s\n", valueStyle.Render(root))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("targets"))
	for _, t := range cfg.Targets {
		if t.Platform != "" {
			fmt.Fprintf(a.stdout, "  - %s (platform: %s)\n", valueStyle.Render(t.Name), valueStyle.Render(t.Platform))
		} else {
			fmt.Fprintf(a.stdout, "  - %s\n", valueStyle.Render(t.Name))
		}
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(a.stdout, "  format: %s\n", valueStyle.Render(string(cfg.Output.Format)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(a.stdout, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(a.stdout, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("log"))
	fmt.Fprintf(a.stdout, "  level: %s\n", valueStyle.Render(string(cfg.Log.Level)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("metrics"))
	if cfg.Metrics.Textfile == "" {
		fmt.Fprintf(a.stdout, "  textfile: %s\n", SubtitleStyle.Render("(disabled)"))
	} else {
		fmt.Fprintf(a.stdout, "  textfile: %s\n", valueStyle.Render(cfg.Metrics.Textfile))
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("dynamic"))
	fmt.Fprintf(a.stdout, "  warn_missing: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Dynamic.WarnMissing)))

	return nil
}

func (a *App) showConfigPath(configPath string) error {
	path, err := a.Config.Locate(a.loadOptions(configPath))
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(a.stdout, path)
		return nil
	}

	userPath, err := config.UserConfigPath(a.configDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, userPath)
	fmt.Fprintln(a.stderr, SubtitleStyle.Render("(file does not exist, using defaults)"))
	return nil
}

func (a *App) initConfig(local bool) error {
	var (
		path string
		err  error
	)
	if local {
		path = config.LocalConfigFile
		if a.workDir != "" {
			path = filepath.Join(a.workDir, config.LocalConfigFile)
		}
	} else {
		path, err = config.UserConfigPath(a.configDir)
		if err != nil {
			return err
		}
	}

	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("write default configuration").
			WithResource(path).
			WithSuggestion("Check that the directory is writable").
			Wrap(err).
			Build()
	}
	if !created {
		fmt.Fprintf(a.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
		return nil
	}

	fmt.Fprintf(a.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
	fmt.Fprintln(a.stdout, SubtitleStyle.Render("  Edit the roots and targets: "+strings.Join(config.DefaultConfig().Roots, ", ")+" are scanned by default"))
	return nil
}
