// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/issue"
	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/internal/testutil"
)

func TestVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version, Commit, BuildDate = "v0.3.0", "abc1234", "2026-01-02T03:04:05Z"
		want := "v0.3.0 (commit: abc1234, built: 2026-01-02T03:04:05Z)"
		if got := versionString(); got != want {
			t.Errorf("versionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := versionString(); got != "dev (built from source)" {
			t.Errorf("versionString() = %q", got)
		}
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"failure", &ExitError{Code: ExitFailure}, ExitFailure},
		{"wrapped usage", fmt.Errorf("run: %w", usageError("bad flag")), ExitUsage},
		{"cobra parse error", errors.New("unknown flag: --nope"), ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReport_RendersOnce(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app, err := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	if err != nil {
		t.Fatal(err)
	}

	cause := issue.NewErrorContext().
		WithOperation("resolve build plan").
		WithSuggestion("Break the loop").
		Wrap(&planner.DependencyCycleError{Path: nil}).
		Build()

	reported := app.report(cause, false)
	var exitErr *ExitError
	if !errors.As(reported, &exitErr) || !exitErr.Reported || exitErr.Code != ExitFailure {
		t.Fatalf("report returned %#v", reported)
	}
	out := stderr.String()
	for _, want := range []string{"failed to resolve build plan", "• Break the loop", "modgraph explain dependency-cycle"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}

	stderr.Reset()
	if again := app.report(reported, false); again != reported {
		t.Errorf("report re-wrapped a reported error")
	}
	if stderr.Len() != 0 {
		t.Errorf("reported error rendered twice:\n%s", stderr.String())
	}
}

func TestSelectTargets(t *testing.T) {
	t.Parallel()

	configured := []planner.Target{{Name: "editor", Platform: "Win64"}, {Name: "server", Platform: "Linux"}}

	tests := []struct {
		name       string
		values     []string
		configured []planner.Target
		want       []planner.Target
		wantErr    bool
	}{
		{name: "configured", configured: configured, want: configured},
		{name: "no configuration", want: []planner.Target{{Name: "default"}}},
		{name: "bare name takes configured platform", values: []string{"server"}, configured: configured, want: []planner.Target{{Name: "server", Platform: "Linux"}}},
		{name: "explicit platform wins", values: []string{"server=Mac"}, configured: configured, want: []planner.Target{{Name: "server", Platform: "Mac"}}},
		{name: "explicit empty platform", values: []string{"editor="}, configured: configured, want: []planner.Target{{Name: "editor"}}},
		{name: "unconfigured name", values: []string{"tools", "mobile=Android"}, want: []planner.Target{{Name: "tools"}, {Name: "mobile", Platform: "Android"}}},
		{name: "invalid name", values: []string{"=Win64"}, wantErr: true},
		{name: "duplicate", values: []string{"editor", "editor=Linux"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := selectTargets(tt.values, tt.configured)
			if tt.wantErr {
				if code := exitCode(err); code != ExitUsage {
					t.Fatalf("selectTargets error = %v (exit %d), want usage error", err, code)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectTargets: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selectTargets = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Log.Level = config.LogLevelWarn

	tests := []struct {
		name    string
		flag    string
		verbose bool
		cfg     *config.Config
		want    slog.Level
		wantErr bool
	}{
		{name: "config", cfg: cfg, want: slog.LevelWarn},
		{name: "verbose beats config", verbose: true, cfg: cfg, want: slog.LevelDebug},
		{name: "flag beats verbose", flag: "error", verbose: true, cfg: cfg, want: slog.LevelError},
		{name: "no config", want: slog.LevelInfo},
		{name: "invalid flag", flag: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := logLevel(tt.flag, tt.verbose, tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalidLogLevel) {
					t.Fatalf("logLevel error = %v, want ErrInvalidLogLevel", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("logLevel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanFormat(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.Format = config.OutputYAML

	if got, err := planFormat("", cfg); err != nil || got != config.OutputYAML {
		t.Errorf("planFormat(\"\") = %q, %v; want yaml", got, err)
	}
	if got, err := planFormat("TOML", cfg); err != nil || got != config.OutputTOML {
		t.Errorf("planFormat(TOML) = %q, %v; want toml", got, err)
	}
	if _, err := planFormat("xml", cfg); exitCode(err) != ExitUsage {
		t.Errorf("planFormat(xml) error = %v, want usage error", err)
	}
}

func TestDiscoveryService_ReusesScannerPerRootSet(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	testutil.WriteFile(t, filepath.Join(work, "Source", "Core.build.json"), `{}`)

	svc := newDiscoveryService(work)
	ctx := context.Background()
	for range 2 {
		res, err := svc.Discover(ctx, []string{"Source"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Descriptors) != 1 {
			t.Fatalf("got %d descriptors, want 1", len(res.Descriptors))
		}
	}
	if _, err := svc.Discover(ctx, []string{"Source", "Plugins"}, nil); err != nil {
		t.Fatal(err)
	}

	if len(svc.scanner) != 2 {
		t.Errorf("scanners = %d, want one per root set", len(svc.scanner))
	}
	stats := svc.scanner["Source"].Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("cache stats = %+v, want one miss then one hit", stats)
	}
}

// stubConfig serves a fixed configuration.
type stubConfig struct {
	cfg  *config.Config
	path string
}

func (s stubConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return s.cfg, nil
}

func (s stubConfig) Locate(config.LoadOptions) (string, error) { return s.path, nil }

func TestApp_InjectedConfigProvider(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	testutil.WriteFile(t, filepath.Join(work, "Mods", "Solo.build.json"), `{}`)

	cfg := config.DefaultConfig()
	cfg.Roots = []string{"Mods"}
	cfg.Targets = []planner.Target{{Name: "tools", Platform: "Linux"}}
	cfg.Output.Format = config.OutputTOML

	var stdout bytes.Buffer
	app, err := NewApp(Dependencies{
		Config:  stubConfig{cfg: cfg, path: "/etc/modgraph.cue"},
		Stdout:  &stdout,
		Stderr:  &bytes.Buffer{},
		WorkDir: work,
	})
	if err != nil {
		t.Fatal(err)
	}

	root := NewRootCommand(app)
	root.SetArgs([]string{"plan"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("plan: %v", err)
	}
	var doc struct {
		Plans []struct {
			Target   string   `toml:"target"`
			Platform string   `toml:"platform"`
			Order    []string `toml:"order"`
		} `toml:"plans"`
	}
	if err := toml.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("decode toml: %v\n%s", err, stdout.String())
	}
	if len(doc.Plans) != 1 || doc.Plans[0].Target != "tools" || doc.Plans[0].Platform != "Linux" {
		t.Fatalf("plans = %+v, want the injected tools/Linux target", doc.Plans)
	}
	if got := doc.Plans[0].Order; len(got) != 1 || got[0] != "Solo" {
		t.Errorf("order = %v, want [Solo]", got)
	}
}
