// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/discovery"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reaches
	// configuration and the filesystem only through its service interfaces.
	App struct {
		Config    ConfigProvider
		Discovery DiscoveryService
		stdout    io.Writer
		stderr    io.Writer
		workDir   string
		configDir string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Discovery DiscoveryService
		Stdout    io.Writer
		Stderr    io.Writer
		// WorkDir is where relative roots and ./modgraph.cue are resolved.
		// Empty means the process working directory.
		WorkDir string
		// ConfigDir overrides the user config directory.
		ConfigDir string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
		Locate(opts config.LoadOptions) (string, error)
	}

	// DiscoveryService finds and parses descriptor files under roots.
	DiscoveryService interface {
		Discover(ctx context.Context, roots []string, logger *slog.Logger) (*discovery.Result, error)
	}

	// appDiscoveryService keeps one discovery.Discovery per root set so
	// repeated scans in watch mode hit the parse cache.
	appDiscoveryService struct {
		workDir string

		mu      sync.Mutex
		scanner map[string]*discovery.Discovery
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Discovery == nil {
		deps.Discovery = newDiscoveryService(deps.WorkDir)
	}

	return &App{
		Config:    deps.Config,
		Discovery: deps.Discovery,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		workDir:   deps.WorkDir,
		configDir: deps.ConfigDir,
	}, nil
}

func newDiscoveryService(workDir string) *appDiscoveryService {
	return &appDiscoveryService{workDir: workDir, scanner: make(map[string]*discovery.Discovery)}
}

// Discover scans roots, reusing the scanner created for the same root set.
func (s *appDiscoveryService) Discover(ctx context.Context, roots []string, logger *slog.Logger) (*discovery.Result, error) {
	d, err := s.discoveryFor(roots, logger)
	if err != nil {
		return nil, err
	}
	return d.Discover(ctx)
}

func (s *appDiscoveryService) discoveryFor(roots []string, logger *slog.Logger) (*discovery.Discovery, error) {
	key := strings.Join(roots, "\x00")

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.scanner[key]; ok {
		return d, nil
	}
	opts := []discovery.Option{discovery.WithBaseDir(s.workDir)}
	if logger != nil {
		opts = append(opts, discovery.WithLogger(logger))
	}
	d, err := discovery.New(roots, opts...)
	if err != nil {
		return nil, err
	}
	s.scanner[key] = d
	return d, nil
}

// loadOptions builds the config lookup inputs for an explicit --config value.
func (a *App) loadOptions(configPath string) config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: configPath,
		ConfigDirPath:  a.configDir,
		WorkDir:        a.workDir,
	}
}
