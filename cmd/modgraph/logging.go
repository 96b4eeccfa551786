// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/modgraph/modgraph/internal/config"
)

const logPrefix = "modgraph"

// newLogger builds the stderr logger for one invocation.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix: logPrefix,
		Level:  log.Level(level),
	})
	return slog.New(handler)
}

// logLevel picks the effective level: the --log-level flag, then verbose
// mode, then the configured level.
func logLevel(flagValue string, verbose bool, cfg *config.Config) (slog.Level, error) {
	if flagValue != "" {
		lvl, err := config.ParseLogLevel(flagValue)
		if err != nil {
			return slog.LevelInfo, err
		}
		return lvl.SlogLevel(), nil
	}
	if verbose {
		return slog.LevelDebug, nil
	}
	if cfg != nil && cfg.Log.Level != "" {
		return cfg.Log.Level.SlogLevel(), nil
	}
	return slog.LevelInfo, nil
}
