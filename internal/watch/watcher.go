// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when descriptor files change.
//
// It monitors every discovery root for paths matching glob patterns and
// invokes a callback after a debounce period. Events within the debounce
// window are coalesced so the callback fires once with the full set of
// changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period before the callback fires. Editors
// that write a temp file and rename it produce several events per save.
const defaultDebounce = 300 * time.Millisecond

// defaultPatterns select descriptor files in any format.
var defaultPatterns = []string{"**/*.build.*"}

// defaultIgnores lists path patterns that are always excluded from watching,
// regardless of user-supplied ignore patterns.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/Binaries/**",
	"**/Intermediate/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories to watch recursively. Roots that do not
		// exist are skipped with a warning.
		Roots []string

		// Patterns are doublestar globs, relative to the owning root, that
		// select which files trigger callbacks. Empty means descriptor files.
		Patterns []string

		// Ignore are additional globs merged with the built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen clears the terminal on Stdout before each callback.
		ClearScreen bool

		// OnChange is called after the debounce window closes with the sorted,
		// deduplicated absolute paths that changed. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout receives the clear-screen sequence. nil defaults to os.Stdout.
		Stdout io.Writer
		// Logger receives watcher diagnostics. nil defaults to slog.Default().
		Logger *slog.Logger
	}

	// InvalidWatchConfigError is returned when a Config has invalid fields.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// Watcher monitors filesystem paths and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		patterns []string
		ignores  []string
		stdout   io.Writer
		logger   *slog.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid watch config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// IsValid checks roots and glob patterns.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for i, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			errs = append(errs, fmt.Errorf("roots[%d]: must not be empty", i))
		}
	}
	errs = append(errs, patternErrors("patterns", c.Patterns)...)
	errs = append(errs, patternErrors("ignore", c.Ignore)...)
	if len(errs) > 0 {
		return false, []error{&InvalidWatchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid in error-returning form.
func (c Config) Validate() error {
	if ok, errs := c.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

// New creates a Watcher from cfg and registers every non-ignored directory
// under each existing root.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:      cfg,
		patterns: cfg.Patterns,
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
	}
	if len(w.patterns) == 0 {
		w.patterns = defaultPatterns
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	w.ignores = append(slices.Clone(defaultIgnores), cfg.Ignore...)

	roots := cfg.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %q: %w", root, err)
		}
		if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
			w.logger.Warn("not watching missing root", "root", abs)
			continue
		}
		if !slices.Contains(w.roots, abs) {
			w.roots = append(w.roots, abs)
		}
	}
	if len(w.roots) == 0 {
		return nil, fmt.Errorf("watch: none of the roots %v exist", roots)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	for _, root := range w.roots {
		if err := w.addDirectories(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				w.logger.Warn("close watcher after init failure", "error", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Roots returns the absolute roots being watched.
func (w *Watcher) Roots() []string { return slices.Clone(w.roots) }

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may be scheduled by time.AfterFunc after ctx is cancelled. At most
	// one callback runs at a time; a busy fire re-arms the timer so pending
	// events are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-run failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify watcher", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, ok := w.relative(evt.Name)
			if !ok || w.isIgnored(rel) {
				continue
			}

			// Directories created after startup are watched too.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name, rel)
			}

			if !w.matchesPatterns(rel) {
				continue
			}
			w.logger.Debug("descriptor changed", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// addDirectories registers every non-ignored directory under root. Pattern
// filtering happens when events arrive.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // inaccessible paths are skipped
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if rel != "." && w.isIgnoredDir(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path, rel string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.isIgnoredDir(rel) {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("watch new directory", "path", path, "error", addErr)
	}
}

// relative maps an absolute event path onto the deepest root containing it.
func (w *Watcher) relative(path string) (string, bool) {
	best := ""
	for _, root := range w.roots {
		if (path == root || strings.HasPrefix(path, root+string(filepath.Separator))) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return "", false
	}
	rel, err := filepath.Rel(best, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matchesPatterns(rel string) bool {
	return matchAny(w.patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string { return slices.Clone(defaultIgnores) }

// DefaultPatterns returns a copy of the built-in watch patterns.
func DefaultPatterns() []string { return slices.Clone(defaultPatterns) }

func patternErrors(label string, patterns []string) []error {
	var errs []error
	for i, pat := range patterns {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: pattern must not be empty", label, i))
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("%s[%d]: invalid glob %q", label, i, pat))
		}
	}
	return errs
}
