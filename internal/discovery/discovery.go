// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/modgraph/modgraph/pkg/descriptor"
)

// DefaultCacheSize is the number of parsed descriptors kept between scans.
const DefaultCacheSize = 4096

var skippedDirs = map[string]bool{
	"Binaries":     true,
	"Intermediate": true,
	"node_modules": true,
}

type (
	// Discovery scans roots for descriptor files.
	Discovery struct {
		roots     []string
		baseDir   string
		cacheSize int
		cache     *lru.Cache[string, cacheEntry]
		logger    *slog.Logger
		hits      atomic.Int64
		misses    atomic.Int64
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	// Result is the outcome of one scan.
	Result struct {
		// Descriptors are the successfully parsed descriptors, ordered by path.
		Descriptors []*descriptor.Descriptor
		// Files are the descriptor files found, ordered by path, including
		// the ones that failed to parse.
		Files []string
		// Diagnostics collects every non-fatal problem of the scan.
		Diagnostics []Diagnostic
	}

	// CacheStats reports parse cache effectiveness.
	CacheStats struct {
		Hits   int64
		Misses int64
		Len    int
	}

	cacheEntry struct {
		size    int64
		modTime time.Time
		desc    *descriptor.Descriptor
	}
)

// WithBaseDir resolves relative roots against dir instead of the working directory.
func WithBaseDir(dir string) Option {
	return func(d *Discovery) { d.baseDir = dir }
}

// WithCacheSize bounds the parse cache. Values below 1 use DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(d *Discovery) { d.cacheSize = n }
}

// WithLogger sets the logger used for scan details. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Discovery) { d.logger = l }
}

// New creates a Discovery over roots.
func New(roots []string, opts ...Option) (*Discovery, error) {
	d := &Discovery{roots: slices.Clone(roots), cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.cacheSize < 1 {
		d.cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](d.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create descriptor cache: %w", err)
	}
	d.cache = cache
	return d, nil
}

// Roots returns the absolute form of every configured root, in configuration order.
func (d *Discovery) Roots() []string {
	out := make([]string, 0, len(d.roots))
	for _, root := range d.roots {
		out = append(out, d.absolute(root))
	}
	return out
}

// Stats returns parse cache counters accumulated since New.
func (d *Discovery) Stats() CacheStats {
	return CacheStats{Hits: d.hits.Load(), Misses: d.misses.Load(), Len: d.cache.Len()}
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	return slices.ContainsFunc(r.Diagnostics, func(diag Diagnostic) bool {
		return diag.Severity == SeverityError
	})
}

// Errors returns the causes of all error diagnostics.
func (r *Result) Errors() []error {
	var errs []error
	for _, diag := range r.Diagnostics {
		if diag.Severity != SeverityError {
			continue
		}
		if diag.Cause != nil {
			errs = append(errs, diag.Cause)
		} else {
			errs = append(errs, errors.New(diag.Message))
		}
	}
	return errs
}

// Discover walks every root and parses the descriptor files it finds.
// The returned error is non-nil only when ctx is canceled; all other
// problems are reported as diagnostics.
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	files, diags, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Files: files, Diagnostics: diags}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		desc, err := d.parse(path)
		if err != nil {
			d.logger.Debug("descriptor rejected", "path", path, "error", err)
			res.Diagnostics = append(res.Diagnostics,
				NewDiagnosticWithCause(SeverityError, CodeDescriptorParseFailed, err.Error(), path, err))
			continue
		}
		res.Descriptors = append(res.Descriptors, desc)
	}
	d.logger.Debug("discovery finished",
		"files", len(res.Files), "descriptors", len(res.Descriptors), "diagnostics", len(res.Diagnostics))
	return res, nil
}

// Files lists descriptor files under every root without parsing them.
func (d *Discovery) Files(ctx context.Context) ([]string, []Diagnostic, error) {
	return d.scan(ctx)
}

func (d *Discovery) scan(ctx context.Context) ([]string, []Diagnostic, error) {
	var (
		files []string
		diags []Diagnostic
		seen  = make(map[string]bool)
	)

	for _, root := range d.Roots() {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			msg := "root is not a directory"
			if err != nil {
				msg = fmt.Sprintf("root cannot be read: %v", err)
			}
			d.logger.Warn("skipping discovery root", "root", root, "reason", msg)
			diags = append(diags, NewDiagnosticWithCause(SeverityWarning, CodeRootUnavailable, msg, root, err))
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				diags = append(diags, NewDiagnosticWithCause(SeverityWarning, CodeWalkFailed, err.Error(), path, err))
				if entry != nil && entry.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				if path != root && skipDir(entry.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if !entry.Type().IsRegular() || !descriptor.IsDescriptorFile(entry.Name()) {
				return nil
			}
			if seen[path] {
				diags = append(diags, NewDiagnosticWithPath(SeverityWarning, CodeDuplicateFile,
					"descriptor reachable from more than one root; using it once", path))
				return nil
			}
			seen[path] = true
			d.logger.Debug("descriptor found", "path", path)
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return nil, nil, walkErr
		}
	}

	slices.Sort(files)
	return files, diags, nil
}

// parse returns the cached descriptor for path while its size and
// modification time are unchanged.
func (d *Discovery) parse(path string) (*descriptor.Descriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &descriptor.ParseError{Path: path, Err: err}
	}
	if entry, ok := d.cache.Get(path); ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		d.hits.Add(1)
		return entry.desc.Clone(), nil
	}
	d.misses.Add(1)

	desc, err := descriptor.ParseFile(path)
	if err != nil {
		d.cache.Remove(path)
		return nil, err
	}
	d.cache.Add(path, cacheEntry{size: info.Size(), modTime: info.ModTime(), desc: desc})
	return desc.Clone(), nil
}

func (d *Discovery) absolute(path string) string {
	if !filepath.IsAbs(path) && d.baseDir != "" {
		path = filepath.Join(d.baseDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func skipDir(name string) bool {
	return skippedDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}
