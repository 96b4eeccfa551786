// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/modgraph/modgraph/pkg/descriptor"
)

func writeDescriptor(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDiscovery(t *testing.T, base string, roots ...string) *Discovery {
	t.Helper()
	d, err := New(roots, WithBaseDir(base), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func names(descs []*descriptor.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name.String())
	}
	return out
}

func TestDiscover_FindsAllFormats(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "Core", "Core.build.json"), `{"public_include_paths": ["Core/Public"]}`)
	writeDescriptor(t, filepath.Join(base, "Source", "Engine", "Engine.build.cue"), `public_dependencies: ["Core"]`)
	writeDescriptor(t, filepath.Join(base, "Source", "Render", "Render.build.toml"), "private_dependencies = [\"Engine\"]\n")
	writeDescriptor(t, filepath.Join(base, "Plugins", "Brett", "BrettPlugin.build.yaml"), "public_dependencies: [Engine]\n")
	writeDescriptor(t, filepath.Join(base, "Plugins", "Audio", "Audio.build.hcl"), "module \"Audio\" {\n  public_dependencies = [\"Core\"]\n}\n")
	writeDescriptor(t, filepath.Join(base, "Source", "README.md"), "not a descriptor")

	res, err := newDiscovery(t, base, "Source", "Plugins").Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}

	// Ordered by path: Plugins/Audio, Plugins/Brett, Source/Core, Source/Engine, Source/Render.
	want := []string{"Audio", "BrettPlugin", "Core", "Engine", "Render"}
	if got := names(res.Descriptors); !slices.Equal(got, want) {
		t.Errorf("descriptors = %v, want %v", got, want)
	}
	if !slices.IsSorted(res.Files) {
		t.Errorf("files not sorted: %v", res.Files)
	}
	for _, d := range res.Descriptors {
		if !filepath.IsAbs(d.Source) {
			t.Errorf("%s: source %q is not absolute", d.Name, d.Source)
		}
	}
}

func TestDiscover_SkipsIgnoredDirectories(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "Core", "Core.build.json"), `{}`)
	for _, dir := range []string{".git", "Binaries", "Intermediate", "node_modules", ".cache"} {
		writeDescriptor(t, filepath.Join(base, "Source", dir, "Stale.build.json"), `{}`)
	}

	res, err := newDiscovery(t, base, "Source").Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Descriptors); !slices.Equal(got, []string{"Core"}) {
		t.Errorf("descriptors = %v, want [Core]", got)
	}
}

func TestDiscover_HiddenRootIsScanned(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, ".modules", "Core.build.json"), `{}`)

	res, err := newDiscovery(t, base, ".modules").Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Descriptors) != 1 {
		t.Errorf("an explicitly configured hidden root must be scanned, got %v", res.Files)
	}
}

func TestDiscover_ParseFailuresAreDiagnostics(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "Good.build.json"), `{}`)
	writeDescriptor(t, filepath.Join(base, "Source", "Broken.build.json"), `{"public_dependencies": [`)
	writeDescriptor(t, filepath.Join(base, "Source", "Wrong.build.yaml"), "name: Other\n")

	res, err := newDiscovery(t, base, "Source").Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Descriptors); !slices.Equal(got, []string{"Good"}) {
		t.Errorf("descriptors = %v, want [Good]", got)
	}
	if len(res.Files) != 3 {
		t.Errorf("files = %v, want all three", res.Files)
	}
	if !res.HasErrors() {
		t.Fatal("HasErrors() = false")
	}
	if got := len(res.Errors()); got != 2 {
		t.Fatalf("errors = %d, want 2: %v", got, res.Diagnostics)
	}
	for _, diag := range res.Diagnostics {
		if diag.Code != CodeDescriptorParseFailed || diag.Severity != SeverityError {
			t.Errorf("unexpected diagnostic %v", diag)
		}
	}
	if !errors.Is(res.Errors()[0], descriptor.ErrParseDescriptor) {
		t.Errorf("Broken: %v does not wrap ErrParseDescriptor", res.Errors()[0])
	}
	if !errors.Is(res.Errors()[1], descriptor.ErrNameMismatch) {
		t.Errorf("Wrong: %v does not wrap ErrNameMismatch", res.Errors()[1])
	}
}

func TestDiscover_MissingRootIsWarning(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "Core.build.json"), `{}`)
	writeDescriptor(t, filepath.Join(base, "file.txt"), "x")

	res, err := newDiscovery(t, base, "Source", "Plugins", "file.txt").Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.HasErrors() {
		t.Errorf("missing roots must not be errors: %v", res.Diagnostics)
	}
	if len(res.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %v, want 2 warnings", res.Diagnostics)
	}
	for _, diag := range res.Diagnostics {
		if diag.Code != CodeRootUnavailable || diag.Severity != SeverityWarning {
			t.Errorf("unexpected diagnostic %v", diag)
		}
	}
	if len(res.Descriptors) != 1 {
		t.Errorf("descriptors = %v", names(res.Descriptors))
	}
}

func TestDiscover_OverlappingRoots(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "Core.build.json"), `{}`)

	res, err := newDiscovery(t, base, ".", "Source").Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Descriptors) != 1 {
		t.Fatalf("descriptor discovered %d times", len(res.Descriptors))
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeDuplicateFile {
		t.Errorf("diagnostics = %v, want one duplicate_file warning", res.Diagnostics)
	}
}

func TestDiscover_CacheReusesUnchangedFiles(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	core := filepath.Join(base, "Core.build.json")
	engine := filepath.Join(base, "Engine.build.json")
	writeDescriptor(t, core, `{}`)
	writeDescriptor(t, engine, `{"public_dependencies": ["Core"]}`)

	d := newDiscovery(t, base, ".")
	if _, err := d.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s := d.Stats(); s.Misses != 2 || s.Hits != 0 || s.Len != 2 {
		t.Fatalf("after first scan: %+v", s)
	}

	writeDescriptor(t, engine, `{"public_dependencies": ["Core"], "private_dependencies": ["Core2"]}`)
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(engine, later, later); err != nil {
		t.Fatal(err)
	}

	res, err := d.Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s := d.Stats(); s.Misses != 3 || s.Hits != 1 {
		t.Fatalf("after second scan: %+v", s)
	}
	got := res.Descriptors[1]
	if got.Name != "Engine" || len(got.PrivateDependencies) != 1 {
		t.Errorf("changed descriptor not re-parsed: %+v", got)
	}

	// Returned descriptors are copies; mutating one must not poison the cache.
	res.Descriptors[0].PublicDependencies = append(res.Descriptors[0].PublicDependencies, "Mutated")
	res, err = d.Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Descriptors[0].PublicDependencies) != 0 {
		t.Errorf("cache entry was mutated: %v", res.Descriptors[0].PublicDependencies)
	}
}

func TestDiscover_Canceled(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Core.build.json"), `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newDiscovery(t, base, ".").Discover(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFilesAndRoots(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeDescriptor(t, filepath.Join(base, "Source", "B.build.json"), `{}`)
	writeDescriptor(t, filepath.Join(base, "Source", "A.build.json"), `not json`)

	d := newDiscovery(t, base, "Source")
	if got, want := d.Roots(), []string{filepath.Join(base, "Source")}; !slices.Equal(got, want) {
		t.Errorf("Roots = %v, want %v", got, want)
	}
	files, diags, err := d.Files(context.Background())
	if err != nil || len(diags) != 0 {
		t.Fatalf("Files: %v %v", err, diags)
	}
	want := []string{filepath.Join(base, "Source", "A.build.json"), filepath.Join(base, "Source", "B.build.json")}
	if !slices.Equal(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
	if s := d.Stats(); s.Misses != 0 {
		t.Errorf("Files must not parse: %+v", s)
	}
}
