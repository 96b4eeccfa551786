// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"io"
	"testing"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/discovery"
	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/internal/render"
	"github.com/modgraph/modgraph/internal/testutil"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

// largeTree is roughly the size of a big engine source tree.
var largeTree = testutil.LayeredTree{Layers: 12, Width: 40, Fanout: 4, DynamicEvery: 7}

var sampleDescriptors = map[string]string{
	"Engine.build.cue": `
version: "5.4.0"
public_include_paths: ["Engine/Public", "Engine/Classes"]
private_include_paths: ["Engine/Private"]
public_dependencies: ["Core", "CoreUObject"]
private_dependencies: ["RenderCore", "RHI"]
dynamic_dependencies: ["Niagara"]
dependency_versions: Core: ">=5.0.0"
platforms: Win64: private_dependencies: ["D3D12RHI"]
`,
	"Engine.build.json": `{
  "version": "5.4.0",
  "public_include_paths": ["Engine/Public", "Engine/Classes"],
  "private_include_paths": ["Engine/Private"],
  "public_dependencies": ["Core", "CoreUObject"],
  "private_dependencies": ["RenderCore", "RHI"],
  "dynamic_dependencies": ["Niagara"],
  "platforms": {"Win64": {"private_dependencies": ["D3D12RHI"]}}
}`,
	"Engine.build.toml": `
version = "5.4.0"
public_include_paths = ["Engine/Public", "Engine/Classes"]
private_include_paths = ["Engine/Private"]
public_dependencies = ["Core", "CoreUObject"]
private_dependencies = ["RenderCore", "RHI"]
dynamic_dependencies = ["Niagara"]

[platforms.Win64]
private_dependencies = ["D3D12RHI"]
`,
	"Engine.build.yaml": `
version: 5.4.0
public_include_paths: [Engine/Public, Engine/Classes]
private_include_paths: [Engine/Private]
public_dependencies: [Core, CoreUObject]
private_dependencies: [RenderCore, RHI]
dynamic_dependencies: [Niagara]
platforms:
  Win64:
    private_dependencies: [D3D12RHI]
`,
	"Engine.build.hcl": `
module "Engine" {
  version               = "5.4.0"
  public_include_paths  = ["Engine/Public", "Engine/Classes"]
  private_include_paths = ["Engine/Private"]
  public_dependencies   = ["Core", "CoreUObject"]
  private_dependencies  = ["RenderCore", "RHI"]
  dynamic_dependencies  = ["Niagara"]

  platform "Win64" {
    private_dependencies = ["D3D12RHI"]
  }
}
`,
}

// BenchmarkParse benchmarks decoding one descriptor in each format.
func BenchmarkParse(b *testing.B) {
	for name, content := range sampleDescriptors {
		data := []byte(content)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := descriptor.Parse(data, name); err != nil {
					b.Fatalf("Parse failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkDiscovery benchmarks scanning the large tree. The cold case
// builds a new Discovery each iteration; the warm case reuses its cache.
func BenchmarkDiscovery(b *testing.B) {
	root := b.TempDir()
	testutil.WriteTree(b, root, largeTree.Files())
	ctx := context.Background()

	b.Run("cold", func(b *testing.B) {
		for b.Loop() {
			d, err := discovery.New([]string{"Source"}, discovery.WithBaseDir(root))
			if err != nil {
				b.Fatal(err)
			}
			if _, err := d.Discover(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("warm", func(b *testing.B) {
		d, err := discovery.New([]string{"Source"}, discovery.WithBaseDir(root), discovery.WithCacheSize(largeTree.Len()))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := d.Discover(ctx); err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for b.Loop() {
			if _, err := d.Discover(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// loadTree parses the large tree once for the resolution benchmarks.
func loadTree(b *testing.B) []*descriptor.Descriptor {
	b.Helper()
	root := b.TempDir()
	testutil.WriteTree(b, root, largeTree.Files())
	d, err := discovery.New([]string{"Source"}, discovery.WithBaseDir(root))
	if err != nil {
		b.Fatal(err)
	}
	res, err := d.Discover(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	if res.HasErrors() || len(res.Descriptors) != largeTree.Len() {
		b.Fatalf("discovered %d descriptors with %d diagnostics", len(res.Descriptors), len(res.Diagnostics))
	}
	return res.Descriptors
}

// BenchmarkResolveTarget benchmarks registry, graph and plan construction
// for one target.
func BenchmarkResolveTarget(b *testing.B) {
	descs := loadTree(b)
	target := planner.Target{Name: "default"}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := planner.ResolveTarget(target, descs); err != nil {
			b.Fatalf("ResolveTarget failed: %v", err)
		}
	}
}

// BenchmarkResolveTargets benchmarks parallel resolution of several targets.
func BenchmarkResolveTargets(b *testing.B) {
	descs := loadTree(b)
	targets := []planner.Target{
		{Name: "editor", Platform: "Win64"},
		{Name: "server", Platform: "Linux"},
		{Name: "client", Platform: "Mac"},
		{Name: "tools"},
	}
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := planner.ResolveTargets(ctx, targets, descs); err != nil {
			b.Fatalf("ResolveTargets failed: %v", err)
		}
	}
}

// BenchmarkRender benchmarks encoding one large plan in every output format.
func BenchmarkRender(b *testing.B) {
	plan, err := planner.ResolveTarget(planner.Target{Name: "default"}, loadTree(b))
	if err != nil {
		b.Fatal(err)
	}
	plans := []*planner.BuildPlan{plan}

	for _, format := range config.OutputFormats() {
		b.Run(string(format), func(b *testing.B) {
			for b.Loop() {
				if err := render.Encode(io.Discard, plans, format); err != nil {
					b.Fatalf("Encode(%s) failed: %v", format, err)
				}
			}
		})
	}
}
