// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modgraph/modgraph/pkg/descriptor"
)

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Register(&descriptor.Descriptor{Name: "Core"}))
	require.NoError(t, r.Register(&descriptor.Descriptor{Name: "Engine", PublicDependencies: descriptor.Names("Core")}))

	d, err := r.Lookup("Engine")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Names("Core"), d.PublicDependencies)

	assert.True(t, r.Has("Core"))
	assert.False(t, r.Has("Slate"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, descriptor.Names("Core", "Engine"), r.Names())
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	_, err := New().Lookup("Ghost")
	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, descriptor.ModuleName("Ghost"), unknown.Name)
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Register(&descriptor.Descriptor{Name: "Core", Source: "Engine/Core.build.cue"}))

	err := r.Register(&descriptor.Descriptor{Name: "Core", Source: "Plugins/Core.build.yaml"})
	var dup *DuplicateModuleError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, ErrDuplicateModule)
	assert.Equal(t, "Engine/Core.build.cue", dup.ExistingSource)
	assert.Equal(t, "Plugins/Core.build.yaml", dup.Source)
	assert.Contains(t, err.Error(), "again in Plugins/Core.build.yaml")
	assert.Equal(t, 1, r.Len(), "a rejected registration must leave the registry unchanged")
}

func TestRegisterDuplicateBeforeValidation(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Register(&descriptor.Descriptor{Name: "Core", Source: "Engine/Core.build.cue"}))

	err := r.Register(&descriptor.Descriptor{Name: "Core", PublicDependencies: descriptor.Names("Core"), Source: "Plugins/Core.build.json"})
	require.ErrorIs(t, err, ErrDuplicateModule)
	assert.NotErrorIs(t, err, descriptor.ErrInvalidDescriptor)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterValidates(t *testing.T) {
	t.Parallel()

	r := New()
	err := r.Register(&descriptor.Descriptor{Name: "A", PublicDependencies: descriptor.Names("A")})
	assert.ErrorIs(t, err, descriptor.ErrInvalidDescriptor)
	assert.ErrorIs(t, err, descriptor.ErrSelfDependency)
	assert.Zero(t, r.Len())

	assert.Error(t, r.Register(nil))
}

func TestRegisterStoresNormalizedCopy(t *testing.T) {
	t.Parallel()

	d := &descriptor.Descriptor{
		Name:                "BrettPlugin",
		PrivateDependencies: descriptor.Names("UnrealEd", "Core", "UnrealEd"),
	}
	r := New()
	require.NoError(t, r.Register(d))
	d.PrivateDependencies[0] = "Mutated"

	stored, err := r.Lookup("BrettPlugin")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Names("UnrealEd", "Core"), stored.PrivateDependencies)
}

func TestAllIsRestartable(t *testing.T) {
	t.Parallel()

	r := New()
	for _, n := range []string{"Slate", "Core", "Engine"} {
		require.NoError(t, r.Register(&descriptor.Descriptor{Name: descriptor.ModuleName(n)}))
	}

	names := func() []descriptor.ModuleName {
		var out []descriptor.ModuleName
		for d := range r.All() {
			out = append(out, d.Name)
		}
		return out
	}
	assert.Equal(t, descriptor.Names("Slate", "Core", "Engine"), names())
	assert.Equal(t, names(), names())

	var first descriptor.ModuleName
	for d := range r.All() {
		first = d.Name
		break
	}
	assert.Equal(t, descriptor.ModuleName("Slate"), first)
}

func TestFromDescriptors(t *testing.T) {
	t.Parallel()

	descs := []*descriptor.Descriptor{
		{Name: "Core"},
		{Name: "D3D12RHI"},
		{
			Name:                "RHI",
			PrivateDependencies: descriptor.Names("Core"),
			Platforms: map[string]descriptor.PlatformRules{
				"Win64": {PrivateDependencies: descriptor.Names("D3D12RHI")},
			},
		},
	}

	win, err := FromDescriptors(descs, "Win64")
	require.NoError(t, err)
	rhi, err := win.Lookup("RHI")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Names("Core", "D3D12RHI"), rhi.PrivateDependencies)

	linux, err := FromDescriptors(descs, "Linux")
	require.NoError(t, err)
	rhi, err = linux.Lookup("RHI")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Names("Core"), rhi.PrivateDependencies)
	assert.True(t, slices.Equal(win.Names(), linux.Names()))

	_, err = FromDescriptors(append(descs, &descriptor.Descriptor{Name: "Core"}), "")
	assert.ErrorIs(t, err, ErrDuplicateModule)
}
