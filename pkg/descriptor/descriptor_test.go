// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDropsRepeatedDependencies(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		Name: "BrettPlugin",
		PrivateDependencies: Names(
			"Engine", "UnrealEd", "Core", "CoreUObject", "Slate", "UnrealEd",
			"LevelEditor", "InputCore", "LandscapeEditor", "BlueprintGraph", "LandscapeEditor",
		),
		PublicIncludePaths: []string{"Public", "Public"},
	}
	d.Normalize()

	assert.Equal(t, Names(
		"Engine", "UnrealEd", "Core", "CoreUObject", "Slate",
		"LevelEditor", "InputCore", "LandscapeEditor", "BlueprintGraph",
	), d.PrivateDependencies)
	assert.Equal(t, []string{"Public", "Public"}, d.PublicIncludePaths, "include paths are deduplicated at planning time")
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		Name:               "Engine",
		PublicDependencies: Names("Core"),
		DependencyVersions: map[ModuleName]string{"Core": "^4.0.0"},
		Platforms: map[string]PlatformRules{
			"Win64": {PrivateDependencies: Names("D3D12RHI")},
		},
	}
	c := d.Clone()
	c.PublicDependencies[0] = "Changed"
	c.DependencyVersions["Core"] = "^5.0.0"
	rules := c.Platforms["Win64"]
	rules.PrivateDependencies[0] = "Changed"

	assert.Equal(t, ModuleName("Core"), d.PublicDependencies[0])
	assert.Equal(t, "^4.0.0", d.DependencyVersions["Core"])
	assert.Equal(t, ModuleName("D3D12RHI"), d.Platforms["Win64"].PrivateDependencies[0])
	assert.Nil(t, (*Descriptor)(nil).Clone())
}

func TestForPlatform(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		Name:                "RHI",
		PublicIncludePaths:  []string{"RHI/Public"},
		PrivateDependencies: Names("Core"),
		Platforms: map[string]PlatformRules{
			"Win64": {
				PublicIncludePaths:  []string{"RHI/Windows"},
				PrivateDependencies: Names("D3D12RHI", "Core"),
				DynamicDependencies: Names("NVAftermath"),
			},
			"Linux": {PrivateDependencies: Names("VulkanRHI")},
		},
	}

	win := d.ForPlatform("Win64")
	assert.Equal(t, []string{"RHI/Public", "RHI/Windows"}, win.PublicIncludePaths)
	assert.Equal(t, Names("Core", "D3D12RHI"), win.PrivateDependencies)
	assert.Equal(t, Names("NVAftermath"), win.DynamicDependencies)
	assert.Nil(t, win.Platforms)

	base := d.ForPlatform("")
	assert.Equal(t, Names("Core"), base.PrivateDependencies)
	assert.Equal(t, Names("Core"), d.ForPlatform("Mac").PrivateDependencies)

	assert.Equal(t, []string{"Linux", "Win64"}, d.PlatformNames())
	assert.Len(t, d.Platforms["Win64"].PrivateDependencies, 2, "ForPlatform must not mutate the receiver")
}

func TestForPlatformKeepsOnlyDeclaredConstraints(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		Name:               "App",
		PublicDependencies: Names("Core"),
		DependencyVersions: map[ModuleName]string{"Core": "^4.0.0", "WinOnly": ">=1.0.0", "Aftermath": "~2.1"},
		Platforms: map[string]PlatformRules{
			"Win64": {PrivateDependencies: Names("WinOnly"), DynamicDependencies: Names("Aftermath")},
		},
	}
	require.NoError(t, d.Validate())

	win := d.ForPlatform("Win64")
	assert.Equal(t, map[ModuleName]string{"Core": "^4.0.0", "WinOnly": ">=1.0.0", "Aftermath": "~2.1"}, win.DependencyVersions)
	require.NoError(t, win.Validate())

	for _, platform := range []string{"", "Linux"} {
		flat := d.ForPlatform(platform)
		assert.Equal(t, map[ModuleName]string{"Core": "^4.0.0"}, flat.DependencyVersions, platform)
		require.NoError(t, flat.Validate(), platform)
	}

	assert.Len(t, d.DependencyVersions, 3, "ForPlatform must not mutate the receiver")
	assert.Nil(t, (&Descriptor{Name: "Solo", DependencyVersions: map[ModuleName]string{"Gone": "1.x"}}).ForPlatform("").DependencyVersions)
}

func TestStaticDependencies(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		PublicDependencies:  Names("B", "A"),
		PrivateDependencies: Names("C"),
		DynamicDependencies: Names("D"),
	}
	assert.Equal(t, Names("B", "A", "C"), d.StaticDependencies())
	assert.Equal(t, Names("B", "A"), d.Dependencies(Public))
	assert.Equal(t, Names("C"), d.Dependencies(Private))
}

func TestVisibilityText(t *testing.T) {
	t.Parallel()

	for _, v := range []Visibility{Public, Private} {
		text, err := v.MarshalText()
		require.NoError(t, err)

		var back Visibility
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, v, back)
	}

	_, err := ParseVisibility("protected")
	require.ErrorIs(t, err, ErrInvalidVisibility)
	assert.Equal(t, "visibility(7)", Visibility(7).String())
}

func TestModuleNameIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  ModuleName
		valid bool
	}{
		{"Core", true},
		{"CoreUObject", true},
		{"D3D12RHI", true},
		{"Brett.Editor", true},
		{"mesh-utilities", true},
		{"", false},
		{"9Lives", false},
		{"Has Space", false},
		{"Trailing.", false},
		{"../Escape", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			t.Parallel()

			ok, errs := tt.name.IsValid()
			assert.Equal(t, tt.valid, ok)
			if !tt.valid {
				require.Len(t, errs, 1)
				assert.ErrorIs(t, errs[0], ErrInvalidModuleName)
			}
		})
	}
}
