package minecraft

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMavenPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"org.ow2.asm:asm:9.6", "org/ow2/asm/asm/9.6/asm-9.6.jar"},
		{"org.lwjgl:lwjgl:3.3.1:natives-linux", "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar"},
		{"net.fabricmc:intermediary:1.20.1@zip", "net/fabricmc/intermediary/1.20.1/intermediary-1.20.1.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MavenPath(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MavenPath("broken")
	assert.Error(t, err)
}

func TestArgumentDecodesAllShapes(t *testing.T) {
	raw := `[
		"--username",
		{"rules":[{"action":"allow","features":{"has_custom_resolution":true}}],"value":["--width","${resolution_width}"]},
		{"rules":[{"action":"allow","os":{"name":"osx"}}],"value":"-XstartOnFirstThread"}
	]`

	var args []Argument
	require.NoError(t, json.Unmarshal([]byte(raw), &args))
	require.Len(t, args, 3)

	assert.Equal(t, []string{"--username"}, args[0].Values)
	assert.Empty(t, args[0].Rules)
	assert.Equal(t, []string{"--width", "${resolution_width}"}, args[1].Values)
	assert.True(t, args[1].Rules[0].Features["has_custom_resolution"])
	assert.Equal(t, []string{"-XstartOnFirstThread"}, args[2].Values)
	assert.Equal(t, "osx", args[2].Rules[0].OS.Name)
}

func TestManifestReleaseIDs(t *testing.T) {
	m := &Manifest{Versions: []ManifestEntry{
		{ID: "24w14a", Type: "snapshot"},
		{ID: "1.20.4", Type: "release"},
		{ID: "1.20.3", Type: "release"},
		{ID: "b1.7.3", Type: "old_beta"},
	}}

	assert.Equal(t, []string{"1.20.4", "1.20.3"}, m.ReleaseIDs())

	entry, ok := m.Find("b1.7.3")
	assert.True(t, ok)
	assert.Equal(t, "old_beta", entry.Type)

	_, ok = m.Find("9.9.9")
	assert.False(t, ok)
}

func TestInheritMergesLoaderProfile(t *testing.T) {
	parent := &VersionInfo{
		ID:         "1.20.1",
		Type:       "release",
		MainClass:  "net.minecraft.client.main.Main",
		AssetIndex: &AssetIndexRef{ID: "5"},
		Arguments: &Arguments{
			Game: []Argument{{Values: []string{"--username"}}},
			JVM:  []Argument{{Values: []string{"-cp"}}},
		},
		Libraries: []Library{
			{Name: "org.ow2.asm:asm:9.3"},
			{Name: "com.mojang:brigadier:1.1.8"},
		},
	}
	child := &VersionInfo{
		ID:           "fabric-loader-0.15.0-1.20.1",
		InheritsFrom: "1.20.1",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Arguments:    &Arguments{JVM: []Argument{{Values: []string{"-DFabricMcEmu= net.minecraft.client.main.Main "}}}},
		Libraries: []Library{
			{Name: "org.ow2.asm:asm:9.6", URL: "https://maven.fabricmc.net/"},
			{Name: "net.fabricmc:fabric-loader:0.15.0", URL: "https://maven.fabricmc.net/"},
		},
	}

	merged := Inherit(child, parent)

	assert.Equal(t, "fabric-loader-0.15.0-1.20.1", merged.ID)
	assert.Empty(t, merged.InheritsFrom)
	assert.Equal(t, "1.20.1", merged.JarID())
	assert.Equal(t, "5", merged.AssetsID())
	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", merged.MainClass)
	assert.Len(t, merged.Arguments.JVM, 2)
	assert.Len(t, merged.Arguments.Game, 1)

	var names []string
	for _, lib := range merged.Libraries {
		names = append(names, lib.Name)
	}
	assert.Equal(t, []string{
		"org.ow2.asm:asm:9.6",
		"net.fabricmc:fabric-loader:0.15.0",
		"com.mojang:brigadier:1.1.8",
	}, names)

	// The parent document is left untouched.
	assert.Equal(t, "1.20.1", parent.ID)
	assert.Len(t, parent.Libraries, 2)
}

func TestInheritKeepsParentPlatformVariants(t *testing.T) {
	parent := &VersionInfo{
		ID: "1.16.5",
		Libraries: []Library{
			{Name: "org.lwjgl:lwjgl:3.2.2", Rules: []Rule{
				{Action: "allow"},
				{Action: "disallow", OS: &OSRule{Name: "osx"}},
			}},
			{Name: "org.lwjgl:lwjgl:3.2.1", Rules: []Rule{
				{Action: "allow", OS: &OSRule{Name: "osx"}},
			}},
			{Name: "org.ow2.asm:asm:9.1"},
		},
	}
	child := &VersionInfo{
		ID:           "fabric-loader-0.14.0-1.16.5",
		InheritsFrom: "1.16.5",
		Libraries:    []Library{{Name: "org.ow2.asm:asm:9.6"}},
	}

	merged := Inherit(child, parent)

	var names []string
	for _, lib := range merged.Libraries {
		names = append(names, lib.Name)
	}
	assert.Equal(t, []string{
		"org.ow2.asm:asm:9.6",
		"org.lwjgl:lwjgl:3.2.2",
		"org.lwjgl:lwjgl:3.2.1",
	}, names)

	osx := Platform{OS: "osx", Arch: "arm64"}
	var onOSX []string
	for _, lib := range merged.Libraries {
		if osx.Allowed(lib.Rules, nil) && strings.HasPrefix(lib.Name, "org.lwjgl:") {
			onOSX = append(onOSX, lib.Name)
		}
	}
	assert.Equal(t, []string{"org.lwjgl:lwjgl:3.2.1"}, onOSX)
}

func TestAssetsIDFallsBackToLegacy(t *testing.T) {
	assert.Equal(t, "legacy", (&VersionInfo{}).AssetsID())
	assert.Equal(t, "pre-1.6", (&VersionInfo{Assets: "pre-1.6"}).AssetsID())
}
