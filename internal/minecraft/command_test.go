package minecraft

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxel-launcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// valueAfter returns the argument following flag.
func valueAfter(argv []string, flag string) string {
	for i, arg := range argv {
		if arg == flag && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

func TestCommandModernVersion(t *testing.T) {
	f := newFakeMojang(t)
	in := newTestInstaller(t, f)
	ctx := context.Background()
	require.NoError(t, in.InstallVersion(ctx, "1.20.1", CallbackFuncs{}))

	argv, err := in.Command(ctx, "1.20.1", models.LaunchOptions{
		Username:         "Steve",
		UUID:             "069a79f4-44e9-4726-a5be-fca90e38aaf5",
		UserType:         "legacy",
		JavaPath:         "/opt/jdk/bin/java",
		JVMArgs:          []string{"-XX:+UseG1GC"},
		MinMemoryMB:      512,
		MaxMemoryMB:      2048,
		ResolutionWidth:  1280,
		ResolutionHeight: 720,
	})
	require.NoError(t, err)

	dir := in.GameDir()
	assert.Equal(t, "/opt/jdk/bin/java", argv[0])
	assert.Equal(t, []string{"-Xms512M", "-Xmx2048M", "-XX:+UseG1GC"}, argv[1:4])
	assert.Contains(t, argv, "-Djava.library.path="+in.NativesDir("1.20.1"))
	assert.NotContains(t, argv, "-XstartOnFirstThread")
	assert.Contains(t, argv, "-Dlog4j.configurationFile="+filepath.Join(dir, "assets", "log_configs", "client-1.12.xml"))
	assert.Contains(t, argv, "net.minecraft.client.main.Main")

	classpath := strings.Split(valueAfter(argv, "-cp"), string(os.PathListSeparator))
	assert.Equal(t, []string{
		filepath.Join(dir, "libraries", "com", "example", "lib", "1.0", "lib-1.0.jar"),
		filepath.Join(dir, "libraries", "org", "lwjgl", "lwjgl", "3.3.1", "lwjgl-3.3.1-natives-linux.jar"),
		filepath.Join(dir, "versions", "1.20.1", "1.20.1.jar"),
	}, classpath, "natives-<os> jars are loaded from the classpath")

	assert.Equal(t, "Steve", valueAfter(argv, "--username"))
	assert.Equal(t, "1.20.1", valueAfter(argv, "--version"))
	assert.Equal(t, dir, valueAfter(argv, "--gameDir"))
	assert.Equal(t, "5", valueAfter(argv, "--assetIndex"))
	assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", valueAfter(argv, "--uuid"))
	assert.Equal(t, "0", valueAfter(argv, "--accessToken"))
	assert.Equal(t, "legacy", valueAfter(argv, "--userType"))
	assert.Equal(t, "1280", valueAfter(argv, "--width"))
	assert.Equal(t, "720", valueAfter(argv, "--height"))

	for _, arg := range argv {
		assert.NotContains(t, arg, "${", "unreplaced placeholder in %q", arg)
	}
}

func TestCommandWithoutResolutionOmitsSize(t *testing.T) {
	f := newFakeMojang(t)
	in := newTestInstaller(t, f)
	ctx := context.Background()
	require.NoError(t, in.InstallVersion(ctx, "1.20.1", CallbackFuncs{}))

	argv, err := in.Command(ctx, "1.20.1", models.LaunchOptions{Username: "Alex", Token: "tok", UserType: "msa"})
	require.NoError(t, err)

	assert.NotContains(t, argv, "--width")
	assert.NotContains(t, argv, "-Xmx0M")
	assert.Equal(t, "tok", valueAfter(argv, "--accessToken"))
	assert.Equal(t, "msa", valueAfter(argv, "--userType"))
}

func TestCommandLegacyVersion(t *testing.T) {
	f := newFakeMojang(t)
	in := newTestInstaller(t, f)

	legacy := &VersionInfo{
		ID:                 "1.5.2",
		Type:               "release",
		MainClass:          "net.minecraft.client.Minecraft",
		MinecraftArguments: "${auth_player_name} ${auth_session} --gameDir ${game_directory} --assetsDir ${game_assets}",
		Assets:             "legacy",
	}
	require.NoError(t, writeJSONFile(in.versionJSONPath("1.5.2"), legacy))

	argv, err := in.Command(context.Background(), "1.5.2", models.LaunchOptions{
		Username:         "Notch",
		JavaPath:         "java",
		ResolutionWidth:  854,
		ResolutionHeight: 480,
	})
	require.NoError(t, err)

	assert.Contains(t, argv, "-Djava.library.path="+in.NativesDir("1.5.2"))
	assert.Equal(t, filepath.Join(in.GameDir(), "versions", "1.5.2", "1.5.2.jar"), valueAfter(argv, "-cp"))

	main := -1
	for i, arg := range argv {
		if arg == "net.minecraft.client.Minecraft" {
			main = i
		}
	}
	require.NotEqual(t, -1, main)
	assert.Equal(t, []string{"Notch", "0"}, argv[main+1:main+3])
	assert.Equal(t, in.LegacyAssetsDir("legacy"), valueAfter(argv, "--assetsDir"))
	assert.Equal(t, "854", valueAfter(argv, "--width"))
	assert.Equal(t, "480", valueAfter(argv, "--height"))
}

func TestCommandLegacyNativesOnClasspath(t *testing.T) {
	f := newFakeMojang(t)
	f.addLegacyVersion(t, "1.7.10", "legacy", AssetIndex{Virtual: true})
	in := newTestInstaller(t, f)
	ctx := context.Background()
	require.NoError(t, in.InstallVersion(ctx, "1.7.10", CallbackFuncs{}))

	argv, err := in.Command(ctx, "1.7.10", models.LaunchOptions{Username: "Steve", Token: "tok"})
	require.NoError(t, err)

	dir := in.GameDir()
	classpath := strings.Split(valueAfter(argv, "-cp"), string(os.PathListSeparator))
	assert.Equal(t, []string{
		filepath.Join(dir, "libraries", "net", "sf", "jopt-simple", "jopt-simple", "4.5", "jopt-simple-4.5.jar"),
		filepath.Join(dir, "libraries", "org", "lwjgl", "lwjgl", "lwjgl-platform", "2.9.1", "lwjgl-platform-2.9.1-natives-linux-64.jar"),
		filepath.Join(dir, "versions", "1.7.10", "1.7.10.jar"),
	}, classpath)

	assert.Contains(t, argv, "-Djava.library.path="+in.NativesDir("1.7.10"))
	assert.Equal(t, in.LegacyAssetsDir("legacy"), valueAfter(argv, "--assetsDir"))
	assert.Equal(t, "tok", valueAfter(argv, "--session"))
	for _, arg := range argv {
		assert.NotContains(t, arg, "${", "unreplaced placeholder in %q", arg)
	}
}

func TestCommandMissingMainClass(t *testing.T) {
	f := newFakeMojang(t)
	in := newTestInstaller(t, f)
	require.NoError(t, writeJSONFile(in.versionJSONPath("broken"), &VersionInfo{ID: "broken"}))

	_, err := in.Command(context.Background(), "broken", models.LaunchOptions{Username: "x"})
	assert.Error(t, err)
}

func TestJavaExecutable(t *testing.T) {
	assert.Equal(t, "/custom/java", JavaExecutable("/custom/java"))

	t.Setenv("JAVA_HOME", filepath.Join(t.TempDir(), "missing"))
	got := JavaExecutable("")
	assert.True(t, got == "java" || got == "javaw.exe", got)
}
