package minecraft

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"voxel-launcher/internal/models"
)

// Command builds the argv that starts version id with the given options.
// The version must already be installed.
func (in *Installer) Command(ctx context.Context, id string, opts models.LaunchOptions) ([]string, error) {
	info, err := in.ResolveVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if info.MainClass == "" {
		return nil, fmt.Errorf("version %s has no main class", id)
	}

	features := map[string]bool{
		"has_custom_resolution": opts.ResolutionWidth > 0 && opts.ResolutionHeight > 0,
	}
	values := in.placeholders(info, opts)
	replacer := placeholderReplacer(values)

	argv := []string{JavaExecutable(opts.JavaPath)}
	if opts.MinMemoryMB > 0 {
		argv = append(argv, "-Xms"+strconv.Itoa(opts.MinMemoryMB)+"M")
	}
	if opts.MaxMemoryMB > 0 {
		argv = append(argv, "-Xmx"+strconv.Itoa(opts.MaxMemoryMB)+"M")
	}
	argv = append(argv, opts.JVMArgs...)

	if info.Arguments != nil && len(info.Arguments.JVM) > 0 {
		argv = append(argv, in.expand(info.Arguments.JVM, features, replacer)...)
	} else {
		argv = append(argv,
			replacer.Replace("-Djava.library.path=${natives_directory}"),
			replacer.Replace("-Dminecraft.launcher.brand=${launcher_name}"),
			replacer.Replace("-Dminecraft.launcher.version=${launcher_version}"),
			"-cp", values["classpath"],
		)
	}

	if logging, ok := info.Logging["client"]; ok && logging.Argument != "" {
		path := in.loggingConfigPath(logging)
		if _, err := os.Stat(path); err == nil {
			argv = append(argv, strings.ReplaceAll(logging.Argument, "${path}", path))
		}
	}

	argv = append(argv, info.MainClass)

	if info.MinecraftArguments != "" {
		for _, arg := range strings.Fields(info.MinecraftArguments) {
			argv = append(argv, replacer.Replace(arg))
		}
		if features["has_custom_resolution"] {
			argv = append(argv,
				"--width", strconv.Itoa(opts.ResolutionWidth),
				"--height", strconv.Itoa(opts.ResolutionHeight))
		}
	}
	if info.Arguments != nil {
		argv = append(argv, in.expand(info.Arguments.Game, features, replacer)...)
	}

	return argv, nil
}

func (in *Installer) expand(args []Argument, features map[string]bool, r *strings.Replacer) []string {
	var out []string
	for _, arg := range args {
		if !in.platform.Allowed(arg.Rules, features) {
			continue
		}
		for _, v := range arg.Values {
			out = append(out, r.Replace(v))
		}
	}
	return out
}

// Classpath lists the library jars allowed on this platform followed by the
// client jar, without duplicates. Natives jars of both styles are included.
func (in *Installer) Classpath(info *VersionInfo) []string {
	seen := make(map[string]bool)
	var entries []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			entries = append(entries, p)
		}
	}

	for _, lib := range info.Libraries {
		if !in.platform.Allowed(lib.Rules, nil) {
			continue
		}
		if job, ok, err := in.artifactJob(lib); err == nil && ok {
			add(job.dest)
		}
		if job, ok := in.nativeJob(lib); ok {
			add(job.dest)
		}
	}

	jarID := info.JarID()
	add(filepath.Join(in.versionDir(jarID), jarID+".jar"))
	return entries
}

func (in *Installer) placeholders(info *VersionInfo, opts models.LaunchOptions) map[string]string {
	assetsRoot := in.assetsDir()
	gameAssets := assetsRoot
	if info.AssetsID() == "legacy" || info.AssetsID() == "pre-1.6" {
		gameAssets = in.LegacyAssetsDir(info.AssetsID())
	}

	token := opts.Token
	if token == "" {
		token = "0"
	}
	userType := opts.UserType
	if userType == "" {
		userType = "legacy"
	}
	launcherName := opts.LauncherName
	if launcherName == "" {
		launcherName = "voxel-launcher"
	}
	launcherVersion := opts.LauncherVersion
	if launcherVersion == "" {
		launcherVersion = "1.0"
	}

	return map[string]string{
		"auth_player_name":    opts.Username,
		"auth_uuid":           strings.ReplaceAll(opts.UUID, "-", ""),
		"auth_access_token":   token,
		"auth_session":        token,
		"auth_xuid":           "",
		"clientid":            "",
		"user_type":           userType,
		"user_properties":     "{}",
		"version_name":        info.ID,
		"version_type":        info.Type,
		"game_directory":      in.gameDir,
		"assets_root":         assetsRoot,
		"game_assets":         gameAssets,
		"assets_index_name":   info.AssetsID(),
		"natives_directory":   in.NativesDir(info.ID),
		"library_directory":   in.librariesDir(),
		"classpath":           strings.Join(in.Classpath(info), string(os.PathListSeparator)),
		"classpath_separator": string(os.PathListSeparator),
		"launcher_name":       launcherName,
		"launcher_version":    launcherVersion,
		"resolution_width":    strconv.Itoa(opts.ResolutionWidth),
		"resolution_height":   strconv.Itoa(opts.ResolutionHeight),
	}
}

func placeholderReplacer(values map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

// JavaExecutable resolves the java binary: the configured path, then
// $JAVA_HOME/bin/java, then java from PATH.
func JavaExecutable(configured string) string {
	if configured != "" {
		return configured
	}
	name := "java"
	if runtime.GOOS == "windows" {
		name = "javaw.exe"
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := filepath.Join(home, "bin", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}
