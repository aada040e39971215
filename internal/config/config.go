package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppName    = "Voxel Launcher"
	AppID      = "io.github.voxel-launcher"
	AppVersion = "1.0.0"

	// DefaultClientID is the Azure application registered for the login flow.
	DefaultClientID = "34851193-4344-4028-b5b8-9fc87315984c"
	RedirectURL     = "http://localhost:8000"

	DefaultImageURL = "https://sm.ign.com/ign_ap/gallery/m/minecraft-/minecraft-vibrant-visuals-comparison-screenshots_25we.jpg"
	ModrinthBaseURL = "https://api.modrinth.com/v2"
	UserAgent       = "VoxelLauncher/" + AppVersion + " (github.com/voxel-launcher/voxel-launcher)"

	dataDirName = ".voxel-launcher"
)

// Paths is the on-disk layout of the launcher data directory.
type Paths struct {
	DataDir       string
	ModsDir       string
	ImagesDir     string
	IconCacheDir  string
	LogDir        string
	SettingsFile  string
	VersionsCache string
	AccountFile   string
	HistoryDB     string
}

// DefaultImagePath is where the fallback background image is stored.
func (p Paths) DefaultImagePath() string {
	return filepath.Join(p.ImagesDir, "default_background.jpg")
}

// ResolvePaths builds the layout rooted at dataDir. An empty dataDir selects
// $LAUNCHER_HOME or ~/.voxel-launcher.
func ResolvePaths(dataDir string) (Paths, error) {
	if dataDir == "" {
		dataDir = os.Getenv("LAUNCHER_HOME")
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDirName)
	}

	return Paths{
		DataDir:       dataDir,
		ModsDir:       filepath.Join(dataDir, "mods"),
		ImagesDir:     filepath.Join(dataDir, "images"),
		IconCacheDir:  filepath.Join(dataDir, "icon_cache"),
		LogDir:        filepath.Join(dataDir, "logs"),
		SettingsFile:  filepath.Join(dataDir, "settings.json"),
		VersionsCache: filepath.Join(dataDir, "versions_cache.json"),
		AccountFile:   filepath.Join(dataDir, "microsoft_info.json"),
		HistoryDB:     filepath.Join(dataDir, "history.db"),
	}, nil
}

// WithOverrides applies the user-chosen mods and images directories.
// Empty values keep the defaults.
func (p Paths) WithOverrides(modsDir, imagesDir string) Paths {
	if modsDir != "" {
		p.ModsDir = modsDir
	}
	if imagesDir != "" {
		p.ImagesDir = imagesDir
	}
	return p
}

// EnsureDirs creates every directory of the layout.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.ModsDir, p.ImagesDir, p.IconCacheDir, p.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ClientID returns the OAuth client id, honouring LAUNCHER_MS_CLIENT_ID.
func ClientID() string {
	if id := os.Getenv("LAUNCHER_MS_CLIENT_ID"); id != "" {
		return id
	}
	return DefaultClientID
}

// LogLevelName returns the raw LAUNCHER_LOG_LEVEL value and whether DEBUG=1.
func LogLevelName() (string, bool) {
	return os.Getenv("LAUNCHER_LOG_LEVEL"), os.Getenv("DEBUG") == "1"
}
