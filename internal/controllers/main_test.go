package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/services"
	"voxel-launcher/internal/storage"
	"voxel-launcher/internal/tasks"
	"voxel-launcher/internal/views"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no version", models.ErrNoVersion, "Please select a version."},
		{"no username", fmt.Errorf("launch: %w", models.ErrNoUsername), "Please enter a username."},
		{"no account", models.ErrNoAccount, "Please log in with Microsoft first."},
		{"not owned", auth.ErrGameNotOwned, "This Microsoft account does not own Minecraft."},
		{"cancelled login", auth.ErrLoginCancelled, "Login cancelled."},
		{"expired session", auth.ErrNoRefreshToken, "Your Microsoft session has ended. Please log in again."},
		{"declined consent", &auth.ProviderError{Code: "access_denied"}, "Login cancelled."},
		{"provider error", fmt.Errorf("login: %w", &auth.ProviderError{Code: "server_error", Description: "try again later"}), "Microsoft login failed: try again later"},
		{"provider code only", &auth.ProviderError{Code: "temporarily_unavailable"}, "Microsoft login failed: temporarily_unavailable"},
		{"xbox", &auth.XboxError{Code: 2148916233}, (&auth.XboxError{Code: 2148916233}).Error()},
		{"not jar", services.ErrNotJar, "Only .jar files can be installed as mods."},
		{"cancelled", context.Canceled, "Cancelled."},
		{"other", errors.New("disk full"), "An error occurred: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusText(tt.err))
		})
	}
}

func TestLaunchStatusTextUnsupportedLoader(t *testing.T) {
	err := fmt.Errorf("install: %w", minecraft.ErrLoaderUnsupported)
	assert.Equal(t,
		"Forge installation is not supported in this version of the launcher. Please use Fabric or Quilt.",
		launchStatusText(models.LoaderForge, err))
	assert.Equal(t, "Please select a version.", launchStatusText(models.LoaderFabric, models.ErrNoVersion))
}

func TestFilterText(t *testing.T) {
	assert.Equal(t, "Showing mods for 1.20.1",
		filterText(services.SearchFilter{GameVersion: "1.20.1", Loader: models.LoaderVanilla}))
	assert.Equal(t, "Showing Fabric mods for 1.21",
		filterText(services.SearchFilter{GameVersion: "1.21", Loader: models.LoaderFabric}))
	assert.Equal(t, "Showing Quilt mods for all versions",
		filterText(services.SearchFilter{Loader: models.LoaderQuilt}))
}

func TestLastPlayedText(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-2 * time.Hour)

	clean := models.LaunchRecord{Version: "1.20.1", StartedAt: started, EndedAt: started.Add(45 * time.Minute)}
	assert.Equal(t, "Last played 1.20.1 2 hours ago for 45m0s", lastPlayedText(clean, now))

	short := models.LaunchRecord{Version: "1.21", StartedAt: started, EndedAt: started.Add(10 * time.Second), ExitCode: 1}
	assert.Equal(t, "Last played 1.21 2 hours ago (exit code 1)", lastPlayedText(short, now))

	crashed := models.LaunchRecord{Version: "1.21", StartedAt: started, Error: "java not found"}
	assert.True(t, strings.HasSuffix(lastPlayedText(crashed, now), "(crashed)"))
}

type harness struct {
	mc       *MainController
	view     *views.MainView
	settings *storage.SettingsStore
	modsDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	test.NewTempApp(t)

	dir := t.TempDir()
	modsDir := filepath.Join(dir, "mods")
	require.NoError(t, os.MkdirAll(modsDir, 0o755))

	log := logger.Nop()
	runner := tasks.NewRunner(context.Background(), log)
	t.Cleanup(runner.Shutdown)

	settings := storage.NewSettingsStore(filepath.Join(dir, "settings.json"), log)
	svc := Services{
		Mods: services.NewModService(modsDir, nil, log),
	}

	mc := NewMainController(svc, settings, runner, log)
	view := views.NewMainView(test.NewTempWindow(t, nil))
	mc.SetMainView(view)

	return &harness{mc: mc, view: view, settings: settings, modsDir: modsDir}
}

func (h *harness) status() string {
	return h.view.GetViewState().Status
}

func TestUsernameChangedPersists(t *testing.T) {
	h := newHarness(t)

	h.mc.UsernameChanged("  Notch ")
	assert.Equal(t, "Notch", h.settings.Load().LastUsername)

	h.mc.UsernameChanged("   ")
	assert.Equal(t, "Notch", h.settings.Load().LastUsername, "blank names are not saved")
}

func TestSaveSettingsKeepsLaunchChoices(t *testing.T) {
	h := newHarness(t)

	_, err := h.settings.Update(func(s *models.Settings) {
		s.LastVersion = "1.20.1"
		s.Loader = models.LoaderFabric
	})
	require.NoError(t, err)

	h.mc.SaveSettings(models.Settings{MaxMemoryMB: 6144, JVMArgs: "-XX:+UseZGC", LastVersion: "ignored"})

	s := h.settings.Load()
	assert.Equal(t, 6144, s.MaxMemoryMB)
	assert.Equal(t, "-XX:+UseZGC", s.JVMArgs)
	assert.Equal(t, "1.20.1", s.LastVersion)
	assert.Equal(t, models.LoaderFabric, s.Loader)
}

func TestLaunchWithoutVersion(t *testing.T) {
	h := newHarness(t)

	h.mc.Launch()
	assert.Equal(t, "Please select a version.", h.status())

	h.mc.mu.Lock()
	launching := h.mc.launching
	h.mc.mu.Unlock()
	assert.False(t, launching, "a rejected launch releases the guard")
}

func TestLaunchWithoutUsername(t *testing.T) {
	h := newHarness(t)

	h.view.SetVersions([]string{"1.21"}, "1.21")
	h.view.SetSettings(&models.Settings{AuthMethod: models.AuthOffline, LastUsername: ""})

	h.mc.Launch()
	assert.Equal(t, "Please enter a username.", h.status())
	assert.Empty(t, h.settings.Load().LastVersion, "nothing is persisted for an invalid launch")
}

func TestInstallFilesSkipsNonJars(t *testing.T) {
	h := newHarness(t)

	src := t.TempDir()
	jar := filepath.Join(src, "sodium.jar")
	note := filepath.Join(src, "readme.txt")
	require.NoError(t, os.WriteFile(jar, []byte("jar"), 0o644))
	require.NoError(t, os.WriteFile(note, []byte("txt"), 0o644))

	h.mc.InstallFiles([]string{jar, note})

	assert.Eventually(t, func() bool {
		return h.view.GetViewState().ModCount == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Installed 1 mod(s), skipped non-jar files: readme.txt", h.status())
	assert.FileExists(t, filepath.Join(h.modsDir, "sodium.jar"))
}

func TestDeleteModRefreshesList(t *testing.T) {
	h := newHarness(t)

	path := filepath.Join(h.modsDir, "lithium.jar")
	require.NoError(t, os.WriteFile(path, []byte("jar"), 0o644))

	h.mc.RefreshMods()
	require.Eventually(t, func() bool {
		return h.view.GetViewState().ModCount == 1
	}, 5*time.Second, 10*time.Millisecond)

	h.mc.DeleteMod(models.InstalledMod{Path: path, Filename: "lithium.jar"})
	assert.Eventually(t, func() bool {
		return h.view.GetViewState().ModCount == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Deleted lithium.jar", h.status())
	assert.NoFileExists(t, path)
}

func TestCheckUpdatesNeedsVersion(t *testing.T) {
	h := newHarness(t)

	h.mc.CheckUpdates()
	assert.Equal(t, "Please select a version.", h.status())
}

func TestDownloadVersionWithoutFile(t *testing.T) {
	h := newHarness(t)

	h.mc.DownloadVersion(models.Version{ID: "v1"})
	assert.Equal(t, "This version has no downloadable file.", h.status())
}
