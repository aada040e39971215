package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/services"
	"voxel-launcher/internal/storage"
	"voxel-launcher/internal/tasks"
	"voxel-launcher/internal/views"

	"fyne.io/fyne/v2"
)

// Services bundles what the controller orchestrates.
type Services struct {
	Versions    *services.VersionService
	Launcher    *services.LaunchService
	Mods        *services.ModService
	Browse      *services.BrowseService
	Icons       *services.IconCache
	Backgrounds *services.BackgroundService
	Accounts    *services.AccountService
}

// MainController turns view events into one-shot background tasks and
// reports their results back to the view.
type MainController struct {
	svc      Services
	settings *storage.SettingsStore
	tasks    *tasks.Runner
	logger   logger.Logger

	mainView *views.MainView
	openURL  func(*url.URL) error
	quit     func()

	mu              sync.Mutex
	launching       bool
	account         *models.Account
	loginCancel     context.CancelFunc
	versionList     []string
	selectedVersion string
	loader          models.LoaderType
	projectID       string
}

func NewMainController(svc Services, settings *storage.SettingsStore, runner *tasks.Runner, log logger.Logger) *MainController {
	return &MainController{
		svc:      svc,
		settings: settings,
		tasks:    runner,
		logger:   log,
		loader:   models.LoaderVanilla,
	}
}

// SetMainView associates the main view with this controller
func (mc *MainController) SetMainView(view *views.MainView) {
	mc.mainView = view
	view.SetHandlers(views.Handlers{
		AuthChanged:     mc.AuthChanged,
		UsernameChanged: mc.UsernameChanged,
		Login:           mc.Login,
		Logout:          mc.Logout,
		VersionChanged:  mc.VersionChanged,
		LoaderChanged:   mc.LoaderChanged,
		Launch:          mc.Launch,
		RefreshMods:     mc.RefreshMods,
		DeleteMod:       mc.DeleteMod,
		InstallFiles:    mc.InstallFiles,
		DownloadURL:     mc.DownloadURL,
		OpenModsFolder:  mc.OpenModsFolder,
		CheckUpdates:    mc.CheckUpdates,
		ApplyUpdates:    mc.ApplyUpdates,
		Search:          mc.Search,
		SelectProject:   mc.SelectProject,
		DownloadVersion: mc.DownloadVersion,
		Icon:            mc.Icon,
		SaveSettings:    mc.SaveSettings,
		Quit:            mc.Quit,
	})
}

// SetOpenURL sets how links and folders are opened, normally fyne.App.OpenURL.
func (mc *MainController) SetOpenURL(open func(*url.URL) error) {
	mc.openURL = open
}

func (mc *MainController) SetQuitHandler(quit func()) {
	mc.quit = quit
}

// Start populates the view from disk and kicks off the initial background work.
func (mc *MainController) Start() {
	s := mc.settings.Load()

	mc.mu.Lock()
	mc.loader = s.Loader
	mc.selectedVersion = s.LastVersion
	mc.versionList = mc.svc.Versions.Cached()
	versions, selected := mc.versionList, mc.selectedVersion
	mc.mu.Unlock()

	mc.mainView.SetSettings(s)
	mc.mainView.SetVersions(versions, selected)
	mc.updateBrowseFilter()

	mc.refreshVersions()
	mc.restoreAccount()
	mc.RefreshMods()
	mc.loadLastPlayed()
	mc.startBackgrounds()
	mc.watchMods()
	mc.Search("")
}

func (mc *MainController) Quit() {
	if mc.quit != nil {
		mc.quit()
	}
}

// Shutdown aborts a pending browser login. Background tasks are stopped by
// the task runner.
func (mc *MainController) Shutdown() {
	mc.mu.Lock()
	cancel := mc.loginCancel
	mc.loginCancel = nil
	mc.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (mc *MainController) open(u *url.URL) {
	if mc.openURL == nil {
		return
	}
	if err := mc.openURL(u); err != nil {
		mc.logger.Warning("MainController", "failed to open url", map[string]interface{}{
			"url":   u.String(),
			"error": err.Error(),
		})
	}
}

func (mc *MainController) startBackgrounds() {
	mc.tasks.Go("backgrounds", func(ctx context.Context) error {
		if _, err := mc.svc.Backgrounds.EnsureDefault(ctx); err != nil {
			mc.logger.Warning("MainController", "no default background", map[string]interface{}{
				"error": err.Error(),
			})
		}
		mc.showNextBackground()

		ticker := time.NewTicker(services.RotationInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := mc.svc.Backgrounds.Images(); err != nil {
					continue
				}
				if mc.svc.Backgrounds.ShouldRotate() {
					mc.showNextBackground()
				}
			}
		}
	}, nil)
}

func (mc *MainController) showNextBackground() {
	if path, ok := mc.svc.Backgrounds.Next(); ok {
		mc.mainView.SetBackground(path)
	}
}

func (mc *MainController) watchMods() {
	mc.tasks.Go("watch mods", func(ctx context.Context) error {
		return mc.svc.Mods.Watch(ctx, mc.RefreshMods)
	}, nil)
}

// fileURL turns a local directory into a file:// URL for the OS file browser.
func fileURL(dir string) *url.URL {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}

// StatusText converts an operation error into the message shown to the user.
func StatusText(err error) string {
	var (
		xboxErr     *auth.XboxError
		providerErr *auth.ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrNoVersion):
		return "Please select a version."
	case errors.Is(err, models.ErrNoUsername):
		return "Please enter a username."
	case errors.Is(err, models.ErrNoAccount):
		return "Please log in with Microsoft first."
	case errors.Is(err, auth.ErrGameNotOwned):
		return "This Microsoft account does not own Minecraft."
	case errors.Is(err, auth.ErrLoginCancelled):
		return "Login cancelled."
	case errors.Is(err, auth.ErrNoRefreshToken):
		return "Your Microsoft session has ended. Please log in again."
	case errors.As(err, &xboxErr):
		return xboxErr.Error()
	case errors.As(err, &providerErr):
		if providerErr.Description != "" {
			return "Microsoft login failed: " + providerErr.Description
		}
		return "Microsoft login failed: " + providerErr.Code
	case errors.Is(err, services.ErrNotJar):
		return "Only .jar files can be installed as mods."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return "An error occurred: " + err.Error()
	}
}

// launchStatusText is StatusText with the launcher's loader messages.
func launchStatusText(loader models.LoaderType, err error) string {
	if errors.Is(err, minecraft.ErrLoaderUnsupported) {
		return fmt.Sprintf("%s installation is not supported in this version of the launcher. Please use Fabric or Quilt.", loader)
	}
	return StatusText(err)
}

// ui runs fn on the fyne goroutine.
func ui(fn func()) {
	fyne.Do(fn)
}
