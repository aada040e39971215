package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/config"
	"voxel-launcher/internal/controllers"
	"voxel-launcher/internal/history"
	"voxel-launcher/internal/imaging"
	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/modrinth"
	"voxel-launcher/internal/process"
	"voxel-launcher/internal/services"
	"voxel-launcher/internal/shutdown"
	"voxel-launcher/internal/storage"
	"voxel-launcher/internal/tasks"
	"voxel-launcher/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

// Application wires the launcher together using the MVC layout
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  *logger.ZerologAdapter

	controller *controllers.MainController
	view       *views.MainView

	paths    config.Paths
	history  *history.Store
	tasks    *tasks.Runner
	shutdown *shutdown.Manager
}

func main() {
	application, err := NewApplication()
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}

	application.Run()
	log.Println("Application terminated successfully")
}

// NewApplication resolves the data directory and builds every component.
func NewApplication() (*Application, error) {
	paths, err := config.ResolvePaths("")
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	levelName, debug := config.LogLevelName()
	appLogger, err := logger.NewFileLogger(logger.ParseLevel(levelName, debug), paths.LogDir)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	settingsStore := storage.NewSettingsStore(paths.SettingsFile, appLogger)
	settings := settingsStore.Load()
	paths = paths.WithOverrides(settings.ModsDir, settings.ImagesDir)
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	appLogger.Info("Application", "starting", map[string]interface{}{
		"version":    config.AppVersion,
		"data_dir":   paths.DataDir,
		"mods_dir":   paths.ModsDir,
		"go_version": runtime.Version(),
	})

	historyStore, err := history.Open(paths.HistoryDB)
	if err != nil {
		return nil, err
	}

	shutdownManager := shutdown.NewManager(appLogger)
	runner := tasks.NewRunner(shutdownManager.Context(), appLogger)

	repo := modrinth.NewClient(config.ModrinthBaseURL, config.UserAgent)
	installer := minecraft.NewInstaller(paths.DataDir, minecraft.DefaultEndpoints(), config.UserAgent, appLogger)
	msAuth := auth.NewMicrosoftAuth(
		config.ClientID(), config.RedirectURL, auth.DefaultEndpoints(),
		storage.NewTokenStore(paths.AccountFile), appLogger,
	)

	svc := controllers.Services{
		Versions:    services.NewVersionService(installer, storage.NewVersionCache(paths.VersionsCache, appLogger), appLogger),
		Launcher:    services.NewLaunchService(installer, process.NewRunner(paths.LogDir, appLogger), historyStore, appLogger),
		Mods:        services.NewModService(paths.ModsDir, repo, appLogger),
		Browse:      services.NewBrowseService(repo, appLogger),
		Icons:       services.NewIconCache(paths.IconCacheDir, repo, runner, imaging.Thumbnail, appLogger),
		Backgrounds: services.NewBackgroundService(paths.ImagesDir, config.DefaultImageURL, paths.DefaultImagePath(), repo, appLogger),
		Accounts:    services.NewAccountService(msAuth, appLogger),
	}

	fyneApp := app.NewWithID(config.AppID)
	window := fyneApp.NewWindow(config.AppName)
	window.Resize(fyne.NewSize(1100, 720))
	window.CenterOnScreen()

	mainController := controllers.NewMainController(svc, settingsStore, runner, appLogger)
	mainView := views.NewMainView(window)
	mainController.SetMainView(mainView)
	mainController.SetOpenURL(fyneApp.OpenURL)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		logger:     appLogger,
		controller: mainController,
		view:       mainView,
		paths:      paths,
		history:    historyStore,
		tasks:      runner,
		shutdown:   shutdownManager,
	}
	mainController.SetQuitHandler(application.quit)

	// Shutdown runs in reverse: controller, tasks, history, then the log file.
	shutdownManager.Register("logger", shutdown.Func(func() { appLogger.Close() }))
	shutdownManager.Register("history", historyStore)
	shutdownManager.Register("tasks", runner)
	shutdownManager.Register("controller", mainController)

	application.setupWindowEvents()
	return application, nil
}

// Run shows the window and blocks until the application quits.
func (a *Application) Run() {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})
	a.fyneApp.Lifecycle().SetOnStarted(func() {
		a.controller.Start()
	})

	go a.monitor(a.shutdown.Context())

	a.window.ShowAndRun()
	a.shutdown.Shutdown()
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "window close requested", map[string]interface{}{
			"active_tasks": a.tasks.Active(),
		})
		a.quit()
	})
}

func (a *Application) quit() {
	go func() {
		a.shutdown.Shutdown()
		fyne.Do(a.fyneApp.Quit)
	}()
}

// monitor logs resource usage while the launcher is open.
func (a *Application) monitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			a.logger.Debug("Application", "runtime stats", map[string]interface{}{
				"heap_mb":      mem.HeapAlloc / 1024 / 1024,
				"gc_runs":      mem.NumGC,
				"goroutines":   runtime.NumGoroutine(),
				"active_tasks": a.tasks.Active(),
			})
		}
	}
}
