package services

import (
	"context"
	"fmt"

	"voxel-launcher/internal/config"
	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/process"
)

// LaunchService installs what a launch request needs and runs the game.
type LaunchService struct {
	installer GameInstaller
	runner    ProcessRunner
	history   LaunchHistory
	logger    logger.Logger
}

func NewLaunchService(installer GameInstaller, runner ProcessRunner, history LaunchHistory, log logger.Logger) *LaunchService {
	return &LaunchService{installer: installer, runner: runner, history: history, logger: log}
}

// Launch validates req, installs the version and loader, then blocks while
// the game runs.
func (ls *LaunchService) Launch(ctx context.Context, req models.LaunchRequest, cb minecraft.Callback) (process.ExitInfo, error) {
	opts, err := req.Options()
	if err != nil {
		return process.ExitInfo{}, err
	}
	opts.LauncherName = config.AppName
	opts.LauncherVersion = config.AppVersion

	cb.SetStatus(fmt.Sprintf("Installing Minecraft %s...", req.Version))
	if err := ls.installer.InstallVersion(ctx, req.Version, cb); err != nil {
		return process.ExitInfo{}, err
	}

	versionID, err := ls.installLoader(ctx, req, cb)
	if err != nil {
		return process.ExitInfo{}, fmt.Errorf("%s install failed: %w", req.Loader, err)
	}
	cb.SetProgress(1, 1)

	cb.SetStatus("Getting launch command...")
	argv, err := ls.installer.Command(ctx, versionID, opts)
	if err != nil {
		return process.ExitInfo{}, err
	}

	ls.logger.Info("LaunchService", "launching game", map[string]interface{}{
		"version":  versionID,
		"username": opts.Username,
		"auth":     string(req.AuthMethod),
	})

	recordID := ls.begin(ctx, req, versionID, opts.Username)

	cb.SetStatus("Launching game...")
	cb.SetProgress(0, 0)
	// Closing the launcher leaves a running game alone.
	info, runErr := ls.runner.Run(context.WithoutCancel(ctx), argv, ls.installer.GameDir())
	ls.finish(recordID, info, runErr)
	if runErr != nil {
		return info, runErr
	}

	cb.SetStatus("Game closed.")
	return info, nil
}

func (ls *LaunchService) installLoader(ctx context.Context, req models.LaunchRequest, cb minecraft.Callback) (string, error) {
	if req.Loader == "" || req.Loader == models.LoaderVanilla {
		return req.Version, nil
	}

	cb.SetStatus(fmt.Sprintf("Installing %s...", req.Loader))
	loaderVersion, err := ls.installer.LatestLoaderVersion(ctx, req.Loader)
	if err != nil {
		return "", err
	}
	cb.SetStatus(fmt.Sprintf("Found %s Loader %s", req.Loader, loaderVersion))

	return ls.installer.InstallLoader(ctx, req.Loader, req.Version, loaderVersion, cb)
}

func (ls *LaunchService) begin(ctx context.Context, req models.LaunchRequest, versionID, username string) int64 {
	if ls.history == nil {
		return 0
	}
	id, err := ls.history.Begin(ctx, models.LaunchRecord{
		Version:  versionID,
		Loader:   req.Loader,
		Username: username,
	})
	if err != nil {
		ls.logger.Warning("LaunchService", "failed to record launch", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	return id
}

func (ls *LaunchService) finish(id int64, info process.ExitInfo, runErr error) {
	if ls.history == nil || id == 0 {
		return
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	// The launch context may already be cancelled when the game is killed.
	if err := ls.history.Finish(context.Background(), id, info.Code, msg); err != nil {
		ls.logger.Warning("LaunchService", "failed to finish launch record", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// LastPlayed returns the most recent session, if any.
func (ls *LaunchService) LastPlayed(ctx context.Context) (models.LaunchRecord, bool) {
	if ls.history == nil {
		return models.LaunchRecord{}, false
	}
	rec, err := ls.history.LastPlayed(ctx)
	if err != nil {
		return models.LaunchRecord{}, false
	}
	return rec, true
}
