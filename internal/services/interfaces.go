package services

import (
	"context"
	"net/http"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/modrinth"
	"voxel-launcher/internal/process"
)

// GameInstaller is the part of the minecraft installer the services use.
type GameInstaller interface {
	GameDir() string
	VersionManifest(ctx context.Context) (*minecraft.Manifest, error)
	InstallVersion(ctx context.Context, id string, cb minecraft.Callback) error
	LatestLoaderVersion(ctx context.Context, kind models.LoaderType) (string, error)
	InstallLoader(ctx context.Context, kind models.LoaderType, gameVersion, loaderVersion string, cb minecraft.Callback) (string, error)
	Command(ctx context.Context, id string, opts models.LaunchOptions) ([]string, error)
}

// ProcessRunner runs the game and blocks until it exits.
type ProcessRunner interface {
	Run(ctx context.Context, argv []string, dir string) (process.ExitInfo, error)
}

// LaunchHistory records game sessions.
type LaunchHistory interface {
	Begin(ctx context.Context, rec models.LaunchRecord) (int64, error)
	Finish(ctx context.Context, id int64, exitCode int, errMsg string) error
	LastPlayed(ctx context.Context) (models.LaunchRecord, error)
}

// ModRepository is the mod repository API.
type ModRepository interface {
	Search(ctx context.Context, q modrinth.SearchQuery) ([]models.SearchHit, error)
	Project(ctx context.Context, idOrSlug string) (*models.Project, error)
	Versions(ctx context.Context, projectID string, gameVersions []string, loader string) ([]models.Version, error)
	LatestVersionsByHash(ctx context.Context, hashes, loaders, gameVersions []string) (map[string]models.Version, error)
	Getter
}

// Getter downloads absolute URLs. The caller closes the body.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// Authenticator is the identity-provider login.
type Authenticator interface {
	StartLogin(ctx context.Context) (string, <-chan auth.LoginResult, error)
	Refresh(ctx context.Context) (*models.Account, error)
	LoadAccount() (*models.Account, error)
	IsTokenExpired() bool
	Logout() error
}
