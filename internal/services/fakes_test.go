package services

import (
	"context"
	"errors"
	"sync"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/process"
	"voxel-launcher/internal/storage"
)

type fakeInstaller struct {
	gameDir       string
	manifest      *minecraft.Manifest
	manifestErr   error
	installErr    error
	loaderVersion string
	loaderErr     error
	commandErr    error

	installed []string
	commandID string
	opts      models.LaunchOptions
}

func (f *fakeInstaller) GameDir() string { return f.gameDir }

func (f *fakeInstaller) VersionManifest(ctx context.Context) (*minecraft.Manifest, error) {
	return f.manifest, f.manifestErr
}

func (f *fakeInstaller) InstallVersion(ctx context.Context, id string, cb minecraft.Callback) error {
	f.installed = append(f.installed, id)
	cb.SetProgress(5, 10)
	return f.installErr
}

func (f *fakeInstaller) LatestLoaderVersion(ctx context.Context, kind models.LoaderType) (string, error) {
	if kind == models.LoaderForge || kind == models.LoaderNeoForge {
		return "", minecraft.ErrLoaderUnsupported
	}
	return f.loaderVersion, f.loaderErr
}

func (f *fakeInstaller) InstallLoader(ctx context.Context, kind models.LoaderType, gameVersion, loaderVersion string, cb minecraft.Callback) (string, error) {
	id := minecraft.LoaderVersionID(kind, loaderVersion, gameVersion)
	f.installed = append(f.installed, id)
	return id, nil
}

func (f *fakeInstaller) Command(ctx context.Context, id string, opts models.LaunchOptions) ([]string, error) {
	f.commandID = id
	f.opts = opts
	if f.commandErr != nil {
		return nil, f.commandErr
	}
	return []string{"java", "-cp", "x.jar", "Main"}, nil
}

type fakeRunner struct {
	argv []string
	dir  string
	info process.ExitInfo
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, dir string) (process.ExitInfo, error) {
	f.argv, f.dir = argv, dir
	return f.info, f.err
}

type fakeHistory struct {
	mu       sync.Mutex
	records  []models.LaunchRecord
	finished map[int64]int
}

func (f *fakeHistory) Begin(ctx context.Context, rec models.LaunchRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeHistory) Finish(ctx context.Context, id int64, exitCode int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished == nil {
		f.finished = make(map[int64]int)
	}
	f.finished[id] = exitCode
	return nil
}

func (f *fakeHistory) LastPlayed(ctx context.Context) (models.LaunchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) == 0 {
		return models.LaunchRecord{}, errors.New("empty")
	}
	return f.records[len(f.records)-1], nil
}

type recordingCallback struct {
	statuses []string
	progress [][2]int
}

func (r *recordingCallback) SetStatus(s string)         { r.statuses = append(r.statuses, s) }
func (r *recordingCallback) SetProgress(value, max int) { r.progress = append(r.progress, [2]int{value, max}) }

// syncTasks runs tasks inline.
type syncTasks struct{}

func (syncTasks) Go(name string, fn func(ctx context.Context) error, done func(error)) {
	err := fn(context.Background())
	if done != nil {
		done(err)
	}
}

type fakeAuth struct {
	account    *models.Account
	expired    bool
	refreshErr error
	refreshed  int
	loggedOut  bool
}

func (f *fakeAuth) StartLogin(ctx context.Context) (string, <-chan auth.LoginResult, error) {
	ch := make(chan auth.LoginResult, 1)
	ch <- auth.LoginResult{Account: f.account}
	return "https://login.example/authorize", ch, nil
}

func (f *fakeAuth) Refresh(ctx context.Context) (*models.Account, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	renewed := *f.account
	renewed.AccessToken = "renewed"
	return &renewed, nil
}

func (f *fakeAuth) LoadAccount() (*models.Account, error) {
	if f.account == nil {
		return nil, storage.ErrNoAccount
	}
	return f.account, nil
}

func (f *fakeAuth) IsTokenExpired() bool { return f.expired }

func (f *fakeAuth) Logout() error {
	f.loggedOut = true
	f.account = nil
	return nil
}
