package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/services"

	"github.com/dustin/go-humanize"
)

func (mc *MainController) refreshVersions() {
	mc.tasks.Go("refresh versions", func(ctx context.Context) error {
		fetched, err := mc.svc.Versions.Refresh(ctx)
		if err != nil {
			return err
		}

		mc.mu.Lock()
		list, selection, changed := services.MergeVersions(mc.versionList, fetched, mc.selectedVersion)
		selectionChanged := selection != mc.selectedVersion
		mc.versionList = list
		mc.selectedVersion = selection
		mc.mu.Unlock()

		if changed || selectionChanged {
			mc.mainView.SetVersions(list, selection)
		}
		if selectionChanged {
			mc.updateBrowseFilter()
		}
		return nil
	}, func(err error) {
		if err != nil {
			mc.mainView.SetLaunchStatus("Could not fetch versions: " + StatusText(err))
		}
	})
}

func (mc *MainController) VersionChanged(version string) {
	mc.mu.Lock()
	mc.selectedVersion = version
	mc.mu.Unlock()
	mc.updateBrowseFilter()
	mc.Search(mc.mainView.BrowseQuery())
}

func (mc *MainController) LoaderChanged(loader models.LoaderType) {
	mc.mu.Lock()
	mc.loader = loader
	mc.mu.Unlock()
	mc.updateBrowseFilter()
	mc.Search(mc.mainView.BrowseQuery())
}

// AuthChanged only affects the form; the method is persisted on launch.
func (mc *MainController) AuthChanged(method models.AuthMethod) {
	mc.logger.Debug("MainController", "auth method changed", map[string]interface{}{
		"method": string(method),
	})
}

func (mc *MainController) UsernameChanged(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, err := mc.settings.Update(func(s *models.Settings) { s.LastUsername = name }); err != nil {
		mc.logger.Error("MainController", err, map[string]interface{}{"setting": "last_username"})
	}
}

func (mc *MainController) restoreAccount() {
	mc.tasks.Go("restore account", func(ctx context.Context) error {
		account, err := mc.svc.Accounts.Restore(ctx)
		if err != nil {
			mc.setAccount(nil)
			return err
		}
		mc.setAccount(account)
		return nil
	}, func(err error) {
		if err != nil {
			mc.mainView.SetLaunchStatus("Microsoft login expired, please log in again.")
		}
	})
}

func (mc *MainController) setAccount(account *models.Account) {
	mc.mu.Lock()
	mc.account = account
	mc.mu.Unlock()
	mc.mainView.SetAccount(account)
}

func (mc *MainController) currentAccount() *models.Account {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.account
}

// Login starts the browser login and waits for its callback in the background.
func (mc *MainController) Login() {
	ctx, cancel := context.WithCancel(mc.tasks.Context())

	mc.mu.Lock()
	if mc.loginCancel != nil {
		mc.loginCancel()
	}
	mc.loginCancel = cancel
	mc.mu.Unlock()

	mc.mainView.SetLoginPending(true)
	mc.mainView.SetLaunchStatus("Opening browser for Microsoft login...")

	var account *models.Account
	mc.tasks.Go("microsoft login", func(context.Context) error {
		loginURL, results, err := mc.svc.Accounts.Login(ctx)
		if err != nil {
			return err
		}
		if u, err := url.Parse(loginURL); err == nil {
			mc.open(u)
		}

		select {
		case res := <-results:
			if res.Err != nil {
				return res.Err
			}
			account = res.Account
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, func(err error) {
		cancel()
		mc.mainView.SetLoginPending(false)
		if err != nil {
			mc.mainView.SetAccount(mc.currentAccount())
			mc.mainView.SetLaunchStatus("Login failed: " + StatusText(err))
			return
		}
		mc.setAccount(account)
		mc.mainView.SetLaunchStatus("Logged in as " + account.Username)
	})
}

func (mc *MainController) Logout() {
	if err := mc.svc.Accounts.Logout(); err != nil {
		mc.mainView.ShowError(err)
		return
	}
	mc.setAccount(nil)
	mc.mainView.SetLaunchStatus("Logged out.")
}

// Launch validates the form, persists the choices and runs the game in the
// background. A second launch while one is running is ignored.
func (mc *MainController) Launch() {
	mc.mu.Lock()
	if mc.launching {
		mc.mu.Unlock()
		return
	}
	mc.launching = true
	account := mc.account
	mc.mu.Unlock()

	req := mc.mainView.LaunchRequest()
	req.Account = account
	req.Settings = *mc.settings.Load()

	if _, err := req.Options(); err != nil {
		mc.endLaunch()
		mc.mainView.SetLaunchStatus(StatusText(err))
		return
	}
	mc.persistLaunch(req)

	mc.mainView.SetLaunching(true)
	cb := minecraft.CallbackFuncs{
		Status:   mc.mainView.SetLaunchStatus,
		Progress: mc.mainView.SetLaunchProgress,
	}

	mc.tasks.Go("launch "+req.Version, func(ctx context.Context) error {
		if req.AuthMethod == models.AuthMicrosoft && req.Account.IsExpired(time.Now()) {
			cb.SetStatus("Refreshing Microsoft login...")
			refreshed, err := mc.svc.Accounts.Restore(ctx)
			if err != nil {
				return err
			}
			if refreshed == nil {
				return models.ErrNoAccount
			}
			mc.setAccount(refreshed)
			req.Account = refreshed
		}

		info, err := mc.svc.Launcher.Launch(ctx, req, cb)
		if err != nil {
			return err
		}
		mc.logger.Info("MainController", "game exited", map[string]interface{}{
			"exit_code": info.Code,
			"duration":  info.Duration.String(),
		})
		return nil
	}, func(err error) {
		mc.endLaunch()
		mc.mainView.SetLaunching(false)
		if err != nil {
			mc.mainView.SetLaunchStatus(launchStatusText(req.Loader, err))
		}
		mc.loadLastPlayed()
	})
}

func (mc *MainController) endLaunch() {
	mc.mu.Lock()
	mc.launching = false
	mc.mu.Unlock()
}

func (mc *MainController) persistLaunch(req models.LaunchRequest) {
	_, err := mc.settings.Update(func(s *models.Settings) {
		s.LastVersion = req.Version
		s.Loader = req.Loader
		s.AuthMethod = req.AuthMethod
		if req.AuthMethod != models.AuthMicrosoft {
			s.LastUsername = strings.TrimSpace(req.Username)
		}
	})
	if err != nil {
		mc.logger.Error("MainController", err, map[string]interface{}{"setting": "launch"})
	}
}

func (mc *MainController) loadLastPlayed() {
	var text string
	mc.tasks.Go("last played", func(ctx context.Context) error {
		rec, ok := mc.svc.Launcher.LastPlayed(ctx)
		if ok {
			text = lastPlayedText(rec, time.Now())
		}
		return nil
	}, func(error) {
		mc.mainView.SetLastPlayed(text)
	})
}

func lastPlayedText(rec models.LaunchRecord, now time.Time) string {
	text := fmt.Sprintf("Last played %s %s", rec.Version, humanize.RelTime(rec.StartedAt, now, "ago", "from now"))
	if d := rec.Duration(); d >= time.Minute {
		text += fmt.Sprintf(" for %s", d.Round(time.Minute))
	}
	if rec.Error != "" {
		text += " (crashed)"
	} else if rec.ExitCode != 0 {
		text += fmt.Sprintf(" (exit code %d)", rec.ExitCode)
	}
	return text
}
