package controllers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"voxel-launcher/internal/models"
	"voxel-launcher/internal/services"
)

func (mc *MainController) RefreshMods() {
	var mods []models.InstalledMod
	mc.tasks.Go("list mods", func(context.Context) error {
		var err error
		mods, err = mc.svc.Mods.List()
		return err
	}, func(err error) {
		if err != nil {
			mc.mainView.SetModsStatus("Could not read mods folder: " + StatusText(err))
			return
		}
		mc.mainView.SetMods(mods)
	})
}

func (mc *MainController) DeleteMod(mod models.InstalledMod) {
	mc.tasks.Go("delete mod", func(context.Context) error {
		return mc.svc.Mods.Delete(mod.Path)
	}, func(err error) {
		if err != nil {
			mc.mainView.SetModsStatus("Could not delete " + mod.Filename + ": " + StatusText(err))
			return
		}
		mc.mainView.SetModsStatus("Deleted " + mod.Filename)
		mc.RefreshMods()
	})
}

// InstallFiles copies dropped files into the mods folder. Non-jar files are
// skipped and reported.
func (mc *MainController) InstallFiles(paths []string) {
	var installed, skipped []string
	mc.tasks.Go("install dropped mods", func(context.Context) error {
		var errs []error
		for _, p := range paths {
			if _, err := mc.svc.Mods.InstallFile(p); err != nil {
				if errors.Is(err, services.ErrNotJar) {
					skipped = append(skipped, filepath.Base(p))
					continue
				}
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(p), err))
				continue
			}
			installed = append(installed, filepath.Base(p))
		}
		return errors.Join(errs...)
	}, func(err error) {
		switch {
		case err != nil:
			mc.mainView.SetModsStatus(StatusText(err))
		case len(skipped) > 0:
			mc.mainView.SetModsStatus(fmt.Sprintf("Installed %d mod(s), skipped non-jar files: %s",
				len(installed), strings.Join(skipped, ", ")))
		default:
			mc.mainView.SetModsStatus(fmt.Sprintf("Installed %d mod(s)", len(installed)))
		}
		mc.RefreshMods()
	})
}

func (mc *MainController) DownloadURL(rawURL string) {
	mc.mainView.SetModsBusy(true)
	mc.mainView.SetModsStatus("Downloading...")

	var dest string
	mc.tasks.Go("download mod url", func(ctx context.Context) error {
		var err error
		dest, err = mc.svc.Mods.DownloadURL(ctx, rawURL)
		return err
	}, func(err error) {
		mc.mainView.SetModsBusy(false)
		if err != nil {
			mc.mainView.SetModsStatus("Download failed: " + StatusText(err))
			return
		}
		mc.mainView.ClearModURL()
		mc.mainView.SetModsStatus("Downloaded " + filepath.Base(dest))
		mc.RefreshMods()
	})
}

func (mc *MainController) OpenModsFolder() {
	mc.open(fileURL(mc.svc.Mods.Dir()))
}

// CheckUpdates asks the repository for newer builds of every installed jar
// matching the selected version and loader.
func (mc *MainController) CheckUpdates() {
	filter := mc.filter()
	if filter.GameVersion == "" {
		mc.mainView.SetModsStatus(StatusText(models.ErrNoVersion))
		return
	}

	mc.mainView.SetModsBusy(true)
	mc.mainView.SetModsStatus("Checking for updates...")

	var updates []models.ModUpdate
	mc.tasks.Go("check mod updates", func(ctx context.Context) error {
		var err error
		updates, err = mc.svc.Mods.CheckUpdates(ctx, filter.Loader, filter.GameVersion)
		return err
	}, func(err error) {
		mc.mainView.SetModsBusy(false)
		if err != nil {
			mc.mainView.SetModsStatus("Update check failed: " + StatusText(err))
			return
		}
		mc.mainView.SetModUpdates(updates)
		if len(updates) == 0 {
			mc.mainView.SetModsStatus("All mods are up to date.")
		} else {
			mc.mainView.SetModsStatus(fmt.Sprintf("%d update(s) available.", len(updates)))
		}
	})
}

func (mc *MainController) ApplyUpdates(updates []models.ModUpdate) {
	mc.mainView.SetModsBusy(true)
	mc.mainView.SetModsStatus(fmt.Sprintf("Updating %d mod(s)...", len(updates)))

	applied := 0
	mc.tasks.Go("apply mod updates", func(ctx context.Context) error {
		var errs []error
		for _, u := range updates {
			if _, err := mc.svc.Mods.ApplyUpdate(ctx, u); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(u.Path), err))
				continue
			}
			applied++
		}
		return errors.Join(errs...)
	}, func(err error) {
		mc.mainView.SetModsBusy(false)
		mc.mainView.SetModUpdates(nil)
		if err != nil {
			mc.mainView.SetModsStatus(fmt.Sprintf("Updated %d mod(s). %s", applied, StatusText(err)))
		} else {
			mc.mainView.SetModsStatus(fmt.Sprintf("Updated %d mod(s).", applied))
		}
		mc.RefreshMods()
	})
}
