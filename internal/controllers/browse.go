package controllers

import (
	"context"
	"fmt"

	"voxel-launcher/internal/models"
	"voxel-launcher/internal/services"
)

// filter is the browse filter derived from the launch selection. Vanilla
// has no loader facet.
func (mc *MainController) filter() services.SearchFilter {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return services.SearchFilter{GameVersion: mc.selectedVersion, Loader: mc.loader}
}

func filterText(f services.SearchFilter) string {
	version := f.GameVersion
	if version == "" {
		version = "all versions"
	}
	if f.Loader.RepositoryName() == "" {
		return "Showing mods for " + version
	}
	return fmt.Sprintf("Showing %s mods for %s", f.Loader, version)
}

func (mc *MainController) updateBrowseFilter() {
	mc.mainView.SetBrowseFilter(filterText(mc.filter()))
}

// Search runs a repository search. Results of searches superseded by a newer
// one are dropped.
func (mc *MainController) Search(query string) {
	filter := mc.filter()
	mc.mainView.SetBrowseStatus("Searching...")

	var result services.SearchResult
	mc.tasks.Go("search mods", func(ctx context.Context) error {
		var err error
		result, err = mc.svc.Browse.Search(ctx, query, filter)
		return err
	}, func(err error) {
		if !mc.svc.Browse.IsLatest(result.ID) {
			return
		}
		if err != nil {
			mc.mainView.SetSearchResults(nil)
			mc.mainView.SetBrowseStatus("Search failed: " + StatusText(err))
			return
		}
		mc.mainView.SetSearchResults(result.Hits)
		if len(result.Hits) == 0 {
			mc.mainView.SetBrowseStatus("No mods found.")
		} else {
			mc.mainView.SetBrowseStatus(fmt.Sprintf("%d mods found.", len(result.Hits)))
		}
	})
}

// SelectProject shows the hit at once and fills in the body and versions
// when they arrive.
func (mc *MainController) SelectProject(hit models.SearchHit) {
	mc.mu.Lock()
	mc.projectID = hit.ProjectID
	mc.mu.Unlock()

	mc.mainView.SetProject(&models.Project{
		ID:          hit.ProjectID,
		Title:       hit.Title,
		Description: hit.Description,
	})
	mc.mainView.SetProjectVersions(nil)

	filter := mc.filter()
	var (
		project  *models.Project
		versions []models.Version
	)
	mc.tasks.Go("load project "+hit.ProjectID, func(ctx context.Context) error {
		var err error
		if project, err = mc.svc.Browse.Project(ctx, hit.ProjectID); err != nil {
			return err
		}
		versions, err = mc.svc.Browse.Versions(ctx, hit.ProjectID, filter)
		return err
	}, func(err error) {
		if !mc.isCurrentProject(hit.ProjectID) {
			return
		}
		if project != nil {
			mc.mainView.SetProject(project)
		}
		if err != nil {
			mc.mainView.SetBrowseStatus("Could not load " + hit.Title + ": " + StatusText(err))
			return
		}
		mc.mainView.SetProjectVersions(versions)
		if len(versions) == 0 {
			mc.mainView.SetBrowseStatus("No versions for the selected game version and loader.")
		} else {
			mc.mainView.SetBrowseStatus("")
		}
	})
}

func (mc *MainController) isCurrentProject(id string) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.projectID == id
}

func (mc *MainController) DownloadVersion(version models.Version) {
	file, ok := version.PrimaryFile()
	if !ok {
		mc.mainView.SetBrowseStatus("This version has no downloadable file.")
		return
	}

	mc.mainView.SetBrowseDownloading(true)
	mc.mainView.SetBrowseStatus("Downloading " + file.Filename + "...")

	mc.tasks.Go("download "+file.Filename, func(ctx context.Context) error {
		_, err := mc.svc.Mods.DownloadFile(ctx, file)
		return err
	}, func(err error) {
		mc.mainView.SetBrowseDownloading(false)
		if err != nil {
			mc.mainView.SetBrowseStatus("Download failed: " + StatusText(err))
			return
		}
		mc.mainView.SetBrowseStatus("Downloaded " + file.Filename + " to the mods folder.")
		mc.RefreshMods()
	})
}

// Icon returns the cached icon for hit, starting a download on a miss.
// ready runs on the UI goroutine once the icon is on disk.
func (mc *MainController) Icon(hit models.SearchHit, ready func()) string {
	path, cached := mc.svc.Icons.Get(hit.ProjectID, hit.IconURL, func(p string) {
		if p != "" {
			ui(ready)
		}
	})
	if cached {
		return path
	}
	return ""
}
