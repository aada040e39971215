package services

import (
	"context"
	"fmt"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/storage"
)

// VersionService provides the list of installable releases.
type VersionService struct {
	installer GameInstaller
	cache     *storage.VersionCache
	logger    logger.Logger
}

func NewVersionService(installer GameInstaller, cache *storage.VersionCache, log logger.Logger) *VersionService {
	return &VersionService{installer: installer, cache: cache, logger: log}
}

// Cached returns the release list saved by the last successful refresh.
func (vs *VersionService) Cached() []string {
	return vs.cache.Load()
}

// Refresh fetches the manifest, stores its release ids and returns them.
func (vs *VersionService) Refresh(ctx context.Context) ([]string, error) {
	manifest, err := vs.installer.VersionManifest(ctx)
	if err != nil {
		return nil, err
	}

	releases := manifest.ReleaseIDs()
	if len(releases) == 0 {
		return nil, fmt.Errorf("version manifest lists no releases")
	}
	if err := vs.cache.Save(releases); err != nil {
		vs.logger.Warning("VersionService", "failed to save version cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	vs.logger.Info("VersionService", "versions refreshed", map[string]interface{}{
		"count":  len(releases),
		"latest": releases[0],
	})
	return releases, nil
}

// MergeVersions decides what the version selector shows after a refresh.
// The selection is kept when it is still listed, otherwise the first entry
// is selected. changed is false when fetched equals current.
func MergeVersions(current, fetched []string, selected string) (list []string, selection string, changed bool) {
	if len(fetched) == 0 {
		return current, selected, false
	}

	changed = !equalStrings(current, fetched)
	for _, v := range fetched {
		if v == selected {
			return fetched, selected, changed
		}
	}
	return fetched, fetched[0], changed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
