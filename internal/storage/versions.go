package storage

import (
	"voxel-launcher/internal/logger"
)

type versionCacheDocument struct {
	ReleaseVersions []string `json:"release_versions"`
}

// VersionCache keeps the last fetched release list for display before a
// live refetch completes.
type VersionCache struct {
	path   string
	logger logger.Logger
}

func NewVersionCache(path string, log logger.Logger) *VersionCache {
	return &VersionCache{path: path, logger: log}
}

// Load returns the cached release ids, or nil when absent or unreadable.
func (c *VersionCache) Load() []string {
	var doc versionCacheDocument
	if err := readJSON(c.path, &doc); err != nil {
		c.logger.Debug("VersionCache", "no usable version cache", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if len(doc.ReleaseVersions) == 0 {
		return nil
	}
	c.logger.Debug("VersionCache", "loaded versions from cache", map[string]interface{}{
		"count": len(doc.ReleaseVersions),
	})
	return doc.ReleaseVersions
}

// Save overwrites the cache.
func (c *VersionCache) Save(versions []string) error {
	return writeJSON(c.path, versionCacheDocument{ReleaseVersions: versions}, 0o644, false)
}
