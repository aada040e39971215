package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"voxel-launcher/internal/logger"
)

const (
	iconSize     = 64
	maxIconBytes = 4 << 20
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// TaskRunner starts one-shot background work.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error, done func(error))
}

// IconCache keeps project icons as PNG thumbnails on disk.
type IconCache struct {
	dir       string
	getter    Getter
	tasks     TaskRunner
	thumbnail func(data []byte, size int) ([]byte, error)
	logger    logger.Logger

	mu      sync.Mutex
	pending map[string][]func(string)
}

func NewIconCache(dir string, getter Getter, tasks TaskRunner, thumbnail func([]byte, int) ([]byte, error), log logger.Logger) *IconCache {
	return &IconCache{
		dir:       dir,
		getter:    getter,
		tasks:     tasks,
		thumbnail: thumbnail,
		logger:    log,
		pending:   make(map[string][]func(string)),
	}
}

// Path is where the icon of projectID is cached.
func (ic *IconCache) Path(projectID string) string {
	return filepath.Join(ic.dir, unsafeFileChars.ReplaceAllString(projectID, "_")+".png")
}

// Get returns the cached icon path and true on a hit. On a miss it starts a
// download and calls ready with the path, or "" on failure. Concurrent
// misses for one project share a download.
func (ic *IconCache) Get(projectID, iconURL string, ready func(path string)) (string, bool) {
	p := ic.Path(projectID)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	if iconURL == "" {
		return "", false
	}

	ic.mu.Lock()
	waiters, inFlight := ic.pending[projectID]
	ic.pending[projectID] = append(waiters, ready)
	ic.mu.Unlock()
	if inFlight {
		return "", false
	}

	ic.tasks.Go("icon "+projectID, func(ctx context.Context) error {
		return ic.fetch(ctx, iconURL, p)
	}, func(err error) {
		result := p
		if err != nil {
			result = ""
		}
		ic.mu.Lock()
		callbacks := ic.pending[projectID]
		delete(ic.pending, projectID)
		ic.mu.Unlock()
		for _, cb := range callbacks {
			if cb != nil {
				cb(result)
			}
		}
	})
	return "", false
}

func (ic *IconCache) fetch(ctx context.Context, iconURL, dest string) error {
	resp, err := ic.getter.Get(ctx, iconURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return err
	}

	png, err := ic.thumbnail(data, iconSize)
	if err != nil {
		return fmt.Errorf("icon %s: %w", iconURL, err)
	}

	if err := os.MkdirAll(ic.dir, 0o755); err != nil {
		return err
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}
