package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"voxel-launcher/internal/logger"
)

// RotationInterval is how often the background image changes.
const RotationInterval = 30 * time.Second

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// BackgroundService cycles through the images in the images directory.
type BackgroundService struct {
	dir         string
	defaultURL  string
	defaultPath string
	getter      Getter
	logger      logger.Logger

	mu     sync.Mutex
	images []string
	index  int
}

func NewBackgroundService(dir, defaultURL, defaultPath string, getter Getter, log logger.Logger) *BackgroundService {
	return &BackgroundService{
		dir:         dir,
		defaultURL:  defaultURL,
		defaultPath: defaultPath,
		getter:      getter,
		logger:      log,
		index:       -1,
	}
}

// Images rescans the directory and returns the images found, sorted.
func (bs *BackgroundService) Images() ([]string, error) {
	entries, err := os.ReadDir(bs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range imageExtensions {
			if ext == want {
				images = append(images, filepath.Join(bs.dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(images)

	bs.mu.Lock()
	bs.images = images
	if bs.index >= len(images) {
		bs.index = -1
	}
	bs.mu.Unlock()
	return images, nil
}

// EnsureDefault downloads the default image when the directory has none.
// It returns the downloaded path, or "" when nothing was needed.
func (bs *BackgroundService) EnsureDefault(ctx context.Context) (string, error) {
	images, err := bs.Images()
	if err != nil {
		return "", err
	}
	if len(images) > 0 {
		return "", nil
	}

	resp, err := bs.getter.Get(ctx, bs.defaultURL)
	if err != nil {
		return "", fmt.Errorf("download default background: %w", err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(bs.defaultPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(bs.defaultPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(bs.defaultPath)
		return "", fmt.Errorf("download default background: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	bs.logger.Info("BackgroundService", "default background downloaded", map[string]interface{}{
		"path": bs.defaultPath,
	})
	bs.Images()
	return bs.defaultPath, nil
}

// Next advances round-robin through the last scanned images.
func (bs *BackgroundService) Next() (string, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if len(bs.images) == 0 {
		return "", false
	}
	bs.index = (bs.index + 1) % len(bs.images)
	return bs.images[bs.index], true
}

// ShouldRotate reports whether there is more than one image to cycle.
func (bs *BackgroundService) ShouldRotate() bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return len(bs.images) > 1
}
