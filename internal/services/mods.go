package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/minecraft"
	"voxel-launcher/internal/models"

	"github.com/fsnotify/fsnotify"
)

// ErrNotJar is returned when a file that is not a .jar is offered as a mod.
var ErrNotJar = errors.New("only .jar files can be installed as mods")

const watchDebounce = 300 * time.Millisecond

// ModService manages the jars in the mods directory.
type ModService struct {
	dir    string
	repo   ModRepository
	logger logger.Logger
}

func NewModService(dir string, repo ModRepository, log logger.Logger) *ModService {
	return &ModService{dir: dir, repo: repo, logger: log}
}

func (ms *ModService) Dir() string { return ms.dir }

// List returns the installed jars sorted by file name.
func (ms *ModService) List() ([]models.InstalledMod, error) {
	matches, err := filepath.Glob(filepath.Join(ms.dir, "*.jar"))
	if err != nil {
		return nil, err
	}

	mods := make([]models.InstalledMod, 0, len(matches))
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		mods = append(mods, models.InstalledMod{
			Path:     p,
			Filename: info.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}
	sort.Slice(mods, func(i, j int) bool {
		return strings.ToLower(mods[i].Filename) < strings.ToLower(mods[j].Filename)
	})
	return mods, nil
}

// Delete removes an installed jar. Paths outside the mods directory are refused.
func (ms *ModService) Delete(p string) error {
	if err := ms.checkInside(p); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("delete %s: %w", filepath.Base(p), err)
	}
	ms.logger.Info("ModService", "mod deleted", map[string]interface{}{"file": filepath.Base(p)})
	return nil
}

func (ms *ModService) checkInside(p string) error {
	rel, err := filepath.Rel(ms.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) || strings.ContainsRune(rel, filepath.Separator) {
		return fmt.Errorf("%s is not in the mods folder", p)
	}
	return nil
}

// InstallFile copies a local jar (e.g. dropped on the window) into the mods
// directory and returns its new path.
func (ms *ModService) InstallFile(src string) (string, error) {
	if !strings.EqualFold(filepath.Ext(src), ".jar") {
		return "", ErrNotJar
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dest := filepath.Join(ms.dir, filepath.Base(src))
	if err := ms.save(dest, in); err != nil {
		return "", err
	}
	ms.logger.Info("ModService", "mod installed from file", map[string]interface{}{"file": filepath.Base(dest)})
	return dest, nil
}

// DownloadURL fetches a jar from an arbitrary URL. A missing scheme means https.
func (ms *ModService) DownloadURL(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("no URL entered")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	resp, err := ms.repo.Get(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	name := ModFilename(resp.Header.Get("Content-Disposition"), rawURL)
	dest := filepath.Join(ms.dir, name)
	if err := ms.save(dest, resp.Body); err != nil {
		return "", err
	}

	ms.logger.Info("ModService", "mod downloaded", map[string]interface{}{
		"file": name,
		"url":  rawURL,
	})
	return dest, nil
}

// DownloadFile installs a file of a repository version under its published name.
func (ms *ModService) DownloadFile(ctx context.Context, file models.VersionFile) (string, error) {
	resp, err := ms.repo.Get(ctx, file.URL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file.Filename, err)
	}
	defer resp.Body.Close()

	name := file.Filename
	if name == "" {
		name = ModFilename("", file.URL)
	}
	dest := filepath.Join(ms.dir, filepath.Base(name))
	if err := ms.save(dest, resp.Body); err != nil {
		return "", err
	}

	if file.Hashes.SHA1 != "" {
		if got, err := minecraft.FileSHA1(dest); err == nil && got != file.Hashes.SHA1 {
			ms.logger.Warning("ModService", "downloaded mod does not match published hash", map[string]interface{}{
				"file": name,
				"want": file.Hashes.SHA1,
				"got":  got,
			})
		}
	}
	return dest, nil
}

func (ms *ModService) save(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return out.Close()
}

// ModFilename picks the file name for a downloaded mod: the
// Content-Disposition filename, else the last URL path segment without its
// query, always ending in .jar.
func ModFilename(disposition, rawURL string) string {
	name := ""
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			name = params["filename"]
		} else if i := strings.Index(disposition, "filename="); i >= 0 {
			name = strings.Trim(disposition[i+len("filename="):], `"' `)
		}
	}

	if name == "" {
		if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
			name = path.Base(u.Path)
		} else {
			name = rawURL[strings.LastIndex(rawURL, "/")+1:]
			if i := strings.IndexByte(name, '?'); i >= 0 {
				name = name[:i]
			}
		}
	}

	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "mod"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".jar") {
		name = strings.TrimSuffix(name, path.Ext(name)) + ".jar"
	}
	return name
}

// CheckUpdates hashes every installed jar and asks the repository for newer
// versions matching loader and gameVersion. Files already at the newest
// version are left out.
func (ms *ModService) CheckUpdates(ctx context.Context, loader models.LoaderType, gameVersion string) ([]models.ModUpdate, error) {
	mods, err := ms.List()
	if err != nil {
		return nil, err
	}

	byHash := make(map[string]string, len(mods))
	hashes := make([]string, 0, len(mods))
	for _, m := range mods {
		sum, err := minecraft.FileSHA1(m.Path)
		if err != nil {
			ms.logger.Warning("ModService", "failed to hash mod", map[string]interface{}{
				"file":  m.Filename,
				"error": err.Error(),
			})
			continue
		}
		if _, dup := byHash[sum]; !dup {
			hashes = append(hashes, sum)
		}
		byHash[sum] = m.Path
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	var loaders, gameVersions []string
	if name := loader.RepositoryName(); name != "" {
		loaders = []string{name}
	}
	if gameVersion != "" {
		gameVersions = []string{gameVersion}
	}

	latest, err := ms.repo.LatestVersionsByHash(ctx, hashes, loaders, gameVersions)
	if err != nil {
		return nil, err
	}

	var updates []models.ModUpdate
	for hash, version := range latest {
		p, ok := byHash[hash]
		if !ok || version.HasHash(hash) {
			continue
		}
		updates = append(updates, models.ModUpdate{Path: p, Version: version})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Path < updates[j].Path })

	ms.logger.Info("ModService", "update check finished", map[string]interface{}{
		"checked": len(hashes),
		"updates": len(updates),
	})
	return updates, nil
}

// ApplyUpdate downloads the new primary file and removes the old jar.
func (ms *ModService) ApplyUpdate(ctx context.Context, update models.ModUpdate) (string, error) {
	file, ok := update.Version.PrimaryFile()
	if !ok {
		return "", fmt.Errorf("version %s has no downloadable file", update.Version.VersionNumber)
	}

	dest, err := ms.DownloadFile(ctx, file)
	if err != nil {
		return "", err
	}
	if filepath.Clean(dest) != filepath.Clean(update.Path) {
		if err := ms.Delete(update.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return dest, err
		}
	}
	return dest, nil
}

// Watch calls onChange whenever jars are added, removed or renamed in the
// mods directory, until ctx is done. Bursts of events are coalesced.
func (ms *ModService) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := os.MkdirAll(ms.dir, 0o755); err != nil {
		return err
	}
	if err := watcher.Add(ms.dir); err != nil {
		return fmt.Errorf("watch %s: %w", ms.dir, err)
	}

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".jar") {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			trigger = timer.C
		case <-trigger:
			trigger = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ms.logger.Warning("ModService", "mods folder watch error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
