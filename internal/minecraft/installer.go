package minecraft

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voxel-launcher/internal/logger"

	"golang.org/x/sync/errgroup"
)

const downloadConcurrency = 8

// ErrUnknownVersion is returned for ids that are neither installed nor in the manifest.
var ErrUnknownVersion = errors.New("unknown version")

// Installer resolves, downloads and lays out game versions under a game directory.
type Installer struct {
	gameDir   string
	endpoints Endpoints
	fetch     *fetcher
	platform  Platform
	logger    logger.Logger

	manifestMu sync.Mutex
	manifest   *Manifest
}

func NewInstaller(gameDir string, endpoints Endpoints, userAgent string, log logger.Logger) *Installer {
	return &Installer{
		gameDir:   gameDir,
		endpoints: endpoints,
		fetch: &fetcher{
			http:      &http.Client{Timeout: 5 * time.Minute},
			userAgent: userAgent,
		},
		platform: CurrentPlatform(),
		logger:   log,
	}
}

func (in *Installer) GameDir() string { return in.gameDir }

func (in *Installer) versionDir(id string) string {
	return filepath.Join(in.gameDir, "versions", id)
}

func (in *Installer) versionJSONPath(id string) string {
	return filepath.Join(in.versionDir(id), id+".json")
}

func (in *Installer) librariesDir() string { return filepath.Join(in.gameDir, "libraries") }
func (in *Installer) assetsDir() string    { return filepath.Join(in.gameDir, "assets") }

// NativesDir is where platform libraries of a version are extracted.
func (in *Installer) NativesDir(id string) string {
	return filepath.Join(in.versionDir(id), "natives")
}

// VersionManifest fetches the manifest and remembers it for later lookups.
func (in *Installer) VersionManifest(ctx context.Context) (*Manifest, error) {
	var manifest Manifest
	if err := in.fetch.getJSON(ctx, in.endpoints.ManifestURL, &manifest); err != nil {
		return nil, fmt.Errorf("fetch version manifest: %w", err)
	}

	in.manifestMu.Lock()
	in.manifest = &manifest
	in.manifestMu.Unlock()
	return &manifest, nil
}

func (in *Installer) cachedManifest(ctx context.Context) (*Manifest, error) {
	in.manifestMu.Lock()
	manifest := in.manifest
	in.manifestMu.Unlock()
	if manifest != nil {
		return manifest, nil
	}
	return in.VersionManifest(ctx)
}

// ResolveVersion loads a version document, downloading it from the manifest
// when it is not installed yet, and merges any inheritsFrom chain.
func (in *Installer) ResolveVersion(ctx context.Context, id string) (*VersionInfo, error) {
	info, err := in.loadVersionJSON(ctx, id)
	if err != nil {
		return nil, err
	}
	if info.InheritsFrom == "" {
		return info, nil
	}

	parent, err := in.ResolveVersion(ctx, info.InheritsFrom)
	if err != nil {
		return nil, fmt.Errorf("resolve parent %s: %w", info.InheritsFrom, err)
	}
	return Inherit(info, parent), nil
}

func (in *Installer) loadVersionJSON(ctx context.Context, id string) (*VersionInfo, error) {
	path := in.versionJSONPath(id)

	if _, err := os.Stat(path); err != nil {
		manifest, err := in.cachedManifest(ctx)
		if err != nil {
			return nil, err
		}
		entry, ok := manifest.Find(id)
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, ErrUnknownVersion)
		}
		if err := in.fetch.download(ctx, entry.URL, path, entry.SHA1); err != nil {
			return nil, fmt.Errorf("download version document: %w", err)
		}
	}

	var info VersionInfo
	if err := readJSONFile(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type downloadJob struct {
	url  string
	dest string
	sha1 string
}

// InstallVersion makes a version launchable: client jar, libraries, natives,
// assets and logging configuration. Files already present with the right
// checksum are skipped.
func (in *Installer) InstallVersion(ctx context.Context, id string, cb Callback) error {
	cb.SetStatus("Resolving version " + id)
	info, err := in.ResolveVersion(ctx, id)
	if err != nil {
		return err
	}

	jobs, natives, err := in.collectJobs(info)
	if err != nil {
		return err
	}

	assetJobs, index, err := in.assetJobs(ctx, info)
	if err != nil {
		return err
	}
	jobs = append(jobs, assetJobs...)

	in.logger.Info("Installer", "installing version", map[string]interface{}{
		"version": id,
		"files":   len(jobs),
	})

	cb.SetStatus("Downloading files for " + id)
	if err := in.runJobs(ctx, jobs, cb); err != nil {
		return err
	}

	cb.SetStatus("Extracting natives")
	if err := in.extractNatives(info.ID, natives); err != nil {
		return err
	}

	if index != nil && (index.Virtual || index.MapToResources) {
		cb.SetStatus("Preparing legacy assets")
		if err := in.copyLegacyAssets(info, index); err != nil {
			return err
		}
	}

	cb.SetStatus("Installed " + id)
	return nil
}

type nativeArchive struct {
	path    string
	exclude []string
}

func (in *Installer) collectJobs(info *VersionInfo) ([]downloadJob, []nativeArchive, error) {
	var jobs []downloadJob
	var natives []nativeArchive

	if client, ok := info.Downloads["client"]; ok {
		jarID := info.JarID()
		jobs = append(jobs, downloadJob{
			url:  client.URL,
			dest: filepath.Join(in.versionDir(jarID), jarID+".jar"),
			sha1: client.SHA1,
		})
	}

	for _, lib := range info.Libraries {
		if !in.platform.Allowed(lib.Rules, nil) {
			continue
		}

		if job, ok, err := in.artifactJob(lib); err != nil {
			return nil, nil, err
		} else if ok {
			jobs = append(jobs, job)
		}

		// Only old-style natives are unpacked; natives-<os> artifacts are
		// loaded from the classpath.
		if job, ok := in.nativeJob(lib); ok {
			jobs = append(jobs, job)
			natives = append(natives, nativeArchive{path: job.dest, exclude: excludes(lib)})
		}
	}

	if logging, ok := info.Logging["client"]; ok && logging.File.URL != "" {
		jobs = append(jobs, downloadJob{
			url:  logging.File.URL,
			dest: in.loggingConfigPath(logging),
			sha1: logging.File.SHA1,
		})
	}

	return jobs, natives, nil
}

func excludes(lib Library) []string {
	if lib.Extract == nil {
		return nil
	}
	return lib.Extract.Exclude
}

// nativeJob resolves the classifier jar an old-style library carries for
// this platform.
func (in *Installer) nativeJob(lib Library) (downloadJob, bool) {
	classifier, ok := in.platform.NativeClassifier(lib)
	if !ok || lib.Downloads == nil {
		return downloadJob{}, false
	}
	native, ok := lib.Downloads.Classifiers[classifier]
	if !ok {
		return downloadJob{}, false
	}
	return downloadJob{
		url:  native.URL,
		dest: filepath.Join(in.librariesDir(), filepath.FromSlash(native.Path)),
		sha1: native.SHA1,
	}, true
}

// artifactJob resolves the main jar of a library, if it has one.
func (in *Installer) artifactJob(lib Library) (downloadJob, bool, error) {
	if lib.Downloads != nil {
		if lib.Downloads.Artifact == nil {
			return downloadJob{}, false, nil
		}
		a := lib.Downloads.Artifact
		path := a.Path
		if path == "" {
			p, err := MavenPath(lib.Name)
			if err != nil {
				return downloadJob{}, false, err
			}
			path = p
		}
		return downloadJob{
			url:  a.URL,
			dest: filepath.Join(in.librariesDir(), filepath.FromSlash(path)),
			sha1: a.SHA1,
		}, true, nil
	}

	path, err := MavenPath(lib.Name)
	if err != nil {
		return downloadJob{}, false, err
	}
	// Old-style natives-only entries have no main artifact.
	if lib.Natives != nil && lib.URL == "" {
		return downloadJob{}, false, nil
	}
	base := lib.URL
	if base == "" {
		base = "https://libraries.minecraft.net/"
	}
	return downloadJob{
		url:  strings.TrimRight(base, "/") + "/" + path,
		dest: filepath.Join(in.librariesDir(), filepath.FromSlash(path)),
		sha1: lib.SHA1,
	}, true, nil
}

func (in *Installer) loggingConfigPath(cfg LoggingConfig) string {
	id := cfg.File.ID
	if id == "" {
		id = filepath.Base(cfg.File.URL)
	}
	return filepath.Join(in.assetsDir(), "log_configs", id)
}

func (in *Installer) assetJobs(ctx context.Context, info *VersionInfo) ([]downloadJob, *AssetIndex, error) {
	if info.AssetIndex == nil {
		return nil, nil, nil
	}

	indexPath := filepath.Join(in.assetsDir(), "indexes", info.AssetIndex.ID+".json")
	if err := in.fetch.download(ctx, info.AssetIndex.URL, indexPath, info.AssetIndex.SHA1); err != nil {
		return nil, nil, fmt.Errorf("download asset index: %w", err)
	}

	var index AssetIndex
	if err := readJSONFile(indexPath, &index); err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(index.Objects))
	jobs := make([]downloadJob, 0, len(index.Objects))
	for _, obj := range index.Objects {
		if seen[obj.Hash] || len(obj.Hash) < 2 {
			continue
		}
		seen[obj.Hash] = true
		jobs = append(jobs, downloadJob{
			url:  strings.TrimRight(in.endpoints.ResourcesURL, "/") + "/" + obj.Hash[:2] + "/" + obj.Hash,
			dest: in.assetObjectPath(obj.Hash),
			sha1: obj.Hash,
		})
	}
	return jobs, &index, nil
}

func (in *Installer) assetObjectPath(hash string) string {
	return filepath.Join(in.assetsDir(), "objects", hash[:2], hash)
}

func (in *Installer) runJobs(ctx context.Context, jobs []downloadJob, cb Callback) error {
	total := len(jobs)
	var (
		mu   sync.Mutex
		done int
	)
	cb.SetProgress(0, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for _, job := range jobs {
		g.Go(func() error {
			if err := in.fetch.download(gctx, job.url, job.dest, job.sha1); err != nil {
				return err
			}
			mu.Lock()
			done++
			cb.SetProgress(done, total)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (in *Installer) extractNatives(id string, archives []nativeArchive) error {
	if len(archives) == 0 {
		return nil
	}
	dir := in.NativesDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, a := range archives {
		if err := extractZip(a.path, dir, a.exclude); err != nil {
			return fmt.Errorf("extract natives %s: %w", filepath.Base(a.path), err)
		}
	}
	return nil
}

// extractZip unpacks files of archive into dir, skipping excluded prefixes
// and anything under META-INF.
func extractZip(archive, dir string, exclude []string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	exclude = append(exclude[:len(exclude):len(exclude)], "META-INF/")
	for _, f := range r.File {
		if f.FileInfo().IsDir() || hasAnyPrefix(f.Name, exclude) {
			continue
		}

		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// LegacyAssetsDir is the virtual asset root used by pre-1.7 versions.
func (in *Installer) LegacyAssetsDir(assetsID string) string {
	return filepath.Join(in.assetsDir(), "virtual", assetsID)
}

func (in *Installer) copyLegacyAssets(info *VersionInfo, index *AssetIndex) error {
	var root string
	switch {
	case index.MapToResources:
		root = filepath.Join(in.gameDir, "resources")
	case index.Virtual:
		root = in.LegacyAssetsDir(info.AssetsID())
	default:
		return nil
	}

	for name, obj := range index.Objects {
		dest := filepath.Join(root, filepath.FromSlash(name))
		if fileValid(dest, obj.Hash) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := copyFile(in.assetObjectPath(obj.Hash), dest); err != nil {
			return err
		}
	}
	return nil
}
