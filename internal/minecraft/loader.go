package minecraft

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"voxel-launcher/internal/models"

	"golang.org/x/mod/semver"
)

// ErrLoaderUnsupported is returned for loaders this launcher cannot install.
var ErrLoaderUnsupported = errors.New("loader not supported")

type loaderEntry struct {
	Version string `json:"version"`
	Stable  *bool  `json:"stable"`
}

type loaderMeta struct {
	baseURL string
}

func (in *Installer) loaderMeta(kind models.LoaderType) (loaderMeta, error) {
	switch kind {
	case models.LoaderFabric:
		return loaderMeta{baseURL: in.endpoints.FabricMetaURL}, nil
	case models.LoaderQuilt:
		return loaderMeta{baseURL: in.endpoints.QuiltMetaURL}, nil
	default:
		return loaderMeta{}, fmt.Errorf(
			"%s installation is not supported in this version of the launcher. Please use Fabric or Quilt: %w",
			kind, ErrLoaderUnsupported)
	}
}

// LatestLoaderVersion returns the newest stable loader build.
func (in *Installer) LatestLoaderVersion(ctx context.Context, kind models.LoaderType) (string, error) {
	meta, err := in.loaderMeta(kind)
	if err != nil {
		return "", err
	}

	var entries []loaderEntry
	if err := in.fetch.getJSON(ctx, strings.TrimRight(meta.baseURL, "/")+"/versions/loader", &entries); err != nil {
		return "", fmt.Errorf("list %s versions: %w", kind, err)
	}

	version := pickLatestStable(entries)
	if version == "" {
		return "", fmt.Errorf("no %s loader versions published", kind)
	}
	return version, nil
}

// pickLatestStable orders stable builds by semantic version. Entries without
// a stable flag count as stable unless they carry a pre-release suffix.
func pickLatestStable(entries []loaderEntry) string {
	var stable []string
	for _, e := range entries {
		isStable := !strings.Contains(e.Version, "-")
		if e.Stable != nil {
			isStable = *e.Stable
		}
		if isStable && semver.IsValid("v"+e.Version) {
			stable = append(stable, e.Version)
		}
	}

	if len(stable) == 0 {
		if len(entries) > 0 {
			return entries[0].Version
		}
		return ""
	}

	sort.Slice(stable, func(i, j int) bool {
		return semver.Compare("v"+stable[i], "v"+stable[j]) > 0
	})
	return stable[0]
}

// LoaderVersionID is the version id a loader profile is installed under.
func LoaderVersionID(kind models.LoaderType, loaderVersion, gameVersion string) string {
	prefix := strings.ToLower(string(kind)) + "-loader"
	return prefix + "-" + loaderVersion + "-" + gameVersion
}

// InstallLoader installs the loader profile for gameVersion and everything it
// inherits. It returns the version id to launch.
func (in *Installer) InstallLoader(ctx context.Context, kind models.LoaderType, gameVersion, loaderVersion string, cb Callback) (string, error) {
	meta, err := in.loaderMeta(kind)
	if err != nil {
		return "", err
	}

	cb.SetStatus(fmt.Sprintf("Installing %s Loader %s", kind, loaderVersion))
	profileURL := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json",
		strings.TrimRight(meta.baseURL, "/"), url.PathEscape(gameVersion), url.PathEscape(loaderVersion))

	var profile VersionInfo
	if err := in.fetch.getJSON(ctx, profileURL, &profile); err != nil {
		return "", fmt.Errorf("fetch %s profile: %w", kind, err)
	}
	if profile.ID == "" {
		profile.ID = LoaderVersionID(kind, loaderVersion, gameVersion)
	}
	if profile.InheritsFrom == "" {
		profile.InheritsFrom = gameVersion
	}

	if err := writeJSONFile(in.versionJSONPath(profile.ID), &profile); err != nil {
		return "", err
	}

	if err := in.InstallVersion(ctx, profile.ID, cb); err != nil {
		return "", err
	}
	return profile.ID, nil
}
