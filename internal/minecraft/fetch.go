package minecraft

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrChecksum is returned when a downloaded file does not match its sha1.
var ErrChecksum = errors.New("checksum mismatch")

// Endpoints are the remote services the installer talks to.
type Endpoints struct {
	ManifestURL   string
	ResourcesURL  string
	FabricMetaURL string
	QuiltMetaURL  string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		ManifestURL:   "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
		ResourcesURL:  "https://resources.download.minecraft.net",
		FabricMetaURL: "https://meta.fabricmc.net/v2",
		QuiltMetaURL:  "https://meta.quiltmc.org/v3",
	}
}

type fetcher struct {
	http      *http.Client
	userAgent string
}

func (f *fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return resp, nil
}

func (f *fetcher) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// download stores url at dest unless dest already has the expected sha1.
// With no sha1 an existing file is trusted.
func (f *fetcher) download(ctx context.Context, url, dest, sha string) error {
	if fileValid(dest, sha) {
		return nil
	}
	if url == "" {
		return fmt.Errorf("no download url for %s", filepath.Base(dest))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hash := sha1.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if sha != "" {
		if got := hex.EncodeToString(hash.Sum(nil)); got != sha {
			return fmt.Errorf("%s: %w (want %s, got %s)", filepath.Base(dest), ErrChecksum, sha, got)
		}
	}
	return os.Rename(tmpName, dest)
}

func fileValid(path, sha string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if sha == "" {
		return true
	}
	got, err := FileSHA1(path)
	return err == nil && got == sha
}

// FileSHA1 hashes a file in 64 KiB chunks.
func FileSHA1(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha1.New()
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(hash, file, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
