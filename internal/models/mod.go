package models

import "time"

// SearchHit is one result of a repository search.
type SearchHit struct {
	ProjectID   string   `json:"project_id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Downloads   int64    `json:"downloads"`
	Follows     int64    `json:"follows"`
	IconURL     string   `json:"icon_url"`
	Categories  []string `json:"categories"`
	Versions    []string `json:"versions"`
	ProjectType string   `json:"project_type"`
}

// Project is the full project document, including the markdown body.
type Project struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Body         string   `json:"body"`
	IconURL      string   `json:"icon_url"`
	Downloads    int64    `json:"downloads"`
	Loaders      []string `json:"loaders"`
	GameVersions []string `json:"game_versions"`
}

// FileHashes holds the digests published for a version file.
type FileHashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

// VersionFile is one downloadable archive of a version.
type VersionFile struct {
	Hashes   FileHashes `json:"hashes"`
	URL      string     `json:"url"`
	Filename string     `json:"filename"`
	Primary  bool       `json:"primary"`
	Size     int64      `json:"size"`
}

// Version is a published release of a project.
type Version struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Name          string        `json:"name"`
	VersionNumber string        `json:"version_number"`
	GameVersions  []string      `json:"game_versions"`
	Loaders       []string      `json:"loaders"`
	VersionType   string        `json:"version_type"`
	DatePublished time.Time     `json:"date_published"`
	Files         []VersionFile `json:"files"`
}

// PrimaryFile returns the file flagged primary, else the first file with a URL.
func (v Version) PrimaryFile() (VersionFile, bool) {
	for _, f := range v.Files {
		if f.Primary && f.URL != "" {
			return f, true
		}
	}
	for _, f := range v.Files {
		if f.URL != "" {
			return f, true
		}
	}
	return VersionFile{}, false
}

// HasHash reports whether any file of the version carries the given sha1.
func (v Version) HasHash(sha1 string) bool {
	for _, f := range v.Files {
		if f.Hashes.SHA1 == sha1 {
			return true
		}
	}
	return false
}

// InstalledMod is a jar present in the mods directory.
type InstalledMod struct {
	Path     string
	Filename string
	Size     int64
	ModTime  time.Time
}

// ModUpdate pairs an installed file with the newer version that replaces it.
type ModUpdate struct {
	Path    string
	Version Version
}
