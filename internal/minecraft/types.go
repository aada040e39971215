package minecraft

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Manifest is the global list of published game versions.
type Manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

type ManifestEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	SHA1        string    `json:"sha1"`
	ReleaseTime time.Time `json:"releaseTime"`
}

// ReleaseIDs keeps the entries of type "release", in manifest order.
func (m *Manifest) ReleaseIDs() []string {
	ids := make([]string, 0, len(m.Versions))
	for _, v := range m.Versions {
		if v.Type == "release" {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// Find returns the manifest entry for id.
func (m *Manifest) Find(id string) (ManifestEntry, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return ManifestEntry{}, false
}

// Download is a single file reference inside a version document.
type Download struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

type AssetIndex struct {
	Objects        map[string]AssetObject `json:"objects"`
	Virtual        bool                   `json:"virtual"`
	MapToResources bool                   `json:"map_to_resources"`
}

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

type LibraryDownloads struct {
	Artifact    *Download           `json:"artifact"`
	Classifiers map[string]Download `json:"classifiers"`
}

type ExtractRules struct {
	Exclude []string `json:"exclude"`
}

// Library is a classpath entry. Vanilla libraries carry explicit downloads;
// loader libraries carry a maven repository url instead.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Extract   *ExtractRules     `json:"extract,omitempty"`
	URL       string            `json:"url,omitempty"`
	SHA1      string            `json:"sha1,omitempty"`
	Size      int64             `json:"size,omitempty"`
}

type LoggingConfig struct {
	Argument string   `json:"argument"`
	File     Download `json:"file"`
	Type     string   `json:"type"`
}

type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// Argument is either a plain string or a rule-guarded value (string or list).
type Argument struct {
	Rules  []Rule
	Values []string
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		a.Values = []string{plain}
		return nil
	}

	var guarded struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &guarded); err != nil {
		return fmt.Errorf("argument: %w", err)
	}
	a.Rules = guarded.Rules

	if err := json.Unmarshal(guarded.Value, &plain); err == nil {
		a.Values = []string{plain}
		return nil
	}
	return json.Unmarshal(guarded.Value, &a.Values)
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{a.Rules, a.Values})
}

// VersionInfo is a version document as stored in versions/<id>/<id>.json.
type VersionInfo struct {
	ID                 string                   `json:"id"`
	InheritsFrom       string                   `json:"inheritsFrom,omitempty"`
	Type               string                   `json:"type"`
	MainClass          string                   `json:"mainClass"`
	MinecraftArguments string                   `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments               `json:"arguments,omitempty"`
	AssetIndex         *AssetIndexRef           `json:"assetIndex,omitempty"`
	Assets             string                   `json:"assets,omitempty"`
	Downloads          map[string]Download      `json:"downloads,omitempty"`
	Libraries          []Library                `json:"libraries"`
	Logging            map[string]LoggingConfig `json:"logging,omitempty"`
	JavaVersion        *JavaVersion             `json:"javaVersion,omitempty"`
	Jar                string                   `json:"jar,omitempty"`
}

// JarID is the version whose client jar is put on the classpath.
func (v *VersionInfo) JarID() string {
	if v.Jar != "" {
		return v.Jar
	}
	return v.ID
}

// AssetsID is the asset index id, falling back to "legacy".
func (v *VersionInfo) AssetsID() string {
	if v.AssetIndex != nil && v.AssetIndex.ID != "" {
		return v.AssetIndex.ID
	}
	if v.Assets != "" {
		return v.Assets
	}
	return "legacy"
}

// Inherit merges a child document (e.g. a loader profile) onto its parent.
func Inherit(child, parent *VersionInfo) *VersionInfo {
	merged := *parent
	merged.ID = child.ID
	merged.InheritsFrom = ""
	merged.Jar = parent.JarID()
	if child.Jar != "" {
		merged.Jar = child.Jar
	}
	if child.Type != "" {
		merged.Type = child.Type
	}
	if child.MainClass != "" {
		merged.MainClass = child.MainClass
	}
	if child.MinecraftArguments != "" {
		merged.MinecraftArguments = child.MinecraftArguments
	}
	if child.AssetIndex != nil {
		merged.AssetIndex = child.AssetIndex
	}
	if child.Assets != "" {
		merged.Assets = child.Assets
	}
	if child.JavaVersion != nil {
		merged.JavaVersion = child.JavaVersion
	}
	if len(child.Logging) > 0 {
		merged.Logging = child.Logging
	}

	if child.Arguments != nil {
		args := &Arguments{}
		if parent.Arguments != nil {
			args.Game = append(args.Game, parent.Arguments.Game...)
			args.JVM = append(args.JVM, parent.Arguments.JVM...)
		}
		args.Game = append(args.Game, child.Arguments.Game...)
		args.JVM = append(args.JVM, child.Arguments.JVM...)
		merged.Arguments = args
	}

	// Child libraries replace parent libraries with the same coordinates.
	// Parent entries are never deduplicated among themselves: a parent may
	// list one artifact several times with different platform rules.
	overridden := make(map[string]bool, len(child.Libraries))
	for _, lib := range child.Libraries {
		overridden[libraryKey(lib.Name)] = true
	}
	merged.Libraries = append([]Library{}, child.Libraries...)
	for _, lib := range parent.Libraries {
		if !overridden[libraryKey(lib.Name)] {
			merged.Libraries = append(merged.Libraries, lib)
		}
	}

	return &merged
}

// libraryKey drops the version from group:artifact:version[:classifier].
func libraryKey(name string) string {
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return name
	}
	key := parts[0] + ":" + parts[1]
	if len(parts) > 3 {
		key += ":" + strings.Join(parts[3:], ":")
	}
	return key
}

// MavenPath converts group:artifact:version[:classifier][@ext] into the
// repository-relative path of the artifact.
func MavenPath(name string) (string, error) {
	ext := "jar"
	if i := strings.LastIndex(name, "@"); i >= 0 {
		ext = name[i+1:]
		name = name[:i]
	}

	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return "", fmt.Errorf("invalid library name %q", name)
	}
	group := strings.ReplaceAll(parts[0], ".", "/")
	artifact, version := parts[1], parts[2]

	file := artifact + "-" + version
	if len(parts) > 3 {
		file += "-" + strings.Join(parts[3:], "-")
	}
	return group + "/" + artifact + "/" + version + "/" + file + "." + ext, nil
}
