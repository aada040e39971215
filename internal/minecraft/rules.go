package minecraft

import (
	"regexp"
	"runtime"
	"strings"
)

// Rule guards a library or argument by platform and launcher features.
type Rule struct {
	Action   string          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

type OSRule struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Platform identifies the machine rules are evaluated against.
type Platform struct {
	OS      string
	Arch    string
	Version string
}

// CurrentPlatform maps the Go runtime onto the names used by version documents.
func CurrentPlatform() Platform {
	return Platform{OS: platformOS(runtime.GOOS), Arch: platformArch(runtime.GOARCH)}
}

func platformOS(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

func platformArch(goarch string) string {
	switch goarch {
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	case "arm":
		return "arm32"
	default:
		return "x86_64"
	}
}

// Bits is the value substituted for ${arch} in native classifiers.
func (p Platform) Bits() string {
	if p.Arch == "x86" || p.Arch == "arm32" {
		return "32"
	}
	return "64"
}

// Allowed evaluates rules in order; the last matching rule decides. No rules
// means allowed, rules with no match mean disallowed.
func (p Platform) Allowed(rules []Rule, features map[string]bool) bool {
	if len(rules) == 0 {
		return true
	}

	allowed := false
	for _, rule := range rules {
		if p.matches(rule, features) {
			allowed = rule.Action == "allow"
		}
	}
	return allowed
}

func (p Platform) matches(rule Rule, features map[string]bool) bool {
	if rule.OS != nil {
		if rule.OS.Name != "" && rule.OS.Name != p.OS {
			return false
		}
		if rule.OS.Arch != "" && rule.OS.Arch != p.Arch {
			return false
		}
		if rule.OS.Version != "" {
			if p.Version == "" {
				return false
			}
			re, err := regexp.Compile(rule.OS.Version)
			if err != nil || !re.MatchString(p.Version) {
				return false
			}
		}
	}
	for name, want := range rule.Features {
		if features[name] != want {
			return false
		}
	}
	return true
}

// NativeClassifier returns the classifier holding this platform's natives
// for an old-style library, if any.
func (p Platform) NativeClassifier(lib Library) (string, bool) {
	if lib.Natives == nil {
		return "", false
	}
	classifier, ok := lib.Natives[p.OS]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(classifier, "${arch}", p.Bits()), true
}
