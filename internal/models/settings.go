package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/mem"
)

// AuthMethod selects how the player identity is obtained.
type AuthMethod string

const (
	AuthOffline   AuthMethod = "Offline"
	AuthMicrosoft AuthMethod = "Microsoft"
)

// AuthMethods lists the choices shown on the launch page.
var AuthMethods = []string{string(AuthOffline), string(AuthMicrosoft)}

// LoaderType is the optional runtime installed alongside the base game.
type LoaderType string

const (
	LoaderVanilla  LoaderType = "Vanilla"
	LoaderFabric   LoaderType = "Fabric"
	LoaderQuilt    LoaderType = "Quilt"
	LoaderForge    LoaderType = "Forge"
	LoaderNeoForge LoaderType = "NeoForge"
)

// LoaderTypes lists the choices shown on the launch page.
var LoaderTypes = []string{
	string(LoaderVanilla), string(LoaderFabric), string(LoaderQuilt),
	string(LoaderForge), string(LoaderNeoForge),
}

// RepositoryName is the loader identifier used by the mod repository facets.
// Vanilla has none.
func (l LoaderType) RepositoryName() string {
	if l == LoaderVanilla || l == "" {
		return ""
	}
	return strings.ToLower(string(l))
}

const (
	minDefaultMemoryMB = 1024
	maxDefaultMemoryMB = 8192
	memoryStepMB       = 256
)

// Settings is the flat settings document persisted as settings.json.
type Settings struct {
	LastUsername     string     `json:"last_username"`
	LastVersion      string     `json:"last_version"`
	AuthMethod       AuthMethod `json:"auth_method"`
	Loader           LoaderType `json:"loader"`
	ModsDir          string     `json:"mods_dir"`
	ImagesDir        string     `json:"images_dir"`
	JavaPath         string     `json:"java_path"`
	MinMemoryMB      int        `json:"min_memory_mb"`
	MaxMemoryMB      int        `json:"max_memory_mb"`
	JVMArgs          string     `json:"jvm_args"`
	ResolutionWidth  int        `json:"resolution_width"`
	ResolutionHeight int        `json:"resolution_height"`
}

// DefaultSettings returns settings sized for the current machine.
func DefaultSettings() *Settings {
	var total uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
	}

	return &Settings{
		LastUsername: RandomUsername(),
		AuthMethod:   AuthOffline,
		Loader:       LoaderVanilla,
		MinMemoryMB:  512,
		MaxMemoryMB:  DefaultMaxMemoryMB(total),
	}
}

// DefaultMaxMemoryMB picks a quarter of physical memory, clamped and rounded
// down to a 256 MB step. Unknown memory (0) yields the lower bound.
func DefaultMaxMemoryMB(totalBytes uint64) int {
	mb := int(totalBytes / 4 / (1024 * 1024))
	mb -= mb % memoryStepMB
	if mb < minDefaultMemoryMB {
		return minDefaultMemoryMB
	}
	if mb > maxDefaultMemoryMB {
		return maxDefaultMemoryMB
	}
	return mb
}

// RandomUsername generates the "PlayerXXXXXX" placeholder name.
func RandomUsername() string {
	return "Player" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// JVMArgList splits the free-form JVM argument string on whitespace.
func (s *Settings) JVMArgList() []string {
	return strings.Fields(s.JVMArgs)
}
