package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"sync"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"
)

// SettingsStore reads and writes the flat settings document. Keys it does not
// know about are preserved across writes.
type SettingsStore struct {
	path     string
	logger   logger.Logger
	defaults func() *models.Settings
	mu       sync.Mutex
}

func NewSettingsStore(path string, log logger.Logger) *SettingsStore {
	return &SettingsStore{
		path:     path,
		logger:   log,
		defaults: models.DefaultSettings,
	}
}

// Load returns the defaults overlaid with whatever the file contains. A
// missing or corrupt file yields the defaults.
func (s *SettingsStore) Load() *models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, _ := s.load()
	return settings
}

// Update performs a read-modify-write of the document.
func (s *SettingsStore) Update(fn func(*models.Settings)) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, raw := s.load()
	fn(settings)

	encoded, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		raw[k] = v
	}

	if err := writeJSON(s.path, raw, 0o644, true); err != nil {
		s.logger.Error("SettingsStore", err, map[string]interface{}{"path": s.path})
		return nil, err
	}
	return settings, nil
}

func (s *SettingsStore) load() (*models.Settings, map[string]json.RawMessage) {
	settings := s.defaults()
	raw := make(map[string]json.RawMessage)

	if err := readJSON(s.path, &raw); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warning("SettingsStore", "settings unreadable, using defaults", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return settings, make(map[string]json.RawMessage)
	}

	// Decode key by key so one malformed value does not discard the rest.
	for key, value := range raw {
		single := map[string]json.RawMessage{key: value}
		data, _ := json.Marshal(single)
		if err := json.Unmarshal(data, settings); err != nil {
			s.logger.Warning("SettingsStore", "ignoring malformed setting", map[string]interface{}{
				"key": key,
			})
		}
	}
	return settings, raw
}
