package controllers

import (
	"voxel-launcher/internal/models"
)

// SaveSettings stores the preferences edited on the settings page. Folder
// changes are picked up on the next start.
func (mc *MainController) SaveSettings(values models.Settings) {
	updated, err := mc.settings.Update(func(s *models.Settings) {
		s.ModsDir = values.ModsDir
		s.ImagesDir = values.ImagesDir
		s.JavaPath = values.JavaPath
		s.MinMemoryMB = values.MinMemoryMB
		s.MaxMemoryMB = values.MaxMemoryMB
		s.JVMArgs = values.JVMArgs
		s.ResolutionWidth = values.ResolutionWidth
		s.ResolutionHeight = values.ResolutionHeight
	})
	if err != nil {
		mc.mainView.ShowError(err)
		return
	}

	mc.logger.Info("MainController", "settings saved", map[string]interface{}{
		"mods_dir":      updated.ModsDir,
		"images_dir":    updated.ImagesDir,
		"max_memory_mb": updated.MaxMemoryMB,
	})
	mc.mainView.ShowInfo("Settings Saved", "Restart the launcher for folder changes to take effect.")
}
