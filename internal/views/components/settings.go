package components

import (
	"fmt"
	"strconv"
	"strings"

	"voxel-launcher/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SettingsPanel edits the launcher preferences.
type SettingsPanel struct {
	window     fyne.Window
	container  *fyne.Container
	modsDir    *widget.Entry
	imagesDir  *widget.Entry
	javaPath   *widget.Entry
	minMemory  *widget.Entry
	maxMemory  *widget.Entry
	jvmArgs    *widget.Entry
	resWidth   *widget.Entry
	resHeight  *widget.Entry
	saveButton *widget.Button
	memoryHint *widget.Label

	OnSave    func(models.Settings)
	OnInvalid func(error)
}

func NewSettingsPanel(window fyne.Window) *SettingsPanel {
	panel := &SettingsPanel{window: window}
	panel.createComponents()
	panel.buildLayout()
	return panel
}

func (sp *SettingsPanel) createComponents() {
	sp.modsDir = widget.NewEntry()
	sp.modsDir.SetPlaceHolder("Default")
	sp.imagesDir = widget.NewEntry()
	sp.imagesDir.SetPlaceHolder("Default")
	sp.javaPath = widget.NewEntry()
	sp.javaPath.SetPlaceHolder("JAVA_HOME or PATH")
	sp.minMemory = widget.NewEntry()
	sp.maxMemory = widget.NewEntry()
	sp.jvmArgs = widget.NewEntry()
	sp.jvmArgs.SetPlaceHolder("-XX:+UseG1GC")
	sp.resWidth = widget.NewEntry()
	sp.resWidth.SetPlaceHolder("auto")
	sp.resHeight = widget.NewEntry()
	sp.resHeight.SetPlaceHolder("auto")
	sp.memoryHint = widget.NewLabel("Memory in MB")

	sp.saveButton = widget.NewButton("Save", sp.save)
	sp.saveButton.Importance = widget.HighImportance
}

func (sp *SettingsPanel) folderRow(entry *widget.Entry) fyne.CanvasObject {
	browse := widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil || dir == nil {
				return
			}
			entry.SetText(dir.Path())
		}, sp.window)
	})
	return container.NewBorder(nil, nil, nil, browse, entry)
}

func (sp *SettingsPanel) buildLayout() {
	form := widget.NewForm(
		widget.NewFormItem("Mods folder", sp.folderRow(sp.modsDir)),
		widget.NewFormItem("Images folder", sp.folderRow(sp.imagesDir)),
		widget.NewFormItem("Java executable", sp.javaPath),
		widget.NewFormItem("Minimum memory", sp.minMemory),
		widget.NewFormItem("Maximum memory", sp.maxMemory),
		widget.NewFormItem("JVM arguments", sp.jvmArgs),
		widget.NewFormItem("Window width", sp.resWidth),
		widget.NewFormItem("Window height", sp.resHeight),
	)

	sp.container = container.NewVBox(
		form,
		sp.memoryHint,
		container.NewHBox(sp.saveButton),
	)
}

// SetSettings fills the form from s.
func (sp *SettingsPanel) SetSettings(s *models.Settings) {
	sp.modsDir.SetText(s.ModsDir)
	sp.imagesDir.SetText(s.ImagesDir)
	sp.javaPath.SetText(s.JavaPath)
	sp.minMemory.SetText(formatInt(s.MinMemoryMB))
	sp.maxMemory.SetText(formatInt(s.MaxMemoryMB))
	sp.jvmArgs.SetText(s.JVMArgs)
	sp.resWidth.SetText(formatInt(s.ResolutionWidth))
	sp.resHeight.SetText(formatInt(s.ResolutionHeight))
}

// Values parses the form. Only the fields this panel edits are set.
func (sp *SettingsPanel) Values() (models.Settings, error) {
	var s models.Settings
	var err error

	s.ModsDir = strings.TrimSpace(sp.modsDir.Text)
	s.ImagesDir = strings.TrimSpace(sp.imagesDir.Text)
	s.JavaPath = strings.TrimSpace(sp.javaPath.Text)
	s.JVMArgs = strings.TrimSpace(sp.jvmArgs.Text)

	if s.MinMemoryMB, err = parseInt("Minimum memory", sp.minMemory.Text); err != nil {
		return s, err
	}
	if s.MaxMemoryMB, err = parseInt("Maximum memory", sp.maxMemory.Text); err != nil {
		return s, err
	}
	if s.MinMemoryMB > 0 && s.MaxMemoryMB > 0 && s.MinMemoryMB > s.MaxMemoryMB {
		return s, fmt.Errorf("minimum memory (%d MB) exceeds maximum memory (%d MB)", s.MinMemoryMB, s.MaxMemoryMB)
	}
	if s.ResolutionWidth, err = parseInt("Window width", sp.resWidth.Text); err != nil {
		return s, err
	}
	if s.ResolutionHeight, err = parseInt("Window height", sp.resHeight.Text); err != nil {
		return s, err
	}
	return s, nil
}

func (sp *SettingsPanel) save() {
	values, err := sp.Values()
	if err != nil {
		if sp.OnInvalid != nil {
			sp.OnInvalid(err)
		}
		return
	}
	if sp.OnSave != nil {
		sp.OnSave(values)
	}
}

func formatInt(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// parseInt accepts an empty field as 0.
func parseInt(field, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a positive whole number", field)
	}
	return v, nil
}

func (sp *SettingsPanel) GetContainer() *fyne.Container {
	return sp.container
}
