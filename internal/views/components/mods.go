package components

import (
	"fmt"
	"path/filepath"

	"voxel-launcher/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

// ModsPanel lists installed mods and the updates found for them.
type ModsPanel struct {
	container     *fyne.Container
	modList       *widget.List
	updateList    *widget.List
	urlEntry      *widget.Entry
	downloadBtn   *widget.Button
	openFolderBtn *widget.Button
	deleteBtn     *widget.Button
	refreshBtn    *widget.Button
	checkBtn      *widget.Button
	updateBtn     *widget.Button
	statusLabel   *widget.Label

	mods     []models.InstalledMod
	selected int
	updates  []models.ModUpdate
	chosen   map[int]bool

	OnDownloadURL  func(string)
	OnOpenFolder   func()
	OnDelete       func(models.InstalledMod)
	OnRefresh      func()
	OnCheckUpdates func()
	OnApplyUpdates func([]models.ModUpdate)
}

func NewModsPanel() *ModsPanel {
	panel := &ModsPanel{selected: -1, chosen: make(map[int]bool)}
	panel.createComponents()
	panel.buildLayout()
	return panel
}

func (mp *ModsPanel) createComponents() {
	mp.modList = widget.NewList(
		func() int { return len(mp.mods) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil, widget.NewLabel("size"), widget.NewLabel("mod.jar"))
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(mp.mods) {
				return
			}
			mod := mp.mods[id]
			row := item.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(mod.Filename)
			row.Objects[1].(*widget.Label).SetText(humanize.Bytes(uint64(mod.Size)))
		},
	)
	mp.modList.OnSelected = func(id widget.ListItemID) {
		mp.selected = id
		mp.deleteBtn.Enable()
	}
	mp.modList.OnUnselected = func(widget.ListItemID) {
		mp.selected = -1
		mp.deleteBtn.Disable()
	}

	mp.updateList = widget.NewList(
		func() int { return len(mp.updates) },
		func() fyne.CanvasObject { return widget.NewCheck("update", nil) },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id >= len(mp.updates) {
				return
			}
			check := item.(*widget.Check)
			u := mp.updates[id]
			check.OnChanged = nil
			check.SetText(fmt.Sprintf("%s → %s", filepath.Base(u.Path), u.Version.VersionNumber))
			check.SetChecked(mp.chosen[id])
			check.OnChanged = func(on bool) {
				mp.chosen[id] = on
				mp.refreshUpdateButton()
			}
		},
	)

	mp.urlEntry = widget.NewEntry()
	mp.urlEntry.SetPlaceHolder("Mod download URL")
	mp.urlEntry.OnSubmitted = func(string) { mp.submitURL() }
	mp.downloadBtn = widget.NewButton("Download", mp.submitURL)

	mp.openFolderBtn = widget.NewButton("Open Folder", func() {
		if mp.OnOpenFolder != nil {
			mp.OnOpenFolder()
		}
	})
	mp.deleteBtn = widget.NewButton("Delete", func() {
		if mod, ok := mp.Selected(); ok && mp.OnDelete != nil {
			mp.OnDelete(mod)
		}
	})
	mp.deleteBtn.Importance = widget.DangerImportance
	mp.deleteBtn.Disable()
	mp.refreshBtn = widget.NewButton("Refresh", func() {
		if mp.OnRefresh != nil {
			mp.OnRefresh()
		}
	})
	mp.checkBtn = widget.NewButton("Check for Updates", func() {
		if mp.OnCheckUpdates != nil {
			mp.OnCheckUpdates()
		}
	})
	mp.updateBtn = widget.NewButton("Update Selected", func() {
		if chosen := mp.ChosenUpdates(); len(chosen) > 0 && mp.OnApplyUpdates != nil {
			mp.OnApplyUpdates(chosen)
		}
	})
	mp.updateBtn.Disable()

	mp.statusLabel = widget.NewLabel("")
}

func (mp *ModsPanel) buildLayout() {
	top := container.NewBorder(nil, nil, nil, mp.downloadBtn, mp.urlEntry)
	actions := container.NewHBox(mp.openFolderBtn, mp.refreshBtn, mp.deleteBtn)
	updates := container.NewBorder(
		container.NewHBox(mp.checkBtn, mp.updateBtn),
		nil, nil, nil,
		mp.updateList,
	)

	split := container.NewVSplit(mp.modList, updates)
	split.SetOffset(0.65)

	mp.container = container.NewBorder(
		container.NewVBox(top, actions),
		mp.statusLabel,
		nil, nil,
		split,
	)
}

func (mp *ModsPanel) submitURL() {
	url := mp.urlEntry.Text
	if url == "" || mp.OnDownloadURL == nil {
		return
	}
	mp.OnDownloadURL(url)
}

func (mp *ModsPanel) refreshUpdateButton() {
	if len(mp.ChosenUpdates()) > 0 {
		mp.updateBtn.Enable()
	} else {
		mp.updateBtn.Disable()
	}
}

func (mp *ModsPanel) SetMods(mods []models.InstalledMod) {
	mp.mods = mods
	mp.selected = -1
	mp.modList.UnselectAll()
	mp.deleteBtn.Disable()
	mp.modList.Refresh()
}

func (mp *ModsPanel) Mods() []models.InstalledMod {
	return mp.mods
}

// Selected returns the highlighted mod.
func (mp *ModsPanel) Selected() (models.InstalledMod, bool) {
	if mp.selected < 0 || mp.selected >= len(mp.mods) {
		return models.InstalledMod{}, false
	}
	return mp.mods[mp.selected], true
}

// SetUpdates replaces the update list; every update starts checked.
func (mp *ModsPanel) SetUpdates(updates []models.ModUpdate) {
	mp.updates = updates
	mp.chosen = make(map[int]bool, len(updates))
	for i := range updates {
		mp.chosen[i] = true
	}
	mp.updateList.Refresh()
	mp.refreshUpdateButton()
}

func (mp *ModsPanel) ChosenUpdates() []models.ModUpdate {
	var chosen []models.ModUpdate
	for i, u := range mp.updates {
		if mp.chosen[i] {
			chosen = append(chosen, u)
		}
	}
	return chosen
}

func (mp *ModsPanel) ClearURL() {
	mp.urlEntry.SetText("")
}

func (mp *ModsPanel) SetBusy(busy bool) {
	for _, b := range []*widget.Button{mp.downloadBtn, mp.checkBtn} {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
	if busy {
		mp.updateBtn.Disable()
	} else {
		mp.refreshUpdateButton()
	}
}

func (mp *ModsPanel) SetStatus(status string) {
	mp.statusLabel.SetText(status)
}

func (mp *ModsPanel) GetContainer() *fyne.Container {
	return mp.container
}
