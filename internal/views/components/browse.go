package components

import (
	"fmt"

	"voxel-launcher/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

const iconSize = 48

// IconSource returns a cached icon path for hit, or "" while it is being
// fetched; ready is called once the icon becomes available.
type IconSource func(hit models.SearchHit, ready func()) string

// BrowsePanel searches the mod repository and shows project details.
type BrowsePanel struct {
	container     *fyne.Container
	searchEntry   *widget.Entry
	searchBtn     *widget.Button
	filterLabel   *widget.Label
	resultList    *widget.List
	titleLabel    *widget.Label
	summaryLabel  *widget.Label
	body          *widget.RichText
	versionSelect *widget.Select
	downloadBtn   *widget.Button
	statusLabel   *widget.Label

	hits     []models.SearchHit
	versions []models.Version

	Icons      IconSource
	OnSearch   func(string)
	OnSelect   func(models.SearchHit)
	OnDownload func(models.Version)
}

func NewBrowsePanel() *BrowsePanel {
	panel := &BrowsePanel{}
	panel.createComponents()
	panel.buildLayout()
	return panel
}

func (bp *BrowsePanel) createComponents() {
	bp.searchEntry = widget.NewEntry()
	bp.searchEntry.SetPlaceHolder("Search mods")
	bp.searchEntry.OnSubmitted = func(string) { bp.submitSearch() }
	bp.searchBtn = widget.NewButtonWithIcon("", theme.SearchIcon(), bp.submitSearch)
	bp.filterLabel = widget.NewLabel("")

	bp.resultList = widget.NewList(
		func() int { return len(bp.hits) },
		func() fyne.CanvasObject {
			icon := canvas.NewImageFromResource(theme.FileImageIcon())
			icon.FillMode = canvas.ImageFillContain
			icon.SetMinSize(fyne.NewSize(iconSize, iconSize))
			title := widget.NewLabel("title")
			title.TextStyle = fyne.TextStyle{Bold: true}
			meta := widget.NewLabel("meta")
			return container.NewBorder(nil, nil, icon, nil, container.NewVBox(title, meta))
		},
		bp.updateHit,
	)
	bp.resultList.OnSelected = func(id widget.ListItemID) {
		if id < len(bp.hits) && bp.OnSelect != nil {
			bp.OnSelect(bp.hits[id])
		}
	}

	bp.titleLabel = widget.NewLabel("Select a mod")
	bp.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	bp.summaryLabel = widget.NewLabel("")
	bp.summaryLabel.Wrapping = fyne.TextWrapWord
	bp.body = widget.NewRichText()
	bp.body.Wrapping = fyne.TextWrapWord

	bp.versionSelect = widget.NewSelect(nil, func(selected string) {
		if selected != "" {
			bp.downloadBtn.Enable()
		}
	})
	bp.versionSelect.PlaceHolder = "No versions"
	bp.downloadBtn = widget.NewButtonWithIcon("Download", theme.DownloadIcon(), func() {
		if v, ok := bp.SelectedVersion(); ok && bp.OnDownload != nil {
			bp.OnDownload(v)
		}
	})
	bp.downloadBtn.Importance = widget.HighImportance
	bp.downloadBtn.Disable()

	bp.statusLabel = widget.NewLabel("")
}

func (bp *BrowsePanel) updateHit(id widget.ListItemID, item fyne.CanvasObject) {
	if id >= len(bp.hits) {
		return
	}
	hit := bp.hits[id]
	row := item.(*fyne.Container)
	text := row.Objects[0].(*fyne.Container)
	icon := row.Objects[1].(*canvas.Image)

	text.Objects[0].(*widget.Label).SetText(hit.Title)
	text.Objects[1].(*widget.Label).SetText(fmt.Sprintf("by %s · %s downloads", hit.Author, humanize.Comma(hit.Downloads)))

	path := ""
	if bp.Icons != nil {
		path = bp.Icons(hit, func() { bp.resultList.RefreshItem(id) })
	}
	if path != "" {
		icon.Resource = nil
		icon.File = path
	} else {
		icon.File = ""
		icon.Resource = theme.FileImageIcon()
	}
	icon.Refresh()
}

func (bp *BrowsePanel) buildLayout() {
	search := container.NewBorder(nil, bp.filterLabel, nil, bp.searchBtn, bp.searchEntry)

	details := container.NewBorder(
		container.NewVBox(bp.titleLabel, bp.summaryLabel),
		container.NewBorder(nil, nil, nil, bp.downloadBtn, bp.versionSelect),
		nil, nil,
		container.NewVScroll(bp.body),
	)

	split := container.NewHSplit(bp.resultList, details)
	split.SetOffset(0.45)

	bp.container = container.NewBorder(search, bp.statusLabel, nil, nil, split)
}

func (bp *BrowsePanel) submitSearch() {
	if bp.OnSearch != nil {
		bp.OnSearch(bp.searchEntry.Text)
	}
}

func (bp *BrowsePanel) Query() string {
	return bp.searchEntry.Text
}

func (bp *BrowsePanel) SetFilter(text string) {
	bp.filterLabel.SetText(text)
}

func (bp *BrowsePanel) SetResults(hits []models.SearchHit) {
	bp.hits = hits
	bp.resultList.UnselectAll()
	bp.resultList.Refresh()
}

func (bp *BrowsePanel) Results() []models.SearchHit {
	return bp.hits
}

// SetProject fills the detail pane; nil clears it.
func (bp *BrowsePanel) SetProject(project *models.Project) {
	if project == nil {
		bp.titleLabel.SetText("Select a mod")
		bp.summaryLabel.SetText("")
		bp.body.ParseMarkdown("")
		bp.SetVersions(nil)
		return
	}
	bp.titleLabel.SetText(project.Title)
	bp.summaryLabel.SetText(project.Description)
	bp.body.ParseMarkdown(project.Body)
}

// SetVersions lists the downloadable versions, newest first as given.
func (bp *BrowsePanel) SetVersions(versions []models.Version) {
	bp.versions = versions
	options := make([]string, len(versions))
	for i, v := range versions {
		options[i] = versionLabel(v)
	}
	bp.versionSelect.Options = options
	bp.versionSelect.ClearSelected()
	bp.downloadBtn.Disable()
	if len(options) > 0 {
		bp.versionSelect.PlaceHolder = "Select a version"
		bp.versionSelect.SetSelectedIndex(0)
	} else {
		bp.versionSelect.PlaceHolder = "No versions"
	}
	bp.versionSelect.Refresh()
}

func versionLabel(v models.Version) string {
	label := v.VersionNumber
	if v.Name != "" && v.Name != v.VersionNumber {
		label = v.Name + " (" + v.VersionNumber + ")"
	}
	if v.VersionType != "" && v.VersionType != "release" {
		label += " [" + v.VersionType + "]"
	}
	return label
}

func (bp *BrowsePanel) SelectedVersion() (models.Version, bool) {
	i := bp.versionSelect.SelectedIndex()
	if i < 0 || i >= len(bp.versions) {
		return models.Version{}, false
	}
	return bp.versions[i], true
}

func (bp *BrowsePanel) SetDownloading(downloading bool) {
	if downloading {
		bp.downloadBtn.Disable()
	} else if _, ok := bp.SelectedVersion(); ok {
		bp.downloadBtn.Enable()
	}
}

func (bp *BrowsePanel) SetStatus(status string) {
	bp.statusLabel.SetText(status)
}

func (bp *BrowsePanel) GetContainer() *fyne.Container {
	return bp.container
}
