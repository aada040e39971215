package views

import (
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
)

// Tab indices of the main window pages.
const (
	TabLaunch = iota
	TabMods
	TabBrowse
	TabSettings
)

// Handlers are the user actions the view forwards to the controller. Nil
// handlers are ignored.
type Handlers struct {
	AuthChanged     func(models.AuthMethod)
	UsernameChanged func(string)
	Login           func()
	Logout          func()
	VersionChanged  func(string)
	LoaderChanged   func(models.LoaderType)
	Launch          func()

	RefreshMods    func()
	DeleteMod      func(models.InstalledMod)
	InstallFiles   func([]string)
	DownloadURL    func(string)
	OpenModsFolder func()
	CheckUpdates   func()
	ApplyUpdates   func([]models.ModUpdate)

	Search          func(string)
	SelectProject   func(models.SearchHit)
	DownloadVersion func(models.Version)
	Icon            components.IconSource

	SaveSettings func(models.Settings)
	Quit         func()
}

// MainView represents the main application view using MVC pattern
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	tabs          *container.AppTabs
	background    *components.Background
	launch        *components.LaunchPanel
	mods          *components.ModsPanel
	browse        *components.BrowsePanel
	settings      *components.SettingsPanel
	statusBar     *components.StatusBar

	handlers Handlers
}

// NewMainView creates a new main view
func NewMainView(window fyne.Window) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents()
	view.buildLayout()
	view.setupEventHandlers()
	view.setupShortcuts()

	return view
}

func (mv *MainView) initializeComponents() {
	mv.background = components.NewBackground()
	mv.launch = components.NewLaunchPanel()
	mv.mods = components.NewModsPanel()
	mv.browse = components.NewBrowsePanel()
	mv.settings = components.NewSettingsPanel(mv.window)
	mv.statusBar = components.NewStatusBar()
}

func (mv *MainView) buildLayout() {
	mv.tabs = container.NewAppTabs(
		container.NewTabItem("Launch", container.NewPadded(mv.launch.GetContainer())),
		container.NewTabItem("Mods", container.NewPadded(mv.mods.GetContainer())),
		container.NewTabItem("Browse", container.NewPadded(mv.browse.GetContainer())),
		container.NewTabItem("Settings", container.NewVScroll(container.NewPadded(mv.settings.GetContainer()))),
	)
	mv.tabs.SetTabLocation(container.TabLocationTop)

	mv.mainContainer = container.NewStack(
		mv.background.GetContainer(),
		container.NewBorder(nil, mv.statusBar.GetContainer(), nil, nil, mv.tabs),
	)

	mv.window.SetContent(mv.mainContainer)
}

// setupEventHandlers routes component events through the current handlers.
func (mv *MainView) setupEventHandlers() {
	lp := mv.launch
	lp.OnAuthChanged = func(m models.AuthMethod) { call1(mv.handlers.AuthChanged, m) }
	lp.OnUsernameChanged = func(s string) { call1(mv.handlers.UsernameChanged, s) }
	lp.OnLogin = func() { call0(mv.handlers.Login) }
	lp.OnLogout = func() { call0(mv.handlers.Logout) }
	lp.OnVersionChanged = func(v string) { call1(mv.handlers.VersionChanged, v) }
	lp.OnLoaderChanged = func(l models.LoaderType) { call1(mv.handlers.LoaderChanged, l) }
	lp.OnLaunch = func() { call0(mv.handlers.Launch) }

	mp := mv.mods
	mp.OnRefresh = func() { call0(mv.handlers.RefreshMods) }
	mp.OnOpenFolder = func() { call0(mv.handlers.OpenModsFolder) }
	mp.OnDownloadURL = func(u string) { call1(mv.handlers.DownloadURL, u) }
	mp.OnCheckUpdates = func() { call0(mv.handlers.CheckUpdates) }
	mp.OnApplyUpdates = func(u []models.ModUpdate) { call1(mv.handlers.ApplyUpdates, u) }
	mp.OnDelete = func(mod models.InstalledMod) {
		dialog.ShowConfirm("Delete Mod", "Delete "+mod.Filename+"?", func(ok bool) {
			if ok {
				call1(mv.handlers.DeleteMod, mod)
			}
		}, mv.window)
	}

	bp := mv.browse
	bp.OnSearch = func(q string) { call1(mv.handlers.Search, q) }
	bp.OnSelect = func(hit models.SearchHit) { call1(mv.handlers.SelectProject, hit) }
	bp.OnDownload = func(v models.Version) { call1(mv.handlers.DownloadVersion, v) }
	bp.Icons = func(hit models.SearchHit, ready func()) string {
		if mv.handlers.Icon == nil {
			return ""
		}
		return mv.handlers.Icon(hit, ready)
	}

	sp := mv.settings
	sp.OnSave = func(s models.Settings) { call1(mv.handlers.SaveSettings, s) }
	sp.OnInvalid = func(err error) { dialog.ShowError(err, mv.window) }

	mv.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		var paths []string
		for _, u := range uris {
			if u.Scheme() == "file" {
				paths = append(paths, u.Path())
			}
		}
		if len(paths) > 0 {
			call1(mv.handlers.InstallFiles, paths)
		}
	})
}

func (mv *MainView) setupShortcuts() {
	c := mv.window.Canvas()
	add := func(key fyne.KeyName, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			fn()
		})
	}

	add(fyne.KeyL, func() { call0(mv.handlers.Launch) })
	add(fyne.KeyQ, func() { call0(mv.handlers.Quit) })
	for i, key := range []fyne.KeyName{fyne.Key1, fyne.Key2, fyne.Key3, fyne.Key4} {
		index := i
		add(key, func() { mv.tabs.SelectIndex(index) })
	}

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyF5 {
			call0(mv.handlers.RefreshMods)
		}
	})
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func call1[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}

// SetHandlers connects the view to the controller.
func (mv *MainView) SetHandlers(h Handlers) {
	mv.handlers = h
}

// UI update methods - safe to call from any goroutine

func (mv *MainView) SetSettings(s *models.Settings) {
	fyne.Do(func() {
		mv.launch.SetAuthMethod(s.AuthMethod)
		mv.launch.SetUsername(s.LastUsername)
		mv.launch.SetLoader(s.Loader)
		mv.settings.SetSettings(s)
	})
}

func (mv *MainView) SetVersions(versions []string, selected string) {
	fyne.Do(func() {
		mv.launch.SetVersions(versions, selected)
	})
}

func (mv *MainView) SetAccount(account *models.Account) {
	fyne.Do(func() {
		mv.launch.SetAccount(account)
		if account != nil {
			mv.statusBar.SetAccount("Microsoft: " + account.Username)
		} else {
			mv.statusBar.SetAccount("Offline")
		}
	})
}

func (mv *MainView) SetLoginPending(pending bool) {
	fyne.Do(func() {
		mv.launch.SetLoginPending(pending)
	})
}

// LaunchRequest reads the launch form. Call from the UI goroutine.
func (mv *MainView) LaunchRequest() models.LaunchRequest {
	return mv.launch.Request()
}

func (mv *MainView) SetLaunching(launching bool) {
	fyne.Do(func() {
		mv.launch.SetLaunching(launching)
	})
}

func (mv *MainView) SetLaunchStatus(status string) {
	fyne.Do(func() {
		mv.launch.SetStatus(status)
		mv.statusBar.SetStatus(status)
	})
}

func (mv *MainView) SetLaunchProgress(value, max int) {
	fyne.Do(func() {
		mv.launch.SetProgress(value, max)
	})
}

func (mv *MainView) SetLastPlayed(text string) {
	fyne.Do(func() {
		mv.launch.SetLastPlayed(text)
	})
}

func (mv *MainView) SetMods(mods []models.InstalledMod) {
	fyne.Do(func() {
		mv.mods.SetMods(mods)
		mv.statusBar.SetModCount(len(mods))
	})
}

func (mv *MainView) SetModUpdates(updates []models.ModUpdate) {
	fyne.Do(func() {
		mv.mods.SetUpdates(updates)
	})
}

func (mv *MainView) SetModsBusy(busy bool) {
	fyne.Do(func() {
		mv.mods.SetBusy(busy)
	})
}

func (mv *MainView) SetModsStatus(status string) {
	fyne.Do(func() {
		mv.mods.SetStatus(status)
		mv.statusBar.SetStatus(status)
	})
}

func (mv *MainView) ClearModURL() {
	fyne.Do(func() {
		mv.mods.ClearURL()
	})
}

func (mv *MainView) SetBrowseFilter(text string) {
	fyne.Do(func() {
		mv.browse.SetFilter(text)
	})
}

// BrowseQuery reads the search box. Call from the UI goroutine.
func (mv *MainView) BrowseQuery() string {
	return mv.browse.Query()
}

func (mv *MainView) SetSearchResults(hits []models.SearchHit) {
	fyne.Do(func() {
		mv.browse.SetResults(hits)
	})
}

func (mv *MainView) SetProject(project *models.Project) {
	fyne.Do(func() {
		mv.browse.SetProject(project)
	})
}

func (mv *MainView) SetProjectVersions(versions []models.Version) {
	fyne.Do(func() {
		mv.browse.SetVersions(versions)
	})
}

func (mv *MainView) SetBrowseDownloading(downloading bool) {
	fyne.Do(func() {
		mv.browse.SetDownloading(downloading)
	})
}

func (mv *MainView) SetBrowseStatus(status string) {
	fyne.Do(func() {
		mv.browse.SetStatus(status)
		mv.statusBar.SetStatus(status)
	})
}

func (mv *MainView) SetBackground(path string) {
	fyne.Do(func() {
		mv.background.SetImage(path)
	})
}

func (mv *MainView) SelectTab(index int) {
	fyne.Do(func() {
		mv.tabs.SelectIndex(index)
	})
}

// ShowError displays an error dialog
func (mv *MainView) ShowError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

// ShowInfo displays an information dialog
func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

// ShowConfirm displays a confirmation dialog
func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// GetWindow returns the main window
func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

// Show displays the view
func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

// Close closes the view
func (mv *MainView) Close() {
	fyne.Do(func() {
		mv.window.Close()
	})
}

// ViewState is a snapshot of what the view currently shows.
type ViewState struct {
	Tab         int
	Status      string
	Account     string
	Background  string
	ModCount    int
	ResultCount int
	Request     models.LaunchRequest
}

// GetViewState returns the current view state
func (mv *MainView) GetViewState() ViewState {
	return ViewState{
		Tab:         mv.tabs.SelectedIndex(),
		Status:      mv.statusBar.GetStatus(),
		Account:     mv.statusBar.GetAccount(),
		Background:  mv.background.Current(),
		ModCount:    len(mv.mods.Mods()),
		ResultCount: len(mv.browse.Results()),
		Request:     mv.launch.Request(),
	}
}
