package components

import (
	"voxel-launcher/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const versionsLoading = "Loading versions..."

// LaunchPanel holds the identity, version and loader pickers plus launch progress.
type LaunchPanel struct {
	container       *fyne.Container
	authSelect      *widget.Select
	usernameEntry   *widget.Entry
	loginButton     *widget.Button
	logoutButton    *widget.Button
	accountLabel    *widget.Label
	offlineBox      *fyne.Container
	microsoftBox    *fyne.Container
	versionSelect   *widget.Select
	loaderSelect    *widget.Select
	launchButton    *widget.Button
	progressBar     *widget.ProgressBar
	busyBar         *widget.ProgressBarInfinite
	statusLabel     *widget.Label
	lastPlayedLabel *widget.Label

	OnAuthChanged     func(models.AuthMethod)
	OnUsernameChanged func(string)
	OnLogin           func()
	OnLogout          func()
	OnVersionChanged  func(string)
	OnLoaderChanged   func(models.LoaderType)
	OnLaunch          func()

	// silent suppresses change callbacks while widgets are filled programmatically.
	silent bool
}

func NewLaunchPanel() *LaunchPanel {
	panel := &LaunchPanel{}
	panel.createComponents()
	panel.buildLayout()
	return panel
}

func (lp *LaunchPanel) createComponents() {
	lp.authSelect = widget.NewSelect(models.AuthMethods, func(method string) {
		lp.showIdentity(models.AuthMethod(method))
		if !lp.silent && lp.OnAuthChanged != nil {
			lp.OnAuthChanged(models.AuthMethod(method))
		}
	})

	lp.usernameEntry = widget.NewEntry()
	lp.usernameEntry.SetPlaceHolder("Username")
	lp.usernameEntry.OnChanged = func(name string) {
		if !lp.silent && lp.OnUsernameChanged != nil {
			lp.OnUsernameChanged(name)
		}
	}

	lp.loginButton = widget.NewButton("Login with Microsoft", func() {
		if lp.OnLogin != nil {
			lp.OnLogin()
		}
	})
	lp.logoutButton = widget.NewButton("Logout", func() {
		if lp.OnLogout != nil {
			lp.OnLogout()
		}
	})
	lp.logoutButton.Hide()
	lp.accountLabel = widget.NewLabel("Not logged in")

	lp.versionSelect = widget.NewSelect(nil, func(version string) {
		if !lp.silent && lp.OnVersionChanged != nil {
			lp.OnVersionChanged(version)
		}
	})
	lp.versionSelect.PlaceHolder = versionsLoading

	lp.loaderSelect = widget.NewSelect(models.LoaderTypes, func(loader string) {
		if !lp.silent && lp.OnLoaderChanged != nil {
			lp.OnLoaderChanged(models.LoaderType(loader))
		}
	})

	lp.launchButton = widget.NewButton("Launch", func() {
		if lp.OnLaunch != nil {
			lp.OnLaunch()
		}
	})
	lp.launchButton.Importance = widget.HighImportance

	lp.progressBar = widget.NewProgressBar()
	lp.busyBar = widget.NewProgressBarInfinite()
	lp.busyBar.Stop()
	lp.busyBar.Hide()

	lp.statusLabel = widget.NewLabel("Ready")
	lp.statusLabel.Wrapping = fyne.TextWrapWord
	lp.lastPlayedLabel = widget.NewLabel("")

	lp.silent = true
	lp.authSelect.SetSelected(string(models.AuthOffline))
	lp.loaderSelect.SetSelected(string(models.LoaderVanilla))
	lp.silent = false
}

func (lp *LaunchPanel) buildLayout() {
	lp.offlineBox = container.NewVBox(lp.usernameEntry)
	lp.microsoftBox = container.NewVBox(
		lp.accountLabel,
		container.NewHBox(lp.loginButton, lp.logoutButton),
	)
	lp.microsoftBox.Hide()

	form := widget.NewForm(
		widget.NewFormItem("Account", lp.authSelect),
		widget.NewFormItem("Player", container.NewStack(lp.offlineBox, lp.microsoftBox)),
		widget.NewFormItem("Version", lp.versionSelect),
		widget.NewFormItem("Loader", lp.loaderSelect),
	)

	lp.container = container.NewVBox(
		form,
		lp.launchButton,
		container.NewStack(lp.progressBar, lp.busyBar),
		lp.statusLabel,
		lp.lastPlayedLabel,
	)
}

func (lp *LaunchPanel) showIdentity(method models.AuthMethod) {
	if lp.offlineBox == nil {
		return
	}
	if method == models.AuthMicrosoft {
		lp.offlineBox.Hide()
		lp.microsoftBox.Show()
	} else {
		lp.microsoftBox.Hide()
		lp.offlineBox.Show()
	}
}

func (lp *LaunchPanel) SetAuthMethod(method models.AuthMethod) {
	lp.silent = true
	defer func() { lp.silent = false }()
	if method != models.AuthMicrosoft {
		method = models.AuthOffline
	}
	lp.authSelect.SetSelected(string(method))
	lp.showIdentity(method)
}

func (lp *LaunchPanel) SetUsername(name string) {
	lp.silent = true
	defer func() { lp.silent = false }()
	lp.usernameEntry.SetText(name)
}

// SetAccount shows who is signed in; nil means nobody.
func (lp *LaunchPanel) SetAccount(account *models.Account) {
	if account == nil {
		lp.accountLabel.SetText("Not logged in")
		lp.loginButton.Show()
		lp.logoutButton.Hide()
		return
	}
	lp.accountLabel.SetText("Logged in as " + account.Username)
	lp.loginButton.Hide()
	lp.logoutButton.Show()
}

func (lp *LaunchPanel) SetLoginPending(pending bool) {
	if pending {
		lp.loginButton.Disable()
		lp.accountLabel.SetText("Waiting for browser login...")
	} else {
		lp.loginButton.Enable()
	}
}

// SetVersions replaces the version choices and selects selected if present.
func (lp *LaunchPanel) SetVersions(versions []string, selected string) {
	lp.silent = true
	defer func() { lp.silent = false }()

	lp.versionSelect.Options = versions
	lp.versionSelect.PlaceHolder = "Select a version"
	if len(versions) == 0 {
		lp.versionSelect.PlaceHolder = versionsLoading
	}
	lp.versionSelect.ClearSelected()
	for _, v := range versions {
		if v == selected {
			lp.versionSelect.SetSelected(selected)
			break
		}
	}
	lp.versionSelect.Refresh()
}

func (lp *LaunchPanel) SetLoader(loader models.LoaderType) {
	lp.silent = true
	defer func() { lp.silent = false }()
	if loader == "" {
		loader = models.LoaderVanilla
	}
	lp.loaderSelect.SetSelected(string(loader))
}

// Request captures the current form state.
func (lp *LaunchPanel) Request() models.LaunchRequest {
	return models.LaunchRequest{
		Version:    lp.versionSelect.Selected,
		Loader:     models.LoaderType(lp.loaderSelect.Selected),
		AuthMethod: models.AuthMethod(lp.authSelect.Selected),
		Username:   lp.usernameEntry.Text,
	}
}

func (lp *LaunchPanel) SetLaunching(launching bool) {
	if launching {
		lp.launchButton.Disable()
		lp.authSelect.Disable()
		lp.versionSelect.Disable()
		lp.loaderSelect.Disable()
		return
	}
	lp.launchButton.Enable()
	lp.authSelect.Enable()
	lp.versionSelect.Enable()
	lp.loaderSelect.Enable()
	lp.busyBar.Stop()
	lp.busyBar.Hide()
	lp.progressBar.Show()
	lp.progressBar.SetValue(0)
}

func (lp *LaunchPanel) SetStatus(status string) {
	lp.statusLabel.SetText(status)
}

// SetProgress shows value/max; max == 0 switches to an indeterminate bar.
func (lp *LaunchPanel) SetProgress(value, max int) {
	if max <= 0 {
		lp.progressBar.Hide()
		lp.busyBar.Show()
		lp.busyBar.Start()
		return
	}
	lp.busyBar.Stop()
	lp.busyBar.Hide()
	lp.progressBar.Show()
	lp.progressBar.SetValue(float64(value) / float64(max))
}

func (lp *LaunchPanel) SetLastPlayed(text string) {
	lp.lastPlayedLabel.SetText(text)
}

func (lp *LaunchPanel) GetContainer() *fyne.Container {
	return lp.container
}
