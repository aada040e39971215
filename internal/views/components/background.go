package components

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// Background shows a full-window image behind the page content with a
// translucent scrim so text stays readable.
type Background struct {
	container *fyne.Container
	image     *canvas.Image
	scrim     *canvas.Rectangle
	current   string
}

func NewBackground() *Background {
	bg := &Background{}
	bg.createComponents()
	bg.setupLayout()
	return bg
}

func (bg *Background) createComponents() {
	bg.image = canvas.NewImageFromFile("")
	bg.image.FillMode = canvas.ImageFillStretch
	bg.image.ScaleMode = canvas.ImageScaleSmooth
	bg.image.Hide()

	bg.scrim = canvas.NewRectangle(color.NRGBA{R: 16, G: 16, B: 16, A: 170})
}

func (bg *Background) setupLayout() {
	bg.container = container.NewStack(bg.image, bg.scrim)
}

// SetImage switches to the image at path; "" hides the image.
func (bg *Background) SetImage(path string) {
	bg.current = path
	if path == "" {
		bg.image.Hide()
		return
	}
	bg.image.File = path
	bg.image.Show()
	bg.image.Refresh()
}

// Current returns the path being shown.
func (bg *Background) Current() string {
	return bg.current
}

func (bg *Background) GetContainer() *fyne.Container {
	return bg.container
}
