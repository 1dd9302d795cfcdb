package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"stories/internal/slideshow"
)

// prevZone is the share of the width, from the left edge, where a tap
// goes back.
const prevZone = 1.0 / 3

// holdSurface shows the active item and turns presses into hold gestures.
type holdSurface struct {
	widget.BaseWidget
	image   *canvas.Image
	caption *widget.Label
	content *fyne.Container

	handler slideshow.HoldHandler
	pressed bool
}

var (
	_ fyne.Widget         = (*holdSurface)(nil)
	_ desktop.Mouseable   = (*holdSurface)(nil)
	_ slideshow.Container = (*holdSurface)(nil)
)

func newHoldSurface() *holdSurface {
	h := &holdSurface{
		image:   canvas.NewImageFromImage(nil),
		caption: widget.NewLabel(""),
	}
	h.image.FillMode = canvas.ImageFillContain
	h.image.SetMinSize(fyne.NewSize(320, 240))
	h.caption.Alignment = fyne.TextAlignCenter
	h.caption.Hide()
	h.content = container.NewStack(h.image, container.NewCenter(h.caption))
	h.ExtendBaseWidget(h)
	return h
}

func (h *holdSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(h.content)
}

// BindHold implements slideshow.Container.
func (h *holdSurface) BindHold(handler slideshow.HoldHandler) {
	h.handler = handler
}

func (h *holdSurface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || h.handler == nil {
		return
	}
	h.pressed = true
	h.handler.OnHoldStart()
}

func (h *holdSurface) MouseUp(ev *desktop.MouseEvent) {
	if !h.pressed || h.handler == nil {
		return
	}
	h.pressed = false
	h.handler.OnHoldEnd(tapDirection(ev.Position.X, h.Size().Width))
}

// tapDirection maps a release at x on a surface of the given width to a
// navigation direction.
func tapDirection(x, width float32) slideshow.Direction {
	if width <= 0 {
		return slideshow.None
	}
	if x < width*prevZone {
		return slideshow.Backward
	}
	return slideshow.Forward
}

// SetImage shows a decoded image.
func (h *holdSurface) SetImage(img image.Image) {
	h.caption.Hide()
	h.image.Image = img
	h.image.Resource = nil
	h.image.Refresh()
}

// SetPlaceholder shows an icon with a caption, used for clips.
func (h *holdSurface) SetPlaceholder(res fyne.Resource, text string) {
	h.image.Image = nil
	h.image.Resource = res
	h.image.Refresh()
	h.caption.SetText(text)
	h.caption.Show()
}
