package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// storiesTheme always renders the dark variant of its base theme with
// tighter padding, so the photo fills as much of the window as it can.
type storiesTheme struct {
	fyne.Theme
	padding float32
}

var _ fyne.Theme = (*storiesTheme)(nil)

// NewStoriesTheme wraps base.
func NewStoriesTheme(base fyne.Theme) fyne.Theme {
	return &storiesTheme{Theme: base, padding: 2}
}

func (t *storiesTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameBackground {
		return color.Black
	}
	return t.Theme.Color(name, theme.VariantDark)
}

func (t *storiesTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return t.padding
	}
	return t.Theme.Size(name)
}
