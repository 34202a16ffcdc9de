package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
)

// zoomTheme scales every size of the base theme. It gives a single window its
// own zoom factor without touching the application scale.
type zoomTheme struct {
	base   fyne.Theme
	factor float32
}

func newZoomTheme(base fyne.Theme, factor float64) *zoomTheme {
	return &zoomTheme{base: base, factor: float32(factor)}
}

func (t *zoomTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return t.base.Color(name, variant)
}

func (t *zoomTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *zoomTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *zoomTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name) * t.factor
}
