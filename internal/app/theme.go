package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// FlowCanvasTheme provides a custom theme for the application.
type FlowCanvasTheme struct{}

var _ fyne.Theme = (*FlowCanvasTheme)(nil)

func (t *FlowCanvasTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF} // matches the pending connection line
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0xEB, B: 0x3B, A: 0x80}
	case theme.ColorNameBackground:
		if variant == theme.VariantDark {
			return color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
		}
		return theme.DefaultTheme().Color(name, variant)
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *FlowCanvasTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *FlowCanvasTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *FlowCanvasTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 4 // toolbar sits tight against the canvas
	default:
		return theme.DefaultTheme().Size(name)
	}
}
