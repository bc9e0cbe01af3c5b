package popup

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// darkTheme pins the default theme to its dark variant so popup text stays
// readable on the dark panel regardless of the desktop setting.
type darkTheme struct{ fyne.Theme }

// Theme returns the application theme used with the popup.
func Theme() fyne.Theme { return darkTheme{theme.DefaultTheme()} }

func (t darkTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, theme.VariantDark)
}
