package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

type Point struct {
	X int
	Y int
}

// Rect is a display area in physical pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

func fromImageRect(b image.Rectangle) Rect {
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// CursorPosition returns the current mouse position in screen coordinates.
func CursorPosition() Point {
	x, y := robotgo.Location()
	return Point{X: x, Y: y}
}

// Displays returns the bounds of all active displays, primary first.
func Displays() []Rect {
	n := screenshot.NumActiveDisplays()
	out := make([]Rect, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fromImageRect(screenshot.GetDisplayBounds(i)))
	}
	return out
}

// Primary returns the bounds of the primary display
func Primary() (Rect, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return Rect{}, fmt.Errorf("no active displays found")
	}
	return fromImageRect(screenshot.GetDisplayBounds(0)), nil
}

// DisplayAt returns the display containing p, falling back to the primary display.
func DisplayAt(p Point) (Rect, error) {
	displays := Displays()
	if len(displays) == 0 {
		return Rect{}, fmt.Errorf("no active displays found")
	}
	return pickDisplay(displays, p), nil
}

func pickDisplay(displays []Rect, p Point) Rect {
	for _, d := range displays {
		if d.Contains(p) {
			return d
		}
	}
	return displays[0]
}
