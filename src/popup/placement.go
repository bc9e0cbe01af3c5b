package popup

import "offlinemind/src/screen"

// anchorOffset puts the panel slightly up and left of the cursor.
const anchorOffset = 10

// Placement returns the top-left corner for a panel of the given size.
// With an anchor the panel sits just above-left of it and is kept inside the
// display; without one it is centered on the display.
func Placement(anchor *screen.Point, width, height int, display screen.Rect) screen.Point {
	if anchor == nil {
		return screen.Point{
			X: display.X + (display.Width-width)/2,
			Y: display.Y + (display.Height-height)/2,
		}
	}
	return screen.Point{
		X: clampAxis(anchor.X-anchorOffset, width, display.X, display.Width),
		Y: clampAxis(anchor.Y-anchorOffset, height, display.Y, display.Height),
	}
}

func clampAxis(v, size, origin, span int) int {
	maxV := origin + span - size
	if v > maxV {
		v = maxV
	}
	if v < origin {
		v = origin
	}
	return v
}
