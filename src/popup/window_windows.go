//go:build windows

package popup

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"offlinemind/src/screen"
)

const lwaAlpha = 0x2

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

// placeNative makes the popup topmost and translucent, then positions it near
// the anchor (or centers it on the primary display). Reports false when no
// native handle is available.
func placeNative(w fyne.Window, anchor *screen.Point) bool {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return false
	}
	placed := false
	nw.RunNative(func(ctx any) {
		wc, ok := ctx.(driver.WindowsWindowContext)
		if !ok || wc.HWND == 0 {
			return
		}
		hwnd := win.HWND(wc.HWND)

		exStyle := win.GetWindowLong(hwnd, win.GWL_EXSTYLE)
		win.SetWindowLong(hwnd, win.GWL_EXSTYLE, exStyle|win.WS_EX_LAYERED|win.WS_EX_TOOLWINDOW)
		if r, _, err := procSetLayeredWindowAttributes.Call(uintptr(hwnd), 0, uintptr(panelAlpha), lwaAlpha); r == 0 {
			log.Printf("Popup: SetLayeredWindowAttributes failed: %v", err)
		}

		var rect win.RECT
		if !win.GetWindowRect(hwnd, &rect) {
			log.Printf("Popup: GetWindowRect failed")
			return
		}
		display, err := displayFor(anchor)
		if err != nil {
			log.Printf("Popup: %v", err)
			return
		}
		pos := Placement(anchor, int(rect.Right-rect.Left), int(rect.Bottom-rect.Top), display)
		if !win.SetWindowPos(hwnd, win.HWND_TOPMOST, int32(pos.X), int32(pos.Y), 0, 0, win.SWP_NOSIZE|win.SWP_NOACTIVATE) {
			log.Printf("Popup: SetWindowPos failed")
			return
		}
		placed = true
	})
	return placed
}

func displayFor(anchor *screen.Point) (screen.Rect, error) {
	if anchor != nil {
		return screen.DisplayAt(*anchor)
	}
	return screen.Primary()
}
