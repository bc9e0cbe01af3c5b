//go:build !windows

package popup

import (
	"log"
	"sync"

	"fyne.io/fyne/v2"

	"offlinemind/src/screen"
)

var anchorNotice sync.Once

// placeNative has no portable way to move or raise a fyne window, so the
// popup falls back to being centered by the caller.
func placeNative(_ fyne.Window, anchor *screen.Point) bool {
	if anchor != nil {
		anchorNotice.Do(func() {
			log.Printf("Popup: cursor anchoring and always-on-top are unavailable on this platform, centering instead")
		})
	}
	return false
}
