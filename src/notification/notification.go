package notification

import (
	"log"

	"github.com/gen2brain/beeep"

	"offlinemind/src/logutil"
)

const maxMessageLen = 200

// notify is swapped in tests.
var notify = beeep.Notify

func init() {
	beeep.AppName = "Offlinemind"
}

// Warn shows a desktop notification without blocking the caller. Delivery
// failures are only logged.
func Warn(title, message string) {
	message = logutil.Truncate(message, maxMessageLen)
	log.Printf("%s: %s", title, message)
	go func() {
		if err := notify(title, message, ""); err != nil {
			log.Printf("Failed to show notification: %v", err)
		}
	}()
}
