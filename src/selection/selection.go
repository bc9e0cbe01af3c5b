// Package selection captures the text currently selected in the foreground
// application by simulating the platform copy shortcut.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
)

const DefaultDelay = 100 * time.Millisecond

var ErrNothingSelected = errors.New("no text selected")

// Clipboard is the subset of clipboard access the capturer needs.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// CopyFunc sends the copy shortcut to the focused window.
type CopyFunc func() error

type Capturer struct {
	Clipboard Clipboard
	Copy      CopyFunc
	Delay     time.Duration
}

// New returns a Capturer that taps the platform copy shortcut with robotgo.
func New(cb Clipboard, delay time.Duration) *Capturer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Capturer{Clipboard: cb, Copy: TapCopy, Delay: delay}
}

// Capture returns the trimmed selection, or "" when nothing was selected.
// The clipboard is cleared before copying so stale content is never mistaken
// for a selection; it is restored when the copy produced nothing.
func (c *Capturer) Capture(ctx context.Context) (string, error) {
	if c.Clipboard == nil || c.Copy == nil {
		return "", errors.New("capturer not configured")
	}

	previous, err := c.Clipboard.Read()
	if err != nil {
		log.Printf("selection: could not snapshot clipboard: %v", err)
	}
	if err := c.Clipboard.Write(""); err != nil {
		log.Printf("selection: could not clear clipboard: %v", err)
	}

	if err := c.Copy(); err != nil {
		c.restore(previous)
		return "", fmt.Errorf("copy shortcut: %w", err)
	}

	select {
	case <-ctx.Done():
		c.restore(previous)
		return "", ctx.Err()
	case <-time.After(c.Delay):
	}

	text, err := c.Clipboard.Read()
	if err != nil {
		c.restore(previous)
		return "", fmt.Errorf("read clipboard: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.restore(previous)
	}
	return text, nil
}

func (c *Capturer) restore(previous string) {
	if previous == "" {
		return
	}
	if err := c.Clipboard.Write(previous); err != nil {
		log.Printf("selection: could not restore clipboard: %v", err)
	}
}

// TapCopy presses cmd+c on macOS and ctrl+c elsewhere.
func TapCopy() error {
	return robotgo.KeyTap("c", copyModifier(runtime.GOOS))
}

func copyModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
