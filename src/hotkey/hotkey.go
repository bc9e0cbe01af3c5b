package hotkey

import (
	"fmt"
	"log"
	"runtime"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// DefaultCombo is used when no hotkey is configured.
const DefaultCombo = "F9"

type keyState struct {
	name     string
	rawcodes []uint16
	keycode  uint16
	pressed  bool
}

// combo tracks which keys of a hotkey combination are currently held.
type combo struct {
	mu      sync.Mutex
	name    string
	keys    []keyState
	latched bool
}

// newCombo resolves each key to the codes gohook reports for it. Rawcodes are
// Windows virtual key codes and only apply there; elsewhere rawcodes are
// platform keysyms, so matching relies on gohook's portable keycodes.
func newCombo(hotkeyConfig, goos string) (*combo, error) {
	c := &combo{name: hotkeyConfig}
	for _, keyName := range parseHotkey(hotkeyConfig) {
		var rawcodes []uint16
		if goos == "windows" {
			rawcodes = keyNameToRawcodes(keyName)
		}
		keycode, hasKeycode := gohook.Keycode[keyName]
		if len(rawcodes) == 0 && !hasKeycode {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", keyName)
			continue
		}
		c.keys = append(c.keys, keyState{name: keyName, rawcodes: rawcodes, keycode: keycode})
	}
	if len(c.keys) == 0 {
		return nil, fmt.Errorf("no valid keys in hotkey configuration '%s'", hotkeyConfig)
	}
	return c, nil
}

func (k *keyState) matches(ev gohook.Event) bool {
	for _, rawcode := range k.rawcodes {
		if ev.Rawcode == rawcode {
			return true
		}
	}
	return k.keycode != 0 && ev.Keycode == k.keycode
}

// handle updates key state for ev and reports whether the full combination
// has just been pressed. It fires once per press: a key of the combination
// must be released before it can fire again.
func (c *combo) handle(ev gohook.Event) bool {
	if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyHold && ev.Kind != gohook.KeyUp {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Kind == gohook.KeyUp {
		for i := range c.keys {
			if c.keys[i].matches(ev) && c.keys[i].pressed {
				c.keys[i].pressed = false
				c.latched = false
				log.Printf("%s released", c.keys[i].name)
			}
		}
		return false
	}

	for i := range c.keys {
		if c.keys[i].matches(ev) {
			c.keys[i].pressed = true
		}
	}
	if c.latched {
		return false
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	c.latched = true
	return true
}

// Listen registers a global hotkey and invokes callback on every activation,
// from the hook goroutine. A panicking callback is logged and the listener
// keeps running.
func Listen(hotkeyConfig string, callback func()) error {
	if strings.TrimSpace(hotkeyConfig) == "" {
		hotkeyConfig = DefaultCombo
	}
	c, err := newCombo(hotkeyConfig, runtime.GOOS)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		for ev := range evChan {
			if c.handle(ev) {
				log.Printf("Hotkey activated: %s", hotkeyConfig)
				invoke(callback)
			}
		}
		log.Printf("Event channel closed")
	}()
	return nil
}

// Stop ends the global hook started by Listen.
func Stop() {
	gohook.End()
}

func invoke(callback func()) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Hotkey callback panicked: %v", r)
		}
	}()
	callback()
}

// keyAliases folds alternative spellings onto the names used for matching.
var keyAliases = map[string]string{
	"win":    "cmd",
	"super":  "cmd",
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// parseHotkey splits a combo like "Ctrl+Alt+q" into lowercase key names.
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if part == "win" || part == "super" {
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// Windows virtual key codes for keys outside the letter, digit and F-key runs.
// Modifiers list their left and right variants.
var namedVirtualKeys = map[string][]uint16{
	"ctrl":      {0xA2, 0xA3},
	"alt":       {0xA4, 0xA5},
	"shift":     {0xA0, 0xA1},
	"cmd":       {0x5B, 0x5C},
	"space":     {0x20},
	"enter":     {0x0D},
	"esc":       {0x1B},
	"tab":       {0x09},
	"backspace": {0x08},
	"delete":    {0x2E},
	"insert":    {0x2D},
	"home":      {0x24},
	"end":       {0x23},
	"pageup":    {0x21},
	"pagedown":  {0x22},
	"left":      {0x25},
	"up":        {0x26},
	"right":     {0x27},
	"down":      {0x28},
}

// keyNameToRawcodes returns the Windows virtual key codes gohook reports as
// Rawcode for keyName, or nil when the key is unknown.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := keyAliases[keyName]; ok {
		keyName = alias
	}
	if codes, ok := namedVirtualKeys[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		switch c := keyName[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 0x41}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 0x30}
		}
	}
	if rest, ok := strings.CutPrefix(keyName, "f"); ok {
		if n, err := strconv.ParseUint(rest, 10, 8); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(n-1) + 0x70} // VK_F1..VK_F24
		}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
