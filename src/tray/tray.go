package tray

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type Config struct {
	Model     string
	BaseURL   string
	Hotkey    string
	OnExplain func()
	OnQuit    func()
}

// Tray is the system tray menu. Its labels may be updated from any goroutine.
type Tray struct {
	desk   desktop.App
	menu   *fyne.Menu
	status *fyne.MenuItem
	port   *fyne.MenuItem
}

// New installs the tray menu. It returns false when the driver has no system
// tray support.
func New(app fyne.App, cfg Config) (*Tray, bool) {
	desk, ok := app.(desktop.App)
	if !ok {
		log.Printf("tray: system tray not supported by this driver")
		return nil, false
	}

	explain := fyne.NewMenuItem(fmt.Sprintf("Explain selection (%s)", cfg.Hotkey), func() {
		if cfg.OnExplain != nil {
			cfg.OnExplain()
		}
	})
	status := fyne.NewMenuItem(statusLabel("Starting"), nil)
	status.Disabled = true
	model := fyne.NewMenuItem(fmt.Sprintf("Model: %s", cfg.Model), nil)
	model.Disabled = true
	server := fyne.NewMenuItem(fmt.Sprintf("Server: %s", cfg.BaseURL), nil)
	server.Disabled = true
	port := fyne.NewMenuItem("Resident port: none", nil)
	port.Disabled = true

	quit := fyne.NewMenuItem("Quit", func() {
		if cfg.OnQuit != nil {
			cfg.OnQuit()
		}
	})
	quit.IsQuit = true

	menu := fyne.NewMenu("Offlinemind",
		explain,
		fyne.NewMenuItemSeparator(),
		status,
		model,
		server,
		port,
		fyne.NewMenuItemSeparator(),
		quit,
	)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(Icon)

	return &Tray{desk: desk, menu: menu, status: status, port: port}, true
}

func statusLabel(status string) string { return "Status: " + status }

// SetStatus shows the orchestrator state in the menu.
func (t *Tray) SetStatus(status string) {
	if t == nil {
		return
	}
	fyne.Do(func() {
		t.status.Label = statusLabel(status)
		t.menu.Refresh()
	})
}

// SetPort shows the loopback port answering run-once requests.
func (t *Tray) SetPort(port int) {
	if t == nil || port <= 0 {
		return
	}
	fyne.Do(func() {
		t.port.Label = fmt.Sprintf("Resident port: %d", port)
		t.menu.Refresh()
	})
}
