//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// dpiAwarenessCall is one way of opting into DPI awareness. ok interprets the
// return value of the call.
type dpiAwarenessCall struct {
	dll, proc string
	args      []uintptr
	ok        func(ret uintptr) bool
}

// dpiAwarenessCalls are tried in order until one succeeds. Per-monitor
// awareness keeps popup coordinates in physical pixels on mixed-DPI setups.
var dpiAwarenessCalls = []dpiAwarenessCall{
	{
		dll: "Shcore.dll", proc: "SetProcessDpiAwareness",
		args: []uintptr{processPerMonitorDPIAware},
		ok:   func(ret uintptr) bool { return ret == 0 }, // S_OK
	},
	{
		dll: "user32.dll", proc: "SetProcessDPIAware",
		ok: func(ret uintptr) bool { return ret != 0 },
	},
}

func enableDPIAwareness() {
	for _, c := range dpiAwarenessCalls {
		proc := windows.NewLazySystemDLL(c.dll).NewProc(c.proc)
		if err := proc.Find(); err != nil {
			log.Printf("DPI: %s.%s not available", c.dll, c.proc)
			continue
		}
		ret, _, _ := proc.Call(c.args...)
		if c.ok(ret) {
			log.Printf("DPI: enabled via %s.%s", c.dll, c.proc)
			return
		}
		log.Printf("DPI: %s.%s failed, code %d", c.dll, c.proc, ret)
	}
	log.Printf("DPI: no DPI awareness set")
}
