//go:build !windows

package speech

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// commandEngine drives a speech synthesizer shipped with the OS.
type commandEngine struct {
	path string
	args func(text string, rate int) []string
}

func (e commandEngine) Name() string { return e.path }

func (e commandEngine) Say(ctx context.Context, text string, rate int) error {
	cmd := exec.CommandContext(ctx, e.path, e.args(guardLeadingDash(text), rate)...)
	return cmd.Run()
}

type candidate struct {
	binary string
	args   func(text string, rate int) []string
}

func candidatesFor(goos string) []candidate {
	if goos == "darwin" {
		return []candidate{{binary: "say", args: func(text string, rate int) []string {
			return []string{"-r", strconv.Itoa(rate), text}
		}}}
	}
	espeak := func(text string, rate int) []string {
		return []string{"-s", strconv.Itoa(rate), text}
	}
	return []candidate{
		{binary: "espeak-ng", args: espeak},
		{binary: "espeak", args: espeak},
		{binary: "spd-say", args: func(text string, rate int) []string {
			return []string{"-w", "-r", strconv.Itoa(spdRate(rate)), text}
		}},
	}
}

func newPlatformEngine() (Engine, error) {
	return lookupEngine(runtime.GOOS, exec.LookPath)
}

func lookupEngine(goos string, lookPath func(string) (string, error)) (Engine, error) {
	for _, c := range candidatesFor(goos) {
		if p, err := lookPath(c.binary); err == nil {
			return commandEngine{path: p, args: c.args}, nil
		}
	}
	return nil, ErrNoEngine
}

// spdRate maps words per minute onto speech-dispatcher's -100..100 scale,
// where 0 is the voice default of roughly 180 wpm.
func spdRate(wpm int) int {
	return clamp((wpm-DefaultRate)/2, -100, 100)
}

// guardLeadingDash keeps text such as "-v" from being parsed as a flag.
func guardLeadingDash(text string) string {
	if strings.HasPrefix(text, "-") {
		return " " + text
	}
	return text
}
