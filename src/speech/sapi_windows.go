//go:build windows

package speech

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const (
	svsFlagsAsync        = 1
	svsfPurgeBeforeSpeak = 2
	sFalse               = 1
	waitSliceMs          = 100
)

// sapiEngine speaks through the Windows Speech API (SAPI.SpVoice).
type sapiEngine struct{}

func newPlatformEngine() (Engine, error) { return sapiEngine{}, nil }

func (sapiEngine) Name() string { return "sapi" }

func (sapiEngine) Say(ctx context.Context, text string, rate int) error {
	// COM apartments are per OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("%w: coinitialize: %v", ErrNoEngine, err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return fmt.Errorf("%w: create SpVoice: %v", ErrNoEngine, err)
	}
	defer unknown.Release()

	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("%w: query SpVoice: %v", ErrNoEngine, err)
	}
	defer voice.Release()

	if _, err := oleutil.PutProperty(voice, "Rate", sapiRate(rate)); err != nil {
		return fmt.Errorf("set rate: %w", err)
	}
	if _, err := oleutil.CallMethod(voice, "Speak", text, svsFlagsAsync); err != nil {
		return fmt.Errorf("speak: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_, _ = oleutil.CallMethod(voice, "Speak", "", svsfPurgeBeforeSpeak)
			return ctx.Err()
		default:
		}
		done, err := oleutil.CallMethod(voice, "WaitUntilDone", waitSliceMs)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		finished, _ := done.Value().(bool)
		_ = done.Clear()
		if finished {
			return nil
		}
	}
}
