package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"offlinemind/src/clipboard"
	"offlinemind/src/config"
	"offlinemind/src/eventloop"
	"offlinemind/src/hotkey"
	"offlinemind/src/logutil"
	"offlinemind/src/notification"
	"offlinemind/src/popup"
	"offlinemind/src/runtimeinit"
	"offlinemind/src/screen"
	"offlinemind/src/selection"
	"offlinemind/src/session"
	"offlinemind/src/singleinstance"
	"offlinemind/src/speech"
	"offlinemind/src/tray"
)

const appID = "dev.offlinemind.app"

type mainOptions struct {
	runOnce  bool
	language string
	model    string
	url      string
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{BaseURLOverride: o.url, ModelOverride: o.model, LanguageOverride: o.language}
}

// explainClient is the part of singleinstance.Client used by run-once.
type explainClient interface {
	TryExplain(ctx context.Context, req singleinstance.Request) (bool, string, error)
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"offlinemind"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "offlinemind",
		Short:         "Explain the selected text with a local language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.runOnce {
				return runOnce(*opts, os.Stdout)
			}
			return runResident(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Explain the current selection once, print it and exit")
	cmd.Flags().StringVar(&opts.language, "language", "", "Target language (overrides DEFAULT_LANGUAGE)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (overrides MODEL)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Inference server base URL (overrides OLLAMA_URL)")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		for _, name := range []string{"run-once", "language", "model", "url"} {
			arg := normalized[i]
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

// runResident owns the hotkey, the popup and the run-once endpoint until quit.
func runResident(opts mainOptions) error {
	enableDPIAwareness()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:     opts.loadOptions(),
		SetupLogging:    logutil.Setup,
		WarnUnavailable: true,
		NeedClipboard:   true,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv singleinstance.Server
	server := singleinstance.NewServer()
	if err := server.Start(ctx); err != nil {
		detectCtx, detectCancel := context.WithTimeout(ctx, time.Second)
		port, running := singleinstance.DetectResidentPort(detectCtx)
		detectCancel()
		if running {
			fmt.Printf("one is already running on port %d\n", port)
			return fmt.Errorf("resident already running on port %d", port)
		}
		log.Printf("Run-once endpoint unavailable, continuing without it: %v", err)
	} else {
		srv = server
		defer server.Close()
	}

	log.Printf("Offlinemind initialized")
	log.Printf("Using model: %s at %s (%s)", cfg.Model, cfg.BaseURL, cfg.Provider)
	log.Printf("Hotkey: %s, default language: %s", cfg.Hotkey, cfg.DefaultLanguage)
	portStart, portEnd := singleinstance.PortRange()
	log.Printf("Run-once port range: %d-%d", portStart, portEnd)
	logDisplayConfiguration()

	a := app.NewWithID(appID)
	a.SetIcon(tray.Icon)
	a.Settings().SetTheme(popup.Theme())
	// Never shown; keeps the app alive when the popup closes and no tray is available.
	_ = a.NewWindow("Offlinemind")

	var loop *eventloop.Loop
	tr, _ := tray.New(a, tray.Config{
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Hotkey:    cfg.Hotkey,
		OnExplain: func() { loop.Trigger() },
		OnQuit:    cancel,
	})
	if srv != nil {
		tr.SetPort(srv.Port())
	}

	announcer := speech.New(speech.Options{Enabled: cfg.SpeechEnabled, Rate: cfg.SpeechRate})
	defer announcer.Stop()

	loop = eventloop.New(eventloop.Options{
		Capturer:       selection.New(clipboard.Accessor{}, time.Duration(cfg.CopyDelayMs)*time.Millisecond),
		Speaker:        announcer,
		Explain:        rt.LLM.Explain,
		Status:         tr,
		Language:       cfg.DefaultLanguage,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})
	loop.SetPresenter(popup.New(a, time.Duration(cfg.PopupTimeoutSec)*time.Second, loop.ChangeLanguage))

	if err := hotkey.Listen(cfg.Hotkey, loop.Trigger); err != nil {
		notification.Warn("Hotkey unavailable", err.Error())
		log.Printf("Hotkey registration failed: %v", err)
	}
	defer hotkey.Stop()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		if err := loop.Run(ctx, srv); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
		}
		fyne.Do(a.Quit)
	}()

	a.Run()
	return nil
}

// runOnce explains the current selection through the resident when one is
// running, otherwise on its own.
func runOnce(opts mainOptions, out io.Writer) error {
	// Load .env early so SINGLEINSTANCE_PORT_* are applied before delegation scan
	cfg, err := config.LoadWithOptions(opts.loadOptions())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	timeout := time.Duration(cfg.RequestTimeoutSec)*time.Second + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req := singleinstance.Request{Language: opts.language}
	text, err := handleRunOnceWithDelegation(ctx, req, singleinstance.NewClient(), func() (string, error) {
		return runStandalone(ctx, opts)
	})
	if err != nil {
		return err
	}
	return session.StdoutTarget{Writer: out}.OnSuccess(text)
}

func handleRunOnceWithDelegation(ctx context.Context, req singleinstance.Request, client explainClient, fallback func() (string, error)) (string, error) {
	delegated, text, err := client.TryExplain(ctx, req)
	if delegated {
		if err != nil {
			return "", fmt.Errorf("resident: %w", err)
		}
		log.Printf("Delegated to resident")
		return text, nil
	}
	if err != nil {
		log.Printf("Delegation error: %v; falling back to standalone", err)
	} else {
		log.Printf("No resident detected (not delegated), running standalone")
	}
	return fallback()
}

// runStandalone captures, speaks and explains without a resident or popup.
func runStandalone(ctx context.Context, opts mainOptions) (string, error) {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:   opts.loadOptions(),
		NeedClipboard: true,
	})
	if err != nil {
		return "", err
	}
	cfg := rt.Config

	capturer := selection.New(clipboard.Accessor{}, time.Duration(cfg.CopyDelayMs)*time.Millisecond)
	text, err := capturer.Capture(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", selection.ErrNothingSelected
	}

	announcer := speech.New(speech.Options{Enabled: cfg.SpeechEnabled, Rate: cfg.SpeechRate})
	announcer.Speak(ctx, text)
	defer announcer.Wait()

	log.Printf("Explaining %d characters in %s", len(text), cfg.DefaultLanguage)
	return rt.LLM.Explain(ctx, text, cfg.DefaultLanguage), nil
}

func logDisplayConfiguration() {
	displays := screen.Displays()
	log.Printf("MONITOR: Detected %d displays", len(displays))
	for i, d := range displays {
		log.Printf("MONITOR: #%d x:%d y:%d w:%d h:%d", i, d.X, d.Y, d.Width, d.Height)
	}
}
