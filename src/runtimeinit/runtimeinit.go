package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"offlinemind/src/clipboard"
	"offlinemind/src/config"
	"offlinemind/src/llm"
	"offlinemind/src/notification"
)

const defaultPingTimeout = 3 * time.Second

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// WarnUnavailable raises a desktop notification when the startup check fails.
	WarnUnavailable bool
	// NeedClipboard initialises the clipboard for selection capture.
	NeedClipboard bool
	PingTimeout   time.Duration

	// Overridable for tests.
	initClipboard func() error
	warn          func(title, message string)
}

type Runtime struct {
	Config *config.Config
	LLM    *llm.Client
}

// Bootstrap loads configuration, sets up logging and builds the inference
// client. An unreachable inference server is reported but is not fatal: the
// popup shows the error on each request until the server comes up.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	client := llm.New(llm.Config{
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		log.Printf("Inference server check failed: %v", err)
		if opts.WarnUnavailable {
			warn := opts.warn
			if warn == nil {
				warn = notification.Warn
			}
			warn("Inference server unavailable", llm.FormatError(err, cfg.Model))
		}
	} else {
		log.Printf("Inference server ping succeeded (%s, model %s)", cfg.BaseURL, cfg.Model)
	}

	if opts.NeedClipboard {
		initClipboard := opts.initClipboard
		if initClipboard == nil {
			initClipboard = clipboard.Init
		}
		if err := initClipboard(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	return &Runtime{Config: cfg, LLM: client}, nil
}
