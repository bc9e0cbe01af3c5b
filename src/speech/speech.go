// Package speech reads captured text aloud without blocking the caller.
package speech

import (
	"context"
	"errors"
	"log"
	"sync"

	"offlinemind/src/logutil"
)

const DefaultRate = 180

var ErrNoEngine = errors.New("no text-to-speech engine available")

// Engine speaks one utterance and returns when it finishes or ctx is cancelled.
type Engine interface {
	Say(ctx context.Context, text string, rate int) error
	Name() string
}

// EngineFactory creates an engine for a single utterance.
type EngineFactory func() (Engine, error)

// Announcer speaks text on a background goroutine. A new utterance cancels
// the one still playing.
type Announcer struct {
	newEngine EngineFactory
	rate      int
	enabled   bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	Enabled bool
	Rate    int
	Factory EngineFactory
}

func New(opts Options) *Announcer {
	rate := opts.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	factory := opts.Factory
	if factory == nil {
		factory = newPlatformEngine
	}
	return &Announcer{newEngine: factory, rate: rate, enabled: opts.Enabled}
}

// Speak returns immediately. Engine failures are logged and the utterance is skipped.
func (a *Announcer) Speak(ctx context.Context, text string) {
	if a == nil || !a.enabled || text == "" {
		return
	}

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	uttCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		engine, err := a.newEngine()
		if err != nil {
			log.Printf("speech: engine unavailable, skipping: %v", err)
			return
		}
		log.Printf("speech: %s speaking %q", engine.Name(), logutil.SanitizeForLogging(text))
		if err := engine.Say(uttCtx, text, a.rate); err != nil && uttCtx.Err() == nil {
			log.Printf("speech: %s failed: %v", engine.Name(), err)
		}
	}()
}

// Stop cancels the current utterance, if any.
func (a *Announcer) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
}

// Wait blocks until all started utterances have returned.
func (a *Announcer) Wait() { a.wg.Wait() }
