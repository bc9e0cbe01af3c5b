package clipboard

import (
	"errors"
	"fmt"
	"log"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

var ErrUnavailable = errors.New("no clipboard backend available")

type backend interface {
	read() (string, error)
	write(text string) error
	name() string
}

var (
	mu     sync.Mutex
	active backend
)

// Init selects the clipboard backend. golang.design/x/clipboard is preferred;
// when it cannot start (no X display, missing cgo libs) the command-line based
// atotto backend is used instead.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	err := clipboard.Init()
	if err == nil {
		active = designBackend{}
		return nil
	}
	log.Printf("clipboard: native backend unavailable: %v", err)

	if atotto.Unsupported {
		active = nil
		return ErrUnavailable
	}
	active = atottoBackend{}
	log.Printf("clipboard: using %s backend", active.name())
	return nil
}

// Read returns the current text content of the clipboard.
func Read() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return "", ErrUnavailable
	}
	return active.read()
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		return ErrUnavailable
	}
	if err := active.write(text); err != nil {
		return fmt.Errorf("%s clipboard write: %w", active.name(), err)
	}
	return nil
}

// Accessor adapts the package-level clipboard to the interfaces other packages consume.
type Accessor struct{}

func (Accessor) Read() (string, error)  { return Read() }
func (Accessor) Write(text string) error { return Write(text) }

type designBackend struct{}

func (designBackend) read() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (designBackend) write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (designBackend) name() string { return "native" }

type atottoBackend struct{}

func (atottoBackend) read() (string, error) { return atotto.ReadAll() }

func (atottoBackend) write(text string) error { return atotto.WriteAll(text) }

func (atottoBackend) name() string { return "command" }
