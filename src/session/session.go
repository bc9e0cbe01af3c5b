package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"offlinemind/src/screen"
	"offlinemind/src/singleinstance"
)

var (
	ErrSuperseded        = errors.New("superseded by a newer request")
	ErrInvalidTransition = errors.New("invalid session transition")
)

type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventSubmit Event = iota
	EventComplete
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventSubmit:
		return "submit"
	case EventComplete:
		return "complete"
	case EventCancel:
		return "cancel"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Transition returns the state reached from s on e. Submitting while pending
// stays pending: the newer request replaces the older one.
func Transition(s State, e Event) (State, error) {
	switch {
	case e == EventSubmit:
		return Pending, nil
	case s == Pending && (e == EventComplete || e == EventCancel):
		return Idle, nil
	case s == Idle && e == EventCancel:
		return Idle, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// ResultTarget receives the outcome of a request that came from outside the
// popup, e.g. a delegated run-once client.
type ResultTarget interface {
	OnSuccess(text string) error
	OnFailure(err error) error
}

// Request is one inference round trip. A nil Anchor means the popup is centered.
type Request struct {
	ID       string
	Text     string
	Anchor   *screen.Point
	Language string
	Target   ResultTarget
}

func NewRequest(text string, anchor *screen.Point, language string) *Request {
	return &Request{ID: uuid.NewString(), Text: text, Anchor: anchor, Language: language}
}

// Session holds what the orchestrator remembers between events. It is owned by
// a single goroutine and is not safe for concurrent use.
type Session struct {
	state   State
	current *Request
	cancel  context.CancelFunc

	LastText string
	// Language is the dropdown selection; new requests are made in it.
	Language string
}

func New(language string) *Session {
	return &Session{Language: language}
}

func (s *Session) State() State { return s.state }

// Current returns the pending request, or nil when idle.
func (s *Session) Current() *Request { return s.current }

// Remember records the latest captured selection for later language changes.
// Language changes recenter the popup, so the anchor is not kept.
func (s *Session) Remember(text string) {
	s.LastText = text
}

// Begin makes req the pending request and returns the context its job must
// run under. A previously pending request is cancelled and returned.
func (s *Session) Begin(parent context.Context, req *Request, timeout time.Duration) (context.Context, *Request) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	superseded := s.CancelCurrent()

	next, _ := Transition(s.state, EventSubmit)
	s.state = next
	s.current = req

	var ctx context.Context
	if timeout > 0 {
		ctx, s.cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, s.cancel = context.WithCancel(parent)
	}
	return ctx, superseded
}

func (s *Session) IsCurrent(id string) bool {
	return s.current != nil && s.current.ID == id
}

// Complete finishes the request with the given id. It returns false for a
// result that belongs to a superseded request.
func (s *Session) Complete(id string) (*Request, bool) {
	if !s.IsCurrent(id) {
		return nil, false
	}
	req := s.current
	s.release(EventComplete)
	return req, true
}

// CancelCurrent cancels the pending request, if any, and returns it.
func (s *Session) CancelCurrent() *Request {
	if s.current == nil {
		return nil
	}
	req := s.current
	s.release(EventCancel)
	return req
}

func (s *Session) release(e Event) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.current = nil
	if next, err := Transition(s.state, e); err == nil {
		s.state = next
	}
}

// StdoutTarget prints the explanation, used by headless runs.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(text string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// DelegatedTarget answers a run-once client over its loopback connection.
type DelegatedTarget struct {
	Conn singleinstance.Conn
}

func (t DelegatedTarget) OnSuccess(text string) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	return t.Conn.RespondSuccess(text)
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if err == nil {
		return t.Conn.RespondError("unknown session error")
	}
	return t.Conn.RespondError(err.Error())
}

func (t DelegatedTarget) Close() error {
	if t.Conn == nil {
		return nil
	}
	return t.Conn.Close()
}
