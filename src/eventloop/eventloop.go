package eventloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"offlinemind/src/logutil"
	"offlinemind/src/popup"
	"offlinemind/src/screen"
	"offlinemind/src/selection"
	"offlinemind/src/session"
	"offlinemind/src/singleinstance"
	"offlinemind/src/worker"
)

const (
	BusyText   = "Busy, please retry"
	StatusIdle = "Idle"
	StatusBusy = "Thinking..."

	defaultRequestTimeout = 30 * time.Second
)

var ErrBusy = errors.New(BusyText)

type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string)
}

// Presenter displays the popup. Implementations marshal onto the UI thread.
type Presenter interface {
	Show(v popup.View)
	Close()
}

type StatusReporter interface {
	SetStatus(status string)
}

type Options struct {
	Capturer       Capturer
	Speaker        Speaker
	Presenter      Presenter
	Explain        worker.ExplainFunc
	Cursor         func() screen.Point
	Status         StatusReporter
	Language       string
	RequestTimeout time.Duration
	PoolSize       int
}

// Loop is the single-goroutine coordinator for hotkey, language-change and
// run-once flows. Only Run's goroutine touches the session.
type Loop struct {
	opts    Options
	session *session.Session
	pool    *worker.Pool

	results    chan worker.Result
	hotkeyCh   chan struct{}
	languageCh chan string
}

func New(opts Options) *Loop {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Cursor == nil {
		opts.Cursor = screen.CursorPosition
	}
	if opts.Language == "" {
		opts.Language = popup.Languages[0]
	}
	return &Loop{
		opts:       opts,
		session:    session.New(opts.Language),
		pool:       worker.New(opts.PoolSize, opts.Explain),
		results:    make(chan worker.Result, 1),
		hotkeyCh:   make(chan struct{}, 4),
		languageCh: make(chan string, 4),
	}
}

// SetPresenter attaches the popup once it exists; the popup needs the loop
// for its language callback.
func (l *Loop) SetPresenter(p Presenter) { l.opts.Presenter = p }

// Trigger posts a hotkey activation. Safe from any goroutine; extra presses
// beyond the buffer are dropped.
func (l *Loop) Trigger() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
		log.Printf("eventloop: hotkey queue full, dropping press")
	}
}

// ChangeLanguage posts a dropdown change. Safe from any goroutine.
func (l *Loop) ChangeLanguage(language string) {
	select {
	case l.languageCh <- language:
	default:
		log.Printf("eventloop: language queue full, dropping %s", language)
	}
}

// Run processes events until ctx is cancelled. srv may be nil when run-once
// delegation is not served.
func (l *Loop) Run(ctx context.Context, srv singleinstance.Server) error {
	defer l.pool.Close()
	l.setStatus(StatusIdle)

	var reqCh chan singleinstance.Conn
	if srv != nil {
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			for {
				conn, err := srv.Next(ctx)
				if err != nil {
					close(reqCh)
					return
				}
				reqCh <- conn
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleHotkey(ctx)
		case language := <-l.languageCh:
			l.handleLanguage(ctx, language)
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleHotkey(ctx context.Context) {
	log.Printf("handleHotkey: called")
	text, err := l.opts.Capturer.Capture(ctx)
	if err != nil {
		log.Printf("handleHotkey: capture failed: %v", err)
		return
	}
	if text == "" {
		log.Printf("handleHotkey: nothing selected")
		l.session.Remember("")
		return
	}
	anchor := l.opts.Cursor()
	l.session.Remember(text)
	l.speak(ctx, text)
	l.start(ctx, session.NewRequest(text, &anchor, l.session.Language))
}

func (l *Loop) handleLanguage(ctx context.Context, language string) {
	log.Printf("handleLanguage: %s", language)
	l.session.Language = language
	if l.session.LastText == "" {
		log.Printf("handleLanguage: no previous capture, nothing to re-request")
		return
	}
	l.start(ctx, session.NewRequest(l.session.LastText, nil, language))
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	target := session.DelegatedTarget{Conn: conn}
	r := conn.Request()
	language := r.Language
	if language == "" {
		language = l.session.Language
	}

	text := r.Text
	var anchor *screen.Point
	if text == "" {
		captured, err := l.opts.Capturer.Capture(ctx)
		if err != nil {
			finish(target, "", fmt.Errorf("capture failed: %w", err))
			return
		}
		if captured == "" {
			finish(target, "", selection.ErrNothingSelected)
			return
		}
		p := l.opts.Cursor()
		text, anchor = captured, &p
	}
	l.session.Remember(text)
	l.speak(ctx, text)

	req := session.NewRequest(text, anchor, language)
	req.Target = target
	l.start(ctx, req)
}

// start makes req the current request, shows the placeholder and hands the
// inference to the pool. Any request still in flight is cancelled.
func (l *Loop) start(ctx context.Context, req *session.Request) {
	jobCtx, superseded := l.session.Begin(ctx, req, l.opts.RequestTimeout)
	if superseded != nil {
		log.Printf("start: request %s superseded by %s", superseded.ID, req.ID)
		finish(superseded.Target, "", session.ErrSuperseded)
	}

	l.show(popup.View{Text: popup.ThinkingText, Anchor: req.Anchor, Language: req.Language})
	l.setStatus(StatusBusy)

	job := worker.Job{ID: req.ID, Text: req.Text, Language: req.Language}
	submitted := l.pool.Submit(jobCtx, job, func(res worker.Result) {
		select {
		case l.results <- res:
		case <-ctx.Done():
		}
	})
	if !submitted {
		log.Printf("start: worker pool busy, dropping request %s", req.ID)
		l.session.CancelCurrent()
		l.show(popup.View{Text: BusyText, Anchor: req.Anchor, Language: req.Language})
		finish(req.Target, "", ErrBusy)
		l.setStatus(StatusIdle)
	}
}

func (l *Loop) handleResult(res worker.Result) {
	req, ok := l.session.Complete(res.ID)
	if !ok {
		log.Printf("handleResult: dropping stale result %s", res.ID)
		return
	}
	l.setStatus(StatusIdle)
	if res.Err != nil {
		log.Printf("handleResult: request %s did not finish: %v", res.ID, res.Err)
		l.close()
		finish(req.Target, "", res.Err)
		return
	}
	log.Printf("handleResult: request %s done: %q", res.ID, logutil.Truncate(logutil.SanitizeForLogging(res.Text), 120))
	l.show(popup.View{Text: res.Text, Anchor: req.Anchor, Language: req.Language})
	finish(req.Target, res.Text, nil)
}

func (l *Loop) shutdown() {
	if req := l.session.CancelCurrent(); req != nil {
		finish(req.Target, "", context.Canceled)
	}
	l.close()
}

// finish reports the outcome to a request's target and releases it.
func finish(target session.ResultTarget, text string, err error) {
	if target == nil {
		return
	}
	if err != nil {
		if ferr := target.OnFailure(err); ferr != nil {
			log.Printf("finish: failed to report error: %v", ferr)
		}
	} else if serr := target.OnSuccess(text); serr != nil {
		log.Printf("finish: failed to deliver result: %v", serr)
	}
	if c, ok := target.(io.Closer); ok {
		_ = c.Close()
	}
}

func (l *Loop) speak(ctx context.Context, text string) {
	if l.opts.Speaker != nil {
		l.opts.Speaker.Speak(ctx, text)
	}
}

func (l *Loop) show(v popup.View) {
	if l.opts.Presenter != nil {
		l.opts.Presenter.Show(v)
	}
}

func (l *Loop) close() {
	if l.opts.Presenter != nil {
		l.opts.Presenter.Close()
	}
}

func (l *Loop) setStatus(status string) {
	if l.opts.Status != nil {
		l.opts.Status.SetStatus(status)
	}
}
