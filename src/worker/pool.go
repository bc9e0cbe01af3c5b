package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"offlinemind/src/logutil"
)

// DefaultSize leaves room for a superseded job to unwind while its
// replacement starts.
const DefaultSize = 2

// ExplainFunc produces the text to display for one job. It reports failures
// inside the returned text, never as a separate error.
type ExplainFunc func(ctx context.Context, text, language string) string

// Job is one inference request.
type Job struct {
	ID       string
	Text     string
	Language string
}

// Result is delivered to the job's callback. Err is set only when the job's
// context was cancelled before it finished.
type Result struct {
	ID   string
	Text string
	Err  error
}

// ResultCallback is invoked on completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(Result)

// Pool is a fixed-size inference worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	explain   ExplainFunc
	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type job struct {
	ctx context.Context
	Job
	cb ResultCallback
}

// New creates a worker pool. Size defaults to DefaultSize when size<=0. Queue is 1 slot.
func New(size int, explain ExplainFunc) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{explain: explain, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

func (p *Pool) run(j job) {
	log.Printf("Worker: starting job %s (%d chars, language=%s): %q",
		j.ID, len(j.Text), j.Language, logutil.SanitizeForLogging(j.Text))
	res := Result{ID: j.ID}
	if err := j.ctx.Err(); errors.Is(err, context.Canceled) {
		res.Err = err
	} else {
		res.Text = p.explain(j.ctx, j.Text, j.Language)
		if err := j.ctx.Err(); errors.Is(err, context.Canceled) {
			res.Err = err
		}
	}
	log.Printf("Worker: job %s completed, text length=%d, err=%v", j.ID, len(res.Text), res.Err)
	j.cb(res)
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, j Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, Job: j, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work. Safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
