package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsJob(t *testing.T) {
	p := New(1, func(ctx context.Context, text, language string) string {
		return text + " in " + language
	})
	defer p.Close()

	done := make(chan Result, 1)
	ok := p.Submit(context.Background(), Job{ID: "a", Text: "word", Language: "German"}, func(r Result) { done <- r })
	require.True(t, ok)

	select {
	case r := <-done:
		require.Equal(t, Result{ID: "a", Text: "word in German"}, r)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
}

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := New(1, func(ctx context.Context, text, language string) string {
		started <- struct{}{}
		<-release
		return ""
	})
	defer p.Close()
	ctx := context.Background()

	// First job occupies the only worker, second fills the queue slot.
	require.True(t, p.Submit(ctx, Job{ID: "1"}, func(Result) {}))
	<-started
	require.True(t, p.Submit(ctx, Job{ID: "2"}, func(Result) {}))
	require.False(t, p.Submit(ctx, Job{ID: "3"}, func(Result) {}), "third submit must drop given 1-slot queue and one in-flight")

	close(release)
}

func TestPoolReportsCancellation(t *testing.T) {
	p := New(1, func(ctx context.Context, text, language string) string {
		<-ctx.Done()
		return "Error connecting to the inference server: context canceled"
	})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	require.True(t, p.Submit(ctx, Job{ID: "x"}, func(r Result) { done <- r }))
	cancel()

	r := <-done
	require.True(t, errors.Is(r.Err, context.Canceled))
}

func TestPoolSkipsAlreadyCancelledJob(t *testing.T) {
	called := false
	p := New(1, func(ctx context.Context, text, language string) string {
		called = true
		return ""
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan Result, 1)
	require.True(t, p.Submit(ctx, Job{ID: "x"}, func(r Result) { done <- r }))
	r := <-done
	p.Close()

	require.ErrorIs(t, r.Err, context.Canceled)
	require.False(t, called)
}

func TestPoolTimeoutIsNotCancellation(t *testing.T) {
	p := New(1, func(ctx context.Context, text, language string) string {
		<-ctx.Done()
		return "timed out"
	})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	done := make(chan Result, 1)
	require.True(t, p.Submit(ctx, Job{ID: "x"}, func(r Result) { done <- r }))

	r := <-done
	require.NoError(t, r.Err)
	require.Equal(t, "timed out", r.Text)
}
