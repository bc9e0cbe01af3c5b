package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"offlinemind/src/singleinstance"
)

type stressOptions struct {
	n        int
	text     string
	language string
	deadline time.Duration
}

type counts struct {
	ok         int32
	busy       int32
	superseded int32
	err        int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-explain",
		Short:         "Stress test explain delegation to the resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, singleinstance.NewClient, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.text, "text", "ubiquitous", "text each client asks about (empty: resident captures the selection)")
	cmd.Flags().StringVar(&opts.language, "language", "", "target language (empty: resident default)")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(opts stressOptions, newClient func() singleinstance.Client, out io.Writer) error {
	var wg sync.WaitGroup
	var c counts

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().TryExplain(ctx, singleinstance.Request{Text: opts.text, Language: opts.language})
			c.record(delegated, err)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	fmt.Fprintf(out, "launched=%d ok=%d busy=%d superseded=%d err=%d elapsed=%s\n",
		opts.n, c.ok, c.busy, c.superseded, c.err, elapsed)
	return nil
}

func (c *counts) record(delegated bool, err error) {
	if err != nil {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "busy"):
			atomic.AddInt32(&c.busy, 1)
		case strings.Contains(msg, "superseded"):
			atomic.AddInt32(&c.superseded, 1)
		default:
			atomic.AddInt32(&c.err, 1)
		}
		return
	}
	if delegated {
		atomic.AddInt32(&c.ok, 1)
		return
	}
	atomic.AddInt32(&c.err, 1)
}
