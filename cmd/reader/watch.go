package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/romangod6/spaceflight-reader/internal/display"
	"github.com/romangod6/spaceflight-reader/internal/search"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	retryCommand = ":retry"
	quitCommand  = ":quit"

	// drainGrace is added to the debounce and upstream timeout while waiting
	// for the last keyword after input ends.
	drainGrace = time.Second
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Search interactively, one keyword per line",
		Long: `Reads keywords from standard input. Every line replaces the current keyword;
typing quickly only searches once the input settles, and a slow response to an
older keyword is never printed over a newer one.

  :retry  search the current keyword again
  :quit   exit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps(opts, "reader-cli", true)
			if err != nil {
				return err
			}
			defer func() { _ = d.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &watcher{
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
				transform: d.transform,
				applied:   make(chan uint64, 1),
			}

			session := search.NewSession(d.service.Search, w.apply,
				search.WithDebounce(d.cfg.GetDebounce()),
				search.WithSessionLogger(d.logger),
				search.WithSessionMetrics(d.metrics),
			)
			defer session.Close()

			drain := d.cfg.GetDebounce() + d.cfg.GetUpstreamTimeout() + drainGrace
			return w.run(ctx, cmd.InOrStdin(), session, drain, d.logger)
		},
	}
}

type watcher struct {
	out       io.Writer
	errOut    io.Writer
	transform *display.Transformer
	applied   chan uint64
}

// apply prints the newest result. It runs under the session lock, so output
// never interleaves.
func (w *watcher) apply(u search.Update) {
	if u.Err != nil {
		fmt.Fprintln(w.errOut, search.LoadFailedMessage)
	} else {
		renderArticles(w.out, w.transform.TransformAll(u.Articles), u.Keyword)
	}

	select {
	case <-w.applied:
	default:
	}
	w.applied <- u.Generation
}

func (w *watcher) run(ctx context.Context, in io.Reader, session *search.Session, drain time.Duration, logger *zap.Logger) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		defer func() { readErr <- scanner.Err() }()
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return w.waitFor(ctx, session.Generation(), drain)
			}

			switch strings.TrimSpace(line) {
			case quitCommand:
				return nil
			case retryCommand:
				gen := session.Retry()
				logger.Debug("retrying search", zap.Uint64("generation", gen))
			default:
				session.Submit(line)
			}
		}
	}
}

// waitFor blocks until generation target has been applied, the context ends,
// or the drain window passes.
func (w *watcher) waitFor(ctx context.Context, target uint64, drain time.Duration) error {
	if target == 0 {
		return nil
	}

	timer := time.NewTimer(drain)
	defer timer.Stop()

	for {
		select {
		case gen := <-w.applied:
			if gen >= target {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timed out waiting for search results")
		case <-ctx.Done():
			return nil
		}
	}
}
