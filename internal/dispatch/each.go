// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonpugh/ash/internal/transport"

	"golang.org/x/sync/errgroup"
)

type (
	// EachOptions configures a fan-out.
	EachOptions struct {
		// Parallel caps concurrent dispatches; values below 1 mean one at a time.
		Parallel int
		Stdout   io.Writer
		Stderr   io.Writer
		Timeout  time.Duration
	}

	// EachResult is the outcome for one target of a fan-out.
	EachResult struct {
		Alias  string
		Result *Result
		Err    error
	}
)

// Each runs command against every context. Output lines are prefixed with
// the alias name. Results are returned in the order of contexts; a failure on
// one target does not stop the others.
func (d *Dispatcher) Each(ctx context.Context, contexts []transport.Context, command []string, opts EachOptions) []EachResult {
	results := make([]EachResult, len(contexts))
	parallel := max(opts.Parallel, 1)

	var stdoutMu, stderrMu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for i, c := range contexts {
		results[i].Alias = c.Alias
		g.Go(func() error {
			prefix := fmt.Sprintf("[%s] ", c.Alias)
			stdout := NewPrefixWriter(opts.Stdout, prefix, &stdoutMu)
			stderr := NewPrefixWriter(opts.Stderr, prefix, &stderrMu)

			res, err := d.Run(ctx, Request{
				Context: c.WithTTY(false),
				Command: command,
				Stdout:  stdout,
				Stderr:  stderr,
				Timeout: opts.Timeout,
			})
			_ = stdout.Flush()
			_ = stderr.Flush()

			results[i].Result = res
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results
}
