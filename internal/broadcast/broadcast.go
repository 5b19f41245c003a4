// Package broadcast sends one message to many recipients, one at a time.
package broadcast

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SendFunc delivers the message to a single recipient
type SendFunc func(ctx context.Context, recipient int64) error

type Options struct {
	Delay         time.Duration // pause between sends
	ProgressEvery int           // call OnProgress after every N-th success, 0 disables
	OnProgress    func(sent, total int)
	Logger        *zap.Logger
}

type Result struct {
	Total  int
	Sent   int
	Failed int
}

// Run sends to every recipient in order. Failed sends are counted and skipped.
// Cancelling ctx does not stop a started run.
func Run(ctx context.Context, recipients []int64, send SendFunc, opts Options) Result {
	ctx = context.WithoutCancel(ctx)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := Result{Total: len(recipients)}
	for i, id := range recipients {
		if err := send(ctx, id); err != nil {
			res.Failed++
			logger.Debug("Broadcast send failed", zap.Int64("recipient", id), zap.Error(err))
		} else {
			res.Sent++
			if opts.ProgressEvery > 0 && opts.OnProgress != nil && res.Sent%opts.ProgressEvery == 0 {
				opts.OnProgress(res.Sent, res.Total)
			}
		}

		if opts.Delay > 0 && i < len(recipients)-1 {
			time.Sleep(opts.Delay)
		}
	}
	return res
}
