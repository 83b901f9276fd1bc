package di

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BatchRunner executes the finalizer tasks of one dependency level. The
// next level does not start until the runner returns, so a runner controls
// both the concurrency within a level and what a level failure means.
type BatchRunner func(ctx context.Context, tasks []func(context.Context) error) error

// defaultBatchRunner runs the whole batch concurrently and reports the
// first error after every task has settled.
func defaultBatchRunner(ctx context.Context, tasks []func(context.Context) error) error {
	var group errgroup.Group
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			return task(ctx)
		})
	}
	return group.Wait()
}

// Result is the outcome of one successful Resolve call: the finished
// container plus a one-shot finalizer armed with the dependency ordering
// captured at resolution time.
type Result struct {
	Container Container

	bindings  map[string]Binding
	levels    [][]string
	logger    *slog.Logger
	finalized atomic.Bool
}

// Finalize runs every binding's finalizer, one dependency level at a time:
// the most dependent keys first, finishing with the keys nothing else
// depends on. Finalizers within a level run as one batch through the
// configured [BatchRunner]; a level must settle before the next begins.
//
// Cleanup is best-effort: a failing level does not stop later levels. The
// first failure is remembered and returned once every level has run.
// Calling Finalize a second time returns [ErrAlreadyFinalized].
func (r *Result) Finalize(ctx context.Context, opts ...FinalizeOption) error {
	if !r.finalized.CompareAndSwap(false, true) {
		return ErrAlreadyFinalized
	}

	cfg := finalizeConfig{runner: defaultBatchRunner}
	for _, opt := range opts {
		opt(&cfg)
	}

	var firstErr error
	for depth, level := range r.levels {
		var tasks []func(context.Context) error
		for _, key := range level {
			b, ok := r.bindings[key]
			if !ok || b.Finalize == nil {
				continue
			}
			value := r.Container[key]
			finalize := b.Finalize
			tasks = append(tasks, func(ctx context.Context) error {
				return finalize(ctx, value)
			})
		}
		if len(tasks) == 0 {
			continue
		}

		r.logger.Debug("finalizing level", "depth", depth, "keys", level)
		if err := cfg.runner(ctx, tasks); err != nil {
			r.logger.Warn("finalizer level failed", "depth", depth, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
