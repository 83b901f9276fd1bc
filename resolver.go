package di

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/m3-usa/typesafe-di/ctxlog"
)

// resolution owns the state of one Resolve call: the live graph, one
// memoization cell per key, and a logger tagged with the resolution id.
// Nothing here is shared across Resolve calls.
type resolution struct {
	graph  *Graph
	cells  map[string]*cell
	logger *slog.Logger
}

// cell is the per-key memoization slot. The producer runs at most once no
// matter how many dependents demand the key; done is closed when the
// outcome is in, and every waiter observes the same value or error.
type cell struct {
	binding Binding
	once    sync.Once
	done    chan struct{}
	value   any
	err     error
}

func newResolution(ctx context.Context, bindings map[string]Binding) *resolution {
	r := &resolution{
		graph:  NewGraph(),
		cells:  make(map[string]*cell, len(bindings)),
		logger: ctxlog.FromContext(ctx).With("resolution", uuid.NewString()),
	}
	for key, b := range bindings {
		r.cells[key] = &cell{binding: b, done: make(chan struct{})}
	}
	return r
}

// demand is the wrapped accessor for key. requestedBy attributes the
// access: empty for a top-level demand, otherwise the key whose producer
// is asking. The graph edge is recorded before any evaluation starts, so
// mutual references fail with a cycle error at first contact instead of
// deadlocking on each other's cells.
func (r *resolution) demand(ctx context.Context, key, requestedBy string) (any, error) {
	if requestedBy == "" {
		r.graph.AddNode(key)
	} else {
		r.logger.Debug("dependency edge", "from", requestedBy, "to", key)
		if err := r.graph.AddEdge(requestedBy, key); err != nil {
			return nil, err
		}
	}

	c, ok := r.cells[key]
	if !ok {
		return nil, &MissingDependencyError{Key: key}
	}

	c.start(ctx, r)

	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// start launches the producer on first demand. Running it in its own
// goroutine keeps long dependency chains off the waiters' stacks and lets
// independent producers overlap.
func (c *cell) start(ctx context.Context, r *resolution) {
	c.once.Do(func() {
		go func() {
			defer close(c.done)
			r.logger.Debug("producing", "key", c.binding.Key)
			value, err := c.binding.Produce(ctx, injector{res: r, forKey: c.binding.Key})
			if err != nil {
				c.err = wrapResolve(c.binding.Key, err)
				r.logger.Debug("producer failed", "key", c.binding.Key, "error", c.err)
				return
			}
			c.value = value
			r.logger.Debug("produced", "key", c.binding.Key)
		}()
	})
}

// injector attributes every read to the key whose producer holds it.
type injector struct {
	res    *resolution
	forKey string
}

func (in injector) Get(ctx context.Context, key string) (any, error) {
	return in.res.demand(ctx, key, in.forKey)
}

// resolve evaluates every binding concurrently and assembles the
// container. Resolution is all-or-nothing: the first failure aborts the
// call. Sibling producers are not canceled; they run to completion and
// their results are discarded.
func resolve(ctx context.Context, bindings map[string]Binding) (*Result, error) {
	r := newResolution(ctx, bindings)
	r.logger.Debug("resolving", "keys", len(bindings))

	var mu sync.Mutex
	container := make(Container, len(bindings))

	var group errgroup.Group
	for key := range bindings {
		key := key
		group.Go(func() error {
			value, err := r.demand(ctx, key, "")
			if err != nil {
				return err
			}
			mu.Lock()
			container[key] = value
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	levels := r.graph.DependenciesForEachDepth()
	r.logger.Debug("resolved", "levels", len(levels))

	return &Result{
		Container: container,
		bindings:  bindings,
		levels:    levels,
		logger:    r.logger,
	}, nil
}
