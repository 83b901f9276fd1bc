package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty design yields an empty container", func(t *testing.T) {
		res, err := NewDesign().Resolve(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Container)
	})

	t.Run("producers see requirements through the injector", func(t *testing.T) {
		design := NewDesign().
			Bind("greeting", func(ctx context.Context, in Injector) (any, error) {
				name, err := Get[string](ctx, in, "name")
				if err != nil {
					return nil, err
				}
				return "hello, " + name, nil
			})

		res, err := design.Resolve(ctx, map[string]any{"name": "gopher"})
		require.NoError(t, err)
		assert.Equal(t, "hello, gopher", res.Container["greeting"])
		assert.Equal(t, "gopher", res.Container["name"])
	})

	t.Run("every bound key lands in the container", func(t *testing.T) {
		design := NewDesign().
			Bind("a", func(ctx context.Context, in Injector) (any, error) {
				b, err := Get[int](ctx, in, "b")
				return b + 1, err
			}).
			Bind("b", func(ctx context.Context, in Injector) (any, error) {
				c, err := Get[int](ctx, in, "c")
				return c + 1, err
			})

		res, err := design.Resolve(ctx, map[string]any{"c": 1})
		require.NoError(t, err)
		assert.Equal(t, Container{"a": 3, "b": 2, "c": 1}, res.Container)
	})
}

func TestProducerRunsAtMostOnce(t *testing.T) {
	ctx := context.Background()

	var runs atomic.Int32
	design := NewDesign().
		Bind("shared", func(ctx context.Context, in Injector) (any, error) {
			runs.Add(1)
			return 7, nil
		}).
		Bind("left", func(ctx context.Context, in Injector) (any, error) {
			return Get[int](ctx, in, "shared")
		}).
		Bind("right", func(ctx context.Context, in Injector) (any, error) {
			return Get[int](ctx, in, "shared")
		})

	res, err := design.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, 7, res.Container["left"])
	assert.Equal(t, 7, res.Container["right"])
}

func TestResolveCycles(t *testing.T) {
	ctx := context.Background()

	t.Run("self dependency", func(t *testing.T) {
		design := NewDesign().
			Bind("self", func(ctx context.Context, in Injector) (any, error) {
				return in.Get(ctx, "self")
			})

		_, err := design.Resolve(ctx, map[string]any{})
		require.Error(t, err)
		assert.EqualError(t, err, `failed to resolve "self" because: cyclic dependency detected: self -> self`)

		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"self", "self"}, cycle.Path)
	})

	t.Run("mutual dependency", func(t *testing.T) {
		design := NewDesign().
			Bind("key1", func(ctx context.Context, in Injector) (any, error) {
				return in.Get(ctx, "key2")
			}).
			Bind("key2", func(ctx context.Context, in Injector) (any, error) {
				return in.Get(ctx, "key1")
			})

		_, err := design.Resolve(ctx, map[string]any{})
		require.Error(t, err)

		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		// Which producer wires the closing edge depends on scheduling, so
		// the path is one of the two rotations of the same cycle.
		assert.Regexp(t,
			`^failed to resolve "key[12]" because: cyclic dependency detected: (key1 -> key2 -> key1|key2 -> key1 -> key2)$`,
			err.Error())
	})
}

func TestMissingDependency(t *testing.T) {
	ctx := context.Background()

	design := NewDesign().
		Bind("app", func(ctx context.Context, in Injector) (any, error) {
			return in.Get(ctx, "config")
		})

	_, err := design.Resolve(ctx, nil)
	require.Error(t, err)

	var missing *MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "config", missing.Key)
	assert.EqualError(t, err,
		`failed to resolve "app" because: missing dependency "config": no binding or requirement provides it`)
}

func TestFailureWrappedOnce(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	design := NewDesign().
		Bind("a", func(ctx context.Context, in Injector) (any, error) {
			return in.Get(ctx, "b")
		}).
		Bind("b", func(ctx context.Context, in Injector) (any, error) {
			return in.Get(ctx, "c")
		}).
		Bind("c", func(ctx context.Context, in Injector) (any, error) {
			return nil, boom
		})

	_, err := design.Resolve(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The key closest to the root cause claims the failure; dependents
	// bubbling it up add no further context.
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to resolve"))

	var re *ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "c", re.Key)
	assert.EqualError(t, err, `failed to resolve "c" because: boom`)
}

func TestFailureSharedAcrossDependents(t *testing.T) {
	ctx := context.Background()

	var runs atomic.Int32
	design := NewDesign().
		Bind("flaky", func(ctx context.Context, in Injector) (any, error) {
			runs.Add(1)
			return nil, errors.New("no luck")
		}).
		Bind("left", func(ctx context.Context, in Injector) (any, error) {
			return in.Get(ctx, "flaky")
		}).
		Bind("right", func(ctx context.Context, in Injector) (any, error) {
			return in.Get(ctx, "flaky")
		})

	_, err := design.Resolve(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), runs.Load())
	assert.EqualError(t, err, `failed to resolve "flaky" because: no luck`)
}

func TestDeepChain(t *testing.T) {
	ctx := context.Background()

	// 200 bindings, each adding its index to its predecessor's value.
	design := NewDesign()
	for i := 1; i < 200; i++ {
		step := i
		design = design.Bind(fmt.Sprintf("key%d", step), func(ctx context.Context, in Injector) (any, error) {
			prev, err := Get[int](ctx, in, fmt.Sprintf("key%d", step-1))
			if err != nil {
				return nil, err
			}
			return prev + step, nil
		})
	}

	res, err := design.Resolve(ctx, map[string]any{"key0": 0})
	require.NoError(t, err)
	assert.Equal(t, 199*200/2, res.Container["key199"])
}

func TestInjectorEdgesRecordedBeforeEvaluation(t *testing.T) {
	ctx := context.Background()

	design := NewDesign().
		Bind("top", func(ctx context.Context, in Injector) (any, error) {
			if _, err := in.Get(ctx, "mid"); err != nil {
				return nil, err
			}
			return "top", nil
		}).
		Bind("mid", func(ctx context.Context, in Injector) (any, error) {
			// Closing the loop back to top must fail immediately rather
			// than deadlock on top's unfinished cell.
			if _, err := in.Get(ctx, "top"); err != nil {
				return nil, err
			}
			return "mid", nil
		})

	_, err := design.Resolve(ctx, nil)
	require.Error(t, err)

	var cycle *CycleError
	assert.ErrorAs(t, err, &cycle)
}
