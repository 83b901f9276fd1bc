package di

import (
	"context"
	"sort"

	"github.com/m3-usa/typesafe-di/ctxlog"
)

// Design is an immutable collection of bindings describing how to build an
// object graph. The zero value is an empty Design; Bind and Merge return
// new Designs and never mutate the receiver, so a Design can be shared and
// resolved concurrently.
type Design struct {
	bindings map[string]Binding
}

// NewDesign returns an empty Design.
func NewDesign() Design {
	return Design{bindings: make(map[string]Binding)}
}

// FromValues builds a Design in which every entry of values is a
// zero-dependency, zero-finalizer binding producing the literal value.
func FromValues(values map[string]any) Design {
	d := NewDesign()
	for key, value := range values {
		d.bindings[key] = Binding{Key: key, Produce: literal(value)}
	}
	return d
}

func literal(value any) ProduceFunc {
	return func(context.Context, Injector) (any, error) {
		return value, nil
	}
}

func (d Design) clone() Design {
	out := Design{bindings: make(map[string]Binding, len(d.bindings))}
	for key, b := range d.bindings {
		out.bindings[key] = b
	}
	return out
}

// Bind returns a new Design with an additional binding for key,
// overwriting any existing binding for the same key. The receiver is left
// untouched.
func (d Design) Bind(key string, produce ProduceFunc, opts ...BindOption) Design {
	b := Binding{Key: key, Produce: produce}
	for _, opt := range opts {
		opt(&b)
	}
	out := d.clone()
	out.bindings[key] = b
	return out
}

// BindResource binds a producer whose value owns its own cleanup: the
// binding's finalizer calls the produced value's Close method.
func (d Design) BindResource(key string, produce func(ctx context.Context, in Injector) (Closer, error)) Design {
	return d.Bind(key,
		func(ctx context.Context, in Injector) (any, error) {
			return produce(ctx, in)
		},
		WithFinalizer(func(ctx context.Context, value any) error {
			if c, ok := value.(Closer); ok {
				return c.Close(ctx)
			}
			return nil
		}))
}

// Merge returns the right-biased shallow union of the two Designs: on a
// key collision, other's binding wins. Neither input is mutated.
func (d Design) Merge(other Design) Design {
	out := d.clone()
	for key, b := range other.bindings {
		out.bindings[key] = b
	}
	return out
}

// Keys returns the bound keys in sorted order.
func (d Design) Keys() []string {
	keys := make([]string, 0, len(d.bindings))
	for key := range d.bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of bindings.
func (d Design) Len() int {
	return len(d.bindings)
}

// Resolve merges requirements into the Design as literal bindings and
// evaluates the whole graph. It returns the finished container together
// with a one-shot finalizer, or an error if a producer failed or a cycle
// was discovered while wiring.
func (d Design) Resolve(ctx context.Context, requirements map[string]any) (*Result, error) {
	merged := d.Merge(FromValues(requirements))
	return resolve(ctx, merged.bindings)
}

// Use resolves the Design, runs fn with the container, and finalizes the
// result exactly once, whether fn returns normally, returns an error, or
// panics. An error from fn takes precedence: it is returned after
// finalization completes, and a finalize failure is then only logged. When
// fn succeeds, Use returns the finalize error, if any.
func (d Design) Use(ctx context.Context, requirements map[string]any, fn func(ctx context.Context, c Container) error) (err error) {
	res, err := d.Resolve(ctx, requirements)
	if err != nil {
		return err
	}
	defer func() {
		ferr := res.Finalize(ctx)
		if err == nil {
			err = ferr
		} else if ferr != nil {
			ctxlog.FromContext(ctx).Warn("finalize failed after callback error", "error", ferr)
		}
	}()
	return fn(ctx, res.Container)
}
