package di

import "context"

// ProduceFunc computes the value for one key. It may read other keys
// through the injector; every read is attributed to this key as a
// dependency edge before the value is fetched.
type ProduceFunc func(ctx context.Context, in Injector) (any, error)

// FinalizeFunc releases a produced value during Result.Finalize. It
// receives the settled container value for its key.
type FinalizeFunc func(ctx context.Context, value any) error

// Injector is the view a producer gets of the rest of the graph. Get
// returns the memoized value for key, recording the dependency edge as a
// side effect, and blocks until that key's single evaluation settles.
type Injector interface {
	Get(ctx context.Context, key string) (any, error)
}

// Closer is implemented by resource values that own their cleanup, used
// with [Design.BindResource].
type Closer interface {
	Close(ctx context.Context) error
}

// Binding is one named unit of a Design: a key, its producer, and an
// optional finalizer. Bindings are immutable once added to a Design.
type Binding struct {
	Key      string
	Produce  ProduceFunc
	Finalize FinalizeFunc // nil means nothing to clean up
}

// Container is the final key to value mapping of one resolution.
type Container map[string]any
