package di

import (
	"context"
	"fmt"
	"reflect"
)

// Get resolves key through the injector and asserts the value to T. It is
// the recommended way for a producer to read its dependencies:
//
//	port, err := di.Get[int](ctx, in, "port")
func Get[T any](ctx context.Context, in Injector, key string) (T, error) {
	var zero T

	value, err := in.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	out, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %s", ErrTypeMismatch, key, value, typeOf[T]())
	}
	return out, nil
}

// ValueOf reads key from a finished container and asserts the value to T:
//
//	srv, err := di.ValueOf[*Server](res.Container, "server")
func ValueOf[T any](c Container, key string) (T, error) {
	var zero T

	value, ok := c[key]
	if !ok {
		return zero, &MissingDependencyError{Key: key}
	}

	out, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %s", ErrTypeMismatch, key, value, typeOf[T]())
	}
	return out, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
