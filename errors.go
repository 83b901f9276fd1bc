package di

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyFinalized is returned when Finalize is called more than
	// once on the same Result.
	ErrAlreadyFinalized = errors.New("result already finalized")

	// ErrTypeMismatch is returned by the generic accessors when a resolved
	// value cannot be asserted to the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// CycleError reports a dependency cycle. Path holds the offending keys in
// order, starting and ending at the key whose edge closed the cycle, e.g.
// ["key2", "key1", "key2"] or ["self", "self"].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic dependency detected: " + strings.Join(e.Path, " -> ")
}

// ResolveError tags a producer failure with the key that failed. A failure
// chain carries at most one ResolveError: the key closest to the root
// cause claims it, and every dependent above propagates it unchanged.
type ResolveError struct {
	Key   string
	Cause error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve %q because: %v", e.Key, e.Cause)
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// wrapResolve attributes err to key unless a key further down the chain
// already claimed the failure.
func wrapResolve(key string, err error) error {
	var re *ResolveError
	if errors.As(err, &re) {
		return err
	}
	return &ResolveError{Key: key, Cause: err}
}

// MissingDependencyError reports a read of a key that no binding or
// requirement provides. The original system caught this statically; here
// the check runs while the graph is wired, at the first access of the
// absent key.
type MissingDependencyError struct {
	Key string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("missing dependency %q: no binding or requirement provides it", e.Key)
}
