package di

// BindOption configures a binding during [Design.Bind].
type BindOption func(*Binding)

// WithFinalizer attaches a cleanup function to the binding. The finalizer
// runs during [Result.Finalize], after the finalizers of every key that
// depends on this one.
func WithFinalizer(fn FinalizeFunc) BindOption {
	return func(b *Binding) {
		b.Finalize = fn
	}
}

// FinalizeOption configures a single [Result.Finalize] call.
type FinalizeOption func(*finalizeConfig)

type finalizeConfig struct {
	runner BatchRunner
}

// WithBatchRunner replaces the default batch strategy (run the whole
// level concurrently, wait for all to settle, report the first error).
// A custom runner may serialize the batch, swallow failures, or apply
// per-level policies of its own.
func WithBatchRunner(r BatchRunner) FinalizeOption {
	return func(c *finalizeConfig) {
		c.runner = r
	}
}
