// Package di builds object graphs from named asynchronous producers whose
// dependencies on one another are discovered at resolution time, and tears
// the graphs down in a safe order.
//
// A [Design] collects bindings: each pairs a string key with a producer
// and an optional finalizer. Producers read other keys through an
// [Injector]; every read implicitly declares a dependency edge, so the
// graph is never written down anywhere. Resolution evaluates every
// producer at most once, shares the single outcome across all dependents,
// rejects cycles the moment the closing edge is wired, and returns a
// [Result] whose Finalize runs cleanup level by level, dependents before
// the keys they depend on.
//
// # Quick Start
//
//	design := di.NewDesign().
//		Bind("greeting", func(ctx context.Context, in di.Injector) (any, error) {
//			name, err := di.Get[string](ctx, in, "name")
//			if err != nil {
//				return nil, err
//			}
//			return "hello, " + name, nil
//		})
//
//	res, err := design.Resolve(ctx, map[string]any{"name": "gopher"})
//	if err != nil {
//		return err
//	}
//	defer res.Finalize(ctx)
//
//	fmt.Println(res.Container["greeting"])
//
// # Resources
//
// Bindings whose values need cleanup register it with
// [Design.BindResource] or the [WithFinalizer] option:
//
//	design = design.BindResource("db", func(ctx context.Context, in di.Injector) (di.Closer, error) {
//		return openDB(ctx)
//	})
//
// [Design.Use] scopes a whole resolution to one callback and guarantees
// finalization runs exactly once, even when the callback fails.
//
// Designs are immutable: Bind and Merge return new Designs, and a Design
// can be resolved concurrently from many goroutines. Logging goes through
// log/slog; pass a logger in the context with the ctxlog subpackage to
// observe edge discovery, producer settlement, and finalization levels.
package di
