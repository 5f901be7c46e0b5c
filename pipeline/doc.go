// Package pipeline provides composable, pull-based iterators.
//
// Pipelines are lazy: no work happens until values are pulled through
// Collect, Seq or an Iterator obtained from Iter. Each stage pulls from the
// previous stage on demand.
//
// All operators run on the caller's goroutine. Iterator state is created
// per Iter call, so a Pipeline value can be iterated more than once when
// its source allows it.
//
// # Operators
//
//   - Map, MapIndexed: transform each value
//   - FlatMap: transform each value into multiple values
//   - FilterErr, Distinct: keep a subset of values
//   - Skip, SkipWhile, Take, TakeWhile: positional slicing
//   - Tap: side-effect without altering the value
//   - Batch, SlidingWindow: group consecutive values
//   - Materialize: buffer everything, transform, replay
//
// # Usage
//
//	src := pipeline.FromSlice([]int{1, 2, 3, 4, 5})
//	doubled := pipeline.Map(src, func(_ context.Context, n int) (int, error) {
//	    return n * 2, nil
//	})
//	firstTwo := pipeline.Take(doubled, 2)
//	results, _ := pipeline.Collect(ctx, firstTwo)
//
// Range-over-func interop:
//
//	for v, err := range pipeline.Seq(ctx, p.Iter(ctx)) { ... }
package pipeline
