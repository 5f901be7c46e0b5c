// Package flow is a lazily evaluated key/value stream engine.
//
// A Stream binds a Source to a chain of operations built through a Pipe,
// which fuses adjacent operations at append time when a cheaper equivalent
// exists. Terminal operations return a Result that runs the chain on first
// access and memoizes the outcome.
//
// Runs are push driven: the Signal pulls an element from the current
// source into the single Cursor and hands it to the chain head. Buffering
// operations (Sort, Reverse, Shuffle, Tail, Segregate and the bounded
// top-k used by Best) collect snapshots and, once the input ends, replace
// the source with a replay of their output. Flat and Tokenize feed
// sub-sequences through the rest of the chain as nested frames.
//
// A chain without Feed can also run in pull mode through Stream.Pull,
// which composes the equivalent pipeline package transformations.
//
// Basic usage:
//
//	top, err := flow.Of(5, 3, 9, 1).
//		Filter(flow.GreaterThan(2)).
//		Sort(flow.ByValue(nil)).
//		Limit(2).
//		ToSlice().
//		ToSlice()
package flow
