package flow

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/kbukum/flowkit/errors"
)

// Result is the lazily computed outcome of a stream. The first accessor
// runs the stream; every later accessor reads the memoized outcome,
// including a memoized failure. A Result is not safe for concurrent use.
type Result struct {
	stream    *Stream
	out       *outcome
	transform func(any) any

	evaluated bool
	err       error
	value     any
}

// Eval runs the stream unless it already ran and returns the run error.
func (r *Result) Eval(ctx context.Context) error {
	if r.evaluated {
		return r.err
	}
	if r.stream.branch {
		return errors.UnsupportedMode("standalone", "branch")
	}
	r.settle(r.stream.execute(ctx))
	return r.err
}

func (r *Result) settle(err error) {
	if r.evaluated {
		return
	}
	r.evaluated = true
	r.err = err
	if err == nil && r.out.found {
		r.value = r.out.value
		if r.transform != nil {
			r.value = r.transform(r.value)
		}
	}
}

// Err runs the stream if needed and returns the run error.
func (r *Result) Err() error { return r.Eval(context.Background()) }

// Found reports whether the run produced a value. A failed run produces
// none.
func (r *Result) Found() bool {
	return r.Err() == nil && r.out.found
}

// NotFound is the negation of Found.
func (r *Result) NotFound() bool { return !r.Found() }

// Get returns the value, or NOT_FOUND when the run produced none.
func (r *Result) Get() (any, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !r.out.found {
		return nil, errors.NotFound("element")
	}
	return r.value, nil
}

// GetOr returns the value, or def when the run produced none or failed.
func (r *Result) GetOr(def any) any {
	if !r.Found() {
		return def
	}
	return r.value
}

// Key returns the key of the element the value came from.
func (r *Result) Key() (Key, error) {
	if err := r.Err(); err != nil {
		return Key{}, err
	}
	if !r.out.found {
		return Key{}, errors.NotFound("element")
	}
	return r.out.key, nil
}

// ToSlice returns the value as a slice. Collections are listed in order,
// maps by ascending key, and a scalar becomes a one-element slice. No
// value gives an empty slice.
func (r *Result) ToSlice() ([]any, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !r.out.found {
		return []any{}, nil
	}
	switch v := r.value.(type) {
	case []any:
		return v, nil
	case []Item:
		return Values(v), nil
	case map[Key]any:
		return valuesByKey(v), nil
	case map[Key][]any:
		return valuesByKey(v), nil
	}
	return []any{r.value}, nil
}

// ToJSON encodes the value as JSON. No value encodes as null.
func (r *Result) ToJSON() ([]byte, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(r.value)
}

func valuesByKey[V any](m map[Key]V) []any {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
