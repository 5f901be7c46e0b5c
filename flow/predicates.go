package flow

import (
	"reflect"
)

// Predicate decides whether an element passes.
type Predicate interface {
	Test(value any, key Key) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(value any, key Key) (bool, error)

func (f PredicateFunc) Test(value any, key Key) (bool, error) { return f(value, key) }

// Where adapts a value-only test that cannot fail.
func Where(fn func(value any) bool) Predicate {
	return PredicateFunc(func(v any, _ Key) (bool, error) { return fn(v), nil })
}

// Equal matches values equal to want under the natural ordering, falling
// back to deep equality for values the ordering does not cover.
func Equal(want any) Predicate {
	return PredicateFunc(func(v any, _ Key) (bool, error) { return valuesEqual(v, want), nil })
}

// NotEqual is the negation of Equal.
func NotEqual(want any) Predicate { return Not(Equal(want)) }

// GreaterThan matches values ordered after bound.
func GreaterThan(bound any) Predicate {
	return comparing(bound, func(c int) bool { return c > 0 })
}

// GreaterOrEqual matches values not ordered before bound.
func GreaterOrEqual(bound any) Predicate {
	return comparing(bound, func(c int) bool { return c >= 0 })
}

// LessThan matches values ordered before bound.
func LessThan(bound any) Predicate {
	return comparing(bound, func(c int) bool { return c < 0 })
}

// LessOrEqual matches values not ordered after bound.
func LessOrEqual(bound any) Predicate {
	return comparing(bound, func(c int) bool { return c <= 0 })
}

func comparing(bound any, accept func(int) bool) Predicate {
	return PredicateFunc(func(v any, _ Key) (bool, error) {
		c, err := compareNatural(v, bound)
		if err != nil {
			return false, err
		}
		return accept(c), nil
	})
}

// IsNil matches nil values, including typed nil pointers, maps and slices.
func IsNil() Predicate {
	return PredicateFunc(func(v any, _ Key) (bool, error) { return isNil(v), nil })
}

// OneOf matches values equal to any of candidates.
func OneOf(candidates ...any) Predicate {
	return PredicateFunc(func(v any, _ Key) (bool, error) {
		for _, c := range candidates {
			if valuesEqual(v, c) {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not negates p.
func Not(p Predicate) Predicate {
	return PredicateFunc(func(v any, k Key) (bool, error) {
		ok, err := p.Test(v, k)
		return !ok && err == nil, err
	})
}

// And matches when every predicate matches, testing in order.
func And(preds ...Predicate) Predicate {
	return allOf(preds)
}

// Or matches when any predicate matches, testing in order.
func Or(preds ...Predicate) Predicate {
	return PredicateFunc(func(v any, k Key) (bool, error) {
		for _, p := range preds {
			ok, err := p.Test(v, k)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	})
}

// ByKey applies p to the element key instead of its value.
func ByKey(p Predicate) Predicate {
	return PredicateFunc(func(_ any, k Key) (bool, error) {
		return p.Test(k.Value(), k)
	})
}

// allOf short-circuits on the first failing predicate.
type allOf []Predicate

func (a allOf) Test(v any, k Key) (bool, error) {
	for _, p := range a {
		ok, err := p.Test(v, k)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func valuesEqual(a, b any) bool {
	if c, err := compareNatural(a, b); err == nil {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}
