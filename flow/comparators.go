package flow

import (
	"cmp"
	"reflect"
	"time"

	"github.com/kbukum/flowkit/errors"
)

// Mode selects which part of an element a strategy looks at.
type Mode int

const (
	ModeValue Mode = iota
	ModeKey
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeKey:
		return "key"
	case ModeBoth:
		return "both"
	default:
		return "value"
	}
}

// Comparator orders two values: negative, zero or positive.
type Comparator interface {
	Compare(a, b any) (int, error)
}

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc func(a, b any) (int, error)

func (f ComparatorFunc) Compare(a, b any) (int, error) { return f(a, b) }

type natural struct{}

func (natural) Compare(a, b any) (int, error) { return compareNatural(a, b) }

// Natural orders numbers numerically, strings lexically, false before true,
// times chronologically and keys by Key.Compare. nil sorts first. Values
// of different families are a TYPE_MISMATCH.
func Natural() Comparator { return natural{} }

// Ordering is a complete sort specification.
type Ordering struct {
	Comparator Comparator
	Mode       Mode
	Reversed   bool
}

// ByValue orders elements by value with c, or naturally when c is nil.
func ByValue(c Comparator) Ordering { return Ordering{Comparator: c, Mode: ModeValue} }

// ByKeys orders elements by key with c, or naturally when c is nil.
func ByKeys(c Comparator) Ordering { return Ordering{Comparator: c, Mode: ModeKey} }

// ByValueThenKey orders elements by value and breaks ties by key.
func ByValueThenKey(c Comparator) Ordering { return Ordering{Comparator: c, Mode: ModeBoth} }

// Reverse returns the ordering with its direction flipped.
func (o Ordering) Reverse() Ordering {
	o.Reversed = !o.Reversed
	return o
}

func (o Ordering) natural() bool {
	if o.Comparator == nil {
		return true
	}
	_, ok := o.Comparator.(natural)
	return ok
}

func (o Ordering) resolve() Ordering {
	if o.Comparator == nil {
		o.Comparator = Natural()
	}
	return o
}

// compare orders two items; Comparator must be resolved.
func (o Ordering) compare(a, b Item) (int, error) {
	var c int
	var err error
	switch o.Mode {
	case ModeKey:
		if o.natural() {
			c = a.key.Compare(b.key)
		} else {
			c, err = o.Comparator.Compare(a.key.Value(), b.key.Value())
		}
	case ModeBoth:
		c, err = o.Comparator.Compare(a.value, b.value)
		if err == nil && c == 0 {
			c = a.key.Compare(b.key)
		}
	default:
		c, err = o.Comparator.Compare(a.value, b.value)
	}
	if o.Reversed {
		c = -c
	}
	return c, err
}

func compareNatural(a, b any) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return -1, nil
		default:
			return 1, nil
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case Key:
		if y, ok := b.(Key); ok {
			return x.Compare(y), nil
		}
	default:
		if c, ok := compareNumbers(a, b); ok {
			return c, nil
		}
	}
	return 0, errors.TypeMismatch("compare", "comparable values of one kind", b).
		WithDetail("left", a)
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

// compareNumbers compares any two numeric values. Integers are compared
// exactly; mixed integer and float values are compared as float64.
func compareNumbers(a, b any) (int, bool) {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	ak, bk := numberKind(av), numberKind(bv)
	if ak == 0 || bk == 0 {
		return 0, false
	}
	switch {
	case ak == 'i' && bk == 'i':
		return cmp.Compare(av.Int(), bv.Int()), true
	case ak == 'u' && bk == 'u':
		return cmp.Compare(av.Uint(), bv.Uint()), true
	case ak == 'i' && bk == 'u':
		if av.Int() < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(av.Int()), bv.Uint()), true
	case ak == 'u' && bk == 'i':
		if bv.Int() < 0 {
			return 1, true
		}
		return cmp.Compare(av.Uint(), uint64(bv.Int())), true
	}
	return cmp.Compare(toFloat(av), toFloat(bv)), true
}

func numberKind(v reflect.Value) byte {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 'i'
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 'u'
	case reflect.Float32, reflect.Float64:
		return 'f'
	}
	return 0
}

func toFloat(v reflect.Value) float64 {
	switch numberKind(v) {
	case 'i':
		return float64(v.Int())
	case 'u':
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
