package flow

import (
	"reflect"
	"strings"

	"github.com/kbukum/flowkit/errors"
)

// Reducer accumulates values into a single result.
type Reducer interface {
	Consume(value any) error
	HasResult() bool
	Result() any
	Reset()
}

// Sum adds numbers. The result stays an int while every value is an
// integer and becomes a float64 otherwise.
func Sum() Reducer { return &sumReducer{} }

type sumReducer struct {
	i       int64
	f       float64
	isFloat bool
	n       int
}

func (r *sumReducer) Consume(v any) error {
	rv := reflect.ValueOf(v)
	switch numberKind(rv) {
	case 'i':
		r.i += rv.Int()
	case 'u':
		r.i += int64(rv.Uint())
	case 'f':
		r.f += rv.Float()
		r.isFloat = true
	default:
		return errors.TypeMismatch("sum", "number", v)
	}
	r.n++
	return nil
}

func (r *sumReducer) HasResult() bool { return r.n > 0 }

func (r *sumReducer) Result() any {
	if r.isFloat {
		return r.f + float64(r.i)
	}
	return int(r.i)
}

func (r *sumReducer) Reset() { *r = sumReducer{} }

// Average computes the arithmetic mean as a float64.
func Average() Reducer { return &averageReducer{} }

type averageReducer struct {
	sum float64
	n   int
}

func (r *averageReducer) Consume(v any) error {
	rv := reflect.ValueOf(v)
	if numberKind(rv) == 0 {
		return errors.TypeMismatch("average", "number", v)
	}
	r.sum += toFloat(rv)
	r.n++
	return nil
}

func (r *averageReducer) HasResult() bool { return r.n > 0 }

func (r *averageReducer) Result() any { return r.sum / float64(r.n) }

func (r *averageReducer) Reset() { *r = averageReducer{} }

// Min keeps the smallest value under the natural ordering.
func Min() Reducer { return &extremeReducer{keep: func(c int) bool { return c < 0 }} }

// Max keeps the largest value under the natural ordering.
func Max() Reducer { return &extremeReducer{keep: func(c int) bool { return c > 0 }} }

type extremeReducer struct {
	keep  func(int) bool
	value any
	seen  bool
}

func (r *extremeReducer) Consume(v any) error {
	if !r.seen {
		r.value, r.seen = v, true
		return nil
	}
	c, err := compareNatural(v, r.value)
	if err != nil {
		return err
	}
	if r.keep(c) {
		r.value = v
	}
	return nil
}

func (r *extremeReducer) HasResult() bool { return r.seen }

func (r *extremeReducer) Result() any { return r.value }

func (r *extremeReducer) Reset() {
	r.value, r.seen = nil, false
}

// Concat joins the string form of every value with sep.
func Concat(sep string) Reducer { return &concatReducer{sep: sep} }

type concatReducer struct {
	sep  string
	b    strings.Builder
	seen bool
}

func (r *concatReducer) Consume(v any) error {
	if r.seen {
		r.b.WriteString(r.sep)
	}
	r.b.WriteString(castToString(v))
	r.seen = true
	return nil
}

func (r *concatReducer) HasResult() bool { return r.seen }

func (r *concatReducer) Result() any { return r.b.String() }

func (r *concatReducer) Reset() {
	r.b.Reset()
	r.seen = false
}

// Count counts values. It always has a result.
func Count() Reducer { return &countReducer{} }

type countReducer struct{ n int }

func (r *countReducer) Consume(any) error { r.n++; return nil }

func (r *countReducer) HasResult() bool { return true }

func (r *countReducer) Result() any { return r.n }

func (r *countReducer) Reset() { r.n = 0 }
