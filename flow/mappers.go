package flow

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kbukum/flowkit/errors"
)

// Mapper computes a replacement value for an element.
type Mapper interface {
	Map(value any, key Key) (any, error)
}

// Absorber is implemented by mappers that can fold the following mapper
// into themselves. Absorb returns the combined mapper and true, or false
// when the two must run one after the other.
type Absorber interface {
	Absorb(next Mapper) (Mapper, bool)
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(value any, key Key) (any, error)

func (f MapperFunc) Map(value any, key Key) (any, error) { return f(value, key) }

// Transform adapts a value-only function that cannot fail.
func Transform(fn func(value any) any) Mapper {
	return MapperFunc(func(v any, _ Key) (any, error) { return fn(v), nil })
}

type castKind int

const (
	castInt castKind = iota
	castFloat
	castString
)

// castMapper converts values to one scalar type. Casting twice to the same
// type is the same as casting once.
type castMapper struct {
	to castKind
}

// ToInt converts numbers, numeric strings and booleans to int. Floats are
// truncated toward zero.
func ToInt() Mapper { return castMapper{to: castInt} }

// ToFloat converts numbers, numeric strings and booleans to float64.
func ToFloat() Mapper { return castMapper{to: castFloat} }

// ToString formats any value as a string.
func ToString() Mapper { return castMapper{to: castString} }

func (c castMapper) Absorb(next Mapper) (Mapper, bool) {
	if n, ok := next.(castMapper); ok && n.to == c.to {
		return c, true
	}
	return nil, false
}

func (c castMapper) Map(v any, _ Key) (any, error) {
	switch c.to {
	case castInt:
		return castToInt(v)
	case castFloat:
		return castToFloat(v)
	default:
		return castToString(v), nil
	}
}

func castToInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), nil
		}
		return nil, errors.TypeMismatch("to-int", "numeric string", v)
	}
	rv := reflect.ValueOf(v)
	switch numberKind(rv) {
	case 'i':
		return int(rv.Int()), nil
	case 'u':
		return int(rv.Uint()), nil
	case 'f':
		return int(rv.Float()), nil
	}
	return nil, errors.TypeMismatch("to-int", "number, string or bool", v)
}

func castToFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case bool:
		if x {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, errors.TypeMismatch("to-float", "numeric string", v)
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	if numberKind(rv) != 0 {
		return toFloat(rv), nil
	}
	return nil, errors.TypeMismatch("to-float", "number, string or bool", v)
}

func castToString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Field extracts a named field from maps with string keys and from
// structs. A missing field or any other value is a TYPE_MISMATCH.
func Field(name string) Mapper {
	return MapperFunc(func(v any, _ Key) (any, error) {
		out, ok := lookupField(v, name)
		if !ok {
			return nil, errors.TypeMismatch("field", fmt.Sprintf("record with field %q", name), v)
		}
		return out, nil
	})
}

// pick builds a map holding only the named fields of each record.
func pick(names []string) Mapper {
	return MapperFunc(func(v any, _ Key) (any, error) {
		out := make(map[string]any, len(names))
		for _, name := range names {
			fv, ok := lookupField(v, name)
			if !ok {
				return nil, errors.TypeMismatch("pick", fmt.Sprintf("record with field %q", name), v)
			}
			out[name] = fv
		}
		return out, nil
	})
}

func lookupField(v any, name string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		out, found := m[name]
		return out, found
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// multiMapper applies mappers in order inside one node.
type multiMapper []Mapper

func (m multiMapper) Map(v any, k Key) (any, error) {
	var err error
	for _, mapper := range m {
		if v, err = mapper.Map(v, k); err != nil {
			return nil, err
		}
	}
	return v, nil
}
