package flow

import (
	"cmp"
	"encoding/json"
	"math"
	"strconv"

	"github.com/kbukum/flowkit/errors"
)

// Key identifies an element within a run. It holds either an int or a
// string. The zero Key is the integer 0.
type Key struct {
	str   string
	num   int
	isStr bool
}

// IntKey returns an integer key.
func IntKey(i int) Key { return Key{num: i} }

// StrKey returns a string key.
func StrKey(s string) Key { return Key{str: s, isStr: true} }

// KeyOf converts v to a Key. Strings, Keys and integers that fit an int
// are accepted.
func KeyOf(v any) (Key, error) {
	switch k := v.(type) {
	case Key:
		return k, nil
	case string:
		return StrKey(k), nil
	case int:
		return IntKey(k), nil
	case int8:
		return IntKey(int(k)), nil
	case int16:
		return IntKey(int(k)), nil
	case int32:
		return IntKey(int(k)), nil
	case int64:
		if k < math.MinInt || k > math.MaxInt {
			return Key{}, errors.TypeMismatch("key", "int or string", v)
		}
		return IntKey(int(k)), nil
	case uint8:
		return IntKey(int(k)), nil
	case uint16:
		return IntKey(int(k)), nil
	case uint32:
		return IntKey(int(k)), nil
	case uint:
		if uint64(k) > math.MaxInt {
			return Key{}, errors.TypeMismatch("key", "int or string", v)
		}
		return IntKey(int(k)), nil
	}
	return Key{}, errors.TypeMismatch("key", "int or string", v)
}

// IsString reports whether the key holds a string.
func (k Key) IsString() bool { return k.isStr }

// Int returns the integer form of the key.
func (k Key) Int() (int, bool) { return k.num, !k.isStr }

// Value returns the key as an int or a string.
func (k Key) Value() any {
	if k.isStr {
		return k.str
	}
	return k.num
}

func (k Key) String() string {
	if k.isStr {
		return k.str
	}
	return strconv.Itoa(k.num)
}

// Compare orders keys: integers numerically, then strings lexically.
func (k Key) Compare(o Key) int {
	switch {
	case k.isStr != o.isStr:
		if k.isStr {
			return 1
		}
		return -1
	case k.isStr:
		return cmp.Compare(k.str, o.str)
	default:
		return cmp.Compare(k.num, o.num)
	}
}

// MarshalText lets keys be used as JSON object keys.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Item is an immutable snapshot of one element. It is the only form in
// which an element may be kept past the step that produced it.
type Item struct {
	key   Key
	value any
}

// NewItem creates an Item.
func NewItem(key Key, value any) Item { return Item{key: key, value: value} }

// Key returns the element key.
func (it Item) Key() Key { return it.key }

// Value returns the element value.
func (it Item) Value() any { return it.value }

// MarshalJSON encodes the item as {"key": ..., "value": ...}.
func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   any `json:"key"`
		Value any `json:"value"`
	}{it.key.Value(), it.value})
}

// Values returns the values of items in order.
func Values(items []Item) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out
}

// Cursor is the single mutable slot holding the element in flight. A run
// owns exactly one Cursor and reuses it for every element; operations that
// keep an element must take a Snapshot.
type Cursor struct {
	key   Key
	value any
}

// Key returns the key in flight.
func (c *Cursor) Key() Key { return c.key }

// Value returns the value in flight.
func (c *Cursor) Value() any { return c.value }

// Set replaces both key and value.
func (c *Cursor) Set(key Key, value any) {
	c.key = key
	c.value = value
}

// SetKey replaces the key.
func (c *Cursor) SetKey(key Key) { c.key = key }

// SetValue replaces the value.
func (c *Cursor) SetValue(value any) { c.value = value }

// Snapshot copies the element in flight.
func (c *Cursor) Snapshot() Item { return Item{key: c.key, value: c.value} }

// Load writes a snapshot back into the cursor.
func (c *Cursor) Load(it Item) {
	c.key = it.key
	c.value = it.value
}
