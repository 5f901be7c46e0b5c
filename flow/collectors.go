package flow

// Collector receives the final output of a stream.
type Collector interface {
	Add(value any)
	Set(key Key, value any)
}

// Discriminator assigns an element to a group. The class must be an int
// or a string.
type Discriminator interface {
	Classify(value any, key Key) (any, error)
}

// DiscriminatorFunc adapts a function to Discriminator.
type DiscriminatorFunc func(value any, key Key) (any, error)

func (f DiscriminatorFunc) Classify(value any, key Key) (any, error) { return f(value, key) }

// SliceCollector collects values in arrival order. Keys are dropped.
type SliceCollector struct {
	Items []any
}

func (c *SliceCollector) Add(value any) { c.Items = append(c.Items, value) }

func (c *SliceCollector) Set(_ Key, value any) { c.Add(value) }

// MapCollector collects values by key. A later value replaces an earlier
// one with the same key; Add keys values by arrival position.
type MapCollector struct {
	Items map[Key]any
	n     int
}

func (c *MapCollector) Add(value any) {
	c.Set(IntKey(c.n), value)
}

func (c *MapCollector) Set(key Key, value any) {
	if c.Items == nil {
		c.Items = make(map[Key]any)
	}
	c.Items[key] = value
	c.n++
}
