package envvar

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DesiredSet is the complete mapping of names to values that should exist
// in scope after a run. It is immutable once built.
type DesiredSet struct {
	keys   []Key
	values map[string]string
}

// NewDesiredSet validates every key and freezes the mapping. Iteration order
// is the lexical order of the names so that runs are reproducible.
func NewDesiredSet(values map[string]string) (DesiredSet, error) {
	if len(values) == 0 {
		return DesiredSet{}, ErrEmptyInput()
	}

	set := DesiredSet{
		keys:   make([]Key, 0, len(values)),
		values: make(map[string]string, len(values)),
	}
	for name, value := range values {
		key, err := NewKey(name)
		if err != nil {
			return DesiredSet{}, ErrInvalidInput(name, err)
		}
		if _, dup := set.values[key.String()]; dup {
			return DesiredSet{}, ErrInvalidInput(name, fmt.Errorf("duplicate key %q after trimming", key.String()))
		}
		set.keys = append(set.keys, key)
		set.values[key.String()] = value
	}

	sort.Slice(set.keys, func(i, j int) bool {
		return set.keys[i].String() < set.keys[j].String()
	})

	return set, nil
}

// NewDesiredSetFromAny coerces arbitrary values to strings before building
// the set. nil becomes the empty string; json.Number keeps its literal form.
func NewDesiredSetFromAny(values map[string]any) (DesiredSet, error) {
	coerced := make(map[string]string, len(values))
	for name, value := range values {
		coerced[name] = Coerce(value)
	}
	return NewDesiredSet(coerced)
}

// Coerce returns the string representation of a decoded value.
func Coerce(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []any, map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}

// Keys returns the names in iteration order.
func (d DesiredSet) Keys() []Key {
	out := make([]Key, len(d.keys))
	copy(out, d.keys)
	return out
}

// Value returns the desired value for name.
func (d DesiredSet) Value(name string) (string, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Has reports whether name is part of the desired set.
func (d DesiredSet) Has(name string) bool {
	_, ok := d.values[name]
	return ok
}

func (d DesiredSet) Len() int {
	return len(d.keys)
}

func (d DesiredSet) IsEmpty() bool {
	return len(d.keys) == 0
}
