package jexpr

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
	KindColor
	KindList
	KindMap
	KindPath
)

// Value is an immutable tagged union. The zero Value is null.
type Value struct {
	kind Kind
	data any
}

// Color is an 8-bit RGBA colour.
type Color struct {
	R, G, B, A uint8
}

// MapEntry is one key/value pair of a map value.
type MapEntry struct {
	Key   string
	Value Value
}

type orderedMap struct {
	keys   []string
	values map[string]Value
}

func NewNull() Value            { return Value{} }
func NewNumber(f float64) Value { return Value{kind: KindNumber, data: f} }
func NewText(s string) Value    { return Value{kind: KindText, data: s} }
func NewBool(b bool) Value      { return Value{kind: KindBool, data: b} }
func NewPath(p string) Value    { return Value{kind: KindPath, data: p} }
func NewColor(c Color) Value    { return Value{kind: KindColor, data: c} }
func NewRGBA(r, g, b, a uint8) Value {
	return NewColor(Color{R: r, G: g, B: b, A: a})
}

// NewList copies elems into a new list value.
func NewList(elems ...Value) Value {
	return Value{kind: KindList, data: append([]Value(nil), elems...)}
}

// NewMap builds a map value preserving first-insertion order. A repeated
// key keeps its original position and takes the later value.
func NewMap(entries ...MapEntry) Value {
	m := &orderedMap{values: make(map[string]Value, len(entries))}
	for _, e := range entries {
		if _, seen := m.values[e.Key]; !seen {
			m.keys = append(m.keys, e.Key)
		}
		m.values[e.Key] = e.Value
	}
	return Value{kind: KindMap, data: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the payload of a number value and 0 otherwise.
func (v Value) Number() float64 {
	f, _ := v.data.(float64)
	return f
}

// Text returns the payload of a text or path value and "" otherwise.
func (v Value) Text() string {
	s, _ := v.data.(string)
	return s
}

func (v Value) Bool() bool {
	b, _ := v.data.(bool)
	return b
}

func (v Value) Color() Color {
	c, _ := v.data.(Color)
	return c
}

// List returns a copy of the elements of a list value.
func (v Value) List() []Value {
	elems, _ := v.data.([]Value)
	return append([]Value(nil), elems...)
}

func (v Value) list() []Value {
	elems, _ := v.data.([]Value)
	return elems
}

// Len returns the element count of a list or map, the rune count of a
// text or path, and 0 for everything else.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list())
	case KindMap:
		return len(v.orderedMap().keys)
	case KindText, KindPath:
		return len([]rune(v.Text()))
	default:
		return 0
	}
}

func (v Value) orderedMap() *orderedMap {
	m, _ := v.data.(*orderedMap)
	if m == nil {
		return &orderedMap{}
	}
	return m
}

// MapKeys returns the keys of a map value in insertion order.
func (v Value) MapKeys() []string {
	return append([]string(nil), v.orderedMap().keys...)
}

// MapGet looks up key in a map value.
func (v Value) MapGet(key string) (Value, bool) {
	val, ok := v.orderedMap().values[key]
	return val, ok
}

// MapEntries returns the entries of a map value in insertion order.
func (v Value) MapEntries() []MapEntry {
	m := v.orderedMap()
	entries := make([]MapEntry, len(m.keys))
	for i, k := range m.keys {
		entries[i] = MapEntry{Key: k, Value: m.values[k]}
	}
	return entries
}
