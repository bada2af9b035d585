package jexpr

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindColor:
		return "color"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindPath:
		return "path"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// String renders v canonically. Text and paths are rendered raw at the top
// level and quoted inside lists and maps.
func (v Value) String() string {
	var b strings.Builder
	v.writeTo(&b, false)
	return b.String()
}

func (v Value) writeTo(b *strings.Builder, nested bool) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindNumber:
		b.WriteString(formatNumber(v.Number()))
	case KindText, KindPath:
		if nested {
			b.WriteString(quoteText(v.Text()))
		} else {
			b.WriteString(v.Text())
		}
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case KindColor:
		b.WriteString(formatColor(v.Color()))
	case KindList:
		b.WriteByte('[')
		for i, e := range v.list() {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeTo(b, true)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.MapEntries() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteText(e.Key))
			b.WriteString(": ")
			e.Value.writeTo(b, true)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<%v>", v.kind)
	}
}

// formatNumber prints integral values without a fraction and everything
// else in the shortest form that round-trips.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func formatColor(c Color) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// Equal reports structural equality. Values of different kinds are never
// equal, NaN is not equal to itself, and map equality ignores key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.Number() == other.Number()
	case KindText, KindPath:
		return v.Text() == other.Text()
	case KindBool:
		return v.Bool() == other.Bool()
	case KindColor:
		return v.Color() == other.Color()
	case KindList:
		a, b := v.list(), other.list()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindMap:
		a, b := v.orderedMap(), other.orderedMap()
		if len(a.keys) != len(b.keys) {
			return false
		}
		for k, av := range a.values {
			bv, ok := b.values[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Hash returns a 64-bit hash consistent with Equal.
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	h.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KindNumber:
		f := v.Number()
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	case KindText, KindPath:
		h.Write([]byte(v.Text()))
	case KindBool:
		if v.Bool() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KindColor:
		c := v.Color()
		h.Write([]byte{c.R, c.G, c.B, c.A})
	case KindList:
		for _, e := range v.list() {
			binary.LittleEndian.PutUint64(buf[:], e.Hash())
			h.Write(buf[:])
		}
	case KindMap:
		var sum uint64
		for k, val := range v.orderedMap().values {
			eh := fnv.New64a()
			eh.Write([]byte(k))
			binary.LittleEndian.PutUint64(buf[:], val.Hash())
			eh.Write(buf[:])
			sum += eh.Sum64()
		}
		binary.LittleEndian.PutUint64(buf[:], sum)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// FromGo converts a native Go value into a Value. Maps with string keys are
// ordered by key.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return t, nil
	case float64:
		return NewNumber(t), nil
	case float32:
		return NewNumber(float64(t)), nil
	case int:
		return NewNumber(float64(t)), nil
	case int8:
		return NewNumber(float64(t)), nil
	case int16:
		return NewNumber(float64(t)), nil
	case int32:
		return NewNumber(float64(t)), nil
	case int64:
		return NewNumber(float64(t)), nil
	case uint:
		return NewNumber(float64(t)), nil
	case uint8:
		return NewNumber(float64(t)), nil
	case uint16:
		return NewNumber(float64(t)), nil
	case uint32:
		return NewNumber(float64(t)), nil
	case uint64:
		return NewNumber(float64(t)), nil
	case string:
		return NewText(t), nil
	case bool:
		return NewBool(t), nil
	case color.Color:
		c := color.NRGBAModel.Convert(t).(color.NRGBA)
		return NewRGBA(c.R, c.G, c.B, c.A), nil
	case []string:
		elems := make([]Value, len(t))
		for i, s := range t {
			elems[i] = NewText(s)
		}
		return NewList(elems...), nil
	case []float64:
		elems := make([]Value, len(t))
		for i, f := range t {
			elems[i] = NewNumber(f)
		}
		return NewList(elems...), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := FromGo(e)
			if err != nil {
				return NewNull(), fmt.Errorf("index %d: %w", i, err)
			}
			elems[i] = v
		}
		return NewList(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]MapEntry, len(keys))
		for i, k := range keys {
			v, err := FromGo(t[k])
			if err != nil {
				return NewNull(), fmt.Errorf("key %q: %w", k, err)
			}
			entries[i] = MapEntry{Key: k, Value: v}
		}
		return NewMap(entries...), nil
	default:
		return NewNull(), fmt.Errorf("unsupported Go type %T", x)
	}
}

// ToGo converts v into plain Go values: nil, float64, string, bool,
// []any and map[string]any. Colors become their hex string.
func (v Value) ToGo() any {
	switch v.kind {
	case KindNumber:
		return v.Number()
	case KindText, KindPath:
		return v.Text()
	case KindBool:
		return v.Bool()
	case KindColor:
		return formatColor(v.Color())
	case KindList:
		out := make([]any, 0, len(v.list()))
		for _, e := range v.list() {
			out = append(out, e.ToGo())
		}
		return out
	case KindMap:
		m := v.orderedMap()
		out := make(map[string]any, len(m.keys))
		for _, k := range m.keys {
			out[k] = m.values[k].ToGo()
		}
		return out
	default:
		return nil
	}
}
