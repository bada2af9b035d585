package jexpr

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ToNumber converts numbers and numeric text. Text is parsed with a
// locale-independent decimal parser; every other kind fails.
func ToNumber(v Value) (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.Number(), nil
	case KindText:
		if f, ok := parseDecimal(v.Text()); ok {
			return f, nil
		}
	}
	return 0, newCoercionError(v, "number")
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if s == "" || strings.ContainsAny(s, "xXpP_iInN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToInteger truncates ToNumber toward zero. NaN and infinities fail.
func ToInteger(v Value) (int, error) {
	f, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
		return 0, newCoercionError(v, "integer")
	}
	return int(math.Trunc(f)), nil
}

// ToBoolean accepts only boolean values; there is no truthiness.
func ToBoolean(v Value) (bool, error) {
	if v.kind == KindBool {
		return v.Bool(), nil
	}
	return false, newCoercionError(v, "boolean")
}

// ToStringValue is total: it returns the canonical rendering of v.
func ToStringValue(v Value) string {
	return v.String()
}

// ToColor converts numbers (gray), colors, hex or named-color text and
// lists of three or four channel numbers.
func ToColor(v Value) (Color, error) {
	switch v.kind {
	case KindColor:
		return v.Color(), nil
	case KindNumber:
		f := v.Number()
		if math.IsNaN(f) {
			break
		}
		g := clampChannel(f)
		return Color{R: g, G: g, B: g, A: 255}, nil
	case KindText:
		if c, ok := parseColorText(v.Text()); ok {
			return c, nil
		}
	case KindList:
		elems := v.list()
		if len(elems) != 3 && len(elems) != 4 {
			break
		}
		channels := [4]uint8{0, 0, 0, 255}
		for i, e := range elems {
			f, err := ToNumber(e)
			if err != nil || math.IsNaN(f) {
				return Color{}, newCoercionError(v, "color")
			}
			channels[i] = clampChannel(f)
		}
		return Color{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}, nil
	}
	return Color{}, newCoercionError(v, "color")
}

func clampChannel(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(math.Round(f))
	}
}

func parseColorText(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHexColor(hex)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return Color{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(hex) == 6 {
		return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

// ToDoubleList converts a list element-wise with ToNumber. Any other value
// becomes a singleton list through the scalar ToNumber path.
func ToDoubleList(v Value) ([]float64, error) {
	if v.kind != KindList {
		f, err := ToNumber(v)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	elems := v.list()
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, err := ToNumber(e)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
