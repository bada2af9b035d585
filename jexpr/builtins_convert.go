package jexpr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

func conversionFunctions() []Function {
	return []Function{
		newFunction("TO_NUMBER", "Converts a value to a number.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				f, err := numberArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				return NewNumber(f), nil
			}),
		newFunction("TO_INTEGER", "Converts a value to a number truncated toward zero.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				i, err := intArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				return NewNumber(float64(i)), nil
			}),
		newFunction("TO_STRING", "Converts a value to its string representation.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return NewText(textArg(args, 0)), nil
			}),
		newFunction("TO_BOOLEAN", "Converts booleans, the strings \"true\"/\"false\" and numbers (non-zero is true) to a boolean.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				b, err := parseBoolean(args[0])
				if err != nil {
					return NewNull(), err
				}
				return NewBool(b), nil
			}),
		newFunction("IS_NULL", "Returns true if the value is null.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return NewBool(args[0].IsNull()), nil
			}),
		newFunction("TYPE_OF", "Returns the kind of a value (number, text, boolean, color, list, map, path or null).", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return NewText(args[0].Kind().String()), nil
			}),
		newFunction("TO_JSON", "Serialises a value as JSON.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				data, err := MarshalValueJSON(args[0])
				if err != nil {
					return NewNull(), err
				}
				return NewText(string(data)), nil
			}),
		newFunction("PARSE_JSON", "Parses JSON text into a value. Object key order is preserved.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return UnmarshalValueJSON([]byte(textArg(args, 0)))
			}),
	}
}

// parseBoolean is the lenient conversion behind TO_BOOLEAN. Operators use
// the strict ToBoolean.
func parseBoolean(v Value) (bool, error) {
	switch v.kind {
	case KindBool:
		return v.Bool(), nil
	case KindNumber:
		return v.Number() != 0, nil
	case KindText:
		switch strings.ToLower(strings.TrimSpace(v.Text())) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, newCoercionError(v, "boolean")
}

// MarshalValueJSON encodes v as JSON, keeping map keys in insertion order.
// Colors are encoded as hex strings and paths as strings.
func MarshalValueJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindNumber:
		f := v.Number()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("cannot encode %s as JSON", formatNumber(f))
		}
		buf.WriteString(formatNumber(f))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case KindText, KindPath, KindColor:
		data, err := json.Marshal(v.ToGo())
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, e := range v.MapEntries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalValueJSON decodes a single JSON document into a Value.
func UnmarshalValueJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return NewNull(), fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return NewNull(), errors.New("invalid JSON: trailing data")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return NewNull(), err
	}
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewText(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return NewNull(), err
		}
		return NewNumber(f), nil
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				e, err := decodeJSON(dec)
				if err != nil {
					return NewNull(), err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil {
				return NewNull(), err
			}
			return NewList(elems...), nil
		case '{':
			var entries []MapEntry
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return NewNull(), err
				}
				key, _ := keyTok.(string)
				val, err := decodeJSON(dec)
				if err != nil {
					return NewNull(), err
				}
				entries = append(entries, MapEntry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return NewNull(), err
			}
			return NewMap(entries...), nil
		}
	}
	return NewNull(), fmt.Errorf("unexpected JSON token %v", tok)
}
