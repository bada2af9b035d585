package jexpr

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

const maxSequenceLength = 1_000_000

func collectionFunctions() []Function {
	return []Function{
		newFunction("ARRAY", "Creates a list from the arguments.", 0, Unbounded,
			func(call *Call, args []Value) (Value, error) {
				return NewList(args...), nil
			}),
		newFunction("MAP", "Creates a map from alternating keys and values.", 0, Unbounded,
			func(call *Call, args []Value) (Value, error) {
				if len(args)%2 != 0 {
					return NewNull(), errors.New("expects an even number of arguments (key, value, ...)")
				}
				entries := make([]MapEntry, 0, len(args)/2)
				for i := 0; i < len(args); i += 2 {
					entries = append(entries, MapEntry{Key: textArg(args, i), Value: args[i+1]})
				}
				return NewMap(entries...), nil
			}),
		newFunction("GET_ITEM", "Returns the list element at a position or the map value for a key.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return elementAt(args[0], args[1])
			}),
		newFunction("GET_ITEM_OR_DEFAULT", "Like GET_ITEM but returns the default if the position or key does not exist.", 3, 3,
			func(call *Call, args []Value) (Value, error) {
				v, err := elementAt(args[0], args[1])
				var evalErr *EvaluationError
				if errors.As(err, &evalErr) {
					return args[2], nil
				}
				return v, err
			}),
		newFunction("FIRST", "Returns the first element of a list.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return elementAt(args[0], NewNumber(0))
			}),
		newFunction("LAST", "Returns the last element of a list.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return elementAt(args[0], NewNumber(-1))
			}),
		newFunction("SLICE", "Returns the elements from start (inclusive) to end (exclusive). Negative positions count from the end.", 2, 3,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				start, end, err := sliceBounds(args[1:], len(elems))
				if err != nil {
					return NewNull(), err
				}
				return NewList(elems[start:end]...), nil
			}),
		newFunction("SORT_ASCENDING", "Sorts a list. Numbers sort numerically, anything else by its string representation.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return sortList(args[0], 1)
			}),
		newFunction("SORT_DESCENDING", "Sorts a list in descending order.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				return sortList(args[0], -1)
			}),
		newFunction("REVERSE", "Reverses a list.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				out := slices.Clone(elems)
				slices.Reverse(out)
				return NewList(out...), nil
			}),
		newFunction("UNIQUE", "Removes duplicate elements, keeping the first occurrence.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				return NewList(uniqueValues(elems)...), nil
			}),
		newFunction("FIRST_INDEX_OF", "Returns the position of the first equal element or -1.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				return NewNumber(float64(slices.IndexFunc(elems, args[1].Equal))), nil
			}),
		newFunction("LAST_INDEX_OF", "Returns the position of the last equal element or -1.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				for i := len(elems) - 1; i >= 0; i-- {
					if elems[i].Equal(args[1]) {
						return NewNumber(float64(i)), nil
					}
				}
				return NewNumber(-1), nil
			}),
		newFunction("SEQUENCE", "Returns the numbers from start (inclusive) to end (exclusive) with an optional step.", 2, 3,
			func(call *Call, args []Value) (Value, error) {
				xs, err := numbers(args)
				if err != nil {
					return NewNull(), err
				}
				return sequence(xs)
			}),
		newFunction("COPY_N", "Returns a list holding the value n times.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				n, err := intArg(args, 1)
				if err != nil {
					return NewNull(), err
				}
				if n < 0 || n > maxSequenceLength {
					return NewNull(), fmt.Errorf("count %d outside [0, %d]", n, maxSequenceLength)
				}
				out := make([]Value, n)
				for i := range out {
					out[i] = args[0]
				}
				return NewList(out...), nil
			}),
		newFunction("GET_MAP_KEYS", "Returns the keys of a map in insertion order.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				m, err := mapArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				return textList(m.MapKeys()), nil
			}),
		newFunction("GET_MAP_VALUES", "Returns the values of a map in insertion order.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				m, err := mapArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				entries := m.MapEntries()
				out := make([]Value, len(entries))
				for i, e := range entries {
					out[i] = e.Value
				}
				return NewList(out...), nil
			}),
		newFunction("TRANSFORM_ARRAY", "Evaluates an expression for every element with the variables value and index bound, and returns the results.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return mapElements(call, args, func(_ Value, result Value) (Value, bool, error) {
					return result, true, nil
				})
			}),
		newFunction("FILTER_ARRAY", "Keeps the elements for which an expression (with value and index bound) is true.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return mapElements(call, args, func(elem Value, result Value) (Value, bool, error) {
					keep, err := ToBoolean(result)
					return elem, keep, err
				})
			}),
	}
}

// mapElements evaluates args[1] as an expression once per element of the
// list args[0] in a copy of the caller's environment.
func mapElements(call *Call, args []Value, collect func(elem, result Value) (Value, bool, error)) (Value, error) {
	elems, err := listArg(args, 0)
	if err != nil {
		return NewNull(), err
	}
	source := textArg(args, 1)
	node, err := call.ev.engine.Parse(source)
	if err != nil {
		return NewNull(), err
	}
	out := make([]Value, 0, len(elems))
	for i, elem := range elems {
		env := call.Env()
		env["value"] = elem
		env["index"] = NewNumber(float64(i))
		result, err := call.EvaluateNode(node, source, env)
		if err != nil {
			return NewNull(), err
		}
		v, keep, err := collect(elem, result)
		if err != nil {
			return NewNull(), err
		}
		if keep {
			out = append(out, v)
		}
	}
	return NewList(out...), nil
}

func sortList(v Value, direction int) (Value, error) {
	if v.kind != KindList {
		return NewNull(), newCoercionError(v, "list")
	}
	out := v.List()
	numeric := !slices.ContainsFunc(out, func(e Value) bool { return e.kind != KindNumber })
	slices.SortStableFunc(out, func(a, b Value) int {
		if numeric {
			return direction * cmp.Compare(a.Number(), b.Number())
		}
		return direction * cmp.Compare(a.String(), b.String())
	})
	return NewList(out...), nil
}

func uniqueValues(elems []Value) []Value {
	seen := make(map[uint64][]Value)
	var out []Value
	for _, e := range elems {
		h := e.Hash()
		if slices.ContainsFunc(seen[h], e.Equal) {
			continue
		}
		seen[h] = append(seen[h], e)
		out = append(out, e)
	}
	return out
}

func sequence(xs []float64) (Value, error) {
	start, end := xs[0], xs[1]
	step := 1.0
	if end < start {
		step = -1
	}
	if len(xs) > 2 {
		step = xs[2]
	}
	if step == 0 || step != step {
		return NewNull(), errors.New("step must be a non-zero number")
	}
	var out []Value
	for x := start; (step > 0 && x < end) || (step < 0 && x > end); x += step {
		if len(out) >= maxSequenceLength {
			return NewNull(), fmt.Errorf("sequence longer than %d elements", maxSequenceLength)
		}
		out = append(out, NewNumber(x))
	}
	return NewList(out...), nil
}
