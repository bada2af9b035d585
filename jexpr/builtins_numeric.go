package jexpr

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func numericFunctions() []Function {
	return []Function{
		newFunction("MIN", "Returns the smallest number. Lists are flattened.", 1, Unbounded,
			reduceNumbers(slices.Min[[]float64, float64])),
		newFunction("MAX", "Returns the largest number. Lists are flattened.", 1, Unbounded,
			reduceNumbers(slices.Max[[]float64, float64])),
		newFunction("SUM", "Returns the sum of all numbers. Lists are flattened.", 1, Unbounded,
			reduceNumbers(sum)),
		newFunction("MEAN", "Returns the arithmetic mean. Lists are flattened.", 1, Unbounded,
			reduceNumbers(func(xs []float64) float64 { return sum(xs) / float64(len(xs)) })),
		unaryMath("ABS", "Returns the absolute value.", math.Abs),
		unaryMath("FLOOR", "Rounds down to the next integer.", math.Floor),
		unaryMath("CEIL", "Rounds up to the next integer.", math.Ceil),
		unaryMath("SQRT", "Returns the square root.", math.Sqrt),
		unaryMath("LOG", "Returns the natural logarithm.", math.Log),
		unaryMath("EXP", "Returns e raised to the given power.", math.Exp),
		newFunction("ROUND", "Rounds half away from zero, optionally to the given number of decimals.", 1, 2,
			func(call *Call, args []Value) (Value, error) {
				x, err := numberArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				if len(args) == 1 {
					return NewNumber(math.Round(x)), nil
				}
				decimals, err := intArg(args, 1)
				if err != nil {
					return NewNull(), err
				}
				scale := math.Pow(10, float64(decimals))
				return NewNumber(math.Round(x*scale) / scale), nil
			}),
		newFunction("POW", "Raises the first argument to the power of the second.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return arithmetic(OpPow, args[0], args[1])
			}),
		newFunction("CLAMP", "Limits a number to the range [min, max].", 3, 3,
			func(call *Call, args []Value) (Value, error) {
				xs, err := numbers(args)
				if err != nil {
					return NewNull(), err
				}
				if xs[1] > xs[2] {
					return NewNull(), fmt.Errorf("minimum %s is greater than maximum %s", formatNumber(xs[1]), formatNumber(xs[2]))
				}
				return NewNumber(math.Min(math.Max(xs[0], xs[1]), xs[2])), nil
			}),
		numberPredicate("IS_NAN", "Returns true if the number is NaN.", math.IsNaN),
		numberPredicate("IS_INFINITE", "Returns true if the number is positive or negative infinity.", func(f float64) bool { return math.IsInf(f, 0) }),
		numberPredicate("IS_FINITE", "Returns true if the number is neither NaN nor infinite.", func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }),
		newFunction("NAN_TO_NUM", "Replaces NaN and infinities. Defaults: NaN -> 0, infinity -> largest finite number.", 1, 4,
			func(call *Call, args []Value) (Value, error) {
				xs, err := numbers(args)
				if err != nil {
					return NewNull(), err
				}
				replacements := []float64{0, math.MaxFloat64, -math.MaxFloat64}
				copy(replacements, xs[1:])
				x := xs[0]
				switch {
				case math.IsNaN(x):
					x = replacements[0]
				case math.IsInf(x, 1):
					x = replacements[1]
				case math.IsInf(x, -1):
					x = replacements[2]
				}
				return NewNumber(x), nil
			}),
		newFunction("PERCENTILE", "Returns the p-th percentile (0-100) of a list using linear interpolation.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				xs, err := ToDoubleList(args[0])
				if err != nil {
					return NewNull(), err
				}
				p, err := numberArg(args, 1)
				if err != nil {
					return NewNull(), err
				}
				if len(xs) == 0 {
					return NewNull(), errNoValues
				}
				if p < 0 || p > 100 {
					return NewNull(), fmt.Errorf("percentile %s outside [0, 100]", formatNumber(p))
				}
				return NewNumber(percentile(xs, p)), nil
			}),
		withCapabilities(newFunction("RANDOM", "Returns a uniformly distributed random number in [0, 1), [0, max) or [min, max).", 0, 2,
			func(call *Call, args []Value) (Value, error) {
				bounds, err := numbers(args)
				if err != nil {
					return NewNull(), err
				}
				r, err := randomFloat(call.Random())
				if err != nil {
					return NewNull(), err
				}
				lo, hi := 0.0, 1.0
				switch len(bounds) {
				case 1:
					hi = bounds[0]
				case 2:
					lo, hi = bounds[0], bounds[1]
				}
				return NewNumber(lo + r*(hi-lo)), nil
			}), CapNonDeterministic),
		newFunction("FORMAT_NUMBER", "Formats a number with grouping for a locale (default en), optionally with a fixed number of decimals.", 1, 3,
			func(call *Call, args []Value) (Value, error) {
				x, err := numberArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				var opts []number.Option
				if len(args) > 1 && !args[1].IsNull() {
					decimals, err := intArg(args, 1)
					if err != nil {
						return NewNull(), err
					}
					opts = append(opts, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals))
				}
				tag := language.English
				if len(args) > 2 {
					tag, err = language.Parse(textArg(args, 2))
					if err != nil {
						return NewNull(), fmt.Errorf("unknown locale %q: %w", textArg(args, 2), err)
					}
				}
				p := message.NewPrinter(tag)
				return NewText(p.Sprint(number.Decimal(x, opts...))), nil
			}),
	}
}

func unaryMath(name, description string, f func(float64) float64) Function {
	return newFunction(name, description, 1, 1, func(call *Call, args []Value) (Value, error) {
		x, err := numberArg(args, 0)
		if err != nil {
			return NewNull(), err
		}
		return NewNumber(f(x)), nil
	})
}

func numberPredicate(name, description string, pred func(float64) bool) Function {
	return newFunction(name, description, 1, 1, func(call *Call, args []Value) (Value, error) {
		x, err := numberArg(args, 0)
		if err != nil {
			return NewNull(), err
		}
		return NewBool(pred(x)), nil
	})
}

func reduceNumbers(reduce func([]float64) float64) ApplyFunc {
	return func(call *Call, args []Value) (Value, error) {
		var xs []float64
		for _, arg := range args {
			list, err := ToDoubleList(arg)
			if err != nil {
				return NewNull(), err
			}
			xs = append(xs, list...)
		}
		if len(xs) == 0 {
			return NewNull(), errNoValues
		}
		return NewNumber(reduce(xs)), nil
	}
}

func numbers(args []Value) ([]float64, error) {
	xs := make([]float64, len(args))
	for i := range args {
		f, err := numberArg(args, i)
		if err != nil {
			return nil, err
		}
		xs[i] = f
	}
	return xs, nil
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func percentile(xs []float64, p float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}

// randomFloat draws 53 random bits from r and scales them to [0, 1).
func randomFloat(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read random bytes: %w", err)
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}
