package jexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func stringFunctions() []Function {
	return []Function{
		stringPredicate("STRING_CONTAINS", "Returns true if the first string contains the second.", strings.Contains),
		stringPredicate("STRING_EQUALS", "Compares the string representations of two values.", func(a, b string) bool { return a == b }),
		stringPredicate("STRING_STARTS_WITH", "Returns true if the first string starts with the second.", strings.HasPrefix),
		stringPredicate("STRING_ENDS_WITH", "Returns true if the first string ends with the second.", strings.HasSuffix),
		newFunction("STRING_MATCHES_GLOB", "Returns true if the string matches a glob pattern (*, ?, [...]).", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				ok, err := matchGlob(textArg(args, 0), textArg(args, 1))
				if err != nil {
					return NewNull(), err
				}
				return NewBool(ok), nil
			}),
		newFunction("STRING_MATCHES_REGEX", "Returns true if the whole string matches a regular expression.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				ok, err := matchRegex(textArg(args, 0), textArg(args, 1))
				if err != nil {
					return NewNull(), err
				}
				return NewBool(ok), nil
			}),
		newFunction("SPLIT", "Splits a string at every occurrence of the separator.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return textList(strings.Split(textArg(args, 0), textArg(args, 1))), nil
			}),
		newFunction("JOIN", "Joins the string representations of list elements with a separator.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				elems, err := listArg(args, 0)
				if err != nil {
					return NewNull(), err
				}
				parts := make([]string, len(elems))
				for i, e := range elems {
					parts[i] = e.String()
				}
				return NewText(strings.Join(parts, textArg(args, 1))), nil
			}),
		newFunction("REPLACE_IN_STRING", "Replaces all occurrences of a substring.", 3, 3,
			func(call *Call, args []Value) (Value, error) {
				return NewText(strings.ReplaceAll(textArg(args, 0), textArg(args, 1), textArg(args, 2))), nil
			}),
		newFunction("REGEX_REPLACE_IN_STRING", "Replaces all regular expression matches. $1 refers to capture groups.", 3, 3,
			func(call *Call, args []Value) (Value, error) {
				re, err := regexp.Compile(textArg(args, 1))
				if err != nil {
					return NewNull(), err
				}
				return NewText(re.ReplaceAllString(textArg(args, 0), textArg(args, 2))), nil
			}),
		newFunction("REGEX_EXTRACT_MATCHES", "Returns all non-overlapping matches of a regular expression.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				re, err := regexp.Compile(textArg(args, 1))
				if err != nil {
					return NewNull(), err
				}
				return textList(re.FindAllString(textArg(args, 0), -1)), nil
			}),
		textTransform("TO_LOWER_CASE", "Converts a string to lower case.", caseMapper(cases.Lower)),
		textTransform("TO_UPPER_CASE", "Converts a string to upper case.", caseMapper(cases.Upper)),
		textTransform("TO_TITLE_CASE", "Capitalises the first letter of every word.", caseMapper(cases.Title)),
		textTransform("TRIM_STRING", "Removes leading and trailing whitespace.", strings.TrimSpace),
		textTransform("FIX_FILENAME", "Replaces characters that are not allowed in file names with underscores.", fixFilename),
		newFunction("STRING_SLICE", "Returns the characters from start (inclusive) to end (exclusive). Negative positions count from the end.", 2, 3,
			func(call *Call, args []Value) (Value, error) {
				runes := []rune(textArg(args, 0))
				start, end, err := sliceBounds(args[1:], len(runes))
				if err != nil {
					return NewNull(), err
				}
				return NewText(string(runes[start:end])), nil
			}),
		newFunction("STRING_TRUNCATE", "Keeps at most the given number of characters.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				runes := []rune(textArg(args, 0))
				n, err := intArg(args, 1)
				if err != nil {
					return NewNull(), err
				}
				n = max(0, min(n, len(runes)))
				return NewText(string(runes[:n])), nil
			}),
		newFunction("STRING_FIRST_INDEX_OF", "Returns the character position of the first occurrence or -1.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return NewNumber(float64(runeIndex(textArg(args, 0), textArg(args, 1), strings.Index))), nil
			}),
		newFunction("STRING_LAST_INDEX_OF", "Returns the character position of the last occurrence or -1.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				return NewNumber(float64(runeIndex(textArg(args, 0), textArg(args, 1), strings.LastIndex))), nil
			}),
		newFunction("FORMAT_STRING", "Replaces {} placeholders in order, or {N} by argument position.", 1, Unbounded,
			func(call *Call, args []Value) (Value, error) {
				return formatString(textArg(args, 0), args[1:])
			}),
		newFunction("LENGTH", "Returns the number of characters of a string or the number of elements of a list or map.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				switch args[0].kind {
				case KindText, KindPath, KindList, KindMap:
					return NewNumber(float64(args[0].Len())), nil
				}
				return NewNull(), newCoercionError(args[0], "collection")
			}),
	}
}

func stringPredicate(name, description string, pred func(a, b string) bool) Function {
	return newFunction(name, description, 2, 2, func(call *Call, args []Value) (Value, error) {
		return NewBool(pred(textArg(args, 0), textArg(args, 1))), nil
	})
}

func textTransform(name, description string, f func(string) string) Function {
	return newFunction(name, description, 1, 1, func(call *Call, args []Value) (Value, error) {
		return NewText(f(textArg(args, 0))), nil
	})
}

// caseMapper builds a fresh Caser per call; Casers are stateful and must
// not be shared between goroutines.
func caseMapper(newCaser func(language.Tag, ...cases.Option) cases.Caser) func(string) string {
	return func(s string) string {
		return newCaser(language.Und).String(s)
	}
}

func fixFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, s)
}

// runeIndex converts the byte index returned by find into a rune index.
func runeIndex(s, sub string, find func(string, string) int) int {
	i := find(s, sub)
	if i < 0 {
		return -1
	}
	return len([]rune(s[:i]))
}

// sliceBounds resolves optional [start, end) arguments against length.
// Negative positions count from the end; results are clamped.
func sliceBounds(bounds []Value, length int) (int, int, error) {
	start, end := 0, length
	if len(bounds) > 0 {
		i, err := ToInteger(bounds[0])
		if err != nil {
			return 0, 0, err
		}
		start = i
	}
	if len(bounds) > 1 {
		i, err := ToInteger(bounds[1])
		if err != nil {
			return 0, 0, err
		}
		end = i
	}
	resolve := func(i int) int {
		if i < 0 {
			i += length
		}
		return max(0, min(i, length))
	}
	start, end = resolve(start), resolve(end)
	if end < start {
		end = start
	}
	return start, end, nil
}

func formatString(format string, args []Value) (Value, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '{' {
			b.WriteByte(format[i])
			continue
		}
		closing := strings.IndexByte(format[i:], '}')
		if closing < 0 {
			b.WriteString(format[i:])
			break
		}
		inner := format[i+1 : i+closing]
		idx := next
		if inner != "" {
			n, err := strconv.Atoi(inner)
			if err != nil {
				b.WriteString(format[i : i+closing+1])
				i += closing
				continue
			}
			idx = n
		} else {
			next++
		}
		if idx < 0 || idx >= len(args) {
			return NewNull(), fmt.Errorf("placeholder %d has no argument", idx)
		}
		b.WriteString(args[idx].String())
		i += closing
	}
	return NewText(b.String()), nil
}
