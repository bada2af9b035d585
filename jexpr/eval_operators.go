package jexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

func (ev *evaluation) evalUnary(n *UnaryOp) (Value, error) {
	switch n.Op {
	case OpExists:
		ref, ok := n.Operand.(*VariableRef)
		if !ok {
			return NewNull(), fmt.Errorf("EXISTS expects a variable name")
		}
		_, found := ev.env[ref.Name]
		return NewBool(found), nil
	case OpNot:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return NewNull(), err
		}
		b, err := ToBoolean(operand)
		if err != nil {
			return NewNull(), err
		}
		return NewBool(!b), nil
	case OpNeg:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return NewNull(), err
		}
		f, err := ToNumber(operand)
		if err != nil {
			return NewNull(), err
		}
		return NewNumber(-f), nil
	default:
		return NewNull(), fmt.Errorf("unsupported unary operator %s", n.Op)
	}
}

func (ev *evaluation) evalBinary(n *BinaryOp) (Value, error) {
	switch n.Op {
	case OpAnd, OpOr:
		return ev.evalShortCircuit(n)
	case OpSequence:
		if _, err := ev.eval(n.Left); err != nil {
			return NewNull(), err
		}
		return ev.eval(n.Right)
	}

	left, err := ev.eval(n.Left)
	if err != nil {
		return NewNull(), err
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return NewNull(), err
	}

	switch n.Op {
	case OpEq:
		return NewBool(left.Equal(right)), nil
	case OpNotEq:
		return NewBool(!left.Equal(right)), nil
	case OpXor:
		lb, err := ToBoolean(left)
		if err != nil {
			return NewNull(), err
		}
		rb, err := ToBoolean(right)
		if err != nil {
			return NewNull(), err
		}
		return NewBool(lb != rb), nil
	case OpAdd:
		return addValues(left, right)
	case OpSub, OpMul, OpDiv, OpMod, OpPow:
		return arithmetic(n.Op, left, right)
	case OpLT, OpLTE, OpGT, OpGTE:
		return compareValues(n.Op, left, right)
	case OpContains, OpStartsWith, OpEndsWith, OpMatches, OpLike:
		return stringOperator(n.Op, left, right)
	case OpIn:
		return membership(left, right), nil
	case OpAt:
		return elementAt(left, right)
	default:
		return NewNull(), fmt.Errorf("unsupported binary operator %s", n.Op)
	}
}

// evalShortCircuit evaluates the right operand only when the left one does
// not already decide the result.
func (ev *evaluation) evalShortCircuit(n *BinaryOp) (Value, error) {
	left, err := ev.eval(n.Left)
	if err != nil {
		return NewNull(), err
	}
	lb, err := ToBoolean(left)
	if err != nil {
		return NewNull(), err
	}
	if n.Op == OpAnd && !lb {
		return NewBool(false), nil
	}
	if n.Op == OpOr && lb {
		return NewBool(true), nil
	}

	right, err := ev.eval(n.Right)
	if err != nil {
		return NewNull(), err
	}
	rb, err := ToBoolean(right)
	if err != nil {
		return NewNull(), err
	}
	return NewBool(rb), nil
}

// addValues adds numbers, concatenates when either side is text or a path
// and joins two lists. Anything else is added numerically.
func addValues(left, right Value) (Value, error) {
	switch {
	case left.kind == KindNumber && right.kind == KindNumber:
		return NewNumber(left.Number() + right.Number()), nil
	case left.kind == KindPath:
		return NewPath(left.Text() + right.String()), nil
	case left.kind == KindText || right.kind == KindText || right.kind == KindPath:
		return NewText(left.String() + right.String()), nil
	case left.kind == KindList && right.kind == KindList:
		return NewList(append(left.List(), right.list()...)...), nil
	}
	return arithmetic(OpAdd, left, right)
}

func arithmetic(op Operator, left, right Value) (Value, error) {
	a, err := ToNumber(left)
	if err != nil {
		return NewNull(), err
	}
	b, err := ToNumber(right)
	if err != nil {
		return NewNull(), err
	}
	switch op {
	case OpAdd:
		return NewNumber(a + b), nil
	case OpSub:
		return NewNumber(a - b), nil
	case OpMul:
		return NewNumber(a * b), nil
	case OpDiv:
		return NewNumber(a / b), nil
	case OpMod:
		return NewNumber(math.Mod(a, b)), nil
	case OpPow:
		return NewNumber(math.Pow(a, b)), nil
	}
	return NewNull(), fmt.Errorf("unsupported arithmetic operator %s", op)
}

func compareValues(op Operator, left, right Value) (Value, error) {
	a, err := ToNumber(left)
	if err != nil {
		return NewNull(), err
	}
	b, err := ToNumber(right)
	if err != nil {
		return NewNull(), err
	}
	switch op {
	case OpLT:
		return NewBool(a < b), nil
	case OpLTE:
		return NewBool(a <= b), nil
	case OpGT:
		return NewBool(a > b), nil
	default:
		return NewBool(a >= b), nil
	}
}

func stringOperator(op Operator, left, right Value) (Value, error) {
	text, pattern := ToStringValue(left), ToStringValue(right)
	switch op {
	case OpContains:
		return NewBool(strings.Contains(text, pattern)), nil
	case OpStartsWith:
		return NewBool(strings.HasPrefix(text, pattern)), nil
	case OpEndsWith:
		return NewBool(strings.HasSuffix(text, pattern)), nil
	case OpMatches:
		ok, err := matchRegex(text, pattern)
		if err != nil {
			return NewNull(), &EvaluationError{Offset: -1, Function: string(OpMatches), Cause: err}
		}
		return NewBool(ok), nil
	default:
		ok, err := matchGlob(text, pattern)
		if err != nil {
			return NewNull(), &EvaluationError{Offset: -1, Function: string(OpLike), Cause: err}
		}
		return NewBool(ok), nil
	}
}

// matchRegex reports whether pattern matches the whole of text.
func matchRegex(text, pattern string) (bool, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// matchGlob matches text against a glob where `*` spans any run of
// characters (including separators), `?` matches one character and
// `[...]` is a character class.
func matchGlob(text, glob string) (bool, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); {
		r, w := utf8.DecodeRuneInString(glob[i:])
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i:], ']')
			if end < 0 {
				return false, errors.New("unterminated character class in glob " + quoteText(glob))
			}
			class := glob[i+1 : i+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
			continue
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
		i += w
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// membership implements IN: element equality for lists, key presence for
// maps and substring search otherwise.
func membership(needle, haystack Value) Value {
	switch haystack.kind {
	case KindList:
		for _, e := range haystack.list() {
			if e.Equal(needle) {
				return NewBool(true)
			}
		}
		return NewBool(false)
	case KindMap:
		_, ok := haystack.MapGet(ToStringValue(needle))
		return NewBool(ok)
	default:
		return NewBool(strings.Contains(ToStringValue(haystack), ToStringValue(needle)))
	}
}

// elementAt indexes lists and text by position (negative positions count
// from the end) and maps by key.
func elementAt(container, key Value) (Value, error) {
	switch container.kind {
	case KindList:
		elems := container.list()
		i, err := resolveIndex(key, len(elems))
		if err != nil {
			return NewNull(), err
		}
		return elems[i], nil
	case KindText, KindPath:
		runes := []rune(container.Text())
		i, err := resolveIndex(key, len(runes))
		if err != nil {
			return NewNull(), err
		}
		return NewText(string(runes[i])), nil
	case KindMap:
		k := ToStringValue(key)
		v, ok := container.MapGet(k)
		if !ok {
			return NewNull(), &EvaluationError{Offset: -1, Function: string(OpAt), Cause: fmt.Errorf("missing key %q", k)}
		}
		return v, nil
	default:
		return NewNull(), &EvaluationError{Offset: -1, Function: string(OpAt), Cause: fmt.Errorf("cannot index %s", container.kind)}
	}
}

func resolveIndex(key Value, length int) (int, error) {
	i, err := ToInteger(key)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, &EvaluationError{Offset: -1, Function: string(OpAt), Cause: fmt.Errorf("index %s out of range [0, %d)", key, length)}
	}
	return i, nil
}
