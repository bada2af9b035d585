package jexpr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is reported by Parse when the source contains no tokens.
var ErrEmptyExpression = errors.New("empty expression")

// locatable is implemented by every typed error so the evaluator can attach
// the expression source and the offset of the node that failed.
type locatable interface {
	error
	locate(source string, offset int)
}

// SyntaxError reports a tokenizer or parser failure.
type SyntaxError struct {
	Source  string
	Offset  int
	Message string

	cause error
}

func (e *SyntaxError) Error() string {
	return withFrame(fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message), e.Source, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.cause }

// UnknownVariableError reports a variable reference with no binding.
type UnknownVariableError struct {
	Source string
	Offset int
	Name   string
}

func (e *UnknownVariableError) Error() string {
	return withFrame(fmt.Sprintf("unknown variable %q", e.Name), e.Source, e.Offset)
}

func (e *UnknownVariableError) locate(source string, offset int) {
	locateFields(&e.Source, &e.Offset, source, offset)
}

// UnknownFunctionError reports a call to a function absent from the registry.
type UnknownFunctionError struct {
	Source string
	Offset int
	Name   string
}

func (e *UnknownFunctionError) Error() string {
	return withFrame(fmt.Sprintf("unknown function %q", e.Name), e.Source, e.Offset)
}

func (e *UnknownFunctionError) locate(source string, offset int) {
	locateFields(&e.Source, &e.Offset, source, offset)
}

// ArityError reports a call whose argument count is outside [Min, Max].
type ArityError struct {
	Source string
	Offset int
	Name   string
	Got    int
	Min    int
	Max    int
}

func (e *ArityError) Error() string {
	return withFrame(fmt.Sprintf("%s expects %s, got %d", e.Name, arityText(e.Min, e.Max), e.Got), e.Source, e.Offset)
}

func (e *ArityError) locate(source string, offset int) {
	locateFields(&e.Source, &e.Offset, source, offset)
}

func arityText(minArity, maxArity int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}
		return fmt.Sprintf("%d arguments", n)
	}
	switch {
	case maxArity == Unbounded:
		return "at least " + plural(minArity)
	case minArity == maxArity:
		return plural(minArity)
	default:
		return fmt.Sprintf("%d to %d arguments", minArity, maxArity)
	}
}

// CoercionError reports a value that cannot be converted to the requested kind.
type CoercionError struct {
	Source string
	Offset int
	From   Kind
	To     string
	Detail string
}

func newCoercionError(v Value, to string) *CoercionError {
	detail := v.String()
	if len(detail) > 40 {
		detail = detail[:37] + "..."
	}
	return &CoercionError{Offset: -1, From: v.Kind(), To: to, Detail: detail}
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%q)", e.Detail)
	}
	return withFrame(msg, e.Source, e.Offset)
}

func (e *CoercionError) locate(source string, offset int) {
	locateFields(&e.Source, &e.Offset, source, offset)
}

// EvaluationError wraps a failure raised inside a function or operator.
type EvaluationError struct {
	Source   string
	Offset   int
	Function string
	Cause    error
}

func (e *EvaluationError) Error() string {
	return withFrame(fmt.Sprintf("%s: %v", e.Function, e.Cause), e.Source, e.Offset)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

func (e *EvaluationError) locate(source string, offset int) {
	locateFields(&e.Source, &e.Offset, source, offset)
}

const (
	BudgetSteps     = "steps"
	BudgetRecursion = "recursion"
)

// BudgetExceededError reports that an evaluation ran past its step quota
// or nested deeper than the recursion limit.
type BudgetExceededError struct {
	Source string
	Limit  int
	Kind   string
}

func (e *BudgetExceededError) Error() string {
	if e.Kind == BudgetRecursion {
		return fmt.Sprintf("recursion limit exceeded (%d)", e.Limit)
	}
	return fmt.Sprintf("step quota exceeded (%d)", e.Limit)
}

func (e *BudgetExceededError) locate(source string, _ int) {
	if e.Source == "" {
		e.Source = source
	}
}

func locateFields(dstSource *string, dstOffset *int, source string, offset int) {
	if *dstSource == "" {
		*dstSource = source
		if *dstOffset < 0 {
			*dstOffset = offset
		}
	}
}

func withFrame(msg, source string, offset int) string {
	frame := formatCodeFrame(source, offset)
	if frame == "" {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	b.WriteString("\n")
	b.WriteString(frame)
	return b.String()
}

// ErrorKind classifies err into a short, stable label suitable for logs and
// metric labels.
func ErrorKind(err error) string {
	if err == nil {
		return "none"
	}
	var (
		syntaxErr   *SyntaxError
		varErr      *UnknownVariableError
		fnErr       *UnknownFunctionError
		arityErr    *ArityError
		coercionErr *CoercionError
		evalErr     *EvaluationError
		budgetErr   *BudgetExceededError
	)
	switch {
	case errors.As(err, &budgetErr):
		return "budget_exceeded"
	case errors.As(err, &syntaxErr):
		return "syntax"
	case errors.As(err, &varErr):
		return "unknown_variable"
	case errors.As(err, &fnErr):
		return "unknown_function"
	case errors.As(err, &arityErr):
		return "arity"
	case errors.As(err, &coercionErr):
		return "coercion"
	case errors.As(err, &evalErr):
		return "evaluation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
