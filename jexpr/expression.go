package jexpr

import (
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Expression is a formula held as source text. Its tree is parsed lazily
// on first evaluation and then reused. Equality and serialisation use the
// source only.
type Expression struct {
	source string

	once sync.Once
	node Node
	err  error
}

func NewExpression(source string) *Expression {
	return &Expression{source: source}
}

func (x *Expression) Source() string {
	if x == nil {
		return ""
	}
	return x.source
}

func (x *Expression) String() string { return x.Source() }

// Equal compares expressions by source text.
func (x *Expression) Equal(other *Expression) bool {
	return x.Source() == other.Source()
}

// AST returns the parsed tree, parsing on first use.
func (x *Expression) AST() (Node, error) {
	return x.parse(DefaultEngine())
}

func (x *Expression) parse(e *Engine) (Node, error) {
	x.once.Do(func() {
		x.node, x.err = e.Parse(x.source)
	})
	return x.node, x.err
}

func (x *Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.Source())
}

func (x *Expression) UnmarshalJSON(data []byte) error {
	var source string
	if err := json.Unmarshal(data, &source); err != nil {
		return fmt.Errorf("expression must be a JSON string: %w", err)
	}
	x.reset(source)
	return nil
}

func (x *Expression) MarshalYAML() (any, error) {
	return x.Source(), nil
}

func (x *Expression) UnmarshalYAML(node *yaml.Node) error {
	var source string
	if err := node.Decode(&source); err != nil {
		return fmt.Errorf("expression must be a YAML string: %w", err)
	}
	x.reset(source)
	return nil
}

func (x *Expression) reset(source string) {
	x.source = source
	x.once = sync.Once{}
	x.node = nil
	x.err = nil
}

// EvaluateToNumber evaluates expr and converts the result with ToNumber.
func (e *Engine) EvaluateToNumber(expr *Expression, env Env) (float64, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return 0, err
	}
	f, err := ToNumber(v)
	return f, withSource(err, expr.Source())
}

// EvaluateToInteger evaluates expr and converts the result with ToInteger.
func (e *Engine) EvaluateToInteger(expr *Expression, env Env) (int, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return 0, err
	}
	i, err := ToInteger(v)
	return i, withSource(err, expr.Source())
}

// EvaluateToBoolean evaluates expr and requires a boolean result.
func (e *Engine) EvaluateToBoolean(expr *Expression, env Env) (bool, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return false, err
	}
	b, err := ToBoolean(v)
	return b, withSource(err, expr.Source())
}

// EvaluateToString evaluates expr and renders the result canonically.
func (e *Engine) EvaluateToString(expr *Expression, env Env) (string, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return "", err
	}
	return ToStringValue(v), nil
}

// EvaluateToColor evaluates expr and converts the result with ToColor.
func (e *Engine) EvaluateToColor(expr *Expression, env Env) (Color, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return Color{}, err
	}
	c, err := ToColor(v)
	return c, withSource(err, expr.Source())
}

// EvaluateToDoubleList evaluates expr and converts the result with
// ToDoubleList.
func (e *Engine) EvaluateToDoubleList(expr *Expression, env Env) ([]float64, error) {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return nil, err
	}
	list, err := ToDoubleList(v)
	return list, withSource(err, expr.Source())
}

// EvaluateOr returns def when evaluation fails for any reason.
func (e *Engine) EvaluateOr(expr *Expression, env Env, def Value) Value {
	v, err := e.Evaluate(expr, env)
	if err != nil {
		return def
	}
	return v
}

// EvaluateToIntegerOr returns def when evaluation or integer conversion
// fails for any reason. Callers opting into this must document def.
func (e *Engine) EvaluateToIntegerOr(expr *Expression, env Env, def int) int {
	i, err := e.EvaluateToInteger(expr, env)
	if err != nil {
		return def
	}
	return i
}

// MatchesQuery evaluates a string filter against text, which is bound to
// the variables `value` and `text`. The query must yield a boolean; a bare
// word is a variable reference, so literal matches must be quoted
// (`value == "foo"`).
func (e *Engine) MatchesQuery(query *Expression, text string) (bool, error) {
	env := Env{"value": NewText(text), "text": NewText(text)}
	return e.EvaluateToBoolean(query, env)
}

func withSource(err error, source string) error {
	if le, ok := err.(locatable); ok {
		le.locate(source, -1)
	}
	return err
}

// Evaluate evaluates expr with the default engine.
func Evaluate(expr *Expression, env Env) (Value, error) {
	return DefaultEngine().Evaluate(expr, env)
}

// EvaluateString evaluates source with the default engine.
func EvaluateString(source string, env Env) (Value, error) {
	return DefaultEngine().EvaluateString(source, env)
}

func EvaluateToNumber(expr *Expression, env Env) (float64, error) {
	return DefaultEngine().EvaluateToNumber(expr, env)
}

func EvaluateToInteger(expr *Expression, env Env) (int, error) {
	return DefaultEngine().EvaluateToInteger(expr, env)
}

func EvaluateToBoolean(expr *Expression, env Env) (bool, error) {
	return DefaultEngine().EvaluateToBoolean(expr, env)
}

func EvaluateToString(expr *Expression, env Env) (string, error) {
	return DefaultEngine().EvaluateToString(expr, env)
}

func EvaluateToColor(expr *Expression, env Env) (Color, error) {
	return DefaultEngine().EvaluateToColor(expr, env)
}

func EvaluateToDoubleList(expr *Expression, env Env) ([]float64, error) {
	return DefaultEngine().EvaluateToDoubleList(expr, env)
}

func EvaluateOr(expr *Expression, env Env, def Value) Value {
	return DefaultEngine().EvaluateOr(expr, env, def)
}

func EvaluateToIntegerOr(expr *Expression, env Env, def int) int {
	return DefaultEngine().EvaluateToIntegerOr(expr, env, def)
}
