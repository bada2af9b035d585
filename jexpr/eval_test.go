package jexpr

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func evalValue(t *testing.T, engine *Engine, source string, env Env) Value {
	t.Helper()
	v, err := engine.EvaluateString(source, env)
	if err != nil {
		t.Fatalf("evaluate %q failed: %v", source, err)
	}
	return v
}

func TestEvaluateOperators(t *testing.T) {
	engine := newTestEngine(t, Config{})
	env := Env{
		"x":        NewNumber(4),
		"name":     NewText("sample_01.tif"),
		"flag":     NewBool(true),
		"items":    NewList(NewNumber(1), NewText("b"), NewNumber(3)),
		"meta":     NewMap(MapEntry{"channel", NewText("GFP")}),
		"a.b":      NewNumber(7),
		"spaced x": NewNumber(2),
	}

	cases := []struct {
		source string
		want   Value
	}{
		{"2 + 3 * 4", NewNumber(14)},
		{"(2 + 3) * 4", NewNumber(20)},
		{"10 - 3 - 2", NewNumber(5)},
		{"2 ^ 3 ^ 2", NewNumber(512)},
		{"-2 ^ 2", NewNumber(4)},
		{"7 % 4", NewNumber(3)},
		{"1 / 0", NewNumber(math.Inf(1))},
		{`1 == "1"`, NewBool(false)},
		{`1 < "2"`, NewBool(true)},
		{"x >= 4 AND x <= 4", NewBool(true)},
		{"x != 4 OR flag", NewBool(true)},
		{"true XOR true", NewBool(false)},
		{"NOT flag", NewBool(false)},
		{"!false", NewBool(true)},
		{"-x", NewNumber(-4)},
		{`"a" + 1`, NewText("a1")},
		{`1 + "a"`, NewText("1a")},
		{`"2" - 1`, NewNumber(1)},
		{"ARRAY(1) + ARRAY(2)", NewList(NewNumber(1), NewNumber(2))},
		{`name CONTAINS "01"`, NewBool(true)},
		{`name STARTS_WITH "sample"`, NewBool(true)},
		{`name ENDS_WITH ".png"`, NewBool(false)},
		{`name LIKE "*.tif"`, NewBool(true)},
		{`name LIKE "sample_0?.tif"`, NewBool(true)},
		{`name MATCHES "sample_\\d+\\.tif"`, NewBool(true)},
		{`name MATCHES "sample"`, NewBool(false)},
		{`"b" IN items`, NewBool(true)},
		{"2 IN items", NewBool(false)},
		{`"channel" IN meta`, NewBool(true)},
		{`"GF" IN "GFP"`, NewBool(true)},
		{"items[0]", NewNumber(1)},
		{"items[-1]", NewNumber(3)},
		{"items @ 1", NewText("b")},
		{`meta AT "channel"`, NewText("GFP")},
		{`name[0]`, NewText("s")},
		{"a.b + 1", NewNumber(8)},
		{`$"spaced x" * 3`, NewNumber(6)},
		{"EXISTS x", NewBool(true)},
		{"EXISTS missing", NewBool(false)},
		{"1; 2; 3", NewNumber(3)},
		{"PI > 3 AND E < 3 AND TAU > 6", NewBool(true)},
		{"null == null", NewBool(true)},
		{`"line" + NEWLINE`, NewText("line\n")},
		{"", NewBool(true)},
		{"  ;", NewBool(true)},
	}

	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			got := evalValue(t, engine, tc.source, env)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s (%s), got %s (%s)", tc.want, tc.want.Kind(), got, got.Kind())
			}
		})
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	engine := newTestEngine(t, Config{})

	v := evalValue(t, engine, "false AND undefined_var", Env{})
	if !v.Equal(NewBool(false)) {
		t.Fatalf("expected false, got %s", v)
	}
	v = evalValue(t, engine, "true OR undefined_var", Env{})
	if !v.Equal(NewBool(true)) {
		t.Fatalf("expected true, got %s", v)
	}

	_, err := engine.EvaluateString("true AND undefined_var", Env{})
	var varErr *UnknownVariableError
	if !errors.As(err, &varErr) || varErr.Name != "undefined_var" {
		t.Fatalf("expected unknown variable error, got %v", err)
	}

	v = evalValue(t, engine, `IF_ELSE(true, 1, undefined_var)`, Env{})
	if v.Number() != 1 {
		t.Fatalf("expected lazy IF_ELSE to skip the other branch, got %s", v)
	}
}

func TestEvaluateOperandsMustBeBoolean(t *testing.T) {
	engine := newTestEngine(t, Config{})
	for _, source := range []string{"1 AND true", `NOT "true"`, "false OR 0", "false XOR null"} {
		_, err := engine.EvaluateString(source, nil)
		var coercionErr *CoercionError
		if !errors.As(err, &coercionErr) || coercionErr.To != "boolean" {
			t.Fatalf("%q: expected boolean coercion error, got %v", source, err)
		}
	}
}

func TestEvaluateUnknownIdentifiers(t *testing.T) {
	engine := newTestEngine(t, Config{})

	_, err := engine.EvaluateString("unknown_var + 1", Env{})
	var varErr *UnknownVariableError
	if !errors.As(err, &varErr) {
		t.Fatalf("expected unknown variable error, got %v", err)
	}
	if varErr.Name != "unknown_var" || varErr.Offset != 0 || varErr.Source != "unknown_var + 1" {
		t.Fatalf("unexpected error fields %+v", varErr)
	}

	_, err = engine.EvaluateString("1 + NOPE(2)", Env{})
	var fnErr *UnknownFunctionError
	if !errors.As(err, &fnErr) || fnErr.Name != "NOPE" || fnErr.Offset != 4 {
		t.Fatalf("expected unknown function error at offset 4, got %v", err)
	}
}

func TestEvaluateArity(t *testing.T) {
	pairMax := newFunction("MAX", "Maximum of two numbers.", 2, 2, func(call *Call, args []Value) (Value, error) {
		return NewNumber(math.Max(args[0].Number(), args[1].Number())), nil
	})
	engine := newTestEngine(t, Config{Functions: []Function{pairMax}})

	for _, source := range []string{"MAX(1, 2, 3)", "MAX(1)"} {
		_, err := engine.EvaluateString(source, nil)
		var arityErr *ArityError
		if !errors.As(err, &arityErr) {
			t.Fatalf("%q: expected arity error, got %v", source, err)
		}
		if arityErr.Name != "MAX" || arityErr.Min != 2 || arityErr.Max != 2 {
			t.Fatalf("unexpected arity error %+v", arityErr)
		}
	}
	if v := evalValue(t, engine, "MAX(1, 2)", nil); v.Number() != 2 {
		t.Fatalf("expected 2, got %s", v)
	}
}

func TestEvaluateErrorsCarryPosition(t *testing.T) {
	engine := newTestEngine(t, Config{})

	_, err := engine.EvaluateString(`1 + "x" * 2`, nil)
	var coercionErr *CoercionError
	if !errors.As(err, &coercionErr) {
		t.Fatalf("expected coercion error, got %v", err)
	}
	if coercionErr.Offset != 8 || coercionErr.From != KindText {
		t.Fatalf("expected coercion at the * operator, got %+v", coercionErr)
	}
	if !strings.Contains(err.Error(), "column 9") {
		t.Fatalf("expected code frame in message, got %q", err.Error())
	}

	_, err = engine.EvaluateString("ARRAY(1, 2)[5]", nil)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Function != "@" || evalErr.Offset != 11 {
		t.Fatalf("expected indexing error at offset 11, got %v", err)
	}

	_, err = engine.EvaluateString("2 + )", nil)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) || syntaxErr.Offset != 4 {
		t.Fatalf("expected syntax error at offset 4, got %v", err)
	}
}

func TestEvaluateFunctionFailureIsTagged(t *testing.T) {
	boom := errors.New("boom")
	failing := newFunction("FAIL", "", 0, 0, func(call *Call, args []Value) (Value, error) {
		return NewNull(), boom
	})
	engine := newTestEngine(t, Config{Functions: []Function{failing}})

	_, err := engine.EvaluateString("1 + FAIL()", nil)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected evaluation error, got %v", err)
	}
	if evalErr.Function != "FAIL" || evalErr.Offset != 4 || !errors.Is(err, boom) {
		t.Fatalf("unexpected evaluation error %+v", evalErr)
	}
	if ErrorKind(err) != "evaluation" {
		t.Fatalf("unexpected kind %q", ErrorKind(err))
	}
}

func TestEvaluateStepBudget(t *testing.T) {
	engine := newTestEngine(t, Config{StepQuota: 5})

	_, err := engine.EvaluateString("1 + 1 + 1 + 1 + 1 + 1", nil)
	var budgetErr *BudgetExceededError
	if !errors.As(err, &budgetErr) || budgetErr.Kind != BudgetSteps || budgetErr.Limit != 5 {
		t.Fatalf("expected step budget error, got %v", err)
	}
	if v := evalValue(t, engine, "1 + 1", nil); v.Number() != 2 {
		t.Fatalf("small expression should fit the budget, got %s", v)
	}

	unlimited := newTestEngine(t, Config{StepQuota: -1})
	if v := evalValue(t, unlimited, "SUM(SEQUENCE(0, 1000))", nil); v.Number() != 499500 {
		t.Fatalf("expected 499500, got %s", v)
	}
}

func TestEvaluateRecursionLimit(t *testing.T) {
	recurse := newFunction("RECURSE", "", 0, 0, func(call *Call, args []Value) (Value, error) {
		return call.Evaluate("RECURSE()", nil)
	})
	engine := newTestEngine(t, Config{RecursionLimit: 8, Functions: []Function{recurse}})

	_, err := engine.EvaluateString("RECURSE()", nil)
	var budgetErr *BudgetExceededError
	if !errors.As(err, &budgetErr) || budgetErr.Kind != BudgetRecursion || budgetErr.Limit != 8 {
		t.Fatalf("expected recursion budget error, got %v", err)
	}
	if ErrorKind(err) != "budget_exceeded" {
		t.Fatalf("unexpected kind %q", ErrorKind(err))
	}
}

func TestEvaluateNestedSharesStepBudget(t *testing.T) {
	engine := newTestEngine(t, Config{StepQuota: 20})
	_, err := engine.EvaluateString(`EVALUATE("1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1")`, nil)
	var budgetErr *BudgetExceededError
	if !errors.As(err, &budgetErr) || budgetErr.Kind != BudgetSteps {
		t.Fatalf("expected nested evaluation to exhaust the shared budget, got %v", err)
	}
}

func TestEvaluateHonoursCancellation(t *testing.T) {
	engine := newTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.EvaluateContext(ctx, NewExpression("1 + 2"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if ErrorKind(err) != "canceled" {
		t.Fatalf("unexpected kind %q", ErrorKind(err))
	}
}

func TestEvaluateDoesNotMutateEnvironment(t *testing.T) {
	engine := newTestEngine(t, Config{})
	env := Env{"items": NewList(NewNumber(3), NewNumber(1))}

	evalValue(t, engine, `SORT_ASCENDING(items); TRANSFORM_ARRAY(items, "value * 2"); GET_VARIABLE_KEYS()`, env)
	if len(env) != 1 {
		t.Fatalf("environment gained variables: %v", env.Keys())
	}
	if first := env["items"].List()[0]; first.Number() != 3 {
		t.Fatalf("list variable was modified: %s", env["items"])
	}

	evalValue(t, engine, `SET_VARIABLE("y", 5)`, env)
	if v, ok := env["y"]; !ok || v.Number() != 5 {
		t.Fatalf("SET_VARIABLE should assign in the caller environment, got %v", env.Keys())
	}
}

func TestEvaluateMutationRequiresCapability(t *testing.T) {
	sneaky := newFunction("SNEAKY", "", 0, 0, func(call *Call, args []Value) (Value, error) {
		return NewNull(), call.SetVariable("x", NewNumber(1))
	})
	engine := newTestEngine(t, Config{Functions: []Function{sneaky}})
	env := Env{}
	if _, err := engine.EvaluateString("SNEAKY()", env); err == nil {
		t.Fatalf("expected mutation without capability to fail")
	}
	if len(env) != 0 {
		t.Fatalf("environment was mutated: %v", env.Keys())
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	engine := newTestEngine(t, Config{})
	source := `IF_ELSE(x > 2, FORMAT_STRING("{} items", x * 2), JOIN(ARRAY("a", x), "-"))`
	node, err := engine.Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	first, err := engine.EvaluateNode(context.Background(), node, source, Env{"x": NewNumber(3)})
	if err != nil {
		t.Fatalf("first evaluation failed: %v", err)
	}
	second, err := engine.EvaluateNode(context.Background(), node, source, Env{"x": NewNumber(3)})
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}
	if !first.Equal(second) || first.Text() != "6 items" {
		t.Fatalf("expected identical results, got %s and %s", first, second)
	}
}

func TestEvaluateConcurrentSharedTree(t *testing.T) {
	engine := newTestEngine(t, Config{})
	expr := NewExpression("x * 2 + SUM(ARRAY(x, 1))")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env := Env{"x": NewNumber(float64(i))}
			v, err := engine.Evaluate(expr, env)
			if err != nil {
				errs <- err
				return
			}
			if want := float64(3*i + 1); v.Number() != want {
				errs <- errors.New("wrong result " + v.String())
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent evaluation failed: %v", err)
	}
}
