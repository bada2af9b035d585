package jexpr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type budget struct {
	steps int
	quota int
}

// evaluation walks one tree. Nested evaluations started through Call share
// the budget of the evaluation that started them.
type evaluation struct {
	ctx    context.Context
	engine *Engine
	source string
	env    Env
	table  *FunctionTable
	budget *budget
	depth  int
}

func (ev *evaluation) step() error {
	b := ev.budget
	b.steps++
	if b.quota > 0 && b.steps > b.quota {
		return &BudgetExceededError{Source: ev.source, Limit: b.quota, Kind: BudgetSteps}
	}
	if ev.ctx != nil {
		select {
		case <-ev.ctx.Done():
			return ev.ctx.Err()
		default:
		}
	}
	return nil
}

func (ev *evaluation) eval(node Node) (Value, error) {
	if err := ev.step(); err != nil {
		return NewNull(), err
	}

	switch n := node.(type) {
	case *NumberLiteral:
		return NewNumber(n.Value), nil
	case *StringLiteral:
		return NewText(n.Value), nil
	case *ConstantLiteral:
		return n.Value, nil
	case *VariableRef:
		v, ok := ev.env[n.Name]
		if !ok {
			return NewNull(), &UnknownVariableError{Source: ev.source, Offset: n.offset, Name: n.Name}
		}
		return v, nil
	case *UnaryOp:
		v, err := ev.evalUnary(n)
		if err != nil {
			return NewNull(), ev.functionError(string(n.Op), n.offset, err)
		}
		return v, nil
	case *BinaryOp:
		v, err := ev.evalBinary(n)
		if err != nil {
			return NewNull(), ev.functionError(string(n.Op), n.offset, err)
		}
		return v, nil
	case *FunctionCall:
		return ev.evalCall(n)
	default:
		return NewNull(), &EvaluationError{Source: ev.source, Offset: node.Offset(), Function: "eval", Cause: fmt.Errorf("unsupported node %T", node)}
	}
}

func (ev *evaluation) evalCall(n *FunctionCall) (Value, error) {
	fn, ok := ev.table.Lookup(n.Name)
	if !ok {
		return NewNull(), &UnknownFunctionError{Source: ev.source, Offset: n.offset, Name: n.Name}
	}
	if !fn.acceptsArity(len(n.Args)) {
		return NewNull(), &ArityError{
			Source: ev.source,
			Offset: n.offset,
			Name:   n.Name,
			Got:    len(n.Args),
			Min:    fn.MinArity,
			Max:    fn.MaxArity,
		}
	}

	call := &Call{ev: ev, fn: fn, offset: n.offset}

	var (
		result Value
		err    error
	)
	if fn.ApplyLazy != nil {
		thunks := make([]Thunk, len(n.Args))
		for i, arg := range n.Args {
			thunks[i] = func() (Value, error) { return ev.eval(arg) }
		}
		result, err = fn.ApplyLazy(call, thunks)
	} else {
		args := make([]Value, len(n.Args))
		for i, arg := range n.Args {
			v, argErr := ev.eval(arg)
			if argErr != nil {
				return NewNull(), argErr
			}
			args[i] = v
		}
		result, err = fn.Apply(call, args)
	}
	if err != nil {
		return NewNull(), ev.functionError(fn.Name, n.offset, err)
	}
	return result, nil
}

// functionError passes typed errors and cancellation through and tags
// anything else with the function or operator name.
func (ev *evaluation) functionError(name string, offset int, err error) error {
	var le locatable
	if errors.As(err, &le) {
		le.locate(ev.source, offset)
		return err
	}
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &EvaluationError{Source: ev.source, Offset: offset, Function: name, Cause: err}
}

// nested starts an evaluation of another tree that shares this budget.
func (ev *evaluation) nested(node Node, source string, env Env) (Value, error) {
	limit := ev.engine.config.RecursionLimit
	if limit > 0 && ev.depth+1 > limit {
		return NewNull(), &BudgetExceededError{Source: source, Limit: limit, Kind: BudgetRecursion}
	}
	child := &evaluation{
		ctx:    ev.ctx,
		engine: ev.engine,
		source: source,
		env:    env,
		table:  ev.table,
		budget: ev.budget,
		depth:  ev.depth + 1,
	}
	return child.eval(node)
}

// Call is handed to function implementations. It exposes the evaluation
// environment and lets functions start nested evaluations.
type Call struct {
	ev     *evaluation
	fn     *Function
	offset int
}

// Name is the name the function was called under.
func (c *Call) Name() string { return c.fn.Name }

func (c *Call) Context() context.Context {
	if c.ev.ctx == nil {
		return context.Background()
	}
	return c.ev.ctx
}

func (c *Call) Logger() *slog.Logger { return c.ev.engine.logger }

func (c *Call) Now() time.Time { return c.ev.engine.config.Clock() }

// Random returns the engine's source of random bytes.
func (c *Call) Random() io.Reader { return c.ev.engine.config.RandomReader }

// Variable reads a variable from the caller's environment.
func (c *Call) Variable(name string) (Value, bool) {
	v, ok := c.ev.env[name]
	return v, ok
}

// Env returns a copy of the caller's environment.
func (c *Call) Env() Env { return c.ev.env.Clone() }

// SetVariable assigns a variable in the caller's environment. Only
// functions registered with CapMutatesEnv may call it.
func (c *Call) SetVariable(name string, v Value) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	c.ev.env[name] = v
	return nil
}

// DeleteVariable removes a variable from the caller's environment. Only
// functions registered with CapMutatesEnv may call it.
func (c *Call) DeleteVariable(name string) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	delete(c.ev.env, name)
	return nil
}

func (c *Call) checkMutable() error {
	if !c.fn.Capabilities.Has(CapMutatesEnv) {
		return fmt.Errorf("%s is not registered to modify variables", c.fn.Name)
	}
	if c.ev.env == nil {
		return errors.New("no writable environment")
	}
	return nil
}

// Evaluate parses and evaluates source against env as a nested evaluation
// that shares the caller's step budget and recursion depth.
func (c *Call) Evaluate(source string, env Env) (Value, error) {
	if isBlank(source) {
		return NewBool(true), nil
	}
	node, err := c.ev.engine.Parse(source)
	if err != nil {
		return NewNull(), err
	}
	return c.EvaluateNode(node, source, env)
}

// EvaluateNode evaluates an already parsed tree as a nested evaluation.
func (c *Call) EvaluateNode(node Node, source string, env Env) (Value, error) {
	if env == nil {
		env = NewEnv()
	}
	return c.ev.nested(node, source, env)
}
