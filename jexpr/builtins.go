package jexpr

import "errors"

// builtinFunctions returns every built-in function in registration order.
func builtinFunctions() []Function {
	var fns []Function
	fns = append(fns, controlFunctions()...)
	fns = append(fns, variableFunctions()...)
	fns = append(fns, conversionFunctions()...)
	fns = append(fns, numericFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, collectionFunctions()...)
	fns = append(fns, pathFunctions()...)
	fns = append(fns, colorFunctions()...)
	fns = append(fns, timeFunctions()...)
	return fns
}

// Builtins returns the built-in functions, for hosts that assemble their
// own registry.
func Builtins() []Function {
	return builtinFunctions()
}

// DefaultRegistry returns a new registry holding only the built-ins.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(builtinFunctions()...)
	if err != nil {
		panic(err)
	}
	return r
}

func newFunction(name, description string, minArity, maxArity int, apply ApplyFunc) Function {
	return Function{Name: name, Description: description, MinArity: minArity, MaxArity: maxArity, Apply: apply}
}

func newLazyFunction(name, description string, minArity, maxArity int, apply LazyApplyFunc) Function {
	return Function{Name: name, Description: description, MinArity: minArity, MaxArity: maxArity, ApplyLazy: apply}
}

func withCapabilities(fn Function, caps Capability) Function {
	fn.Capabilities |= caps
	return fn
}

func numberArg(args []Value, i int) (float64, error) {
	return ToNumber(args[i])
}

func intArg(args []Value, i int) (int, error) {
	return ToInteger(args[i])
}

func textArg(args []Value, i int) string {
	return ToStringValue(args[i])
}

func listArg(args []Value, i int) ([]Value, error) {
	if args[i].kind != KindList {
		return nil, newCoercionError(args[i], "list")
	}
	return args[i].list(), nil
}

func mapArg(args []Value, i int) (Value, error) {
	if args[i].kind != KindMap {
		return NewNull(), newCoercionError(args[i], "map")
	}
	return args[i], nil
}

func textList(items []string) Value {
	elems := make([]Value, len(items))
	for i, s := range items {
		elems[i] = NewText(s)
	}
	return NewList(elems...)
}

func numberList(items []float64) Value {
	elems := make([]Value, len(items))
	for i, f := range items {
		elems[i] = NewNumber(f)
	}
	return NewList(elems...)
}

func controlFunctions() []Function {
	return []Function{
		newLazyFunction("IF_ELSE", "Returns the second argument if the condition is true, otherwise the third. Only the chosen branch is evaluated.", 3, 3,
			func(call *Call, args []Thunk) (Value, error) {
				cond, err := args[0]()
				if err != nil {
					return NewNull(), err
				}
				ok, err := ToBoolean(cond)
				if err != nil {
					return NewNull(), err
				}
				if ok {
					return args[1]()
				}
				return args[2]()
			}),
		newLazyFunction("SWITCH", "Takes condition/value pairs and returns the value of the first true condition. A trailing odd argument is the default.", 2, Unbounded,
			func(call *Call, args []Thunk) (Value, error) {
				for i := 0; i+1 < len(args); i += 2 {
					cond, err := args[i]()
					if err != nil {
						return NewNull(), err
					}
					ok, err := ToBoolean(cond)
					if err != nil {
						return NewNull(), err
					}
					if ok {
						return args[i+1]()
					}
				}
				if len(args)%2 == 1 {
					return args[len(args)-1]()
				}
				return NewNull(), nil
			}),
		newFunction("EVALUATE", "Evaluates a string as an expression in the current variable scope.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				source := textArg(args, 0)
				if isBlank(source) {
					return NewBool(true), nil
				}
				node, err := call.ev.engine.Parse(source)
				if err != nil {
					return NewNull(), err
				}
				return call.ev.nested(node, source, call.ev.env)
			}),
		newFunction("PRINT", "Logs the value and returns it unchanged.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				call.Logger().Info("expression output", "value", args[0].String(), "kind", args[0].Kind().String())
				return args[0], nil
			}),
	}
}

func variableFunctions() []Function {
	return []Function{
		newFunction("GET_VARIABLE", "Returns the variable with the given name.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				name := textArg(args, 0)
				v, ok := call.Variable(name)
				if !ok {
					return NewNull(), &UnknownVariableError{Offset: -1, Name: name}
				}
				return v, nil
			}),
		newFunction("GET_VARIABLE_OR_DEFAULT", "Returns the variable with the given name or the default if it does not exist.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				if v, ok := call.Variable(textArg(args, 0)); ok {
					return v, nil
				}
				return args[1], nil
			}),
		newFunction("VARIABLE_EXISTS", "Returns true if a variable with the given name exists.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				_, ok := call.Variable(textArg(args, 0))
				return NewBool(ok), nil
			}),
		withCapabilities(newFunction("SET_VARIABLE", "Assigns a variable and returns the assigned value.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				if err := call.SetVariable(textArg(args, 0), args[1]); err != nil {
					return NewNull(), err
				}
				return args[1], nil
			}), CapMutatesEnv),
		withCapabilities(newFunction("SET_MISSING_VARIABLE", "Assigns a variable only if it does not exist yet and returns its value.", 2, 2,
			func(call *Call, args []Value) (Value, error) {
				name := textArg(args, 0)
				if v, ok := call.Variable(name); ok {
					return v, nil
				}
				if err := call.SetVariable(name, args[1]); err != nil {
					return NewNull(), err
				}
				return args[1], nil
			}), CapMutatesEnv),
		withCapabilities(newFunction("UNSET_VARIABLE", "Removes a variable. Returns true if it existed.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				name := textArg(args, 0)
				_, existed := call.Variable(name)
				if err := call.DeleteVariable(name); err != nil {
					return NewNull(), err
				}
				return NewBool(existed), nil
			}), CapMutatesEnv),
		newFunction("GET_VARIABLE_KEYS", "Returns the sorted names of all variables.", 0, 0,
			func(call *Call, args []Value) (Value, error) {
				return textList(call.ev.env.Keys()), nil
			}),
		newFunction("GET_VARIABLES_AS_MAP", "Returns all variables as a map ordered by name.", 0, 0,
			func(call *Call, args []Value) (Value, error) {
				keys := call.ev.env.Keys()
				entries := make([]MapEntry, len(keys))
				for i, k := range keys {
					entries[i] = MapEntry{Key: k, Value: call.ev.env[k]}
				}
				return NewMap(entries...), nil
			}),
	}
}

var errNoValues = errors.New("no values")
