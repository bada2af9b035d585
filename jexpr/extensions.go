package jexpr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ExtensionFunction is a user-defined function whose body is an expression
// over its parameters.
type ExtensionFunction struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Parameters  []string `yaml:"parameters,omitempty"`
	Body        string   `yaml:"body"`

	node Node
}

// ExtensionSet is a parsed extension file.
type ExtensionSet struct {
	Source    string              `yaml:"-"`
	Functions []ExtensionFunction `yaml:"functions"`
}

// LoadExtensions reads and validates an extension file.
func LoadExtensions(path string) (*ExtensionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read extensions %s: %w", path, err)
	}
	return ParseExtensions(data, path)
}

// ParseExtensions decodes an extension document. Every body is parsed up
// front, so a set that loads without error never fails with a SyntaxError
// at call time.
func ParseExtensions(data []byte, source string) (*ExtensionSet, error) {
	set := &ExtensionSet{Source: source}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(set); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode extensions %s: %w", source, err)
	}

	seen := make(map[string]struct{}, len(set.Functions))
	for i := range set.Functions {
		fn := &set.Functions[i]
		if !functionNamePattern.MatchString(fn.Name) {
			return nil, fmt.Errorf("extensions %s: invalid function name %q", source, fn.Name)
		}
		if _, dup := seen[fn.Name]; dup {
			return nil, fmt.Errorf("extensions %s: duplicate function %s", source, fn.Name)
		}
		seen[fn.Name] = struct{}{}

		for j, param := range fn.Parameters {
			if !isPlainIdentifier(param) {
				return nil, fmt.Errorf("extensions %s: %s: invalid parameter name %q", source, fn.Name, param)
			}
			if slices.Contains(fn.Parameters[:j], param) {
				return nil, fmt.Errorf("extensions %s: %s: duplicate parameter %q", source, fn.Name, param)
			}
		}

		node, err := Parse(fn.Body)
		if err != nil {
			var syntaxErr *SyntaxError
			if errors.As(err, &syntaxErr) {
				named := *syntaxErr
				named.Message = fmt.Sprintf("in %s: %s", fn.Name, syntaxErr.Message)
				return nil, &named
			}
			return nil, err
		}
		fn.node = node
	}
	return set, nil
}

// Names returns the function names in file order.
func (s *ExtensionSet) Names() []string {
	names := make([]string, len(s.Functions))
	for i, fn := range s.Functions {
		names[i] = fn.Name
	}
	return names
}

// Function converts the extension into a registry entry.
func (f ExtensionFunction) Function() Function {
	params := slices.Clone(f.Parameters)
	node, body := f.node, f.Body
	var parseErr error
	if node == nil {
		node, parseErr = Parse(body)
	}
	return Function{
		Name:        f.Name,
		Description: f.Description,
		MinArity:    len(params),
		MaxArity:    len(params),
		Apply: func(call *Call, args []Value) (Value, error) {
			if parseErr != nil {
				return NewNull(), parseErr
			}
			env := make(Env, len(params))
			for i, name := range params {
				env[name] = args[i]
			}
			return call.EvaluateNode(node, body, env)
		},
	}
}

// ApplyExtensions replaces the registry with the engine's base functions
// plus the functions in set. A nil set restores the base functions.
func (e *Engine) ApplyExtensions(set *ExtensionSet) error {
	fns := slices.Clone(e.base)
	if set != nil {
		for _, ext := range set.Functions {
			fns = append(fns, ext.Function())
		}
	}
	if err := e.registry.Replace(fns...); err != nil {
		return err
	}
	if set != nil {
		e.logger.Info("extensions applied", "source", set.Source, "functions", len(set.Functions))
	}
	return nil
}
