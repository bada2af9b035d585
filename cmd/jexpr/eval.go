package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type evalFlags struct {
	vars     []string
	varsFile string
	as       string
	format   string
}

func (a *app) evalCommand() *cobra.Command {
	var flags evalFlags
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression",
		Long: `Evaluate an expression and print its result.

Variables come from --vars (a YAML or JSON object) and --var name=value,
with --var taking precedence. --var values are read as a number, then as
true/false, and otherwise as text.

Examples:
  jexpr eval '"img_" + TO_STRING(index) + ".tif"' --var index=3
  jexpr eval 'area > 100 AND circularity > 0.8' --vars measurements.yaml
  jexpr eval 'RGB_COLOR(255, 0, 0)' --as color --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.evaluate(cmd, args[0], flags)
		},
	}
	cmd.Flags().StringArrayVar(&flags.vars, "var", nil, "variable binding name=value (repeatable)")
	cmd.Flags().StringVar(&flags.varsFile, "vars", "", "YAML or JSON file of variables")
	cmd.Flags().StringVar(&flags.as, "as", "", "coerce the result: number, integer, boolean, string, color, doubles")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	return cmd
}

func (a *app) evaluate(cmd *cobra.Command, source string, flags evalFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", flags.format)
	}
	env, err := buildEnv(flags.varsFile, flags.vars)
	if err != nil {
		return err
	}

	expr := jexpr.NewExpression(source)
	var result jexpr.Value
	if flags.as == "" {
		result, err = a.engine.EvaluateContext(cmd.Context(), expr, env)
	} else {
		result, err = a.evaluateAs(expr, env, flags.as)
	}
	if err != nil {
		return err
	}

	if flags.format == "json" {
		data, err := jexpr.MarshalValueJSON(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.String())
	return nil
}

// evaluateAs applies one of the typed wrappers and boxes the result.
func (a *app) evaluateAs(expr *jexpr.Expression, env jexpr.Env, as string) (jexpr.Value, error) {
	switch as {
	case "number":
		n, err := a.engine.EvaluateToNumber(expr, env)
		return jexpr.NewNumber(n), err
	case "integer":
		n, err := a.engine.EvaluateToInteger(expr, env)
		return jexpr.NewNumber(float64(n)), err
	case "boolean":
		b, err := a.engine.EvaluateToBoolean(expr, env)
		return jexpr.NewBool(b), err
	case "string":
		s, err := a.engine.EvaluateToString(expr, env)
		return jexpr.NewText(s), err
	case "color":
		c, err := a.engine.EvaluateToColor(expr, env)
		return jexpr.NewColor(c), err
	case "doubles":
		xs, err := a.engine.EvaluateToDoubleList(expr, env)
		if err != nil {
			return jexpr.NewNull(), err
		}
		return jexpr.FromGo(xs)
	default:
		return jexpr.NewNull(), fmt.Errorf("invalid --as %q: must be number, integer, boolean, string, color or doubles", as)
	}
}

// buildEnv merges the variables file with individual bindings.
func buildEnv(varsFile string, bindings []string) (jexpr.Env, error) {
	env := jexpr.NewEnv()
	if varsFile != "" {
		data, err := os.ReadFile(varsFile)
		if err != nil {
			return nil, fmt.Errorf("read variables: %w", err)
		}
		// JSON documents are valid YAML.
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse variables %q: %w", varsFile, err)
		}
		fileEnv, err := jexpr.EnvFromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("variables %q: %w", varsFile, err)
		}
		env = fileEnv
	}
	for _, binding := range bindings {
		name, value, ok := strings.Cut(binding, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", binding)
		}
		env[name] = parseBinding(value)
	}
	return env, nil
}

func parseBinding(raw string) jexpr.Value {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return jexpr.NewNumber(f)
	}
	switch raw {
	case "true":
		return jexpr.NewBool(true)
	case "false":
		return jexpr.NewBool(false)
	}
	return jexpr.NewText(raw)
}
