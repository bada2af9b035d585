package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type functionInfo struct {
	Name         string   `json:"name"`
	MinArity     int      `json:"min_arity"`
	MaxArity     int      `json:"max_arity"`
	Capabilities []string `json:"capabilities,omitempty"`
	Description  string   `json:"description"`
}

func (a *app) functionsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the registered functions",
		Long: `List every function in the registry, including extension functions, with
its arity and capabilities. A max_arity of -1 marks a variadic function.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := describeFunctions(a.engine.Functions())
			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			case "text":
				fmt.Fprintln(cmd.OutOrStdout(), renderFunctionTable(infos))
				return nil
			default:
				return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	return cmd
}

func describeFunctions(tbl *jexpr.FunctionTable) []functionInfo {
	fns := tbl.Functions()
	infos := make([]functionInfo, len(fns))
	for i, fn := range fns {
		info := functionInfo{
			Name:        fn.Name,
			MinArity:    fn.MinArity,
			MaxArity:    fn.MaxArity,
			Description: fn.Description,
		}
		if fn.Capabilities != 0 {
			info.Capabilities = strings.Split(fn.Capabilities.String(), ",")
		}
		infos[i] = info
	}
	return infos
}

func renderFunctionTable(infos []functionInfo) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.Name,
			formatArity(info.MinArity, info.MaxArity),
			strings.Join(info.Capabilities, ","),
			info.Description,
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "ARITY", "CAPABILITIES", "DESCRIPTION").
		Rows(rows...).
		String()
}

// formatArity renders "n", "min..max" or "min+" for variadic functions.
func formatArity(minArity, maxArity int) string {
	switch {
	case maxArity == jexpr.Unbounded:
		return strconv.Itoa(minArity) + "+"
	case minArity == maxArity:
		return strconv.Itoa(minArity)
	default:
		return fmt.Sprintf("%d..%d", minArity, maxArity)
	}
}
