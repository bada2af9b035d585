package main

import (
	"fmt"

	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	"github.com/spf13/cobra"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <expression>",
		Short: "Parse an expression and print its canonical form",
		Long: `Parse an expression without evaluating it. On success the syntax tree is
printed fully parenthesized; on failure the syntax error is shown with the
offending position marked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.engine.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jexpr.FormatNode(node))
			return nil
		},
	}
}

func (a *app) tokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <expression>",
		Short: "Print the tokens of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.engine.Tokenize(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tok := range tokens {
				if tok.Kind == jexpr.TokenEOF {
					break
				}
				fmt.Fprintf(out, "%d\t%s\t%s\n", tok.Offset, tok.Kind, tok.Text)
			}
			return nil
		},
	}
}
