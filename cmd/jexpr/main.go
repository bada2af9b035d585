// Command jexpr evaluates, checks and explores JIPipe expressions.
//
// Usage:
//
//	# Evaluate with variables
//	jexpr eval 'x * 2 + 1' --var x=20
//
//	# Print the canonical form of an expression
//	jexpr check 'a + b * c'
//
//	# Interactive session
//	jexpr repl
package main

import (
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
