// Package jexpr implements the JIPipe expression language: a small formula
// language used for filter predicates, value generators and path
// construction. It supports:
//   - Number, string, boolean and constant literals (true, false, null, PI, ...).
//   - Variables looked up in a caller-supplied Env, including quoted names
//     such as `$"my variable"`.
//   - Arithmetic (+ - * / % ^), comparison, string (CONTAINS, MATCHES, LIKE, ...)
//     and short-circuiting boolean operators (AND, OR, XOR, NOT).
//   - Element access with `x @ i` or `x[i]`, and `;` sequencing.
//   - Function calls resolved through an atomically swappable Registry.
//
// Evaluation is synchronous and bounded by a step quota and a recursion
// limit configured on the Engine. Parsed trees are immutable and cached per
// source string, so an Engine may be shared across goroutines as long as
// each evaluation gets its own Env.
package jexpr
