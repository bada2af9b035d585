package jexpr

import "math"

type associativity int

const (
	assocLeft associativity = iota
	assocRight
)

const (
	lowestPrec = iota
	precSequence
	precOr
	precAnd
	precEquality
	precComparison
	precString
	precSum
	precProduct
	precPower
	precAccess
)

type binaryOperator struct {
	op    Operator
	prec  int
	assoc associativity
}

// binaryOperators maps operator token text, including aliases, to its
// normalised operator and binding.
var binaryOperators = map[string]binaryOperator{
	";":           {OpSequence, precSequence, assocLeft},
	"OR":          {OpOr, precOr, assocLeft},
	"|":           {OpOr, precOr, assocLeft},
	"AND":         {OpAnd, precAnd, assocLeft},
	"&":           {OpAnd, precAnd, assocLeft},
	"XOR":         {OpXor, precAnd, assocLeft},
	"==":          {OpEq, precEquality, assocLeft},
	"EQUALS":      {OpEq, precEquality, assocLeft},
	"!=":          {OpNotEq, precEquality, assocLeft},
	"UNEQUAL":     {OpNotEq, precEquality, assocLeft},
	"<":           {OpLT, precComparison, assocLeft},
	"<=":          {OpLTE, precComparison, assocLeft},
	">":           {OpGT, precComparison, assocLeft},
	">=":          {OpGTE, precComparison, assocLeft},
	"CONTAINS":    {OpContains, precString, assocLeft},
	"IN":          {OpIn, precString, assocLeft},
	"STARTS_WITH": {OpStartsWith, precString, assocLeft},
	"ENDS_WITH":   {OpEndsWith, precString, assocLeft},
	"MATCHES":     {OpMatches, precString, assocLeft},
	"LIKE":        {OpLike, precString, assocLeft},
	"+":           {OpAdd, precSum, assocLeft},
	"-":           {OpSub, precSum, assocLeft},
	"*":           {OpMul, precProduct, assocLeft},
	"/":           {OpDiv, precProduct, assocLeft},
	"%":           {OpMod, precProduct, assocLeft},
	"^":           {OpPow, precPower, assocRight},
	"@":           {OpAt, precAccess, assocLeft},
	"AT":          {OpAt, precAccess, assocLeft},
}

var prefixOperators = map[string]Operator{
	"NOT":    OpNot,
	"!":      OpNot,
	"-":      OpNeg,
	"EXISTS": OpExists,
}

// constants are reserved identifiers; they cannot be shadowed by variables.
var constants = map[string]Value{
	"true":         NewBool(true),
	"false":        NewBool(false),
	"null":         NewNull(),
	"NEWLINE":      NewText("\n"),
	"PI":           NewNumber(math.Pi),
	"E":            NewNumber(math.E),
	"TAU":          NewNumber(2 * math.Pi),
	"INFINITY":     NewNumber(math.Inf(1)),
	"NEG_INFINITY": NewNumber(math.Inf(-1)),
	"NaN":          NewNumber(math.NaN()),
}

// nextPrecedence is the minimum precedence for the right operand of op.
// Left-associative operators bump it so equal-precedence chains fold to the
// left; right-associative operators recurse at the same level.
func (op binaryOperator) nextPrecedence() int {
	if op.assoc == assocRight {
		return op.prec
	}
	return op.prec + 1
}
