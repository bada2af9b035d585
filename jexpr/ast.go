package jexpr

import "strings"

// Operator names a unary or binary operator after alias normalisation
// (for example `&` and AND both become OpAnd).
type Operator string

const (
	OpAdd        Operator = "+"
	OpSub        Operator = "-"
	OpMul        Operator = "*"
	OpDiv        Operator = "/"
	OpMod        Operator = "%"
	OpPow        Operator = "^"
	OpEq         Operator = "=="
	OpNotEq      Operator = "!="
	OpLT         Operator = "<"
	OpLTE        Operator = "<="
	OpGT         Operator = ">"
	OpGTE        Operator = ">="
	OpAnd        Operator = "AND"
	OpOr         Operator = "OR"
	OpXor        Operator = "XOR"
	OpContains   Operator = "CONTAINS"
	OpIn         Operator = "IN"
	OpStartsWith Operator = "STARTS_WITH"
	OpEndsWith   Operator = "ENDS_WITH"
	OpMatches    Operator = "MATCHES"
	OpLike       Operator = "LIKE"
	OpAt         Operator = "@"
	OpSequence   Operator = ";"

	OpNot    Operator = "NOT"
	OpNeg    Operator = "NEG"
	OpExists Operator = "EXISTS"
)

// Node is an immutable syntax tree node. Offset is the byte offset of the
// token that introduced the node.
type Node interface {
	Offset() int
	node()
}

type NumberLiteral struct {
	Value  float64
	offset int
}

func (n *NumberLiteral) node()       {}
func (n *NumberLiteral) Offset() int { return n.offset }

type StringLiteral struct {
	Value  string
	offset int
}

func (n *StringLiteral) node()       {}
func (n *StringLiteral) Offset() int { return n.offset }

// ConstantLiteral is a reserved name such as true, null or PI.
type ConstantLiteral struct {
	Name   string
	Value  Value
	offset int
}

func (n *ConstantLiteral) node()       {}
func (n *ConstantLiteral) Offset() int { return n.offset }

type VariableRef struct {
	Name   string
	offset int
}

func (n *VariableRef) node()       {}
func (n *VariableRef) Offset() int { return n.offset }

type UnaryOp struct {
	Op      Operator
	Operand Node
	offset  int
}

func (n *UnaryOp) node()       {}
func (n *UnaryOp) Offset() int { return n.offset }

type BinaryOp struct {
	Op     Operator
	Left   Node
	Right  Node
	offset int
}

func (n *BinaryOp) node()       {}
func (n *BinaryOp) Offset() int { return n.offset }

type FunctionCall struct {
	Name   string
	Args   []Node
	offset int
}

func (n *FunctionCall) node()       {}
func (n *FunctionCall) Offset() int { return n.offset }

// NodesEqual reports whether a and b are structurally equal. Offsets are
// ignored.
func NodesEqual(a, b Node) bool {
	switch x := a.(type) {
	case *NumberLiteral:
		y, ok := b.(*NumberLiteral)
		return ok && (x.Value == y.Value || (x.Value != x.Value && y.Value != y.Value))
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Value == y.Value
	case *ConstantLiteral:
		y, ok := b.(*ConstantLiteral)
		return ok && x.Name == y.Name
	case *VariableRef:
		y, ok := b.(*VariableRef)
		return ok && x.Name == y.Name
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && NodesEqual(x.Operand, y.Operand)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && NodesEqual(x.Left, y.Left) && NodesEqual(x.Right, y.Right)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !NodesEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// FormatNode renders n as a fully parenthesised expression that parses
// back to an equal tree.
func FormatNode(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case *NumberLiteral:
		b.WriteString(formatNumber(x.Value))
	case *StringLiteral:
		b.WriteString(quoteText(x.Value))
	case *ConstantLiteral:
		b.WriteString(x.Name)
	case *VariableRef:
		if isPlainIdentifier(x.Name) {
			b.WriteString(x.Name)
		} else {
			b.WriteString("$" + quoteText(x.Name))
		}
	case *UnaryOp:
		switch x.Op {
		case OpNeg:
			b.WriteString("-")
		default:
			b.WriteString(string(x.Op) + " ")
		}
		writeNode(b, x.Operand)
	case *BinaryOp:
		b.WriteString("(")
		writeNode(b, x.Left)
		if x.Op == OpSequence {
			b.WriteString("; ")
		} else {
			b.WriteString(" " + string(x.Op) + " ")
		}
		writeNode(b, x.Right)
		b.WriteString(")")
	case *FunctionCall:
		b.WriteString(x.Name)
		b.WriteString("(")
		for i, arg := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, arg)
		}
		b.WriteString(")")
	}
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if _, reserved := wordOperators[name]; reserved {
		return false
	}
	if _, reserved := constants[name]; reserved {
		return false
	}
	for i, r := range name {
		if i == 0 && !isIdentifierStart(r) {
			return false
		}
		if !isIdentifierRune(r) {
			return false
		}
	}
	return true
}

// quoteText renders s as a string literal the lexer reads back verbatim.
func quoteText(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
