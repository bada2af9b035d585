package jexpr

// TokenKind identifies the lexical category of a token.
type TokenKind string

const (
	TokenEOF TokenKind = "EOF"

	TokenNumber       TokenKind = "NUMBER"
	TokenIdentifier   TokenKind = "IDENTIFIER"
	TokenVariable     TokenKind = "VARIABLE"
	TokenString       TokenKind = "STRING"
	TokenOperator     TokenKind = "OPERATOR"
	TokenFunctionName TokenKind = "FUNCTION"

	TokenLParen   TokenKind = "("
	TokenRParen   TokenKind = ")"
	TokenComma    TokenKind = ","
	TokenLBracket TokenKind = "["
	TokenRBracket TokenKind = "]"
)

// Token captures lexical information for the parser. Offset is the byte
// offset of the first character of the token in the source.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

// symbolOperators is matched longest-first.
var symbolOperators = []string{
	"==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "^", "<", ">", "!", "&", "|", "@", ";",
}

var wordOperators = map[string]struct{}{
	"AND":         {},
	"OR":          {},
	"XOR":         {},
	"NOT":         {},
	"CONTAINS":    {},
	"IN":          {},
	"EQUALS":      {},
	"UNEQUAL":     {},
	"STARTS_WITH": {},
	"ENDS_WITH":   {},
	"MATCHES":     {},
	"LIKE":        {},
	"AT":          {},
	"EXISTS":      {},
}

func tokenLabel(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of input"
	case TokenNumber:
		return "number " + tok.Text
	case TokenIdentifier, TokenVariable:
		return "variable " + tok.Text
	case TokenString:
		return "string"
	case TokenOperator:
		return "operator " + tok.Text
	case TokenFunctionName:
		return "function " + tok.Text
	default:
		return "'" + string(tok.Kind) + "'"
	}
}
