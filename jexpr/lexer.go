package jexpr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string

	offset int
	width  int

	ch rune
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readRune()
	return l
}

// Tokenize splits source into tokens. The returned slice always ends with
// a TokenEOF token whose offset is len(source).
func Tokenize(source string) ([]Token, error) {
	l := newLexer(source)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.offset = len(l.input)
		l.width = 0
		l.ch = 0
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w
	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) peekRuneN(n int) rune {
	idx := l.offset
	for i := 0; ; i++ {
		if idx >= len(l.input) {
			return 0
		}
		r, w := utf8.DecodeRuneInString(l.input[idx:])
		if i == n {
			return r
		}
		idx += w
	}
}

func (l *lexer) atEOF() bool {
	return l.width == 0
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

func (l *lexer) errorAt(offset int, msg string) error {
	return &SyntaxError{Source: l.input, Offset: offset, Message: msg}
}

func (l *lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.currentOffset()
	if l.atEOF() {
		return Token{Kind: TokenEOF, Offset: start}, nil
	}

	switch l.ch {
	case '(':
		l.readRune()
		return Token{Kind: TokenLParen, Text: "(", Offset: start}, nil
	case ')':
		l.readRune()
		return Token{Kind: TokenRParen, Text: ")", Offset: start}, nil
	case ',':
		l.readRune()
		return Token{Kind: TokenComma, Text: ",", Offset: start}, nil
	case '[':
		l.readRune()
		return Token{Kind: TokenLBracket, Text: "[", Offset: start}, nil
	case ']':
		l.readRune()
		return Token{Kind: TokenRBracket, Text: "]", Offset: start}, nil
	case '"':
		literal, err := l.readString(start)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenString, Text: literal, Offset: start}, nil
	case '$':
		switch l.peekRune() {
		case '"':
			l.readRune()
			name, err := l.readString(start)
			if err != nil {
				return Token{}, err
			}
			return Token{Kind: TokenVariable, Text: name, Offset: start}, nil
		case '{':
			literal, err := l.readExpressionEscape(start)
			if err != nil {
				return Token{}, err
			}
			return Token{Kind: TokenString, Text: literal, Offset: start}, nil
		}
		return Token{}, l.errorAt(start, "unexpected character '$'")
	}

	switch {
	case unicode.IsDigit(l.ch) || (l.ch == '.' && unicode.IsDigit(l.peekRune())):
		return Token{Kind: TokenNumber, Text: l.readNumber(), Offset: start}, nil
	case isIdentifierStart(l.ch):
		literal := l.readIdentifier()
		if _, ok := wordOperators[literal]; ok {
			return Token{Kind: TokenOperator, Text: literal, Offset: start}, nil
		}
		if l.nextNonSpace() == '(' {
			return Token{Kind: TokenFunctionName, Text: literal, Offset: start}, nil
		}
		return Token{Kind: TokenIdentifier, Text: literal, Offset: start}, nil
	}

	rest := l.input[start:]
	for _, op := range symbolOperators {
		if strings.HasPrefix(rest, op) {
			for range len(op) {
				l.readRune()
			}
			return Token{Kind: TokenOperator, Text: op, Offset: start}, nil
		}
	}

	return Token{}, l.errorAt(start, "unexpected character "+quoteRune(l.ch))
}

func (l *lexer) skipWhitespace() {
	for !l.atEOF() && isSpace(l.ch) {
		l.readRune()
	}
}

func (l *lexer) nextNonSpace() rune {
	for _, r := range l.input[l.currentOffset():] {
		if !isSpace(r) {
			return r
		}
	}
	return 0
}

func (l *lexer) readIdentifier() string {
	start := l.currentOffset()
	for !l.atEOF() && isIdentifierRune(l.ch) {
		l.readRune()
	}
	return l.input[start:l.currentOffset()]
}

func (l *lexer) readNumber() string {
	start := l.currentOffset()
	for unicode.IsDigit(l.ch) {
		l.readRune()
	}
	if l.ch == '.' && !isIdentifierStart(l.peekRune()) {
		l.readRune()
		for unicode.IsDigit(l.ch) {
			l.readRune()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekRune()
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && unicode.IsDigit(l.peekRuneN(1))) {
			l.readRune()
			l.readRune()
			for unicode.IsDigit(l.ch) {
				l.readRune()
			}
		}
	}
	return l.input[start:l.currentOffset()]
}

// readString consumes a double-quoted literal starting at the current '"'.
// start is the offset reported if the literal is unterminated.
func (l *lexer) readString(start int) (string, error) {
	var sb strings.Builder

	for {
		l.readRune()
		if l.atEOF() {
			return "", l.errorAt(start, "unterminated string")
		}
		switch l.ch {
		case '"':
			l.readRune()
			return sb.String(), nil
		case '\\':
			l.readRune()
			if l.atEOF() {
				return "", l.errorAt(start, "unterminated string")
			}
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteRune(l.ch)
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

// readExpressionEscape consumes `${ ... }` and returns the raw text between
// the braces. Nested braces and quoted strings are skipped over.
func (l *lexer) readExpressionEscape(start int) (string, error) {
	l.readRune() // '{'
	contentStart := l.offset
	depth := 1
	for {
		l.readRune()
		if l.atEOF() {
			return "", l.errorAt(start, "unterminated expression escape")
		}
		switch l.ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				content := l.input[contentStart:l.currentOffset()]
				l.readRune()
				return strings.TrimSpace(content), nil
			}
		case '"':
			if err := l.skipQuoted(start); err != nil {
				return "", err
			}
		}
	}
}

func (l *lexer) skipQuoted(start int) error {
	for {
		l.readRune()
		if l.atEOF() {
			return l.errorAt(start, "unterminated string")
		}
		switch l.ch {
		case '\\':
			l.readRune()
		case '"':
			return nil
		}
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}
