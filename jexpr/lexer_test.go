package jexpr

import (
	"errors"
	"testing"
)

func tokenKinds(tokens []Token) []TokenKind {
	kinds := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestTokenizeBasicExpression(t *testing.T) {
	tokens, err := Tokenize(`x >= 2.5 AND MAX(a, "b\"c")`)
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}

	want := []Token{
		{Kind: TokenIdentifier, Text: "x", Offset: 0},
		{Kind: TokenOperator, Text: ">=", Offset: 2},
		{Kind: TokenNumber, Text: "2.5", Offset: 5},
		{Kind: TokenOperator, Text: "AND", Offset: 9},
		{Kind: TokenFunctionName, Text: "MAX", Offset: 13},
		{Kind: TokenLParen, Text: "(", Offset: 16},
		{Kind: TokenIdentifier, Text: "a", Offset: 17},
		{Kind: TokenComma, Text: ",", Offset: 18},
		{Kind: TokenString, Text: `b"c`, Offset: 20},
		{Kind: TokenRParen, Text: ")", Offset: 26},
		{Kind: TokenEOF, Offset: 27},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d: expected %+v, got %+v", i, want[i], tokens[i])
		}
	}
}

func TestTokenizeLongestOperatorFirst(t *testing.T) {
	cases := []struct {
		source string
		ops    []string
	}{
		{source: "a>=b", ops: []string{">="}},
		{source: "a>b", ops: []string{">"}},
		{source: "a<=b<c", ops: []string{"<=", "<"}},
		{source: "a==b!=c", ops: []string{"==", "!="}},
		{source: "!a", ops: []string{"!"}},
	}

	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			tokens, err := Tokenize(tc.source)
			if err != nil {
				t.Fatalf("tokenize failed: %v", err)
			}
			var ops []string
			for _, tok := range tokens {
				if tok.Kind == TokenOperator {
					ops = append(ops, tok.Text)
				}
			}
			if len(ops) != len(tc.ops) {
				t.Fatalf("expected operators %v, got %v", tc.ops, ops)
			}
			for i := range ops {
				if ops[i] != tc.ops[i] {
					t.Fatalf("expected operators %v, got %v", tc.ops, ops)
				}
			}
		})
	}
}

func TestTokenizeIdentifiersAndFunctions(t *testing.T) {
	tokens, err := Tokenize("image.width + SUM (a) + CONTAINS")
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	want := []TokenKind{
		TokenIdentifier, TokenOperator, TokenFunctionName, TokenLParen, TokenIdentifier,
		TokenRParen, TokenOperator, TokenOperator, TokenEOF,
	}
	got := tokenKinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected kinds %v, got %v", want, got)
		}
	}
	if tokens[0].Text != "image.width" {
		t.Fatalf("dotted identifier split: %q", tokens[0].Text)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	cases := map[string]string{
		"42":     "42",
		"3.25":   "3.25",
		".5":     ".5",
		"1e3":    "1e3",
		"2.5E-2": "2.5E-2",
		"7.":     "7.",
	}
	for source, literal := range cases {
		tokens, err := Tokenize(source)
		if err != nil {
			t.Fatalf("tokenize %q failed: %v", source, err)
		}
		if tokens[0].Kind != TokenNumber || tokens[0].Text != literal {
			t.Fatalf("tokenize %q: expected number %q, got %+v", source, literal, tokens[0])
		}
		if tokens[1].Kind != TokenEOF {
			t.Fatalf("tokenize %q: trailing tokens %v", source, tokens[1:])
		}
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens, err := Tokenize(`"a\nb\t\\\"\q"`)
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	if got, want := tokens[0].Text, "a\nb\t\\\"q"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenizeQuotedVariableAndEscape(t *testing.T) {
	tokens, err := Tokenize(`$"my var" + ${ x + "}" }`)
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	if tokens[0].Kind != TokenVariable || tokens[0].Text != "my var" {
		t.Fatalf("unexpected variable token %+v", tokens[0])
	}
	if tokens[2].Kind != TokenString || tokens[2].Text != `x + "}"` {
		t.Fatalf("unexpected escape token %+v", tokens[2])
	}
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		source string
		offset int
	}{
		{source: `1 + "abc`, offset: 4},
		{source: "a # b", offset: 2},
		{source: "$x", offset: 0},
		{source: "${ a + b", offset: 0},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			_, err := Tokenize(tc.source)
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected syntax error, got %v", err)
			}
			if syntaxErr.Offset != tc.offset {
				t.Fatalf("expected offset %d, got %d (%v)", tc.offset, syntaxErr.Offset, err)
			}
			if syntaxErr.Source != tc.source {
				t.Fatalf("expected source %q, got %q", tc.source, syntaxErr.Source)
			}
		})
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	tokens, err := Tokenize("   ")
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != TokenEOF || tokens[0].Offset != 3 {
		t.Fatalf("expected a single EOF at offset 3, got %v", tokens)
	}
}
