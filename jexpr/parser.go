package jexpr

import (
	"fmt"
	"strconv"
)

type parser struct {
	source string
	tokens []Token
	pos    int
}

// Parse tokenizes and parses source into an immutable syntax tree. A single
// trailing `;` is ignored.
func Parse(source string) (Node, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return parseTokens(source, tokens)
}

func parseTokens(source string, tokens []Token) (Node, error) {
	if n := len(tokens); n >= 2 && tokens[n-2].Kind == TokenOperator && tokens[n-2].Text == ";" {
		tokens = append(tokens[:n-2:n-2], tokens[n-1])
	}
	if len(tokens) == 1 {
		return nil, &SyntaxError{Source: source, Offset: tokens[0].Offset, Message: "empty expression", cause: ErrEmptyExpression}
	}

	p := &parser{source: source, tokens: tokens}
	node, err := p.parseExpression(lowestPrec)
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Kind != TokenEOF {
		return nil, p.errorUnexpected(tok)
	}
	return node, nil
}

func (p *parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(offset int, msg string) error {
	return &SyntaxError{Source: p.source, Offset: offset, Message: msg}
}

func (p *parser) errorUnexpected(tok Token) error {
	return p.errorAt(tok.Offset, "unexpected "+tokenLabel(tok))
}

func (p *parser) errorExpected(tok Token, expected string) error {
	return p.errorAt(tok.Offset, fmt.Sprintf("expected %s, got %s", expected, tokenLabel(tok)))
}

func (p *parser) peekBinary() (binaryOperator, bool) {
	tok := p.cur()
	if tok.Kind != TokenOperator {
		return binaryOperator{}, false
	}
	op, ok := binaryOperators[tok.Text]
	return op, ok
}

// parseExpression is the precedence-climbing loop: it folds binary operators
// whose precedence is at least minPrec into a left-leaning tree.
func (p *parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.peekBinary()
		if !ok || op.prec < minPrec {
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseExpression(op.nextPrecedence())
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op.op, Left: left, Right: right, offset: tok.Offset}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.cur()
	if tok.Kind == TokenOperator {
		if op, ok := prefixOperators[tok.Text]; ok {
			p.advance()
			if op == OpExists {
				return p.parseExists(tok)
			}
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &UnaryOp{Op: op, Operand: operand, offset: tok.Offset}, nil
		}
	}
	return p.parsePostfix()
}

func (p *parser) parseExists(opTok Token) (Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenIdentifier, TokenVariable:
		p.advance()
		ref := &VariableRef{Name: tok.Text, offset: tok.Offset}
		return &UnaryOp{Op: OpExists, Operand: ref, offset: opTok.Offset}, nil
	default:
		return nil, p.errorExpected(tok, "variable name after EXISTS")
	}
}

// parsePostfix handles `x[i]`, which is sugar for `x @ i`.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokenLBracket {
		open := p.advance()
		index, err := p.parseExpression(lowestPrec)
		if err != nil {
			return nil, err
		}
		if tok := p.cur(); tok.Kind != TokenRBracket {
			return nil, p.errorExpected(tok, "']'")
		}
		p.advance()
		node = &BinaryOp{Op: OpAt, Left: node, Right: index, offset: open.Offset}
	}
	return node, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenNumber:
		p.advance()
		value, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorAt(tok.Offset, "invalid number literal "+tok.Text)
		}
		return &NumberLiteral{Value: value, offset: tok.Offset}, nil
	case TokenString:
		p.advance()
		return &StringLiteral{Value: tok.Text, offset: tok.Offset}, nil
	case TokenIdentifier:
		p.advance()
		if value, ok := constants[tok.Text]; ok {
			return &ConstantLiteral{Name: tok.Text, Value: value, offset: tok.Offset}, nil
		}
		return &VariableRef{Name: tok.Text, offset: tok.Offset}, nil
	case TokenVariable:
		p.advance()
		return &VariableRef{Name: tok.Text, offset: tok.Offset}, nil
	case TokenFunctionName:
		return p.parseFunctionCall()
	case TokenLParen:
		p.advance()
		inner, err := p.parseExpression(lowestPrec)
		if err != nil {
			return nil, err
		}
		if closing := p.cur(); closing.Kind != TokenRParen {
			if closing.Kind == TokenEOF {
				return nil, p.errorAt(closing.Offset, fmt.Sprintf("missing ')' for '(' at offset %d", tok.Offset))
			}
			return nil, p.errorExpected(closing, "')'")
		}
		p.advance()
		return inner, nil
	default:
		return nil, p.errorUnexpected(tok)
	}
}

func (p *parser) parseFunctionCall() (Node, error) {
	nameTok := p.advance()
	open := p.cur()
	if open.Kind != TokenLParen {
		return nil, p.errorExpected(open, "'('")
	}
	p.advance()

	call := &FunctionCall{Name: nameTok.Text, offset: nameTok.Offset}
	if p.cur().Kind == TokenRParen {
		p.advance()
		return call, nil
	}

	for {
		arg, err := p.parseExpression(lowestPrec)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		switch tok := p.cur(); tok.Kind {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			return call, nil
		case TokenEOF:
			return nil, p.errorAt(tok.Offset, fmt.Sprintf("missing ')' for call to %s", nameTok.Text))
		default:
			return nil, p.errorExpected(tok, "',' or ')'")
		}
	}
}
