// Package parser turns a unicc token sequence into an AST, using
// recursive descent with precedence climbing for the binary-operator
// chain and a separate right-associative rule for assignment.
package parser

import (
	"fmt"

	"github.com/skx/unicc/ast"
	"github.com/skx/unicc/token"
)

// Parser consumes tokens from the front of a queue.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a Parser over an already-lexed token sequence.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a complete program: one or more function declarations.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseProgram is the entry point: `program := function_decl+`.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}

	if p.atEnd() {
		return nil, fmt.Errorf("empty program: expected at least one function declaration")
	}

	for !p.atEnd() {
		decl, err := p.parseFunctionDeclaration()
		if err != nil {
			return nil, err
		}
		prog.Declarations = append(prog.Declarations, decl)
	}

	return prog, nil
}

// parseFunctionDeclaration parses:
//
//	function_decl := "int" IDENT "(" ")" "{" statement* "}"
func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	returnType, err := p.expect(token.KEYWORD)
	if err != nil {
		return nil, fmt.Errorf("expected function return type: %w", err)
	}
	if returnType.Literal != "int" {
		return nil, fmt.Errorf("unsupported return type %q: only %q is accepted", returnType.Literal, "int")
	}

	name, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, fmt.Errorf("expected function name: %w", err)
	}

	if _, err := p.expectType(token.LeftParen); err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.RightParen); err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.LeftBrace); err != nil {
		return nil, err
	}

	var body []ast.Statement
	for !p.check(token.RightBrace) {
		if p.atEnd() {
			return nil, fmt.Errorf("unterminated function body: expected '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}

	if _, err := p.expectType(token.RightBrace); err != nil {
		return nil, err
	}

	return &ast.FunctionDeclaration{
		ReturnType: returnType.Literal,
		Name:       name.Literal,
		Body:       body,
	}, nil
}

// parseStatement parses:
//
//	statement := "return" expr ";"
//	           | "int" IDENT [ "=" expr ] ";"
//	           | expr ";"
func (p *Parser) parseStatement() (ast.Statement, error) {
	if p.checkKeyword("return") {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Value: expr}, nil
	}

	if p.checkKeyword("int") {
		p.advance()
		name, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, fmt.Errorf("expected identifier after 'int': %w", err)
		}

		var init ast.Expression
		if p.check(token.Assign) {
			p.advance()
			init, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}

		if _, err := p.expectType(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.DeclareStatement{Name: name.Literal, Init: init}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Value: expr}, nil
}

// parseExpression parses:
//
//	expr := logic_or [ "=" expr ]
//
// Assignment is right-associative: after parsing a logic_or operand,
// a trailing "=" recurses into parseExpression again for the RHS.
func (p *Parser) parseExpression() (ast.Expression, error) {
	left, err := p.parseLogicOr()
	if err != nil {
		return nil, err
	}

	if p.check(token.Assign) {
		p.advance()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Left: left, Operator: ast.Assign, Right: right}, nil
	}

	return left, nil
}

// parseLogicOr parses: logic_or := logic_and ( "||" logic_and )*
func (p *Parser) parseLogicOr() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseLogicAnd, map[token.Type]ast.BinaryOperator{
		token.LogicOr: ast.LogicOr,
	})
}

// parseLogicAnd parses: logic_and := equality ( "&&" equality )*
func (p *Parser) parseLogicAnd() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseEquality, map[token.Type]ast.BinaryOperator{
		token.LogicAnd: ast.LogicAnd,
	})
}

// parseEquality parses: equality := relational (("==" | "!=") relational)*
func (p *Parser) parseEquality() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseRelational, map[token.Type]ast.BinaryOperator{
		token.EQ:  ast.EQ,
		token.NEQ: ast.NEQ,
	})
}

// parseRelational parses:
//
//	relational := additive (("<"|">"|"<="|">=") additive)*
func (p *Parser) parseRelational() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAdditive, map[token.Type]ast.BinaryOperator{
		token.LT: ast.LT,
		token.LE: ast.LE,
		token.GT: ast.GT,
		token.GE: ast.GE,
	})
}

// parseAdditive parses: additive := term (("+" | "-") term)*
func (p *Parser) parseAdditive() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseTerm, map[token.Type]ast.BinaryOperator{
		token.Plus:  ast.Plus,
		token.Minus: ast.Minus,
	})
}

// parseTerm parses: term := factor (("*" | "/") factor)*
func (p *Parser) parseTerm() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseFactor, map[token.Type]ast.BinaryOperator{
		token.Times:  ast.Times,
		token.Divide: ast.Divide,
	})
}

// parseBinaryLevel implements precedence climbing for one
// left-associative precedence level: parse one higher-precedence
// operand via next, then loop while the next token's type is one of
// ops, consuming it and folding a new BinaryExpression.
func (p *Parser) parseBinaryLevel(next func() (ast.Expression, error), ops map[token.Type]ast.BinaryOperator) (ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for !p.atEnd() {
		op, ok := ops[p.peek().Type]
		if !ok {
			break
		}
		p.advance()

		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}

	return left, nil
}

// parseFactor parses:
//
//	factor := INT
//	        | IDENT
//	        | "(" expr ")"
//	        | ("-" | "!" | "~") factor
func (p *Parser) parseFactor() (ast.Expression, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("unexpected end of input: expected an expression")
	}

	tok := p.peek()

	switch tok.Type {
	case token.CONSTANT:
		p.advance()
		var value int32
		if _, err := fmt.Sscanf(tok.Literal, "%d", &value); err != nil {
			return nil, fmt.Errorf("malformed integer constant %q", tok.Literal)
		}
		return &ast.IntLiteral{Value: value}, nil

	case token.IDENTIFIER:
		p.advance()
		return &ast.Variable{Name: tok.Literal}, nil

	case token.LeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(token.RightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case token.Minus, token.LogicNot, token.BitwiseNot:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		var op ast.UnaryOperator
		switch tok.Type {
		case token.Minus:
			op = ast.Negation
		case token.LogicNot:
			op = ast.LogicNot
		case token.BitwiseNot:
			op = ast.BitwiseNot
		}
		return &ast.UnaryExpression{Operator: op, Operand: operand}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q (%s): expected an expression", tok.Literal, tok.Type)
	}
}

// --- token-queue helpers ---

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) peek() token.Token {
	if p.atEnd() {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t token.Type) bool {
	return p.peek().Type == t
}

func (p *Parser) checkKeyword(literal string) bool {
	tok := p.peek()
	return tok.Type == token.KEYWORD && tok.Literal == literal
}

// expect consumes and returns the next token if it has the given
// type, otherwise returns a descriptive error.
func (p *Parser) expect(t token.Type) (token.Token, error) {
	if p.atEnd() {
		return token.Token{}, fmt.Errorf("unexpected end of input: expected %s", t)
	}
	tok := p.peek()
	if tok.Type != t {
		return token.Token{}, fmt.Errorf("unexpected token %q (%s): expected %s", tok.Literal, tok.Type, t)
	}
	p.advance()
	return tok, nil
}

// expectType is expect for punctuation tokens whose literal is
// uninteresting.
func (p *Parser) expectType(t token.Type) (token.Token, error) {
	return p.expect(t)
}
