// Package lexer turns unicc source text into a sequence of tokens.
package lexer

import (
	"fmt"

	"github.com/skx/unicc/token"
)

// Lexer holds our object-state.
type Lexer struct {
	position     int    // current character position
	readPosition int    // next character position
	ch           rune   // current character
	characters   []rune // rune slice of input string
}

// New creates a Lexer instance from string input.
func New(input string) *Lexer {
	l := &Lexer{characters: []rune(input)}
	l.readChar()
	return l
}

// read one character forward
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.characters) {
		l.ch = rune(0)
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the character after the current one, without
// consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.characters) {
		return rune(0)
	}
	return l.characters[l.readPosition]
}

// Tokenize consumes the entire input and returns the resulting token
// sequence, or the first lexing error encountered.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token

	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			break
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}

// NextToken reads and returns the next token, skipping whitespace.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	switch l.ch {
	case rune(0):
		return token.Token{Type: token.EOF}, nil

	case '(':
		return l.single(token.LeftParen), nil
	case ')':
		return l.single(token.RightParen), nil
	case '{':
		return l.single(token.LeftBrace), nil
	case '}':
		return l.single(token.RightBrace), nil
	case ';':
		return l.single(token.Semicolon), nil
	case '+':
		return l.single(token.Plus), nil
	case '-':
		return l.single(token.Minus), nil
	case '*':
		return l.single(token.Times), nil
	case '/':
		return l.single(token.Divide), nil
	case '~':
		return l.single(token.BitwiseNot), nil

	case '!':
		return l.oneOrTwo('=', token.NEQ, token.LogicNot), nil
	case '<':
		return l.oneOrTwo('=', token.LE, token.LT), nil
	case '>':
		return l.oneOrTwo('=', token.GE, token.GT), nil
	case '=':
		return l.oneOrTwo('=', token.EQ, token.Assign), nil

	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LogicOr, Literal: "||"}, nil
		}
		return token.Token{}, fmt.Errorf("unexpected character '|'")

	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LogicAnd, Literal: "&&"}, nil
		}
		return token.Token{}, fmt.Errorf("unexpected character '&'")

	default:
		if isDigit(l.ch) {
			digits := l.readWhile(isDigit)
			return token.Token{Type: token.CONSTANT, Literal: digits}, nil
		}
		if isAlpha(l.ch) {
			word := l.readWhile(isAlphanumeric)
			return token.Token{Type: token.LookupIdentifier(word), Literal: word}, nil
		}
		ch := l.ch
		l.readChar()
		return token.Token{}, fmt.Errorf("unexpected character %q", ch)
	}
}

// single builds a one-character punctuation token and advances past
// it.
func (l *Lexer) single(t token.Type) token.Token {
	ch := l.ch
	l.readChar()
	return token.Token{Type: t, Literal: string(ch)}
}

// oneOrTwo handles the `!`, `<`, `>`, `=` leaders: if the following
// character is next, a two-character token of type twoChar is
// produced; otherwise a single-character token of type oneChar.
func (l *Lexer) oneOrTwo(next rune, twoChar, oneChar token.Type) token.Token {
	ch := l.ch
	l.readChar()

	if l.ch == next {
		l.readChar()
		return token.Token{Type: twoChar, Literal: string(ch) + string(next)}
	}
	return token.Token{Type: oneChar, Literal: string(ch)}
}

// readWhile consumes and returns a maximal run of characters for
// which accept returns true.
func (l *Lexer) readWhile(accept func(rune) bool) string {
	start := l.position
	for accept(l.ch) {
		l.readChar()
	}
	return string(l.characters[start:l.position])
}

// skipWhitespace advances past spaces, tabs and newlines.
func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.ch) {
		l.readChar()
	}
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isAlphanumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}
