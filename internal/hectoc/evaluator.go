// Package hectoc implements the arithmetic core of the game: a restricted
// expression evaluator, the puzzle generator and the solution verifier.
package hectoc

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Epsilon is the tolerance used when comparing a value with a target.
const Epsilon = 1e-6

const maxDepth = 64

var (
	ErrEmpty         = errors.New("empty expression")
	ErrDivideByZero  = errors.New("division by zero")
	ErrNonFinite     = errors.New("result is not a finite number")
	ErrUnbalanced    = errors.New("unbalanced parentheses")
	ErrInvalidChar   = errors.New("invalid character")
	ErrConcatenation = errors.New("digits cannot be concatenated")
	ErrSyntax        = errors.New("syntax error")
)

// EvalError describes why an expression could not be evaluated.
// Pos is the 0-based byte offset the problem was detected at.
type EvalError struct {
	Err    error
	Pos    int
	Detail string
}

func (e *EvalError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at position %d", e.Err, e.Pos+1)
	}
	return fmt.Sprintf("%v: %s at position %d", e.Err, e.Detail, e.Pos+1)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluate computes the value of an expression made of single digits, the
// binary operators + - * / ^ and parentheses. Multi-digit numbers, unary
// operators and any other character are rejected. ^ binds tightest and is
// right-associative.
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.eof() {
		return 0, &EvalError{Err: ErrEmpty, Pos: 0}
	}

	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}

	p.skipSpace()
	if !p.eof() {
		return 0, p.trailing()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvalError{Err: ErrNonFinite, Pos: len(expr) - 1}
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr(depth int) (float64, error) {
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.eof() {
			return left, nil
		}
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

// term := power (('*' | '/') power)*
func (p *parser) term(depth int) (float64, error) {
	left, err := p.power(depth)
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.eof() {
			return left, nil
		}
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.power(depth)
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, &EvalError{Err: ErrDivideByZero, Pos: opPos}
		}
		left /= right
	}
}

// power := primary ('^' power)?
func (p *parser) power(depth int) (float64, error) {
	base, err := p.primary(depth)
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.eof() || p.peek() != '^' {
		return base, nil
	}
	opPos := p.pos
	if depth >= maxDepth {
		return 0, &EvalError{Err: ErrSyntax, Pos: opPos, Detail: "nesting too deep"}
	}
	p.pos++
	exp, err := p.power(depth + 1)
	if err != nil {
		return 0, err
	}
	v := math.Pow(base, exp)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvalError{Err: ErrNonFinite, Pos: opPos}
	}
	return v, nil
}

// primary := digit | '(' expr ')'
func (p *parser) primary(depth int) (float64, error) {
	p.skipSpace()
	if p.eof() {
		return 0, &EvalError{Err: ErrSyntax, Pos: len(p.src) - 1, Detail: "unexpected end of expression"}
	}

	c := p.peek()
	switch {
	case isDigit(c):
		p.pos++
		if !p.eof() && isDigit(p.peek()) {
			return 0, &EvalError{Err: ErrConcatenation, Pos: p.pos}
		}
		return float64(c - '0'), nil

	case c == '(':
		if depth >= maxDepth {
			return 0, &EvalError{Err: ErrSyntax, Pos: p.pos, Detail: "nesting too deep"}
		}
		open := p.pos
		p.pos++
		p.skipSpace()
		if !p.eof() && p.peek() == ')' {
			return 0, &EvalError{Err: ErrSyntax, Pos: p.pos, Detail: "empty parentheses"}
		}
		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.eof() {
			return 0, &EvalError{Err: ErrUnbalanced, Pos: open, Detail: "missing ')'"}
		}
		if p.peek() != ')' {
			return 0, p.trailing()
		}
		p.pos++
		return v, nil

	case c == ')':
		return 0, &EvalError{Err: ErrUnbalanced, Pos: p.pos, Detail: "unexpected ')'"}

	case isOperator(c):
		return 0, &EvalError{Err: ErrSyntax, Pos: p.pos, Detail: fmt.Sprintf("expected a digit or '(' but found '%c'", c)}
	}
	return 0, p.invalidChar()
}

// trailing reports whatever stops the parser before the end of input.
func (p *parser) trailing() error {
	c := p.peek()
	switch {
	case c == ')':
		return &EvalError{Err: ErrUnbalanced, Pos: p.pos, Detail: "unexpected ')'"}
	case isDigit(c) || c == '(':
		return &EvalError{Err: ErrSyntax, Pos: p.pos, Detail: fmt.Sprintf("expected an operator before '%c'", c)}
	case isOperator(c):
		return &EvalError{Err: ErrSyntax, Pos: p.pos, Detail: fmt.Sprintf("unexpected '%c'", c)}
	}
	return p.invalidChar()
}

func (p *parser) invalidChar() error {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return &EvalError{Err: ErrInvalidChar, Pos: p.pos, Detail: fmt.Sprintf("%q", r)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '^':
		return true
	}
	return false
}
