// Package notes implements the calculator behind financial notes and the
// category registry the notes are filed under.
package notes

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
)

// Evaluate computes a calculator expression. Only digits, the four basic
// operators, parentheses and decimal points are meaningful; every other
// character is stripped before parsing, mirroring how the calculator UI
// sanitizes input.
func Evaluate(expr string) (decimal.Decimal, error) {
	sanitized := sanitize(expr)
	if sanitized == "" {
		return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "expression is empty")
	}

	p := &parser{input: sanitized}
	result, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, err
	}
	if p.pos != len(p.input) {
		return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid,
			fmt.Sprintf("unexpected character at position %d", p.pos))
	}
	return result, nil
}

func sanitize(expr string) string {
	var b strings.Builder
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '(' || r == ')' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parser is a recursive-descent evaluator over the sanitized input.
//
//	expr   = term   (('+' | '-') term)*
//	term   = factor (('*' | '/') factor)*
//	factor = number | '-' factor | '(' expr ')'
type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpr() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for p.pos < len(p.input) {
		op := p.input[p.pos]
		if op != '+' && op != '-' {
			break
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for p.pos < len(p.input) {
		op := p.input[p.pos]
		if op != '*' && op != '/' {
			break
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		if op == '*' {
			left = left.Mul(right)
		} else {
			if right.IsZero() {
				return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "division by zero")
			}
			left = left.DivRound(right, 10)
		}
	}
	return left, nil
}

func (p *parser) parseFactor() (decimal.Decimal, error) {
	if p.pos >= len(p.input) {
		return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "expression ends mid-operation")
	}

	switch p.input[p.pos] {
	case '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil

	case '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return decimal.Zero, err
		}
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "unclosed parenthesis")
		}
		p.pos++
		return v, nil
	}

	return p.parseNumber()
}

func (p *parser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '.' {
			dots++
			if dots > 1 {
				return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "number has multiple decimal points")
			}
			p.pos++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	if start == p.pos || (p.pos-start == 1 && p.input[start] == '.') {
		return decimal.Zero, apperrors.New(apperrors.ErrExpressionInvalid, "expected a number")
	}
	v, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrExpressionInvalid, "malformed number", err)
	}
	return v, nil
}
