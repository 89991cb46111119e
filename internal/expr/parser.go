package expr

import (
	"fmt"
	"strings"
)

const (
	// MaxLength bounds the formula size in bytes.
	MaxLength = 512
	// MaxDepth bounds operator and parenthesis nesting.
	MaxDepth = 64
)

type parser struct {
	lex   lexer
	tok   token
	depth int
	vars  map[string]bool
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &Error{Input: p.lex.src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf(p.tok.pos, "nesting deeper than %d", MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

// term := unary (('*'|'/') unary)*
func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

// unary := ('+'|'-') unary | power
func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text[0]
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			return x, nil
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePower()
}

// power := primary ('^' unary)?
//
// The exponent is parsed as a unary so 2^-1 works and 2^3^2 groups to the
// right.
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokOp || p.tok.text != "^" {
		return base, nil
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if err := p.advance(); err != nil {
		return nil, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: '^', L: base, R: exp}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Num{Value: tok.num}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(p.tok.pos, "expected \")\", found %s", p.tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		return p.parseIdent(tok)

	case tokEOF:
		return nil, p.errorf(tok.pos, "unexpected end of input")
	}
	return nil, p.errorf(tok.pos, "unexpected %s", tok)
}

func (p *parser) parseIdent(tok token) (Node, error) {
	name := strings.TrimPrefix(tok.text, "np.")
	if strings.Contains(name, ".") {
		return nil, p.errorf(tok.pos, "attribute access %q is not allowed", tok.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind == tokLParen {
		if _, ok := functions[name]; !ok {
			return nil, p.errorf(tok.pos, "function %q is not allowed", tok.text)
		}
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokRParen {
			return nil, p.errorf(p.tok.pos, "%s takes one argument", name)
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			if p.tok.kind == tokComma {
				return nil, p.errorf(p.tok.pos, "%s takes one argument", name)
			}
			return nil, p.errorf(p.tok.pos, "expected \")\", found %s", p.tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Call{Fn: name, Arg: arg}, nil
	}

	if v, ok := constants[name]; ok {
		return &Num{Value: v}, nil
	}
	if variables[name] && tok.text == name {
		p.vars[name] = true
		return &Var{Name: name}, nil
	}
	if _, ok := functions[name]; ok {
		return nil, p.errorf(tok.pos, "function %q must be called", name)
	}
	return nil, p.errorf(tok.pos, "identifier %q is not allowed (use x, y, pi or e)", tok.text)
}
