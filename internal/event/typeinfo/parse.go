package typeinfo

import (
	"fmt"
	"slices"
	"strings"
)

type exprKind int

const (
	exprNamed exprKind = iota
	exprVar
	exprWildcard
)

// expr is an unresolved signature. Class declarations keep their supertypes as
// expr templates whose type variables are substituted on demand.
type expr struct {
	kind     exprKind
	name     string
	index    int
	args     []*expr
	array    bool
	variance Variance
	bound    *expr
}

// hasArrayVar reports whether e uses a type variable as an array element.
func (e *expr) hasArrayVar() bool {
	switch e.kind {
	case exprVar:
		return e.array
	case exprWildcard:
		return e.bound != nil && e.bound.hasArrayVar()
	}
	for _, a := range e.args {
		if a.hasArrayVar() {
			return true
		}
	}
	return false
}

type parser struct {
	src  string
	pos  int
	vars []string
}

// parseSignature parses src. Identifiers listed in vars become type variables.
func parseSignature(src string, vars []string) (*expr, error) {
	p := &parser{src: src, vars: vars}
	e, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.src[p.pos:])
	}
	return e, nil
}

func (p *parser) parseType() (*expr, error) {
	p.skipSpace()
	if p.peek() == '?' {
		return p.parseWildcard()
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type name")
	}
	e := &expr{kind: exprNamed, name: name}
	if i := slices.Index(p.vars, name); i >= 0 {
		e.kind = exprVar
		e.index = i
	}

	p.skipSpace()
	if p.peek() == '<' {
		if e.kind == exprVar {
			return nil, p.errorf("type variable %s cannot take arguments", name)
		}
		p.pos++
		for {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			e.args = append(e.args, arg)
			p.skipSpace()
			c := p.peek()
			if c == ',' {
				p.pos++
				continue
			}
			if c == '>' {
				p.pos++
				break
			}
			return nil, p.errorf("expected ',' or '>'")
		}
		p.skipSpace()
	}

	if p.peek() == '[' {
		p.pos++
		p.skipSpace()
		if p.peek() != ']' {
			return nil, p.errorf("expected ']'")
		}
		p.pos++
		e.array = true
		p.skipSpace()
		if p.peek() == '[' {
			return nil, p.errorf("multi-dimensional arrays are not supported")
		}
	}
	return e, nil
}

func (p *parser) parseWildcard() (*expr, error) {
	p.pos++ // '?'
	e := &expr{kind: exprWildcard, variance: Extends}

	p.skipSpace()
	switch p.peekIdent() {
	case "extends":
		p.pos += len("extends")
	case "super":
		p.pos += len("super")
		e.variance = Super
	default:
		return e, nil
	}

	bound, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if bound.kind == exprWildcard {
		return nil, p.errorf("wildcard bound cannot be a wildcard")
	}
	e.bound = bound
	return e, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) peekIdent() string {
	end := p.pos
	for end < len(p.src) && isIdentByte(p.src[end]) {
		end++
	}
	return p.src[p.pos:end]
}

func (p *parser) ident() string {
	s := p.peekIdent()
	p.pos += len(s)
	return s
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// validName reports whether s can be used as a class or type parameter name.
func validName(s string) bool {
	if s == "" || s == "extends" || s == "super" || ('0' <= s[0] && s[0] <= '9') {
		return false
	}
	for i := range len(s) {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}
