package measure

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/artpar/unitwizard/domain/value"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokMul
	tokDiv
	tokPow
	tokLParen
	tokRParen
	tokSign
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case r == '*':
			if strings.HasPrefix(s[i:], "**") {
				toks = append(toks, token{tokPow, "**", i})
				i += 2
			} else {
				toks = append(toks, token{tokMul, "*", i})
				i++
			}
		case r == '^':
			toks = append(toks, token{tokPow, "^", i})
			i++
		case r == '/':
			toks = append(toks, token{tokDiv, "/", i})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '-' || r == '+':
			toks = append(toks, token{tokSign, string(r), i})
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j], i})
			i = j
		case isIdentStart(r):
			j := i + w
			for j < len(s) {
				r2, w2 := utf8.DecodeRuneInString(s[j:])
				if !isIdentPart(r2) {
					break
				}
				j += w2
			}
			toks = append(toks, token{tokIdent, s[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d in %q", ErrSyntax, r, i, s)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

type parser struct {
	reg  *Registry
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at %d in %q", ErrSyntax, fmt.Sprintf(format, args...), t.pos, p.src)
}

// expr := term { ("*" | "/" | implicit) term }
func (p *parser) expr() (Unit, error) {
	u, err := p.term()
	if err != nil {
		return Unit{}, err
	}
	for {
		switch p.peek().kind {
		case tokMul:
			p.next()
			o, err := p.term()
			if err != nil {
				return Unit{}, err
			}
			u = u.Mul(o)
		case tokDiv:
			p.next()
			o, err := p.term()
			if err != nil {
				return Unit{}, err
			}
			u = u.Div(o)
		case tokIdent, tokNumber, tokLParen:
			o, err := p.term()
			if err != nil {
				return Unit{}, err
			}
			u = u.Mul(o)
		default:
			return u, nil
		}
	}
}

// term := factor [ ("**" | "^") exponent ]
func (p *parser) term() (Unit, error) {
	u, err := p.factor()
	if err != nil {
		return Unit{}, err
	}
	if p.peek().kind != tokPow {
		return u, nil
	}
	p.next()
	e, err := p.exponent()
	if err != nil {
		return Unit{}, err
	}
	return u.Pow(e), nil
}

// exponent := [sign] number | "(" exponent [ "/" exponent ] ")"
func (p *parser) exponent() (float64, error) {
	if p.peek().kind == tokLParen {
		p.next()
		e, err := p.exponent()
		if err != nil {
			return 0, err
		}
		if p.peek().kind == tokDiv {
			t := p.next()
			d, err := p.exponent()
			if err != nil {
				return 0, err
			}
			if d == 0 {
				return 0, p.errorf(t, "zero denominator in exponent")
			}
			e /= d
		}
		if t := p.next(); t.kind != tokRParen {
			return 0, p.errorf(t, "expected )")
		}
		return e, nil
	}
	sign := 1.0
	if t := p.peek(); t.kind == tokSign {
		p.next()
		if t.text == "-" {
			sign = -1
		}
	}
	t := p.next()
	if t.kind != tokNumber {
		return 0, p.errorf(t, "expected exponent")
	}
	e, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, p.errorf(t, "bad exponent %q", t.text)
	}
	return sign * e, nil
}

// factor := ident | "1" | "(" expr ")"
func (p *parser) factor() (Unit, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		res, err := p.reg.lookup(t.text)
		if err != nil {
			return Unit{}, err
		}
		return newUnit(res), nil
	case tokNumber:
		if f, err := strconv.ParseFloat(t.text, 64); err != nil || f != 1 {
			return Unit{}, p.errorf(t, "numeric factor %q in unit", t.text)
		}
		return Dimensionless, nil
	case tokLParen:
		u, err := p.expr()
		if err != nil {
			return Unit{}, err
		}
		if c := p.next(); c.kind != tokRParen {
			return Unit{}, p.errorf(c, "expected )")
		}
		return u, nil
	}
	return Unit{}, p.errorf(t, "unexpected %q", t.text)
}

// ParseUnit parses a unit expression such as "kJ/mol", "nm**-2" or
// "kilojoule / mole / nanometer". The empty string is dimensionless.
func (r *Registry) ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dimensionless, nil
	}
	toks, err := tokenize(s)
	if err != nil {
		return Unit{}, err
	}
	p := &parser{reg: r, src: s, toks: toks}
	u, err := p.expr()
	if err != nil {
		return Unit{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Unit{}, p.errorf(t, "unexpected %q", t.text)
	}
	return u, nil
}

// MustUnit is like ParseUnit but panics on error.
func (r *Registry) MustUnit(s string) Unit {
	u, err := r.ParseUnit(s)
	if err != nil {
		panic(err)
	}
	return u
}

// ParseQuantity parses "<magnitude> <unit>". A missing magnitude means 1,
// a missing unit means dimensionless.
func (r *Registry) ParseQuantity(s string) (*Quantity, error) {
	v, rest, ok, err := value.ParseLeading(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValue, err)
	}
	if !ok {
		v = 1
	}
	if strings.HasPrefix(rest, "/") {
		rest = "1 " + rest
	}
	u, err := r.ParseUnit(rest)
	if err != nil {
		return nil, err
	}
	return NewQuantity(v, u)
}

// ParseUnit parses s with the default registry.
func ParseUnit(s string) (Unit, error) { return Default().ParseUnit(s) }

// ParseQuantity parses s with the default registry.
func ParseQuantity(s string) (*Quantity, error) { return Default().ParseQuantity(s) }
