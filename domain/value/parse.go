package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var numberRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseLeading reads a magnitude from the start of s and returns it with the
// remaining text. Scalars without a fractional part or exponent parse as int.
// Arrays are written in brackets or parentheses with comma and/or whitespace
// separators; one level yields []float64, two levels yield *mat.Dense.
// ok is false when s does not start with a magnitude.
func ParseLeading(s string) (v any, rest string, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", false, nil
	}
	if s[0] == '[' || s[0] == '(' {
		p := &listParser{src: s}
		n, perr := p.parseList()
		if perr != nil {
			// "(kilojoule / mole)" is a unit group, not an array.
			if !p.sawNumber {
				return nil, s, false, nil
			}
			return nil, s, false, perr
		}
		v, err = n.materialize()
		if err != nil {
			return nil, s, false, err
		}
		return v, strings.TrimSpace(s[p.pos:]), true, nil
	}
	m := numberRe.FindString(s)
	if m == "" {
		return nil, s, false, nil
	}
	v, err = parseScalar(m)
	if err != nil {
		return nil, s, false, err
	}
	return v, strings.TrimSpace(s[len(m):]), true, nil
}

// parseScalar rejects magnitudes outside the float64 range.
func parseScalar(m string) (any, error) {
	if !strings.ContainsAny(m, ".eE") {
		if i, err := strconv.Atoi(m); err == nil {
			return i, nil
		}
	}
	return strconv.ParseFloat(m, 64)
}

type node struct {
	scalar   float64
	children []*node
	leaf     bool
}

func (n *node) depth() int {
	if n.leaf {
		return 0
	}
	if len(n.children) == 0 {
		return 1
	}
	return 1 + n.children[0].depth()
}

func (n *node) materialize() (any, error) {
	switch n.depth() {
	case 1:
		out := make([]float64, len(n.children))
		for i, c := range n.children {
			if !c.leaf {
				return nil, fmt.Errorf("mixed nesting in array literal")
			}
			out[i] = c.scalar
		}
		return out, nil
	case 2:
		rows := len(n.children)
		cols := len(n.children[0].children)
		if cols == 0 {
			return nil, fmt.Errorf("empty row in array literal")
		}
		data := make([]float64, 0, rows*cols)
		for _, r := range n.children {
			if r.leaf || len(r.children) != cols {
				return nil, fmt.Errorf("ragged array literal")
			}
			for _, c := range r.children {
				if !c.leaf {
					return nil, fmt.Errorf("array literal nested too deeply")
				}
				data = append(data, c.scalar)
			}
		}
		return mat.NewDense(rows, cols, data), nil
	}
	return nil, fmt.Errorf("array literal nested too deeply")
}

type listParser struct {
	src       string
	pos       int
	sawNumber bool
}

func (p *listParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *listParser) parseList() (*node, error) {
	open := p.src[p.pos]
	closer := byte(']')
	if open == '(' {
		closer = ')'
	}
	p.pos++
	n := &node{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated array literal")
		}
		c := p.src[p.pos]
		switch {
		case c == closer:
			p.pos++
			return n, nil
		case c == ',':
			p.pos++
		case c == '[' || c == '(':
			child, err := p.parseList()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		default:
			m := numberRe.FindString(p.src[p.pos:])
			if m == "" {
				return nil, fmt.Errorf("unexpected %q in array literal", c)
			}
			f, err := strconv.ParseFloat(m, 64)
			if err != nil {
				return nil, err
			}
			p.sawNumber = true
			p.pos += len(m)
			n.children = append(n.children, &node{scalar: f, leaf: true})
		}
	}
}
