package crs

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// Node is one keyword element of a WKT (1 or 2) coordinate reference
// system definition, e.g. PARAMETER["false_easting",500000].
type Node struct {
	Keyword  string
	Strings  []string
	Numbers  []float64
	Children []*Node
	// Idents holds bare enumeration values such as EAST in AXIS["X",EAST].
	Idents []string
}

// Child returns the first direct child with the given keyword (case-insensitive).
func (n *Node) Child(keywords ...string) *Node {
	for _, c := range n.Children {
		for _, k := range keywords {
			if strings.EqualFold(c.Keyword, k) {
				return c
			}
		}
	}
	return nil
}

// Find returns the first node in depth-first order with one of the keywords.
func (n *Node) Find(keywords ...string) *Node {
	for _, k := range keywords {
		if strings.EqualFold(n.Keyword, k) {
			return n
		}
	}
	for _, c := range n.Children {
		if found := c.Find(keywords...); found != nil {
			return found
		}
	}
	return nil
}

// Name returns the first quoted argument, which names most WKT elements.
func (n *Node) Name() string {
	if len(n.Strings) == 0 {
		return ""
	}
	return n.Strings[0]
}

// ParseWKT parses a WKT definition into its root node.
func ParseWKT(wkt string) (*Node, error) {
	p := &wktParser{src: []rune(strings.TrimSpace(wkt))}
	if len(p.src) == 0 {
		return nil, errors.NewParseError("wkt", "", "empty definition", nil)
	}
	node, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing content")
	}
	return node, nil
}

type wktParser struct {
	src []rune
	pos int
}

func (p *wktParser) errorf(msg string) error {
	return errors.NewParseError("wkt", "", msg+" at offset "+strconv.Itoa(p.pos), nil)
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *wktParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *wktParser) node() (*Node, error) {
	p.skipSpace()
	keyword := p.ident()
	if keyword == "" {
		return nil, p.errorf("expected keyword")
	}
	n := &Node{Keyword: strings.ToUpper(keyword)}

	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		return n, nil
	}
	closing := ']'
	if p.src[p.pos] == '(' {
		closing = ')'
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated element " + n.Keyword)
		}
		r := p.src[p.pos]
		switch {
		case r == closing:
			p.pos++
			return n, nil
		case r == ',':
			p.pos++
		case r == '"':
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			n.Strings = append(n.Strings, s)
		case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
			f, err := p.number()
			if err != nil {
				return nil, err
			}
			n.Numbers = append(n.Numbers, f)
		case unicode.IsLetter(r):
			save := p.pos
			word := p.ident()
			p.skipSpace()
			if p.pos < len(p.src) && (p.src[p.pos] == '[' || p.src[p.pos] == '(') {
				p.pos = save
				child, err := p.node()
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			} else {
				n.Idents = append(n.Idents, word)
			}
		default:
			return nil, p.errorf("unexpected character " + strconv.QuoteRune(r))
		}
	}
}

func (p *wktParser) quoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		if r == '"' {
			if p.pos < len(p.src) && p.src[p.pos] == '"' {
				b.WriteRune('"')
				p.pos++
				continue
			}
			return b.String(), nil
		}
		b.WriteRune(r)
	}
	return "", p.errorf("unterminated string")
}

func (p *wktParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if !(unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E') {
			break
		}
		p.pos++
	}
	f, err := strconv.ParseFloat(string(p.src[start:p.pos]), 64)
	if err != nil {
		return 0, p.errorf("invalid number")
	}
	return f, nil
}
