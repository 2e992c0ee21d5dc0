package marker

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokString
	tokOp
	tokWord
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// markerOps in match order; longer operators first.
var markerOps = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at position %d", i)
			}
			toks = append(toks, token{tokString, s[i+1 : i+1+end], i})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			op := ""
			for _, candidate := range markerOps {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("invalid operator at position %d", i)
			}
			toks = append(toks, token{tokOp, op, i})
			i += len(op)
		case isWordByte(c):
			start := i
			for i < len(s) && isWordByte(s[i]) {
				i++
			}
			toks = append(toks, token{tokWord, s[start:i], start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}
	return append(toks, token{tokEOF, "", len(s)}), nil
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Parse parses a marker expression.
func Parse(s string) (*Marker, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("empty marker")
	}
	toks, err := tokenize(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing marker %q: %w", raw, err)
	}

	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("parsing marker %q: %w", raw, err)
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("parsing marker %q: unexpected %q at position %d", raw, tok.text, tok.pos)
	}
	return &Marker{raw: raw, root: root}, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) peekWord(word string) bool {
	tok := p.peek()
	return tok.kind == tokWord && tok.text == word
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekWord("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peekWord("and") {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) parseAtom() (node, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ) at position %d", tok.pos)
		}
		return inner, nil
	}

	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return compareNode{lhs: lhs, rhs: rhs, op: op}, nil
}

func (p *parser) parseOperand() (operand, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return operand{literal: tok.text}, nil
	case tokWord:
		name, ok := canonicalVariable(tok.text)
		if !ok {
			return operand{}, fmt.Errorf("unknown marker variable %q at position %d", tok.text, tok.pos)
		}
		return operand{variable: name}, nil
	case tokEOF:
		return operand{}, fmt.Errorf("unexpected end of marker")
	}
	return operand{}, fmt.Errorf("expected variable or quoted string at position %d", tok.pos)
}

func (p *parser) parseOperator() (string, error) {
	tok := p.next()
	switch {
	case tok.kind == tokOp:
		return tok.text, nil
	case tok.kind == tokWord && tok.text == "in":
		return "in", nil
	case tok.kind == tokWord && tok.text == "not":
		if !p.peekWord("in") {
			return "", fmt.Errorf("expected in after not at position %d", tok.pos)
		}
		p.next()
		return "not in", nil
	}
	return "", fmt.Errorf("expected marker operator at position %d", tok.pos)
}
