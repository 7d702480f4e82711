package liquid

import (
	"fmt"
	"strconv"
)

// parser turns a token stream into a Template's node/expr arenas.
type parser struct {
	toks []lexToken
	pos  int
	tpl  *Template
}

// Parse parses src into a named Template.
func Parse(name, src string) (*Template, error) {
	p := &parser{toks: lex(src), tpl: &Template{name: name}}
	root, err := p.parseSequence(nil)
	if err != nil {
		return nil, err
	}
	p.tpl.root = root
	return p.tpl, nil
}

func (p *parser) peek() lexToken { return p.toks[p.pos] }

func (p *parser) next() lexToken {
	t := p.toks[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

// parseSequence parses nodes until EOF or a tag in stopWords is seen
// (the tag's "{%" is consumed and its name is left as the next token,
// so callers like parseIf can peek at which closing/continuation tag
// they stopped at).
func (p *parser) parseSequence(stopWords []string) ([]int, error) {
	var seq []int
	for {
		switch p.peek().kind {
		case tokenEOF:
			return seq, nil
		case tokenText:
			t := p.next()
			seq = append(seq, p.addNode(node{kind: nodeText, text: t.text}))
		case tokenOutputStart:
			p.next()
			idx, err := p.parseOutput()
			if err != nil {
				return nil, err
			}
			seq = append(seq, idx)
		case tokenTagStart:
			p.next()
			name := p.peek().text
			for _, w := range stopWords {
				if name == w {
					return seq, nil
				}
			}
			idx, consumed, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			if consumed {
				seq = append(seq, idx)
			}
		default:
			p.next()
		}
	}
}

func (p *parser) addNode(n node) int {
	p.tpl.nodes = append(p.tpl.nodes, n)
	return len(p.tpl.nodes) - 1
}

func (p *parser) addExpr(e expr) int {
	p.tpl.exprs = append(p.tpl.exprs, e)
	return len(p.tpl.exprs) - 1
}

func (p *parser) parseOutput() (int, error) {
	e, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	var filters []filterCall
	for p.peek().kind == tokenPipe {
		p.next()
		name := p.next().text
		var args []int
		if p.peek().kind == tokenColon {
			p.next()
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return 0, err
				}
				args = append(args, arg)
				if p.peek().kind == tokenComma {
					p.next()
					continue
				}
				break
			}
		}
		filters = append(filters, filterCall{name: name, args: args})
	}
	if p.peek().kind != tokenOutputEnd {
		return 0, fmt.Errorf("liquid: expected }} in output, got %q", p.peek().text)
	}
	p.next()
	return p.addNode(node{kind: nodeOutput, expr: e, filters: filters}), nil
}

// parseTag parses one {% ... %} tag. consumed is false when the tag
// produced no node (an unknown tag, which is skipped).
func (p *parser) parseTag() (idx int, consumed bool, err error) {
	name := p.next().text
	switch name {
	case "if":
		idx, err = p.parseIf()
		return idx, true, err
	case "for":
		idx, err = p.parseFor()
		return idx, true, err
	case "include":
		idx, err = p.parseInclude()
		return idx, true, err
	default:
		// Unknown tag: skip to %} and emit nothing, matching libliquify's
		// tolerant handling of tags registered by plugins it doesn't know.
		for p.peek().kind != tokenTagEnd && p.peek().kind != tokenEOF {
			p.next()
		}
		if p.peek().kind == tokenTagEnd {
			p.next()
		}
		return 0, false, nil
	}
}

func (p *parser) parseIf() (int, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if err := p.expectTagEnd(); err != nil {
		return 0, err
	}
	var branches []ifBranch
	body, err := p.parseSequence([]string{"elsif", "else", "endif"})
	if err != nil {
		return 0, err
	}
	branches = append(branches, ifBranch{cond: cond, body: body})

	for p.peek().text == "elsif" {
		p.next()
		c, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if err := p.expectTagEnd(); err != nil {
			return 0, err
		}
		b, err := p.parseSequence([]string{"elsif", "else", "endif"})
		if err != nil {
			return 0, err
		}
		branches = append(branches, ifBranch{cond: c, body: b})
	}

	var elseBody []int
	if p.peek().text == "else" {
		p.next()
		if err := p.expectTagEnd(); err != nil {
			return 0, err
		}
		elseBody, err = p.parseSequence([]string{"endif"})
		if err != nil {
			return 0, err
		}
	}
	if p.peek().text != "endif" {
		return 0, fmt.Errorf("liquid: expected endif, got %q", p.peek().text)
	}
	p.next()
	if err := p.expectTagEnd(); err != nil {
		return 0, err
	}
	return p.addNode(node{kind: nodeIf, branches: branches, elseBody: elseBody}), nil
}

func (p *parser) parseFor() (int, error) {
	if p.peek().kind != tokenIdent {
		return 0, fmt.Errorf("liquid: expected loop variable in for")
	}
	loopVar := p.next().text
	if !(p.peek().kind == tokenIdent && p.peek().text == "in") {
		return 0, fmt.Errorf("liquid: expected 'in' in for")
	}
	p.next()
	coll, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if err := p.expectTagEnd(); err != nil {
		return 0, err
	}
	body, err := p.parseSequence([]string{"endfor"})
	if err != nil {
		return 0, err
	}
	if p.peek().text != "endfor" {
		return 0, fmt.Errorf("liquid: expected endfor, got %q", p.peek().text)
	}
	p.next()
	if err := p.expectTagEnd(); err != nil {
		return 0, err
	}
	return p.addNode(node{kind: nodeFor, loopVar: loopVar, collection: coll, body: body}), nil
}

func (p *parser) parseInclude() (int, error) {
	e, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if err := p.expectTagEnd(); err != nil {
		return 0, err
	}
	return p.addNode(node{kind: nodeInclude, includeName: e}), nil
}

func (p *parser) expectTagEnd() error {
	if p.peek().kind != tokenTagEnd {
		return fmt.Errorf("liquid: expected %%}, got %q", p.peek().text)
	}
	p.next()
	return nil
}

// parseExpr parses a boolean/comparison expression:
//   expr := unary (op unary)*
func (p *parser) parseExpr() (int, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.peek().kind == tokenOp && p.peek().text != "not" {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		left = p.addExpr(expr{kind: exprBinOp, op: op, left: left, right: right})
	}
	return left, nil
}

func (p *parser) parseUnary() (int, error) {
	if p.peek().kind == tokenOp && p.peek().text == "not" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return p.addExpr(expr{kind: exprNot, left: inner, right: -1}), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (int, error) {
	t := p.peek()
	switch t.kind {
	case tokenString:
		p.next()
		return p.addExpr(expr{kind: exprLiteral, lit: t.text}), nil
	case tokenNumber:
		p.next()
		n, _ := strconv.ParseFloat(t.text, 64)
		return p.addExpr(expr{kind: exprLiteral, lit: n}), nil
	case tokenIdent:
		switch t.text {
		case "true":
			p.next()
			return p.addExpr(expr{kind: exprLiteral, lit: true}), nil
		case "false":
			p.next()
			return p.addExpr(expr{kind: exprLiteral, lit: false}), nil
		case "nil", "null":
			p.next()
			return p.addExpr(expr{kind: exprLiteral, lit: nil}), nil
		}
		path := []string{p.next().text}
		for p.peek().kind == tokenDot {
			p.next()
			path = append(path, p.next().text)
		}
		return p.addExpr(expr{kind: exprVar, path: path}), nil
	default:
		return 0, fmt.Errorf("liquid: unexpected token %q in expression", t.text)
	}
}
