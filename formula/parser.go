package formula

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parser is a recursive-descent parser over the Python expression grammar.
// It recognizes more than the validator accepts so rejections can name the
// construct instead of failing as generic syntax errors.
type parser struct {
	toks     []token
	i        int
	depth    int
	maxDepth int
}

func parse(src string, maxDepth int) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, maxDepth: maxDepth}
	if p.peek().typ == tokEOF {
		return nil, syntaxError(0, "empty formula")
	}
	n, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, syntaxError(t.pos, "unexpected %q", t.val)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(k int) token {
	if p.i+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+k]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.typ != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(vals ...string) bool {
	t := p.peek()
	if t.typ != tokOp {
		return false
	}
	for _, v := range vals {
		if t.val == v {
			return true
		}
	}
	return false
}

func (p *parser) isKeyword(val string) bool {
	t := p.peek()
	return t.typ == tokKeyword && t.val == val
}

func (p *parser) expectOp(val string) (token, error) {
	t := p.peek()
	if t.typ != tokOp || t.val != val {
		if t.typ == tokEOF {
			return t, syntaxError(t.pos, "expected %q, got end of formula", val)
		}
		return t, syntaxError(t.pos, "expected %q, got %q", val, t.val)
	}
	return p.next(), nil
}

func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return &SecurityError{Kind: ErrUnsafeConstruct, Construct: "Depth", Pos: p.peek().pos,
			Detail: "formula is nested too deeply"}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// exprList parses a comma separated list; more than one element is a tuple.
func (p *parser) exprList() (node, error) {
	start := p.peek().pos
	first, err := p.starOrExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elems := []node{first}
	for p.isOp(",") {
		p.next()
		if p.endOfList() {
			break
		}
		e, err := p.starOrExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &collection{at: at(start), typ: "Tuple", elems: elems}, nil
}

func (p *parser) endOfList() bool {
	return p.peek().typ == tokEOF || p.isOp(")", "]", "}", ":", "=")
}

func (p *parser) starOrExpr() (node, error) {
	if p.isOp("*") {
		t := p.next()
		v, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		return &starred{at: at(t.pos), value: v}, nil
	}
	return p.expr()
}

func (p *parser) expr() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := p.peek()
	if t.typ == tokKeyword && t.val == "lambda" {
		return p.lambda()
	}
	if t.typ == tokName && p.peekAt(1).typ == tokOp && p.peekAt(1).val == ":=" {
		p.next()
		p.next()
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &namedExpr{at: at(t.pos), target: t.val, value: v}, nil
	}
	return p.ternary()
}

func (p *parser) lambda() (node, error) {
	t := p.next()
	var params []string
	for !p.isOp(":") {
		switch tok := p.peek(); {
		case tok.typ == tokOp && (tok.val == "*" || tok.val == "**" || tok.val == ","):
			p.next()
		case tok.typ == tokName:
			p.next()
			params = append(params, tok.val)
			if p.isOp("=") {
				p.next()
				if _, err := p.ternary(); err != nil {
					return nil, err
				}
			}
		default:
			return nil, syntaxError(tok.pos, "invalid lambda parameters")
		}
	}
	p.next()
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &lambda{at: at(t.pos), params: params, body: body}, nil
}

func (p *parser) ternary() (node, error) {
	body, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}
	t := p.next()
	test, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, syntaxError(p.peek().pos, "expected 'else' in conditional expression")
	}
	p.next()
	orelse, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &conditional{at: at(t.pos), test: test, body: body, orelse: orelse}, nil
}

func (p *parser) orTest() (node, error)  { return p.boolChain("or", p.andTest) }
func (p *parser) andTest() (node, error) { return p.boolChain("and", p.notTest) }

func (p *parser) boolChain(op string, operand func() (node, error)) (node, error) {
	start := p.peek().pos
	first, err := operand()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(op) {
		return first, nil
	}
	values := []node{first}
	for p.isKeyword(op) {
		p.next()
		v, err := operand()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &boolOp{at: at(start), op: op, values: values}, nil
}

func (p *parser) notTest() (node, error) {
	if !p.isKeyword("not") {
		return p.comparison()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := p.next()
	operand, err := p.notTest()
	if err != nil {
		return nil, err
	}
	return &unary{at: at(t.pos), op: "not", operand: operand}, nil
}

func (p *parser) compareOp() (string, bool) {
	t := p.peek()
	switch {
	case t.typ == tokOp:
		switch t.val {
		case "<", "<=", ">", ">=", "==", "!=":
			p.next()
			return t.val, true
		}
	case t.typ == tokKeyword && t.val == "in":
		p.next()
		return "in", true
	case t.typ == tokKeyword && t.val == "not":
		if n := p.peekAt(1); n.typ == tokKeyword && n.val == "in" {
			p.next()
			p.next()
			return "not in", true
		}
	case t.typ == tokKeyword && t.val == "is":
		p.next()
		if p.isKeyword("not") {
			p.next()
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *parser) comparison() (node, error) {
	start := p.peek().pos
	left, err := p.bitOr()
	if err != nil {
		return nil, err
	}
	var (
		ops   []string
		comps []node
	)
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		right, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comps = append(comps, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &compare{at: at(start), left: left, ops: ops, comparators: comps}, nil
}

// binaryLevel parses a left-associative chain of the given operators.
func (p *parser) binaryLevel(ops []string, operand func() (node, error)) (node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for p.isOp(ops...) {
		t := p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &binary{at: at(t.pos), op: t.val, left: left, right: right}
	}
	return left, nil
}

func (p *parser) bitOr() (node, error)  { return p.binaryLevel([]string{"|"}, p.bitXor) }
func (p *parser) bitXor() (node, error) { return p.binaryLevel([]string{"^"}, p.bitAnd) }
func (p *parser) bitAnd() (node, error) { return p.binaryLevel([]string{"&"}, p.shift) }
func (p *parser) shift() (node, error)  { return p.binaryLevel([]string{"<<", ">>"}, p.arith) }
func (p *parser) arith() (node, error)  { return p.binaryLevel([]string{"+", "-"}, p.term) }
func (p *parser) term() (node, error) {
	return p.binaryLevel([]string{"*", "/", "//", "%", "@"}, p.factor)
}

func (p *parser) factor() (node, error) {
	if !p.isOp("+", "-", "~") {
		return p.power()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := p.next()
	operand, err := p.factor()
	if err != nil {
		return nil, err
	}
	return &unary{at: at(t.pos), op: t.val, operand: operand}, nil
}

// power binds tighter than a unary operator on its left and is right
// associative: -2**2 == -(2**2) and 2**3**2 == 2**(3**2).
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	t := p.next()
	exp, err := p.factor()
	if err != nil {
		return nil, err
	}
	return &binary{at: at(t.pos), op: "**", left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("("):
			n, err = p.call(n)
		case p.isOp("["):
			n, err = p.subscript(n)
		case p.isOp("."):
			t := p.next()
			attr := p.next()
			if attr.typ != tokName && attr.typ != tokKeyword {
				return nil, syntaxError(attr.pos, "expected attribute name")
			}
			n = &attribute{at: at(t.pos), value: n, attr: attr.val}
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) call(fn node) (node, error) {
	open := p.next()
	c := &call{at: at(open.pos), fn: fn}
	for !p.isOp(")") {
		switch t := p.peek(); {
		case t.typ == tokOp && t.val == "*":
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			c.args = append(c.args, &starred{at: at(t.pos), value: v})
		case t.typ == tokOp && t.val == "**":
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			c.keywords = append(c.keywords, keyword{value: &starred{at: at(t.pos), value: v}})
		case t.typ == tokName && p.peekAt(1).typ == tokOp && p.peekAt(1).val == "=":
			p.next()
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			c.keywords = append(c.keywords, keyword{name: t.val, value: v})
		default:
			if len(c.keywords) > 0 {
				return nil, syntaxError(t.pos, "positional argument follows keyword argument")
			}
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			if p.isKeyword("for") {
				v, err = p.comprehension("GeneratorExp", v, t.pos)
				if err != nil {
					return nil, err
				}
			}
			c.args = append(c.args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) subscript(value node) (node, error) {
	open := p.next()
	var items []node
	for {
		item, err := p.sliceItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.isOp(",") {
			break
		}
		p.next()
		if p.isOp("]") {
			break
		}
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	index := items[0]
	if len(items) > 1 {
		index = &collection{at: at(open.pos), typ: "Tuple", elems: items}
	}
	return &subscript{at: at(open.pos), value: value, index: index}, nil
}

func (p *parser) sliceItem() (node, error) {
	start := p.peek().pos
	var parts [3]node
	k := 0
	isSlice := false
	for {
		if !p.isOp(":", ",", "]") {
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			parts[k] = v
		}
		if !p.isOp(":") || k == 2 {
			break
		}
		p.next()
		isSlice = true
		k++
	}
	if !isSlice {
		if parts[0] == nil {
			return nil, syntaxError(start, "empty subscript")
		}
		return parts[0], nil
	}
	return &slice{at: at(start), lower: parts[0], upper: parts[1], step: parts[2]}, nil
}

// comprehension parses one or more `for target in iter [if cond]` clauses.
func (p *parser) comprehension(typ string, elt node, start int) (*comprehension, error) {
	c := &comprehension{at: at(start), typ: typ, elt: elt}
	for p.isKeyword("for") {
		p.next()
		target, err := p.targetList()
		if err != nil {
			return nil, err
		}
		if !p.isKeyword("in") {
			return nil, syntaxError(p.peek().pos, "expected 'in' in comprehension")
		}
		p.next()
		iter, err := p.orTest()
		if err != nil {
			return nil, err
		}
		c.iter = append(c.iter, target, iter)
		for p.isKeyword("if") {
			p.next()
			cond, err := p.orTest()
			if err != nil {
				return nil, err
			}
			c.iter = append(c.iter, cond)
		}
	}
	return c, nil
}

func (p *parser) targetList() (node, error) {
	start := p.peek().pos
	first, err := p.bitOr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elems := []node{first}
	for p.isOp(",") {
		p.next()
		if p.isKeyword("in") {
			break
		}
		e, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &collection{at: at(start), typ: "Tuple", elems: elems}, nil
}

func (p *parser) atom() (node, error) {
	t := p.peek()
	switch t.typ {
	case tokNumber:
		p.next()
		return numberLiteral(t)
	case tokString:
		var b strings.Builder
		for p.peek().typ == tokString {
			b.WriteString(p.next().val)
		}
		return &stringLit{at: at(t.pos), val: b.String()}, nil
	case tokName:
		p.next()
		return &name{at: at(t.pos), id: t.val}, nil
	case tokKeyword:
		switch t.val {
		case "True", "False":
			p.next()
			return &boolLit{at: at(t.pos), val: t.val == "True"}, nil
		case "None":
			p.next()
			return &noneLit{at: at(t.pos)}, nil
		}
	case tokOp:
		switch t.val {
		case "(":
			return p.parenthesized()
		case "[":
			return p.display("[", "]", "List", "ListComp")
		case "{":
			return p.braces()
		}
	case tokEOF:
		return nil, syntaxError(t.pos, "unexpected end of formula")
	}
	return nil, syntaxError(t.pos, "unexpected %q", t.val)
}

func numberLiteral(t token) (node, error) {
	s := t.val
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if i := strings.IndexAny(s, "eE"); i > 0 && s[i-1] == '.' {
		s = s[:i-1] + s[i:]
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, syntaxError(t.pos, "invalid number literal")
	}
	return &numberLit{at: at(t.pos), val: d}, nil
}

func (p *parser) parenthesized() (node, error) {
	open := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isOp(")") {
		p.next()
		return &collection{at: at(open.pos), typ: "Tuple"}, nil
	}
	first, err := p.starOrExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		gen, err := p.comprehension("GeneratorExp", first, open.pos)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return gen, nil
	}
	if p.isOp(")") {
		p.next()
		return first, nil
	}
	elems, err := p.elements(first, ")")
	if err != nil {
		return nil, err
	}
	return &collection{at: at(open.pos), typ: "Tuple", elems: elems}, nil
}

// elements finishes a comma separated display whose first element is known.
func (p *parser) elements(first node, closer string) ([]node, error) {
	elems := []node{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(closer) {
			break
		}
		e, err := p.starOrExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expectOp(closer); err != nil {
		return nil, err
	}
	return elems, nil
}

func (p *parser) display(opener, closer, typ, compTyp string) (node, error) {
	open := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isOp(closer) {
		p.next()
		return &collection{at: at(open.pos), typ: typ}, nil
	}
	first, err := p.starOrExpr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		c, err := p.comprehension(compTyp, first, open.pos)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(closer); err != nil {
			return nil, err
		}
		return c, nil
	}
	elems, err := p.elements(first, closer)
	if err != nil {
		return nil, err
	}
	return &collection{at: at(open.pos), typ: typ, elems: elems}, nil
}

// braces parses set and dict displays and their comprehensions. The first
// element decides which one it is, so nothing is parsed twice.
func (p *parser) braces() (node, error) {
	open := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isOp("}") {
		p.next()
		return &dict{at: at(open.pos)}, nil
	}
	if p.isOp("**") {
		return p.dictEntries(&dict{at: at(open.pos)})
	}

	first, err := p.starOrExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(":") {
		if p.isKeyword("for") {
			c, err := p.comprehension("SetComp", first, open.pos)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return c, nil
		}
		elems, err := p.elements(first, "}")
		if err != nil {
			return nil, err
		}
		return &collection{at: at(open.pos), typ: "Set", elems: elems}, nil
	}

	p.next()
	v, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		c, err := p.comprehension("DictComp", v, open.pos)
		if err != nil {
			return nil, err
		}
		c.iter = append([]node{first}, c.iter...)
		if _, err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return c, nil
	}
	d := &dict{at: at(open.pos), keys: []node{first}, values: []node{v}}
	if p.isOp(",") {
		p.next()
	}
	return p.dictEntries(d)
}

func (p *parser) dictEntries(d *dict) (node, error) {
	for !p.isOp("}") {
		if p.isOp("**") {
			p.next()
			v, err := p.bitOr()
			if err != nil {
				return nil, err
			}
			d.keys = append(d.keys, nil)
			d.values = append(d.values, v)
		} else {
			k, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(":"); err != nil {
				return nil, err
			}
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			d.keys = append(d.keys, k)
			d.values = append(d.values, v)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return d, nil
}
