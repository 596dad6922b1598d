package vrl

import (
	"strconv"
	"time"

	"github.com/hanzai/vrl/pkg/types"
	"github.com/hanzai/vrl/pkg/value"
)

// parser builds compiled expressions directly: each call site is handed to
// the compiler as soon as its arguments are parsed.
type parser struct {
	toks []token
	pos  int
	c    *compiler
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) isPunct(val string) bool {
	tok := p.peek()
	return tok.Kind == tokPunct && tok.Val == val
}

func (p *parser) expect(val string) error {
	tok := p.advance()
	if tok.Kind != tokPunct || tok.Val != val {
		return p.unexpected(tok, strconv.Quote(val))
	}
	return nil
}

func (p *parser) unexpected(tok token, want string) error {
	return &SyntaxError{Pos: tok.Pos, Msg: "unexpected " + tok.String() + ", expected " + want}
}

func (p *parser) parseProgram() (*Block, error) {
	var exprs []Expression
	t := types.Null()
	for {
		for p.peek().Kind == tokNewline || p.isPunct(";") {
			p.advance()
		}
		if p.peek().Kind == tokEOF {
			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		st := stmt.TypeDef(p.c.state)
		t = types.Of(st.Kind()).WithFallibility(t.IsFallible() || st.IsFallible())
		exprs = append(exprs, stmt)

		switch tok := p.peek(); {
		case tok.Kind == tokNewline, tok.Kind == tokEOF, p.isPunct(";"):
		default:
			return nil, p.unexpected(tok, "end of statement")
		}
	}
	return NewBlock(exprs, t), nil
}

func (p *parser) parseStatement() (Expression, error) {
	tok := p.peek()

	if tok.Kind == tokIdent && p.peekAt(1).Kind == tokPunct && p.peekAt(1).Val == "=" {
		p.advance()
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewAssignment(&Variable{Name: tok.Val}, val, p.c.state)
	}

	if p.isPunct(".") {
		start := p.pos
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if p.isPunct("=") {
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return NewAssignment(q, val, p.c.state)
		}
		p.pos = start
	}

	return p.parseExpr()
}

func (p *parser) parseExpr() (Expression, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for p.isPunct("??") {
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = &Coalesce{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseConcat() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") {
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		concat, err := NewConcat(left, right, p.c.state)
		if err != nil {
			return nil, err
		}
		left = concat
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expression, error) {
	tok := p.peek()
	switch tok.Kind {
	case tokString:
		p.advance()
		return &Literal{Value: value.Bytes(tok.Val)}, nil

	case tokRawString:
		p.advance()
		return p.rawLiteral(tok)

	case tokInteger, tokFloat:
		p.advance()
		return p.number(tok, false)

	case tokIdent:
		return p.parseIdent()

	case tokPunct:
		switch tok.Val {
		case "-":
			p.advance()
			num := p.advance()
			if num.Kind != tokInteger && num.Kind != tokFloat {
				return nil, p.unexpected(num, "number")
			}
			return p.number(num, true)
		case ".":
			return p.parseQuery()
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		case "(":
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}
	return nil, p.unexpected(tok, "expression")
}

func (p *parser) rawLiteral(tok token) (Expression, error) {
	prefix, body := tok.Val[0], tok.Val[1:]
	switch prefix {
	case 't':
		ts, err := time.Parse(time.RFC3339Nano, body)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.Pos, Msg: "invalid timestamp literal: " + err.Error()}
		}
		return &Literal{Value: value.NewTimestamp(ts)}, nil
	case 'r':
		re, err := value.NewRegex(body)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.Pos, Msg: "invalid regex literal: " + err.Error()}
		}
		return &Literal{Value: re}, nil
	default:
		return &Literal{Value: value.Bytes(body)}, nil
	}
}

func (p *parser) number(tok token, negate bool) (Expression, error) {
	text := tok.Val
	if negate {
		text = "-" + text
	}
	if tok.Kind == tokFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.Pos, Msg: "invalid float literal: " + err.Error()}
		}
		return &Literal{Value: value.Float(f)}, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &SyntaxError{Pos: tok.Pos, Msg: "invalid integer literal: " + err.Error()}
	}
	return &Literal{Value: value.Integer(i)}, nil
}

func (p *parser) parseIdent() (Expression, error) {
	tok := p.advance()
	switch tok.Val {
	case "true":
		return &Literal{Value: value.Boolean(true)}, nil
	case "false":
		return &Literal{Value: value.Boolean(false)}, nil
	case "null":
		return &Literal{Value: value.Null{}}, nil
	}

	abort := false
	if p.isPunct("!") && p.peekAt(1).Kind == tokPunct && p.peekAt(1).Val == "(" {
		p.advance()
		abort = true
	}
	if p.isPunct("(") {
		return p.parseCall(tok.Val, abort)
	}

	if _, ok := p.c.state.Local(tok.Val); !ok {
		return nil, &UndefinedVariableError{Name: tok.Val}
	}
	return &Variable{Name: tok.Val}, nil
}

func (p *parser) parseCall(ident string, abort bool) (Expression, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Argument
	for !p.isPunct(")") {
		var arg Argument
		if p.peek().Kind == tokIdent && p.peekAt(1).Kind == tokPunct && p.peekAt(1).Val == ":" {
			arg.Keyword = p.advance().Val
			p.advance()
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arg.Expr = expr
		args = append(args, arg)

		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct(")") {
			return nil, p.unexpected(p.peek(), `"," or ")"`)
		}
	}
	p.advance()

	call, err := p.c.call(ident, args)
	if err != nil {
		return nil, err
	}
	if abort {
		return &Abort{Expr: call}, nil
	}
	return call, nil
}

func (p *parser) parseQuery() (*Query, error) {
	if err := p.expect("."); err != nil {
		return nil, err
	}
	q := &Query{}
	if !p.segmentNext() {
		return q, nil
	}
	for {
		q.Path = append(q.Path, p.advance().Val)
		if !p.isPunct(".") {
			return q, nil
		}
		p.advance()
		if !p.segmentNext() {
			return nil, p.unexpected(p.peek(), "path segment")
		}
	}
}

func (p *parser) segmentNext() bool {
	kind := p.peek().Kind
	return kind == tokIdent || kind == tokString
}

func (p *parser) parseArray() (Expression, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	arr := &ArrayExpr{}
	for !p.isPunct("]") {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct("]") {
			return nil, p.unexpected(p.peek(), `"," or "]"`)
		}
	}
	p.advance()
	return arr, nil
}

func (p *parser) parseObject() (Expression, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	obj := &ObjectExpr{}
	for !p.isPunct("}") {
		key := p.advance()
		if key.Kind != tokString && key.Kind != tokIdent {
			return nil, p.unexpected(key, "object key")
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, ObjectField{Key: key.Val, Value: val})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct("}") {
			return nil, p.unexpected(p.peek(), `"," or "}"`)
		}
	}
	p.advance()
	return obj, nil
}
