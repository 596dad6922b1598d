package vrl

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent
	tokString    // "..." with escapes
	tokRawString // s'...', t'...' or r'...'; Val holds the prefix then the body
	tokInteger
	tokFloat
	tokPunct
)

type token struct {
	Kind tokenKind
	Val  string
	Pos  int
}

func (t token) String() string {
	switch t.Kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	default:
		return strconv.Quote(t.Val)
	}
}

type lexer struct {
	text  string
	pos   int
	depth int
	toks  []token
}

// lex splits source into tokens. Newlines inside brackets are dropped, so
// call arguments and literals may span lines.
func lex(text string) ([]token, error) {
	l := &lexer{text: text}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.Kind == tokEOF {
			return l.toks, nil
		}
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.text) {
		ch := l.text[l.pos]
		switch {
		case ch == '\n' && l.depth == 0:
			return
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.pos++
		case ch == '#':
			for l.pos < len(l.text) && l.text[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.text) {
		return token{Kind: tokEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.text[l.pos]

	switch {
	case ch == '\n':
		l.pos++
		return token{Kind: tokNewline, Val: "\n", Pos: start}, nil

	case ch == '?' && strings.HasPrefix(l.text[l.pos:], "??"):
		l.pos += 2
		return token{Kind: tokPunct, Val: "??", Pos: start}, nil

	case strings.IndexByte("([{", ch) >= 0:
		l.depth++
		l.pos++
		return token{Kind: tokPunct, Val: string(ch), Pos: start}, nil

	case strings.IndexByte(")]}", ch) >= 0:
		if l.depth > 0 {
			l.depth--
		}
		l.pos++
		return token{Kind: tokPunct, Val: string(ch), Pos: start}, nil

	case strings.IndexByte(",:;.=+-!", ch) >= 0:
		l.pos++
		return token{Kind: tokPunct, Val: string(ch), Pos: start}, nil

	case ch == '"':
		return l.quoted()

	case (ch == 's' || ch == 't' || ch == 'r') && l.pos+1 < len(l.text) && l.text[l.pos+1] == '\'':
		return l.raw(ch)

	case isDigit(ch):
		return l.number(), nil

	case isIdentStart(ch):
		for l.pos < len(l.text) && isIdentPart(l.text[l.pos]) {
			l.pos++
		}
		return token{Kind: tokIdent, Val: l.text[start:l.pos], Pos: start}, nil
	}

	return token{}, l.errorf(start, "unexpected character %q", ch)
}

func (l *lexer) quoted() (token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.text) {
		switch l.text[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			s, err := strconv.Unquote(l.text[start:l.pos])
			if err != nil {
				return token{}, l.errorf(start, "invalid string literal: %s", err)
			}
			return token{Kind: tokString, Val: s, Pos: start}, nil
		}
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated string")
}

func (l *lexer) raw(prefix byte) (token, error) {
	start := l.pos
	l.pos += 2
	var sb strings.Builder
	sb.WriteByte(prefix)
	for l.pos < len(l.text) {
		ch := l.text[l.pos]
		if ch == '\\' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '\'' {
			sb.WriteByte('\'')
			l.pos += 2
			continue
		}
		if ch == '\'' {
			l.pos++
			return token{Kind: tokRawString, Val: sb.String(), Pos: start}, nil
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated %c'' literal", prefix)
}

func (l *lexer) number() token {
	start := l.pos
	kind := tokInteger
	for l.pos < len(l.text) && (isDigit(l.text[l.pos]) || l.text[l.pos] == '_') {
		l.pos++
	}
	if l.pos+1 < len(l.text) && l.text[l.pos] == '.' && isDigit(l.text[l.pos+1]) {
		kind = tokFloat
		l.pos++
		for l.pos < len(l.text) && isDigit(l.text[l.pos]) {
			l.pos++
		}
	}
	return token{Kind: kind, Val: strings.ReplaceAll(l.text[start:l.pos], "_", ""), Pos: start}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
