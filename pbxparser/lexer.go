package pbxparser

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLeftBrace
	tokRightBrace
	tokLeftParen
	tokRightParen
	tokEquals
	tokSemicolon
	tokComma
	tokString
	tokBlockComment
	tokLineComment
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	data []byte
	pos  int
	line int
}

func newLexer(data []byte) *lexer {
	return &lexer{data: data, line: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", l.line, fmt.Sprintf(format, args...))
}

// isWordChar reports whether c may appear in an unquoted token. The
// manifest format quotes anything else, so the set only needs to cover
// identifiers, numbers, extensions and relative paths.
func isWordChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("._/-+@$:~", c) >= 0
}

func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	c := l.data[l.pos]
	switch c {
	case '{':
		return l.punct(tokLeftBrace), nil
	case '}':
		return l.punct(tokRightBrace), nil
	case '(':
		return l.punct(tokLeftParen), nil
	case ')':
		return l.punct(tokRightParen), nil
	case '=':
		return l.punct(tokEquals), nil
	case ';':
		return l.punct(tokSemicolon), nil
	case ',':
		return l.punct(tokComma), nil
	case '"':
		return l.quotedString()
	case '/':
		if l.pos+1 < len(l.data) {
			switch l.data[l.pos+1] {
			case '*':
				return l.blockComment()
			case '/':
				return l.lineComment(), nil
			}
		}
	}

	if isWordChar(c) {
		return l.word(), nil
	}
	return token{}, l.errorf("unexpected character %q", c)
}

func (l *lexer) punct(kind tokenKind) token {
	tok := token{kind: kind, text: string(l.data[l.pos]), line: l.line}
	l.pos++
	return tok
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\n':
			l.line++
			l.pos++
		case ' ', '\t', '\r':
			l.pos++
		default:
			return
		}
	}
}

// quotedString returns the string with its surrounding quotes and any
// escape sequences intact, so quoting survives a parse/write round trip.
func (l *lexer) quotedString() (token, error) {
	start := l.pos
	line := l.line
	l.pos++ // opening quote
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '\n':
			l.line++
		case '"':
			l.pos++
			return token{kind: tokString, text: string(l.data[start:l.pos]), line: line}, nil
		}
		l.pos++
	}
	return token{}, l.errorf("unterminated string")
}

func (l *lexer) word() token {
	start := l.pos
	for l.pos < len(l.data) && isWordChar(l.data[l.pos]) {
		// a comment may directly follow a path-like token
		if l.data[l.pos] == '/' && l.pos+1 < len(l.data) &&
			(l.data[l.pos+1] == '*' || l.data[l.pos+1] == '/') {
			break
		}
		l.pos++
	}
	return token{kind: tokString, text: string(l.data[start:l.pos]), line: l.line}
}

func (l *lexer) blockComment() (token, error) {
	line := l.line
	l.pos += 2
	start := l.pos
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == '*' && l.data[l.pos+1] == '/' {
			text := strings.TrimSpace(string(l.data[start:l.pos]))
			l.pos += 2
			return token{kind: tokBlockComment, text: text, line: line}, nil
		}
		if l.data[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	return token{}, l.errorf("unterminated comment")
}

func (l *lexer) lineComment() token {
	line := l.line
	l.pos += 2
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\n' {
		l.pos++
	}
	return token{kind: tokLineComment, text: strings.TrimSpace(string(l.data[start:l.pos])), line: line}
}
