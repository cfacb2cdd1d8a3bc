// Package pbxparser reads the OpenStep-style property list format used by
// Xcode project manifests into an insertion-ordered object tree.
//
// Comments are part of the format's identity ("ABC123 /* libfoo.a */") and
// are preserved: a comment attached to key K is stored under "K_comment",
// and a commented array element becomes an object with "value" and
// "comment" entries. Standalone comments, such as the section banners
// inside the objects table, carry no information that cannot be
// reconstructed and are dropped.
package pbxparser

import (
	"fmt"
	"strconv"
	"strings"
)

// CommentKeySuffix marks the sibling entry that holds a key's comment.
const CommentKeySuffix = "_comment"

func CommentKey(key string) string {
	return key + CommentKeySuffix
}

func IsCommentKey(key string) bool {
	return strings.HasSuffix(key, CommentKeySuffix)
}

// NewCommentedValue builds the value/comment pair used for array elements
// like "FD1A2B3C /* libfoo.a in Frameworks */".
func NewCommentedValue(value interface{}, comment string) Object {
	return NewObjectWithData([]ObjectItem{
		NewObjectItem("value", value),
		NewObjectItem("comment", comment),
	})
}

// Parse parses a full manifest document. The result has an optional
// "headComment" entry (the "!$*UTF8*$!" banner) and a "project" entry
// holding the root record.
func Parse(data []byte) (Object, error) {
	toks, err := newLexer(data).tokens()
	if err != nil {
		return Object{}, fmt.Errorf("pbxparser: %w", err)
	}
	p := &parser{toks: toks}

	root := NewObject()
	if p.peek().kind == tokLineComment {
		root.Set("headComment", p.take().text)
	}
	p.skipComments()

	project, err := p.parseDict()
	if err != nil {
		return Object{}, fmt.Errorf("pbxparser: %w", err)
	}
	root.Set("project", project)

	p.skipComments()
	if tok := p.peek(); tok.kind != tokEOF {
		return Object{}, fmt.Errorf("pbxparser: line %d: trailing content after root record", tok.line)
	}
	return root, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) take() token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.take()
	if tok.kind != kind {
		return tok, fmt.Errorf("line %d: expected %s, found %q", tok.line, what, tok.text)
	}
	return tok, nil
}

// skipComments drops standalone comments, e.g. the per-section
// "/* Begin PBXBuildFile section */" banners between entries.
func (p *parser) skipComments() {
	for {
		switch p.peek().kind {
		case tokBlockComment, tokLineComment:
			p.take()
		default:
			return
		}
	}
}

func (p *parser) parseDict() (Object, error) {
	if _, err := p.expect(tokLeftBrace, "'{'"); err != nil {
		return Object{}, err
	}
	dict := NewObject()
	for {
		p.skipComments()
		switch p.peek().kind {
		case tokRightBrace:
			p.take()
			return dict, nil
		case tokEOF:
			return Object{}, fmt.Errorf("line %d: unterminated record", p.peek().line)
		}

		key, err := p.expect(tokString, "key")
		if err != nil {
			return Object{}, err
		}
		comment, hasComment := p.takeComment()
		if _, err := p.expect(tokEquals, "'='"); err != nil {
			return Object{}, err
		}
		value, err := p.parseValue()
		if err != nil {
			return Object{}, err
		}
		if c, ok := p.takeComment(); ok {
			comment, hasComment = c, true
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return Object{}, err
		}

		dict.Set(key.text, value)
		if hasComment {
			dict.Set(CommentKey(key.text), comment)
		}
	}
}

func (p *parser) parseArray() ([]interface{}, error) {
	if _, err := p.expect(tokLeftParen, "'('"); err != nil {
		return nil, err
	}
	elements := []interface{}{}
	for {
		p.skipComments()
		switch p.peek().kind {
		case tokRightParen:
			p.take()
			return elements, nil
		case tokEOF:
			return nil, fmt.Errorf("line %d: unterminated list", p.peek().line)
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if comment, ok := p.takeComment(); ok {
			value = NewCommentedValue(value, comment)
		}
		elements = append(elements, value)

		if p.peek().kind == tokComma {
			p.take()
		}
	}
}

func (p *parser) parseValue() (interface{}, error) {
	switch tok := p.peek(); tok.kind {
	case tokLeftBrace:
		return p.parseDict()
	case tokLeftParen:
		return p.parseArray()
	case tokString:
		p.take()
		return scalarValue(tok.text), nil
	default:
		return nil, fmt.Errorf("line %d: expected value, found %q", tok.line, tok.text)
	}
}

func (p *parser) takeComment() (string, bool) {
	if p.peek().kind == tokBlockComment {
		return p.take().text, true
	}
	return "", false
}

// scalarValue keeps quoted strings verbatim and turns bare integers such
// as buildActionMask values into ints, matching how the rest of the
// library distinguishes them when serializing.
func scalarValue(text string) interface{} {
	if text == "" || strings.HasPrefix(text, `"`) {
		return text
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return text
		}
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	return text
}
