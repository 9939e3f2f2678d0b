package rules

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF      tokenKind = iota
	tokIdent              // rule names, keywords
	tokStringID           // $a, $a*, $
	tokCountID            // #a
	tokString             // "text"
	tokInt                // 42, 0x2A, 4KB
	tokPunct              // { } ( ) : = , < <= > >= == !=
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokStringID:
		return "string identifier"
	case tokCountID:
		return "string count"
	case tokString:
		return "string literal"
	case tokInt:
		return "integer"
	case tokPunct:
		return "punctuation"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string // identifier, punctuation or decoded string literal
	num  int64
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// lexer splits a rule source into tokens. String pattern values (hex strings
// and regular expressions) are context dependent, so the parser reads them
// through readPatternValue instead of next.
type lexer struct {
	src  []byte
	pos  int
	line int
	file string
	buf  []token
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{src: src, line: 1, file: file}
}

func (l *lexer) errorf(line int, format string, args ...interface{}) error {
	return &CompileError{File: l.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// peek returns the n-th upcoming token without consuming it.
func (l *lexer) peek(n int) (token, error) {
	for len(l.buf) <= n {
		tok, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.buf = append(l.buf, tok)
	}
	return l.buf[n], nil
}

func (l *lexer) next() (token, error) {
	if len(l.buf) > 0 {
		tok := l.buf[0]
		l.buf = l.buf[1:]
		return tok, nil
	}
	return l.scan()
}

// skipSpace skips whitespace and both comment styles.
func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			start := l.line
			l.pos += 2
			for {
				if l.pos+1 >= len(l.src) {
					return l.errorf(start, "unterminated comment")
				}
				if l.src[l.pos] == '\n' {
					l.line++
				}
				if l.src[l.pos] == '*' && l.src[l.pos+1] == '/' {
					l.pos += 2
					break
				}
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *lexer) readIdent() string {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) scan() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	line := l.line
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		return token{kind: tokIdent, text: l.readIdent(), line: line}, nil

	case c == '$':
		l.pos++
		name := l.readIdent()
		if l.pos < len(l.src) && l.src[l.pos] == '*' {
			l.pos++
			name += "*"
		}
		return token{kind: tokStringID, text: "$" + name, line: line}, nil

	case c == '#':
		l.pos++
		name := l.readIdent()
		if name == "" {
			return token{}, l.errorf(line, "expected identifier after '#'")
		}
		return token{kind: tokCountID, text: "$" + name, line: line}, nil

	case c >= '0' && c <= '9':
		return l.readInt()

	case c == '"':
		s, err := l.readQuoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line}, nil
	}

	// Two-character operators first.
	if l.pos+1 < len(l.src) {
		two := string(l.src[l.pos : l.pos+2])
		switch two {
		case "<=", ">=", "==", "!=":
			l.pos += 2
			return token{kind: tokPunct, text: two, line: line}, nil
		}
	}

	switch c {
	case '{', '}', '(', ')', ':', '=', ',', '<', '>':
		l.pos++
		return token{kind: tokPunct, text: string(c), line: line}, nil
	}

	return token{}, l.errorf(line, "unexpected character %q", c)
}

func (l *lexer) readInt() (token, error) {
	line := l.line
	start := l.pos
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
		l.pos += 2
	}
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])

	mult := int64(1)
	digits := text
	switch {
	case strings.HasSuffix(text, "KB"):
		mult, digits = 1024, strings.TrimSuffix(text, "KB")
	case strings.HasSuffix(text, "MB"):
		mult, digits = 1024*1024, strings.TrimSuffix(text, "MB")
	}

	n, err := strconv.ParseInt(digits, 0, 64)
	if err != nil {
		return token{}, l.errorf(line, "invalid integer %q", text)
	}
	return token{kind: tokInt, text: text, num: n * mult, line: line}, nil
}

// readQuoted reads a double-quoted string and decodes its escapes.
func (l *lexer) readQuoted() (string, error) {
	line := l.line
	l.pos++ // opening quote

	var b strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return "", l.errorf(line, "unterminated string")
		}
		c := l.src[l.pos]
		l.pos++
		if c == '"' {
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if l.pos >= len(l.src) {
			return "", l.errorf(line, "unterminated string")
		}
		esc := l.src[l.pos]
		l.pos++
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'x':
			if l.pos+2 > len(l.src) {
				return "", l.errorf(line, "invalid \\x escape")
			}
			v, err := strconv.ParseUint(string(l.src[l.pos:l.pos+2]), 16, 8)
			if err != nil {
				return "", l.errorf(line, "invalid \\x escape %q", l.src[l.pos:l.pos+2])
			}
			b.WriteByte(byte(v))
			l.pos += 2
		default:
			return "", l.errorf(line, "unknown escape sequence \\%c", esc)
		}
	}
}

// patternValue is the raw right-hand side of a string definition.
type patternValue struct {
	kind  patternKind
	text  string // literal text, hex body or regex body
	flags string // regex flags (i, s)
	line  int
}

// readPatternValue reads a text string, hex string or regular expression.
// It must only be called when no token is buffered.
func (l *lexer) readPatternValue() (patternValue, error) {
	if len(l.buf) > 0 {
		return patternValue{}, l.errorf(l.buf[0].line, "internal error: token buffered before pattern value")
	}
	if err := l.skipSpace(); err != nil {
		return patternValue{}, err
	}
	line := l.line
	if l.pos >= len(l.src) {
		return patternValue{}, l.errorf(line, "expected string value")
	}

	switch l.src[l.pos] {
	case '"':
		s, err := l.readQuoted()
		if err != nil {
			return patternValue{}, err
		}
		return patternValue{kind: kindText, text: s, line: line}, nil

	case '{':
		l.pos++
		start := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '}' {
			if l.src[l.pos] == '\n' {
				l.line++
			}
			l.pos++
		}
		if l.pos >= len(l.src) {
			return patternValue{}, l.errorf(line, "unterminated hex string")
		}
		body := string(l.src[start:l.pos])
		l.pos++
		return patternValue{kind: kindHex, text: body, line: line}, nil

	case '/':
		l.pos++
		var b strings.Builder
		for {
			if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
				return patternValue{}, l.errorf(line, "unterminated regular expression")
			}
			c := l.src[l.pos]
			l.pos++
			if c == '\\' && l.pos < len(l.src) && l.src[l.pos] == '/' {
				b.WriteByte('/')
				l.pos++
				continue
			}
			if c == '\\' && l.pos < len(l.src) {
				b.WriteByte(c)
				b.WriteByte(l.src[l.pos])
				l.pos++
				continue
			}
			if c == '/' {
				break
			}
			b.WriteByte(c)
		}
		flagStart := l.pos
		for l.pos < len(l.src) && (l.src[l.pos] == 'i' || l.src[l.pos] == 's') {
			l.pos++
		}
		return patternValue{kind: kindRegex, text: b.String(), flags: string(l.src[flagStart:l.pos]), line: line}, nil
	}

	return patternValue{}, l.errorf(line, "expected string, hex string or regular expression")
}
