package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/echoflaresat/raycast/vectors"
)

const maxStringLen = 128

// lexer reads the scene text byte by byte and keeps a 1-based line counter
// for diagnostics.
type lexer struct {
	r    *bufio.Reader
	line int
	last byte
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) errorf(kind Kind, sentinel error, format string, args ...any) *Error {
	e := &Error{Kind: kind, Line: l.line, Err: sentinel}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

// next returns the next byte. Running out of input is always an error
// since the grammar never ends before the closing bracket.
func (l *lexer) next() (byte, error) {
	c, err := l.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, l.errorf(KindLexical, ErrUnexpectedEOF, "")
		}
		return 0, &Error{Kind: KindIO, Line: l.line, Err: err}
	}
	if c == '\n' {
		l.line++
	}
	l.last = c
	return c, nil
}

// unread pushes the last byte back, undoing its line count.
func (l *lexer) unread() {
	if err := l.r.UnreadByte(); err != nil {
		return
	}
	if l.last == '\n' {
		l.line--
	}
}

func (l *lexer) peek() (byte, error) {
	c, err := l.next()
	if err != nil {
		return 0, err
	}
	l.unread()
	return c, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (l *lexer) skipWhitespace() error {
	for {
		c, err := l.next()
		if err != nil {
			return err
		}
		if !isSpace(c) {
			l.unread()
			return nil
		}
	}
}

func (l *lexer) expect(want byte) error {
	c, err := l.next()
	if err != nil {
		return err
	}
	if c != want {
		return l.errorf(KindLexical, ErrUnexpectedChar, "expected '%c', found %q", want, c)
	}
	return nil
}

// nextString reads a double-quoted string of at most 128 printable ASCII
// characters without escapes.
func (l *lexer) nextString() (string, error) {
	c, err := l.next()
	if err != nil {
		return "", err
	}
	if c != '"' {
		return "", l.errorf(KindLexical, ErrExpectedString, "found %q", c)
	}
	buf := make([]byte, 0, 16)
	for {
		c, err = l.next()
		if err != nil {
			return "", err
		}
		if c == '"' {
			return string(buf), nil
		}
		switch {
		case len(buf) >= maxStringLen:
			return "", l.errorf(KindLexical, ErrStringTooLong, "")
		case c == '\\':
			return "", l.errorf(KindLexical, ErrStringEscape, "")
		case c < 32 || c > 126:
			return "", l.errorf(KindLexical, ErrStringNonASCII, "")
		}
		buf = append(buf, c)
	}
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E'
}

// nextNumber scans a decimal floating point literal. Parsing goes through
// strconv, so it does not depend on the process locale.
func (l *lexer) nextNumber() (float64, error) {
	buf := make([]byte, 0, 16)
	for {
		c, err := l.next()
		if err != nil {
			return 0, err
		}
		if !isNumberByte(c) {
			l.unread()
			break
		}
		buf = append(buf, c)
	}
	if len(buf) == 0 {
		c, _ := l.peek()
		return 0, l.errorf(KindLexical, ErrBadNumber, "expected number, found %q", c)
	}
	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, l.errorf(KindLexical, ErrBadNumber, "%q", buf)
	}
	return v, nil
}

// nextVector reads "[n, n, n]".
func (l *lexer) nextVector() (vectors.Vec3, error) {
	var v [3]float64
	if err := l.expect('['); err != nil {
		return vectors.Vec3{}, err
	}
	for i := range v {
		if err := l.skipWhitespace(); err != nil {
			return vectors.Vec3{}, err
		}
		n, err := l.nextNumber()
		if err != nil {
			return vectors.Vec3{}, err
		}
		v[i] = n
		if err := l.skipWhitespace(); err != nil {
			return vectors.Vec3{}, err
		}
		sep := byte(',')
		if i == len(v)-1 {
			sep = ']'
		}
		if err := l.expect(sep); err != nil {
			return vectors.Vec3{}, err
		}
	}
	return vectors.New(v[0], v[1], v[2]), nil
}
