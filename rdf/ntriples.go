package rdf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// nquadsDecoder reads N-Triples and N-Quads one line at a time.
type nquadsDecoder struct {
	scanner     *bufio.Scanner
	format      string
	blankPrefix string
	line        int
}

func newNQuadsDecoder(r io.Reader, format string, opts Options) *nquadsDecoder {
	scanner := bufio.NewScanner(r)
	initial := 64 * 1024
	if opts.MaxLineBytes < initial {
		initial = opts.MaxLineBytes
	}
	// the scanner needs room for the line terminator on top of the limit
	scanner.Buffer(make([]byte, 0, initial), opts.MaxLineBytes+1)
	return &nquadsDecoder{scanner: scanner, format: format, blankPrefix: opts.BlankNodePrefix}
}

// Next returns the next quad, or io.EOF at the end of input.
func (d *nquadsDecoder) Next() (Quad, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cursor := &ntCursor{input: line, blankPrefix: d.blankPrefix}
		quad, err := cursor.parseStatement()
		if err != nil {
			return Quad{}, newParseError(d.format, d.line, cursor.pos+1, err)
		}
		return quad, nil
	}
	if err := d.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Quad{}, newParseError(d.format, d.line+1, 0, ErrLineTooLong)
		}
		return Quad{}, err
	}
	return Quad{}, io.EOF
}

// decodeNQuads pushes every quad of r to out.
func decodeNQuads(ctx context.Context, r io.Reader, format string, opts Options, out *Stream[Quad]) error {
	dec := newNQuadsDecoder(r, format, opts)
	var count int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		quad, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		count++
		if opts.MaxTriples > 0 && count > opts.MaxTriples {
			return ErrTripleLimitExceeded
		}
		if err := out.Push(quad); err != nil {
			return err
		}
	}
}

type ntCursor struct {
	input       string
	pos         int
	blankPrefix string
}

func (c *ntCursor) parseStatement() (Quad, error) {
	subject, err := c.parseTerm(false)
	if err != nil {
		return Quad{}, err
	}
	predicate, err := c.parseIRI()
	if err != nil {
		return Quad{}, err
	}
	object, err := c.parseTerm(true)
	if err != nil {
		return Quad{}, err
	}

	var graph Term
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] != '.' {
		graph, err = c.parseTerm(false)
		if err != nil {
			return Quad{}, err
		}
		if _, ok := graph.(TripleTerm); ok {
			return Quad{}, c.errorf("quoted triple not allowed as graph name")
		}
	}
	if !c.consume('.') {
		return Quad{}, c.errorf("expected '.' at end of statement")
	}
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] != '#' {
		return Quad{}, c.errorf("unexpected %q after statement", c.input[c.pos:])
	}

	return Quad{S: subject, P: predicate, O: object, G: graph}, nil
}

func (c *ntCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *ntCursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

func (c *ntCursor) parseTerm(allowLiteral bool) (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of line")
	}
	switch {
	case strings.HasPrefix(c.input[c.pos:], "<<"):
		return c.parseTripleTerm()
	case c.input[c.pos] == '<':
		return c.parseIRI()
	case strings.HasPrefix(c.input[c.pos:], "_:"):
		return c.parseBlankNode()
	case c.input[c.pos] == '"':
		if !allowLiteral {
			return nil, c.errorf("literal not allowed here")
		}
		return c.parseLiteral()
	default:
		return nil, c.errorf("unexpected %q", c.word())
	}
}

func (c *ntCursor) parseIRI() (IRI, error) {
	if !c.consume('<') {
		return IRI{}, c.errorf("expected IRI")
	}
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != '>' {
		c.pos++
	}
	if c.pos >= len(c.input) {
		return IRI{}, c.errorf("unterminated IRI")
	}
	value := c.input[start:c.pos]
	c.pos++
	if strings.Contains(value, `\u`) || strings.Contains(value, `\U`) {
		unescaped, err := unescapeString(value)
		if err != nil {
			return IRI{}, c.errorf("%v", err)
		}
		value = unescaped
	}
	return IRI{Value: value}, nil
}

func (c *ntCursor) parseBlankNode() (BlankNode, error) {
	c.skipWS()
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
		c.pos++
	}
	// a label may not end with '.'
	for c.pos > start && c.input[c.pos-1] == '.' {
		c.pos--
	}
	if start == c.pos {
		return BlankNode{}, c.errorf("blank node id missing")
	}
	return BlankNode{ID: c.blankPrefix + c.input[start:c.pos]}, nil
}

func (c *ntCursor) parseLiteral() (Literal, error) {
	if !c.consume('"') {
		return Literal{}, c.errorf("expected literal")
	}
	start := c.pos
	escaped := false
	for {
		if c.pos >= len(c.input) {
			return Literal{}, c.errorf("unterminated literal")
		}
		ch := c.input[c.pos]
		if ch == '\\' {
			escaped = true
			c.pos += 2
			continue
		}
		if ch == '"' {
			break
		}
		c.pos++
	}
	lexical := c.input[start:c.pos]
	c.pos++
	if escaped {
		unescaped, err := unescapeString(lexical)
		if err != nil {
			return Literal{}, c.errorf("%v", err)
		}
		lexical = unescaped
	}

	if strings.HasPrefix(c.input[c.pos:], "@") {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && isLangChar(c.input[c.pos]) {
			c.pos++
		}
		if start == c.pos {
			return Literal{}, c.errorf("language tag missing")
		}
		return Literal{Lexical: lexical, Lang: c.input[start:c.pos]}, nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		dt, err := c.parseIRI()
		if err != nil {
			return Literal{}, err
		}
		if dt == xsdString {
			dt = IRI{}
		}
		return Literal{Lexical: lexical, Datatype: dt}, nil
	}
	return Literal{Lexical: lexical}, nil
}

func (c *ntCursor) parseTripleTerm() (Term, error) {
	c.pos += 2
	subject, err := c.parseTerm(false)
	if err != nil {
		return nil, err
	}
	predicate, err := c.parseIRI()
	if err != nil {
		return nil, err
	}
	object, err := c.parseTerm(true)
	if err != nil {
		return nil, err
	}
	c.skipWS()
	if !strings.HasPrefix(c.input[c.pos:], ">>") {
		return nil, c.errorf("expected '>>'")
	}
	c.pos += 2
	return TripleTerm{S: subject, P: predicate, O: object}, nil
}

// word returns the run of non-space characters at the cursor.
func (c *ntCursor) word() string {
	end := c.pos
	for end < len(c.input) && !isSpace(c.input[end]) {
		end++
	}
	return c.input[c.pos:end]
}

func (c *ntCursor) errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func isTermDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '<', '"', '>':
		return true
	default:
		return false
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isLangChar(ch byte) bool {
	return ch == '-' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// ntriplesSerializer writes one N-Triples or N-Quads line per quad. Quads in
// the default graph are written as triples.
type ntriplesSerializer struct {
	opts Options
}

func newNTriplesSerializer(opts ...Option) (Serializer, error) {
	return &ntriplesSerializer{opts: newOptions(opts...)}, nil
}

func (s *ntriplesSerializer) Import(in *Stream[Quad], opts ...Option) *Stream[[]byte] {
	o := s.opts.with(opts)
	return importStream(func(out *Stream[[]byte]) error {
		defer in.Destroy()
		for {
			ev, err := in.Next(o.Context)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			switch ev.Kind {
			case EventError:
				return ev.Err
			case EventItem:
				line, err := renderLine(ev.Item)
				if err != nil {
					return err
				}
				if err := out.Push([]byte(line)); err != nil {
					return err
				}
			}
		}
	})
}

// renderLine renders a quad as a complete N-Quads line.
func renderLine(q Quad) (string, error) {
	if q.S == nil || q.P.Value == "" || q.O == nil {
		return "", errors.New("ntriples: missing statement fields")
	}
	return renderQuad(q) + " .\n", nil
}

func renderQuad(q Quad) string {
	var b strings.Builder
	b.WriteString(renderTerm(q.S))
	b.WriteByte(' ')
	b.WriteString(renderIRI(q.P))
	b.WriteByte(' ')
	b.WriteString(renderTerm(q.O))
	if q.G != nil {
		b.WriteByte(' ')
		b.WriteString(renderTerm(q.G))
	}
	return b.String()
}

func renderIRI(iri IRI) string {
	return "<" + iri.Value + ">"
}

func renderTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		lexical := `"` + escapeLiteral(value.Lexical) + `"`
		if value.Lang != "" {
			return lexical + "@" + value.Lang
		}
		if value.Datatype.Value != "" && value.Datatype != xsdString {
			return lexical + "^^" + renderIRI(value.Datatype)
		}
		return lexical
	case TripleTerm:
		return "<< " + renderTerm(value.S) + " " + renderIRI(value.P) + " " + renderTerm(value.O) + " >>"
	default:
		return ""
	}
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f || r == utf8.RuneError {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeString resolves ECHAR and UCHAR escapes.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", errors.New("unterminated escape")
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			size := 4
			if s[i] == 'U' {
				size = 8
			}
			if i+1+size > len(s) {
				return "", errors.Errorf("truncated \\%c escape", s[i])
			}
			code, err := strconv.ParseUint(s[i+1:i+1+size], 16, 32)
			if err != nil {
				return "", errors.Errorf("invalid \\%c escape %q", s[i], s[i+1:i+1+size])
			}
			if !utf8.ValidRune(rune(code)) {
				return "", errors.Errorf("invalid code point U+%X", code)
			}
			b.WriteRune(rune(code))
			i += size
		default:
			return "", errors.Errorf("invalid escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
