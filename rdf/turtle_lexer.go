package rdf

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

type turtleTokenKind int

const (
	tokEOF turtleTokenKind = iota
	tokIRIRef
	tokPName
	tokBlankNode
	tokString
	tokInteger
	tokDecimal
	tokDouble
	tokBoolean
	tokA
	tokLangTag
	tokDatatypeMarker
	tokPrefix
	tokBase
	tokSparqlPrefix
	tokSparqlBase
	tokGraph
	tokDot
	tokComma
	tokSemicolon
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLDoubleAngle
	tokRDoubleAngle
	// tokWord is a bare name that is not a keyword. It is never valid.
	tokWord
)

const (
	lexLDoubleAngle = "<<"
	lexRDoubleAngle = ">>"
	lexDatatype     = "^^"
	lexPrefix       = "prefix"
	lexBase         = "base"
	lexGraph        = "graph"
)

var turtlePunctuation = map[rune]turtleTokenKind{
	'.': tokDot,
	',': tokComma,
	';': tokSemicolon,
	'[': tokLBracket,
	']': tokRBracket,
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
}

func (k turtleTokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRIRef:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlankNode:
		return "blank node"
	case tokString:
		return "string"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokBoolean:
		return "boolean"
	case tokLangTag:
		return "language tag"
	default:
		return "token"
	}
}

// turtleToken is one lexeme with the position it starts at. IRIs, strings
// and labels carry their unescaped value.
type turtleToken struct {
	kind   turtleTokenKind
	lexeme string
	line   int
	col    int
}

const eof rune = -1

// turtleLexer splits Turtle, TriG, N-Triples and N-Quads input into tokens.
type turtleLexer struct {
	r        *bufio.Reader
	ahead    []rune
	atEOF    bool
	err      error
	line     int
	col      int
	maxToken int
}

func newTurtleLexer(r io.Reader, maxToken int) *turtleLexer {
	return &turtleLexer{r: bufio.NewReader(r), line: 1, col: 1, maxToken: maxToken}
}

// peekAt returns the rune i positions ahead without consuming anything.
func (l *turtleLexer) peekAt(i int) rune {
	for len(l.ahead) <= i {
		if l.atEOF {
			return eof
		}
		r, _, err := l.r.ReadRune()
		if err != nil {
			l.atEOF = true
			if err != io.EOF {
				l.err = err
			}
			return eof
		}
		l.ahead = append(l.ahead, r)
	}
	return l.ahead[i]
}

func (l *turtleLexer) advance() rune {
	r := l.peekAt(0)
	if r == eof {
		return eof
	}
	l.ahead = l.ahead[1:]
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *turtleLexer) skipSpace() {
	for {
		switch r := l.peekAt(0); {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '#':
			for r := l.peekAt(0); r != eof && r != '\n'; r = l.peekAt(0) {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *turtleLexer) tooLong(b *strings.Builder) error {
	if l.maxToken > 0 && b.Len() > l.maxToken {
		return ErrLineTooLong
	}
	return nil
}

// Next returns the next token. Errors are positioned at the returned token.
func (l *turtleLexer) Next() (turtleToken, error) {
	l.skipSpace()
	tok := turtleToken{line: l.line, col: l.col}

	r := l.peekAt(0)
	next := l.peekAt(1)
	switch {
	case r == eof:
		if l.err != nil {
			return tok, l.err
		}
		tok.kind = tokEOF
		return tok, nil
	case r == '<' && next == '<':
		l.advance()
		l.advance()
		tok.kind, tok.lexeme = tokLDoubleAngle, lexLDoubleAngle
		return tok, nil
	case r == '<':
		return l.lexIRIRef(tok)
	case r == '>' && next == '>':
		l.advance()
		l.advance()
		tok.kind, tok.lexeme = tokRDoubleAngle, lexRDoubleAngle
		return tok, nil
	case r == '"' || r == '\'':
		return l.lexString(tok)
	case r == '@':
		return l.lexAt(tok)
	case r == '^' && next == '^':
		l.advance()
		l.advance()
		tok.kind, tok.lexeme = tokDatatypeMarker, lexDatatype
		return tok, nil
	case r == '_' && next == ':':
		return l.lexBlankNode(tok)
	case isDigit(r),
		(r == '+' || r == '-') && (isDigit(next) || next == '.' && isDigit(l.peekAt(2))),
		r == '.' && isDigit(next):
		return l.lexNumber(tok)
	case r == ':' || isPNCharsBase(r):
		return l.lexName(tok)
	}

	if kind, ok := turtlePunctuation[r]; ok {
		l.advance()
		tok.kind, tok.lexeme = kind, string(r)
		return tok, nil
	}

	tok.lexeme = l.word()
	return tok, errors.Errorf("unexpected %q", tok.lexeme)
}

// word consumes up to the next whitespace, for error messages.
func (l *turtleLexer) word() string {
	var b strings.Builder
	for r := l.peekAt(0); r != eof && !unicode.IsSpace(r) && b.Len() < 64; r = l.peekAt(0) {
		b.WriteRune(l.advance())
	}
	return b.String()
}

func (l *turtleLexer) lexIRIRef(tok turtleToken) (turtleToken, error) {
	l.advance()
	var b strings.Builder
	for {
		r := l.advance()
		switch {
		case r == eof:
			return tok, errors.New("unterminated IRI")
		case r == '>':
			tok.kind, tok.lexeme = tokIRIRef, b.String()
			return tok, nil
		case r == '\\':
			esc := l.advance()
			if esc != 'u' && esc != 'U' {
				return tok, errors.Errorf("invalid escape \\%c in IRI", esc)
			}
			code, err := l.lexHex(esc)
			if err != nil {
				return tok, err
			}
			b.WriteRune(code)
		case r <= ' ' || strings.ContainsRune("<\"{}|^`", r):
			return tok, errors.Errorf("invalid character %q in IRI", r)
		default:
			b.WriteRune(r)
		}
		if err := l.tooLong(&b); err != nil {
			return tok, err
		}
	}
}

func (l *turtleLexer) lexString(tok turtleToken) (turtleToken, error) {
	quote := l.advance()
	long := false
	if l.peekAt(0) == quote && l.peekAt(1) == quote {
		l.advance()
		l.advance()
		long = true
	}

	var b strings.Builder
	for {
		r := l.advance()
		switch {
		case r == eof:
			return tok, errors.New("unterminated string")
		case r == '\\':
			esc, err := l.lexEscape()
			if err != nil {
				return tok, err
			}
			b.WriteRune(esc)
		case r == quote && !long:
			tok.kind, tok.lexeme = tokString, b.String()
			return tok, nil
		case r == quote && l.peekAt(0) == quote && l.peekAt(1) == quote:
			l.advance()
			l.advance()
			tok.kind, tok.lexeme = tokString, b.String()
			return tok, nil
		case !long && (r == '\n' || r == '\r'):
			return tok, errors.New("line break in string")
		default:
			b.WriteRune(r)
		}
		if err := l.tooLong(&b); err != nil {
			return tok, err
		}
	}
}

func (l *turtleLexer) lexEscape() (rune, error) {
	switch esc := l.advance(); esc {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return esc, nil
	case 'u', 'U':
		return l.lexHex(esc)
	case eof:
		return 0, errors.New("unterminated escape")
	default:
		return 0, errors.Errorf("invalid escape \\%c", esc)
	}
}

func (l *turtleLexer) lexHex(esc rune) (rune, error) {
	size := 4
	if esc == 'U' {
		size = 8
	}
	digits := make([]rune, 0, size)
	for i := 0; i < size; i++ {
		digits = append(digits, l.advance())
	}
	code, err := strconv.ParseUint(string(digits), 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, errors.Errorf("invalid \\%c escape", esc)
	}
	return rune(code), nil
}

func (l *turtleLexer) lexAt(tok turtleToken) (turtleToken, error) {
	l.advance()
	var b strings.Builder
	for r := l.peekAt(0); isASCIILetter(r); r = l.peekAt(0) {
		b.WriteRune(l.advance())
	}
	word := b.String()
	switch word {
	case "":
		return tok, errors.New("expected language tag or directive after '@'")
	case lexPrefix:
		tok.kind, tok.lexeme = tokPrefix, "@"+word
		return tok, nil
	case lexBase:
		tok.kind, tok.lexeme = tokBase, "@"+word
		return tok, nil
	}
	for l.peekAt(0) == '-' && (isASCIILetter(l.peekAt(1)) || isDigit(l.peekAt(1))) {
		b.WriteRune(l.advance())
		for r := l.peekAt(0); isASCIILetter(r) || isDigit(r); r = l.peekAt(0) {
			b.WriteRune(l.advance())
		}
	}
	tok.kind, tok.lexeme = tokLangTag, strings.ToLower(b.String())
	return tok, nil
}

func (l *turtleLexer) lexBlankNode(tok turtleToken) (turtleToken, error) {
	l.advance()
	l.advance()
	first := l.peekAt(0)
	if !isPNCharsU(first) && !isDigit(first) {
		return tok, errors.New("blank node label missing")
	}
	var b strings.Builder
	for {
		r := l.peekAt(0)
		if isPNChar(r) || r == '.' && l.nameContinues() {
			b.WriteRune(l.advance())
			continue
		}
		break
	}
	tok.kind, tok.lexeme = tokBlankNode, b.String()
	return tok, l.tooLong(&b)
}

func (l *turtleLexer) lexNumber(tok turtleToken) (turtleToken, error) {
	var b strings.Builder
	if r := l.peekAt(0); r == '+' || r == '-' {
		b.WriteRune(l.advance())
	}
	l.digits(&b)
	tok.kind = tokInteger
	if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
		b.WriteRune(l.advance())
		l.digits(&b)
		tok.kind = tokDecimal
	}
	if e := l.peekAt(0); e == 'e' || e == 'E' {
		sign := l.peekAt(1)
		if isDigit(sign) || (sign == '+' || sign == '-') && isDigit(l.peekAt(2)) {
			b.WriteRune(l.advance())
			if sign == '+' || sign == '-' {
				b.WriteRune(l.advance())
			}
			l.digits(&b)
			tok.kind = tokDouble
		}
	}
	tok.lexeme = b.String()
	return tok, l.tooLong(&b)
}

func (l *turtleLexer) digits(b *strings.Builder) {
	for isDigit(l.peekAt(0)) {
		b.WriteRune(l.advance())
	}
}

// lexName reads a prefixed name, a keyword or a bare word.
func (l *turtleLexer) lexName(tok turtleToken) (turtleToken, error) {
	var b strings.Builder
	for {
		r := l.peekAt(0)
		if isPNChar(r) || r == '.' && l.nameContinues() {
			b.WriteRune(l.advance())
			continue
		}
		break
	}

	if l.peekAt(0) != ':' {
		word := b.String()
		tok.lexeme = word
		switch {
		case word == "a":
			tok.kind = tokA
		case word == "true" || word == "false":
			tok.kind = tokBoolean
		case strings.EqualFold(word, lexPrefix):
			tok.kind = tokSparqlPrefix
		case strings.EqualFold(word, lexBase):
			tok.kind = tokSparqlBase
		case strings.EqualFold(word, lexGraph):
			tok.kind = tokGraph
		default:
			tok.kind = tokWord
		}
		return tok, nil
	}
	b.WriteRune(l.advance())

	for {
		r := l.peekAt(0)
		switch {
		case r == '\\':
			l.advance()
			esc := l.advance()
			if !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", esc) {
				return tok, errors.Errorf("invalid escape \\%c in local name", esc)
			}
			b.WriteRune(esc)
		case r == '%':
			l.advance()
			h1, h2 := l.advance(), l.advance()
			if !isHexDigit(h1) || !isHexDigit(h2) {
				return tok, errors.New("invalid percent encoding in local name")
			}
			b.WriteRune('%')
			b.WriteRune(h1)
			b.WriteRune(h2)
		case isPNChar(r) || r == ':' || r == '.' && l.nameContinues():
			b.WriteRune(l.advance())
		default:
			tok.kind, tok.lexeme = tokPName, b.String()
			return tok, l.tooLong(&b)
		}
		if err := l.tooLong(&b); err != nil {
			return tok, err
		}
	}
}

// nameContinues reports whether the run of dots at the cursor is followed by
// more name characters. Names never end with a dot.
func (l *turtleLexer) nameContinues() bool {
	i := 0
	for l.peekAt(i) == '.' {
		i++
	}
	r := l.peekAt(i)
	return isPNChar(r) || r == ':' || r == '%' || r == '\\'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isPNCharsBase(r rune) bool {
	return isASCIILetter(r) || r > 0x7f && unicode.IsLetter(r)
}

func isPNCharsU(r rune) bool {
	return isPNCharsBase(r) || r == '_'
}

func isPNChar(r rune) bool {
	return isPNCharsU(r) || isDigit(r) || r == '-' || r == 0xB7 ||
		r > 0x7f && (unicode.Is(unicode.Mn, r) || unicode.IsDigit(r))
}
