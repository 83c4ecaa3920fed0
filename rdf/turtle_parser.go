package rdf

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const turtleFormat = "turtle"

// turtleParser is a recursive descent parser for the union of Turtle, TriG,
// N-Triples and N-Quads. Quads are buffered per statement and pushed once the
// statement is complete.
type turtleParser struct {
	lex  *turtleLexer
	tok  turtleToken
	ctx  context.Context
	out  *Stream[Quad]
	opts Options

	base     string
	prefixes map[string]string
	blanks   *blankNodeGenerator

	graph   Term
	pending []Quad
	count   int64
}

func newTurtleParser(r io.Reader, opts Options, out *Stream[Quad]) *turtleParser {
	return &turtleParser{
		lex:      newTurtleLexer(r, opts.MaxLineBytes),
		ctx:      opts.Context,
		out:      out,
		opts:     opts,
		base:     opts.BaseIRI,
		prefixes: map[string]string{},
		blanks:   newBlankNodeGenerator(opts.BlankNodePrefix),
	}
}

func (p *turtleParser) parse() error {
	if err := p.advance(); err != nil {
		return err
	}
	for p.tok.kind != tokEOF {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

func (p *turtleParser) advance() error {
	tok, err := p.lex.Next()
	p.tok = tok
	if err != nil {
		return newParseError(turtleFormat, tok.line, tok.col, err)
	}
	return nil
}

func (p *turtleParser) errorf(format string, args ...interface{}) error {
	return newParseError(turtleFormat, p.tok.line, p.tok.col, errors.Errorf(format, args...))
}

func (p *turtleParser) unexpected() error {
	if p.tok.kind == tokEOF {
		return p.errorf("unexpected end of input")
	}
	return p.errorf("unexpected %q", p.tok.lexeme)
}

func (p *turtleParser) expect(kind turtleTokenKind) error {
	if p.tok.kind != kind {
		return p.unexpected()
	}
	return p.advance()
}

func (p *turtleParser) emit(s Term, pred IRI, o Term) {
	p.pending = append(p.pending, Quad{S: s, P: pred, O: o, G: p.graph})
}

func (p *turtleParser) flush() error {
	for _, quad := range p.pending {
		p.count++
		if p.opts.MaxTriples > 0 && p.count > p.opts.MaxTriples {
			return ErrTripleLimitExceeded
		}
		if err := p.out.Push(quad); err != nil {
			return err
		}
	}
	p.pending = p.pending[:0]
	return nil
}

func (p *turtleParser) parseStatement() error {
	switch p.tok.kind {
	case tokPrefix:
		return p.parsePrefixDirective(true)
	case tokSparqlPrefix:
		return p.parsePrefixDirective(false)
	case tokBase:
		return p.parseBaseDirective(true)
	case tokSparqlBase:
		return p.parseBaseDirective(false)
	case tokGraph:
		if err := p.advance(); err != nil {
			return err
		}
		graph, err := p.parseGraphLabel()
		if err != nil {
			return err
		}
		return p.parseGraphBlock(graph)
	case tokLBrace:
		return p.parseGraphBlock(nil)
	}

	anonymous := p.tok.kind == tokLBracket
	graphCandidate := p.tok.kind == tokIRIRef || p.tok.kind == tokPName || p.tok.kind == tokBlankNode
	subject, err := p.parseSubject()
	if err != nil {
		return err
	}
	if p.tok.kind == tokLBrace && (graphCandidate || anonymous && len(p.pending) == 0) {
		return p.parseGraphBlock(subject)
	}
	if err := p.parseTriples(subject, anonymous); err != nil {
		return err
	}

	// N-Quads: a fourth term names the graph of the statement.
	if kind := p.tok.kind; kind == tokIRIRef || kind == tokPName || kind == tokBlankNode {
		graph, err := p.parseGraphLabel()
		if err != nil {
			return err
		}
		for i := range p.pending {
			p.pending[i].G = graph
		}
	}

	if err := p.expect(tokDot); err != nil {
		return err
	}
	return p.flush()
}

func (p *turtleParser) parsePrefixDirective(turtleStyle bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokPName || !strings.HasSuffix(p.tok.lexeme, ":") || strings.Count(p.tok.lexeme, ":") != 1 {
		return p.errorf("expected prefix name, found %q", p.tok.lexeme)
	}
	name := strings.TrimSuffix(p.tok.lexeme, ":")
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRIRef {
		return p.errorf("expected namespace IRI, found %q", p.tok.lexeme)
	}
	namespace := resolveIRI(p.base, p.tok.lexeme)
	if err := p.advance(); err != nil {
		return err
	}
	if turtleStyle {
		if err := p.expect(tokDot); err != nil {
			return err
		}
	}

	p.prefixes[name] = namespace
	return p.out.PushPrefix(name, IRI{Value: namespace})
}

func (p *turtleParser) parseBaseDirective(turtleStyle bool) error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRIRef {
		return p.errorf("expected base IRI, found %q", p.tok.lexeme)
	}
	p.base = resolveIRI(p.base, p.tok.lexeme)
	if err := p.advance(); err != nil {
		return err
	}
	if turtleStyle {
		return p.expect(tokDot)
	}
	return nil
}

func (p *turtleParser) parseGraphLabel() (Term, error) {
	switch p.tok.kind {
	case tokIRIRef, tokPName:
		return p.parseIRI()
	case tokBlankNode:
		node := p.blanks.labeled(p.tok.lexeme)
		return node, p.advance()
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return p.blanks.next(), nil
	}
	return nil, p.unexpected()
}

func (p *turtleParser) parseGraphBlock(graph Term) error {
	if err := p.expect(tokLBrace); err != nil {
		return err
	}
	if err := p.flush(); err != nil {
		return err
	}
	p.graph = graph
	defer func() { p.graph = nil }()

	for p.tok.kind != tokRBrace {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		anonymous := p.tok.kind == tokLBracket
		subject, err := p.parseSubject()
		if err != nil {
			return err
		}
		if err := p.parseTriples(subject, anonymous); err != nil {
			return err
		}
		if err := p.flush(); err != nil {
			return err
		}
		if p.tok.kind == tokDot {
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}
		if p.tok.kind != tokRBrace {
			return p.unexpected()
		}
	}
	return p.advance()
}

// parseTriples parses the predicate-object list of subject. A bracketed
// subject with properties may stand alone.
func (p *turtleParser) parseTriples(subject Term, anonymous bool) error {
	if anonymous && (p.tok.kind == tokDot || p.tok.kind == tokRBrace) {
		return nil
	}
	return p.parsePredicateObjectList(subject)
}

func (p *turtleParser) parsePredicateObjectList(subject Term) error {
	for {
		predicate, err := p.parsePredicate()
		if err != nil {
			return err
		}
		for {
			object, err := p.parseObject()
			if err != nil {
				return err
			}
			p.emit(subject, predicate, object)
			if p.tok.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return err
			}
		}

		if p.tok.kind != tokSemicolon {
			return nil
		}
		for p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return err
			}
		}
		switch p.tok.kind {
		case tokDot, tokRBracket, tokRBrace, tokEOF:
			return nil
		}
	}
}

func (p *turtleParser) parsePredicate() (IRI, error) {
	if p.tok.kind == tokA {
		return rdfType, p.advance()
	}
	return p.parseIRI()
}

func (p *turtleParser) parseIRI() (IRI, error) {
	switch p.tok.kind {
	case tokIRIRef:
		iri := IRI{Value: resolveIRI(p.base, p.tok.lexeme)}
		return iri, p.advance()
	case tokPName:
		prefix, local, _ := strings.Cut(p.tok.lexeme, ":")
		namespace, ok := p.prefixes[prefix]
		if !ok {
			return IRI{}, p.errorf("undefined prefix %q", prefix+":")
		}
		return IRI{Value: namespace + local}, p.advance()
	}
	return IRI{}, p.unexpected()
}

func (p *turtleParser) parseSubject() (Term, error) {
	switch p.tok.kind {
	case tokIRIRef, tokPName:
		return p.parseIRI()
	case tokBlankNode:
		node := p.blanks.labeled(p.tok.lexeme)
		return node, p.advance()
	case tokLBracket:
		return p.parseBlankNodePropertyList()
	case tokLParen:
		return p.parseCollection()
	case tokLDoubleAngle:
		return p.parseQuotedTriple()
	}
	return nil, p.unexpected()
}

func (p *turtleParser) parseObject() (Term, error) {
	switch p.tok.kind {
	case tokString:
		return p.parseLiteral()
	case tokInteger:
		return p.typedLiteral(xsdInteger)
	case tokDecimal:
		return p.typedLiteral(xsdDecimal)
	case tokDouble:
		return p.typedLiteral(xsdDouble)
	case tokBoolean:
		return p.typedLiteral(xsdBoolean)
	}
	return p.parseSubject()
}

func (p *turtleParser) typedLiteral(datatype IRI) (Term, error) {
	literal := Literal{Lexical: p.tok.lexeme, Datatype: datatype}
	return literal, p.advance()
}

func (p *turtleParser) parseLiteral() (Term, error) {
	literal := Literal{Lexical: p.tok.lexeme}
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.tok.kind {
	case tokLangTag:
		literal.Lang = p.tok.lexeme
		return literal, p.advance()
	case tokDatatypeMarker:
		if err := p.advance(); err != nil {
			return nil, err
		}
		datatype, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		if datatype != xsdString {
			literal.Datatype = datatype
		}
	}
	return literal, nil
}

func (p *turtleParser) parseBlankNodePropertyList() (Term, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	node := p.blanks.next()
	if p.tok.kind != tokRBracket {
		if err := p.parsePredicateObjectList(node); err != nil {
			return nil, err
		}
	}
	return node, p.expect(tokRBracket)
}

func (p *turtleParser) parseCollection() (Term, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var items []Term
	for p.tok.kind != tokRParen {
		item, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return rdfNil, nil
	}

	nodes := make([]BlankNode, len(items))
	for i := range items {
		nodes[i] = p.blanks.next()
	}
	for i, item := range items {
		p.emit(nodes[i], rdfFirst, item)
		if i+1 < len(nodes) {
			p.emit(nodes[i], rdfRest, nodes[i+1])
		} else {
			p.emit(nodes[i], rdfRest, rdfNil)
		}
	}
	return nodes[0], nil
}

func (p *turtleParser) parseQuotedTriple() (Term, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var subject Term
	var err error
	switch p.tok.kind {
	case tokIRIRef, tokPName, tokBlankNode, tokLDoubleAngle:
		subject, err = p.parseSubject()
	default:
		err = p.unexpected()
	}
	if err != nil {
		return nil, err
	}
	predicate, err := p.parsePredicate()
	if err != nil {
		return nil, err
	}
	var object Term
	switch p.tok.kind {
	case tokLBracket, tokLParen:
		return nil, p.unexpected()
	default:
		object, err = p.parseObject()
	}
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRDoubleAngle); err != nil {
		return nil, err
	}
	return TripleTerm{S: subject, P: predicate, O: object}, nil
}

// n3Parser parses every member of the Turtle family. It accepts the union of
// the grammars regardless of the media type it was registered for.
type n3Parser struct {
	opts Options
}

func newN3Parser(opts ...Option) (Parser, error) {
	return &n3Parser{opts: newOptions(opts...)}, nil
}

func (n *n3Parser) Import(r io.Reader, opts ...Option) *Stream[Quad] {
	o := n.opts.with(opts)
	return importStream(func(out *Stream[Quad]) error {
		return newTurtleParser(r, o, out).parse()
	})
}
