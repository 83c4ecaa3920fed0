package rdf

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	rdfxmlFormat = "rdfxml"
	xmlNS        = "http://www.w3.org/XML/1998/namespace"
	xmlnsPrefix  = "xmlns"
)

var rdfXMLLiteral = IRI{Value: rdfNS + "XMLLiteral"}

// xmlScope carries the inherited xml:base and xml:lang of an element.
type xmlScope struct {
	base string
	lang string
}

// rdfxmlParser walks an RDF/XML document with encoding/xml and pushes
// statements as soon as they are complete.
type rdfxmlParser struct {
	dec    *xml.Decoder
	ctx    context.Context
	out    *Stream[Quad]
	opts   Options
	blanks *blankNodeGenerator
	count  int64
}

func newRDFXMLDocumentParser(r io.Reader, opts Options, out *Stream[Quad]) *rdfxmlParser {
	return &rdfxmlParser{
		dec:    xml.NewDecoder(r),
		ctx:    opts.Context,
		out:    out,
		opts:   opts,
		blanks: newBlankNodeGenerator(opts.BlankNodePrefix),
	}
}

func (p *rdfxmlParser) parse() error {
	root := xmlScope{base: p.opts.BaseIRI}
	for {
		tok, err := p.token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if err := p.pushPrefixes(el); err != nil {
			return err
		}
		if isRDF(el.Name, "RDF") {
			if err := p.parseNodeElements(p.scope(root, el)); err != nil {
				return err
			}
			continue
		}
		if _, err := p.parseNodeElement(el, root); err != nil {
			return err
		}
	}
}

func (p *rdfxmlParser) token() (xml.Token, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, p.wrap(err)
	}
	return tok, nil
}

// innerToken is token for positions where the document may not end.
func (p *rdfxmlParser) innerToken() (xml.Token, error) {
	tok, err := p.token()
	if err == io.EOF {
		return nil, p.wrap(io.ErrUnexpectedEOF)
	}
	return tok, err
}

func (p *rdfxmlParser) wrap(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return newParseError(rdfxmlFormat, syntaxErr.Line, 0, errors.New(syntaxErr.Msg))
	}
	line, column := p.dec.InputPos()
	return newParseError(rdfxmlFormat, line, column, err)
}

func (p *rdfxmlParser) errorf(format string, args ...interface{}) error {
	return p.wrap(errors.Errorf(format, args...))
}

func (p *rdfxmlParser) emit(s Term, pred IRI, o Term) error {
	p.count++
	if p.opts.MaxTriples > 0 && p.count > p.opts.MaxTriples {
		return ErrTripleLimitExceeded
	}
	return p.out.Push(Quad{S: s, P: pred, O: o})
}

func (p *rdfxmlParser) pushPrefixes(el xml.StartElement) error {
	for _, attr := range el.Attr {
		if attr.Name.Space == xmlnsPrefix {
			if err := p.out.PushPrefix(attr.Name.Local, IRI{Value: attr.Value}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *rdfxmlParser) scope(parent xmlScope, el xml.StartElement) xmlScope {
	scope := parent
	for _, attr := range el.Attr {
		if attr.Name.Space != xmlNS {
			continue
		}
		switch attr.Name.Local {
		case "base":
			base := resolveIRI(parent.base, attr.Value)
			if i := strings.IndexByte(base, '#'); i >= 0 {
				base = base[:i]
			}
			scope.base = base
		case "lang":
			scope.lang = strings.ToLower(attr.Value)
		}
	}
	return scope
}

func (p *rdfxmlParser) parseNodeElements(scope xmlScope) error {
	for {
		tok, err := p.innerToken()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.pushPrefixes(t); err != nil {
				return err
			}
			if _, err := p.parseNodeElement(t, scope); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text %q", strings.TrimSpace(string(t)))
			}
		}
	}
}

// parseNodeElement consumes a node element and returns its subject.
func (p *rdfxmlParser) parseNodeElement(el xml.StartElement, parent xmlScope) (Term, error) {
	scope := p.scope(parent, el)
	subject := p.subject(el, scope)

	if !isRDF(el.Name, "Description") {
		if err := p.emit(subject, rdfType, IRI{Value: el.Name.Space + el.Name.Local}); err != nil {
			return nil, err
		}
	}
	if err := p.propertyAttributes(subject, el, scope); err != nil {
		return nil, err
	}
	return subject, p.parsePropertyElements(subject, scope)
}

func (p *rdfxmlParser) subject(el xml.StartElement, scope xmlScope) Term {
	if about, ok := attrValue(el.Attr, rdfNS, "about"); ok {
		return IRI{Value: resolveIRI(scope.base, about)}
	}
	if id, ok := attrValue(el.Attr, rdfNS, "ID"); ok {
		return IRI{Value: resolveIRI(scope.base, "#"+id)}
	}
	if nodeID, ok := attrValue(el.Attr, rdfNS, "nodeID"); ok {
		return p.blanks.labeled(nodeID)
	}
	return p.blanks.next()
}

// propertyAttributes emits one statement per property attribute of el.
func (p *rdfxmlParser) propertyAttributes(subject Term, el xml.StartElement, scope xmlScope) error {
	for _, attr := range el.Attr {
		if isSyntaxAttr(attr.Name) {
			continue
		}
		if isRDF(attr.Name, "type") {
			if err := p.emit(subject, rdfType, IRI{Value: resolveIRI(scope.base, attr.Value)}); err != nil {
				return err
			}
			continue
		}
		object := Literal{Lexical: attr.Value, Lang: scope.lang}
		if err := p.emit(subject, IRI{Value: attr.Name.Space + attr.Name.Local}, object); err != nil {
			return err
		}
	}
	return nil
}

func (p *rdfxmlParser) parsePropertyElements(subject Term, scope xmlScope) error {
	li := 0
	for {
		tok, err := p.innerToken()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.pushPrefixes(t); err != nil {
				return err
			}
			if err := p.parsePropertyElement(t, subject, scope, &li); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text %q", strings.TrimSpace(string(t)))
			}
		}
	}
}

func (p *rdfxmlParser) parsePropertyElement(el xml.StartElement, subject Term, parent xmlScope, li *int) error {
	scope := p.scope(parent, el)
	predicate := IRI{Value: el.Name.Space + el.Name.Local}
	if isRDF(el.Name, "li") {
		*li++
		predicate = IRI{Value: fmt.Sprintf("%s_%d", rdfNS, *li)}
	}

	parseType, _ := attrValue(el.Attr, rdfNS, "parseType")
	switch parseType {
	case "":
	case "Resource":
		node := p.blanks.next()
		if err := p.emit(subject, predicate, node); err != nil {
			return err
		}
		return p.parsePropertyElements(node, scope)
	case "Collection":
		return p.parseCollection(subject, predicate, scope)
	default:
		lexical, err := p.innerXML()
		if err != nil {
			return err
		}
		return p.emit(subject, predicate, Literal{Lexical: lexical, Datatype: rdfXMLLiteral})
	}

	var object Term
	if resource, ok := attrValue(el.Attr, rdfNS, "resource"); ok {
		object = IRI{Value: resolveIRI(scope.base, resource)}
	} else if nodeID, ok := attrValue(el.Attr, rdfNS, "nodeID"); ok {
		object = p.blanks.labeled(nodeID)
	}
	datatype, hasDatatype := attrValue(el.Attr, rdfNS, "datatype")

	var text strings.Builder
	nested := false
	for {
		tok, err := p.innerToken()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if nested || object != nil {
				return p.errorf("property element %s has more than one object", el.Name.Local)
			}
			if err := p.pushPrefixes(t); err != nil {
				return err
			}
			node, err := p.parseNodeElement(t, scope)
			if err != nil {
				return err
			}
			if err := p.emit(subject, predicate, node); err != nil {
				return err
			}
			nested = true
		case xml.EndElement:
			if nested {
				return nil
			}
			return p.closePropertyElement(el, subject, predicate, object, text.String(), datatype, hasDatatype, scope)
		}
	}
}

// closePropertyElement emits the statement of a property element without a
// nested node element.
func (p *rdfxmlParser) closePropertyElement(el xml.StartElement, subject Term, predicate IRI, object Term, text, datatype string, hasDatatype bool, scope xmlScope) error {
	hasPropertyAttrs := false
	for _, attr := range el.Attr {
		if !isSyntaxAttr(attr.Name) {
			hasPropertyAttrs = true
			break
		}
	}

	if object == nil && hasPropertyAttrs {
		object = p.blanks.next()
	}
	if object != nil {
		if strings.TrimSpace(text) != "" {
			return p.errorf("property element %s has both a resource and text", el.Name.Local)
		}
		if err := p.emit(subject, predicate, object); err != nil {
			return err
		}
		return p.propertyAttributes(object, el, scope)
	}

	literal := Literal{Lexical: text}
	if hasDatatype {
		literal.Datatype = IRI{Value: resolveIRI(scope.base, datatype)}
		if literal.Datatype == xsdString {
			literal.Datatype = IRI{}
		}
	} else {
		literal.Lang = scope.lang
	}
	return p.emit(subject, predicate, literal)
}

func (p *rdfxmlParser) parseCollection(subject Term, predicate IRI, scope xmlScope) error {
	var items []Term
	for {
		tok, err := p.innerToken()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.pushPrefixes(t); err != nil {
				return err
			}
			item, err := p.parseNodeElement(t, scope)
			if err != nil {
				return err
			}
			items = append(items, item)
			continue
		case xml.EndElement:
		default:
			continue
		}
		break
	}

	if len(items) == 0 {
		return p.emit(subject, predicate, rdfNil)
	}
	nodes := make([]BlankNode, len(items))
	for i := range items {
		nodes[i] = p.blanks.next()
	}
	if err := p.emit(subject, predicate, nodes[0]); err != nil {
		return err
	}
	for i, item := range items {
		if err := p.emit(nodes[i], rdfFirst, item); err != nil {
			return err
		}
		var rest Term = rdfNil
		if i+1 < len(nodes) {
			rest = nodes[i+1]
		}
		if err := p.emit(nodes[i], rdfRest, rest); err != nil {
			return err
		}
	}
	return nil
}

// innerXML re-encodes the content of the current element for
// rdf:parseType="Literal".
func (p *rdfxmlParser) innerXML() (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := p.innerToken()
		if err != nil {
			return "", err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				if err := enc.Flush(); err != nil {
					return "", err
				}
				return buf.String(), nil
			}
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return "", p.wrap(err)
		}
	}
}

func isRDF(name xml.Name, local string) bool {
	return name.Space == rdfNS && name.Local == local
}

// isSyntaxAttr reports whether an attribute is markup rather than a property.
func isSyntaxAttr(name xml.Name) bool {
	switch name.Space {
	case "", xmlnsPrefix, xmlNS:
		return true
	case rdfNS:
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType", "bagID", "aboutEach", "aboutEachPrefix":
			return true
		}
	}
	return false
}

func attrValue(attrs []xml.Attr, space, local string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Space == space && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

// rdfxmlSink parses RDF/XML documents.
type rdfxmlSink struct {
	opts Options
}

func newRDFXMLParser(opts ...Option) (Parser, error) {
	return &rdfxmlSink{opts: newOptions(opts...)}, nil
}

func (s *rdfxmlSink) Import(r io.Reader, opts ...Option) *Stream[Quad] {
	o := s.opts.with(opts)
	return importStream(func(out *Stream[Quad]) error {
		return newRDFXMLDocumentParser(r, o, out).parse()
	})
}
