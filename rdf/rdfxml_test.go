package rdf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const rdfxmlHeader = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="http://example.org/">
`

func parseRDFXML(t *testing.T, body string, opts ...Option) ([]Quad, error) {
	t.Helper()
	parser, err := newRDFXMLParser(opts...)
	require.NoError(t, err)
	return Collect(context.Background(), parser.Import(strings.NewReader(rdfxmlHeader+body+"\n</rdf:RDF>")))
}

func TestRDFXMLParse(t *testing.T) {
	const ex = "http://example.org/"

	tests := []struct {
		name string
		body string
		opts []Option
		want []Quad
	}{
		{
			name: "typed node with resource and literal properties",
			body: `<ex:Person rdf:about="http://example.org/alice">
  <ex:knows rdf:resource="http://example.org/bob"/>
  <ex:name>Alice</ex:name>
</ex:Person>`,
			want: []Quad{
				NewQuad(iri(ex+"alice"), rdfType, iri(ex+"Person")),
				NewQuad(iri(ex+"alice"), iri(ex+"knows"), iri(ex+"bob")),
				NewQuad(iri(ex+"alice"), iri(ex+"name"), Literal{Lexical: "Alice"}),
			},
		},
		{
			name: "property attributes and language",
			body: `<rdf:Description rdf:about="http://example.org/s" ex:title="Titre" xml:lang="FR">
  <ex:label>Bonjour</ex:label>
  <ex:label xml:lang="en">Hello</ex:label>
</rdf:Description>`,
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"title"), Literal{Lexical: "Titre", Lang: "fr"}),
				NewQuad(iri(ex+"s"), iri(ex+"label"), Literal{Lexical: "Bonjour", Lang: "fr"}),
				NewQuad(iri(ex+"s"), iri(ex+"label"), Literal{Lexical: "Hello", Lang: "en"}),
			},
		},
		{
			name: "datatype",
			body: `<rdf:Description rdf:about="http://example.org/s">
  <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">42</ex:age>
  <ex:note rdf:datatype="http://www.w3.org/2001/XMLSchema#string">plain</ex:note>
</rdf:Description>`,
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"age"), Literal{Lexical: "42", Datatype: xsdInteger}),
				NewQuad(iri(ex+"s"), iri(ex+"note"), Literal{Lexical: "plain"}),
			},
		},
		{
			name: "base and rdf:ID",
			body: `<rdf:Description rdf:ID="s" xml:base="http://example.org/doc">
  <ex:p rdf:resource="other"/>
</rdf:Description>`,
			want: []Quad{NewQuad(iri(ex+"doc#s"), iri(ex+"p"), iri(ex+"other"))},
		},
		{
			name: "node ids and nested node element",
			body: `<rdf:Description rdf:nodeID="a">
  <ex:p rdf:nodeID="b"/>
  <ex:q>
    <ex:Thing rdf:about="http://example.org/t"/>
  </ex:q>
</rdf:Description>`,
			opts: []Option{OptBlankNodePrefix("x_")},
			want: []Quad{
				NewQuad(BlankNode{ID: "x_a"}, iri(ex+"p"), BlankNode{ID: "x_b"}),
				NewQuad(iri(ex+"t"), rdfType, iri(ex+"Thing")),
				NewQuad(BlankNode{ID: "x_a"}, iri(ex+"q"), iri(ex+"t")),
			},
		},
		{
			name: "parseType Resource",
			body: `<rdf:Description rdf:about="http://example.org/s">
  <ex:address rdf:parseType="Resource">
    <ex:city>Paris</ex:city>
  </ex:address>
</rdf:Description>`,
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"address"), BlankNode{ID: "genid1"}),
				NewQuad(BlankNode{ID: "genid1"}, iri(ex+"city"), Literal{Lexical: "Paris"}),
			},
		},
		{
			name: "parseType Collection",
			body: `<rdf:Description rdf:about="http://example.org/s">
  <ex:members rdf:parseType="Collection">
    <rdf:Description rdf:about="http://example.org/a"/>
    <rdf:Description rdf:about="http://example.org/b"/>
  </ex:members>
</rdf:Description>`,
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"members"), BlankNode{ID: "genid1"}),
				NewQuad(BlankNode{ID: "genid1"}, rdfFirst, iri(ex+"a")),
				NewQuad(BlankNode{ID: "genid1"}, rdfRest, BlankNode{ID: "genid2"}),
				NewQuad(BlankNode{ID: "genid2"}, rdfFirst, iri(ex+"b")),
				NewQuad(BlankNode{ID: "genid2"}, rdfRest, rdfNil),
			},
		},
		{
			name: "container membership",
			body: `<rdf:Seq rdf:about="http://example.org/list">
  <rdf:li>one</rdf:li>
  <rdf:li>two</rdf:li>
</rdf:Seq>`,
			want: []Quad{
				NewQuad(iri(ex+"list"), rdfType, iri(rdfNS+"Seq")),
				NewQuad(iri(ex+"list"), iri(rdfNS+"_1"), Literal{Lexical: "one"}),
				NewQuad(iri(ex+"list"), iri(rdfNS+"_2"), Literal{Lexical: "two"}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := parseRDFXML(t, tt.body, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, tt.want, quads)
		})
	}
}

func TestRDFXMLParseTypeLiteral(t *testing.T) {
	quads, err := parseRDFXML(t, `<rdf:Description rdf:about="http://example.org/s">
  <ex:body rdf:parseType="Literal"><b>bold</b> text</ex:body>
</rdf:Description>`)

	require.NoError(t, err)
	require.Len(t, quads, 1)
	literal, ok := quads[0].O.(Literal)
	require.True(t, ok)
	require.Equal(t, rdfXMLLiteral, literal.Datatype)
	require.Contains(t, literal.Lexical, "bold")
	require.Contains(t, literal.Lexical, " text")
}

func TestRDFXMLPrefixEvents(t *testing.T) {
	parser, err := newRDFXMLParser()
	require.NoError(t, err)
	stream := parser.Import(strings.NewReader(rdfxmlHeader + "</rdf:RDF>"))

	var prefixes []string
	for {
		ev, err := stream.Next(context.Background())
		if err != nil {
			break
		}
		require.NotEqual(t, EventError, ev.Kind)
		if ev.Kind == EventPrefix {
			prefixes = append(prefixes, ev.Prefix.Name+"="+ev.Prefix.Namespace.Value)
		}
	}
	require.Equal(t, []string{"rdf=" + rdfNS, "ex=http://example.org/"}, prefixes)
}

func TestRDFXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unclosed element", body: `<rdf:Description rdf:about="http://example.org/s">`, want: "rdfxml:"},
		{name: "stray text", body: `hello`, want: `unexpected text "hello"`},
		{
			name: "resource and text",
			body: `<rdf:Description rdf:about="http://example.org/s"><ex:p rdf:resource="http://example.org/o">text</ex:p></rdf:Description>`,
			want: "both a resource and text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRDFXML(t, tt.body)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
			require.Equal(t, ErrCodeParseError, Code(err))
		})
	}
}

func TestRDFXMLMaxTriples(t *testing.T) {
	_, err := parseRDFXML(t, `<rdf:Description rdf:about="http://example.org/s" ex:a="1" ex:b="2"/>`, OptMaxTriples(1))

	require.ErrorIs(t, err, ErrTripleLimitExceeded)
}
