package rdf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseTurtle(t *testing.T, input string, opts ...Option) ([]Quad, []Prefix, error) {
	t.Helper()
	parser, err := newN3Parser(opts...)
	require.NoError(t, err)

	stream := parser.Import(strings.NewReader(input))
	var quads []Quad
	var prefixes []Prefix
	for {
		ev, err := stream.Next(context.Background())
		if err != nil {
			return quads, prefixes, nil
		}
		switch ev.Kind {
		case EventItem:
			quads = append(quads, ev.Item)
		case EventPrefix:
			prefixes = append(prefixes, ev.Prefix)
		case EventError:
			stream.Destroy()
			return quads, prefixes, ev.Err
		}
	}
}

func iri(value string) IRI { return IRI{Value: value} }

func TestTurtleParse(t *testing.T) {
	const ex = "http://example.org/"

	tests := []struct {
		name  string
		input string
		opts  []Option
		want  []Quad
	}{
		{
			name:  "prefixed names and keyword a",
			input: "@prefix ex: <http://example.org/> .\nex:s a ex:C .",
			want:  []Quad{NewQuad(iri(ex+"s"), rdfType, iri(ex+"C"))},
		},
		{
			name:  "sparql style directives",
			input: "PREFIX ex: <http://example.org/>\nBASE <http://example.org/base/>\nex:s ex:p <o> .",
			want:  []Quad{NewQuad(iri(ex+"s"), iri(ex+"p"), iri(ex+"base/o"))},
		},
		{
			name:  "relative IRIs against the configured base",
			input: "<s> <p> <#o> .",
			opts:  []Option{OptBaseIRI("http://example.org/doc")},
			want:  []Quad{NewQuad(iri(ex+"s"), iri(ex+"p"), iri(ex+"doc#o"))},
		},
		{
			name:  "object and predicate lists",
			input: "@prefix ex: <http://example.org/> .\nex:s ex:p ex:a, ex:b ; ex:q ex:c ; .",
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"p"), iri(ex+"a")),
				NewQuad(iri(ex+"s"), iri(ex+"p"), iri(ex+"b")),
				NewQuad(iri(ex+"s"), iri(ex+"q"), iri(ex+"c")),
			},
		},
		{
			name:  "literals",
			input: "@prefix ex: <http://example.org/> .\nex:s ex:p \"a\\tb\", 'c'@EN-gb, \"\"\"multi\nline\"\"\", 42, -1.5, 1e3, true, \"x\"^^ex:dt, \"y\"^^<http://www.w3.org/2001/XMLSchema#string> .",
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "a\tb"}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "c", Lang: "en-gb"}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "multi\nline"}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "42", Datatype: xsdInteger}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "-1.5", Datatype: xsdDecimal}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "1e3", Datatype: xsdDouble}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "true", Datatype: xsdBoolean}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "x", Datatype: iri(ex + "dt")}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "y"}),
			},
		},
		{
			name:  "blank node property list",
			input: "@prefix ex: <http://example.org/> .\nex:s ex:p [ ex:q \"v\" ] .",
			want: []Quad{
				NewQuad(BlankNode{ID: "genid1"}, iri(ex+"q"), Literal{Lexical: "v"}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), BlankNode{ID: "genid1"}),
			},
		},
		{
			name:  "standalone blank node property list",
			input: "@prefix ex: <http://example.org/> .\n[ ex:q \"v\" ] .",
			want:  []Quad{NewQuad(BlankNode{ID: "genid1"}, iri(ex+"q"), Literal{Lexical: "v"})},
		},
		{
			name:  "collection",
			input: "@prefix ex: <http://example.org/> .\nex:s ex:p ( 1 ex:a ) .",
			want: []Quad{
				NewQuad(BlankNode{ID: "genid1"}, rdfFirst, Literal{Lexical: "1", Datatype: xsdInteger}),
				NewQuad(BlankNode{ID: "genid1"}, rdfRest, BlankNode{ID: "genid2"}),
				NewQuad(BlankNode{ID: "genid2"}, rdfFirst, iri(ex+"a")),
				NewQuad(BlankNode{ID: "genid2"}, rdfRest, rdfNil),
				NewQuad(iri(ex+"s"), iri(ex+"p"), BlankNode{ID: "genid1"}),
			},
		},
		{
			name:  "empty collection",
			input: "<http://example.org/s> <http://example.org/p> () .",
			want:  []Quad{NewQuad(iri(ex+"s"), iri(ex+"p"), rdfNil)},
		},
		{
			name:  "labelled blank nodes with prefix",
			input: "_:a <http://example.org/p> _:b .",
			opts:  []Option{OptBlankNodePrefix("doc1_")},
			want:  []Quad{NewQuad(BlankNode{ID: "doc1_a"}, iri(ex+"p"), BlankNode{ID: "doc1_b"})},
		},
		{
			name:  "quoted triple",
			input: "@prefix ex: <http://example.org/> .\n<< ex:s ex:p ex:o >> ex:q ex:r .",
			want: []Quad{NewQuad(
				TripleTerm{S: iri(ex + "s"), P: iri(ex + "p"), O: iri(ex + "o")},
				iri(ex+"q"),
				iri(ex+"r"),
			)},
		},
		{
			name:  "comments",
			input: "# leading\n<http://example.org/s> <http://example.org/p> <http://example.org/o> . # trailing\n",
			want:  []Quad{NewQuad(iri(ex+"s"), iri(ex+"p"), iri(ex+"o"))},
		},
		{
			name:  "trig default graph block and named graphs",
			input: "@prefix ex: <http://example.org/> .\n{ ex:a ex:p ex:b }\nex:g { ex:c ex:p ex:d . ex:e ex:p ex:f }\nGRAPH _:g { ex:h ex:p ex:i }",
			want: []Quad{
				NewQuad(iri(ex+"a"), iri(ex+"p"), iri(ex+"b")),
				NewQuad(iri(ex+"c"), iri(ex+"p"), iri(ex+"d"), iri(ex+"g")),
				NewQuad(iri(ex+"e"), iri(ex+"p"), iri(ex+"f"), iri(ex+"g")),
				NewQuad(iri(ex+"h"), iri(ex+"p"), iri(ex+"i"), BlankNode{ID: "g"}),
			},
		},
		{
			name:  "n-quads graph term",
			input: "<http://example.org/s> <http://example.org/p> \"o\" _:g .\n<http://example.org/s> <http://example.org/p> \"o\" .\n",
			want: []Quad{
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "o"}, BlankNode{ID: "g"}),
				NewQuad(iri(ex+"s"), iri(ex+"p"), Literal{Lexical: "o"}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, _, err := parseTurtle(t, tt.input, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, tt.want, quads)
		})
	}
}

func TestTurtlePrefixEvents(t *testing.T) {
	input := "@prefix ex: <http://example.org/> .\nPREFIX : <http://example.org/default#>\n:s ex:p :o ."

	quads, prefixes, err := parseTurtle(t, input)

	require.NoError(t, err)
	require.Len(t, quads, 1)
	require.Equal(t, []Prefix{
		{Name: "ex", Namespace: iri("http://example.org/")},
		{Name: "", Namespace: iri("http://example.org/default#")},
	}, prefixes)
}

func TestTurtleErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{name: "bare word", input: "foobar", want: `turtle: unexpected "foobar" on line 1, column 1`},
		{name: "undefined prefix", input: "ex:s ex:p ex:o .", want: `undefined prefix "ex:"`},
		{name: "missing dot", input: "<http://example.org/s> <http://example.org/p> <http://example.org/o>", want: "unexpected end of input"},
		{name: "unterminated string", input: "<http://example.org/s> <http://example.org/p> \"open", want: "unterminated string"},
		{name: "literal subject", input: "\"s\" <http://example.org/p> <http://example.org/o> .", want: `unexpected "s"`},
		{name: "graph inside graph", input: "{ <http://example.org/g> { } }", want: `unexpected "{"`},
		{name: "second line", input: "<http://example.org/s> <http://example.org/p> 1 .\n  ]", want: "on line 2, column 3"},
		{
			name:  "token over limit",
			input: "<http://example.org/s> <http://example.org/p> \"0123456789\" .",
			opts:  []Option{OptMaxLineBytes(8)},
			want:  ErrLineTooLong.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseTurtle(t, tt.input, tt.opts...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, turtleFormat, parseErr.Format)
		})
	}
}

func TestTurtleStopsWhenDestroyed(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteString("<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n")
	}
	parser, err := newN3Parser()
	require.NoError(t, err)

	stream := parser.Import(strings.NewReader(b.String()))
	_, err = stream.Next(context.Background())
	require.NoError(t, err)
	stream.Destroy()

	// the producer ends the stream once its next push fails
	for {
		if _, err := stream.Next(context.Background()); err != nil {
			break
		}
	}
}
