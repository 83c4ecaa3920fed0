package rdf

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, input string, opts ...Option) ([]Quad, error) {
	t.Helper()
	out := NewStream[Quad]()
	result := make(chan error, 1)
	go func() {
		defer out.End()
		result <- decodeNQuads(context.Background(), strings.NewReader(input), "nquads", newOptions(opts...), out)
	}()
	quads, err := Collect(context.Background(), out)
	require.NoError(t, err)
	return quads, <-result
}

func TestNQuadsDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  []Quad
	}{
		{
			name:  "triple",
			input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n",
			want:  []Quad{NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), iri("http://example.org/o"))},
		},
		{
			name:  "blank nodes and language literal",
			input: "_:b1 <http://example.org/p> \"v\"@en .\n",
			want:  []Quad{NewQuad(BlankNode{ID: "b1"}, iri("http://example.org/p"), Literal{Lexical: "v", Lang: "en"})},
		},
		{
			name:  "scoped blank nodes",
			input: "_:b1 <http://example.org/p> _:b2 .\n",
			opts:  []Option{OptBlankNodePrefix("x_")},
			want:  []Quad{NewQuad(BlankNode{ID: "x_b1"}, iri("http://example.org/p"), BlankNode{ID: "x_b2"})},
		},
		{
			name:  "typed literal drops xsd:string",
			input: "<http://example.org/s> <http://example.org/p> \"1\"^^<http://example.org/dt> .\n<http://example.org/s> <http://example.org/p> \"2\"^^<http://www.w3.org/2001/XMLSchema#string> .\n",
			want: []Quad{
				NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), Literal{Lexical: "1", Datatype: iri("http://example.org/dt")}),
				NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), Literal{Lexical: "2"}),
			},
		},
		{
			name:  "escapes",
			input: "<http://example.org/s\\u0031> <http://example.org/p> \"a\\\"b\\n\\u00e9\" .\n",
			want:  []Quad{NewQuad(iri("http://example.org/s1"), iri("http://example.org/p"), Literal{Lexical: "a\"b\né"})},
		},
		{
			name:  "graph term comments and blank lines",
			input: "# header\n\n<http://example.org/s> <http://example.org/p> \"o\" <http://example.org/g> . # note\n",
			want:  []Quad{NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), Literal{Lexical: "o"}, iri("http://example.org/g"))},
		},
		{
			name:  "quoted triple",
			input: "<< <http://example.org/s> <http://example.org/p> <http://example.org/o> >> <http://example.org/q> \"v\" .\n",
			want: []Quad{NewQuad(
				TripleTerm{S: iri("http://example.org/s"), P: iri("http://example.org/p"), O: iri("http://example.org/o")},
				iri("http://example.org/q"),
				Literal{Lexical: "v"},
			)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := decodeAll(t, tt.input, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, tt.want, quads)
		})
	}
}

func TestNQuadsDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{name: "missing object", input: "<http://example.org/s> <http://example.org/p> .\n", want: "on line 1"},
		{name: "missing dot", input: "<http://example.org/s> <http://example.org/p> <http://example.org/o>\n", want: "expected '.'"},
		{name: "literal subject", input: "\"s\" <http://example.org/p> <http://example.org/o> .\n", want: "literal not allowed here"},
		{name: "trailing garbage", input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> . x\n", want: "after statement"},
		{name: "second line", input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\nfoo\n", want: `unexpected "foo" on line 2`},
		{
			name:  "line too long",
			input: "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n",
			opts:  []Option{OptMaxLineBytes(16)},
			want:  ErrLineTooLong.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAll(t, tt.input, tt.opts...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNQuadsDecodeLineLimitCode(t *testing.T) {
	_, err := decodeAll(t, strings.Repeat("x", 64)+"\n", OptMaxLineBytes(16))

	require.ErrorIs(t, err, ErrLineTooLong)
	require.Equal(t, ErrCodeLineTooLong, Code(err))
}

func TestNTriplesSerializerRoundTrip(t *testing.T) {
	quads := []Quad{
		NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), Literal{Lexical: "line\nbreak \"quoted\" \\ tab\t"}),
		NewQuad(BlankNode{ID: "b1"}, iri("http://example.org/p"), Literal{Lexical: "chat", Lang: "fr"}, iri("http://example.org/g")),
		NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), Literal{Lexical: "5", Datatype: xsdInteger}),
		NewQuad(
			TripleTerm{S: iri("http://example.org/s"), P: iri("http://example.org/p"), O: Literal{Lexical: "o"}},
			iri("http://example.org/q"),
			iri("http://example.org/o"),
		),
	}

	serializer, err := newNTriplesSerializer()
	require.NoError(t, err)
	r := NewStreamReader(context.Background(), serializer.Import(StreamOf(quads...)))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, 4, strings.Count(string(out), "\n"))

	decoded, err := decodeAll(t, string(out))
	require.NoError(t, err)
	require.Equal(t, quads, decoded)
}

func TestNTriplesSerializerForwardsErrors(t *testing.T) {
	boom := errors.New("parser failed")
	in := NewStream[Quad]()
	go func() {
		defer in.End()
		_ = in.Push(NewQuad(iri("http://example.org/s"), iri("http://example.org/p"), iri("http://example.org/o")))
		_ = in.Fail(boom)
	}()

	serializer, err := newNTriplesSerializer()
	require.NoError(t, err)
	chunks, err := Collect(context.Background(), serializer.Import(in))

	require.Equal(t, boom, err)
	require.Len(t, chunks, 1)
}

func TestNTriplesSerializerRejectsIncompleteQuads(t *testing.T) {
	serializer, err := newNTriplesSerializer()
	require.NoError(t, err)

	_, err = Collect(context.Background(), serializer.Import(StreamOf(Quad{P: iri("http://example.org/p")})))

	require.Error(t, err)
	require.Contains(t, err.Error(), "missing statement fields")
}
