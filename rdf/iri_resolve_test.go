package rdf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIRI(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{base: "", rel: "relative", want: "relative"},
		{base: "http://example.org/a/b", rel: "http://other.org/x", want: "http://other.org/x"},
		{base: "http://example.org/a/b", rel: "c", want: "http://example.org/a/c"},
		{base: "http://example.org/a/b", rel: "../c", want: "http://example.org/c"},
		{base: "http://example.org/a/b", rel: "/c", want: "http://example.org/c"},
		{base: "http://example.org/a/b", rel: "#frag", want: "http://example.org/a/b#frag"},
		{base: "http://example.org/a/b#old", rel: "#", want: "http://example.org/a/b#"},
		{base: "http://example.org/a/b?q#old", rel: "#", want: "http://example.org/a/b?q#"},
		{base: "http://example.org/a/b?q#old", rel: "#new", want: "http://example.org/a/b?q#new"},
		{base: "http://example.org/a/", rel: "?q=1", want: "http://example.org/a/?q=1"},
		{base: "urn:x", rel: "urn:y:z", want: "urn:y:z"},
	}

	for _, tt := range tests {
		t.Run(tt.base+" "+tt.rel, func(t *testing.T) {
			require.Equal(t, tt.want, resolveIRI(tt.base, tt.rel))
		})
	}
}

func TestIsAbsoluteIRI(t *testing.T) {
	require.True(t, isAbsoluteIRI("http://example.org/"))
	require.True(t, isAbsoluteIRI("urn:isbn:123"))
	require.True(t, isAbsoluteIRI("git+ssh://host"))
	require.False(t, isAbsoluteIRI("relative/path"))
	require.False(t, isAbsoluteIRI(":nocheme"))
	require.False(t, isAbsoluteIRI("1http://x"))
	require.False(t, isAbsoluteIRI(""))
}

func TestJoinIRI(t *testing.T) {
	require.Equal(t, "http://example.org/doc#x", joinIRI("http://example.org/doc#y", "#x"))
	require.Equal(t, "http://example.org/a/c", joinIRI("http://example.org/a/b", "c"))
	require.Equal(t, "http://example.org/a/c", joinIRI("http://example.org/a/", "c"))
	require.Equal(t, "base/c", joinIRI("base", "c"))
}

func TestBlankNodeGenerator(t *testing.T) {
	blanks := newBlankNodeGenerator("p_")

	require.Equal(t, BlankNode{ID: "p_genid1"}, blanks.next())
	require.Equal(t, BlankNode{ID: "p_genid2"}, blanks.next())
	require.Equal(t, BlankNode{ID: "p_label"}, blanks.labeled("label"))
}
