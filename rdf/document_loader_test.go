package rdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func contextServer(t *testing.T, cacheControl string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/context.jsonld" || !strings.Contains(r.Header.Get("Accept"), "application/ld+json") {
			http.NotFound(w, r)
			return
		}
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(remoteContext))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestCachingDocumentLoaderCachesByHeaders(t *testing.T) {
	tests := []struct {
		name         string
		cacheControl string
		wantHits     int32
	}{
		{name: "max-age", cacheControl: "max-age=300", wantHits: 1},
		{name: "no-store", cacheControl: "no-store", wantHits: 2},
		{name: "no headers", wantHits: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, hits := contextServer(t, tt.cacheControl)
			loader := newCachingDocumentLoader(server.Client(), nil)

			for i := 0; i < 2; i++ {
				doc, err := loader.LoadDocument(server.URL + "/context.jsonld")
				require.NoError(t, err)
				require.Contains(t, doc.Document, "@context")
			}
			require.Equal(t, tt.wantHits, atomic.LoadInt32(hits))
		})
	}
}

func TestCachingDocumentLoaderExpires(t *testing.T) {
	server, hits := contextServer(t, "max-age=60")
	loader := newCachingDocumentLoader(server.Client(), nil)
	u := server.URL + "/context.jsonld"

	_, err := loader.LoadDocument(u)
	require.NoError(t, err)

	loader.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = loader.LoadDocument(u)
	require.NoError(t, err)

	require.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestCachingDocumentLoaderErrors(t *testing.T) {
	server, _ := contextServer(t, "")
	loader := newCachingDocumentLoader(server.Client(), nil)

	_, err := loader.LoadDocument(server.URL + "/missing.jsonld")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")

	_, err = loader.LoadDocument("://not a url")
	require.Error(t, err)
}

func TestJSONLDParserFetchesRemoteContextOnce(t *testing.T) {
	server, hits := contextServer(t, "max-age=300")
	parser := JSONLDParser.New(OptHTTPClient(server.Client()))
	input := `{"@context": "` + server.URL + `/context.jsonld", "@id": "ex:Foo", "bar": "123"}`

	for i := 0; i < 2; i++ {
		quads, err := Collect(context.Background(), parser.Import(strings.NewReader(input)))
		require.NoError(t, err)
		require.Equal(t, []Quad{NewQuad(exFoo, exBar, Literal{Lexical: "123"})}, quads)
	}

	require.Equal(t, int32(1), atomic.LoadInt32(hits))
}
