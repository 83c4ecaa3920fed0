package rdf

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	ld "github.com/piprate/json-gold/ld"
	"github.com/pquerna/cachecontrol"
)

const jsonldAccept = "application/ld+json, application/json;q=0.9, */*;q=0.1"

type cachedDocument struct {
	doc     *ld.RemoteDocument
	expires time.Time
}

// cachingDocumentLoader fetches remote JSON-LD contexts over HTTP and keeps
// each response for as long as its caching headers allow.
type cachingDocumentLoader struct {
	client *http.Client
	logger log.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cachedDocument
}

var _ ld.DocumentLoader = (*cachingDocumentLoader)(nil)

func newCachingDocumentLoader(client *http.Client, logger log.Logger) *cachingDocumentLoader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &cachingDocumentLoader{
		client:  client,
		logger:  log.With(logger, "component", "document_loader"),
		now:     time.Now,
		entries: map[string]cachedDocument{},
	}
}

// LoadDocument implements ld.DocumentLoader.
func (l *cachingDocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if doc, ok := l.cached(u); ok {
		level.Debug(l.logger).Log("event", "document_cache_hit", "url", u)
		return doc, nil
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "loading document %s", u)
	}
	req.Header.Set("Accept", jsonldAccept)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "loading document %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("loading document %s: %s", u, resp.Status)
	}

	doc, err := ld.DocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding document %s", u)
	}
	remote := &ld.RemoteDocument{DocumentURL: resp.Request.URL.String(), Document: doc}

	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{PrivateCache: true})
	switch {
	case err != nil:
		level.Warn(l.logger).Log("event", "document_cache_headers_invalid", "url", u, "error", err)
	case len(reasons) > 0:
		level.Debug(l.logger).Log("event", "document_not_cacheable", "url", u, "reasons", len(reasons))
	case expires.After(l.now()):
		l.mu.Lock()
		l.entries[u] = cachedDocument{doc: remote, expires: expires}
		l.mu.Unlock()
		level.Debug(l.logger).Log("event", "document_cached", "url", u, "expires", expires)
	}

	return remote, nil
}

func (l *cachingDocumentLoader) cached(u string) (*ld.RemoteDocument, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[u]
	if !ok {
		return nil, false
	}
	if !l.now().Before(entry.expires) {
		delete(l.entries, u)
		return nil, false
	}
	return entry.doc, true
}
