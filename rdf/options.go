package rdf

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	ld "github.com/piprate/json-gold/ld"
)

const (
	// DefaultMaxLineBytes bounds a single line of line-oriented input.
	DefaultMaxLineBytes = 1 << 20
)

// Option configures sink construction and import behavior.
//
// The same options are accepted by sink constructors (captured once by a lazy
// sink) and by Import (applied on top of the constructor options for one call).
type Option func(*Options)

// Options configures parsers and serializers.
type Options struct {
	// Context for cancellation of imports and lazy loads.
	Context context.Context

	// Logger receives sink lifecycle events. Defaults to a no-op logger.
	Logger log.Logger

	// BaseIRI resolves relative IRIs.
	BaseIRI string

	// Security limits for untrusted input
	MaxLineBytes int
	MaxTriples   int64

	// BlankNodePrefix is prepended to every blank node label a parser emits.
	BlankNodePrefix string

	// JSON-LD remote context handling
	DocumentLoader ld.DocumentLoader
	HTTPClient     *http.Client

	// JSONLDContext compacts serializer output when set.
	JSONLDContext interface{}
}

// OptContext sets the context for cancellation and timeouts.
func OptContext(ctx context.Context) Option {
	return func(opts *Options) {
		opts.Context = ctx
	}
}

// OptLogger sets the logger used by lazy sinks and the bundled sinks.
func OptLogger(logger log.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// OptBaseIRI sets the base IRI used to resolve relative IRIs.
func OptBaseIRI(base string) Option {
	return func(opts *Options) {
		opts.BaseIRI = base
	}
}

// OptMaxLineBytes sets the maximum line size limit. The Turtle family
// applies it to single tokens.
func OptMaxLineBytes(maxBytes int) Option {
	return func(opts *Options) {
		opts.MaxLineBytes = maxBytes
	}
}

// OptMaxTriples sets the maximum number of triples/quads a parser emits.
// Zero means unlimited.
func OptMaxTriples(maxTriples int64) Option {
	return func(opts *Options) {
		opts.MaxTriples = maxTriples
	}
}

// OptBlankNodePrefix scopes blank node labels, so that the output of several
// documents can be merged without label collisions.
func OptBlankNodePrefix(prefix string) Option {
	return func(opts *Options) {
		opts.BlankNodePrefix = prefix
	}
}

// OptDocumentLoader sets the loader used to resolve remote JSON-LD contexts.
// When unset, the JSON-LD sinks use a caching HTTP loader.
func OptDocumentLoader(loader ld.DocumentLoader) Option {
	return func(opts *Options) {
		opts.DocumentLoader = loader
	}
}

// OptHTTPClient sets the HTTP client of the default JSON-LD document loader.
func OptHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// OptJSONLDContext makes the JSON-LD serializer compact its output with the
// given context document.
func OptJSONLDContext(doc interface{}) Option {
	return func(opts *Options) {
		opts.JSONLDContext = doc
	}
}

// Internal helpers

func defaultOptions() Options {
	return Options{
		Context:      context.Background(),
		Logger:       log.NewNopLogger(),
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

func newOptions(opts ...Option) Options {
	return defaultOptions().with(opts)
}

// with returns a copy of o with opts applied. Nil values reset to defaults.
func (o Options) with(opts []Option) Options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	if o.MaxLineBytes == 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	return o
}
