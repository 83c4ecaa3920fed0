package rdf

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	ld "github.com/piprate/json-gold/ld"
)

// Media types of the default configuration.
const (
	MediaTypeJSONLD   = "application/ld+json"
	MediaTypeTriG     = "application/trig"
	MediaTypeNQuads   = "application/n-quads"
	MediaTypeNTriples = "application/n-triples"
	MediaTypeN3       = "text/n3"
	MediaTypeTurtle   = "text/turtle"
	MediaTypeRDFXML   = "application/rdf+xml"
)

// Descriptors of the bundled sinks. Each call to New returns an independent
// lazy sink; the work of bringing the sink up happens on its first use.
var (
	JSONLDParser = Lazy("jsonld-parser", loadJSONLD(func(loader ld.DocumentLoader, opts Options) Parser {
		return newJSONLDParser(loader, opts)
	}))
	N3Parser     = Lazy("n3-parser", Constructor(newN3Parser))
	RDFXMLParser = Lazy("rdfxml-parser", Constructor(newRDFXMLParser))

	NTriplesSerializer = Lazy("ntriples-serializer", Constructor(newNTriplesSerializer))
	JSONLDSerializer   = Lazy("jsonld-serializer", loadJSONLD(func(loader ld.DocumentLoader, opts Options) Serializer {
		return newJSONLDSerializer(loader, opts)
	}))
)

// Formats holds a parser and a serializer registry.
type Formats struct {
	Parsers     *ParserRegistry
	Serializers *SerializerRegistry
}

// NewFormats returns registries populated with the bundled sinks. opts are
// captured by every sink and applied when it is constructed. Media types of
// the same family share one sink instance.
func NewFormats(opts ...Option) *Formats {
	logger := newOptions(opts...).Logger

	parsers := NewRegistry[io.Reader, Quad]("parsers", logger)
	parsers.Set(MediaTypeJSONLD, JSONLDParser.New(opts...))
	n3 := N3Parser.New(opts...)
	for _, mediaType := range []string{MediaTypeTriG, MediaTypeNQuads, MediaTypeNTriples, MediaTypeN3, MediaTypeTurtle} {
		parsers.Set(mediaType, n3)
	}
	parsers.Set(MediaTypeRDFXML, RDFXMLParser.New(opts...))

	serializers := NewRegistry[*Stream[Quad], []byte]("serializers", logger)
	serializers.Set(MediaTypeJSONLD, JSONLDSerializer.New(opts...))
	ntriples := NTriplesSerializer.New(opts...)
	for _, mediaType := range []string{MediaTypeNQuads, MediaTypeNTriples, MediaTypeN3, MediaTypeTurtle} {
		serializers.Set(mediaType, ntriples)
	}

	return &Formats{Parsers: parsers, Serializers: serializers}
}

var extensionMediaTypes = map[string]string{
	".jsonld": MediaTypeJSONLD,
	".json":   MediaTypeJSONLD,
	".trig":   MediaTypeTriG,
	".nq":     MediaTypeNQuads,
	".nt":     MediaTypeNTriples,
	".n3":     MediaTypeN3,
	".ttl":    MediaTypeTurtle,
	".rdf":    MediaTypeRDFXML,
	".xml":    MediaTypeRDFXML,
}

// MediaTypeForPath infers a media type from a file extension. It reports
// false for unknown extensions.
func MediaTypeForPath(path string) (string, bool) {
	mediaType, ok := extensionMediaTypes[strings.ToLower(filepath.Ext(path))]
	return mediaType, ok
}

// ExtensionsFor returns the file extensions MediaTypeForPath maps to
// mediaType, in lexical order.
func ExtensionsFor(mediaType string) []string {
	var extensions []string
	for ext, candidate := range extensionMediaTypes {
		if candidate == mediaType {
			extensions = append(extensions, ext)
		}
	}
	sort.Strings(extensions)
	return extensions
}
