package rdf

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	ld "github.com/piprate/json-gold/ld"
)

const (
	jsonldFormat = "jsonld"

	defaultHTTPTimeout = 30 * time.Second
)

// loadJSONLD returns the loader shared by the JSON-LD sinks. The constructor
// it resolves sets up remote context loading, unless the options bring their
// own document loader.
func loadJSONLD[In, Out any](build func(loader ld.DocumentLoader, opts Options) Sink[In, Out]) SinkLoader[In, Out] {
	return func(context.Context) (SinkConstructor[In, Out], error) {
		return func(opts ...Option) (Sink[In, Out], error) {
			o := newOptions(opts...)
			loader := o.DocumentLoader
			if loader == nil {
				client := o.HTTPClient
				if client == nil {
					client = &http.Client{Timeout: defaultHTTPTimeout}
				}
				loader = newCachingDocumentLoader(client, o.Logger)
			}
			level.Debug(o.Logger).Log("event", "jsonld_loader_ready", "loader", loaderName(loader))
			return build(loader, o), nil
		}, nil
	}
}

func loaderName(loader ld.DocumentLoader) string {
	if _, ok := loader.(*cachingDocumentLoader); ok {
		return "caching"
	}
	return "custom"
}

func jsonldOptions(o Options, loader ld.DocumentLoader) *ld.JsonLdOptions {
	goldOpts := ld.NewJsonLdOptions(o.BaseIRI)
	if o.DocumentLoader != nil {
		loader = o.DocumentLoader
	}
	goldOpts.DocumentLoader = loader
	return goldOpts
}

// jsonldParser converts JSON-LD documents to RDF with json-gold.
type jsonldParser struct {
	opts   Options
	loader ld.DocumentLoader
}

func newJSONLDParser(loader ld.DocumentLoader, opts Options) Parser {
	return &jsonldParser{opts: opts, loader: loader}
}

func (p *jsonldParser) Import(r io.Reader, opts ...Option) *Stream[Quad] {
	o := p.opts.with(opts)
	return importStream(func(out *Stream[Quad]) error {
		doc, err := ld.DocumentFromReader(r)
		if err != nil {
			return newParseError(jsonldFormat, 0, 0, err)
		}
		if err := o.Context.Err(); err != nil {
			return err
		}
		if err := pushContextPrefixes(doc, out); err != nil {
			return err
		}

		result, err := ld.NewJsonLdProcessor().ToRDF(doc, jsonldOptions(o, p.loader))
		if err != nil {
			return newParseError(jsonldFormat, 0, 0, err)
		}
		dataset, ok := result.(*ld.RDFDataset)
		if !ok {
			return errors.Errorf("jsonld: unexpected ToRDF result %T", result)
		}
		serialized, err := (&ld.NQuadRDFSerializer{}).Serialize(dataset)
		if err != nil {
			return err
		}
		nquads, ok := serialized.(string)
		if !ok {
			return errors.Errorf("jsonld: unexpected N-Quads result %T", serialized)
		}

		return decodeNQuads(o.Context, strings.NewReader(nquads), jsonldFormat, o, out)
	})
}

// pushContextPrefixes emits the string-valued terms of a top-level @context
// as prefixes, in lexical order.
func pushContextPrefixes(doc interface{}, out *Stream[Quad]) error {
	node, ok := doc.(map[string]interface{})
	if !ok {
		return nil
	}
	terms, ok := node["@context"].(map[string]interface{})
	if !ok {
		return nil
	}

	names := make([]string, 0, len(terms))
	for name, value := range terms {
		if _, ok := value.(string); ok && !strings.HasPrefix(name, "@") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := out.PushPrefix(name, IRI{Value: terms[name].(string)}); err != nil {
			return err
		}
	}
	return nil
}

// jsonldSerializer collects its input and writes it as a single JSON-LD
// document.
type jsonldSerializer struct {
	opts   Options
	loader ld.DocumentLoader
}

func newJSONLDSerializer(loader ld.DocumentLoader, opts Options) Serializer {
	return &jsonldSerializer{opts: opts, loader: loader}
}

func (s *jsonldSerializer) Import(in *Stream[Quad], opts ...Option) *Stream[[]byte] {
	o := s.opts.with(opts)
	return importStream(func(out *Stream[[]byte]) error {
		defer in.Destroy()

		var nquads strings.Builder
		for {
			ev, err := in.Next(o.Context)
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			switch ev.Kind {
			case EventError:
				return ev.Err
			case EventItem:
				line, err := renderLine(ev.Item)
				if err != nil {
					return err
				}
				nquads.WriteString(line)
			}
		}

		proc := ld.NewJsonLdProcessor()
		goldOpts := jsonldOptions(o, s.loader)
		goldOpts.Format = "application/n-quads"
		doc, err := proc.FromRDF(nquads.String(), goldOpts)
		if err != nil {
			return errors.Wrap(err, "jsonld: converting from RDF")
		}
		if o.JSONLDContext != nil {
			doc, err = proc.Compact(doc, o.JSONLDContext, goldOpts)
			if err != nil {
				return errors.Wrap(err, "jsonld: compacting")
			}
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return out.Push(data)
	})
}
