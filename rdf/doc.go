// Package rdf provides registries of lazily loaded RDF parsers and serializers.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// Everything is a Sink: a parser turns an io.Reader into a Stream of quads and
// a serializer turns a Stream of quads into a Stream of byte chunks. A Stream
// carries three kinds of events (items, prefix side signals and errors) and
// completes when its channel is closed. Streams are unbuffered, so a producer
// never runs ahead of its consumer.
//
// Sinks are created from a SinkDescriptor. New returns a LazySink that defers
// loading and constructing the real sink until it is first used, and does so
// at most once. Import on a LazySink returns a placeholder stream right away.
//
// A Registry maps media types to sinks. Looking up an unknown media type
// yields a nil stream rather than an error. NewFormats returns the default
// registries:
//
//   - Parsers: JSON-LD, TriG, N-Quads, N-Triples, N3, Turtle and RDF/XML.
//   - Serializers: JSON-LD, N-Quads, N-Triples, N3 and Turtle (the last four
//     all write N-Quads lines).
//
// Example:
//
//	formats := rdf.NewFormats(rdf.OptBaseIRI("http://example.org/"))
//	quads := formats.Parsers.Import(rdf.MediaTypeTurtle, strings.NewReader(input))
//	if quads == nil {
//	    // unsupported media type
//	}
//	chunks := formats.Serializers.Import(rdf.MediaTypeNQuads, quads)
//	r := rdf.NewStreamReader(ctx, chunks)
//	defer r.Close()
//	_, err := io.Copy(os.Stdout, r)
//
// RDF-star is represented via TripleTerm, allowing quoted triples to appear
// as subjects or objects.
package rdf
