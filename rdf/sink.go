package rdf

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Sink consumes an input and produces a stream of output values.
//
// Import returns immediately; the work happens on a goroutine owned by the
// sink, which completes the returned stream when it is done.
type Sink[In, Out any] interface {
	Import(in In, opts ...Option) *Stream[Out]
}

// Parser decodes serialized RDF into quads.
type Parser = Sink[io.Reader, Quad]

// Serializer encodes quads into chunks of serialized RDF.
type Serializer = Sink[*Stream[Quad], []byte]

// SinkConstructor builds a sink from constructor options.
type SinkConstructor[In, Out any] func(opts ...Option) (Sink[In, Out], error)

// SinkLoader resolves a sink constructor. Loaders hold the expensive part of
// bringing a sink up; LazySink calls them at most once.
type SinkLoader[In, Out any] func(ctx context.Context) (SinkConstructor[In, Out], error)

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[In, Out any] func(in In, opts ...Option) *Stream[Out]

// Import calls the underlying function.
func (f SinkFunc[In, Out]) Import(in In, opts ...Option) *Stream[Out] { return f(in, opts...) }

// SinkDescriptor identifies a sink type by its loader. It is immutable and
// safe to share; every call to New returns an independent LazySink.
type SinkDescriptor[In, Out any] struct {
	name string
	load SinkLoader[In, Out]
}

// Lazy returns a descriptor for a sink that is loaded on first use.
func Lazy[In, Out any](name string, load SinkLoader[In, Out]) *SinkDescriptor[In, Out] {
	return &SinkDescriptor[In, Out]{name: name, load: load}
}

// Name returns the descriptor name used in logs, metrics and errors.
func (d *SinkDescriptor[In, Out]) Name() string { return d.name }

// New returns a lazy sink that will construct the real sink with opts.
func (d *SinkDescriptor[In, Out]) New(opts ...Option) *LazySink[In, Out] {
	return newLazySink(d.name, d.load, opts)
}

// Constructor adapts a constructor to a loader that needs no preparation.
func Constructor[In, Out any](ctor SinkConstructor[In, Out]) SinkLoader[In, Out] {
	return func(context.Context) (SinkConstructor[In, Out], error) {
		return ctor, nil
	}
}

// importStream runs produce on a new goroutine and returns the stream it
// writes to. produce returns the error that terminates the stream, if any.
func importStream[Out any](produce func(out *Stream[Out]) error) *Stream[Out] {
	out := NewStream[Out]()
	go func() {
		defer out.End()
		if err := produce(out); err != nil && !errors.Is(err, ErrStreamDestroyed) {
			_ = out.Fail(err)
		}
	}()
	return out
}
