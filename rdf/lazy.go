package rdf

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

type loadState uint8

const (
	loadUnstarted loadState = iota
	loadLoading
	loadLoaded
	loadFailed
)

// LazySink stands in for a sink that has not been constructed yet. The loader
// and the constructor run at most once per LazySink, on first Load or Import;
// every caller then sees the same sink or the same *LoadError.
type LazySink[In, Out any] struct {
	name   string
	load   SinkLoader[In, Out]
	opts   []Option
	logger log.Logger

	mu    sync.Mutex
	state loadState
	done  chan struct{}

	// written once before done is closed
	sink Sink[In, Out]
	err  error
}

var (
	_ Parser     = (*LazySink[io.Reader, Quad])(nil)
	_ Serializer = (*LazySink[*Stream[Quad], []byte])(nil)
)

func newLazySink[In, Out any](name string, load SinkLoader[In, Out], opts []Option) *LazySink[In, Out] {
	captured := make([]Option, len(opts))
	copy(captured, opts)

	return &LazySink[In, Out]{
		name:   name,
		load:   load,
		opts:   captured,
		logger: log.With(newOptions(captured...).Logger, "sink", name),
	}
}

// Name returns the name of the descriptor this sink was created from.
func (l *LazySink[In, Out]) Name() string { return l.name }

// Loaded reports whether Load has completed, successfully or not.
func (l *LazySink[In, Out]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == loadLoaded || l.state == loadFailed
}

// Load returns the real sink, loading and constructing it on the first call.
// Callers that arrive while a load is in flight wait for it; a caller whose ctx
// is done stops waiting without affecting the load.
func (l *LazySink[In, Out]) Load(ctx context.Context) (Sink[In, Out], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	switch l.state {
	case loadLoaded, loadFailed:
		l.mu.Unlock()
		return l.sink, l.err
	case loadUnstarted:
		l.state = loadLoading
		l.done = make(chan struct{})
		// The outcome is cached for everyone, so it must not depend on whether
		// this particular caller gives up.
		go l.run(context.WithoutCancel(ctx))
	}
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		return l.sink, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *LazySink[In, Out]) run(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "rdf.LazySink.Load")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("sink", l.name))

	level.Debug(l.logger).Log("event", "sink_load_start")
	start := time.Now()

	sink, err := l.construct(ctx)
	duration := time.Since(start)

	l.mu.Lock()
	if err != nil {
		l.state, l.err = loadFailed, err
	} else {
		l.state, l.sink = loadLoaded, sink
	}
	close(l.done)
	l.mu.Unlock()

	sinkLoadDurationSeconds.WithLabelValues(l.name).Observe(duration.Seconds())
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeInternal, Message: err.Error()})
		sinkLoadsTotal.WithLabelValues(l.name, "failed").Inc()
		level.Error(l.logger).Log("event", "sink_load_failed", "duration", duration, "error", err)
		return
	}

	sinkLoadsTotal.WithLabelValues(l.name, "loaded").Inc()
	level.Info(l.logger).Log("event", "sink_loaded", "duration", duration)
}

func (l *LazySink[In, Out]) construct(ctx context.Context) (sink Sink[In, Out], err error) {
	stage := StageLoad
	defer func() {
		if r := recover(); r != nil {
			sink, err = nil, &LoadError{Sink: l.name, Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctor, err := l.load(ctx)
	if err != nil {
		return nil, &LoadError{Sink: l.name, Stage: stage, Err: err}
	}
	if ctor == nil {
		return nil, &LoadError{Sink: l.name, Stage: stage, Err: errors.New("loader returned no constructor")}
	}

	stage = StageConstruct
	sink, err = ctor(l.opts...)
	if err != nil {
		return nil, &LoadError{Sink: l.name, Stage: stage, Err: err}
	}
	if sink == nil {
		return nil, &LoadError{Sink: l.name, Stage: stage, Err: errors.New("constructor returned no sink")}
	}

	return sink, nil
}

// Import returns a placeholder stream at once and feeds it from the real
// sink's stream when the sink has loaded. Items, prefix events and errors are
// relayed in the order the real stream produced them; the placeholder
// completes right after the first error. A load failure is delivered as an
// error event followed by completion, and a stream input is destroyed.
func (l *LazySink[In, Out]) Import(in In, opts ...Option) *Stream[Out] {
	placeholder := NewStream[Out]()
	ctx := newOptions(opts...).Context

	go func() {
		sink, err := l.Load(ctx)
		if err != nil {
			releaseInput(in)
			_ = placeholder.Fail(err)
			placeholder.End()
			return
		}

		src := sink.Import(in, opts...)
		if src == nil {
			releaseInput(in)
		}
		relay(src, placeholder)
	}()

	return placeholder
}

// releaseInput destroys in when it is a stream nobody is going to consume.
func releaseInput(in any) {
	if d, ok := in.(interface{ Destroy() }); ok {
		d.Destroy()
	}
}
