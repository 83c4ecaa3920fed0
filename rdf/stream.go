package rdf

import (
	"context"
	"io"
	"sync"
)

// EventKind identifies what a stream Event carries.
type EventKind uint8

const (
	// EventItem carries one data item.
	EventItem EventKind = iota
	// EventPrefix carries a namespace prefix binding discovered while parsing.
	EventPrefix
	// EventError carries an error. Streams relayed by a LazySink complete right
	// after their first error event.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventItem:
		return "item"
	case EventPrefix:
		return "prefix"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Prefix binds a namespace prefix to its IRI.
type Prefix struct {
	Name      string
	Namespace IRI
}

// Event is one element of a Stream. Completion is not an event: it is the
// closing of the channel returned by Stream.Events.
type Event[T any] struct {
	Kind   EventKind
	Item   T
	Prefix Prefix
	Err    error
}

// Stream is an ordered sequence of events handed from one producer goroutine
// to one consumer.
//
// Push, PushPrefix and Fail block until the consumer receives the event, so a
// slow consumer slows the producer down. The producer calls End exactly once
// it is finished (extra calls are ignored). The consumer either drains the
// stream until completion or calls Destroy, which makes every pending and
// future send return ErrStreamDestroyed.
type Stream[T any] struct {
	events      chan Event[T]
	destroyed   chan struct{}
	endOnce     sync.Once
	destroyOnce sync.Once
}

// NewStream returns an unbuffered stream.
func NewStream[T any]() *Stream[T] {
	return NewBufferedStream[T](0)
}

// NewBufferedStream returns a stream that holds up to size events before its
// producer blocks.
func NewBufferedStream[T any](size int) *Stream[T] {
	return &Stream[T]{
		events:    make(chan Event[T], size),
		destroyed: make(chan struct{}),
	}
}

// Push emits a data item.
func (s *Stream[T]) Push(item T) error {
	return s.send(Event[T]{Kind: EventItem, Item: item})
}

// PushPrefix emits a prefix side signal.
func (s *Stream[T]) PushPrefix(name string, namespace IRI) error {
	return s.send(Event[T]{Kind: EventPrefix, Prefix: Prefix{Name: name, Namespace: namespace}})
}

// Fail emits an error event. It does not complete the stream.
func (s *Stream[T]) Fail(err error) error {
	return s.send(Event[T]{Kind: EventError, Err: err})
}

// End completes the stream.
func (s *Stream[T]) End() {
	s.endOnce.Do(func() { close(s.events) })
}

func (s *Stream[T]) send(ev Event[T]) error {
	select {
	case <-s.destroyed:
		return ErrStreamDestroyed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.destroyed:
		return ErrStreamDestroyed
	}
}

// Events returns the channel the consumer reads from. It is closed on completion.
func (s *Stream[T]) Events() <-chan Event[T] {
	return s.events
}

// Next returns the next event, io.EOF once the stream has completed, or the
// context error if ctx is done first.
func (s *Stream[T]) Next(ctx context.Context) (Event[T], error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return Event[T]{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return Event[T]{}, ctx.Err()
	}
}

// Destroy tells the producer to stop. Events still in flight are dropped.
func (s *Stream[T]) Destroy() {
	s.destroyOnce.Do(func() { close(s.destroyed) })
}

// Destroyed is closed once the consumer has destroyed the stream.
func (s *Stream[T]) Destroyed() <-chan struct{} {
	return s.destroyed
}

// Collect drains a stream and returns its items. Prefix events are skipped.
// The first error event is returned together with the items received before
// it, and the stream is destroyed.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var items []T
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			s.Destroy()
			return items, err
		}
		switch ev.Kind {
		case EventItem:
			items = append(items, ev.Item)
		case EventError:
			s.Destroy()
			return items, ev.Err
		}
	}
}

// StreamOf returns a stream that emits items in order and completes.
func StreamOf[T any](items ...T) *Stream[T] {
	s := NewStream[T]()
	go func() {
		defer s.End()
		for _, item := range items {
			if err := s.Push(item); err != nil {
				return
			}
		}
	}()
	return s
}

// relay forwards src into dst until src completes, src fails, or dst is
// destroyed. An error event is forwarded and dst is completed right after it,
// even if src would keep producing. relay is the only producer of dst.
// A nil src fails dst with ErrNoStream.
func relay[T any](src, dst *Stream[T]) {
	defer dst.End()
	if src == nil {
		_ = dst.Fail(ErrNoStream)
		return
	}
	for {
		select {
		case ev, ok := <-src.events:
			if !ok {
				return
			}
			if err := dst.send(ev); err != nil {
				src.Destroy()
				return
			}
			if ev.Kind == EventError {
				src.Destroy()
				return
			}
		case <-dst.destroyed:
			src.Destroy()
			return
		}
	}
}

// streamReader adapts a byte stream to io.Reader.
type streamReader struct {
	ctx     context.Context
	stream  *Stream[[]byte]
	pending []byte
	err     error
}

// NewStreamReader returns a reader over the chunks of a serializer output
// stream. An error event is returned by Read; completion is io.EOF. Closing
// the reader destroys the stream.
func NewStreamReader(ctx context.Context, s *Stream[[]byte]) io.ReadCloser {
	if ctx == nil {
		ctx = context.Background()
	}
	return &streamReader{ctx: ctx, stream: s}
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		ev, err := r.stream.Next(r.ctx)
		if err != nil {
			r.err = err
			continue
		}
		switch ev.Kind {
		case EventItem:
			r.pending = ev.Item
		case EventError:
			r.err = ev.Err
			r.stream.Destroy()
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	r.stream.Destroy()
	return nil
}
