package rdf

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/errgroup"
)

// Registry maps media types to sinks. Lookups are exact string matches: no
// case folding, no parameter stripping, no wildcards. The last Set for a media
// type wins, and several media types may share one sink instance.
type Registry[In, Out any] struct {
	name   string
	logger log.Logger

	mu    sync.RWMutex
	sinks map[string]Sink[In, Out]
}

// ParserRegistry maps media types to parsers.
type ParserRegistry = Registry[io.Reader, Quad]

// SerializerRegistry maps media types to serializers.
type SerializerRegistry = Registry[*Stream[Quad], []byte]

// NewRegistry returns an empty registry. name labels logs and metrics.
func NewRegistry[In, Out any](name string, logger log.Logger) *Registry[In, Out] {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry[In, Out]{
		name:   name,
		logger: log.With(logger, "registry", name),
		sinks:  map[string]Sink[In, Out]{},
	}
}

// Has reports whether a sink is registered for mediaType.
func (r *Registry[In, Out]) Has(mediaType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sinks[mediaType]
	return ok
}

// Get returns the sink registered for mediaType.
func (r *Registry[In, Out]) Get(mediaType string) (Sink[In, Out], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[mediaType]
	return sink, ok
}

// Set registers sink for mediaType, replacing any previous registration.
func (r *Registry[In, Out]) Set(mediaType string, sink Sink[In, Out]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[mediaType] = sink
}

// Alias registers alias to the sink already registered for target. It reports
// false, and changes nothing, when target is not registered.
func (r *Registry[In, Out]) Alias(alias, target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sink, ok := r.sinks[target]
	if !ok {
		return false
	}
	r.sinks[alias] = sink
	return true
}

// Delete removes the registration for mediaType.
func (r *Registry[In, Out]) Delete(mediaType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, mediaType)
}

// Len returns the number of registered media types.
func (r *Registry[In, Out]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// MediaTypes returns the registered media types in lexical order.
func (r *Registry[In, Out]) MediaTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mediaTypes := make([]string, 0, len(r.sinks))
	for mediaType := range r.sinks {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)
	return mediaTypes
}

// Import hands in to the sink registered for mediaType. When no sink is
// registered it returns nil: an unsupported media type is not an error, and
// the caller decides what it means.
func (r *Registry[In, Out]) Import(mediaType string, in In, opts ...Option) *Stream[Out] {
	sink, ok := r.Get(mediaType)
	if !ok {
		registryImportsTotal.WithLabelValues(r.name, "miss").Inc()
		level.Debug(r.logger).Log("event", "media_type_unsupported", "media_type", mediaType)
		return nil
	}

	registryImportsTotal.WithLabelValues(r.name, "hit").Inc()
	return sink.Import(in, opts...)
}

// loadable is implemented by lazy sinks.
type loadable[In, Out any] interface {
	Load(ctx context.Context) (Sink[In, Out], error)
}

// Preload loads every lazy sink in the registry concurrently. Sinks shared by
// several media types are loaded once. It returns the first load failure.
func (r *Registry[In, Out]) Preload(ctx context.Context) error {
	r.mu.RLock()
	var pending []loadable[In, Out]
	seen := map[loadable[In, Out]]struct{}{}
	for _, sink := range r.sinks {
		lazy, ok := sink.(loadable[In, Out])
		if !ok {
			continue
		}
		if _, dup := seen[lazy]; dup {
			continue
		}
		seen[lazy] = struct{}{}
		pending = append(pending, lazy)
	}
	r.mu.RUnlock()

	level.Debug(r.logger).Log("event", "preload", "sinks", len(pending))

	g, ctx := errgroup.WithContext(ctx)
	for _, lazy := range pending {
		lazy := lazy
		g.Go(func() error {
			_, err := lazy.Load(ctx)
			return err
		})
	}

	return g.Wait()
}
