package cmd

import (
	"context"
	"io"

	"github.com/geoknoesis/rdf-formats/rdf"
	kitlog "github.com/go-kit/kit/log"
	level "github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Converter parses a document with one registry and serializes the quads with
// the other, without holding the document in memory.
type Converter struct {
	logger  kitlog.Logger
	formats *rdf.Formats
}

func NewConverter(logger kitlog.Logger, formats *rdf.Formats) *Converter {
	return &Converter{logger: logger, formats: formats}
}

// Stats summarises one conversion.
type Stats struct {
	Quads    int64
	Prefixes int64
	Bytes    int64
}

// Convert reads from in as media type from and writes to out as media type to.
// Unsupported media types are returned as UsageError.
func (c *Converter) Convert(ctx context.Context, in io.Reader, out io.Writer, from, to string, opts ...rdf.Option) (Stats, error) {
	var stats Stats
	opts = append([]rdf.Option{rdf.OptContext(ctx)}, opts...)

	if !c.formats.Serializers.Has(to) {
		return stats, UsageError{errors.Wrapf(rdf.ErrUnsupportedFormat, "no serializer for %s", to)}
	}
	quads := c.formats.Parsers.Import(from, in, opts...)
	if quads == nil {
		return stats, UsageError{errors.Wrapf(rdf.ErrUnsupportedFormat, "no parser for %s", from)}
	}

	observed, tapped := tap(ctx, c.logger, quads, &stats)
	chunks := c.formats.Serializers.Import(to, observed, opts...)

	reader := rdf.NewStreamReader(ctx, chunks)
	n, err := io.Copy(out, reader)
	reader.Close()
	observed.Destroy()
	<-tapped

	stats.Bytes = n
	if err != nil {
		return stats, err
	}

	level.Info(c.logger).Log("event", "converted", "from", from, "to", to,
		"quads", stats.Quads, "prefixes", stats.Prefixes, "bytes", stats.Bytes)
	return stats, nil
}

// tap relays src into a new stream, counting what passes through. Destroying
// the returned stream destroys src. The channel is closed once stats is final.
func tap(ctx context.Context, logger kitlog.Logger, src *rdf.Stream[rdf.Quad], stats *Stats) (*rdf.Stream[rdf.Quad], <-chan struct{}) {
	dst := rdf.NewStream[rdf.Quad]()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer dst.End()
		defer src.Destroy()
		for {
			ev, err := src.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				_ = dst.Fail(err)
				return
			}

			switch ev.Kind {
			case rdf.EventItem:
				stats.Quads++
				err = dst.Push(ev.Item)
			case rdf.EventPrefix:
				stats.Prefixes++
				level.Debug(logger).Log("event", "prefix", "name", ev.Prefix.Name, "namespace", ev.Prefix.Namespace)
				err = dst.PushPrefix(ev.Prefix.Name, ev.Prefix.Namespace)
			case rdf.EventError:
				_ = dst.Fail(ev.Err)
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return dst, done
}
