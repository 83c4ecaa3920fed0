package cmd

import (
	kitlog "github.com/go-kit/kit/log"
	level "github.com/go-kit/kit/log/level"
	"go.opencensus.io/trace"
)

// logExporter writes finished spans to the logger.
type logExporter struct {
	logger kitlog.Logger
}

var _ trace.Exporter = (*logExporter)(nil)

func (e *logExporter) ExportSpan(s *trace.SpanData) {
	keyvals := []interface{}{
		"event", "span",
		"name", s.Name,
		"trace_id", s.TraceID.String(),
		"span_id", s.SpanID.String(),
		"duration", s.EndTime.Sub(s.StartTime),
	}
	for key, value := range s.Attributes {
		keyvals = append(keyvals, key, value)
	}
	if s.Status.Code != trace.StatusCodeOK {
		keyvals = append(keyvals, "status", s.Status.Message)
	}
	level.Debug(e.logger).Log(keyvals...)
}
