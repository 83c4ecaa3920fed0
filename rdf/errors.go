package rdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported media type.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeSinkLoad indicates that a lazy sink could not be loaded or constructed.
	ErrCodeSinkLoad ErrorCode = "SINK_LOAD_FAILED"
	// ErrCodeLineTooLong indicates a line exceeded the configured limit.
	ErrCodeLineTooLong ErrorCode = "LINE_TOO_LONG"
	// ErrCodeTripleLimitExceeded indicates that the maximum number of quads was exceeded.
	ErrCodeTripleLimitExceeded ErrorCode = "TRIPLE_LIMIT_EXCEEDED"
	// ErrCodeStreamDestroyed indicates the consumer destroyed the stream.
	ErrCodeStreamDestroyed ErrorCode = "STREAM_DESTROYED"
	// ErrCodeParseError indicates a general parse error.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

var (
	// ErrUnsupportedFormat indicates that no sink is registered for a media type.
	// Registries never return it; they return a nil stream instead.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
	// ErrSinkLoad is matched by every *LoadError.
	ErrSinkLoad = errors.New("rdf: sink load failed")
	// ErrLineTooLong indicates a line exceeded the configured limit.
	ErrLineTooLong = errors.New("rdf: line exceeds configured limit")
	// ErrTripleLimitExceeded indicates that the maximum number of quads was exceeded.
	ErrTripleLimitExceeded = errors.New("rdf: maximum number of triples/quads exceeded")
	// ErrStreamDestroyed is returned to producers writing to a destroyed stream.
	ErrStreamDestroyed = errors.New("rdf: stream destroyed")
	// ErrNoStream indicates that a sink returned no stream from Import.
	ErrNoStream = errors.New("rdf: sink returned no stream")
)

// Code returns the error code for an error, or ErrCodeParseError if unknown.
// Returns empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrSinkLoad):
		return ErrCodeSinkLoad
	case errors.Is(err, ErrLineTooLong):
		return ErrCodeLineTooLong
	case errors.Is(err, ErrTripleLimitExceeded):
		return ErrCodeTripleLimitExceeded
	case errors.Is(err, ErrStreamDestroyed):
		return ErrCodeStreamDestroyed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}

	return ErrCodeParseError
}

// LoadStage names the step of a lazy load that failed.
type LoadStage string

const (
	// StageLoad is the loader call that resolves a sink constructor.
	StageLoad LoadStage = "load"
	// StageConstruct is the constructor call that builds the sink.
	StageConstruct LoadStage = "construct"
)

// LoadError is the cached failure of a lazy sink. The same value is handed to
// every caller of Load and to every placeholder stream of Import.
type LoadError struct {
	Sink  string
	Stage LoadStage
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rdf: %s sink %q: %v", e.Stage, e.Sink, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes every LoadError match ErrSinkLoad.
func (e *LoadError) Is(target error) bool { return target == ErrSinkLoad }

// ParseError provides structured context for parse failures.
type ParseError struct {
	Format string // Format name (e.g., "turtle", "rdfxml")
	Line   int    // 1-based line number (0 if unknown)
	Column int    // 1-based column number (0 if unknown)
	Err    error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())

	if e.Line > 0 {
		fmt.Fprintf(&msg, " on line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&msg, ", column %d", e.Column)
		}
	}

	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// newParseError builds a ParseError. Errors that already carry a ParseError
// keep their original position.
func newParseError(format string, line, column int, err error) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{
		Format: format,
		Line:   line,
		Column: column,
		Err:    err,
	}
}
