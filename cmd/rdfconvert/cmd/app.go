package cmd

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kingpin"
	"github.com/geoknoesis/rdf-formats/rdf"
	kitlog "github.com/go-kit/kit/log"
	level "github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var logger kitlog.Logger

var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

var (
	app = kingpin.New("rdfconvert", "Convert RDF documents between media types").Version(versionStanza())

	// Global flags
	debug      = app.Flag("debug", "Enable debug logging").Default("false").Bool()
	traceSpans = app.Flag("trace", "Log sink load spans").Default("false").Bool()
	configFile = app.Flag("config", "Path to YAML configuration file").Envar("RDFCONVERT_CONFIG").String()

	convert                = app.Command("convert", "Parse a document and serialize it as another media type")
	convertInput           = convert.Flag("input", "Input file, - for stdin").Short('i').Default("-").String()
	convertOutput          = convert.Flag("output", "Output file, - for stdout").Short('o').Default("-").String()
	convertFrom            = convert.Flag("from", "Input media type, inferred from --input when unset").String()
	convertTo              = convert.Flag("to", "Output media type, inferred from --output when unset").String()
	convertBase            = convert.Flag("base", "Base IRI for relative IRIs").Envar("RDFCONVERT_BASE").String()
	convertMaxTriples      = convert.Flag("max-triples", "Fail once more quads than this are parsed, 0 for no limit").Default("0").Int64()
	convertScopeBlankNodes = convert.Flag("scope-blank-nodes", "Prefix blank node labels with a random identifier").Default("false").Bool()
	convertPreload         = convert.Flag("preload", "Load every parser and serializer before converting").Default("false").Bool()

	formats = app.Command("formats", "List the supported media types")
)

// UsageError is shown together with the command usage.
type UsageError struct {
	error
}

func (e UsageError) Unwrap() error { return e.error }

func Run() (err error) {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	if *debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)
	stdlog.SetOutput(kitlog.NewStdlibAdapter(logger))

	defer func() {
		var usageErr UsageError
		switch {
		case err == nil:
			return
		case errors.As(err, &usageErr):
			parseCtx, _ := app.ParseContext(os.Args[1:])
			app.UsageForContext(parseCtx)
			fmt.Fprintf(os.Stderr, "error: %s\n", usageErr.Error())

			err = usageErr.error
			return
		default:
			logger.Log("event", "error", "error", err, "code", rdf.Code(err), "msg", "exiting with error")
		}
	}()

	if *traceSpans {
		trace.RegisterExporter(&logExporter{logger: kitlog.With(logger, "component", "trace")})
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	}

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return UsageError{err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	opts := []rdf.Option{
		rdf.OptLogger(logger),
		rdf.OptMaxLineBytes(cfg.Limits.MaxLineBytes),
		rdf.OptMaxTriples(cfg.Limits.MaxTriples),
		rdf.OptHTTPClient(&http.Client{Timeout: cfg.JSONLD.HTTPTimeout}),
	}
	registries := rdf.NewFormats(opts...)
	cfg.ApplyAliases(logger, registries)

	switch command {
	case formats.FullCommand():
		return listFormats(os.Stdout, registries)

	case convert.FullCommand():
		var g run.Group

		{
			logger := kitlog.With(logger, "component", "shutdown_handler")

			ctx, cancel := context.WithCancel(ctx)

			g.Add(
				func() error {
					select {
					case <-sigc:
						logger.Log("event", "requesting_shutdown", "msg", "received signal, cancelling conversion")
					case <-ctx.Done():
					}

					return nil
				},
				func(error) {
					cancel()
				},
			)
		}

		{
			logger := kitlog.With(logger, "component", "converter")

			ctx, cancel := context.WithCancel(ctx)

			g.Add(
				func() error {
					return runConvert(ctx, logger, cfg, registries)
				},
				func(error) {
					cancel()
				},
			)
		}

		return g.Run()
	}

	return UsageError{fmt.Errorf("unsupported command")}
}

func runConvert(ctx context.Context, logger kitlog.Logger, cfg *Config, registries *rdf.Formats) error {
	to, err := resolveMediaType(cfg, *convertTo, *convertOutput, "--to")
	if err != nil {
		return err
	}

	var opts []rdf.Option
	if *convertBase != "" {
		opts = append(opts, rdf.OptBaseIRI(*convertBase))
	}
	if *convertMaxTriples > 0 {
		opts = append(opts, rdf.OptMaxTriples(*convertMaxTriples))
	}
	if *convertScopeBlankNodes {
		opts = append(opts, rdf.OptBlankNodePrefix(blankNodeScope()))
	}

	if *convertPreload {
		if err := registries.Parsers.Preload(ctx); err != nil {
			return err
		}
		if err := registries.Serializers.Preload(ctx); err != nil {
			return err
		}
	}

	in, err := openInput(*convertInput)
	if err != nil {
		return err
	}
	defer in.Close()

	from, src, err := resolveInputMediaType(logger, cfg, *convertFrom, *convertInput, in)
	if err != nil {
		return err
	}

	out, err := openOutput(*convertOutput)
	if err != nil {
		return err
	}

	logger.Log("event", "convert", "input", *convertInput, "output", *convertOutput, "from", from, "to", to)
	if _, err := NewConverter(logger, registries).Convert(ctx, src, out, from, to, opts...); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// resolveMediaType prefers an explicit media type and falls back to the
// extension of path.
func resolveMediaType(cfg *Config, explicit, path, flag string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if path != "-" {
		if mediaType := cfg.MediaTypeForPath(path); mediaType != "" {
			return mediaType, nil
		}
	}
	return "", UsageError{fmt.Errorf("cannot infer media type of %q, set %s", path, flag)}
}

// resolveInputMediaType is resolveMediaType with a last attempt at detecting
// the media type from the content of in. The returned reader replaces in.
func resolveInputMediaType(logger kitlog.Logger, cfg *Config, explicit, path string, in io.Reader) (string, io.Reader, error) {
	mediaType, err := resolveMediaType(cfg, explicit, path, "--from")
	if err == nil {
		return mediaType, in, nil
	}

	mediaType, src, ok := rdf.SniffMediaType(in)
	if !ok {
		return "", src, err
	}
	level.Debug(logger).Log("event", "media_type_detected", "input", path, "media_type", mediaType)
	return mediaType, src, nil
}

// blankNodeScope returns a label prefix unique to this run.
func blankNodeScope() string {
	return "b" + strings.ReplaceAll(uuid.New().String(), "-", "") + "_"
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func listFormats(w io.Writer, registries *rdf.Formats) error {
	mediaTypes := map[string]struct{}{}
	for _, mediaType := range registries.Parsers.MediaTypes() {
		mediaTypes[mediaType] = struct{}{}
	}
	for _, mediaType := range registries.Serializers.MediaTypes() {
		mediaTypes[mediaType] = struct{}{}
	}
	sorted := make([]string, 0, len(mediaTypes))
	for mediaType := range mediaTypes {
		sorted = append(sorted, mediaType)
	}
	sort.Strings(sorted)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MEDIA TYPE\tPARSE\tSERIALIZE")
	for _, mediaType := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mediaType,
			yesNo(registries.Parsers.Has(mediaType)), yesNo(registries.Serializers.Has(mediaType)))
	}
	return tw.Flush()
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func versionStanza() string {
	return fmt.Sprintf(
		"rdfconvert Version: %v\nGit SHA: %v\nGo Version: %v\nGo OS/Arch: %v/%v\nBuilt at: %v",
		Version, Commit, GoVersion, runtime.GOOS, runtime.GOARCH, Date,
	)
}
