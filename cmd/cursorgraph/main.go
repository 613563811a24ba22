package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hanpama/cursorgraph/internal/eventbus"
	"github.com/hanpama/cursorgraph/internal/mapping"
	"github.com/hanpama/cursorgraph/internal/otel"
	"github.com/hanpama/cursorgraph/internal/protomap"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/server"
	"github.com/hanpama/cursorgraph/internal/valuemap"
)

const rootUsage = `cursorgraph: GraphQL query front end over cursor sources

USAGE:
  cursorgraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint over a JSON data document
  render-sdl       Validate a schema and print its canonical SDL
  render-proto     Generate a .proto model file mirroring a schema
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -schema <file>                  GraphQL SDL file (required)
  -data <file>                    JSON data document shaped like the query root (required)
  -server.addr <addr>             HTTP listen address (default: :8080)
  -server.pretty                  Pretty-print JSON responses
  -server.timeout <duration>      Per-request timeout, e.g. 10s (default: 10s)
  -server.metadata-header <name>  Forward HTTP header to gRPC metadata. Repeatable
  -limits.max-depth <n>           Reject queries deeper than n levels (0 disables)
  -limits.max-width <n>           Reject queries wider than n leaves (0 disables)
  -otel.endpoint <addr>           OTLP collector endpoint
  -otel.service <name>            OpenTelemetry service name (default: cursorgraph)
`

const renderSDLUsage = `render-sdl FLAGS:
  -schema <file>  GraphQL SDL file (required)
  -out <file>     Write canonical SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

const renderProtoUsage = `render-proto FLAGS:
  -schema <file>  GraphQL SDL file (required)
  -pkg <name>     Proto package name (default: cursorgraph.v1)
  -out <dir>      Output directory for the generated .proto file (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("cursorgraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "render-sdl":
		return cmdRenderSDL(cmdArgs)
	case "render-proto":
		return cmdRenderProto(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "render-sdl":
		fmt.Print(renderSDLUsage)
	case "render-proto":
		fmt.Print(renderProtoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func loadSchema(schemaFile string) (*schema.Schema, error) {
	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	r := schema.Build(schemaFile, string(sdl))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return r.Value(), nil
}

func cmdServe(args []string) error {
	schemaFile := ""
	dataFile := ""
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxDepth := 0
	maxWidth := 0
	otelEndpoint := ""
	otelService := "cursorgraph"
	var metadataHeaders stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&dataFile, "data", dataFile, "JSON data document")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Var(&metadataHeaders, "server.metadata-header", "Forward HTTP header to gRPC metadata")
	fs.IntVar(&maxDepth, "limits.max-depth", maxDepth, "Maximum query depth")
	fs.IntVar(&maxWidth, "limits.max-width", maxWidth, "Maximum query width")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if schemaFile == "" || dataFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-schema and -data are required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	doc, err := os.ReadFile(dataFile)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	source, err := valuemap.ParseJSON(sch, doc)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var mopts []mapping.Option
	if maxDepth > 0 {
		mopts = append(mopts, mapping.WithMaxDepth(maxDepth))
	}
	if maxWidth > 0 {
		mopts = append(mopts, mapping.WithMaxWidth(maxWidth))
	}
	m := mapping.New(sch, source, mopts...)

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(metadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(metadataHeaders...))
	}
	h := server.New(m, sopts...)

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdRenderSDL(args []string) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("render-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write canonical SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderSDLUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, renderSDLUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func cmdRenderProto(args []string) error {
	schemaFile := ""
	pkg := "cursorgraph.v1"
	outDir := ""
	fs := flag.NewFlagSet("render-proto", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&pkg, "pkg", pkg, "Proto package name")
	fs.StringVar(&outDir, "out", outDir, "Output directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderProtoUsage)
		return err
	}
	if schemaFile == "" || outDir == "" {
		fmt.Fprint(os.Stderr, renderProtoUsage)
		return fmt.Errorf("-schema and -out are required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	reg, err := protomap.BuildRegistry(sch, pkg)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	return protomap.Render(reg, outDir)
}
