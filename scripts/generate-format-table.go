//go:build ignore

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/geoknoesis/rdf-formats/rdf"
)

func main() {
	outputFile := "FORMATS.md"
	if len(os.Args) >= 2 {
		outputFile = os.Args[1]
	}

	formats := rdf.NewFormats()
	seen := map[string]bool{}
	var mediaTypes []string
	for _, mediaType := range append(formats.Parsers.MediaTypes(), formats.Serializers.MediaTypes()...) {
		if !seen[mediaType] {
			seen[mediaType] = true
			mediaTypes = append(mediaTypes, mediaType)
		}
	}

	var md strings.Builder
	md.WriteString("# Supported Formats\n\n")
	md.WriteString("Generated by `go run scripts/generate-format-table.go`. Sinks are loaded on first use.\n\n")
	md.WriteString("| Media type | Parse | Serialize | Extensions |\n")
	md.WriteString("|------------|-------|-----------|------------|\n")
	for _, mediaType := range mediaTypes {
		fmt.Fprintf(&md, "| `%s` | %s | %s | %s |\n",
			mediaType,
			mark(formats.Parsers.Has(mediaType)),
			mark(formats.Serializers.Has(mediaType)),
			strings.Join(rdf.ExtensionsFor(mediaType), ", "),
		)
	}
	md.WriteString("\nThe Turtle family (TriG, N-Quads, N-Triples, N3, Turtle) shares one parser that accepts the union of the grammars.\n")
	md.WriteString("Every serializer except JSON-LD writes N-Quads lines.\n")

	if err := os.WriteFile(outputFile, []byte(md.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d media types to %s\n", len(mediaTypes), outputFile)
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
