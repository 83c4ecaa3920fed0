package rdf

import (
	"bufio"
	"io"
	"strings"
)

// sniffSize is how much input DetectMediaType looks at.
const sniffSize = 512

// DetectMediaType guesses the media type of a document from its first bytes.
// It reports false when the sample matches no known signature.
func DetectMediaType(sample []byte) (string, bool) {
	text := strings.TrimSpace(string(sample))
	if text == "" {
		return "", false
	}
	upper := strings.ToUpper(text)

	switch {
	case strings.HasPrefix(text, "{") || strings.HasPrefix(text, "["):
		return MediaTypeJSONLD, true
	case strings.HasPrefix(text, "<?xml") || strings.HasPrefix(text, "<rdf:") || strings.HasPrefix(text, "<rdf "):
		return MediaTypeRDFXML, true
	case hasDirective(upper):
		if strings.Contains(upper, "GRAPH") || strings.Contains(text, "{") {
			return MediaTypeTriG, true
		}
		return MediaTypeTurtle, true
	}

	// Leading lines that are complete N-Triples or N-Quads statements.
	statements := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quad, err := (&ntCursor{input: line}).parseStatement()
		if err != nil {
			break
		}
		if quad.G != nil {
			return MediaTypeNQuads, true
		}
		statements++
	}
	if statements > 0 {
		return MediaTypeNTriples, true
	}

	if strings.Contains(text, "{") {
		return MediaTypeTriG, true
	}
	for _, field := range strings.Fields(text) {
		if strings.Contains(field, ":") && !strings.HasPrefix(field, "_:") && !strings.HasPrefix(field, "<") && !strings.HasPrefix(field, `"`) {
			return MediaTypeTurtle, true
		}
	}
	if strings.HasPrefix(text, "<") || strings.HasPrefix(text, "_:") || strings.HasPrefix(text, "(") {
		return MediaTypeTurtle, true
	}
	return "", false
}

func hasDirective(upper string) bool {
	for _, directive := range []string{"@PREFIX", "PREFIX", "@BASE", "BASE", "GRAPH"} {
		if strings.HasPrefix(upper, directive) {
			return true
		}
	}
	return false
}

// SniffMediaType detects the media type of r without consuming it. The
// returned reader yields the complete input.
func SniffMediaType(r io.Reader) (string, io.Reader, bool) {
	buffered := bufio.NewReaderSize(r, sniffSize)
	sample, err := buffered.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", buffered, false
	}
	mediaType, ok := DetectMediaType(sample)
	return mediaType, buffered, ok
}
