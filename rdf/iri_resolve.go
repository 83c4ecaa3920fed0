package rdf

import (
	"net/url"
	"strings"
)

// resolveIRI resolves a relative IRI against a base IRI according to RFC 3986.
// Absolute references and references without a usable base are returned as-is.
func resolveIRI(baseStr, relative string) string {
	if baseStr == "" || isAbsoluteIRI(relative) {
		return relative
	}

	baseURL, err := url.Parse(baseStr)
	if err != nil {
		return joinIRI(baseStr, relative)
	}
	relURL, err := url.Parse(relative)
	if err != nil {
		return joinIRI(baseStr, relative)
	}

	resolved := baseURL.ResolveReference(relURL)
	if strings.Contains(relative, "#") {
		// The reference's fragment replaces the base fragment, even when empty.
		resolved.Fragment, resolved.RawFragment = relURL.Fragment, relURL.RawFragment
	}
	// ResolveReference drops an empty fragment: "<#>" must keep it.
	if strings.HasSuffix(relative, "#") && !strings.HasSuffix(resolved.String(), "#") {
		return resolved.String() + "#"
	}
	return resolved.String()
}

// joinIRI is the fallback for IRIs net/url refuses to parse.
func joinIRI(baseStr, relative string) string {
	if strings.HasPrefix(relative, "#") {
		if i := strings.IndexByte(baseStr, '#'); i >= 0 {
			baseStr = baseStr[:i]
		}
		return baseStr + relative
	}
	if strings.HasSuffix(baseStr, "/") {
		return baseStr + relative
	}
	if lastSlash := strings.LastIndex(baseStr, "/"); lastSlash >= 0 {
		return baseStr[:lastSlash+1] + relative
	}
	return baseStr + "/" + relative
}

// isAbsoluteIRI reports whether iri starts with a scheme.
func isAbsoluteIRI(iri string) bool {
	for i := 0; i < len(iri); i++ {
		ch := iri[i]
		switch {
		case ch == ':':
			return i > 0
		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		case i > 0 && ((ch >= '0' && ch <= '9') || ch == '+' || ch == '-' || ch == '.'):
		default:
			return false
		}
	}
	return false
}
