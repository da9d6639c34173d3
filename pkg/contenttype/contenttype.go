// Package contenttype classifies Content-Type header values and sniffs
// whether a body is text.
package contenttype

import (
	"mime"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	HTML   Category = "html"
	Script Category = "script"
	CSS    Category = "css"
	Form   Category = "form"
	Text   Category = "text"
	Binary Category = "binary"
)

// sniffWindow is how many leading bytes LooksLikeText inspects.
const sniffWindow = 1024

// MediaType returns the lowercased media type without parameters.
// Malformed values fall back to the lowercased text before the first ';'.
func MediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mediaType
}

// Charset returns the lowercased charset parameter, or "" when none is declared.
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// Classify returns the broad content category for a content-type header value.
// Returns Binary for empty content-type strings.
func Classify(contentType string) Category {
	mediaType := MediaType(contentType)
	switch {
	case mediaType == "":
		return Binary
	case strings.Contains(mediaType, "json"):
		return JSON
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.Contains(mediaType, "javascript") || strings.Contains(mediaType, "ecmascript"):
		return Script
	case mediaType == "text/css":
		return CSS
	case strings.Contains(mediaType, "xml"):
		return XML
	case mediaType == "application/x-www-form-urlencoded":
		return Form
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	}
	return Binary
}

// IsTextual reports whether the declared content type is a text format.
func IsTextual(contentType string) bool {
	return Classify(contentType) != Binary
}

// IsJSON returns true if the content type indicates JSON (case-insensitive).
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// LooksLikeText sniffs a body: valid UTF-8 whose first 1024 bytes are more
// than 80% printable ASCII or whitespace. Empty bodies count as text.
func LooksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if !utf8.Valid(data) {
		return false
	}
	n := min(len(data), sniffWindow)
	printable := 0
	for _, b := range data[:n] {
		if (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable)/float64(n) > 0.8
}

// IsBinary reports whether a body should be treated as binary. Known types
// decide on their own; unknown or empty types fall back to sniffing data.
func IsBinary(contentType string, data []byte) bool {
	if IsTextual(contentType) {
		return false
	}
	mediaType := MediaType(contentType)
	if strings.HasPrefix(mediaType, "image/") ||
		strings.HasPrefix(mediaType, "audio/") ||
		strings.HasPrefix(mediaType, "video/") ||
		strings.HasPrefix(mediaType, "font/") ||
		strings.Contains(mediaType, "octet-stream") ||
		strings.Contains(mediaType, "wasm") ||
		strings.Contains(mediaType, "gzip") ||
		strings.Contains(mediaType, "zip") ||
		strings.Contains(mediaType, "pdf") {
		return true
	}
	return !LooksLikeText(data)
}
