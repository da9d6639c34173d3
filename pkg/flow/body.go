package flow

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/usestring/flowlens/pkg/contenttype"
)

// BodyKind discriminates the Body union.
type BodyKind uint8

const (
	BodyAbsent BodyKind = iota
	BodyText
	BodyBytes
)

func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyBytes:
		return "bytes"
	}
	return "absent"
}

// Body is a message body that is either absent, already-decoded text, or raw
// bytes as captured. The zero value is absent.
type Body struct {
	kind BodyKind
	text string
	data []byte
}

// NoBody returns an absent body.
func NoBody() Body { return Body{} }

// TextBody wraps text that is already a Go string.
func TextBody(s string) Body { return Body{kind: BodyText, text: s} }

// BytesBody wraps raw bytes. The slice is copied.
func BytesBody(b []byte) Body {
	if b == nil {
		return Body{kind: BodyBytes}
	}
	return Body{kind: BodyBytes, data: append([]byte(nil), b...)}
}

// Kind returns which variant the body holds.
func (b Body) Kind() BodyKind { return b.kind }

// IsAbsent reports whether there is no body.
func (b Body) IsAbsent() bool { return b.kind == BodyAbsent }

// Len returns the body size in bytes.
func (b Body) Len() int {
	switch b.kind {
	case BodyText:
		return len(b.text)
	case BodyBytes:
		return len(b.data)
	}
	return 0
}

// Bytes returns the raw content. Text bodies are returned as their UTF-8 bytes.
func (b Body) Bytes() []byte {
	switch b.kind {
	case BodyText:
		return []byte(b.text)
	case BodyBytes:
		return append([]byte(nil), b.data...)
	}
	return nil
}

// Canonical converts the body to the single string form decoders consume.
// Byte bodies are transcoded to UTF-8 only when the content type is textual
// and declares a non-UTF-8 charset; otherwise the bytes are kept as-is so
// binary signatures survive.
func (b Body) Canonical(contentType string) string {
	switch b.kind {
	case BodyText:
		return b.text
	case BodyBytes:
		if s, ok := transcode(b.data, contentType); ok {
			return s
		}
		return string(b.data)
	}
	return ""
}

func transcode(data []byte, contentType string) (string, bool) {
	if !contenttype.IsTextual(contentType) {
		return "", false
	}
	charset := contenttype.Charset(contentType)
	if charset == "" || charset == "utf-8" || charset == "utf8" || charset == "us-ascii" {
		return "", false
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// String renders a short description, not the content.
func (b Body) String() string {
	if b.kind == BodyAbsent {
		return "<no body>"
	}
	return fmt.Sprintf("<%s body, %d bytes>", b.kind, b.Len())
}

// Preview returns up to n bytes of the canonical form, cut at a rune boundary.
func (b Body) Preview(contentType string, n int) string {
	s := b.Canonical(contentType)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
