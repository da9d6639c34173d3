package decode

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Method tags.
const (
	MethodBase64     = "base64"
	MethodURL        = "url"
	MethodHTML       = "html"
	MethodUnicode    = "unicode"
	MethodHex        = "hex"
	MethodGzip       = "gzip"
	MethodBase64Gzip = "base64+gzip"
	MethodGzipBase64 = "gzip+base64"
	MethodNone       = "none"
)

// Failure reasons.
const (
	ReasonEmpty                 = "empty content"
	ReasonInvalidBase64         = "not valid base64"
	ReasonNotURLEncoded         = "content is not URL-encoded"
	ReasonInvalidUTF8           = "decoded content is not valid UTF-8"
	ReasonNoHTMLEntities        = "content contains no HTML entities"
	ReasonNoUnicodeEscapes      = `content contains no \uXXXX escapes`
	ReasonInvalidHex            = "not valid hexadecimal"
	ReasonGzipDetected          = "gzip data detected, but inflating is unavailable"
	ReasonNoGzipSignature       = "no gzip signature"
	ReasonBase64StageFailed     = "base64 stage failed"
	ReasonBase64ThenGzipPending = "base64 decoded, but the payload is gzip and inflating is unavailable"
	ReasonNoGzipAfterBase64     = "no gzip data after base64 decoding"
	ReasonGzipStageMissing      = "no gzip data detected"
	ReasonGzipThenBase64Pending = "gzip data detected, but inflating is unavailable so the base64 stage was not attempted"
	ReasonNoSuitableDecoding    = "no suitable decoding found"
)

// Result is the outcome of one decoding attempt. On failure Content echoes
// the input unless a strategy documents otherwise.
type Result struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Method  string `json:"method"`
	Reason  string `json:"reason,omitempty"`
}

func ok(method, content string) Result {
	return Result{Success: true, Content: content, Method: method}
}

func fail(method, content, reason string) Result {
	return Result{Content: content, Method: method, Reason: reason}
}

var (
	base64Shape   = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
	unicodeEscape = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	hexSeparators = regexp.MustCompile(`[\s\-:]`)
)

// DecodeBase64 decodes standard base64 with the same leniency as a browser's
// atob: padding may be omitted, and leftover bits are ignored.
func DecodeBase64(content string) Result {
	s := strings.TrimSpace(content)
	if s == "" {
		return fail(MethodBase64, content, ReasonEmpty)
	}
	if !base64Shape.MatchString(s) {
		return fail(MethodBase64, content, ReasonInvalidBase64)
	}
	if len(s)%4 == 0 {
		s = strings.TrimSuffix(s, "=")
		s = strings.TrimSuffix(s, "=")
	}
	if len(s)%4 == 1 || strings.Contains(s, "=") {
		return fail(MethodBase64, content, ReasonInvalidBase64)
	}
	out, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return fail(MethodBase64, content, fmt.Sprintf("%s: %v", ReasonInvalidBase64, err))
	}
	return ok(MethodBase64, string(out))
}

// DecodeURL percent-decodes content. '+' is left alone. The result must be
// valid UTF-8 and differ from the input.
func DecodeURL(content string) Result {
	out, err := url.PathUnescape(content)
	if err != nil {
		return fail(MethodURL, content, err.Error())
	}
	if !utf8.ValidString(out) {
		return fail(MethodURL, content, ReasonInvalidUTF8)
	}
	if out == content {
		return fail(MethodURL, content, ReasonNotURLEncoded)
	}
	return ok(MethodURL, out)
}

// DecodeHTML unescapes HTML character references.
func DecodeHTML(content string) Result {
	out := html.UnescapeString(content)
	if out == content {
		return fail(MethodHTML, content, ReasonNoHTMLEntities)
	}
	return ok(MethodHTML, out)
}

// DecodeUnicode replaces \uXXXX escapes. Adjacent escapes forming a UTF-16
// surrogate pair become one rune; lone surrogates become U+FFFD.
func DecodeUnicode(content string) Result {
	matches := unicodeEscape.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return fail(MethodUnicode, content, ReasonNoUnicodeEscapes)
	}

	unit := func(m []int) rune {
		v, _ := strconv.ParseUint(content[m[2]:m[3]], 16, 16)
		return rune(v)
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for i := 0; i < len(matches); i++ {
		m := matches[i]
		b.WriteString(content[last:m[0]])
		r := unit(m)
		switch {
		case utf16.IsSurrogate(r) && r < 0xDC00 && i+1 < len(matches) && matches[i+1][0] == m[1]:
			next := unit(matches[i+1])
			if pair := utf16.DecodeRune(r, next); pair != utf8.RuneError {
				b.WriteRune(pair)
				last = matches[i+1][1]
				i++
				continue
			}
			b.WriteRune(utf8.RuneError)
		case utf16.IsSurrogate(r):
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
		last = m[1]
	}
	b.WriteString(content[last:])
	return ok(MethodUnicode, b.String())
}

// DecodeHex decodes hex digits, ignoring whitespace, '-' and ':' separators.
func DecodeHex(content string) Result {
	clean := hexSeparators.ReplaceAllString(content, "")
	if clean == "" || len(clean)%2 != 0 {
		return fail(MethodHex, content, ReasonInvalidHex)
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		return fail(MethodHex, content, ReasonInvalidHex)
	}
	return ok(MethodHex, string(out))
}

// DetectGzip never succeeds: it only reports whether content starts with the
// gzip magic bytes.
func DetectGzip(content string) Result {
	if hasGzipMagic(content) {
		return fail(MethodGzip, content, ReasonGzipDetected)
	}
	return fail(MethodGzip, content, ReasonNoGzipSignature)
}

// DecodeBase64ThenGzip base64-decodes and checks the payload for gzip. When
// gzip is found the result carries the base64-decoded bytes.
func DecodeBase64ThenGzip(content string) Result {
	b64 := DecodeBase64(content)
	if !b64.Success {
		return fail(MethodBase64Gzip, content, ReasonBase64StageFailed+": "+b64.Reason)
	}
	if hasGzipMagic(b64.Content) {
		return fail(MethodBase64Gzip, b64.Content, ReasonBase64ThenGzipPending)
	}
	return fail(MethodBase64Gzip, content, ReasonNoGzipAfterBase64)
}

// DecodeGzipThenBase64 checks for gzip; the base64 stage is never reached
// because inflating is unavailable.
func DecodeGzipThenBase64(content string) Result {
	if !hasGzipMagic(content) {
		return fail(MethodGzipBase64, content, ReasonGzipStageMissing)
	}
	return fail(MethodGzipBase64, content, ReasonGzipThenBase64Pending)
}

func hasGzipMagic(s string) bool {
	return len(s) >= 2 && s[0] == 0x1f && s[1] == 0x8b
}
