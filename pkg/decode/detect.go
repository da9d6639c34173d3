package decode

import (
	"regexp"
	"strings"
)

var (
	percentEscape = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	htmlEntity    = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	unicodeShape  = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	hexShape      = regexp.MustCompile(`^[0-9a-fA-F\s\-:]+$`)
)

// likelyBase64MinLen is the length content must exceed before a base64
// shape counts as evidence; short words are valid base64 too.
const likelyBase64MinLen = 100

// likelyHexMinLen plays the same role for hex-shaped content.
const likelyHexMinLen = 20

// IsLikelyEncoded is a cheap heuristic for whether content is worth running
// through the engine. The content type does not influence the answer.
func IsLikelyEncoded(content, _ string) bool {
	if base64Shape.MatchString(strings.TrimSpace(content)) && len(content) > likelyBase64MinLen {
		return true
	}
	if strings.Contains(content, "%") && percentEscape.MatchString(content) {
		return true
	}
	if strings.Contains(content, "&") && htmlEntity.MatchString(content) {
		return true
	}
	if strings.Contains(content, `\u`) && unicodeShape.MatchString(content) {
		return true
	}
	if len(content) > likelyHexMinLen && hexShape.MatchString(content) {
		return true
	}
	return hasGzipMagic(content)
}
