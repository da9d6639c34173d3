// Package decode makes best-effort attempts at revealing opaque body content:
// base64, percent-encoding, HTML entities, \uXXXX escapes, hex, and gzip
// signature detection.
//
// Every strategy reports a [Result] instead of an error. The [Engine] picks
// which strategies apply to a content type, runs them, and selects the first
// success.
package decode

import (
	"fmt"
	"log/slog"
	"strings"
)

// Strategy is one named decoding attempt.
type Strategy struct {
	Method      string
	Description string
	Decode      func(string) Result
}

// Built-in strategies.
var (
	Base64       = Strategy{MethodBase64, "Base64 decoding", DecodeBase64}
	URL          = Strategy{MethodURL, "URL percent-decoding", DecodeURL}
	HTML         = Strategy{MethodHTML, "HTML entity decoding", DecodeHTML}
	Unicode      = Strategy{MethodUnicode, `\uXXXX escape decoding`, DecodeUnicode}
	Hex          = Strategy{MethodHex, "Hexadecimal decoding", DecodeHex}
	Gzip         = Strategy{MethodGzip, "Gzip signature detection", DetectGzip}
	Base64ToGzip = Strategy{MethodBase64Gzip, "Base64 decoding, then gzip", DecodeBase64ThenGzip}
	GzipToBase64 = Strategy{MethodGzipBase64, "Gzip, then base64 decoding", DecodeGzipThenBase64}
)

// Report bundles every attempt for a piece of content.
type Report struct {
	Results       []Result `json:"results"`
	Best          Result   `json:"best"`
	LikelyEncoded bool     `json:"likely_encoded"`
}

// Engine selects and runs strategies. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	extra  []Strategy
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategy adds a strategy that runs for every content type, after the
// built-in text strategies and before the gzip group.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		if s.Decode != nil {
			e.extra = append(e.extra, s)
		}
	}
}

// WithLogger sets the logger used to report strategies that panic.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attempts returns the strategies that apply to contentType, in order.
func (e *Engine) Attempts(contentType string) []Strategy {
	ct := strings.ToLower(contentType)

	attempts := []Strategy{Base64, URL}
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		attempts = append(attempts, HTML)
	}
	if strings.Contains(ct, "json") || strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript") {
		attempts = append(attempts, Unicode)
	}
	if strings.Contains(ct, "octet-stream") || strings.Contains(ct, "binary") || !strings.Contains(ct, "text/") {
		attempts = append(attempts, Hex)
	}
	attempts = append(attempts, e.extra...)
	return append(attempts, Gzip, Base64ToGzip, GzipToBase64)
}

// TryAll runs every applicable strategy.
func (e *Engine) TryAll(content, contentType string) []Result {
	attempts := e.Attempts(contentType)
	results := make([]Result, 0, len(attempts))
	for _, s := range attempts {
		results = append(results, e.run(s, content))
	}
	return results
}

// Best returns the first successful result, or a "none" failure carrying
// the original content.
func (e *Engine) Best(content, contentType string) Result {
	for _, s := range e.Attempts(contentType) {
		if r := e.run(s, content); r.Success {
			return r
		}
	}
	return fail(MethodNone, content, ReasonNoSuitableDecoding)
}

// Analyze runs every strategy and reports the best result and whether the
// content looks encoded.
func (e *Engine) Analyze(content, contentType string) Report {
	results := e.TryAll(content, contentType)
	best := fail(MethodNone, content, ReasonNoSuitableDecoding)
	for _, r := range results {
		if r.Success {
			best = r
			break
		}
	}
	return Report{
		Results:       results,
		Best:          best,
		LikelyEncoded: IsLikelyEncoded(content, contentType),
	}
}

func (e *Engine) run(s Strategy, content string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Debug("decode strategy panicked",
				slog.String("method", s.Method),
				slog.Any("panic", p),
			)
			res = fail(s.Method, content, fmt.Sprintf("decoder panicked: %v", p))
		}
	}()
	res = s.Decode(content)
	if res.Method == "" {
		res.Method = s.Method
	}
	return res
}
