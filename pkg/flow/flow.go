package flow

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

// Direction selects the request or response half of a flow.
type Direction string

const (
	DirRequest  Direction = "request"
	DirResponse Direction = "response"
)

// ParseDirection maps user input to a Direction. Anything that is not
// "request" (case-insensitive) selects the response.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirRequest)) {
		return DirRequest
	}
	return DirResponse
}

// Headers is an ordered slice of header name/value pairs.
type Headers [][]string

// Get returns the first value for the given header name (case-insensitive).
// Returns an empty string if the header is not found.
func (h Headers) Get(name string) string {
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			return pair[1]
		}
	}
	return ""
}

// Values returns all values for the given header name (case-insensitive).
func (h Headers) Values(name string) []string {
	var values []string
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			values = append(values, pair[1])
		}
	}
	return values
}

// Has reports whether the header is present, even with an empty value.
func (h Headers) Has(name string) bool {
	for _, pair := range h {
		if len(pair) >= 2 && strings.EqualFold(pair[0], name) {
			return true
		}
	}
	return false
}

// HeadersFromMap builds Headers from a map. Pairs are sorted by name so the
// result is deterministic.
func HeadersFromMap(m map[string]string) Headers {
	if m == nil {
		return nil
	}
	h := make(Headers, 0, len(m))
	for k, v := range m {
		h = append(h, []string{k, v})
	}
	slices.SortFunc(h, func(a, b []string) int {
		return strings.Compare(strings.ToLower(a[0]), strings.ToLower(b[0]))
	})
	return h
}

// Message is one direction of an exchange.
type Message struct {
	Headers Headers `json:"headers"`
	Body    Body    `json:"-"`
}

// Flow is one captured request/response exchange.
type Flow struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Method      string    `json:"method"`
	Scheme      string    `json:"scheme,omitempty"`
	Domain      string    `json:"domain"`
	Path        string    `json:"path,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	Request     *Message  `json:"request,omitempty"`
	Response    *Message  `json:"response,omitempty"`
	Tags        []string  `json:"tags,omitempty"`

	// Derived by the enricher.
	AppName     string `json:"app_name,omitempty"`
	AppIcon     string `json:"app_icon,omitempty"`
	AppCategory string `json:"app_category,omitempty"`
}

// New builds a Flow from a URL, filling Scheme, Domain and Path.
// An unparseable URL is kept verbatim with the other fields left empty.
func New(id, method, rawURL string) *Flow {
	f := &Flow{ID: id, Method: method, URL: rawURL}
	if u, err := url.Parse(rawURL); err == nil {
		f.Scheme = u.Scheme
		f.Domain = u.Hostname()
		f.Path = u.Path
	}
	return f
}

// Message returns the message for a direction, or nil.
func (f *Flow) Message(dir Direction) *Message {
	if dir == DirRequest {
		return f.Request
	}
	return f.Response
}

// UserAgent returns the request User-Agent, or "".
func (f *Flow) UserAgent() string {
	if f.Request == nil {
		return ""
	}
	return f.Request.Headers.Get("User-Agent")
}

// RequestHeaders returns the request headers, or nil when there is no request.
func (f *Flow) RequestHeaders() Headers {
	if f.Request == nil {
		return nil
	}
	return f.Request.Headers
}

// ContentTypeFor returns the declared content type for a direction, falling
// back to the flow-level ContentType.
func (f *Flow) ContentTypeFor(dir Direction) string {
	if m := f.Message(dir); m != nil {
		if ct := m.Headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}
	return f.ContentType
}

// Clone returns a copy of f that can have its derived fields changed without
// affecting the original. Messages and tags are shared.
func (f *Flow) Clone() *Flow {
	c := *f
	return &c
}

// AddTag adds a tag if it is not already present.
func (f *Flow) AddTag(tag string) {
	for _, t := range f.Tags {
		if t == tag {
			return
		}
	}
	f.Tags = append(f.Tags, tag)
}
