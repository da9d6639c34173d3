// Package reqtype sorts exchanges into the resource-type buckets a network
// inspector groups by (Fetch/XHR, Doc, CSS, JS, ...).
package reqtype

import (
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/usestring/flowlens/pkg/flow"
)

// Tag is a resource type.
type Tag string

const (
	Fetch        Tag = "fetch"
	Document     Tag = "document"
	Stylesheet   Tag = "stylesheet"
	ScriptOrData Tag = "script-or-data"
	Font         Tag = "font"
	Image        Tag = "image"
	Media        Tag = "media"
	Wasm         Tag = "wasm"
	Other        Tag = "other"
)

// Info is the display metadata for a tag.
type Info struct {
	Tag   Tag    `json:"tag"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// All returns the display table in order.
func All() []Info {
	return slices.Clone(infoTable)
}

// Lookup returns the info for tag. Unknown tags resolve to Other.
func Lookup(tag Tag) Info {
	for _, info := range infoTable {
		if info.Tag == tag {
			return info
		}
	}
	return infoTable[len(infoTable)-1]
}

// Valid reports whether tag is one of the known tags.
func Valid(tag Tag) bool {
	for _, info := range infoTable {
		if info.Tag == tag {
			return true
		}
	}
	return false
}

// Classify picks a tag from the content type, then request headers, then
// the URL path. It never fails; the fallback is Other.
func Classify(rawURL, contentType string, headers flow.Headers) Tag {
	if tag, ok := byContentType(contentType); ok {
		return tag
	}
	if tag, ok := byHeaders(headers); ok {
		return tag
	}

	p := urlPath(rawURL)
	if tag, ok := extensions[extension(p)]; ok {
		return tag
	}
	if strings.Contains(p, "/api/") || strings.Contains(p, "/ajax/") || strings.HasSuffix(p, ".xml") {
		return Fetch
	}
	return Other
}

// ClassifyFlow classifies using the response content type when a response
// exists, else the flow content type, and the request headers.
func ClassifyFlow(f *flow.Flow) Tag {
	ct := f.ContentType
	if f.Response != nil {
		ct = f.ContentTypeFor(flow.DirResponse)
	}
	return Classify(f.URL, ct, f.RequestHeaders())
}

func byContentType(contentType string) (Tag, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return "", false
	}
	for _, r := range contentTypeRules {
		for _, s := range r.contains {
			if strings.Contains(ct, s) {
				return r.tag, true
			}
		}
		for _, p := range r.prefix {
			if strings.HasPrefix(ct, p) {
				return r.tag, true
			}
		}
	}
	return "", false
}

func byHeaders(headers flow.Headers) (Tag, bool) {
	if len(headers) == 0 {
		return "", false
	}
	if strings.EqualFold(strings.TrimSpace(headers.Get("X-Requested-With")), "XMLHttpRequest") {
		return Fetch, true
	}
	accept := strings.ToLower(headers.Get("Accept"))
	if strings.Contains(accept, "text/html") {
		return "", false
	}
	switch {
	case strings.Contains(accept, "application/json"):
		return ScriptOrData, true
	case strings.Contains(accept, "application/xml"):
		return Fetch, true
	}
	return "", false
}

// urlPath returns the lowercased path of rawURL without query or fragment.
// Unparseable input is cut at the first '?' or '#'.
func urlPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return strings.ToLower(u.Path)
	}
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(p)
}

// extension returns the extension of the last path segment without the dot.
func extension(p string) string {
	return strings.TrimPrefix(path.Ext(path.Base(p)), ".")
}
