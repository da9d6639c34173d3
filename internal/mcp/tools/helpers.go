// Package tools contains the flowlens MCP tool implementations.
package tools

import (
	"github.com/usestring/flowlens/internal/store"
	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
)

// MIME type constant.
const MimeJSON = "application/json"

// EntrySummary is the compact view of an enriched flow.
type EntrySummary struct {
	EntryID       string   `json:"entry_id"`
	URL           string   `json:"url"`
	Method        string   `json:"method"`
	Host          string   `json:"host"`
	StatusCode    int      `json:"status_code,omitempty"`
	ContentType   string   `json:"content_type,omitempty"`
	StartedAtMs   int64    `json:"started_at_ms,omitempty"`
	AppName       string   `json:"app_name"`
	AppIcon       string   `json:"app_icon"`
	AppCategory   string   `json:"app_category"`
	ResourceType  string   `json:"resource_type"`
	RequestBytes  int      `json:"request_bytes"`
	ResponseBytes int      `json:"response_bytes"`
	Tags          []string `json:"tags,omitzero"`
}

// BuildEntrySummary creates an EntrySummary from a store record.
func BuildEntrySummary(rec store.Record) EntrySummary {
	f := rec.Flow
	return EntrySummary{
		EntryID:       f.ID,
		URL:           f.URL,
		Method:        f.Method,
		Host:          f.Domain,
		StatusCode:    f.StatusCode,
		ContentType:   f.ContentType,
		StartedAtMs:   startedAtMs(f),
		AppName:       f.AppName,
		AppIcon:       f.AppIcon,
		AppCategory:   f.AppCategory,
		ResourceType:  string(rec.ResourceType),
		RequestBytes:  bodyLen(f.Request),
		ResponseBytes: bodyLen(f.Response),
		Tags:          f.Tags,
	}
}

func bodyLen(m *flow.Message) int {
	if m == nil {
		return 0
	}
	return m.Body.Len()
}

func startedAtMs(f *flow.Flow) int64 {
	if f.StartedAt.IsZero() {
		return 0
	}
	return f.StartedAt.UnixMilli()
}

// BodyView is the best decoding of one direction of a flow.
type BodyView struct {
	Bytes    int           `json:"bytes"`
	Decoding decode.Result `json:"decoding"`
	HexView  string        `json:"hex_view,omitempty"`
}

// BuildBodyView decodes one direction of f. It returns nil when the message
// is missing or has no body.
func BuildBodyView(d *Deps, f *flow.Flow, dir flow.Direction) *BodyView {
	m := f.Message(dir)
	if m == nil || m.Body.IsAbsent() {
		return nil
	}
	report := d.Enricher.DecodeBody(f, dir)
	_, hexView := hexViewFor(m.Body, f.ContentTypeFor(dir), d.Config.HexViewMaxLines)
	return &BodyView{
		Bytes:    m.Body.Len(),
		Decoding: report.Best,
		HexView:  hexView,
	}
}
