package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
)

// EnrichEntryInput is the input for flowlens_enrich_entry.
type EnrichEntryInput struct {
	SessionID       string `json:"session_id,omitempty" jsonschema:"Session ID (default: active)"`
	EntryID         string `json:"entry_id" jsonschema:"Entry ID to enrich"`
	Direction       string `json:"direction,omitempty" jsonschema:"Body to decode: request or response (default: response)"`
	IncludeDecoding bool   `json:"include_decoding,omitempty" jsonschema:"Run every decoder over the selected body and include the report"`
	JQ              string `json:"jq,omitempty" jsonschema:"Optional jq expression run on the decoded body. Implies include_decoding"`
}

// EnrichEntryOutput is the output for flowlens_enrich_entry.
type EnrichEntryOutput struct {
	Entry     EntrySummary   `json:"entry"`
	Indexed   bool           `json:"indexed"`
	Direction string         `json:"direction"`
	Decoding  *decode.Report `json:"decoding,omitempty"`
	HexView   string         `json:"hex_view,omitempty"`
	JQ        *query.Result  `json:"jq,omitempty"`
	JQError   string         `json:"jq_error,omitempty"`
}

// ToolEnrichEntry returns an entry with its app, resource type and,
// optionally, its decoded body.
func ToolEnrichEntry(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input EnrichEntryInput) (*sdkmcp.CallToolResult, EnrichEntryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input EnrichEntryInput) (*sdkmcp.CallToolResult, EnrichEntryOutput, error) {
		if input.EntryID == "" {
			return nil, EnrichEntryOutput{}, ErrInvalidInput("entry_id is required")
		}
		if input.JQ != "" {
			if err := d.Query.Validate(input.JQ); err != nil {
				return nil, EnrichEntryOutput{}, ErrInvalidInput(err.Error())
			}
		}

		rec, indexed, err := d.FetchFlow(ctx, sessionOrActive(input.SessionID), input.EntryID)
		if err != nil {
			return nil, EnrichEntryOutput{}, err
		}

		dir := flow.ParseDirection(input.Direction)
		output := EnrichEntryOutput{
			Entry:     BuildEntrySummary(rec),
			Indexed:   indexed,
			Direction: string(dir),
		}
		if !input.IncludeDecoding && input.JQ == "" {
			return nil, output, nil
		}

		report := d.Enricher.DecodeBody(rec.Flow, dir)
		output.Decoding = &report

		if m := rec.Flow.Message(dir); m != nil {
			_, output.HexView = hexViewFor(m.Body, rec.Flow.ContentTypeFor(dir), d.Config.HexViewMaxLines)
			if input.JQ != "" {
				content := m.Body.Canonical(rec.Flow.ContentTypeFor(dir))
				output.JQ, output.JQError = d.runJQ(ctx, report, content, input.JQ)
			}
		} else if input.JQ != "" {
			output.JQError = "entry has no " + string(dir) + " message"
		}
		return nil, output, nil
	}
}
