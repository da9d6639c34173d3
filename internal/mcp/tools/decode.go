package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/pkg/contenttype"
	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
)

// Content encodings accepted by flowlens_decode.
const (
	EncodingText   = "text"
	EncodingBase64 = "base64"
)

const defaultJQMaxResults = 100

// DecodeInput is the input for flowlens_decode.
type DecodeInput struct {
	Content         string `json:"content" jsonschema:"The content to decode"`
	ContentEncoding string `json:"content_encoding,omitempty" jsonschema:"How content is transported: text (default) or base64 for raw bytes"`
	ContentType     string `json:"content_type,omitempty" jsonschema:"Content-Type of the body. Selects which decoders run"`
	JQ              string `json:"jq,omitempty" jsonschema:"Optional jq expression run on the best decoding when it is JSON"`
}

// DecodeOutput is the output for flowlens_decode.
type DecodeOutput struct {
	Report  *decode.Report `json:"report"`
	Binary  bool           `json:"binary"`
	HexView string         `json:"hex_view,omitempty"`
	JQ      *query.Result  `json:"jq,omitempty"`
	JQError string         `json:"jq_error,omitempty"`
}

// ToolDecode runs every applicable decoder over a piece of content.
func ToolDecode(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DecodeInput) (*sdkmcp.CallToolResult, DecodeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DecodeInput) (*sdkmcp.CallToolResult, DecodeOutput, error) {
		var body flow.Body
		switch strings.ToLower(input.ContentEncoding) {
		case "", EncodingText:
			body = flow.TextBody(input.Content)
		case EncodingBase64:
			raw, err := base64.StdEncoding.DecodeString(input.Content)
			if err != nil {
				return nil, DecodeOutput{}, ErrInvalidInput(fmt.Sprintf("content is not valid base64: %v", err))
			}
			body = flow.BytesBody(raw)
		default:
			return nil, DecodeOutput{}, ErrInvalidInput(fmt.Sprintf("unknown content_encoding %q: use text or base64", input.ContentEncoding))
		}

		if input.JQ != "" {
			if err := d.Query.Validate(input.JQ); err != nil {
				return nil, DecodeOutput{}, ErrInvalidInput(err.Error())
			}
		}

		content := body.Canonical(input.ContentType)
		report := d.Enricher.Engine().Analyze(content, input.ContentType)

		output := DecodeOutput{Report: &report}
		output.Binary, output.HexView = hexViewFor(body, input.ContentType, d.Config.HexViewMaxLines)
		if input.JQ != "" {
			output.JQ, output.JQError = d.runJQ(ctx, report, content, input.JQ)
		}
		return nil, output, nil
	}
}

// hexViewFor renders binary bodies as a hex dump.
func hexViewFor(body flow.Body, contentType string, maxLines int) (bool, string) {
	data := body.Bytes()
	if len(data) == 0 || !contenttype.IsBinary(contentType, data) {
		return false, ""
	}
	return true, decode.HexView(data, maxLines)
}

// runJQ queries the best successful decoding, or the content itself when
// nothing decoded. Bodies that are not JSON report the failure in the second
// return value instead of failing the tool call.
func (d *Deps) runJQ(ctx context.Context, report decode.Report, content, expr string) (*query.Result, string) {
	target := content
	if report.Best.Success {
		target = report.Best.Content
	}
	res, err := d.Query.Query(ctx, []byte(target), expr, query.Options{
		MaxResults: defaultJQMaxResults,
		Preview:    &query.DefaultPreview,
	})
	if err != nil {
		return nil, err.Error()
	}
	return res, ""
}
