package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/pkg/appdetect"
	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/reqtype"
)

// ClassifyAppInput is the input for flowlens_classify_app.
type ClassifyAppInput struct {
	Domain    string            `json:"domain" jsonschema:"Host of the request, e.g. www.github.com or api.example.com:8443"`
	UserAgent string            `json:"user_agent,omitempty" jsonschema:"Request User-Agent header. When empty, rules that require a user agent are not narrowed by it"`
	Headers   map[string]string `json:"headers,omitempty" jsonschema:"Request headers. When omitted, rules that require headers are not narrowed by them"`
}

// ClassifyAppOutput is the output for flowlens_classify_app.
type ClassifyAppOutput struct {
	Name             string `json:"name"`
	Icon             string `json:"icon"`
	Category         string `json:"category"`
	Stage            string `json:"stage"`
	RuleIndex        int    `json:"rule_index"`
	NormalizedDomain string `json:"normalized_domain"`
}

// ClassifyRequestTypeInput is the input for flowlens_classify_request_type.
type ClassifyRequestTypeInput struct {
	URL         string            `json:"url" jsonschema:"Request URL or path"`
	ContentType string            `json:"content_type,omitempty" jsonschema:"Response Content-Type"`
	Headers     map[string]string `json:"headers,omitempty" jsonschema:"Request headers (Accept, Sec-Fetch-Dest, X-Requested-With)"`
}

// ClassifyRequestTypeOutput is the output for flowlens_classify_request_type.
type ClassifyRequestTypeOutput struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// ToolClassifyApp identifies the application behind a host.
func ToolClassifyApp(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClassifyAppInput) (*sdkmcp.CallToolResult, ClassifyAppOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClassifyAppInput) (*sdkmcp.CallToolResult, ClassifyAppOutput, error) {
		if strings.TrimSpace(input.Domain) == "" {
			return nil, ClassifyAppOutput{}, ErrInvalidInput("domain is required")
		}

		m := d.Enricher.Classifier().Explain(input.Domain, input.UserAgent, flow.HeadersFromMap(input.Headers))
		return nil, ClassifyAppOutput{
			Name:             m.Name,
			Icon:             m.Icon,
			Category:         m.Category,
			Stage:            string(m.Stage),
			RuleIndex:        m.RuleIndex,
			NormalizedDomain: appdetect.NormalizeDomain(input.Domain),
		}, nil
	}
}

// ToolClassifyRequestType buckets a request into a resource type.
func ToolClassifyRequestType(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClassifyRequestTypeInput) (*sdkmcp.CallToolResult, ClassifyRequestTypeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClassifyRequestTypeInput) (*sdkmcp.CallToolResult, ClassifyRequestTypeOutput, error) {
		if input.URL == "" && input.ContentType == "" {
			return nil, ClassifyRequestTypeOutput{}, ErrInvalidInput("url or content_type is required")
		}

		info := reqtype.Lookup(reqtype.Classify(input.URL, input.ContentType, flow.HeadersFromMap(input.Headers)))
		return nil, ClassifyRequestTypeOutput{
			Tag:   string(info.Tag),
			Label: info.Label,
			Icon:  info.Icon,
			Color: info.Color,
		}, nil
	}
}
