package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/mcp/tools"
	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/rules"
)

// Resource URI scheme: flowlens://
// Supported URIs:
//   flowlens://entry/{session}/{entry}
//   flowlens://catalog
//   flowlens://rules
//   flowlens://rules/schema

const (
	uriScheme      = "flowlens://"
	uriCatalog     = uriScheme + "catalog"
	uriRules       = uriScheme + "rules"
	uriRulesSchema = uriScheme + "rules/schema"
	mimeSchemaJSON = "application/schema+json"
)

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "entry/{session}/{entry}",
		Name:        "Enriched Entry",
		Description: "Entry with headers and the best decoding of both bodies. Higher context cost than flowlens_enrich_entry; fetch only when you need headers or both bodies at once.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceEntry)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriCatalog,
		Name:        "Classification Catalog",
		Description: "App categories, resource types and grouping facets. Same content as the flowlens_catalog tool.",
		MIMEType:    tools.MimeJSON,
	}, s.handleResourceCatalog)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriRules,
		Name:        "Active App Rules",
		Description: "The ordered app detection rules in effect, built-in and file rules combined. The first matching rule wins.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"user", "assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceRules)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriRulesSchema,
		Name:        "App Rules File Schema",
		Description: "JSON Schema that APP_RULES_FILE documents are validated against",
		MIMEType:    mimeSchemaJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"user"},
			Priority: 0.2,
		},
	}, s.handleResourceRulesSchema)
}

// entryResource is the payload of flowlens://entry.
type entryResource struct {
	Entry           tools.EntrySummary `json:"entry"`
	RequestHeaders  flow.Headers       `json:"request_headers,omitempty"`
	ResponseHeaders flow.Headers       `json:"response_headers,omitempty"`
	Request         *tools.BodyView    `json:"request,omitempty"`
	Response        *tools.BodyView    `json:"response,omitempty"`
}

// rulesResource is the payload of flowlens://rules.
type rulesResource struct {
	Source string       `json:"source"`
	Mode   string       `json:"mode,omitempty"`
	Count  int          `json:"count"`
	Rules  []rules.Rule `json:"rules"`
}

// Resource handlers

func (s *Server) handleResourceEntry(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	rec, _, err := s.deps.FetchFlow(ctx, params["session"], params["entry"])
	if err != nil {
		var coded *tools.CodedError
		if errors.As(err, &coded) && coded.Code == tools.ErrCodeNotFound {
			return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, err
	}

	f := rec.Flow
	content := entryResource{
		Entry:    tools.BuildEntrySummary(rec),
		Request:  tools.BuildBodyView(s.deps, f, flow.DirRequest),
		Response: tools.BuildBodyView(s.deps, f, flow.DirResponse),
	}
	if f.Request != nil {
		content.RequestHeaders = f.Request.Headers
	}
	if f.Response != nil {
		content.ResponseHeaders = f.Response.Headers
	}
	return toResourceResult(req.Params.URI, tools.MimeJSON, content)
}

func (s *Server) handleResourceCatalog(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return toResourceResult(req.Params.URI, tools.MimeJSON, tools.BuildCatalog(s.deps))
}

func (s *Server) handleResourceRules(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	content := rulesResource{Source: "built-in"}
	if file := s.deps.Config.AppRulesFile; file != "" {
		content.Source = file
		content.Mode = s.deps.Config.AppRulesMode
	}
	content.Rules = s.deps.Enricher.Classifier().Rules().Rules()
	content.Count = len(content.Rules)
	return toResourceResult(req.Params.URI, tools.MimeJSON, content)
}

func (s *Server) handleResourceRulesSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	schema, err := rules.Schema()
	if err != nil {
		return nil, fmt.Errorf("building rules schema: %w", err)
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: mimeSchemaJSON, Text: string(schema)},
		},
	}, nil
}

// Helper functions

// parseResourceURI extracts parameters from a flowlens:// template URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil, tools.ErrInvalidInput("empty resource path")
	}

	params := make(map[string]string)
	switch resourceType := parts[0]; resourceType {
	case "entry":
		if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
			return nil, tools.ErrInvalidInput("entry URI requires session and entry ID")
		}
		params["session"] = parts[1]
		params["entry"] = parts[2]
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", resourceType))
	}

	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri, mimeType string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeType,
				Text:     string(data),
			},
		},
	}, nil
}
