package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/store"
	"github.com/usestring/flowlens/pkg/reqtype"
)

// CatalogInput is the input for flowlens_catalog.
type CatalogInput struct{}

// CatalogOutput is the output for flowlens_catalog.
type CatalogOutput struct {
	Categories    []string       `json:"categories,omitzero"`
	ResourceTypes []reqtype.Info `json:"resource_types,omitzero"`
	Facets        []string       `json:"facets,omitzero"`
	RuleCount     int            `json:"rule_count"`
}

// BuildCatalog lists the values the classifiers can produce.
func BuildCatalog(d *Deps) CatalogOutput {
	c := d.Enricher.Classifier()
	facets := make([]string, len(store.Facets))
	for i, f := range store.Facets {
		facets[i] = string(f)
	}
	return CatalogOutput{
		Categories:    c.Categories(),
		ResourceTypes: reqtype.All(),
		Facets:        facets,
		RuleCount:     c.Rules().Len(),
	}
}

// ToolCatalog returns the app categories and resource types.
func ToolCatalog(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CatalogInput) (*sdkmcp.CallToolResult, CatalogOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CatalogInput) (*sdkmcp.CallToolResult, CatalogOutput, error) {
		return nil, BuildCatalog(d), nil
	}
}
