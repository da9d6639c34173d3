package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/store"
	"github.com/usestring/flowlens/pkg/reqtype"
)

// GroupEntriesInput is the input for flowlens_group_entries.
type GroupEntriesInput struct {
	SessionID    string `json:"session_id,omitempty" jsonschema:"Session ID (default: active)"`
	By           string `json:"by,omitempty" jsonschema:"Facet to group by: category (default), app, resource_type, host or method"`
	Category     string `json:"category,omitempty" jsonschema:"Only entries in this app category, e.g. Development"`
	App          string `json:"app,omitempty" jsonschema:"Only entries attributed to this app name, e.g. GitHub"`
	Host         string `json:"host,omitempty" jsonschema:"Only entries for this host. Prefix with '*.' to include subdomains"`
	Method       string `json:"method,omitempty" jsonschema:"Only entries with this HTTP method"`
	ResourceType string `json:"resource_type,omitempty" jsonschema:"Only entries of this resource type, e.g. fetch or document"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max groups to return (default: 50)"`
	Examples     int    `json:"examples,omitempty" jsonschema:"Example entry IDs per group (default: 3)"`
}

// GroupEntriesOutput is the output for flowlens_group_entries.
type GroupEntriesOutput struct {
	SessionID  string        `json:"session_id"`
	By         string        `json:"by"`
	TotalCount int           `json:"total_count"`
	Groups     []store.Group `json:"groups,omitzero"`
}

// ToolGroupEntries groups a session's entries by one enrichment facet.
func ToolGroupEntries(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupEntriesInput) (*sdkmcp.CallToolResult, GroupEntriesOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GroupEntriesInput) (*sdkmcp.CallToolResult, GroupEntriesOutput, error) {
		by, err := store.ParseFacet(input.By)
		if err != nil {
			return nil, GroupEntriesOutput{}, ErrInvalidInput(fmt.Sprintf("%v: use one of %v", err, store.Facets))
		}
		if input.ResourceType != "" && !reqtype.Valid(reqtype.Tag(input.ResourceType)) {
			return nil, GroupEntriesOutput{}, ErrInvalidInput(fmt.Sprintf("unknown resource_type %q", input.ResourceType))
		}
		if input.Limit < 0 || input.Examples < 0 {
			return nil, GroupEntriesOutput{}, ErrInvalidInput("limit and examples must not be negative")
		}

		sessionID := sessionOrActive(input.SessionID)
		if err := d.refresh(ctx, sessionID); err != nil {
			return nil, GroupEntriesOutput{}, err
		}

		opts := store.GroupOptions{Limit: input.Limit, Examples: input.Examples}
		if opts.Limit == 0 {
			opts.Limit = d.Config.DefaultGroupLimit
		}
		if opts.Examples == 0 {
			opts.Examples = config.DefaultExamplesPerGroup
		}

		filter := store.Filter{
			Category:     input.Category,
			App:          input.App,
			Host:         input.Host,
			Method:       input.Method,
			ResourceType: input.ResourceType,
		}
		groups, err := d.Store.GroupBy(sessionID, by, filter, opts)
		if err != nil {
			return nil, GroupEntriesOutput{}, ErrInvalidInput(err.Error())
		}

		return nil, GroupEntriesOutput{
			SessionID:  d.Store.ResolveSession(sessionID),
			By:         string(by),
			TotalCount: d.Store.SessionSize(sessionID),
			Groups:     groups,
		}, nil
	}
}
