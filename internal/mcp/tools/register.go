package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_sessions_list",
		Description: "List capture sessions with their entry counts and how many entries are indexed for grouping",
	}, ToolSessionsList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_classify_app",
		Description: "Identify the application behind a host (e.g. GitHub, Slack, Google Analytics) from the domain, User-Agent and request headers. Returns name, icon, category and which stage decided: user_agent, rule, domain_shape or default. Domains match by plain substring in either direction, so short rule domains can match unrelated hosts.",
	}, ToolClassifyApp(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_classify_request_type",
		Description: "Bucket a request into a network-inspector resource type (fetch, document, stylesheet, script-or-data, font, image, media, wasm, other) from its URL, response Content-Type and request headers",
	}, ToolClassifyRequestType(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_decode",
		Description: "Try base64, URL, HTML entity, \\uXXXX, hex and gzip decoders on a piece of content and report every attempt plus the best success. Pass content_encoding=base64 for raw bytes; binary content also gets a hex view. Optional jq runs on the best decoding when it is JSON.",
	}, ToolDecode(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_enrich_entry",
		Description: "Get a captured entry with its detected app, category and resource type. Set include_decoding=true to decode the request or response body; set jq to query the decoded JSON body.",
	}, ToolEnrichEntry(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_group_entries",
		Description: "Group a session's entries by category, app, resource_type, host or method. Returns groups ordered by count with example entry IDs. Filters narrow the entries before grouping; host accepts '*.example.com'. Pass an example entry_id to flowlens_enrich_entry for details.",
	}, ToolGroupEntries(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "flowlens_catalog",
		Description: "List the app categories, resource types and grouping facets flowlens can produce, with the number of active app rules",
	}, ToolCatalog(d))
}
