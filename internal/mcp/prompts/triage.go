package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleTriageTraffic implements the traffic triage workflow.
func HandleTriageTraffic(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var host, category string
		if args := req.Params.Arguments; args != nil {
			host = args["host"]
			category = args["category"]
		}

		filters := []string{}
		if host != "" {
			filters = append(filters, fmt.Sprintf("host: %q", host))
		}
		if category != "" {
			filters = append(filters, fmt.Sprintf("category: %q", category))
		}
		filterArgs := strings.Join(filters, ", ")
		if filterArgs != "" {
			filterArgs = ", " + filterArgs
		}

		var sb strings.Builder

		sb.WriteString("# Triage Captured Traffic\n\n")
		sb.WriteString("You are a network analyst reviewing an HTTP capture. ")
		sb.WriteString("Your goal is to explain which applications produced the traffic, what kinds of resources they loaded, and what any opaque payloads contain.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Pick a session** - `flowlens_sessions_list` shows entry counts. The active session is used when `session_id` is omitted\n\n")
		sb.WriteString("2. **Break down by app** - Group by category first, then by app inside the interesting categories\n")
		sb.WriteString("   - Analytics and Infrastructure categories are usually third-party noise or static assets\n")
		sb.WriteString("   - `Unknown App` groups are hosts no rule covers; group them by host next\n\n")
		sb.WriteString("3. **Break down by resource type** - Within an app, `fetch` and `script-or-data` entries carry the API traffic; `document`, `stylesheet`, `image` and `font` are page assets\n\n")
		sb.WriteString("4. **Inspect examples** - Enrich one or two example entries per interesting group with `include_decoding: true`\n")
		sb.WriteString("   - `likely_encoded: true` with a failed best decoding often means gzip or an encrypted blob\n")
		sb.WriteString("   - For JSON bodies, use `jq` to pull out only the fields that matter\n\n")
		sb.WriteString("5. **Decode loose strings** - Tokens, cookies and query values can go through `flowlens_decode` directly\n\n")

		sb.WriteString("## Suggested Tools\n\n")
		sb.WriteString("```\n")
		fmt.Fprintf(&sb, "flowlens_group_entries(by: \"category\"%s)\n", filterArgs)
		fmt.Fprintf(&sb, "flowlens_group_entries(by: \"app\"%s)\n", filterArgs)
		fmt.Fprintf(&sb, "flowlens_group_entries(by: \"resource_type\"%s)\n", filterArgs)
		sb.WriteString("flowlens_enrich_entry(entry_id: \"<example id>\", include_decoding: true)\n")
		sb.WriteString("```\n\n")

		sb.WriteString("## Output\n\n")
		sb.WriteString("Summarize per app: category, request count, dominant resource types, and anything notable found in decoded bodies. ")
		sb.WriteString("Call out entries whose app looks misattributed and give the `stage` that classified them.")
		if cfg.CustomRules {
			sb.WriteString(" Custom app rules are loaded, so check `flowlens://rules` before assuming a built-in rule decided.")
		}
		sb.WriteString("\n")

		return &sdkmcp.GetPromptResult{
			Description: "Traffic triage workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
