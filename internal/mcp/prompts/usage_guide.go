package prompts

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleUsageGuide serves the tool usage guide. The rules section mentions
// the rule file only when one is loaded.
func HandleUsageGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# flowlens Tool Guide\n\n")

		sb.WriteString("## Which Tool\n\n")
		sb.WriteString("| Question | Tool |\n")
		sb.WriteString("|----------|------|\n")
		sb.WriteString("| What sessions exist? | `flowlens_sessions_list` |\n")
		sb.WriteString("| What apps or resource types make up a session? | `flowlens_group_entries` |\n")
		sb.WriteString("| What is this one entry? | `flowlens_enrich_entry` |\n")
		sb.WriteString("| What does this opaque string contain? | `flowlens_decode` |\n")
		sb.WriteString("| Which app owns this host? | `flowlens_classify_app` |\n")
		sb.WriteString("| Which values can facets take? | `flowlens_catalog` |\n")

		sb.WriteString("\n## Keeping Output Small\n")
		sb.WriteString("- `flowlens_group_entries` returns counts plus a few example entry IDs per group; raise `examples` only when needed\n")
		sb.WriteString("- `flowlens_enrich_entry` skips body decoding unless `include_decoding` or `jq` is set\n")
		sb.WriteString("- Use `jq` to pull single fields from JSON bodies instead of reading whole decodings\n")
		sb.WriteString("- The `flowlens://entry/{session}/{entry}` resource carries headers and both bodies; fetch it last\n")

		sb.WriteString("\n## App Detection\n")
		sb.WriteString("- A known client User-Agent (browsers, curl, Postman) decides first\n")
		sb.WriteString("- Then the ordered rule list; the first rule whose domain matches wins\n")
		sb.WriteString("- Domains match by plain substring in either direction, so a short rule domain such as `t.co` also matches `reddit.com`. Check `stage` and `rule_index` from `flowlens_classify_app` when a result looks wrong\n")
		sb.WriteString("- Hosts no rule covers fall back to `cdn`/`static` (Infrastructure), `api` (API) and `analytics` (Analytics) name shapes, else Unknown\n")
		if cfg.CustomRules {
			if cfg.RulesMode == "replace" {
				sb.WriteString("- A rule file replaces the built-in rules; read `flowlens://rules` for the active list\n")
			} else {
				sb.WriteString("- A rule file is prepended to the built-in rules and shadows them; read `flowlens://rules` for the active list\n")
			}
		}

		sb.WriteString("\n## Decoding\n")
		sb.WriteString("- Decoders run in order (base64, URL, then HTML entities, \\uXXXX escapes and hex when the content type allows) and the first success is `best`\n")
		sb.WriteString("- Gzip is detected but never inflated; a `gzip detected` reason means the body is compressed\n")
		sb.WriteString("- `likely_encoded` flags long base64- or hex-shaped content worth decoding\n")

		sb.WriteString("\n## JQ Quick Reference\n")
		sb.WriteString("- `.data.items[].name` - Extract from nested arrays\n")
		sb.WriteString("- `.[] | select(.type == \"product\")` - Filter array elements\n")
		sb.WriteString("- `keys` - List all top-level keys\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide to the flowlens tools",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
