package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "flowlens_guide",
		Description: "Short guide to the flowlens tools: which one answers which question, and how to keep tool output small.",
	}, HandleUsageGuide(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "triage_traffic",
		Description: "RECOMMENDED: Break captured traffic down by app and resource type, then drill into the interesting groups and decode opaque bodies.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "host",
				Description: "Focus on a host. Use '*.example.com' to include subdomains",
				Required:    false,
			},
			{
				Name:        "category",
				Description: "Focus on one app category, e.g. Development or Analytics",
				Required:    false,
			},
		},
	}, HandleTriageTraffic(cfg))
}
