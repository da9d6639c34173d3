// Package mcpsrv embeds the flowlens MCP server.
//
// The server pulls captured HTTP traffic from the powhttp Data API, attributes
// each flow to an application and category, tags its resource type and
// decodes opaque bodies on demand. Everything it knows is exposed as
// flowlens_* tools, flowlens:// resources and two prompts.
//
// Run it with the environment configuration:
//
//	srv, err := mcpsrv.NewServer()
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
//
// Options override single settings, for example to classify with a site
// specific rule file ahead of the built-in rules:
//
//	srv, err := mcpsrv.NewServer(
//	    mcpsrv.WithBaseURL("http://localhost:7777"),
//	    mcpsrv.WithRulesFile("/etc/flowlens/rules.yaml", "prepend"),
//	    mcpsrv.WithLogFile("/var/log/flowlens-mcp.log"),
//	)
//
// Extra tools are plain SDK handlers. WithDepsTool hands them the store and
// enricher the builtin tools use, so custom tools see the same indexed
// flows:
//
//	srv, err := mcpsrv.NewServer(mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "count_category", Description: "Count entries in a category"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, CategoryInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, _ *mcp.CallToolRequest, in CategoryInput) (*mcp.CallToolResult, CountOutput, error) {
//	            n := len(d.Store.Select(in.SessionID, store.Filter{Category: in.Category}))
//	            return nil, CountOutput{Count: n}, nil
//	        }
//	    },
//	))
package mcpsrv
