package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/mcp/tools"
)

// AddTool registers a tool after checking that the zero value of Out
// satisfies the output schema the SDK infers for it. A nil slice field
// marshals as null while the schema demands an array, so such a tool would
// fail on every empty result; AddTool panics at registration instead.
//
// WithTool and WithDepsTool use it; call it directly when registering
// through WithCustomRegistration-style callbacks.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
