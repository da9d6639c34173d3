package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/config"
)

// serverConfig collects option values before NewServer wires the server.
// Empty strings leave the environment configuration in place.
type serverConfig struct {
	config     *config.Config
	httpClient *http.Client

	baseURL     string
	metricsAddr string
	rulesFile   string
	rulesMode   string
	logLevel    string
	logFile     string

	noTools   bool
	noPrompts bool

	// registrations run after the builtins, in option order
	registrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel overrides LOG_LEVEL (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) { cfg.logLevel = level }
}

// WithLogFile overrides LOG_FILE. The file is rotated by size.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) { cfg.logFile = path }
}

// WithHTTPClient sets the HTTP client used to reach the capture API. It
// replaces the default client built from HTTP_CLIENT_TIMEOUT_MS.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) { cfg.httpClient = c }
}

// WithBaseURL overrides POWHTTP_BASE_URL.
func WithBaseURL(baseURL string) Option {
	return func(cfg *serverConfig) { cfg.baseURL = baseURL }
}

// WithMetricsAddr overrides METRICS_ADDR, the listen address of the
// Prometheus endpoint started by Run.
func WithMetricsAddr(addr string) Option {
	return func(cfg *serverConfig) { cfg.metricsAddr = addr }
}

// WithRulesFile loads app rules from a YAML or JSON file, overriding
// APP_RULES_FILE and APP_RULES_MODE. Mode is "prepend" (file rules shadow
// the built-in ones) or "replace".
func WithRulesFile(path, mode string) Option {
	return func(cfg *serverConfig) {
		cfg.rulesFile = path
		cfg.rulesMode = mode
	}
}

// WithoutBuiltinTools leaves out the flowlens_* tools, typically to serve
// only tools added with WithTool or WithDepsTool.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) { cfg.noTools = true }
}

// WithoutBuiltinPrompts leaves out flowlens_guide and triage_traffic.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) { cfg.noPrompts = true }
}

// WithTool registers a tool whose handler follows the SDK's typed pattern.
// In is decoded from the call arguments and Out becomes the structured
// result; both get JSON schemas inferred by the SDK.
//
//	type HostInput struct {
//	    Host string `json:"host"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "echo_host"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, in HostInput) (*mcp.CallToolResult, HostInput, error) {
//	        return nil, in, nil
//	    })
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool is WithTool for handlers that need the store, enricher or
// query engine. build runs once, after the dependencies exist.
//
//	mcpsrv.WithDepsTool(&mcp.Tool{Name: "count_app"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, AppInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in AppInput) (*mcp.CallToolResult, CountOutput, error) {
//	            recs := d.Store.Select("active", store.Filter{App: in.App})
//	            return nil, CountOutput{Count: len(recs)}, nil
//	        }
//	    })
func WithDepsTool[In, Out any](tool *mcp.Tool, build func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, d *Deps) {
			AddTool(srv, tool, build(d))
		})
	}
}

// WithPrompt registers a prompt next to the builtin ones.
func WithPrompt(prompt *mcp.Prompt, handler mcp.PromptHandler) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a resource template, for example to expose
// flows under a custom URI scheme:
//
//	mcpsrv.WithResourceTemplate(
//	    &mcp.ResourceTemplate{URITemplate: "myapp://flow/{id}", Name: "flow"},
//	    func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
//	        return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
//	            {URI: req.Params.URI, MIMEType: "application/json", Text: `{}`},
//	        }}, nil
//	    })
func WithResourceTemplate(template *mcp.ResourceTemplate, handler mcp.ResourceHandler) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server, _ *Deps) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
