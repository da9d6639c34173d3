// Package mcp assembles the flowlens MCP server from tools, prompts and
// resources.
package mcp

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/mcp/prompts"
	"github.com/usestring/flowlens/internal/mcp/tools"
)

// Implementation identity reported to clients.
const (
	ServerName    = "flowlens-mcp"
	ServerVersion = "0.1.0"
)

// instructions is sent to clients during initialization.
const instructions = `flowlens explains captured HTTP traffic. Every entry is attributed to an application and category and tagged with a resource type; bodies can be decoded (base64, percent-encoding, HTML entities, unicode escapes, hex).
Start with flowlens_sessions_list or flowlens_group_entries, then inspect single entries with flowlens_enrich_entry. Read the flowlens_guide prompt for details.`

// Server is the flowlens MCP server.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps
}

type settings struct {
	tools   bool
	prompts bool
	custom  []func(*sdkmcp.Server)
}

// ServerOption configures NewServer.
type ServerOption func(*settings)

// WithBuiltinTools registers the flowlens tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *settings) { s.tools = true }
}

// WithBuiltinPrompts registers the flowlens prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *settings) { s.prompts = true }
}

// WithCustomRegistration runs fn against the SDK server after the builtins
// are registered.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *settings) { s.custom = append(s.custom, fn) }
}

// NewServer builds the server. Source may be nil, in which case only
// entries already in the store are served.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, errors.New("deps is required")
	}
	if deps.Store == nil || deps.Enricher == nil || deps.Query == nil || deps.Config == nil {
		return nil, errors.New("deps is missing store, enricher, query engine or config")
	}

	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	srv := sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: ServerName, Version: ServerVersion},
		&sdkmcp.ServerOptions{Instructions: instructions},
	)
	srv.AddReceivingMiddleware(LoggingMiddleware())

	s := &Server{mcpServer: srv, deps: deps}
	if set.tools {
		tools.Register(srv, deps)
		s.registerResources()
	}
	if set.prompts {
		prompts.Register(srv, &prompts.Config{
			CustomRules: deps.Config.AppRulesFile != "",
			RulesMode:   deps.Config.AppRulesMode,
		})
	}
	for _, fn := range set.custom {
		fn(srv)
	}
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer exposes the SDK server, for in-memory transports in tests.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
