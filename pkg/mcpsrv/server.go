package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/flowlens/internal/cache"
	"github.com/usestring/flowlens/internal/capture"
	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/enrich"
	"github.com/usestring/flowlens/internal/logging"
	"github.com/usestring/flowlens/internal/mcp"
	"github.com/usestring/flowlens/internal/mcp/tools"
	"github.com/usestring/flowlens/internal/metrics"
	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/internal/store"
	"github.com/usestring/flowlens/pkg/appdetect"
	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/rules"
)

// Server is the flowlens MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	store      *store.Store
	metrics    *metrics.Collector
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin flowlens tools.
//
// Configuration is loaded from environment variables and can be overridden
// with functional options. An invalid app rules file fails construction.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.baseURL != "" {
		cfg.config.PowHTTPBaseURL = cfg.baseURL
	}
	if cfg.metricsAddr != "" {
		cfg.config.MetricsAddr = cfg.metricsAddr
	}
	if cfg.rulesFile != "" {
		cfg.config.AppRulesFile = cfg.rulesFile
		cfg.config.AppRulesMode = cfg.rulesMode
	}

	logCfg := logging.FromConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	ruleSet, err := loadRules(cfg.config)
	if err != nil {
		_ = logCleanup()
		return nil, err
	}

	decodeCache, err := cache.NewDecodeCache(cfg.config.DecodeCacheItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create decode cache: %w", err)
	}

	collector := metrics.NewCollector(true)
	classifier := appdetect.New(appdetect.WithRules(ruleSet))
	engine := decode.NewEngine(decode.WithLogger(slog.Default()))
	enricher := enrich.New(classifier, engine,
		enrich.WithCache(decodeCache),
		enrich.WithMetrics(collector),
		enrich.WithWorkers(cfg.config.EnrichWorkers),
		enrich.WithLogger(slog.Default()),
	)

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.config.HTTPClientTimeout}
	}
	client := capture.New(
		capture.WithBaseURL(cfg.config.PowHTTPBaseURL),
		capture.WithHTTPClient(httpClient),
	)

	st := store.New(client, enricher, collector, cfg.config)
	queryEngine := query.NewEngine()

	toolDeps := &tools.Deps{
		Source:   client,
		Store:    st,
		Enricher: enricher,
		Query:    queryEngine,
		Config:   cfg.config,
	}
	deps := &Deps{
		Client:   client,
		Store:    st,
		Enricher: enricher,
		Query:    queryEngine,
		Metrics:  collector,
		Config:   cfg.config,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.noTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.noPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, register := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			register(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("flowlens server configured",
		slog.String("capture_url", client.BaseURL()),
		slog.Int("app_rules", ruleSet.Len()),
		slog.String("rules_file", cfg.config.AppRulesFile),
	)

	return &Server{
		internal:   internal,
		store:      st,
		metrics:    collector,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// loadRules returns the built-in rules, combined with the configured rule
// file when one is set.
func loadRules(cfg *config.Config) (*rules.RuleSet, error) {
	if cfg.AppRulesFile == "" {
		return rules.Default(), nil
	}
	mode, err := rules.ParseMode(cfg.AppRulesMode)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_RULES_MODE: %w", err)
	}
	rs, err := rules.LoadFile(cfg.AppRulesFile, rules.Default(), mode)
	if err != nil {
		return nil, fmt.Errorf("loading app rules from %s: %w", cfg.AppRulesFile, err)
	}
	return rs, nil
}

// Run starts the MCP server with stdio transport.
// It also starts background refresh for all sessions and, when METRICS_ADDR
// is set, the metrics endpoint. The server runs until the context is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if addr := s.deps.Config.MetricsAddr; addr != "" {
		go func() {
			if err := s.metrics.Serve(ctx, addr); err != nil {
				slog.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}
	s.store.StartBackgroundRefresh(ctx)
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
