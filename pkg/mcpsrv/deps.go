package mcpsrv

import (
	"github.com/usestring/flowlens/internal/capture"
	"github.com/usestring/flowlens/internal/config"
	"github.com/usestring/flowlens/internal/enrich"
	"github.com/usestring/flowlens/internal/metrics"
	"github.com/usestring/flowlens/internal/query"
	"github.com/usestring/flowlens/internal/store"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Client   *capture.Client
	Store    *store.Store
	Enricher *enrich.Enricher
	Query    *query.Engine
	Metrics  *metrics.Collector
	Config   *config.Config
}
