// Package enrich attaches derived information to captured flows: the
// application that produced them, their resource type, and decoding
// analyses of their bodies.
//
// Application fields are computed eagerly and written to a copy of the
// flow. Resource type and decoding are computed on demand; decode reports
// are cached by flow ID, direction and a digest of the body.
package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/flowlens/internal/cache"
	"github.com/usestring/flowlens/internal/metrics"
	"github.com/usestring/flowlens/pkg/appdetect"
	"github.com/usestring/flowlens/pkg/decode"
	"github.com/usestring/flowlens/pkg/flow"
	"github.com/usestring/flowlens/pkg/reqtype"
)

const defaultWorkers = 8

// Enricher is safe for concurrent use.
type Enricher struct {
	classifier *appdetect.Classifier
	engine     *decode.Engine
	cache      *cache.DecodeCache
	metrics    *metrics.Collector
	workers    int
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache enables decode report caching.
func WithCache(c *cache.DecodeCache) Option {
	return func(e *Enricher) { e.cache = c }
}

// WithMetrics records enrichment counters.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Enricher) { e.metrics = m }
}

// WithWorkers bounds EnrichAll concurrency.
func WithWorkers(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Enricher. A nil classifier or engine gets the defaults.
func New(classifier *appdetect.Classifier, engine *decode.Engine, opts ...Option) *Enricher {
	if classifier == nil {
		classifier = appdetect.New()
	}
	if engine == nil {
		engine = decode.NewEngine()
	}
	e := &Enricher{
		classifier: classifier,
		engine:     engine,
		workers:    defaultWorkers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classifier returns the application classifier in use.
func (e *Enricher) Classifier() *appdetect.Classifier {
	return e.classifier
}

// Engine returns the decoding engine in use.
func (e *Enricher) Engine() *decode.Engine {
	return e.engine
}

// Enrich returns a copy of f with AppName, AppIcon and AppCategory set. The
// input is not modified, and enriching an enriched flow gives the same
// fields.
func (e *Enricher) Enrich(f *flow.Flow) *flow.Flow {
	app := e.classifier.ClassifyFlow(f)

	out := f.Clone()
	out.AppName = app.Name
	out.AppIcon = app.Icon
	out.AppCategory = app.Category

	if e.metrics != nil {
		e.metrics.Enriched.WithLabelValues(app.Category).Inc()
	}
	return out
}

// RequestType classifies f's resource type.
func (e *Enricher) RequestType(f *flow.Flow) reqtype.Info {
	info := reqtype.Lookup(reqtype.ClassifyFlow(f))
	if e.metrics != nil {
		e.metrics.RequestTypes.WithLabelValues(string(info.Tag)).Inc()
	}
	return info
}

// DecodeBody analyzes the body of one direction of f. A missing message is
// analyzed as empty content.
func (e *Enricher) DecodeBody(f *flow.Flow, dir flow.Direction) decode.Report {
	ct := f.ContentTypeFor(dir)
	var content string
	if m := f.Message(dir); m != nil {
		content = m.Body.Canonical(ct)
	}

	key := cache.NewKey(f.ID, dir, ct, content)
	if e.cache != nil {
		if rep, ok := e.cache.Get(key); ok {
			e.observeCache(true)
			return rep
		}
		e.observeCache(false)
	}

	rep := e.engine.Analyze(content, ct)
	if e.cache != nil {
		e.cache.Put(key, rep)
	}
	if e.metrics != nil {
		e.metrics.ObserveDecode(rep.Best.Method, rep.Best.Success)
	}

	e.logger.Debug("decoded body",
		slog.String("flow_id", f.ID),
		slog.String("direction", string(dir)),
		slog.String("method", rep.Best.Method),
		slog.Bool("success", rep.Best.Success),
		slog.Int("bytes", len(content)),
	)
	return rep
}

func (e *Enricher) observeCache(hit bool) {
	if e.metrics != nil {
		e.metrics.ObserveCache(hit)
	}
}

// EnrichAll enriches flows concurrently. The result is index-aligned with
// the input. Only context cancellation produces an error.
func (e *Enricher) EnrichAll(ctx context.Context, flows []*flow.Flow) ([]*flow.Flow, error) {
	out := make([]*flow.Flow, len(flows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, f := range flows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f != nil {
				out[i] = e.Enrich(f)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
