// Package engine wires the monitoring pipeline: discovery, concurrent
// extraction, snapshot diffing, persistence, and notification.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rfountain/stockwatch/internal/catalog"
	"github.com/rfountain/stockwatch/internal/diff"
	"github.com/rfountain/stockwatch/internal/extract"
	"github.com/rfountain/stockwatch/internal/fetch"
	"github.com/rfountain/stockwatch/internal/metrics"
	"github.com/rfountain/stockwatch/internal/notify"
	"github.com/rfountain/stockwatch/internal/snapshot"
	"github.com/rfountain/stockwatch/pkg/types"
)

// Discoverer enumerates product handles. Partial failure yields a partial
// (possibly empty) result, never an error.
type Discoverer interface {
	Discover(ctx context.Context) []string
}

// Engine executes one full monitoring run.
type Engine struct {
	discoverer   Discoverer
	extractor    extract.Extractor
	orchestrator *fetch.Orchestrator
	store        snapshot.Store
	notifier     notify.Notifier

	limiter         *catalog.RateLimiter
	notifyWhenEmpty bool
	log             *slog.Logger
	now             func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNotifyWhenEmpty makes runs with zero events post an explicit
// no-changes notice.
func WithNotifyWhenEmpty(on bool) Option {
	return func(e *Engine) {
		e.notifyWhenEmpty = on
	}
}

// WithRateLimiter registers the shared request limiter so its per-run
// budget resets at the start of each run.
func WithRateLimiter(r *catalog.RateLimiter) Option {
	return func(e *Engine) {
		e.limiter = r
	}
}

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(e *Engine) {
		e.now = f
	}
}

// NewEngine creates an Engine with injected dependencies.
func NewEngine(
	d Discoverer,
	ex extract.Extractor,
	o *fetch.Orchestrator,
	s snapshot.Store,
	n notify.Notifier,
	opts ...Option,
) *Engine {
	eng := &Engine{
		discoverer:   d,
		extractor:    ex,
		orchestrator: o,
		store:        s,
		notifier:     n,
		log:          slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// RunSummary reports what one run did.
type RunSummary struct {
	RunID    string
	Handles  int
	Products int
	Events   []types.Event
	Duration time.Duration
}

// Run executes the full pipeline once. The new snapshot is persisted
// exactly once, unconditionally, and before any notification goes out, so
// the next run always diffs against this one and a delivery failure can
// never lose state.
func (eng *Engine) Run(ctx context.Context) (*RunSummary, error) {
	start := eng.now()
	runID := uuid.NewString()
	log := eng.log.With("run_id", runID)

	metrics.RunsTotal.Inc()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	if eng.limiter != nil {
		eng.limiter.Reset()
	}

	prior := eng.store.Load(ctx)
	log.Info("prior snapshot loaded",
		"products", len(prior.Products),
		"variants", len(prior.Variants),
	)

	handles := eng.discoverer.Discover(ctx)
	metrics.DiscoveredHandles.Set(float64(len(handles)))

	products := eng.orchestrator.RunAll(ctx, handles)
	log.Info("fetch complete", "handles", len(handles), "products", len(products))

	snap := snapshot.Build(runID, products, eng.now())

	events := diff.Changes(prior, snap)
	for _, ev := range events {
		metrics.EventsTotal.WithLabelValues(string(ev.Kind())).Inc()
	}

	if err := eng.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	metrics.SnapshotVariants.Set(float64(len(snap.Variants)))

	eng.dispatch(ctx, log, events)

	summary := &RunSummary{
		RunID:    runID,
		Handles:  len(handles),
		Products: len(products),
		Events:   events,
		Duration: time.Since(start),
	}
	log.Info("run complete",
		"handles", summary.Handles,
		"products", summary.Products,
		"events", len(summary.Events),
		"duration", summary.Duration,
	)
	return summary, nil
}

func (eng *Engine) dispatch(ctx context.Context, log *slog.Logger, events []types.Event) {
	if len(events) == 0 {
		if !eng.notifyWhenEmpty {
			return
		}
		if err := eng.notifier.SendNoChanges(ctx); err != nil {
			log.Error("no-changes notification failed", "error", err)
		}
		return
	}

	if err := eng.notifier.SendEvents(ctx, events); err != nil {
		// The snapshot is already saved; delivery is best-effort.
		log.Error("notification delivery failed", "error", err)
	}
}

// Inspect resolves a single handle without discovery, diffing, or
// notification. Diagnostic only.
func (eng *Engine) Inspect(ctx context.Context, handle string) (*types.Product, error) {
	if eng.limiter != nil {
		eng.limiter.Reset()
	}
	return eng.extractor.Extract(ctx, handle)
}
