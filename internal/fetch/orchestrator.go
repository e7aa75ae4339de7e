// Package fetch runs product extraction for a batch of handles under a
// bounded concurrency limit, with per-handle retry and jittered backoff.
// One handle's failure never affects the rest of the batch.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rfountain/stockwatch/internal/catalog"
	"github.com/rfountain/stockwatch/internal/extract"
	"github.com/rfountain/stockwatch/internal/metrics"
	"github.com/rfountain/stockwatch/pkg/types"
)

const (
	defaultConcurrency  = 8
	defaultMaxRetries   = 3
	defaultBaseDelay    = 1500 * time.Millisecond
	progressLogInterval = 10
)

// Orchestrator drives the extractor for all discovered handles.
type Orchestrator struct {
	extractor   extract.Extractor
	concurrency int
	maxRetries  int
	baseDelay   time.Duration
	log         *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxRetries sets the per-handle attempt cap.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryBaseDelay sets the backoff base; attempt N waits baseDelay × N
// plus jitter.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.baseDelay = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// New creates an Orchestrator over the given extractor.
func New(extractor extract.Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:   extractor,
		concurrency: defaultConcurrency,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunAll extracts every handle and returns the successes keyed by handle.
// Failed handles are logged and omitted; RunAll itself never fails. The
// result map carries no ordering guarantee.
func (o *Orchestrator) RunAll(
	ctx context.Context,
	handles []string,
) map[string]*types.Product {
	results := make(map[string]*types.Product, len(handles))
	if len(handles) == 0 {
		return results
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done atomic.Int64
	)

	total := int64(len(handles))
	jobs := make(chan string)

	workers := o.concurrency
	if workers > len(handles) {
		workers = len(handles)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for handle := range jobs {
				p, err := o.extractWithRetry(ctx, handle)

				n := done.Add(1)
				if n%progressLogInterval == 0 || n == total {
					o.log.Info("fetch progress", "done", n, "total", total)
				}

				if err != nil {
					o.log.Error("extraction failed, skipping handle",
						"handle", handle, "error", err)
					metrics.FetchFailuresTotal.Inc()
					continue
				}

				metrics.ProductsFetchedTotal.Inc()
				mu.Lock()
				results[handle] = p
				mu.Unlock()
			}
		}()
	}

	for _, h := range handles {
		select {
		case <-ctx.Done():
			// Workers drain on channel close below.
		case jobs <- h:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return results
}

func (o *Orchestrator) extractWithRetry(
	ctx context.Context,
	handle string,
) (*types.Product, error) {
	var lastErr error

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		p, err := o.extractor.Extract(ctx, handle)
		if err == nil {
			return p, nil
		}
		lastErr = err

		// Definitive outcomes are not worth another attempt.
		if errors.Is(err, extract.ErrUnresolved) || catalog.IsDefinitive(err) {
			return nil, err
		}

		if attempt == o.maxRetries {
			break
		}

		metrics.FetchRetriesTotal.Inc()
		delay := o.backoff(attempt)
		o.log.Warn("extraction attempt failed, backing off",
			"handle", handle,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// backoff grows linearly with the attempt number, plus a small random
// jitter so concurrent workers don't re-fetch in lockstep.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.baseDelay * time.Duration(attempt)
	if jitterMax := o.baseDelay / 4; jitterMax > 0 {
		d += time.Duration(rand.Int63n(int64(jitterMax)))
	}
	return d
}
