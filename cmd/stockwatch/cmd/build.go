package cmd

import (
	"log/slog"
	"net/http"

	"github.com/rfountain/stockwatch/internal/catalog"
	"github.com/rfountain/stockwatch/internal/config"
	"github.com/rfountain/stockwatch/internal/discovery"
	"github.com/rfountain/stockwatch/internal/engine"
	"github.com/rfountain/stockwatch/internal/extract"
	"github.com/rfountain/stockwatch/internal/fetch"
	"github.com/rfountain/stockwatch/internal/notify"
	"github.com/rfountain/stockwatch/internal/render"
	"github.com/rfountain/stockwatch/internal/snapshot"
	"github.com/rfountain/stockwatch/pkg/logger"
)

// buildEngine assembles the full pipeline from configuration. Every
// component receives its dependencies explicitly; nothing reads ambient
// global state.
func buildEngine(cfg *config.Config, log *slog.Logger) *engine.Engine {
	limiter := catalog.NewRateLimiter(
		cfg.Catalog.RateLimit.PerSecond,
		cfg.Catalog.RateLimit.Burst,
		cfg.Catalog.RateLimit.PerRun,
	)

	client := catalog.NewStorefrontClient(
		cfg.Catalog.BaseURL,
		cfg.Catalog.CollectionPath,
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.Catalog.RequestTimeout}),
		catalog.WithRateLimiter(limiter),
		catalog.WithLogger(logger.Component(log, "catalog")),
	)

	renderer := render.NewChromeRenderer(
		render.WithUserAgent(cfg.Catalog.UserAgent),
		render.WithScrollSteps(cfg.Discovery.ScrollSteps),
		render.WithScrollPause(cfg.Discovery.ScrollPause),
		render.WithNavTimeout(cfg.Catalog.RequestTimeout),
	)

	disc := discovery.New(client,
		discovery.WithRenderer(renderer),
		discovery.WithMaxPages(cfg.Discovery.MaxPages),
		discovery.WithMinHandles(cfg.Discovery.MinHandles),
		discovery.WithLogger(logger.Component(log, "discovery")),
	)

	extractor := extract.NewMultiTier(client,
		extract.WithRenderer(renderer),
		extract.WithInventoryEnrichment(cfg.Fetch.EnrichInventory),
		extract.WithLogger(logger.Component(log, "extract")),
	)

	orchestrator := fetch.New(extractor,
		fetch.WithConcurrency(cfg.Fetch.Concurrency),
		fetch.WithMaxRetries(cfg.Fetch.MaxRetries),
		fetch.WithRetryBaseDelay(cfg.Fetch.RetryBaseDelay),
		fetch.WithLogger(logger.Component(log, "fetch")),
	)

	store := snapshot.NewFileStore(cfg.Snapshot.Path,
		snapshot.WithLogger(logger.Component(log, "snapshot")),
	)

	return engine.NewEngine(
		disc,
		extractor,
		orchestrator,
		store,
		buildNotifier(cfg, log),
		engine.WithLogger(logger.Component(log, "engine")),
		engine.WithNotifyWhenEmpty(cfg.Notifications.Discord.NotifyWhenEmpty),
		engine.WithRateLimiter(limiter),
	)
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	d := cfg.Notifications.Discord
	if !d.Enabled || d.WebhookURL == "" {
		log.Warn("no Discord webhook configured, notifications disabled")
		return notify.NewNoopNotifier(logger.Component(log, "notify"))
	}

	return notify.NewDiscordNotifier(d.WebhookURL,
		notify.WithBatchPause(d.BatchPause),
		notify.WithLogger(logger.Component(log, "notify")),
	)
}
