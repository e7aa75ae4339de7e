// Package discovery enumerates stable product handles from a paginated
// catalog listing, falling back to a rendered-page scan when the lightweight
// fetch yields implausibly little.
package discovery

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rfountain/stockwatch/internal/catalog"
	"github.com/rfountain/stockwatch/internal/render"
)

const (
	defaultMaxPages   = 20
	defaultMinHandles = 3
)

// Discoverer enumerates product handles. Partial failure is never fatal:
// Discover returns whatever it could gather.
type Discoverer struct {
	client     catalog.Client
	renderer   render.Renderer
	maxPages   int
	minHandles int
	log        *slog.Logger
}

// Option configures the Discoverer.
type Option func(*Discoverer)

// WithRenderer enables the rendered-page fallback strategy. Without one,
// discovery relies solely on lightweight fetches.
func WithRenderer(r render.Renderer) Option {
	return func(d *Discoverer) {
		d.renderer = r
	}
}

// WithMaxPages bounds pagination against misbehaving listing schemes.
func WithMaxPages(n int) Option {
	return func(d *Discoverer) {
		d.maxPages = n
	}
}

// WithMinHandles sets the plausibility floor below which the rendered
// fallback kicks in.
func WithMinHandles(n int) Option {
	return func(d *Discoverer) {
		d.minHandles = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) {
		d.log = l
	}
}

// New creates a Discoverer over the given storefront client.
func New(client catalog.Client, opts ...Option) *Discoverer {
	d := &Discoverer{
		client:     client,
		maxPages:   defaultMaxPages,
		minHandles: defaultMinHandles,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns the deduplicated set of product handles found on the
// listing, sorted for deterministic logs. It never returns an error: a
// total fetch failure yields an empty slice.
func (d *Discoverer) Discover(ctx context.Context) []string {
	handles := map[string]struct{}{}

	d.scanPages(ctx, handles)

	if len(handles) < d.minHandles && d.renderer != nil {
		d.log.Info("lightweight discovery below threshold, using renderer",
			"found", len(handles),
			"min_handles", d.minHandles,
		)
		d.renderScan(ctx, handles)
	}

	out := make([]string, 0, len(handles))
	for h := range handles {
		out = append(out, h)
	}
	sort.Strings(out)

	d.log.Info("discovery complete", "handles", len(out))
	return out
}

// scanPages walks listing pages 1..maxPages, stopping at the first page
// that adds no new handles or fails to fetch.
func (d *Discoverer) scanPages(ctx context.Context, handles map[string]struct{}) {
	for page := 1; page <= d.maxPages; page++ {
		if ctx.Err() != nil {
			return
		}

		body, err := d.client.ListingPage(ctx, page)
		if err != nil {
			d.log.Warn("listing page fetch failed, ending pagination",
				"page", page, "error", err)
			return
		}

		added := scanListingHTML(body, handles)
		if added == 0 {
			return
		}
	}
}

// renderScan runs the rendered strategy: a scroll-driven scan of page 1,
// then the same ceiling-bounded pagination over rendered pages.
func (d *Discoverer) renderScan(ctx context.Context, handles map[string]struct{}) {
	links, err := d.renderer.CollectLinks(ctx, d.client.CollectionURL(1))
	if err != nil {
		d.log.Warn("rendered discovery failed", "error", err)
		return
	}
	addLinks(links, handles)

	for page := 2; page <= d.maxPages; page++ {
		if ctx.Err() != nil {
			return
		}

		links, err := d.renderer.CollectLinks(ctx, d.client.CollectionURL(page))
		if err != nil {
			d.log.Warn("rendered page fetch failed, ending pagination",
				"page", page, "error", err)
			return
		}

		if addLinks(links, handles) == 0 {
			return
		}
	}
}

func scanListingHTML(body []byte, handles map[string]struct{}) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0
	}

	added := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if h, ok := NormalizeHandle(href); ok {
			if _, dup := handles[h]; !dup {
				handles[h] = struct{}{}
				added++
			}
		}
	})
	return added
}

func addLinks(links []string, handles map[string]struct{}) int {
	added := 0
	for _, href := range links {
		if h, ok := NormalizeHandle(href); ok {
			if _, dup := handles[h]; !dup {
				handles[h] = struct{}{}
				added++
			}
		}
	}
	return added
}

// NormalizeHandle reduces any product URL fragment of the form
// /products/<handle>[/...][?...] to the bare handle. Variant-selection
// suffixes and query strings are discarded. Absolute URLs are accepted.
func NormalizeHandle(href string) (string, bool) {
	if href == "" {
		return "", false
	}

	path := href
	if strings.Contains(href, "://") {
		u, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		path = u.Path
	} else {
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if i := strings.IndexByte(path, '#'); i >= 0 {
			path = path[:i]
		}
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p == "products" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], true
		}
	}
	return "", false
}
