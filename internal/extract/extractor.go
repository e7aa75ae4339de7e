// Package extract resolves canonical product records from a storefront by
// trying up to three data sources in priority order: the structured .js
// endpoint, the structured .json endpoint, and embedded data scraped from
// the raw product page. Tiers never merge; the first one that yields a
// parseable payload wins.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rfountain/stockwatch/internal/catalog"
	"github.com/rfountain/stockwatch/internal/render"
	"github.com/rfountain/stockwatch/pkg/types"
)

// ErrUnresolved is returned when no tier yields product data. It is
// definitive: retrying the same handle will not help.
var ErrUnresolved = errors.New("product unresolved by all tiers")

// Extractor resolves one product handle into a canonical Product.
type Extractor interface {
	Extract(ctx context.Context, handle string) (*types.Product, error)
}

// MultiTier implements Extractor with the three-tier fallback chain.
type MultiTier struct {
	client   catalog.Client
	renderer render.Renderer
	enrich   bool
	log      *slog.Logger
}

// Option configures the MultiTier extractor.
type Option func(*MultiTier)

// WithRenderer enables rendering the product page when the raw fetch
// yields no embedded data.
func WithRenderer(r render.Renderer) Option {
	return func(e *MultiTier) {
		e.renderer = r
	}
}

// WithInventoryEnrichment enables the best-effort per-variant inventory
// lookup after a tier 1/2 hit.
func WithInventoryEnrichment(on bool) Option {
	return func(e *MultiTier) {
		e.enrich = on
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *MultiTier) {
		e.log = l
	}
}

// NewMultiTier creates the extractor over the given storefront client.
func NewMultiTier(client catalog.Client, opts ...Option) *MultiTier {
	e := &MultiTier{
		client: client,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements Extractor. Parse mismatches inside a tier are expected
// control flow and fall through to the next tier; only when every tier
// produced nothing does Extract fail. A transient fetch error anywhere in
// the chain is reported (and is retryable) in preference to ErrUnresolved.
func (e *MultiTier) Extract(ctx context.Context, handle string) (*types.Product, error) {
	var transient error

	// Tier 1: structured .js document, prices in minor units.
	if body, err := e.client.ProductJS(ctx, handle); err == nil {
		if p, rvs, ok := e.structuredProduct(body, handle, false); ok {
			e.enrichQuantities(ctx, p, rvs)
			return p, nil
		}
	} else if !catalog.IsDefinitive(err) {
		transient = err
	}

	// Tier 2: structured .json document wrapping a "product" field.
	if body, err := e.client.ProductJSON(ctx, handle); err == nil {
		if p, rvs, ok := e.structuredProduct(body, handle, true); ok {
			e.enrichQuantities(ctx, p, rvs)
			return p, nil
		}
	} else if !catalog.IsDefinitive(err) {
		transient = err
	}

	// Tier 3: raw document with embedded data.
	if p, ok := e.pageProduct(ctx, handle, &transient); ok {
		return p, nil
	}

	if transient != nil {
		return nil, fmt.Errorf("extracting %s: %w", handle, transient)
	}
	return nil, fmt.Errorf("%s: %w", handle, ErrUnresolved)
}

// structuredProduct normalizes a tier 1/2 payload. unwrap selects the
// tier 2 shape, whose top level wraps the product object.
func (e *MultiTier) structuredProduct(
	body []byte,
	handle string,
	unwrap bool,
) (*types.Product, []rawVariant, bool) {
	payload, ok := decodePayload(body)
	if !ok {
		return nil, nil, false
	}

	if unwrap {
		if m, ok := payload.(map[string]any); ok {
			if inner, ok := m["product"]; ok {
				payload = inner
			}
		}
	}

	m, ok := payload.(map[string]any)
	if !ok {
		return nil, nil, false
	}

	vs, ok := findVariants(payload)
	if !ok {
		return nil, nil, false
	}

	title := asString(m["title"])
	if title == "" {
		title = handleTitle(handle)
	}

	rvs := make([]rawVariant, 0, len(vs))
	for _, v := range vs {
		if rv, ok := normalizeVariant(v); ok {
			rvs = append(rvs, rv)
		}
	}
	if len(rvs) == 0 {
		return nil, nil, false
	}

	return e.toProduct(handle, title, types.DefaultCurrency, rvs), rvs, true
}

// pageProduct is tier 3: fetch the raw page, scan embedded scripts for a
// variants array, and fall back to page-level structured markup. When the
// plain fetch yields nothing and a renderer is available, the rendered
// document gets one more pass.
func (e *MultiTier) pageProduct(
	ctx context.Context,
	handle string,
	transient *error,
) (*types.Product, bool) {
	var body []byte
	if b, err := e.client.ProductPage(ctx, handle); err == nil {
		body = b
	} else if !catalog.IsDefinitive(err) {
		*transient = err
	}

	if body != nil {
		if p, ok := e.productFromHTML(body, handle); ok {
			return p, true
		}
	}

	if e.renderer == nil {
		return nil, false
	}

	html, err := e.renderer.RenderedDocument(ctx, e.client.ProductURL(handle))
	if err != nil {
		e.log.Debug("rendered extraction failed", "handle", handle, "error", err)
		return nil, false
	}

	return e.productFromHTML([]byte(html), handle)
}

func (e *MultiTier) productFromHTML(body []byte, handle string) (*types.Product, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}

	title := pageTitle(doc)
	if title == "" {
		title = handleTitle(handle)
	}

	if rvs, ok := embeddedVariants(doc); ok {
		return e.toProduct(handle, title, types.DefaultCurrency, rvs), true
	}

	// Page-level structured markup: price and availability only, no
	// per-variant breakdown.
	if offer, ok := jsonLDOffer(doc); ok {
		currency := offer.Currency
		if currency == "" {
			currency = types.DefaultCurrency
		}
		rv := rawVariant{
			Available:  offer.Available,
			PriceCents: offer.PriceCents,
		}
		return e.toProduct(handle, title, currency, []rawVariant{rv}), true
	}

	return nil, false
}

func (e *MultiTier) toProduct(
	handle, title, currency string,
	rvs []rawVariant,
) *types.Product {
	url := e.client.ProductURL(handle)

	p := &types.Product{
		Handle:   handle,
		Title:    title,
		Currency: currency,
		Variants: make([]types.Variant, 0, len(rvs)),
	}
	for _, rv := range rvs {
		p.Variants = append(p.Variants, types.Variant{
			Key:          types.VariantKey(rv.ID, title, rv.Color, rv.Size),
			Color:        rv.Color,
			Size:         rv.Size,
			Available:    rv.Available,
			PriceCents:   rv.PriceCents,
			InventoryQty: rv.InventoryQty,
			SKU:          rv.SKU,
			URL:          url,
		})
	}
	return p
}

// enrichQuantities issues one best-effort inventory lookup per variant that
// has a numeric id and no quantity yet. Failures, including explicit
// forbidden/not-found responses, leave the quantity unknown.
func (e *MultiTier) enrichQuantities(
	ctx context.Context,
	p *types.Product,
	rvs []rawVariant,
) {
	if !e.enrich {
		return
	}

	for i := range p.Variants {
		if i >= len(rvs) || rvs[i].ID <= 0 || p.Variants[i].InventoryQty != nil {
			continue
		}

		qty, err := e.client.VariantInventory(ctx, rvs[i].ID)
		if err != nil {
			e.log.Debug("inventory lookup failed",
				"handle", p.Handle, "variant_id", rvs[i].ID, "error", err)
			continue
		}
		p.Variants[i].InventoryQty = qty
	}
}

func handleTitle(handle string) string {
	return strings.TrimSpace(strings.ReplaceAll(handle, "-", " "))
}
