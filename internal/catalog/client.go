// Package catalog provides a read-only HTTP client for a Shopify-style
// storefront, abstracted behind an interface for testability.
package catalog

import (
	"context"
	"errors"
)

// Sentinel errors for definitive upstream responses. These are never worth
// retrying: the resource is gone or the storefront refuses to serve it.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("access forbidden")
)

// IsDefinitive reports whether err indicates a response that will not change
// on retry (403/404 equivalents).
func IsDefinitive(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

// Client defines the storefront surface consumed by discovery and extraction.
type Client interface {
	// ListingPage fetches one page of the collection listing as HTML.
	// Page numbering starts at 1.
	ListingPage(ctx context.Context, page int) ([]byte, error)

	// ProductJS fetches the structured product document at
	// /products/<handle>.js. Prices arrive as integer minor units.
	ProductJS(ctx context.Context, handle string) ([]byte, error)

	// ProductJSON fetches the alternate structured document at
	// /products/<handle>.json. The payload wraps the product in a
	// top-level "product" field and prices arrive as decimal strings.
	ProductJSON(ctx context.Context, handle string) ([]byte, error)

	// ProductPage fetches the raw product page HTML.
	ProductPage(ctx context.Context, handle string) ([]byte, error)

	// VariantInventory fetches the precise inventory quantity for a
	// numeric variant id, or nil when the storefront does not expose it.
	VariantInventory(ctx context.Context, id int64) (*int, error)

	// ProductURL returns the canonical absolute product page URL.
	ProductURL(handle string) string

	// CollectionURL returns the absolute listing URL for a page.
	// Page 1 carries no query parameter.
	CollectionURL(page int) string
}
