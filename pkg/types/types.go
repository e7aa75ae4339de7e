// Package types defines the core domain types for stockwatch: products,
// variants, snapshots, and the change events derived from comparing them.
package types

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultCurrency is assumed when a source never states one.
const DefaultCurrency = "USD"

// SnapshotVersion tags the current snapshot schema.
const SnapshotVersion = "v2"

// Variant is one purchasable color/size/price combination of a product.
type Variant struct {
	// Key identifies the variant across runs. When the source exposes a
	// numeric variant id the key is "vid:<id>", which is stable. Otherwise
	// it falls back to "title|color|size", which drifts if the source edits
	// the color or size text — a known limitation, kept deliberately.
	Key          string `json:"key"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Available    bool   `json:"available"`
	PriceCents   *int64 `json:"price_cents,omitempty"`
	InventoryQty *int   `json:"inventory_qty,omitempty"`
	SKU          string `json:"sku,omitempty"`
	URL          string `json:"url"`
}

// VariantKey builds the identity key for a variant. id <= 0 means the source
// exposed no numeric id and the composite fallback is used.
func VariantKey(id int64, title, color, size string) string {
	if id > 0 {
		return "vid:" + strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s|%s|%s", title, color, size)
}

// Product is a resolved catalog product with its sellable variants.
type Product struct {
	Handle   string    `json:"handle"`
	Title    string    `json:"title"`
	Currency string    `json:"currency"`
	Variants []Variant `json:"variants"`
}

// VariantRecord is a Variant denormalized with its product's handle and
// title so the diff engine never needs a second lookup.
type VariantRecord struct {
	Variant
	Handle   string `json:"handle"`
	Title    string `json:"title"`
	Currency string `json:"currency,omitempty"`
}

// Snapshot is the complete observed catalog state at the end of one run.
// It is an immutable value: replaced wholesale, never patched.
type Snapshot struct {
	Version  string                   `json:"version"`
	RunID    string                   `json:"run_id,omitempty"`
	TakenAt  time.Time                `json:"taken_at,omitempty"`
	Products map[string]string        `json:"products"`
	Variants map[string]VariantRecord `json:"variants"`
}

// Empty returns a fresh snapshot with the current schema version and no
// observed state. Used as the "first run" baseline.
func Empty() Snapshot {
	return Snapshot{
		Version:  SnapshotVersion,
		Products: map[string]string{},
		Variants: map[string]VariantRecord{},
	}
}

// EventKind discriminates change events.
type EventKind string

// Event kinds, in the order categories are emitted by the diff engine.
const (
	KindNewProduct        EventKind = "new_product"
	KindNewVariant        EventKind = "new_variant"
	KindPriceChange       EventKind = "price_change"
	KindInventoryIncrease EventKind = "inventory_increase"
	KindProductRestock    EventKind = "product_restock"
)

// Event is a typed catalog change derived from two snapshots.
type Event interface {
	Kind() EventKind
}

// NewProduct signals a handle seen for the first time.
type NewProduct struct {
	Handle string
	Title  string
	URL    string
}

// Kind implements Event.
func (NewProduct) Kind() EventKind { return KindNewProduct }

// NewVariant signals a variant key seen for the first time.
type NewVariant struct {
	Key        string
	Handle     string
	Title      string
	Color      string
	Size       string
	SKU        string
	PriceCents *int64
	URL        string
}

// Kind implements Event.
func (NewVariant) Kind() EventKind { return KindNewVariant }

// PriceChange signals a variant whose known price moved in either direction.
type PriceChange struct {
	Key           string
	Handle        string
	Title         string
	Color         string
	Size          string
	OldPriceCents int64
	NewPriceCents int64
	Currency      string
	URL           string
}

// Kind implements Event.
func (PriceChange) Kind() EventKind { return KindPriceChange }

// InventoryIncrease signals a restock. When both quantities are nil the
// signal is qualitative: the variant flipped from unavailable to available
// and no numeric quantity is known.
type InventoryIncrease struct {
	Key    string
	Handle string
	Title  string
	Color  string
	Size   string
	OldQty *int
	NewQty *int
	URL    string
}

// Kind implements Event.
func (InventoryIncrease) Kind() EventKind { return KindInventoryIncrease }

// ProductRestock is the aggregate signal: the count of purchasable variants
// of one product rose between runs.
type ProductRestock struct {
	Handle       string
	Title        string
	OldAvailable int
	NewAvailable int
	URL          string
}

// Kind implements Event.
func (ProductRestock) Kind() EventKind { return KindProductRestock }
