// Package diff derives typed change events from two catalog snapshots.
//
// The engine is restock/opportunity-oriented: price moves and growing
// availability are reported, while decreases, available→unavailable flips,
// and delisted variants produce no events at all. Output is deterministic
// for identical inputs — each category is sorted by key, and categories
// are emitted in a fixed order.
package diff

import (
	"sort"

	"github.com/rfountain/stockwatch/pkg/types"
)

// Changes compares old and new snapshots and returns the ordered event list:
// NewProduct (by handle), then per-variant events (by key), then
// ProductRestock aggregates (by handle).
func Changes(old, current types.Snapshot) []types.Event {
	var events []types.Event

	events = append(events, newProducts(old, current)...)
	events = append(events, variantEvents(old, current)...)
	events = append(events, productRestocks(old, current)...)

	return events
}

func newProducts(old, current types.Snapshot) []types.Event {
	handles := make([]string, 0)
	for h := range current.Products {
		if _, seen := old.Products[h]; !seen {
			handles = append(handles, h)
		}
	}
	sort.Strings(handles)

	urls := productURLs(current)

	events := make([]types.Event, 0, len(handles))
	for _, h := range handles {
		events = append(events, types.NewProduct{
			Handle: h,
			Title:  current.Products[h],
			URL:    urls[h],
		})
	}
	return events
}

func variantEvents(old, current types.Snapshot) []types.Event {
	keys := make([]string, 0, len(current.Variants))
	for k := range current.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var events []types.Event
	for _, k := range keys {
		nr := current.Variants[k]
		or, seen := old.Variants[k]

		// First-seen variants never count as a price or inventory
		// change: there is no old value to compare.
		if !seen {
			events = append(events, types.NewVariant{
				Key:        k,
				Handle:     nr.Handle,
				Title:      nr.Title,
				Color:      nr.Color,
				Size:       nr.Size,
				SKU:        nr.SKU,
				PriceCents: nr.PriceCents,
				URL:        nr.URL,
			})
			continue
		}

		if nr.PriceCents != nil && or.PriceCents != nil &&
			*nr.PriceCents != *or.PriceCents {
			events = append(events, types.PriceChange{
				Key:           k,
				Handle:        nr.Handle,
				Title:         nr.Title,
				Color:         nr.Color,
				Size:          nr.Size,
				OldPriceCents: *or.PriceCents,
				NewPriceCents: *nr.PriceCents,
				Currency:      currencyOf(nr),
				URL:           nr.URL,
			})
			continue
		}

		if ev, ok := inventoryEvent(k, or, nr); ok {
			events = append(events, ev)
		}
	}
	return events
}

func inventoryEvent(
	key string,
	or, nr types.VariantRecord,
) (types.Event, bool) {
	if nr.InventoryQty != nil && or.InventoryQty != nil &&
		*nr.InventoryQty > *or.InventoryQty {
		return types.InventoryIncrease{
			Key:    key,
			Handle: nr.Handle,
			Title:  nr.Title,
			Color:  nr.Color,
			Size:   nr.Size,
			OldQty: or.InventoryQty,
			NewQty: nr.InventoryQty,
			URL:    nr.URL,
		}, true
	}

	// No numeric increase to report: fall back to the qualitative
	// unavailable→available signal, reported with a nil quantity pair.
	if !or.Available && nr.Available {
		return types.InventoryIncrease{
			Key:    key,
			Handle: nr.Handle,
			Title:  nr.Title,
			Color:  nr.Color,
			Size:   nr.Size,
			URL:    nr.URL,
		}, true
	}

	return nil, false
}

// productRestocks emits the aggregate signal for products whose count of
// purchasable variants rose. Only products already present in the old
// snapshot qualify — a brand-new product is a NewProduct, not a restock.
func productRestocks(old, current types.Snapshot) []types.Event {
	oldCounts := availableCounts(old)
	newCounts := availableCounts(current)
	urls := productURLs(current)

	handles := make([]string, 0)
	for h := range current.Products {
		if _, seen := old.Products[h]; !seen {
			continue
		}
		if newCounts[h] > oldCounts[h] {
			handles = append(handles, h)
		}
	}
	sort.Strings(handles)

	events := make([]types.Event, 0, len(handles))
	for _, h := range handles {
		events = append(events, types.ProductRestock{
			Handle:       h,
			Title:        current.Products[h],
			OldAvailable: oldCounts[h],
			NewAvailable: newCounts[h],
			URL:          urls[h],
		})
	}
	return events
}

func availableCounts(snap types.Snapshot) map[string]int {
	counts := map[string]int{}
	for _, rec := range snap.Variants {
		if rec.Available {
			counts[rec.Handle]++
		}
	}
	return counts
}

func productURLs(snap types.Snapshot) map[string]string {
	urls := map[string]string{}
	for _, rec := range snap.Variants {
		if rec.URL != "" {
			urls[rec.Handle] = rec.URL
		}
	}
	return urls
}

func currencyOf(rec types.VariantRecord) string {
	if rec.Currency != "" {
		return rec.Currency
	}
	return types.DefaultCurrency
}
