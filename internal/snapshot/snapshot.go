// Package snapshot builds the observed catalog state from fetched products
// and persists it as a versioned JSON file.
package snapshot

import (
	"time"

	"github.com/rfountain/stockwatch/pkg/types"
)

// Build assembles a snapshot from the fetch results. Variant key collisions
// resolve last-write-wins; composite fallback keys can collide when a
// source reuses identical title/color/size text.
func Build(
	runID string,
	products map[string]*types.Product,
	takenAt time.Time,
) types.Snapshot {
	snap := types.Empty()
	snap.RunID = runID
	snap.TakenAt = takenAt

	for handle, p := range products {
		snap.Products[handle] = p.Title
		for _, v := range p.Variants {
			snap.Variants[v.Key] = types.VariantRecord{
				Variant:  v,
				Handle:   handle,
				Title:    p.Title,
				Currency: p.Currency,
			}
		}
	}

	return snap
}
