package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfountain/stockwatch/pkg/types"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	price := int64(15000)
	taken := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	products := map[string]*types.Product{
		"alpha-jacket": {
			Handle:   "alpha-jacket",
			Title:    "Alpha Jacket",
			Currency: "USD",
			Variants: []types.Variant{
				{Key: "vid:100", Color: "Black", Size: "M", Available: true, PriceCents: &price},
				{Key: "vid:101", Color: "Black", Size: "L"},
			},
		},
		"beta-pant": {
			Handle:   "beta-pant",
			Title:    "Beta Pant",
			Currency: "EUR",
			Variants: []types.Variant{
				{Key: "vid:200", Size: "32", Available: true},
			},
		},
	}

	snap := Build("run-1", products, taken)

	assert.Equal(t, types.SnapshotVersion, snap.Version)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, taken, snap.TakenAt)

	assert.Equal(t, map[string]string{
		"alpha-jacket": "Alpha Jacket",
		"beta-pant":    "Beta Pant",
	}, snap.Products)

	require.Len(t, snap.Variants, 3)

	rec := snap.Variants["vid:100"]
	assert.Equal(t, "alpha-jacket", rec.Handle)
	assert.Equal(t, "Alpha Jacket", rec.Title)
	assert.Equal(t, "USD", rec.Currency)
	assert.True(t, rec.Available)

	assert.Equal(t, "EUR", snap.Variants["vid:200"].Currency)
}

func TestBuild_KeyCollisionLastWriteWins(t *testing.T) {
	t.Parallel()

	products := map[string]*types.Product{
		"solo": {
			Handle: "solo",
			Title:  "Solo",
			Variants: []types.Variant{
				{Key: "Solo|Black|M", Available: false},
				{Key: "Solo|Black|M", Available: true},
			},
		},
	}

	snap := Build("run-1", products, time.Now())
	require.Len(t, snap.Variants, 1)
	assert.True(t, snap.Variants["Solo|Black|M"].Available)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	snap := Build("run-1", nil, time.Now())
	assert.NotNil(t, snap.Products)
	assert.NotNil(t, snap.Variants)
	assert.Empty(t, snap.Variants)
}
