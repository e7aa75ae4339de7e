package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfountain/stockwatch/pkg/types"
)

func snapOf(recs ...types.VariantRecord) types.Snapshot {
	snap := types.Empty()
	for _, rec := range recs {
		snap.Variants[rec.Key] = rec
		snap.Products[rec.Handle] = rec.Title
	}
	return snap
}

func rec(key, handle, title string, available bool, mods ...func(*types.VariantRecord)) types.VariantRecord {
	r := types.VariantRecord{
		Variant: types.Variant{
			Key:       key,
			Available: available,
			URL:       "https://shop.example.com/products/" + handle,
		},
		Handle: handle,
		Title:  title,
	}
	for _, mod := range mods {
		mod(&r)
	}
	return r
}

func withPrice(cents int64) func(*types.VariantRecord) {
	return func(r *types.VariantRecord) { r.PriceCents = &cents }
}

func withQty(n int) func(*types.VariantRecord) {
	return func(r *types.VariantRecord) { r.InventoryQty = &n }
}

func withCurrency(c string) func(*types.VariantRecord) {
	return func(r *types.VariantRecord) { r.Currency = c }
}

func TestChanges_QualitativeRestock(t *testing.T) {
	t.Parallel()

	old := snapOf(rec("vid:100", "alpha-jacket", "Alpha Jacket", false))
	cur := snapOf(rec("vid:100", "alpha-jacket", "Alpha Jacket", true))

	events := Changes(old, cur)
	require.Len(t, events, 2)

	inc, ok := events[0].(types.InventoryIncrease)
	require.True(t, ok)
	assert.Equal(t, "vid:100", inc.Key)
	assert.Nil(t, inc.OldQty)
	assert.Nil(t, inc.NewQty)

	restock, ok := events[1].(types.ProductRestock)
	require.True(t, ok)
	assert.Equal(t, "alpha-jacket", restock.Handle)
	assert.Equal(t, 0, restock.OldAvailable)
	assert.Equal(t, 1, restock.NewAvailable)
}

func TestChanges_NumericInventoryIncrease(t *testing.T) {
	t.Parallel()

	old := snapOf(rec("vid:100", "alpha-jacket", "Alpha Jacket", true, withQty(3)))
	cur := snapOf(rec("vid:100", "alpha-jacket", "Alpha Jacket", true, withQty(10)))

	events := Changes(old, cur)
	require.Len(t, events, 1)

	inc, ok := events[0].(types.InventoryIncrease)
	require.True(t, ok)
	require.NotNil(t, inc.OldQty)
	require.NotNil(t, inc.NewQty)
	assert.Equal(t, 3, *inc.OldQty)
	assert.Equal(t, 10, *inc.NewQty)
}

func TestChanges_NewProductEmitsBothEventTypes(t *testing.T) {
	t.Parallel()

	old := types.Empty()
	cur := snapOf(
		rec("vid:100", "jacket-a", "Jacket A", true, withPrice(15000)),
		rec("vid:101", "jacket-a", "Jacket A", false, withPrice(15000)),
	)

	events := Changes(old, cur)
	require.Len(t, events, 3)

	np, ok := events[0].(types.NewProduct)
	require.True(t, ok)
	assert.Equal(t, "jacket-a", np.Handle)
	assert.Equal(t, "https://shop.example.com/products/jacket-a", np.URL)

	nv1, ok := events[1].(types.NewVariant)
	require.True(t, ok)
	assert.Equal(t, "vid:100", nv1.Key)

	nv2, ok := events[2].(types.NewVariant)
	require.True(t, ok)
	assert.Equal(t, "vid:101", nv2.Key)

	// Brand-new products never double-signal as restocks, and first-seen
	// variants never count as price or inventory changes.
	for _, ev := range events {
		assert.NotEqual(t, types.KindProductRestock, ev.Kind())
		assert.NotEqual(t, types.KindPriceChange, ev.Kind())
		assert.NotEqual(t, types.KindInventoryIncrease, ev.Kind())
	}
}

func TestChanges_PriceChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		oldPrice int64
		newPrice int64
	}{
		{name: "price drop", oldPrice: 15000, newPrice: 13500},
		{name: "price rise", oldPrice: 13500, newPrice: 15000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			old := snapOf(rec("vid:200", "beta-pant", "Beta Pant", true, withPrice(tt.oldPrice)))
			cur := snapOf(rec("vid:200", "beta-pant", "Beta Pant", true, withPrice(tt.newPrice)))

			events := Changes(old, cur)
			require.Len(t, events, 1)

			pc, ok := events[0].(types.PriceChange)
			require.True(t, ok)
			assert.Equal(t, tt.oldPrice, pc.OldPriceCents)
			assert.Equal(t, tt.newPrice, pc.NewPriceCents)
			assert.Equal(t, types.DefaultCurrency, pc.Currency)
		})
	}
}

func TestChanges_PriceChangeCarriesCurrency(t *testing.T) {
	t.Parallel()

	old := snapOf(rec("vid:200", "beta-pant", "Beta Pant", true, withPrice(9995), withCurrency("EUR")))
	cur := snapOf(rec("vid:200", "beta-pant", "Beta Pant", true, withPrice(8995), withCurrency("EUR")))

	events := Changes(old, cur)
	require.Len(t, events, 1)
	assert.Equal(t, "EUR", events[0].(types.PriceChange).Currency)
}

func TestChanges_UnknownPriceNeverCompares(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		old  types.VariantRecord
		cur  types.VariantRecord
	}{
		{
			name: "old price unknown",
			old:  rec("vid:1", "a", "A", true),
			cur:  rec("vid:1", "a", "A", true, withPrice(100)),
		},
		{
			name: "new price unknown",
			old:  rec("vid:1", "a", "A", true, withPrice(100)),
			cur:  rec("vid:1", "a", "A", true),
		},
		{
			name: "both unknown",
			old:  rec("vid:1", "a", "A", true),
			cur:  rec("vid:1", "a", "A", true),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events := Changes(snapOf(tt.old), snapOf(tt.cur))
			for _, ev := range events {
				assert.NotEqual(t, types.KindPriceChange, ev.Kind())
			}
		})
	}
}

func TestChanges_SilentTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		old  types.Snapshot
		cur  types.Snapshot
	}{
		{
			name: "became unavailable",
			old:  snapOf(rec("vid:1", "a", "A", true)),
			cur:  snapOf(rec("vid:1", "a", "A", false)),
		},
		{
			name: "inventory decreased",
			old:  snapOf(rec("vid:1", "a", "A", true, withQty(10))),
			cur:  snapOf(rec("vid:1", "a", "A", true, withQty(3))),
		},
		{
			name: "variant delisted",
			old: snapOf(
				rec("vid:1", "a", "A", true),
				rec("vid:2", "a", "A", true),
			),
			cur: snapOf(rec("vid:1", "a", "A", true)),
		},
		{
			name: "identical snapshots",
			old:  snapOf(rec("vid:1", "a", "A", true, withPrice(100), withQty(5))),
			cur:  snapOf(rec("vid:1", "a", "A", true, withPrice(100), withQty(5))),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Empty(t, Changes(tt.old, tt.cur))
		})
	}
}

func TestChanges_PriceChangeSuppressesInventoryEvent(t *testing.T) {
	t.Parallel()

	// A variant that changed price and restocked reports the price change
	// only: per-variant events are mutually exclusive.
	old := snapOf(rec("vid:1", "a", "A", false, withPrice(15000)))
	cur := snapOf(rec("vid:1", "a", "A", true, withPrice(13500)))

	events := Changes(old, cur)
	require.Len(t, events, 2)
	assert.Equal(t, types.KindPriceChange, events[0].Kind())
	assert.Equal(t, types.KindProductRestock, events[1].Kind())
}

func TestChanges_DeterministicOrdering(t *testing.T) {
	t.Parallel()

	old := snapOf(rec("vid:5", "existing", "Existing", false))
	cur := snapOf(
		rec("vid:9", "zeta", "Zeta", true),
		rec("vid:5", "existing", "Existing", true),
		rec("vid:1", "apex", "Apex", true),
	)

	first := Changes(old, cur)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Changes(old, cur))
	}

	// Categories in order, each sorted by its own key.
	require.Len(t, first, 6)
	assert.Equal(t, "apex", first[0].(types.NewProduct).Handle)
	assert.Equal(t, "zeta", first[1].(types.NewProduct).Handle)
	assert.Equal(t, "vid:1", first[2].(types.NewVariant).Key)
	assert.Equal(t, "vid:5", first[3].(types.InventoryIncrease).Key)
	assert.Equal(t, "vid:9", first[4].(types.NewVariant).Key)
	assert.Equal(t, "existing", first[5].(types.ProductRestock).Handle)
}

func TestChanges_FirstRunEmitsEverythingAsNew(t *testing.T) {
	t.Parallel()

	cur := snapOf(
		rec("vid:1", "a", "A", true),
		rec("vid:2", "b", "B", true),
	)

	events := Changes(types.Empty(), cur)
	require.Len(t, events, 4)
	assert.Equal(t, types.KindNewProduct, events[0].Kind())
	assert.Equal(t, types.KindNewProduct, events[1].Kind())
	assert.Equal(t, types.KindNewVariant, events[2].Kind())
	assert.Equal(t, types.KindNewVariant, events[3].Kind())
}
