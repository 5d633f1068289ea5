package rate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprates/internal/catalog"
)

func boxed(id string, qty int, h, w, d, kg float64) LineItem {
	return LineItem{
		ProductID: id,
		Name:      "Product " + id,
		Quantity:  qty,
		Height:    Float64(h),
		Width:     Float64(w),
		Depth:     Float64(d),
		Weight:    Float64(kg),
	}
}

func TestAllocate_SingleLightItem(t *testing.T) {
	alloc := Allocate(catalog.Default(), []LineItem{boxed("p1", 1, 20, 15, 10, 2)})

	require.Len(t, alloc.Parcels, 1)
	p := alloc.Parcels[0]
	assert.Equal(t, "SDA", p.Carrier)
	assert.Equal(t, 8.00, p.Cost)
	assert.Equal(t, 2.0, p.Weight)
	assert.Equal(t, Dimensions{Height: 20, Width: 15, Depth: 10, MaxSide: 20, SumOfSides: 45, Volume: 3000}, p.Dimensions)
	assert.Equal(t, []ParcelItem{{ProductID: "p1", Name: "Product p1", Quantity: 1}}, p.Items)
	assert.Equal(t, "SDA", alloc.Carrier)
	assert.Equal(t, 8.00, alloc.TotalCost)
}

func TestAllocate_TwoHeavyUnitsShareHeavyCourier(t *testing.T) {
	alloc := Allocate(catalog.Default(), []LineItem{boxed("dumbbell", 2, 30, 20, 10, 12)})

	require.Len(t, alloc.Parcels, 1)
	assert.Equal(t, "BRT", alloc.Parcels[0].Carrier)
	assert.Equal(t, 21.90, alloc.Parcels[0].Cost)
	assert.Equal(t, 24.0, alloc.TotalWeight)
	assert.Equal(t, 2, alloc.Parcels[0].Items[0].Quantity)
}

func TestAllocate_PriceIsReplacedAsParcelGrows(t *testing.T) {
	// 2kg units: light courier up to 10kg, heavy courier from 12kg.
	alloc := Allocate(catalog.Default(), []LineItem{boxed("jar", 6, 20, 15, 10, 2)})

	require.Len(t, alloc.Parcels, 1)
	assert.Equal(t, "BRT", alloc.Parcels[0].Carrier)
	assert.Equal(t, 13.90, alloc.Parcels[0].Cost)
	assert.Equal(t, 13.90, alloc.TotalCost)
}

func TestAllocate_SplitsOverweight(t *testing.T) {
	alloc := Allocate(catalog.Default(), []LineItem{boxed("anvil", 3, 30, 20, 10, 25)})

	require.Len(t, alloc.Parcels, 3)
	for _, p := range alloc.Parcels {
		assert.Equal(t, "BRT", p.Carrier)
		assert.Equal(t, 21.90, p.Cost)
		assert.Equal(t, 1, p.Items[0].Quantity)
	}
	assert.Equal(t, 65.70, alloc.TotalCost)
	assert.Equal(t, 75.0, alloc.TotalWeight)
}

func TestAllocate_LargestVolumeFirst(t *testing.T) {
	items := []LineItem{
		boxed("small", 1, 10, 10, 10, 1),
		boxed("big", 1, 60, 40, 40, 1),
	}
	alloc := Allocate(catalog.Default(), items)

	require.Len(t, alloc.Parcels, 1)
	require.Len(t, alloc.Parcels[0].Items, 2)
	assert.Equal(t, "big", alloc.Parcels[0].Items[0].ProductID)
	assert.Equal(t, "small", alloc.Parcels[0].Items[1].ProductID)
	assert.Equal(t, 8.00, alloc.Parcels[0].Cost)
}

func TestAllocate_EnvelopeDoesNotGrowWithSmallItems(t *testing.T) {
	alloc := Allocate(catalog.Default(), []LineItem{boxed("bead", 50, 10, 10, 10, 0.1)})

	require.Len(t, alloc.Parcels, 1)
	p := alloc.Parcels[0]
	assert.Equal(t, 5.0, p.Weight)
	assert.Equal(t, 1000.0, p.Dimensions.Volume)
	assert.Equal(t, 8.00, p.Cost)
}

func TestAllocate_OversizedUnitUsesFallback(t *testing.T) {
	items := []LineItem{
		boxed("canoe", 1, 300, 40, 30, 18),
		boxed("paddle", 1, 20, 10, 5, 1),
	}
	alloc := Allocate(catalog.Default(), items)

	require.Len(t, alloc.Parcels, 2)
	canoe := alloc.Parcels[0]
	assert.True(t, canoe.Fallback)
	assert.Equal(t, catalog.FormatNonStandard, canoe.Format)
	assert.Equal(t, 19.90, canoe.Cost)
	assert.Equal(t, "paddle", alloc.Parcels[1].Items[0].ProductID)
	assert.Equal(t, "SDA", alloc.Parcels[1].Carrier)
	assert.False(t, alloc.Parcels[1].Fallback)
}

func TestAllocate_Empty(t *testing.T) {
	alloc := Allocate(catalog.Default(), nil)
	assert.NotNil(t, alloc.Parcels)
	assert.Empty(t, alloc.Parcels)
	assert.Zero(t, alloc.TotalCost)
	assert.Equal(t, "", alloc.Carrier)
}

func randomItems(rng *rand.Rand) []LineItem {
	n := 1 + rng.Intn(5)
	items := make([]LineItem, n)
	for i := range items {
		items[i] = boxed(
			fmt.Sprintf("p%d", i),
			1+rng.Intn(8),
			float64(5+rng.Intn(120)),
			float64(5+rng.Intn(60)),
			float64(5+rng.Intn(40)),
			0.1+float64(rng.Intn(150))/10,
		)
	}
	return items
}

func TestAllocate_ConservesUnits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cat := catalog.Default()
	for run := 0; run < 200; run++ {
		items := randomItems(rng)
		alloc := Allocate(cat, items)

		packed := map[string]int{}
		for _, p := range alloc.Parcels {
			require.NotEmpty(t, p.Items)
			for _, it := range p.Items {
				packed[it.ProductID] += it.Quantity
			}
		}
		for _, li := range items {
			assert.Equal(t, li.Quantity, packed[li.ProductID], "run %d product %s", run, li.ProductID)
		}
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cat := catalog.Default()
	for run := 0; run < 50; run++ {
		items := randomItems(rng)
		first := Allocate(cat, items)
		second := Allocate(cat, items)
		assert.Equal(t, first, second)
	}
}

func TestWithUnit_CopyOnWrite(t *testing.T) {
	item := boxed("p1", 2, 10, 10, 10, 1)
	phys, _ := item.Physical()

	one := Parcel{}.withUnit(0, item, phys)
	two := one.withUnit(0, item, phys)

	assert.Equal(t, 1, one.Items[0].Quantity)
	assert.Equal(t, 1, one.records[0].Quantity)
	assert.Equal(t, 2, two.Items[0].Quantity)
	assert.Equal(t, 2, two.records[0].Quantity)
}

func TestDominantCarrier(t *testing.T) {
	parcels := func(names ...string) []Parcel {
		out := make([]Parcel, len(names))
		for i, n := range names {
			out[i].Carrier = n
		}
		return out
	}
	assert.Equal(t, "BRT", dominantCarrier(parcels("SDA", "BRT", "BRT")))
	assert.Equal(t, "SDA", dominantCarrier(parcels("SDA", "BRT", "BRT", "SDA")))
	assert.Equal(t, "", dominantCarrier(nil))
}
