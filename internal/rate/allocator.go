package rate

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"shiprates/internal/catalog"
)

// ParcelItem is the portion of a line item packed into one parcel.
type ParcelItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Parcel is one physical package.
type Parcel struct {
	Items      []ParcelItem `json:"items"`
	Weight     float64      `json:"weight"`
	Dimensions Dimensions   `json:"dimensions"`
	Carrier    string       `json:"carrier"`
	Format     string       `json:"format,omitempty"`
	Cost       float64      `json:"cost"`
	Fallback   bool         `json:"fallback,omitempty"`

	// lines and records run parallel to Items.
	lines   []int
	records []Record
}

// withUnit returns a copy of p holding one more unit of the given line.
// p itself is left untouched.
func (p Parcel) withUnit(line int, item LineItem, phys Physical) Parcel {
	next := p
	next.Items = append([]ParcelItem(nil), p.Items...)
	next.lines = append([]int(nil), p.lines...)
	next.records = append([]Record(nil), p.records...)
	for i, l := range next.lines {
		if l == line {
			next.Items[i].Quantity++
			next.records[i].Quantity++
			return next
		}
	}
	next.Items = append(next.Items, ParcelItem{ProductID: item.ProductID, Name: item.Name, Quantity: 1})
	next.lines = append(next.lines, line)
	next.records = append(next.records, Record{
		Height:   phys.Height,
		Width:    phys.Width,
		Depth:    phys.Depth,
		Weight:   phys.Weight,
		Quantity: 1,
	})
	return next
}

// priced applies a selection to the parcel; the price replaces any
// previous one.
func (p Parcel) priced(m Measurements, sel Selection) Parcel {
	p.Weight = roundWeight(m.TotalWeight)
	p.Dimensions = m.dimensions()
	p.Carrier = sel.Carrier
	p.Format = sel.Format
	p.Cost = sel.Price
	p.Fallback = sel.Fallback
	return p
}

// Allocation is the result of packing an order.
type Allocation struct {
	Parcels     []Parcel
	TotalCost   float64
	TotalWeight float64
	Carrier     string
}

// Allocate packs every unit of items into parcels, largest unit volume first.
// Each unit goes into the first existing parcel that stays eligible for some
// carrier once the unit is added; otherwise it opens a new parcel, priced with
// the fallback rule if needed. The layout is deterministic for a given input.
func Allocate(cat catalog.Catalog, items []LineItem) Allocation {
	phys := make([]Physical, len(items))
	order := make([]int, len(items))
	for i, li := range items {
		phys[i], _ = li.Physical()
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return phys[order[a]].Volume() > phys[order[b]].Volume()
	})

	parcels := make([]Parcel, 0, 1)
	for _, line := range order {
		for q := 0; q < items[line].Quantity; q++ {
			parcels = place(cat, parcels, line, items[line], phys[line])
		}
	}

	alloc := Allocation{Parcels: parcels, Carrier: dominantCarrier(parcels)}
	total := decimal.Zero
	weight := 0.0
	for _, p := range parcels {
		total = total.Add(decimal.NewFromFloat(p.Cost))
		weight += p.Weight
	}
	alloc.TotalCost = total.Round(2).InexactFloat64()
	alloc.TotalWeight = roundWeight(weight)
	return alloc
}

func place(cat catalog.Catalog, parcels []Parcel, line int, item LineItem, phys Physical) []Parcel {
	for i := range parcels {
		candidate := parcels[i].withUnit(line, item, phys)
		m := Measure(candidate.records)
		if sel, ok := Select(cat, m); ok {
			parcels[i] = candidate.priced(m, sel)
			return parcels
		}
	}
	fresh := Parcel{}.withUnit(line, item, phys)
	m := Measure(fresh.records)
	return append(parcels, fresh.priced(m, SelectWithFallback(cat, m)))
}

// dominantCarrier returns the carrier used by most parcels; ties go to the
// one seen first.
func dominantCarrier(parcels []Parcel) string {
	counts := make(map[string]int, len(parcels))
	var seen []string
	for _, p := range parcels {
		if counts[p.Carrier] == 0 {
			seen = append(seen, p.Carrier)
		}
		counts[p.Carrier]++
	}
	best, bestCount := "", 0
	for _, c := range seen {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

func roundWeight(kg float64) float64 {
	return math.Round(kg*1000) / 1000
}
