package rate

import (
	"github.com/shopspring/decimal"

	"shiprates/internal/catalog"
)

// FlatCarrier labels the single parcel produced in flat-price mode.
const FlatCarrier = "Prezzo Fisso"

// Mode records how a quote was priced.
type Mode string

const (
	ModeAllocated Mode = "allocated"
	ModeFlat      Mode = "flat"
	ModeDefault   Mode = "default"
)

// Quote is the shipping charge for an order.
type Quote struct {
	Carrier               string   `json:"carrier"`
	BaseCost              float64  `json:"base_cost"`
	FinalCost             float64  `json:"final_cost"`
	MarkupPercent         float64  `json:"markup_percent"`
	Packages              []Parcel `json:"packages"`
	TotalPackages         int      `json:"total_packages"`
	IsFreeShipping        bool     `json:"is_free_shipping"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`
	Mode                  Mode     `json:"mode"`
}

// Compute prices req against snap. It never fails: incomplete data falls back
// to the flat price when one is configured, and parcels no carrier accepts
// are priced by the fallback rule.
func Compute(snap catalog.Snapshot, req Request) Quote {
	policy := snap.Policy
	var q Quote

	if flat, ok := policy.FixedPrice(); ok && req.Completeness() == Incomplete {
		q = flatQuote(req.LineItems, FlatCarrier, "", flat)
		q.Mode = ModeFlat
	} else {
		alloc := Allocate(snap.Catalog, req.LineItems)
		q = Quote{
			Carrier:  alloc.Carrier,
			BaseCost: alloc.TotalCost,
			Packages: alloc.Parcels,
			Mode:     ModeAllocated,
		}
	}
	q.TotalPackages = len(q.Packages)
	if policy.FreeShippingThreshold != nil {
		q.FreeShippingThreshold = catalog.Float64(*policy.FreeShippingThreshold)
	}

	switch {
	case policy.FreeShippingApplies(req.Subtotal):
		q.BaseCost = 0
		q.FinalCost = 0
		q.IsFreeShipping = true
	case q.Mode == ModeAllocated:
		q.MarkupPercent = policy.MarkupPercent
		q.FinalCost = applyMarkup(q.BaseCost, policy.MarkupPercent)
	default:
		q.FinalCost = q.BaseCost
	}
	return q
}

// DefaultQuote is the conservative quote callers return when the shipping
// configuration cannot be read.
func DefaultQuote(req Request) Quote {
	q := flatQuote(req.LineItems, FallbackCarrier, catalog.FormatNonStandard, FallbackPrice)
	q.FinalCost = q.BaseCost
	q.TotalPackages = len(q.Packages)
	q.Mode = ModeDefault
	return q
}

// flatQuote puts every line item into a single parcel charged price.
func flatQuote(items []LineItem, carrier, format string, price float64) Quote {
	p := Parcel{Carrier: carrier, Format: format, Cost: price}
	records := make([]Record, 0, len(items))
	for i, li := range items {
		phys, _ := li.Physical()
		p.Items = append(p.Items, ParcelItem{ProductID: li.ProductID, Name: li.Name, Quantity: li.Quantity})
		p.lines = append(p.lines, i)
		records = append(records, Record{
			Height:   phys.Height,
			Width:    phys.Width,
			Depth:    phys.Depth,
			Weight:   phys.Weight,
			Quantity: li.Quantity,
		})
	}
	p.records = records
	m := Measure(records)
	p.Weight = roundWeight(m.TotalWeight)
	p.Dimensions = m.dimensions()

	packages := []Parcel{}
	if len(items) > 0 {
		packages = append(packages, p)
	}
	return Quote{
		Carrier:  carrier,
		BaseCost: roundMoney(decimal.NewFromFloat(price)),
		Packages: packages,
	}
}

func applyMarkup(base, percent float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))
	return roundMoney(decimal.NewFromFloat(base).Mul(factor))
}

func roundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
