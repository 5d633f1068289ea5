package rate

import (
	"shiprates/internal/catalog"
)

const (
	// FallbackPrice is charged when even the non-standard postal table cannot
	// price a parcel.
	FallbackPrice = 15.00
	// FallbackCarrier labels fallback parcels when the postal profile has no name.
	FallbackCarrier = "Poste Italiane"
)

// Selection is the carrier, format and price assigned to a parcel.
type Selection struct {
	Carrier  string
	Format   string
	Price    float64
	Fallback bool
}

// Select walks the carriers in priority order and returns the first one the
// parcel is eligible for: the light or heavy courier depending on weight,
// then the standard and non-standard postal formats.
func Select(cat catalog.Catalog, m Measurements) (Selection, bool) {
	if m.TotalWeight <= cat.HeavyThresholdKg {
		if sel, ok := tryProfile(cat.Light, cat.Light.Format, m); ok {
			return sel, true
		}
	} else if sel, ok := tryProfile(cat.Heavy, cat.Heavy.Format, m); ok {
		return sel, true
	}
	if sel, ok := tryProfile(cat.PostalStandard, catalog.FormatStandard, m); ok {
		return sel, true
	}
	if sel, ok := tryProfile(cat.PostalNonStandard, catalog.FormatNonStandard, m); ok {
		return sel, true
	}
	return Selection{}, false
}

// SelectWithFallback never fails. A parcel no profile accepts is priced on the
// non-standard postal table at its weight capped to FallbackMaxWeightKg, and
// at FallbackPrice if that table has no matching tier.
func SelectWithFallback(cat catalog.Catalog, m Measurements) Selection {
	if sel, ok := Select(cat, m); ok {
		return sel
	}
	carrier := cat.PostalNonStandard.Name
	if carrier == "" {
		carrier = FallbackCarrier
	}
	price, ok := cat.PostalNonStandard.PriceFor(min(m.TotalWeight, cat.FallbackMaxWeightKg))
	if !ok {
		price = FallbackPrice
	}
	return Selection{
		Carrier:  carrier,
		Format:   catalog.FormatNonStandard,
		Price:    price,
		Fallback: true,
	}
}

func tryProfile(p catalog.CarrierProfile, format string, m Measurements) (Selection, bool) {
	price, ok := p.Rate(m.TotalWeight, m.MaxSide, m.SumOfSides)
	if !ok {
		return Selection{}, false
	}
	return Selection{Carrier: p.Name, Format: format, Price: price}, true
}
