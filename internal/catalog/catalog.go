package catalog

import (
	"errors"
	"fmt"
)

// Canonical postal formats.
const (
	FormatStandard    = "standard"
	FormatNonStandard = "non_standard"
)

var (
	// ErrInvalidCatalog is returned when a carrier table cannot be used for pricing.
	ErrInvalidCatalog = errors.New("invalid carrier catalog")
	// ErrInvalidPolicy is returned when store-wide shipping settings are malformed.
	ErrInvalidPolicy = errors.New("invalid shipping policy")
)

// PriceTier is a (weight ceiling, price) pair. The ceiling is inclusive.
type PriceTier struct {
	MaxWeightKg float64 `json:"max_weight_kg" yaml:"max_weight_kg"`
	Price       float64 `json:"price" yaml:"price"`
}

// CarrierProfile describes one carrier, or one carrier format, with its hard
// limits and its ascending price tiers.
type CarrierProfile struct {
	Name            string      `json:"name" yaml:"name"`
	Format          string      `json:"format,omitempty" yaml:"format,omitempty"`
	MaxWeightKg     float64     `json:"max_weight_kg" yaml:"max_weight_kg"`
	MaxSingleSideCm float64     `json:"max_single_side_cm" yaml:"max_single_side_cm"`
	MaxSumOfSidesCm float64     `json:"max_sum_of_sides_cm" yaml:"max_sum_of_sides_cm"`
	Tiers           []PriceTier `json:"price_tiers" yaml:"price_tiers"`
}

// PriceFor returns the price of the first tier whose ceiling is >= weight.
func (p CarrierProfile) PriceFor(weight float64) (float64, bool) {
	for _, t := range p.Tiers {
		if t.MaxWeightKg >= weight {
			return t.Price, true
		}
	}
	return 0, false
}

// Rate returns the price of a parcel that fits the profile's limits and is
// covered by one of its tiers.
func (p CarrierProfile) Rate(weight, maxSide, sumOfSides float64) (float64, bool) {
	if weight > p.MaxWeightKg || maxSide > p.MaxSingleSideCm || sumOfSides > p.MaxSumOfSidesCm {
		return 0, false
	}
	return p.PriceFor(weight)
}

// Eligible reports whether Rate would price the parcel.
func (p CarrierProfile) Eligible(weight, maxSide, sumOfSides float64) bool {
	_, ok := p.Rate(weight, maxSide, sumOfSides)
	return ok
}

func (p CarrierProfile) clone() CarrierProfile {
	p.Tiers = append([]PriceTier(nil), p.Tiers...)
	return p
}

func (p CarrierProfile) validate(role string) error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("%s: name required", role))
	}
	if p.MaxWeightKg <= 0 || p.MaxSingleSideCm <= 0 || p.MaxSumOfSidesCm <= 0 {
		errs = append(errs, fmt.Errorf("%s: limits must be positive", role))
	}
	if len(p.Tiers) == 0 {
		errs = append(errs, fmt.Errorf("%s: no price tiers", role))
		return errors.Join(errs...)
	}
	for i, t := range p.Tiers {
		if t.MaxWeightKg <= 0 || t.Price < 0 {
			errs = append(errs, fmt.Errorf("%s: tier %d has non-positive ceiling or negative price", role, i))
		}
		if i == 0 {
			continue
		}
		prev := p.Tiers[i-1]
		if t.MaxWeightKg <= prev.MaxWeightKg {
			errs = append(errs, fmt.Errorf("%s: tier %d ceiling %.3f not above %.3f", role, i, t.MaxWeightKg, prev.MaxWeightKg))
		}
		if t.Price < prev.Price {
			errs = append(errs, fmt.Errorf("%s: tier %d price %.2f below previous %.2f", role, i, t.Price, prev.Price))
		}
	}
	if last := p.Tiers[len(p.Tiers)-1]; last.MaxWeightKg < p.MaxWeightKg {
		errs = append(errs, fmt.Errorf("%s: tiers stop at %.3fkg, limit is %.3fkg", role, last.MaxWeightKg, p.MaxWeightKg))
	}
	return errors.Join(errs...)
}

// Catalog is the fixed set of profiles the selector walks in priority order.
type Catalog struct {
	Light             CarrierProfile `json:"light" yaml:"light"`
	Heavy             CarrierProfile `json:"heavy" yaml:"heavy"`
	PostalStandard    CarrierProfile `json:"postal_standard" yaml:"postal_standard"`
	PostalNonStandard CarrierProfile `json:"postal_non_standard" yaml:"postal_non_standard"`

	// HeavyThresholdKg splits the light and heavy couriers; weights at or
	// below it go to Light.
	HeavyThresholdKg float64 `json:"heavy_threshold_kg" yaml:"heavy_threshold_kg"`
	// FallbackMaxWeightKg caps the weight used to price oversized parcels
	// against the non-standard postal table.
	FallbackMaxWeightKg float64 `json:"fallback_max_weight_kg" yaml:"fallback_max_weight_kg"`
}

// Clone returns a deep copy.
func (c Catalog) Clone() Catalog {
	c.Light = c.Light.clone()
	c.Heavy = c.Heavy.clone()
	c.PostalStandard = c.PostalStandard.clone()
	c.PostalNonStandard = c.PostalNonStandard.clone()
	return c
}

// Validate checks every profile. All problems are reported together.
func (c Catalog) Validate() error {
	errs := []error{
		c.Light.validate("light"),
		c.Heavy.validate("heavy"),
		c.PostalStandard.validate("postal_standard"),
		c.PostalNonStandard.validate("postal_non_standard"),
	}
	if c.HeavyThresholdKg <= 0 {
		errs = append(errs, errors.New("heavy_threshold_kg must be positive"))
	}
	if c.FallbackMaxWeightKg <= 0 {
		errs = append(errs, errors.New("fallback_max_weight_kg must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return nil
}

// Policy holds store-wide shipping settings.
type Policy struct {
	MarkupPercent         float64  `json:"markup_percent" yaml:"markup_percent"`
	FreeShippingThreshold *float64 `json:"free_shipping_threshold,omitempty" yaml:"free_shipping_threshold,omitempty"`
	FixedShippingPrice    *float64 `json:"fixed_shipping_price,omitempty" yaml:"fixed_shipping_price,omitempty"`
}

// Validate rejects negative markup or flat price and a non-positive
// free-shipping threshold. A zero flat price means unset.
func (p Policy) Validate() error {
	var errs []error
	if p.MarkupPercent < 0 {
		errs = append(errs, fmt.Errorf("markup_percent %.2f is negative", p.MarkupPercent))
	}
	if p.FreeShippingThreshold != nil && *p.FreeShippingThreshold <= 0 {
		errs = append(errs, errors.New("free_shipping_threshold must be positive"))
	}
	if p.FixedShippingPrice != nil && *p.FixedShippingPrice < 0 {
		errs = append(errs, errors.New("fixed_shipping_price is negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	return nil
}

// FixedPrice returns the flat fallback price when one is configured.
func (p Policy) FixedPrice() (float64, bool) {
	if p.FixedShippingPrice == nil || *p.FixedShippingPrice <= 0 {
		return 0, false
	}
	return *p.FixedShippingPrice, true
}

// FreeShippingApplies reports whether subtotal reaches the configured threshold.
func (p Policy) FreeShippingApplies(subtotal float64) bool {
	return p.FreeShippingThreshold != nil && subtotal >= *p.FreeShippingThreshold
}

// Clone returns a deep copy.
func (p Policy) Clone() Policy {
	p.FreeShippingThreshold = cloneFloat(p.FreeShippingThreshold)
	p.FixedShippingPrice = cloneFloat(p.FixedShippingPrice)
	return p
}

// Snapshot is the read-only configuration used for a single quote.
type Snapshot struct {
	Catalog Catalog `json:"catalog" yaml:"catalog"`
	Policy  Policy  `json:"policy" yaml:"policy"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Catalog: s.Catalog.Clone(), Policy: s.Policy.Clone()}
}

// Validate validates both halves of the snapshot.
func (s Snapshot) Validate() error {
	return errors.Join(s.Catalog.Validate(), s.Policy.Validate())
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
