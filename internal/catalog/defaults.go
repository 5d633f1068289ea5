package catalog

// Default returns the builtin reference catalog: SDA for light parcels, BRT for
// heavy ones and Poste Italiane as the catch-all.
func Default() Catalog {
	return Catalog{
		Light: CarrierProfile{
			Name:            "SDA",
			MaxWeightKg:     10,
			MaxSingleSideCm: 100,
			MaxSumOfSidesCm: 150,
			Tiers: []PriceTier{
				{MaxWeightKg: 5, Price: 8.00},
				{MaxWeightKg: 10, Price: 11.50},
			},
		},
		Heavy: CarrierProfile{
			Name:            "BRT",
			MaxWeightKg:     30,
			MaxSingleSideCm: 120,
			MaxSumOfSidesCm: 200,
			Tiers: []PriceTier{
				{MaxWeightKg: 15, Price: 13.90},
				{MaxWeightKg: 20, Price: 16.90},
				{MaxWeightKg: 30, Price: 21.90},
			},
		},
		PostalStandard: CarrierProfile{
			Name:            "Poste Italiane",
			Format:          FormatStandard,
			MaxWeightKg:     20,
			MaxSingleSideCm: 105,
			MaxSumOfSidesCm: 200,
			Tiers: []PriceTier{
				{MaxWeightKg: 2, Price: 7.20},
				{MaxWeightKg: 5, Price: 9.90},
				{MaxWeightKg: 10, Price: 12.50},
				{MaxWeightKg: 20, Price: 16.00},
			},
		},
		PostalNonStandard: CarrierProfile{
			Name:            "Poste Italiane",
			Format:          FormatNonStandard,
			MaxWeightKg:     20,
			MaxSingleSideCm: 150,
			MaxSumOfSidesCm: 300,
			Tiers: []PriceTier{
				{MaxWeightKg: 2, Price: 9.50},
				{MaxWeightKg: 5, Price: 12.00},
				{MaxWeightKg: 10, Price: 15.50},
				{MaxWeightKg: 20, Price: 19.90},
			},
		},
		HeavyThresholdKg:    10,
		FallbackMaxWeightKg: 20,
	}
}

// DefaultSnapshot pairs the builtin catalog with a policy that charges no
// markup and has neither a free-shipping threshold nor a flat price.
func DefaultSnapshot() Snapshot {
	return Snapshot{Catalog: Default()}
}
