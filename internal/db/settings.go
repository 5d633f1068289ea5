package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiprates/internal/catalog"
)

// Carrier roles as stored in carrier_profiles.role.
const (
	RoleLight             = "light"
	RoleHeavy             = "heavy"
	RolePostalStandard    = "postal_standard"
	RolePostalNonStandard = "postal_non_standard"
)

// SettingsSource reads the carrier catalog and shipping policy edited by the
// admin backoffice.
type SettingsSource struct {
	pool *pgxpool.Pool
}

func NewSettingsSource(pool *pgxpool.Pool) *SettingsSource {
	return &SettingsSource{pool: pool}
}

// Snapshot loads every table inside one read-only repeatable-read
// transaction, so a concurrent admin edit is either fully visible or not at all.
func (s *SettingsSource) Snapshot(ctx context.Context) (catalog.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("begin settings tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	profiles, err := loadProfiles(ctx, tx)
	if err != nil {
		return catalog.Snapshot{}, err
	}
	if err := loadTiers(ctx, tx, profiles); err != nil {
		return catalog.Snapshot{}, err
	}
	snap := catalog.Snapshot{
		Catalog: catalog.Catalog{
			Light:             *profiles[RoleLight],
			Heavy:             *profiles[RoleHeavy],
			PostalStandard:    *profiles[RolePostalStandard],
			PostalNonStandard: *profiles[RolePostalNonStandard],
		},
	}
	if err := loadSettings(ctx, tx, &snap); err != nil {
		return catalog.Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return catalog.Snapshot{}, err
	}
	return snap, tx.Commit(ctx)
}

func loadProfiles(ctx context.Context, tx pgx.Tx) (map[string]*catalog.CarrierProfile, error) {
	profiles := map[string]*catalog.CarrierProfile{
		RoleLight:             {},
		RoleHeavy:             {},
		RolePostalStandard:    {Format: catalog.FormatStandard},
		RolePostalNonStandard: {Format: catalog.FormatNonStandard},
	}
	rows, err := tx.Query(ctx, `
		SELECT role, name, format, max_weight_kg, max_single_side_cm, max_sum_of_sides_cm
		FROM carrier_profiles
	`)
	if err != nil {
		return nil, fmt.Errorf("query carrier_profiles: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var (
			role   string
			format *string
			p      catalog.CarrierProfile
		)
		if err := rows.Scan(&role, &p.Name, &format, &p.MaxWeightKg, &p.MaxSingleSideCm, &p.MaxSumOfSidesCm); err != nil {
			return nil, fmt.Errorf("scan carrier_profiles: %w", err)
		}
		dst, ok := profiles[role]
		if !ok {
			continue
		}
		if format != nil {
			p.Format = *format
		} else {
			p.Format = dst.Format
		}
		*dst = p
		seen[role] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read carrier_profiles: %w", err)
	}
	var missing []error
	for role := range profiles {
		if !seen[role] {
			missing = append(missing, fmt.Errorf("no carrier profile for role %s", role))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrInvalidCatalog, err)
	}
	return profiles, nil
}

func loadTiers(ctx context.Context, tx pgx.Tx, profiles map[string]*catalog.CarrierProfile) error {
	rows, err := tx.Query(ctx, `
		SELECT role, max_weight_kg, price
		FROM carrier_price_tiers
		ORDER BY role, max_weight_kg
	`)
	if err != nil {
		return fmt.Errorf("query carrier_price_tiers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			role string
			tier catalog.PriceTier
		)
		if err := rows.Scan(&role, &tier.MaxWeightKg, &tier.Price); err != nil {
			return fmt.Errorf("scan carrier_price_tiers: %w", err)
		}
		if p, ok := profiles[role]; ok {
			p.Tiers = append(p.Tiers, tier)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read carrier_price_tiers: %w", err)
	}
	return nil
}

// loadSettings fills the policy and thresholds. A missing settings row is not
// an error: the store then runs without markup, threshold or flat price.
func loadSettings(ctx context.Context, tx pgx.Tx, snap *catalog.Snapshot) error {
	snap.Catalog.HeavyThresholdKg = 10
	snap.Catalog.FallbackMaxWeightKg = 20
	var (
		markup    float64
		threshold *float64
		fixed     *float64
		heavyKg   *float64
		capKg     *float64
	)
	err := tx.QueryRow(ctx, `
		SELECT markup_percent, free_shipping_threshold, fixed_shipping_price,
		       heavy_threshold_kg, fallback_max_weight_kg
		FROM shipping_settings
		WHERE id = 1
	`).Scan(&markup, &threshold, &fixed, &heavyKg, &capKg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("query shipping_settings: %w", err)
	}
	snap.Policy = catalog.Policy{
		MarkupPercent:         markup,
		FreeShippingThreshold: threshold,
		FixedShippingPrice:    fixed,
	}
	if heavyKg != nil {
		snap.Catalog.HeavyThresholdKg = *heavyKg
	}
	if capKg != nil {
		snap.Catalog.FallbackMaxWeightKg = *capKg
	}
	return nil
}
