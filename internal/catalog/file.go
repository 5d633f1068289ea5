package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultHeavyThresholdKg    = 10
	defaultFallbackMaxWeightKg = 20
)

// LoadFile reads a YAML snapshot document from path.
//
// The document has two top-level keys, catalog and policy. Unknown keys are
// rejected so that a typo in a limit name does not silently price with zero.
func LoadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	snap, err := Decode(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Decode parses and validates a YAML snapshot document.
func Decode(r io.Reader) (Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return Snapshot{}, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
		}
		return Snapshot{}, fmt.Errorf("decode catalog: %w", err)
	}
	if snap.Catalog.HeavyThresholdKg == 0 {
		snap.Catalog.HeavyThresholdKg = defaultHeavyThresholdKg
	}
	if snap.Catalog.FallbackMaxWeightKg == 0 {
		snap.Catalog.FallbackMaxWeightKg = defaultFallbackMaxWeightKg
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
