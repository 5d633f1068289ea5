package rate

import (
	"context"
	"fmt"

	"shiprates/internal/catalog"
)

// Estimator defines the interface for shipping quote engines.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (Quote, error)
}

// TableEstimator prices requests from the carrier tables of a catalog.Source.
// The source is read once per request; the computation itself has no shared
// state, so a TableEstimator is safe for concurrent use.
type TableEstimator struct {
	source catalog.Source
}

func NewTableEstimator(source catalog.Source) *TableEstimator {
	return &TableEstimator{source: source}
}

// Estimate returns an error only when the configuration cannot be read.
func (e *TableEstimator) Estimate(ctx context.Context, req Request) (Quote, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load shipping configuration: %w", err)
	}
	return Compute(snap, req), nil
}

// EstimateOrDefault runs est and substitutes DefaultQuote when it fails. The
// error is still returned so the caller can log it.
func EstimateOrDefault(ctx context.Context, est Estimator, req Request) (Quote, error) {
	q, err := est.Estimate(ctx, req)
	if err != nil {
		return DefaultQuote(req), err
	}
	return q, nil
}
