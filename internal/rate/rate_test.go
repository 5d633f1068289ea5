package rate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprates/internal/catalog"
)

type brokenSource struct{}

func (brokenSource) Snapshot(ctx context.Context) (catalog.Snapshot, error) {
	return catalog.Snapshot{}, errors.New("settings table missing")
}

func TestTableEstimator(t *testing.T) {
	est := NewTableEstimator(catalog.NewStatic(snapshotWith(catalog.Policy{MarkupPercent: 10})))
	q, err := est.Estimate(context.Background(), Request{LineItems: []LineItem{boxed("p1", 1, 20, 15, 10, 2)}})
	require.NoError(t, err)
	assert.Equal(t, 8.80, q.FinalCost)
}

func TestEstimateOrDefault_ConfigFailure(t *testing.T) {
	est := NewTableEstimator(brokenSource{})
	req := Request{LineItems: []LineItem{boxed("p1", 1, 20, 15, 10, 2)}}

	_, err := est.Estimate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load shipping configuration")

	q, err := EstimateOrDefault(context.Background(), est, req)
	require.Error(t, err)
	assert.Equal(t, ModeDefault, q.Mode)
	assert.Equal(t, FallbackPrice, q.FinalCost)
}
