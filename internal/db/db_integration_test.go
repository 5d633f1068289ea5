package db

import (
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"shiprates/internal/rate"
)

// These tests expect a database migrated with migrations/0001_shipping.sql.

func TestSettingsSnapshotIntegration(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}
	pool, err := NewPool(t.Context(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	defer pool.Close()

	snap, err := NewSettingsSource(pool).Snapshot(t.Context())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Catalog.Light.Name == "" || len(snap.Catalog.PostalNonStandard.Tiers) == 0 {
		t.Fatalf("unexpected catalog: %+v", snap.Catalog)
	}
	if snap.Catalog.PostalNonStandard.Format != "non_standard" {
		t.Fatalf("unexpected format: %q", snap.Catalog.PostalNonStandard.Format)
	}
}

func TestQuoteRepoIntegration(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
		return
	}
	pool, err := NewPool(t.Context(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	defer pool.Close()

	repo := NewQuoteRepo(pool)
	req := rate.Request{LineItems: []rate.LineItem{{ProductID: "it-1", Quantity: 1}}}
	q := rate.DefaultQuote(req)
	key := "it-" + uuid.NewString()

	first, err := repo.Save(t.Context(), key, req, q)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	defer func() { _, _ = pool.Exec(t.Context(), `DELETE FROM shipping_quotes WHERE id = $1`, first.ID) }()

	replay, err := repo.Save(t.Context(), key, req, q)
	if err != nil {
		t.Fatalf("replay save: %v", err)
	}
	if replay.ID != first.ID {
		t.Fatalf("expected idempotent replay to return %s, got %s", first.ID, replay.ID)
	}

	got, err := repo.Get(t.Context(), first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Quote.FinalCost != q.FinalCost || got.Quote.Mode != rate.ModeDefault {
		t.Fatalf("unexpected stored quote: %+v", got.Quote)
	}

	if _, err := repo.Get(t.Context(), uuid.New()); !errors.Is(err, ErrQuoteNotFound) {
		t.Fatalf("expected ErrQuoteNotFound, got %v", err)
	}
}
