package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiprates/internal/rate"
)

// ErrQuoteNotFound is returned when no quote has the requested id.
var ErrQuoteNotFound = errors.New("quote not found")

// StoredQuote is a persisted quote. Orders reference it by ID to show the
// parcel breakdown later.
type StoredQuote struct {
	ID             uuid.UUID    `json:"quote_id"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
	Request        rate.Request `json:"request"`
	Quote          rate.Quote   `json:"quote"`
	CreatedAt      time.Time    `json:"created_at"`
}

// QuoteRepo stores quotes in shipping_quotes.
type QuoteRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRepo(pool *pgxpool.Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

// Save inserts a quote. When key is non-empty and already used, the quote
// stored under that key is returned instead.
func (r *QuoteRepo) Save(ctx context.Context, key string, req rate.Request, q rate.Quote) (StoredQuote, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return StoredQuote{}, fmt.Errorf("encode request: %w", err)
	}
	quoteJSON, err := json.Marshal(q)
	if err != nil {
		return StoredQuote{}, fmt.Errorf("encode quote: %w", err)
	}
	stored := StoredQuote{
		ID:             uuid.New(),
		IdempotencyKey: key,
		Request:        req,
		Quote:          q,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO shipping_quotes (
			id, idempotency_key, carrier, final_cost, mode, total_packages,
			request, quote, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7::jsonb, $8::jsonb, $9
		)
	`,
		stored.ID,
		nullIfEmpty(key),
		q.Carrier,
		q.FinalCost,
		string(q.Mode),
		q.TotalPackages,
		string(reqJSON),
		string(quoteJSON),
		stored.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if key != "" && errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return r.getBy(ctx, "idempotency_key", key)
		}
		return StoredQuote{}, fmt.Errorf("insert quote: %w", err)
	}
	return stored, nil
}

// Get returns the quote with the given id.
func (r *QuoteRepo) Get(ctx context.Context, id uuid.UUID) (StoredQuote, error) {
	return r.getBy(ctx, "id", id)
}

func (r *QuoteRepo) getBy(ctx context.Context, column string, value any) (StoredQuote, error) {
	var (
		stored    StoredQuote
		key       *string
		reqJSON   []byte
		quoteJSON []byte
	)
	// column is one of two constants above, never user input.
	err := r.pool.QueryRow(ctx, `
		SELECT id, idempotency_key, request, quote, created_at
		FROM shipping_quotes
		WHERE `+column+` = $1
	`, value).Scan(&stored.ID, &key, &reqJSON, &quoteJSON, &stored.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredQuote{}, ErrQuoteNotFound
		}
		return StoredQuote{}, fmt.Errorf("select quote: %w", err)
	}
	if key != nil {
		stored.IdempotencyKey = *key
	}
	if err := json.Unmarshal(reqJSON, &stored.Request); err != nil {
		return StoredQuote{}, fmt.Errorf("decode stored request: %w", err)
	}
	if err := json.Unmarshal(quoteJSON, &stored.Quote); err != nil {
		return StoredQuote{}, fmt.Errorf("decode stored quote: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return stored, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
