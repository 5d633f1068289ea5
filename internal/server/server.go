package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiprates/internal/catalog"
	"shiprates/internal/db"
	"shiprates/internal/metrics"
	"shiprates/internal/observability"
	"shiprates/internal/rate"
)

const maxBodyBytes = 1 << 20

// QuoteStore persists quotes for the order subsystem.
type QuoteStore interface {
	Save(ctx context.Context, key string, req rate.Request, q rate.Quote) (db.StoredQuote, error)
	Get(ctx context.Context, id uuid.UUID) (db.StoredQuote, error)
}

// Options wires the server's collaborators. Only Source is required.
type Options struct {
	Source  catalog.Source
	Quotes  QuoteStore
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Server struct {
	source   catalog.Source
	est      rate.Estimator
	quotes   QuoteStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
	validate *validator.Validate
}

// New returns a handler pricing quotes from src, without persistence.
func New(src catalog.Source) http.Handler {
	return NewWithOptions(Options{Source: src})
}

// NewWithOptions returns the full router.
func NewWithOptions(opts Options) http.Handler {
	if opts.Source == nil {
		opts.Source = catalog.NewStatic(catalog.DefaultSnapshot())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		source:   opts.Source,
		est:      rate.NewTableEstimator(opts.Source),
		quotes:   opts.Quotes,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		validate: newValidator(),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/quotes", s.handleCreateQuote)
	r.Get("/quotes/{id}", s.handleGetQuote)
	r.Get("/rates", s.handleGetRates)
	r.Get("/carriers", s.handleGetCarriers)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// QuoteResponse is a computed quote plus its id when it was persisted.
type QuoteResponse struct {
	QuoteID string `json:"quote_id,omitempty"`
	rate.Quote
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req rate.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	logger := observability.FromContext(ctx)

	q, err := rate.EstimateOrDefault(ctx, s.est, req)
	if err != nil {
		// Checkout must not block on the shipping configuration.
		logger.Warn("shipping configuration unavailable, using default quote", zap.Error(err))
		s.metrics.ConfigFailure()
	}
	s.metrics.ObserveQuote(q)

	resp := QuoteResponse{Quote: q}
	if s.quotes != nil {
		stored, err := s.quotes.Save(ctx, strings.TrimSpace(r.Header.Get("Idempotency-Key")), req, q)
		if err != nil {
			logger.Error("persist quote", zap.Error(err))
			s.metrics.QuoteSaveError()
		} else {
			resp = QuoteResponse{QuoteID: stored.ID.String(), Quote: stored.Quote}
		}
	}
	logger.Info("quote computed",
		zap.String("mode", string(resp.Mode)),
		zap.String("carrier", resp.Carrier),
		zap.Int("packages", resp.TotalPackages),
		zap.Float64("final_cost", resp.FinalCost),
		zap.Bool("free_shipping", resp.IsFreeShipping),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeErrorJSON(w, http.StatusServiceUnavailable, "quotes_disabled", "quote storage not configured")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid quote id")
		return
	}
	stored, err := s.quotes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrQuoteNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "quote not found")
			return
		}
		observability.FromContext(r.Context()).Error("load quote", zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// RateResponse is the price of a single parcel.
type RateResponse struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Carrier  string  `json:"carrier"`
	Format   string  `json:"format,omitempty"`
	Fallback bool    `json:"fallback"`
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var rec rate.Record
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"weight_kg", &rec.Weight},
		{"height_cm", &rec.Height},
		{"width_cm", &rec.Width},
		{"depth_cm", &rec.Depth},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := parseFloat(v)
		if err != nil || n < 0 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", f.name+" must be a non-negative number")
			return
		}
		*f.dst = n
	}
	rec.Quantity = 1

	snap, err := s.source.Snapshot(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("load shipping configuration", zap.Error(err))
		writeErrorJSON(w, http.StatusServiceUnavailable, "config_unavailable", "shipping configuration unavailable")
		return
	}
	sel := rate.SelectWithFallback(snap.Catalog, rate.Measure([]rate.Record{rec}))
	writeJSON(w, http.StatusOK, RateResponse{
		Currency: "EUR",
		Amount:   sel.Price,
		Carrier:  sel.Carrier,
		Format:   sel.Format,
		Fallback: sel.Fallback,
	})
}

func (s *Server) handleGetCarriers(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.Snapshot(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("load shipping configuration", zap.Error(err))
		writeErrorJSON(w, http.StatusServiceUnavailable, "config_unavailable", "shipping configuration unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// parseFloat accepts finite numbers only; NaN compares false against every
// carrier limit.
func parseFloat(s string) (float64, error) {
	n, err := json.Number(s).Float64()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return n, nil
}
