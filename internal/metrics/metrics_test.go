package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiprates/internal/rate"
)

func TestObserveQuote(t *testing.T) {
	m := New("shiprates")
	m.ObserveQuote(rate.Quote{
		Mode:          rate.ModeAllocated,
		TotalPackages: 2,
		Packages:      []rate.Parcel{{Fallback: true}, {}},
	})
	m.ObserveQuote(rate.Quote{Mode: rate.ModeFlat, TotalPackages: 1, IsFreeShipping: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesTotal.WithLabelValues("allocated", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesTotal.WithLabelValues("flat", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackParcels))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveQuote(rate.Quote{})
	m.ConfigFailure()
	m.QuoteSaveError()
	m.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New("shiprates")
	m.ConfigFailure()
	m.ObserveRequest(http.MethodPost, "/quotes", http.StatusOK, 3*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "shiprates_config_failures_total 1"))
	assert.Contains(t, body, `shiprates_http_requests_total{method="POST",route="/quotes",status="200"} 1`)
}
