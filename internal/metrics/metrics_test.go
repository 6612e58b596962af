package metrics_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/metrics"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveOperation("purchase", time.Now(), nil)
	m.ObserveOperation("purchase", time.Now(), fmt.Errorf("wrapped: %w", ledger.ErrBookUnavailable))
	m.ObserveOperation("purchase", time.Now(), fmt.Errorf("wrapped: %w", ledger.ErrBookUnavailable))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("purchase", "ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Operations.WithLabelValues("purchase", "book_unavailable")), 0)
}

func TestMetrics_ObserveRecord(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveRecord(&ledger.Record{BuyerPaid: 105, SellerReceived: 95, PlatformFee: 10})
	m.ObserveIssued(100)
	m.ObserveRetry("purchase")

	assert.InDelta(t, 105, testutil.ToFloat64(m.Credits.WithLabelValues("debited")), 0)
	assert.InDelta(t, 95, testutil.ToFloat64(m.Credits.WithLabelValues("credited")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.Credits.WithLabelValues("fees")), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(m.Credits.WithLabelValues("issued")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Retries.WithLabelValues("purchase")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveOperation("purchase", time.Now(), nil)
		m.ObserveRetry("purchase")
		m.ObserveRecord(&ledger.Record{})
		m.ObserveIssued(1)
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/books/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/"+id, nil))
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/books/{id}", "418")), 0)
}
