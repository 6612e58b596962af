package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
	Operations    *prometheus.CounterVec
	OperationTime *prometheus.HistogramVec
	Retries       *prometheus.CounterVec
	Credits       *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookxchange_http_requests_total",
				Help: "Total HTTP requests.",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookxchange_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "endpoint"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookxchange_ledger_operations_total",
				Help: "Ledger operations by outcome.",
			},
			[]string{"op", "outcome"},
		),
		OperationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookxchange_ledger_operation_duration_seconds",
				Help:    "Ledger operation latency in seconds, retries included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookxchange_ledger_retries_total",
				Help: "Atomic units re-run after a conflict.",
			},
			[]string{"op"},
		),
		Credits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookxchange_credits_total",
				Help: "Credits moved through the ledger.",
			},
			[]string{"movement"},
		),
	}

	registry.MustRegister(
		m.HTTPRequests, m.HTTPLatency, m.Operations, m.OperationTime, m.Retries, m.Credits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records the outcome of one engine call. outcome is "ok" or
// the error kind.
func (m *Metrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = ledger.KindOf(err).String()
	}

	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationTime.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveRetry(op string) {
	if m == nil {
		return
	}

	m.Retries.WithLabelValues(op).Inc()
}

// ObserveRecord records the credit flows of a committed exchange.
func (m *Metrics) ObserveRecord(r *ledger.Record) {
	if m == nil || r == nil {
		return
	}

	m.Credits.WithLabelValues("debited").Add(float64(r.BuyerPaid))
	m.Credits.WithLabelValues("credited").Add(float64(r.SellerReceived))
	m.Credits.WithLabelValues("fees").Add(float64(r.PlatformFee))
}

func (m *Metrics) ObserveIssued(credits int64) {
	if m == nil {
		return
	}

	m.Credits.WithLabelValues("issued").Add(float64(credits))
}

// Middleware counts requests by their chi route pattern so ids in paths do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.HTTPLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
