package harvest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the harvester
type Metrics struct {
	Registry       *prometheus.Registry
	PagesTotal     *prometheus.CounterVec
	PageDuration   prometheus.Histogram
	ProductsTotal  prometheus.Counter
	MissingPrices  prometheus.Counter
	ActiveSessions prometheus.Gauge
	RunsTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_pages_total",
			Help: "Listing pages processed, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvest_page_duration_seconds",
			Help:    "Time spent rendering and extracting one listing page.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_products_total",
			Help: "Products with a parsed price.",
		},
	)
	missing := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_missing_prices_total",
			Help: "Price elements whose text held no usable number.",
		},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvest_active_sessions",
			Help: "Rendering sessions currently open.",
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_runs_total",
			Help: "Harvest runs, by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(pages, pageDuration, products, missing, active, runs)

	return &Metrics{
		Registry:       registry,
		PagesTotal:     pages,
		PageDuration:   pageDuration,
		ProductsTotal:  products,
		MissingPrices:  missing,
		ActiveSessions: active,
		RunsTotal:      runs,
	}
}

func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePage(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

func (m *Metrics) AddProducts(n uint64) {
	if m == nil {
		return
	}
	m.ProductsTotal.Add(float64(n))
}

func (m *Metrics) IncMissingPrice() {
	if m == nil {
		return
	}
	m.MissingPrices.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}
