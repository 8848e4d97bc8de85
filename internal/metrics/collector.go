// internal/metrics/collector.go
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Classification outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector holds the Prometheus metrics for a benchmark run. Each collector
// owns its registry, so several can coexist in tests.
type Collector struct {
	ClassifyRequests *prometheus.CounterVec
	ClassifyLatency  *prometheus.HistogramVec
	TasksInFlight    prometheus.Gauge
	RecordsTotal     *prometheus.CounterVec
	F1Score          *prometheus.GaugeVec

	registry *prometheus.Registry

	mu    sync.Mutex
	f1Sum map[[2]string]float64
	f1N   map[[2]string]int
}

// NewCollector creates and registers all metrics
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		ClassifyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelbench_classify_requests_total",
				Help: "Total number of classification requests",
			},
			[]string{"platform", "outcome"},
		),
		ClassifyLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "labelbench_classify_duration_seconds",
				Help:    "Classification request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),
		TasksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "labelbench_tasks_in_flight",
				Help: "Evaluation tasks currently running",
			},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelbench_records_total",
				Help: "Metric records produced",
			},
			[]string{"platform", "load_level"},
		),
		F1Score: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "labelbench_f1_score",
				Help: "Running mean F1 score",
			},
			[]string{"platform", "load_level"},
		),
		registry: registry,
		f1Sum:    make(map[[2]string]float64),
		f1N:      make(map[[2]string]int),
	}

	registry.MustRegister(c.ClassifyRequests)
	registry.MustRegister(c.ClassifyLatency)
	registry.MustRegister(c.TasksInFlight)
	registry.MustRegister(c.RecordsTotal)
	registry.MustRegister(c.F1Score)

	return c
}

// ObserveClassify records one classification call. Safe on a nil receiver.
func (c *Collector) ObserveClassify(platform string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.ClassifyRequests.WithLabelValues(platform, outcome).Inc()
	c.ClassifyLatency.WithLabelValues(platform).Observe(d.Seconds())
}

// TaskStarted increments the in-flight gauge
func (c *Collector) TaskStarted() {
	if c == nil {
		return
	}
	c.TasksInFlight.Inc()
}

// TaskFinished decrements the in-flight gauge
func (c *Collector) TaskFinished() {
	if c == nil {
		return
	}
	c.TasksInFlight.Dec()
}

// ObserveRecord counts a record and folds its F1 into the running mean.
func (c *Collector) ObserveRecord(platform string, loadLevel int, f1 float64) {
	if c == nil {
		return
	}
	level := strconv.Itoa(loadLevel)
	c.RecordsTotal.WithLabelValues(platform, level).Inc()

	key := [2]string{platform, level}
	c.mu.Lock()
	c.f1Sum[key] += f1
	c.f1N[key]++
	mean := c.f1Sum[key] / float64(c.f1N[key])
	c.mu.Unlock()

	c.F1Score.WithLabelValues(platform, level).Set(mean)
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus metrics handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
