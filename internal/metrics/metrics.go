// Package metrics exposes workbench state to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workbench"

// Collector holds every workbench metric on its own registry, so several
// collectors can coexist in one process (tests, embedded use).
type Collector struct {
	registry *prometheus.Registry

	Atoms     prometheus.Gauge
	Bank      prometheus.Gauge
	STITotal  prometheus.Gauge
	FocusSize prometheus.Gauge
	Cycles    prometheus.Counter
	Forgotten prometheus.Counter
	CycleDur  prometheus.Histogram
	Tasks     *prometheus.CounterVec
	HTTPReqs  *prometheus.CounterVec
	HTTPDur   *prometheus.HistogramVec
}

// New creates and registers all metrics.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	c.Atoms = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "atomspace_atoms",
		Help:      "Number of atoms in the store",
	})
	c.Bank = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attention_bank",
		Help:      "STI held by the bank",
	})
	c.STITotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attention_sti_total",
		Help:      "STI assigned to atoms",
	})
	c.FocusSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attention_focus_size",
		Help:      "Atoms in the attentional focus",
	})
	c.Cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attention_cycles_total",
		Help:      "Attention cycle iterations run",
	})
	c.Forgotten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "atoms_forgotten_total",
		Help:      "Attention records removed by forgetting",
	})
	c.CycleDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "attention_cycle_duration_seconds",
		Help:      "Duration of one RunCycle call",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	c.Tasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_tasks_total",
		Help:      "Workflow tasks finished, by final status",
	}, []string{"status"})
	c.HTTPReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "route", "status"})
	c.HTTPDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	c.registry.MustRegister(
		c.Atoms, c.Bank, c.STITotal, c.FocusSize,
		c.Cycles, c.Forgotten, c.CycleDur, c.Tasks,
		c.HTTPReqs, c.HTTPDur,
	)
	return c
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Gauges is a point-in-time reading of the economy.
type Gauges struct {
	Atoms     int
	Bank      float64
	STITotal  float64
	FocusSize int
}

// Observe sets every gauge.
func (c *Collector) Observe(g Gauges) {
	c.Atoms.Set(float64(g.Atoms))
	c.Bank.Set(g.Bank)
	c.STITotal.Set(g.STITotal)
	c.FocusSize.Set(float64(g.FocusSize))
}

// CycleRun records one RunCycle call of the given iterations.
func (c *Collector) CycleRun(iterations int, d time.Duration) {
	c.Cycles.Add(float64(iterations))
	c.CycleDur.Observe(d.Seconds())
}

// TaskFinished counts a task by its final status.
func (c *Collector) TaskFinished(status string) {
	c.Tasks.WithLabelValues(status).Inc()
}

// Request records one served HTTP request.
func (c *Collector) Request(method, route string, status int, d time.Duration) {
	c.HTTPReqs.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDur.WithLabelValues(method, route).Observe(d.Seconds())
}
