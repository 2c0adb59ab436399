// Package metrics records run statistics as Prometheus metrics and exports
// them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"vm-inventory/internal/model"
)

const (
	namespace = "vmreport"

	// Labels
	statusLabel  = "status"
	outcomeLabel = "outcome"
	osLabel      = "os"
	rangeLabel   = "range"
)

// Row outcomes.
const (
	OutcomeRead     = "read"
	OutcomeCounted  = "counted"
	OutcomeExcluded = "excluded"
	OutcomeGap      = "gap"
)

// Recorder owns a private registry, so several runs in one process do not
// collide on the default registerer.
type Recorder struct {
	registry *prometheus.Registry

	files        *prometheus.CounterVec
	rows         *prometheus.CounterVec
	fileDuration prometheus.Histogram
	runDuration  prometheus.Gauge

	inventory *inventoryCollector
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Number of input files by processing status.",
			},
			[]string{statusLabel},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Number of VM rows by outcome.",
			},
			[]string{outcomeLabel},
		),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent reading and aggregating one file.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		inventory: newInventoryCollector(),
	}

	r.registry.MustRegister(r.files, r.rows, r.fileDuration, r.runDuration, r.inventory)
	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFile records one file result. Safe for concurrent use.
func (r *Recorder) ObserveFile(res *model.FileResult) {
	if res == nil {
		return
	}
	r.files.WithLabelValues(string(res.Status)).Inc()
	r.fileDuration.Observe(res.Duration.Seconds())

	if p := res.Partial; p != nil {
		r.rows.WithLabelValues(OutcomeRead).Add(float64(p.RowsRead))
		r.rows.WithLabelValues(OutcomeCounted).Add(float64(p.Counted()))
		r.rows.WithLabelValues(OutcomeExcluded).Add(float64(p.Excluded()))
		r.rows.WithLabelValues(OutcomeGap).Add(float64(p.RowsGap))
	}
}

// ObserveRun records the run duration and the final VM counts.
func (r *Recorder) ObserveRun(rep *model.RunReport) {
	if rep == nil {
		return
	}
	r.runDuration.Set(rep.Duration.Seconds())
	r.inventory.update(rep.Aggregate)
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// inventoryCollector exposes the combined aggregate as const gauges.
type inventoryCollector struct {
	mu  sync.RWMutex
	agg *model.CombinedAggregate

	vmsByOS    *prometheus.Desc
	vmsByRange *prometheus.Desc
	vmsTotal   *prometheus.Desc
}

func newInventoryCollector() *inventoryCollector {
	fqName := func(name string) string {
		return prometheus.BuildFQName(namespace, "inventory", name)
	}

	return &inventoryCollector{
		vmsByOS: prometheus.NewDesc(
			fqName("vms_by_os"),
			"Counted VMs by effective operating system.",
			[]string{osLabel},
			nil,
		),
		vmsByRange: prometheus.NewDesc(
			fqName("vms_by_range"),
			"Counted VMs by disk capacity range.",
			[]string{rangeLabel},
			nil,
		),
		vmsTotal: prometheus.NewDesc(
			fqName("vms"),
			"Total counted VMs including the special OS.",
			nil,
			nil,
		),
	}
}

func (c *inventoryCollector) update(agg *model.CombinedAggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agg = agg
}

// Describe implements prometheus.Collector.
func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.vmsByOS
	ch <- c.vmsByRange
	ch <- c.vmsTotal
}

// Collect implements prometheus.Collector.
func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.agg == nil {
		return
	}

	for os, n := range c.agg.OSTotals {
		ch <- prometheus.MustNewConstMetric(c.vmsByOS, prometheus.GaugeValue, float64(n), os)
	}
	for _, r := range c.agg.Ranges {
		ch <- prometheus.MustNewConstMetric(c.vmsByRange, prometheus.GaugeValue, float64(c.agg.RangeTotal(r.Label)), r.Label)
	}
	ch <- prometheus.MustNewConstMetric(c.vmsTotal, prometheus.GaugeValue, float64(c.agg.GrandTotal()))
}
