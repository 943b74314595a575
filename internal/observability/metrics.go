package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL run.
type Metrics struct {
	PartitionsProcessed prometheus.Counter
	PartitionsSkipped   prometheus.Counter
	PartitionsFailed    prometheus.Counter

	RecordsRead      prometheus.Counter
	RecordsMalformed prometheus.Counter
	RecordsWritten   prometheus.Counter

	PartitionDuration prometheus.Histogram
	WriteDuration     prometheus.Histogram
	RunRunning        prometheus.Gauge
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PartitionsProcessed,
		m.PartitionsSkipped,
		m.PartitionsFailed,
		m.RecordsRead,
		m.RecordsMalformed,
		m.RecordsWritten,
		m.PartitionDuration,
		m.WriteDuration,
		m.RunRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PartitionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "partitions_processed_total",
			Help:      "Partitions transformed and written this process lifetime.",
		}),
		PartitionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "partitions_skipped_total",
			Help:      "Partitions skipped because output already existed.",
		}),
		PartitionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "partitions_failed_total",
			Help:      "Partitions that failed to read, transform, or write.",
		}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_read_total",
			Help:      "Valid observations decoded from raw units.",
		}),
		RecordsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_malformed_total",
			Help:      "Raw array elements rejected by schema validation.",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_written_total",
			Help:      "Rows written to processed partitions.",
		}),
		PartitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "partition_duration_seconds",
			Help:      "Duration of a complete read-transform-write cycle for one partition.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "write_duration_seconds",
			Help:      "Duration of publishing one partition object to the processed store.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "run_running",
			Help:      "1 while a run is in flight, 0 otherwise.",
		}),
	}
}
