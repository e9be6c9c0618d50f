package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tweeteater"

// Metrics exposes the outcome of the last run as Prometheus gauges on a
// private registry, suitable for a node_exporter textfile collector.
type Metrics struct {
	reg *prometheus.Registry

	posts       prometheus.Gauge
	engagements prometheus.Gauge
	targets     prometheus.Gauge
	labels      *prometheus.GaugeVec
	kinds       *prometheus.GaugeVec
	records     prometheus.Gauge
	skipped     prometheus.Gauge
	duplicates  prometheus.Gauge
	duration    prometheus.Gauge
	finished    prometheus.Gauge
}

// RunInfo carries the run figures that are not part of Stats.
type RunInfo struct {
	Records    int
	Skipped    int
	Duplicates int
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewMetrics creates the gauges and registers them.
func NewMetrics() *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	m := &Metrics{
		reg:         prometheus.NewRegistry(),
		posts:       gauge("posts", "Posts kept by the last run"),
		engagements: gauge("engagements", "Engagement rows kept by the last run"),
		targets:     gauge("engaged_targets", "Posts with at least one in-sample retweet, quote or reply"),
		records:     gauge("records_read", "Records decoded by the last run"),
		skipped:     gauge("malformed_lines_skipped", "Malformed input lines skipped by the last run"),
		duplicates:  gauge("duplicate_rows", "Rows dropped as duplicates by the last run"),
		duration:    gauge("run_duration_seconds", "Wall time of the last run"),
		finished:    gauge("last_run_timestamp_seconds", "Unix time the last run finished"),
		labels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "posts_by_label",
			Help:      "Kept posts per tweet type; multi-label posts count once per label",
		}, []string{"label"}),
		kinds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engagements_by_kind",
			Help:      "Kept engagement rows per kind",
		}, []string{"kind"}),
	}
	m.reg.MustRegister(m.posts, m.engagements, m.targets, m.records, m.skipped,
		m.duplicates, m.duration, m.finished, m.labels, m.kinds)
	return m
}

// Observe replaces the gauges with the figures of a finished run.
func (m *Metrics) Observe(s Stats, run RunInfo) {
	m.posts.Set(float64(s.Posts))
	m.engagements.Set(float64(s.Engagements))
	m.targets.Set(float64(s.Targets))
	m.records.Set(float64(run.Records))
	m.skipped.Set(float64(run.Skipped))
	m.duplicates.Set(float64(run.Duplicates))
	m.duration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
	m.finished.Set(float64(run.FinishedAt.Unix()))

	m.labels.Reset()
	for label, n := range s.Labels {
		m.labels.WithLabelValues(label).Set(float64(n))
	}
	m.kinds.Reset()
	for kind, n := range s.Kinds {
		m.kinds.WithLabelValues(kind).Set(float64(n))
	}
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteTextfile writes the gauges in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
