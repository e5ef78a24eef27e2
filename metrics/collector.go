// Package metrics exports profilez recorder statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/profilez"
)

// StatsSource is anything that can report recorder statistics.
// *profilez.Recorder satisfies it.
type StatsSource interface {
	Stats() profilez.Stats
}

// Collector is a prometheus.Collector that reads a recorder's Stats on
// every scrape. Reading stats never touches the tag hot path.
type Collector struct {
	source StatsSource

	sessions  *prometheus.Desc
	recorded  *prometheus.Desc
	dropped   *prometheus.Desc
	fallbacks *prometheus.Desc
	arena     *prometheus.Desc
	recording *prometheus.Desc
}

// NewCollector creates a collector for source. An empty namespace defaults
// to "profilez".
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector(rec, "myapp"))
func NewCollector(source StatsSource, namespace string) *Collector {
	if namespace == "" {
		namespace = "profilez"
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "recorder", name), help, nil, nil)
	}
	return &Collector{
		source:    source,
		sessions:  desc("sessions_total", "Total number of capture sessions started"),
		recorded:  desc("events_recorded_total", "Total number of tags recorded"),
		dropped:   desc("events_dropped_total", "Total number of tags dropped because the slot array was full"),
		fallbacks: desc("label_fallbacks_total", "Total number of labels replaced because the label arena was full"),
		arena:     desc("label_arena_bytes", "Label arena bytes used by the current or last session"),
		recording: desc("recording", "1 while a capture session is active"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessions
	ch <- c.recorded
	ch <- c.dropped
	ch <- c.fallbacks
	ch <- c.arena
	ch <- c.recording
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	recording := 0.0
	if s.Recording {
		recording = 1
	}

	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.CounterValue, float64(s.Sessions))
	ch <- prometheus.MustNewConstMetric(c.recorded, prometheus.CounterValue, float64(s.EventsRecorded))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.EventsDropped))
	ch <- prometheus.MustNewConstMetric(c.fallbacks, prometheus.CounterValue, float64(s.LabelFallbacks))
	ch <- prometheus.MustNewConstMetric(c.arena, prometheus.GaugeValue, float64(s.LabelArenaBytes))
	ch <- prometheus.MustNewConstMetric(c.recording, prometheus.GaugeValue, recording)
}
