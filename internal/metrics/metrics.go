// Package metrics exposes studio runtime signals to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inktycoon.dev/internal/persistence/save"
	"inktycoon.dev/internal/sim/studio"
)

const namespace = "inktycoon"

// Sources are read on every scrape. Nil funcs are skipped.
type Sources struct {
	Studio   func() studio.Metrics
	Saves    func() save.WriterStats
	Sessions func() int64
}

// Collector converts the atomically published studio metrics into
// Prometheus samples at scrape time.
type Collector struct {
	src Sources

	ticks        *prometheus.Desc
	playedTime   *prometheus.Desc
	stepMS       *prometheus.Desc
	resource     *prometheus.Desc
	tattoosDone  *prometheus.Desc
	roster       *prometheus.Desc
	actionActive *prometheus.Desc
	eventOffered *prometheus.Desc
	inboxDepth   *prometheus.Desc
	saves        *prometheus.Desc
	sessions     *prometheus.Desc
}

func NewCollector(src Sources) *Collector {
	d := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Collector{
		src:          src,
		ticks:        d("ticks_total", "Ticks processed since start."),
		playedTime:   d("played_time_seconds", "Simulated seconds played."),
		stepMS:       d("step_ms", "Last tick step duration in milliseconds."),
		resource:     d("resource", "Studio resources.", "resource"),
		tattoosDone:  d("tattoos_done_total", "Completed tattoos."),
		roster:       d("roster", "Staff and candidate counts.", "kind"),
		actionActive: d("action_active", "1 while a job occupies the action slot.", "kind"),
		eventOffered: d("event_offered", "1 while an event offer is pending.", "event"),
		inboxDepth:   d("inbox_depth", "Intents waiting for the studio loop."),
		saves:        d("saves_total", "Save writer outcomes.", "outcome"),
		sessions:     d("ws_sessions", "Connected websocket clients."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.ticks, c.playedTime, c.stepMS, c.resource, c.tattoosDone, c.roster,
		c.actionActive, c.eventOffered, c.inboxDepth, c.saves, c.sessions,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	if c.src.Studio != nil {
		m := c.src.Studio()
		counter(c.ticks, float64(m.Ticks))
		gauge(c.playedTime, float64(m.PlayedTime))
		gauge(c.stepMS, m.StepMS)
		gauge(c.resource, m.Money, "money")
		gauge(c.resource, m.Reputation, "reputation")
		gauge(c.resource, m.Experience, "experience")
		counter(c.tattoosDone, float64(m.TattoosDone))
		gauge(c.roster, float64(m.Staff), "staff")
		gauge(c.roster, float64(m.Candidates), "candidates")
		if m.ActionActive {
			gauge(c.actionActive, 1, m.ActionKind)
		}
		if m.EventOffered != "" {
			gauge(c.eventOffered, 1, m.EventOffered)
		}
		gauge(c.inboxDepth, float64(m.InboxDepth))
	}
	if c.src.Saves != nil {
		s := c.src.Saves()
		counter(c.saves, float64(s.SavedTotal), "saved")
		counter(c.saves, float64(s.SupersededTotal), "superseded")
		counter(c.saves, float64(s.DeletedTotal), "deleted")
		counter(c.saves, float64(s.FailedTotal), "failed")
	}
	if c.src.Sessions != nil {
		gauge(c.sessions, float64(c.src.Sessions()))
	}
}

// NewRegistry returns a registry with the studio collector plus the
// standard Go and process collectors.
func NewRegistry(src Sources) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
