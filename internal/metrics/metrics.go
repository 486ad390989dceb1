// Package metrics exposes Prometheus instrumentation for the submission flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	Submissions         *prometheus.CounterVec
	SideChannelFailures *prometheus.CounterVec
	LiveFeedClients     prometheus.Gauge
	RateLimited         prometheus.Counter
}

// New builds a Metrics on its own registry, so several instances can
// coexist in one process (tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crisiscare_community_help_submissions_total",
			Help: "Community-help submissions by outcome",
		}, []string{"outcome"}),
		SideChannelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crisiscare_side_channel_failures_total",
			Help: "Failed writes to secondary channels (text log, archives, live feed)",
		}, []string{"channel"}),
		LiveFeedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crisiscare_live_feed_clients",
			Help: "Connected live feed websocket clients",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "crisiscare_rate_limited_requests_total",
			Help: "Requests rejected with 429",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
