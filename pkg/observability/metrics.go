// Package observability exposes engine activity as Prometheus metrics.
//
// Metrics are implemented as a regular plugin so the core stays unaware of
// them: the collector counts transitions from inside the hook pipeline and
// publishes through a standard promhttp handler.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

// Metrics is a plugin.Plugin that records workflow activity.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	starts      *prometheus.CounterVec
	rendered    prometheus.Counter
}

// NewMetrics creates the metrics plugin with its own Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibe",
			Name:      "phase_transitions_total",
			Help:      "Phase transitions attempted, by workflow and target state.",
		}, []string{"workflow", "to"}),
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibe",
			Name:      "conversations_started_total",
			Help:      "Conversations started, by workflow.",
		}, []string{"workflow"}),
		rendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vibe",
			Name:      "instructions_rendered_total",
			Help:      "Instruction texts rendered.",
		}),
	}
	m.registry.MustRegister(m.transitions, m.starts, m.rendered)
	return m
}

// Handler returns the scrape endpoint for this collector.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Name implements plugin.Plugin.
func (m *Metrics) Name() string { return "metrics" }

// Priority implements plugin.Plugin. A large value keeps the collector at
// the end of every chain, observing the final text.
func (m *Metrics) Priority() int { return 1000 }

// Enabled implements plugin.Plugin.
func (m *Metrics) Enabled() bool { return true }

// Hooks implements plugin.Plugin. All hooks are observation-only: the
// validation hook always passes and the content hook never rewrites.
func (m *Metrics) Hooks() plugin.Hooks {
	return plugin.Hooks{
		BeforePhaseTransition: func(ctx context.Context, hc plugin.HookContext) error {
			m.transitions.WithLabelValues(hc.Workflow, hc.TargetState).Inc()
			return nil
		},
		AfterStartDevelopment: func(ctx context.Context, hc plugin.HookContext) error {
			m.starts.WithLabelValues(hc.Workflow).Inc()
			return nil
		},
		AfterInstructionsGenerated: func(ctx context.Context, hc plugin.HookContext, text string) (string, bool, error) {
			m.rendered.Inc()
			return "", false, nil
		},
	}
}
