package expand

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item outcomes, used as the result label
const (
	resultExpanded = "expanded"
	resultTimeout  = "timeout"
	resultSkipped  = "skipped"
	resultError    = "error"
)

// Metrics exposes scheduler activity to Prometheus
type Metrics struct {
	registry  *prometheus.Registry
	runs      prometheus.Counter
	items     *prometheus.CounterVec
	cooldowns prometheus.Counter
	delay     prometheus.Gauge
}

// NewMetrics registers the scheduler collectors on a fresh registry
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ssoenhancer",
		Subsystem: "expand",
		Name:      "runs_total",
		Help:      "Expansion runs started.",
	})

	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssoenhancer",
		Subsystem: "expand",
		Name:      "items_total",
		Help:      "Accounts processed by expansion runs, by outcome.",
	}, []string{"result"})

	cooldowns := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ssoenhancer",
		Subsystem: "expand",
		Name:      "cooldowns_total",
		Help:      "Long pauses taken after consecutive expansion timeouts.",
	})

	delay := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ssoenhancer",
		Subsystem: "expand",
		Name:      "delay_seconds",
		Help:      "Current pause between account expansions.",
	})

	for _, c := range []prometheus.Collector{runs, items, cooldowns, delay} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Metrics{
		registry:  registry,
		runs:      runs,
		items:     items,
		cooldowns: cooldowns,
		delay:     delay,
	}, nil
}

// Handler returns an HTTP handler serving the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *Metrics) item(result string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(result).Inc()
}

func (m *Metrics) cooldown() {
	if m == nil {
		return
	}
	m.cooldowns.Inc()
}

func (m *Metrics) setDelay(seconds float64) {
	if m == nil {
		return
	}
	m.delay.Set(seconds)
}
