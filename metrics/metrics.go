package metrics

import (
	"net/http"

	"github.com/a-h/listingwriter/failure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	retries     prometheus.Counter
	logins      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listingwriter",
			Name:      "generations_total",
			Help:      "Generation requests by variant and outcome.",
		}, []string{"variant", "outcome"}),
		suggestions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listingwriter",
			Name:      "suggestions_total",
			Help:      "Keyword suggestion requests by outcome.",
		}, []string{"outcome"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "listingwriter",
			Name:      "completion_retries_total",
			Help:      "Completion attempts retried after a rate limit.",
		}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listingwriter",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Outcome is "ok" for a nil error, otherwise the failure kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := failure.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}

func (m *Metrics) Generation(variant string, err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(variant, Outcome(err)).Inc()
}

func (m *Metrics) Suggestion(err error) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) Login(err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
