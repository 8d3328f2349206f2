// Package metrics exports controller action outcomes to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-resourceform/pkg/controller"
)

const namespace = "resourceform"

// Recorder implements controller.Observer with a counter and a histogram:
//
//	resourceform_actions_total{resource,action,outcome}
//	resourceform_action_duration_seconds{resource,action}
type Recorder struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ controller.Observer = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*options)

type options struct {
	buckets     []float64
	constLabels prometheus.Labels
}

// WithBuckets overrides the duration histogram buckets.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// WithConstLabels attaches labels to every series.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// New creates a Recorder and registers its collectors with reg. A nil reg
// skips registration.
func New(reg prometheus.Registerer, opts ...Option) (*Recorder, error) {
	cfg := options{buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Recorder{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "actions_total",
			Help:        "Resource form actions by outcome.",
			ConstLabels: cfg.constLabels,
		}, []string{"resource", "action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "action_duration_seconds",
			Help:        "Resource form action latency, guards and remote calls included.",
			Buckets:     cfg.buckets,
			ConstLabels: cfg.constLabels,
		}, []string{"resource", "action"}),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{r.actions, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew panics when New fails.
func MustNew(reg prometheus.Registerer, opts ...Option) *Recorder {
	r, err := New(reg, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// ObserveAction implements controller.Observer.
func (r *Recorder) ObserveAction(ev controller.ActionEvent) {
	if ev.Resource == "" {
		return
	}
	r.actions.WithLabelValues(ev.Resource, string(ev.Action), string(ev.Outcome)).Inc()
	r.duration.WithLabelValues(ev.Resource, string(ev.Action)).Observe(ev.Duration.Seconds())
}

// Collectors returns the underlying collectors, for custom registries.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.actions, r.duration}
}
