// Package metrics instruments canvas gestures and connections with
// Prometheus collectors on a private registry.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of a connection attempt.
const (
	OutcomeConnected = "connected"
	OutcomeRejected  = "rejected"
	OutcomeNoTarget  = "no_target"
)

// Registry holds all metrics of one canvas.
type Registry struct {
	GesturesTotal       *prometheus.CounterVec
	EdgesConnectedTotal prometheus.Counter
	ConnectionRejected  *prometheus.CounterVec
	ConnectionAttempts  *prometheus.CounterVec

	Nodes     prometheus.Gauge
	Edges     prometheus.Gauge
	ZoomScale prometheus.Gauge

	RenderDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.GesturesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcanvas_gestures_total",
			Help: "Gestures started, by mode",
		},
		[]string{"mode"},
	)
	r.EdgesConnectedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "flowcanvas_edges_connected_total",
		Help: "Edges created by connection gestures",
	})
	r.ConnectionRejected = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcanvas_connections_rejected_total",
			Help: "Connections refused by the model, by reason",
		},
		[]string{"reason"},
	)
	r.ConnectionAttempts = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcanvas_connection_attempts_total",
			Help: "Finished connection gestures, by outcome",
		},
		[]string{"outcome"},
	)

	r.Nodes = f.NewGauge(prometheus.GaugeOpts{
		Name: "flowcanvas_nodes",
		Help: "Nodes currently on the canvas",
	})
	r.Edges = f.NewGauge(prometheus.GaugeOpts{
		Name: "flowcanvas_edges",
		Help: "Edges currently on the canvas",
	})
	r.ZoomScale = f.NewGauge(prometheus.GaugeOpts{
		Name: "flowcanvas_zoom_scale",
		Help: "Current viewport scale factor",
	})

	r.RenderDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowcanvas_render_duration_seconds",
		Help:    "Time spent rasterizing one frame",
		Buckets: []float64{0.001, 0.004, 0.008, 0.016, 0.033, 0.1, 0.5},
	})

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordGesture counts a gesture that started in the given mode.
func (r *Registry) RecordGesture(mode string) {
	r.GesturesTotal.WithLabelValues(mode).Inc()
}

// RecordConnected counts a created edge.
func (r *Registry) RecordConnected() {
	r.EdgesConnectedTotal.Inc()
}

// RecordRejected counts a refused connection.
func (r *Registry) RecordRejected(reason string) {
	r.ConnectionRejected.WithLabelValues(reason).Inc()
}

// RecordAttempt counts a finished connection gesture.
func (r *Registry) RecordAttempt(outcome string) {
	r.ConnectionAttempts.WithLabelValues(outcome).Inc()
}

// SetGraphSize updates the node and edge gauges.
func (r *Registry) SetGraphSize(nodes, edges int) {
	r.Nodes.Set(float64(nodes))
	r.Edges.Set(float64(edges))
}

// ObserveRender records how long a frame took.
func (r *Registry) ObserveRender(d time.Duration) {
	r.RenderDuration.Observe(d.Seconds())
}

// Sample is one flattened counter or gauge value.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// String formats the sample in the Prometheus text style.
func (s Sample) String() string {
	if len(s.Labels) == 0 {
		return fmt.Sprintf("%s %g", s.Name, s.Value)
	}
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%q", k, s.Labels[k])
	}
	return fmt.Sprintf("%s{%s} %g", s.Name, strings.Join(pairs, ","), s.Value)
}

// Snapshot gathers every counter and gauge sample, sorted by name.
// Histograms are reported by their observation count.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: map[string]string{}}
			for _, lp := range m.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			switch {
			case m.Counter != nil:
				s.Value = m.Counter.GetValue()
			case m.Gauge != nil:
				s.Value = m.Gauge.GetValue()
			case m.Histogram != nil:
				s.Value = float64(m.Histogram.GetSampleCount())
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
