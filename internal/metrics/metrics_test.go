package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.GesturesTotal)
	require.NotNil(t, r.RenderDuration)
	require.NotNil(t, r.GetPrometheusRegistry())
}

func TestRecordGestureAndConnections(t *testing.T) {
	r := NewRegistry()

	r.RecordGesture("connecting")
	r.RecordGesture("connecting")
	r.RecordGesture("panning")
	r.RecordConnected()
	r.RecordRejected("duplicate")
	r.RecordAttempt(OutcomeConnected)
	r.RecordAttempt(OutcomeNoTarget)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.GesturesTotal.WithLabelValues("connecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GesturesTotal.WithLabelValues("panning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EdgesConnectedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionRejected.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionAttempts.WithLabelValues(OutcomeNoTarget)))
}

func TestGaugesAndHistogram(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(4, 3)
	r.ZoomScale.Set(1.44)
	r.ObserveRender(5 * time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.Nodes))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Edges))

	var m dto.Metric
	require.NoError(t, r.RenderDuration.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	r.RecordGesture("dragging_node")
	r.SetGraphSize(2, 1)

	samples, err := r.Snapshot()
	require.NoError(t, err)

	byName := map[string]Sample{}
	for _, s := range samples {
		byName[s.Name] = s
	}
	assert.Equal(t, 1.0, byName["flowcanvas_gestures_total"].Value)
	assert.Equal(t, "dragging_node", byName["flowcanvas_gestures_total"].Labels["mode"])
	assert.Equal(t, 2.0, byName["flowcanvas_nodes"].Value)

	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Name, samples[i].Name)
	}
}

func TestSampleString(t *testing.T) {
	assert.Equal(t, "flowcanvas_nodes 3", Sample{Name: "flowcanvas_nodes", Value: 3}.String())
	s := Sample{
		Name:   "flowcanvas_connection_attempts_total",
		Labels: map[string]string{"outcome": "rejected", "a": "b"},
		Value:  1.5,
	}
	assert.Equal(t, `flowcanvas_connection_attempts_total{a="b",outcome="rejected"} 1.5`, s.String())
}
