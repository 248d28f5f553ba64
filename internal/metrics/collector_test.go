package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/metrics"
)

func TestNewCollector_StartsEmpty(t *testing.T) {
	c := metrics.NewCollector()
	require.NotNil(t, c)
	assert.Empty(t, c.Snapshot())
	assert.Empty(t, c.ComponentUsage())
}

func TestRecordMetric_TracksComponentUsage(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordMetric(metrics.MetricValue{Type: metrics.MetricEthosVerdict, Component: "ethos", Value: 1})
	c.RecordMetric(metrics.MetricValue{Type: metrics.MetricEthosVerdict, Component: "ethos", Value: 0})

	usage := c.ComponentUsage()
	assert.Equal(t, 2, usage["ethos"])
	assert.Len(t, c.Snapshot(), 2)
}

func TestRecordReasoningCall_EmitsLatencyAndHaltMetrics(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordReasoningCall("g1", 5*time.Millisecond, true)

	snap := c.Snapshot()
	require.Len(t, snap, 2)

	var sawLatency, sawHalt bool
	for _, m := range snap {
		switch m.Type {
		case metrics.MetricReasoningLatency:
			sawLatency = true
			assert.Equal(t, "g1", m.Context["graph_id"])
		case metrics.MetricHaltRate:
			sawHalt = true
			assert.Equal(t, 1.0, m.Value)
		}
	}
	assert.True(t, sawLatency)
	assert.True(t, sawHalt)
}

func TestSnapshot_ReturnsIndependentCopy(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordMetric(metrics.MetricValue{Type: metrics.MetricGraphSize, Component: "graph", Value: 10})

	snap := c.Snapshot()
	snap[0].Value = 999

	again := c.Snapshot()
	assert.Equal(t, 10.0, again[0].Value)
}
