// Package metrics provides measurement and tracking for the causal
// reasoning engine.
package metrics

import (
	"sync"
	"time"
)

// MetricType represents different categories of metrics.
type MetricType string

const (
	MetricReasoningLatency MetricType = "reasoning_latency"
	MetricGraphSize        MetricType = "graph_size"
	MetricHaltRate         MetricType = "halt_rate"
	MetricInterventionRun  MetricType = "intervention_run"
	MetricEthosVerdict     MetricType = "ethos_verdict"
	MetricCSMTrigger       MetricType = "csm_trigger"
)

// MetricValue represents a single metric measurement.
type MetricValue struct {
	Type      MetricType             `json:"type"`
	Component string                 `json:"component"`
	Value     float64                `json:"value"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Collector manages metric collection for reasoning calls made against a
// CausalGraph.
type Collector struct {
	mu              sync.RWMutex
	metrics         []MetricValue
	componentUsage  map[string]int
	alertThresholds map[string]float64
	windowSize      time.Duration
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		metrics:        make([]MetricValue, 0),
		componentUsage: make(map[string]int),
		windowSize:     24 * time.Hour,
		alertThresholds: map[string]float64{
			"halt_rate":        0.20,
			"ethos_impermiss":  0.10,
			"reasoning_errors": 0.05,
		},
	}
}

// RecordMetric records a new metric value.
func (c *Collector) RecordMetric(metric MetricValue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metric.Timestamp = time.Now()
	c.metrics = append(c.metrics, metric)

	if metric.Component != "" {
		c.componentUsage[metric.Component]++
	}
}

// RecordReasoningCall records one reason_from/reason_subgraph invocation,
// its wall-clock duration, and whether it ended in a halting effect.
func (c *Collector) RecordReasoningCall(graphID string, duration time.Duration, halted bool) {
	c.RecordMetric(MetricValue{
		Type:      MetricReasoningLatency,
		Component: "reason",
		Value:     duration.Seconds(),
		Context: map[string]interface{}{
			"graph_id": graphID,
		},
	})

	haltValue := 0.0
	if halted {
		haltValue = 1.0
	}
	c.RecordMetric(MetricValue{
		Type:      MetricHaltRate,
		Component: "reason",
		Value:     haltValue,
		Context: map[string]interface{}{
			"graph_id": graphID,
		},
	})
}

// Snapshot returns a copy of every metric recorded so far.
func (c *Collector) Snapshot() []MetricValue {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]MetricValue, len(c.metrics))
	copy(out, c.metrics)
	return out
}

// ComponentUsage returns how many metrics have been recorded per component.
func (c *Collector) ComponentUsage() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int, len(c.componentUsage))
	for k, v := range c.componentUsage {
		out[k] = v
	}
	return out
}
