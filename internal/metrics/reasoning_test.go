package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/metrics"
)

func TestNewReasoningMetrics_StartsAtZero(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	require.NotNil(t, m)

	stats := m.GetStats()
	assert.Zero(t, stats["reasoning_calls_total"])
	assert.Zero(t, stats["csm_actions_triggered"])
}

func TestRecordReasoningCall_TracksHaltedSubset(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	m.RecordReasoningCall(true)
	m.RecordReasoningCall(false)
	m.RecordReasoningCall(true)

	stats := m.GetStats()
	assert.EqualValues(t, 3, stats["reasoning_calls_total"])
	assert.EqualValues(t, 2, stats["reasoning_calls_halted"])
	assert.InDelta(t, 2.0/3.0, m.GetHaltRate(), 1e-9)
}

func TestRecordEthosVerdict_TracksImpermissibleRate(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	m.RecordEthosVerdict(true)
	m.RecordEthosVerdict(false)
	m.RecordEthosVerdict(false)

	assert.InDelta(t, 2.0/3.0, m.GetEthosImpermissibleRate(), 1e-9)
}

func TestRecordCSMTrigger_TracksGatedSubset(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	m.RecordCSMTrigger(false)
	m.RecordCSMTrigger(true)

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["csm_actions_triggered"])
	assert.EqualValues(t, 1, stats["csm_actions_gated"])
}

func TestGetHaltRate_ZeroCallsReturnsZero(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	assert.Zero(t, m.GetHaltRate())
	assert.Zero(t, m.GetEthosImpermissibleRate())
}

func TestRecordIntervention_IncrementsCounter(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	m.RecordIntervention()
	m.RecordIntervention()

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["interventions_run"])
}

func TestRecordReasoningError_IncrementsSeparateCounter(t *testing.T) {
	m := metrics.NewReasoningMetrics()
	m.RecordReasoningCall(false)
	m.RecordReasoningError()

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats["reasoning_calls_total"])
	assert.EqualValues(t, 1, stats["reasoning_calls_error"])
}
