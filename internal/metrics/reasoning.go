package metrics

import "sync/atomic"

// ReasoningMetrics tracks lock-free counters for the engine's optional
// subsystems (intervention, Ethos, CSM), grounded on the teacher's
// ProbabilisticMetrics atomic-counter shape.
type ReasoningMetrics struct {
	reasoningCallsTotal  atomic.Int64
	reasoningCallsHalted atomic.Int64
	reasoningCallsError  atomic.Int64
	interventionsRun     atomic.Int64
	ethosPermissible     atomic.Int64
	ethosImpermissible   atomic.Int64
	csmActionsTriggered  atomic.Int64
	csmActionsGated      atomic.Int64
}

// NewReasoningMetrics creates a new reasoning metrics tracker.
func NewReasoningMetrics() *ReasoningMetrics {
	return &ReasoningMetrics{}
}

// RecordReasoningCall records a completed reason_from/reason_subgraph call.
func (m *ReasoningMetrics) RecordReasoningCall(halted bool) {
	m.reasoningCallsTotal.Add(1)
	if halted {
		m.reasoningCallsHalted.Add(1)
	}
}

// RecordReasoningError records a reasoning call that returned an error.
func (m *ReasoningMetrics) RecordReasoningError() {
	m.reasoningCallsError.Add(1)
}

// RecordIntervention records one Run/RunSubgraph counterfactual evaluation.
func (m *ReasoningMetrics) RecordIntervention() {
	m.interventionsRun.Add(1)
}

// RecordEthosVerdict records one Ethos.Verify outcome.
func (m *ReasoningMetrics) RecordEthosVerdict(permissible bool) {
	if permissible {
		m.ethosPermissible.Add(1)
	} else {
		m.ethosImpermissible.Add(1)
	}
}

// RecordCSMTrigger records one CausalState activation, noting whether the
// Ethos gate dropped its bound action.
func (m *ReasoningMetrics) RecordCSMTrigger(gated bool) {
	m.csmActionsTriggered.Add(1)
	if gated {
		m.csmActionsGated.Add(1)
	}
}

// GetStats returns current metric values.
func (m *ReasoningMetrics) GetStats() map[string]int64 {
	return map[string]int64{
		"reasoning_calls_total":  m.reasoningCallsTotal.Load(),
		"reasoning_calls_halted": m.reasoningCallsHalted.Load(),
		"reasoning_calls_error":  m.reasoningCallsError.Load(),
		"interventions_run":      m.interventionsRun.Load(),
		"ethos_permissible":      m.ethosPermissible.Load(),
		"ethos_impermissible":    m.ethosImpermissible.Load(),
		"csm_actions_triggered":  m.csmActionsTriggered.Load(),
		"csm_actions_gated":      m.csmActionsGated.Load(),
	}
}

// GetHaltRate returns the fraction of reasoning calls that ended in a
// halting effect.
func (m *ReasoningMetrics) GetHaltRate() float64 {
	total := m.reasoningCallsTotal.Load()
	if total == 0 {
		return 0.0
	}
	return float64(m.reasoningCallsHalted.Load()) / float64(total)
}

// GetEthosImpermissibleRate returns the fraction of Ethos verdicts that
// were Impermissible.
func (m *ReasoningMetrics) GetEthosImpermissibleRate() float64 {
	total := m.ethosPermissible.Load() + m.ethosImpermissible.Load()
	if total == 0 {
		return 0.0
	}
	return float64(m.ethosImpermissible.Load()) / float64(total)
}
