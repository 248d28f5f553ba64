// Package csm implements the Causal State Machine (spec §4.H): a set of
// named CausalStates, each an activation predicate over a Causaloid's
// effect, bound to side-effecting Actions triggered in deterministic
// state_key order. Grounded on the teacher's strategy/monitoring split in
// internal/reinforcement (a named Strategy selected and evaluated against
// deterministic bookkeeping, with reporting kept separate from selection) —
// reworked from "select one best strategy" into "evaluate every bound state
// and trigger every one whose predicate fires."
package csm

import (
	"sort"

	"causality/internal/causalctx"
	"causality/internal/effect"
	"causality/internal/ethos"
	"causality/internal/graph"
)

// ActivationPredicate reports whether a CausalState's evaluated effect
// should trigger its bound action.
type ActivationPredicate func(effect.PropagatingEffect) bool

// CausalState wraps a Causaloid plus the predicate over its effect that
// decides activation.
type CausalState struct {
	Causaloid graph.Node
	Predicate ActivationPredicate
}

// Action is a side-effecting function triggered when its bound state
// activates.
type Action func(effect.PropagatingEffect) error

// TriggerRecord reports one state_key's outcome for a single Evaluate call.
type TriggerRecord struct {
	StateKey   string
	Effect     effect.PropagatingEffect
	Activated  bool
	Gated      bool
	GateReason string
	ActionErr  error
}

// CSM holds (state_key -> CausalState) and (state_key -> Action) maps (spec
// §4.H). The zero value is not usable; build with New.
type CSM struct {
	states  map[string]CausalState
	actions map[string]Action
	ethos   *ethos.Ethos
}

// New builds an empty CSM. gate, if non-nil, is consulted before every
// triggered action fires (spec §4.H: "an optional Ethos can gate each
// action").
func New(gate *ethos.Ethos) *CSM {
	return &CSM{
		states:  make(map[string]CausalState),
		actions: make(map[string]Action),
		ethos:   gate,
	}
}

// AddState binds a state_key to a CausalState.
func (m *CSM) AddState(stateKey string, state CausalState) *CSM {
	m.states[stateKey] = state
	return m
}

// BindAction binds a state_key to the Action triggered when that state
// activates.
func (m *CSM) BindAction(stateKey string, action Action) *CSM {
	m.actions[stateKey] = action
	return m
}

// Evaluate evaluates every bound state against evidence, in state_key order
// (spec §4.H: "ordering among triggered actions is the state_key order"),
// triggering the bound action of every state whose predicate fires. A
// forbidden action (per the optional Ethos) is dropped with a logged reason
// rather than executed; per-action errors do not halt evaluation of the
// remaining states.
func (m *CSM) Evaluate(evidence effect.Evidence, ctx *causalctx.Context) ([]TriggerRecord, error) {
	keys := make([]string, 0, len(m.states))
	for k := range m.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]TriggerRecord, 0, len(keys))
	for _, key := range keys {
		state := m.states[key]
		eff, err := state.Causaloid.Evaluate(evidence, ctx)
		if err != nil {
			return records, err
		}

		record := TriggerRecord{StateKey: key, Effect: eff}
		if state.Predicate(eff) {
			record.Activated = true
			if gated, reason := m.isGated(key, eff, ctx); gated {
				record.Gated = true
				record.GateReason = reason
			} else if action, ok := m.actions[key]; ok {
				record.ActionErr = action(eff)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func (m *CSM) isGated(stateKey string, eff effect.PropagatingEffect, ctx *causalctx.Context) (bool, string) {
	if m.ethos == nil {
		return false, ""
	}
	conclusion := m.ethos.Verify(ethos.Action{ID: stateKey, Payload: effectToEvidence(eff)}, ctx)
	if conclusion.Verdict == ethos.VerdictImpermissible {
		if conclusion.RuleID != "" {
			return true, "forbidden by rule " + conclusion.RuleID
		}
		return true, "forbidden by default policy"
	}
	return false, ""
}

// effectToEvidence gives the Ethos a best-effort Evidence view of a
// triggered state's effect for its scope predicates to consult; variants
// with no structural Evidence counterpart pass through as None.
func effectToEvidence(e effect.PropagatingEffect) effect.Evidence {
	switch e.Kind() {
	case effect.EffectDeterministic:
		b, _ := e.Bool()
		return effect.NewDeterministic(b)
	case effect.EffectNumerical:
		v, _ := e.Numerical()
		return effect.NewNumerical(v)
	case effect.EffectProbabilistic:
		p, _ := e.Probability()
		ev, err := effect.NewProbability(p)
		if err != nil {
			return effect.NewNone()
		}
		return ev
	default:
		return effect.NewNone()
	}
}
