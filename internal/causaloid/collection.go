package causaloid

import (
	"causality/internal/causalctx"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/graph"
)

// PolicyKind discriminates the AggregatePolicy sum type.
type PolicyKind int

const (
	PolicyAll PolicyKind = iota
	PolicyAny
	PolicySome
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyAll:
		return "All"
	case PolicyAny:
		return "Any"
	case PolicySome:
		return "Some"
	default:
		return "Unknown"
	}
}

// AggregatePolicy is a Collection's reduction rule over its members' effects
// (spec §4.B).
type AggregatePolicy struct {
	kind PolicyKind
	k    int
}

func (p AggregatePolicy) Kind() PolicyKind { return p.kind }
func (p AggregatePolicy) K() int           { return p.k }

func NewPolicyAll() AggregatePolicy { return AggregatePolicy{kind: PolicyAll} }
func NewPolicyAny() AggregatePolicy { return AggregatePolicy{kind: PolicyAny} }

// NewPolicySome builds a Some(k) policy. k must satisfy 1 <= k <= memberCount
// (validated at Collection construction, not here, since k is checked
// against the actual member count).
func NewPolicySome(k int) AggregatePolicy { return AggregatePolicy{kind: PolicySome, k: k} }

// NewCollection builds a Collection Causaloid over members, evaluated in
// order against the same runtime evidence and reduced per policy.
func NewCollection(id, description string, members []graph.Node, policy AggregatePolicy) (*Causaloid, error) {
	if len(members) == 0 {
		return nil, cerr.Newf(cerr.KindInvalidPolicy, "collection %q: no members", id)
	}
	if policy.kind == PolicySome && (policy.k < 1 || policy.k > len(members)) {
		return nil, cerr.Newf(cerr.KindInvalidPolicy, "collection %q: Some(%d) requires 1<=k<=%d", id, policy.k, len(members))
	}
	return &Causaloid{
		kind:        KindCollection,
		id:          id,
		description: description,
		members:     members,
		policy:      policy,
	}, nil
}

// evaluateCollection evaluates each member in order against the same
// incoming evidence, short-circuiting to Halting on the first member that
// returns it, then reduces the remaining effects per policy (spec §4.B).
func evaluateCollection(members []graph.Node, policy AggregatePolicy, incoming effect.Evidence, ctx *causalctx.Context) (effect.PropagatingEffect, error) {
	evs := make([]float64, 0, len(members))
	allDeterministic := true

	for _, m := range members {
		out, err := m.Evaluate(incoming, ctx)
		if err != nil {
			return effect.PropagatingEffect{}, err
		}
		if out.IsHalting() {
			return effect.Halting, nil
		}
		if out.Kind() != effect.EffectDeterministic {
			allDeterministic = false
		}
		ev, everr := effect.ExpectedValue(out)
		if everr != nil {
			return effect.PropagatingEffect{}, cerr.Wrap(cerr.KindNotTruthProjectable, "collection member effect has no truth projection", everr)
		}
		evs = append(evs, ev)
	}

	switch policy.kind {
	case PolicyAll:
		return reduceAll(evs, allDeterministic)
	case PolicyAny:
		return reduceAny(evs, allDeterministic)
	case PolicySome:
		return reduceSome(evs, policy.k, allDeterministic)
	default:
		return effect.PropagatingEffect{}, cerr.New(cerr.KindInvalidPolicy, "unknown aggregate policy")
	}
}

func reduceAll(evs []float64, allDeterministic bool) (effect.PropagatingEffect, error) {
	active := true
	product := 1.0
	for _, v := range evs {
		if v != 1.0 {
			active = false
		}
		product *= v
	}
	if allDeterministic {
		return effect.NewDeterministic(active), nil
	}
	return effect.NewProbabilistic(product)
}

func reduceAny(evs []float64, allDeterministic bool) (effect.PropagatingEffect, error) {
	active := false
	noneTrue := 1.0
	for _, v := range evs {
		if v != 0.0 {
			active = true
		}
		noneTrue *= 1 - v
	}
	if allDeterministic {
		return effect.NewDeterministic(active), nil
	}
	return effect.NewProbabilistic(1 - noneTrue)
}

// reduceSome thresholds the members' expected truthy count at k-0.5 (spec
// §4.B). When every member is Deterministic, evs are exactly 0/1 so this is
// an exact count. When a member is Probabilistic, the result is returned as
// a Probabilistic value rescaled so that p>=0.5 exactly when the expected
// count clears the k-0.5 threshold, keeping the result within the
// PropagatingEffect Probabilistic invariant of [0,1] (see DESIGN.md: the
// spec's literal "raw expected count" cannot itself be a valid Probabilistic
// once k>1, since it is unbounded above 1).
func reduceSome(evs []float64, k int, allDeterministic bool) (effect.PropagatingEffect, error) {
	expectedCount := 0.0
	for _, v := range evs {
		expectedCount += v
	}
	threshold := float64(k) - 0.5
	active := expectedCount >= threshold

	if allDeterministic {
		return effect.NewDeterministic(active), nil
	}

	scale := 2 * threshold // = 2k-1; the count at which p crosses exactly 0.5 is `threshold`
	if scale <= 0 {
		scale = 1
	}
	p := expectedCount / scale
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return effect.NewProbabilistic(p)
}
