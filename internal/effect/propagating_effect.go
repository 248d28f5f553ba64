package effect

import (
	"fmt"
)

// EffectKind discriminates the PropagatingEffect sum type.
type EffectKind int

const (
	EffectHalting EffectKind = iota
	EffectDeterministic
	EffectProbabilistic
	EffectContextualLink
	EffectNumerical
	EffectMap
)

func (k EffectKind) String() string {
	switch k {
	case EffectHalting:
		return "Halting"
	case EffectDeterministic:
		return "Deterministic"
	case EffectProbabilistic:
		return "Probabilistic"
	case EffectContextualLink:
		return "ContextualLink"
	case EffectNumerical:
		return "Numerical"
	case EffectMap:
		return "Map"
	default:
		return "Unknown"
	}
}

// ContextLink names a target Contextoid in a specific Context, used by the
// ContextualLink effect variant to re-route reasoning (spec §4.D).
type ContextLink struct {
	ContextID string
	NodeID    string
}

// PropagatingEffect is the closed sum type of propagation outcomes.
type PropagatingEffect struct {
	kind    EffectKind
	boolVal bool
	probVal float64
	numVal  float64
	link    ContextLink
	mapVal  map[string]PropagatingEffect
}

func (p PropagatingEffect) Kind() EffectKind { return p.kind }

var Halting = PropagatingEffect{kind: EffectHalting}

func NewDeterministic(b bool) PropagatingEffect {
	return PropagatingEffect{kind: EffectDeterministic, boolVal: b}
}

// NewProbabilistic constructs a Probabilistic effect. Returns
// InvalidProbability if p is not finite or outside [0,1].
func NewProbabilistic(p float64) (PropagatingEffect, error) {
	if !validProbability(p) {
		return PropagatingEffect{}, fmt.Errorf("invalid probability %v: %w", p, errInvalidProbability)
	}
	return PropagatingEffect{kind: EffectProbabilistic, probVal: p}, nil
}

// MustProbabilistic panics on invalid input; reserved for literals in tests
// and trusted internal call sites where the value is already validated.
func MustProbabilistic(p float64) PropagatingEffect {
	e, err := NewProbabilistic(p)
	if err != nil {
		panic(err)
	}
	return e
}

func NewContextualLink(contextID, nodeID string) PropagatingEffect {
	return PropagatingEffect{kind: EffectContextualLink, link: ContextLink{ContextID: contextID, NodeID: nodeID}}
}

func NewNumerical(v float64) PropagatingEffect {
	return PropagatingEffect{kind: EffectNumerical, numVal: v}
}

func NewMap(m map[string]PropagatingEffect) PropagatingEffect {
	return PropagatingEffect{kind: EffectMap, mapVal: m}
}

func (p PropagatingEffect) Bool() (bool, bool) {
	if p.kind != EffectDeterministic {
		return false, false
	}
	return p.boolVal, true
}

func (p PropagatingEffect) Probability() (float64, bool) {
	if p.kind != EffectProbabilistic {
		return 0, false
	}
	return p.probVal, true
}

func (p PropagatingEffect) Numerical() (float64, bool) {
	if p.kind != EffectNumerical {
		return 0, false
	}
	return p.numVal, true
}

func (p PropagatingEffect) Link() (ContextLink, bool) {
	if p.kind != EffectContextualLink {
		return ContextLink{}, false
	}
	return p.link, true
}

func (p PropagatingEffect) MapValue() (map[string]PropagatingEffect, bool) {
	if p.kind != EffectMap {
		return nil, false
	}
	return p.mapVal, true
}

func (p PropagatingEffect) IsHalting() bool { return p.kind == EffectHalting }

func (p PropagatingEffect) String() string {
	switch p.kind {
	case EffectHalting:
		return "Halting"
	case EffectDeterministic:
		return fmt.Sprintf("Deterministic(%v)", p.boolVal)
	case EffectProbabilistic:
		return fmt.Sprintf("Probabilistic(%v)", p.probVal)
	case EffectContextualLink:
		return fmt.Sprintf("ContextualLink(%s, %s)", p.link.ContextID, p.link.NodeID)
	case EffectNumerical:
		return fmt.Sprintf("Numerical(%v)", p.numVal)
	case EffectMap:
		return fmt.Sprintf("Map(%d keys)", len(p.mapVal))
	default:
		return "Unknown"
	}
}

// Equal reports structural equality.
func (p PropagatingEffect) Equal(o PropagatingEffect) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case EffectHalting:
		return true
	case EffectDeterministic:
		return p.boolVal == o.boolVal
	case EffectProbabilistic:
		return p.probVal == o.probVal
	case EffectContextualLink:
		return p.link == o.link
	case EffectNumerical:
		return p.numVal == o.numVal
	case EffectMap:
		if len(p.mapVal) != len(o.mapVal) {
			return false
		}
		for k, v := range p.mapVal {
			ov, ok := o.mapVal[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ErrNotTruthProjectable is returned by TruthProjection for variants with
// no defined boolean projection (spec §4.B, §4.A).
var ErrNotTruthProjectable = fmt.Errorf("effect variant has no truth projection")

// TruthProjection is the single source of truth for collapsing a
// PropagatingEffect to a boolean, per spec §4.B. It is total on
// {Deterministic, Probabilistic, Halting} and partial (erroring) on the
// remaining variants, consistently across every component that aggregates
// effects.
func TruthProjection(p PropagatingEffect) (bool, error) {
	switch p.kind {
	case EffectDeterministic:
		return p.boolVal, nil
	case EffectProbabilistic:
		return p.probVal >= 0.5, nil
	case EffectHalting:
		// Halting projects to false: a halted computation never reached a
		// truthy conclusion. Callers that need to distinguish "false" from
		// "halted" (Combine, the Collection reducers) still special-case
		// IsHalting before this point; this projection exists so the
		// function itself is total on the core three variants.
		return false, nil
	default:
		return false, ErrNotTruthProjectable
	}
}

// ExpectedValue returns a [0,1] expectation used by probabilistic
// aggregation: 1/0 for Deterministic, p for Probabilistic.
func ExpectedValue(p PropagatingEffect) (float64, error) {
	switch p.kind {
	case EffectDeterministic:
		if p.boolVal {
			return 1, nil
		}
		return 0, nil
	case EffectProbabilistic:
		return p.probVal, nil
	default:
		return 0, ErrNotTruthProjectable
	}
}

// Combine merges two PropagatingEffects for the predecessor-composition
// step of reason_from (spec §4.C.1.b): multiple Deterministic compose via
// logical AND, multiple Probabilistic via product, mixed via truth
// projection. Halting absorbs unconditionally in either position (spec §4.A,
// invariant 5 of §8: Halting ⊕ e = Halting = e ⊕ Halting).
func Combine(a, b PropagatingEffect) (PropagatingEffect, error) {
	if a.IsHalting() || b.IsHalting() {
		return Halting, nil
	}
	if a.kind == EffectDeterministic && b.kind == EffectDeterministic {
		return NewDeterministic(a.boolVal && b.boolVal), nil
	}
	if a.kind == EffectProbabilistic && b.kind == EffectProbabilistic {
		return NewProbabilistic(a.probVal * b.probVal)
	}
	// Mixed modality: coerce both sides via truth projection.
	at, err := TruthProjection(a)
	if err != nil {
		return PropagatingEffect{}, err
	}
	bt, err := TruthProjection(b)
	if err != nil {
		return PropagatingEffect{}, err
	}
	return NewDeterministic(at && bt), nil
}
