// Package effect defines the two closed value families that flow through
// the causal reasoning engine: Evidence (runtime input) and
// PropagatingEffect (propagation outcome). Both are value-like — cheap to
// copy for primitive variants, shared-ownership for payloads — following
// the same convention the teacher uses for its Thought/Branch value types
// in internal/types/types.go.
package effect

import (
	"fmt"
	"math"
)

// EvidenceKind discriminates the Evidence sum type. Evidence is closed: the
// kind set below is exhaustive and new variants are never added by callers.
type EvidenceKind int

const (
	EvidenceNone EvidenceKind = iota
	EvidenceDeterministic
	EvidenceNumerical
	EvidenceProbability
	EvidenceTensor
	EvidenceSparse
	EvidenceMultiVector
	EvidenceMap
	EvidenceList
)

func (k EvidenceKind) String() string {
	switch k {
	case EvidenceNone:
		return "None"
	case EvidenceDeterministic:
		return "Deterministic"
	case EvidenceNumerical:
		return "Numerical"
	case EvidenceProbability:
		return "Probability"
	case EvidenceTensor:
		return "Tensor"
	case EvidenceSparse:
		return "Sparse"
	case EvidenceMultiVector:
		return "MultiVector"
	case EvidenceMap:
		return "Map"
	case EvidenceList:
		return "List"
	default:
		return "Unknown"
	}
}

// Payload is an opaque carrier for Tensor/Sparse/MultiVector evidence. The
// discovery layer's tensor/sparse-matrix/multivector containers are out of
// scope (spec §1 Non-goals); the engine only ever treats this as an
// identity-comparable, cheaply-shareable handle.
type Payload struct {
	// Missing marks the payload as an explicit "missing data" state rather
	// than a silent zero, per spec §3 Evidence invariant.
	Missing bool
	Data    interface{}
}

// Evidence is the closed sum type of runtime inputs. Exactly one of the
// fields below is meaningful for a given Kind; construct values with the
// New* constructors rather than populating the struct by hand.
type Evidence struct {
	kind        EvidenceKind
	boolVal     bool
	numVal      float64
	probVal     float64
	payload     Payload
	mapVal      map[string]Evidence
	listVal     []Evidence
}

// Kind reports the evidence variant.
func (e Evidence) Kind() EvidenceKind { return e.kind }

func NewNone() Evidence { return Evidence{kind: EvidenceNone} }

func NewDeterministic(b bool) Evidence {
	return Evidence{kind: EvidenceDeterministic, boolVal: b}
}

func NewNumerical(v float64) Evidence {
	return Evidence{kind: EvidenceNumerical, numVal: v}
}

// NewProbability constructs a Probability evidence value. Returns
// InvalidProbability if p is not finite or outside [0,1].
func NewProbability(p float64) (Evidence, error) {
	if !validProbability(p) {
		return Evidence{}, fmt.Errorf("invalid probability %v: %w", p, errInvalidProbability)
	}
	return Evidence{kind: EvidenceProbability, probVal: p}, nil
}

// NewTensor wraps an opaque tensor payload. missing marks the slot as
// explicitly absent data rather than a silent zero.
func NewTensor(data interface{}, missing bool) Evidence {
	return Evidence{kind: EvidenceTensor, payload: Payload{Data: data, Missing: missing}}
}

func NewSparse(data interface{}, missing bool) Evidence {
	return Evidence{kind: EvidenceSparse, payload: Payload{Data: data, Missing: missing}}
}

func NewMultiVector(data interface{}, missing bool) Evidence {
	return Evidence{kind: EvidenceMultiVector, payload: Payload{Data: data, Missing: missing}}
}

// NewMap wraps a key-to-Evidence map. The map is not copied defensively —
// evidence is constructed per evaluation call and discarded (spec §3
// Lifecycle), so callers must not mutate a map passed here.
func NewMap(m map[string]Evidence) Evidence {
	return Evidence{kind: EvidenceMap, mapVal: m}
}

func NewList(list []Evidence) Evidence {
	return Evidence{kind: EvidenceList, listVal: list}
}

// Bool returns the boolean payload of a Deterministic evidence value.
func (e Evidence) Bool() (bool, bool) {
	if e.kind != EvidenceDeterministic {
		return false, false
	}
	return e.boolVal, true
}

// Numerical returns the float payload of a Numerical evidence value.
func (e Evidence) Numerical() (float64, bool) {
	if e.kind != EvidenceNumerical {
		return 0, false
	}
	return e.numVal, true
}

// Probability returns the float payload of a Probability evidence value.
func (e Evidence) Probability() (float64, bool) {
	if e.kind != EvidenceProbability {
		return 0, false
	}
	return e.probVal, true
}

// PayloadValue returns the opaque payload of a Tensor/Sparse/MultiVector
// evidence value.
func (e Evidence) PayloadValue() (Payload, bool) {
	switch e.kind {
	case EvidenceTensor, EvidenceSparse, EvidenceMultiVector:
		return e.payload, true
	default:
		return Payload{}, false
	}
}

func (e Evidence) MapValue() (map[string]Evidence, bool) {
	if e.kind != EvidenceMap {
		return nil, false
	}
	return e.mapVal, true
}

func (e Evidence) ListValue() ([]Evidence, bool) {
	if e.kind != EvidenceList {
		return nil, false
	}
	return e.listVal, true
}

func validProbability(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0 && p <= 1
}

var errInvalidProbability = fmt.Errorf("probability must be finite and in [0,1]")

// String renders a human-readable form, used in trace descriptions.
func (e Evidence) String() string {
	switch e.kind {
	case EvidenceNone:
		return "None"
	case EvidenceDeterministic:
		return fmt.Sprintf("Deterministic(%v)", e.boolVal)
	case EvidenceNumerical:
		return fmt.Sprintf("Numerical(%v)", e.numVal)
	case EvidenceProbability:
		return fmt.Sprintf("Probability(%v)", e.probVal)
	case EvidenceTensor:
		return fmt.Sprintf("Tensor(missing=%v)", e.payload.Missing)
	case EvidenceSparse:
		return fmt.Sprintf("Sparse(missing=%v)", e.payload.Missing)
	case EvidenceMultiVector:
		return fmt.Sprintf("MultiVector(missing=%v)", e.payload.Missing)
	case EvidenceMap:
		return fmt.Sprintf("Map(%d keys)", len(e.mapVal))
	case EvidenceList:
		return fmt.Sprintf("List(%d items)", len(e.listVal))
	default:
		return "Unknown"
	}
}

// Equal reports structural equality, as required by spec §4.A.
func (e Evidence) Equal(o Evidence) bool {
	if e.kind != o.kind {
		return false
	}
	switch e.kind {
	case EvidenceNone:
		return true
	case EvidenceDeterministic:
		return e.boolVal == o.boolVal
	case EvidenceNumerical:
		return e.numVal == o.numVal
	case EvidenceProbability:
		return e.probVal == o.probVal
	case EvidenceTensor, EvidenceSparse, EvidenceMultiVector:
		return e.payload.Missing == o.payload.Missing && e.payload.Data == o.payload.Data
	case EvidenceMap:
		if len(e.mapVal) != len(o.mapVal) {
			return false
		}
		for k, v := range e.mapVal {
			ov, ok := o.mapVal[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case EvidenceList:
		if len(e.listVal) != len(o.listVal) {
			return false
		}
		for i := range e.listVal {
			if !e.listVal[i].Equal(o.listVal[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
