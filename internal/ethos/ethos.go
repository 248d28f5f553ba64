// Package ethos implements the Effect Ethos deontic filter (spec §4.G): a
// priority-ordered list of pure scope-predicate rules that classifies a
// proposed action as Permissible or Impermissible, with a defeater
// mechanism that lets a lower-priority rule neutralize a higher-priority
// Forbidden match without removing it from the rule set.
//
// Rules are grounded on the teacher's detector-predicate style in
// internal/validation/fallacies.go (FallacyDetector: an ordered battery of
// independent boolean predicates over one input, each named and
// independently testable) — reworked from "detect all matches" into
// "stop at the first decisive match," since verify is a priority
// short-circuit, not an exhaustive scan.
package ethos

import (
	"causality/internal/causalctx"
	"causality/internal/effect"
)

// Modality is a rule's deontic classification of the actions it scopes.
type Modality int

const (
	Obligatory Modality = iota
	Permitted
	Forbidden
)

func (m Modality) String() string {
	switch m {
	case Obligatory:
		return "Obligatory"
	case Permitted:
		return "Permitted"
	case Forbidden:
		return "Forbidden"
	default:
		return "Unknown"
	}
}

// Action is the proposed action a rule's scope predicate evaluates.
type Action struct {
	ID      string
	Payload effect.Evidence
}

// ScopePredicate reports whether a rule applies to action. Rules are pure:
// they may consult ctx read-only but must not mutate state (spec §4.G).
type ScopePredicate func(action Action, ctx *causalctx.Context) bool

// Rule is one entry of the priority-ordered rule list.
type Rule struct {
	ID        string
	Scope     ScopePredicate
	Modality  Modality
	Defeaters []string // ids of rules that can neutralize this rule's Forbidden verdict
}

// Verdict is the final classification of a Conclusion.
type Verdict int

const (
	VerdictPermissible Verdict = iota
	VerdictImpermissible
)

func (v Verdict) String() string {
	if v == VerdictPermissible {
		return "Permissible"
	}
	return "Impermissible"
}

// Conclusion is the result of Verify. RuleID is the deciding rule's id, or
// "" if no rule matched and the configured default applied. DefeatedBy is
// populated when a Forbidden rule's verdict was neutralized en route to a
// later decision — empty when no defeat occurred.
type Conclusion struct {
	Verdict    Verdict
	RuleID     string
	DefeatedBy []DefeatRecord
}

// DefeatRecord notes that rule RuleID's Forbidden verdict was neutralized by
// rule ByID.
type DefeatRecord struct {
	RuleID string
	ByID   string
}

// Ethos is a priority-ordered rule list plus a default conclusion used when
// no rule decisively matches. Build with New.
type Ethos struct {
	rules          []Rule
	byID           map[string]Rule
	defaultVerdict Verdict
}

// New builds an Ethos. rules are tried in the given order (lower index =
// higher priority, spec §4.G). defaultVerdict is returned when no rule
// decisively matches; per spec, callers should default to
// VerdictImpermissible unless they have a specific reason not to
// (safety-conservative default-default).
func New(defaultVerdict Verdict, rules ...Rule) *Ethos {
	byID := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	return &Ethos{rules: rules, byID: byID, defaultVerdict: defaultVerdict}
}

// Verify classifies proposed_action per the algorithm in spec §4.G.
func (e *Ethos) Verify(action Action, ctx *causalctx.Context) Conclusion {
	var defeats []DefeatRecord

	for _, r := range e.rules {
		if !r.Scope(action, ctx) {
			continue
		}
		switch r.Modality {
		case Permitted, Obligatory:
			return Conclusion{Verdict: VerdictPermissible, RuleID: r.ID, DefeatedBy: defeats}
		case Forbidden:
			if byID, ok := e.defeatingRule(r, action, ctx); ok {
				defeats = append(defeats, DefeatRecord{RuleID: r.ID, ByID: byID})
				continue
			}
			return Conclusion{Verdict: VerdictImpermissible, RuleID: r.ID, DefeatedBy: defeats}
		}
	}
	return Conclusion{Verdict: e.defaultVerdict, DefeatedBy: defeats}
}

// defeatingRule reports the id of the first of r's defeaters that also
// matches action, if any.
func (e *Ethos) defeatingRule(r Rule, action Action, ctx *causalctx.Context) (string, bool) {
	for _, id := range r.Defeaters {
		d, ok := e.byID[id]
		if !ok {
			continue
		}
		if d.Scope(action, ctx) {
			return id, true
		}
	}
	return "", false
}
