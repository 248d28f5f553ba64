// Package cerr provides the single structured error type used across the
// causal reasoning engine.
//
// Error kinds are organized the way the teacher's claudecode/errors package
// organizes its numeric codes, except the causal engine exposes a typed Kind
// instead of a string code, since callers branch on kind rather than on a
// wire-visible string.
package cerr

import "fmt"

// Kind identifies the category of a causal engine error. See spec §7.
type Kind int

const (
	// KindShape indicates an Evidence variant mismatched what a Causaloid
	// function expected.
	KindShape Kind = iota
	// KindInvalidProbability indicates a probability outside [0,1] or
	// non-finite.
	KindInvalidProbability
	// KindNotTruthProjectable indicates an aggregate collection received a
	// PropagatingEffect variant that has no truth projection.
	KindNotTruthProjectable
	// KindCycleDetected indicates the graph contains a cycle.
	KindCycleDetected
	// KindUnknownNode indicates a referenced graph node id is absent.
	KindUnknownNode
	// KindUnknownContextoid indicates a referenced Contextoid id is absent.
	KindUnknownContextoid
	// KindUnknownEdgeFamily indicates a referenced edge family is absent.
	KindUnknownEdgeFamily
	// KindEvaluationFailed indicates a Causaloid function returned an error
	// or panicked.
	KindEvaluationFailed
	// KindNotYetEvaluated indicates an explanation was requested before
	// reason_from ran.
	KindNotYetEvaluated
	// KindNoRoot indicates a graph has no designated root.
	KindNoRoot
	// KindInvalidPolicy indicates a Collection's aggregate policy is
	// malformed (e.g. Some(0) or Some(k > |members|)).
	KindInvalidPolicy
)

func (k Kind) String() string {
	switch k {
	case KindShape:
		return "ShapeError"
	case KindInvalidProbability:
		return "InvalidProbability"
	case KindNotTruthProjectable:
		return "NotTruthProjectable"
	case KindCycleDetected:
		return "CycleDetected"
	case KindUnknownNode:
		return "UnknownNode"
	case KindUnknownContextoid:
		return "UnknownContextoid"
	case KindUnknownEdgeFamily:
		return "UnknownEdgeFamily"
	case KindEvaluationFailed:
		return "EvaluationFailed"
	case KindNotYetEvaluated:
		return "NotYetEvaluated"
	case KindNoRoot:
		return "NoRoot"
	case KindInvalidPolicy:
		return "InvalidPolicy"
	default:
		return "Unknown"
	}
}

// Error is the single error type surfaced by the engine.
type Error struct {
	Kind    Kind
	Node    string // populated for EvaluationFailed / UnknownNode style errors
	Message string
	Inner   error
}

func (e *Error) Error() string {
	if e.Node != "" {
		if e.Inner != nil {
			return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Node, e.Message, e.Inner)
		}
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Node, e.Message)
	}
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Inner }

// New builds an *Error with no node context.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an inner cause.
func Wrap(kind Kind, message string, inner error) *Error {
	return &Error{Kind: kind, Message: message, Inner: inner}
}

// WrapNode builds an *Error carrying a node id and inner cause, used for
// EvaluationFailed(node, inner) per spec §7.
func WrapNode(kind Kind, node, message string, inner error) *Error {
	return &Error{Kind: kind, Node: node, Message: message, Inner: inner}
}

// Is reports whether err is a *Error of the given kind, unwrapping through
// standard wrapping.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Kind == kind
}
