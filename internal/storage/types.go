package storage

import (
	"time"

	"github.com/google/uuid"
)

// NewDefinitionID generates a random ID for a GraphDefinition or
// ContextDefinition when the caller does not supply its own.
func NewDefinitionID() string {
	return uuid.NewString()
}

// NodeDefinition is the persisted structural description of one Causaloid
// in a CausalGraph: its identity and description, not its CausalFn (which
// cannot be serialized and must be re-registered by ID when a
// GraphDefinition is rehydrated into a live CausalGraph).
type NodeDefinition struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// EdgeDefinition is one directed, weighted edge of a persisted graph.
type EdgeDefinition struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// GraphDefinition is the persisted structural shape of a CausalGraph.
type GraphDefinition struct {
	ID        string           `json:"id"`
	RootID    string           `json:"root_id"`
	Nodes     []NodeDefinition `json:"nodes"`
	Edges     []EdgeDefinition `json:"edges"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ContextoidDefinition is the persisted structural description of one
// Contextoid in a Context hypergraph.
type ContextoidDefinition struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// ContextEdgeDefinition is one named-family edge of a persisted Context.
type ContextEdgeDefinition struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Family string `json:"family"`
}

// ContextDefinition is the persisted structural shape of a Context
// hypergraph.
type ContextDefinition struct {
	ID         string                  `json:"id"`
	RootID     string                  `json:"root_id"`
	Contextoid []ContextoidDefinition  `json:"contextoids"`
	Edges      []ContextEdgeDefinition `json:"edges"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Metrics summarizes storage-level counters surfaced to callers via
// MetricsProvider.
type Metrics struct {
	GraphDefinitionCount   int `json:"graph_definition_count"`
	ContextDefinitionCount int `json:"context_definition_count"`
	CSMTriggerEventCount   int `json:"csm_trigger_event_count"`
}
