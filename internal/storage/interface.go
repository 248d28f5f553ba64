package storage

// GraphRepository manages CausalGraph structural-definition persistence.
type GraphRepository interface {
	StoreGraphDefinition(def *GraphDefinition) error
	GetGraphDefinition(id string) (*GraphDefinition, error)
	ListGraphDefinitions() ([]*GraphDefinition, error)
	DeleteGraphDefinition(id string) error
}

// ContextRepository manages Context hypergraph structural-definition
// persistence.
type ContextRepository interface {
	StoreContextDefinition(def *ContextDefinition) error
	GetContextDefinition(id string) (*ContextDefinition, error)
	ListContextDefinitions() ([]*ContextDefinition, error)
	DeleteContextDefinition(id string) error
}

// MetricsProvider provides storage-level counters.
type MetricsProvider interface {
	GetMetrics() *Metrics
}

// Storage combines every repository interface for unified access.
type Storage interface {
	GraphRepository
	ContextRepository
	MetricsProvider
}

// Verify MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)
