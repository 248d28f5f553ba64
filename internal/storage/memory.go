// Package storage provides in-memory storage for the causal reasoning
// engine's optional persistence layer.
//
// This package implements thread-safe storage using a read-write mutex
// and a deep-copying strategy to prevent data races: every retrieval
// method returns a deep copy of stored data so that external mutation
// cannot affect internal storage state.
package storage

import (
	"fmt"
	"sync"
	"time"
)

// MemoryStorage implements in-memory storage with thread-safe operations.
// All Get methods return deep copies to prevent external mutation of
// internal state.
type MemoryStorage struct {
	mu       sync.RWMutex
	graphs   map[string]*GraphDefinition
	contexts map[string]*ContextDefinition
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		graphs:   make(map[string]*GraphDefinition),
		contexts: make(map[string]*ContextDefinition),
	}
}

// StoreGraphDefinition stores (or replaces) a CausalGraph's structural
// definition.
func (s *MemoryStorage) StoreGraphDefinition(def *GraphDefinition) error {
	if def == nil {
		return fmt.Errorf("graph definition cannot be nil")
	}
	if def.ID == "" {
		return fmt.Errorf("graph definition must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := copyGraphDefinition(def)
	if existing, ok := s.graphs[def.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.graphs[def.ID] = stored
	return nil
}

// GetGraphDefinition retrieves a stored graph definition by ID.
func (s *MemoryStorage) GetGraphDefinition(id string) (*GraphDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("graph definition not found: %s", id)
	}
	return copyGraphDefinition(def), nil
}

// ListGraphDefinitions returns every stored graph definition.
func (s *MemoryStorage) ListGraphDefinitions() ([]*GraphDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*GraphDefinition, 0, len(s.graphs))
	for _, def := range s.graphs {
		out = append(out, copyGraphDefinition(def))
	}
	return out, nil
}

// DeleteGraphDefinition removes a stored graph definition.
func (s *MemoryStorage) DeleteGraphDefinition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id]; !ok {
		return fmt.Errorf("graph definition not found: %s", id)
	}
	delete(s.graphs, id)
	return nil
}

// StoreContextDefinition stores (or replaces) a Context hypergraph's
// structural definition.
func (s *MemoryStorage) StoreContextDefinition(def *ContextDefinition) error {
	if def == nil {
		return fmt.Errorf("context definition cannot be nil")
	}
	if def.ID == "" {
		return fmt.Errorf("context definition must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := copyContextDefinition(def)
	if existing, ok := s.contexts[def.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.contexts[def.ID] = stored
	return nil
}

// GetContextDefinition retrieves a stored context definition by ID.
func (s *MemoryStorage) GetContextDefinition(id string) (*ContextDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.contexts[id]
	if !ok {
		return nil, fmt.Errorf("context definition not found: %s", id)
	}
	return copyContextDefinition(def), nil
}

// ListContextDefinitions returns every stored context definition.
func (s *MemoryStorage) ListContextDefinitions() ([]*ContextDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ContextDefinition, 0, len(s.contexts))
	for _, def := range s.contexts {
		out = append(out, copyContextDefinition(def))
	}
	return out, nil
}

// DeleteContextDefinition removes a stored context definition.
func (s *MemoryStorage) DeleteContextDefinition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contexts[id]; !ok {
		return fmt.Errorf("context definition not found: %s", id)
	}
	delete(s.contexts, id)
	return nil
}

// GetMetrics returns storage-level counters.
func (s *MemoryStorage) GetMetrics() *Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Metrics{
		GraphDefinitionCount:   len(s.graphs),
		ContextDefinitionCount: len(s.contexts),
	}
}
