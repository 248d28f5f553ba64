// Package storage provides SQLite persistent storage for CausalGraph and
// Context structural definitions.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"causality/pkg/cache"
)

// sqliteCacheConfig bounds the read-through caches fronting the database;
// a large graph/context count falls back to disk for the colder tail
// instead of growing the cache unbounded.
func sqliteCacheConfig() *cache.Config {
	return &cache.Config{MaxEntries: 1000, TTL: 10 * time.Minute}
}

// SQLiteStorage implements persistent storage with SQLite, fronted by a
// bounded read-through LRU cache for Get calls.
type SQLiteStorage struct {
	db         *sql.DB
	graphCache *cache.LRU[string, *GraphDefinition]
	ctxCache   *cache.LRU[string, *ContextDefinition]
}

// NewSQLiteStorage opens (creating if necessary) a SQLite database at path.
func NewSQLiteStorage(path string, busyTimeoutMs int) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStorage{
		db:         db,
		graphCache: cache.New[string, *GraphDefinition](sqliteCacheConfig()),
		ctxCache:   cache.New[string, *ContextDefinition](sqliteCacheConfig()),
	}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// StoreGraphDefinition persists a CausalGraph's structural definition.
func (s *SQLiteStorage) StoreGraphDefinition(def *GraphDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("graph definition must have an id")
	}

	nodesJSON, err := json.Marshal(def.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(def.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.Exec(`
		INSERT INTO graph_definitions (id, root_id, nodes, edges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_id = excluded.root_id,
			nodes = excluded.nodes,
			edges = excluded.edges,
			updated_at = excluded.updated_at
	`, def.ID, def.RootID, string(nodesJSON), string(edgesJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to store graph definition: %w", err)
	}

	s.graphCache.Delete(def.ID)
	return nil
}

// GetGraphDefinition retrieves a stored graph definition by ID, serving
// from the LRU cache on a hit and populating it on a miss.
func (s *SQLiteStorage) GetGraphDefinition(id string) (*GraphDefinition, error) {
	if def, ok := s.graphCache.Get(id); ok {
		return copyGraphDefinition(def), nil
	}

	row := s.db.QueryRow("SELECT id, root_id, nodes, edges, created_at, updated_at FROM graph_definitions WHERE id = ?", id)
	def, err := scanGraphDefinition(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graph definition not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	s.graphCache.Set(id, def)
	return copyGraphDefinition(def), nil
}

// ListGraphDefinitions returns every stored graph definition, read
// directly from the database since the cache may not hold the full set.
func (s *SQLiteStorage) ListGraphDefinitions() ([]*GraphDefinition, error) {
	rows, err := s.db.Query("SELECT id, root_id, nodes, edges, created_at, updated_at FROM graph_definitions")
	if err != nil {
		return nil, fmt.Errorf("failed to query graph_definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*GraphDefinition
	for rows.Next() {
		def, err := scanGraphDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// DeleteGraphDefinition removes a stored graph definition.
func (s *SQLiteStorage) DeleteGraphDefinition(id string) error {
	res, err := s.db.Exec("DELETE FROM graph_definitions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete graph definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("graph definition not found: %s", id)
	}
	s.graphCache.Delete(id)
	return nil
}

// StoreContextDefinition persists a Context hypergraph's structural
// definition.
func (s *SQLiteStorage) StoreContextDefinition(def *ContextDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("context definition must have an id")
	}

	contextoidsJSON, err := json.Marshal(def.Contextoid)
	if err != nil {
		return fmt.Errorf("failed to marshal contextoids: %w", err)
	}
	edgesJSON, err := json.Marshal(def.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.Exec(`
		INSERT INTO context_definitions (id, root_id, contextoids, edges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_id = excluded.root_id,
			contextoids = excluded.contextoids,
			edges = excluded.edges,
			updated_at = excluded.updated_at
	`, def.ID, def.RootID, string(contextoidsJSON), string(edgesJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to store context definition: %w", err)
	}

	s.ctxCache.Delete(def.ID)
	return nil
}

// GetContextDefinition retrieves a stored context definition by ID,
// serving from the LRU cache on a hit and populating it on a miss.
func (s *SQLiteStorage) GetContextDefinition(id string) (*ContextDefinition, error) {
	if def, ok := s.ctxCache.Get(id); ok {
		return copyContextDefinition(def), nil
	}

	row := s.db.QueryRow("SELECT id, root_id, contextoids, edges, created_at, updated_at FROM context_definitions WHERE id = ?", id)
	def, err := scanContextDefinition(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("context definition not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	s.ctxCache.Set(id, def)
	return copyContextDefinition(def), nil
}

// ListContextDefinitions returns every stored context definition, read
// directly from the database since the cache may not hold the full set.
func (s *SQLiteStorage) ListContextDefinitions() ([]*ContextDefinition, error) {
	rows, err := s.db.Query("SELECT id, root_id, contextoids, edges, created_at, updated_at FROM context_definitions")
	if err != nil {
		return nil, fmt.Errorf("failed to query context_definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ContextDefinition
	for rows.Next() {
		def, err := scanContextDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// DeleteContextDefinition removes a stored context definition.
func (s *SQLiteStorage) DeleteContextDefinition(id string) error {
	res, err := s.db.Exec("DELETE FROM context_definitions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete context definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("context definition not found: %s", id)
	}
	s.ctxCache.Delete(id)
	return nil
}

// GetMetrics returns storage-level counters, read directly from the
// database (the cache is a bounded subset, not a reliable count source).
func (s *SQLiteStorage) GetMetrics() *Metrics {
	m := &Metrics{}
	_ = s.db.QueryRow("SELECT COUNT(*) FROM graph_definitions").Scan(&m.GraphDefinitionCount)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM context_definitions").Scan(&m.ContextDefinitionCount)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM csm_trigger_events").Scan(&m.CSMTriggerEventCount)
	return m
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGraphDefinition(row rowScanner) (*GraphDefinition, error) {
	var id, rootID, nodesJSON, edgesJSON string
	var createdAt, updatedAt int64

	if err := row.Scan(&id, &rootID, &nodesJSON, &edgesJSON, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan graph definition: %w", err)
	}

	var nodes []NodeDefinition
	if err := json.Unmarshal([]byte(nodesJSON), &nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}
	var edges []EdgeDefinition
	if err := json.Unmarshal([]byte(edgesJSON), &edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &GraphDefinition{
		ID:        id,
		RootID:    rootID,
		Nodes:     nodes,
		Edges:     edges,
		CreatedAt: time.Unix(createdAt, 0),
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

func scanContextDefinition(row rowScanner) (*ContextDefinition, error) {
	var id, rootID, contextoidsJSON, edgesJSON string
	var createdAt, updatedAt int64

	if err := row.Scan(&id, &rootID, &contextoidsJSON, &edgesJSON, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan context definition: %w", err)
	}

	var contextoids []ContextoidDefinition
	if err := json.Unmarshal([]byte(contextoidsJSON), &contextoids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contextoids: %w", err)
	}
	var edges []ContextEdgeDefinition
	if err := json.Unmarshal([]byte(edgesJSON), &edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &ContextDefinition{
		ID:         id,
		RootID:     rootID,
		Contextoid: contextoids,
		Edges:      edges,
		CreatedAt:  time.Unix(createdAt, 0),
		UpdatedAt:  time.Unix(updatedAt, 0),
	}, nil
}
