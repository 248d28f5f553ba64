// Package neo4jstore provides optional durable persistence for Context
// hypergraphs, for callers whose Context is too large to rebuild on every
// process start. It is adapted from the teacher's
// internal/knowledge/neo4j_client.go + graph_store.go pair: the client
// manages driver lifecycle and transaction execution, the store translates
// domain objects (there: Entity/Relationship, here: Contextoid/edge family)
// into Cypher. The causal engine's in-memory causalctx.Context remains the
// read path consulted during reasoning (spec §4.D is read-only during a
// pass); this package only saves Contextoids and edges out of it and has no
// method that reads a Context back.
package neo4jstore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"causality/internal/causalctx"
)

// Config holds Neo4j connection configuration, mirroring the teacher's
// Neo4jConfig/DefaultConfig env-variable precedence.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// DefaultConfig reads connection settings from the environment, falling
// back to a local default, the same three-field precedence the teacher
// uses for NEO4J_URI/NEO4J_USERNAME/NEO4J_PASSWORD.
func DefaultConfig() Config {
	cfg := Config{
		URI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Username: getEnv("NEO4J_USERNAME", "neo4j"),
		Password: getEnv("NEO4J_PASSWORD", "password"),
		Database: getEnv("NEO4J_DATABASE", "neo4j"),
		Timeout:  5 * time.Second,
	}
	if ms := os.Getenv("NEO4J_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Timeout = time.Duration(v) * time.Millisecond
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Client wraps a Neo4j driver with connection pooling and timeout-bounded
// connectivity checks.
type Client struct {
	driver  neo4j.DriverWithContext
	timeout time.Duration
}

// NewClient opens a pooled driver and verifies connectivity within
// cfg.Timeout.
func NewClient(cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, timeout: cfg.Timeout}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// Store persists Context hypergraphs to a Neo4j database. It writes only;
// reloading a Context from the database is not supported.
type Store struct {
	client   *Client
	database string
}

// NewStore builds a Store bound to a single Neo4j database.
func NewStore(client *Client, database string) *Store {
	return &Store{client: client, database: database}
}

// nodeRecord is the wire shape of one persisted Contextoid, kept separate
// from causalctx.Contextoid so evidence payload encoding stays local to
// this package.
type nodeRecord struct {
	id      string
	kind    string
	numVal  float64
	hasNum  bool
}

// SaveNodes persists the Root/Datoid/Tempoid/etc. nodes of a built Context.
// Only the node identities and kind are written; edge families are saved
// separately via SaveEdge since a Context may relate the same pair of nodes
// across multiple families.
func (s *Store) SaveNodes(ctx context.Context, contextID string, nodes []causalctx.Contextoid) error {
	session := s.client.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, n := range nodes {
			rec := toRecord(n)
			params := map[string]interface{}{
				"context_id": contextID,
				"id":         rec.id,
				"kind":       rec.kind,
			}
			if rec.hasNum {
				params["num_val"] = rec.numVal
			}
			query := `
				MERGE (n:Contextoid {context_id: $context_id, id: $id})
				SET n.kind = $kind
			`
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("save contextoid %s: %w", rec.id, err)
			}
		}
		return nil, nil
	})
	return err
}

// SaveEdge persists one directed edge within an edge family.
func (s *Store) SaveEdge(ctx context.Context, contextID, from, to string, family causalctx.EdgeFamily) error {
	session := s.client.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	query := `
		MATCH (a:Contextoid {context_id: $context_id, id: $from})
		MATCH (b:Contextoid {context_id: $context_id, id: $to})
		MERGE (a)-[:RELATES {family: $family}]->(b)
	`
	params := map[string]interface{}{
		"context_id": contextID,
		"from":       from,
		"to":         to,
		"family":     string(family),
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("save edge %s->%s: %w", from, to, err)
	}
	return nil
}

func toRecord(n causalctx.Contextoid) nodeRecord {
	rec := nodeRecord{id: n.ID, kind: n.Kind.String()}
	if v, ok := n.Payload.Numerical(); ok {
		rec.numVal, rec.hasNum = v, true
	}
	return rec
}
