// Package config provides configuration management for the causal
// reasoning engine.
//
// Configuration can be loaded from multiple sources (in order of
// precedence):
//  1. Environment variables (highest priority)
//  2. Configuration file (JSON or YAML)
//  3. Default values (lowest priority)
//
// Feature flags record whether optional subsystems (intervention, Ethos,
// CSM, the chromem-go vector index, metrics) are enabled; IsFeatureEnabled
// reports them. The subsystem packages do not read these flags themselves.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Engine      EngineConfig      `json:"engine" yaml:"engine"`
	Storage     StorageConfig     `json:"storage" yaml:"storage"`
	Features    FeatureFlags      `json:"features" yaml:"features"`
	Performance PerformanceConfig `json:"performance" yaml:"performance"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
}

// EngineConfig contains engine-level identification.
type EngineConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"`
}

// StorageConfig selects and tunes the optional persistence backends.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite", "neo4j".
	Backend string `json:"backend" yaml:"backend"`
	// SQLitePath is the database file path when Backend == "sqlite".
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
	// Neo4jURI is the Neo4j server URI; Validate requires it when Backend
	// == "neo4j".
	Neo4jURI string `json:"neo4j_uri" yaml:"neo4j_uri"`
}

// FeatureFlags records which optional engine subsystems are enabled. The
// flags are stored and reported by Config only; no subsystem checks them.
type FeatureFlags struct {
	// InterventionEnabled flags the Layer-2 counterfactual API.
	InterventionEnabled bool `json:"intervention_enabled" yaml:"intervention_enabled"`
	// EthosEnabled flags deontic filtering of CSM actions.
	EthosEnabled bool `json:"ethos_enabled" yaml:"ethos_enabled"`
	// CSMEnabled flags the Causal State Machine.
	CSMEnabled bool `json:"csm_enabled" yaml:"csm_enabled"`
	// VectorIndexEnabled flags the chromem-go Contextoid similarity index.
	VectorIndexEnabled bool `json:"vector_index_enabled" yaml:"vector_index_enabled"`
	// MetricsEnabled flags reasoning-call metrics collection.
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// PerformanceConfig contains performance tuning options.
type PerformanceConfig struct {
	// MaxConcurrentReasoningCalls is the configured cap on concurrent
	// reason_from/reason_subgraph calls sharing one engine instance.
	// Validate requires it to be at least 1; the reasoning code does not
	// enforce it.
	MaxConcurrentReasoningCalls int `json:"max_concurrent_reasoning_calls" yaml:"max_concurrent_reasoning_calls"`
	// MaxGraphNodes is the configured graph node-count limit (0 =
	// unlimited). Validate rejects negative values; graphs are not checked
	// against it.
	MaxGraphNodes int `json:"max_graph_nodes" yaml:"max_graph_nodes"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level            string `json:"level" yaml:"level"`
	Format           string `json:"format" yaml:"format"`
	EnableTimestamps bool   `json:"enable_timestamps" yaml:"enable_timestamps"`
}

// Default returns the default configuration with every optional subsystem
// enabled.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:        "causality",
			Version:     "0.1.0",
			Environment: "development",
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Features: FeatureFlags{
			InterventionEnabled: true,
			EthosEnabled:        true,
			CSMEnabled:          true,
			VectorIndexEnabled:  true,
			MetricsEnabled:      true,
		},
		Performance: PerformanceConfig{
			MaxConcurrentReasoningCalls: 64,
			MaxGraphNodes:               0,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			EnableTimestamps: true,
		},
	}
}

// Load loads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file (selected by
// extension: .yaml/.yml use YAML, anything else JSON), then applies
// environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadFromEnv loads configuration from environment variables.
// Environment variables follow the pattern CAUSALITY_<SECTION>_<KEY>, e.g.
// CAUSALITY_ENGINE_NAME, CAUSALITY_FEATURES_ETHOS_ENABLED.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("CAUSALITY_ENGINE_NAME"); v != "" {
		c.Engine.Name = v
	}
	if v := os.Getenv("CAUSALITY_ENGINE_VERSION"); v != "" {
		c.Engine.Version = v
	}
	if v := os.Getenv("CAUSALITY_ENGINE_ENVIRONMENT"); v != "" {
		c.Engine.Environment = v
	}

	if v := os.Getenv("CAUSALITY_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CAUSALITY_STORAGE_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("CAUSALITY_STORAGE_NEO4J_URI"); v != "" {
		c.Storage.Neo4jURI = v
	}

	if v := os.Getenv("CAUSALITY_FEATURES_INTERVENTION_ENABLED"); v != "" {
		c.Features.InterventionEnabled = parseBool(v)
	}
	if v := os.Getenv("CAUSALITY_FEATURES_ETHOS_ENABLED"); v != "" {
		c.Features.EthosEnabled = parseBool(v)
	}
	if v := os.Getenv("CAUSALITY_FEATURES_CSM_ENABLED"); v != "" {
		c.Features.CSMEnabled = parseBool(v)
	}
	if v := os.Getenv("CAUSALITY_FEATURES_VECTOR_INDEX_ENABLED"); v != "" {
		c.Features.VectorIndexEnabled = parseBool(v)
	}
	if v := os.Getenv("CAUSALITY_FEATURES_METRICS_ENABLED"); v != "" {
		c.Features.MetricsEnabled = parseBool(v)
	}

	if v := os.Getenv("CAUSALITY_PERFORMANCE_MAX_CONCURRENT_REASONING_CALLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Performance.MaxConcurrentReasoningCalls = n
		}
	}
	if v := os.Getenv("CAUSALITY_PERFORMANCE_MAX_GRAPH_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Performance.MaxGraphNodes = n
		}
	}

	if v := os.Getenv("CAUSALITY_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CAUSALITY_LOGGING_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("CAUSALITY_LOGGING_ENABLE_TIMESTAMPS"); v != "" {
		c.Logging.EnableTimestamps = parseBool(v)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.Name == "" {
		return fmt.Errorf("engine.name cannot be empty")
	}
	if c.Engine.Environment != "development" && c.Engine.Environment != "staging" && c.Engine.Environment != "production" {
		return fmt.Errorf("engine.environment must be one of: development, staging, production")
	}

	switch c.Storage.Backend {
	case "memory", "sqlite", "neo4j":
	default:
		return fmt.Errorf("storage.backend must be one of: memory, sqlite, neo4j")
	}
	if c.Storage.Backend == "sqlite" && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required when storage.backend is 'sqlite'")
	}
	if c.Storage.Backend == "neo4j" && c.Storage.Neo4jURI == "" {
		return fmt.Errorf("storage.neo4j_uri is required when storage.backend is 'neo4j'")
	}

	if c.Performance.MaxConcurrentReasoningCalls < 1 {
		return fmt.Errorf("performance.max_concurrent_reasoning_calls must be >= 1")
	}
	if c.Performance.MaxGraphNodes < 0 {
		return fmt.Errorf("performance.max_graph_nodes cannot be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}

	return nil
}

// IsFeatureEnabled checks if a named optional subsystem is enabled.
func (c *Config) IsFeatureEnabled(feature string) bool {
	switch strings.ToLower(feature) {
	case "intervention", "intervention_enabled":
		return c.Features.InterventionEnabled
	case "ethos", "ethos_enabled":
		return c.Features.EthosEnabled
	case "csm", "csm_enabled":
		return c.Features.CSMEnabled
	case "vector_index", "vector_index_enabled":
		return c.Features.VectorIndexEnabled
	case "metrics", "metrics_enabled":
		return c.Features.MetricsEnabled
	default:
		return false
	}
}

// parseBool parses a boolean from string (handles various formats).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on" || s == "enabled"
}

// ToJSON serializes the configuration to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ToYAML serializes the configuration to YAML.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// SaveToFile saves the configuration to path, in JSON or YAML depending on
// its extension (.yaml/.yml use YAML, anything else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if isYAMLPath(path) {
		data, err = c.ToYAML()
	} else {
		data, err = c.ToJSON()
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
