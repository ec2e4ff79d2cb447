// Package config loads run configuration from a TOML file and builds the
// routing DAG from it.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Default configuration values.
const (
	DefaultWorkers = 20
	DefaultDataDir = ".entsync"
)

// Config is the top-level configuration file.
type Config struct {
	// Workers bounds per-run concurrency.
	Workers int `toml:"workers"`

	// DataDir holds the local databases.
	DataDir string `toml:"data_dir"`

	Source       SourceConfig        `toml:"source"`
	Embedding    EmbeddingConfig     `toml:"embedding"`
	Destinations []DestinationConfig `toml:"destination"`
	Routes       []RouteConfig       `toml:"route"`
}

// SourceConfig describes the source connection.
type SourceConfig struct {
	// Type is the source short name (filesystem, github).
	Type string `toml:"type"`

	// Name is a human label for the connection.
	Name string `toml:"name"`

	// AuthType selects the auth mode; empty means none.
	AuthType string `toml:"auth_type"`

	// Config carries source-specific settings (path, owner, repo).
	Config map[string]string `toml:"config"`
}

// EmbeddingConfig describes the embedding model. An empty APIKey disables
// embedding.
type EmbeddingConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// DestinationConfig describes one destination.
type DestinationConfig struct {
	// Type is the destination short name (memory, sqlitevec).
	Type string `toml:"type"`

	// Path is the database location for file-backed destinations.
	Path string `toml:"path"`
}

// RouteConfig declares how one entity type flows to destinations.
type RouteConfig struct {
	EntityType   string   `toml:"entity_type"`
	Transformers []string `toml:"transformers"`
	Destinations []string `toml:"destinations"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{
		Workers: DefaultWorkers,
		DataDir: DefaultDataDir,
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Source.Type == "" {
		return fmt.Errorf("source.type is required: %w", domain.ErrInvalidInput)
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required: %w", domain.ErrInvalidInput)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("at least one route is required: %w", domain.ErrInvalidInput)
	}

	destTypes := make(map[string]bool, len(c.Destinations))
	for _, dest := range c.Destinations {
		if dest.Type == "" {
			return fmt.Errorf("destination.type is required: %w", domain.ErrInvalidInput)
		}
		if destTypes[dest.Type] {
			return fmt.Errorf("duplicate destination %q: %w", dest.Type, domain.ErrInvalidInput)
		}
		destTypes[dest.Type] = true
	}

	for _, route := range c.Routes {
		if route.EntityType == "" {
			return fmt.Errorf("route.entity_type is required: %w", domain.ErrInvalidInput)
		}
		if len(route.Destinations) == 0 {
			return fmt.Errorf("route %q has no destinations: %w", route.EntityType, domain.ErrInvalidInput)
		}
		for _, dest := range route.Destinations {
			if !destTypes[dest] {
				return fmt.Errorf("route %q references unknown destination %q: %w",
					route.EntityType, dest, domain.ErrInvalidInput)
			}
		}
	}
	return nil
}

// DomainAuthType maps the configured auth mode to the domain type.
func (c *SourceConfig) DomainAuthType() domain.AuthType {
	switch c.AuthType {
	case "", "none":
		return domain.AuthTypeNone
	case "access_token":
		return domain.AuthTypeAccessOnly
	case "oauth2_refresh":
		return domain.AuthTypeRefresh
	case "oauth2_refresh_rotating":
		return domain.AuthTypeRefreshRotating
	default:
		return domain.AuthType(c.AuthType)
	}
}

// BuildDag constructs the routing DAG declared by the routes: one source
// node, one node per entity type, one node per transformer occurrence, and
// one shared node per destination.
func (c *Config) BuildDag(name string) (*domain.Dag, error) {
	dag := &domain.Dag{
		ID:   uuid.New(),
		Name: name,
	}

	source := domain.Node{ID: uuid.New(), Type: domain.NodeTypeSource, Name: c.Source.Type}
	dag.Nodes = append(dag.Nodes, source)

	destNodes := make(map[string]uuid.UUID, len(c.Destinations))
	for _, dest := range c.Destinations {
		node := domain.Node{ID: uuid.New(), Type: domain.NodeTypeDestination, Name: dest.Type}
		dag.Nodes = append(dag.Nodes, node)
		destNodes[dest.Type] = node.ID
	}

	for _, route := range c.Routes {
		entity := domain.Node{ID: uuid.New(), Type: domain.NodeTypeEntity, Name: route.EntityType}
		dag.Nodes = append(dag.Nodes, entity)
		dag.Edges = append(dag.Edges, domain.Edge{FromNodeID: source.ID, ToNodeID: entity.ID})

		tail := entity.ID
		for _, name := range route.Transformers {
			node := domain.Node{ID: uuid.New(), Type: domain.NodeTypeTransformer, Name: name}
			dag.Nodes = append(dag.Nodes, node)
			dag.Edges = append(dag.Edges, domain.Edge{FromNodeID: tail, ToNodeID: node.ID})
			tail = node.ID
		}

		for _, dest := range route.Destinations {
			dag.Edges = append(dag.Edges, domain.Edge{FromNodeID: tail, ToNodeID: destNodes[dest]})
		}
	}
	return dag, nil
}
