package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/adapters/driven/auth"
	destmemory "github.com/custodia-labs/entsync/internal/adapters/driven/destinations/memory"
	"github.com/custodia-labs/entsync/internal/adapters/driven/destinations/sqlitevec"
	"github.com/custodia-labs/entsync/internal/adapters/driven/embedding/openai"
	storememory "github.com/custodia-labs/entsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/entsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/entsync/internal/config"
	"github.com/custodia-labs/entsync/internal/connectors/filesystem"
	"github.com/custodia-labs/entsync/internal/connectors/github"
	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/core/services"
	"github.com/custodia-labs/entsync/internal/transformers/chunker"
	"github.com/custodia-labs/entsync/internal/transformers/fileparser"
)

// app bundles everything a command needs, assembled from the config file.
type app struct {
	cfg     *config.Config
	store   *sqlite.Store
	factory *services.Factory
	syncs   driven.SyncStore
	jobs    driven.JobStore

	sync domain.Sync
	dag  *domain.Dag
}

// syncNamespace seeds deterministic sync IDs so fingerprints persist across
// invocations of the same configuration.
var syncNamespace = uuid.MustParse("9f2c4e1a-7b3d-4a68-95c0-2d8f6e104b7e")

// newApp loads the config and wires stores, registries, and the factory.
func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(filepath.Join(cfg.DataDir, "entsync.db"))
	if err != nil {
		return nil, err
	}

	sources := services.NewSourceRegistry()
	sources.Register(filesystem.ShortName, func(conn domain.Connection, tokens driven.TokenProvider) (driven.Source, error) {
		return filesystem.NewSource(conn, tokens)
	})
	sources.Register(github.ShortName, func(conn domain.Connection, tokens driven.TokenProvider) (driven.Source, error) {
		return github.NewSource(conn, tokens)
	})

	destinations := services.NewDestinationRegistry()
	for _, dest := range cfg.Destinations {
		switch dest.Type {
		case destmemory.ShortName:
			destinations.Register(destmemory.ShortName, func() (driven.Destination, error) {
				return destmemory.New(), nil
			})
		case sqlitevec.ShortName:
			path := dest.Path
			if path == "" {
				path = filepath.Join(cfg.DataDir, "vectors.db")
			}
			destinations.Register(sqlitevec.ShortName, func() (driven.Destination, error) {
				return sqlitevec.Open(path)
			})
		default:
			store.Close()
			return nil, fmt.Errorf("destination %q: %w", dest.Type, domain.ErrUnsupportedType)
		}
	}

	transformers := services.NewTransformerRegistry()
	transformers.Register(fileparser.New())
	transformers.Register(chunker.New())

	definitions := map[string]domain.EntityDefinition{
		filesystem.TypeFile: {
			Type: filesystem.TypeFile, Name: "File",
			Description: "file metadata from a watched directory tree",
		},
		github.TypeIssue: {
			Type: github.TypeIssue, Name: "GitHub issue",
			Description: "issue title, body, and labels from a repository",
		},
		github.TypePullRequest: {
			Type: github.TypePullRequest, Name: "GitHub pull request",
			Description: "pull request title, body, and branch refs",
		},
		"document": {
			Type: "document", Name: "Document",
			Description: "parsed textual content of a source entity",
		},
		"chunked_document": {
			Type: "chunked_document", Name: "Chunked document",
			Description: "document split into overlapping text chunks",
		},
	}

	var embedder driven.EmbeddingModel
	if cfg.Embedding.APIKey != "" {
		embedder, err = openai.New(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	// Sync and connection identity derive from the config so entity
	// fingerprints line up run after run.
	syncID := uuid.NewSHA1(syncNamespace, []byte(path+"|"+cfg.Source.Type))
	connID := uuid.NewSHA1(syncNamespace, []byte("conn|"+path+"|"+cfg.Source.Type))
	credsID := uuid.NewSHA1(syncNamespace, []byte("creds|"+path+"|"+cfg.Source.Type))

	syncName := cfg.Source.Name
	if syncName == "" {
		syncName = cfg.Source.Type
	}

	syncs := storememory.NewSyncStore()
	connections := storememory.NewConnectionStore()
	credentials := storememory.NewCredentialsStore()

	sync := domain.Sync{ID: syncID, Name: syncName, SourceConnectionID: connID}
	conn := domain.Connection{
		ID:            connID,
		ShortName:     cfg.Source.Type,
		Name:          syncName,
		AuthType:      cfg.Source.DomainAuthType(),
		CredentialsID: credsID,
		Config:        cfg.Source.Config,
	}
	if err := syncs.Save(ctx, sync); err != nil {
		store.Close()
		return nil, err
	}
	if err := connections.Save(ctx, conn); err != nil {
		store.Close()
		return nil, err
	}

	dag, err := cfg.BuildDag(syncName)
	if err != nil {
		store.Close()
		return nil, err
	}

	factory := services.NewFactory(services.FactoryConfig{
		Sources:           sources,
		Destinations:      destinations,
		Transformers:      transformers,
		EntityDefinitions: definitions,
		TokenProviders:    auth.NewProviderFactory(credentials),
		Embedder:          embedder,
		Syncs:             syncs,
		Jobs:              store.Jobs(),
		Entities:          store.Entities(),
		Connections:       connections,
		MaxWorkers:        cfg.Workers,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		factory: factory,
		syncs:   syncs,
		jobs:    store.Jobs(),
		sync:    sync,
		dag:     dag,
	}, nil
}

func (a *app) close() {
	a.store.Close()
}
