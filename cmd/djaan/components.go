package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/config"
	"github.com/BiradarScripts/Djaan/internal/embedding"
	"github.com/BiradarScripts/Djaan/internal/expansion"
	"github.com/BiradarScripts/Djaan/internal/extract"
	"github.com/BiradarScripts/Djaan/internal/indexer"
	"github.com/BiradarScripts/Djaan/internal/search"
	"github.com/BiradarScripts/Djaan/internal/source"
	"github.com/BiradarScripts/Djaan/internal/storage"
)

// Components holds the wired application objects.
type Components struct {
	Storage  storage.Store
	Source   *source.DirSource
	Embedder embedding.Embedder
	Indexer  *indexer.Indexer
	Engine   *search.Engine

	// Extensions is the resolved extension filter shared by the source and the watcher.
	Extensions []string
}

// Close releases the store and the embedder.
func (c *Components) Close() error {
	var firstErr error
	if c.Embedder != nil {
		if err := c.Embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// refreshOverrides are per-invocation switches that take precedence over the config.
type refreshOverrides struct {
	force bool
	prune bool
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, over refreshOverrides) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	logger.Info("embedder initialized",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", embedder.ModelName()),
		zap.Int("dimensions", embedder.Dimensions()),
	)

	exts := resolveExtensions(cfg.Source)
	src := source.NewDirSource(cfg.Source.Directory, exts, extract.NewExtractor())

	idx := indexer.NewIndexer(store, src, embedder,
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Refresh.Workers),
		indexer.WithPruneMissing(cfg.Refresh.PruneMissing || over.prune),
		indexer.WithForce(over.force),
	)

	lex := expansion.Lexicon(expansion.DefaultLexicon())
	if cfg.Expansion.ThesaurusPath != "" {
		custom, err := expansion.LoadLexicon(cfg.Expansion.ThesaurusPath)
		if err != nil {
			_ = embedder.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to load thesaurus: %w", err)
		}
		lex = custom
	}

	engine := search.NewEngine(store, idx, embedder,
		search.WithLogger(logger),
		search.WithExpander(expansion.NewExpander(lex)),
		search.WithIndexPath(cfg.Storage.IndexPath),
		search.WithLockFile(cfg.Storage.LockPath),
		search.WithPreviewLength(cfg.Search.PreviewLength),
		search.WithQueryCache(cfg.Embedding.QueryCacheSize),
	)

	return &Components{
		Storage:    store,
		Source:     src,
		Embedder:   embedder,
		Indexer:    idx,
		Engine:     engine,
		Extensions: exts,
	}, nil
}

// resolveExtensions returns the configured extensions, or every extension the extractor
// reads when none are configured.
func resolveExtensions(cfg config.SourceConfig) []string {
	if len(cfg.Extensions) == 0 {
		return extract.SupportedExtensions()
	}
	return cfg.Extensions
}
