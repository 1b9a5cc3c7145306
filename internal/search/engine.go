// Package search owns the published vector index and answers similarity queries against it.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/embedding"
	"github.com/BiradarScripts/Djaan/internal/expansion"
	"github.com/BiradarScripts/Djaan/internal/indexer"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/storage"
	"github.com/BiradarScripts/Djaan/internal/vector"
	"github.com/BiradarScripts/Djaan/pkg/utils"
)

// DefaultPreviewLength is the number of characters of cleaned text shown per result.
const DefaultPreviewLength = 150

const lockRetryDelay = 100 * time.Millisecond

// Engine serves searches against an atomically published index snapshot and rebuilds that
// snapshot on Refresh. Search is safe for concurrent use; refreshes are serialized.
type Engine struct {
	store         storage.Store
	indexer       *indexer.Indexer
	embedder      embedding.Embedder
	expander      *expansion.Expander
	logger        *zap.Logger
	indexPath     string
	lockPath      string
	previewLength int

	current     atomic.Pointer[vector.Snapshot]
	lastRefresh atomic.Pointer[models.RefreshReport]
	refreshMu   sync.Mutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExpander sets the query expander used when a request asks for expansion.
func WithExpander(x *expansion.Expander) EngineOption {
	return func(e *Engine) {
		if x != nil {
			e.expander = x
		}
	}
}

// WithIndexPath persists each rebuilt snapshot to path and warm-loads it on the first refresh
// when it still matches the store.
func WithIndexPath(path string) EngineOption {
	return func(e *Engine) { e.indexPath = path }
}

// WithLockFile serializes refreshes across processes with a file lock at path.
func WithLockFile(path string) EngineOption {
	return func(e *Engine) { e.lockPath = path }
}

// WithPreviewLength sets the preview length in characters.
func WithPreviewLength(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.previewLength = n
		}
	}
}

// WithQueryCache wraps the embedder in an LRU cache of size entries for query embeddings.
func WithQueryCache(size int) EngineOption {
	return func(e *Engine) {
		if size > 0 {
			e.embedder = embedding.NewCachedEmbedder(e.embedder, size)
		}
	}
}

// NewEngine creates an engine. The embedder must be the one the indexer uses, so that
// query and document vectors share a space. No snapshot is published until Refresh succeeds.
func NewEngine(store storage.Store, idx *indexer.Indexer, embedder embedding.Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		store:         store,
		indexer:       idx,
		embedder:      embedder,
		logger:        zap.NewNop(),
		previewLength: DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.expander == nil {
		e.expander = expansion.NewExpander(nil)
	}
	return e
}

// Snapshot returns the currently published snapshot, or nil before the first refresh.
func (e *Engine) Snapshot() *vector.Snapshot {
	return e.current.Load()
}

// IndexSize returns the number of documents in the published snapshot.
func (e *Engine) IndexSize() int {
	return e.current.Load().Len()
}

// Refresh syncs the store with the source, rebuilds the index from every stored record and
// publishes it. On any error the previously published snapshot keeps serving.
func (e *Engine) Refresh(ctx context.Context) (*models.RefreshReport, error) {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	if e.lockPath != "" {
		unlock, err := e.acquireFileLock(ctx)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	report, err := e.indexer.Sync(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", models.ErrPersistence, err)
	}
	records, report.Excluded = e.currentModel(records)
	if report.Excluded > 0 {
		e.logger.Warn("records from another embedder left out of the index",
			zap.Int("excluded", report.Excluded), zap.String("model", embedding.Signature(e.embedder)))
	}

	snap, fresh, err := e.nextSnapshot(records, report.Embedded() == 0)
	if err != nil {
		e.logger.Error("index rebuild failed, keeping previous index", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrIndexBuild, err)
	}
	e.current.Store(snap)

	report.IndexSize = snap.Len()
	report.Fingerprint = snap.Fingerprint
	e.lastRefresh.Store(report)
	e.logger.Info("index published",
		zap.String("run_id", report.RunID),
		zap.Int("index_size", snap.Len()),
		zap.String("fingerprint", snap.Fingerprint),
		zap.Bool("rebuilt", fresh),
	)

	if fresh && e.indexPath != "" {
		if err := vector.Save(e.indexPath, snap); err != nil {
			e.logger.Warn("failed to persist index", zap.String("path", e.indexPath), zap.Error(err))
		}
	}
	return report, nil
}

// nextSnapshot reuses the published snapshot or the persisted file when reuse is allowed and
// either matches records, and builds a new one otherwise. fresh reports whether a build happened.
// Reuse must be off after any re-embedding: a forced pass can change vectors without changing hashes.
func (e *Engine) nextSnapshot(records []*models.DocumentRecord, reuse bool) (snap *vector.Snapshot, fresh bool, err error) {
	cur := e.current.Load()
	if reuse && cur != nil && cur.Fingerprint == vector.Fingerprint(records) {
		return cur, false, nil
	}
	if reuse && cur == nil && e.indexPath != "" {
		loaded, err := vector.Load(e.indexPath, records)
		switch {
		case err == nil:
			e.logger.Info("loaded persisted index", zap.String("path", e.indexPath), zap.Int("index_size", loaded.Len()))
			return loaded, false, nil
		case errors.Is(err, os.ErrNotExist):
		default:
			e.logger.Debug("persisted index not reusable", zap.String("path", e.indexPath), zap.Error(err))
		}
	}
	snap, err = vector.Build(records)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// WarmStart publishes the persisted index when nothing is published yet and the file matches
// the stored records. It never syncs the source or builds; a missing or stale file is ignored.
func (e *Engine) WarmStart(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	if e.current.Load() != nil || e.indexPath == "" {
		return nil
	}
	records, err := e.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("%w: list documents: %w", models.ErrPersistence, err)
	}
	records, _ = e.currentModel(records)
	snap, err := vector.Load(e.indexPath, records)
	if err != nil {
		e.logger.Debug("warm start skipped", zap.String("path", e.indexPath), zap.Error(err))
		return nil
	}
	e.current.Store(snap)
	return nil
}

// currentModel keeps the records embedded by the engine's embedder. Vectors from any other
// model live in a different space and would break or skew the index.
func (e *Engine) currentModel(records []*models.DocumentRecord) ([]*models.DocumentRecord, int) {
	model := embedding.Signature(e.embedder)
	kept := make([]*models.DocumentRecord, 0, len(records))
	for _, rec := range records {
		if rec.Model == model {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

func (e *Engine) acquireFileLock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(e.lockPath), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(e.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire refresh lock %s: %w", e.lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire refresh lock %s: held by another process", e.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release refresh lock", zap.Error(err))
		}
	}, nil
}

// Search embeds the (optionally expanded) query and returns the TopK most similar documents.
// Invalid requests fail with models.ErrInvalidRequest before any embedding work; an empty
// or unbuilt index yields an empty result list.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()
	if req == nil {
		return nil, fmt.Errorf("%w: missing request", models.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{Results: []models.SearchResult{}}
	snap := e.current.Load()
	if snap.Len() == 0 {
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}

	text := req.Query
	if req.UseExpansion {
		text = e.expander.Expand(req.Query)
		e.logger.Debug("expanded query", zap.String("query", req.Query), zap.String("expanded", text))
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbedding, err)
	}
	slots, scores, err := snap.Index.Search(vector.Normalize(vec), req.TopK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	for i, slot := range slots {
		rec, ok := snap.Record(slot)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, models.SearchResult{
			DocID:       rec.DocID,
			Score:       utils.Round(scores[i], 4),
			Preview:     utils.Preview(rec.CleanedText, e.previewLength),
			Explanation: Explain(req.Query, rec.CleanedText, scores[i]),
		})
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// Stats reports the store size and the published snapshot.
func (e *Engine) Stats(ctx context.Context) (*models.IndexStats, error) {
	count, err := e.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count documents: %w", models.ErrPersistence, err)
	}
	stats := &models.IndexStats{Documents: count, LastRefresh: e.lastRefresh.Load()}
	if snap := e.current.Load(); snap != nil {
		builtAt := snap.BuiltAt
		stats.IndexSize = snap.Len()
		stats.Dimensions = snap.Index.Dimensions()
		stats.Fingerprint = snap.Fingerprint
		stats.BuiltAt = &builtAt
	}
	return stats, nil
}
