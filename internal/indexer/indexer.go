// Package indexer keeps the document store in sync with a document source, re-embedding
// only files whose cleaned text changed.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BiradarScripts/Djaan/internal/embedding"
	"github.com/BiradarScripts/Djaan/internal/fileid"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/source"
	"github.com/BiradarScripts/Djaan/internal/storage"
	"github.com/BiradarScripts/Djaan/internal/textnorm"
)

// DefaultWorkers is the number of files processed concurrently.
const DefaultWorkers = 4

// Indexer syncs a Store with a Source.
type Indexer struct {
	store        storage.Store
	source       source.Source
	embedder     embedding.Embedder
	logger       *zap.Logger
	workers      int
	pruneMissing bool
	force        bool
	now          func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger. Per-file failures are logged at Warn, skips at Debug.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithWorkers bounds concurrent file processing. Values below 1 are ignored.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithPruneMissing enables deleting stored records whose file is no longer listed by the source.
func WithPruneMissing(enabled bool) IndexerOption {
	return func(idx *Indexer) { idx.pruneMissing = enabled }
}

// WithForce re-embeds every file regardless of its stored hash.
func WithForce(enabled bool) IndexerOption {
	return func(idx *Indexer) { idx.force = enabled }
}

// WithClock overrides time.Now for UpdatedAt and durations.
func WithClock(now func() time.Time) IndexerOption {
	return func(idx *Indexer) {
		if now != nil {
			idx.now = now
		}
	}
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(store storage.Store, src source.Source, embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:    store,
		source:   src,
		embedder: embedder,
		logger:   zap.NewNop(),
		workers:  DefaultWorkers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeAdded
	outcomeUpdated
	outcomeFailed
)

// Sync runs one indexing pass. Files that cannot be read or embedded are recorded in the
// report and skipped. Listing and store failures abort the pass and are returned; store
// failures match models.ErrPersistence.
func (idx *Indexer) Sync(ctx context.Context) (*models.RefreshReport, error) {
	start := idx.now()
	report := &models.RefreshReport{RunID: uuid.NewString(), Failures: []models.FileFailure{}}
	logger := idx.logger.With(zap.String("run_id", report.RunID))

	names, err := idx.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source: %w", err)
	}
	report.Scanned = len(names)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, failure, err := idx.syncFile(gctx, logger, name)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch out {
			case outcomeAdded:
				report.Added++
			case outcomeUpdated:
				report.Updated++
			case outcomeUnchanged:
				report.Unchanged++
			case outcomeFailed:
				report.Failures = append(report.Failures, *failure)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("indexer pass aborted", zap.Error(err))
		return nil, err
	}
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Filename < report.Failures[j].Filename
	})

	if idx.pruneMissing {
		if n := report.FailureCount(models.FailureSourceRead); n > 0 {
			logger.Warn("indexer skipping prune after read failures", zap.Int("read_failures", n))
		} else {
			pruned, err := idx.prune(ctx, logger, names)
			if err != nil {
				return nil, err
			}
			report.Pruned = pruned
		}
	}

	report.Duration = idx.now().Sub(start)
	logger.Info("indexer pass complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("added", report.Added),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("pruned", report.Pruned),
		zap.Int("read_failures", report.FailureCount(models.FailureSourceRead)),
		zap.Int("embedding_failures", report.FailureCount(models.FailureEmbedding)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (idx *Indexer) syncFile(ctx context.Context, logger *zap.Logger, name string) (outcome, *models.FileFailure, error) {
	raw, err := idx.source.Read(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeFailed, nil, ctx.Err()
		}
		logger.Warn("indexer cannot read file", zap.String("filename", name), zap.Error(err))
		return outcomeFailed, &models.FileFailure{Filename: name, Kind: models.FailureSourceRead, Error: err.Error()}, nil
	}
	cleaned := textnorm.Clean(raw)
	hash := textnorm.Hash(cleaned)

	existing, err := idx.store.GetDocument(ctx, name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		existing = nil
	case err != nil:
		return outcomeFailed, nil, fmt.Errorf("%w: get %s: %w", models.ErrPersistence, name, err)
	}

	model := embedding.Signature(idx.embedder)
	if existing != nil && existing.ContentHash == hash && existing.Model == model && !idx.force {
		logger.Debug("indexer skipping unchanged file", zap.String("filename", name))
		return outcomeUnchanged, nil, nil
	}
	if existing != nil && existing.Model != model {
		logger.Debug("indexer re-embedding file from another model",
			zap.String("filename", name), zap.String("stored_model", existing.Model), zap.String("model", model))
	}

	emb, err := idx.embedder.Embed(ctx, cleaned)
	if err == nil && len(emb) == 0 {
		err = errors.New("empty embedding")
	}
	if err != nil {
		if ctx.Err() != nil {
			return outcomeFailed, nil, ctx.Err()
		}
		logger.Warn("indexer cannot embed file", zap.String("filename", name), zap.Error(err))
		return outcomeFailed, &models.FileFailure{
			Filename: name,
			Kind:     models.FailureEmbedding,
			Error:    fmt.Errorf("%w: %w", models.ErrEmbedding, err).Error(),
		}, nil
	}

	rec := &models.DocumentRecord{
		DocID:       fileid.DocID(name),
		Filename:    name,
		ContentHash: hash,
		Embedding:   emb,
		Model:       model,
		CleanedText: cleaned,
		UpdatedAt:   idx.now(),
	}
	if existing != nil {
		rec.DocID = existing.DocID
	}
	if err := idx.store.UpsertDocument(ctx, rec); err != nil {
		return outcomeFailed, nil, fmt.Errorf("%w: upsert %s: %w", models.ErrPersistence, name, err)
	}

	if existing == nil {
		logger.Debug("indexer added file", zap.String("filename", name), zap.String("doc_id", rec.DocID))
		return outcomeAdded, nil, nil
	}
	logger.Debug("indexer re-embedded file", zap.String("filename", name), zap.String("doc_id", rec.DocID))
	return outcomeUpdated, nil, nil
}

// prune deletes records whose filename is not in listed.
func (idx *Indexer) prune(ctx context.Context, logger *zap.Logger, listed []string) (int, error) {
	keep := make(map[string]struct{}, len(listed))
	for _, name := range listed {
		keep[name] = struct{}{}
	}
	recs, err := idx.store.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list documents: %w", models.ErrPersistence, err)
	}
	pruned := 0
	for _, rec := range recs {
		if _, ok := keep[rec.Filename]; ok {
			continue
		}
		if err := idx.store.DeleteDocument(ctx, rec.Filename); err != nil {
			return pruned, fmt.Errorf("%w: delete %s: %w", models.ErrPersistence, rec.Filename, err)
		}
		logger.Info("indexer pruned missing file", zap.String("filename", rec.Filename))
		pruned++
	}
	return pruned, nil
}
