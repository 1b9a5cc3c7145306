package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BiradarScripts/Djaan/internal/models"
)

const busyTimeoutMillis = 5000

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMillis))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; concurrent indexer upserts queue behind the busy timeout.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		filename TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		cleaned_text TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_doc_id ON documents(doc_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addColumnIfMissing(db, "documents", "model", "TEXT NOT NULL DEFAULT ''")
}

// addColumnIfMissing adds column to tables created before it was part of the schema.
func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			rows.Close()
			return err
		}
		if name == column {
			found = true
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil || found {
		return err
	}
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// GetDocument returns the record stored for filename.
func (s *SQLiteStore) GetDocument(ctx context.Context, filename string) (*models.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filename, doc_id, content_hash, embedding, model, cleaned_text, updated_at
		 FROM documents WHERE filename = ?`, filename,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpsertDocument writes rec. On conflict every column except doc_id is replaced.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, rec *models.DocumentRecord) error {
	if rec.Filename == "" {
		return errors.New("upsert: empty filename")
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("upsert %s: empty embedding", rec.Filename)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, doc_id, content_hash, embedding, dimensions, model, cleaned_text, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			model = excluded.model,
			cleaned_text = excluded.cleaned_text,
			updated_at = excluded.updated_at`,
		rec.Filename, rec.DocID, rec.ContentHash, EncodeEmbedding(rec.Embedding),
		len(rec.Embedding), rec.Model, rec.CleanedText, rec.UpdatedAt.UTC(),
	)
	return err
}

// ListDocuments returns all records ordered by filename.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*models.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, doc_id, content_hash, embedding, model, cleaned_text, updated_at
		 FROM documents ORDER BY filename`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteDocument removes the record for filename. Deleting a missing record is not an error.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE filename = ?`, filename)
	return err
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	var blob []byte
	if err := sc.Scan(&rec.Filename, &rec.DocID, &rec.ContentHash, &blob, &rec.Model, &rec.CleanedText, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	vec, err := DecodeEmbedding(blob)
	if err != nil {
		return nil, fmt.Errorf("decode embedding for %s: %w", rec.Filename, err)
	}
	rec.Embedding = vec
	return &rec, nil
}
