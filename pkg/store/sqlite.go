package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hoainam183/GR/pkg/extract"
)

// ErrRunNotFound is returned when a run id is not present in the index.
var ErrRunNotFound = errors.New("store: run not found")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	document     TEXT NOT NULL,
	version      TEXT NOT NULL,
	total_chunks INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	dieu       INTEGER,
	khoan      INTEGER,
	diem       TEXT,
	chuong     TEXT,
	chunk_type TEXT,
	metadata   TEXT NOT NULL,
	PRIMARY KEY (run_id, id)
);
CREATE INDEX IF NOT EXISTS idx_chunks_location ON chunks(run_id, dieu, khoan);
`

// SQLiteIndex stores chunk sets in a SQLite database so they can be filtered
// by article, clause or chapter without loading the whole JSON file.
type SQLiteIndex struct {
	db    *sql.DB
	newID func() string
}

// OpenSQLite opens (creating if needed) the index database at path.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &SQLiteIndex{db: db, newID: func() string { return uuid.NewString() }}, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Save inserts one run and all its chunks in a single transaction and
// returns the run id.
func (s *SQLiteIndex) Save(ctx context.Context, info DocumentInfo, chunks []extract.Chunk) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	runID := s.newID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, document, version, total_chunks, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, info.Document, info.Version, len(chunks), info.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (run_id, seq, id, text, dieu, khoan, diem, chuong, chunk_type, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			return "", fmt.Errorf("encoding metadata of %s: %w", ch.ID, err)
		}
		m := ch.Metadata
		_, err = stmt.ExecContext(ctx,
			runID, i, ch.ID, ch.Text,
			nullInt(m.Dieu), nullInt(m.Khoan), nullString(m.Diem), nullString(m.Chuong), nullString(string(m.Type)),
			string(meta),
		)
		if err != nil {
			return "", fmt.Errorf("inserting chunk %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Run returns the document info of a saved run.
func (s *SQLiteIndex) Run(ctx context.Context, runID string) (*DocumentInfo, error) {
	var info DocumentInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT document, version, total_chunks, created_at FROM runs WHERE id = ?`, runID,
	).Scan(&info.Document, &info.Version, &info.TotalChunks, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	return &info, nil
}

// Chunks returns every chunk of a run in saved order.
func (s *SQLiteIndex) Chunks(ctx context.Context, runID string) ([]extract.Chunk, error) {
	return s.query(ctx, `SELECT id, text, metadata FROM chunks WHERE run_id = ? ORDER BY seq`, runID)
}

// ByArticle returns the chunks of one article, in saved order.
func (s *SQLiteIndex) ByArticle(ctx context.Context, runID string, dieu int) ([]extract.Chunk, error) {
	return s.query(ctx, `SELECT id, text, metadata FROM chunks WHERE run_id = ? AND dieu = ? ORDER BY seq`, runID, dieu)
}

// ByChapter returns the chunks of one chapter, in saved order.
func (s *SQLiteIndex) ByChapter(ctx context.Context, runID, chuong string) ([]extract.Chunk, error) {
	return s.query(ctx, `SELECT id, text, metadata FROM chunks WHERE run_id = ? AND chuong = ? ORDER BY seq`, runID, chuong)
}

func (s *SQLiteIndex) query(ctx context.Context, query string, args ...interface{}) ([]extract.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []extract.Chunk
	for rows.Next() {
		var ch extract.Chunk
		var meta string
		if err := rows.Scan(&ch.ID, &ch.Text, &meta); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &ch.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", ch.ID, err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
