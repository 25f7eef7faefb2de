// Package store persists chunk sets produced by the extract package.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hoainam183/GR/pkg/extract"
)

// Default document identity written into the envelope.
const (
	DefaultDocument = "Quy chế đào tạo ĐHBK Hà Nội"
	DefaultVersion  = "QĐ 4600/QĐ-ĐHBK ngày 09/06/2023"
)

// ErrEmptyPath is returned when no output path is given.
var ErrEmptyPath = errors.New("store: empty path")

// DocumentInfo is the document-level metadata of a saved chunk set.
type DocumentInfo struct {
	Document    string `json:"document"`
	Version     string `json:"version"`
	TotalChunks int    `json:"total_chunks"`
	CreatedAt   string `json:"created_at"`
}

// Envelope is the on-disk layout of a chunk file.
type Envelope struct {
	Metadata DocumentInfo    `json:"metadata"`
	Chunks   []extract.Chunk `json:"chunks"`
}

// JSONStore writes chunk sets as an indented UTF-8 JSON envelope.
type JSONStore struct {
	document string
	version  string
	now      func() time.Time
}

// NewJSONStore creates a store that stamps files with document and version.
func NewJSONStore(document, version string) *JSONStore {
	return &JSONStore{
		document: document,
		version:  version,
		now:      time.Now,
	}
}

// Envelope builds the envelope for chunks without writing it.
func (s *JSONStore) Envelope(chunks []extract.Chunk) *Envelope {
	if chunks == nil {
		chunks = []extract.Chunk{}
	}
	return &Envelope{
		Metadata: DocumentInfo{
			Document:    s.document,
			Version:     s.version,
			TotalChunks: len(chunks),
			CreatedAt:   s.now().Format(time.RFC3339),
		},
		Chunks: chunks,
	}
}

// Save writes chunks to path. The file is written to a temporary sibling,
// synced and renamed into place, so path is either left untouched or holds
// the complete envelope.
func (s *JSONStore) Save(chunks []extract.Chunk, path string) (*Envelope, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	env := s.Envelope(chunks)
	data, err := encode(env)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}
	return env, nil
}

// Load reads a chunk file written by Save.
func Load(path string) (*Envelope, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk file: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding chunk file %s: %w", path, err)
	}
	if env.Metadata.TotalChunks != len(env.Chunks) {
		return nil, fmt.Errorf("chunk file %s: header declares %d chunks, found %d",
			path, env.Metadata.TotalChunks, len(env.Chunks))
	}
	return &env, nil
}

// encode renders env without HTML escaping; non-ASCII text is kept verbatim.
func encode(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("encoding chunks: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
