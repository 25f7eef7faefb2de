// Package extract turns the extracted text of a university training regulation
// into retrieval-ready chunks.
//
// The document hierarchy is Chương (chapter) → Điều (article) → Khoản (clause)
// → Điểm (point). Articles are recovered with pattern matching, split into
// clauses, and long clauses are split further into points. Every chunk carries
// derived metadata: topic keywords, audience, table presence and
// cross-references.
package extract

import "fmt"

// ChunkType distinguishes canned table chunks from hierarchy chunks.
type ChunkType string

const (
	// ChunkTypeTable marks a chunk emitted by the SpecialTableExtractor.
	ChunkTypeTable ChunkType = "table"
)

// UnknownChapter is returned when no chapter range covers an article number.
const UnknownChapter = "Unknown"

// Chunk is one retrieval unit: a self-contained text plus its metadata.
// Chunks are built once and never modified afterwards.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Metadata holds the structured attributes of a chunk. Keys that do not apply
// to a chunk are omitted from the serialized form.
type Metadata struct {
	Type      ChunkType `json:"type,omitempty"`
	TableName string    `json:"table_name,omitempty"`

	// Dieu is the article number.
	Dieu int `json:"dieu,omitempty"`
	// Khoan is the clause number.
	Khoan int `json:"khoan,omitempty"`
	// Diem is the point letter.
	Diem string `json:"diem,omitempty"`
	// Chuong is the chapter label.
	Chuong string `json:"chuong,omitempty"`
	Title  string `json:"title,omitempty"`

	Keywords   []string `json:"keywords"`
	AppliesTo  []string `json:"applies_to,omitempty"`
	HasTable   string   `json:"has_table,omitempty"`
	References []string `json:"references,omitempty"`
}

// IsTable reports whether the chunk is a canned table chunk.
func (c Chunk) IsTable() bool {
	return c.Metadata.Type == ChunkTypeTable
}

// Location renders the hierarchy position of a chunk, e.g. "Điều 5, Khoản 6".
func (c Chunk) Location() string {
	m := c.Metadata
	if m.Dieu == 0 {
		return c.ID
	}
	loc := fmt.Sprintf("Điều %d", m.Dieu)
	if m.Khoan != 0 {
		loc += fmt.Sprintf(", Khoản %d", m.Khoan)
	}
	if m.Diem != "" {
		loc += fmt.Sprintf(", Điểm %s", m.Diem)
	}
	return loc
}

func articleID(article int) string {
	return fmt.Sprintf("d%d", article)
}

func clauseID(article int, clause string) string {
	return fmt.Sprintf("d%d_k%s", article, clause)
}

func pointID(article int, clause, point string) string {
	return fmt.Sprintf("d%d_k%s_p%s", article, clause, point)
}
