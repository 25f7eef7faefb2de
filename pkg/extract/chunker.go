package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultPointSplitThreshold is the clause length, in characters, above which
// a clause with point markers is split into one chunk per point.
const DefaultPointSplitThreshold = 5000

// Report counts what the chunker did with one document. Large numbers of
// clause-less articles or skipped headers usually mean the source text is
// formatted differently than expected.
type Report struct {
	Articles               int `json:"articles"`
	ArticlesWithoutClauses int `json:"articles_without_clauses"`
	SkippedArticles        int `json:"skipped_articles"`
	Clauses                int `json:"clauses"`
	SplitClauses           int `json:"split_clauses"`
	EmbeddedPointClauses   int `json:"embedded_point_clauses"`
	PointChunks            int `json:"point_chunks"`
	DuplicateIDs           int `json:"duplicate_ids"`
}

// Chunker splits a regulation into chunks following its article, clause and
// point structure, and tags every chunk it produces.
type Chunker struct {
	segmenter  *Segmenter
	chapters   *ChapterResolver
	keywords   *KeywordTagger
	audiences  *AudienceClassifier
	tables     *TableDetector
	references *ReferenceExtractor

	pointSplitThreshold int
	logger              zerolog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets the logger used to report pattern fallthroughs.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// WithPointSplitThreshold overrides DefaultPointSplitThreshold.
func WithPointSplitThreshold(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.pointSplitThreshold = n
		}
	}
}

// NewChunker creates a Chunker using the lookup tables of taxonomy. A nil
// taxonomy selects DefaultTaxonomy.
func NewChunker(taxonomy *Taxonomy, opts ...Option) *Chunker {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	c := &Chunker{
		segmenter:           NewSegmenter(),
		chapters:            NewChapterResolver(taxonomy.Chapters),
		keywords:            NewKeywordTagger(taxonomy.Keywords),
		audiences:           NewAudienceClassifier(taxonomy.Audiences, taxonomy.DefaultAudience),
		tables:              NewTableDetector(taxonomy.Tables),
		references:          NewReferenceExtractor(),
		pointSplitThreshold: DefaultPointSplitThreshold,
		logger:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into chunks in document order. Structure that the
// patterns do not recognise produces fewer chunks rather than an error.
func (c *Chunker) Chunk(text string) ([]Chunk, Report) {
	var report Report
	articles, skipped := c.segmenter.Articles(text)
	report.SkippedArticles = skipped
	if skipped > 0 {
		c.logger.Debug().Int("count", skipped).Msg("article headers with unparseable numbers skipped")
	}

	chunks := make([]Chunk, 0, len(articles))
	for _, article := range articles {
		report.Articles++
		chunks = append(chunks, c.chunkArticle(article, &report)...)
	}

	chunks = c.uniqueIDs(chunks, &report)
	return chunks, report
}

func (c *Chunker) chunkArticle(article ArticleSegment, report *Report) []Chunk {
	chapter := c.chapters.ChapterFor(article.Number)
	if chapter == UnknownChapter {
		c.logger.Debug().Int("dieu", article.Number).Msg("article outside known chapter ranges")
	}

	clauses := c.segmenter.Clauses(article.Body)
	if len(clauses) == 0 {
		report.ArticlesWithoutClauses++
		c.logger.Debug().Int("dieu", article.Number).Msg("no clause markers, chunking whole article")

		text := fmt.Sprintf("Điều %d: %s\n%s\n\n[Chương: %s]",
			article.Number, article.Title, article.Body, chapter)
		meta := Metadata{Dieu: article.Number, Chuong: chapter, Title: article.Title}
		return []Chunk{c.build(articleID(article.Number), text, meta)}
	}

	var chunks []Chunk
	for _, clause := range clauses {
		report.Clauses++
		chunks = append(chunks, c.chunkClause(article, chapter, clause, report)...)
	}
	return chunks
}

func (c *Chunker) chunkClause(article ArticleSegment, chapter string, clause ClauseSegment, report *Report) []Chunk {
	lead, points := c.segmenter.Points(clause.Text)
	long := utf8.RuneCountInString(clause.Text) > c.pointSplitThreshold

	if len(points) > 0 && long {
		report.SplitClauses++
		chunks := make([]Chunk, 0, len(points))
		for _, point := range points {
			report.PointChunks++
			chunks = append(chunks, c.chunkPoint(article, chapter, clause, lead, point))
		}
		return chunks
	}

	if len(points) > 0 {
		report.EmbeddedPointClauses++
		c.logger.Debug().
			Int("dieu", article.Number).
			Str("khoan", clause.Label).
			Int("points", len(points)).
			Msg("clause below split threshold, points kept embedded")
	}

	text := fmt.Sprintf("Điều %d: %s\nKhoản %s:\n%s\n\n[Chương: %s]",
		article.Number, article.Title, clause.Label, clause.Text, chapter)
	meta := Metadata{Dieu: article.Number, Khoan: clause.Number, Chuong: chapter, Title: article.Title}
	return []Chunk{c.build(clauseID(article.Number, clause.Label), text, meta)}
}

// chunkPoint repeats the clause lead text in every point chunk so that it is
// kept and tagged.
func (c *Chunker) chunkPoint(article ArticleSegment, chapter string, clause ClauseSegment, lead string, point PointSegment) Chunk {
	body := point.Text
	if lead != "" {
		body = lead + "\n" + point.Text
	}
	text := fmt.Sprintf("Điều %d: %s\nKhoản %s, Điểm %s:\n%s\n\n[Chương: %s]",
		article.Number, article.Title, clause.Label, point.Letter, body, chapter)
	meta := Metadata{
		Dieu:   article.Number,
		Khoan:  clause.Number,
		Diem:   point.Letter,
		Chuong: chapter,
		Title:  article.Title,
	}
	return c.build(pointID(article.Number, clause.Label, point.Letter), text, meta)
}

// build tags the fully rendered text, header and footer included.
func (c *Chunker) build(id, text string, meta Metadata) Chunk {
	meta.Keywords = c.keywords.Tag(text)
	meta.AppliesTo = c.audiences.Classify(text)
	meta.HasTable = c.tables.Detect(text)
	if refs := c.references.Extract(text); len(refs) > 0 {
		meta.References = refs
	}
	return Chunk{ID: id, Text: text, Metadata: meta}
}

// uniqueIDs suffixes repeated ids with _2, _3, ... in document order.
func (c *Chunker) uniqueIDs(chunks []Chunk, report *Report) []Chunk {
	seen := make(map[string]int)
	used := make(map[string]bool, len(chunks))
	for i := range chunks {
		id := chunks[i].ID
		if !used[id] {
			used[id] = true
			continue
		}
		n := seen[id] + 1
		candidate := id
		for used[candidate] {
			n++
			candidate = fmt.Sprintf("%s_%d", id, n)
		}
		seen[id] = n
		used[candidate] = true
		report.DuplicateIDs++
		c.logger.Debug().Str("id", id).Str("renamed", candidate).Msg("duplicate chunk id")
		chunks[i].ID = candidate
	}
	return chunks
}
