package extract

// Pipeline runs the hierarchical chunker and the special table extractor
// over one document.
type Pipeline struct {
	Chunker *Chunker
	Tables  *SpecialTableExtractor
}

// Result is the output of one pipeline run.
type Result struct {
	// Chunks holds hierarchy chunks in document order followed by table chunks.
	Chunks []Chunk
	Report Report
	Stats  Stats
}

// NewPipeline creates a pipeline over taxonomy with the given chunker options.
func NewPipeline(taxonomy *Taxonomy, opts ...Option) *Pipeline {
	return &Pipeline{
		Chunker: NewChunker(taxonomy, opts...),
		Tables:  NewSpecialTableExtractor(),
	}
}

// Run chunks text and aggregates the statistics of the combined output.
func (p *Pipeline) Run(text string) Result {
	chunks, report := p.Chunker.Chunk(text)
	chunks = append(chunks, p.Tables.Extract(text)...)
	return Result{
		Chunks: chunks,
		Report: report,
		Stats:  Aggregate(chunks),
	}
}
