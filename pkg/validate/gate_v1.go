package validate

import (
	"time"

	"github.com/hoainam183/GR/pkg/extract"
)

// StructureGate (V1) validates the article and clause structure found by
// the chunker. Runs after chunking.
type StructureGate struct{}

// NewStructureGate creates a new V1 structure validation gate.
func NewStructureGate() *StructureGate {
	return &StructureGate{}
}

// Name returns "V1".
func (structureGate *StructureGate) Name() string { return "V1" }

// Thresholds returns the default thresholds for structure validation metrics.
func (structureGate *StructureGate) Thresholds() map[string]float64 {
	return map[string]float64{
		"has_articles":      1.0,
		"header_parse_rate": 0.95,
		"chapter_coverage":  0.90,
		"clause_split_rate": 0.50,
	}
}

// Run validates that articles were found, parsed and placed in chapters.
func (structureGate *StructureGate) Run(ctx *ValidationContext) *GateResult {
	startTime := time.Now()

	gateResult := &GateResult{
		Gate:     structureGate.Name(),
		Metrics:  make(map[string]float64),
		Warnings: make([]GateWarning, 0),
		Errors:   make([]GateError, 0),
	}

	if ctx.Result == nil {
		gateResult.Metrics["has_articles"] = 0.0
		gateResult.Metrics["header_parse_rate"] = 0.0
		gateResult.Metrics["chapter_coverage"] = 0.0
		gateResult.Metrics["clause_split_rate"] = 0.0
		evaluateMetrics(gateResult, ctx.Config, structureGate)
		gateResult.Duration = time.Since(startTime)
		return gateResult
	}

	report := ctx.Result.Report

	gateResult.Metrics["has_articles"] = boolMetric(report.Articles > 0)

	// header_parse_rate: article headers whose number could be read.
	gateResult.Metrics["header_parse_rate"] = ratioMetric(report.Articles, report.Articles+report.SkippedArticles)

	// chapter_coverage: hierarchy chunks that resolved to a known chapter.
	hierarchyChunks, inChapter := 0, 0
	for _, chunk := range ctx.Result.Chunks {
		if chunk.IsTable() {
			continue
		}
		hierarchyChunks++
		if chunk.Metadata.Chuong != extract.UnknownChapter {
			inChapter++
		}
	}
	gateResult.Metrics["chapter_coverage"] = ratioMetric(inChapter, hierarchyChunks)

	// clause_split_rate: articles that were divided into clauses. A low rate
	// usually means the clause markers were lost in extraction.
	gateResult.Metrics["clause_split_rate"] = ratioMetric(report.Articles-report.ArticlesWithoutClauses, report.Articles)

	evaluateMetrics(gateResult, ctx.Config, structureGate)
	gateResult.Duration = time.Since(startTime)
	return gateResult
}
