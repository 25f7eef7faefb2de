package validate

import (
	"strings"
	"time"
)

// TaggingGate (V2) validates chunk ids and tags. Runs after chunking.
type TaggingGate struct{}

// NewTaggingGate creates a new V2 tagging validation gate.
func NewTaggingGate() *TaggingGate {
	return &TaggingGate{}
}

// Name returns "V2".
func (taggingGate *TaggingGate) Name() string { return "V2" }

// Thresholds returns the default thresholds for tagging validation metrics.
func (taggingGate *TaggingGate) Thresholds() map[string]float64 {
	return map[string]float64{
		"id_uniqueness":      0.95,
		"keyword_coverage":   0.50,
		"chunk_completeness": 1.0,
	}
}

// Run validates that chunk ids rarely needed disambiguation and that chunks
// carry text, an audience and keywords.
func (taggingGate *TaggingGate) Run(ctx *ValidationContext) *GateResult {
	startTime := time.Now()

	gateResult := &GateResult{
		Gate:     taggingGate.Name(),
		Metrics:  make(map[string]float64),
		Warnings: make([]GateWarning, 0),
		Errors:   make([]GateError, 0),
	}

	if ctx.Result == nil || len(ctx.Result.Chunks) == 0 {
		gateResult.Metrics["id_uniqueness"] = 0.0
		gateResult.Metrics["keyword_coverage"] = 0.0
		gateResult.Metrics["chunk_completeness"] = 0.0
		evaluateMetrics(gateResult, ctx.Config, taggingGate)
		gateResult.Duration = time.Since(startTime)
		return gateResult
	}

	chunks := ctx.Result.Chunks
	total := len(chunks)

	// id_uniqueness: ids that needed no _N suffix.
	gateResult.Metrics["id_uniqueness"] = ratioMetric(total-ctx.Result.Report.DuplicateIDs, total)

	withKeywords, complete := 0, 0
	for _, chunk := range chunks {
		if len(chunk.Metadata.Keywords) > 0 {
			withKeywords++
		}
		if chunk.ID != "" && strings.TrimSpace(chunk.Text) != "" && len(chunk.Metadata.AppliesTo) > 0 {
			complete++
		}
	}
	gateResult.Metrics["keyword_coverage"] = ratioMetric(withKeywords, total)
	gateResult.Metrics["chunk_completeness"] = ratioMetric(complete, total)

	evaluateMetrics(gateResult, ctx.Config, taggingGate)
	gateResult.Duration = time.Since(startTime)
	return gateResult
}
