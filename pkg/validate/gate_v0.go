package validate

import (
	"regexp"
	"strings"
	"time"
)

// maxFileSizeBytes is the maximum expected source size (50 MB).
const maxFileSizeBytes = 50 * 1024 * 1024

var (
	articleHeaderPattern = regexp.MustCompile(`(?i)Điều\s+\d+\.`)

	// vietnameseLetterPattern matches letters that only occur in Vietnamese
	// text. Their absence usually means a broken PDF text layer.
	vietnameseLetterPattern = regexp.MustCompile(`[đĐưƯơƠăĂ]`)
)

// SourceGate (V0) validates the source file and its extracted text.
// Runs after text extraction, before chunking.
type SourceGate struct{}

// NewSourceGate creates a new V0 source validation gate.
func NewSourceGate() *SourceGate {
	return &SourceGate{}
}

// Name returns "V0".
func (sourceGate *SourceGate) Name() string { return "V0" }

// Thresholds returns the default thresholds for source validation metrics.
func (sourceGate *SourceGate) Thresholds() map[string]float64 {
	return map[string]float64{
		"file_size":       1.0,
		"has_text":        1.0,
		"article_headers": 1.0,
		"vietnamese_text": 1.0,
	}
}

// Run validates the source is within size limits and its text looks like a
// Vietnamese regulation.
func (sourceGate *SourceGate) Run(ctx *ValidationContext) *GateResult {
	startTime := time.Now()

	gateResult := &GateResult{
		Gate:     sourceGate.Name(),
		Metrics:  make(map[string]float64),
		Warnings: make([]GateWarning, 0),
		Errors:   make([]GateError, 0),
	}

	// file_size: only checked when a source file is known.
	if ctx.SourcePath != "" {
		gateResult.Metrics["file_size"] = boolMetric(ctx.SourceSize > 0 && ctx.SourceSize <= maxFileSizeBytes)
		if ctx.SourceSize > maxFileSizeBytes {
			gateResult.Warnings = append(gateResult.Warnings, GateWarning{
				Metric:  "file_size",
				Message: "file exceeds 50 MB size limit",
				Value:   float64(ctx.SourceSize),
			})
		}
	}

	gateResult.Metrics["has_text"] = boolMetric(strings.TrimSpace(ctx.Text) != "")
	gateResult.Metrics["article_headers"] = boolMetric(articleHeaderPattern.MatchString(ctx.Text))
	gateResult.Metrics["vietnamese_text"] = boolMetric(vietnameseLetterPattern.MatchString(ctx.Text))

	evaluateMetrics(gateResult, ctx.Config, sourceGate)
	gateResult.Duration = time.Since(startTime)
	return gateResult
}
