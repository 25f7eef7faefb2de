// Package validate scores a chunking run at its stages so that input drift
// (a differently formatted PDF, a broken text layer) is caught before the
// chunks are indexed.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hoainam183/GR/pkg/extract"
)

// ValidationGate represents a checkpoint in the chunking pipeline. Each gate
// scores stage-specific metrics against configurable thresholds.
type ValidationGate interface {
	// Name returns the unique identifier for this gate (e.g., "V0", "V1", "V2").
	Name() string

	// Run executes the gate's validation logic against the provided context.
	Run(ctx *ValidationContext) *GateResult

	// Thresholds returns the default thresholds for this gate's metrics.
	// Keys are metric names, values are minimum acceptable scores (0.0-1.0).
	Thresholds() map[string]float64
}

// ValidationContext provides the data available to a gate at a given stage.
// Result is nil until the document has been chunked.
type ValidationContext struct {
	// SourcePath is the path to the source file (V0+).
	SourcePath string

	// SourceSize is the file size in bytes (V0+).
	SourceSize int64

	// Text is the extracted document text (V0+).
	Text string

	// Result is the chunking output (V1+).
	Result *extract.Result

	// Config holds user-provided thresholds and behavior flags.
	Config *ValidationConfig
}

// ValidationConfig holds user-configurable settings for gate execution.
type ValidationConfig struct {
	// Thresholds overrides per-gate metric thresholds.
	// Key format: "GateName.MetricName" (e.g., "V0.has_text", "V2.keyword_coverage").
	Thresholds map[string]float64

	// SkipGates lists gate names to skip entirely (e.g., ["V0", "V2"]).
	SkipGates []string

	// StrictMode causes the pipeline to halt on gate failure.
	StrictMode bool

	// FailOnWarn causes the pipeline to halt on any warning.
	FailOnWarn bool
}

// DefaultValidationConfig returns a config that runs every gate with its
// default thresholds.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{Thresholds: map[string]float64{}}
}

// ParseThresholds reads "Gate.metric=value" pairs, such as
// "V1.chapter_coverage=0.8", into a Thresholds map.
func ParseThresholds(pairs []string) (map[string]float64, error) {
	thresholds := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		gate, metric, dotted := strings.Cut(key, ".")
		if !ok || !dotted || gate == "" || metric == "" {
			return nil, fmt.Errorf("threshold %q: expected Gate.metric=value", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || value < 0 || value > 1 {
			return nil, fmt.Errorf("threshold %q: value must be a number between 0 and 1", pair)
		}
		thresholds[strings.ToUpper(gate)+"."+metric] = value
	}
	return thresholds, nil
}

// GateResult captures the outcome of a single gate execution.
type GateResult struct {
	Gate       string             `json:"gate"`
	Passed     bool               `json:"passed"`
	Score      float64            `json:"score"`
	Metrics    map[string]float64 `json:"metrics"`
	Warnings   []GateWarning      `json:"warnings,omitempty"`
	Errors     []GateError        `json:"errors,omitempty"`
	Duration   time.Duration      `json:"duration"`
	Skipped    bool               `json:"skipped,omitempty"`
	SkipReason string             `json:"skip_reason,omitempty"`
}

// GateWarning represents a non-fatal issue detected by a gate.
type GateWarning struct {
	Metric  string  `json:"metric"`
	Message string  `json:"message"`
	Value   float64 `json:"value,omitempty"`
}

// GateError represents a fatal issue detected by a gate.
type GateError struct {
	Metric  string  `json:"metric"`
	Message string  `json:"message"`
	Value   float64 `json:"value,omitempty"`
}

// GateReport aggregates results from all gates in a pipeline run.
type GateReport struct {
	Results      []*GateResult `json:"results"`
	OverallPass  bool          `json:"overall_pass"`
	TotalScore   float64       `json:"total_score"`
	GatesPassed  int           `json:"gates_passed"`
	GatesFailed  int           `json:"gates_failed"`
	GatesSkipped int           `json:"gates_skipped"`
	Duration     time.Duration `json:"duration"`
	HaltedAt     string        `json:"halted_at,omitempty"`
}

// NewGateReport returns an empty report. It passes until a failing result
// is added.
func NewGateReport() *GateReport {
	return &GateReport{Results: make([]*GateResult, 0, 3), OverallPass: true}
}

// Add records one gate result and reports whether a run configured by config
// must stop after it: on a failure in strict mode, or on any warning with
// FailOnWarn.
func (gateReport *GateReport) Add(result *GateResult, config *ValidationConfig) (halt bool) {
	gateReport.Results = append(gateReport.Results, result)
	switch {
	case result.Skipped:
		gateReport.GatesSkipped++
		return false
	case result.Passed:
		gateReport.GatesPassed++
	default:
		gateReport.GatesFailed++
		gateReport.OverallPass = false
		halt = config != nil && config.StrictMode
	}
	if config != nil && config.FailOnWarn && len(result.Warnings) > 0 {
		gateReport.OverallPass = false
		halt = true
	}
	if halt {
		gateReport.HaltedAt = result.Gate
	}
	return halt
}

// Finish sets the total score to the mean of the gates that ran and the
// duration to the time since started.
func (gateReport *GateReport) Finish(started time.Time) {
	var sum float64
	var scored int
	for _, result := range gateReport.Results {
		if result.Skipped {
			continue
		}
		sum += result.Score
		scored++
	}
	if scored > 0 {
		gateReport.TotalScore = sum / float64(scored)
	}
	gateReport.Duration = time.Since(started)
}

// ToJSON serializes the gate report as indented JSON.
func (gateReport *GateReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(gateReport, "", "  ")
}

// Status is PASS, FAIL or SKIP.
func (result *GateResult) Status() string {
	switch {
	case result.Skipped:
		return "SKIP"
	case result.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

// String renders the report as plain text, one block per gate.
func (gateReport *GateReport) String() string {
	var b strings.Builder
	b.WriteString("Validation gates\n\n")

	for _, result := range gateReport.Results {
		fmt.Fprintf(&b, "%s %s  score %.1f%%  (%v)\n",
			result.Gate, result.Status(), result.Score*100, result.Duration.Round(time.Microsecond))
		if result.Skipped {
			fmt.Fprintf(&b, "    %s\n", result.SkipReason)
		}
		for _, name := range sortedMetricNames(result.Metrics) {
			fmt.Fprintf(&b, "    %-20s %6.1f%%\n", name, result.Metrics[name]*100)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "    WARNING [%s]: %s\n", w.Metric, w.Message)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "    ERROR [%s]: %s\n", e.Metric, e.Message)
		}
		b.WriteString("\n")
	}

	status := "PASS"
	if !gateReport.OverallPass {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Result: %s (%d passed, %d failed, %d skipped), score %.1f%%\n",
		status, gateReport.GatesPassed, gateReport.GatesFailed, gateReport.GatesSkipped, gateReport.TotalScore*100)
	if gateReport.HaltedAt != "" {
		fmt.Fprintf(&b, "Halted at: %s\n", gateReport.HaltedAt)
	}
	return b.String()
}

// GatePipeline executes validation gates in sequence.
type GatePipeline struct {
	gates  []ValidationGate
	config *ValidationConfig
}

// NewGatePipeline creates a pipeline. A nil config selects
// DefaultValidationConfig.
func NewGatePipeline(config *ValidationConfig) *GatePipeline {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &GatePipeline{config: config}
}

// RegisterGate adds a gate to the pipeline. Gates execute in registration order.
func (gatePipeline *GatePipeline) RegisterGate(gate ValidationGate) {
	gatePipeline.gates = append(gatePipeline.gates, gate)
}

// RegisterDefaultGates registers the three standard gates (V0-V2).
func (gatePipeline *GatePipeline) RegisterDefaultGates() {
	gatePipeline.RegisterGate(NewSourceGate())
	gatePipeline.RegisterGate(NewStructureGate())
	gatePipeline.RegisterGate(NewTaggingGate())
}

// Run executes every registered gate in order and stops early as
// GateReport.Add decides.
func (gatePipeline *GatePipeline) Run(ctx *ValidationContext) *GateReport {
	started := time.Now()
	report := NewGateReport()
	for _, gate := range gatePipeline.gates {
		if report.Add(gatePipeline.RunGate(gate.Name(), ctx), gatePipeline.config) {
			break
		}
	}
	report.Finish(started)
	return report
}

// RunGate executes one named gate, for callers that check each stage as soon
// as its data exists. A skipped gate yields a skip result; an unknown gate
// yields nil.
func (gatePipeline *GatePipeline) RunGate(gateName string, ctx *ValidationContext) *GateResult {
	if ctx.Config == nil {
		ctx.Config = gatePipeline.config
	}
	if gatePipeline.isGateSkipped(gateName) {
		return &GateResult{
			Gate:       gateName,
			Skipped:    true,
			SkipReason: "skipped by configuration",
			Metrics:    make(map[string]float64),
		}
	}

	for _, gate := range gatePipeline.gates {
		if gate.Name() == gateName {
			return gate.Run(ctx)
		}
	}

	return nil
}

// isGateSkipped checks if a gate should be skipped per configuration.
func (gatePipeline *GatePipeline) isGateSkipped(gateName string) bool {
	for _, skipName := range gatePipeline.config.SkipGates {
		if strings.EqualFold(skipName, gateName) {
			return true
		}
	}
	return false
}

// effectiveThreshold returns the threshold for a metric, checking config overrides
// first, then falling back to the gate's default thresholds.
func effectiveThreshold(config *ValidationConfig, gate ValidationGate, metricName string) float64 {
	if config != nil && config.Thresholds != nil {
		configKey := gate.Name() + "." + metricName
		if threshold, exists := config.Thresholds[configKey]; exists {
			return threshold
		}
	}
	defaults := gate.Thresholds()
	if threshold, exists := defaults[metricName]; exists {
		return threshold
	}
	return 0.80
}

// evaluateMetrics is a helper that computes the gate score and populates
// warnings/errors based on metrics vs thresholds.
func evaluateMetrics(gateResult *GateResult, config *ValidationConfig, gate ValidationGate) {
	metricCount := len(gateResult.Metrics)
	if metricCount == 0 {
		gateResult.Score = 1.0
		gateResult.Passed = true
		return
	}

	totalScore := 0.0
	allPassed := true

	for _, metricName := range sortedMetricNames(gateResult.Metrics) {
		metricValue := gateResult.Metrics[metricName]
		threshold := effectiveThreshold(config, gate, metricName)
		totalScore += metricValue

		if metricValue < threshold {
			allPassed = false
			gateResult.Errors = append(gateResult.Errors, GateError{
				Metric:  metricName,
				Message: fmt.Sprintf("%s (%.1f%%) below threshold (%.1f%%)", metricName, metricValue*100, threshold*100),
				Value:   metricValue,
			})
		} else if metricValue < 1.0 && metricValue < threshold*1.1 {
			// Within 10% of threshold: warn.
			gateResult.Warnings = append(gateResult.Warnings, GateWarning{
				Metric:  metricName,
				Message: fmt.Sprintf("%s (%.1f%%) close to threshold (%.1f%%)", metricName, metricValue*100, threshold*100),
				Value:   metricValue,
			})
		}
	}

	gateResult.Score = totalScore / float64(metricCount)
	gateResult.Passed = allPassed
}

func sortedMetricNames(metrics map[string]float64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func boolMetric(ok bool) float64 {
	if ok {
		return 1.0
	}
	return 0.0
}

// ratioMetric returns part/whole, or 1.0 when whole is zero.
func ratioMetric(part, whole int) float64 {
	if whole == 0 {
		return 1.0
	}
	return float64(part) / float64(whole)
}
