package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoainam183/GR/pkg/config"
	"github.com/hoainam183/GR/pkg/extract"
	"github.com/hoainam183/GR/pkg/logging"
	"github.com/hoainam183/GR/pkg/pdftext"
	"github.com/hoainam183/GR/pkg/store"
	"github.com/hoainam183/GR/pkg/validate"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quyche",
		Short: "Chunk Vietnamese training regulations for retrieval",
		Long: `Quyche turns a Vietnamese university training regulation into
retrieval-ready chunks.

It splits the document along its Điều / Khoản / Điểm structure and tags
every chunk with:
  - the chapter (Chương) it belongs to
  - topic keywords
  - the audiences it applies to
  - embedded tables and cross-references`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(chunkCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(datasetCmd())
	return rootCmd
}

func chunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Chunk a regulation document",
		Long: `Chunk a regulation document and write the chunks as JSON.

Supported formats: PDF (text layer), TXT

Example:
  quyche chunk --source QCDT-2023-upload.pdf
  quyche chunk --source quy_che.txt --output chunks.json --sqlite chunks.db --stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			configPath, _ := cmd.Flags().GetString("config")
			showStats, _ := cmd.Flags().GetBool("stats")
			samples, _ := cmd.Flags().GetInt("samples")
			enableGates, _ := cmd.Flags().GetBool("gates")
			gateReportPath, _ := cmd.Flags().GetString("gate-report")

			if source == "" {
				return fmt.Errorf("--source flag is required")
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyChunkFlags(cmd, cfg); err != nil {
				return err
			}

			logger := logging.New(cfg.Logging())
			out := newUI(cmd)

			taxonomy, err := cfg.Taxonomy()
			if err != nil {
				return fmt.Errorf("failed to load taxonomy: %w", err)
			}

			out.Info("Chunking regulation from: %s", source)
			startTime := time.Now()

			text, err := readSource(cmd.Context(), source, logger, out)
			if err != nil {
				return err
			}

			// Set up validation gates if enabled.
			var gatePipeline *validate.GatePipeline
			var gateContext *validate.ValidationContext
			var gateReport *validate.GateReport
			gateStart := time.Now()
			if enableGates {
				var gateConfig *validate.ValidationConfig
				gatePipeline, gateConfig, err = newGatePipeline(cmd)
				if err != nil {
					return err
				}
				gateReport = validate.NewGateReport()
				gateContext = &validate.ValidationContext{
					SourcePath: source,
					SourceSize: sourceSize(source),
					Text:       text,
					Config:     gateConfig,
				}
				if err := runGates(out, gatePipeline, gateContext, gateReport, "V0"); err != nil {
					return errors.Join(err, saveGateReport(gateReportPath, gateReport, gateStart))
				}
			}

			pipeline := extract.NewPipeline(taxonomy,
				extract.WithLogger(logger),
				extract.WithPointSplitThreshold(cfg.Chunking.PointSplitThreshold),
			)
			result := pipeline.Run(text)
			logReport(logger, result.Report)

			if gatePipeline != nil {
				gateContext.Result = &result
				err := runGates(out, gatePipeline, gateContext, gateReport, "V1", "V2")
				if err != nil {
					return errors.Join(err, saveGateReport(gateReportPath, gateReport, gateStart))
				}
				if err := saveGateReport(gateReportPath, gateReport, gateStart); err != nil {
					return err
				}
			}

			jsonStore := store.NewJSONStore(cfg.Document.Name, cfg.Document.Version)
			env, err := jsonStore.Save(result.Chunks, cfg.Output.JSONPath)
			if err != nil {
				return fmt.Errorf("failed to save chunks: %w", err)
			}
			out.Success("Saved %d chunks to %s", env.Metadata.TotalChunks, cfg.Output.JSONPath)

			if cfg.Output.SQLitePath != "" {
				runID, err := exportSQLite(cmd.Context(), cfg.Output.SQLitePath, env)
				if err != nil {
					return err
				}
				out.Success("Indexed run %s in %s", runID, cfg.Output.SQLitePath)
			}

			out.Info("Chunking complete in %v", time.Since(startTime).Round(time.Millisecond))

			if showStats {
				printStats(out, result.Stats, 10)
			}
			if samples > 0 {
				printSamples(out, result.Chunks, samples)
			}
			return nil
		},
	}

	cmd.Flags().StringP("source", "s", "", "Source document (.pdf or .txt)")
	cmd.Flags().StringP("output", "o", "", "Output JSON file (default from config: quy_che_rag_data.json)")
	cmd.Flags().String("sqlite", "", "Also index the chunks in this SQLite database")
	cmd.Flags().StringP("config", "c", "", "Config file (YAML)")
	cmd.Flags().Int("threshold", 0, "Clause length above which points become separate chunks")
	cmd.Flags().String("taxonomy", "", "Taxonomy file (YAML) overriding the built-in tables")
	cmd.Flags().Bool("stats", false, "Print chunk statistics")
	cmd.Flags().Int("samples", 0, "Print the first N chunks")
	cmd.Flags().Bool("gates", false, "Run validation gates (V0 source, V1 structure, V2 tagging)")
	cmd.Flags().String("gate-report", "", "Write the gate report to this file (.json, or .txt for text)")
	addGateFlags(cmd)

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Score a regulation with the validation gates",
		Long: `Chunk a regulation in memory and run every validation gate over it:
  V0  source text (size, text layer, article headers)
  V1  structure (articles, chapters, clause splitting)
  V2  tagging (unique ids, keywords, complete chunks)

Nothing is written except the optional report file. The command fails when
the report does not pass.

Example:
  quyche validate --source QCDT-2023-upload.pdf
  quyche validate --source quy_che.txt --gate-threshold V1.chapter_coverage=0.8 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			configPath, _ := cmd.Flags().GetString("config")
			format, _ := cmd.Flags().GetString("format")
			reportPath, _ := cmd.Flags().GetString("report")

			if source == "" {
				return fmt.Errorf("--source flag is required")
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (use text or json)", format)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyChunkFlags(cmd, cfg); err != nil {
				return err
			}
			gatePipeline, gateConfig, err := newGatePipeline(cmd)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Logging())
			out := newUI(cmd)

			taxonomy, err := cfg.Taxonomy()
			if err != nil {
				return fmt.Errorf("failed to load taxonomy: %w", err)
			}
			started := time.Now()
			text, err := readSource(cmd.Context(), source, logger, out)
			if err != nil {
				return err
			}

			result := extract.NewPipeline(taxonomy,
				extract.WithLogger(logger),
				extract.WithPointSplitThreshold(cfg.Chunking.PointSplitThreshold),
			).Run(text)
			logReport(logger, result.Report)

			gateReport := gatePipeline.Run(&validate.ValidationContext{
				SourcePath: source,
				SourceSize: sourceSize(source),
				Text:       text,
				Result:     &result,
				Config:     gateConfig,
			})

			if err := saveGateReport(reportPath, gateReport, started); err != nil {
				return err
			}
			if format == "json" {
				data, err := gateReport.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to serialize gate report: %w", err)
				}
				out.Printf("%s\n", data)
			} else {
				out.Printf("%s", gateReport.String())
			}

			switch {
			case gateReport.HaltedAt != "":
				return fmt.Errorf("validation halted at gate %s", gateReport.HaltedAt)
			case !gateReport.OverallPass:
				return fmt.Errorf("validation failed: %d gate(s) below threshold", gateReport.GatesFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringP("source", "s", "", "Source document (.pdf or .txt)")
	cmd.Flags().StringP("config", "c", "", "Config file (YAML)")
	cmd.Flags().Int("threshold", 0, "Clause length above which points become separate chunks")
	cmd.Flags().String("taxonomy", "", "Taxonomy file (YAML) overriding the built-in tables")
	cmd.Flags().StringP("format", "f", "text", "Report format: text or json")
	cmd.Flags().String("report", "", "Also write the report to this file (.json, or .txt for text)")
	addGateFlags(cmd)

	return cmd
}

// addGateFlags registers the flags read by newGatePipeline.
func addGateFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("gate-threshold", nil, "Override a gate threshold (e.g. V1.chapter_coverage=0.8); repeatable")
	cmd.Flags().StringSlice("skip-gates", nil, "Gates to skip (e.g. V0,V2)")
	cmd.Flags().Bool("strict", false, "Stop at the first failing gate")
	cmd.Flags().Bool("fail-on-warn", false, "Stop at the first gate warning and fail")
}

// newGatePipeline builds the default V0-V2 pipeline from the gate flags.
func newGatePipeline(cmd *cobra.Command) (*validate.GatePipeline, *validate.ValidationConfig, error) {
	pairs, _ := cmd.Flags().GetStringSlice("gate-threshold")
	skipGates, _ := cmd.Flags().GetStringSlice("skip-gates")
	strictMode, _ := cmd.Flags().GetBool("strict")
	failOnWarn, _ := cmd.Flags().GetBool("fail-on-warn")

	thresholds, err := validate.ParseThresholds(pairs)
	if err != nil {
		return nil, nil, err
	}
	gateConfig := &validate.ValidationConfig{
		Thresholds: thresholds,
		SkipGates:  skipGates,
		StrictMode: strictMode,
		FailOnWarn: failOnWarn,
	}
	gatePipeline := validate.NewGatePipeline(gateConfig)
	gatePipeline.RegisterDefaultGates()
	return gatePipeline, gateConfig, nil
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of a chunk file",
		Long: `Show statistics of a chunk file written by the chunk command.

Example:
  quyche stats --input quy_che_rag_data.json --top 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			top, _ := cmd.Flags().GetInt("top")

			env, err := store.Load(input)
			if err != nil {
				return err
			}

			out := newUI(cmd)
			out.Info("%s (%s), created %s", env.Metadata.Document, env.Metadata.Version, env.Metadata.CreatedAt)
			printStats(out, extract.Aggregate(env.Chunks), top)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "quy_che_rag_data.json", "Chunk file")
	cmd.Flags().Int("top", 10, "Number of keywords to list")

	return cmd
}

// applyChunkFlags lets explicitly set flags override the loaded config.
func applyChunkFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.JSONPath, _ = flags.GetString("output")
	}
	if flags.Changed("sqlite") {
		cfg.Output.SQLitePath, _ = flags.GetString("sqlite")
	}
	if flags.Changed("taxonomy") {
		cfg.Chunking.TaxonomyPath, _ = flags.GetString("taxonomy")
	}
	if flags.Changed("threshold") {
		cfg.Chunking.PointSplitThreshold, _ = flags.GetInt("threshold")
	}
	return cfg.Validate()
}

// readSource returns the text of a PDF or plain-text regulation.
func readSource(ctx context.Context, path string, logger zerolog.Logger, out *ui) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("source file not found: %s", path)
		}
		return "", fmt.Errorf("failed to stat source: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read source: %w", err)
		}
		return pdftext.Normalize(string(data)), nil
	}

	bar := out.NewProgressBar("Reading PDF pages")
	defer bar.Finish()

	extractor := pdftext.NewExtractor(
		pdftext.WithLogger(logger),
		pdftext.WithProgress(bar.Update),
	)
	text, err := extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	return text, nil
}

// runGates runs the named gates into report and turns a halt into an error
// so that nothing is saved.
func runGates(out *ui, gatePipeline *validate.GatePipeline, gateContext *validate.ValidationContext, report *validate.GateReport, names ...string) error {
	for _, name := range names {
		gateResult := gatePipeline.RunGate(name, gateContext)
		if gateResult == nil {
			continue
		}
		halt := report.Add(gateResult, gateContext.Config)
		if !gateResult.Skipped {
			printGateResult(out, gateResult)
		}
		if halt {
			return fmt.Errorf("pipeline halted: gate %s failed", name)
		}
	}
	return nil
}

// saveGateReport writes report to path as JSON, or as text for a .txt path.
// An empty path writes nothing.
func saveGateReport(path string, report *validate.GateReport, started time.Time) error {
	if path == "" || report == nil {
		return nil
	}
	report.Finish(started)

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data = []byte(report.String())
	} else {
		var err error
		data, err = report.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize gate report: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write gate report: %w", err)
	}
	return nil
}

func printGateResult(out *ui, gateResult *validate.GateResult) {
	if gateResult.Passed {
		out.Success("Gate %s passed (score: %.1f%%)", gateResult.Gate, gateResult.Score*100)
	} else {
		out.Warning("Gate %s failed (score: %.1f%%)", gateResult.Gate, gateResult.Score*100)
	}
	for _, gateWarning := range gateResult.Warnings {
		out.Printf("    WARNING [%s]: %s\n", gateWarning.Metric, gateWarning.Message)
	}
	for _, gateError := range gateResult.Errors {
		out.Printf("    ERROR [%s]: %s\n", gateError.Metric, gateError.Message)
	}
}

func sourceSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func exportSQLite(ctx context.Context, path string, env *store.Envelope) (string, error) {
	index, err := store.OpenSQLite(path)
	if err != nil {
		return "", err
	}
	defer index.Close()

	runID, err := index.Save(ctx, env.Metadata, env.Chunks)
	if err != nil {
		return "", fmt.Errorf("failed to index chunks: %w", err)
	}
	return runID, nil
}

func logReport(logger zerolog.Logger, report extract.Report) {
	evt := logger.Info()
	if report.SkippedArticles > 0 || report.DuplicateIDs > 0 {
		evt = logger.Warn()
	}
	evt.Int("articles", report.Articles).
		Int("clauses", report.Clauses).
		Int("point_chunks", report.PointChunks).
		Int("articles_without_clauses", report.ArticlesWithoutClauses).
		Int("embedded_point_clauses", report.EmbeddedPointClauses).
		Int("skipped_articles", report.SkippedArticles).
		Int("duplicate_ids", report.DuplicateIDs).
		Msg("chunked document")
}

func printStats(out *ui, stats extract.Stats, top int) {
	out.Header("Statistics")
	out.Printf("  Total chunks:      %d\n", stats.TotalChunks)
	out.Printf("  With tables:       %d\n", stats.WithTables)
	out.Printf("  With references:   %d\n", stats.WithReferences)

	out.Header("By chapter")
	for _, e := range stats.Chapters() {
		out.Printf("  %-10s %d\n", e.Name, e.Count)
	}

	out.Header("Top keywords")
	for _, e := range stats.TopKeywords(top) {
		out.Printf("  %-20s %d\n", e.Name, e.Count)
	}

	out.Header("By audience")
	for _, e := range stats.Audiences() {
		out.Printf("  %-20s %d\n", e.Name, e.Count)
	}
}

func printSamples(out *ui, chunks []extract.Chunk, n int) {
	out.Header("Sample chunks")
	for i, ch := range chunks {
		if i >= n {
			break
		}
		out.Printf("\n--- Chunk %d ---\n", i+1)
		out.Printf("ID: %s (%s)\n", ch.ID, ch.Location())
		out.Printf("Text: %s\n", truncate(ch.Text, 100))
		meta, err := json.MarshalIndent(ch.Metadata, "", "  ")
		if err != nil {
			continue
		}
		out.Printf("Metadata: %s\n", meta)
	}
}

// truncate shortens s to n runes, appending "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
