package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoainam183/GR/pkg/dataset"
)

func datasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Maintain the CSV question/answer datasets",
	}

	cmd.AddCommand(datasetAppendCmd())
	cmd.AddCommand(datasetSortCmd())
	return cmd
}

func datasetAppendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append JSON records to a CSV dataset",
		Long: `Append records to a CSV dataset without rewriting existing rows.

Records are read from a JSON array of objects whose keys must match the
CSV header. A missing CSV file is created with the default QA columns.

Example:
  quyche dataset append --csv clean_data.csv --records new_records.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			recordsPath, _ := cmd.Flags().GetString("records")

			if recordsPath == "" {
				return fmt.Errorf("--records flag is required")
			}

			f, err := os.Open(recordsPath)
			if err != nil {
				return fmt.Errorf("failed to open records: %w", err)
			}
			defer f.Close()

			records, err := dataset.DecodeRecords(f)
			if err != nil {
				return err
			}

			n, err := dataset.Append(csvPath, records)
			if err != nil {
				return fmt.Errorf("failed to append records: %w", err)
			}
			newUI(cmd).Success("Appended %d records to %s", n, csvPath)
			return nil
		},
	}

	cmd.Flags().String("csv", "clean_data.csv", "CSV dataset")
	cmd.Flags().String("records", "", "JSON file with an array of records")

	return cmd
}

func datasetSortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort a conversation CSV by thread and time",
		Long: `Sort a conversation CSV by thread_id and created_at and repair
Vietnamese text that was mis-decoded as Latin-1.

Example:
  quyche dataset sort --csv data.csv --output data2.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _ := cmd.Flags().GetString("csv")
			dst, _ := cmd.Flags().GetString("output")

			report, err := dataset.Sort(src, dst)
			if err != nil {
				return fmt.Errorf("failed to sort dataset: %w", err)
			}

			out := newUI(cmd)
			out.Success("Wrote %s", dst)
			out.Printf("  Rows:            %d\n", report.Rows)
			out.Printf("  Unique threads:  %d\n", report.Threads)
			out.Printf("  Repaired cells:  %d\n", report.RepairedCells)
			if report.Unparsed > 0 {
				out.Warning("%d rows have an unparseable created_at and were sorted last in their thread", report.Unparsed)
			}

			out.Header("Top threads")
			for _, t := range report.TopThreads {
				out.Printf("  %-20s %d\n", t.ThreadID, t.Rows)
			}
			return nil
		},
	}

	cmd.Flags().String("csv", "data.csv", "Source CSV")
	cmd.Flags().StringP("output", "o", "data2.csv", "Sorted CSV")

	return cmd
}
