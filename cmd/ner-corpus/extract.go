// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ner-corpus/internal/extract"
	"github.com/pdiddy/ner-corpus/internal/metrics"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract candidate entity phrases from raw articles",
	Long: `Extract reads scraped articles (*.csv with a content column, or
*.jsonl) from the raw directory and writes one YAML file of documents per
input to the output directory. Each document carries the article text and
the candidate phrases found for every category by the configured keyword
dictionaries and patterns. Inputs whose output is up to date are skipped.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ec := cfg.Extraction
	if v, _ := cmd.Flags().GetString("raw-dir"); v != "" {
		ec.RawDir = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		ec.OutputDir = v
	}
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	ex, err := extract.NewExtractor(ec.Rules, nil)
	if err != nil {
		return fmt.Errorf("compiling extraction rules: %w", err)
	}

	var rec *metrics.Recorder
	if metricsFile != "" {
		rec = metrics.NewRecorder("")
	}
	runner := &extract.Runner{Extractor: ex, Logger: logger.Named("extract"), Metrics: rec}

	summary, err := runner.ExtractAll(cmd.Context(), ec, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nextracted: %d, skipped: %d, failed: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed)

	if err := rec.WriteTextfile(metricsFile); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) failed extraction", summary.Failed)
	}
	return nil
}

func init() {
	extractCmd.Flags().String("raw-dir", "", "directory of raw article files (default from config)")
	extractCmd.Flags().String("output-dir", "", "directory for preprocessed documents (default from config)")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus text-format metrics to this file")

	rootCmd.AddCommand(extractCmd)
}
