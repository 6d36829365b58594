// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ner-corpus/internal/corpus"
	"github.com/pdiddy/ner-corpus/internal/dataset"
	"github.com/pdiddy/ner-corpus/internal/ingest"
	"github.com/pdiddy/ner-corpus/internal/metrics"
	"github.com/pdiddy/ner-corpus/internal/store"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Label preprocessed documents and write the BIO dataset",
	Long: `Build reads preprocessed documents (CSV, JSON Lines or YAML), finds
each category's phrases in the text, splits the text into sentences,
tokenizes every sentence with exact offsets and assigns BIO labels.
Sequences without any entity are dropped; the rest are shuffled with the
configured seed and split into train, validation and test partitions.

The dataset is written to the dataset directory in the configured
formats (conll, json, csv, preview). With --index the build is also
ingested into the corpus index.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cc := cfg.Corpus
	if v, _ := cmd.Flags().GetString("input"); v != "" {
		cc.InputPath = v
	}
	if v, _ := cmd.Flags().GetString("dataset-dir"); v != "" {
		cc.DatasetDir = v
	}
	if cmd.Flags().Changed("seed") {
		cc.Split.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("workers") {
		cc.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("formats") {
		cc.Formats, _ = cmd.Flags().GetStringSlice("formats")
	}
	if v, _ := cmd.Flags().GetString("metrics-file"); v != "" {
		cc.MetricsFile = v
	}
	index, _ := cmd.Flags().GetBool("index")

	var rec *metrics.Recorder
	if cc.MetricsFile != "" {
		rec = metrics.NewRecorder("")
	}
	log := logger.Named("build")

	builder, err := corpus.NewBuilder(cc, corpus.WithLogger(log), corpus.WithMetrics(rec))
	if err != nil {
		return err
	}

	docs, err := ingest.NewReader(cc.Categories, cc.NormalizeUnicode, log).ReadPath(cc.InputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "loaded %d documents from %s\n", len(docs), cc.InputPath)

	start := time.Now()
	c, summary, err := builder.Build(cmd.Context(), docs)
	if err != nil {
		return err
	}
	printBuildSummary(summary, c, time.Since(start))

	written, err := dataset.Write(cc.DatasetDir, c, cc.Formats)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(os.Stdout, "wrote %s\n", p)
	}

	if index {
		sc := cfg.Store
		sc.DatasetDir = cc.DatasetDir
		s, err := store.NewStore(sc)
		if err != nil {
			return err
		}
		defer s.Close()
		info := store.BuildInfo{
			Source:      cc.InputPath,
			Seed:        cc.Split.Seed,
			Fingerprint: corpus.Fingerprint(c),
		}
		if _, err := s.Ingest(cmd.Context(), c, info, os.Stdout); err != nil {
			return err
		}
	}

	return rec.WriteTextfile(cc.MetricsFile)
}

func printBuildSummary(s corpus.BuildSummary, c types.Corpus, elapsed time.Duration) {
	fmt.Fprintf(os.Stdout, "\ndocuments: %d, skipped: %d, sentences: %d\n", s.Documents, s.Skipped, s.Sentences)
	fmt.Fprintf(os.Stdout, "sequences: %d, retained: %d, dropped: %d\n", s.Sequences, s.Retained, s.Dropped)

	cats := make([]string, 0, len(s.Spans))
	for cat := range s.Spans {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		fmt.Fprintf(os.Stdout, "  spans %-10s %d\n", cat, s.Spans[cat])
	}

	fmt.Fprintf(os.Stdout, "train=%d, validation=%d, test=%d (%s)\n",
		len(c.Train), len(c.Validation), len(c.Test), elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stdout, "fingerprint %s\n\n", corpus.Fingerprint(c))
}

func init() {
	buildCmd.Flags().String("input", "", "preprocessed file or directory (default from config)")
	buildCmd.Flags().String("dataset-dir", "", "output directory for the dataset (default from config)")
	buildCmd.Flags().Int64("seed", types.DefaultSeed, "shuffle seed")
	buildCmd.Flags().Int("workers", 0, "parallel documents (0 = number of CPUs)")
	buildCmd.Flags().StringSlice("formats", dataset.Formats, "dataset formats: conll, json, csv, preview")
	buildCmd.Flags().String("metrics-file", "", "write Prometheus text-format metrics to this file")
	buildCmd.Flags().Bool("index", false, "ingest the build into the corpus index")

	rootCmd.AddCommand(buildCmd)
}
