// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ner-corpus/internal/bio"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the label vocabulary with class ids",
	Long: `Labels prints the BIO tag set derived from the configured categories:
O first, then B- and I- for each category in configuration order. A
label's position is the class id used in dataset.json and the CSV files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab := bio.NewVocabulary(cfg.Corpus.Categories)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(vocab.Labels())
		}
		for id, label := range vocab.Labels() {
			fmt.Fprintf(os.Stdout, "%3d  %s\n", id, label)
		}
		return nil
	},
}

func init() {
	labelsCmd.Flags().Bool("json", false, "output the labels as a JSON array")

	rootCmd.AddCommand(labelsCmd)
}
