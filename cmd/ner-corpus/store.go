// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ner-corpus/internal/dataset"
	"github.com/pdiddy/ner-corpus/internal/store"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the corpus index (ingest, retrieve, stats, export)",
	Long: `Store manages a local SQLite index of built corpora. Every labeled
sequence is stored with its split, source document and decoded entity
mentions, and is searchable with FTS5 full-text queries.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the dataset.json of a built corpus",
	Long: `Ingest reads dataset.json from the dataset directory and indexes it.
The build id is derived from the corpus content, so ingesting the same
corpus twice is a no-op.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	sc := storeConfig(cmd)
	c, err := dataset.ReadJSON(sc.DatasetDir)
	if err != nil {
		return err
	}

	s, err := store.NewStore(sc)
	if err != nil {
		return err
	}
	defer s.Close()

	source, _ := cmd.Flags().GetString("source")
	_, err = s.Ingest(cmd.Context(), c, store.BuildInfo{Source: source}, os.Stdout)
	return err
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search indexed sequences with full-text search and filters",
	Long: `Retrieve searches indexed sequences using FTS5 full-text search,
structured filters (category, entity, split, build), or both.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --entity, --split, or --build")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-10s  %-20s  %-50s  %s\n",
		"Rank", "Split", "Document", "Text", "Entities")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		var ents []string
		for _, m := range r.Mentions {
			ents = append(ents, m.Category+":"+m.Text)
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-10s  %-20s  %-50s  %s\n",
			i+1, r.Split, truncate(r.DocumentID, 20), truncate(strings.Join(r.Tokens, " "), 50),
			strings.Join(ents, ", "))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- stats subcommand ---

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sequence, label and mention counts of a build",
	RunE:  runStoreStats,
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	buildID, _ := cmd.Flags().GetString("build")
	st, err := s.Stats(cmd.Context(), buildID)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(os.Stdout, "build %s\n", st.BuildID)
	fmt.Fprintln(os.Stdout, "\nsequences")
	for _, split := range types.Splits {
		fmt.Fprintf(os.Stdout, "  %-12s %d\n", split, st.Sequences[string(split)])
	}
	printCounts("labels", st.Labels)
	printCounts("mentions", st.Mentions)
	return nil
}

func printCounts(title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(os.Stdout, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "  %-12s %d\n", k, counts[k])
	}
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed sequences to YAML or JSON",
	Long: `Export writes indexed sequences (or a filtered subset) to
<dataset-dir>/index/export.yaml or export.json. Supports the same filter
flags as retrieve.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", s.Dir())
	case "json":
		if err := s.ExportJSON(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", s.Dir())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	sc := cfg.Store
	if v, _ := cmd.Flags().GetString("dataset-dir"); v != "" {
		sc.DatasetDir = v
	}
	if cmd.Flags().Changed("max-results") {
		sc.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return sc
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	category, _ := cmd.Flags().GetString("category")
	entity, _ := cmd.Flags().GetString("entity")
	split, _ := cmd.Flags().GetString("split")
	buildID, _ := cmd.Flags().GetString("build")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Category:   category,
		Entity:     entity,
		Split:      types.Split(split),
		BuildID:    buildID,
		MaxResults: limit,
	}
}

func addFilterFlags(c *cobra.Command, purpose string) {
	c.Flags().String("query", "", "full-text search query"+purpose)
	c.Flags().String("category", "", "filter by entity category, e.g. ORG"+purpose)
	c.Flags().String("entity", "", "filter by entity text, case-insensitive"+purpose)
	c.Flags().String("split", "", "filter by split: train, validation, test"+purpose)
	c.Flags().String("build", "", "filter by build id"+purpose)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("dataset-dir", "", "dataset directory containing index/ (default from config)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	storeIngestCmd.Flags().String("source", "", "input path recorded with the build")

	addFilterFlags(storeRetrieveCmd, "")
	storeRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	storeStatsCmd.Flags().String("build", "", "build id (default: latest build)")
	storeStatsCmd.Flags().Bool("json", false, "output counts as JSON")

	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	addFilterFlags(storeExportCmd, " for partial export")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
