// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ner-corpus CLI.
//
// The pipeline has two stages. extract finds candidate entity phrases in
// raw articles; build labels the preprocessed documents with BIO tags and
// writes the train/validation/test dataset. The store subcommands index a
// built dataset for search.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ner-corpus/internal/logging"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// envKeyReplacer maps nested config keys to NER_CORPUS_* variable names,
// e.g. corpus.split.seed to NER_CORPUS_CORPUS_SPLIT_SEED.
var envKeyReplacer = strings.NewReplacer(".", "_")

var (
	// cfg is the effective configuration: defaults, then the config file,
	// then NER_CORPUS_* environment variables. Command flags override it.
	cfg types.PipelineConfig

	// logger is the diagnostic logger built from cfg.Log.
	logger logging.Logger = logging.NewNopLogger()
)

// rootCmd is the base command for the ner-corpus CLI.
var rootCmd = &cobra.Command{
	Use:   "ner-corpus",
	Short: "Build BIO-tagged named entity corpora from news articles",
	Long: `ner-corpus turns scraped articles into a token-level named entity
training corpus.

extract scans raw articles for candidate phrases per entity category.
build finds those phrases in the text, splits sentences, tokenizes with
exact offsets, assigns BIO labels and writes train/validation/test splits.
store indexes a built dataset in SQLite for full-text and entity search.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.Log.Level = level
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		l, err := logging.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ner-corpus.yaml or ~/.config/ner-corpus/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ner-corpus")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ner-corpus"))
		}
	}

	viper.SetEnvPrefix("NER_CORPUS")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := setDefaults(viper.GetViper(), types.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "warning: registering config defaults:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every leaf of def as a viper default so that
// environment variables can override keys the config file omits.
func setDefaults(v *viper.Viper, def types.PipelineConfig) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, val := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]any); ok {
				walk(key, child)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)
	return nil
}

// loadConfig decodes the viper state over the built-in defaults.
func loadConfig() (types.PipelineConfig, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
