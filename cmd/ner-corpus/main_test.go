// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

func TestSetDefaultsAllowsEnvOverride(t *testing.T) {
	t.Setenv("NER_CORPUS_CORPUS_SPLIT_SEED", "7")
	t.Setenv("NER_CORPUS_STORE_MAX_RESULTS", "5")

	v := viper.New()
	v.SetEnvPrefix("NER_CORPUS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	require.NoError(t, setDefaults(v, types.DefaultConfig()))

	c := types.DefaultConfig()
	require.NoError(t, v.Unmarshal(&c))
	assert.Equal(t, int64(7), c.Corpus.Split.Seed)
	assert.Equal(t, 5, c.Store.MaxResults)
	assert.Equal(t, 0.8, c.Corpus.Split.TrainRatio)
	assert.Equal(t, types.DefaultConfig().Corpus.Categories, c.Corpus.Categories)
	assert.Len(t, c.Extraction.Rules, len(types.DefaultRules()))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ner-corpus.yaml")
	require.NoError(t, writeDefaultConfig(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c types.PipelineConfig
	require.NoError(t, yaml.Unmarshal(data, &c))
	assert.Equal(t, types.DefaultConfig().Corpus.Priority, c.Corpus.Priority)
	require.NoError(t, c.Validate())

	assert.ErrorContains(t, writeDefaultConfig(path, false), "already exists")
	assert.NoError(t, writeDefaultConfig(path, true))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "마이크로...", truncate("마이크로소프트 익스체인지", 7))
}
