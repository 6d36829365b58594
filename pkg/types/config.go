package types

import (
	"fmt"
	"runtime"
)

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	// Level is the minimum severity: debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format selects json or console encoding (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// OutputPaths lists log sinks; "stderr" and "stdout" are special values.
	OutputPaths []string `json:"output_paths" yaml:"output_paths" mapstructure:"output_paths"`
}

// Pattern boundary requirements for PatternRule.
const (
	BoundaryNone  = ""
	BoundaryStart = "start"
	BoundaryBoth  = "both"
)

// PatternRule is a regular expression that yields candidate phrases. When
// the expression has a capture group, group 1 is the candidate.
type PatternRule struct {
	Expr string `json:"expr" yaml:"expr" mapstructure:"expr"`

	// Boundary requires the candidate to begin ("start") or begin and end
	// ("both") at a word boundary. Empty means no requirement.
	Boundary string `json:"boundary,omitempty" yaml:"boundary,omitempty" mapstructure:"boundary"`
}

// CategoryRule is the keyword dictionary and pattern set for one category.
type CategoryRule struct {
	Category string        `json:"category" yaml:"category" mapstructure:"category"`
	Keywords []string      `json:"keywords,omitempty" yaml:"keywords,omitempty" mapstructure:"keywords"`
	Patterns []PatternRule `json:"patterns,omitempty" yaml:"patterns,omitempty" mapstructure:"patterns"`
}

// ExtractionConfig holds settings for the candidate extraction stage.
type ExtractionConfig struct {
	// RawDir holds scraped articles (*.csv with a content column, or *.jsonl).
	RawDir string `json:"raw_dir" yaml:"raw_dir" mapstructure:"raw_dir"`

	// OutputDir receives one preprocessed *.yaml file per input file.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Rules lists the per-category dictionaries.
	Rules []CategoryRule `json:"rules" yaml:"rules" mapstructure:"rules"`
}

// SplitConfig controls the corpus partition.
type SplitConfig struct {
	// Seed makes the shuffle reproducible (default 42).
	Seed int64 `json:"seed" yaml:"seed" mapstructure:"seed"`

	// TrainRatio is the share of sequences assigned to train (default 0.8).
	TrainRatio float64 `json:"train_ratio" yaml:"train_ratio" mapstructure:"train_ratio"`

	// ValidationRatio is the share assigned to validation (default 0.1).
	// The remainder becomes the test split.
	ValidationRatio float64 `json:"validation_ratio" yaml:"validation_ratio" mapstructure:"validation_ratio"`
}

// CorpusConfig holds settings for the corpus build stage.
type CorpusConfig struct {
	// InputPath is a preprocessed file or a directory of them.
	InputPath string `json:"input_path" yaml:"input_path" mapstructure:"input_path"`

	// DatasetDir receives the dataset files and the index database.
	DatasetDir string `json:"dataset_dir" yaml:"dataset_dir" mapstructure:"dataset_dir"`

	// Categories lists the entity categories in vocabulary order.
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// Priority orders categories for overlap resolution, highest first.
	// Categories missing from the list are appended in Categories order.
	Priority []string `json:"priority" yaml:"priority" mapstructure:"priority"`

	// SentenceTerminators are regular expression alternatives that end a
	// sentence. Empty uses the built-in set.
	SentenceTerminators []string `json:"sentence_terminators,omitempty" yaml:"sentence_terminators,omitempty" mapstructure:"sentence_terminators"`

	// NormalizeUnicode applies NFC to document text and phrases on ingest.
	NormalizeUnicode bool `json:"normalize_unicode" yaml:"normalize_unicode" mapstructure:"normalize_unicode"`

	// Workers bounds per-document parallelism (default NumCPU).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	Split SplitConfig `json:"split" yaml:"split" mapstructure:"split"`

	// Formats selects dataset writers: conll, json, csv, preview.
	Formats []string `json:"formats" yaml:"formats" mapstructure:"formats"`

	// MetricsFile, when set, receives build counters in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// StoreConfig holds settings for the corpus index.
type StoreConfig struct {
	// DatasetDir is the dataset directory that contains index/.
	DatasetDir string `json:"dataset_dir" yaml:"dataset_dir" mapstructure:"dataset_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus" mapstructure:"corpus"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// Default category labels.
const (
	CategoryOrganization  = "ORG"
	CategoryVulnerability = "VULN"
	CategoryAttack        = "ATTACK"
	CategoryProduct       = "PROD"
	CategoryEvent         = "EVT"
	CategoryStrategy      = "STRATEGY"
)

// DefaultSeed is the shuffle seed used when none is configured.
const DefaultSeed = 42

// DefaultConfig returns the built-in pipeline configuration.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Extraction: ExtractionConfig{
			RawDir:    "data/raw",
			OutputDir: "data/preprocessed",
			Rules:     DefaultRules(),
		},
		Corpus: CorpusConfig{
			InputPath:  "data/preprocessed",
			DatasetDir: "dataset",
			Categories: []string{
				CategoryOrganization, CategoryVulnerability, CategoryAttack,
				CategoryProduct, CategoryEvent, CategoryStrategy,
			},
			Priority: []string{
				CategoryVulnerability, CategoryAttack, CategoryProduct,
				CategoryEvent, CategoryOrganization, CategoryStrategy,
			},
			NormalizeUnicode: true,
			Workers:          runtime.NumCPU(),
			Split: SplitConfig{
				Seed:            DefaultSeed,
				TrainRatio:      0.8,
				ValidationRatio: 0.1,
			},
			Formats: []string{"conll", "json", "csv", "preview"},
		},
		Store: StoreConfig{
			DatasetDir: "dataset",
			MaxResults: 20,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
	}
}

// DefaultRules returns the keyword dictionaries used by the candidate
// extractor for security news.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: CategoryOrganization,
			Patterns: []PatternRule{
				{Expr: `[가-힣A-Z][가-힣A-Za-z0-9]{1,15}(?:사|기업|대학교|기관|원|회)`, Boundary: BoundaryStart},
				{Expr: `[A-Z][A-Za-z]{2,}`, Boundary: BoundaryBoth},
			},
		},
		{
			Category: CategoryVulnerability,
			Keywords: []string{"취약점", "버그", "보안 결함"},
			Patterns: []PatternRule{{Expr: `CVE-\d{4}-\d+`}},
		},
		{
			Category: CategoryAttack,
			Keywords: []string{
				"공격", "해킹", "피싱", "랜섬웨어", "DDoS",
				"Exploit", "SQL Injection", "XSS", "트로이목마",
			},
		},
		{
			Category: CategoryProduct,
			Keywords: []string{
				"Windows", "윈도우", "Chrome", "크롬", "Android", "안드로이드",
				"iOS", "Exchange Server", "VPN", "백신", "방화벽",
			},
		},
		{
			Category: CategoryEvent,
			Keywords: []string{
				"개인정보 유출", "정보 유출", "데이터 유출", "침해 사고",
				"서비스 장애", "data breach",
			},
		},
		{
			Category: CategoryStrategy,
			Keywords: []string{
				"제로 트러스트", "zero trust", "zero-trust",
				"zero trust architecture", "ZTNA",
			},
		},
	}
}

// EffectivePriority returns the priority order used for overlap
// resolution: the configured priority followed by any category it omits.
func (c CorpusConfig) EffectivePriority() []string {
	seen := make(map[string]bool, len(c.Categories))
	out := make([]string, 0, len(c.Categories))
	for _, p := range c.Priority {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, cat := range c.Categories {
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// Validate checks the corpus settings for values the build cannot use.
func (c CorpusConfig) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("no categories configured")
	}
	known := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat == "" {
			return fmt.Errorf("empty category name")
		}
		if known[cat] {
			return fmt.Errorf("duplicate category %q", cat)
		}
		known[cat] = true
	}
	for _, p := range c.Priority {
		if !known[p] {
			return fmt.Errorf("priority lists unknown category %q", p)
		}
	}
	return c.Split.Validate()
}

// Validate checks that the ratios describe a partition.
func (s SplitConfig) Validate() error {
	if s.TrainRatio < 0 || s.TrainRatio > 1 {
		return fmt.Errorf("train ratio %v out of range [0,1]", s.TrainRatio)
	}
	if s.ValidationRatio < 0 || s.ValidationRatio > 1 {
		return fmt.Errorf("validation ratio %v out of range [0,1]", s.ValidationRatio)
	}
	if s.TrainRatio+s.ValidationRatio > 1 {
		return fmt.Errorf("train ratio %v plus validation ratio %v exceeds 1", s.TrainRatio, s.ValidationRatio)
	}
	return nil
}

// Validate checks every stage configuration.
func (c PipelineConfig) Validate() error {
	if err := c.Corpus.Validate(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	for i, r := range c.Extraction.Rules {
		if r.Category == "" {
			return fmt.Errorf("extraction: rule %d has no category", i)
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q (want console or json)", c.Log.Format)
	}
	return nil
}
