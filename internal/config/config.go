// Package config loads searchctl's application configuration from
// searchctl.yaml (with environment variable overrides), in the style of
// a viper-backed config package: a DefaultConfig, a Load, and a Validate
// that gates startup on sane values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/antflydb/searchctl/internal/logging"
)

// Config is the complete application configuration for searchctl. Load and
// DefaultConfig return it as a *Config that is threaded explicitly through
// constructors — nothing reads a package-level viper singleton.
type Config struct {
	Engine       EngineConfig       `mapstructure:"engine"`
	Server       ServerConfig       `mapstructure:"server"`
	Reindex      ReindexConfig      `mapstructure:"reindex"`
	Validation   ValidationConfig   `mapstructure:"validation"`
	BulkIndex    BulkIndexConfig    `mapstructure:"bulk_index"`
	Eval         EvalConfig         `mapstructure:"eval"`
	Reports      ReportsConfig      `mapstructure:"reports"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// EngineConfig points at the external search engine the engine port talks to.
type EngineConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	// IndexTemplatePath names a JSON file of settings and mappings applied
	// to every index the port creates. Empty means engine defaults.
	IndexTemplatePath string `mapstructure:"index_template_path"`
}

// ServerConfig configures the admin+search HTTP surface and health server.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	HealthPort int    `mapstructure:"health_port"`
	CORS       bool   `mapstructure:"cors"`
}

// ReindexConfig holds blue-green migration defaults.
type ReindexConfig struct {
	TargetSuffixLayout string `mapstructure:"target_suffix_layout"` // time.Format layout
}

// ValidationConfig holds reindex validator defaults.
type ValidationConfig struct {
	CountCheckEnabled   bool    `mapstructure:"count_check_enabled"`
	OverlapCheckEnabled bool    `mapstructure:"overlap_check_enabled"`
	HashCheckEnabled    bool    `mapstructure:"hash_check_enabled"`
	SampleQueryCount    int     `mapstructure:"sample_query_count"`
	TopK                int     `mapstructure:"top_k"`
	MinJaccard          float64 `mapstructure:"min_jaccard"`
	HashMaxDocs         int     `mapstructure:"hash_max_docs"`
	HashPageSize        int     `mapstructure:"hash_page_size"`
}

// BulkIndexConfig holds chunked bulk indexer defaults.
type BulkIndexConfig struct {
	ChunkSize  int `mapstructure:"chunk_size"`
	MaxRetries int `mapstructure:"max_retries"`
}

// EvalConfig holds evaluation runner defaults.
type EvalConfig struct {
	TopK                   int `mapstructure:"top_k"`
	MaxConcurrency         int `mapstructure:"max_concurrency"`
	RateLimitPerMinute     int `mapstructure:"rate_limit_per_minute"`
	WorstQueryReportCount  int `mapstructure:"worst_query_report_count"`
}

// ReportsConfig holds the local filesystem layout reports are written under.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig mirrors internal/logging.Config with mapstructure tags.
type LoggingConfig struct {
	Style string `mapstructure:"style"`
	Level string `mapstructure:"level"`
}

// ToLoggingConfig converts LoggingConfig into the logging package's Config.
func (c LoggingConfig) ToLoggingConfig() *logging.Config {
	return &logging.Config{Style: logging.Style(c.Style), Level: c.Level}
}

// DefaultConfig returns configuration with reasonable defaults for local
// development against a single-node engine.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			BaseURL: "http://localhost:9200",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			HealthPort: 8081,
			CORS:       true,
		},
		Reindex: ReindexConfig{
			TargetSuffixLayout: "20060102_150405",
		},
		Validation: ValidationConfig{
			CountCheckEnabled:   true,
			OverlapCheckEnabled: true,
			HashCheckEnabled:    true,
			SampleQueryCount:    20,
			TopK:                10,
			MinJaccard:          0.6,
			HashMaxDocs:         10000,
			HashPageSize:        500,
		},
		BulkIndex: BulkIndexConfig{
			ChunkSize:  500,
			MaxRetries: 2,
		},
		Eval: EvalConfig{
			TopK:                  10,
			MaxConcurrency:        8,
			RateLimitPerMinute:    600,
			WorstQueryReportCount: 10,
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
		Logging: LoggingConfig{
			Style: "terminal",
			Level: "info",
		},
	}
}

// Load reads the config file at path (or searchctl.yaml from the current
// directory when path is empty), applies SEARCHCTL_-prefixed environment
// overrides, fills in defaults for anything unset, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("searchctl")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("searchctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("engine.base_url", d.Engine.BaseURL)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("engine.index_template_path", d.Engine.IndexTemplatePath)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.health_port", d.Server.HealthPort)
	v.SetDefault("server.cors", d.Server.CORS)

	v.SetDefault("reindex.target_suffix_layout", d.Reindex.TargetSuffixLayout)

	v.SetDefault("validation.count_check_enabled", d.Validation.CountCheckEnabled)
	v.SetDefault("validation.overlap_check_enabled", d.Validation.OverlapCheckEnabled)
	v.SetDefault("validation.hash_check_enabled", d.Validation.HashCheckEnabled)
	v.SetDefault("validation.sample_query_count", d.Validation.SampleQueryCount)
	v.SetDefault("validation.top_k", d.Validation.TopK)
	v.SetDefault("validation.min_jaccard", d.Validation.MinJaccard)
	v.SetDefault("validation.hash_max_docs", d.Validation.HashMaxDocs)
	v.SetDefault("validation.hash_page_size", d.Validation.HashPageSize)

	v.SetDefault("bulk_index.chunk_size", d.BulkIndex.ChunkSize)
	v.SetDefault("bulk_index.max_retries", d.BulkIndex.MaxRetries)

	v.SetDefault("eval.top_k", d.Eval.TopK)
	v.SetDefault("eval.max_concurrency", d.Eval.MaxConcurrency)
	v.SetDefault("eval.rate_limit_per_minute", d.Eval.RateLimitPerMinute)
	v.SetDefault("eval.worst_query_report_count", d.Eval.WorstQueryReportCount)

	v.SetDefault("reports.dir", d.Reports.Dir)

	v.SetDefault("logging.style", d.Logging.Style)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Validate rejects out-of-range configuration before the server or CLI starts.
func (c *Config) Validate() error {
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.HealthPort < 1 || c.Server.HealthPort > 65535 {
		return fmt.Errorf("server.health_port must be between 1 and 65535")
	}
	if c.Validation.MinJaccard < 0 || c.Validation.MinJaccard > 1 {
		return fmt.Errorf("validation.min_jaccard must be between 0 and 1")
	}
	if c.Validation.SampleQueryCount < 0 {
		return fmt.Errorf("validation.sample_query_count must be >= 0")
	}
	if c.Validation.TopK < 1 {
		return fmt.Errorf("validation.top_k must be >= 1")
	}
	if c.Validation.HashMaxDocs < 0 {
		return fmt.Errorf("validation.hash_max_docs must be >= 0")
	}
	if c.Validation.HashPageSize < 0 {
		return fmt.Errorf("validation.hash_page_size must be >= 0")
	}
	if c.BulkIndex.ChunkSize < 1 {
		return fmt.Errorf("bulk_index.chunk_size must be >= 1")
	}
	if c.BulkIndex.MaxRetries < 0 {
		return fmt.Errorf("bulk_index.max_retries must be >= 0")
	}
	if c.Eval.TopK < 1 {
		return fmt.Errorf("eval.top_k must be >= 1")
	}
	if c.Eval.MaxConcurrency < 1 {
		return fmt.Errorf("eval.max_concurrency must be >= 1")
	}
	if c.Reports.Dir == "" {
		return fmt.Errorf("reports.dir is required")
	}
	validStyles := map[string]bool{"terminal": true, "json": true, "logfmt": true, "noop": true}
	if !validStyles[c.Logging.Style] {
		return fmt.Errorf("logging.style must be one of: terminal, json, logfmt, noop")
	}
	return nil
}
