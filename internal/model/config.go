package model

import (
	"runtime"
	"time"
)

// Config is the complete billaudit configuration
type Config struct {
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// CatalogConfig points at the concept/rule catalogue
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = built-in catalogue
}

// ExtractionConfig selects the PDF text backend
type ExtractionConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"`     // native, pdftotext
	Pdftotext string `yaml:"pdftotext" mapstructure:"pdftotext"` // Binary name or absolute path
	MaxBytes  int64  `yaml:"max_bytes" mapstructure:"max_bytes"` // Per-document size limit, 0 = unlimited
}

// ConcurrencyConfig controls the document worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls caching of extracted document text
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"` // Empty = memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	IncludeNotes bool `yaml:"include_notes" mapstructure:"include_notes"`
	Verbose      bool `yaml:"verbose" mapstructure:"verbose"`
}

// ServerConfig controls the HTTP upload endpoint
type ServerConfig struct {
	Addr              string   `yaml:"addr" mapstructure:"addr"`
	MaxConns          int      `yaml:"max_conns" mapstructure:"max_conns"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int      `yaml:"burst_size" mapstructure:"burst_size"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LLMConfig configures the optional narrative summary
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" = disabled
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Backend:   "native",
			Pdftotext: "pdftotext",
			MaxBytes:  50 << 20,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			MaxConns:          64,
			MaxUploadBytes:    100 << 20,
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
	}
}
