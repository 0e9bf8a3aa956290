package model

import "time"

// Config is the complete newsverdict configuration.
// Field names double as viper keys (mapstructure) and YAML keys.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	News        NewsConfig        `yaml:"news" mapstructure:"news"`
	Model       ModelConfig       `yaml:"model" mapstructure:"model"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Monitor     MonitorConfig     `yaml:"monitor" mapstructure:"monitor"`
	History     HistoryConfig     `yaml:"history" mapstructure:"history"`
	Publish     PublishConfig     `yaml:"publish" mapstructure:"publish"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls outbound fetching of article pages
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RateLimit     float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second per domain, 0 disables
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// NewsConfig selects and configures the headline/search provider
type NewsConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // gnews, rss
	APIKey       string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Language     string        `yaml:"language" mapstructure:"language"`
	Country      string        `yaml:"country" mapstructure:"country"`
	MaxHeadlines int           `yaml:"max_headlines" mapstructure:"max_headlines"`
	MaxSearch    int           `yaml:"max_search" mapstructure:"max_search"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Feeds        []string      `yaml:"feeds,omitempty" mapstructure:"feeds"`
}

// ModelConfig locates the vectorizer and classifier artifacts
type ModelConfig struct {
	Backend        string        `yaml:"backend" mapstructure:"backend"` // local, remote
	Dir            string        `yaml:"dir" mapstructure:"dir"`
	Store          string        `yaml:"store,omitempty" mapstructure:"store"` // bbolt file; takes precedence over dir
	VectorizerName string        `yaml:"vectorizer_name" mapstructure:"vectorizer_name"`
	ClassifierName string        `yaml:"classifier_name" mapstructure:"classifier_name"`
	RemoteURL      string        `yaml:"remote_url,omitempty" mapstructure:"remote_url"`
	RemoteTimeout  time.Duration `yaml:"remote_timeout" mapstructure:"remote_timeout"`
}

// CacheConfig controls provider and extraction caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig controls the web UI
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	AutoRefresh     time.Duration `yaml:"auto_refresh" mapstructure:"auto_refresh"`
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// MonitorConfig controls periodic headline polling
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	SeenSize int           `yaml:"seen_size" mapstructure:"seen_size"`
}

// HistoryConfig controls the local check history
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// PublishConfig points at the publishers file used by the monitor
type PublishConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// LLMConfig configures the optional article summarizer
type LLMConfig struct {
	Provider  string        `yaml:"provider,omitempty" mapstructure:"provider"` // openai, ollama, "" disables
	Model     string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "newsverdict/0.1 (+https://github.com/ppiankov/newsverdict)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			RateLimit:     2,
		},
		News: NewsConfig{
			Provider:     "gnews",
			BaseURL:      "https://gnews.io/api/v4",
			Language:     "en",
			Country:      "in",
			MaxHeadlines: 6,
			MaxSearch:    5,
			Timeout:      15 * time.Second,
		},
		Model: ModelConfig{
			Backend:        "local",
			Dir:            "./artifacts",
			VectorizerName: "vectorizer",
			ClassifierName: "classifier",
			RemoteTimeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.newsverdict-cache",
			MemoryTTL: 2 * time.Minute,
			DiskTTL:   1 * time.Hour,
		},
		Server: ServerConfig{
			Addr:            ":8501",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			AutoRefresh:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval: 60 * time.Second,
			SeenSize: 1000,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./newsverdict-history.db",
		},
		LLM: LLMConfig{
			Timeout:   30 * time.Second,
			MaxTokens: 300,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
