package model

import "time"

// Config is the complete TruthLedger configuration
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Extract      ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Store        StoreConfig       `yaml:"store" mapstructure:"store"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
}

// HTTPConfig controls outbound fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig is applied per destination host
type RateLimitConfig struct {
	RequestsPerSecond float64     `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int         `yaml:"burst_size" mapstructure:"burst_size"`
	Hosts             []HostLimit `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// HostLimit overrides the default rate for one host, e.g. a site that
// asks crawlers to slow down
type HostLimit struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls how many URLs are fetched at once
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ExtractConfig controls article text and claim extraction
type ExtractConfig struct {
	Strategy           string   `yaml:"strategy" mapstructure:"strategy"` // paragraphs, readability, visible
	Keywords           []string `yaml:"keywords" mapstructure:"keywords"`
	MinSentenceLength  int      `yaml:"min_sentence_length" mapstructure:"min_sentence_length"`
	MinParagraphLength int      `yaml:"min_paragraph_length" mapstructure:"min_paragraph_length"`
}

// ScoringConfig holds every heuristic threshold used by the scorers
type ScoringConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"` // similarity, keyword

	// Similarity strategy
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	TrueAgreement       float64 `yaml:"true_agreement" mapstructure:"true_agreement"`
	PartialAgreement    float64 `yaml:"partial_agreement" mapstructure:"partial_agreement"`

	// Keyword strategy
	FalseWords   []string `yaml:"false_words" mapstructure:"false_words"`
	PartialWords []string `yaml:"partial_words" mapstructure:"partial_words"`

	// Bias rating
	BiasWords         []string `yaml:"bias_words" mapstructure:"bias_words"`
	BiasLowBelow      float64  `yaml:"bias_low_below" mapstructure:"bias_low_below"`
	BiasMediumBelow   float64  `yaml:"bias_medium_below" mapstructure:"bias_medium_below"`
	BiasMinTextLength int      `yaml:"bias_min_text_length" mapstructure:"bias_min_text_length"`
}

// StoreConfig controls the embedded database
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	IDs  string `yaml:"ids" mapstructure:"ids"` // random, content
}

// ServerConfig controls the dashboard
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	DefaultURLs     []string      `yaml:"default_urls" mapstructure:"default_urls"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      5 * time.Second,
			UserAgent:    "TruthLedger/0.1 (+https://github.com/ppiankov/truthledger)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       ".truthledger-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		Extract: ExtractConfig{
			Strategy:           "paragraphs",
			Keywords:           []string{"will", "plan", "promise", "said", "report"},
			MinSentenceLength:  15,
			MinParagraphLength: 15,
		},
		Scoring: ScoringConfig{
			Strategy:            "similarity",
			SimilarityThreshold: 0.6,
			TrueAgreement:       0.8,
			PartialAgreement:    0.4,
			FalseWords:          []string{"never", "impossible", "fail"},
			PartialWords:        []string{"maybe", "could", "possibly"},
			BiasWords: []string{
				"outrageous", "shocking", "exclusive", "allegedly", "claims",
				"horrific", "devastating", "incredible", "disaster", "miracle",
			},
			BiasLowBelow:      0.25,
			BiasMediumBelow:   0.5,
			BiasMinTextLength: 50,
		},
		Store: StoreConfig{
			Path: "claims.db",
			IDs:  "random",
		},
		Server: ServerConfig{
			Addr:            ":8501",
			RefreshInterval: time.Minute,
			DefaultURLs: []string{
				"https://www.bbc.com/news/world-us-canada-67175669",
				"https://www.cnn.com/2025/09/22/technology/news-ai-update",
				"https://www.nytimes.com/2025/09/22/business/tech-startup-news.html",
			},
		},
	}
}
