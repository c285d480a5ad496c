// Package config loads application configuration via viper and sets up logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Score    ScoreConfig    `yaml:"score" mapstructure:"score"`
	Decide   DecideConfig   `yaml:"decide" mapstructure:"decide"`
	Verifier VerifierConfig `yaml:"verifier" mapstructure:"verifier"`
	Domains  DomainsConfig  `yaml:"domains" mapstructure:"domains"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the checkpoint/result store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig configures the search provider.
type SearchConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // "google", "bing", "stub"
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	EngineID    string  `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxQPS      float64 `yaml:"max_qps" mapstructure:"max_qps"`
	Retries     int     `yaml:"retries" mapstructure:"retries"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// CrawlConfig bounds the per-row candidate budget.
type CrawlConfig struct {
	MaxCandidates    int `yaml:"max_candidates" mapstructure:"max_candidates"`
	MaxPagesPerSite  int `yaml:"max_pages_per_site" mapstructure:"max_pages_per_site"`
	SearchResultCap  int `yaml:"search_result_cap" mapstructure:"search_result_cap"`
	SeedLinkCap      int `yaml:"seed_link_cap" mapstructure:"seed_link_cap"`
	DNSTimeoutSecs   int `yaml:"dns_timeout_secs" mapstructure:"dns_timeout_secs"`
	ProbeTimeoutSecs int `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
}

// ScoreConfig holds every scoring weight and penalty.
// All values are points on the 0-100 scale.
type ScoreConfig struct {
	PhoneWeight        float64 `yaml:"phone_weight" mapstructure:"phone_weight"`
	SharedPhoneWeight  float64 `yaml:"shared_phone_weight" mapstructure:"shared_phone_weight"`
	PhoneFreqLimit     int     `yaml:"phone_freq_limit" mapstructure:"phone_freq_limit"`
	AddressWeight      float64 `yaml:"address_weight" mapstructure:"address_weight"`
	AddressHighThresh  float64 `yaml:"address_high_thresh" mapstructure:"address_high_thresh"`
	AddressLowThresh   float64 `yaml:"address_low_thresh" mapstructure:"address_low_thresh"`
	AddressLowFraction float64 `yaml:"address_low_fraction" mapstructure:"address_low_fraction"`
	NameWeight         float64 `yaml:"name_weight" mapstructure:"name_weight"`
	VATExactBonus      float64 `yaml:"vat_exact_bonus" mapstructure:"vat_exact_bonus"`
	VATPresentBonus    float64 `yaml:"vat_present_bonus" mapstructure:"vat_present_bonus"`

	EmailBonus      float64 `yaml:"email_bonus" mapstructure:"email_bonus"`
	StructuredBonus float64 `yaml:"structured_bonus" mapstructure:"structured_bonus"`
	CorporateBonus  float64 `yaml:"corporate_bonus" mapstructure:"corporate_bonus"`
	ContactBonus    float64 `yaml:"contact_bonus" mapstructure:"contact_bonus"`
	HTTPSBonus      float64 `yaml:"https_bonus" mapstructure:"https_bonus"`

	DirectoryPenalty float64 `yaml:"directory_penalty" mapstructure:"directory_penalty"`
	SocialPenalty    float64 `yaml:"social_penalty" mapstructure:"social_penalty"`
	ParkedPenalty    float64 `yaml:"parked_penalty" mapstructure:"parked_penalty"`
	DNSPenalty       float64 `yaml:"dns_penalty" mapstructure:"dns_penalty"`
	HTTPPenalty      float64 `yaml:"http_penalty" mapstructure:"http_penalty"`

	AllowSocialFallback bool `yaml:"allow_social_fallback" mapstructure:"allow_social_fallback"`
}

// DecideConfig holds decision thresholds per risk tier.
type DecideConfig struct {
	OKScore          float64 `yaml:"ok_score" mapstructure:"ok_score"`
	OKMargin         float64 `yaml:"ok_margin" mapstructure:"ok_margin"`
	HighRiskScore    float64 `yaml:"high_risk_score" mapstructure:"high_risk_score"`
	HighRiskMargin   float64 `yaml:"high_risk_margin" mapstructure:"high_risk_margin"`
	ShortNameLen     int     `yaml:"short_name_len" mapstructure:"short_name_len"`
	UncertainBandLow float64 `yaml:"uncertain_band_low" mapstructure:"uncertain_band_low"`
	UncertainBandHi  float64 `yaml:"uncertain_band_hi" mapstructure:"uncertain_band_hi"`
}

// VerifierConfig configures the optional AI verification fallback.
type VerifierConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	Model         string  `yaml:"model" mapstructure:"model"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DomainsConfig holds noise-domain lists and parked-page indicators.
// ListFile, when set, points to a YAML file overriding the inline lists.
type DomainsConfig struct {
	ListFile         string   `yaml:"list_file" mapstructure:"list_file"`
	Directories      []string `yaml:"directories" mapstructure:"directories"`
	Social           []string `yaml:"social" mapstructure:"social"`
	Marketplaces     []string `yaml:"marketplaces" mapstructure:"marketplaces"`
	ParkedIndicators []string `yaml:"parked_indicators" mapstructure:"parked_indicators"`
}

// BatchConfig configures batch orchestration.
type BatchConfig struct {
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
	Waves       []string `yaml:"waves" mapstructure:"waves"`
}

// OutputConfig configures the result writer.
type OutputConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	FlushEvery    int    `yaml:"flush_every" mapstructure:"flush_every"`
	BufferSize    int    `yaml:"buffer_size" mapstructure:"buffer_size"`
	Format        string `yaml:"format" mapstructure:"format"` // "csv" or "jsonl"
	IncludeAudits bool   `yaml:"include_audits" mapstructure:"include_audits"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secret-bearing keys get empty defaults so AutomaticEnv
	// picks them up during Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "resolvit.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("search.provider", "google")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.max_qps", 2.0)
	v.SetDefault("search.retries", 2)

	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; resolvit/1.0)")

	v.SetDefault("crawl.max_candidates", 8)
	v.SetDefault("crawl.max_pages_per_site", 3)
	v.SetDefault("crawl.search_result_cap", 10)
	v.SetDefault("crawl.seed_link_cap", 15)
	v.SetDefault("crawl.dns_timeout_secs", 5)
	v.SetDefault("crawl.probe_timeout_secs", 10)

	v.SetDefault("score.phone_weight", 40.0)
	v.SetDefault("score.shared_phone_weight", 10.0)
	v.SetDefault("score.phone_freq_limit", 3)
	v.SetDefault("score.address_weight", 25.0)
	v.SetDefault("score.address_high_thresh", 0.7)
	v.SetDefault("score.address_low_thresh", 0.4)
	v.SetDefault("score.address_low_fraction", 0.5)
	v.SetDefault("score.name_weight", 20.0)
	v.SetDefault("score.vat_exact_bonus", 35.0)
	v.SetDefault("score.vat_present_bonus", 5.0)
	v.SetDefault("score.email_bonus", 4.0)
	v.SetDefault("score.structured_bonus", 4.0)
	v.SetDefault("score.corporate_bonus", 5.0)
	v.SetDefault("score.contact_bonus", 3.0)
	v.SetDefault("score.https_bonus", 2.0)
	v.SetDefault("score.directory_penalty", 60.0)
	v.SetDefault("score.social_penalty", 40.0)
	v.SetDefault("score.parked_penalty", 60.0)
	v.SetDefault("score.dns_penalty", 30.0)
	v.SetDefault("score.http_penalty", 20.0)
	v.SetDefault("score.allow_social_fallback", false)

	v.SetDefault("decide.ok_score", 45.0)
	v.SetDefault("decide.ok_margin", 10.0)
	v.SetDefault("decide.high_risk_score", 60.0)
	v.SetDefault("decide.high_risk_margin", 20.0)
	v.SetDefault("decide.short_name_len", 4)
	v.SetDefault("decide.uncertain_band_low", 25.0)
	v.SetDefault("decide.uncertain_band_hi", 60.0)

	v.SetDefault("verifier.enabled", false)
	v.SetDefault("verifier.api_key", "")
	v.SetDefault("verifier.model", "claude-haiku-4-5-20251001")
	v.SetDefault("verifier.min_confidence", 70.0)
	v.SetDefault("verifier.timeout_secs", 30)

	v.SetDefault("domains.directories", DefaultDirectoryDomains)
	v.SetDefault("domains.social", DefaultSocialDomains)
	v.SetDefault("domains.marketplaces", DefaultMarketplaceDomains)
	v.SetDefault("domains.parked_indicators", DefaultParkedIndicators)

	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.waves", []string{
		"fast-precision", "deep-coverage", "aggressive-probabilistic", "exhaustive",
	})

	v.SetDefault("output.path", "results.csv")
	v.SetDefault("output.flush_every", 20)
	v.SetDefault("output.buffer_size", 64)
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.include_audits", true)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Domains.ListFile != "" {
		if err := cfg.Domains.loadListFile(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
