package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// naturally to the flag namespace.
type FileConfig struct {
	Feeds []struct {
		Name    string `yaml:"name" json:"name"`
		URL     string `yaml:"url" json:"url"`
		Limit   int    `yaml:"limit" json:"limit"`
		Enabled *bool  `yaml:"enabled" json:"enabled"`
	} `yaml:"feeds" json:"feeds"`

	Scraper struct {
		Strategy   string        `yaml:"strategy" json:"strategy"`
		Delay      time.Duration `yaml:"delay" json:"delay"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout"`
		MaxRetries int           `yaml:"maxRetries" json:"maxRetries"`
		UserAgent  string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"scraper" json:"scraper"`

	Robots *struct {
		Enable *bool `yaml:"enable" json:"enable"`
	} `yaml:"robots" json:"robots"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear  bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Report struct {
		XLSX string `yaml:"xlsx" json:"xlsx"`
		PDF  string `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig, deciding by extension
// and trying both for anything else.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for fields still
// at their defaults. Flags should already have been parsed; this lets the
// file supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if len(cfg.Feeds) == 0 {
		for _, f := range fc.Feeds {
			enabled := true
			if f.Enabled != nil {
				enabled = *f.Enabled
			}
			limit := f.Limit
			if limit <= 0 {
				limit = DefaultArticleLimit
			}
			cfg.Feeds = append(cfg.Feeds, FeedConfig{
				Name:         f.Name,
				URL:          f.URL,
				ArticleLimit: limit,
				Enabled:      enabled,
			})
		}
	}

	if (cfg.Strategy == "" || cfg.Strategy == DefaultStrategy) && fc.Scraper.Strategy != "" {
		cfg.Strategy = fc.Scraper.Strategy
	}
	if (cfg.ScrapeDelay == 0 || cfg.ScrapeDelay == DefaultScrapeDelay) && fc.Scraper.Delay > 0 {
		cfg.ScrapeDelay = fc.Scraper.Delay
	}
	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == DefaultFetchTimeout) && fc.Scraper.Timeout > 0 {
		cfg.FetchTimeout = fc.Scraper.Timeout
	}
	if (cfg.MaxRetries == 0 || cfg.MaxRetries == DefaultMaxRetries) && fc.Scraper.MaxRetries > 0 {
		cfg.MaxRetries = fc.Scraper.MaxRetries
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Scraper.UserAgent != "" {
		cfg.UserAgent = fc.Scraper.UserAgent
	}

	// Robots defaults on; the file can switch it off explicitly.
	if fc.Robots != nil && fc.Robots.Enable != nil {
		cfg.RobotsEnabled = *fc.Robots.Enable
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}

	if (cfg.ReportXLSX == "" || cfg.ReportXLSX == DefaultReportXLSX) && fc.Report.XLSX != "" {
		cfg.ReportXLSX = fc.Report.XLSX
	}
	if cfg.ReportPDF == "" && fc.Report.PDF != "" {
		cfg.ReportPDF = fc.Report.PDF
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
