package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Defaults mirrored by flag registration in cmd/contentpipeline.
const (
	DefaultCacheDir      = ".contentpipeline-cache"
	DefaultScrapeDelay   = 2 * time.Second
	DefaultFetchTimeout  = 15 * time.Second
	DefaultMaxRetries    = 3
	DefaultArticleLimit  = 10
	DefaultStrategy      = "enhanced"
	DefaultReportXLSX    = "run-report.xlsx"
	DefaultReportPDF     = ""
	DefaultUserAgent     = "contentpipeline/1.0 (+https://github.com/newsdrift/contentpipeline)"
	DefaultRobotsEnabled = true
)

// FeedConfig describes one RSS or Atom feed to monitor.
type FeedConfig struct {
	Name         string
	URL          string
	ArticleLimit int
	Enabled      bool
}

// Config holds runtime configuration for a pipeline run, merged from flags,
// environment and an optional config file.
type Config struct {
	Feeds []FeedConfig

	// Scraper
	Strategy     string
	ScrapeDelay  time.Duration
	FetchTimeout time.Duration
	MaxRetries   int
	UserAgent    string

	// Politeness / cache
	RobotsEnabled bool
	CacheDir      string
	CacheMaxAge   time.Duration
	CacheClear    bool

	// Report outputs; empty disables the sink.
	ReportXLSX string
	ReportPDF  string

	// LLM (optional idea refinement)
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	Verbose bool
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if len(cfg.Feeds) == 0 {
		return errors.New("config: at least one feed is required")
	}
	for i, f := range cfg.Feeds {
		u := strings.TrimSpace(f.URL)
		if u == "" {
			return fmt.Errorf("config: feed %d has no url", i)
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("config: feed %q url must be http(s), got %q", f.Name, f.URL)
		}
		if f.ArticleLimit < 0 {
			return fmt.Errorf("config: feed %q has negative article limit", f.Name)
		}
	}
	if cfg.ScrapeDelay < 0 || cfg.FetchTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.MaxRetries < 0 {
		return errors.New("config: negative retry count is not allowed")
	}
	if cfg.ReportXLSX == "" && cfg.ReportPDF == "" {
		return errors.New("config: at least one report output is required")
	}
	return nil
}
