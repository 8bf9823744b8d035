package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads dotenv files into the process environment. Missing
// files are skipped; already-set variables are never overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if len(cfg.Feeds) == 0 {
		// FEED_URLS is a comma-separated list for quick runs without a
		// config file.
		for _, u := range strings.Split(os.Getenv("FEED_URLS"), ",") {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			cfg.Feeds = append(cfg.Feeds, FeedConfig{
				URL:          u,
				ArticleLimit: DefaultArticleLimit,
				Enabled:      true,
			})
		}
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		v := os.Getenv("LLM_API_KEY")
		if v == "" {
			v = os.Getenv("OPENAI_API_KEY")
		}
		cfg.LLMAPIKey = v
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}

	if s := os.Getenv("SCRAPE_DELAY"); s != "" && cfg.ScrapeDelay == 0 {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.ScrapeDelay = d
		}
	}
	if s := os.Getenv("MAX_RETRIES"); s != "" && cfg.MaxRetries == 0 {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.MaxRetries = n
		}
	}
}
