// Command contentpipeline runs the RSS content pipeline: fetch configured
// feeds, scrape article bodies, generate content ideas and write the run
// report.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/newsdrift/contentpipeline/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath  string
		envFile     string
		feedURLs    string
		strategy    string
		scrapeDelay time.Duration
		timeout     time.Duration
		maxRetries  int
		userAgent   string
		noRobots    bool
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		reportXLSX  string
		reportPDF   string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	flag.StringVar(&envFile, "env", ".env", "Path to dotenv file (missing file is ignored)")
	flag.StringVar(&feedURLs, "feeds", "", "Comma-separated feed URLs (alternative to config file)")
	flag.StringVar(&strategy, "strategy", app.DefaultStrategy, "Scrape strategy: basic, enhanced, cloudflare_bypass, rendered_snapshot")
	flag.DurationVar(&scrapeDelay, "delay", app.DefaultScrapeDelay, "Courtesy delay before each article fetch")
	flag.DurationVar(&timeout, "timeout", app.DefaultFetchTimeout, "Per-request fetch timeout")
	flag.IntVar(&maxRetries, "retries", app.DefaultMaxRetries, "Fetch attempts per article")
	flag.StringVar(&userAgent, "ua", app.DefaultUserAgent, "User-Agent for feed and robots requests")
	flag.BoolVar(&noRobots, "no-robots", false, "Skip robots.txt checks")
	flag.StringVar(&cacheDir, "cache.dir", app.DefaultCacheDir, "HTTP cache directory; empty disables caching")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.StringVar(&reportXLSX, "report.xlsx", app.DefaultReportXLSX, "Workbook output path; empty disables")
	flag.StringVar(&reportPDF, "report.pdf", app.DefaultReportPDF, "PDF summary output path; empty disables")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL for idea refinement")
	flag.StringVar(&llmModel, "llm.model", "", "Model name; empty disables refinement")
	flag.StringVar(&llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if err := app.LoadEnvFiles(envFile); err != nil {
		log.Warn().Err(err).Str("path", envFile).Msg("dotenv load failed")
	}

	cfg := app.Config{
		Strategy:      strategy,
		ScrapeDelay:   scrapeDelay,
		FetchTimeout:  timeout,
		MaxRetries:    maxRetries,
		UserAgent:     userAgent,
		RobotsEnabled: !noRobots,
		CacheDir:      cacheDir,
		CacheMaxAge:   cacheMaxAge,
		CacheClear:    cacheClear,
		ReportXLSX:    reportXLSX,
		ReportPDF:     reportPDF,
		LLMBaseURL:    llmBaseURL,
		LLMModel:      llmModel,
		LLMAPIKey:     llmKey,
		Verbose:       verbose,
	}

	for _, u := range strings.Split(feedURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.Feeds = append(cfg.Feeds, app.FeedConfig{
				URL:          u,
				ArticleLimit: app.DefaultArticleLimit,
				Enabled:      true,
			})
		}
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config file load failed")
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
