// Package app wires the pipeline together: config, feeds, scraper, idea
// generation and report sinks, executed as one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/newsdrift/contentpipeline/internal/cache"
	"github.com/newsdrift/contentpipeline/internal/feed"
	"github.com/newsdrift/contentpipeline/internal/fetch"
	"github.com/newsdrift/contentpipeline/internal/ideas"
	"github.com/newsdrift/contentpipeline/internal/report"
	"github.com/newsdrift/contentpipeline/internal/robots"
	"github.com/newsdrift/contentpipeline/internal/scrape"
)

// ErrNoArticles is returned when every configured feed failed or produced
// zero entries. Per the exit code policy this results in a non-zero exit.
var ErrNoArticles = errors.New("no articles fetched from any feed")

type App struct {
	cfg     Config
	fetcher *fetch.Client
	refiner ideas.Refiner

	// monitorFor is swappable in tests.
	monitorFor func(url string) feedSource
}

type feedSource interface {
	FetchLatest(ctx context.Context, limit int) ([]feed.Article, error)
}

// New builds an App from validated config.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	var store *cache.Store
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.Clear(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		store = &cache.Store{Dir: cfg.CacheDir}
	}

	var gate *robots.Gate
	if cfg.RobotsEnabled {
		gate = &robots.Gate{UserAgent: cfg.UserAgent}
	}

	a := &App{
		cfg: cfg,
		fetcher: &fetch.Client{
			HTTPClient:        &http.Client{Timeout: cfg.FetchTimeout},
			MaxAttempts:       cfg.MaxRetries,
			PerRequestTimeout: cfg.FetchTimeout,
			Cache:             store,
			Robots:            gate,
		},
		monitorFor: func(url string) feedSource {
			m := feed.NewMonitor(url)
			m.UserAgent = cfg.UserAgent
			return m
		},
	}

	if cfg.LLMModel != "" {
		transport := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transport.BaseURL = cfg.LLMBaseURL
		}
		a.refiner = &ideas.LLMRefiner{
			Client: openai.NewClientWithConfig(transport),
			Model:  cfg.LLMModel,
		}
		log.Info().Str("model", cfg.LLMModel).Msg("LLM idea refinement enabled")
	}

	return a, nil
}

// Run executes one full pass: fetch feed entries, scrape article bodies,
// generate content ideas, write report sinks. Per-feed and per-sink errors
// are logged and folded into the returned error; the run itself always
// completes.
func (a *App) Run(ctx context.Context) error {
	started := time.Now()

	articles := a.collectArticles(ctx)
	if len(articles) == 0 {
		return ErrNoArticles
	}

	scraper := scrape.New(
		a.fetcher,
		scrape.ParseStrategy(a.cfg.Strategy),
		a.cfg.ScrapeDelay,
		a.cfg.MaxRetries,
	)
	outcomes := scraper.ScrapeAll(ctx, articles)
	stats := scraper.Statistics()

	gen := ideas.Generator{Refiner: a.refiner}
	ideaList := gen.Generate(scrapedArticles(outcomes))
	log.Info().Int("ideas", len(ideaList)).Msg("content ideas generated")

	var runErr error
	for _, sink := range a.sinks() {
		if err := writeSink(sink, outcomes, ideaList, stats); err != nil {
			log.Error().Err(err).Msg("report sink failed")
			runErr = errors.Join(runErr, err)
		}
	}

	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("articles", stats.Total).
		Int("ideas", len(ideaList)).
		Msg("run complete")
	return runErr
}

// collectArticles pulls entries from every enabled feed. A failing feed is
// logged and skipped, never fatal.
func (a *App) collectArticles(ctx context.Context) []feed.Article {
	var articles []feed.Article
	for _, fc := range a.cfg.Feeds {
		if !fc.Enabled {
			log.Debug().Str("feed", fc.Name).Msg("feed disabled, skipping")
			continue
		}
		limit := fc.ArticleLimit
		if limit <= 0 {
			limit = DefaultArticleLimit
		}
		entries, err := a.monitorFor(fc.URL).FetchLatest(ctx, limit)
		if err != nil {
			log.Warn().Err(err).Str("feed", fc.Name).Str("url", fc.URL).Msg("feed fetch failed")
			continue
		}
		log.Info().Str("feed", fc.Name).Int("entries", len(entries)).Msg("feed fetched")
		articles = append(articles, entries...)
	}
	return articles
}

func (a *App) sinks() []report.Sink {
	var out []report.Sink
	if a.cfg.ReportXLSX != "" {
		wb, err := report.NewWorkbook(a.cfg.ReportXLSX)
		if err != nil {
			log.Error().Err(err).Msg("workbook init failed")
		} else {
			out = append(out, wb)
		}
	}
	if a.cfg.ReportPDF != "" {
		out = append(out, report.NewPDFSummary(a.cfg.ReportPDF))
	}
	return out
}

func writeSink(sink report.Sink, outcomes []scrape.Outcome, ideaList []ideas.Idea, stats scrape.Stats) error {
	if err := sink.SaveArticles(outcomes); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	if err := sink.SaveIdeas(ideaList); err != nil {
		return fmt.Errorf("save ideas: %w", err)
	}
	if err := sink.SaveRunStats(stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return sink.Flush()
}

// scrapedArticles returns the articles that resolved with content, ready for
// idea generation.
func scrapedArticles(outcomes []scrape.Outcome) []feed.Article {
	out := make([]feed.Article, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			out = append(out, o.Article)
		}
	}
	return out
}
