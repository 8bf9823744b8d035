// Package scrape sequences fetch, extraction, fallback and statistics for
// one run of articles. Execution is sequential: target sites rate-limit, so
// politeness delays make parallel fetching counterproductive.
package scrape

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/newsdrift/contentpipeline/internal/extract"
	"github.com/newsdrift/contentpipeline/internal/feed"
	"github.com/newsdrift/contentpipeline/internal/fetch"
)

// Strategy selects how page content is obtained. The set is closed; dispatch
// is an explicit switch, not a plugin registry.
type Strategy int

const (
	// StrategyBasic fetches with a stable identity.
	StrategyBasic Strategy = iota
	// StrategyEnhanced rotates user agents and sends a Referer.
	StrategyEnhanced
	// StrategyCloudflareBypass adds browser navigation headers on top of the
	// enhanced identity.
	StrategyCloudflareBypass
	// StrategyRenderedSnapshot asks an external headless-browser
	// collaborator for rendered text, bypassing HTML parsing.
	StrategyRenderedSnapshot
	// StrategyRSSFallback marks outcomes resolved from the feed summary.
	StrategyRSSFallback
	// StrategyNone marks articles that produced no content at all.
	StrategyNone
)

func (s Strategy) String() string {
	switch s {
	case StrategyBasic:
		return "basic"
	case StrategyEnhanced:
		return "enhanced"
	case StrategyCloudflareBypass:
		return "cloudflare_bypass"
	case StrategyRenderedSnapshot:
		return "rendered_snapshot"
	case StrategyRSSFallback:
		return "rss_fallback"
	default:
		return "none"
	}
}

// ParseStrategy maps a configuration string to a Strategy. Unknown or empty
// values select StrategyEnhanced, the sensible default for public sites.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return StrategyBasic
	case "cloudflare_bypass", "cloudflare":
		return StrategyCloudflareBypass
	case "rendered_snapshot", "snapshot":
		return StrategyRenderedSnapshot
	default:
		return StrategyEnhanced
	}
}

const (
	// minContentChars mirrors the extractor's content gate: anything at or
	// below it is not a usable article body.
	minContentChars = 100

	// rssFallbackConfidence is the fixed trust assigned to feed summaries.
	rssFallbackConfidence = 0.3

	// Rendered snapshots resolved JS-dependent layout already, so they get a
	// fixed high confidence when substantial and a low one otherwise.
	snapshotConfidence    = 0.9
	snapshotLowConfidence = 0.3

	defaultMaxRetries = 3
)

// SnapshotProvider is the optional rendered-snapshot collaborator.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, url string) (string, error)
}

// Fetcher is the transport dependency; satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string, id fetch.Identity) ([]byte, string, error)
}

// Outcome is the resolved result for one article.
type Outcome struct {
	Article       feed.Article
	Strategy      Strategy
	Success       bool
	Confidence    float64
	FailureReason string
}

// Scraper runs the fetch → extract → fallback pipeline for articles and
// aggregates run statistics. Not safe for concurrent use; one instance per
// run.
type Scraper struct {
	Strategy   Strategy
	Delay      time.Duration
	MaxRetries int
	Snapshots  SnapshotProvider

	client Fetcher
	stats  *Stats
	sleep  func(time.Duration)
}

// New creates a scraper using the given transport.
func New(client Fetcher, strategy Strategy, delay time.Duration, maxRetries int) *Scraper {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Scraper{
		Strategy:   strategy,
		Delay:      delay,
		MaxRetries: maxRetries,
		client:     client,
		stats:      NewStats(),
		sleep:      time.Sleep,
	}
}

// ScrapeArticle resolves a single article: courtesy delay, fetch+extract
// with retries, then the fallback policy. The statistics accumulator is
// updated exactly once, after resolution. Nothing propagates to the caller;
// every failure is folded into the outcome.
func (s *Scraper) ScrapeArticle(ctx context.Context, article feed.Article) Outcome {
	s.stats.Total++
	if s.Delay > 0 {
		s.sleep(s.Delay)
	}

	text, confidence, err := s.attempt(ctx, article.URL)

	if err == nil && len(strings.TrimSpace(text)) > minContentChars {
		article.Content = text
		s.stats.recordSuccess(confidence)
		log.Info().
			Str("url", article.URL).
			Str("strategy", s.Strategy.String()).
			Float64("confidence", confidence).
			Msg("scraped full content")
		return Outcome{
			Article:    article,
			Strategy:   s.Strategy,
			Success:    true,
			Confidence: confidence,
		}
	}

	reason := ""
	if err != nil {
		reason = classifyError(err)
		s.stats.FailureReasons[reason]++
		log.Error().Err(err).Str("url", article.URL).Msg("scrape failed")
	}

	if article.Summary != "" {
		failureReason := "content extraction failed, using feed summary"
		if err != nil {
			failureReason = "scrape error (" + reason + "), using feed summary"
		}
		article.Content = article.Summary
		s.stats.recordSuccess(rssFallbackConfidence)
		s.stats.RSSFallback++
		log.Warn().Str("url", article.URL).Msg("using feed summary as fallback")
		return Outcome{
			Article:       article,
			Strategy:      StrategyRSSFallback,
			Success:       true,
			Confidence:    rssFallbackConfidence,
			FailureReason: failureReason,
		}
	}

	s.stats.recordFailure("no feed summary available")
	log.Error().Str("url", article.URL).Msg("no content extracted and no feed summary available")
	return Outcome{
		Article:       article,
		Strategy:      StrategyNone,
		FailureReason: "no content extracted and no feed summary available",
	}
}

// attempt obtains text and confidence for one URL. Retries are reserved for
// fetch failures, with 2^n seconds of backoff between tries; an empty
// extraction after a successful fetch is final, since the same HTML would
// parse the same way again.
func (s *Scraper) attempt(ctx context.Context, url string) (string, float64, error) {
	var lastErr error
	for i := 0; i < s.MaxRetries; i++ {
		if i > 0 {
			s.sleep(time.Duration(1<<(i-1)) * time.Second)
		}
		text, confidence, err := s.fetchOnce(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		return text, confidence, nil
	}
	return "", 0, lastErr
}

// fetchOnce dispatches on the configured strategy.
func (s *Scraper) fetchOnce(ctx context.Context, url string) (string, float64, error) {
	if s.Strategy == StrategyRenderedSnapshot && s.Snapshots != nil {
		text, err := s.Snapshots.Snapshot(ctx, url)
		if err == nil {
			confidence := snapshotLowConfidence
			if len(text) > minContentChars {
				confidence = snapshotConfidence
			}
			return text, confidence, nil
		}
		// Rendered channel unavailable; fall back to a plain fetch.
		log.Warn().Err(err).Str("url", url).Msg("snapshot provider failed, falling back to enhanced fetch")
	}

	body, _, err := s.client.Fetch(ctx, url, s.identity())
	if err != nil {
		return "", 0, err
	}
	res := extract.Extract(string(body))
	return res.Text, res.Confidence, nil
}

func (s *Scraper) identity() fetch.Identity {
	switch s.Strategy {
	case StrategyBasic:
		return fetch.IdentityBasic
	case StrategyCloudflareBypass:
		return fetch.IdentityBrowser
	default:
		return fetch.IdentityEnhanced
	}
}

// ScrapeAll processes articles sequentially, inserting a randomized delay in
// [Delay, 2*Delay] between articles to avoid detectable periodicity. Results
// come back in input order. Context cancellation stops the run between
// articles; completed outcomes are returned.
func (s *Scraper) ScrapeAll(ctx context.Context, articles []feed.Article) []Outcome {
	log.Info().Int("count", len(articles)).Str("strategy", s.Strategy.String()).Msg("scraping articles")

	outcomes := make([]Outcome, 0, len(articles))
	for i, article := range articles {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(articles)-i).Msg("scrape run cancelled")
			break
		}
		outcomes = append(outcomes, s.ScrapeArticle(ctx, article))
		if i < len(articles)-1 && s.Delay > 0 {
			jitter := s.Delay + time.Duration(rand.Float64()*float64(s.Delay))
			s.sleep(jitter)
		}
	}

	s.logStats()
	return outcomes
}

// Statistics returns a snapshot of the run's accumulator.
func (s *Scraper) Statistics() Stats {
	return s.stats.Copy()
}

func (s *Scraper) logStats() {
	st := s.stats
	if st.Total == 0 {
		return
	}
	log.Info().
		Int("total", st.Total).
		Int("success", st.Success).
		Int("failed", st.Failed).
		Int("rss_fallback", st.RSSFallback).
		Float64("success_rate", st.SuccessRate()).
		Float64("avg_confidence", st.AverageConfidence()).
		Int("high", st.HighConfidence).
		Int("medium", st.MediumConfidence).
		Int("low", st.LowConfidence).
		Msg("scrape run complete")
	for reason, count := range st.FailureReasons {
		log.Info().Str("reason", reason).Int("count", count).Msg("failure reason")
	}
}

// classifyError folds transport errors into a small set of stable reason
// keys for the statistics map.
func classifyError(err error) string {
	switch {
	case errors.Is(err, fetch.ErrDisallowedByRobots):
		return "robots_disallowed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "server error"):
		return "server_error"
	case strings.Contains(msg, "unexpected status"):
		return "http_status"
	case strings.Contains(msg, "unsupported content type"):
		return "content_type"
	default:
		return "fetch_error"
	}
}
