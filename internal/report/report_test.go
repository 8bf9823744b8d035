package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/newsdrift/contentpipeline/internal/feed"
	"github.com/newsdrift/contentpipeline/internal/ideas"
	"github.com/newsdrift/contentpipeline/internal/scrape"
)

var (
	_ Sink = (*Workbook)(nil)
	_ Sink = (*PDFSummary)(nil)
)

func sampleOutcomes() []scrape.Outcome {
	return []scrape.Outcome{
		{
			Article: feed.Article{
				Title:       "Port Congestion Eases",
				URL:         "https://example.com/ports",
				PublishedAt: time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC),
				Author:      "Jamie Reporter",
				Categories:  []string{"shipping", "ports"},
				Content:     "Backlogs at major ports are clearing faster than expected.",
			},
			Strategy:   scrape.StrategyEnhanced,
			Success:    true,
			Confidence: 0.85,
		},
		{
			Article: feed.Article{
				Title: "Fuel Prices Climb",
				URL:   "https://example.com/fuel",
			},
			Strategy:      scrape.StrategyRSSFallback,
			Success:       true,
			Confidence:    0.3,
			FailureReason: "",
		},
	}
}

func sampleStats() scrape.Stats {
	stats := scrape.NewStats()
	stats.Total = 3
	stats.Success = 2
	stats.Failed = 1
	stats.RSSFallback = 1
	stats.HighConfidence = 1
	stats.LowConfidence = 1
	stats.TotalConfidence = 1.15
	stats.FailureReasons["timeout"] = 1
	return *stats
}

func TestWorkbook_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	wb, err := NewWorkbook(path)
	if err != nil {
		t.Fatalf("NewWorkbook: %v", err)
	}
	if err := wb.SaveArticles(sampleOutcomes()); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	if err := wb.SaveIdeas([]ideas.Idea{{
		Title:       "Top Logistics Trends This Week",
		Description: "Cross-article roundup covering logistics",
		ContentType: "Newsletter",
		Keywords:    []string{"shipping", "ports", "freight"},
		Themes:      []string{"logistics"},
		SourceURLs:  []string{"https://example.com/ports"},
	}}); err != nil {
		t.Fatalf("SaveIdeas: %v", err)
	}
	if err := wb.SaveRunStats(sampleStats()); err != nil {
		t.Fatalf("SaveRunStats: %v", err)
	}
	if err := wb.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	got, err := f.GetCellValue("Articles", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "Port Congestion Eases" {
		t.Fatalf("Articles!A2 = %q", got)
	}
	if got, _ := f.GetCellValue("Articles", "F3"); got != "rss_fallback" {
		t.Fatalf("Articles!F3 strategy = %q", got)
	}
	if got, _ := f.GetCellValue("Content Ideas", "A2"); got != "Top Logistics Trends This Week" {
		t.Fatalf("ideas title cell = %q", got)
	}
	if got, _ := f.GetCellValue("Run Stats", "A2"); got != "Total Articles" {
		t.Fatalf("stats label cell = %q", got)
	}
	if got, _ := f.GetCellValue("Run Stats", "B2"); got != "3" {
		t.Fatalf("stats total cell = %q", got)
	}
	if got, _ := f.GetCellValue("Run Stats", "A11"); got != "Failures: timeout" {
		t.Fatalf("failure reason cell = %q", got)
	}
}

func TestPDFSummary_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.pdf")
	sink := NewPDFSummary(path)
	sink.Now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	if err := sink.SaveArticles(sampleOutcomes()); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	if err := sink.SaveIdeas([]ideas.Idea{{Title: "Roundup", ContentType: "Newsletter"}}); err != nil {
		t.Fatalf("SaveIdeas: %v", err)
	}
	if err := sink.SaveRunStats(sampleStats()); err != nil {
		t.Fatalf("SaveRunStats: %v", err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("output is not a PDF (%d bytes)", len(data))
	}
}
