package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/newsdrift/contentpipeline/internal/ideas"
	"github.com/newsdrift/contentpipeline/internal/scrape"
)

// PDFSummary renders a one-page digest of the run: headline statistics, the
// failure-reason breakdown and the top idea titles. It is intentionally
// simple and does not paginate article bodies.
type PDFSummary struct {
	Path string
	Now  func() time.Time

	articles int
	stats    scrape.Stats
	ideas    []ideas.Idea
}

// NewPDFSummary prepares a summary targeting path.
func NewPDFSummary(path string) *PDFSummary {
	return &PDFSummary{Path: path, Now: time.Now}
}

func (p *PDFSummary) SaveArticles(outcomes []scrape.Outcome) error {
	p.articles = len(outcomes)
	return nil
}

func (p *PDFSummary) SaveIdeas(list []ideas.Idea) error {
	p.ideas = list
	return nil
}

func (p *PDFSummary) SaveRunStats(stats scrape.Stats) error {
	p.stats = stats.Copy()
	return nil
}

// Flush renders and writes the PDF.
func (p *PDFSummary) Flush() error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	heading := func(text string) {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(format string, args ...interface{}) {
		pdf.CellFormat(0, 6, fmt.Sprintf(format, args...), "", 1, "L", false, 0, "")
	}

	heading("Content Pipeline Run Summary")
	line("Generated: %s", p.Now().UTC().Format(time.RFC3339))
	pdf.Ln(4)

	heading("Scraping")
	line("Articles processed: %d", p.stats.Total)
	line("Successful: %d (%.0f%%)", p.stats.Success, p.stats.SuccessRate()*100)
	line("Failed: %d", p.stats.Failed)
	line("RSS summary fallbacks: %d", p.stats.RSSFallback)
	line("Average confidence: %.2f", p.stats.AverageConfidence())
	line("Confidence buckets: high %d / medium %d / low %d",
		p.stats.HighConfidence, p.stats.MediumConfidence, p.stats.LowConfidence)

	if len(p.stats.FailureReasons) > 0 {
		pdf.Ln(4)
		heading("Failure Reasons")
		reasons := make([]string, 0, len(p.stats.FailureReasons))
		for reason := range p.stats.FailureReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			line("%s: %d", reason, p.stats.FailureReasons[reason])
		}
	}

	if len(p.ideas) > 0 {
		pdf.Ln(4)
		heading("Content Ideas")
		for i, idea := range p.ideas {
			line("%d. %s [%s]", i+1, idea.Title, idea.ContentType)
		}
	}

	return pdf.OutputFileAndClose(p.Path)
}
