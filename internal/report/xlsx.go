package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/newsdrift/contentpipeline/internal/ideas"
	"github.com/newsdrift/contentpipeline/internal/scrape"
)

const (
	articlesSheet = "Articles"
	ideasSheet    = "Content Ideas"
	statsSheet    = "Run Stats"
)

// Workbook writes one spreadsheet per run: articles, ideas and statistics on
// separate sheets.
type Workbook struct {
	Path string

	file *excelize.File
}

// NewWorkbook prepares an in-memory workbook targeting path. Nothing touches
// the filesystem until Flush.
func NewWorkbook(path string) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", articlesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{ideasSheet, statsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	return &Workbook{Path: path, file: f}, nil
}

// SaveArticles fills the Articles sheet, one row per scrape outcome.
func (w *Workbook) SaveArticles(outcomes []scrape.Outcome) error {
	headers := []string{
		"Title", "URL", "Published", "Author", "Categories",
		"Strategy", "Success", "Confidence", "Failure Reason", "Content",
	}
	if err := w.writeRow(articlesSheet, 1, toCells(headers)); err != nil {
		return err
	}
	for i, o := range outcomes {
		row := []interface{}{
			o.Article.Title,
			o.Article.URL,
			o.Article.PublishedAt.Format(time.RFC3339),
			o.Article.Author,
			strings.Join(o.Article.Categories, ", "),
			o.Strategy.String(),
			o.Success,
			o.Confidence,
			o.FailureReason,
			o.Article.Content,
		}
		if err := w.writeRow(articlesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// SaveIdeas fills the Content Ideas sheet.
func (w *Workbook) SaveIdeas(list []ideas.Idea) error {
	headers := []string{"Title", "Description", "Content Type", "Themes", "Keywords", "Sources"}
	if err := w.writeRow(ideasSheet, 1, toCells(headers)); err != nil {
		return err
	}
	for i, idea := range list {
		row := []interface{}{
			idea.Title,
			idea.Description,
			idea.ContentType,
			strings.Join(idea.Themes, ", "),
			strings.Join(idea.Keywords, ", "),
			strings.Join(idea.SourceURLs, "\n"),
		}
		if err := w.writeRow(ideasSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// SaveRunStats fills the Run Stats sheet as key/value rows, with failure
// reasons appended in alphabetical order.
func (w *Workbook) SaveRunStats(stats scrape.Stats) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Articles", stats.Total},
		{"Successful", stats.Success},
		{"Failed", stats.Failed},
		{"RSS Fallback", stats.RSSFallback},
		{"Success Rate", stats.SuccessRate()},
		{"Average Confidence", stats.AverageConfidence()},
		{"High Confidence (>=0.7)", stats.HighConfidence},
		{"Medium Confidence (0.4-0.7)", stats.MediumConfidence},
		{"Low Confidence (<0.4)", stats.LowConfidence},
	}
	reasons := make([]string, 0, len(stats.FailureReasons))
	for reason := range stats.FailureReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []interface{}{"Failures: " + reason, stats.FailureReasons[reason]})
	}

	for i, row := range rows {
		if err := w.writeRow(statsSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the workbook to disk and releases it.
func (w *Workbook) Flush() error {
	defer func() { _ = w.file.Close() }()
	if err := w.file.SaveAs(w.Path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.Path, err)
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := w.file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
