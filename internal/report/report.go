// Package report persists the results of a pipeline run. Two sinks are
// provided: an Excel workbook with the full per-article detail and a
// one-page PDF digest of the run statistics.
package report

import (
	"github.com/newsdrift/contentpipeline/internal/ideas"
	"github.com/newsdrift/contentpipeline/internal/scrape"
)

// Sink receives the artifacts of one run. Implementations accumulate in
// memory and write everything on Flush.
type Sink interface {
	SaveArticles(outcomes []scrape.Outcome) error
	SaveIdeas(list []ideas.Idea) error
	SaveRunStats(stats scrape.Stats) error
	Flush() error
}
