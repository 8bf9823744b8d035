// Package feed ingests RSS and Atom feeds and maps their entries to the
// Article records the rest of the pipeline operates on.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// Article is one feed entry threaded through the pipeline. The scraper
// consumes URL and Summary (as fallback text) and fills Content; every other
// field is opaque passthrough from the feed.
type Article struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Summary     string
	Author      string
	Categories  []string

	// Content is the scraped article body, empty until the scraper runs.
	Content string
}

// Info describes a feed for connectivity checks and logging.
type Info struct {
	Title       string
	Description string
	Link        string
	Entries     int
}

// Monitor reads one configured feed. gofeed detects and normalizes RSS and
// Atom transparently.
type Monitor struct {
	FeedURL   string
	UserAgent string

	parser *gofeed.Parser
}

// NewMonitor creates a monitor for the given feed URL.
func NewMonitor(feedURL string) *Monitor {
	return &Monitor{
		FeedURL: feedURL,
		parser:  gofeed.NewParser(),
	}
}

// FetchLatest parses the feed and returns up to limit articles, newest
// first in feed order. Entries without a link are skipped.
func (m *Monitor) FetchLatest(ctx context.Context, limit int) ([]Article, error) {
	if limit < 0 {
		limit = 0
	}
	f, err := m.parse(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", m.FeedURL, err)
	}
	articles := make([]Article, 0, limit)
	for _, item := range f.Items {
		if len(articles) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}
		articles = append(articles, itemToArticle(item))
	}
	return articles, nil
}

// Info returns feed metadata; useful as a cheap connectivity probe before a
// run starts scraping.
func (m *Monitor) Info(ctx context.Context) (Info, error) {
	f, err := m.parse(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("parse feed %s: %w", m.FeedURL, err)
	}
	return Info{
		Title:       f.Title,
		Description: f.Description,
		Link:        f.Link,
		Entries:     len(f.Items),
	}, nil
}

func (m *Monitor) parse(ctx context.Context) (*gofeed.Feed, error) {
	if m.parser == nil {
		m.parser = gofeed.NewParser()
	}
	if m.UserAgent != "" {
		m.parser.UserAgent = m.UserAgent
	}
	return m.parser.ParseURLWithContext(m.FeedURL, ctx)
}

func itemToArticle(item *gofeed.Item) Article {
	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	author := ""
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	return Article{
		Title:       item.Title,
		URL:         item.Link,
		PublishedAt: published,
		Summary:     item.Description,
		Author:      author,
		Categories:  item.Categories,
	}
}
