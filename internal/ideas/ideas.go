// Package ideas turns scraped articles into content-idea suggestions using a
// bag-of-words keyword heuristic and a small theme dictionary. An optional
// LLM pass can refresh the generated titles; the heuristic output stands on
// its own when no model is configured.
package ideas

import (
	"regexp"
	"sort"
	"strings"

	"github.com/newsdrift/contentpipeline/internal/feed"
)

// Idea is one brainstormed content suggestion.
type Idea struct {
	Title       string
	Description string
	Keywords    []string
	ContentType string
	Themes      []string
	SourceURLs  []string
}

const (
	maxIdeas            = 10
	maxKeywords         = 50
	keywordsPerTheme    = 10
	minKeywordLength    = 4
	minThemeKeywords    = 3
	maxTopicTitleLength = 50
)

// stopWords are filtered from keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "can": {}, "do": {}, "does": {}, "did": {}, "get": {},
	"got": {}, "go": {}, "goes": {}, "went": {}, "come": {}, "came": {},
	"take": {}, "took": {}, "make": {}, "made": {}, "see": {}, "saw": {},
	"know": {}, "knew": {}, "think": {}, "thought": {}, "say": {}, "said": {},
}

// themeCategories maps theme names to the words that signal them.
var themeCategories = map[string][]string{
	"technology":  {"tech", "digital", "software", "data", "ai", "automation", "platform", "system"},
	"business":    {"business", "company", "market", "industry", "revenue", "growth", "strategy"},
	"logistics":   {"shipping", "freight", "supply", "chain", "transportation", "delivery", "warehouse"},
	"finance":     {"financial", "investment", "cost", "price", "funding", "capital", "money"},
	"environment": {"sustainable", "green", "environment", "carbon", "emission", "climate"},
	"regulation":  {"regulation", "compliance", "policy", "government", "law", "legal"},
}

// articleTemplates produce per-article idea titles; %s is the main topic.
var articleTemplates = []string{
	"Understanding %s: A Deep Dive",
	"5 Key Takeaways from %s",
	"How %s Impacts Your Business",
	"The Future Implications of %s",
	"Breaking Down %s: What You Need to Know",
}

var (
	nonWordRe     = regexp.MustCompile(`[^\w\s]`)
	titlePrefixRe = regexp.MustCompile(`^(the|a|an)\s+`)
	titleSuffixRe = regexp.MustCompile(`\s+(news|report|update|analysis)$`)
)

// Generator produces content ideas from articles. The zero value uses the
// pure heuristic; set Refiner to post-process titles with a model.
type Generator struct {
	Refiner Refiner
}

// Generate returns up to ten deduplicated ideas for the given articles:
// per-article ideas across the template list plus cross-article theme
// roundups, sorted by keyword count.
func (g *Generator) Generate(articles []feed.Article) []Idea {
	if len(articles) == 0 {
		return nil
	}

	keywords := extractKeywords(articles)
	themes := identifyThemes(keywords)

	var all []Idea
	for _, article := range articles {
		all = append(all, articleIdeas(article, themes)...)
	}
	all = append(all, crossArticleIdeas(articles, themes)...)

	unique := deduplicate(all)
	if len(unique) > maxIdeas {
		unique = unique[:maxIdeas]
	}
	if g.Refiner != nil {
		unique = g.Refiner.Refine(unique)
	}
	return unique
}

// extractKeywords returns the most frequent non-stop-words across titles,
// summaries and content, sorted by descending frequency.
func extractKeywords(articles []feed.Article) []string {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, article := range articles {
		for _, text := range []string{article.Title, article.Summary, article.Content} {
			if text == "" {
				continue
			}
			clean := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
			for _, word := range strings.Fields(clean) {
				if len(word) < minKeywordLength {
					continue
				}
				if _, skip := stopWords[word]; skip {
					continue
				}
				if _, seen := counts[word]; !seen {
					order[word] = next
					next++
				}
				counts[word]++
			}
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Frequency first, earliest occurrence breaks ties so output is stable.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return order[words[i]] < order[words[j]]
	})
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}

// identifyThemes maps each theme to the extracted keywords that signal it.
func identifyThemes(keywords []string) map[string][]string {
	themes := make(map[string][]string)
	for theme, themeWords := range themeCategories {
		var matched []string
		for _, keyword := range keywords {
			for _, tw := range themeWords {
				if strings.Contains(keyword, tw) {
					matched = append(matched, keyword)
					break
				}
			}
		}
		if len(matched) > 0 {
			if len(matched) > keywordsPerTheme {
				matched = matched[:keywordsPerTheme]
			}
			themes[theme] = matched
		}
	}
	return themes
}

func articleIdeas(article feed.Article, themes map[string][]string) []Idea {
	articleText := strings.ToLower(article.Title + " " + article.Summary)
	var related []string
	for _, theme := range sortedThemes(themes) {
		for _, keyword := range themes[theme] {
			if strings.Contains(articleText, keyword) {
				related = append(related, theme)
				break
			}
		}
	}

	topic := mainTopic(article.Title)
	articleKeywords := extractKeywords([]feed.Article{article})
	if len(articleKeywords) > 5 {
		articleKeywords = articleKeywords[:5]
	}

	var out []Idea
	for _, tmpl := range articleTemplates {
		var kw []string
		for _, theme := range related {
			themed := themes[theme]
			if len(themed) > 3 {
				themed = themed[:3]
			}
			kw = append(kw, themed...)
		}
		kw = append(kw, articleKeywords...)

		out = append(out, Idea{
			Title:       strings.Replace(tmpl, "%s", topic, 1),
			Description: "Based on: " + article.Title,
			Keywords:    uniqueStrings(kw),
			ContentType: contentTypeFor(tmpl),
			Themes:      related,
			SourceURLs:  []string{article.URL},
		})
	}
	return out
}

func crossArticleIdeas(articles []feed.Article, themes map[string][]string) []Idea {
	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.URL)
	}

	var out []Idea
	for _, theme := range sortedThemes(themes) {
		keywords := themes[theme]
		if len(keywords) < minThemeKeywords {
			continue
		}
		display := strings.ToUpper(theme[:1]) + theme[1:]
		titles := []string{
			"Top " + display + " Trends This Week",
			display + " Industry Roundup",
			"What's Happening in " + display,
			display + " News You Can't Miss",
		}
		for _, title := range titles {
			out = append(out, Idea{
				Title:       title,
				Description: "Cross-article roundup covering " + theme,
				Keywords:    keywords,
				ContentType: "Newsletter",
				Themes:      []string{theme},
				SourceURLs:  urls,
			})
		}
	}
	return out
}

// mainTopic strips leading articles and trailing filler from a title and
// truncates it for use inside idea templates.
func mainTopic(title string) string {
	clean := strings.ToLower(strings.TrimSpace(title))
	clean = titlePrefixRe.ReplaceAllString(clean, "")
	clean = titleSuffixRe.ReplaceAllString(clean, "")
	if len(clean) > maxTopicTitleLength {
		clean = clean[:maxTopicTitleLength] + "..."
	}
	return titleCase(clean)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func contentTypeFor(template string) string {
	t := strings.ToLower(template)
	switch {
	case strings.Contains(t, "takeaways") || strings.Contains(t, "key"):
		return "Listicle"
	case strings.Contains(t, "deep dive") || strings.Contains(t, "understanding"):
		return "Blog Post"
	case strings.Contains(t, "breaking down"):
		return "Tutorial"
	default:
		return "Blog Post"
	}
}

// deduplicate drops repeated titles and sorts the rest by keyword count,
// more keywords first.
func deduplicate(in []Idea) []Idea {
	seen := make(map[string]struct{})
	var out []Idea
	for _, idea := range in {
		if _, dup := seen[idea.Title]; dup {
			continue
		}
		seen[idea.Title] = struct{}{}
		out = append(out, idea)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Keywords) > len(out[j].Keywords)
	})
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortedThemes(themes map[string][]string) []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
